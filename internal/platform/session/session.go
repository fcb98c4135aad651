// Package session holds the signed-in user for one client process. A Session
// is created explicitly, initialised from the persisted token, and passed to
// whatever needs the current user or the bearer token.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/diaglab/diaglab/internal/domain/identity"
	"github.com/diaglab/diaglab/internal/platform/apiclient"
)

var (
	ErrNotAuthenticated = errors.New("please login to continue")
	ErrNotAdmin         = errors.New("admin access required")
)

// UserFetcher resolves the account behind the current token.
type UserFetcher interface {
	Me(ctx context.Context) (*identity.User, error)
}

// Claims are the fields the backend puts in its access tokens.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Session struct {
	store  Store
	logger zerolog.Logger
	now    func() time.Time

	mu     sync.RWMutex
	token  string
	claims *Claims
	user   *identity.User
}

func New(store Store, logger zerolog.Logger) *Session {
	return &Session{store: store, logger: logger, now: time.Now}
}

// Init reads the persisted token and validates it. Expired or rejected
// tokens are cleared. Transport failures leave the token in place and the
// user unset, and the error is returned.
func (s *Session) Init(ctx context.Context, users UserFetcher) error {
	token, err := s.store.Load()
	if err != nil {
		s.logger.Warn().Err(err).Msg("discarding unreadable session")
		return s.Logout()
	}
	if token == "" {
		s.reset()
		return nil
	}

	claims, err := parseClaims(token)
	if err != nil {
		s.logger.Info().Err(err).Msg("stored token is malformed, clearing session")
		return s.Logout()
	}
	if claims.ExpiresAt != nil && !claims.ExpiresAt.After(s.now()) {
		s.logger.Info().Time("expired_at", claims.ExpiresAt.Time).Msg("stored token expired, clearing session")
		return s.Logout()
	}

	s.mu.Lock()
	s.token = token
	s.claims = claims
	s.user = nil
	s.mu.Unlock()

	user, err := users.Me(ctx)
	if err != nil {
		if apiclient.IsUnauthorized(err) || apiclient.IsForbidden(err) {
			s.logger.Info().Err(err).Msg("stored token rejected, clearing session")
			return s.Logout()
		}
		return fmt.Errorf("fetch current user: %w", err)
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	s.logger.Debug().Str("user_id", user.ID).Str("role", user.Role).Msg("session restored")
	return nil
}

// Establish records a fresh login and persists its token.
func (s *Session) Establish(token string, user identity.User) error {
	if token == "" {
		return identity.ErrMissingToken
	}
	claims, err := parseClaims(token)
	if err != nil {
		return fmt.Errorf("parse token: %w", err)
	}
	if err := s.store.Save(token); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.claims = claims
	u := user
	s.user = &u
	return nil
}

// Logout clears the persisted token and resets in-memory state.
func (s *Session) Logout() error {
	s.reset()
	if err := s.store.Clear(); err != nil {
		return err
	}
	return nil
}

func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.claims = nil
	s.user = nil
}

// Token implements apiclient.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) User() (identity.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return identity.User{}, false
	}
	return *s.user, true
}

// Claims returns the unverified claims of the current token, or nil.
func (s *Session) Claims() *Claims {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.claims == nil {
		return nil
	}
	c := *s.claims
	return &c
}

func (s *Session) RequireUser() error {
	if _, ok := s.User(); !ok {
		return ErrNotAuthenticated
	}
	return nil
}

func (s *Session) RequireAdmin() error {
	u, ok := s.User()
	if !ok {
		return ErrNotAuthenticated
	}
	if !u.IsAdmin() {
		return ErrNotAdmin
	}
	return nil
}

// parseClaims decodes the token without verifying its signature; the
// backend is the only party holding the key.
func parseClaims(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}
