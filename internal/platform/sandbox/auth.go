package sandbox

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/diaglab/diaglab/internal/domain/identity"
	"github.com/diaglab/diaglab/internal/platform/session"
)

const (
	tokenTTL   = 24 * time.Hour
	userCtxKey = "sandbox_user"
)

func (s *Server) hashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), s.cost)
}

func checkPassword(hash []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// issueToken signs an HS256 access token for u carrying the same claims the
// client session reads.
func (s *Server) issueToken(u identity.User) (string, error) {
	now := s.now()
	claims := session.Claims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// requireUser resolves the bearer token to a stored user.
func (s *Server) requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth := c.Request().Header.Get("Authorization")
		raw, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
		}

		claims := &session.Claims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
			jwt.WithValidMethods([]string{"HS256"}),
			jwt.WithTimeFunc(s.now),
		)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return echo.NewHTTPError(http.StatusUnauthorized, "Token expired")
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		}

		u, ok := s.store.user(claims.Subject)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
		}
		c.Set(userCtxKey, u)
		return next(c)
	}
}

// requireAdmin must run after requireUser.
func (s *Server) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		u := currentUser(c)
		if !u.IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, "Admin access required")
		}
		return next(c)
	}
}

func currentUser(c echo.Context) identity.User {
	u, _ := c.Get(userCtxKey).(identity.User)
	return u
}
