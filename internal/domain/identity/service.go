package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/diaglab/diaglab/internal/platform/apiclient"
)

var ErrMissingToken = errors.New("auth response did not include a token")

type Service struct {
	api      apiclient.API
	validate *validator.Validate
}

func NewService(api apiclient.API) *Service {
	return &Service{api: api, validate: validator.New()}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid registration: %w", err)
	}
	var res AuthResult
	if err := s.api.Post(ctx, "/auth/register", req, &res); err != nil {
		return nil, err
	}
	if res.Token == "" {
		return nil, ErrMissingToken
	}
	return &res, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid login: %w", err)
	}
	var res AuthResult
	if err := s.api.Post(ctx, "/auth/login", req, &res); err != nil {
		return nil, err
	}
	if res.Token == "" {
		return nil, ErrMissingToken
	}
	return &res, nil
}

// Me fetches the account behind the current bearer token.
func (s *Service) Me(ctx context.Context) (*User, error) {
	var u User
	if err := s.api.Get(ctx, "/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
