package payments

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/diaglab/diaglab/internal/platform/apiclient"
)

type Service struct {
	api      apiclient.API
	validate *validator.Validate
}

func NewService(api apiclient.API) *Service {
	return &Service{api: api, validate: validator.New()}
}

// CreateOrder opens a gateway order for amount (in rupees) against an
// appointment.
func (s *Service) CreateOrder(ctx context.Context, amount float64, appointmentID string) (*Order, error) {
	req := OrderRequest{Amount: amount, AppointmentID: appointmentID}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid order: %w", err)
	}
	var out Order
	if err := s.api.Post(ctx, "/payments/create-order", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Verify confirms a completed checkout with the backend.
func (s *Service) Verify(ctx context.Context, v Verification) (*VerifyResult, error) {
	if err := s.validate.Struct(v); err != nil {
		return nil, fmt.Errorf("invalid verification: %w", err)
	}
	var out VerifyResult
	if err := s.api.Post(ctx, "/payments/verify", v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) History(ctx context.Context) ([]Payment, error) {
	out := []Payment{}
	if err := s.api.Get(ctx, "/payments/history", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
