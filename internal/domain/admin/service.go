package admin

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/diaglab/diaglab/internal/domain/identity"
	"github.com/diaglab/diaglab/internal/domain/scheduling"
	"github.com/diaglab/diaglab/internal/platform/apiclient"
)

var ErrEmptyQuery = errors.New("please enter search query")

// Stats are the headline numbers of the admin dashboard.
type Stats struct {
	TotalBookings         int     `json:"total_bookings"`
	PendingAppointments   int     `json:"pending_appointments"`
	CompletedAppointments int     `json:"completed_appointments"`
	TotalRevenue          float64 `json:"total_revenue"`
	PendingReports        int     `json:"pending_reports"`
}

type Service struct {
	api apiclient.API
}

func NewService(api apiclient.API) *Service {
	return &Service{api: api}
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	if err := s.api.Get(ctx, "/admin/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) Users(ctx context.Context) ([]identity.User, error) {
	out := []identity.User{}
	if err := s.api.Get(ctx, "/admin/users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SeedData loads the sample catalog into the backend and returns its message.
func (s *Service) SeedData(ctx context.Context) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := s.api.Post(ctx, "/admin/seed-data", nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// SearchPatients finds confirmed appointments by patient name, phone or
// booking id, for attaching a report.
func (s *Service) SearchPatients(ctx context.Context, query string) ([]scheduling.Appointment, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	out := []scheduling.Appointment{}
	if err := s.api.Get(ctx, "/admin/search-patients", url.Values{"query": {query}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
