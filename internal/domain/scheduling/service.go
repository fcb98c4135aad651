package scheduling

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/diaglab/diaglab/internal/platform/apiclient"
)

type Service struct {
	api apiclient.API
}

func NewService(api apiclient.API) *Service {
	return &Service{api: api}
}

// -- Appointments --

func (s *Service) Create(ctx context.Context, req AppointmentCreate) (*CreateResult, error) {
	var out CreateResult
	if err := s.api.Post(ctx, "/appointments", req, &out); err != nil {
		return nil, err
	}
	if out.BookingID == "" {
		out.BookingID = out.Appointment.BookingID
	}
	return &out, nil
}

// Mine lists the signed-in user's appointments, newest first.
func (s *Service) Mine(ctx context.Context) ([]Appointment, error) {
	out := []Appointment{}
	if err := s.api.Get(ctx, "/appointments", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// All lists every appointment. Admin only.
func (s *Service) All(ctx context.Context) ([]Appointment, error) {
	out := []Appointment{}
	if err := s.api.Get(ctx, "/appointments/all", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, id string, fields map[string]any) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("appointment id is required")
	}
	if len(fields) == 0 {
		return fmt.Errorf("no fields to update")
	}
	return s.api.Put(ctx, "/appointments/"+url.PathEscape(id), fields, nil)
}

func (s *Service) UpdateStatus(ctx context.Context, id, status string) error {
	if !validStatuses[status] {
		return fmt.Errorf("invalid appointment status %q", status)
	}
	return s.Update(ctx, id, map[string]any{"status": status})
}

// -- Slots --

// Slots fetches the slot grid for a date.
func (s *Service) Slots(ctx context.Context, d Date) ([]Slot, error) {
	var out SlotsResponse
	if err := s.api.Get(ctx, "/appointments/slots", url.Values{"date": {d.String()}}, &out); err != nil {
		return nil, err
	}
	if out.Slots == nil {
		return []Slot{}, nil
	}
	return out.Slots, nil
}

// -- Derivations --

// Upcoming keeps appointments that are neither completed nor cancelled.
func Upcoming(appts []Appointment) []Appointment {
	out := make([]Appointment, 0, len(appts))
	for _, a := range appts {
		if a.Status != StatusCompleted && a.Status != StatusCancelled {
			out = append(out, a)
		}
	}
	return out
}

// AwaitingReports counts paid appointments whose report is not in yet.
func AwaitingReports(appts []Appointment) int {
	n := 0
	for _, a := range appts {
		if a.PaymentStatus == PaymentStatusCompleted && a.Status != StatusCompleted {
			n++
		}
	}
	return n
}
