// Package booking turns a filled-in booking form into an appointment and,
// for online payment, a gateway order for the checkout widget.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/diaglab/diaglab/internal/domain/catalog"
	"github.com/diaglab/diaglab/internal/domain/identity"
	"github.com/diaglab/diaglab/internal/domain/payments"
	"github.com/diaglab/diaglab/internal/domain/scheduling"
	"github.com/diaglab/diaglab/internal/platform/loader"
)

var (
	ErrIncomplete   = errors.New("please fill all required fields")
	ErrDateMismatch = errors.New("date does not match the booking form")
	ErrKindMismatch = errors.New("item kind does not match the booking type")
	ErrUnknownItem  = errors.New("no such test or package")
)

// Session is the part of the signed-in session booking needs.
type Session interface {
	RequireUser() error
	User() (identity.User, bool)
}

type Appointments interface {
	Create(ctx context.Context, req scheduling.AppointmentCreate) (*scheduling.CreateResult, error)
}

type Orders interface {
	CreateOrder(ctx context.Context, amount float64, appointmentID string) (*payments.Order, error)
}

// Request is everything the patient entered besides the slot.
type Request struct {
	Kind        string          `validate:"required,oneof=test package"`
	Item        catalog.Item    `validate:"-"`
	Date        scheduling.Date `validate:"-"`
	Name        string          `validate:"required"`
	Email       string          `validate:"required,email"`
	Phone       string          `validate:"required"`
	PaymentMode string          `validate:"required,oneof=online cash"`
}

type Result struct {
	Appointment scheduling.Appointment
	BookingID   string
	// Order is set for online payment only.
	Order *payments.Order
}

type Service struct {
	session      Session
	appointments Appointments
	orders       Orders
	validate     *validator.Validate
}

func NewService(session Session, appointments Appointments, orders Orders) *Service {
	return &Service{
		session:      session,
		appointments: appointments,
		orders:       orders,
		validate:     validator.New(),
	}
}

// Prefill copies missing contact details from the signed-in user.
func (s *Service) Prefill(req *Request) {
	u, ok := s.session.User()
	if !ok {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		req.Name = u.Name
	}
	if strings.TrimSpace(req.Email) == "" {
		req.Email = u.Email
	}
	if strings.TrimSpace(req.Phone) == "" {
		req.Phone = u.Phone
	}
}

// Submit books the appointment described by form and req. If the
// appointment is created but the payment order is not, the partial Result is
// returned together with the error.
func (s *Service) Submit(ctx context.Context, form *scheduling.BookingForm, req Request) (*Result, error) {
	if err := s.session.RequireUser(); err != nil {
		return nil, err
	}
	if req.Item == nil {
		return nil, ErrIncomplete
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncomplete, err)
	}
	if req.Item.Kind() != req.Kind {
		return nil, ErrKindMismatch
	}

	date, ok := form.Date()
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrIncomplete, scheduling.ErrNoDate)
	}
	if !req.Date.IsZero() && req.Date != date {
		return nil, ErrDateMismatch
	}

	paymentStatus := scheduling.PaymentStatusPayAtCenter
	if req.PaymentMode == scheduling.PaymentOnline {
		paymentStatus = scheduling.PaymentStatusPending
	}

	created, err := s.appointments.Create(ctx, scheduling.AppointmentCreate{
		UserName:      strings.TrimSpace(req.Name),
		UserEmail:     strings.TrimSpace(req.Email),
		UserPhone:     strings.TrimSpace(req.Phone),
		TestType:      req.Kind,
		TestID:        req.Item.ItemID(),
		TestName:      req.Item.ItemName(),
		Date:          date.String(),
		TimeSlot:      form.TimeSlot(),
		PaymentMode:   req.PaymentMode,
		PaymentStatus: paymentStatus,
		Amount:        req.Item.ItemPrice(),
	})
	if err != nil {
		return nil, err
	}

	res := &Result{Appointment: created.Appointment, BookingID: created.BookingID}
	if req.PaymentMode != scheduling.PaymentOnline {
		return res, nil
	}

	order, err := s.orders.CreateOrder(ctx, req.Item.ItemPrice(), created.Appointment.ID)
	if err != nil {
		return res, fmt.Errorf("create payment order: %w", err)
	}
	res.Order = order
	return res, nil
}

// -- Catalog preload --

type ItemSource interface {
	Tests(ctx context.Context, category string) ([]catalog.Test, error)
	Packages(ctx context.Context) ([]catalog.Package, error)
}

// Items is the bookable catalog.
type Items struct {
	Tests    []catalog.Test
	Packages []catalog.Package
}

// LoadItems fetches tests and packages together.
func LoadItems(ctx context.Context, src ItemSource) (*Items, error) {
	var items Items
	err := loader.All(ctx,
		func(ctx context.Context) error {
			tests, err := src.Tests(ctx, "")
			items.Tests = tests
			return err
		},
		func(ctx context.Context) error {
			pkgs, err := src.Packages(ctx)
			items.Packages = pkgs
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	return &items, nil
}

// Find resolves a preselected test or package by id.
func (it *Items) Find(kind, id string) (catalog.Item, error) {
	switch kind {
	case catalog.KindTest:
		for _, t := range it.Tests {
			if t.ID == id {
				return t, nil
			}
		}
	case catalog.KindPackage:
		for _, p := range it.Packages {
			if p.ID == id {
				return p, nil
			}
		}
	default:
		return nil, fmt.Errorf("unknown booking type %q", kind)
	}
	return nil, fmt.Errorf("%s %s: %w", kind, id, ErrUnknownItem)
}
