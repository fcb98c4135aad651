// Package dashboard assembles the patient and admin overviews, each from one
// batch of concurrent fetches.
package dashboard

import (
	"context"

	"github.com/diaglab/diaglab/internal/domain/admin"
	"github.com/diaglab/diaglab/internal/domain/catalog"
	"github.com/diaglab/diaglab/internal/domain/identity"
	"github.com/diaglab/diaglab/internal/domain/payments"
	"github.com/diaglab/diaglab/internal/domain/reports"
	"github.com/diaglab/diaglab/internal/domain/scheduling"
	"github.com/diaglab/diaglab/internal/platform/loader"
)

type Appointments interface {
	Mine(ctx context.Context) ([]scheduling.Appointment, error)
	All(ctx context.Context) ([]scheduling.Appointment, error)
}

type Payments interface {
	History(ctx context.Context) ([]payments.Payment, error)
}

type Reports interface {
	Mine(ctx context.Context) ([]reports.Report, error)
}

type Catalog interface {
	Tests(ctx context.Context, category string) ([]catalog.Test, error)
	Packages(ctx context.Context) ([]catalog.Package, error)
	Memberships(ctx context.Context) ([]catalog.Membership, error)
}

type Admin interface {
	Stats(ctx context.Context) (*admin.Stats, error)
	Users(ctx context.Context) ([]identity.User, error)
}

// Summary is what a patient sees after signing in.
type Summary struct {
	Appointments    []scheduling.Appointment
	Upcoming        []scheduling.Appointment
	Payments        []payments.Payment
	Reports         []reports.Report
	AwaitingReports int
	ReportsReady    int
}

// Overview is the admin dashboard.
type Overview struct {
	Stats        admin.Stats
	Appointments []scheduling.Appointment
	Tests        []catalog.Test
	Packages     []catalog.Package
	Memberships  []catalog.Membership
	Users        []identity.User
}

type Service struct {
	appointments Appointments
	payments     Payments
	reports      Reports
	catalog      Catalog
	admin        Admin
}

func NewService(appts Appointments, pays Payments, reps Reports, cat Catalog, adm Admin) *Service {
	return &Service{appointments: appts, payments: pays, reports: reps, catalog: cat, admin: adm}
}

// Patient fetches the signed-in patient's appointments, payments and reports
// together. Any failure fails the whole summary.
func (s *Service) Patient(ctx context.Context) (*Summary, error) {
	var sum Summary
	err := loader.All(ctx,
		func(ctx context.Context) (err error) {
			sum.Appointments, err = s.appointments.Mine(ctx)
			return err
		},
		func(ctx context.Context) (err error) {
			sum.Payments, err = s.payments.History(ctx)
			return err
		},
		func(ctx context.Context) (err error) {
			sum.Reports, err = s.reports.Mine(ctx)
			return err
		},
	)
	if err != nil {
		return nil, err
	}

	sum.Upcoming = scheduling.Upcoming(sum.Appointments)
	sum.AwaitingReports = scheduling.AwaitingReports(sum.Appointments)
	sum.ReportsReady = reports.CountReady(sum.Reports)
	return &sum, nil
}

// Admin fetches everything the admin dashboard shows in one batch.
func (s *Service) Admin(ctx context.Context) (*Overview, error) {
	var ov Overview
	err := loader.All(ctx,
		func(ctx context.Context) error {
			st, err := s.admin.Stats(ctx)
			if err != nil {
				return err
			}
			ov.Stats = *st
			return nil
		},
		func(ctx context.Context) (err error) {
			ov.Appointments, err = s.appointments.All(ctx)
			return err
		},
		func(ctx context.Context) (err error) {
			ov.Tests, err = s.catalog.Tests(ctx, "")
			return err
		},
		func(ctx context.Context) (err error) {
			ov.Packages, err = s.catalog.Packages(ctx)
			return err
		},
		func(ctx context.Context) (err error) {
			ov.Memberships, err = s.catalog.Memberships(ctx)
			return err
		},
		func(ctx context.Context) (err error) {
			ov.Users, err = s.admin.Users(ctx)
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	return &ov, nil
}
