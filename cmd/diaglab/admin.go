package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diaglab/diaglab/internal/domain/admin"
	"github.com/diaglab/diaglab/internal/domain/catalog"
	"github.com/diaglab/diaglab/internal/domain/reports"
	"github.com/diaglab/diaglab/internal/domain/scheduling"
	"github.com/diaglab/diaglab/internal/platform/search"
)

var appointmentMatcher = search.Matcher[scheduling.Appointment]{
	Facet: func(ap scheduling.Appointment) string { return ap.Status },
	Fields: func(ap scheduling.Appointment) []string {
		return []string{ap.UserName, ap.UserPhone, ap.BookingID, ap.TestName}
	},
}

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Staff tools: stats, appointments, reports and catalog",
	}
	cmd.AddCommand(adminStatsCmd())
	cmd.AddCommand(adminUsersCmd())
	cmd.AddCommand(adminSeedCmd())
	cmd.AddCommand(adminAppointmentsCmd())
	cmd.AddCommand(adminSetStatusCmd())
	cmd.AddCommand(adminSearchCmd())
	cmd.AddCommand(adminReportsCmd())
	cmd.AddCommand(adminUploadCmd())
	cmd.AddCommand(adminDeleteReportCmd())
	cmd.AddCommand(adminCatalogCmd())
	return cmd
}

func printStats(a *app, st admin.Stats) {
	fmt.Fprintf(a.out, "Total bookings:         %d\n", st.TotalBookings)
	fmt.Fprintf(a.out, "Pending appointments:   %d\n", st.PendingAppointments)
	fmt.Fprintf(a.out, "Completed appointments: %d\n", st.CompletedAppointments)
	fmt.Fprintf(a.out, "Pending reports:        %d\n", st.PendingReports)
	fmt.Fprintf(a.out, "Total revenue:          ₹%.0f\n", st.TotalRevenue)
}

func adminStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Headline numbers",
		RunE: asAdmin(func(cmd *cobra.Command, a *app, _ []string) error {
			st, err := a.admin.Stats(cmd.Context())
			if err != nil {
				return a.fail(err, "Failed to load stats")
			}
			printStats(a, *st)
			return nil
		}),
	}
}

func adminUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List registered accounts",
		RunE: asAdmin(func(cmd *cobra.Command, a *app, _ []string) error {
			users, err := a.admin.Users(cmd.Context())
			if err != nil {
				return a.fail(err, "Failed to load users")
			}
			for _, u := range users {
				fmt.Fprintf(a.out, "%-24s %-28s %-16s %s\n", u.Name, u.Email, u.Phone, u.Role)
			}
			return nil
		}),
	}
}

func adminSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the sample catalog",
		RunE: asAdmin(func(cmd *cobra.Command, a *app, _ []string) error {
			msg, err := a.admin.SeedData(cmd.Context())
			if err != nil {
				return a.fail(err, "Failed to seed data")
			}
			a.notifier.Success(msg)
			return nil
		}),
	}
}

func adminAppointmentsCmd() *cobra.Command {
	var query, status string
	cmd := &cobra.Command{
		Use:   "appointments",
		Short: "List every appointment",
		RunE: asAdmin(func(cmd *cobra.Command, a *app, _ []string) error {
			appts, err := loadView(cmd.Context(), a, a.appointments.All, appointmentMatcher, "Failed to load appointments", query, status)
			if err != nil {
				return err
			}
			printAppointments(a, appts)
			return nil
		}),
	}
	cmd.Flags().StringVar(&query, "search", "", "match patient name, phone, booking id or test")
	cmd.Flags().StringVar(&status, "status", "all", "pending, confirmed, completed, cancelled or all")
	return cmd
}

func adminSetStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-status ID STATUS",
		Short: "Change an appointment's status (ID may be the booking id)",
		Args:  cobra.ExactArgs(2),
		RunE: asAdmin(func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()
			appts, err := a.appointments.All(ctx)
			if err != nil {
				return a.fail(err, "Failed to load appointments")
			}
			id := ""
			for _, ap := range appts {
				if ap.ID == args[0] || ap.BookingID == args[0] {
					id = ap.ID
					break
				}
			}
			if id == "" {
				return a.failMsg(fmt.Errorf("appointment %s not found", args[0]), "Appointment not found")
			}
			if err := a.appointments.UpdateStatus(ctx, id, args[1]); err != nil {
				return a.fail(err, "Failed to update appointment")
			}
			a.notifier.Success("Appointment updated")
			return nil
		}),
	}
}

func adminSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search QUERY",
		Short: "Find confirmed appointments by patient name, phone or booking id",
		Args:  cobra.MaximumNArgs(1),
		RunE: asAdmin(func(cmd *cobra.Command, a *app, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			found, err := a.admin.SearchPatients(cmd.Context(), query)
			if errors.Is(err, admin.ErrEmptyQuery) {
				return a.failMsg(err, "Please enter search query")
			}
			if err != nil {
				return a.fail(err, "Search failed")
			}
			if len(found) == 0 {
				fmt.Fprintln(a.out, "No confirmed appointments found")
				return nil
			}
			for _, ap := range found {
				fmt.Fprintf(a.out, "%-36s %-12s %-20s %-16s %s\n", ap.ID, ap.BookingID, ap.UserName, ap.UserPhone, ap.TestName)
			}
			return nil
		}),
	}
}

func adminReportsCmd() *cobra.Command {
	var query, status string
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List every uploaded report",
		RunE: asAdmin(func(cmd *cobra.Command, a *app, _ []string) error {
			reps, err := loadView(cmd.Context(), a, a.reports.All, reports.Matcher, "Failed to load reports", query, status)
			if err != nil {
				return err
			}
			printReports(a, reps)
			return nil
		}),
	}
	cmd.Flags().StringVar(&query, "search", "", "match test name, booking id or report id")
	cmd.Flags().StringVar(&status, "status", "all", "pending, processing, ready or all")
	return cmd
}

func adminUploadCmd() *cobra.Command {
	var bookingID, file, remarks, status string
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Attach a report file to a confirmed appointment",
		RunE: asAdmin(func(cmd *cobra.Command, a *app, _ []string) error {
			ctx := cmd.Context()
			if bookingID == "" {
				return a.failMsg(reports.ErrMissingFile, "Please select an appointment")
			}
			if file == "" {
				return a.failMsg(reports.ErrMissingFile, "Please select a file")
			}

			found, err := a.admin.SearchPatients(ctx, bookingID)
			if err != nil {
				return a.fail(err, "Search failed")
			}
			var appt *scheduling.Appointment
			for i := range found {
				if found[i].BookingID == bookingID {
					appt = &found[i]
					break
				}
			}
			if appt == nil {
				return a.failMsg(fmt.Errorf("no confirmed appointment %s", bookingID), "Please select an appointment")
			}

			f, err := os.Open(file)
			if err != nil {
				return a.failMsg(err, "Please select a file")
			}
			defer f.Close()

			rep, err := a.reports.Upload(ctx, reports.UploadRequest{
				PatientID:     appt.UserID,
				AppointmentID: appt.ID,
				Remarks:       remarks,
				Status:        status,
				FileName:      file,
				File:          f,
			})
			if err != nil {
				return a.fail(err, "Upload failed")
			}
			a.notifier.Success("Report uploaded: " + rep.ReportID)
			return nil
		}),
	}
	cmd.Flags().StringVar(&bookingID, "booking", "", "booking id of a confirmed appointment")
	cmd.Flags().StringVar(&file, "file", "", "PDF, PNG or JPEG file")
	cmd.Flags().StringVar(&remarks, "remarks", "", "remarks for the patient")
	cmd.Flags().StringVar(&status, "status", reports.StatusReady, "pending, processing or ready")
	return cmd
}

func adminDeleteReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-report ID",
		Short: "Remove a report and its file (ID may be the REP report id)",
		Args:  cobra.ExactArgs(1),
		RunE: asAdmin(func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()
			reps, err := a.reports.All(ctx)
			if err != nil {
				return a.fail(err, "Failed to load reports")
			}
			target := findReport(reps, args[0])
			if target == nil {
				return a.failMsg(fmt.Errorf("report %s not found", args[0]), "Report not found")
			}
			if err := a.reports.Delete(ctx, target.ID); err != nil {
				return a.fail(err, "Delete failed")
			}
			a.notifier.Success("Report deleted")
			return nil
		}),
	}
}

// -- Catalog --

const kindMembership = "membership"

func adminCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Create, update or delete tests, packages and memberships",
	}
	cmd.AddCommand(catalogCreateCmd())
	cmd.AddCommand(catalogUpdateCmd())
	cmd.AddCommand(catalogDeleteCmd())
	return cmd
}

func catalogKind(s string) (string, error) {
	switch strings.ToLower(s) {
	case catalog.KindTest, "tests":
		return catalog.KindTest, nil
	case catalog.KindPackage, "packages":
		return catalog.KindPackage, nil
	case kindMembership, "memberships":
		return kindMembership, nil
	}
	return "", fmt.Errorf("unknown catalog kind %q", s)
}

func catalogCreateCmd() *cobra.Command {
	var (
		name, description, category, prep string
		price, discount                   float64
		homeCollection, priority          bool
		included, benefits                []string
	)
	cmd := &cobra.Command{
		Use:   "create KIND",
		Short: "Create a test, package or membership",
		Args:  cobra.ExactArgs(1),
		RunE: asAdmin(func(cmd *cobra.Command, a *app, args []string) error {
			kind, err := catalogKind(args[0])
			if err != nil {
				return a.failMsg(err, "Kind must be test, package or membership")
			}
			ctx := cmd.Context()

			var id string
			switch kind {
			case catalog.KindTest:
				t, err := a.catalog.CreateTest(ctx, &catalog.Test{
					Name: name, Description: description, Price: price, Category: category,
					PreparationInstructions: prep, HomeCollectionAvailable: homeCollection,
				})
				if err != nil {
					return a.fail(err, "Failed to create test")
				}
				id = t.ID
			case catalog.KindPackage:
				p, err := a.catalog.CreatePackage(ctx, &catalog.Package{
					Name: name, Description: description, Price: price, IncludedTests: included,
					PreparationInstructions: prep, HomeCollectionAvailable: homeCollection,
				})
				if err != nil {
					return a.fail(err, "Failed to create package")
				}
				id = p.ID
			default:
				m, err := a.catalog.CreateMembership(ctx, &catalog.Membership{
					Name: name, Description: description, MonthlyPrice: price, Benefits: benefits,
					DiscountPercentage: discount, PriorityBooking: priority, FreeHomeCollection: homeCollection,
				})
				if err != nil {
					return a.fail(err, "Failed to create membership")
				}
				id = m.ID
			}
			a.notifier.Success(fmt.Sprintf("Created %s %s", kind, id))
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "display name")
	f.StringVar(&description, "description", "", "description")
	f.Float64Var(&price, "price", 0, "price in rupees (monthly for memberships)")
	f.StringVar(&category, "category", "", "test category")
	f.StringVar(&prep, "prep", "", "preparation instructions")
	f.BoolVar(&homeCollection, "home-collection", true, "home collection available")
	f.StringSliceVar(&included, "include", nil, "tests included in a package")
	f.StringSliceVar(&benefits, "benefit", nil, "membership benefits")
	f.Float64Var(&discount, "discount", 0, "membership discount percentage")
	f.BoolVar(&priority, "priority", false, "membership priority booking")
	return cmd
}

// parseFields turns key=value pairs into a partial update. Values are read
// as JSON when they parse, so numbers, booleans and lists keep their type.
func parseFields(pairs []string) (map[string]any, error) {
	fields := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", p)
		}
		var val any
		if err := json.Unmarshal([]byte(v), &val); err != nil {
			val = v
		}
		fields[k] = val
	}
	return fields, nil
}

func catalogUpdateCmd() *cobra.Command {
	var set []string
	cmd := &cobra.Command{
		Use:   "update KIND ID",
		Short: "Change fields of a catalog entry",
		Args:  cobra.ExactArgs(2),
		RunE: asAdmin(func(cmd *cobra.Command, a *app, args []string) error {
			kind, err := catalogKind(args[0])
			if err != nil {
				return a.failMsg(err, "Kind must be test, package or membership")
			}
			fields, err := parseFields(set)
			if err != nil {
				return a.failMsg(err, err.Error())
			}
			ctx, id := cmd.Context(), args[1]
			switch kind {
			case catalog.KindTest:
				err = a.catalog.UpdateTest(ctx, id, fields)
			case catalog.KindPackage:
				err = a.catalog.UpdatePackage(ctx, id, fields)
			default:
				err = a.catalog.UpdateMembership(ctx, id, fields)
			}
			if err != nil {
				return a.fail(err, "Failed to update "+kind)
			}
			a.notifier.Success(fmt.Sprintf("Updated %s %s", kind, id))
			return nil
		}),
	}
	cmd.Flags().StringArrayVar(&set, "set", nil, "field=value, repeatable")
	return cmd
}

func catalogDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete KIND ID",
		Short: "Delete a catalog entry",
		Args:  cobra.ExactArgs(2),
		RunE: asAdmin(func(cmd *cobra.Command, a *app, args []string) error {
			kind, err := catalogKind(args[0])
			if err != nil {
				return a.failMsg(err, "Kind must be test, package or membership")
			}
			ctx, id := cmd.Context(), args[1]
			switch kind {
			case catalog.KindTest:
				err = a.catalog.DeleteTest(ctx, id)
			case catalog.KindPackage:
				err = a.catalog.DeletePackage(ctx, id)
			default:
				err = a.catalog.DeleteMembership(ctx, id)
			}
			if err != nil {
				return a.fail(err, "Failed to delete "+kind)
			}
			a.notifier.Success(fmt.Sprintf("Deleted %s %s", kind, id))
			return nil
		}),
	}
}
