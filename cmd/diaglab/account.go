package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diaglab/diaglab/internal/domain/payments"
	"github.com/diaglab/diaglab/internal/domain/reports"
	"github.com/diaglab/diaglab/internal/domain/scheduling"
)

func printAppointments(a *app, appts []scheduling.Appointment) {
	if len(appts) == 0 {
		fmt.Fprintln(a.out, "No appointments yet")
		return
	}
	for _, ap := range appts {
		slot := ap.Slot()
		if slot == "" {
			slot = "TBC"
		}
		fmt.Fprintf(a.out, "%-12s %-10s %-5s %-32s %-10s %-14s ₹%.0f\n",
			ap.BookingID, ap.Date, slot, ap.TestName, ap.Status, ap.PaymentStatus, ap.Amount)
	}
}

func appointmentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "appointments",
		Short: "List your appointments",
		RunE: asPatient(func(cmd *cobra.Command, a *app, _ []string) error {
			appts, err := a.appointments.Mine(cmd.Context())
			if err != nil {
				return a.fail(err, "Failed to load appointments")
			}
			printAppointments(a, appts)
			return nil
		}),
	}
}

func paymentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payments",
		Short: "Payment history and checkout verification",
	}
	cmd.AddCommand(paymentHistoryCmd())
	cmd.AddCommand(paymentVerifyCmd())
	return cmd
}

func paymentHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List your payments",
		RunE: asPatient(func(cmd *cobra.Command, a *app, _ []string) error {
			pays, err := a.payments.History(cmd.Context())
			if err != nil {
				return a.fail(err, "Failed to load payments")
			}
			if len(pays) == 0 {
				fmt.Fprintln(a.out, "No payments yet")
				return nil
			}
			for _, p := range pays {
				fmt.Fprintf(a.out, "%-20s %-10s %-8s ₹%.0f\n",
					p.CreatedAt.Format("2006-01-02 15:04"), p.Status, p.PaymentMode, p.Amount)
			}
			fmt.Fprintf(a.out, "Total paid: ₹%.0f\n", payments.Total(pays))
			return nil
		}),
	}
}

func paymentVerifyCmd() *cobra.Command {
	var v payments.Verification
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Confirm a completed checkout with the backend",
		RunE: asPatient(func(cmd *cobra.Command, a *app, _ []string) error {
			if _, err := a.payments.Verify(cmd.Context(), v); err != nil {
				return a.fail(err, "Payment verification failed")
			}
			a.notifier.Success("Appointment booked successfully!")
			return nil
		}),
	}
	cmd.Flags().StringVar(&v.OrderID, "order", "", "gateway order id")
	cmd.Flags().StringVar(&v.PaymentID, "payment", "", "gateway payment id")
	cmd.Flags().StringVar(&v.Signature, "signature", "", "gateway signature")
	return cmd
}

func printReports(a *app, reps []reports.Report) {
	if len(reps) == 0 {
		fmt.Fprintln(a.out, "No reports found")
		return
	}
	for _, r := range reps {
		fmt.Fprintf(a.out, "%-36s %-12s %-12s %-32s %-10s %s\n",
			r.ID, r.ReportID, r.BookingID, r.TestName, r.Status, r.ReportDate.Format("2006-01-02"))
	}
	fmt.Fprintf(a.out, "%d ready, %d in progress\n", reports.CountReady(reps), reports.CountInProgress(reps))
}

// reportSource picks the listing the signed-in role may see.
func reportSource(a *app) func(context.Context) ([]reports.Report, error) {
	if u, ok := a.session.User(); ok && u.IsAdmin() {
		return a.reports.All
	}
	return a.reports.Mine
}

// findReport matches ref against the internal id or the REP report id.
func findReport(reps []reports.Report, ref string) *reports.Report {
	for i := range reps {
		if reps[i].ID == ref || reps[i].ReportID == ref {
			return &reps[i]
		}
	}
	return nil
}

func reportsCmd() *cobra.Command {
	var query, status string
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List your lab reports",
		RunE: asPatient(func(cmd *cobra.Command, a *app, _ []string) error {
			reps, err := loadView(cmd.Context(), a, reportSource(a), reports.Matcher, "Failed to load reports", query, status)
			if err != nil {
				return err
			}
			printReports(a, reps)
			return nil
		}),
	}
	cmd.Flags().StringVar(&query, "search", "", "match test name, booking id or report id")
	cmd.Flags().StringVar(&status, "status", "all", "pending, processing, ready or all")
	cmd.AddCommand(reportDownloadCmd())
	return cmd
}

func reportDownloadCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "download ID",
		Short: "Save a report file",
		Args:  cobra.ExactArgs(1),
		RunE: asPatient(func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()
			reps, err := reportSource(a)(ctx)
			if err != nil {
				return a.fail(err, "Failed to load reports")
			}
			target := findReport(reps, args[0])
			if target == nil {
				return a.failMsg(fmt.Errorf("report %s not found", args[0]), "Report not found")
			}
			if dir == "" {
				dir = a.cfg.DownloadDir
			}
			path, err := a.reports.Save(ctx, *target, dir)
			if err != nil {
				return a.fail(err, "Failed to download report")
			}
			a.notifier.Success("Report saved to " + path)
			return nil
		}),
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory to save into (default DOWNLOAD_DIR)")
	return cmd
}

func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Summary of appointments, payments and reports",
		RunE: asPatient(func(cmd *cobra.Command, a *app, _ []string) error {
			u, _ := a.session.User()
			if u.IsAdmin() {
				return adminOverview(cmd.Context(), a)
			}
			sum, err := a.dashboard.Patient(cmd.Context())
			if err != nil {
				return a.fail(err, "Failed to load dashboard")
			}
			fmt.Fprintf(a.out, "Welcome, %s\n\n", u.Name)
			fmt.Fprintf(a.out, "Appointments:     %d\n", len(sum.Appointments))
			fmt.Fprintf(a.out, "Upcoming:         %d\n", len(sum.Upcoming))
			fmt.Fprintf(a.out, "Awaiting reports: %d\n", sum.AwaitingReports)
			fmt.Fprintf(a.out, "Reports ready:    %d\n", sum.ReportsReady)
			fmt.Fprintf(a.out, "Total paid:       ₹%.0f\n", payments.Total(sum.Payments))
			if len(sum.Upcoming) > 0 {
				fmt.Fprintln(a.out, "\nUpcoming appointments:")
				printAppointments(a, sum.Upcoming)
			}
			return nil
		}),
	}
}

func adminOverview(ctx context.Context, a *app) error {
	ov, err := a.dashboard.Admin(ctx)
	if err != nil {
		return a.fail(err, "Failed to load dashboard")
	}
	printStats(a, ov.Stats)
	fmt.Fprintf(a.out, "\nCatalog: %d tests, %d packages, %d memberships\n", len(ov.Tests), len(ov.Packages), len(ov.Memberships))
	fmt.Fprintf(a.out, "Users:   %d\n", len(ov.Users))
	return nil
}
