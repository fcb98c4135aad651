package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/diaglab/diaglab/internal/config"
	"github.com/diaglab/diaglab/internal/domain/admin"
	"github.com/diaglab/diaglab/internal/domain/catalog"
	"github.com/diaglab/diaglab/internal/domain/dashboard"
	"github.com/diaglab/diaglab/internal/domain/identity"
	"github.com/diaglab/diaglab/internal/domain/payments"
	"github.com/diaglab/diaglab/internal/domain/reports"
	"github.com/diaglab/diaglab/internal/domain/scheduling"
	"github.com/diaglab/diaglab/internal/platform/apiclient"
	"github.com/diaglab/diaglab/internal/platform/notify"
	"github.com/diaglab/diaglab/internal/platform/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		var r *reportedError
		if !errors.As(err, &r) {
			fmt.Fprintf(os.Stderr, "diaglab: %v\n", err)
		}
		os.Exit(1)
	}
}

// reportedError marks an error the user has already been notified about.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "diaglab",
		Short:         "Book diagnostic tests and fetch lab reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.AddCommand(registerCmd())
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(whoamiCmd())

	rootCmd.AddCommand(testsCmd())
	rootCmd.AddCommand(packagesCmd())
	rootCmd.AddCommand(membershipsCmd())

	rootCmd.AddCommand(slotsCmd())
	rootCmd.AddCommand(bookCmd())
	rootCmd.AddCommand(appointmentsCmd())
	rootCmd.AddCommand(paymentsCmd())
	rootCmd.AddCommand(reportsCmd())
	rootCmd.AddCommand(dashboardCmd())

	rootCmd.AddCommand(adminCmd())
	rootCmd.AddCommand(sandboxCmd())

	return rootCmd
}

// app is everything a command needs, built once per invocation.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	out      io.Writer
	notifier notify.Notifier

	session *session.Session
	api     *apiclient.Client
	gate    *scheduling.Gate

	identity     *identity.Service
	catalog      *catalog.Service
	appointments *scheduling.Service
	payments     *payments.Service
	reports      *reports.Service
	admin        *admin.Service
	dashboard    *dashboard.Service
}

func newLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	logger := zerolog.New(w).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

// newApp loads config, wires the client stack and restores the persisted
// session. A session that cannot be restored leaves the user signed out.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())

	sess := session.New(session.NewFileStore(cfg.SessionFile), logger)
	api, err := apiclient.New(cfg.APIBaseURL(),
		apiclient.WithTokenSource(sess),
		apiclient.WithLogger(logger),
		apiclient.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		apiclient.WithTimeout(cfg.HTTPTimeout),
		apiclient.WithUserAgent("diaglab-cli"),
	)
	if err != nil {
		return nil, err
	}

	cutoff, err := cfg.Cutoff()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:          cfg,
		logger:       logger,
		out:          cmd.OutOrStdout(),
		notifier:     notify.Console(cmd.OutOrStdout()),
		session:      sess,
		api:          api,
		gate:         scheduling.NewGate(cutoff, loc, nil),
		identity:     identity.NewService(api),
		catalog:      catalog.NewService(api),
		appointments: scheduling.NewService(api),
		payments:     payments.NewService(api),
		reports:      reports.NewService(api),
		admin:        admin.NewService(api),
	}
	a.dashboard = dashboard.NewService(a.appointments, a.payments, a.reports, a.catalog, a.admin)

	if err := sess.Init(cmd.Context(), a.identity); err != nil {
		logger.Warn().Err(err).Msg("could not restore session")
	}
	return a, nil
}

// fail notifies the user and returns err so the command exits non-zero.
func (a *app) fail(err error, fallback string) error {
	a.notifier.Error(apiclient.DetailOr(err, fallback))
	return &reportedError{err: err}
}

// failMsg notifies msg verbatim.
func (a *app) failMsg(err error, msg string) error {
	a.notifier.Error(msg)
	return &reportedError{err: err}
}

// run wraps a command body that needs the wired app.
func run(fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return fmt.Errorf("set up client: %w", err)
		}
		return fn(cmd, a, args)
	}
}

// asPatient and asAdmin guard commands the way protected routes do.
func asPatient(fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return run(func(cmd *cobra.Command, a *app, args []string) error {
		if err := a.session.RequireUser(); err != nil {
			return a.failMsg(err, "Please login to continue")
		}
		return fn(cmd, a, args)
	})
}

func asAdmin(fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return run(func(cmd *cobra.Command, a *app, args []string) error {
		if err := a.session.RequireAdmin(); err != nil {
			if errors.Is(err, session.ErrNotAdmin) {
				return a.failMsg(err, "Admin access required")
			}
			return a.failMsg(err, "Please login to continue")
		}
		return fn(cmd, a, args)
	})
}
