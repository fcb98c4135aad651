package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/diaglab/diaglab/internal/config"
	"github.com/diaglab/diaglab/internal/platform/sandbox"
)

const defaultKeySecret = "rzp_sandbox_secret"

func sandboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Run an in-memory backend for local development",
	}
	cmd.AddCommand(sandboxServeCmd())
	cmd.AddCommand(sandboxSignCmd())
	return cmd
}

func sandboxServeCmd() *cobra.Command {
	var (
		addr, keySecret string
		demo            bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the sandbox backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if addr == "" {
				addr = cfg.SandboxAddr
			}
			return runSandbox(cmd.Context(), cfg, addr, keySecret, demo, cmd)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default SANDBOX_ADDR)")
	cmd.Flags().StringVar(&keySecret, "key-secret", defaultKeySecret, "secret that signs checkout results")
	cmd.Flags().BoolVar(&demo, "demo", false, "seed the catalog and a completed demo booking")
	return cmd
}

func runSandbox(ctx context.Context, cfg *config.Config, addr, keySecret string, demo bool, cmd *cobra.Command) error {
	logger := newLogger(cfg, cmd.ErrOrStderr())

	secret := cfg.SandboxJWTSecret
	if secret == "" {
		secret = uuid.NewString()
		logger.Warn().Msg("SANDBOX_JWT_SECRET not set, tokens will not survive a restart")
	}

	srv, err := sandbox.New(sandbox.Options{
		Secret:    secret,
		KeySecret: keySecret,
		Logger:    logger,
		Demo:      demo,
	})
	if err != nil {
		return err
	}
	e := srv.Echo()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Bool("demo", demo).Msg("starting sandbox")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			logger.Error().Err(err).Msg("sandbox error")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down sandbox")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("sandbox shutdown failed")
		return err
	}
	logger.Info().Msg("sandbox stopped")
	return nil
}

// sandboxSignCmd stands in for the checkout widget: it prints the signature
// the sandbox expects for a completed payment.
func sandboxSignCmd() *cobra.Command {
	var orderID, paymentID, keySecret string
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a sandbox checkout result",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if orderID == "" || paymentID == "" {
				return fmt.Errorf("--order and --payment are required")
			}
			fmt.Fprintln(cmd.OutOrStdout(), sandbox.SignPayment(keySecret, orderID, paymentID))
			return nil
		},
	}
	cmd.Flags().StringVar(&orderID, "order", "", "order id from the booking")
	cmd.Flags().StringVar(&paymentID, "payment", "", "any payment id")
	cmd.Flags().StringVar(&keySecret, "key-secret", defaultKeySecret, "secret the sandbox was started with")
	return cmd
}
