package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diaglab/diaglab/internal/domain/identity"
)

func registerCmd() *cobra.Command {
	var req identity.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a patient account and sign in",
		RunE: run(func(cmd *cobra.Command, a *app, _ []string) error {
			res, err := a.identity.Register(cmd.Context(), req)
			if err != nil {
				return a.fail(err, "Registration failed")
			}
			if err := a.session.Establish(res.Token, res.User); err != nil {
				return a.fail(err, "Could not save session")
			}
			a.notifier.Success("Registration successful!")
			return nil
		}),
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "full name")
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&req.Password, "password", "", "password (min 6 characters)")
	return cmd
}

func loginCmd() *cobra.Command {
	var req identity.LoginRequest
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session for later commands",
		RunE: run(func(cmd *cobra.Command, a *app, _ []string) error {
			res, err := a.identity.Login(cmd.Context(), req)
			if err != nil {
				return a.fail(err, "Login failed")
			}
			if err := a.session.Establish(res.Token, res.User); err != nil {
				return a.fail(err, "Could not save session")
			}
			a.notifier.Success("Login successful!")
			return nil
		}),
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "password")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: run(func(_ *cobra.Command, a *app, _ []string) error {
			if err := a.session.Logout(); err != nil {
				return a.fail(err, "Could not clear session")
			}
			a.notifier.Success("Logged out")
			return nil
		}),
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: asPatient(func(_ *cobra.Command, a *app, _ []string) error {
			u, _ := a.session.User()
			fmt.Fprintf(a.out, "%s <%s>\n", u.Name, u.Email)
			fmt.Fprintf(a.out, "  phone: %s\n", u.Phone)
			fmt.Fprintf(a.out, "  role:  %s\n", u.Role)
			return nil
		}),
	}
}
