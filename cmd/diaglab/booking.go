package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diaglab/diaglab/internal/domain/booking"
	"github.com/diaglab/diaglab/internal/domain/catalog"
	"github.com/diaglab/diaglab/internal/domain/scheduling"
)

// parseDay accepts YYYY-MM-DD as well as "today" and "tomorrow".
func parseDay(a *app, s string) (scheduling.Date, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "today":
		return a.gate.Today(), nil
	case "tomorrow":
		return a.gate.Today().AddDays(1), nil
	}
	return scheduling.ParseDate(s)
}

// paymentMode maps the flag value to the wire value.
func paymentMode(s string) (string, error) {
	switch strings.ToLower(s) {
	case "online":
		return scheduling.PaymentOnline, nil
	case "center", "cash":
		return scheduling.PaymentAtCenter, nil
	}
	return "", fmt.Errorf("unknown payment mode %q", s)
}

// openForm selects date on a fresh booking form and reports what happened.
func openForm(cmd *cobra.Command, a *app, date string) (*scheduling.BookingForm, error) {
	d, err := parseDay(a, date)
	if err != nil {
		return nil, a.failMsg(err, "Please select a valid date")
	}
	var opts []scheduling.FormOption
	if a.cfg.BookFromTomorrow {
		opts = append(opts, scheduling.WithMinSelectableDate())
	}
	form := scheduling.NewBookingForm(a.gate, a.appointments, a.logger, opts...)
	if err := form.SelectDate(cmd.Context(), d); err != nil {
		switch {
		case errors.Is(err, scheduling.ErrPastDate):
			return nil, a.failMsg(err, "Please select today or a later date")
		case errors.Is(err, scheduling.ErrBeforeMinDate):
			return nil, a.failMsg(err, "Please select tomorrow or a later date")
		}
		return nil, a.fail(err, "Could not select date")
	}
	return form, nil
}

func printSlots(a *app, form *scheduling.BookingForm) {
	if !form.ShowSlots() {
		a.notifier.Info(form.Notice())
		return
	}
	slots := form.Slots()
	if len(slots) == 0 {
		fmt.Fprintln(a.out, "No time slots available")
		return
	}
	for _, s := range slots {
		state := "available"
		if !s.Available {
			state = "full"
		}
		fmt.Fprintf(a.out, "%-6s %s\n", s.Time, state)
	}
}

func slotsCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Show bookable time slots for a date",
		RunE: run(func(cmd *cobra.Command, a *app, _ []string) error {
			form, err := openForm(cmd, a, date)
			if err != nil {
				return err
			}
			printSlots(a, form)
			return nil
		}),
	}
	cmd.Flags().StringVar(&date, "date", "today", "date (YYYY-MM-DD, today or tomorrow)")
	return cmd
}

func bookCmd() *cobra.Command {
	var (
		testID, packageID, date, slot string
		name, email, phone, payment   string
	)
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book a test or package",
		RunE: asPatient(func(cmd *cobra.Command, a *app, _ []string) error {
			ctx := cmd.Context()

			kind, id := catalog.KindTest, testID
			if packageID != "" {
				kind, id = catalog.KindPackage, packageID
			}
			if id == "" || (testID != "" && packageID != "") {
				return a.failMsg(booking.ErrIncomplete, "Choose one of --test or --package")
			}
			mode, err := paymentMode(payment)
			if err != nil {
				return a.failMsg(err, "Payment must be online or center")
			}

			items, err := booking.LoadItems(ctx, a.catalog)
			if err != nil {
				return a.fail(err, "Failed to load tests and packages")
			}
			item, err := items.Find(kind, id)
			if err != nil {
				return a.failMsg(err, fmt.Sprintf("No %s with id %s", kind, id))
			}

			if date == "" {
				return a.failMsg(booking.ErrIncomplete, "Please fill all required fields")
			}
			form, err := openForm(cmd, a, date)
			if err != nil {
				return err
			}
			if slot != "" {
				if err := form.SelectSlot(slot); err != nil {
					switch {
					case errors.Is(err, scheduling.ErrSlotsUnavailable):
						a.notifier.Info(form.Notice())
						return a.failMsg(err, "Time slots are not offered for this date")
					case errors.Is(err, scheduling.ErrSlotTaken):
						return a.failMsg(err, "That time slot is fully booked")
					default:
						return a.failMsg(err, "Please select a valid time slot")
					}
				}
			} else if !form.ShowSlots() {
				a.notifier.Info(form.Notice())
			}

			svc := booking.NewService(a.session, a.appointments, a.payments)
			req := booking.Request{
				Kind:        kind,
				Item:        item,
				Name:        name,
				Email:       email,
				Phone:       phone,
				PaymentMode: mode,
			}
			svc.Prefill(&req)
			res, err := svc.Submit(ctx, form, req)
			switch {
			case errors.Is(err, booking.ErrIncomplete):
				return a.failMsg(err, "Please fill all required fields")
			case res == nil && err != nil:
				return a.fail(err, "Booking failed. Please try again.")
			case err != nil:
				fmt.Fprintf(a.out, "Booking ID: %s\n", res.BookingID)
				return a.fail(err, "Could not start payment")
			}

			if res.Order == nil {
				a.notifier.Success("Appointment booked! Booking ID: " + res.BookingID)
				return nil
			}
			fmt.Fprintf(a.out, "Booking ID: %s\n", res.BookingID)
			fmt.Fprintf(a.out, "Order:      %s\n", res.Order.OrderID)
			fmt.Fprintf(a.out, "Amount:     %d %s (paise)\n", res.Order.Amount, res.Order.Currency)
			fmt.Fprintf(a.out, "Key:        %s\n", res.Order.KeyID)
			a.notifier.Info("Complete the payment, then run: diaglab payments verify --order " + res.Order.OrderID + " --payment <id> --signature <sig>")
			return nil
		}),
	}
	cmd.Flags().StringVar(&testID, "test", "", "test id to book")
	cmd.Flags().StringVar(&packageID, "package", "", "package id to book")
	cmd.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD, today or tomorrow)")
	cmd.Flags().StringVar(&slot, "slot", "", "time slot, e.g. 06:30")
	cmd.Flags().StringVar(&name, "name", "", "patient name (defaults to the account)")
	cmd.Flags().StringVar(&email, "email", "", "contact email (defaults to the account)")
	cmd.Flags().StringVar(&phone, "phone", "", "contact phone (defaults to the account)")
	cmd.Flags().StringVar(&payment, "payment", "center", "online or center")
	return cmd
}
