package scheduling

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// ContactNotice is shown instead of the slot grid once the same-day cutoff
// has passed.
const ContactNotice = "Our team will contact you to confirm your appointment time."

var (
	ErrPastDate         = errors.New("date is in the past")
	ErrBeforeMinDate    = errors.New("date is before the earliest selectable date")
	ErrNoDate           = errors.New("select a date first")
	ErrSlotsUnavailable = errors.New("time slots are not offered for this date")
	ErrUnknownSlot      = errors.New("no such time slot")
	ErrSlotTaken        = errors.New("time slot is fully booked")
)

// SlotFetcher loads the slot grid for a date. *Service implements it.
type SlotFetcher interface {
	Slots(ctx context.Context, d Date) ([]Slot, error)
}

// BookingForm holds the date and slot choice of one booking in progress. It
// re-evaluates the gate every time the date changes and never on its own.
type BookingForm struct {
	gate    *Gate
	fetcher SlotFetcher
	logger  zerolog.Logger
	minDate bool

	mu        sync.Mutex
	gen       uint64
	date      Date
	showSlots bool
	slots     []Slot
	selected  string
	slotsErr  error
}

// FormOption configures a BookingForm.
type FormOption func(*BookingForm)

// WithMinSelectableDate rejects dates before Gate.MinSelectableDate, the way
// the booking page's date picker does.
func WithMinSelectableDate() FormOption {
	return func(f *BookingForm) { f.minDate = true }
}

func NewBookingForm(gate *Gate, fetcher SlotFetcher, logger zerolog.Logger, opts ...FormOption) *BookingForm {
	f := &BookingForm{
		gate:      gate,
		fetcher:   fetcher,
		logger:    logger,
		showSlots: true,
		slots:     []Slot{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *BookingForm) Gate() *Gate { return f.gate }

// SelectDate changes the date. Past dates are rejected, and with
// WithMinSelectableDate so is anything before the gate's minimum. The
// selected slot is always cleared. When the
// gate is closed no fetch happens and the slot list is emptied. A failed
// fetch is logged, recorded in SlotsErr, and leaves the list empty.
func (f *BookingForm) SelectDate(ctx context.Context, d Date) error {
	if d.Before(f.gate.Today()) {
		return ErrPastDate
	}
	if f.minDate && d.Before(f.gate.MinSelectableDate()) {
		return ErrBeforeMinDate
	}

	open := f.gate.SlotsAvailable(d)

	f.mu.Lock()
	f.gen++
	gen := f.gen
	f.date = d
	f.selected = ""
	f.slots = []Slot{}
	f.slotsErr = nil
	f.showSlots = open
	f.mu.Unlock()

	if !open {
		f.logger.Debug().Str("date", d.String()).Msg("same-day cutoff passed, slots hidden")
		return nil
	}

	slots, err := f.fetcher.Slots(ctx, d)

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.gen {
		// A newer date was selected while this fetch was in flight.
		return nil
	}
	if err != nil {
		f.logger.Error().Err(err).Str("date", d.String()).Msg("failed to fetch slots")
		f.slotsErr = err
		return nil
	}
	if slots == nil {
		slots = []Slot{}
	}
	f.slots = slots
	return nil
}

// Date returns the selected date, if any.
func (f *BookingForm) Date() (Date, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.date, !f.date.IsZero()
}

func (f *BookingForm) SelectSlot(time string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.date.IsZero() {
		return ErrNoDate
	}
	if !f.showSlots {
		return ErrSlotsUnavailable
	}
	for _, s := range f.slots {
		if s.Time != time {
			continue
		}
		if !s.Available {
			return ErrSlotTaken
		}
		f.selected = time
		return nil
	}
	return ErrUnknownSlot
}

// ClearSlot drops the slot choice and books without a specific time.
func (f *BookingForm) ClearSlot() {
	f.mu.Lock()
	f.selected = ""
	f.mu.Unlock()
}

func (f *BookingForm) ShowSlots() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.showSlots
}

// Slots returns a copy of the fetched grid, including unavailable slots.
func (f *BookingForm) Slots() []Slot {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Slot, len(f.slots))
	copy(out, f.slots)
	return out
}

func (f *BookingForm) SelectedSlot() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selected
}

// TimeSlot is the value submitted as time_slot: nil unless a slot is
// selected while slots are shown.
func (f *BookingForm) TimeSlot() *string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.showSlots || f.selected == "" {
		return nil
	}
	s := f.selected
	return &s
}

// Notice is the message to show in place of the grid, or "".
func (f *BookingForm) Notice() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.date.IsZero() || f.showSlots {
		return ""
	}
	return ContactNotice
}

// SlotsErr is the error of the last slot fetch, if it failed.
func (f *BookingForm) SlotsErr() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.slotsErr
}
