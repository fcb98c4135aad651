package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/diaglab/diaglab/internal/domain/catalog"
	"github.com/diaglab/diaglab/internal/domain/identity"
	"github.com/diaglab/diaglab/internal/domain/payments"
	"github.com/diaglab/diaglab/internal/domain/scheduling"
	"github.com/diaglab/diaglab/internal/platform/session"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeAppointments struct {
	got *scheduling.AppointmentCreate
	err error
}

func (f *fakeAppointments) Create(_ context.Context, req scheduling.AppointmentCreate) (*scheduling.CreateResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.got = &req
	return &scheduling.CreateResult{
		Message: "Appointment booked successfully",
		Appointment: scheduling.Appointment{
			ID:            "a1",
			BookingID:     "AMB0A1B2C3D",
			TestName:      req.TestName,
			TimeSlot:      req.TimeSlot,
			PaymentStatus: req.PaymentStatus,
		},
		BookingID: "AMB0A1B2C3D",
	}, nil
}

type fakeOrders struct {
	amount        float64
	appointmentID string
	err           error
}

func (f *fakeOrders) CreateOrder(_ context.Context, amount float64, appointmentID string) (*payments.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.amount, f.appointmentID = amount, appointmentID
	return &payments.Order{OrderID: "order_1", Amount: int64(amount * 100), Currency: "INR", KeyID: "rzp_test"}, nil
}

type fixedSlots []scheduling.Slot

func (f fixedSlots) Slots(context.Context, scheduling.Date) ([]scheduling.Slot, error) {
	return f, nil
}

var ist = time.FixedZone("IST", 5*3600+1800)

func newForm(t *testing.T, hour int) *scheduling.BookingForm {
	t.Helper()
	now := func() time.Time { return time.Date(2026, time.October, 16, hour, 0, 0, 0, ist) }
	gate := scheduling.NewGate(scheduling.DefaultCutoff, ist, now)
	return scheduling.NewBookingForm(gate, fixedSlots{{Time: "06:00", Available: true}}, zerolog.Nop())
}

func signedIn(t *testing.T) *session.Session {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, session.Claims{
		Role: identity.RolePatient,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	sess := session.New(session.NewMemoryStore(""), zerolog.Nop())
	user := identity.User{ID: "u1", Name: "Demo Patient", Email: "patient@ambica.com", Phone: "9876543210", Role: identity.RolePatient}
	if err := sess.Establish(tok, user); err != nil {
		t.Fatalf("establish: %v", err)
	}
	return sess
}

var cbc = catalog.Test{ID: "t1", Name: "Complete Blood Count (CBC)", Price: 350, Category: "Blood Test"}

func validRequest(mode string) Request {
	return Request{
		Kind:        catalog.KindTest,
		Item:        cbc,
		Name:        "Demo Patient",
		Email:       "patient@ambica.com",
		Phone:       "9876543210",
		PaymentMode: mode,
	}
}

// ---------------------------------------------------------------------------
// Submit
// ---------------------------------------------------------------------------

func TestSubmit_RequiresLogin(t *testing.T) {
	sess := session.New(session.NewMemoryStore(""), zerolog.Nop())
	svc := NewService(sess, &fakeAppointments{}, &fakeOrders{})

	_, err := svc.Submit(context.Background(), newForm(t, 7), validRequest(scheduling.PaymentAtCenter))
	if !errors.Is(err, session.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestSubmit_PayAtCenter_WithSlot(t *testing.T) {
	appts := &fakeAppointments{}
	orders := &fakeOrders{}
	svc := NewService(signedIn(t), appts, orders)

	form := newForm(t, 7)
	ctx := context.Background()
	_ = form.SelectDate(ctx, form.Gate().Today())
	if err := form.SelectSlot("06:00"); err != nil {
		t.Fatalf("select slot: %v", err)
	}

	res, err := svc.Submit(ctx, form, validRequest(scheduling.PaymentAtCenter))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.BookingID != "AMB0A1B2C3D" || res.Order != nil {
		t.Errorf("unexpected result %+v", res)
	}
	got := appts.got
	if got.TimeSlot == nil || *got.TimeSlot != "06:00" {
		t.Errorf("expected time slot 06:00, got %v", got.TimeSlot)
	}
	if got.PaymentStatus != scheduling.PaymentStatusPayAtCenter || got.Amount != 350 {
		t.Errorf("unexpected request %+v", got)
	}
	if got.Date != "2026-10-16" || got.TestType != catalog.KindTest || got.TestID != "t1" {
		t.Errorf("unexpected request %+v", got)
	}
	if orders.appointmentID != "" {
		t.Error("no order expected for pay at center")
	}
}

func TestSubmit_AfterCutoff_NoTimeSlot(t *testing.T) {
	appts := &fakeAppointments{}
	svc := NewService(signedIn(t), appts, &fakeOrders{})

	form := newForm(t, 9)
	ctx := context.Background()
	_ = form.SelectDate(ctx, form.Gate().Today())

	if _, err := svc.Submit(ctx, form, validRequest(scheduling.PaymentAtCenter)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appts.got.TimeSlot != nil {
		t.Errorf("expected nil time slot, got %v", *appts.got.TimeSlot)
	}
}

func TestSubmit_Online_CreatesOrder(t *testing.T) {
	orders := &fakeOrders{}
	appts := &fakeAppointments{}
	svc := NewService(signedIn(t), appts, orders)

	form := newForm(t, 7)
	ctx := context.Background()
	_ = form.SelectDate(ctx, form.Gate().MinSelectableDate())

	res, err := svc.Submit(ctx, form, validRequest(scheduling.PaymentOnline))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Order == nil || res.Order.Amount != 35000 {
		t.Fatalf("expected order, got %+v", res.Order)
	}
	if orders.appointmentID != "a1" || orders.amount != 350 {
		t.Errorf("unexpected order request %v %v", orders.amount, orders.appointmentID)
	}
	if appts.got.PaymentStatus != scheduling.PaymentStatusPending {
		t.Errorf("expected pending payment status, got %q", appts.got.PaymentStatus)
	}
}

func TestSubmit_OrderFailureKeepsBooking(t *testing.T) {
	svc := NewService(signedIn(t), &fakeAppointments{}, &fakeOrders{err: errors.New("gateway down")})

	form := newForm(t, 7)
	ctx := context.Background()
	_ = form.SelectDate(ctx, form.Gate().MinSelectableDate())

	res, err := svc.Submit(ctx, form, validRequest(scheduling.PaymentOnline))
	if err == nil {
		t.Fatal("expected error")
	}
	if res == nil || res.BookingID == "" {
		t.Errorf("expected the created booking to be returned, got %+v", res)
	}
}

func TestSubmit_Validation(t *testing.T) {
	appts := &fakeAppointments{}
	svc := NewService(signedIn(t), appts, &fakeOrders{})
	ctx := context.Background()

	form := newForm(t, 7)
	if _, err := svc.Submit(ctx, form, validRequest(scheduling.PaymentAtCenter)); !errors.Is(err, ErrIncomplete) {
		t.Errorf("expected ErrIncomplete without a date, got %v", err)
	}

	_ = form.SelectDate(ctx, form.Gate().MinSelectableDate())

	req := validRequest(scheduling.PaymentAtCenter)
	req.Phone = ""
	if _, err := svc.Submit(ctx, form, req); !errors.Is(err, ErrIncomplete) {
		t.Errorf("expected ErrIncomplete for missing phone, got %v", err)
	}

	req = validRequest("card")
	if _, err := svc.Submit(ctx, form, req); !errors.Is(err, ErrIncomplete) {
		t.Errorf("expected ErrIncomplete for unknown payment mode, got %v", err)
	}

	req = validRequest(scheduling.PaymentAtCenter)
	req.Item = nil
	if _, err := svc.Submit(ctx, form, req); !errors.Is(err, ErrIncomplete) {
		t.Errorf("expected ErrIncomplete without an item, got %v", err)
	}

	req = validRequest(scheduling.PaymentAtCenter)
	req.Kind = catalog.KindPackage
	if _, err := svc.Submit(ctx, form, req); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("expected ErrKindMismatch, got %v", err)
	}

	req = validRequest(scheduling.PaymentAtCenter)
	req.Date = form.Gate().Today().AddDays(5)
	if _, err := svc.Submit(ctx, form, req); !errors.Is(err, ErrDateMismatch) {
		t.Errorf("expected ErrDateMismatch, got %v", err)
	}

	if appts.got != nil {
		t.Error("no appointment should have been created")
	}
}

func TestPrefill(t *testing.T) {
	svc := NewService(signedIn(t), &fakeAppointments{}, &fakeOrders{})
	req := Request{Name: "Someone Else"}
	svc.Prefill(&req)
	if req.Name != "Someone Else" || req.Email != "patient@ambica.com" || req.Phone != "9876543210" {
		t.Errorf("unexpected prefill %+v", req)
	}
}

// ---------------------------------------------------------------------------
// Catalog preload
// ---------------------------------------------------------------------------

type fakeCatalog struct{ err error }

func (f fakeCatalog) Tests(context.Context, string) ([]catalog.Test, error) {
	return []catalog.Test{cbc}, f.err
}

func (f fakeCatalog) Packages(context.Context) ([]catalog.Package, error) {
	return []catalog.Package{{ID: "p1", Name: "Full Body Checkup", Price: 2500}}, nil
}

func TestLoadItems_Find(t *testing.T) {
	items, err := LoadItems(context.Background(), fakeCatalog{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	it, err := items.Find(catalog.KindPackage, "p1")
	if err != nil || it.ItemPrice() != 2500 {
		t.Fatalf("unexpected %v %v", it, err)
	}
	if _, err := items.Find(catalog.KindTest, "nope"); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("expected ErrUnknownItem, got %v", err)
	}
	if _, err := items.Find("membership", "m1"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestLoadItems_Error(t *testing.T) {
	if _, err := LoadItems(context.Background(), fakeCatalog{err: errors.New("down")}); err == nil {
		t.Fatal("expected error")
	}
}
