package sandbox

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/diaglab/diaglab/internal/domain/admin"
	"github.com/diaglab/diaglab/internal/domain/catalog"
	"github.com/diaglab/diaglab/internal/domain/identity"
	"github.com/diaglab/diaglab/internal/domain/payments"
	"github.com/diaglab/diaglab/internal/domain/scheduling"
)

type message struct {
	Message string `json:"message"`
}

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Ambica Diagnostic Center API",
		"status":  "active",
	})
}

// -- Auth --

func (s *Server) handleRegister(c echo.Context) error {
	var req identity.RegisterRequest
	if err := s.bindValid(c, &req); err != nil {
		return err
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	a := &account{
		User: identity.User{
			ID:        uuid.NewString(),
			Name:      req.Name,
			Email:     strings.TrimSpace(req.Email),
			Phone:     req.Phone,
			Role:      identity.RolePatient,
			CreatedAt: s.now().UTC(),
		},
		passwordHash: hash,
	}
	if err := s.store.addUser(a); err != nil {
		if errors.Is(err, errEmailTaken) {
			return echo.NewHTTPError(http.StatusBadRequest, "Email already registered")
		}
		return err
	}
	return s.authResponse(c, a.User, "Registration successful")
}

func (s *Server) handleLogin(c echo.Context) error {
	var req identity.LoginRequest
	if err := s.bindValid(c, &req); err != nil {
		return err
	}
	a, ok := s.store.userByEmail(strings.TrimSpace(req.Email))
	if !ok || !checkPassword(a.passwordHash, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}
	return s.authResponse(c, a.User, "Login successful")
}

func (s *Server) authResponse(c echo.Context, u identity.User, msg string) error {
	token, err := s.issueToken(u)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	return c.JSON(http.StatusOK, identity.AuthResult{Token: token, User: u, Message: msg})
}

func (s *Server) handleMe(c echo.Context) error {
	return c.JSON(http.StatusOK, currentUser(c))
}

// -- Catalog --

func (s *Server) handleListTests(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.listTests(c.QueryParam("category")))
}

func (s *Server) handleGetTest(c echo.Context) error {
	t, ok := s.store.test(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Test not found")
	}
	return c.JSON(http.StatusOK, t)
}

func (s *Server) handleCreateTest(c echo.Context) error {
	var t catalog.Test
	if err := s.bindValid(c, &t); err != nil {
		return err
	}
	t.ID = uuid.NewString()
	s.store.putTest(t)
	return c.JSON(http.StatusOK, map[string]any{"message": "Test created successfully", "test": t})
}

func (s *Server) handleUpdateTest(c echo.Context) error {
	t, ok := s.store.test(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Test not found")
	}
	if err := s.bindPatch(c, &t); err != nil {
		return err
	}
	s.store.putTest(t)
	return c.JSON(http.StatusOK, message{"Test updated successfully"})
}

func (s *Server) handleDeleteTest(c echo.Context) error {
	s.store.deleteTest(c.Param("id"))
	return c.JSON(http.StatusOK, message{"Test deleted successfully"})
}

func (s *Server) handleListPackages(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.listPackages())
}

func (s *Server) handleGetPackage(c echo.Context) error {
	p, ok := s.store.pkg(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Package not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleCreatePackage(c echo.Context) error {
	var p catalog.Package
	if err := s.bindValid(c, &p); err != nil {
		return err
	}
	p.ID = uuid.NewString()
	if p.IncludedTests == nil {
		p.IncludedTests = []string{}
	}
	s.store.putPackage(p)
	return c.JSON(http.StatusOK, map[string]any{"message": "Package created successfully", "package": p})
}

func (s *Server) handleUpdatePackage(c echo.Context) error {
	p, ok := s.store.pkg(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Package not found")
	}
	if err := s.bindPatch(c, &p); err != nil {
		return err
	}
	s.store.putPackage(p)
	return c.JSON(http.StatusOK, message{"Package updated successfully"})
}

func (s *Server) handleDeletePackage(c echo.Context) error {
	s.store.deletePackage(c.Param("id"))
	return c.JSON(http.StatusOK, message{"Package deleted successfully"})
}

func (s *Server) handleListMemberships(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.listMemberships())
}

func (s *Server) handleCreateMembership(c echo.Context) error {
	var m catalog.Membership
	if err := s.bindValid(c, &m); err != nil {
		return err
	}
	m.ID = uuid.NewString()
	if m.Benefits == nil {
		m.Benefits = []string{}
	}
	s.store.putMembership(m)
	return c.JSON(http.StatusOK, map[string]any{"message": "Membership created successfully", "membership": m})
}

func (s *Server) handleUpdateMembership(c echo.Context) error {
	m, ok := s.store.membership(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Membership not found")
	}
	if err := s.bindPatch(c, &m); err != nil {
		return err
	}
	s.store.putMembership(m)
	return c.JSON(http.StatusOK, message{"Membership updated successfully"})
}

func (s *Server) handleDeleteMembership(c echo.Context) error {
	s.store.deleteMembership(c.Param("id"))
	return c.JSON(http.StatusOK, message{"Membership deleted successfully"})
}

// -- Appointments --

// handleSlots lists the morning slots for a date. A slot is available while
// fewer than slotCapacity non-cancelled appointments hold it.
func (s *Server) handleSlots(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "date is required")
	}
	slots := []scheduling.Slot{}
	for off := slotStart; off < slotEnd; off += slotStep {
		at := fmt.Sprintf("%02d:%02d", int(off.Hours()), int(off.Minutes())%60)
		slots = append(slots, scheduling.Slot{
			Time:      at,
			Available: s.store.countBooked(date, at) < slotCapacity,
		})
	}
	return c.JSON(http.StatusOK, scheduling.SlotsResponse{Slots: slots, Date: date})
}

func (s *Server) handleCreateAppointment(c echo.Context) error {
	var req scheduling.AppointmentCreate
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if req.TestID == "" || req.Date == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "test_id and date are required")
	}

	u := currentUser(c)
	payStatus := scheduling.PaymentStatusPending
	if req.PaymentStatus == scheduling.PaymentStatusPayAtCenter {
		payStatus = req.PaymentStatus
	}
	a := &scheduling.Appointment{
		ID:            uuid.NewString(),
		BookingID:     newCode("AMB"),
		UserID:        u.ID,
		UserName:      req.UserName,
		UserEmail:     req.UserEmail,
		UserPhone:     req.UserPhone,
		TestType:      req.TestType,
		TestID:        req.TestID,
		TestName:      req.TestName,
		Date:          req.Date,
		TimeSlot:      req.TimeSlot,
		PaymentMode:   req.PaymentMode,
		PaymentStatus: payStatus,
		Amount:        req.Amount,
		Status:        scheduling.StatusPending,
		CreatedAt:     s.now().UTC(),
	}
	s.store.addAppointment(a)

	return c.JSON(http.StatusOK, scheduling.CreateResult{
		Message:     "Appointment booked successfully",
		Appointment: *a,
		BookingID:   a.BookingID,
	})
}

func (s *Server) handleMyAppointments(c echo.Context) error {
	uid := currentUser(c).ID
	return c.JSON(http.StatusOK, s.store.listAppointments(func(a *scheduling.Appointment) bool {
		return a.UserID == uid
	}))
}

func (s *Server) handleAllAppointments(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.listAppointments(nil))
}

func (s *Server) handleUpdateAppointment(c echo.Context) error {
	a, ok := s.store.appointment(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Appointment not found")
	}
	if err := s.bindPatch(c, &a); err != nil {
		return err
	}
	s.store.updateAppointment(a.ID, func(stored *scheduling.Appointment) { *stored = a })
	return c.JSON(http.StatusOK, message{"Appointment updated successfully"})
}

// -- Payments --

// SignPayment computes the checkout signature the sandbox accepts for an
// order and payment id pair: hex HMAC-SHA256 of "order|payment".
func SignPayment(keySecret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Server) handleCreateOrder(c echo.Context) error {
	var req payments.OrderRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if req.Amount <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Payment order creation failed: amount must be positive")
	}

	orderID := "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
	p := &payments.Payment{
		ID:              uuid.NewString(),
		UserID:          currentUser(c).ID,
		AppointmentID:   req.AppointmentID,
		Amount:          req.Amount,
		RazorpayOrderID: &orderID,
		Status:          payments.StatusPending,
		PaymentMode:     scheduling.PaymentOnline,
		CreatedAt:       s.now().UTC(),
	}
	s.store.addPayment(p)
	s.store.updateAppointment(req.AppointmentID, func(a *scheduling.Appointment) {
		a.RazorpayOrderID = &orderID
	})

	return c.JSON(http.StatusOK, payments.Order{
		OrderID:  orderID,
		Amount:   int64(math.Round(req.Amount * 100)),
		Currency: "INR",
		KeyID:    s.keyID,
	})
}

func (s *Server) handleVerifyPayment(c echo.Context) error {
	var v payments.Verification
	if err := bindJSON(c, &v); err != nil {
		return err
	}
	want := SignPayment(s.keySecret, v.OrderID, v.PaymentID)
	if v.Signature == "" || !hmac.Equal([]byte(want), []byte(v.Signature)) {
		return echo.NewHTTPError(http.StatusBadRequest, "Payment verification failed: Razorpay Signature Verification Failed")
	}

	p, ok := s.store.paymentByOrder(v.OrderID)
	if ok {
		s.store.completePayment(p.ID, v.PaymentID)
		paymentID := v.PaymentID
		s.store.updateAppointment(p.AppointmentID, func(a *scheduling.Appointment) {
			a.PaymentStatus = scheduling.PaymentStatusCompleted
			a.PaymentID = &paymentID
			a.Status = scheduling.StatusConfirmed
		})
	}
	return c.JSON(http.StatusOK, payments.VerifyResult{
		Message: "Payment verified successfully",
		Status:  payments.StatusCompleted,
	})
}

func (s *Server) handlePaymentHistory(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.listPayments(currentUser(c).ID))
}

// -- Admin --

func (s *Server) handleStats(c echo.Context) error {
	var st admin.Stats
	for _, a := range s.store.listAppointments(nil) {
		st.TotalBookings++
		switch a.Status {
		case scheduling.StatusPending:
			st.PendingAppointments++
		case scheduling.StatusCompleted:
			st.CompletedAppointments++
		}
		if a.PaymentStatus == scheduling.PaymentStatusCompleted && a.Status != scheduling.StatusCompleted {
			st.PendingReports++
		}
	}
	st.TotalRevenue = payments.Total(s.store.listPayments(""))
	return c.JSON(http.StatusOK, st)
}

func (s *Server) handleUsers(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.listUsers())
}

func (s *Server) handleSearchPatients(c echo.Context) error {
	q := c.QueryParam("query")
	if q == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "query is required")
	}
	return c.JSON(http.StatusOK, s.store.searchConfirmed(q))
}

func (s *Server) handleSeedData(c echo.Context) error {
	s.seedCatalog()
	return c.JSON(http.StatusOK, message{"Sample data seeded successfully"})
}

// -- Binding --

func bindJSON(c echo.Context, v any) error {
	if err := json.NewDecoder(c.Request().Body).Decode(v); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "Invalid request body")
	}
	return nil
}

func (s *Server) bindValid(c echo.Context, v any) error {
	if err := bindJSON(c, v); err != nil {
		return err
	}
	if err := s.validate.Struct(v); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}

// bindPatch overlays the JSON object in the body onto dst. The id field is
// never overwritten.
func (s *Server) bindPatch(c echo.Context, dst any) error {
	var fields map[string]any
	if err := bindJSON(c, &fields); err != nil {
		return err
	}
	delete(fields, "id")

	raw, err := json.Marshal(dst)
	if err != nil {
		return err
	}
	merged := map[string]any{}
	if err := json.Unmarshal(raw, &merged); err != nil {
		return err
	}
	for k, v := range fields {
		merged[k] = v
	}
	if raw, err = json.Marshal(merged); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}

// newCode returns prefix followed by eight upper-case hex digits.
func newCode(prefix string) string {
	return prefix + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
