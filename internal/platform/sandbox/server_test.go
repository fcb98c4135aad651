package sandbox

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/diaglab/diaglab/internal/domain/admin"
	"github.com/diaglab/diaglab/internal/domain/catalog"
	"github.com/diaglab/diaglab/internal/domain/identity"
	"github.com/diaglab/diaglab/internal/domain/payments"
	"github.com/diaglab/diaglab/internal/domain/reports"
	"github.com/diaglab/diaglab/internal/domain/scheduling"
)

const testKeySecret = "rzp_test_secret"

func newTestServer(t *testing.T, demo bool) *Server {
	t.Helper()
	s, err := New(Options{
		Secret:     "sandbox-test-secret",
		KeySecret:  testKeySecret,
		BcryptCost: bcrypt.MinCost,
		Demo:       demo,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func do(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func detailOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["detail"]
}

func login(t *testing.T, s *Server, email, password string) string {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/auth/login", "", identity.LoginRequest{Email: email, Password: password})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	return decode[identity.AuthResult](t, rec).Token
}

func book(t *testing.T, s *Server, token, date string, slot *string) scheduling.Appointment {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/appointments", token, scheduling.AppointmentCreate{
		UserName:    "Demo Patient",
		UserEmail:   PatientEmail,
		UserPhone:   "+91 9876543211",
		TestType:    catalog.KindTest,
		TestID:      "test-cbc",
		TestName:    "Complete Blood Count (CBC)",
		Date:        date,
		TimeSlot:    slot,
		PaymentMode: scheduling.PaymentOnline,
		Amount:      350,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("book: status %d body %s", rec.Code, rec.Body.String())
	}
	return decode[scheduling.CreateResult](t, rec).Appointment
}

func strPtr(s string) *string { return &s }

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

func TestRoot(t *testing.T) {
	s := newTestServer(t, false)
	rec := do(t, s, http.MethodGet, "/api/", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decode[map[string]string](t, rec)
	if body["status"] != "active" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestLogin_SeededAccounts(t *testing.T) {
	s := newTestServer(t, false)

	rec := do(t, s, http.MethodPost, "/api/auth/login", "", identity.LoginRequest{Email: AdminEmail, Password: AdminPassword})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	res := decode[identity.AuthResult](t, rec)
	if res.Token == "" || res.User.Role != identity.RoleAdmin || res.Message != "Login successful" {
		t.Errorf("unexpected auth result %+v", res)
	}

	rec = do(t, s, http.MethodPost, "/api/auth/login", "", identity.LoginRequest{Email: PatientEmail, Password: "wrong"})
	if rec.Code != http.StatusUnauthorized || detailOf(t, rec) != "Invalid email or password" {
		t.Errorf("expected 401 invalid credentials, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestRegister(t *testing.T) {
	s := newTestServer(t, false)
	req := identity.RegisterRequest{Name: "Asha", Email: "asha@example.com", Phone: "+91 9000000000", Password: "secret1"}

	rec := do(t, s, http.MethodPost, "/api/auth/register", "", req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	res := decode[identity.AuthResult](t, rec)
	if res.User.Role != identity.RolePatient || res.Message != "Registration successful" {
		t.Errorf("unexpected result %+v", res)
	}

	rec = do(t, s, http.MethodGet, "/api/auth/me", res.Token, nil)
	if me := decode[identity.User](t, rec); me.Email != "asha@example.com" {
		t.Errorf("unexpected me %+v", me)
	}

	rec = do(t, s, http.MethodPost, "/api/auth/register", "", req)
	if rec.Code != http.StatusBadRequest || detailOf(t, rec) != "Email already registered" {
		t.Errorf("expected duplicate email rejection, got %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, http.MethodPost, "/api/auth/register", "", identity.RegisterRequest{Email: "bad"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for invalid body, got %d", rec.Code)
	}
}

func TestAuth_Guards(t *testing.T) {
	s := newTestServer(t, false)

	if rec := do(t, s, http.MethodGet, "/api/auth/me", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}
	rec := do(t, s, http.MethodGet, "/api/auth/me", "not-a-jwt", nil)
	if rec.Code != http.StatusUnauthorized || detailOf(t, rec) != "Invalid token" {
		t.Errorf("expected 401 invalid token, got %d %s", rec.Code, rec.Body.String())
	}

	patient := login(t, s, PatientEmail, PatientPassword)
	rec = do(t, s, http.MethodGet, "/api/admin/stats", patient, nil)
	if rec.Code != http.StatusForbidden || detailOf(t, rec) != "Admin access required" {
		t.Errorf("expected 403 for patient, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestUsers_OmitPasswords(t *testing.T) {
	s := newTestServer(t, false)
	rec := do(t, s, http.MethodGet, "/api/admin/users", login(t, s, AdminEmail, AdminPassword), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(strings.ToLower(rec.Body.String()), "password") {
		t.Errorf("user listing leaks password fields: %s", rec.Body.String())
	}
	if users := decode[[]identity.User](t, rec); len(users) != 2 {
		t.Errorf("expected 2 seeded users, got %d", len(users))
	}
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

func TestSeedData_Idempotent(t *testing.T) {
	s := newTestServer(t, false)
	adminTok := login(t, s, AdminEmail, AdminPassword)

	for i := 0; i < 2; i++ {
		rec := do(t, s, http.MethodPost, "/api/admin/seed-data", adminTok, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("seed: %d", rec.Code)
		}
	}

	tests := decode[[]catalog.Test](t, do(t, s, http.MethodGet, "/api/tests", "", nil))
	if len(tests) != 5 {
		t.Errorf("expected 5 tests, got %d", len(tests))
	}
	hormone := decode[[]catalog.Test](t, do(t, s, http.MethodGet, "/api/tests?category=Hormone+Test", "", nil))
	if len(hormone) != 1 || hormone[0].Name != "Thyroid Profile" {
		t.Errorf("unexpected category filter result %v", hormone)
	}
	if pkgs := decode[[]catalog.Package](t, do(t, s, http.MethodGet, "/api/packages", "", nil)); len(pkgs) != 3 {
		t.Errorf("expected 3 packages, got %d", len(pkgs))
	}
	if plans := decode[[]catalog.Membership](t, do(t, s, http.MethodGet, "/api/memberships", "", nil)); len(plans) != 3 {
		t.Errorf("expected 3 memberships, got %d", len(plans))
	}
}

func TestCatalog_CreateUpdateDelete(t *testing.T) {
	s := newTestServer(t, false)
	adminTok := login(t, s, AdminEmail, AdminPassword)

	rec := do(t, s, http.MethodPost, "/api/tests", adminTok, catalog.Test{Name: "Vitamin D", Description: "25-OH vitamin D", Price: 900, Category: "Vitamin"})
	if rec.Code != http.StatusOK {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	created := decode[struct {
		Message string       `json:"message"`
		Test    catalog.Test `json:"test"`
	}](t, rec)
	if created.Test.ID == "" || created.Message != "Test created successfully" {
		t.Fatalf("unexpected create result %+v", created)
	}

	rec = do(t, s, http.MethodPut, "/api/tests/"+created.Test.ID, adminTok, map[string]any{"price": 850, "id": "hijack"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: %d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, s, http.MethodGet, "/api/tests/"+created.Test.ID, "", nil)
	got := decode[catalog.Test](t, rec)
	if got.Price != 850 || got.Name != "Vitamin D" || got.ID != created.Test.ID {
		t.Errorf("partial update not applied correctly: %+v", got)
	}

	if rec := do(t, s, http.MethodPut, "/api/tests/missing", adminTok, map[string]any{"price": 1}); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 updating missing test, got %d", rec.Code)
	}

	do(t, s, http.MethodDelete, "/api/tests/"+created.Test.ID, adminTok, nil)
	if rec := do(t, s, http.MethodGet, "/api/tests/"+created.Test.ID, "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}

	patient := login(t, s, PatientEmail, PatientPassword)
	if rec := do(t, s, http.MethodPost, "/api/memberships", patient, catalog.Membership{Name: "x", Description: "y"}); rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for patient catalog write, got %d", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// Appointments & slots
// ---------------------------------------------------------------------------

func TestSlots_Grid(t *testing.T) {
	s := newTestServer(t, false)
	rec := do(t, s, http.MethodGet, "/api/appointments/slots?date=2026-10-20", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	res := decode[scheduling.SlotsResponse](t, rec)
	if res.Date != "2026-10-20" || len(res.Slots) != 10 {
		t.Fatalf("unexpected grid %+v", res)
	}
	if res.Slots[0].Time != "06:00" || res.Slots[9].Time != "08:15" {
		t.Errorf("unexpected slot bounds %s..%s", res.Slots[0].Time, res.Slots[9].Time)
	}
	for _, sl := range res.Slots {
		if !sl.Available {
			t.Errorf("slot %s should be available on an empty day", sl.Time)
		}
	}

	if rec := do(t, s, http.MethodGet, "/api/appointments/slots", "", nil); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 without date, got %d", rec.Code)
	}
}

func TestSlots_CapacityAndCancellation(t *testing.T) {
	s := newTestServer(t, false)
	patient := login(t, s, PatientEmail, PatientPassword)
	adminTok := login(t, s, AdminEmail, AdminPassword)

	var last scheduling.Appointment
	for i := 0; i < slotCapacity; i++ {
		last = book(t, s, patient, "2026-10-20", strPtr("06:15"))
	}
	slotState := func() bool {
		res := decode[scheduling.SlotsResponse](t, do(t, s, http.MethodGet, "/api/appointments/slots?date=2026-10-20", "", nil))
		for _, sl := range res.Slots {
			if sl.Time == "06:15" {
				return sl.Available
			}
		}
		t.Fatal("06:15 missing from grid")
		return false
	}
	if slotState() {
		t.Fatal("06:15 should be full after three bookings")
	}

	rec := do(t, s, http.MethodPut, "/api/appointments/"+last.ID, adminTok, map[string]any{"status": scheduling.StatusCancelled})
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel: %d %s", rec.Code, rec.Body.String())
	}
	if !slotState() {
		t.Error("cancelling a booking should free the slot")
	}
}

func TestCreateAppointment(t *testing.T) {
	s := newTestServer(t, false)
	patient := login(t, s, PatientEmail, PatientPassword)

	a := book(t, s, patient, "2026-10-20", nil)
	if !regexp.MustCompile(`^AMB[0-9A-F]{8}$`).MatchString(a.BookingID) {
		t.Errorf("unexpected booking id %q", a.BookingID)
	}
	if a.Status != scheduling.StatusPending || a.PaymentStatus != scheduling.PaymentStatusPending {
		t.Errorf("unexpected statuses %s/%s", a.Status, a.PaymentStatus)
	}
	if a.TimeSlot != nil {
		t.Errorf("expected null time slot, got %q", *a.TimeSlot)
	}

	rec := do(t, s, http.MethodPost, "/api/appointments", patient, scheduling.AppointmentCreate{
		TestType: catalog.KindTest, TestID: "test-cbc", Date: "2026-10-21",
		PaymentMode: scheduling.PaymentAtCenter, PaymentStatus: scheduling.PaymentStatusPayAtCenter,
	})
	if got := decode[scheduling.CreateResult](t, rec).Appointment.PaymentStatus; got != scheduling.PaymentStatusPayAtCenter {
		t.Errorf("expected pay_at_center, got %s", got)
	}

	mine := decode[[]scheduling.Appointment](t, do(t, s, http.MethodGet, "/api/appointments", patient, nil))
	if len(mine) != 2 || mine[0].Date != "2026-10-21" {
		t.Errorf("expected newest first, got %v", mine)
	}

	if rec := do(t, s, http.MethodPost, "/api/appointments", "", scheduling.AppointmentCreate{}); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 booking anonymously, got %d", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// Payments & admin
// ---------------------------------------------------------------------------

func TestPayments_OrderAndVerify(t *testing.T) {
	s := newTestServer(t, false)
	patient := login(t, s, PatientEmail, PatientPassword)
	adminTok := login(t, s, AdminEmail, AdminPassword)
	a := book(t, s, patient, "2026-10-20", strPtr("07:00"))

	rec := do(t, s, http.MethodPost, "/api/payments/create-order", patient, payments.OrderRequest{Amount: 350, AppointmentID: a.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("create-order: %d %s", rec.Code, rec.Body.String())
	}
	order := decode[payments.Order](t, rec)
	if order.Amount != 35000 || order.Currency != "INR" || order.KeyID == "" {
		t.Errorf("unexpected order %+v", order)
	}

	rec = do(t, s, http.MethodPost, "/api/payments/verify", patient, payments.Verification{OrderID: order.OrderID, PaymentID: "pay_1", Signature: "forged"})
	if rec.Code != http.StatusBadRequest || !strings.HasPrefix(detailOf(t, rec), "Payment verification failed") {
		t.Errorf("expected verification failure, got %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, http.MethodPost, "/api/payments/verify", patient, payments.Verification{
		OrderID:   order.OrderID,
		PaymentID: "pay_1",
		Signature: SignPayment(testKeySecret, order.OrderID, "pay_1"),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("verify: %d %s", rec.Code, rec.Body.String())
	}

	mine := decode[[]scheduling.Appointment](t, do(t, s, http.MethodGet, "/api/appointments", patient, nil))
	if mine[0].Status != scheduling.StatusConfirmed || mine[0].PaymentStatus != scheduling.PaymentStatusCompleted {
		t.Errorf("appointment not confirmed after payment: %+v", mine[0])
	}
	if mine[0].PaymentID == nil || *mine[0].PaymentID != "pay_1" {
		t.Errorf("payment id not recorded: %v", mine[0].PaymentID)
	}

	history := decode[[]payments.Payment](t, do(t, s, http.MethodGet, "/api/payments/history", patient, nil))
	if len(history) != 1 || history[0].Status != payments.StatusCompleted {
		t.Errorf("unexpected history %v", history)
	}

	st := decode[admin.Stats](t, do(t, s, http.MethodGet, "/api/admin/stats", adminTok, nil))
	want := admin.Stats{TotalBookings: 1, TotalRevenue: 350, PendingReports: 1}
	if st != want {
		t.Errorf("stats: got %+v, want %+v", st, want)
	}
}

func TestSearchPatients_ConfirmedOnly(t *testing.T) {
	s := newTestServer(t, false)
	patient := login(t, s, PatientEmail, PatientPassword)
	adminTok := login(t, s, AdminEmail, AdminPassword)

	book(t, s, patient, "2026-10-20", nil)
	confirmed := book(t, s, patient, "2026-10-21", nil)
	do(t, s, http.MethodPut, "/api/appointments/"+confirmed.ID, adminTok, map[string]any{"status": scheduling.StatusConfirmed})

	got := decode[[]scheduling.Appointment](t, do(t, s, http.MethodGet, "/api/admin/search-patients?query=demo", adminTok, nil))
	if len(got) != 1 || got[0].ID != confirmed.ID {
		t.Errorf("expected only the confirmed booking, got %v", got)
	}

	code := strings.ToLower(confirmed.BookingID)
	got = decode[[]scheduling.Appointment](t, do(t, s, http.MethodGet, "/api/admin/search-patients?query="+code, adminTok, nil))
	if len(got) != 1 {
		t.Errorf("booking id match should ignore case, got %v", got)
	}
}

// ---------------------------------------------------------------------------
// Reports
// ---------------------------------------------------------------------------

func upload(t *testing.T, s *Server, token string, fields map[string]string, fileName string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	if fileName != "" {
		part, err := w.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		part.Write(content)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/reports/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestReports_UploadDownloadDelete(t *testing.T) {
	s := newTestServer(t, false)
	patient := login(t, s, PatientEmail, PatientPassword)
	adminTok := login(t, s, AdminEmail, AdminPassword)
	a := book(t, s, patient, "2026-10-20", nil)

	content := []byte("%PDF-1.4 cbc results")
	rec := upload(t, s, adminTok, map[string]string{"patient_id": a.UserID, "appointment_id": a.ID, "remarks": "normal"}, "cbc.pdf", content)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload: %d %s", rec.Code, rec.Body.String())
	}
	res := decode[reports.UploadResult](t, rec)
	r := res.Report
	if res.Message != "Report uploaded successfully" || r.Status != reports.StatusReady {
		t.Errorf("unexpected upload result %+v", res)
	}
	if !strings.HasPrefix(r.FileName, a.BookingID+"_") || !strings.HasSuffix(r.FileName, ".pdf") || r.FileURL != "/reports/"+r.FileName {
		t.Errorf("unexpected stored name %q url %q", r.FileName, r.FileURL)
	}
	if !regexp.MustCompile(`^REP[0-9A-F]{8}$`).MatchString(r.ReportID) {
		t.Errorf("unexpected report id %q", r.ReportID)
	}

	mine := decode[[]scheduling.Appointment](t, do(t, s, http.MethodGet, "/api/appointments", patient, nil))
	if mine[0].Status != scheduling.StatusCompleted || !mine[0].ReportUploaded {
		t.Errorf("appointment not completed after upload: %+v", mine[0])
	}

	rec = do(t, s, http.MethodGet, "/api/reports/"+r.ID+"/download", patient, nil)
	if rec.Code != http.StatusOK || !bytes.Equal(rec.Body.Bytes(), content) {
		t.Fatalf("download: %d %q", rec.Code, rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") || !strings.Contains(cd, r.FileName) {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}

	other := decode[identity.AuthResult](t, do(t, s, http.MethodPost, "/api/auth/register", "",
		identity.RegisterRequest{Name: "Other", Email: "other@example.com", Phone: "1", Password: "secret1"})).Token
	rec = do(t, s, http.MethodGet, "/api/reports/"+r.ID+"/download", other, nil)
	if rec.Code != http.StatusForbidden || detailOf(t, rec) != "Access denied" {
		t.Errorf("expected 403 for another patient, got %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, s, http.MethodGet, "/api/reports/"+r.ID+"/download", adminTok, nil); rec.Code != http.StatusOK {
		t.Errorf("admin should download any report, got %d", rec.Code)
	}

	if rec := do(t, s, http.MethodDelete, "/api/reports/"+r.ID, adminTok, nil); rec.Code != http.StatusOK {
		t.Fatalf("delete: %d", rec.Code)
	}
	rec = do(t, s, http.MethodGet, "/api/reports/"+r.ID+"/download", patient, nil)
	if rec.Code != http.StatusNotFound || detailOf(t, rec) != "Report not found" {
		t.Errorf("expected 404 after delete, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestReports_UploadRejections(t *testing.T) {
	s := newTestServer(t, false)
	patient := login(t, s, PatientEmail, PatientPassword)
	adminTok := login(t, s, AdminEmail, AdminPassword)
	a := book(t, s, patient, "2026-10-20", nil)

	rec := upload(t, s, adminTok, map[string]string{"patient_id": a.UserID, "appointment_id": a.ID}, "notes.docx", []byte("x"))
	if rec.Code != http.StatusBadRequest || detailOf(t, rec) != "Only PDF and image files are allowed" {
		t.Errorf("expected extension rejection, got %d %s", rec.Code, rec.Body.String())
	}

	rec = upload(t, s, adminTok, map[string]string{"patient_id": a.UserID, "appointment_id": "missing"}, "scan.png", []byte("x"))
	if rec.Code != http.StatusNotFound || detailOf(t, rec) != "Appointment not found" {
		t.Errorf("expected missing appointment, got %d %s", rec.Code, rec.Body.String())
	}

	rec = upload(t, s, patient, map[string]string{"patient_id": a.UserID, "appointment_id": a.ID}, "scan.png", []byte("x"))
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for patient upload, got %d", rec.Code)
	}
}

func TestDemo_SeedsReadyReport(t *testing.T) {
	s := newTestServer(t, true)
	patient := login(t, s, PatientEmail, PatientPassword)

	mine := decode[[]reports.Report](t, do(t, s, http.MethodGet, "/api/reports", patient, nil))
	if len(mine) != 1 || mine[0].Status != reports.StatusReady {
		t.Fatalf("expected one ready demo report, got %v", mine)
	}
	rec := do(t, s, http.MethodGet, "/api/reports/"+mine[0].ID+"/download", patient, nil)
	if rec.Code != http.StatusOK || !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Errorf("expected a PDF download, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("unexpected content type %q", ct)
	}
}
