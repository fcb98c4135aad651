package sandbox

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/diaglab/diaglab/internal/domain/catalog"
	"github.com/diaglab/diaglab/internal/domain/identity"
	"github.com/diaglab/diaglab/internal/domain/payments"
	"github.com/diaglab/diaglab/internal/domain/reports"
	"github.com/diaglab/diaglab/internal/domain/scheduling"
)

func (s *Server) seedUsers() error {
	seeds := []struct {
		name, email, phone, password, role string
	}{
		{"Admin User", AdminEmail, "+91 9876543210", AdminPassword, identity.RoleAdmin},
		{"Demo Patient", PatientEmail, "+91 9876543211", PatientPassword, identity.RolePatient},
	}
	for _, u := range seeds {
		hash, err := s.hashPassword(u.password)
		if err != nil {
			return err
		}
		err = s.store.addUser(&account{
			User: identity.User{
				ID:        uuid.NewString(),
				Name:      u.name,
				Email:     u.email,
				Phone:     u.phone,
				Role:      u.role,
				CreatedAt: s.now().UTC(),
			},
			passwordHash: hash,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", u.email, err)
		}
	}
	return nil
}

// Sample catalog ids are fixed so seeding twice replaces rather than
// duplicates.
var sampleTests = []catalog.Test{
	{ID: "test-cbc", Name: "Complete Blood Count (CBC)", Description: "Comprehensive blood analysis", Price: 350, Category: "Blood Test", PreparationInstructions: "Fasting not required", HomeCollectionAvailable: true},
	{ID: "test-lipid", Name: "Lipid Profile", Description: "Cholesterol and triglycerides test", Price: 500, Category: "Blood Test", PreparationInstructions: "12 hours fasting required", HomeCollectionAvailable: true},
	{ID: "test-thyroid", Name: "Thyroid Profile", Description: "T3, T4, TSH levels", Price: 600, Category: "Hormone Test", PreparationInstructions: "No special preparation", HomeCollectionAvailable: true},
	{ID: "test-hba1c", Name: "HbA1c (Diabetes)", Description: "3-month average blood sugar", Price: 400, Category: "Diabetes", PreparationInstructions: "No fasting required", HomeCollectionAvailable: true},
	{ID: "test-lft", Name: "Liver Function Test (LFT)", Description: "Liver health assessment", Price: 700, Category: "Blood Test", PreparationInstructions: "8 hours fasting", HomeCollectionAvailable: true},
}

var samplePackages = []catalog.Package{
	{ID: "pkg-full-body", Name: "Full Body Checkup", Description: "Comprehensive health screening with 50+ parameters", Price: 2500, IncludedTests: []string{"CBC", "Lipid Profile", "Liver Function", "Kidney Function", "Thyroid"}, PreparationInstructions: "12 hours fasting required", HomeCollectionAvailable: true},
	{ID: "pkg-diabetes", Name: "Diabetes Care Package", Description: "Complete diabetes monitoring", Price: 1200, IncludedTests: []string{"HbA1c", "Fasting Blood Sugar", "Kidney Function"}, PreparationInstructions: "8 hours fasting", HomeCollectionAvailable: true},
	{ID: "pkg-womens-health", Name: "Women's Health Package", Description: "Specialized tests for women", Price: 3000, IncludedTests: []string{"CBC", "Thyroid", "Vitamin D", "Iron Studies", "Hormonal Panel"}, PreparationInstructions: "No fasting required", HomeCollectionAvailable: true},
}

var sampleMemberships = []catalog.Membership{
	{ID: "plan-basic", Name: "Basic Monthly Plan", Description: "Essential health monitoring", MonthlyPrice: 499, Benefits: []string{"10% discount on all tests", "Priority booking", "Free home collection"}, DiscountPercentage: 10, PriorityBooking: true, FreeHomeCollection: true},
	{ID: "plan-senior", Name: "Senior Citizen Plan", Description: "Specialized care for seniors", MonthlyPrice: 799, Benefits: []string{"15% discount", "Monthly free CBC test", "Priority booking", "Free home collection", "Dedicated support"}, DiscountPercentage: 15, PriorityBooking: true, FreeHomeCollection: true},
	{ID: "plan-family", Name: "Family Plan", Description: "Health coverage for whole family", MonthlyPrice: 1499, Benefits: []string{"20% discount on all tests", "4 members coverage", "Free quarterly checkup", "Priority booking"}, DiscountPercentage: 20, PriorityBooking: true, FreeHomeCollection: true},
}

func (s *Server) seedCatalog() {
	for _, t := range sampleTests {
		s.store.putTest(t)
	}
	for _, p := range samplePackages {
		s.store.putPackage(p)
	}
	for _, m := range sampleMemberships {
		s.store.putMembership(m)
	}
	s.logger.Info().
		Int("tests", len(sampleTests)).
		Int("packages", len(samplePackages)).
		Int("memberships", len(sampleMemberships)).
		Msg("sample catalog seeded")
}

// seedDemo gives the demo patient a paid, completed CBC booking from
// yesterday with a ready PDF report.
func (s *Server) seedDemo() error {
	s.seedCatalog()

	patient, ok := s.store.userByEmail(PatientEmail)
	if !ok {
		return fmt.Errorf("demo patient missing")
	}
	cbc := sampleTests[0]
	now := s.now().UTC()
	slot := "06:30"
	paymentID := "pay_demo" + newCode("")
	orderID := "order_demo" + newCode("")

	appt := &scheduling.Appointment{
		ID:              uuid.NewString(),
		BookingID:       newCode("AMB"),
		UserID:          patient.ID,
		UserName:        patient.Name,
		UserEmail:       patient.Email,
		UserPhone:       patient.Phone,
		TestType:        catalog.KindTest,
		TestID:          cbc.ID,
		TestName:        cbc.Name,
		Date:            scheduling.DateOf(s.now()).AddDays(-1).String(),
		TimeSlot:        &slot,
		PaymentMode:     scheduling.PaymentOnline,
		PaymentStatus:   scheduling.PaymentStatusCompleted,
		PaymentID:       &paymentID,
		RazorpayOrderID: &orderID,
		Amount:          cbc.Price,
		Status:          scheduling.StatusConfirmed,
		CreatedAt:       now,
	}
	s.store.addAppointment(appt)
	s.store.addPayment(&payments.Payment{
		ID:                uuid.NewString(),
		UserID:            patient.ID,
		AppointmentID:     appt.ID,
		Amount:            cbc.Price,
		RazorpayOrderID:   &orderID,
		RazorpayPaymentID: &paymentID,
		Status:            payments.StatusCompleted,
		PaymentMode:       scheduling.PaymentOnline,
		CreatedAt:         now,
	})

	remarks := "All parameters within normal range."
	doc, err := reportPDF(*appt, remarks)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	name := appt.BookingID + "_demo.pdf"
	if _, err := s.files.Put(context.Background(), name, name, bytes.NewReader(doc)); err != nil {
		return fmt.Errorf("store report: %w", err)
	}
	s.attachReport(*appt, patient.ID, name, remarks, reports.StatusReady)
	return nil
}
