package scheduling

import "time"

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

var validStatuses = map[string]bool{
	StatusPending:   true,
	StatusConfirmed: true,
	StatusCompleted: true,
	StatusCancelled: true,
}

// Payment modes as sent on the wire. Paying at the center is "cash".
const (
	PaymentOnline   = "online"
	PaymentAtCenter = "cash"
)

const (
	PaymentStatusPending     = "pending"
	PaymentStatusPayAtCenter = "pay_at_center"
	PaymentStatusCompleted   = "completed"
)

// Slot is one bookable time on a date.
type Slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

type SlotsResponse struct {
	Slots []Slot `json:"slots"`
	Date  string `json:"date"`
}

// Appointment is the backend's booking record.
type Appointment struct {
	ID                 string    `json:"id"`
	BookingID          string    `json:"booking_id"`
	UserID             string    `json:"user_id"`
	UserName           string    `json:"user_name"`
	UserEmail          string    `json:"user_email"`
	UserPhone          string    `json:"user_phone"`
	TestType           string    `json:"test_type"`
	TestID             string    `json:"test_id"`
	TestName           string    `json:"test_name"`
	Date               string    `json:"date"`
	TimeSlot           *string   `json:"time_slot"`
	PaymentMode        string    `json:"payment_mode"`
	PaymentStatus      string    `json:"payment_status"`
	PaymentID          *string   `json:"payment_id,omitempty"`
	RazorpayOrderID    *string   `json:"razorpay_order_id,omitempty"`
	Amount             float64   `json:"amount"`
	Status             string    `json:"status"`
	AssignedTechnician *string   `json:"assigned_technician,omitempty"`
	ReportUploaded     bool      `json:"report_uploaded,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// Slot returns the booked time or "" when staff will confirm it.
func (a *Appointment) Slot() string {
	if a.TimeSlot == nil {
		return ""
	}
	return *a.TimeSlot
}

// AppointmentCreate is the body of POST /appointments.
type AppointmentCreate struct {
	UserName      string  `json:"user_name"`
	UserEmail     string  `json:"user_email"`
	UserPhone     string  `json:"user_phone"`
	TestType      string  `json:"test_type"`
	TestID        string  `json:"test_id"`
	TestName      string  `json:"test_name"`
	Date          string  `json:"date"`
	TimeSlot      *string `json:"time_slot"`
	PaymentMode   string  `json:"payment_mode"`
	PaymentStatus string  `json:"payment_status,omitempty"`
	Amount        float64 `json:"amount"`
}

type CreateResult struct {
	Message     string      `json:"message"`
	Appointment Appointment `json:"appointment"`
	BookingID   string      `json:"booking_id"`
}
