package reports

import (
	"io"
	"time"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusReady      = "ready"
)

var validStatuses = map[string]bool{
	StatusPending:    true,
	StatusProcessing: true,
	StatusReady:      true,
}

// Report is an uploaded lab result attached to a booking.
type Report struct {
	ID            string    `json:"id"`
	ReportID      string    `json:"report_id"`
	PatientID     string    `json:"patient_id"`
	PatientName   string    `json:"patient_name"`
	AppointmentID string    `json:"appointment_id"`
	BookingID     string    `json:"booking_id"`
	TestName      string    `json:"test_name"`
	FileURL       string    `json:"file_url"`
	FileName      string    `json:"file_name"`
	Remarks       string    `json:"remarks,omitempty"`
	Status        string    `json:"status"`
	ReportDate    time.Time `json:"report_date"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

// DownloadName is the file name to save the report under.
func (r *Report) DownloadName() string {
	if r.FileName != "" {
		return r.FileName
	}
	return r.ReportID + ".pdf"
}

// UploadRequest describes a report file an admin attaches to an appointment.
type UploadRequest struct {
	PatientID     string    `validate:"required"`
	AppointmentID string    `validate:"required"`
	Remarks       string    `validate:"-"`
	Status        string    `validate:"omitempty,oneof=pending processing ready"`
	FileName      string    `validate:"required"`
	File          io.Reader `validate:"-"`
}

type UploadResult struct {
	Message string `json:"message"`
	Report  Report `json:"report"`
}
