package sandbox

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/diaglab/diaglab/internal/domain/scheduling"
)

// reportPDF renders a one-page lab report for appt.
func reportPDF(appt scheduling.Appointment, remarks string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 70, 140)
	pdf.CellFormat(0, 10, "Ambica Diagnostic Center", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 7, "Laboratory Report", "", 1, "C", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 10, "Patient Details", "1", 1, "C", false, 0, "")
	addRow(pdf, "Patient Name", appt.UserName)
	addRow(pdf, "Booking ID", appt.BookingID)
	addRow(pdf, "Test", appt.TestName)
	addRow(pdf, "Collection Date", appt.Date)
	if slot := appt.Slot(); slot != "" {
		addRow(pdf, "Time Slot", slot)
	}
	addRow(pdf, "Amount Paid", fmt.Sprintf("%.2f", appt.Amount))

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 10, "Remarks:", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 5, remarks, "", "L", false)

	pdf.SetY(pdf.GetY() + 12)
	pdf.CellFormat(0, 10, "This is a computer generated report", "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func addRow(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(45, 10, label, "1", 0, "", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 10, value, "1", 1, "", false, 0, "")
}
