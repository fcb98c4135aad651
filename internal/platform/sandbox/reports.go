package sandbox

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/diaglab/diaglab/internal/domain/reports"
	"github.com/diaglab/diaglab/internal/domain/scheduling"
	"github.com/diaglab/diaglab/internal/platform/blobstore"
)

func (s *Server) handleUploadReport(c echo.Context) error {
	patientID := c.FormValue("patient_id")
	appointmentID := c.FormValue("appointment_id")
	if patientID == "" || appointmentID == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "patient_id and appointment_id are required")
	}
	status := c.FormValue("status")
	if status == "" {
		status = reports.StatusReady
	}
	if !reports.ValidStatus(status) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, fmt.Sprintf("invalid status %q", status))
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "file is required")
	}

	appt, ok := s.store.appointment(appointmentID)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Appointment not found")
	}
	if _, err := blobstore.ContentTypeFor(fh.Filename); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Only PDF and image files are allowed")
	}

	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	ext := filepath.Ext(fh.Filename)
	name := fmt.Sprintf("%s_%s%s", appt.BookingID, strings.ReplaceAll(uuid.NewString(), "-", "")[:8], ext)
	if _, err := s.files.Put(c.Request().Context(), name, name, src); err != nil {
		if errors.Is(err, blobstore.ErrFileTooLarge) {
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "File too large")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Report upload failed: "+err.Error())
	}

	r := s.attachReport(appt, patientID, name, c.FormValue("remarks"), status)
	return c.JSON(http.StatusOK, reports.UploadResult{Message: "Report uploaded successfully", Report: r})
}

// attachReport records a stored file as the report for appt and marks the
// appointment completed.
func (s *Server) attachReport(appt scheduling.Appointment, patientID, fileName, remarks, status string) reports.Report {
	now := s.now().UTC()
	r := reports.Report{
		ID:            uuid.NewString(),
		ReportID:      newCode("REP"),
		PatientID:     patientID,
		PatientName:   appt.UserName,
		AppointmentID: appt.ID,
		BookingID:     appt.BookingID,
		TestName:      appt.TestName,
		FileURL:       "/reports/" + fileName,
		FileName:      fileName,
		Remarks:       remarks,
		Status:        status,
		ReportDate:    now,
		UploadedAt:    now,
	}
	s.store.addReport(&r)
	s.store.updateAppointment(appt.ID, func(a *scheduling.Appointment) {
		a.Status = scheduling.StatusCompleted
		a.ReportUploaded = true
	})
	return r
}

func (s *Server) handleMyReports(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.listReports(currentUser(c).ID))
}

func (s *Server) handleAllReports(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.listReports(""))
}

func (s *Server) handleDownloadReport(c echo.Context) error {
	r, ok := s.store.report(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Report not found")
	}
	u := currentUser(c)
	if r.PatientID != u.ID && !u.IsAdmin() {
		return echo.NewHTTPError(http.StatusForbidden, "Access denied")
	}

	body, meta, err := s.files.Get(c.Request().Context(), r.FileName)
	if err != nil {
		if errors.Is(err, blobstore.ErrBlobNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Report file not found")
		}
		return err
	}
	defer body.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition,
		mime.FormatMediaType("attachment", map[string]string{"filename": r.FileName}))
	return c.Stream(http.StatusOK, meta.ContentType, body)
}

func (s *Server) handleDeleteReport(c echo.Context) error {
	r, ok := s.store.report(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Report not found")
	}
	if err := s.files.Delete(c.Request().Context(), r.FileName); err != nil && !errors.Is(err, blobstore.ErrBlobNotFound) {
		return err
	}
	s.store.deleteReport(r.ID)
	return c.JSON(http.StatusOK, message{"Report deleted successfully"})
}
