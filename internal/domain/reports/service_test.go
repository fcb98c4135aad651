package reports

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/diaglab/diaglab/internal/platform/apiclient"
	"github.com/diaglab/diaglab/internal/platform/blobstore"
)

func newService(t *testing.T, register func(e *echo.Echo)) *Service {
	t.Helper()
	e := echo.New()
	register(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	c, err := apiclient.New(srv.URL + "/api")
	if err != nil {
		t.Fatalf("apiclient.New: %v", err)
	}
	return NewService(c)
}

// ---------------------------------------------------------------------------
// Filtering
// ---------------------------------------------------------------------------

func TestFilter_StatusReady(t *testing.T) {
	reports := []Report{
		{TestName: "CBC", BookingID: "B1", Status: StatusReady},
		{TestName: "X-Ray", BookingID: "B2", Status: StatusPending},
	}
	got := Filter(reports, "", StatusReady)
	if len(got) != 1 || got[0].TestName != "CBC" {
		t.Fatalf("expected only CBC, got %v", got)
	}
}

func TestFilter_QueryFields(t *testing.T) {
	reports := []Report{
		{TestName: "Lipid Profile", BookingID: "AMB11112222", ReportID: "REPAAAA0001", Status: StatusReady},
		{TestName: "Thyroid Profile", BookingID: "AMB33334444", ReportID: "REPBBBB0002", Status: StatusProcessing},
	}
	for q, wantID := range map[string]string{
		"thyroid":    "REPBBBB0002",
		"amb1111":    "REPAAAA0001",
		"repbbbb":    "REPBBBB0002",
		"LIPID PROF": "REPAAAA0001",
	} {
		got := Filter(reports, q, "all")
		if len(got) != 1 || got[0].ReportID != wantID {
			t.Errorf("query %q: got %v", q, got)
		}
	}
	if got := Filter(reports, "profile", "all"); len(got) != 2 {
		t.Errorf("expected both, got %v", got)
	}
}

func TestCounts(t *testing.T) {
	reports := []Report{
		{Status: StatusReady},
		{Status: StatusReady},
		{Status: StatusPending},
		{Status: StatusProcessing},
	}
	if CountReady(reports) != 2 {
		t.Errorf("expected 2 ready, got %d", CountReady(reports))
	}
	if CountInProgress(reports) != 2 {
		t.Errorf("expected 2 in progress, got %d", CountInProgress(reports))
	}
	if !ValidStatus(StatusProcessing) || ValidStatus("done") {
		t.Error("ValidStatus is wrong")
	}
}

func TestReport_DownloadName(t *testing.T) {
	r := Report{ReportID: "REP12345678"}
	if r.DownloadName() != "REP12345678.pdf" {
		t.Errorf("got %q", r.DownloadName())
	}
	r.FileName = "AMB1_ab.png"
	if r.DownloadName() != "AMB1_ab.png" {
		t.Errorf("got %q", r.DownloadName())
	}
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

func TestService_Save_UsesFileName(t *testing.T) {
	svc := newService(t, func(e *echo.Echo) {
		e.GET("/api/reports/:id/download", func(c echo.Context) error {
			return c.Blob(http.StatusOK, "application/pdf", []byte("%PDF-1.3 "+c.Param("id")))
		})
	})

	dir := t.TempDir()
	path, err := svc.Save(context.Background(), Report{ID: "r1", ReportID: "REP0000AAAA"}, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(path) != "REP0000AAAA.pdf" {
		t.Errorf("expected fallback name, got %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "%PDF-1.3 r1" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestService_Save_ForbiddenWritesNothing(t *testing.T) {
	svc := newService(t, func(e *echo.Echo) {
		e.GET("/api/reports/:id/download", func(c echo.Context) error {
			return c.JSON(http.StatusForbidden, map[string]string{"detail": "Access denied"})
		})
	})

	dir := t.TempDir()
	_, err := svc.Save(context.Background(), Report{ID: "r1", FileName: "x.pdf"}, dir)
	if !apiclient.IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected no files, got %d", len(entries))
	}
}

func TestService_Upload(t *testing.T) {
	var fields map[string]string
	var fileName, fileBody, fileType string
	svc := newService(t, func(e *echo.Echo) {
		e.POST("/api/reports/upload", func(c echo.Context) error {
			fields = map[string]string{
				"patient_id":     c.FormValue("patient_id"),
				"appointment_id": c.FormValue("appointment_id"),
				"status":         c.FormValue("status"),
				"remarks":        c.FormValue("remarks"),
			}
			fh, err := c.FormFile("file")
			if err != nil {
				return err
			}
			fileName = fh.Filename
			fileType = fh.Header.Get("Content-Type")
			f, _ := fh.Open()
			defer f.Close()
			b, _ := io.ReadAll(f)
			fileBody = string(b)
			return c.JSON(http.StatusOK, UploadResult{
				Message: "Report uploaded successfully",
				Report:  Report{ID: "r9", ReportID: "REP99999999", Status: fields["status"]},
			})
		})
	})

	rep, err := svc.Upload(context.Background(), UploadRequest{
		PatientID:     "u1",
		AppointmentID: "a1",
		Remarks:       "normal",
		FileName:      "/tmp/cbc.PDF",
		File:          strings.NewReader("%PDF"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.ReportID != "REP99999999" || rep.Status != StatusReady {
		t.Errorf("unexpected report %+v", rep)
	}
	if fields["patient_id"] != "u1" || fields["appointment_id"] != "a1" || fields["remarks"] != "normal" {
		t.Errorf("unexpected fields %v", fields)
	}
	if fileName != "cbc.PDF" || fileBody != "%PDF" || fileType != "application/pdf" {
		t.Errorf("unexpected file %q %q %q", fileName, fileBody, fileType)
	}
}

func TestService_Upload_RejectsBeforeSending(t *testing.T) {
	called := false
	svc := newService(t, func(e *echo.Echo) {
		e.POST("/api/reports/upload", func(c echo.Context) error {
			called = true
			return c.NoContent(http.StatusOK)
		})
	})
	ctx := context.Background()

	_, err := svc.Upload(ctx, UploadRequest{PatientID: "u1", AppointmentID: "a1", FileName: "notes.docx", File: strings.NewReader("x")})
	if !errors.Is(err, blobstore.ErrInvalidContentType) {
		t.Errorf("expected ErrInvalidContentType, got %v", err)
	}
	_, err = svc.Upload(ctx, UploadRequest{PatientID: "u1", AppointmentID: "a1", FileName: "r.pdf"})
	if !errors.Is(err, ErrMissingFile) {
		t.Errorf("expected ErrMissingFile, got %v", err)
	}
	_, err = svc.Upload(ctx, UploadRequest{AppointmentID: "a1", FileName: "r.pdf", File: strings.NewReader("x")})
	if err == nil {
		t.Error("expected validation error for missing patient")
	}
	_, err = svc.Upload(ctx, UploadRequest{PatientID: "u1", AppointmentID: "a1", Status: "done", FileName: "r.pdf", File: strings.NewReader("x")})
	if err == nil {
		t.Error("expected validation error for unknown status")
	}
	if called {
		t.Error("backend must not be called")
	}
}

func TestService_MineAndDelete(t *testing.T) {
	deleted := ""
	svc := newService(t, func(e *echo.Echo) {
		e.GET("/api/reports", func(c echo.Context) error {
			return c.JSON(http.StatusOK, []Report{{ID: "r1", Status: StatusReady}})
		})
		e.DELETE("/api/reports/:id", func(c echo.Context) error {
			deleted = c.Param("id")
			return c.JSON(http.StatusOK, map[string]string{"message": "Report deleted successfully"})
		})
	})
	ctx := context.Background()

	mine, err := svc.Mine(ctx)
	if err != nil || len(mine) != 1 {
		t.Fatalf("unexpected %v %v", mine, err)
	}
	if err := svc.Delete(ctx, "r1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != "r1" {
		t.Errorf("expected r1 deleted, got %q", deleted)
	}
}
