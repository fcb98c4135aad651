package reports

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/diaglab/diaglab/internal/platform/apiclient"
	"github.com/diaglab/diaglab/internal/platform/blobstore"
)

var ErrMissingFile = errors.New("report file is required")

type Service struct {
	api      apiclient.API
	validate *validator.Validate
}

func NewService(api apiclient.API) *Service {
	return &Service{api: api, validate: validator.New()}
}

// Mine lists the signed-in patient's reports.
func (s *Service) Mine(ctx context.Context) ([]Report, error) {
	out := []Report{}
	if err := s.api.Get(ctx, "/reports", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// All lists every report. Admin only.
func (s *Service) All(ctx context.Context) ([]Report, error) {
	out := []Report{}
	if err := s.api.Get(ctx, "/reports/all", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Download opens the report file. The caller must close the body.
func (s *Service) Download(ctx context.Context, id string) (*apiclient.File, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("report id is required")
	}
	return s.api.Download(ctx, "/reports/"+url.PathEscape(id)+"/download")
}

// Save downloads r into dir and returns the written path. The file is named
// after the report's file name, falling back to "<report_id>.pdf".
func (s *Service) Save(ctx context.Context, r Report, dir string) (string, error) {
	f, err := s.Download(ctx, r.ID)
	if err != nil {
		return "", err
	}
	defer f.Body.Close()

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	path := filepath.Join(dir, filepath.Base(r.DownloadName()))
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := io.Copy(out, f.Body); err != nil {
		out.Close()
		os.Remove(path)
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

// Upload attaches a report file to an appointment. Only PDF, PNG and JPEG
// files are sent.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*Report, error) {
	if req.File == nil {
		return nil, ErrMissingFile
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid upload: %w", err)
	}
	ct, err := blobstore.ContentTypeFor(req.FileName)
	if err != nil {
		return nil, err
	}
	status := req.Status
	if status == "" {
		status = StatusReady
	}

	form := &apiclient.Form{
		Fields: map[string]string{
			"patient_id":     req.PatientID,
			"appointment_id": req.AppointmentID,
			"remarks":        req.Remarks,
			"status":         status,
		},
		FileField:   "file",
		FileName:    filepath.Base(req.FileName),
		ContentType: ct,
		File:        req.File,
	}
	var out UploadResult
	if err := s.api.Upload(ctx, "/reports/upload", form, &out); err != nil {
		return nil, err
	}
	return &out.Report, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("report id is required")
	}
	return s.api.Delete(ctx, "/reports/"+url.PathEscape(id), nil)
}

// ValidStatus reports whether status is a known report status.
func ValidStatus(status string) bool { return validStatuses[status] }
