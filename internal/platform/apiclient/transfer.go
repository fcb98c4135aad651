package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
)

// File is a downloaded attachment. The caller must close Body.
type File struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

// Form is a multipart/form-data payload with plain fields and at most one file.
type Form struct {
	Fields map[string]string

	FileField   string
	FileName    string
	ContentType string
	File        io.Reader
}

// Download issues a GET and hands back the raw body together with the file
// name from Content-Disposition, if any.
func (c *Client) Download(ctx context.Context, path string) (*File, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, nil, "")
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "*/*")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}

	f := &File{
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
		Body:        resp.Body,
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			f.FileName = params["filename"]
		}
	}
	return f, nil
}

// Upload POSTs form as multipart/form-data and decodes the JSON reply into out.
func (c *Client) Upload(ctx context.Context, path string, form *Form, out any) error {
	if form == nil {
		return fmt.Errorf("upload %s: form is required", path)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range form.Fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("upload %s: write field %s: %w", path, k, err)
		}
	}
	if form.File != nil {
		field := form.FileField
		if field == "" {
			field = "file"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
			"name":     field,
			"filename": form.FileName,
		}))
		ct := form.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return fmt.Errorf("upload %s: create file part: %w", path, err)
		}
		if _, err := io.Copy(part, form.File); err != nil {
			return fmt.Errorf("upload %s: copy file: %w", path, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("upload %s: close form: %w", path, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, nil, &buf, w.FormDataContentType())
	if err != nil {
		return err
	}
	return c.doJSON(req, out)
}
