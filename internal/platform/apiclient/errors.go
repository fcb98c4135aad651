package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 * 1024

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Detail     string
	Method     string
	Path       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Detail)
}

// errorBody matches the backend's {"detail": ...} error envelope. Detail is
// usually a string but validation failures carry a list of objects.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
	Error  string          `json:"error"`
	// echo's default error handler uses "message".
	Message string `json:"message"`
}

func newAPIError(req *http.Request, resp *http.Response) *APIError {
	e := &APIError{
		StatusCode: resp.StatusCode,
		Method:     req.Method,
		Path:       req.URL.Path,
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	e.Detail = parseDetail(raw)
	if e.Detail == "" {
		e.Detail = http.StatusText(resp.StatusCode)
	}
	return e
}

func parseDetail(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return strings.TrimSpace(string(raw))
	}
	if len(body.Detail) > 0 {
		var s string
		if err := json.Unmarshal(body.Detail, &s); err == nil {
			return s
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(body.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
		return string(body.Detail)
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func IsUnauthorized(err error) bool { return StatusCode(err) == http.StatusUnauthorized }

func IsForbidden(err error) bool { return StatusCode(err) == http.StatusForbidden }

func IsNotFound(err error) bool { return StatusCode(err) == http.StatusNotFound }

// DetailOr returns the backend's detail message when err is an *APIError
// with one, and fallback otherwise.
func DetailOr(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" && apiErr.Detail != http.StatusText(apiErr.StatusCode) {
		return apiErr.Detail
	}
	return fallback
}
