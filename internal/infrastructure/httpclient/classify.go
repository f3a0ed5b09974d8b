package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// ClassifyStatus maps a non-2xx HTTP status to an error kind
func ClassifyStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuthRequired
	case status >= 500:
		return KindServer
	default:
		return KindClient
	}
}

// NewStatusError builds the error for a non-2xx response. The message comes from the
// backend body's message or error field when it has one.
func NewStatusError(resp *Result, status string) *APIError {
	statusText := statusText(resp.StatusCode, status)

	message := backendMessage(resp)
	if message == "" {
		message = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, statusText)
	}

	return &APIError{
		Kind:       ClassifyStatus(resp.StatusCode),
		Message:    message,
		Status:     resp.StatusCode,
		StatusText: statusText,
	}
}

// classifyTransport wraps an error from the round trip itself. Attempt timeouts are
// classified by the timeout layer before reaching here.
func classifyTransport(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return err
	}
	return &APIError{
		Kind:    KindNetwork,
		Message: fmt.Sprintf("network error: %v", err),
		Err:     err,
	}
}

func statusText(code int, status string) string {
	if text := strings.TrimSpace(strings.TrimPrefix(status, strconv.Itoa(code))); text != "" {
		return text
	}
	return http.StatusText(code)
}

func backendMessage(resp *Result) string {
	if !resp.IsJSON() || len(resp.Body) == 0 {
		return ""
	}

	var body struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}

	// error is either a string or {"message": "..."}
	var text string
	if err := json.Unmarshal(body.Error, &text); err == nil {
		return text
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body.Error, &nested); err == nil {
		return nested.Message
	}
	return ""
}
