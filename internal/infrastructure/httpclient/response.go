package httpclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
)

// ErrNotJSON is returned when decoding a response that is not JSON
var ErrNotJSON = errors.New("response is not JSON")

// Result is a successful backend response with its body fully read
type Result struct {
	StatusCode  int
	Header      http.Header
	Body        []byte
	ContentType string
}

// IsJSON reports whether the response declares a JSON media type
func (r *Result) IsJSON() bool {
	mediaType, _, err := mime.ParseMediaType(r.ContentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// Text returns the body as a string
func (r *Result) Text() string {
	return string(r.Body)
}

// Decode unmarshals a JSON body into v. An empty body leaves v untouched.
func (r *Result) Decode(v any) error {
	if !r.IsJSON() {
		return fmt.Errorf("%w: content type %q", ErrNotJSON, r.ContentType)
	}
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// DecodeData decodes the body into v, unwrapping a {"data": ...} envelope when present
func (r *Result) DecodeData(v any) error {
	if !r.IsJSON() {
		return fmt.Errorf("%w: content type %q", ErrNotJSON, r.ContentType)
	}

	trimmed := bytes.TrimSpace(r.Body)
	if len(trimmed) == 0 {
		return nil
	}

	if trimmed[0] == '{' {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &envelope); err == nil {
			if data, ok := envelope["data"]; ok {
				trimmed = data
			}
		}
	}

	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

// Value returns the decoded JSON body, or the raw text for other content types
func (r *Result) Value() (any, error) {
	if !r.IsJSON() {
		return r.Text(), nil
	}
	var v any
	if err := r.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
