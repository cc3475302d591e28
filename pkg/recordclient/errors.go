package recordclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// APIError is a non-2xx answer from the record service.
type APIError struct {
	StatusCode int
	Detail     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("record service returned %d: %s", e.StatusCode, e.Detail)
}

func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsConflict reports a uniqueness violation. The record service signals it
// with 409; error text is not inspected.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict
}

func IsValidation(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 &&
		apiErr.StatusCode != http.StatusNotFound && apiErr.StatusCode != http.StatusConflict
}

// Reason returns a short human-readable cause for err.
func Reason(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	if err == nil {
		return ""
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return "the record service could not be reached"
	}
	return err.Error()
}

func newAPIError(status int, body []byte) *APIError {
	return &APIError{
		StatusCode: status,
		Detail:     extractDetail(status, body),
		Body:       string(body),
	}
}

// extractDetail prefers "detail", then "message", then the first field
// error of a validation payload, then the status text.
func extractDetail(status int, body []byte) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"detail", "message", "error"} {
			if s, ok := payload[key].(string); ok && s != "" {
				return s
			}
		}
		keys := make([]string, 0, len(payload))
		for k := range payload {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			switch v := payload[k].(type) {
			case []interface{}:
				if len(v) > 0 {
					return fmt.Sprintf("%s: %v", k, v[0])
				}
			case string:
				return fmt.Sprintf("%s: %s", k, v)
			}
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) < 200 && !strings.HasPrefix(text, "<") {
		return text
	}
	return http.StatusText(status)
}
