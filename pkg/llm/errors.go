package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

type ErrorKind string

const (
	KindRateLimit ErrorKind = "rate_limit"
	KindQuota     ErrorKind = "quota"
	KindTimeout   ErrorKind = "timeout"
	KindAuth      ErrorKind = "auth"
	KindServer    ErrorKind = "server"
	KindParse     ErrorKind = "parse"
	KindUnknown   ErrorKind = "unknown"
)

// ErrIterationLimit is returned when a tool loop does not converge.
var ErrIterationLimit = errors.New("tool iteration limit reached")

// ProviderError represents an LLM provider error.
type ProviderError struct {
	Provider   string
	Model      string
	StatusCode int
	Message    string
	Kind       ErrorKind
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	if e.Provider != "" {
		b.WriteString(e.Provider)
		b.WriteString(": ")
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, "HTTP %d: ", e.StatusCode)
	}
	b.WriteString(e.Message)
	return b.String()
}

// NewHTTPError builds a ProviderError from a non-2xx provider response.
func NewHTTPError(provider, model string, status int, body []byte) *ProviderError {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 500 {
		msg = msg[:500]
	}
	return &ProviderError{
		Provider:   provider,
		Model:      model,
		StatusCode: status,
		Message:    msg,
		Kind:       kindForStatus(status, msg),
	}
}

func kindForStatus(status int, body string) ErrorKind {
	lower := strings.ToLower(body)
	switch {
	case status == http.StatusPaymentRequired:
		return KindQuota
	case status == http.StatusTooManyRequests:
		if strings.Contains(lower, "quota") || strings.Contains(lower, "credit") || strings.Contains(lower, "insufficient") {
			return KindQuota
		}
		return KindRateLimit
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return KindTimeout
	case status >= 500:
		return KindServer
	}
	return KindUnknown
}

// Classify maps any error returned by a provider call onto an ErrorKind.
func Classify(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Kind != "" && pe.Kind != KindUnknown {
		return pe.Kind
	}
	if errors.Is(err, ErrIterationLimit) {
		return KindParse
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}
	var se *json.SyntaxError
	var ue *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ue) {
		return KindParse
	}
	return KindUnknown
}

// ShouldFallback reports whether a failure of this kind is worth one retry
// on the secondary provider.
func (k ErrorKind) ShouldFallback() bool {
	return k != "" && k != KindParse
}

// Unavailable reports whether the failure stems from provider usage limits.
func (k ErrorKind) Unavailable() bool {
	return k == KindRateLimit || k == KindQuota
}
