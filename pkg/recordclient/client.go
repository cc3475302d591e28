package recordclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultBaseURL = "http://localhost:8000/api"
	defaultTimeout = 10 * time.Second
	defaultScheme  = "Token"
)

// Client calls the external record service. It holds no per-user state;
// the caller's token is passed on every call.
type Client struct {
	baseURL    string
	scheme     string
	httpClient *http.Client
	tracer     trace.Tracer
}

func New(baseURL string, timeout time.Duration, scheme string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if scheme == "" {
		scheme = defaultScheme
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		scheme:     scheme,
		httpClient: &http.Client{Timeout: timeout},
		tracer:     otel.Tracer("hr-assistant-be/recordclient"),
	}
}

// do sends one request. path is relative to the base URL and must end with
// a slash, matching the record service routes.
func (c *Client) do(ctx context.Context, token, method, path string, query url.Values, body, out interface{}) error {
	ctx, span := c.tracer.Start(ctx, "recordclient "+method, trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("record.path", path),
	))
	defer span.End()

	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", c.scheme+" "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return fmt.Errorf("record service request failed: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(resp.StatusCode, respBody)
		span.SetStatus(codes.Error, apiErr.Detail)
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", path, err)
	}
	return nil
}

func listQuery(opts ListOptions) url.Values {
	q := url.Values{}
	if opts.Page > 0 {
		q.Set("page", fmt.Sprint(opts.Page))
	}
	if opts.PageSize > 0 {
		q.Set("page_size", fmt.Sprint(opts.PageSize))
	}
	if opts.Search != "" {
		q.Set("search", opts.Search)
	}
	for k, v := range opts.Filters {
		q.Set(k, v)
	}
	return q
}
