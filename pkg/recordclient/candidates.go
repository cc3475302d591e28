package recordclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"hr-assistant-be/pkg/store"
)

func (c *Client) GetCandidate(ctx context.Context, token string, id int) (*Candidate, error) {
	var out Candidate
	if err := c.do(ctx, token, http.MethodGet, fmt.Sprintf("candidates/%d/", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListCandidates(ctx context.Context, token string, opts ListOptions) (*Page[Candidate], error) {
	var out Page[Candidate]
	if err := c.do(ctx, token, http.MethodGet, "candidates/", listQuery(opts), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SearchCandidates(ctx context.Context, token, query string) (*Page[Candidate], error) {
	return c.ListCandidates(ctx, token, ListOptions{Page: 1, Search: query})
}

func (c *Client) CreateCandidate(ctx context.Context, token string, in CandidateInput) (*Candidate, error) {
	var out Candidate
	if err := c.do(ctx, token, http.MethodPost, "candidates/", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PatchCandidate(ctx context.Context, token string, id int, fields map[string]interface{}) (*Candidate, error) {
	var out Candidate
	if err := c.do(ctx, token, http.MethodPatch, fmt.Sprintf("candidates/%d/", id), nil, fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCandidate(ctx context.Context, token string, id int) error {
	return c.do(ctx, token, http.MethodDelete, fmt.Sprintf("candidates/%d/", id), nil, nil, nil)
}

func (c *Client) CandidateMetrics(ctx context.Context, token string) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	if err := c.do(ctx, token, http.MethodGet, "candidates/metrics/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) OverallMetrics(ctx context.Context, token string) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	if err := c.do(ctx, token, http.MethodGet, "metrics/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RecentActivities(ctx context.Context, token string, limit int) ([]map[string]interface{}, error) {
	if limit <= 0 {
		limit = 10
	}
	var out Page[map[string]interface{}]
	q := url.Values{"limit": {fmt.Sprint(limit)}}
	if err := c.do(ctx, token, http.MethodGet, "recent-activities/", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// BuildPatch turns a single field/value pair into a PATCH body. Lookup
// fields are resolved to ids (creating the entry if needed) and numeric
// fields are parsed.
func (c *Client) BuildPatch(ctx context.Context, token, field, value string) (map[string]interface{}, error) {
	canonical, ok := store.NormalizeField(field)
	if !ok {
		return nil, fmt.Errorf("unknown field %q", field)
	}
	value = strings.TrimSpace(value)

	if kind := store.LookupKind(canonical); isLookupKind(kind) {
		if store.IsNullish(value) {
			return map[string]interface{}{canonical: nil}, nil
		}
		lookup, err := c.GetOrCreateLookup(ctx, token, kind, value)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{canonical: lookup.ID}, nil
	}

	if store.IsNumericField(canonical) {
		if store.IsNullish(value) {
			return map[string]interface{}{canonical: nil}, nil
		}
		n, err := store.ParseNumber(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be a number", canonical)
		}
		return map[string]interface{}{canonical: n}, nil
	}

	return map[string]interface{}{canonical: value}, nil
}
