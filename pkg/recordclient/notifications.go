package recordclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

func (c *Client) ListUnreadNotifications(ctx context.Context, token string) ([]Notification, error) {
	var out Page[Notification]
	q := url.Values{"is_read": {"false"}}
	if err := c.do(ctx, token, http.MethodGet, "notifications/", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *Client) ListRecentNotifications(ctx context.Context, token string, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 10
	}
	var out Page[Notification]
	q := url.Values{"limit": {fmt.Sprint(limit)}}
	if err := c.do(ctx, token, http.MethodGet, "notifications/", q, nil, &out); err != nil {
		return nil, err
	}
	if len(out.Results) > limit {
		return out.Results[:limit], nil
	}
	return out.Results, nil
}
