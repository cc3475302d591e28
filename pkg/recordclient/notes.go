package recordclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

func (c *Client) CreateNote(ctx context.Context, token string, candidateID int, content string) (*Note, error) {
	var out Note
	body := map[string]interface{}{"candidate": candidateID, "content": content}
	if err := c.do(ctx, token, http.MethodPost, "notes/", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListNotes(ctx context.Context, token string, candidateID int) ([]Note, error) {
	var out Page[Note]
	q := url.Values{"candidate": {fmt.Sprint(candidateID)}}
	if err := c.do(ctx, token, http.MethodGet, "notes/", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *Client) DeleteNote(ctx context.Context, token string, id int) error {
	return c.do(ctx, token, http.MethodDelete, fmt.Sprintf("notes/%d/", id), nil, nil, nil)
}
