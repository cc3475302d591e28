package recordclient

import (
	"context"
	"fmt"
	"net/http"
)

func (c *Client) ListJobPosts(ctx context.Context, token string, opts ListOptions) (*Page[JobPost], error) {
	var out Page[JobPost]
	if err := c.do(ctx, token, http.MethodGet, "jobposts/", listQuery(opts), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetJobPost(ctx context.Context, token string, id int) (*JobPost, error) {
	var out JobPost
	if err := c.do(ctx, token, http.MethodGet, fmt.Sprintf("jobposts/%d/", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateJobPost(ctx context.Context, token string, fields map[string]interface{}) (*JobPost, error) {
	var out JobPost
	if err := c.do(ctx, token, http.MethodPost, "jobposts/", nil, fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PatchJobPost(ctx context.Context, token string, id int, fields map[string]interface{}) (*JobPost, error) {
	var out JobPost
	if err := c.do(ctx, token, http.MethodPatch, fmt.Sprintf("jobposts/%d/", id), nil, fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteJobPost(ctx context.Context, token string, id int) error {
	return c.do(ctx, token, http.MethodDelete, fmt.Sprintf("jobposts/%d/", id), nil, nil, nil)
}
