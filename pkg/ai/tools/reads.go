package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"hr-assistant-be/pkg/ai/response"
	"hr-assistant-be/pkg/llm"
	"hr-assistant-be/pkg/recordclient"
	"hr-assistant-be/pkg/store"
)

func (r *Registry) registerReads() {
	r.register(llm.ToolDef{
		Name:        "get_candidate",
		Description: "Get the full record of one candidate by id.",
		Parameters:  object(props{"candidate_id": integer("Candidate id.")}, "candidate_id"),
	}, func(ctx context.Context, c *call, args json.RawMessage) (llm.ToolOutcome, error) {
		var in struct {
			CandidateID FlexInt `json:"candidate_id"`
		}
		if err := decode(args, &in); err != nil {
			return llm.ToolOutcome{}, err
		}
		cand, err := c.records.GetCandidate(ctx, c.token, int(in.CandidateID))
		if recordclient.IsNotFound(err) {
			return text(fmt.Sprintf("No candidate found with ID %d.", in.CandidateID))
		}
		if err != nil {
			return llm.ToolOutcome{}, err
		}
		return text(response.Candidate(cand))
	})

	r.register(llm.ToolDef{
		Name:        "list_candidates",
		Description: "List candidates page by page, optionally filtered by stage or a search term.",
		Parameters: object(props{
			"page":            integer("1-based page number."),
			"page_size":       integer("Page size, default 20."),
			"search":          str("Free-text search over name, email and skills."),
			"candidate_stage": str("Only candidates in this stage."),
		}),
	}, func(ctx context.Context, c *call, args json.RawMessage) (llm.ToolOutcome, error) {
		var in struct {
			Page     FlexInt `json:"page"`
			PageSize FlexInt `json:"page_size"`
			Search   string  `json:"search"`
			Stage    string  `json:"candidate_stage"`
		}
		if err := decode(args, &in); err != nil {
			return llm.ToolOutcome{}, err
		}
		opts := recordclient.ListOptions{Page: int(in.Page), PageSize: int(in.PageSize), Search: in.Search}
		if opts.Page <= 0 {
			opts.Page = 1
		}
		if in.Stage != "" {
			opts.Filters = map[string]string{store.FieldCandidateStage: in.Stage}
		}
		page, err := c.records.ListCandidates(ctx, c.token, opts)
		if err != nil {
			return llm.ToolOutcome{}, err
		}
		return text(response.CandidatePage(page, opts.Page))
	})

	r.register(llm.ToolDef{
		Name:        "search_candidates",
		Description: "Find candidates by name, email or keyword.",
		Parameters:  object(props{"query": str("Search text.")}, "query"),
	}, func(ctx context.Context, c *call, args json.RawMessage) (llm.ToolOutcome, error) {
		var in struct {
			Query string `json:"query"`
		}
		if err := decode(args, &in); err != nil {
			return llm.ToolOutcome{}, err
		}
		if strings.TrimSpace(in.Query) == "" {
			return llm.ToolOutcome{Content: "Error: query is required", IsError: true}, nil
		}
		page, err := c.records.SearchCandidates(ctx, c.token, in.Query)
		if err != nil {
			return llm.ToolOutcome{}, err
		}
		return text(response.CandidatePage(page, 1))
	})

	r.register(llm.ToolDef{
		Name:        "get_candidate_metrics",
		Description: "Candidate pipeline statistics such as counts per stage.",
		Parameters:  object(props{}),
	}, func(ctx context.Context, c *call, _ json.RawMessage) (llm.ToolOutcome, error) {
		m, err := c.records.CandidateMetrics(ctx, c.token)
		if err != nil {
			return llm.ToolOutcome{}, err
		}
		return text(response.Metrics("Candidate metrics", m))
	})

	r.register(llm.ToolDef{
		Name:        "get_overall_metrics",
		Description: "Organisation-wide hiring statistics.",
		Parameters:  object(props{}),
	}, func(ctx context.Context, c *call, _ json.RawMessage) (llm.ToolOutcome, error) {
		m, err := c.records.OverallMetrics(ctx, c.token)
		if err != nil {
			return llm.ToolOutcome{}, err
		}
		return text(response.Metrics("Overall metrics", m))
	})

	r.register(llm.ToolDef{
		Name:        "get_recent_activities",
		Description: "Recent changes made in the HR system.",
		Parameters:  object(props{"limit": integer("How many entries, default 10.")}),
	}, func(ctx context.Context, c *call, args json.RawMessage) (llm.ToolOutcome, error) {
		var in struct {
			Limit FlexInt `json:"limit"`
		}
		if err := decode(args, &in); err != nil {
			return llm.ToolOutcome{}, err
		}
		limit := int(in.Limit)
		if limit <= 0 {
			limit = 10
		}
		items, err := c.records.RecentActivities(ctx, c.token, limit)
		if err != nil {
			return llm.ToolOutcome{}, err
		}
		return text(response.Activities(items))
	})

	r.register(llm.ToolDef{
		Name:        "list_job_titles",
		Description: "List the job titles known to the HR system.",
		Parameters:  object(props{}),
	}, func(ctx context.Context, c *call, _ json.RawMessage) (llm.ToolOutcome, error) {
		items, err := c.records.ListLookups(ctx, c.token, store.LookupJobTitle)
		if err != nil {
			return llm.ToolOutcome{}, err
		}
		if len(items) == 0 {
			return text("No job titles defined.")
		}
		names := make([]string, len(items))
		for i, it := range items {
			names[i] = fmt.Sprintf("%s (id %d)", it.Name, it.ID)
		}
		return text("Job titles: " + strings.Join(names, ", "))
	})

	r.register(llm.ToolDef{
		Name:        "list_notes",
		Description: "List notes attached to a candidate.",
		Parameters:  object(props{"candidate_id": integer("Candidate id.")}, "candidate_id"),
	}, func(ctx context.Context, c *call, args json.RawMessage) (llm.ToolOutcome, error) {
		var in struct {
			CandidateID FlexInt `json:"candidate_id"`
		}
		if err := decode(args, &in); err != nil {
			return llm.ToolOutcome{}, err
		}
		notes, err := c.records.ListNotes(ctx, c.token, int(in.CandidateID))
		if err != nil {
			return llm.ToolOutcome{}, err
		}
		return text(response.Notes(int(in.CandidateID), notes))
	})

	r.register(llm.ToolDef{
		Name:        "list_job_posts",
		Description: "List job postings.",
		Parameters: object(props{
			"page":   integer("1-based page number."),
			"search": str("Filter by title or department."),
		}),
	}, func(ctx context.Context, c *call, args json.RawMessage) (llm.ToolOutcome, error) {
		var in struct {
			Page   FlexInt `json:"page"`
			Search string  `json:"search"`
		}
		if err := decode(args, &in); err != nil {
			return llm.ToolOutcome{}, err
		}
		page, err := c.records.ListJobPosts(ctx, c.token, recordclient.ListOptions{Page: int(in.Page), Search: in.Search})
		if err != nil {
			return llm.ToolOutcome{}, err
		}
		return text(response.JobPosts(page.Results))
	})

	r.register(llm.ToolDef{
		Name:        "get_job_post",
		Description: "Get one job posting by id.",
		Parameters:  object(props{"job_post_id": integer("Job post id.")}, "job_post_id"),
	}, func(ctx context.Context, c *call, args json.RawMessage) (llm.ToolOutcome, error) {
		var in struct {
			ID FlexInt `json:"job_post_id"`
		}
		if err := decode(args, &in); err != nil {
			return llm.ToolOutcome{}, err
		}
		post, err := c.records.GetJobPost(ctx, c.token, int(in.ID))
		if recordclient.IsNotFound(err) {
			return text(fmt.Sprintf("No job post found with ID %d.", in.ID))
		}
		if err != nil {
			return llm.ToolOutcome{}, err
		}
		return text(response.JobPost(post))
	})

	r.register(llm.ToolDef{
		Name:        "list_notifications",
		Description: "List notifications, unread only by default.",
		Parameters: object(props{
			"unread_only": boolean("Only unread notifications. Defaults to true."),
			"limit":       integer("Maximum entries when unread_only is false."),
		}),
	}, func(ctx context.Context, c *call, args json.RawMessage) (llm.ToolOutcome, error) {
		var in struct {
			UnreadOnly *bool   `json:"unread_only"`
			Limit      FlexInt `json:"limit"`
		}
		if err := decode(args, &in); err != nil {
			return llm.ToolOutcome{}, err
		}
		if in.UnreadOnly == nil || *in.UnreadOnly {
			items, err := c.records.ListUnreadNotifications(ctx, c.token)
			if err != nil {
				return llm.ToolOutcome{}, err
			}
			return text(response.Notifications(items))
		}
		limit := int(in.Limit)
		if limit <= 0 {
			limit = 10
		}
		items, err := c.records.ListRecentNotifications(ctx, c.token, limit)
		if err != nil {
			return llm.ToolOutcome{}, err
		}
		return text(response.RecentNotifications(items))
	})
}
