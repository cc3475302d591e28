package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"hr-assistant-be/pkg/llm"
	"hr-assistant-be/pkg/store"
)

var jobPostFields = []string{"title", "department", "location", "status", "description", "requirements", "salary_range"}

func jobPostProps() props {
	return props{
		"title":        str("Job title of the posting."),
		"department":   str("Department."),
		"location":     str("Location."),
		"status":       str("open, closed or draft."),
		"description":  str("Role description."),
		"requirements": str("Requirements."),
		"salary_range": str("Salary range, e.g. 80k-100k."),
	}
}

// registerWrites adds mutations that apply directly: notes and job posts
// are not confirmation gated.
func (r *Registry) registerWrites() {
	r.register(llm.ToolDef{
		Name:        "add_note",
		Description: "Attach a note to a candidate.",
		Parameters: object(props{
			"candidate_id": integer("Candidate id."),
			"content":      str("Note text."),
		}, "candidate_id", "content"),
	}, func(ctx context.Context, c *call, args json.RawMessage) (llm.ToolOutcome, error) {
		var in struct {
			CandidateID FlexInt `json:"candidate_id"`
			Content     string  `json:"content"`
		}
		if err := decode(args, &in); err != nil {
			return llm.ToolOutcome{}, err
		}
		if strings.TrimSpace(in.Content) == "" {
			return llm.ToolOutcome{Content: "Error: content is required", IsError: true}, nil
		}
		note, err := c.records.CreateNote(ctx, c.token, int(in.CandidateID), in.Content)
		if err != nil {
			return llm.ToolOutcome{}, err
		}
		return wrote(fmt.Sprintf("Note %d added to candidate %d.", note.ID, in.CandidateID))
	})

	addProps := jobPostProps()
	r.register(llm.ToolDef{
		Name:        "add_job_post",
		Description: "Create a job posting.",
		Parameters:  object(addProps, "title"),
	}, func(ctx context.Context, c *call, args json.RawMessage) (llm.ToolOutcome, error) {
		fields, err := jobPostPayload(args)
		if err != nil {
			return llm.ToolOutcome{}, err
		}
		if fields["title"] == nil {
			return llm.ToolOutcome{Content: "Error: title is required", IsError: true}, nil
		}
		post, err := c.records.CreateJobPost(ctx, c.token, fields)
		if err != nil {
			return llm.ToolOutcome{}, err
		}
		return wrote(fmt.Sprintf("Job post %d (%s) created.", post.ID, post.Title))
	})

	updProps := jobPostProps()
	updProps["job_post_id"] = integer("Job post id.")
	r.register(llm.ToolDef{
		Name:        "update_job_post",
		Description: "Change fields of a job posting.",
		Parameters:  object(updProps, "job_post_id"),
	}, func(ctx context.Context, c *call, args json.RawMessage) (llm.ToolOutcome, error) {
		var in struct {
			ID FlexInt `json:"job_post_id"`
		}
		if err := decode(args, &in); err != nil {
			return llm.ToolOutcome{}, err
		}
		fields, err := jobPostPayload(args)
		if err != nil {
			return llm.ToolOutcome{}, err
		}
		if len(fields) == 0 {
			return llm.ToolOutcome{Content: "Error: no fields to update", IsError: true}, nil
		}
		post, err := c.records.PatchJobPost(ctx, c.token, int(in.ID), fields)
		if err != nil {
			return llm.ToolOutcome{}, err
		}
		return wrote(fmt.Sprintf("Job post %d updated: %s.", post.ID, strings.Join(sortedKeys(fields), ", ")))
	})

	r.register(llm.ToolDef{
		Name:        "delete_note",
		Description: "Delete a note by id.",
		Parameters:  object(props{"note_id": integer("Note id.")}, "note_id"),
	}, func(ctx context.Context, c *call, args json.RawMessage) (llm.ToolOutcome, error) {
		var in struct {
			ID FlexInt `json:"note_id"`
		}
		if err := decode(args, &in); err != nil {
			return llm.ToolOutcome{}, err
		}
		if in.ID <= 0 {
			return llm.ToolOutcome{Content: "Error: note_id is required", IsError: true}, nil
		}
		if err := c.records.DeleteNote(ctx, c.token, int(in.ID)); err != nil {
			return llm.ToolOutcome{}, err
		}
		return wrote(fmt.Sprintf("Note %d deleted.", in.ID))
	})

	r.register(llm.ToolDef{
		Name:        "delete_job_post",
		Description: "Delete a job posting by id.",
		Parameters:  object(props{"job_post_id": integer("Job post id.")}, "job_post_id"),
	}, func(ctx context.Context, c *call, args json.RawMessage) (llm.ToolOutcome, error) {
		var in struct {
			ID FlexInt `json:"job_post_id"`
		}
		if err := decode(args, &in); err != nil {
			return llm.ToolOutcome{}, err
		}
		if in.ID <= 0 {
			return llm.ToolOutcome{Content: "Error: job_post_id is required", IsError: true}, nil
		}
		if err := c.records.DeleteJobPost(ctx, c.token, int(in.ID)); err != nil {
			return llm.ToolOutcome{}, err
		}
		return wrote(fmt.Sprintf("Job post %d deleted.", in.ID))
	})
}

func jobPostPayload(args json.RawMessage) (map[string]interface{}, error) {
	var raw map[string]interface{}
	if err := decode(args, &raw); err != nil {
		return nil, err
	}
	fields := make(map[string]interface{})
	for _, k := range jobPostFields {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		fields[k] = v
	}
	return fields, nil
}

// registerStaged adds candidate mutations. They never touch the record
// service; the action is staged for confirmation and the loop ends.
func (r *Registry) registerStaged() {
	r.register(llm.ToolDef{
		Name:        "add_candidate",
		Description: "Prepare a new candidate. The user must confirm before it is created.",
		Parameters:  object(candidateFields(), "first_name"),
	}, func(ctx context.Context, c *call, args json.RawMessage) (llm.ToolOutcome, error) {
		var raw map[string]interface{}
		if err := decode(args, &raw); err != nil {
			return llm.ToolOutcome{}, err
		}
		draft := &store.CandidateDraft{}
		for k, v := range raw {
			if v == nil {
				continue
			}
			// Unknown keys and unparseable numbers are left for the user to fix in the preview.
			_ = draft.Set(k, fmt.Sprint(v))
		}
		return c.stage(ctx, store.NewAddCandidateAction(draft))
	})

	r.register(llm.ToolDef{
		Name:        "update_candidate",
		Description: "Prepare a change to one field of a candidate. The user must confirm.",
		Parameters: object(props{
			"candidate_id": integer("Candidate id."),
			"field":        str(fieldHelp),
			"value":        str("New value."),
		}, "candidate_id", "field", "value"),
	}, func(ctx context.Context, c *call, args json.RawMessage) (llm.ToolOutcome, error) {
		var in struct {
			CandidateID FlexInt `json:"candidate_id"`
			Field       string  `json:"field"`
			Value       string  `json:"value"`
		}
		if err := decode(args, &in); err != nil {
			return llm.ToolOutcome{}, err
		}
		return c.stage(ctx, store.NewUpdateAction(int(in.CandidateID), in.Field, in.Value))
	})

	r.register(llm.ToolDef{
		Name:        "delete_candidate",
		Description: "Prepare deletion of one candidate. The user must confirm.",
		Parameters:  object(props{"candidate_id": integer("Candidate id.")}, "candidate_id"),
	}, func(ctx context.Context, c *call, args json.RawMessage) (llm.ToolOutcome, error) {
		var in struct {
			CandidateID FlexInt `json:"candidate_id"`
		}
		if err := decode(args, &in); err != nil {
			return llm.ToolOutcome{}, err
		}
		return c.stage(ctx, store.NewDeleteAction(int(in.CandidateID)))
	})

	r.register(llm.ToolDef{
		Name:        "bulk_update_candidates",
		Description: "Prepare the same field change for many candidates. The user must confirm.",
		Parameters: object(props{
			"candidate_ids": intArray("Candidate ids."),
			"field":         str(fieldHelp),
			"value":         str("New value."),
		}, "candidate_ids", "field", "value"),
	}, func(ctx context.Context, c *call, args json.RawMessage) (llm.ToolOutcome, error) {
		var in struct {
			IDs   []FlexInt `json:"candidate_ids"`
			Field string    `json:"field"`
			Value string    `json:"value"`
		}
		if err := decode(args, &in); err != nil {
			return llm.ToolOutcome{}, err
		}
		ids := ints(in.IDs)
		if len(ids) == 0 {
			return llm.ToolOutcome{Content: "Error: candidate_ids is empty", IsError: true}, nil
		}
		return c.stage(ctx, store.NewBulkUpdateAction(ids, in.Field, in.Value))
	})

	r.register(llm.ToolDef{
		Name:        "bulk_delete_candidates",
		Description: "Prepare deletion of many candidates. The user must confirm.",
		Parameters:  object(props{"candidate_ids": intArray("Candidate ids.")}, "candidate_ids"),
	}, func(ctx context.Context, c *call, args json.RawMessage) (llm.ToolOutcome, error) {
		var in struct {
			IDs []FlexInt `json:"candidate_ids"`
		}
		if err := decode(args, &in); err != nil {
			return llm.ToolOutcome{}, err
		}
		ids := ints(in.IDs)
		if len(ids) == 0 {
			return llm.ToolOutcome{Content: "Error: candidate_ids is empty", IsError: true}, nil
		}
		return c.stage(ctx, store.NewBulkDeleteAction(ids))
	})
}
