package bulk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"

	"hr-assistant-be/internal/pkg/logger"
	"hr-assistant-be/pkg/ai/cancel"
	"hr-assistant-be/pkg/recordclient"
	"hr-assistant-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecords struct {
	mu        sync.Mutex
	deleted   []int
	patched   map[int]map[string]interface{}
	created   []recordclient.CandidateInput
	lookups   map[string]int
	lookupHit int
	missing   map[int]bool
	dupEmails map[string]bool
	onDelete  func(id int)
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{
		patched:   make(map[int]map[string]interface{}),
		lookups:   make(map[string]int),
		missing:   make(map[int]bool),
		dupEmails: make(map[string]bool),
	}
}

func (f *fakeRecords) DeleteCandidate(ctx context.Context, token string, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onDelete != nil {
		f.onDelete(id)
	}
	if f.missing[id] {
		return &recordclient.APIError{StatusCode: http.StatusNotFound, Detail: "Not found."}
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRecords) PatchCandidate(ctx context.Context, token string, id int, fields map[string]interface{}) (*recordclient.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missing[id] {
		return nil, &recordclient.APIError{StatusCode: http.StatusNotFound, Detail: "Not found."}
	}
	f.patched[id] = fields
	return &recordclient.Candidate{ID: id}, nil
}

func (f *fakeRecords) CreateCandidate(ctx context.Context, token string, in recordclient.CandidateInput) (*recordclient.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dupEmails[in.Email] {
		return nil, &recordclient.APIError{StatusCode: http.StatusConflict, Detail: "candidate with this email already exists."}
	}
	if !strings.Contains(in.Email, "@") {
		return nil, &recordclient.APIError{StatusCode: http.StatusBadRequest, Detail: "email: Enter a valid email address."}
	}
	f.created = append(f.created, in)
	return &recordclient.Candidate{ID: len(f.created)}, nil
}

func (f *fakeRecords) BuildPatch(ctx context.Context, token, field, value string) (map[string]interface{}, error) {
	if field == "bogus" {
		return nil, fmt.Errorf("unknown field %q", field)
	}
	return map[string]interface{}{field: value}, nil
}

func (f *fakeRecords) GetOrCreateLookup(ctx context.Context, token string, kind store.LookupKind, name string) (*recordclient.Lookup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookupHit++
	key := string(kind) + ":" + strings.ToLower(name)
	id, ok := f.lookups[key]
	if !ok {
		id = len(f.lookups) + 100
		f.lookups[key] = id
	}
	return &recordclient.Lookup{ID: id, Name: name}, nil
}

func newTestProcessor(r Records, c *cancel.Controller) *Processor {
	return NewProcessor(r, c, nil, Config{}, logger.NewNopLogger())
}

func assertPartition(t *testing.T, s *Summary) {
	t.Helper()
	assert.Equal(t, s.Total, s.Succeeded+s.Skipped+len(s.Failed))
	assert.Equal(t, s.Total, s.Processed)
}

func TestBulkDeleteContinuesPastFailures(t *testing.T) {
	recs := newFakeRecords()
	recs.missing[3] = true
	p := newTestProcessor(recs, cancel.NewController())

	s, err := p.Run(context.Background(), Job{SessionID: "s", Operation: store.ActionBulkDelete, IDs: []int{1, 2, 3, 4}})
	require.NoError(t, err)

	assertPartition(t, s)
	assert.Equal(t, 3, s.Succeeded)
	require.Len(t, s.Failed, 1)
	assert.Equal(t, 3, s.Failed[0].ID)
	assert.Equal(t, "candidate 3 not found", s.Failed[0].Reason)
	assert.Equal(t, []int{1, 2, 4}, recs.deleted)
}

func TestBulkUpdateAppliesSamePatch(t *testing.T) {
	recs := newFakeRecords()
	p := newTestProcessor(recs, cancel.NewController())

	s, err := p.Run(context.Background(), Job{SessionID: "s", Operation: store.ActionBulkUpdate, IDs: []int{7, 8}, Field: "candidate_stage", Value: "Interview"})
	require.NoError(t, err)

	assertPartition(t, s)
	assert.Equal(t, 2, s.Succeeded)
	assert.Equal(t, "Interview", recs.patched[8]["candidate_stage"])
}

func TestBulkUpdateInvalidPatchFailsEveryItem(t *testing.T) {
	p := newTestProcessor(newFakeRecords(), cancel.NewController())

	s, err := p.Run(context.Background(), Job{SessionID: "s", Operation: store.ActionBulkUpdate, IDs: []int{1, 2, 3}, Field: "bogus", Value: "x"})
	require.NoError(t, err)

	assertPartition(t, s)
	assert.Len(t, s.Failed, 3)
	assert.Contains(t, s.Failed[0].Reason, "unknown field")
}

func TestBulkCreateSeparatesDuplicatesFromFailures(t *testing.T) {
	recs := newFakeRecords()
	recs.dupEmails["dup@example.com"] = true
	p := newTestProcessor(recs, cancel.NewController())

	rows := []store.Row{
		{"first_name": "Ada", "last_name": "Lovelace", "email": "ada@example.com", "city": "London", "expected_salary": "85,000"},
		{"first_name": "Dup", "last_name": "Licate", "email": "dup@example.com"},
		{"first_name": "No", "last_name": "Email"},
		{"first_name": "Bad", "last_name": "Mail", "email": "not-an-email", "city": "london"},
		{"first_name": "Alan", "last_name": "Turing", "email": "alan@example.com", "city": "London", "job_title": "n/a"},
	}
	s, err := p.Run(context.Background(), Job{SessionID: "s", Operation: store.ActionBulkCreate, Rows: rows})
	require.NoError(t, err)

	assertPartition(t, s)
	assert.Equal(t, 2, s.Succeeded)
	assert.Equal(t, 1, s.Skipped)
	require.Len(t, s.Failed, 2)
	assert.Equal(t, 3, s.Failed[0].Row)
	assert.Contains(t, s.Failed[0].Reason, "missing required fields")
	assert.Equal(t, 4, s.Failed[1].Row)
	assert.Equal(t, "email: Enter a valid email address.", s.Failed[1].Reason)
	require.Len(t, s.FailedRows, 2)
	assert.Equal(t, "not-an-email", s.FailedRows[1].Row["email"])

	require.Len(t, recs.created, 2)
	first := recs.created[0]
	require.NotNil(t, first.ExpectedSalary)
	assert.Equal(t, 85000.0, *first.ExpectedSalary)
	require.NotNil(t, first.JobTitle)
	require.NotNil(t, first.CommunicationSkills)
	assert.Equal(t, *first.City, *recs.created[1].City)
	// city, default job title and default skill resolved once each for the batch.
	assert.Equal(t, 3, recs.lookupHit)
}

func TestBulkRunStopsOnCancellation(t *testing.T) {
	recs := newFakeRecords()
	c := cancel.NewController()
	recs.onDelete = func(id int) {
		if id == 2 {
			c.RequestCancel("s")
		}
	}
	p := newTestProcessor(recs, c)

	s, err := p.Run(context.Background(), Job{SessionID: "s", Operation: store.ActionBulkDelete, IDs: []int{1, 2, 3, 4, 5}})
	require.NoError(t, err)

	assert.True(t, s.Cancelled)
	assert.Equal(t, 2, s.Processed)
	assert.Zero(t, s.Succeeded)
	assert.Empty(t, s.Failed)
	assert.Equal(t, []int{1, 2}, recs.deleted)
	assert.False(t, c.IsRunning("s"))
}

func TestBulkRunRejectsBusySession(t *testing.T) {
	c := cancel.NewController()
	_, err := c.Register("s", "model call")
	require.NoError(t, err)

	_, err = newTestProcessor(newFakeRecords(), c).Run(context.Background(), Job{SessionID: "s", Operation: store.ActionBulkDelete, IDs: []int{1}})
	assert.True(t, errors.Is(err, cancel.ErrTaskRunning))
}

func TestBulkRunRejectsUnknownOperation(t *testing.T) {
	_, err := newTestProcessor(newFakeRecords(), cancel.NewController()).Run(context.Background(), Job{SessionID: "s", Operation: store.ActionDelete})
	assert.Error(t, err)
}
