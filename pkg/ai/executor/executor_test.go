package executor

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"hr-assistant-be/internal/pkg/logger"
	"hr-assistant-be/pkg/ai/router"
	"hr-assistant-be/pkg/recordclient"
	"hr-assistant-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRecords struct {
	Records
	listOpts recordclient.ListOptions
}

func (s *stubRecords) GetCandidate(_ context.Context, _ string, id int) (*recordclient.Candidate, error) {
	if id == 42 {
		return &recordclient.Candidate{ID: 42, FirstName: "Ada", LastName: "Lovelace"}, nil
	}
	return nil, &recordclient.APIError{StatusCode: http.StatusNotFound}
}

func (s *stubRecords) ListCandidates(_ context.Context, _ string, opts recordclient.ListOptions) (*recordclient.Page[recordclient.Candidate], error) {
	s.listOpts = opts
	return &recordclient.Page[recordclient.Candidate]{Count: 1, Results: []recordclient.Candidate{{ID: 1, FirstName: "Bo"}}}, nil
}

func (s *stubRecords) SearchCandidates(context.Context, string, string) (*recordclient.Page[recordclient.Candidate], error) {
	return &recordclient.Page[recordclient.Candidate]{}, nil
}

func (s *stubRecords) OverallMetrics(context.Context, string) (map[string]interface{}, error) {
	return map[string]interface{}{"total_candidates": float64(12)}, nil
}

type recordingProposer struct {
	actions []*store.PendingAction
}

func (p *recordingProposer) Propose(_ context.Context, _, _ string, a *store.PendingAction) (string, error) {
	p.actions = append(p.actions, a)
	return "staged " + string(a.Kind), nil
}

type memSessions struct {
	mu sync.Mutex
	s  map[string]*store.Session
}

func (m *memSessions) WithSession(id string, fn func(*store.Session) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s == nil {
		m.s = make(map[string]*store.Session)
	}
	if m.s[id] == nil {
		m.s[id] = store.NewSession(id, store.DefaultLimits(), time.Now())
	}
	return fn(m.s[id])
}

func newTestExecutor() (*Executor, *stubRecords, *recordingProposer, *memSessions) {
	records := &stubRecords{}
	proposer := &recordingProposer{}
	sessions := &memSessions{}
	return NewExecutor(records, proposer, sessions, Config{PageSize: 10}, logger.NewNopLogger()), records, proposer, sessions
}

func TestMutatingIntentsAreProposed(t *testing.T) {
	e, _, proposer, _ := newTestExecutor()
	ctx := context.Background()

	_, err := e.Execute(ctx, "s1", "tok", &router.Intent{Name: router.IntentDelete, CandidateID: 42})
	require.NoError(t, err)
	_, err = e.Execute(ctx, "s1", "tok", &router.Intent{Name: router.IntentUpdateStage, CandidateID: 5, Field: store.FieldCandidateStage, Value: "Hired"})
	require.NoError(t, err)
	_, err = e.Execute(ctx, "s1", "tok", &router.Intent{Name: router.IntentBulkDelete, IDs: []int{1, 2}})
	require.NoError(t, err)

	require.Len(t, proposer.actions, 3)
	assert.Equal(t, store.ActionDelete, proposer.actions[0].Kind)
	assert.Equal(t, "Hired", proposer.actions[1].Value)
	assert.Equal(t, []int{1, 2}, proposer.actions[2].IDs)
}

func TestBulkImportUsesLatestSpreadsheet(t *testing.T) {
	e, _, proposer, sessions := newTestExecutor()
	ctx := context.Background()

	text, err := e.Execute(ctx, "s1", "tok", &router.Intent{Name: router.IntentBulkImport})
	require.NoError(t, err)
	assert.Equal(t, MsgNoStructuredFile, text)
	assert.Empty(t, proposer.actions)

	_ = sessions.WithSession("s1", func(s *store.Session) error {
		s.AddFile(&store.FileContext{ID: "old", Rows: []store.Row{{"email": "a@example.com"}}})
		s.AddFile(&store.FileContext{ID: "new", Rows: []store.Row{{"email": "b@example.com"}, {"email": "c@example.com"}}})
		s.AddFile(&store.FileContext{ID: "resume", Fields: map[string]string{"first_name": "Jane"}})
		return nil
	})

	text, err = e.Execute(ctx, "s1", "tok", &router.Intent{Name: router.IntentBulkImport})
	require.NoError(t, err)
	assert.Equal(t, "staged BULK_CREATE", text)
	require.Len(t, proposer.actions, 1)
	assert.Equal(t, "new", proposer.actions[0].FileID)
	assert.Len(t, proposer.actions[0].Rows, 2)

	_, err = e.Execute(ctx, "s1", "tok", &router.Intent{Name: router.IntentAddFromFile})
	require.NoError(t, err)
	require.Len(t, proposer.actions, 2)
	assert.Equal(t, "Jane", proposer.actions[1].Draft.FirstName)
}

func TestReadIntents(t *testing.T) {
	e, records, _, _ := newTestExecutor()
	ctx := context.Background()

	text, err := e.Execute(ctx, "s1", "tok", &router.Intent{Name: router.IntentGetByID, CandidateID: 7})
	require.NoError(t, err)
	assert.Equal(t, "No candidate found with ID 7.", text)

	text, err = e.Execute(ctx, "s1", "tok", &router.Intent{Name: router.IntentGetByID, CandidateID: 42})
	require.NoError(t, err)
	assert.Contains(t, text, "Ada Lovelace")

	_, err = e.Execute(ctx, "s1", "tok", &router.Intent{Name: router.IntentListCandidate, Page: 2, Stage: "Interview"})
	require.NoError(t, err)
	assert.Equal(t, 2, records.listOpts.Page)
	assert.Equal(t, 10, records.listOpts.PageSize)
	assert.Equal(t, map[string]string{store.FieldCandidateStage: "Interview"}, records.listOpts.Filters)

	text, err = e.Execute(ctx, "s1", "tok", &router.Intent{Name: router.IntentFindByContact, Query: "zed"})
	require.NoError(t, err)
	assert.Equal(t, `No candidates match "zed".`, text)

	text, err = e.Execute(ctx, "s1", "tok", &router.Intent{Name: router.IntentAnalytics, Metric: router.MetricOverall})
	require.NoError(t, err)
	assert.Contains(t, text, "Total Candidates: 12")
}
