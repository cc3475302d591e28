package executor

import (
	"context"
	"fmt"

	"hr-assistant-be/internal/pkg/logger"
	"hr-assistant-be/pkg/ai/response"
	"hr-assistant-be/pkg/ai/router"
	"hr-assistant-be/pkg/recordclient"
	"hr-assistant-be/pkg/store"
)

const moduleName = "EXECUTOR"

const (
	MsgNoStructuredFile   = "I couldn't find an uploaded spreadsheet in this conversation. Please upload a CSV or Excel file first."
	MsgNoUnstructuredFile = "I couldn't find an uploaded resume in this conversation. Please upload a PDF, DOCX or TXT file first."
)

// Records is the read side of the record service used for structured
// intents.
type Records interface {
	GetCandidate(ctx context.Context, token string, id int) (*recordclient.Candidate, error)
	ListCandidates(ctx context.Context, token string, opts recordclient.ListOptions) (*recordclient.Page[recordclient.Candidate], error)
	SearchCandidates(ctx context.Context, token, query string) (*recordclient.Page[recordclient.Candidate], error)
	CandidateMetrics(ctx context.Context, token string) (map[string]interface{}, error)
	OverallMetrics(ctx context.Context, token string) (map[string]interface{}, error)
	RecentActivities(ctx context.Context, token string, limit int) ([]map[string]interface{}, error)
	ListNotes(ctx context.Context, token string, candidateID int) ([]recordclient.Note, error)
	ListJobPosts(ctx context.Context, token string, opts recordclient.ListOptions) (*recordclient.Page[recordclient.JobPost], error)
	ListUnreadNotifications(ctx context.Context, token string) ([]recordclient.Notification, error)
	ListRecentNotifications(ctx context.Context, token string, limit int) ([]recordclient.Notification, error)
}

type Proposer interface {
	Propose(ctx context.Context, sessionID, token string, action *store.PendingAction) (string, error)
}

type Sessions interface {
	WithSession(id string, fn func(*store.Session) error) error
}

type Config struct {
	PageSize      int
	ActivityLimit int
}

// Executor runs structured intents: reads go straight to the record
// service, mutations are handed to the proposer for confirmation.
type Executor struct {
	records  Records
	proposer Proposer
	sessions Sessions
	cfg      Config
	logger   logger.ILogger
}

func NewExecutor(records Records, proposer Proposer, sessions Sessions, cfg Config, log logger.ILogger) *Executor {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	if cfg.ActivityLimit <= 0 {
		cfg.ActivityLimit = 10
	}
	return &Executor{
		records:  records,
		proposer: proposer,
		sessions: sessions,
		cfg:      cfg,
		logger:   log,
	}
}

// Execute returns the reply for in. Errors are record-service or session
// failures the caller turns into a message.
func (e *Executor) Execute(ctx context.Context, sessionID, token string, in *router.Intent) (string, error) {
	e.logger.Debug(moduleName, "Executing intent", map[string]interface{}{
		"intent":     string(in.Name),
		"session_id": sessionID,
	})

	switch in.Name {
	case router.IntentDelete:
		return e.proposer.Propose(ctx, sessionID, token, store.NewDeleteAction(in.CandidateID))
	case router.IntentUpdateStage, router.IntentUpdateField:
		return e.proposer.Propose(ctx, sessionID, token, store.NewUpdateAction(in.CandidateID, in.Field, in.Value))
	case router.IntentBulkDelete:
		return e.proposer.Propose(ctx, sessionID, token, store.NewBulkDeleteAction(in.IDs))
	case router.IntentBulkUpdate:
		return e.proposer.Propose(ctx, sessionID, token, store.NewBulkUpdateAction(in.IDs, in.Field, in.Value))
	case router.IntentAddCandidate:
		return e.proposer.Propose(ctx, sessionID, token, store.NewAddCandidateAction(in.Draft))
	case router.IntentBulkImport:
		return e.bulkImport(ctx, sessionID, token)
	case router.IntentAddFromFile:
		return e.addFromFile(ctx, sessionID, token)

	case router.IntentGetByID:
		c, err := e.records.GetCandidate(ctx, token, in.CandidateID)
		if recordclient.IsNotFound(err) {
			return fmt.Sprintf("No candidate found with ID %d.", in.CandidateID), nil
		}
		if err != nil {
			return "", err
		}
		return response.Candidate(c), nil

	case router.IntentFindByContact:
		page, err := e.records.SearchCandidates(ctx, token, in.Query)
		if err != nil {
			return "", err
		}
		if len(page.Results) == 0 {
			return fmt.Sprintf("No candidates match %q.", in.Query), nil
		}
		return response.CandidatePage(page, 1), nil

	case router.IntentListCandidate:
		opts := recordclient.ListOptions{Page: max(in.Page, 1), PageSize: e.cfg.PageSize}
		if in.Stage != "" {
			opts.Filters = map[string]string{store.FieldCandidateStage: in.Stage}
		}
		page, err := e.records.ListCandidates(ctx, token, opts)
		if err != nil {
			return "", err
		}
		return response.CandidatePage(page, opts.Page), nil

	case router.IntentListNotes:
		notes, err := e.records.ListNotes(ctx, token, in.CandidateID)
		if err != nil {
			return "", err
		}
		return response.Notes(in.CandidateID, notes), nil

	case router.IntentListJobPosts:
		page, err := e.records.ListJobPosts(ctx, token, recordclient.ListOptions{Page: max(in.Page, 1)})
		if err != nil {
			return "", err
		}
		return response.JobPosts(page.Results), nil

	case router.IntentNotifications:
		if in.Unread {
			items, err := e.records.ListUnreadNotifications(ctx, token)
			if err != nil {
				return "", err
			}
			return response.Notifications(items), nil
		}
		items, err := e.records.ListRecentNotifications(ctx, token, e.cfg.ActivityLimit)
		if err != nil {
			return "", err
		}
		return response.RecentNotifications(items), nil

	case router.IntentAnalytics:
		return e.analytics(ctx, token, in.Metric)
	}
	return "", fmt.Errorf("unsupported intent %q", in.Name)
}

func (e *Executor) analytics(ctx context.Context, token string, metric router.Metric) (string, error) {
	switch metric {
	case router.MetricActivity:
		items, err := e.records.RecentActivities(ctx, token, e.cfg.ActivityLimit)
		if err != nil {
			return "", err
		}
		return response.Activities(items), nil
	case router.MetricOverall:
		m, err := e.records.OverallMetrics(ctx, token)
		if err != nil {
			return "", err
		}
		return response.Metrics("Overall metrics", m), nil
	default:
		m, err := e.records.CandidateMetrics(ctx, token)
		if err != nil {
			return "", err
		}
		return response.Metrics("Candidate metrics", m), nil
	}
}

// latestFile copies the newest matching file context out of the session.
func (e *Executor) latestFile(sessionID string, structured bool) (*store.FileContext, error) {
	var out *store.FileContext
	err := e.sessions.WithSession(sessionID, func(s *store.Session) error {
		if f := s.LatestFile(structured); f != nil {
			cp := *f
			out = &cp
		}
		return nil
	})
	return out, err
}

func (e *Executor) bulkImport(ctx context.Context, sessionID, token string) (string, error) {
	f, err := e.latestFile(sessionID, true)
	if err != nil {
		return "", err
	}
	if f == nil {
		return MsgNoStructuredFile, nil
	}
	rows := make([]store.Row, len(f.Rows))
	for i, r := range f.Rows {
		rows[i] = r.Clone()
	}
	return e.proposer.Propose(ctx, sessionID, token, store.NewBulkCreateAction(f.ID, rows))
}

func (e *Executor) addFromFile(ctx context.Context, sessionID, token string) (string, error) {
	f, err := e.latestFile(sessionID, false)
	if err != nil {
		return "", err
	}
	if f == nil {
		return MsgNoUnstructuredFile, nil
	}
	draft := store.DraftFromRow(store.Row(f.Fields))
	return e.proposer.Propose(ctx, sessionID, token, store.NewAddCandidateAction(draft))
}
