package confirm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hr-assistant-be/internal/pkg/logger"
	"hr-assistant-be/pkg/ai/activity"
	"hr-assistant-be/pkg/ai/bulk"
	"hr-assistant-be/pkg/ai/cancel"
	"hr-assistant-be/pkg/ai/response"
	"hr-assistant-be/pkg/recordclient"
	"hr-assistant-be/pkg/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const moduleName = "CONFIRM"

const (
	MsgPendingExists = "You already have an action waiting for confirmation. Please reply **yes** to confirm or **no** to cancel it first."
	MsgCancelled     = "Action cancelled. Nothing was changed."
	MsgBusy          = "Another task is still running for this session. Your pending action is kept; reply **yes** again once it finishes, or **no** to cancel."
	MsgInternal      = "Something went wrong while handling your confirmation. Nothing was changed."
)

var confirmationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "hr_confirmations_total",
	Help: "Confirmation state machine transitions by action and outcome.",
}, []string{"action", "outcome"})

// Sessions gives serialized access to one session.
type Sessions interface {
	WithSession(id string, fn func(*store.Session) error) error
}

// Records is the part of the record client the machine needs.
type Records interface {
	GetCandidate(ctx context.Context, token string, id int) (*recordclient.Candidate, error)
	DeleteCandidate(ctx context.Context, token string, id int) error
	PatchCandidate(ctx context.Context, token string, id int, fields map[string]interface{}) (*recordclient.Candidate, error)
	BuildPatch(ctx context.Context, token, field, value string) (map[string]interface{}, error)
	CreateCandidate(ctx context.Context, token string, in recordclient.CandidateInput) (*recordclient.Candidate, error)
	FindLookup(ctx context.Context, token string, kind store.LookupKind, name string) (*recordclient.Lookup, bool, error)
	GetOrCreateLookup(ctx context.Context, token string, kind store.LookupKind, name string) (*recordclient.Lookup, error)
}

type BulkRunner interface {
	Run(ctx context.Context, job bulk.Job) (*bulk.Summary, error)
}

type Config struct {
	// BulkThreshold is exclusive: batches larger than it need two confirmations.
	BulkThreshold int
	PreviewSize   int
}

type State string

const (
	StateAwaiting       State = "awaiting_confirmation"
	StateAwaitingSecond State = "awaiting_second_confirmation"
	StateApplied        State = "applied"
	StateCancelled      State = "cancelled"
	StateFailed         State = "failed"
	StateBusy           State = "busy"
)

// Outcome of Handle. Handled is false when the session had nothing pending,
// in which case the message should be routed normally.
type Outcome struct {
	Handled bool
	State   State
	Text    string
	Summary *bulk.Summary
}

type Machine struct {
	sessions Sessions
	records  Records
	bulk     BulkRunner
	events   *activity.Publisher
	cfg      Config
	logger   logger.ILogger
}

func NewMachine(sessions Sessions, records Records, runner BulkRunner, events *activity.Publisher, cfg Config, log logger.ILogger) *Machine {
	if cfg.BulkThreshold <= 0 {
		cfg.BulkThreshold = 10
	}
	if cfg.PreviewSize <= 0 {
		cfg.PreviewSize = 5
	}
	return &Machine{
		sessions: sessions,
		records:  records,
		bulk:     runner,
		events:   events,
		cfg:      cfg,
		logger:   log,
	}
}

func (m *Machine) count(a *store.PendingAction, outcome string) {
	confirmationsTotal.WithLabelValues(string(a.Kind), outcome).Inc()
}

func (m *Machine) needsSecondGate(a *store.PendingAction) bool {
	return a.IsBulk() && a.ItemCount() > m.cfg.BulkThreshold
}

// Propose renders a preview for action and stages it on the session. When
// the preview shows the action cannot apply (e.g. the candidate does not
// exist) the explanation is returned and nothing is staged.
func (m *Machine) Propose(ctx context.Context, sessionID, token string, action *store.PendingAction) (string, error) {
	preview, stage, err := m.preview(ctx, token, action)
	if err != nil {
		return "", err
	}
	if !stage {
		return preview, nil
	}
	action.Preview = preview

	err = m.sessions.WithSession(sessionID, func(s *store.Session) error {
		return s.SetPending(action)
	})
	if errors.Is(err, store.ErrPendingExists) {
		return MsgPendingExists, nil
	}
	if err != nil {
		return "", err
	}

	m.count(action, "proposed")
	m.logger.Info(moduleName, "Action staged", map[string]interface{}{
		"session_id": sessionID,
		"kind":       string(action.Kind),
		"items":      action.ItemCount(),
	})
	return m.prompt(action), nil
}

func (m *Machine) prompt(a *store.PendingAction) string {
	var b strings.Builder
	b.WriteString(a.Preview)
	if m.needsSecondGate(a) {
		fmt.Fprintf(&b, "\nThis affects %d records, so I will ask you to confirm twice.\n", a.ItemCount())
	}
	b.WriteString("\n")
	b.WriteString(choices(a))
	return b.String()
}

func choices(a *store.PendingAction) string {
	if a.Kind == store.ActionAddCandidate {
		return "Reply **yes** to add this candidate, **update <field> <value>** to change a field, or **no** to cancel."
	}
	return "Reply **yes** to confirm or **no** to cancel."
}

func (m *Machine) amplified(a *store.PendingAction) string {
	verb := "change"
	switch a.Kind {
	case store.ActionBulkDelete:
		verb = "permanently delete"
	case store.ActionBulkUpdate:
		verb = "update"
	case store.ActionBulkCreate:
		verb = "create"
	}
	return fmt.Sprintf("**WARNING:** this will %s **%d** candidate records and cannot be undone.\n"+
		"Reply **yes** once more to proceed, or **no** to cancel.", verb, a.ItemCount())
}

// Handle consumes a reply while an action is pending.
func (m *Machine) Handle(ctx context.Context, sessionID, token, text string) Outcome {
	var out Outcome
	var toApply *store.PendingAction

	err := m.sessions.WithSession(sessionID, func(s *store.Session) error {
		a := s.Pending
		if a == nil {
			return nil
		}
		out.Handled = true

		reply, field, value := ClassifyReply(text)
		switch reply {
		case ReplyNegative:
			s.ClearPending()
			m.count(a, "cancelled")
			out.State, out.Text = StateCancelled, MsgCancelled

		case ReplyAffirmative:
			if m.needsSecondGate(a) && !a.Acknowledged {
				a.Acknowledged = true
				m.count(a, "acknowledged")
				out.State, out.Text = StateAwaitingSecond, m.amplified(a)
				return nil
			}
			if a.Kind == store.ActionAddCandidate {
				if missing := a.Draft.Missing(); len(missing) > 0 {
					out.State = StateAwaiting
					out.Text = fmt.Sprintf("I still need %s before I can add this candidate. Use **update <field> <value>** to fill them in.",
						strings.Join(missing, ", "))
					return nil
				}
			}
			toApply = s.ClearPending()

		case ReplyEdit:
			if a.Kind != store.ActionAddCandidate {
				out.State, out.Text = m.reprompt(a)
				return nil
			}
			if err := m.editDraft(ctx, token, a.Draft, field, value); err != nil {
				out.State = StateAwaiting
				out.Text = fmt.Sprintf("I couldn't update that field: %s.\n\n%s", err.Error(), m.prompt(a))
				return nil
			}
			a.Preview = draftPreview(a.Draft)
			m.count(a, "edited")
			out.State = StateAwaiting
			out.Text = fmt.Sprintf("Updated **%s**.\n\n%s", field, m.prompt(a))

		default:
			out.State, out.Text = m.reprompt(a)
		}
		return nil
	})
	if err != nil {
		m.logger.Error(moduleName, "Session access failed", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return Outcome{Handled: true, State: StateFailed, Text: MsgInternal}
	}
	if toApply == nil {
		return out
	}
	return m.apply(ctx, sessionID, token, toApply)
}

func (m *Machine) reprompt(a *store.PendingAction) (State, string) {
	if a.Acknowledged {
		return StateAwaitingSecond, "I need a clear answer before continuing.\n\n" + m.amplified(a)
	}
	return StateAwaiting, "I need a clear answer before continuing.\n\n" + m.prompt(a)
}

func (m *Machine) apply(ctx context.Context, sessionID, token string, a *store.PendingAction) Outcome {
	switch a.Kind {
	case store.ActionDelete:
		if err := m.records.DeleteCandidate(ctx, token, a.CandidateID); err != nil {
			return m.failure(a, err)
		}
		m.events.CandidateDeleted(ctx, sessionID, a.CandidateID)
		return m.applied(a, fmt.Sprintf("Candidate %d has been deleted.", a.CandidateID))

	case store.ActionUpdate:
		patch, err := m.records.BuildPatch(ctx, token, a.Field, a.Value)
		if err != nil {
			return m.failure(a, err)
		}
		if _, err := m.records.PatchCandidate(ctx, token, a.CandidateID, patch); err != nil {
			return m.failure(a, err)
		}
		m.events.CandidateUpdated(ctx, sessionID, a.CandidateID, a.Field, a.Value)
		return m.applied(a, fmt.Sprintf("Candidate %d %s updated to %s.", a.CandidateID, a.Field, a.Value))

	case store.ActionAddCandidate:
		if err := m.resolveLookups(ctx, token, a.Draft, true); err != nil {
			return m.failure(a, err)
		}
		created, err := m.records.CreateCandidate(ctx, token, recordclient.InputFromDraft(a.Draft))
		if err != nil {
			return m.failure(a, err)
		}
		m.events.CandidateCreated(ctx, sessionID, created.ID, created.FullName())
		return m.applied(a, fmt.Sprintf("Candidate **%s** was added with ID %d.", created.FullName(), created.ID))

	case store.ActionBulkDelete, store.ActionBulkUpdate, store.ActionBulkCreate:
		summary, err := m.bulk.Run(ctx, bulk.JobFromAction(sessionID, token, a))
		if errors.Is(err, cancel.ErrTaskRunning) {
			// Not an apply failure: put the action back untouched.
			_ = m.sessions.WithSession(sessionID, func(s *store.Session) error {
				return s.SetPending(a)
			})
			m.count(a, "busy")
			return Outcome{Handled: true, State: StateBusy, Text: MsgBusy}
		}
		if err != nil {
			return m.failure(a, err)
		}
		if len(summary.FailedRows) > 0 {
			_ = m.sessions.WithSession(sessionID, func(s *store.Session) error {
				s.AppendFailedRows(summary.FailedRows...)
				return nil
			})
		}
		out := m.applied(a, response.BulkSummary(summary))
		out.Summary = summary
		if summary.Cancelled {
			out.State = StateCancelled
		}
		return out
	}
	return m.failure(a, fmt.Errorf("unsupported action %q", a.Kind))
}

func (m *Machine) applied(a *store.PendingAction, text string) Outcome {
	m.count(a, "applied")
	return Outcome{Handled: true, State: StateApplied, Text: text}
}

// failure reports the cause; the pending action is already cleared and is
// not retried.
func (m *Machine) failure(a *store.PendingAction, err error) Outcome {
	m.count(a, "failed")
	m.logger.Warn(moduleName, "Confirmed action failed", map[string]interface{}{
		"kind":  string(a.Kind),
		"error": err.Error(),
	})

	var reason string
	switch {
	case recordclient.IsNotFound(err) && a.CandidateID != 0:
		reason = fmt.Sprintf("candidate %d no longer exists", a.CandidateID)
	case recordclient.IsConflict(err):
		reason = "a candidate with these details already exists"
	default:
		reason = recordclient.Reason(err)
	}
	return Outcome{
		Handled: true,
		State:   StateFailed,
		Text:    fmt.Sprintf("I couldn't complete that action: %s. Please send the request again if you want to retry.", reason),
	}
}
