package bulk

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hr-assistant-be/internal/pkg/logger"
	"hr-assistant-be/pkg/ai/activity"
	"hr-assistant-be/pkg/ai/cancel"
	"hr-assistant-be/pkg/recordclient"
	"hr-assistant-be/pkg/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

const moduleName = "BULK"

const (
	defaultJobTitle           = "General"
	defaultCommunicationSkill = "Good"
)

var itemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "hr_bulk_items_total",
	Help: "Bulk operation items by outcome.",
}, []string{"operation", "outcome"})

// Records is the part of the record client the processor drives.
type Records interface {
	DeleteCandidate(ctx context.Context, token string, id int) error
	PatchCandidate(ctx context.Context, token string, id int, fields map[string]interface{}) (*recordclient.Candidate, error)
	CreateCandidate(ctx context.Context, token string, in recordclient.CandidateInput) (*recordclient.Candidate, error)
	BuildPatch(ctx context.Context, token, field, value string) (map[string]interface{}, error)
	GetOrCreateLookup(ctx context.Context, token string, kind store.LookupKind, name string) (*recordclient.Lookup, error)
}

type Config struct {
	RatePerSecond float64
	Burst         int
}

// Job is a confirmed bulk action.
type Job struct {
	SessionID string
	Token     string
	Operation store.ActionKind
	IDs       []int
	Field     string
	Value     string
	Rows      []store.Row
}

func JobFromAction(sessionID, token string, a *store.PendingAction) Job {
	return Job{
		SessionID: sessionID,
		Token:     token,
		Operation: a.Kind,
		IDs:       a.IDs,
		Field:     a.Field,
		Value:     a.Value,
		Rows:      a.Rows,
	}
}

func (j Job) total() int {
	if j.Operation == store.ActionBulkCreate {
		return len(j.Rows)
	}
	return len(j.IDs)
}

// ItemFailure explains why one id or row was not applied. Row is 1-based.
type ItemFailure struct {
	ID     int    `json:"id,omitempty"`
	Row    int    `json:"row,omitempty"`
	Label  string `json:"label,omitempty"`
	Reason string `json:"reason"`
}

// Summary partitions the input: Succeeded + Skipped + len(Failed) == Total,
// unless Cancelled, in which case only Processed is meaningful.
type Summary struct {
	Operation  store.ActionKind  `json:"operation"`
	Total      int               `json:"total"`
	Succeeded  int               `json:"succeeded"`
	Skipped    int               `json:"skipped"`
	Failed     []ItemFailure     `json:"failed"`
	Cancelled  bool              `json:"cancelled"`
	Processed  int               `json:"processed"`
	FailedRows []store.FailedRow `json:"-"`
}

type Processor struct {
	records Records
	cancels *cancel.Controller
	events  *activity.Publisher
	cfg     Config
	logger  logger.ILogger
}

func NewProcessor(records Records, cancels *cancel.Controller, events *activity.Publisher, cfg Config, log logger.ILogger) *Processor {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &Processor{
		records: records,
		cancels: cancels,
		events:  events,
		cfg:     cfg,
		logger:  log,
	}
}

func (p *Processor) limiter() *rate.Limiter {
	if p.cfg.RatePerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, p.cfg.Burst)
	}
	return rate.NewLimiter(rate.Limit(p.cfg.RatePerSecond), p.cfg.Burst)
}

// Run executes the job one record call per item, continuing past failures.
// It fails fast with cancel.ErrTaskRunning when the session is busy.
func (p *Processor) Run(ctx context.Context, job Job) (*Summary, error) {
	total := job.total()
	switch job.Operation {
	case store.ActionBulkDelete, store.ActionBulkUpdate, store.ActionBulkCreate:
	default:
		return nil, fmt.Errorf("unsupported bulk operation %q", job.Operation)
	}

	desc := fmt.Sprintf("%s of %d item(s)", strings.ToLower(strings.ReplaceAll(string(job.Operation), "_", " ")), total)
	handle, err := p.cancels.Register(job.SessionID, desc)
	if err != nil {
		return nil, err
	}
	defer p.cancels.Finish(handle)
	p.events.TaskStarted(ctx, job.SessionID, handle.ID, desc)

	start := time.Now()
	run := &runner{
		p:       p,
		job:     job,
		handle:  handle,
		limiter: p.limiter(),
		summary: &Summary{Operation: job.Operation, Total: total},
	}

	switch job.Operation {
	case store.ActionBulkDelete:
		run.deleteAll(ctx)
	case store.ActionBulkUpdate:
		run.updateAll(ctx)
	case store.ActionBulkCreate:
		run.createAll(ctx)
	}

	s := run.summary
	if s.Cancelled {
		s.Succeeded, s.Skipped, s.Failed = 0, 0, nil
		p.events.TaskCancelled(ctx, job.SessionID, handle.ID)
	}
	p.events.TaskFinished(ctx, job.SessionID, handle.ID, s.Cancelled)
	p.events.BulkCompleted(ctx, job.SessionID, string(job.Operation), s.Total, s.Succeeded, s.Skipped, len(s.Failed), s.Cancelled)

	p.logger.Info(moduleName, "Bulk operation finished", map[string]interface{}{
		"operation":   string(job.Operation),
		"total":       s.Total,
		"processed":   s.Processed,
		"succeeded":   s.Succeeded,
		"skipped":     s.Skipped,
		"failed":      len(s.Failed),
		"cancelled":   s.Cancelled,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return s, nil
}

type runner struct {
	p       *Processor
	job     Job
	handle  *cancel.TaskHandle
	limiter *rate.Limiter
	summary *Summary
}

// checkpoint is evaluated before each item.
func (r *runner) checkpoint(ctx context.Context) bool {
	if r.handle.IsCancelled() || ctx.Err() != nil {
		r.summary.Cancelled = true
		return false
	}
	if err := r.limiter.Wait(ctx); err != nil {
		r.summary.Cancelled = true
		return false
	}
	return true
}

func (r *runner) record(outcome string) {
	r.summary.Processed++
	itemsTotal.WithLabelValues(string(r.job.Operation), outcome).Inc()
}

func (r *runner) succeed() {
	r.summary.Succeeded++
	r.record("succeeded")
}

func (r *runner) skip() {
	r.summary.Skipped++
	r.record("skipped")
}

func (r *runner) fail(f ItemFailure) {
	r.summary.Failed = append(r.summary.Failed, f)
	r.record("failed")
}

func (r *runner) deleteAll(ctx context.Context) {
	for _, id := range r.job.IDs {
		if !r.checkpoint(ctx) {
			return
		}
		if err := r.p.records.DeleteCandidate(ctx, r.job.Token, id); err != nil {
			r.fail(ItemFailure{ID: id, Reason: itemReason(err, id)})
			continue
		}
		r.succeed()
	}
}

func (r *runner) updateAll(ctx context.Context) {
	patch, patchErr := r.p.records.BuildPatch(ctx, r.job.Token, r.job.Field, r.job.Value)
	for _, id := range r.job.IDs {
		if !r.checkpoint(ctx) {
			return
		}
		if patchErr != nil {
			r.fail(ItemFailure{ID: id, Reason: recordclient.Reason(patchErr)})
			continue
		}
		if _, err := r.p.records.PatchCandidate(ctx, r.job.Token, id, patch); err != nil {
			r.fail(ItemFailure{ID: id, Reason: itemReason(err, id)})
			continue
		}
		r.succeed()
	}
}

func (r *runner) createAll(ctx context.Context) {
	lookups := newLookupCache(r.p.records, r.job.Token)
	for i, row := range r.job.Rows {
		if !r.checkpoint(ctx) {
			return
		}
		label := rowLabel(row)

		in, err := r.buildInput(ctx, row, lookups)
		if err == nil {
			_, err = r.p.records.CreateCandidate(ctx, r.job.Token, in)
		}
		switch {
		case err == nil:
			r.succeed()
		case recordclient.IsConflict(err):
			r.skip()
		default:
			reason := recordclient.Reason(err)
			r.fail(ItemFailure{Row: i + 1, Label: label, Reason: reason})
			r.summary.FailedRows = append(r.summary.FailedRows, store.FailedRow{
				Row:    row.Clone(),
				Reason: reason,
				At:     time.Now().UTC(),
			})
		}
	}
}

var errMissingFields = errors.New("missing required fields")

func (r *runner) buildInput(ctx context.Context, row store.Row, lookups *lookupCache) (recordclient.CandidateInput, error) {
	draft := store.DraftFromRow(row)
	if missing := draft.Missing(); len(missing) > 0 {
		return recordclient.CandidateInput{}, fmt.Errorf("%w: %s", errMissingFields, strings.Join(missing, ", "))
	}
	if draft.JobTitle.Empty() {
		draft.JobTitle.Name = defaultJobTitle
	}
	if draft.CommunicationSkills.Empty() {
		draft.CommunicationSkills.Name = defaultCommunicationSkill
	}
	for _, kind := range store.LookupKinds {
		ref := draft.Lookup(kind)
		if ref.Empty() || ref.Resolved() {
			continue
		}
		id, err := lookups.resolve(ctx, kind, ref.Name)
		if err != nil {
			return recordclient.CandidateInput{}, fmt.Errorf("%s %q: %w", kind, ref.Name, err)
		}
		ref.ID = &id
	}
	return recordclient.InputFromDraft(draft), nil
}

func itemReason(err error, id int) string {
	if recordclient.IsNotFound(err) {
		return fmt.Sprintf("candidate %d not found", id)
	}
	return recordclient.Reason(err)
}

func rowLabel(row store.Row) string {
	name := strings.TrimSpace(row[store.FieldFirstName] + " " + row[store.FieldLastName])
	if email := row[store.FieldEmail]; email != "" {
		if name == "" {
			return email
		}
		return name + " <" + email + ">"
	}
	return name
}
