package activity

import (
	"context"
	"time"

	"hr-assistant-be/internal/pkg/logger"
	"hr-assistant-be/pkg/events"

	"github.com/google/uuid"
)

const (
	CandidateDeleted       = "CANDIDATE_DELETED"
	CandidateUpdated       = "CANDIDATE_UPDATED"
	CandidateCreated       = "CANDIDATE_CREATED"
	BulkOperationCompleted = "BULK_OPERATION_COMPLETED"
	TaskStarted            = "TASK_STARTED"
	TaskCancelled          = "TASK_CANCELLED"
	TaskFinished           = "TASK_FINISHED"
)

// Topic is the in-process watermill topic activity is published on.
const Topic = "chat_activity"

const publishTimeout = 3 * time.Second

// Publisher emits chat activity to every configured transport. A nil
// *Publisher is valid and drops everything.
type Publisher struct {
	sinks  []events.Publisher
	logger logger.ILogger
	now    func() time.Time
}

func NewPublisher(log logger.ILogger, sinks ...events.Publisher) *Publisher {
	p := &Publisher{logger: log, now: time.Now}
	for _, s := range sinks {
		if s != nil {
			p.sinks = append(p.sinks, s)
		}
	}
	return p
}

// Emit publishes one event. Delivery failures are logged, never returned:
// activity is an audit trail, not part of the chat reply.
func (p *Publisher) Emit(ctx context.Context, sessionID, eventType string, data map[string]interface{}) {
	if p == nil || len(p.sinks) == 0 {
		return
	}
	payload := make(map[string]interface{}, len(data)+1)
	for k, v := range data {
		payload[k] = v
	}
	payload["session_id"] = sessionID

	evt := events.BaseEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		Data:       payload,
		OccurredAt: p.now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	for _, sink := range p.sinks {
		if err := sink.Publish(ctx, evt); err != nil {
			p.logger.Error("ACTIVITY", "Failed to publish event", map[string]interface{}{
				"type":  eventType,
				"error": err.Error(),
			})
		}
	}
}

func (p *Publisher) CandidateDeleted(ctx context.Context, sessionID string, candidateID int) {
	p.Emit(ctx, sessionID, CandidateDeleted, map[string]interface{}{
		"candidate_id": candidateID,
	})
}

func (p *Publisher) CandidateUpdated(ctx context.Context, sessionID string, candidateID int, field, value string) {
	p.Emit(ctx, sessionID, CandidateUpdated, map[string]interface{}{
		"candidate_id": candidateID,
		"field":        field,
		"value":        value,
	})
}

func (p *Publisher) CandidateCreated(ctx context.Context, sessionID string, candidateID int, name string) {
	p.Emit(ctx, sessionID, CandidateCreated, map[string]interface{}{
		"candidate_id": candidateID,
		"name":         name,
	})
}

// BulkCompleted reports counts only; per-item reasons stay in the session.
func (p *Publisher) BulkCompleted(ctx context.Context, sessionID, operation string, total, succeeded, skipped, failed int, cancelled bool) {
	p.Emit(ctx, sessionID, BulkOperationCompleted, map[string]interface{}{
		"operation": operation,
		"total":     total,
		"succeeded": succeeded,
		"skipped":   skipped,
		"failed":    failed,
		"cancelled": cancelled,
	})
}

func (p *Publisher) TaskStarted(ctx context.Context, sessionID, taskID, description string) {
	p.Emit(ctx, sessionID, TaskStarted, map[string]interface{}{
		"task_id":     taskID,
		"description": description,
	})
}

func (p *Publisher) TaskCancelled(ctx context.Context, sessionID, taskID string) {
	p.Emit(ctx, sessionID, TaskCancelled, map[string]interface{}{
		"task_id": taskID,
	})
}

func (p *Publisher) TaskFinished(ctx context.Context, sessionID, taskID string, cancelled bool) {
	p.Emit(ctx, sessionID, TaskFinished, map[string]interface{}{
		"task_id":   taskID,
		"cancelled": cancelled,
	})
}
