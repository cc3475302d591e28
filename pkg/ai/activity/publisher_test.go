package activity

import (
	"context"
	"errors"
	"testing"

	"hr-assistant-be/internal/pkg/logger"
	"hr-assistant-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	got []events.Event
	err error
}

func (r *recordingSink) Publish(ctx context.Context, e events.Event) error {
	r.got = append(r.got, e)
	return r.err
}

func TestEmitFansOutAndTagsSession(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{err: errors.New("down")}
	p := NewPublisher(logger.NewNopLogger(), a, nil, b)

	p.CandidateDeleted(context.Background(), "s1", 42)

	require.Len(t, a.got, 1)
	require.Len(t, b.got, 1)
	evt := a.got[0]
	assert.Equal(t, CandidateDeleted, evt.EventType())
	assert.Equal(t, "s1", evt.Payload()["session_id"])
	assert.Equal(t, 42, evt.Payload()["candidate_id"])
}

func TestEmitSurvivesCancelledContext(t *testing.T) {
	sink := &recordingSink{}
	p := NewPublisher(logger.NewNopLogger(), sink)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.BulkCompleted(ctx, "s1", "BULK_DELETE", 3, 2, 0, 1, false)

	require.Len(t, sink.got, 1)
	assert.Equal(t, 3, sink.got[0].Payload()["total"])
}

func TestNilPublisherIsNoop(t *testing.T) {
	var p *Publisher
	assert.NotPanics(t, func() {
		p.TaskStarted(context.Background(), "s", "t", "d")
	})
}
