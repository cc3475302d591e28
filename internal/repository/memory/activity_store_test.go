package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"hr-assistant-be/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activity(session string, n int) *model.ActivityEvent {
	return &model.ActivityEvent{
		EventID:    fmt.Sprintf("%s-%d", session, n),
		SessionID:  session,
		Type:       "TASK_STARTED",
		OccurredAt: time.Unix(int64(n), 0),
	}
}

func TestActivityStoreNewestFirstAndCapped(t *testing.T) {
	s := NewActivityStore(time.Hour, 3)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		require.NoError(t, s.Create(ctx, activity("a", i)))
	}
	require.NoError(t, s.Create(ctx, activity("b", 1)))

	got, err := s.FindBySession(ctx, "a", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a-5", got[0].EventID)
	assert.Equal(t, "a-3", got[2].EventID)

	got, err = s.FindBySession(ctx, "a", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestActivityStoreIgnoresRedelivery(t *testing.T) {
	s := NewActivityStore(time.Hour, 10)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, activity("a", 1)))
	require.NoError(t, s.Create(ctx, activity("a", 1)))

	got, err := s.FindBySession(ctx, "a", 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestActivityStoreUnknownSessionIsEmpty(t *testing.T) {
	s := NewActivityStore(time.Hour, 10)
	got, err := s.FindBySession(context.Background(), "nope", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, s.DeleteBySession(context.Background(), "nope"))
}
