package contract

import (
	"context"

	"hr-assistant-be/internal/model"
)

type ActivityEventRepository interface {
	// Create stores an event; an already stored EventID is ignored.
	Create(ctx context.Context, event *model.ActivityEvent) error
	// FindBySession returns the newest events first.
	FindBySession(ctx context.Context, sessionID string, limit int) ([]*model.ActivityEvent, error)
	DeleteBySession(ctx context.Context, sessionID string) error
}
