package implementation

import (
	"context"

	"hr-assistant-be/internal/model"
	"hr-assistant-be/internal/repository/contract"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type activityEventRepository struct {
	db *gorm.DB
}

func NewActivityEventRepository(db *gorm.DB) contract.ActivityEventRepository {
	return &activityEventRepository{db: db}
}

func (r *activityEventRepository) Create(ctx context.Context, event *model.ActivityEvent) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(event).Error
}

func (r *activityEventRepository) FindBySession(ctx context.Context, sessionID string, limit int) ([]*model.ActivityEvent, error) {
	var out []*model.ActivityEvent
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *activityEventRepository) DeleteBySession(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&model.ActivityEvent{}).Error
}
