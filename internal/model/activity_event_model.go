package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ActivityEvent is the audit row of one chat activity event.
type ActivityEvent struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	EventID    string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"event_id"`
	SessionID  string         `gorm:"type:varchar(128);index:idx_activity_session_occurred,priority:1;not null" json:"session_id"`
	Type       string         `gorm:"type:varchar(50);index;not null" json:"type"`
	Data       datatypes.JSON `gorm:"type:jsonb" json:"data"`
	OccurredAt time.Time      `gorm:"index:idx_activity_session_occurred,priority:2;not null" json:"occurred_at"`
	CreatedAt  time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (ActivityEvent) TableName() string {
	return "chat_activity_events"
}
