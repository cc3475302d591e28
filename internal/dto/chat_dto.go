package dto

import (
	"time"

	"hr-assistant-be/internal/model"
	"hr-assistant-be/pkg/ai/bulk"
	"hr-assistant-be/pkg/fileparse"
	"hr-assistant-be/pkg/llm"
	"hr-assistant-be/pkg/store"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Message   string        `json:"message"`
	Messages  []ChatMessage `json:"messages" validate:"max=200,dive"`
	Model     string        `json:"model" validate:"max=200"`
	AuthToken string        `json:"authToken"`
	SessionID string        `json:"session_id" validate:"max=128"`
	Prompt    string        `json:"prompt" validate:"max=8000"`
	Page      int           `json:"page" validate:"min=0"`
}

// UserMessage is the newest user turn of Messages, else Message.
func (r *ChatRequest) UserMessage() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == "user" && r.Messages[i].Content != "" {
			return r.Messages[i].Content
		}
	}
	return r.Message
}

// ChatResponse is returned as is, without the success envelope. Response is
// a string, or a ChatFailure when the request carried no message.
type ChatResponse struct {
	Response  interface{}   `json:"response"`
	SessionID string        `json:"session_id"`
	Route     string        `json:"route,omitempty"`
	State     string        `json:"state,omitempty"`
	Model     string        `json:"model,omitempty"`
	FellBack  bool          `json:"fell_back,omitempty"`
	Cancelled bool          `json:"cancelled,omitempty"`
	Busy      bool          `json:"busy,omitempty"`
	Summary   *bulk.Summary `json:"summary,omitempty"`
}

type ChatFailure struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type CancelRequest struct {
	SessionID string `json:"session_id" validate:"required,max=128"`
}

type CancelResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type StatusResponse struct {
	SessionID   string     `json:"session_id"`
	Running     bool       `json:"running"`
	Cancelled   bool       `json:"cancelled"`
	TaskID      string     `json:"task_id,omitempty"`
	Description string     `json:"description,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	HasPending  bool       `json:"has_pending"`
}

type UploadMode string

const (
	UploadModeBulk   UploadMode = "bulk"
	UploadModeSingle UploadMode = "single"
)

type UploadRequest struct {
	SessionID string     `form:"session_id" validate:"max=128"`
	Mode      UploadMode `form:"mode" validate:"omitempty,oneof=bulk single"`
}

type UploadResponse struct {
	FileID         string            `json:"file_id"`
	SessionID      string            `json:"session_id"`
	Name           string            `json:"name"`
	Kind           store.FileKind    `json:"kind"`
	RowCount       int               `json:"row_count"`
	Preview        []store.Row       `json:"preview,omitempty"`
	Truncated      bool              `json:"truncated,omitempty"`
	UnknownHeaders []string          `json:"unknown_headers,omitempty"`
	Fields         map[string]string `json:"fields,omitempty"`
	QualityScore   float64           `json:"quality_score"`
	Hint           string            `json:"hint"`
}

type FailedRowsRequest struct {
	SessionID string `query:"session_id" validate:"max=128"`
	Format    string `query:"format" validate:"omitempty,oneof=csv xlsx excel"`
}

// FailedRowsExport is a rendered failed-row attachment.
type FailedRowsExport struct {
	Format fileparse.ExportFormat
	Body   []byte
	Count  int
}

type ActivityResponse struct {
	SessionID string                 `json:"session_id"`
	Events    []*model.ActivityEvent `json:"events"`
}

type ModelsResponse struct {
	Models []llm.ModelInfo `json:"models"`
}
