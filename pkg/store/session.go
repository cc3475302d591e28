package store

import (
	"errors"
	"time"
)

// DefaultSessionID is used when a client does not send a session id.
const DefaultSessionID = "default"

var ErrPendingExists = errors.New("another action is already awaiting confirmation")

// Limits bounds the per-session buffers.
type Limits struct {
	History    int
	Patterns   int
	FailedRows int
	Uploads    int
}

func DefaultLimits() Limits {
	return Limits{
		History:    50,
		Patterns:   100,
		FailedRows: 500,
		Uploads:    10,
	}
}

// Session is the in-memory conversation state for one session id.
// It is not safe for concurrent use on its own; callers go through the
// session store which serializes access per id.
type Session struct {
	ID            string         `json:"id"`
	Pending       *PendingAction `json:"pending,omitempty"`
	UploadedFiles []*FileContext `json:"uploaded_files"`
	History       *History       `json:"-"`
	QueryPatterns []string       `json:"query_patterns"`
	FailedRows    []FailedRow    `json:"-"`
	CreatedAt     time.Time      `json:"created_at"`
	LastTouched   time.Time      `json:"last_touched"`

	limits Limits
}

func NewSession(id string, limits Limits, now time.Time) *Session {
	if id == "" {
		id = DefaultSessionID
	}
	return &Session{
		ID:          id,
		History:     NewHistory(limits.History),
		CreatedAt:   now,
		LastTouched: now,
		limits:      limits,
	}
}

func (s *Session) Touch(now time.Time) {
	s.LastTouched = now
}

// SetPending stores a new pending action. A session holds at most one.
func (s *Session) SetPending(action *PendingAction) error {
	if s.Pending != nil {
		return ErrPendingExists
	}
	s.Pending = action
	return nil
}

// ClearPending removes and returns the pending action.
func (s *Session) ClearPending() *PendingAction {
	p := s.Pending
	s.Pending = nil
	return p
}

func (s *Session) HasPending() bool {
	return s.Pending != nil
}

// AddPattern records a routing tag, dropping the oldest past the cap.
func (s *Session) AddPattern(tag string) {
	if tag == "" {
		return
	}
	s.QueryPatterns = append(s.QueryPatterns, tag)
	if limit := s.limits.Patterns; limit > 0 && len(s.QueryPatterns) > limit {
		s.QueryPatterns = append([]string(nil), s.QueryPatterns[len(s.QueryPatterns)-limit:]...)
	}
}

func (s *Session) AddFile(f *FileContext) {
	s.UploadedFiles = append(s.UploadedFiles, f)
	if limit := s.limits.Uploads; limit > 0 && len(s.UploadedFiles) > limit {
		s.UploadedFiles = append([]*FileContext(nil), s.UploadedFiles[len(s.UploadedFiles)-limit:]...)
	}
}

func (s *Session) FindFile(id string) *FileContext {
	for _, f := range s.UploadedFiles {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// LatestFile returns the newest upload with (structured=true) or without rows.
func (s *Session) LatestFile(structured bool) *FileContext {
	for i := len(s.UploadedFiles) - 1; i >= 0; i-- {
		if s.UploadedFiles[i].Structured() == structured {
			return s.UploadedFiles[i]
		}
	}
	return nil
}

// AppendFailedRows keeps the newest rows up to the configured cap.
func (s *Session) AppendFailedRows(rows ...FailedRow) {
	s.FailedRows = append(s.FailedRows, rows...)
	if limit := s.limits.FailedRows; limit > 0 && len(s.FailedRows) > limit {
		s.FailedRows = append([]FailedRow(nil), s.FailedRows[len(s.FailedRows)-limit:]...)
	}
}

func (s *Session) FailedRowsSnapshot() []FailedRow {
	out := make([]FailedRow, len(s.FailedRows))
	copy(out, s.FailedRows)
	return out
}
