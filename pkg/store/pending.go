package store

import "time"

type ActionKind string

const (
	ActionDelete       ActionKind = "DELETE"
	ActionUpdate       ActionKind = "UPDATE"
	ActionBulkDelete   ActionKind = "BULK_DELETE"
	ActionBulkUpdate   ActionKind = "BULK_UPDATE"
	ActionAddCandidate ActionKind = "ADD_CANDIDATE"
	ActionBulkCreate   ActionKind = "BULK_CREATE"
)

// PendingAction is a mutating intent awaiting confirmation. Kind selects
// which of the payload fields are meaningful:
//
//	DELETE         CandidateID
//	UPDATE         CandidateID, Field, Value
//	BULK_DELETE    IDs
//	BULK_UPDATE    IDs, Field, Value
//	ADD_CANDIDATE  Draft
//	BULK_CREATE    FileID, Rows
type PendingAction struct {
	Kind        ActionKind      `json:"kind"`
	CandidateID int             `json:"candidate_id,omitempty"`
	IDs         []int           `json:"ids,omitempty"`
	Field       string          `json:"field,omitempty"`
	Value       string          `json:"value,omitempty"`
	Draft       *CandidateDraft `json:"draft,omitempty"`
	FileID      string          `json:"file_id,omitempty"`
	Rows        []Row           `json:"-"`

	// Preview is the rendered text shown with the confirmation prompt.
	Preview string `json:"preview"`
	// Acknowledged is set by the first affirmative on a large batch.
	Acknowledged bool      `json:"acknowledged"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewDeleteAction(id int) *PendingAction {
	return &PendingAction{Kind: ActionDelete, CandidateID: id, CreatedAt: time.Now()}
}

func NewUpdateAction(id int, field, value string) *PendingAction {
	return &PendingAction{Kind: ActionUpdate, CandidateID: id, Field: field, Value: value, CreatedAt: time.Now()}
}

func NewBulkDeleteAction(ids []int) *PendingAction {
	return &PendingAction{Kind: ActionBulkDelete, IDs: ids, CreatedAt: time.Now()}
}

func NewBulkUpdateAction(ids []int, field, value string) *PendingAction {
	return &PendingAction{Kind: ActionBulkUpdate, IDs: ids, Field: field, Value: value, CreatedAt: time.Now()}
}

func NewAddCandidateAction(draft *CandidateDraft) *PendingAction {
	if draft == nil {
		draft = &CandidateDraft{}
	}
	return &PendingAction{Kind: ActionAddCandidate, Draft: draft, CreatedAt: time.Now()}
}

func NewBulkCreateAction(fileID string, rows []Row) *PendingAction {
	return &PendingAction{Kind: ActionBulkCreate, FileID: fileID, Rows: rows, CreatedAt: time.Now()}
}

// IsBulk reports batch kinds subject to the large-batch double confirmation.
func (a *PendingAction) IsBulk() bool {
	switch a.Kind {
	case ActionBulkDelete, ActionBulkUpdate, ActionBulkCreate:
		return true
	}
	return false
}

// ItemCount is the number of records the action touches.
func (a *PendingAction) ItemCount() int {
	switch a.Kind {
	case ActionBulkDelete, ActionBulkUpdate:
		return len(a.IDs)
	case ActionBulkCreate:
		return len(a.Rows)
	}
	return 1
}

func (a *PendingAction) IsDestructive() bool {
	return a.Kind == ActionDelete || a.Kind == ActionBulkDelete
}
