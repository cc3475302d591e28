package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryKeepsNewestTurns(t *testing.T) {
	h := NewHistory(3)
	for i := 1; i <= 5; i++ {
		h.Append(Turn{Role: RoleUser, Content: fmt.Sprintf("m%d", i)})
	}

	require.Equal(t, 3, h.Len())
	all := h.All()
	assert.Equal(t, "m3", all[0].Content)
	assert.Equal(t, "m5", all[2].Content)

	last := h.Last(2)
	require.Len(t, last, 2)
	assert.Equal(t, "m4", last[0].Content)
	assert.Equal(t, "m5", last[1].Content)
}

func TestHistoryLastBeyondSize(t *testing.T) {
	h := NewHistory(50)
	h.Append(Turn{Role: RoleUser, Content: "only"})
	assert.Len(t, h.Last(10), 1)
}

func TestSessionSinglePendingAction(t *testing.T) {
	s := NewSession("", DefaultLimits(), time.Now())
	assert.Equal(t, DefaultSessionID, s.ID)

	require.NoError(t, s.SetPending(NewDeleteAction(42)))
	assert.ErrorIs(t, s.SetPending(NewDeleteAction(7)), ErrPendingExists)
	assert.Equal(t, 42, s.Pending.CandidateID)

	p := s.ClearPending()
	require.NotNil(t, p)
	assert.False(t, s.HasPending())
	require.NoError(t, s.SetPending(NewDeleteAction(7)))
}

func TestSessionBuffersAreCapped(t *testing.T) {
	s := NewSession("s1", Limits{History: 5, Patterns: 2, FailedRows: 3, Uploads: 2}, time.Now())

	s.AddPattern("a")
	s.AddPattern("b")
	s.AddPattern("c")
	assert.Equal(t, []string{"b", "c"}, s.QueryPatterns)

	for i := 0; i < 5; i++ {
		s.AppendFailedRows(FailedRow{Row: Row{"email": fmt.Sprintf("%d@x.io", i)}})
	}
	require.Len(t, s.FailedRows, 3)
	assert.Equal(t, "2@x.io", s.FailedRows[0].Row["email"])

	s.AddFile(&FileContext{ID: "f1", Rows: []Row{{"email": "a"}}})
	s.AddFile(&FileContext{ID: "f2", Fields: map[string]string{"email": "b"}})
	s.AddFile(&FileContext{ID: "f3", Rows: []Row{{"email": "c"}}})
	assert.Nil(t, s.FindFile("f1"))
	assert.Equal(t, "f3", s.LatestFile(true).ID)
	assert.Equal(t, "f2", s.LatestFile(false).ID)
}

func TestPendingActionItemCount(t *testing.T) {
	assert.Equal(t, 1, NewDeleteAction(1).ItemCount())
	assert.Equal(t, 3, NewBulkDeleteAction([]int{1, 2, 3}).ItemCount())
	assert.Equal(t, 2, NewBulkCreateAction("f", []Row{{}, {}}).ItemCount())
	assert.True(t, NewBulkUpdateAction([]int{1}, FieldCandidateStage, "Hired").IsBulk())
	assert.False(t, NewAddCandidateAction(nil).IsBulk())
}

func TestDraftSet(t *testing.T) {
	d := &CandidateDraft{}
	require.NoError(t, d.Set("First Name", "Ada"))
	require.NoError(t, d.Set("email", "ADA@Example.com"))
	require.NoError(t, d.Set("expected salary", "85,000"))
	require.NoError(t, d.Set("city", "Lagos"))

	assert.Equal(t, "Ada", d.FirstName)
	assert.Equal(t, "ada@example.com", d.Email)
	require.NotNil(t, d.ExpectedSalary)
	assert.Equal(t, 85000.0, *d.ExpectedSalary)
	assert.Equal(t, "Lagos", d.City.Name)
	assert.False(t, d.City.Resolved())
	assert.Equal(t, []string{FieldLastName}, d.Missing())

	assert.Error(t, d.Set("shoe size", "42"))
	assert.Error(t, d.Set("experience", "lots"))

	id := 9
	d.City.ID = &id
	require.NoError(t, d.Set("location", "Abuja"))
	assert.False(t, d.City.Resolved(), "reassigning a lookup drops its id")
}

func TestDraftCloneIsDeep(t *testing.T) {
	id := 3
	years := 4.0
	d := &CandidateDraft{FirstName: "A", YearsOfExperience: &years, Source: LookupRef{Name: "LinkedIn", ID: &id}}
	c := d.Clone()
	*c.YearsOfExperience = 10
	*c.Source.ID = 99
	assert.Equal(t, 4.0, *d.YearsOfExperience)
	assert.Equal(t, 3, *d.Source.ID)
}
