package store

import (
	"fmt"
	"strconv"
	"strings"
)

// LookupKind names a foreign-key lookup entity of the record service.
type LookupKind string

const (
	LookupJobTitle           LookupKind = "job_title"
	LookupCity               LookupKind = "city"
	LookupSource             LookupKind = "source"
	LookupCommunicationSkill LookupKind = "communication_skills"
)

var LookupKinds = []LookupKind{LookupJobTitle, LookupCity, LookupSource, LookupCommunicationSkill}

// LookupRef is a foreign-key value. ID is set only after the name was
// resolved against the record service.
type LookupRef struct {
	Name string `json:"name,omitempty"`
	ID   *int   `json:"id,omitempty"`
}

func (r LookupRef) Resolved() bool {
	return r.ID != nil
}

func (r LookupRef) Empty() bool {
	return r.Name == "" && r.ID == nil
}

// CandidateDraft accumulates the fields of a candidate about to be created.
type CandidateDraft struct {
	FirstName         string   `json:"first_name,omitempty"`
	LastName          string   `json:"last_name,omitempty"`
	Email             string   `json:"email,omitempty"`
	PhoneNumber       string   `json:"phone_number,omitempty"`
	CandidateStage    string   `json:"candidate_stage,omitempty"`
	Notes             string   `json:"notes,omitempty"`
	YearsOfExperience *float64 `json:"years_of_experience,omitempty"`
	ExpectedSalary    *float64 `json:"expected_salary,omitempty"`
	CurrentSalary     *float64 `json:"current_salary,omitempty"`

	JobTitle            LookupRef `json:"job_title"`
	City                LookupRef `json:"city"`
	Source              LookupRef `json:"source"`
	CommunicationSkills LookupRef `json:"communication_skills"`
}

// Set assigns a field by canonical or alias name. Assigning a lookup field
// drops any previously resolved id.
func (d *CandidateDraft) Set(field, value string) error {
	canonical, ok := NormalizeField(field)
	if !ok {
		return fmt.Errorf("unknown field %q", field)
	}
	value = strings.TrimSpace(value)
	if IsNullish(value) {
		value = ""
	}

	if IsNumericField(canonical) {
		var num *float64
		if value != "" {
			n, err := ParseNumber(value)
			if err != nil {
				return fmt.Errorf("%s must be a number", canonical)
			}
			num = &n
		}
		switch canonical {
		case FieldYearsOfExperience:
			d.YearsOfExperience = num
		case FieldExpectedSalary:
			d.ExpectedSalary = num
		case FieldCurrentSalary:
			d.CurrentSalary = num
		}
		return nil
	}

	switch canonical {
	case FieldFirstName:
		d.FirstName = value
	case FieldLastName:
		d.LastName = value
	case FieldEmail:
		d.Email = strings.ToLower(value)
	case FieldPhoneNumber:
		d.PhoneNumber = value
	case FieldCandidateStage:
		d.CandidateStage = value
	case FieldNotes:
		d.Notes = value
	default:
		if ref := d.Lookup(LookupKind(canonical)); ref != nil {
			*ref = LookupRef{Name: value}
		}
	}
	return nil
}

// Lookup returns a pointer to the foreign-key slot for kind.
func (d *CandidateDraft) Lookup(kind LookupKind) *LookupRef {
	switch kind {
	case LookupJobTitle:
		return &d.JobTitle
	case LookupCity:
		return &d.City
	case LookupSource:
		return &d.Source
	case LookupCommunicationSkill:
		return &d.CommunicationSkills
	}
	return nil
}

// Missing lists required fields that are still empty.
func (d *CandidateDraft) Missing() []string {
	var missing []string
	if d.FirstName == "" {
		missing = append(missing, FieldFirstName)
	}
	if d.LastName == "" {
		missing = append(missing, FieldLastName)
	}
	if d.Email == "" {
		missing = append(missing, FieldEmail)
	}
	return missing
}

// Clone returns a deep copy.
func (d *CandidateDraft) Clone() *CandidateDraft {
	if d == nil {
		return nil
	}
	c := *d
	c.YearsOfExperience = cloneFloat(d.YearsOfExperience)
	c.ExpectedSalary = cloneFloat(d.ExpectedSalary)
	c.CurrentSalary = cloneFloat(d.CurrentSalary)
	for _, k := range LookupKinds {
		ref := c.Lookup(k)
		if ref.ID != nil {
			id := *ref.ID
			ref.ID = &id
		}
	}
	return &c
}

// DraftFromRow builds a draft from a normalized import row, ignoring
// unknown columns and unparseable numbers.
func DraftFromRow(row Row) *CandidateDraft {
	d := &CandidateDraft{}
	for k, v := range row {
		_ = d.Set(k, v)
	}
	return d
}

// ParseNumber accepts values such as "85,000", "$90000" or "5+".
func ParseNumber(v string) (float64, error) {
	cleaned := strings.NewReplacer(",", "", "$", "", "+", "", " ", "").Replace(v)
	return strconv.ParseFloat(cleaned, 64)
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
