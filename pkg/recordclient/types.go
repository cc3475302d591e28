package recordclient

import (
	"encoding/json"
	"strconv"
	"strings"

	"hr-assistant-be/pkg/store"
)

// NamedRef is a foreign-key value as rendered by the record service. It
// accepts a nested {id, name} object, a bare id, a bare name, or null.
type NamedRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func (r *NamedRef) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*r = NamedRef{}
		return nil
	case strings.HasPrefix(trimmed, "{"):
		type alias NamedRef
		var a alias
		if err := json.Unmarshal(data, &a); err != nil {
			return err
		}
		*r = NamedRef(a)
		return nil
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = NamedRef{Name: s}
		return nil
	default:
		id, err := strconv.Atoi(trimmed)
		if err != nil {
			return err
		}
		*r = NamedRef{ID: id}
		return nil
	}
}

// String returns the display name, falling back to the id.
func (r NamedRef) String() string {
	if r.Name != "" {
		return r.Name
	}
	if r.ID != 0 {
		return strconv.Itoa(r.ID)
	}
	return ""
}

// Amount decodes decimals sent either as JSON numbers or as strings.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" {
		*a = 0
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return err
	}
	*a = Amount(f)
	return nil
}

type Candidate struct {
	ID                  int       `json:"id"`
	FirstName           string    `json:"first_name"`
	LastName            string    `json:"last_name"`
	Email               string    `json:"email"`
	PhoneNumber         string    `json:"phone_number"`
	CandidateStage      string    `json:"candidate_stage"`
	YearsOfExperience   *Amount   `json:"years_of_experience"`
	ExpectedSalary      *Amount   `json:"expected_salary"`
	CurrentSalary       *Amount   `json:"current_salary"`
	Notes               string    `json:"notes"`
	JobTitle            *NamedRef `json:"job_title"`
	City                *NamedRef `json:"city"`
	Source              *NamedRef `json:"source"`
	CommunicationSkills *NamedRef `json:"communication_skills"`
	CreatedAt           string    `json:"created_at"`
}

func (c *Candidate) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// CandidateInput is the create payload. Foreign keys are ids.
type CandidateInput struct {
	FirstName           string   `json:"first_name"`
	LastName            string   `json:"last_name"`
	Email               string   `json:"email"`
	PhoneNumber         string   `json:"phone_number,omitempty"`
	CandidateStage      string   `json:"candidate_stage,omitempty"`
	Notes               string   `json:"notes,omitempty"`
	YearsOfExperience   *float64 `json:"years_of_experience,omitempty"`
	ExpectedSalary      *float64 `json:"expected_salary,omitempty"`
	CurrentSalary       *float64 `json:"current_salary,omitempty"`
	JobTitle            *int     `json:"job_title,omitempty"`
	City                *int     `json:"city,omitempty"`
	Source              *int     `json:"source,omitempty"`
	CommunicationSkills *int     `json:"communication_skills,omitempty"`
}

// InputFromDraft converts a draft whose lookups are already resolved.
func InputFromDraft(d *store.CandidateDraft) CandidateInput {
	return CandidateInput{
		FirstName:           d.FirstName,
		LastName:            d.LastName,
		Email:               d.Email,
		PhoneNumber:         d.PhoneNumber,
		CandidateStage:      d.CandidateStage,
		Notes:               d.Notes,
		YearsOfExperience:   d.YearsOfExperience,
		ExpectedSalary:      d.ExpectedSalary,
		CurrentSalary:       d.CurrentSalary,
		JobTitle:            d.JobTitle.ID,
		City:                d.City.ID,
		Source:              d.Source.ID,
		CommunicationSkills: d.CommunicationSkills.ID,
	}
}

type Lookup struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Note struct {
	ID        int    `json:"id"`
	Candidate int    `json:"candidate"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

type JobPost struct {
	ID           int    `json:"id"`
	Title        string `json:"title"`
	Department   string `json:"department"`
	Location     string `json:"location"`
	Status       string `json:"status"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`
	SalaryRange  string `json:"salary_range"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type Notification struct {
	ID        int    `json:"id"`
	Message   string `json:"message"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

// Page is a paginated list. Bare JSON arrays decode into Results.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

func (p *Page[T]) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*p = Page[T]{Count: len(items), Results: items}
		return nil
	}
	type alias Page[T]
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = Page[T](a)
	return nil
}

type ListOptions struct {
	Page     int
	PageSize int
	Search   string
	Filters  map[string]string
}
