package store

import "strings"

// Canonical candidate field names, matching the record service payload keys.
const (
	FieldFirstName           = "first_name"
	FieldLastName            = "last_name"
	FieldEmail               = "email"
	FieldPhoneNumber         = "phone_number"
	FieldCandidateStage      = "candidate_stage"
	FieldYearsOfExperience   = "years_of_experience"
	FieldExpectedSalary      = "expected_salary"
	FieldCurrentSalary       = "current_salary"
	FieldNotes               = "notes"
	FieldJobTitle            = "job_title"
	FieldCity                = "city"
	FieldSource              = "source"
	FieldCommunicationSkills = "communication_skills"
)

var fieldAliases = map[string]string{
	"first_name":           FieldFirstName,
	"firstname":            FieldFirstName,
	"first name":           FieldFirstName,
	"last_name":            FieldLastName,
	"lastname":             FieldLastName,
	"last name":            FieldLastName,
	"surname":              FieldLastName,
	"email":                FieldEmail,
	"e-mail":               FieldEmail,
	"email address":        FieldEmail,
	"phone":                FieldPhoneNumber,
	"phone_number":         FieldPhoneNumber,
	"phone number":         FieldPhoneNumber,
	"mobile":               FieldPhoneNumber,
	"stage":                FieldCandidateStage,
	"status":               FieldCandidateStage,
	"candidate_stage":      FieldCandidateStage,
	"candidate stage":      FieldCandidateStage,
	"experience":           FieldYearsOfExperience,
	"years_of_experience":  FieldYearsOfExperience,
	"years of experience":  FieldYearsOfExperience,
	"expected_salary":      FieldExpectedSalary,
	"expected salary":      FieldExpectedSalary,
	"current_salary":       FieldCurrentSalary,
	"current salary":       FieldCurrentSalary,
	"salary":               FieldCurrentSalary,
	"notes":                FieldNotes,
	"note":                 FieldNotes,
	"skills":               FieldNotes,
	"job_title":            FieldJobTitle,
	"job title":            FieldJobTitle,
	"title":                FieldJobTitle,
	"position":             FieldJobTitle,
	"role":                 FieldJobTitle,
	"city":                 FieldCity,
	"location":             FieldCity,
	"source":               FieldSource,
	"communication_skills": FieldCommunicationSkills,
	"communication skills": FieldCommunicationSkills,
	"communication":        FieldCommunicationSkills,
}

// NormalizeField maps a user-supplied field name to its canonical key.
func NormalizeField(name string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.Join(strings.Fields(key), " ")
	if f, ok := fieldAliases[key]; ok {
		return f, true
	}
	f, ok := fieldAliases[strings.ReplaceAll(key, " ", "_")]
	return f, ok
}

func IsNumericField(field string) bool {
	switch field {
	case FieldYearsOfExperience, FieldExpectedSalary, FieldCurrentSalary:
		return true
	}
	return false
}

// IsNullish reports values that stand for "no value" in imported data.
func IsNullish(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "n/a", "na", "none", "null", "-", "nil":
		return true
	}
	return false
}
