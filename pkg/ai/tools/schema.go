package tools

type props map[string]interface{}

func object(p props, required ...string) map[string]interface{} {
	s := map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}(p),
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func str(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": desc}
}

func integer(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": desc}
}

func boolean(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "boolean", "description": desc}
}

func intArray(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "integer"},
		"description": desc,
	}
}

const fieldHelp = "Candidate field: first_name, last_name, email, phone_number, candidate_stage, " +
	"years_of_experience, expected_salary, current_salary, notes, job_title, city, source or communication_skills."

func candidateFields() props {
	return props{
		"first_name":           str("First name."),
		"last_name":            str("Last name."),
		"email":                str("Email address."),
		"phone_number":         str("Phone number."),
		"candidate_stage":      str("Pipeline stage, e.g. Applied, Screening, Interview, Offer, Hired, Rejected."),
		"years_of_experience":  str("Years of experience as a number."),
		"expected_salary":      str("Expected salary as a number."),
		"current_salary":       str("Current salary as a number."),
		"notes":                str("Free-text notes or skills."),
		"job_title":            str("Job title name."),
		"city":                 str("City name."),
		"source":               str("Where the candidate came from, e.g. LinkedIn."),
		"communication_skills": str("Communication skill level, e.g. Good."),
	}
}
