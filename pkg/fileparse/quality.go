package fileparse

import (
	"math"

	"hr-assistant-be/pkg/store"
)

var requiredColumns = []string{store.FieldFirstName, store.FieldLastName, store.FieldEmail}

// fields a resume is expected to yield
var scoredTextFields = []string{
	store.FieldFirstName,
	store.FieldEmail,
	store.FieldPhoneNumber,
	store.FieldYearsOfExperience,
	store.FieldNotes,
	store.FieldCity,
	store.FieldJobTitle,
}

// tableQuality weighs required-field completeness, email validity and the
// share of recognised headers into a 0..1 score.
func tableQuality(res *Result) float64 {
	if len(res.Rows) == 0 {
		return 0
	}
	var complete, validEmail int
	for _, row := range res.Rows {
		filled := 0
		for _, f := range requiredColumns {
			if row[f] != "" {
				filled++
			}
		}
		if filled == len(requiredColumns) {
			complete++
		}
		if e := row[store.FieldEmail]; e != "" && emailPattern.MatchString(e) {
			validEmail++
		}
	}
	n := float64(len(res.Rows))
	recognised := 1.0
	if len(res.Headers) > 0 {
		recognised = float64(len(res.Headers)-len(res.UnknownHeaders)) / float64(len(res.Headers))
	}
	return round2(0.5*float64(complete)/n + 0.3*float64(validEmail)/n + 0.2*recognised)
}

func textQuality(fields map[string]string) float64 {
	found := 0
	for _, f := range scoredTextFields {
		if fields[f] != "" {
			found++
		}
	}
	return round2(float64(found) / float64(len(scoredTextFields)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
