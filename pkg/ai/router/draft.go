package router

import (
	"regexp"
	"strings"

	"hr-assistant-be/pkg/store"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s().\-]{6,}\d`)
	namePrefix   = regexp.MustCompile(`(?i)^(?:named|called|name is)\s+`)
	draftSplit   = regexp.MustCompile(`[,;\n]+`)
	keyValue     = regexp.MustCompile(`^\s*([A-Za-z_ ]{2,30}?)\s*[:=]\s*(.+)$`)
	withValue    = regexp.MustCompile(`(?i)^(?:with\s+)?([A-Za-z_ ]{2,30}?)\s+(?:of|is|as)\s+(.+)$`)
)

// parseDraft extracts candidate fields from text such as
// "Jane Doe, email: jane@example.com, city: Berlin, experience: 5".
func parseDraft(text string) *store.CandidateDraft {
	d := &store.CandidateDraft{}
	for _, part := range draftSplit.Split(text, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if m := keyValue.FindStringSubmatch(part); m != nil {
			if _, ok := store.NormalizeField(m[1]); ok {
				_ = d.Set(m[1], m[2])
				continue
			}
		}
		if m := withValue.FindStringSubmatch(part); m != nil {
			if _, ok := store.NormalizeField(m[1]); ok {
				_ = d.Set(m[1], m[2])
				continue
			}
		}

		if e := emailPattern.FindString(part); e != "" {
			if d.Email == "" {
				_ = d.Set(store.FieldEmail, e)
			}
			part = strings.TrimSpace(strings.Replace(part, e, "", 1))
		}
		if p := phonePattern.FindString(part); p != "" {
			if d.PhoneNumber == "" {
				d.PhoneNumber = strings.TrimSpace(p)
			}
			part = strings.TrimSpace(strings.Replace(part, p, "", 1))
		}
		part = namePrefix.ReplaceAllString(part, "")
		if d.FirstName == "" && looksLikeName(part) {
			words := strings.Fields(part)
			d.FirstName = words[0]
			if len(words) > 1 {
				d.LastName = strings.Join(words[1:], " ")
			}
		}
	}
	return d
}

func looksLikeName(s string) bool {
	words := strings.Fields(s)
	if len(words) == 0 || len(words) > 4 {
		return false
	}
	for _, w := range words {
		for _, r := range w {
			if !(r == '-' || r == '\'' || r == '.' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r > 127) {
				return false
			}
		}
	}
	return true
}

func draftEmpty(d *store.CandidateDraft) bool {
	if d.FirstName != "" || d.LastName != "" || d.Email != "" || d.PhoneNumber != "" {
		return false
	}
	for _, k := range store.LookupKinds {
		if !d.Lookup(k).Empty() {
			return false
		}
	}
	return d.CandidateStage == "" && d.Notes == "" && d.YearsOfExperience == nil &&
		d.ExpectedSalary == nil && d.CurrentSalary == nil
}
