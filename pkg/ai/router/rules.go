package router

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"hr-assistant-be/pkg/store"
)

// IntentName identifies the rule that produced a structured intent.
type IntentName string

const (
	IntentBulkDelete    IntentName = "bulk_delete"
	IntentBulkUpdate    IntentName = "bulk_update"
	IntentBulkImport    IntentName = "bulk_import"
	IntentAddFromFile   IntentName = "add_from_file"
	IntentDelete        IntentName = "delete"
	IntentUpdateStage   IntentName = "update_stage"
	IntentUpdateField   IntentName = "update_field"
	IntentAddCandidate  IntentName = "add_candidate"
	IntentGetByID       IntentName = "get_by_id"
	IntentFindByContact IntentName = "find_by_contact"
	IntentListNotes     IntentName = "list_notes"
	IntentListJobPosts  IntentName = "list_job_posts"
	IntentNotifications IntentName = "notifications"
	IntentListCandidate IntentName = "list_candidates"
	IntentAnalytics     IntentName = "analytics"
)

// Metric selects which analytics view an analytics intent wants.
type Metric string

const (
	MetricCandidates Metric = "candidates"
	MetricOverall    Metric = "overall"
	MetricActivity   Metric = "activity"
)

// Intent carries the parameters extracted by a rule. Which fields are set
// depends on Name.
type Intent struct {
	Name        IntentName
	CandidateID int
	IDs         []int
	Field       string
	Value       string
	Query       string
	Stage       string
	Page        int
	Draft       *store.CandidateDraft
	Unread      bool
	Metric      Metric
}

// IsMutating reports intents that must go through confirmation.
func (i *Intent) IsMutating() bool {
	switch i.Name {
	case IntentBulkDelete, IntentBulkUpdate, IntentBulkImport, IntentAddFromFile,
		IntentDelete, IntentUpdateStage, IntentUpdateField, IntentAddCandidate:
		return true
	}
	return false
}

// match is what a rule builder returns: an intent, a clarification, or
// skip to let lower-priority rules try.
type match struct {
	intent  *Intent
	clarify string
	skip    bool
}

func found(i *Intent) match    { return match{intent: i} }
func clarify(msg string) match { return match{clarify: msg} }
func skip() match              { return match{skip: true} }

type rule struct {
	name     IntentName
	patterns []*regexp.Regexp
	build    func(m []string, text string) match
	// fileBound rules depend on uploaded files, which no model tool can
	// reach, so they run even when a tool-calling model is selected.
	fileBound bool
}

func re(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`^` + pattern + `$`)
}

const (
	idList = `([#\d][\d#,;&\s\-.]*?(?:\s*(?:and|to|through)\s*#?\d+)*)`
	fieldN = `([a-z_]+(?: [a-z_]+){0,2})`
)

const editableFields = "first_name, last_name, email, phone_number, candidate_stage, years_of_experience, " +
	"expected_salary, current_salary, notes, job_title, city, source, communication_skills"

var rules = []rule{
	{
		name: IntentBulkDelete,
		patterns: []*regexp.Regexp{
			re(`(?:bulk delete(?: candidates)?|(?:delete|remove) (?:all )?(?:the )?(?:multiple )?candidates)(?: with)?(?: ids?)?:? ?` + idList),
		},
		build: func(m []string, _ string) match {
			if singleID(m[1]) {
				return skip()
			}
			ids, err := ParseIDs(m[1])
			if err != nil {
				return idClarification(err, "delete")
			}
			if len(ids) < 2 {
				return skip()
			}
			return found(&Intent{Name: IntentBulkDelete, IDs: ids})
		},
	},
	{
		name: IntentBulkUpdate,
		patterns: []*regexp.Regexp{
			re(`(?:bulk )?(?:update|change) candidates?(?: ids?)? ` + idList + ` (?:set )?` + fieldN + ` (?:to|=) (.+)`),
			re(`(?:set|change|update) (?:the )?` + fieldN + ` (?:of|for) candidates(?: ids?)? ` + idList + ` to (.+)`),
			re(`(?:move|advance) candidates ` + idList + ` to (?:the )?(.+?)(?: stage)?`),
		},
		build: func(m []string, _ string) match {
			var idsRaw, field, value string
			switch len(m) {
			case 4:
				if isIDList(m[1]) {
					idsRaw, field, value = m[1], m[2], m[3]
				} else {
					field, idsRaw, value = m[1], m[2], m[3]
				}
			case 3:
				idsRaw, field, value = m[1], store.FieldCandidateStage, m[2]
			}
			if singleID(idsRaw) {
				return skip()
			}
			ids, err := ParseIDs(idsRaw)
			if err != nil {
				return idClarification(err, "update")
			}
			if len(ids) < 2 {
				return skip()
			}
			canonical, ok := store.NormalizeField(field)
			if !ok {
				return clarify(unknownField(field))
			}
			if canonical == store.FieldCandidateStage {
				value = titleCase(value)
			}
			return found(&Intent{Name: IntentBulkUpdate, IDs: ids, Field: canonical, Value: value})
		},
	},
	{
		name:      IntentBulkImport,
		fileBound: true,
		patterns: []*regexp.Regexp{
			re(`(?:bulk )?(?:import|upload|add|create|load) (?:all )?(?:the )?candidates (?:from|in) (?:the |my |this )?(?:uploaded )?(?:file|csv|excel|spreadsheet|sheet|upload)(.*)`),
			re(`bulk (?:import|add|create)(?: candidates)?(.*)`),
			re(`import (?:the )?(?:uploaded )?(?:file|csv|excel|spreadsheet)(.*)`),
		},
		build: func(m []string, _ string) match {
			return found(&Intent{Name: IntentBulkImport})
		},
	},
	{
		name:      IntentAddFromFile,
		fileBound: true,
		patterns: []*regexp.Regexp{
			re(`(?:add|create) (?:a )?(?:new )?candidate (?:from|using) (?:the |my |this )?(?:uploaded )?(?:file|resume|cv|pdf|document|upload)(.*)`),
		},
		build: func(m []string, _ string) match {
			return found(&Intent{Name: IntentAddFromFile})
		},
	},
	{
		name: IntentDelete,
		patterns: []*regexp.Regexp{
			re(`(?:delete|remove) (?:the )?candidates?(?: with)?(?: id)?:? ?(.*)`),
		},
		build: func(m []string, _ string) match {
			arg := strings.TrimSpace(m[1])
			if arg == "" {
				return clarify("Which candidate should I delete? Please give the candidate ID, e.g. \"delete candidate 42\".")
			}
			ids, err := ParseIDs(arg)
			if err != nil {
				if errors.Is(err, ErrTooManyIDs) {
					return idClarification(err, "delete")
				}
				return clarify(fmt.Sprintf("I need the candidate's ID to delete it. You can look it up with \"find %s\".", arg))
			}
			if len(ids) > 1 {
				return found(&Intent{Name: IntentBulkDelete, IDs: ids})
			}
			return found(&Intent{Name: IntentDelete, CandidateID: ids[0]})
		},
	},
	{
		name: IntentUpdateStage,
		patterns: []*regexp.Regexp{
			re(`(?:move|advance|set|put) candidate (?:id )?#?(\d+) (?:to|into) (?:the )?(?:stage )?(.+?)(?: stage)?`),
			re(`(?:mark|set) candidate (?:id )?#?(\d+) as (.+)`),
			re(`(?:update|change|set) (?:the )?(?:stage|status) (?:of|for) candidate (?:id )?#?(\d+) to (.+)`),
		},
		build: func(m []string, _ string) match {
			id, bad := candidateID(m[1])
			if bad != nil {
				return *bad
			}
			return found(&Intent{Name: IntentUpdateStage, CandidateID: id, Field: store.FieldCandidateStage, Value: titleCase(m[2])})
		},
	},
	{
		name: IntentUpdateField,
		patterns: []*regexp.Regexp{
			re(`(?:update|change|set|edit) (?:the )?` + fieldN + ` (?:of|for) candidate (?:id )?#?(\d+) to (.+)`),
			re(`(?:update|change|set|edit) candidate (?:id )?#?(\d+)(?:'s)? ` + fieldN + ` (?:to|=|as) (.+)`),
			re(`(?:update|change|edit) candidate (?:id )?#?(\d+)`),
		},
		build: func(m []string, _ string) match {
			if len(m) == 2 {
				return clarify(fmt.Sprintf("What should I change for candidate %s? For example: \"update candidate %s email to jane@example.com\".", m[1], m[1]))
			}
			field, idRaw, value := m[1], m[2], m[3]
			if allDigits(m[1]) {
				idRaw, field = m[1], m[2]
			}
			id, bad := candidateID(idRaw)
			if bad != nil {
				return *bad
			}
			canonical, ok := store.NormalizeField(field)
			if !ok {
				return clarify(unknownField(field))
			}
			if canonical == store.FieldCandidateStage {
				return found(&Intent{Name: IntentUpdateStage, CandidateID: id, Field: canonical, Value: titleCase(value)})
			}
			return found(&Intent{Name: IntentUpdateField, CandidateID: id, Field: canonical, Value: value})
		},
	},
	{
		name: IntentAddCandidate,
		patterns: []*regexp.Regexp{
			re(`(?:add|create|register) (?:a )?(?:new )?candidate(?:[:\s]+(.*))?`),
			re(`new candidate(?:[:\s]+(.*))?`),
		},
		build: buildAddCandidate,
	},
	{
		name: IntentGetByID,
		patterns: []*regexp.Regexp{
			re(`(?:(?:show|get|view|display|fetch|find|open)(?: me)? )?(?:the )?(?:details (?:of|for) |profile (?:of|for) )?candidate (?:id )?#?(\d+)(?: details| profile)?`),
			re(`who is candidate (?:id )?#?(\d+)`),
		},
		build: func(m []string, _ string) match {
			id, bad := candidateID(m[1])
			if bad != nil {
				return *bad
			}
			return found(&Intent{Name: IntentGetByID, CandidateID: id})
		},
	},
	{
		name: IntentFindByContact,
		patterns: []*regexp.Regexp{
			re(`(?:find|search(?: for)?|look ?up|show|get) (?:the )?candidates? (?:named|called|with (?:the )?name) (.+)`),
			re(`(?:find|search(?: for)?|look ?up|show|get) (?:the )?(?:candidates? )?(?:with (?:the )?email )?([a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,})`),
			re(`(?:find|search for|look ?up|who is) (.+)`),
		},
		build: func(m []string, _ string) match {
			q := strings.TrimSpace(m[1])
			q = strings.TrimPrefix(q, "candidates ")
			q = strings.TrimPrefix(q, "candidate ")
			q = strings.TrimPrefix(q, "with ")
			q = strings.TrimPrefix(q, "named ")
			if q == "" || strings.Contains(q, "job post") || strings.Contains(q, "notification") || strings.HasPrefix(q, "notes") {
				return skip()
			}
			return found(&Intent{Name: IntentFindByContact, Query: q})
		},
	},
	{
		name: IntentListNotes,
		patterns: []*regexp.Regexp{
			re(`(?:show|list|get|view|display)(?: me)?(?: all)? (?:the )?notes (?:for|of|on|about) candidate (?:id )?#?(\d+)`),
			re(`notes (?:for|of|on) candidate (?:id )?#?(\d+)`),
			re(`(?:show|list|get|view)(?: me)?(?: all)? (?:the )?notes()`),
		},
		build: func(m []string, _ string) match {
			if m[1] == "" {
				return clarify("Which candidate's notes would you like to see? For example: \"show notes for candidate 42\".")
			}
			id, bad := candidateID(m[1])
			if bad != nil {
				return *bad
			}
			return found(&Intent{Name: IntentListNotes, CandidateID: id})
		},
	},
	{
		name: IntentListJobPosts,
		patterns: []*regexp.Regexp{
			re(`(?:(?:show|list|get|view|display)(?: me)? )?(?:all )?(?:the )?(?:open )?(?:job posts|job postings|jobs|job openings|openings|vacancies)(?: page (\d+))?`),
		},
		build: func(m []string, _ string) match {
			page, _ := strconv.Atoi(m[1])
			return found(&Intent{Name: IntentListJobPosts, Page: max(page, 1)})
		},
	},
	{
		name: IntentNotifications,
		patterns: []*regexp.Regexp{
			re(`(?:(?:show|list|get|check|any)(?: me)? )?(?:my )?(?:the )?(unread |new |recent |all )?notifications`),
		},
		build: func(m []string, _ string) match {
			kind := strings.TrimSpace(m[1])
			return found(&Intent{Name: IntentNotifications, Unread: kind != "recent" && kind != "all"})
		},
	},
	{
		name: IntentListCandidate,
		patterns: []*regexp.Regexp{
			re(`(?:(?:show|list|get|display|view)(?: me)? )?(?:all )?(?:the )?candidates(?: (?:in|at) (?:the )?(.+?) stage)?(?: page (\d+))?`),
			re(`(?:show |get )?page (\d+)()`),
		},
		build: func(m []string, _ string) match {
			stage, pageRaw := m[1], m[2]
			if _, err := strconv.Atoi(stage); err == nil && pageRaw == "" {
				stage, pageRaw = "", stage
			}
			page, _ := strconv.Atoi(pageRaw)
			in := &Intent{Name: IntentListCandidate, Page: max(page, 1)}
			if stage != "" {
				in.Stage = titleCase(stage)
			}
			return found(in)
		},
	},
	{
		name: IntentAnalytics,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(metrics|statistics|stats|analytics|dashboard|overview|how many candidates|pipeline summary|recent activit(?:y|ies))\b`),
		},
		build: buildAnalytics,
	},
}

// buildAddCandidate parses the original text so names and emails keep
// their case.
func buildAddCandidate(_ []string, text string) match {
	rest := ""
	if loc := addPrefix.FindStringIndex(text); loc != nil {
		rest = text[loc[1]:]
	}
	d := parseDraft(rest)
	if draftEmpty(d) {
		return clarify("To add a candidate, tell me their details, for example: " +
			"\"add candidate Jane Doe, email: jane@example.com, job title: Data Engineer, city: Berlin\".")
	}
	return found(&Intent{Name: IntentAddCandidate, Draft: d})
}

var addPrefix = regexp.MustCompile(`(?i)^\s*(?:(?:add|create|register)\s+(?:a\s+)?(?:new\s+)?|new\s+)candidate[:\s]*`)

func buildAnalytics(m []string, text string) match {
	in := &Intent{Name: IntentAnalytics, Metric: MetricCandidates}
	text = strings.ToLower(text)
	switch {
	case strings.HasPrefix(m[1], "recent activit"):
		in.Metric = MetricActivity
	case strings.Contains(text, "overall"), strings.Contains(text, "dashboard"), strings.Contains(text, "company"):
		in.Metric = MetricOverall
	}
	return found(in)
}

// isIDList tells an id-list capture from a field capture; fields never
// start with a digit or '#'.
func isIDList(s string) bool {
	return s != "" && (s[0] == '#' || (s[0] >= '0' && s[0] <= '9'))
}

func idClarification(err error, verb string) match {
	if errors.Is(err, ErrTooManyIDs) {
		return clarify(fmt.Sprintf("That request covers more than %d candidates. Please %s them in smaller batches.", MaxIDs, verb))
	}
	return clarify(fmt.Sprintf("I couldn't read the candidate IDs. Please list them like \"%s candidates 1, 2, 3\" or \"%s candidates 1-5\".", verb, verb))
}

// candidateID rejects zero and ids that overflow int.
func candidateID(raw string) (int, *match) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		m := clarify(fmt.Sprintf("%s is not a valid candidate ID. IDs are positive whole numbers, e.g. \"show candidate 42\".", raw))
		return 0, &m
	}
	return id, nil
}

// singleID leaves one-id messages to the single-record rules.
func singleID(raw string) bool {
	return allDigits(strings.TrimPrefix(strings.TrimSpace(raw), "#"))
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func unknownField(field string) string {
	return fmt.Sprintf("I don't know the candidate field %q. Editable fields are: %s.", field, editableFields)
}
