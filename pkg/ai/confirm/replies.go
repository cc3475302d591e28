package confirm

import (
	"regexp"
	"strings"

	"hr-assistant-be/pkg/store"
)

type Reply int

const (
	ReplyOther Reply = iota
	ReplyAffirmative
	ReplyNegative
	ReplyEdit
)

func (r Reply) String() string {
	switch r {
	case ReplyAffirmative:
		return "affirmative"
	case ReplyNegative:
		return "negative"
	case ReplyEdit:
		return "edit"
	}
	return "other"
}

var affirmatives = map[string]bool{
	"yes": true, "y": true, "confirm": true, "sure": true, "ok": true,
	"okay": true, "proceed": true, "go ahead": true, "do it": true,
}

var negatives = map[string]bool{
	"no": true, "n": true, "cancel": true, "abort": true, "stop": true,
	"nope": true, "nevermind": true, "never mind": true,
}

var (
	editWithTo = regexp.MustCompile(`^(?:update|set|change)\s+(.+?)\s+to\s+(.+)$`)
	editBare   = regexp.MustCompile(`^(?:update|set|change)\s+(.+)$`)
)

func normalize(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	t = strings.TrimRight(t, ".!? ")
	return strings.Join(strings.Fields(t), " ")
}

// ClassifyReply interprets a message sent while an action awaits
// confirmation. For ReplyEdit the canonical field and raw value are returned.
func ClassifyReply(text string) (reply Reply, field, value string) {
	t := normalize(text)
	if t == "" {
		return ReplyOther, "", ""
	}
	if affirmatives[t] {
		return ReplyAffirmative, "", ""
	}
	if negatives[t] {
		return ReplyNegative, "", ""
	}
	if f, v, ok := parseEdit(text); ok {
		return ReplyEdit, f, v
	}

	// "yes, delete them" / "no thanks". A trailing edit ("sure, but update
	// city to Berlin") is neither, so it gets a re-prompt.
	words := strings.Fields(t)
	if hasEditVerb(words[1:]) {
		return ReplyOther, "", ""
	}
	first := strings.Trim(words[0], ",;:")
	if affirmatives[first] && first != "y" {
		return ReplyAffirmative, "", ""
	}
	if negatives[first] && first != "n" {
		return ReplyNegative, "", ""
	}
	return ReplyOther, "", ""
}

func hasEditVerb(words []string) bool {
	for _, w := range words {
		switch strings.Trim(w, ",;:") {
		case "update", "set", "change":
			return true
		}
	}
	return false
}

// IsAffirmative reports an exact affirmative phrase.
func IsAffirmative(text string) bool {
	return affirmatives[normalize(text)]
}

func IsNegative(text string) bool {
	return negatives[normalize(text)]
}

// parseEdit accepts "update <field> to <value>" and "update <field> <value>"
// where <field> may span up to three words.
func parseEdit(text string) (field, value string, ok bool) {
	raw := strings.TrimSpace(text)
	lower := strings.ToLower(raw)
	if len(lower) != len(raw) {
		raw = lower
	}

	if m := editWithTo.FindStringSubmatchIndex(lower); m != nil {
		if f, ok := store.NormalizeField(lower[m[2]:m[3]]); ok {
			return f, strings.TrimSpace(raw[m[4]:m[5]]), true
		}
	}

	m := editBare.FindStringSubmatchIndex(lower)
	if m == nil {
		return "", "", false
	}
	rest := raw[m[2]:m[3]]
	words := strings.Fields(rest)
	for n := 3; n >= 1; n-- {
		if len(words) <= n {
			continue
		}
		if f, ok := store.NormalizeField(strings.ToLower(strings.Join(words[:n], " "))); ok {
			return f, strings.Join(words[n:], " "), true
		}
	}
	return "", "", false
}
