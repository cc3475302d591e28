package router

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind is the routing outcome for one message.
type Kind string

const (
	KindGreeting          Kind = "GREETING"
	KindConfirmationReply Kind = "CONFIRMATION_REPLY"
	KindStructured        Kind = "STRUCTURED"
	KindClarification     Kind = "CLARIFICATION"
	KindFreeForm          Kind = "FREE_FORM"
)

var greetings = map[string]bool{
	"hi": true, "hello": true, "hey": true, "greetings": true,
	"good morning": true, "good afternoon": true, "good evening": true,
}

var trailingPunct = regexp.MustCompile(`[\s.!?]+$`)

// Normalize lowercases text, collapses whitespace and drops trailing
// punctuation. Rules match against the normalized form.
func Normalize(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	t = strings.Join(strings.Fields(t), " ")
	return trailingPunct.ReplaceAllString(t, "")
}

func IsGreeting(text string) bool {
	return greetings[Normalize(text)]
}

// titleCase turns "phone screen" into "Phone Screen".
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
