package confirm

import (
	"testing"

	"hr-assistant-be/pkg/store"

	"github.com/stretchr/testify/assert"
)

func TestClassifyReply(t *testing.T) {
	tests := []struct {
		in    string
		reply Reply
		field string
		value string
	}{
		{"yes", ReplyAffirmative, "", ""},
		{"  Go ahead! ", ReplyAffirmative, "", ""},
		{"yes, delete them", ReplyAffirmative, "", ""},
		{"No.", ReplyNegative, "", ""},
		{"never mind", ReplyNegative, "", ""},
		{"cancel that please", ReplyNegative, "", ""},
		{"update email to Jane@Example.com", ReplyEdit, store.FieldEmail, "Jane@Example.com"},
		{"set years of experience 7", ReplyEdit, store.FieldYearsOfExperience, "7"},
		{"change job title to Senior Data Engineer", ReplyEdit, store.FieldJobTitle, "Senior Data Engineer"},
		{"update favourite colour to blue", ReplyOther, "", ""},
		{"y not", ReplyOther, "", ""},
		{"sure, but update city to Berlin", ReplyOther, "", ""},
		{"no, change the email instead", ReplyOther, "", ""},
		{"ok then, set stage to hired", ReplyOther, "", ""},
		{"", ReplyOther, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			reply, field, value := ClassifyReply(tt.in)
			assert.Equal(t, tt.reply, reply, reply.String())
			assert.Equal(t, tt.field, field)
			assert.Equal(t, tt.value, value)
		})
	}
}
