package router

import (
	"hr-assistant-be/internal/constant"
	"hr-assistant-be/internal/pkg/logger"
	"hr-assistant-be/pkg/ai/confirm"
)

const moduleName = "ROUTER"

const GreetingReply = "Hello! How can I help you today?"

// Input is one message plus the session facts routing depends on.
type Input struct {
	Text string
	// HasPending is true when the session holds an unconfirmed action.
	HasPending bool
	// ToolCalling is true when the selected model can call tools.
	ToolCalling bool
}

// Decision is the routing result. Intent is set for KindStructured and Text
// for KindGreeting and KindClarification.
type Decision struct {
	Kind   Kind
	Intent *Intent
	Text   string
	Rule   IntentName
}

// Router classifies messages with an ordered rule table. The first rule
// that matches wins, so destructive and bulk rules sit above single-record
// rules, which sit above listing and analytics.
type Router struct {
	rules  []rule
	logger logger.ILogger
}

func NewRouter(log logger.ILogger) *Router {
	return &Router{rules: rules, logger: log}
}

// RuleNames lists the rule table in priority order.
func (r *Router) RuleNames() []IntentName {
	names := make([]IntentName, len(r.rules))
	for i, rl := range r.rules {
		names[i] = rl.name
	}
	return names
}

func (r *Router) Route(in Input) Decision {
	norm := Normalize(in.Text)

	if greetings[norm] {
		return Decision{Kind: KindGreeting, Text: GreetingReply}
	}
	if in.HasPending {
		return Decision{Kind: KindConfirmationReply}
	}
	// A bare "yes" or "cancel" with nothing staged must not reach the model.
	if confirm.IsAffirmative(norm) {
		return Decision{Kind: KindClarification, Text: constant.MsgNothingToConfirm}
	}
	if confirm.IsNegative(norm) {
		return Decision{Kind: KindClarification, Text: constant.MsgNothingToAbort}
	}
	if norm == "" {
		return Decision{Kind: KindClarification, Text: "Please type a question or a command."}
	}

	for _, rl := range r.rules {
		if in.ToolCalling && !rl.fileBound {
			continue
		}
		for _, p := range rl.patterns {
			m := p.FindStringSubmatch(norm)
			if m == nil {
				continue
			}
			res := rl.build(m, in.Text)
			if res.skip {
				break
			}
			r.logger.Debug(moduleName, "Rule matched", map[string]interface{}{
				"rule":          string(rl.name),
				"clarification": res.clarify != "",
			})
			if res.clarify != "" {
				return Decision{Kind: KindClarification, Text: res.clarify, Rule: rl.name}
			}
			return Decision{Kind: KindStructured, Intent: res.intent, Rule: rl.name}
		}
	}
	return Decision{Kind: KindFreeForm}
}
