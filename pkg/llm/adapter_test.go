package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"hr-assistant-be/internal/pkg/logger"
	"hr-assistant-be/pkg/ai/cancel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	mu    sync.Mutex
	calls int
	chat  func(n int, history []Message) (string, error)
	tools func(n int, history []Message) (*ToolChatResult, error)
}

func (p *scriptedProvider) next() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.calls
}

func (p *scriptedProvider) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	return p.chat(p.next(), history)
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	return p.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, options...)
}

type toolProvider struct {
	scriptedProvider
}

func (p *toolProvider) ChatWithTools(ctx context.Context, history []Message, tools []ToolDef, options ...Option) (*ToolChatResult, error) {
	return p.tools(p.next(), history)
}

type mapResolver map[string]Target

func (m mapResolver) Resolve(id string) (Target, error) {
	t, ok := m[id]
	if !ok {
		return Target{}, fmt.Errorf("unknown model %s", id)
	}
	return t, nil
}

type fakeTools struct {
	execute func(call ToolCall) ToolOutcome
	calls   []string
}

func (f *fakeTools) Definitions() []ToolDef {
	return []ToolDef{{Name: "get_candidate"}}
}

func (f *fakeTools) Execute(ctx context.Context, call ToolCall) ToolOutcome {
	f.calls = append(f.calls, call.Name)
	return f.execute(call)
}

func newTestAdapter(r Resolver, c *cancel.Controller) *Adapter {
	return NewAdapter(r, c, AdapterConfig{
		DefaultModel:  "primary",
		FallbackModel: "secondary",
	}, logger.NewNopLogger())
}

func text(s string) func(int, []Message) (string, error) {
	return func(int, []Message) (string, error) { return s, nil }
}

func fail(err error) func(int, []Message) (string, error) {
	return func(int, []Message) (string, error) { return "", err }
}

func TestRunPrimarySuccess(t *testing.T) {
	primary := &scriptedProvider{chat: text("hi there")}
	a := newTestAdapter(mapResolver{"primary": {Provider: "p", Model: "primary", Client: primary}}, cancel.NewController())

	res := a.Run(context.Background(), Request{SessionID: "s", History: []Message{{Role: RoleUser, Content: "hello"}}})
	assert.Equal(t, "hi there", res.Text)
	assert.False(t, res.FellBack)
	assert.Equal(t, "p", res.Provider)
}

func TestRunQuotaFallsBackToSecondary(t *testing.T) {
	primary := &scriptedProvider{chat: fail(&ProviderError{Provider: "p", StatusCode: 402, Kind: KindQuota, Message: "quota"})}
	secondary := &scriptedProvider{chat: text("answer from secondary")}
	a := newTestAdapter(mapResolver{
		"primary":   {Provider: "p", Model: "primary", Client: primary},
		"secondary": {Provider: "s", Model: "secondary", Client: secondary},
	}, cancel.NewController())

	res := a.Run(context.Background(), Request{SessionID: "s"})
	assert.Equal(t, "answer from secondary", res.Text)
	assert.True(t, res.FellBack)
	assert.Empty(t, res.ErrorKind)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestRunBothFailWithUsageLimits(t *testing.T) {
	primary := &scriptedProvider{chat: fail(&ProviderError{Kind: KindRateLimit})}
	secondary := &scriptedProvider{chat: fail(errors.New("connection refused"))}
	a := newTestAdapter(mapResolver{
		"primary":   {Provider: "p", Model: "primary", Client: primary},
		"secondary": {Provider: "s", Model: "secondary", Client: secondary},
	}, cancel.NewController())

	res := a.Run(context.Background(), Request{SessionID: "s"})
	assert.Equal(t, DefaultMessages().Unavailable, res.Text)
	assert.Equal(t, KindRateLimit, res.ErrorKind)
}

func TestRunGenericFailureAfterFallback(t *testing.T) {
	primary := &scriptedProvider{chat: fail(&ProviderError{Kind: KindServer})}
	secondary := &scriptedProvider{chat: fail(&ProviderError{Kind: KindAuth})}
	a := newTestAdapter(mapResolver{
		"primary":   {Provider: "p", Model: "primary", Client: primary},
		"secondary": {Provider: "s", Model: "secondary", Client: secondary},
	}, cancel.NewController())

	res := a.Run(context.Background(), Request{SessionID: "s"})
	assert.Equal(t, DefaultMessages().Failure, res.Text)
	assert.True(t, res.FellBack)
}

func TestRunParseFailureDoesNotFallBack(t *testing.T) {
	primary := &scriptedProvider{chat: fail(&ProviderError{Kind: KindParse})}
	secondary := &scriptedProvider{chat: text("unused")}
	a := newTestAdapter(mapResolver{
		"primary":   {Provider: "p", Model: "primary", Client: primary},
		"secondary": {Provider: "s", Model: "secondary", Client: secondary},
	}, cancel.NewController())

	res := a.Run(context.Background(), Request{SessionID: "s"})
	assert.Equal(t, DefaultMessages().Rephrase, res.Text)
	assert.Equal(t, 0, secondary.calls)
}

func TestRunToolLoopStopsAtIterationCap(t *testing.T) {
	p := &toolProvider{}
	p.tools = func(n int, _ []Message) (*ToolChatResult, error) {
		return &ToolChatResult{ToolCalls: []ToolCall{{ID: fmt.Sprint(n), Name: "get_candidate", Arguments: json.RawMessage(`{}`)}}}, nil
	}
	tools := &fakeTools{execute: func(ToolCall) ToolOutcome { return ToolOutcome{Content: "{}"} }}
	a := NewAdapter(mapResolver{"primary": {Provider: "p", Model: "primary", Client: p}}, cancel.NewController(),
		AdapterConfig{DefaultModel: "primary"}, logger.NewNopLogger())

	res := a.Run(context.Background(), Request{SessionID: "s", Tools: tools})
	assert.Equal(t, DefaultMessages().Rephrase, res.Text)
	assert.Equal(t, KindParse, res.ErrorKind)
	assert.Equal(t, 5, p.calls)
	assert.Len(t, tools.calls, 5)
}

func TestRunToolResultsFeedNextTurn(t *testing.T) {
	p := &toolProvider{}
	p.tools = func(n int, history []Message) (*ToolChatResult, error) {
		if n == 1 {
			return &ToolChatResult{ToolCalls: []ToolCall{{ID: "c1", Name: "get_candidate"}}}, nil
		}
		last := history[len(history)-1]
		return &ToolChatResult{Content: "saw " + last.Role + ":" + last.Content}, nil
	}
	tools := &fakeTools{execute: func(ToolCall) ToolOutcome { return ToolOutcome{Content: "Jane Doe"} }}
	a := newTestAdapter(mapResolver{"primary": {Provider: "p", Model: "primary", Client: p}}, cancel.NewController())

	res := a.Run(context.Background(), Request{SessionID: "s", Tools: tools, System: "sys"})
	assert.Equal(t, "saw tool:Jane Doe", res.Text)
}

func TestRunStagedToolEndsLoop(t *testing.T) {
	p := &toolProvider{}
	p.tools = func(int, []Message) (*ToolChatResult, error) {
		return &ToolChatResult{ToolCalls: []ToolCall{{ID: "c1", Name: "delete_candidate"}}}, nil
	}
	tools := &fakeTools{execute: func(ToolCall) ToolOutcome {
		return ToolOutcome{Content: "Are you sure you want to delete candidate 42?", Staged: true}
	}}
	a := newTestAdapter(mapResolver{"primary": {Provider: "p", Model: "primary", Client: p}}, cancel.NewController())

	res := a.Run(context.Background(), Request{SessionID: "s", Tools: tools})
	assert.True(t, res.Staged)
	assert.Contains(t, res.Text, "candidate 42")
	assert.Equal(t, 1, p.calls)
}

func TestRunDoesNotFallBackAfterWriteTool(t *testing.T) {
	primary := &toolProvider{}
	primary.tools = func(n int, _ []Message) (*ToolChatResult, error) {
		if n == 1 {
			return &ToolChatResult{ToolCalls: []ToolCall{{ID: "c1", Name: "add_note"}}}, nil
		}
		return nil, &ProviderError{Provider: "p", Kind: KindTimeout, Message: "deadline exceeded"}
	}
	secondary := &toolProvider{}
	secondary.tools = func(int, []Message) (*ToolChatResult, error) {
		return &ToolChatResult{ToolCalls: []ToolCall{{ID: "c2", Name: "add_note"}}}, nil
	}
	tools := &fakeTools{execute: func(ToolCall) ToolOutcome {
		return ToolOutcome{Content: "Note 7 added to candidate 42.", Wrote: true}
	}}
	a := newTestAdapter(mapResolver{
		"primary":   {Provider: "p", Model: "primary", Client: primary},
		"secondary": {Provider: "s", Model: "secondary", Client: secondary},
	}, cancel.NewController())

	res := a.Run(context.Background(), Request{SessionID: "s", Tools: tools})
	assert.Equal(t, []string{"add_note"}, tools.calls)
	assert.False(t, res.FellBack)
	assert.Equal(t, KindTimeout, res.ErrorKind)
	assert.Equal(t, DefaultMessages().Failure, res.Text)
	assert.Equal(t, 0, secondary.calls)
}

func TestRunFallsBackAfterReadOnlyTools(t *testing.T) {
	primary := &toolProvider{}
	primary.tools = func(n int, _ []Message) (*ToolChatResult, error) {
		if n == 1 {
			return &ToolChatResult{ToolCalls: []ToolCall{{ID: "c1", Name: "get_candidate"}}}, nil
		}
		return nil, &ProviderError{Provider: "p", Kind: KindServer}
	}
	secondary := &toolProvider{}
	secondary.tools = func(int, []Message) (*ToolChatResult, error) {
		return &ToolChatResult{Content: "Jane Doe is in screening."}, nil
	}
	tools := &fakeTools{execute: func(ToolCall) ToolOutcome { return ToolOutcome{Content: "Jane Doe"} }}
	a := newTestAdapter(mapResolver{
		"primary":   {Provider: "p", Model: "primary", Client: primary},
		"secondary": {Provider: "s", Model: "secondary", Client: secondary},
	}, cancel.NewController())

	res := a.Run(context.Background(), Request{SessionID: "s", Tools: tools})
	assert.True(t, res.FellBack)
	assert.Equal(t, "Jane Doe is in screening.", res.Text)
}

func TestRunWithoutToolSupportUsesPlainChat(t *testing.T) {
	p := &scriptedProvider{chat: text("plain")}
	tools := &fakeTools{execute: func(ToolCall) ToolOutcome { return ToolOutcome{} }}
	a := newTestAdapter(mapResolver{"primary": {Provider: "p", Model: "primary", Client: p}}, cancel.NewController())

	res := a.Run(context.Background(), Request{SessionID: "s", Tools: tools})
	assert.Equal(t, "plain", res.Text)
	assert.Empty(t, tools.calls)
}

func TestRunBusyWhenTaskRegistered(t *testing.T) {
	c := cancel.NewController()
	_, err := c.Register("s", "bulk")
	require.NoError(t, err)

	p := &scriptedProvider{chat: text("unused")}
	a := newTestAdapter(mapResolver{"primary": {Provider: "p", Model: "primary", Client: p}}, c)

	res := a.Run(context.Background(), Request{SessionID: "s"})
	assert.True(t, res.Busy)
	assert.Equal(t, 0, p.calls)
}

func TestRunObservesCancellationBetweenSteps(t *testing.T) {
	c := cancel.NewController()
	p := &toolProvider{}
	p.tools = func(int, []Message) (*ToolChatResult, error) {
		return &ToolChatResult{ToolCalls: []ToolCall{{ID: "c1", Name: "get_candidate"}}}, nil
	}
	tools := &fakeTools{execute: func(ToolCall) ToolOutcome {
		c.RequestCancel("s")
		return ToolOutcome{Content: "{}"}
	}}
	a := newTestAdapter(mapResolver{"primary": {Provider: "p", Model: "primary", Client: p}}, c)

	res := a.Run(context.Background(), Request{SessionID: "s", Tools: tools})
	assert.True(t, res.Cancelled)
	assert.Equal(t, DefaultMessages().Cancelled, res.Text)
	assert.Equal(t, 1, p.calls)
	assert.False(t, c.IsRunning("s"))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, ErrorKind(""), Classify(nil))
	assert.Equal(t, KindTimeout, Classify(fmt.Errorf("call: %w", context.DeadlineExceeded)))
	assert.Equal(t, KindParse, Classify(fmt.Errorf("loop: %w", ErrIterationLimit)))
	assert.Equal(t, KindQuota, Classify(NewHTTPError("p", "m", 429, []byte("insufficient credits"))))
	assert.Equal(t, KindUnknown, Classify(errors.New("boom")))

	var se *json.SyntaxError
	err := json.Unmarshal([]byte("{"), &struct{}{})
	require.ErrorAs(t, err, &se)
	assert.Equal(t, KindParse, Classify(err))
}

func TestRouteModel(t *testing.T) {
	p, m := RouteModel("azure/prod")
	assert.Equal(t, ProviderAzure, p)
	assert.Equal(t, "prod", m)
	p, _ = RouteModel("qwen/qwen3-235b-a22b-07-25:free")
	assert.Equal(t, ProviderOpenRouter, p)
}

func TestCatalogue(t *testing.T) {
	caps := NewCapabilities([]string{"openai/gpt-4o"})
	list := caps.Catalogue("openai/gpt-4o", "qwen/qwen3-235b-a22b-07-25:free", []string{"openai/gpt-4o", "claude-sonnet-4-5"})
	require.Len(t, list, 3)
	assert.True(t, list[0].ToolCalling)
	assert.True(t, list[0].Default)
	assert.True(t, list[1].Fallback)
	assert.Equal(t, ProviderAnthropic, list[2].Provider)
}
