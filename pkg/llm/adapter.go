package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hr-assistant-be/internal/pkg/logger"
	"hr-assistant-be/pkg/ai/cancel"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const moduleName = "LLM"

var errCancelled = errors.New("run cancelled")

// Target is a resolved backend for one model id.
type Target struct {
	Provider string
	Model    string
	Client   LLMProvider
}

// Resolver turns a model id into a Target.
type Resolver interface {
	Resolve(modelID string) (Target, error)
}

// ToolOutcome is the result of running one tool call. Staged outcomes end the
// tool loop; their Content is returned to the user as is. Wrote is set when
// the call changed records, which rules out replaying the run elsewhere.
type ToolOutcome struct {
	Content string
	Staged  bool
	IsError bool
	Wrote   bool
}

// ToolExecutor exposes a tool set bound to one session and caller.
type ToolExecutor interface {
	Definitions() []ToolDef
	Execute(ctx context.Context, call ToolCall) ToolOutcome
}

// Messages are the fixed replies used when a run cannot produce an answer.
type Messages struct {
	Rephrase    string
	Unavailable string
	Failure     string
	Cancelled   string
	Busy        string
}

func DefaultMessages() Messages {
	return Messages{
		Rephrase:    "I'm having trouble processing that request. Could you please rephrase your question or try a simpler request?",
		Unavailable: "Sorry, our AI service is temporarily unavailable due to usage limits. Please try again later or contact support if this persists.",
		Failure:     "Sorry, I couldn't reach the AI service right now. Please try again in a moment.",
		Cancelled:   "The request was cancelled.",
		Busy:        "I'm still working on your previous request. Please wait for it to finish or cancel it first.",
	}
}

type AdapterConfig struct {
	DefaultModel      string
	FallbackModel     string
	Timeout           time.Duration
	MaxToolIterations int
	Temperature       float64
	MaxTokens         int
	Messages          Messages
}

// Request is one model run.
type Request struct {
	SessionID   string
	Model       string
	System      string
	History     []Message // oldest first, the new user turn last
	Tools       ToolExecutor
	Description string
}

// Result always carries user-facing Text; failures are folded into it.
type Result struct {
	Text      string
	Provider  string
	Model     string
	FellBack  bool
	Cancelled bool
	Busy      bool
	Staged    bool
	ErrorKind ErrorKind
}

type Adapter struct {
	resolver Resolver
	cancels  *cancel.Controller
	cfg      AdapterConfig
	logger   logger.ILogger
	tracer   trace.Tracer
}

func NewAdapter(resolver Resolver, cancels *cancel.Controller, cfg AdapterConfig, log logger.ILogger) *Adapter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxToolIterations <= 0 {
		cfg.MaxToolIterations = 5
	}
	if cfg.Messages == (Messages{}) {
		cfg.Messages = DefaultMessages()
	}
	return &Adapter{
		resolver: resolver,
		cancels:  cancels,
		cfg:      cfg,
		logger:   log,
		tracer:   otel.Tracer("hr-assistant-be/llm"),
	}
}

type runOutput struct {
	text   string
	staged bool
	wrote  bool
}

// Run registers a cancellable task for the session, invokes the primary
// model and falls back once to the secondary model on provider failure.
func (a *Adapter) Run(ctx context.Context, req Request) *Result {
	modelID := req.Model
	if modelID == "" {
		modelID = a.cfg.DefaultModel
	}

	ctx, span := a.tracer.Start(ctx, "llm.adapter", trace.WithAttributes(
		attribute.String("llm.model", modelID),
		attribute.Bool("llm.tools", req.Tools != nil),
	))
	defer span.End()

	var handle *cancel.TaskHandle
	if a.cancels != nil {
		desc := req.Description
		if desc == "" {
			desc = "model call"
		}
		h, err := a.cancels.Register(req.SessionID, desc)
		if err != nil {
			return &Result{Text: a.cfg.Messages.Busy, Busy: true, Model: modelID}
		}
		handle = h
		defer a.cancels.Finish(handle)
	}

	primary, err := a.resolver.Resolve(modelID)
	var out runOutput
	if err == nil {
		out, err = a.attempt(ctx, handle, primary, req)
		if err == nil {
			span.SetAttributes(attribute.String("llm.provider", primary.Provider))
			return &Result{Text: out.text, Staged: out.staged, Provider: primary.Provider, Model: primary.Model}
		}
	}
	if errors.Is(err, errCancelled) {
		return a.cancelled(primary)
	}

	kind := Classify(err)
	span.RecordError(err)
	a.logger.Warn(moduleName, "Primary model failed", map[string]interface{}{
		"model":      modelID,
		"error_type": string(kind),
		"error":      err.Error(),
	})

	if out.wrote {
		a.logger.Warn(moduleName, "Not falling back after record writes", map[string]interface{}{"model": modelID})
		span.SetStatus(codes.Error, string(kind))
		return a.failure(kind, primary)
	}

	fallbackID := a.cfg.FallbackModel
	if !kind.ShouldFallback() || fallbackID == "" || fallbackID == modelID {
		span.SetStatus(codes.Error, string(kind))
		return a.failure(kind, primary)
	}

	secondary, rerr := a.resolver.Resolve(fallbackID)
	if rerr != nil {
		span.SetStatus(codes.Error, "fallback unresolved")
		return a.failure(kind, primary)
	}
	fallbacksTotal.Inc()
	a.logger.Info(moduleName, "Falling back to secondary model", map[string]interface{}{
		"from": modelID,
		"to":   fallbackID,
	})

	out, err = a.attempt(ctx, handle, secondary, req)
	if err == nil {
		span.SetAttributes(attribute.String("llm.provider", secondary.Provider), attribute.Bool("llm.fallback", true))
		return &Result{Text: out.text, Staged: out.staged, Provider: secondary.Provider, Model: secondary.Model, FellBack: true}
	}
	if errors.Is(err, errCancelled) {
		return a.cancelled(secondary)
	}

	fkind := Classify(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(fkind))
	a.logger.Error(moduleName, "Secondary model failed", map[string]interface{}{
		"model":      fallbackID,
		"error_type": string(fkind),
		"error":      err.Error(),
	})
	// Usage-limit failures on either side keep the specific message.
	if kind.Unavailable() && !fkind.Unavailable() {
		fkind = kind
	}
	res := a.failure(fkind, secondary)
	res.FellBack = true
	return res
}

func (a *Adapter) cancelled(t Target) *Result {
	return &Result{Text: a.cfg.Messages.Cancelled, Cancelled: true, Provider: t.Provider, Model: t.Model}
}

func (a *Adapter) failure(kind ErrorKind, t Target) *Result {
	text := a.cfg.Messages.Failure
	switch {
	case kind.Unavailable():
		text = a.cfg.Messages.Unavailable
	case kind == KindParse:
		text = a.cfg.Messages.Rephrase
	}
	return &Result{Text: text, ErrorKind: kind, Provider: t.Provider, Model: t.Model}
}

// attempt runs one provider end to end, recording metrics.
func (a *Adapter) attempt(ctx context.Context, h *cancel.TaskHandle, t Target, req Request) (runOutput, error) {
	if h != nil && h.IsCancelled() {
		return runOutput{}, errCancelled
	}
	start := time.Now()
	callsTotal.WithLabelValues(t.Provider).Inc()

	out, err := a.invoke(ctx, h, t, req)

	callDuration.WithLabelValues(t.Provider).Observe(time.Since(start).Seconds())
	if err != nil && !errors.Is(err, errCancelled) {
		errorsTotal.WithLabelValues(string(Classify(err))).Inc()
	}
	return out, err
}

func (a *Adapter) invoke(ctx context.Context, h *cancel.TaskHandle, t Target, req Request) (runOutput, error) {
	msgs := make([]Message, 0, len(req.History)+1)
	if req.System != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: req.System})
	}
	msgs = append(msgs, req.History...)

	opts := []Option{WithModel(t.Model)}
	if a.cfg.Temperature > 0 {
		opts = append(opts, WithTemperature(a.cfg.Temperature))
	}
	if a.cfg.MaxTokens > 0 {
		opts = append(opts, WithMaxTokens(a.cfg.MaxTokens))
	}

	tp, canTools := t.Client.(ToolCallingProvider)
	if req.Tools == nil || !canTools {
		text, err := a.chat(ctx, t.Client, msgs, opts)
		if err != nil {
			return runOutput{}, err
		}
		if text == "" {
			return runOutput{}, &ProviderError{Provider: t.Provider, Model: t.Model, Message: "empty completion", Kind: KindParse}
		}
		return runOutput{text: text}, nil
	}

	defs := req.Tools.Definitions()
	// wrote survives into failed outputs so Run can refuse to replay writes.
	var wrote bool
	for i := 0; i < a.cfg.MaxToolIterations; i++ {
		if h != nil && h.IsCancelled() {
			return runOutput{wrote: wrote}, errCancelled
		}
		turn, err := a.chatWithTools(ctx, tp, msgs, defs, opts)
		if err != nil {
			return runOutput{wrote: wrote}, err
		}
		if len(turn.ToolCalls) == 0 {
			if turn.Content == "" {
				return runOutput{wrote: wrote}, &ProviderError{Provider: t.Provider, Model: t.Model, Message: "empty completion", Kind: KindParse}
			}
			return runOutput{text: turn.Content, wrote: wrote}, nil
		}

		msgs = append(msgs, Message{Role: RoleAssistant, Content: turn.Content, ToolCalls: turn.ToolCalls})
		for _, call := range turn.ToolCalls {
			if h != nil && h.IsCancelled() {
				return runOutput{wrote: wrote}, errCancelled
			}
			outcome := req.Tools.Execute(ctx, call)
			wrote = wrote || outcome.Wrote
			a.logger.Debug(moduleName, "Tool executed", map[string]interface{}{
				"tool":   call.Name,
				"staged": outcome.Staged,
				"error":  outcome.IsError,
			})
			if outcome.Staged {
				return runOutput{text: outcome.Content, staged: true, wrote: wrote}, nil
			}
			msgs = append(msgs, Message{Role: RoleTool, ToolCallID: call.ID, Content: outcome.Content})
		}
	}
	return runOutput{wrote: wrote}, fmt.Errorf("%s after %d rounds: %w", t.Model, a.cfg.MaxToolIterations, ErrIterationLimit)
}

func (a *Adapter) chat(ctx context.Context, p LLMProvider, msgs []Message, opts []Option) (string, error) {
	callCtx, cancelFn := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancelFn()
	return p.Chat(callCtx, msgs, opts...)
}

func (a *Adapter) chatWithTools(ctx context.Context, p ToolCallingProvider, msgs []Message, defs []ToolDef, opts []Option) (*ToolChatResult, error) {
	callCtx, cancelFn := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancelFn()
	return p.ChatWithTools(callCtx, msgs, defs, opts...)
}
