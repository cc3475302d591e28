package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hr-assistant-be/internal/constant"
	"hr-assistant-be/internal/dto"
	"hr-assistant-be/internal/pkg/logger"
	"hr-assistant-be/internal/repository/contract"
	"hr-assistant-be/pkg/ai/cancel"
	"hr-assistant-be/pkg/ai/confirm"
	"hr-assistant-be/pkg/ai/router"
	"hr-assistant-be/pkg/llm"
	"hr-assistant-be/pkg/recordclient"
	"hr-assistant-be/pkg/store"
)

const chatModule = "CHAT"

const defaultActivityLimit = 50

type IChatService interface {
	Chat(ctx context.Context, req *dto.ChatRequest, headerToken string) (*dto.ChatResponse, error)
	Cancel(ctx context.Context, sessionID string) *dto.CancelResponse
	Status(ctx context.Context, sessionID string) *dto.StatusResponse
	DeleteSession(ctx context.Context, sessionID string) error
	Activity(ctx context.Context, sessionID string, limit int) (*dto.ActivityResponse, error)
	Models() *dto.ModelsResponse
}

// ChatSessions is the session store as seen by the chat flow.
type ChatSessions interface {
	WithSession(id string, fn func(*store.Session) error) error
	Exists(id string) bool
	Clear(id string) bool
}

type Confirmer interface {
	Handle(ctx context.Context, sessionID, token, text string) confirm.Outcome
}

type IntentExecutor interface {
	Execute(ctx context.Context, sessionID, token string, in *router.Intent) (string, error)
}

type ModelRunner interface {
	Run(ctx context.Context, req llm.Request) *llm.Result
}

type ToolBinder interface {
	Bind(sessionID, token string) llm.ToolExecutor
}

type ChatConfig struct {
	DefaultModel  string
	FallbackModel string
	ExtraModels   []string
	HistoryWindow int
}

type chatService struct {
	sessions ChatSessions
	router   *router.Router
	confirm  Confirmer
	executor IntentExecutor
	model    ModelRunner
	tools    ToolBinder
	caps     *llm.Capabilities
	cancels  *cancel.Controller
	activity contract.ActivityEventRepository
	cfg      ChatConfig
	logger   logger.ILogger
}

func NewChatService(
	sessions ChatSessions,
	r *router.Router,
	confirmer Confirmer,
	executor IntentExecutor,
	model ModelRunner,
	tools ToolBinder,
	caps *llm.Capabilities,
	cancels *cancel.Controller,
	activity contract.ActivityEventRepository,
	cfg ChatConfig,
	log logger.ILogger,
) IChatService {
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 10
	}
	return &chatService{
		sessions: sessions,
		router:   r,
		confirm:  confirmer,
		executor: executor,
		model:    model,
		tools:    tools,
		caps:     caps,
		cancels:  cancels,
		activity: activity,
		cfg:      cfg,
		logger:   log,
	}
}

// turnContext is what the chat flow reads from the session before routing.
type turnContext struct {
	hasPending bool
	history    []store.Turn
}

func (cs *chatService) Chat(ctx context.Context, req *dto.ChatRequest, headerToken string) (*dto.ChatResponse, error) {
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = store.DefaultSessionID
	}
	res := &dto.ChatResponse{SessionID: sessionID}

	text := strings.TrimSpace(req.UserMessage())
	if text == "" {
		res.Response = dto.ChatFailure{Success: false, Message: constant.MsgNoMessage}
		return res, nil
	}
	token := req.AuthToken
	if token == "" {
		token = headerToken
	}
	modelID := req.Model
	if modelID == "" {
		modelID = cs.cfg.DefaultModel
	}

	if cs.cancels.IsRunning(sessionID) {
		res.Response, res.Busy = llm.DefaultMessages().Busy, true
		return res, nil
	}

	var tc turnContext
	err := cs.sessions.WithSession(sessionID, func(s *store.Session) error {
		tc.hasPending = s.HasPending()
		tc.history = s.History.Last(cs.cfg.HistoryWindow)
		s.History.Append(store.Turn{Role: store.RoleUser, Content: text, At: time.Now()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(tc.history) == 0 {
		tc.history = clientHistory(req.Messages, cs.cfg.HistoryWindow)
	}

	toolCalling := cs.caps.SupportsTools(modelID)
	decision := cs.router.Route(router.Input{Text: text, HasPending: tc.hasPending, ToolCalling: toolCalling})

	cs.logger.Info(chatModule, "Routed message", map[string]interface{}{
		"session": logger.SessionFingerprint(sessionID),
		"route":   string(decision.Kind),
		"rule":    string(decision.Rule),
		"model":   modelID,
	})

	reply := cs.dispatch(ctx, sessionID, token, text, modelID, toolCalling, req, decision, tc, res)
	res.Response = reply
	if res.Route == "" {
		res.Route = string(decision.Kind)
	}

	tag := string(decision.Kind)
	if decision.Rule != "" {
		tag = string(decision.Rule)
	}
	err = cs.sessions.WithSession(sessionID, func(s *store.Session) error {
		s.History.Append(store.Turn{Role: store.RoleAssistant, Content: reply, At: time.Now()})
		s.AddPattern(tag)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (cs *chatService) dispatch(
	ctx context.Context,
	sessionID, token, text, modelID string,
	toolCalling bool,
	req *dto.ChatRequest,
	decision router.Decision,
	tc turnContext,
	res *dto.ChatResponse,
) string {
	switch decision.Kind {
	case router.KindGreeting, router.KindClarification:
		return decision.Text

	case router.KindConfirmationReply:
		out := cs.confirm.Handle(ctx, sessionID, token, text)
		if !out.Handled {
			// the pending action was resolved by a concurrent request
			redo := cs.router.Route(router.Input{Text: text, ToolCalling: toolCalling})
			res.Route = string(redo.Kind)
			return cs.dispatch(ctx, sessionID, token, text, modelID, toolCalling, req, redo, tc, res)
		}
		res.State = string(out.State)
		res.Summary = out.Summary
		res.Busy = out.State == confirm.StateBusy
		res.Cancelled = out.Summary != nil && out.Summary.Cancelled
		return out.Text

	case router.KindStructured:
		intent := decision.Intent
		if intent.Page == 0 && req.Page > 0 {
			intent.Page = req.Page
		}
		reply, err := cs.executor.Execute(ctx, sessionID, token, intent)
		if err != nil {
			cs.logger.Warn(chatModule, "Structured intent failed", map[string]interface{}{
				"session": logger.SessionFingerprint(sessionID),
				"intent":  string(intent.Name),
				"error":   err.Error(),
			})
			return fmt.Sprintf("I couldn't complete that request: %s.", strings.TrimSuffix(recordclient.Reason(err), "."))
		}
		return reply
	}

	return cs.freeForm(ctx, sessionID, token, text, modelID, toolCalling, req, tc, res)
}

func (cs *chatService) freeForm(
	ctx context.Context,
	sessionID, token, text, modelID string,
	toolCalling bool,
	req *dto.ChatRequest,
	tc turnContext,
	res *dto.ChatResponse,
) string {
	system := req.Prompt
	if system == "" {
		system = constant.DefaultSystemPrompt
		if !toolCalling {
			system = constant.DefaultSystemPromptNoTools
		}
	}

	history := make([]llm.Message, 0, len(tc.history)+1)
	for _, t := range tc.history {
		if t.Role == store.RoleUser || t.Role == store.RoleAssistant {
			history = append(history, llm.Message{Role: t.Role, Content: t.Content})
		}
	}
	history = append(history, llm.Message{Role: llm.RoleUser, Content: text})

	mreq := llm.Request{
		SessionID:   sessionID,
		Model:       modelID,
		System:      system,
		History:     history,
		Description: "chat reply",
	}
	if toolCalling && cs.tools != nil {
		mreq.Tools = cs.tools.Bind(sessionID, token)
	}

	result := cs.model.Run(ctx, mreq)
	res.Model = result.Model
	res.FellBack = result.FellBack
	res.Cancelled = result.Cancelled
	res.Busy = result.Busy
	if result.Staged {
		res.State = string(confirm.StateAwaiting)
	}
	return result.Text
}

func (cs *chatService) Cancel(ctx context.Context, sessionID string) *dto.CancelResponse {
	if sessionID == "" {
		sessionID = store.DefaultSessionID
	}
	if !cs.cancels.RequestCancel(sessionID) {
		return &dto.CancelResponse{Success: false, Message: constant.MsgNothingToCancel}
	}
	cs.logger.Info(chatModule, "Cancellation requested", map[string]interface{}{"session": logger.SessionFingerprint(sessionID)})
	return &dto.CancelResponse{Success: true, Message: constant.MsgCancelRequested}
}

func (cs *chatService) Status(ctx context.Context, sessionID string) *dto.StatusResponse {
	out := &dto.StatusResponse{SessionID: sessionID}
	if st, running := cs.cancels.Status(sessionID); running {
		started := st.StartedAt
		out.Running = true
		out.Cancelled = st.Cancelled
		out.TaskID = st.TaskID
		out.Description = st.Description
		out.StartedAt = &started
	}
	if cs.sessions.Exists(sessionID) {
		_ = cs.sessions.WithSession(sessionID, func(s *store.Session) error {
			out.HasPending = s.HasPending()
			return nil
		})
	}
	return out
}

// DeleteSession flags any running task and drops the session state.
func (cs *chatService) DeleteSession(ctx context.Context, sessionID string) error {
	cs.cancels.RequestCancel(sessionID)
	cs.cancels.Clear(sessionID)
	existed := cs.sessions.Clear(sessionID)
	if cs.activity != nil {
		if err := cs.activity.DeleteBySession(ctx, sessionID); err != nil {
			return err
		}
	}
	cs.logger.Info(chatModule, "Session deleted", map[string]interface{}{
		"session": logger.SessionFingerprint(sessionID),
		"existed": existed,
	})
	return nil
}

func (cs *chatService) Activity(ctx context.Context, sessionID string, limit int) (*dto.ActivityResponse, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultActivityLimit
	}
	out := &dto.ActivityResponse{SessionID: sessionID}
	if cs.activity == nil {
		return out, nil
	}
	list, err := cs.activity.FindBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, err
	}
	out.Events = list
	return out, nil
}

func (cs *chatService) Models() *dto.ModelsResponse {
	return &dto.ModelsResponse{Models: cs.caps.Catalogue(cs.cfg.DefaultModel, cs.cfg.FallbackModel, cs.cfg.ExtraModels)}
}

// clientHistory seeds a fresh session with the prior turns the client sent,
// without the newest user message.
func clientHistory(msgs []dto.ChatMessage, window int) []store.Turn {
	last := -1
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == store.RoleUser && msgs[i].Content != "" {
			last = i
			break
		}
	}
	if last <= 0 {
		return nil
	}
	prior := msgs[:last]
	if len(prior) > window {
		prior = prior[len(prior)-window:]
	}
	out := make([]store.Turn, 0, len(prior))
	for _, m := range prior {
		if m.Role == store.RoleUser || m.Role == store.RoleAssistant {
			out = append(out, store.Turn{Role: m.Role, Content: m.Content})
		}
	}
	return out
}
