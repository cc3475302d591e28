package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hr-assistant-be/pkg/llm"
)

const defaultOpenRouterURL = "https://openrouter.ai/api/v1"

// Provider speaks the OpenAI chat-completions protocol. It serves OpenRouter
// and Azure OpenAI deployments.
type Provider struct {
	name      string
	model     string
	endpoint  func(model string) string
	authorize func(req *http.Request)
	client    *http.Client
}

var _ llm.ToolCallingProvider = (*Provider)(nil)

func NewOpenRouterProvider(apiKey, baseURL, model string) *Provider {
	if baseURL == "" {
		baseURL = defaultOpenRouterURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &Provider{
		name:  llm.ProviderOpenRouter,
		model: model,
		endpoint: func(string) string {
			return baseURL + "/chat/completions"
		},
		authorize: func(req *http.Request) {
			if apiKey != "" {
				req.Header.Set("Authorization", "Bearer "+apiKey)
			}
			req.Header.Set("X-Title", "HR Assistant")
		},
		client: &http.Client{Timeout: 120 * time.Second},
	}
}

// NewAzureProvider targets {endpoint}/openai/deployments/{deployment}/chat/completions.
// The model option selects the deployment.
func NewAzureProvider(apiKey, endpoint, apiVersion, deployment string) *Provider {
	endpoint = strings.TrimRight(endpoint, "/")
	if apiVersion == "" {
		apiVersion = "2024-06-01"
	}
	return &Provider{
		name:  llm.ProviderAzure,
		model: deployment,
		endpoint: func(model string) string {
			return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
				endpoint, url.PathEscape(model), url.QueryEscape(apiVersion))
		},
		authorize: func(req *http.Request) {
			req.Header.Set("api-key", apiKey)
		},
		client: &http.Client{Timeout: 120 * time.Second},
	}
}

// --- Wire structs ---

type wireFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type wireToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type wireToolDef struct {
	Type     string `json:"type"`
	Function struct {
		Name        string                 `json:"name"`
		Description string                 `json:"description"`
		Parameters  map[string]interface{} `json:"parameters"`
	} `json:"function"`
}

type chatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []wireMessage `json:"messages"`
	Tools       []wireToolDef `json:"tools,omitempty"`
	ToolChoice  string        `json:"tool_choice,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string         `json:"content"`
			ToolCalls []wireToolCall `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string      `json:"message"`
		Code    interface{} `json:"code"`
	} `json:"error,omitempty"`
}

// --- Interface Implementation ---

func (p *Provider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	res, err := p.ChatWithTools(ctx, history, nil, opts...)
	if err != nil {
		return "", err
	}
	return res.Content, nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

func (p *Provider) ChatWithTools(ctx context.Context, history []llm.Message, tools []llm.ToolDef, opts ...llm.Option) (*llm.ToolChatResult, error) {
	options := llm.ApplyOptions(llm.Options{Model: p.model, Temperature: 0.7}, opts...)

	reqPayload := chatRequest{
		Messages:    toWireMessages(history),
		Temperature: options.Temperature,
		MaxTokens:   options.MaxTokens,
	}
	if p.name != llm.ProviderAzure {
		reqPayload.Model = options.Model
	}
	if len(tools) > 0 {
		reqPayload.Tools = toWireTools(tools)
		reqPayload.ToolChoice = "auto"
	}

	payloadBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(options.Model), bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	p.authorize(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", p.name, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, llm.NewHTTPError(p.name, options.Model, resp.StatusCode, bodyBytes)
	}

	var out chatResponse
	if err := json.Unmarshal(bodyBytes, &out); err != nil {
		return nil, &llm.ProviderError{Provider: p.name, Model: options.Model, Message: "decode response: " + err.Error(), Kind: llm.KindParse}
	}
	// OpenRouter reports upstream failures inside a 200 body.
	if out.Error != nil {
		return nil, llm.NewHTTPError(p.name, options.Model, errorCode(out.Error.Code), []byte(out.Error.Message))
	}
	if len(out.Choices) == 0 {
		return nil, &llm.ProviderError{Provider: p.name, Model: options.Model, Message: "empty choices", Kind: llm.KindParse}
	}

	choice := out.Choices[0]
	result := &llm.ToolChatResult{
		Content:    choice.Message.Content,
		StopReason: choice.FinishReason,
	}
	for _, tc := range choice.Message.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, llm.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: normalizeArguments(tc.Function.Arguments),
		})
	}
	return result, nil
}

func toWireMessages(history []llm.Message) []wireMessage {
	out := make([]wireMessage, 0, len(history))
	for _, m := range history {
		wm := wireMessage{Role: m.Role, Content: m.Content, ToolCallID: m.ToolCallID}
		if wm.Role == "model" {
			wm.Role = llm.RoleAssistant
		}
		for _, tc := range m.ToolCalls {
			wm.ToolCalls = append(wm.ToolCalls, wireToolCall{
				ID:       tc.ID,
				Type:     "function",
				Function: wireFunction{Name: tc.Name, Arguments: string(normalizeArguments(string(tc.Arguments)))},
			})
		}
		out = append(out, wm)
	}
	return out
}

func toWireTools(tools []llm.ToolDef) []wireToolDef {
	out := make([]wireToolDef, len(tools))
	for i, t := range tools {
		out[i].Type = "function"
		out[i].Function.Name = t.Name
		out[i].Function.Description = t.Description
		out[i].Function.Parameters = t.Parameters
	}
	return out
}

func normalizeArguments(raw string) json.RawMessage {
	raw = strings.TrimSpace(raw)
	if raw == "" || !json.Valid([]byte(raw)) {
		return json.RawMessage("{}")
	}
	return json.RawMessage(raw)
}

func errorCode(code interface{}) int {
	switch v := code.(type) {
	case float64:
		return int(v)
	case string:
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return http.StatusBadGateway
}
