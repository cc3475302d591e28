package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"hr-assistant-be/pkg/llm"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultMaxTokens = 2048

// Provider calls Claude models through the official SDK.
type Provider struct {
	client *sdk.Client
	model  string
}

var _ llm.ToolCallingProvider = (*Provider)(nil)

func NewAnthropicProvider(apiKey, baseURL, model string) *Provider {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	// Retries are owned by the adapter's fallback.
	opts = append(opts, option.WithMaxRetries(0))
	client := sdk.NewClient(opts...)
	return &Provider{client: &client, model: model}
}

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
	options := llm.ApplyOptions(llm.Options{Model: p.model, MaxTokens: defaultMaxTokens}, opts...)

	system, rest := llm.SplitSystem(history)
	params := sdk.MessageNewParams{
		Model:     sdk.Model(options.Model),
		MaxTokens: int64(options.MaxTokens),
		Messages:  toMessageParams(rest),
	}
	if system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}
	if options.Temperature > 0 {
		params.Temperature = sdk.Float(options.Temperature)
	}
	for _, t := range tools {
		props, _ := t.Parameters["properties"].(map[string]interface{})
		if props == nil {
			props = map[string]interface{}{}
		}
		params.Tools = append(params.Tools, sdk.ToolUnionParam{
			OfTool: &sdk.ToolParam{
				Name:        t.Name,
				Description: sdk.String(t.Description),
				InputSchema: sdk.ToolInputSchemaParam{Properties: props},
			},
		})
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, p.wrapError(options.Model, err)
	}

	result := &llm.ToolChatResult{StopReason: string(message.StopReason)}
	for _, block := range message.Content {
		switch v := block.AsAny().(type) {
		case sdk.TextBlock:
			result.Content += v.Text
		case sdk.ToolUseBlock:
			input, _ := json.Marshal(v.Input)
			result.ToolCalls = append(result.ToolCalls, llm.ToolCall{
				ID:        v.ID,
				Name:      v.Name,
				Arguments: input,
			})
		}
	}
	return result, nil
}

func (p *Provider) wrapError(model string, err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return llm.NewHTTPError(llm.ProviderAnthropic, model, apiErr.StatusCode, []byte(apiErr.Error()))
	}
	return fmt.Errorf("anthropic request failed: %w", err)
}

// toMessageParams converts the history. Consecutive tool results are folded
// into one user turn as the Messages API requires.
func toMessageParams(history []llm.Message) []sdk.MessageParam {
	var out []sdk.MessageParam
	var pendingResults []sdk.ContentBlockParamUnion

	flush := func() {
		if len(pendingResults) > 0 {
			out = append(out, sdk.NewUserMessage(pendingResults...))
			pendingResults = nil
		}
	}

	for _, m := range history {
		switch m.Role {
		case llm.RoleTool:
			pendingResults = append(pendingResults, sdk.NewToolResultBlock(m.ToolCallID, m.Content, false))
		case llm.RoleAssistant, "model":
			flush()
			var blocks []sdk.ContentBlockParamUnion
			if m.Content != "" {
				blocks = append(blocks, sdk.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				var input interface{} = map[string]interface{}{}
				if len(tc.Arguments) > 0 {
					if err := json.Unmarshal(tc.Arguments, &input); err != nil {
						input = map[string]interface{}{}
					}
				}
				blocks = append(blocks, sdk.NewToolUseBlock(tc.ID, input, tc.Name))
			}
			if len(blocks) > 0 {
				out = append(out, sdk.NewAssistantMessage(blocks...))
			}
		default:
			flush()
			if m.Content != "" {
				out = append(out, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
			}
		}
	}
	flush()
	return out
}
