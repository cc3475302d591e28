package llm

import "strings"

const (
	ProviderOpenRouter  = "openrouter"
	ProviderAzure       = "azure"
	ProviderAnthropic   = "anthropic"
	ProviderOllama      = "ollama"
	ProviderHuggingFace = "huggingface"
)

// RouteModel maps a model id to the backend that serves it and the model name
// that backend expects.
//
//	azure/<deployment>  -> azure
//	ollama/<model>      -> ollama
//	hf/<model>          -> huggingface
//	claude-*            -> anthropic
//	anything else       -> openrouter
func RouteModel(modelID string) (provider, model string) {
	switch {
	case strings.HasPrefix(modelID, "azure/"):
		return ProviderAzure, strings.TrimPrefix(modelID, "azure/")
	case strings.HasPrefix(modelID, "ollama/"):
		return ProviderOllama, strings.TrimPrefix(modelID, "ollama/")
	case strings.HasPrefix(modelID, "hf/"):
		return ProviderHuggingFace, strings.TrimPrefix(modelID, "hf/")
	case strings.HasPrefix(modelID, "claude-"):
		return ProviderAnthropic, modelID
	}
	return ProviderOpenRouter, modelID
}

// DefaultToolCallingModels lists models known to support OpenAI-style function calling.
func DefaultToolCallingModels() []string {
	return []string{
		"openai/gpt-3.5-turbo",
		"openai/gpt-3.5-turbo-0125",
		"openai/gpt-3.5-turbo-1106",
		"openai/gpt-4-turbo",
		"openai/gpt-4-0125-preview",
		"openai/gpt-4-1106-preview",
		"openai/gpt-4o",
		"openai/gpt-4o-mini",
		"openai/gpt-4",
		"qwen/qwen1.5-110b-chat",
		"qwen/qwen1.5-72b-chat",
		"qwen/qwen1.5-32b-chat",
		"qwen/qwen1.5-14b-chat",
		"qwen/qwen1.5-7b-chat",
		"anthropic/claude-3-opus-20240229",
		"anthropic/claude-3-sonnet-20240229",
		"anthropic/claude-3-haiku-20240307",
		"anthropic/claude-2.1",
		"anthropic/claude-2.0",
		"mistralai/mistral-large-latest",
		"mistralai/mistral-medium",
		"mistralai/mistral-small",
		"google/gemini-pro",
		"cohere/command-r",
		"claude-3-5-haiku-latest",
		"claude-sonnet-4-5",
	}
}

// Capabilities is the configured set of tool-calling models.
type Capabilities struct {
	toolCalling map[string]struct{}
}

func NewCapabilities(toolCallingModels []string) *Capabilities {
	c := &Capabilities{toolCalling: make(map[string]struct{}, len(toolCallingModels))}
	for _, m := range toolCallingModels {
		m = strings.TrimSpace(m)
		if m != "" {
			c.toolCalling[m] = struct{}{}
		}
	}
	return c
}

func (c *Capabilities) SupportsTools(modelID string) bool {
	if c == nil {
		return false
	}
	_, ok := c.toolCalling[modelID]
	return ok
}

// ModelInfo is one entry of the model catalogue.
type ModelInfo struct {
	ID          string `json:"id"`
	Provider    string `json:"provider"`
	ToolCalling bool   `json:"tool_calling"`
	Default     bool   `json:"default"`
	Fallback    bool   `json:"fallback"`
}

// Catalogue lists the configured models, de-duplicated, in first-seen order.
func (c *Capabilities) Catalogue(defaultModel, fallbackModel string, extra []string) []ModelInfo {
	seen := make(map[string]bool)
	var out []ModelInfo
	add := func(id string) {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		provider, _ := RouteModel(id)
		out = append(out, ModelInfo{
			ID:          id,
			Provider:    provider,
			ToolCalling: c.SupportsTools(id),
			Default:     id == defaultModel,
			Fallback:    id == fallbackModel,
		})
	}
	add(defaultModel)
	add(fallbackModel)
	for _, id := range extra {
		add(id)
	}
	return out
}
