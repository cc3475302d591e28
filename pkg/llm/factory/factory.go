package factory

import (
	"fmt"
	"sync"

	"hr-assistant-be/pkg/llm"
	"hr-assistant-be/pkg/llm/anthropic"
	"hr-assistant-be/pkg/llm/huggingface"
	"hr-assistant-be/pkg/llm/ollama"
	"hr-assistant-be/pkg/llm/openai"
)

// Credentials holds per-backend keys and endpoints.
type Credentials struct {
	OpenRouterKey   string
	OpenRouterURL   string
	AzureKey        string
	AzureEndpoint   string
	AzureAPIVersion string
	AnthropicKey    string
	AnthropicURL    string
	HuggingFaceKey  string
	HuggingFaceURL  string
	OllamaURL       string
}

func NewLLMProvider(providerType, modelName string, creds Credentials) (llm.LLMProvider, error) {
	switch providerType {
	case llm.ProviderOpenRouter:
		return openai.NewOpenRouterProvider(creds.OpenRouterKey, creds.OpenRouterURL, modelName), nil
	case llm.ProviderAzure:
		if creds.AzureEndpoint == "" || creds.AzureKey == "" {
			return nil, fmt.Errorf("azure provider requires AZURE_OPENAI_ENDPOINT and AZURE_OPENAI_API_KEY")
		}
		return openai.NewAzureProvider(creds.AzureKey, creds.AzureEndpoint, creds.AzureAPIVersion, modelName), nil
	case llm.ProviderAnthropic:
		if creds.AnthropicKey == "" {
			return nil, fmt.Errorf("anthropic provider requires ANTHROPIC_API_KEY")
		}
		return anthropic.NewAnthropicProvider(creds.AnthropicKey, creds.AnthropicURL, modelName), nil
	case llm.ProviderHuggingFace:
		return huggingface.NewHuggingFaceProvider(creds.HuggingFaceKey, creds.HuggingFaceURL, modelName), nil
	case llm.ProviderOllama:
		return ollama.NewOllamaProvider(creds.OllamaURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}

// Registry resolves model ids to providers, building each backend once.
type Registry struct {
	creds Credentials

	mu        sync.Mutex
	providers map[string]llm.LLMProvider
}

var _ llm.Resolver = (*Registry)(nil)

func NewRegistry(creds Credentials) *Registry {
	return &Registry{
		creds:     creds,
		providers: make(map[string]llm.LLMProvider),
	}
}

func (r *Registry) Resolve(modelID string) (llm.Target, error) {
	providerType, model := llm.RouteModel(modelID)
	if model == "" {
		return llm.Target{}, fmt.Errorf("empty model id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.providers[providerType]
	if !ok {
		var err error
		p, err = NewLLMProvider(providerType, model, r.creds)
		if err != nil {
			return llm.Target{}, err
		}
		r.providers[providerType] = p
	}
	return llm.Target{Provider: providerType, Model: model, Client: p}, nil
}
