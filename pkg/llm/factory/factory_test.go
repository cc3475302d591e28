package factory

import (
	"testing"

	"hr-assistant-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRoutesByPrefix(t *testing.T) {
	r := NewRegistry(Credentials{
		AzureKey:      "k",
		AzureEndpoint: "https://example.openai.azure.com",
		AnthropicKey:  "k",
	})

	cases := []struct {
		id       string
		provider string
		model    string
		tools    bool
	}{
		{"openai/gpt-4o", llm.ProviderOpenRouter, "openai/gpt-4o", true},
		{"azure/gpt4o-prod", llm.ProviderAzure, "gpt4o-prod", true},
		{"ollama/llama3.1", llm.ProviderOllama, "llama3.1", true},
		{"hf/meta-llama/Llama-3.1-8B-Instruct", llm.ProviderHuggingFace, "meta-llama/Llama-3.1-8B-Instruct", false},
		{"claude-sonnet-4-5", llm.ProviderAnthropic, "claude-sonnet-4-5", true},
	}
	for _, tc := range cases {
		t.Run(tc.id, func(t *testing.T) {
			target, err := r.Resolve(tc.id)
			require.NoError(t, err)
			assert.Equal(t, tc.provider, target.Provider)
			assert.Equal(t, tc.model, target.Model)
			_, ok := target.Client.(llm.ToolCallingProvider)
			assert.Equal(t, tc.tools, ok)
		})
	}
}

func TestResolveReusesBackend(t *testing.T) {
	r := NewRegistry(Credentials{})
	a, err := r.Resolve("openai/gpt-4o")
	require.NoError(t, err)
	b, err := r.Resolve("qwen/qwen3-235b-a22b-07-25:free")
	require.NoError(t, err)
	assert.Same(t, a.Client, b.Client)
	assert.Equal(t, "qwen/qwen3-235b-a22b-07-25:free", b.Model)
}

func TestResolveMissingCredentials(t *testing.T) {
	r := NewRegistry(Credentials{})
	_, err := r.Resolve("azure/x")
	assert.Error(t, err)
	_, err = r.Resolve("claude-sonnet-4-5")
	assert.Error(t, err)
}
