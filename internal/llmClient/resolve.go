package llmclient

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// BackendConfig is the process-wide model backend decision, resolved once at
// startup and passed explicitly into the pipeline. An empty Provider means
// deterministic mode: no external completion service is used.
type BackendConfig struct {
	Provider string
	Model    string
}

func (c BackendConfig) Enabled() bool { return c.Provider != "" }

// ResolveBackend picks the backend from the environment: MODEL_PROVIDER wins
// when set, otherwise the first provider with an API key configured.
func ResolveBackend() BackendConfig {
	model := strings.TrimSpace(os.Getenv("MODEL_NAME"))
	switch strings.ToLower(strings.TrimSpace(os.Getenv("MODEL_PROVIDER"))) {
	case "gemini":
		return BackendConfig{Provider: "gemini", Model: defaultModel(model, "gemini-2.5-flash")}
	case "openai":
		return BackendConfig{Provider: "openai", Model: defaultModel(model, "gpt-4o")}
	case "none":
		return BackendConfig{}
	}
	if os.Getenv("GEMINI_API_KEY") != "" {
		return BackendConfig{Provider: "gemini", Model: defaultModel(model, "gemini-2.5-flash")}
	}
	if os.Getenv("OPENAI_API_KEY") != "" {
		return BackendConfig{Provider: "openai", Model: defaultModel(model, "gpt-4o")}
	}
	return BackendConfig{}
}

// NewClient builds the configured backend client, or nil when deterministic
// mode is selected.
func (c BackendConfig) NewClient(ctx context.Context) (LLMClient, error) {
	switch c.Provider {
	case "":
		return nil, nil
	case "gemini":
		return NewGeminiClient(ctx, c.Model)
	case "openai":
		return NewOpenAIClient(os.Getenv("OPENAI_API_KEY"), c.Model), nil
	default:
		return nil, fmt.Errorf("llmclient: unknown provider %q", c.Provider)
	}
}

func defaultModel(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}
