package types

import (
	"errors"
	"fmt"
	"strings"
)

// MinPromptLength is the minimum accepted length of a trimmed user prompt.
const MinPromptLength = 10

var ErrPromptTooShort = errors.New("user_prompt must be at least 10 characters")

// AgentCreateRequest is the boundary input: a free-text description plus the
// two enumerated options.
type AgentCreateRequest struct {
	UserPrompt string       `json:"user_prompt"`
	Language   LanguageCode `json:"language"`
	Platform   Platform     `json:"platform"`
}

// Validate rejects malformed requests before the pipeline runs.
func (r *AgentCreateRequest) Validate() error {
	if len(strings.TrimSpace(r.UserPrompt)) < MinPromptLength {
		return ErrPromptTooShort
	}
	if !r.Language.Valid() {
		return fmt.Errorf("unsupported language %q", r.Language)
	}
	if !r.Platform.Valid() {
		return fmt.Errorf("unsupported platform %q", r.Platform)
	}
	return nil
}

// AgentCreateResponse carries the generated configuration and its tool
// schema projection.
type AgentCreateResponse struct {
	Success           bool           `json:"success"`
	Message           string         `json:"message"`
	AgentConfig       *CXAgentConfig `json:"agent_config,omitempty"`
	OpenAIToolsSchema []ToolSchema   `json:"openai_tools_schema,omitempty"`
	RawAnalysis       *AnalysisBrief `json:"raw_analysis,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
