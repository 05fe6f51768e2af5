package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metacx/internal/types"
)

func validConfig(t *testing.T) *types.CXAgentConfig {
	t.Helper()
	res, err := New(nil, nil).CreateAgent(context.Background(), bookingRequest())
	require.NoError(t, err)
	return res.Config
}

func TestValidateConfigAcceptsGenerated(t *testing.T) {
	assert.NoError(t, ValidateConfig(validConfig(t)))
}

func TestValidateConfigPersona(t *testing.T) {
	cfg := validConfig(t)
	cfg.Persona.SystemPrompt = ""
	assert.ErrorContains(t, ValidateConfig(cfg), "persona")
}

func TestValidateConfigVoice(t *testing.T) {
	cfg := validConfig(t)
	cfg.Voice.VoiceID = ""
	assert.ErrorContains(t, ValidateConfig(cfg), "voice")
}

func TestValidateConfigDuplicateIntent(t *testing.T) {
	cfg := validConfig(t)
	cfg.Intents = append(cfg.Intents, cfg.Intents[0])
	assert.ErrorContains(t, ValidateConfig(cfg), "duplicate intent")
}

func TestValidateConfigDuplicateFunction(t *testing.T) {
	cfg := validConfig(t)
	cfg.Functions = append(cfg.Functions, cfg.Functions[0])
	assert.ErrorContains(t, ValidateConfig(cfg), "duplicate function")
}

func TestValidateConfigMissingEntryNode(t *testing.T) {
	cfg := validConfig(t)
	cfg.ConversationFlow.EntryNodeID = "node_missing"
	assert.ErrorContains(t, ValidateConfig(cfg), "entry node")
}

func TestValidateConfigDanglingTransition(t *testing.T) {
	cfg := validConfig(t)
	nodes := cfg.ConversationFlow.Nodes
	require.NotEmpty(t, nodes[0].Transitions)
	nodes[0].Transitions[0].TargetNodeID = "node_missing"
	assert.ErrorContains(t, ValidateConfig(cfg), "missing node")
}

func TestValidateConfigUndefinedFunctionCall(t *testing.T) {
	cfg := validConfig(t)
	for i := range cfg.ConversationFlow.Nodes {
		if cfg.ConversationFlow.Nodes[i].Type == types.NodeAPICall {
			cfg.ConversationFlow.Nodes[i].FunctionCall = "not_a_function"
			break
		}
	}
	assert.ErrorContains(t, ValidateConfig(cfg), "undefined function")
}

func TestValidateConfigFunctionCallOnAnyNodeType(t *testing.T) {
	cfg := validConfig(t)
	for i := range cfg.ConversationFlow.Nodes {
		if cfg.ConversationFlow.Nodes[i].Type == types.NodeResponse {
			cfg.ConversationFlow.Nodes[i].FunctionCall = "not_a_function"
			break
		}
	}
	assert.ErrorContains(t, ValidateConfig(cfg), "undefined function")
}

func TestValidateConfigNoEndNode(t *testing.T) {
	cfg := validConfig(t)
	var kept []types.FlowNode
	for _, n := range cfg.ConversationFlow.Nodes {
		if n.Type != types.NodeEnd {
			kept = append(kept, n)
		}
	}
	cfg.ConversationFlow.Nodes = kept
	// Dropping the end node also dangles transitions; either way it must fail.
	assert.Error(t, ValidateConfig(cfg))
}
