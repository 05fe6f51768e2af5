package orchestrator

import (
	"fmt"

	"metacx/internal/types"
)

// ValidateConfig checks the merged config for internal consistency. The
// first violation is returned; a config that fails here is discarded, never
// repaired.
func ValidateConfig(cfg *types.CXAgentConfig) error {
	if cfg.Persona.Name == "" || cfg.Persona.SystemPrompt == "" {
		return fmt.Errorf("config validation: persona is incomplete")
	}
	if cfg.Voice.VoiceID == "" {
		return fmt.Errorf("config validation: no voice selected")
	}

	if err := validateUniqueNames(cfg); err != nil {
		return err
	}
	return validateFlow(cfg)
}

func validateUniqueNames(cfg *types.CXAgentConfig) error {
	intentNames := map[string]bool{}
	for _, in := range cfg.Intents {
		if intentNames[in.Name] {
			return fmt.Errorf("config validation: duplicate intent %q", in.Name)
		}
		intentNames[in.Name] = true
	}
	funcNames := map[string]bool{}
	for _, fn := range cfg.Functions {
		if funcNames[fn.Name] {
			return fmt.Errorf("config validation: duplicate function %q", fn.Name)
		}
		funcNames[fn.Name] = true
	}
	return nil
}

func validateFlow(cfg *types.CXAgentConfig) error {
	flow := &cfg.ConversationFlow

	nodeIDs := map[string]bool{}
	for _, n := range flow.Nodes {
		if nodeIDs[n.NodeID] {
			return fmt.Errorf("config validation: duplicate flow node %q", n.NodeID)
		}
		nodeIDs[n.NodeID] = true
	}

	if !nodeIDs[flow.EntryNodeID] {
		return fmt.Errorf("config validation: entry node %q does not exist", flow.EntryNodeID)
	}

	funcNames := map[string]bool{}
	for _, fn := range cfg.Functions {
		funcNames[fn.Name] = true
	}

	endSeen := false
	for _, n := range flow.Nodes {
		if n.Type == types.NodeEnd {
			endSeen = true
		}
		if n.FunctionCall != "" && !funcNames[n.FunctionCall] {
			return fmt.Errorf("config validation: node %q calls undefined function %q", n.NodeID, n.FunctionCall)
		}
		for _, tr := range n.Transitions {
			if !nodeIDs[tr.TargetNodeID] {
				return fmt.Errorf("config validation: node %q targets missing node %q", n.NodeID, tr.TargetNodeID)
			}
		}
	}
	if !endSeen {
		return fmt.Errorf("config validation: flow has no end node")
	}
	return nil
}
