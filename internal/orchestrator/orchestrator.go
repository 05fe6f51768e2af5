package orchestrator

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"metacx/internal/analysis"
	"metacx/internal/generate"
	llmclient "metacx/internal/llmClient"
	"metacx/internal/types"
)

// idNamespace seeds the name-based ids so the same request always yields the
// same ids. Do not change it: persisted configs reference these ids.
var idNamespace = uuid.MustParse("8a1f2c34-77d1-4c05-9e6b-53b1c90de7aa")

// Result is everything the pipeline produces for one request.
type Result struct {
	Config      *types.CXAgentConfig
	ToolSchemas []types.ToolSchema
	Brief       *types.AnalysisBrief
}

// Orchestrator runs the generation pipeline: brief, then the identity and
// function stages in parallel, then merge and validation. The stages absorb
// backend failures themselves; the only errors CreateAgent returns are input
// errors and final-config validation failures.
type Orchestrator struct {
	Briefs    *analysis.BriefBuilder
	Identity  *generate.IdentityGenerator
	Functions *generate.FunctionGenerator
	Log       *zap.Logger
}

// New wires the pipeline. llm may be nil, which selects the deterministic
// path in every stage.
func New(llm llmclient.LLMClient, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		Briefs:    analysis.NewBriefBuilder(llm, log),
		Identity:  generate.NewIdentityGenerator(llm, log),
		Functions: generate.NewFunctionGenerator(llm, log),
		Log:       log,
	}
}

func (o *Orchestrator) CreateAgent(ctx context.Context, req types.AgentCreateRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	brief, briefModel := o.Briefs.Build(ctx, req)

	var (
		wg       sync.WaitGroup
		identity generate.Identity
		idModel  bool
		defs     []types.FunctionDefinition
		fnModel  bool
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		identity, idModel = o.Identity.Generate(ctx, brief)
	}()
	go func() {
		defer wg.Done()
		defs, fnModel = o.Functions.Generate(ctx, brief)
	}()
	wg.Wait()

	cfg := merge(req, brief, identity, defs)
	cfg.Metadata["generation_mode"] = mode(briefModel || idModel || fnModel)

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	o.Log.Info("agent generated",
		zap.String("agent_id", cfg.AgentID),
		zap.String("domain", brief.Domain),
		zap.String("mode", cfg.Metadata["generation_mode"]),
		zap.Int("functions", len(cfg.Functions)),
		zap.Int("nodes", len(cfg.ConversationFlow.Nodes)))

	return &Result{
		Config:      cfg,
		ToolSchemas: generate.ProjectToolSchemas(defs),
		Brief:       &brief,
	}, nil
}

func mode(usedModel bool) string {
	if usedModel {
		return "llm"
	}
	return "rule_based"
}

// merge assembles the final config and assigns ids. Ids are name-based over
// the request, so repeated identical requests produce identical configs.
func merge(req types.AgentCreateRequest, brief types.AnalysisBrief, identity generate.Identity, defs []types.FunctionDefinition) *types.CXAgentConfig {
	seed := strings.TrimSpace(req.UserPrompt) + "|" + string(req.Language) + "|" + string(req.Platform)
	agentID := "agent_" + shortID("agent|"+seed, 12)

	intents := make([]types.IntentDefinition, len(identity.Intents))
	copy(intents, identity.Intents)
	for i := range intents {
		intents[i].IntentID = "intent_" + shortID(agentID+"|intent|"+intents[i].Name, 8)
	}

	functions := make([]types.FunctionDefinition, len(defs))
	copy(functions, defs)
	for i := range functions {
		functions[i].FunctionID = "fn_" + shortID(agentID+"|fn|"+functions[i].Name, 8)
	}

	flow := identity.Flow
	flow.FlowID = "flow_" + shortID(agentID+"|flow", 8)

	return &types.CXAgentConfig{
		AgentID:          agentID,
		Version:          "1.0.0",
		Status:           types.StatusDraft,
		Persona:          identity.Persona,
		Voice:            identity.Voice,
		Intents:          intents,
		Functions:        functions,
		ConversationFlow: flow,
		Deployment: types.DeploymentConfig{
			Platform:           req.Platform,
			Environment:        "development",
			MaxConcurrentCalls: 10,
			RecordingEnabled:   true,
			AnalyticsEnabled:   true,
		},
		Metadata: map[string]string{
			"domain": brief.Domain,
		},
	}
}

func shortID(name string, n int) string {
	u := uuid.NewSHA1(idNamespace, []byte(name))
	return strings.ReplaceAll(u.String(), "-", "")[:n]
}
