package analysis

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	llmclient "metacx/internal/llmClient"
	"metacx/internal/types"
	"metacx/internal/util/jsonutil"
)

const briefPrompt = `You analyze a business owner's description of the phone agent they want
and produce a structured analysis brief.

Return STRICT JSON only (no markdown, no commentary) with this shape:
{
  "domain": "<business domain, snake_case>",
  "agent_name_suggestion": "<short agent name>",
  "agent_role": "<one-line role, e.g. 'Healthcare Appointment & Patient Support Agent'>",
  "personality_traits": ["<trait>", ...],
  "greeting_style": "<formal | casual | warm>",
  "language": "<echo the input language>",
  "voice_gender": "<male | female | neutral>",
  "tasks": [
    {
      "task_name": "<Title Case task>",
      "description": "<what the agent does>",
      "data_to_collect": ["<slot_name>", ...],
      "requires_api": <true when the task needs a backend call>,
      "api_description": "<what the backend call does, when requires_api>"
    }
  ],
  "functions_needed": [
    {
      "name": "<snake_case function name>",
      "purpose": "<what it does>",
      "input_params": [{"name": "<slot>", "type": "string|integer|number|boolean|array|object", "description": "<desc>"}],
      "expected_output": "<what the call returns>"
    }
  ],
  "flow_summary": ["Step 1: ...", "Step 2: ..."],
  "ambiguities": ["<anything unclear in the request>"],
  "platform": "<echo the input platform>"
}

Rules:
- The first task is always a greeting task.
- Every task with requires_api=true must have a matching entry in functions_needed.
- Slot names are snake_case (customer_name, preferred_date, order_number, ...).
- Do not invent capabilities the description does not ask for.`

type briefInput struct {
	UserPrompt string `json:"user_prompt"`
	Language   string `json:"language"`
	Platform   string `json:"platform"`
}

// BriefBuilder is the first pipeline stage. It turns the free-text request
// into an AnalysisBrief, via the model backend when one is configured and
// via the deterministic rule path otherwise. It never returns an error:
// any model failure falls back to the rule path.
type BriefBuilder struct {
	LLM llmclient.LLMClient
	Log *zap.Logger

	memo *lru.Cache[string, types.AnalysisBrief]
}

func NewBriefBuilder(llm llmclient.LLMClient, log *zap.Logger) *BriefBuilder {
	if log == nil {
		log = zap.NewNop()
	}
	memo, _ := lru.New[string, types.AnalysisBrief](256)
	return &BriefBuilder{LLM: llm, Log: log, memo: memo}
}

// Build produces the brief. usedModel reports whether the accepted brief
// came from the model backend, so the caller can record the actual
// generation mode rather than the requested one.
func (b *BriefBuilder) Build(ctx context.Context, req types.AgentCreateRequest) (brief types.AnalysisBrief, usedModel bool) {
	prompt := strings.TrimSpace(req.UserPrompt)

	if b.LLM != nil {
		brief, err := b.fromModel(ctx, prompt, req)
		if err == nil {
			return brief, true
		}
		b.Log.Warn("brief generation fell back to rule path", zap.Error(err))
	}
	return b.BuildDeterministic(prompt, req.Language, req.Platform), false
}

func (b *BriefBuilder) fromModel(ctx context.Context, prompt string, req types.AgentCreateRequest) (types.AnalysisBrief, error) {
	raw, err := b.LLM.GenerateJSON(ctx, briefPrompt, briefInput{
		UserPrompt: prompt,
		Language:   string(req.Language),
		Platform:   string(req.Platform),
	})
	if err != nil {
		return types.AnalysisBrief{}, err
	}
	body := jsonutil.StripFences(raw)
	if err := ValidateBriefJSON(body); err != nil {
		return types.AnalysisBrief{}, err
	}
	var brief types.AnalysisBrief
	if err := jsonutil.UnmarshalModelOutput(body, &brief); err != nil {
		return types.AnalysisBrief{}, err
	}
	// Cross-field consistency: every API task needs a function entry, or the
	// downstream generators would wire flow nodes to functions that do not
	// exist. Such briefs are rejected here so the rule path takes over.
	apiTasks := 0
	for _, t := range brief.Tasks {
		if t.RequiresAPI {
			apiTasks++
		}
	}
	if len(brief.FunctionsNeeded) < apiTasks {
		return types.AnalysisBrief{}, fmt.Errorf("brief: %d api tasks but only %d functions_needed", apiTasks, len(brief.FunctionsNeeded))
	}
	// Request fields are authoritative regardless of what the model echoed.
	brief.Language = string(req.Language)
	brief.Platform = string(req.Platform)
	return brief, nil
}

// BuildDeterministic composes the brief from the keyword tables alone.
// Identical inputs always yield an identical brief; results are memoized.
func (b *BriefBuilder) BuildDeterministic(prompt string, language types.LanguageCode, platform types.Platform) types.AnalysisBrief {
	key := prompt + "|" + string(language) + "|" + string(platform)
	if cached, ok := b.memo.Get(key); ok {
		return cached
	}

	domain := DetectDomain(prompt)
	tasks := MergeSlots(DetectTasks(prompt, domain), ExtractSlots(prompt))
	name, traits, style := DetectPersona(prompt, domain)

	ambiguities := []string{}
	if domain == GenericDomain {
		ambiguities = append(ambiguities, "The business domain is unclear from the description")
	}

	brief := types.AnalysisBrief{
		Domain:              domain,
		AgentNameSuggestion: name,
		AgentRole:           RoleForDomain(domain),
		PersonalityTraits:   traits,
		GreetingStyle:       style,
		Language:            string(language),
		VoiceGender:         DetectVoiceGender(prompt),
		Tasks:               tasks,
		FunctionsNeeded:     ResolveFunctions(tasks),
		FlowSummary:         BuildFlowSummary(tasks),
		Ambiguities:         ambiguities,
		Platform:            string(platform),
	}
	b.memo.Add(key, brief)
	return brief
}
