package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	llmclient "metacx/internal/llmClient"
	"metacx/internal/types"
	"metacx/internal/util/jsonutil"
)

const identityPrompt = `You write the identity half of a phone agent configuration: persona,
voice, intents and the conversation flow.

Return STRICT JSON only (no markdown, no commentary):
{
  "persona": {
    "name": "<agent name>",
    "role": "<agent role>",
    "personality_traits": ["<trait>", ...],
    "greeting_style": "<formal | casual | warm>",
    "system_prompt": "<full system prompt the voice runtime will use>",
    "fallback_message": "<what the agent says when it does not understand>",
    "escalation_message": "<what the agent says before transferring to a human>",
    "max_retries": <int, 1-5>
  },
  "voice": {
    "provider": "google | azure | elevenlabs | aws_polly",
    "voice_id": "<provider voice id>",
    "gender": "male | female | neutral",
    "language": "<echo the input language>",
    "speaking_rate": <number>,
    "pitch": <number>
  },
  "intents": [
    {
      "name": "<snake_case intent>",
      "description": "<when it matches>",
      "training_phrases": [{"text": "<utterance>", "language": "<input language>"}],
      "priority": <int, 0-10>
    }
  ],
  "conversation_flow": {
    "name": "<flow name>",
    "description": "<one line>",
    "entry_node_id": "<node id>",
    "nodes": [
      {
        "node_id": "<unique id>",
        "type": "greeting | collect_info | api_call | decision | response | confirm | transfer | end | fallback",
        "label": "<short label>",
        "prompt_text": "<what the agent says, where applicable>",
        "collect_slot": "<slot name, collect_info only>",
        "function_call": "<function name, api_call only>",
        "transitions": [{"condition": "<condition>", "target_node_id": "<node id>"}]
      }
    ]
  }
}

Rules:
- The system prompt covers: who the agent is, its responsibilities (one line
  per task), the conversation flow steps, and conduct rules (short responses,
  confirm collected data, offer a human transfer when stuck). Write it in the
  language of the input's "language" field.
- Always include a "greeting" intent, a "fallback" intent and a
  "request_human_agent" intent.
- Every function_call must name an entry of the input's functions_needed.
- Every transition must target an existing node, the entry node must exist,
  and the flow must contain at least one end node.`

const identitySchema = `{
  "type": "object",
  "required": ["persona", "voice", "intents", "conversation_flow"],
  "properties": {
    "persona": {
      "type": "object",
      "required": ["name", "role", "system_prompt"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "role": {"type": "string", "minLength": 1},
        "personality_traits": {"type": ["array", "null"], "items": {"type": "string"}},
        "greeting_style": {"type": "string"},
        "system_prompt": {"type": "string", "minLength": 1},
        "fallback_message": {"type": "string"},
        "escalation_message": {"type": "string"},
        "max_retries": {"type": "integer"}
      }
    },
    "voice": {
      "type": "object",
      "required": ["provider", "voice_id", "gender"],
      "properties": {
        "provider": {"type": "string", "enum": ["google", "azure", "elevenlabs", "aws_polly"]},
        "voice_id": {"type": "string", "minLength": 1},
        "gender": {"type": "string", "enum": ["male", "female", "neutral"]},
        "language": {"type": "string"},
        "speaking_rate": {"type": "number"},
        "pitch": {"type": "number"}
      }
    },
    "intents": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "priority"],
        "properties": {
          "name": {"type": "string", "pattern": "^[a-z][a-z0-9_]*$"},
          "description": {"type": "string"},
          "training_phrases": {
            "type": ["array", "null"],
            "items": {
              "type": "object",
              "required": ["text"],
              "properties": {
                "text": {"type": "string", "minLength": 1},
                "language": {"type": "string"}
              }
            }
          },
          "priority": {"type": "integer", "minimum": 0, "maximum": 10}
        }
      }
    },
    "conversation_flow": {
      "type": "object",
      "required": ["entry_node_id", "nodes"],
      "properties": {
        "name": {"type": "string"},
        "description": {"type": "string"},
        "entry_node_id": {"type": "string", "minLength": 1},
        "nodes": {
          "type": "array",
          "minItems": 1,
          "items": {
            "type": "object",
            "required": ["node_id", "type"],
            "properties": {
              "node_id": {"type": "string", "minLength": 1},
              "type": {"type": "string", "enum": ["greeting", "collect_info", "api_call", "decision", "response", "confirm", "transfer", "end", "fallback"]},
              "label": {"type": "string"},
              "prompt_text": {"type": "string"},
              "collect_slot": {"type": "string"},
              "function_call": {"type": "string"},
              "transitions": {
                "type": ["array", "null"],
                "items": {
                  "type": "object",
                  "required": ["condition", "target_node_id"],
                  "properties": {
                    "condition": {"type": "string", "minLength": 1},
                    "target_node_id": {"type": "string", "minLength": 1}
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`

var identitySchemaLoader = gojsonschema.NewStringLoader(identitySchema)

// Identity is the persona-side half of the agent config, produced by
// stage 2a.
type Identity struct {
	Persona types.PersonaConfig
	Voice   types.VoiceConfig
	Intents []types.IntentDefinition
	Flow    types.ConversationFlow
}

type identityEnvelope struct {
	Persona types.PersonaConfig      `json:"persona"`
	Voice   types.VoiceConfig        `json:"voice"`
	Intents []types.IntentDefinition `json:"intents"`
	Flow    types.ConversationFlow   `json:"conversation_flow"`
}

// IdentityGenerator builds the persona, voice, intents and conversation
// flow from a brief. In model-backed mode the whole identity comes from one
// constrained completion; the rule-built templates serve as the fallback.
// Like every stage it never fails: a rejected completion falls back to the
// template identity for the request.
type IdentityGenerator struct {
	LLM llmclient.LLMClient
	Log *zap.Logger
}

func NewIdentityGenerator(llm llmclient.LLMClient, log *zap.Logger) *IdentityGenerator {
	if log == nil {
		log = zap.NewNop()
	}
	return &IdentityGenerator{LLM: llm, Log: log}
}

func (g *IdentityGenerator) Generate(ctx context.Context, brief types.AnalysisBrief) (Identity, bool) {
	if g.LLM != nil {
		id, err := g.fromModel(ctx, brief)
		if err == nil {
			return id, true
		}
		g.Log.Warn("identity generation fell back to templates", zap.Error(err))
	}
	return Identity{
		Persona: BuildPersona(brief),
		Voice:   BuildVoice(brief),
		Intents: BuildIntents(brief),
		Flow:    BuildFlow(brief),
	}, false
}

func (g *IdentityGenerator) fromModel(ctx context.Context, brief types.AnalysisBrief) (Identity, error) {
	raw, err := g.LLM.GenerateJSON(ctx, identityPrompt, brief)
	if err != nil {
		return Identity{}, err
	}
	body := jsonutil.StripFences(raw)
	result, err := gojsonschema.Validate(identitySchemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return Identity{}, fmt.Errorf("identity schema: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return Identity{}, fmt.Errorf("identity schema: %s", strings.Join(msgs, "; "))
	}
	var env identityEnvelope
	if err := jsonutil.UnmarshalModelOutput(body, &env); err != nil {
		return Identity{}, err
	}
	if err := checkIdentity(&env, brief); err != nil {
		return Identity{}, err
	}

	// Request fields and gap defaults win over model echoes.
	env.Voice.Language = types.LanguageCode(brief.Language)
	if env.Persona.FallbackMessage == "" {
		env.Persona.FallbackMessage = defaultFallbackMessage
	}
	if env.Persona.EscalationMessage == "" {
		env.Persona.EscalationMessage = defaultEscalationMessage
	}
	if env.Persona.MaxRetries < 1 || env.Persona.MaxRetries > 5 {
		env.Persona.MaxRetries = 3
	}
	return Identity{Persona: env.Persona, Voice: env.Voice, Intents: env.Intents, Flow: env.Flow}, nil
}

// checkIdentity rejects completions that parse but cannot merge into a
// consistent config: the fallback path must take over before the caller sees
// a validation failure.
func checkIdentity(env *identityEnvelope, brief types.AnalysisBrief) error {
	seen := map[string]bool{}
	for _, in := range env.Intents {
		if seen[in.Name] {
			return fmt.Errorf("identity: duplicate intent %q", in.Name)
		}
		seen[in.Name] = true
	}
	if !seen["greeting"] || !seen["fallback"] {
		return fmt.Errorf("identity: greeting and fallback intents are required")
	}

	allowed := map[string]bool{}
	for _, fn := range brief.FunctionsNeeded {
		allowed[fn.Name] = true
	}

	flow := &env.Flow
	ids := map[string]bool{}
	for _, n := range flow.Nodes {
		if ids[n.NodeID] {
			return fmt.Errorf("identity: duplicate flow node %q", n.NodeID)
		}
		ids[n.NodeID] = true
	}
	if !ids[flow.EntryNodeID] {
		return fmt.Errorf("identity: entry node %q does not exist", flow.EntryNodeID)
	}
	endSeen := false
	for _, n := range flow.Nodes {
		if n.Type == types.NodeEnd {
			endSeen = true
		}
		if n.FunctionCall != "" && !allowed[n.FunctionCall] {
			return fmt.Errorf("identity: node %q calls unknown function %q", n.NodeID, n.FunctionCall)
		}
		for _, tr := range n.Transitions {
			if !ids[tr.TargetNodeID] {
				return fmt.Errorf("identity: node %q targets missing node %q", n.NodeID, tr.TargetNodeID)
			}
		}
	}
	if !endSeen {
		return fmt.Errorf("identity: flow has no end node")
	}
	return nil
}

const (
	defaultFallbackMessage   = "I'm sorry, I didn't quite catch that. Could you say that again?"
	defaultEscalationMessage = "Let me connect you with a member of our team. One moment please."
)

// BuildPersona assembles the template persona, system prompt included.
func BuildPersona(brief types.AnalysisBrief) types.PersonaConfig {
	return types.PersonaConfig{
		Name:              brief.AgentNameSuggestion,
		Role:              brief.AgentRole,
		PersonalityTraits: brief.PersonalityTraits,
		GreetingStyle:     brief.GreetingStyle,
		SystemPrompt:      buildSystemPrompt(brief),
		FallbackMessage:   defaultFallbackMessage,
		EscalationMessage: defaultEscalationMessage,
		MaxRetries:        3,
	}
}

func buildSystemPrompt(brief types.AnalysisBrief) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a %s handling phone calls for a %s business.\n",
		brief.AgentNameSuggestion, brief.AgentRole, strings.ReplaceAll(brief.Domain, "_", " "))
	fmt.Fprintf(&b, "Personality: %s. Greeting style: %s. Respond in %s.\n\n",
		strings.Join(brief.PersonalityTraits, ", "), brief.GreetingStyle, brief.Language)

	b.WriteString("Your responsibilities:\n")
	for _, t := range brief.Tasks {
		fmt.Fprintf(&b, "- %s: %s\n", t.TaskName, t.Description)
	}

	if len(brief.FlowSummary) > 0 {
		b.WriteString("\nConversation flow:\n")
		for _, step := range brief.FlowSummary {
			fmt.Fprintf(&b, "%s\n", step)
		}
	}

	b.WriteString("\nRules:\n")
	b.WriteString("- Keep responses short; this is a phone call.\n")
	b.WriteString("- Confirm every piece of information you collect by repeating it back.\n")
	b.WriteString("- Never invent information. If an operation fails, say so plainly.\n")
	b.WriteString("- Offer to transfer to a human whenever the caller asks or you cannot help.\n")
	return b.String()
}

// GreetingText renders the opening line for the greeting node.
func GreetingText(agentName, style string) string {
	switch style {
	case "formal":
		return fmt.Sprintf("Good day, this is %s. Thank you for calling. How may I assist you today?", agentName)
	case "casual":
		return fmt.Sprintf("Hey there! This is %s. What can I do for you today?", agentName)
	default:
		return fmt.Sprintf("Hello! This is %s. Thank you for calling. How can I help you today?", agentName)
	}
}

// Voice mapping ------------------------------------------------------------------

type voiceKey struct {
	gender types.VoiceGender
	lang   types.LanguageCode
}

var voiceIDs = map[voiceKey]string{
	{types.VoiceGenderFemale, types.LangEnUS}: "en-US-Neural2-F",
	{types.VoiceGenderMale, types.LangEnUS}:   "en-US-Neural2-D",
	{types.VoiceGenderFemale, types.LangEnGB}: "en-GB-Neural2-A",
	{types.VoiceGenderMale, types.LangEnGB}:   "en-GB-Neural2-B",
	{types.VoiceGenderFemale, types.LangEsES}: "es-ES-Neural2-C",
	{types.VoiceGenderMale, types.LangEsES}:   "es-ES-Neural2-B",
	{types.VoiceGenderFemale, types.LangFrFR}: "fr-FR-Neural2-C",
	{types.VoiceGenderMale, types.LangFrFR}:   "fr-FR-Neural2-B",
	{types.VoiceGenderFemale, types.LangDeDE}: "de-DE-Neural2-C",
	{types.VoiceGenderMale, types.LangDeDE}:   "de-DE-Neural2-B",
	{types.VoiceGenderFemale, types.LangHiIN}: "hi-IN-Neural2-A",
	{types.VoiceGenderMale, types.LangHiIN}:   "hi-IN-Neural2-B",
	{types.VoiceGenderFemale, types.LangJaJP}: "ja-JP-Neural2-B",
	{types.VoiceGenderMale, types.LangJaJP}:   "ja-JP-Neural2-C",
}

// BuildVoice maps the brief's gender and language preference onto a concrete
// provider voice. Neutral and unknown genders use the female voice; unknown
// languages fall back to en-US.
func BuildVoice(brief types.AnalysisBrief) types.VoiceConfig {
	gender := types.VoiceGender(brief.VoiceGender)
	lang := types.LanguageCode(brief.Language)

	lookupGender := gender
	if lookupGender != types.VoiceGenderMale {
		lookupGender = types.VoiceGenderFemale
	}
	id, ok := voiceIDs[voiceKey{lookupGender, lang}]
	if !ok {
		lang = types.LangEnUS
		id = voiceIDs[voiceKey{lookupGender, lang}]
	}
	if gender != types.VoiceGenderMale && gender != types.VoiceGenderFemale && gender != types.VoiceGenderNeutral {
		gender = types.VoiceGenderFemale
	}
	return types.VoiceConfig{
		Provider:     types.VoiceProviderGoogle,
		VoiceID:      id,
		Gender:       gender,
		Language:     lang,
		SpeakingRate: 1.0,
		Pitch:        0.0,
	}
}

// Intents ------------------------------------------------------------------------

// BuildIntents derives the intent set: greeting and human-transfer intents
// are always present, each non-greeting task gets a request intent, and a
// zero-priority fallback catches everything else. Intent ids are filled in
// by the merge step.
func BuildIntents(brief types.AnalysisBrief) []types.IntentDefinition {
	lang := types.LanguageCode(brief.Language)
	phrases := func(texts ...string) []types.TrainingPhrase {
		out := make([]types.TrainingPhrase, 0, len(texts))
		for _, t := range texts {
			out = append(out, types.TrainingPhrase{Text: t, Language: lang})
		}
		return out
	}

	intents := []types.IntentDefinition{{
		Name:            "greeting",
		Description:     "Caller opens the conversation",
		TrainingPhrases: phrases("hello", "hi", "good morning", "hey"),
		Priority:        5,
	}}

	for _, t := range brief.Tasks {
		if t.TaskName == "Greeting" {
			continue
		}
		lowered := strings.ToLower(t.TaskName)
		intents = append(intents, types.IntentDefinition{
			Name:            "request_" + snake(t.TaskName),
			Description:     t.Description,
			TrainingPhrases: phrases("I want to "+lowered, "I need help with "+lowered, "can you help me with "+lowered),
			Priority:        3,
		})
	}

	intents = append(intents,
		types.IntentDefinition{
			Name:            "request_human_agent",
			Description:     "Caller asks for a human",
			TrainingPhrases: phrases("talk to a human", "speak to an agent", "transfer me to a person", "I want a real person"),
			Priority:        8,
		},
		types.IntentDefinition{
			Name:            "fallback",
			Description:     "Anything no other intent matches",
			TrainingPhrases: []types.TrainingPhrase{},
			Priority:        0,
		},
	)
	return intents
}
