package generate

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metacx/internal/types"
)

func TestBuildPersonaSystemPrompt(t *testing.T) {
	p := BuildPersona(bookingBrief())
	assert.Equal(t, "MediBot", p.Name)
	assert.Equal(t, 3, p.MaxRetries)
	assert.True(t, strings.HasPrefix(p.SystemPrompt, "You are MediBot"))
	assert.Contains(t, p.SystemPrompt, "Appointment Booking")
	assert.Contains(t, p.SystemPrompt, "Respond in en-US")
	assert.NotEmpty(t, p.FallbackMessage)
	assert.NotEmpty(t, p.EscalationMessage)
}

func TestGreetingText(t *testing.T) {
	assert.Contains(t, GreetingText("Ava", "formal"), "How may I assist")
	assert.Contains(t, GreetingText("Ava", "casual"), "Hey there")
	assert.Contains(t, GreetingText("Ava", "warm"), "Hello")
	// Unknown styles read as warm.
	assert.Equal(t, GreetingText("Ava", "warm"), GreetingText("Ava", "mystery"))
}

func TestBuildVoiceMapping(t *testing.T) {
	brief := bookingBrief()
	v := BuildVoice(brief)
	assert.Equal(t, types.VoiceProviderGoogle, v.Provider)
	assert.Equal(t, "en-US-Neural2-F", v.VoiceID)
	assert.Equal(t, types.VoiceGenderFemale, v.Gender)
	assert.Equal(t, 1.0, v.SpeakingRate)

	brief.VoiceGender = "male"
	brief.Language = "de-DE"
	v = BuildVoice(brief)
	assert.Equal(t, "de-DE-Neural2-B", v.VoiceID)

	// Neutral keeps its label but uses the female voice.
	brief.VoiceGender = "neutral"
	v = BuildVoice(brief)
	assert.Equal(t, types.VoiceGenderNeutral, v.Gender)
	assert.Equal(t, "de-DE-Neural2-C", v.VoiceID)

	// Unknown languages fall back to en-US.
	brief.Language = "xx-XX"
	v = BuildVoice(brief)
	assert.Equal(t, types.LangEnUS, v.Language)
	assert.Equal(t, "en-US-Neural2-F", v.VoiceID)
}

func TestBuildIntents(t *testing.T) {
	intents := BuildIntents(bookingBrief())

	byName := map[string]types.IntentDefinition{}
	for _, in := range intents {
		byName[in.Name] = in
	}
	assert.Equal(t, 5, byName["greeting"].Priority)
	assert.Equal(t, 3, byName["request_appointment_booking"].Priority)
	assert.Equal(t, 8, byName["request_human_agent"].Priority)

	fallback, ok := byName["fallback"]
	require.True(t, ok)
	assert.Equal(t, 0, fallback.Priority)
	assert.NotNil(t, fallback.TrainingPhrases)

	for _, in := range intents {
		for _, ph := range in.TrainingPhrases {
			assert.Equal(t, types.LangEnUS, ph.Language)
		}
	}
}

// modelIdentity returns a completion that satisfies the identity schema and
// the cross-checks for bookingBrief. Tests mutate it to probe the gates.
func modelIdentity() map[string]any {
	return map[string]any{
		"persona": map[string]any{
			"name":               "SmileDesk",
			"role":               "Dental Reception Agent",
			"personality_traits": []any{"calm"},
			"greeting_style":     "warm",
			"system_prompt":      "You are SmileDesk.",
			"fallback_message":   "",
			"escalation_message": "",
			"max_retries":        0,
		},
		"voice": map[string]any{
			"provider":      "google",
			"voice_id":      "en-US-Neural2-F",
			"gender":        "female",
			"language":      "fr-FR", // model echoes the wrong language
			"speaking_rate": 1.0,
			"pitch":         0.0,
		},
		"intents": []any{
			map[string]any{"name": "greeting", "priority": 5},
			map[string]any{"name": "request_human_agent", "priority": 8},
			map[string]any{"name": "fallback", "priority": 0},
		},
		"conversation_flow": map[string]any{
			"name":          "Main Flow",
			"description":   "Books appointments",
			"entry_node_id": "n_greet",
			"nodes": []any{
				map[string]any{
					"node_id": "n_greet", "type": "greeting", "label": "Greet",
					"transitions": []any{map[string]any{"condition": "user_responds", "target_node_id": "n_book"}},
				},
				map[string]any{
					"node_id": "n_book", "type": "api_call", "label": "Book",
					"function_call": "get_appointment_slots",
					"transitions":   []any{map[string]any{"condition": "api_response_received", "target_node_id": "n_end"}},
				},
				map[string]any{"node_id": "n_end", "type": "end", "label": "Done"},
			},
		},
	}
}

func identityLLM(t *testing.T, payload map[string]any) *fakeLLM {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return &fakeLLM{raw: raw}
}

func TestIdentityGeneratorAcceptsModelIdentity(t *testing.T) {
	g := NewIdentityGenerator(identityLLM(t, modelIdentity()), nil)
	id, usedModel := g.Generate(context.Background(), bookingBrief())
	require.True(t, usedModel)

	assert.Equal(t, "SmileDesk", id.Persona.Name)
	// Blank messages and out-of-range retries get the defaults.
	assert.Equal(t, defaultFallbackMessage, id.Persona.FallbackMessage)
	assert.Equal(t, 3, id.Persona.MaxRetries)
	// The request language wins over the model echo.
	assert.Equal(t, types.LangEnUS, id.Voice.Language)
	assert.Equal(t, "n_greet", id.Flow.EntryNodeID)
	assert.Len(t, id.Intents, 3)
}

func TestIdentityGeneratorFallsBackOnError(t *testing.T) {
	g := NewIdentityGenerator(&fakeLLM{err: errors.New("boom")}, nil)
	id, usedModel := g.Generate(context.Background(), bookingBrief())
	assert.False(t, usedModel)
	assert.Equal(t, BuildPersona(bookingBrief()), id.Persona)
	assert.Equal(t, BuildVoice(bookingBrief()), id.Voice)
	assert.NotEmpty(t, id.Flow.Nodes)
}

func TestIdentityGeneratorRejectsIncompleteEnvelope(t *testing.T) {
	// Parses fine but carries only a persona fragment.
	g := NewIdentityGenerator(&fakeLLM{raw: json.RawMessage(`{"persona":{"name":"Ava","role":"Agent"}}`)}, nil)
	_, usedModel := g.Generate(context.Background(), bookingBrief())
	assert.False(t, usedModel)
}

func TestIdentityGeneratorRejectsUnknownFunctionCall(t *testing.T) {
	payload := modelIdentity()
	flow := payload["conversation_flow"].(map[string]any)
	flow["nodes"].([]any)[1].(map[string]any)["function_call"] = "lookup_slots"

	g := NewIdentityGenerator(identityLLM(t, payload), nil)
	id, usedModel := g.Generate(context.Background(), bookingBrief())
	assert.False(t, usedModel)
	assert.Equal(t, BuildPersona(bookingBrief()), id.Persona)
}

func TestIdentityGeneratorRejectsDanglingTransition(t *testing.T) {
	payload := modelIdentity()
	flow := payload["conversation_flow"].(map[string]any)
	greet := flow["nodes"].([]any)[0].(map[string]any)
	greet["transitions"] = []any{map[string]any{"condition": "user_responds", "target_node_id": "n_missing"}}

	g := NewIdentityGenerator(identityLLM(t, payload), nil)
	_, usedModel := g.Generate(context.Background(), bookingBrief())
	assert.False(t, usedModel)
}

func TestIdentityGeneratorRequiresCoreIntents(t *testing.T) {
	payload := modelIdentity()
	payload["intents"] = []any{map[string]any{"name": "greeting", "priority": 5}}

	g := NewIdentityGenerator(identityLLM(t, payload), nil)
	_, usedModel := g.Generate(context.Background(), bookingBrief())
	assert.False(t, usedModel)
}
