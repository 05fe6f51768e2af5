package types

import (
	"bytes"
	"encoding/json"
)

// Enumerations -------------------------------------------------------------------

type VoiceGender string

const (
	VoiceGenderMale    VoiceGender = "male"
	VoiceGenderFemale  VoiceGender = "female"
	VoiceGenderNeutral VoiceGender = "neutral"
)

type VoiceProvider string

const (
	VoiceProviderGoogle     VoiceProvider = "google"
	VoiceProviderAzure      VoiceProvider = "azure"
	VoiceProviderElevenLabs VoiceProvider = "elevenlabs"
	VoiceProviderAWSPolly   VoiceProvider = "aws_polly"
)

// LanguageCode is a BCP-47 tag from the supported set.
type LanguageCode string

const (
	LangEnUS LanguageCode = "en-US"
	LangEnGB LanguageCode = "en-GB"
	LangEsES LanguageCode = "es-ES"
	LangFrFR LanguageCode = "fr-FR"
	LangDeDE LanguageCode = "de-DE"
	LangHiIN LanguageCode = "hi-IN"
	LangJaJP LanguageCode = "ja-JP"
)

var supportedLanguages = []LanguageCode{LangEnUS, LangEnGB, LangEsES, LangFrFR, LangDeDE, LangHiIN, LangJaJP}

func (l LanguageCode) Valid() bool {
	for _, s := range supportedLanguages {
		if l == s {
			return true
		}
	}
	return false
}

type ParamType string

const (
	ParamString  ParamType = "string"
	ParamInteger ParamType = "integer"
	ParamNumber  ParamType = "number"
	ParamBoolean ParamType = "boolean"
	ParamArray   ParamType = "array"
	ParamObject  ParamType = "object"
)

func (p ParamType) Valid() bool {
	switch p {
	case ParamString, ParamInteger, ParamNumber, ParamBoolean, ParamArray, ParamObject:
		return true
	}
	return false
}

type HTTPMethod string

const (
	MethodGet    HTTPMethod = "GET"
	MethodPost   HTTPMethod = "POST"
	MethodPut    HTTPMethod = "PUT"
	MethodPatch  HTTPMethod = "PATCH"
	MethodDelete HTTPMethod = "DELETE"
)

type NodeType string

const (
	NodeGreeting    NodeType = "greeting"
	NodeCollectInfo NodeType = "collect_info"
	NodeAPICall     NodeType = "api_call"
	NodeDecision    NodeType = "decision"
	NodeResponse    NodeType = "response"
	NodeConfirm     NodeType = "confirm"
	NodeTransfer    NodeType = "transfer"
	NodeEnd         NodeType = "end"
	NodeFallback    NodeType = "fallback"
)

type AgentStatus string

const (
	StatusDraft    AgentStatus = "draft"
	StatusTesting  AgentStatus = "testing"
	StatusDeployed AgentStatus = "deployed"
	StatusArchived AgentStatus = "archived"
)

// Platform is a deployment target from the supported set.
type Platform string

const (
	PlatformVoiceOwl Platform = "voiceowl"
	PlatformTwilio   Platform = "twilio"
	PlatformVonage   Platform = "vonage"
)

func (p Platform) Valid() bool {
	switch p {
	case PlatformVoiceOwl, PlatformTwilio, PlatformVonage:
		return true
	}
	return false
}

// Analysis brief -----------------------------------------------------------------

// TaskDescriptor is one task the agent must handle, as detected in the
// user's request.
type TaskDescriptor struct {
	TaskName       string   `json:"task_name"`
	Description    string   `json:"description"`
	DataToCollect  []string `json:"data_to_collect"`
	RequiresAPI    bool     `json:"requires_api"`
	APIDescription string   `json:"api_description,omitempty"`
}

// ParamRequirement describes one input of a required function.
type ParamRequirement struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// FunctionRequirement names a canonical function the agent will need, with
// just enough detail for the definition generator to work from.
type FunctionRequirement struct {
	Name           string             `json:"name"`
	Purpose        string             `json:"purpose"`
	InputParams    []ParamRequirement `json:"input_params"`
	ExpectedOutput string             `json:"expected_output"`
}

// AnalysisBrief is the stage-1 output consumed by both generators.
// It is built once per request and never mutated afterward.
type AnalysisBrief struct {
	Domain              string                `json:"domain"`
	AgentNameSuggestion string                `json:"agent_name_suggestion"`
	AgentRole           string                `json:"agent_role"`
	PersonalityTraits   []string              `json:"personality_traits"`
	GreetingStyle       string                `json:"greeting_style"`
	Language            string                `json:"language"`
	VoiceGender         string                `json:"voice_gender"`
	Tasks               []TaskDescriptor      `json:"tasks"`
	FunctionsNeeded     []FunctionRequirement `json:"functions_needed"`
	FlowSummary         []string              `json:"flow_summary"`
	Ambiguities         []string              `json:"ambiguities"`
	Platform            string                `json:"platform"`
}

// Persona and voice --------------------------------------------------------------

type PersonaConfig struct {
	Name              string   `json:"name"`
	Role              string   `json:"role"`
	PersonalityTraits []string `json:"personality_traits"`
	GreetingStyle     string   `json:"greeting_style"`
	SystemPrompt      string   `json:"system_prompt"`
	FallbackMessage   string   `json:"fallback_message"`
	EscalationMessage string   `json:"escalation_message"`
	MaxRetries        int      `json:"max_retries"`
}

type VoiceConfig struct {
	Provider     VoiceProvider `json:"provider"`
	VoiceID      string        `json:"voice_id"`
	Gender       VoiceGender   `json:"gender"`
	Language     LanguageCode  `json:"language"`
	SpeakingRate float64       `json:"speaking_rate"`
	Pitch        float64       `json:"pitch"`
}

// Intents ------------------------------------------------------------------------

type TrainingPhrase struct {
	Text     string       `json:"text"`
	Language LanguageCode `json:"language"`
}

type IntentDefinition struct {
	IntentID        string           `json:"intent_id"`
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	TrainingPhrases []TrainingPhrase `json:"training_phrases"`
	Priority        int              `json:"priority"`
}

// Functions ----------------------------------------------------------------------

type FunctionParameter struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Description string    `json:"description"`
	Required    bool      `json:"required"`
}

type APIEndpoint struct {
	URL            string            `json:"url"`
	Method         HTTPMethod        `json:"method"`
	Headers        map[string]string `json:"headers"`
	AuthType       string            `json:"auth_type,omitempty"`
	TimeoutSeconds int               `json:"timeout_seconds"`
}

type FunctionDefinition struct {
	FunctionID         string              `json:"function_id"`
	Name               string              `json:"name"`
	Description        string              `json:"description"`
	Parameters         []FunctionParameter `json:"parameters"`
	ReturnsDescription string              `json:"returns_description,omitempty"`
	APIEndpoint        *APIEndpoint        `json:"api_endpoint,omitempty"`
	MockResponse       map[string]any      `json:"mock_response,omitempty"`
}

// Conversation flow --------------------------------------------------------------

type FlowTransition struct {
	Condition    string `json:"condition"`
	TargetNodeID string `json:"target_node_id"`
}

type FlowNode struct {
	NodeID       string           `json:"node_id"`
	Type         NodeType         `json:"type"`
	Label        string           `json:"label"`
	PromptText   string           `json:"prompt_text,omitempty"`
	CollectSlot  string           `json:"collect_slot,omitempty"`
	FunctionCall string           `json:"function_call,omitempty"`
	Transitions  []FlowTransition `json:"transitions"`
}

type ConversationFlow struct {
	FlowID      string     `json:"flow_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	EntryNodeID string     `json:"entry_node_id"`
	Nodes       []FlowNode `json:"nodes"`
}

// Node returns the node with the given id, if present.
func (f *ConversationFlow) Node(id string) (*FlowNode, bool) {
	for i := range f.Nodes {
		if f.Nodes[i].NodeID == id {
			return &f.Nodes[i], true
		}
	}
	return nil, false
}

// Top-level config ---------------------------------------------------------------

type DeploymentConfig struct {
	Platform           Platform `json:"platform"`
	PhoneNumber        string   `json:"phone_number,omitempty"`
	WebhookURL         string   `json:"webhook_url,omitempty"`
	Environment        string   `json:"environment"`
	MaxConcurrentCalls int      `json:"max_concurrent_calls"`
	RecordingEnabled   bool     `json:"recording_enabled"`
	AnalyticsEnabled   bool     `json:"analytics_enabled"`
}

// CXAgentConfig is the complete generated agent configuration, the primary
// output of the pipeline.
type CXAgentConfig struct {
	AgentID          string               `json:"agent_id"`
	Version          string               `json:"version"`
	Status           AgentStatus          `json:"status"`
	Persona          PersonaConfig        `json:"persona"`
	Voice            VoiceConfig          `json:"voice"`
	Intents          []IntentDefinition   `json:"intents"`
	Functions        []FunctionDefinition `json:"functions"`
	ConversationFlow ConversationFlow     `json:"conversation_flow"`
	Deployment       DeploymentConfig     `json:"deployment"`
	Metadata         map[string]string    `json:"metadata"`
}

// Tool schema --------------------------------------------------------------------

// ToolProperty is one entry of a tool schema's parameter object. The name is
// carried outside the JSON body so property order can follow parameter order.
type ToolProperty struct {
	Name        string `json:"-"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// ToolParameters is the JSON-Schema-shaped parameter object of a tool schema.
type ToolParameters struct {
	Type       string         `json:"type"`
	Properties ToolProperties `json:"properties"`
	Required   []string       `json:"required"`
}

type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  ToolParameters `json:"parameters"`
}

// ToolSchema is a function definition shaped for an LLM function-calling API.
type ToolSchema struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolProperties marshals as a JSON object whose keys keep insertion order,
// which encoding/json maps cannot guarantee.
type ToolProperties []ToolProperty

func (p ToolProperties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, prop := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(prop.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		body, err := json.Marshal(struct {
			Type        string `json:"type"`
			Description string `json:"description"`
		}{prop.Type, prop.Description})
		if err != nil {
			return nil, err
		}
		buf.Write(body)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
