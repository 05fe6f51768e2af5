package orchestrator

import (
	"context"

	"metacx/internal/types"
)

// ExamplePrompt is the canned request served by the example endpoint.
const ExamplePrompt = "Create an agent for my dental clinic that books appointments. " +
	"It should greet callers warmly, collect the patient's name, phone number and preferred date, " +
	"and check available slots before booking."

// Example runs the canned prompt through the deterministic path, regardless
// of whether a model backend is configured. Useful as a smoke check and as
// API documentation by example.
func Example() (*Result, error) {
	return New(nil, nil).CreateAgent(context.Background(), types.AgentCreateRequest{
		UserPrompt: ExamplePrompt,
		Language:   types.LangEnUS,
		Platform:   types.PlatformVoiceOwl,
	})
}
