package generate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metacx/internal/types"
)

func bookingBrief() types.AnalysisBrief {
	return types.AnalysisBrief{
		Domain:              "healthcare",
		AgentNameSuggestion: "MediBot",
		AgentRole:           "Healthcare Appointment & Patient Support Agent",
		PersonalityTraits:   []string{"friendly", "professional"},
		GreetingStyle:       "warm",
		Language:            "en-US",
		VoiceGender:         "female",
		Tasks: []types.TaskDescriptor{
			{TaskName: "Greeting", Description: "Greet the caller"},
			{
				TaskName:       "Appointment Booking",
				Description:    "Book an appointment for the customer",
				DataToCollect:  []string{"customer_name", "preferred_date"},
				RequiresAPI:    true,
				APIDescription: "Check available appointment slots and book an appointment",
			},
		},
		FunctionsNeeded: []types.FunctionRequirement{{
			Name:    "get_appointment_slots",
			Purpose: "Check available appointment slots and book an appointment",
			InputParams: []types.ParamRequirement{
				{Name: "customer_name", Type: "string", Description: "The customer's name"},
				{Name: "preferred_date", Type: "string", Description: "The customer's preferred date"},
			},
			ExpectedOutput: "Available slots, or a booking confirmation with reference number",
		}},
		FlowSummary: []string{"Step 1: Greet the caller and introduce the service"},
		Platform:    "voiceowl",
	}
}

func TestBuildFlowTopology(t *testing.T) {
	flow := BuildFlow(bookingBrief())

	ids := map[string]bool{}
	for _, n := range flow.Nodes {
		assert.False(t, ids[n.NodeID], "duplicate node id %s", n.NodeID)
		ids[n.NodeID] = true
	}

	_, ok := flow.Node(flow.EntryNodeID)
	require.True(t, ok, "entry node must exist")

	endSeen := false
	for _, n := range flow.Nodes {
		if n.Type == types.NodeEnd {
			endSeen = true
			assert.NotNil(t, n.Transitions)
			assert.Empty(t, n.Transitions)
		}
		for _, tr := range n.Transitions {
			assert.True(t, ids[tr.TargetNodeID], "node %s points at missing %s", n.NodeID, tr.TargetNodeID)
			assert.NotEmpty(t, tr.Condition)
		}
	}
	assert.True(t, endSeen, "flow needs an end node")
}

func TestBuildFlowChainOrder(t *testing.T) {
	flow := BuildFlow(bookingBrief())

	greet, ok := flow.Node("node_greet")
	require.True(t, ok)
	require.Len(t, greet.Transitions, 1)
	assert.Equal(t, "node_collect_customer_name", greet.Transitions[0].TargetNodeID)

	name, ok := flow.Node("node_collect_customer_name")
	require.True(t, ok)
	assert.Equal(t, "customer_name", name.CollectSlot)
	assert.Equal(t, "node_collect_preferred_date", name.Transitions[0].TargetNodeID)

	date, ok := flow.Node("node_collect_preferred_date")
	require.True(t, ok)
	assert.Equal(t, "node_api_appointment_booking", date.Transitions[0].TargetNodeID)

	api, ok := flow.Node("node_api_appointment_booking")
	require.True(t, ok)
	assert.Equal(t, "get_appointment_slots", api.FunctionCall)
	assert.Equal(t, "node_decision_appointment_booking", api.Transitions[0].TargetNodeID)

	success, ok := flow.Node("node_success_appointment_booking")
	require.True(t, ok)
	assert.Equal(t, "node_confirm", success.Transitions[0].TargetNodeID)

	failure, ok := flow.Node("node_failure_appointment_booking")
	require.True(t, ok)
	targets := map[string]string{}
	for _, tr := range failure.Transitions {
		targets[tr.Condition] = tr.TargetNodeID
	}
	assert.Equal(t, "node_api_appointment_booking", targets["retry"])
	assert.Equal(t, "node_transfer", targets["user_wants_transfer"])
}

func TestBuildFlowNoAPITasks(t *testing.T) {
	brief := bookingBrief()
	brief.Tasks = brief.Tasks[:1]
	brief.FunctionsNeeded = nil

	flow := BuildFlow(brief)
	greet, ok := flow.Node("node_greet")
	require.True(t, ok)
	assert.Equal(t, "node_confirm", greet.Transitions[0].TargetNodeID)
}

func TestBuildFlowSharedSlotCollectedOnce(t *testing.T) {
	brief := bookingBrief()
	brief.Tasks = append(brief.Tasks, types.TaskDescriptor{
		TaskName:       "File Complaint",
		Description:    "Record a complaint",
		DataToCollect:  []string{"customer_name", "issue_description"},
		RequiresAPI:    true,
		APIDescription: "Submit a customer complaint ticket",
	})
	brief.FunctionsNeeded = append(brief.FunctionsNeeded, types.FunctionRequirement{
		Name: "submit_complaint", Purpose: "Submit a complaint",
	})

	flow := BuildFlow(brief)
	count := 0
	for _, n := range flow.Nodes {
		if n.NodeID == "node_collect_customer_name" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
