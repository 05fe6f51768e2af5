package generate

import (
	"strings"

	"metacx/internal/types"
)

// Transition conditions used by the flow graph.
const (
	condUserResponds      = "user_responds"
	condSlotFilled        = "slot_filled"
	condAPIResponse       = "api_response_received"
	condSuccess           = "success"
	condFailure           = "failure"
	condContinue          = "continue"
	condRetry             = "retry"
	condUserWantsTransfer = "user_wants_transfer"
	condHasMoreQuestions  = "has_more_questions"
	condNothingElse       = "nothing_else"
	condTransferred       = "transferred"
)

// BuildFlow lays out the conversation graph for the brief: greeting, then
// per API task a collect/call/decide/respond chain, then a closing confirm
// and end, with fallback and transfer nodes on the side.
//
// Node ids are stable across runs for the same brief. The flow id is filled
// in by the merge step.
func BuildFlow(brief types.AnalysisBrief) types.ConversationFlow {
	apiTasks := apiTasksOf(brief)
	funcNames := functionNamesByTask(brief, apiTasks)

	var nodes []types.FlowNode

	greet := types.FlowNode{
		NodeID:     "node_greet",
		Type:       types.NodeGreeting,
		Label:      "Greeting",
		PromptText: GreetingText(brief.AgentNameSuggestion, brief.GreetingStyle),
	}

	// Chain heads: the first node of each task segment, then the confirm node.
	heads := make([]string, 0, len(apiTasks)+1)
	collected := map[string]bool{}
	var segments [][]types.FlowNode
	for _, task := range apiTasks {
		seg := taskSegment(task, funcNames[task.TaskName], collected)
		heads = append(heads, seg[0].NodeID)
		segments = append(segments, seg)
	}
	heads = append(heads, "node_confirm")

	greet.Transitions = []types.FlowTransition{{Condition: condUserResponds, TargetNodeID: heads[0]}}
	nodes = append(nodes, greet)

	for i, seg := range segments {
		next := heads[i+1]
		for j := range seg {
			n := seg[j]
			switch n.Type {
			case types.NodeCollectInfo:
				target := next
				if j+1 < len(seg) {
					target = seg[j+1].NodeID
				}
				n.Transitions = []types.FlowTransition{{Condition: condSlotFilled, TargetNodeID: target}}
			case types.NodeResponse:
				if strings.HasPrefix(n.NodeID, "node_success_") {
					n.Transitions = []types.FlowTransition{{Condition: condContinue, TargetNodeID: next}}
				} else {
					n.Transitions = []types.FlowTransition{
						{Condition: condRetry, TargetNodeID: apiNodeID(seg)},
						{Condition: condUserWantsTransfer, TargetNodeID: "node_transfer"},
						{Condition: condContinue, TargetNodeID: next},
					}
				}
			}
			nodes = append(nodes, n)
		}
	}

	nodes = append(nodes,
		types.FlowNode{
			NodeID:     "node_confirm",
			Type:       types.NodeConfirm,
			Label:      "Anything Else",
			PromptText: "Is there anything else I can help you with?",
			Transitions: []types.FlowTransition{
				{Condition: condHasMoreQuestions, TargetNodeID: "node_greet"},
				{Condition: condNothingElse, TargetNodeID: "node_end"},
			},
		},
		types.FlowNode{
			NodeID:      "node_end",
			Type:        types.NodeEnd,
			Label:       "End Call",
			PromptText:  "Thank you for calling. Have a great day!",
			Transitions: []types.FlowTransition{},
		},
		types.FlowNode{
			NodeID:     "node_fallback",
			Type:       types.NodeFallback,
			Label:      "Fallback",
			PromptText: "I'm sorry, I didn't quite catch that. Could you say that again?",
			Transitions: []types.FlowTransition{
				{Condition: condRetry, TargetNodeID: "node_greet"},
				{Condition: condUserWantsTransfer, TargetNodeID: "node_transfer"},
			},
		},
		types.FlowNode{
			NodeID:     "node_transfer",
			Type:       types.NodeTransfer,
			Label:      "Transfer to Human",
			PromptText: "Let me connect you with a member of our team. One moment please.",
			Transitions: []types.FlowTransition{
				{Condition: condTransferred, TargetNodeID: "node_end"},
			},
		},
	)

	return types.ConversationFlow{
		Name:        brief.AgentNameSuggestion + " Main Flow",
		Description: "Primary conversation flow for " + brief.AgentRole,
		EntryNodeID: "node_greet",
		Nodes:       nodes,
	}
}

// taskSegment builds the collect -> api -> decision -> success/failure chain
// for one API task. Transitions for collect and response nodes are wired by
// the caller, which knows what comes next.
func taskSegment(task types.TaskDescriptor, funcName string, collected map[string]bool) []types.FlowNode {
	key := snake(task.TaskName)
	var seg []types.FlowNode

	for _, slot := range task.DataToCollect {
		if collected[slot] {
			continue
		}
		collected[slot] = true
		seg = append(seg, types.FlowNode{
			NodeID:      "node_collect_" + slot,
			Type:        types.NodeCollectInfo,
			Label:       "Collect " + titleWords(slot),
			PromptText:  "May I have your " + strings.ReplaceAll(slot, "_", " ") + ", please?",
			CollectSlot: slot,
		})
	}

	apiID := "node_api_" + key
	seg = append(seg,
		types.FlowNode{
			NodeID:       apiID,
			Type:         types.NodeAPICall,
			Label:        task.TaskName,
			FunctionCall: funcName,
			Transitions:  []types.FlowTransition{{Condition: condAPIResponse, TargetNodeID: "node_decision_" + key}},
		},
		types.FlowNode{
			NodeID: "node_decision_" + key,
			Type:   types.NodeDecision,
			Label:  task.TaskName + " Result",
			Transitions: []types.FlowTransition{
				{Condition: condSuccess, TargetNodeID: "node_success_" + key},
				{Condition: condFailure, TargetNodeID: "node_failure_" + key},
			},
		},
		types.FlowNode{
			NodeID:     "node_success_" + key,
			Type:       types.NodeResponse,
			Label:      task.TaskName + " Succeeded",
			PromptText: "All done! " + task.Description + " completed successfully.",
		},
		types.FlowNode{
			NodeID:     "node_failure_" + key,
			Type:       types.NodeResponse,
			Label:      task.TaskName + " Failed",
			PromptText: "I'm sorry, I wasn't able to complete that right now.",
		},
	)
	return seg
}

func apiNodeID(seg []types.FlowNode) string {
	for _, n := range seg {
		if n.Type == types.NodeAPICall {
			return n.NodeID
		}
	}
	return seg[0].NodeID
}

func apiTasksOf(brief types.AnalysisBrief) []types.TaskDescriptor {
	var out []types.TaskDescriptor
	for _, t := range brief.Tasks {
		if t.RequiresAPI {
			out = append(out, t)
		}
	}
	return out
}

// functionNamesByTask pairs API tasks with the brief's function requirements
// in order, falling back to a derived name when the brief lists fewer
// functions than tasks.
func functionNamesByTask(brief types.AnalysisBrief, apiTasks []types.TaskDescriptor) map[string]string {
	names := map[string]string{}
	for i, t := range apiTasks {
		if i < len(brief.FunctionsNeeded) {
			names[t.TaskName] = brief.FunctionsNeeded[i].Name
		} else {
			names[t.TaskName] = "handle_" + snake(t.TaskName)
		}
	}
	return names
}

func snake(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}

func titleWords(snakeName string) string {
	words := strings.Split(snakeName, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
