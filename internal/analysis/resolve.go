package analysis

import (
	"strings"

	"metacx/internal/types"
)

type functionSpec struct {
	name           string
	purpose        string
	expectedOutput string
}

// Canonical function names per task. Unknown API tasks get a derived name.
var taskFunctions = map[string]functionSpec{
	"Appointment Booking": {
		name:           "get_appointment_slots",
		purpose:        "Check available appointment slots and book an appointment",
		expectedOutput: "Available slots, or a booking confirmation with reference number",
	},
	"Order Status Check": {
		name:           "get_order_status",
		purpose:        "Look up the current status of an order",
		expectedOutput: "Order status, estimated delivery date and tracking details",
	},
	"Account Inquiry": {
		name:           "get_account_details",
		purpose:        "Retrieve account details and balance for a customer",
		expectedOutput: "Account details including balance and recent activity",
	},
	"File Complaint": {
		name:           "submit_complaint",
		purpose:        "Submit a customer complaint ticket",
		expectedOutput: "Ticket number and expected resolution time",
	},
	"Cancellation Processing": {
		name:           "process_cancellation",
		purpose:        "Process a cancellation and initiate a refund",
		expectedOutput: "Cancellation confirmation and refund status",
	},
	"Confirm Availability": {
		name:           "check_availability",
		purpose:        "Verify availability through the backend system",
		expectedOutput: "Availability status for the requested item or slot",
	},
	"Collect Customer Information": {
		name:           "store_customer_info",
		purpose:        "Store or process collected customer information",
		expectedOutput: "Confirmation that the customer record was saved",
	},
}

// ResolveFunctions derives one function requirement per API-requiring task,
// preserving task order.
func ResolveFunctions(tasks []types.TaskDescriptor) []types.FunctionRequirement {
	var reqs []types.FunctionRequirement
	seen := map[string]bool{}
	for _, t := range tasks {
		if !t.RequiresAPI {
			continue
		}
		spec, ok := taskFunctions[t.TaskName]
		if !ok {
			spec = functionSpec{
				name:           derivedFunctionName(t.TaskName),
				purpose:        t.APIDescription,
				expectedOutput: "Result of the " + strings.ToLower(t.TaskName) + " operation",
			}
			if spec.purpose == "" {
				spec.purpose = t.Description
			}
		}
		if seen[spec.name] {
			continue
		}
		seen[spec.name] = true
		reqs = append(reqs, types.FunctionRequirement{
			Name:           spec.name,
			Purpose:        spec.purpose,
			InputParams:    paramsForSlots(t.DataToCollect),
			ExpectedOutput: spec.expectedOutput,
		})
	}
	return reqs
}

func derivedFunctionName(taskName string) string {
	return "handle_" + strings.ReplaceAll(strings.ToLower(taskName), " ", "_")
}

var slotTypes = map[string]string{
	"age": "integer",
}

func paramsForSlots(slots []string) []types.ParamRequirement {
	params := make([]types.ParamRequirement, 0, len(slots))
	for _, s := range slots {
		typ := slotTypes[s]
		if typ == "" {
			typ = "string"
		}
		params = append(params, types.ParamRequirement{
			Name:        s,
			Type:        typ,
			Description: "The customer's " + strings.ReplaceAll(s, "_", " "),
		})
	}
	return params
}
