package analysis

import (
	"fmt"
	"strings"

	"metacx/internal/types"
)

// Domain detection ---------------------------------------------------------------

type domainEntry struct {
	name     string
	keywords []string
}

// Declaration order breaks score ties.
var domainTable = []domainEntry{
	{"healthcare", []string{"appointment", "doctor", "clinic", "hospital", "patient", "medical", "health", "therapy"}},
	{"e-commerce", []string{"order", "product", "shipping", "cart", "purchase", "delivery", "shop", "store", "buy"}},
	{"finance", []string{"account", "balance", "transaction", "payment", "loan", "bank", "card", "credit"}},
	{"travel", []string{"flight", "hotel", "booking", "reservation", "travel", "trip", "airline"}},
	{"telecommunications", []string{"plan", "data", "mobile", "phone bill", "sim", "network", "roaming"}},
	{"food_delivery", []string{"food", "restaurant", "delivery", "menu", "order food", "meal"}},
	{"insurance", []string{"claim", "policy", "insurance", "coverage", "premium"}},
	{"education", []string{"course", "class", "enrollment", "student", "tutor", "training"}},
	{"real_estate", []string{"property", "rent", "lease", "apartment", "house", "real estate"}},
	{"automotive", []string{"car", "vehicle", "service", "repair", "maintenance", "dealership"}},
}

// GenericDomain is the fallback when no domain keyword matches.
const GenericDomain = "general_support"

// DetectDomain scores each domain by keyword hits over the lowercased prompt.
// Highest count wins; ties go to the earlier table entry.
func DetectDomain(prompt string) string {
	text := strings.ToLower(prompt)
	best, bestScore := GenericDomain, 0
	for _, d := range domainTable {
		score := 0
		for _, kw := range d.keywords {
			if strings.Contains(text, kw) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = d.name, score
		}
	}
	return best
}

// Slot extraction ----------------------------------------------------------------

type slotEntry struct {
	slot     string
	keywords []string
}

var slotTable = []slotEntry{
	{"customer_name", []string{"name", "first name", "last name", "full name", "caller name", "user name"}},
	{"email", []string{"email", "e-mail", "email address", "mail"}},
	{"phone_number", []string{"phone", "phone number", "mobile", "contact number", "cell"}},
	{"preferred_date", []string{"date", "day", "when", "preferred date", "appointment date"}},
	{"preferred_time", []string{"time", "preferred time", "appointment time", "what time"}},
	{"address", []string{"address", "location", "where"}},
	{"service_type", []string{"service", "service type", "type of service"}},
	{"reason", []string{"reason", "purpose", "why"}},
	{"order_number", []string{"order number", "order id", "order #"}},
	{"account_number", []string{"account number", "account id", "account #"}},
	{"issue_description", []string{"issue", "problem", "complaint", "describe"}},
	{"age", []string{"age", "how old"}},
	{"dob", []string{"date of birth", "dob", "birthday"}},
	{"insurance_id", []string{"insurance", "insurance id", "policy number"}},
	{"company_name", []string{"company", "organization", "business name"}},
}

// ExtractSlots scans the prompt for explicitly mentioned data fields and
// returns the slot names in table order.
func ExtractSlots(prompt string) []string {
	text := strings.ToLower(prompt)
	var found []string
	for _, e := range slotTable {
		for _, kw := range e.keywords {
			if strings.Contains(text, kw) {
				found = append(found, e.slot)
				break
			}
		}
	}
	return found
}

// Task detection -----------------------------------------------------------------

type taskPattern struct {
	key      string
	keywords []string
	task     types.TaskDescriptor
}

var taskPatterns = []taskPattern{
	{
		key:      "greet",
		keywords: []string{"greet", "welcome", "hello", "introduce"},
		task: types.TaskDescriptor{
			TaskName:    "Greeting",
			Description: "Greet the caller and introduce the service",
		},
	},
	{
		key:      "collect_name",
		keywords: []string{"take name", "ask name", "collect name", "get name", "ask for name"},
		task: types.TaskDescriptor{
			TaskName:      "Collect Customer Name",
			Description:   "Collect the caller's name for personalization",
			DataToCollect: []string{"customer_name"},
		},
	},
	{
		key:      "collect_email",
		keywords: []string{"email", "e-mail", "mail address"},
		task: types.TaskDescriptor{
			TaskName:      "Collect Email",
			Description:   "Collect the caller's email address",
			DataToCollect: []string{"email"},
		},
	},
	{
		key:      "collect_phone",
		keywords: []string{"phone number", "mobile number", "contact number"},
		task: types.TaskDescriptor{
			TaskName:      "Collect Phone Number",
			Description:   "Collect the caller's phone number",
			DataToCollect: []string{"phone_number"},
		},
	},
	{
		key:      "appointment",
		keywords: []string{"appointment", "schedule", "book", "booking", "slot"},
		task: types.TaskDescriptor{
			TaskName:       "Appointment Booking",
			Description:    "Book an appointment for the customer",
			DataToCollect:  []string{"customer_name", "preferred_date", "preferred_time"},
			RequiresAPI:    true,
			APIDescription: "Check available appointment slots and book an appointment",
		},
	},
	{
		key:      "order_status",
		keywords: []string{"order status", "track order", "where is my order", "order tracking"},
		task: types.TaskDescriptor{
			TaskName:       "Order Status Check",
			Description:    "Check the status of a customer's order",
			DataToCollect:  []string{"order_number"},
			RequiresAPI:    true,
			APIDescription: "Look up order status by order number",
		},
	},
	{
		key:      "account_inquiry",
		keywords: []string{"account", "balance", "statement"},
		task: types.TaskDescriptor{
			TaskName:       "Account Inquiry",
			Description:    "Look up customer account information",
			DataToCollect:  []string{"account_number"},
			RequiresAPI:    true,
			APIDescription: "Retrieve account details and balance",
		},
	},
	{
		key:      "complaint",
		keywords: []string{"complaint", "issue", "problem", "wrong"},
		task: types.TaskDescriptor{
			TaskName:       "File Complaint",
			Description:    "Record and process a customer complaint",
			DataToCollect:  []string{"customer_name", "issue_description"},
			RequiresAPI:    true,
			APIDescription: "Submit a customer complaint ticket",
		},
	},
	{
		key:      "cancel",
		keywords: []string{"cancel", "cancellation", "refund"},
		task: types.TaskDescriptor{
			TaskName:       "Cancellation Processing",
			Description:    "Process a cancellation or refund request",
			DataToCollect:  []string{"order_number", "cancellation_reason"},
			RequiresAPI:    true,
			APIDescription: "Process cancellation and initiate refund",
		},
	},
	{
		key:      "confirm",
		keywords: []string{"confirm", "verify", "availability", "available"},
		task: types.TaskDescriptor{
			TaskName:       "Confirm Availability",
			Description:    "Confirm availability via external system",
			RequiresAPI:    true,
			APIDescription: "Verify availability through the backend API",
		},
	},
	{
		key:      "faq",
		keywords: []string{"faq", "question", "information", "info", "help"},
		task: types.TaskDescriptor{
			TaskName:    "FAQ & Information",
			Description: "Answer frequently asked questions",
		},
	},
}

// DetectTasks scans the prompt for task patterns, in table order, always
// starting with the greeting task. When only the greeting matched, the
// domain's default task is added so the agent is never task-less.
func DetectTasks(prompt, domain string) []types.TaskDescriptor {
	text := strings.ToLower(prompt)
	tasks := []types.TaskDescriptor{cloneTask(taskPatterns[0].task)}

	for _, p := range taskPatterns[1:] {
		for _, kw := range p.keywords {
			if strings.Contains(text, kw) {
				tasks = append(tasks, cloneTask(p.task))
				break
			}
		}
	}

	if len(tasks) <= 1 {
		tasks = append(tasks, domainDefaultTasks(domain)...)
	}

	seen := map[string]bool{}
	unique := tasks[:0]
	for _, t := range tasks {
		if !seen[t.TaskName] {
			seen[t.TaskName] = true
			unique = append(unique, t)
		}
	}
	return unique
}

func cloneTask(t types.TaskDescriptor) types.TaskDescriptor {
	t.DataToCollect = append([]string(nil), t.DataToCollect...)
	return t
}

func domainDefaultTasks(domain string) []types.TaskDescriptor {
	switch domain {
	case "healthcare":
		return []types.TaskDescriptor{cloneTask(taskPatterns[4].task)}
	case "e-commerce":
		return []types.TaskDescriptor{cloneTask(taskPatterns[5].task)}
	case "finance":
		return []types.TaskDescriptor{cloneTask(taskPatterns[6].task)}
	}
	return []types.TaskDescriptor{{
		TaskName:      "General Inquiry",
		Description:   "Handle general customer inquiries",
		DataToCollect: []string{"customer_name", "inquiry_details"},
	}}
}

// MergeSlots folds explicitly requested data slots into the primary task:
// the first API-requiring task, else the first non-greeting task, else a
// fresh data collection task.
func MergeSlots(tasks []types.TaskDescriptor, slots []string) []types.TaskDescriptor {
	if len(slots) == 0 {
		return tasks
	}
	primary := -1
	for i := range tasks {
		if tasks[i].RequiresAPI {
			primary = i
			break
		}
	}
	if primary < 0 {
		for i := range tasks {
			if tasks[i].TaskName != "Greeting" {
				primary = i
				break
			}
		}
	}
	if primary < 0 {
		return append(tasks, types.TaskDescriptor{
			TaskName:       "Collect Customer Information",
			Description:    "Collect customer details for the interaction",
			DataToCollect:  append([]string(nil), slots...),
			RequiresAPI:    true,
			APIDescription: "Store or process collected customer information",
		})
	}
	existing := map[string]bool{}
	for _, s := range tasks[primary].DataToCollect {
		existing[s] = true
	}
	for _, s := range slots {
		if !existing[s] {
			tasks[primary].DataToCollect = append(tasks[primary].DataToCollect, s)
			existing[s] = true
		}
	}
	return tasks
}

// Persona and voice preferences --------------------------------------------------

var domainAgentNames = map[string]string{
	"healthcare":         "MediBot",
	"e-commerce":         "ShopAssist",
	"finance":            "FinanceHelper",
	"travel":             "TravelBuddy",
	"telecommunications": "TeleConnect",
	"food_delivery":      "FoodieBot",
	"insurance":          "InsureGuide",
	"education":          "EduAssist",
	"real_estate":        "PropertyPal",
	"automotive":         "AutoCare",
	GenericDomain:        "Ava",
}

var domainRoles = map[string]string{
	"healthcare":         "Appointment & Patient Support Agent",
	"e-commerce":         "Order & Shopping Support Agent",
	"finance":            "Account & Financial Support Agent",
	"travel":             "Booking & Travel Support Agent",
	"telecommunications": "Service & Billing Support Agent",
	"food_delivery":      "Order & Delivery Support Agent",
	"insurance":          "Claims & Policy Support Agent",
	"education":          "Enrollment & Course Support Agent",
	"real_estate":        "Property & Leasing Support Agent",
	"automotive":         "Service & Repair Support Agent",
	GenericDomain:        "Customer Support Agent",
}

// DetectPersona derives the agent name, traits and greeting style from the
// prompt and domain.
func DetectPersona(prompt, domain string) (name string, traits []string, style string) {
	text := strings.ToLower(prompt)
	name = domainAgentNames[domain]
	if name == "" {
		name = "Ava"
	}
	switch {
	case strings.Contains(text, "formal"):
		style = "formal"
		traits = []string{"professional", "courteous", "precise"}
	case strings.Contains(text, "casual") || strings.Contains(text, "friendly"):
		style = "casual"
		traits = []string{"friendly", "upbeat", "approachable"}
	default:
		style = "warm"
		traits = []string{"friendly", "professional", "helpful"}
	}
	return name, traits, style
}

// DetectVoiceGender looks for an explicit voice preference; female is the
// default voice.
func DetectVoiceGender(prompt string) string {
	text := strings.ToLower(prompt)
	if strings.Contains(text, "male voice") || strings.Contains(text, "male agent") {
		if strings.Contains(text, "female voice") || strings.Contains(text, "female agent") {
			return "female"
		}
		return "male"
	}
	return "female"
}

// RoleForDomain returns the agent role line for the domain, e.g.
// "Healthcare Appointment & Patient Support Agent".
func RoleForDomain(domain string) string {
	role := domainRoles[domain]
	if role == "" {
		role = "Customer Support Agent"
	}
	return titleCase(strings.ReplaceAll(domain, "_", " ")) + " " + role
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// BuildFlowSummary renders the detected tasks as ordered step labels.
func BuildFlowSummary(tasks []types.TaskDescriptor) []string {
	steps := []string{"Step 1: Greet the caller and introduce the service"}
	n := 2
	for _, t := range tasks {
		if t.TaskName == "Greeting" {
			continue
		}
		for _, slot := range t.DataToCollect {
			steps = append(steps, fmt.Sprintf("Step %d: Ask for the customer's %s", n, strings.ReplaceAll(slot, "_", " ")))
			n++
		}
		if t.RequiresAPI {
			steps = append(steps, fmt.Sprintf("Step %d: %s", n, t.APIDescription))
			n++
			steps = append(steps, fmt.Sprintf("Step %d: Communicate the result to the caller", n))
			n++
		}
	}
	steps = append(steps, fmt.Sprintf("Step %d: Ask if there's anything else", n))
	steps = append(steps, fmt.Sprintf("Step %d: End the call politely", n+1))
	return steps
}
