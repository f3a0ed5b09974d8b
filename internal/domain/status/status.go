// Package status turns leave request status tags and approver chains into display data.
// Every function here is pure and safe to call while rendering.
package status

import (
	"strings"

	"github.com/garyjia/firm-portal/internal/domain/workflow"
)

// BadgeKind is the style category of a status badge
type BadgeKind string

const (
	BadgeWarning BadgeKind = "warning"
	BadgeSuccess BadgeKind = "success"
	BadgeDanger  BadgeKind = "danger"
	BadgeNeutral BadgeKind = "neutral"
)

// Unknown is shown for any status outside the closed set
const Unknown = "Unknown"

const pendingPrefix = "pending_"

// legacy display strings used by demo pages before the backend tags existed
var legacyStatuses = map[string]workflow.State{
	"approved":             workflow.StateApproved,
	"rejected":             workflow.StateRejected,
	"declined":             workflow.StateRejected,
	"pending team lead":    workflow.StatePendingTeamLead,
	"pending line manager": workflow.StatePendingLineManager,
	"pending hr":           workflow.StatePendingHR,
}

// Parse resolves a raw status string to a workflow state
func Parse(raw string) (workflow.State, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return "", false
	}

	if state := workflow.State(normalized); state.IsValid() {
		return state, true
	}
	if state, ok := legacyStatuses[strings.Join(strings.Fields(normalized), " ")]; ok {
		return state, true
	}
	return "", false
}

// Label returns the human label for state
func Label(state workflow.State) string {
	switch state {
	case workflow.StatePendingTeamLead:
		return "Pending Team Lead"
	case workflow.StatePendingLineManager:
		return "Pending Line Manager"
	case workflow.StatePendingHR:
		return "Pending HR"
	case workflow.StateApproved:
		return "Approved"
	case workflow.StateRejected:
		return "Rejected"
	}
	return Unknown
}

// Badge returns the badge style for state
func Badge(state workflow.State) BadgeKind {
	switch {
	case state.IsPending():
		return BadgeWarning
	case state == workflow.StateApproved:
		return BadgeSuccess
	case state == workflow.StateRejected:
		return BadgeDanger
	}
	return BadgeNeutral
}

// CurrentApprover describes who the request is waiting on, or how it ended
func CurrentApprover(state workflow.State) string {
	switch state {
	case workflow.StatePendingTeamLead:
		return "Team Lead"
	case workflow.StatePendingLineManager:
		return "Line Manager"
	case workflow.StatePendingHR:
		return "HR Operations"
	case workflow.StateApproved:
		return "Approved"
	case workflow.StateRejected:
		return "Declined"
	}
	return Unknown
}

// RoleFromPending returns the approver label for a pending_<role> tag.
// Unrecognized suffixes return "", false; callers show Unknown.
func RoleFromPending(raw string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	suffix, found := strings.CutPrefix(normalized, pendingPrefix)
	if !found {
		return "", false
	}

	switch suffix {
	case "teamlead":
		return "Team Lead", true
	case "linemanager":
		return "Line Manager", true
	case "hr":
		return "HR", true
	}
	return "", false
}

// Display is the interpreted form of a raw status
type Display struct {
	State           workflow.State `json:"state,omitempty"`
	Known           bool           `json:"known"`
	Label           string         `json:"label"`
	Badge           BadgeKind      `json:"badge"`
	CurrentApprover string         `json:"currentApprover"`
	Terminal        bool           `json:"terminal"`
	Raw             string         `json:"raw"`
}

// Describe interprets raw. Unknown input yields the neutral Unknown display with Raw kept.
func Describe(raw string) Display {
	state, ok := Parse(raw)
	if !ok {
		return Display{
			Known:           false,
			Label:           Unknown,
			Badge:           BadgeNeutral,
			CurrentApprover: Unknown,
			Raw:             raw,
		}
	}

	return Display{
		State:           state,
		Known:           true,
		Label:           Label(state),
		Badge:           Badge(state),
		CurrentApprover: CurrentApprover(state),
		Terminal:        state.IsTerminal(),
		Raw:             raw,
	}
}
