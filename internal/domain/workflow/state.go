package workflow

// State is the approval status of a leave request
type State string

const (
	StatePendingTeamLead    State = "pending_teamlead"
	StatePendingLineManager State = "pending_linemanager"
	StatePendingHR          State = "pending_hr"
	StateApproved           State = "approved"
	StateRejected           State = "rejected"
)

// States lists every state in lifecycle order
var States = []State{
	StatePendingTeamLead,
	StatePendingLineManager,
	StatePendingHR,
	StateApproved,
	StateRejected,
}

var validStates = map[State]bool{
	StatePendingTeamLead:    true,
	StatePendingLineManager: true,
	StatePendingHR:          true,
	StateApproved:           true,
	StateRejected:           true,
}

var terminalStates = map[State]bool{
	StateApproved: true,
	StateRejected: true,
}

// IsTerminal returns true if no further transitions are allowed
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsPending returns true while the request waits on an approver
func (s State) IsPending() bool {
	return validStates[s] && !terminalStates[s]
}

// String returns the wire tag of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is in the closed set
func (s State) IsValid() bool {
	return validStates[s]
}
