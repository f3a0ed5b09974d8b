package workflow

import (
	"context"
	"fmt"

	"github.com/garyjia/firm-portal/internal/domain/entity"
)

var pendingByRole = map[entity.ApproverRole]State{
	entity.ApproverTeamLead:    StatePendingTeamLead,
	entity.ApproverLineManager: StatePendingLineManager,
	entity.ApproverHR:          StatePendingHR,
}

// StateForRole returns the pending state in which role is the acting approver
func StateForRole(role entity.ApproverRole) (State, bool) {
	state, ok := pendingByRole[role]
	return state, ok
}

// RoleForState returns the approver role a pending state waits on
func RoleForState(state State) (entity.ApproverRole, bool) {
	for role, pending := range pendingByRole {
		if pending == state {
			return role, true
		}
	}
	return "", false
}

// NewLeaveApprovalMachine builds the leave lifecycle:
// team lead -> line manager -> HR -> approved, with rejection from any pending state.
func NewLeaveApprovalMachine(initialState State) StateMachine {
	builder := NewBuilder()

	builder.Configure(StatePendingTeamLead).
		Permit(TriggerApprove, StatePendingLineManager).
		Permit(TriggerReject, StateRejected)

	builder.Configure(StatePendingLineManager).
		Permit(TriggerApprove, StatePendingHR).
		Permit(TriggerReject, StateRejected)

	builder.Configure(StatePendingHR).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected)

	return builder.Build(initialState)
}

// ReplayChain fires each acted step of chain, in order, through a fresh machine and
// returns the state the chain implies. Steps must act in role order, and nothing may
// act after the request is decided.
func ReplayChain(ctx context.Context, chain []entity.ApproverStep) (State, error) {
	machine := NewLeaveApprovalMachine(StatePendingTeamLead)

	for i, step := range chain {
		if !step.Status.Acted() {
			continue
		}

		expected, _ := RoleForState(machine.State())
		if machine.State().IsTerminal() || step.Role != expected {
			return machine.State(), fmt.Errorf("%w: step %d (%s %s) while %s",
				ErrChainInconsistent, i, step.Role, step.Status, machine.State())
		}

		trigger := TriggerApprove
		if step.Status == entity.StepRejected {
			trigger = TriggerReject
		}
		if err := machine.Fire(ctx, trigger); err != nil {
			return machine.State(), fmt.Errorf("%w: %v", ErrChainInconsistent, err)
		}
	}

	return machine.State(), nil
}
