package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/garyjia/firm-portal/internal/domain/entity"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StatePendingTeamLead, false},
		{StatePendingLineManager, false},
		{StatePendingHR, false},
		{StateApproved, true},
		{StateRejected, true},
		{State("cancelled"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsPending(t *testing.T) {
	for _, s := range States {
		want := s != StateApproved && s != StateRejected
		if got := s.IsPending(); got != want {
			t.Errorf("%s.IsPending() = %v, want %v", s, got, want)
		}
	}
	if State("pending_partner").IsPending() {
		t.Error("unknown state reported as pending")
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"pending state", StatePendingHR, true},
		{"terminal state", StateRejected, true},
		{"legacy label", State("Pending HR"), false},
		{"empty state", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuilder_ConfigurePanics(t *testing.T) {
	tests := []struct {
		name  string
		state State
	}{
		{"invalid state", State("INVALID")},
		{"terminal state", StateApproved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("Configure() should panic")
				}
			}()
			NewBuilder().Configure(tt.state)
		})
	}
}

func TestBuilder_BuildIsolated(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StatePendingTeamLead).Permit(TriggerApprove, StatePendingHR)

	machine := builder.Build(StatePendingTeamLead)
	builder.Configure(StatePendingTeamLead).Permit(TriggerReject, StateRejected)

	if machine.CanFire(TriggerReject) {
		t.Error("rules added after Build leaked into the machine")
	}
}

func TestLeaveApprovalMachine_HappyPath(t *testing.T) {
	ctx := context.Background()
	machine := NewLeaveApprovalMachine(StatePendingTeamLead)

	want := []State{StatePendingLineManager, StatePendingHR, StateApproved}
	for _, next := range want {
		if err := machine.Fire(ctx, TriggerApprove); err != nil {
			t.Fatalf("Fire(APPROVE) error = %v", err)
		}
		if machine.State() != next {
			t.Fatalf("State() = %v, want %v", machine.State(), next)
		}
	}

	if err := machine.Fire(ctx, TriggerApprove); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() from terminal error = %v, want ErrInvalidTransition", err)
	}
}

func TestLeaveApprovalMachine_RejectFromEveryPendingState(t *testing.T) {
	for _, s := range []State{StatePendingTeamLead, StatePendingLineManager, StatePendingHR} {
		t.Run(string(s), func(t *testing.T) {
			machine := NewLeaveApprovalMachine(s)
			if err := machine.Fire(context.Background(), TriggerReject); err != nil {
				t.Fatalf("Fire(REJECT) error = %v", err)
			}
			if machine.State() != StateRejected {
				t.Errorf("State() = %v, want %v", machine.State(), StateRejected)
			}
		})
	}
}

func TestLeaveApprovalMachine_PermittedTriggers(t *testing.T) {
	machine := NewLeaveApprovalMachine(StatePendingHR)
	got := machine.PermittedTriggers()
	if len(got) != 2 || got[0] != TriggerApprove || got[1] != TriggerReject {
		t.Errorf("PermittedTriggers() = %v", got)
	}

	if got := NewLeaveApprovalMachine(StateApproved).PermittedTriggers(); len(got) != 0 {
		t.Errorf("terminal PermittedTriggers() = %v, want none", got)
	}
}

func TestGuardedTransition(t *testing.T) {
	allow := false
	builder := NewBuilder()
	builder.Configure(StatePendingHR).
		PermitIf(TriggerApprove, StateApproved, func(context.Context) bool { return allow })

	machine := builder.Build(StatePendingHR)
	if err := machine.Fire(context.Background(), TriggerApprove); !errors.Is(err, ErrGuardFailed) {
		t.Fatalf("Fire() error = %v, want ErrGuardFailed", err)
	}

	allow = true
	if err := machine.Fire(context.Background(), TriggerApprove); err != nil {
		t.Fatalf("Fire() error = %v", err)
	}
	if machine.State() != StateApproved {
		t.Errorf("State() = %v, want %v", machine.State(), StateApproved)
	}
}

func TestRoleMapping(t *testing.T) {
	for _, role := range entity.ApproverRoles {
		state, ok := StateForRole(role)
		if !ok {
			t.Fatalf("StateForRole(%s) not found", role)
		}
		back, ok := RoleForState(state)
		if !ok || back != role {
			t.Errorf("RoleForState(%s) = %s, %v; want %s", state, back, ok, role)
		}
	}

	if _, ok := RoleForState(StateApproved); ok {
		t.Error("RoleForState(approved) should not resolve")
	}
}

func step(role entity.ApproverRole, status entity.StepStatus) entity.ApproverStep {
	return entity.ApproverStep{Role: role, Status: status}
}

func TestReplayChain(t *testing.T) {
	tests := []struct {
		name    string
		chain   []entity.ApproverStep
		want    State
		wantErr bool
	}{
		{
			name: "nothing acted",
			chain: []entity.ApproverStep{
				step(entity.ApproverTeamLead, entity.StepPending),
				step(entity.ApproverLineManager, entity.StepPending),
				step(entity.ApproverHR, entity.StepPending),
			},
			want: StatePendingTeamLead,
		},
		{
			name: "waiting on hr",
			chain: []entity.ApproverStep{
				step(entity.ApproverTeamLead, entity.StepApproved),
				step(entity.ApproverLineManager, entity.StepApproved),
				step(entity.ApproverHR, entity.StepPending),
			},
			want: StatePendingHR,
		},
		{
			name: "fully approved",
			chain: []entity.ApproverStep{
				step(entity.ApproverTeamLead, entity.StepApproved),
				step(entity.ApproverLineManager, entity.StepApproved),
				step(entity.ApproverHR, entity.StepApproved),
			},
			want: StateApproved,
		},
		{
			name: "rejected by line manager",
			chain: []entity.ApproverStep{
				step(entity.ApproverTeamLead, entity.StepApproved),
				step(entity.ApproverLineManager, entity.StepRejected),
				step(entity.ApproverHR, entity.StepPending),
			},
			want: StateRejected,
		},
		{
			name: "hr acted before team lead",
			chain: []entity.ApproverStep{
				step(entity.ApproverTeamLead, entity.StepPending),
				step(entity.ApproverHR, entity.StepApproved),
			},
			want:    StatePendingTeamLead,
			wantErr: true,
		},
		{
			name: "acted after rejection",
			chain: []entity.ApproverStep{
				step(entity.ApproverTeamLead, entity.StepRejected),
				step(entity.ApproverLineManager, entity.StepApproved),
			},
			want:    StateRejected,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReplayChain(context.Background(), tt.chain)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReplayChain() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrChainInconsistent) {
				t.Errorf("ReplayChain() error = %v, want ErrChainInconsistent", err)
			}
			if got != tt.want {
				t.Errorf("ReplayChain() = %v, want %v", got, tt.want)
			}
		})
	}
}
