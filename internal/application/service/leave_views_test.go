package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/firm-portal/internal/domain/entity"
)

func pendingRequest(status string, chain ...entity.ApproverStep) *entity.LeaveRequest {
	return &entity.LeaveRequest{
		ID:            "lv-1",
		LeaveType:     entity.LeaveTypeRef{ID: "annual", Name: "Annual"},
		Status:        status,
		TotalDays:     2,
		Reason:        "x",
		ApproverChain: chain,
	}
}

func TestCanAct(t *testing.T) {
	lead := &entity.StaffMember{ID: "s-1", Roles: entity.NewRoleSet(entity.RoleTeamLead)}
	otherLead := &entity.StaffMember{ID: "s-3", Roles: entity.NewRoleSet(entity.RoleTeamLead)}
	hr := &entity.StaffMember{ID: "s-5", Roles: entity.NewRoleSet(entity.RoleHR)}

	assigned := entity.ApproverStep{Role: entity.ApproverTeamLead, Status: entity.StepPending, Assignee: &entity.StaffRef{ID: "s-1"}}
	unassignedHR := entity.ApproverStep{Role: entity.ApproverHR, Status: entity.StepPending}

	tests := []struct {
		name    string
		viewer  *entity.StaffMember
		request *entity.LeaveRequest
		want    bool
	}{
		{"assignee holding role", lead, pendingRequest("pending_teamlead", assigned), true},
		{"same role, different assignee", otherLead, pendingRequest("pending_teamlead", assigned), false},
		{"wrong role", hr, pendingRequest("pending_teamlead", assigned), false},
		{"unassigned step", hr, pendingRequest("pending_hr", unassignedHR), true},
		{"no chain entry", hr, pendingRequest("pending_hr"), true},
		{"terminal", hr, pendingRequest("approved", unassignedHR), false},
		{"unknown status", hr, pendingRequest("cancelled"), false},
		{"no viewer", nil, pendingRequest("pending_hr"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAct(tt.viewer, tt.request))
		})
	}
}

func TestBalanceWarnings(t *testing.T) {
	balances := []entity.LeaveBalance{
		{LeaveType: entity.LeaveTypeRef{ID: "annual", Name: "Annual"}, Allocated: 10, Used: 9, Pending: 2},
		{LeaveType: entity.LeaveTypeRef{ID: "sick"}, Allocated: 10},
	}

	warnings := BalanceWarnings(pendingRequest("pending_hr"), balances)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "insufficient Annual balance: 1.0 days available, 2.0 requested")

	assert.Empty(t, BalanceWarnings(pendingRequest("approved"), balances))

	// the request's own pending days do not count against it
	exact := []entity.LeaveBalance{
		{LeaveType: entity.LeaveTypeRef{ID: "annual"}, Allocated: 10, Used: 8, Pending: 2},
	}
	assert.Empty(t, BalanceWarnings(pendingRequest("pending_teamlead"), exact))

	sick := pendingRequest("pending_hr")
	sick.LeaveType = entity.LeaveTypeRef{ID: "sick"}
	assert.Empty(t, BalanceWarnings(sick, balances))
}

func TestLeaveViews_Pending(t *testing.T) {
	env := newTestEnv(t)
	env.backend.handle(http.MethodGet, "/api/leave/pending-approvals", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[` + pendingLineManagerJSON + `]`))
	})
	views := NewLeaveViews(NewLeaveService(env.client, env.events, nopLogger{}))

	lm := &entity.StaffMember{ID: "s-2", Roles: entity.NewRoleSet(entity.RoleLineManager)}
	got, err := views.Pending(context.Background(), lm)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Pending Line Manager", got[0].Display.Label)
	assert.True(t, got[0].Rows[1].Actionable)

	stranger := &entity.StaffMember{ID: "s-4", Roles: entity.NewRoleSet(entity.RoleLineManager)}
	got, err = views.Pending(context.Background(), stranger)
	require.NoError(t, err)
	for _, row := range got[0].Rows {
		assert.False(t, row.Actionable)
	}
}

func TestLeaveViews_MineSurvivesBalanceFailure(t *testing.T) {
	env := newTestEnv(t)
	env.backend.handle(http.MethodGet, "/api/leave/my-leaves", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[` + pendingLineManagerJSON + `]`))
	})
	env.backend.json(http.MethodGet, "/api/leave/balance/my", http.StatusBadRequest, map[string]string{"message": "no balance"})

	got, err := NewLeaveViews(NewLeaveService(env.client, env.events, nopLogger{})).Mine(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Line Manager", got[0].Display.CurrentApprover)
	assert.Empty(t, got[0].Warnings)
}
