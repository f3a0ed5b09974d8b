package service

import (
	"context"
	"fmt"

	"github.com/garyjia/firm-portal/internal/domain/entity"
	"github.com/garyjia/firm-portal/internal/domain/status"
	"github.com/garyjia/firm-portal/internal/domain/workflow"
)

// LeaveViews builds interpreted leave views for the portal
type LeaveViews struct {
	leave LeaveService
}

// NewLeaveViews creates a view builder on top of a LeaveService
func NewLeaveViews(leave LeaveService) *LeaveViews {
	return &LeaveViews{leave: leave}
}

// Mine returns views of the caller's own requests with balance warnings attached.
// A failed balance lookup drops the warnings, not the page.
func (v *LeaveViews) Mine(ctx context.Context) ([]status.View, error) {
	requests, err := v.leave.MyLeaves(ctx)
	if err != nil {
		return nil, err
	}

	balances, err := v.leave.MyBalance(ctx)
	if err != nil {
		balances = nil
	}

	views := make([]status.View, 0, len(requests))
	for i := range requests {
		view := status.Interpret(&requests[i])
		view.Warnings = append(view.Warnings, BalanceWarnings(&requests[i], balances)...)
		views = append(views, view)
	}
	return views, nil
}

// Pending returns views of requests awaiting the viewer. With a nil viewer the
// backend's pending list is trusted as is.
func (v *LeaveViews) Pending(ctx context.Context, viewer *entity.StaffMember) ([]status.View, error) {
	requests, err := v.leave.PendingApprovals(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]status.View, 0, len(requests))
	for i := range requests {
		view := status.Interpret(&requests[i])
		if viewer != nil && !CanAct(viewer, &requests[i]) {
			for j := range view.Rows {
				view.Rows[j].Actionable = false
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// CanAct reports whether viewer may approve or reject request now: the viewer holds
// the role the request waits on and is that step's assignee, or the step is unassigned.
func CanAct(viewer *entity.StaffMember, request *entity.LeaveRequest) bool {
	if viewer == nil {
		return false
	}

	state, ok := status.Parse(request.Status)
	if !ok {
		return false
	}
	role, ok := workflow.RoleForState(state)
	if !ok || !viewer.HasRole(entity.StaffRoleFor(role)) {
		return false
	}

	step, found := request.StepFor(role)
	if !found {
		return true
	}
	if step.Status != entity.StepPending {
		return false
	}
	return step.Unassigned() || step.Assignee.ID == viewer.ID
}

// BalanceWarnings warns about an undecided request whose days its leave type
// balance cannot cover. Pending days already include the request itself.
func BalanceWarnings(request *entity.LeaveRequest, balances []entity.LeaveBalance) []string {
	state, ok := status.Parse(request.Status)
	if !ok || state.IsTerminal() {
		return nil
	}

	days := request.Days()
	for _, b := range balances {
		if b.LeaveType.ID != request.LeaveType.ID {
			continue
		}
		others := b
		others.Pending = max(b.Pending-days, 0)
		if !others.Covers(days) {
			return []string{fmt.Sprintf("insufficient %s balance: %.1f days available, %.1f requested",
				b.LeaveType.Label(), others.Available(), days)}
		}
	}
	return nil
}
