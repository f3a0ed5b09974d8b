package status

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/firm-portal/internal/domain/entity"
	"github.com/garyjia/firm-portal/internal/domain/workflow"
)

// Unassigned is shown for approver steps with no staff member
const Unassigned = "Unassigned"

// ChainRow is one approver step prepared for display
type ChainRow struct {
	Step        int                 `json:"step"`
	Role        entity.ApproverRole `json:"role"`
	RoleLabel   string              `json:"roleLabel"`
	Assignee    string              `json:"assignee"`
	AssigneeID  string              `json:"assigneeId,omitempty"`
	Status      entity.StepStatus   `json:"status"`
	StatusLabel string              `json:"statusLabel"`
	ActedAt     *time.Time          `json:"actedAt,omitempty"`
	Comment     string              `json:"comment,omitempty"`
	Current     bool                `json:"current"`
	Actionable  bool                `json:"actionable"`
}

// View is everything the portal shows for a single leave request
type View struct {
	ID        string                 `json:"id"`
	Staff     string                 `json:"staff,omitempty"`
	LeaveType string                 `json:"leaveType"`
	StartDate entity.Date            `json:"startDate"`
	EndDate   entity.Date            `json:"endDate"`
	Days      float64                `json:"days"`
	Reason    string                 `json:"reason,omitempty"`
	Display   Display                `json:"display"`
	Rows      []ChainRow             `json:"rows"`
	Timeline  []entity.TimelineEvent `json:"timeline,omitempty"`
	Warnings  []string               `json:"warnings,omitempty"`
}

// RoleLabel returns the display label for a chain role
func RoleLabel(role entity.ApproverRole) string {
	switch role {
	case entity.ApproverTeamLead:
		return "Team Lead"
	case entity.ApproverLineManager:
		return "Line Manager"
	case entity.ApproverHR:
		return "HR"
	}
	return Unknown
}

// StepLabel returns the display label for a step status
func StepLabel(s entity.StepStatus) string {
	switch s {
	case entity.StepPending:
		return "Pending"
	case entity.StepApproved:
		return "Approved"
	case entity.StepRejected:
		return "Rejected"
	}
	return Unknown
}

// Rows renders chain against the request's state. Only the step of the
// current pending role can be actionable; decided requests have none.
func Rows(chain []entity.ApproverStep, state workflow.State) []ChainRow {
	rows := make([]ChainRow, 0, len(chain))
	for i, step := range chain {
		row := ChainRow{
			Step:        i + 1,
			Role:        step.Role,
			RoleLabel:   RoleLabel(step.Role),
			Assignee:    Unassigned,
			Status:      step.Status,
			StatusLabel: StepLabel(step.Status),
			ActedAt:     step.ActedAt,
			Comment:     step.Comment,
		}
		if !step.Unassigned() {
			row.Assignee = step.Assignee.DisplayName()
			row.AssigneeID = step.Assignee.ID
		}
		if stepState, ok := workflow.StateForRole(step.Role); ok && stepState == state {
			row.Current = true
			row.Actionable = step.Status == entity.StepPending
		}
		rows = append(rows, row)
	}
	return rows
}

// Interpret builds the full view of request
func Interpret(request *entity.LeaveRequest) View {
	display := Describe(request.Status)

	view := View{
		ID:        request.ID,
		Staff:     request.Staff.DisplayName(),
		LeaveType: request.LeaveType.Label(),
		StartDate: request.StartDate,
		EndDate:   request.EndDate,
		Days:      request.Days(),
		Reason:    request.Reason,
		Display:   display,
		Rows:      Rows(request.ApproverChain, display.State),
		Timeline:  request.SortedTimeline(),
	}
	if err := request.Validate(); err != nil {
		view.Warnings = append(view.Warnings, err.Error())
	}
	if warning := chainWarning(request.ApproverChain, display); warning != "" {
		view.Warnings = append(view.Warnings, warning)
	}
	return view
}

// chainWarning reports an approver chain that does not lead to the displayed status
func chainWarning(chain []entity.ApproverStep, display Display) string {
	if len(chain) == 0 || !display.Known {
		return ""
	}
	implied, err := workflow.ReplayChain(context.Background(), chain)
	if err != nil {
		return err.Error()
	}
	if implied != display.State {
		return fmt.Sprintf("%s: chain implies %s, status is %s",
			workflow.ErrChainInconsistent, Label(implied), display.Label)
	}
	return ""
}
