package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

// Validation errors for leave requests as displayed by the portal.
// The backend owns enforcement; these only drive warnings.
var (
	ErrDateRange    = errors.New("start date is after end date")
	ErrNonPositive  = errors.New("leave duration must be positive")
	ErrMissingField = errors.New("required field missing")
)

// StaffRef is a lightweight reference to a staff member embedded in other records
type StaffRef struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// DisplayName returns the name, falling back to the email or id
func (s *StaffRef) DisplayName() string {
	switch {
	case s == nil:
		return ""
	case s.Name != "":
		return s.Name
	case s.Email != "":
		return s.Email
	}
	return s.ID
}

// LeaveTypeRef references a leave category; on the wire it is either an id or an object
type LeaveTypeRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// UnmarshalJSON accepts "annual" as well as {"id":"annual","name":"Annual"}
func (r *LeaveTypeRef) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*r = LeaveTypeRef{ID: id}
		return nil
	}
	type plain LeaveTypeRef
	var obj plain
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid leave type reference: %w", err)
	}
	*r = LeaveTypeRef(obj)
	return nil
}

// Label returns the leave type name, or its id when the name was not expanded
func (r LeaveTypeRef) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

// LeaveType is a named leave category
type LeaveType struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	DefaultDays      float64 `json:"defaultDays,omitempty"`
	RequiresDocument bool    `json:"requiresDocument,omitempty"`
}

// ApproverStep is one entry of a leave request's approver chain
type ApproverStep struct {
	Role     ApproverRole `json:"role"`
	Assignee *StaffRef    `json:"assignee,omitempty"`
	Status   StepStatus   `json:"status"`
	ActedAt  *time.Time   `json:"actedAt,omitempty"`
	Comment  string       `json:"comment,omitempty"`
}

// Unassigned returns true when no staff member is assigned to the step
func (s ApproverStep) Unassigned() bool {
	return s.Assignee == nil || s.Assignee.ID == ""
}

// TimelineEvent is an entry in the append-only lifecycle log of a leave request
type TimelineEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	Event     TimelineEventType `json:"event"`
	Actor     string            `json:"actor,omitempty"`
	Note      string            `json:"note,omitempty"`
}

// LeaveRequest is a leave request as returned by the backend
type LeaveRequest struct {
	ID            string          `json:"id"`
	Staff         *StaffRef       `json:"staff,omitempty"`
	LeaveType     LeaveTypeRef    `json:"leaveType"`
	StartDate     Date            `json:"startDate"`
	EndDate       Date            `json:"endDate"`
	TotalDays     float64         `json:"totalDays,omitempty"`
	DurationDays  float64         `json:"durationDays,omitempty"`
	Reason        string          `json:"reason"`
	Status        string          `json:"status"`
	ApproverChain []ApproverStep  `json:"approverChain,omitempty"`
	Timeline      []TimelineEvent `json:"timeline,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Days returns the working-day count, preferring totalDays over durationDays
func (r *LeaveRequest) Days() float64 {
	if r.TotalDays > 0 {
		return r.TotalDays
	}
	return r.DurationDays
}

// Validate reports the first data-model invariant the request violates
func (r *LeaveRequest) Validate() error {
	if !r.StartDate.IsZero() && !r.EndDate.IsZero() && r.StartDate.After(r.EndDate.Time) {
		return fmt.Errorf("%w: %s > %s", ErrDateRange, r.StartDate, r.EndDate)
	}
	if r.Days() <= 0 {
		return ErrNonPositive
	}
	if r.Reason == "" {
		return fmt.Errorf("%w: reason", ErrMissingField)
	}
	return nil
}

// StepFor returns the chain step for role, if present
func (r *LeaveRequest) StepFor(role ApproverRole) (ApproverStep, bool) {
	for _, step := range r.ApproverChain {
		if step.Role == role {
			return step, true
		}
	}
	return ApproverStep{}, false
}

// SortedTimeline returns the timeline in chronological order, keeping the original order for ties
func (r *LeaveRequest) SortedTimeline() []TimelineEvent {
	events := append([]TimelineEvent(nil), r.Timeline...)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events
}

// LeaveBalance is a staff member's entitlement for one leave type
type LeaveBalance struct {
	LeaveType   LeaveTypeRef `json:"leaveType"`
	Allocated   float64      `json:"allocated"`
	Used        float64      `json:"used"`
	Pending     float64      `json:"pending"`
	CarriedOver float64      `json:"carriedOver"`
}

// Available returns the days left after used and pending requests
func (b LeaveBalance) Available() float64 {
	return b.Allocated + b.CarriedOver - b.Used - b.Pending
}

// Overdrawn reports a violation of used + pending <= allocated + carriedOver
func (b LeaveBalance) Overdrawn() bool {
	return b.Used+b.Pending > b.Allocated+b.CarriedOver
}

// Covers returns true if days fit in the available balance
func (b LeaveBalance) Covers(days float64) bool {
	return days <= b.Available()
}
