package entity

// ApproverRole identifies a step in the leave approval chain
type ApproverRole string

const (
	ApproverTeamLead    ApproverRole = "teamLead"
	ApproverLineManager ApproverRole = "lineManager"
	ApproverHR          ApproverRole = "hr"
)

// ApproverRoles lists the chain roles in approval order
var ApproverRoles = []ApproverRole{ApproverTeamLead, ApproverLineManager, ApproverHR}

// IsValid returns true if the role is one of the chain roles
func (r ApproverRole) IsValid() bool {
	switch r {
	case ApproverTeamLead, ApproverLineManager, ApproverHR:
		return true
	}
	return false
}

// StepStatus is the state of a single approver step
type StepStatus string

const (
	StepPending  StepStatus = "pending"
	StepApproved StepStatus = "approved"
	StepRejected StepStatus = "rejected"
)

// IsValid returns true if the step status is known
func (s StepStatus) IsValid() bool {
	switch s {
	case StepPending, StepApproved, StepRejected:
		return true
	}
	return false
}

// Acted returns true once the approver has approved or rejected
func (s StepStatus) Acted() bool {
	return s == StepApproved || s == StepRejected
}

// TimelineEventType tags a lifecycle event of a leave request
type TimelineEventType string

const (
	EventSubmitted TimelineEventType = "submitted"
	EventApproved  TimelineEventType = "approved"
	EventRejected  TimelineEventType = "rejected"
)

// StaffRole is an organisational role held by a staff member
type StaffRole string

const (
	RoleStaff       StaffRole = "staff"
	RoleTeamLead    StaffRole = "teamLead"
	RoleLineManager StaffRole = "lineManager"
	RoleHR          StaffRole = "hr"
	RoleAdmin       StaffRole = "admin"
	RoleCMS         StaffRole = "cms"
)

var validStaffRoles = map[StaffRole]bool{
	RoleStaff:       true,
	RoleTeamLead:    true,
	RoleLineManager: true,
	RoleHR:          true,
	RoleAdmin:       true,
	RoleCMS:         true,
}

// IsValid returns true if the role is a known staff role
func (r StaffRole) IsValid() bool {
	return validStaffRoles[r]
}

// StaffRoleFor returns the staff role entitled to act on an approver step
func StaffRoleFor(role ApproverRole) StaffRole {
	switch role {
	case ApproverTeamLead:
		return RoleTeamLead
	case ApproverLineManager:
		return RoleLineManager
	case ApproverHR:
		return RoleHR
	}
	return ""
}

// Scope distinguishes which portal an auth call applies to
type Scope string

const (
	ScopeCMS   Scope = "cms"
	ScopeLeave Scope = "leave"
)

// IsValid returns true for the cms and leave scopes
func (s Scope) IsValid() bool {
	return s == ScopeCMS || s == ScopeLeave
}
