package entity

// LeaveDraft is the leave application form before submission
type LeaveDraft struct {
	LeaveTypeID string `json:"leaveTypeId" validate:"required"`
	StartDate   Date   `json:"startDate"`
	EndDate     Date   `json:"endDate"`
	Reason      string `json:"reason" validate:"required,max=1000"`
	HalfDay     bool   `json:"halfDay,omitempty"`
}

// StaffDraft is the create/update form for a staff member
type StaffDraft struct {
	Name          string      `json:"name" validate:"required"`
	Email         string      `json:"email" validate:"required,email"`
	Title         string      `json:"title,omitempty"`
	Roles         []StaffRole `json:"roles,omitempty" validate:"dive,staffrole"`
	DepartmentID  string      `json:"departmentId,omitempty"`
	TeamID        string      `json:"teamId,omitempty"`
	TeamLeadID    string      `json:"teamLeadId,omitempty"`
	LineManagerID string      `json:"lineManagerId,omitempty"`
	IsOnProbation bool        `json:"isOnProbation"`
	IsVisible     bool        `json:"isVisible"`
}

// LoginForm is the body of POST /api/auth/login
type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Scope    Scope  `json:"scope" validate:"oneof=cms leave"`
}

// DecisionForm is the body of an approve or reject call. Reason is required to reject.
type DecisionForm struct {
	Reason  string `json:"reason,omitempty" validate:"max=1000"`
	Comment string `json:"comment,omitempty" validate:"max=1000"`
}
