package entity

import (
	"encoding/json"
	"sort"
)

// RoleSet is the set of roles a staff member holds; staff is always implied
type RoleSet map[StaffRole]struct{}

// NewRoleSet builds a role set, dropping unknown roles
func NewRoleSet(roles ...StaffRole) RoleSet {
	set := RoleSet{RoleStaff: {}}
	for _, role := range roles {
		if role.IsValid() {
			set[role] = struct{}{}
		}
	}
	return set
}

// Has reports whether the set includes role
func (s RoleSet) Has(role StaffRole) bool {
	if role == RoleStaff {
		return true
	}
	_, ok := s[role]
	return ok
}

// Slice returns the roles in sorted order, always including staff
func (s RoleSet) Slice() []StaffRole {
	roles := []StaffRole{RoleStaff}
	for role := range s {
		if role != RoleStaff {
			roles = append(roles, role)
		}
	}
	rest := roles[1:]
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return roles
}

// MarshalJSON implements json.Marshaler
func (s RoleSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

// UnmarshalJSON implements json.Unmarshaler
func (s *RoleSet) UnmarshalJSON(data []byte) error {
	var roles []StaffRole
	if err := json.Unmarshal(data, &roles); err != nil {
		return err
	}
	*s = NewRoleSet(roles...)
	return nil
}

// StaffMember is a member of the firm as known to the back office
type StaffMember struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Title         string  `json:"title,omitempty"`
	Roles         RoleSet `json:"roles"`
	DepartmentID  string  `json:"departmentId,omitempty"`
	TeamID        string  `json:"teamId,omitempty"`
	TeamLeadID    string  `json:"teamLeadId,omitempty"`
	LineManagerID string  `json:"lineManagerId,omitempty"`
	IsOnProbation bool    `json:"isOnProbation"`
	IsVisible     bool    `json:"isVisible"`
	PhotoURL      string  `json:"photoUrl,omitempty"`
}

// HasRole reports whether the member holds role
func (m *StaffMember) HasRole(role StaffRole) bool {
	if m == nil {
		return false
	}
	return m.Roles.Has(role)
}

// Ref returns a lightweight reference to the member
func (m *StaffMember) Ref() *StaffRef {
	return &StaffRef{ID: m.ID, Name: m.Name, Email: m.Email}
}

// Department is an organisational department
type Department struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Team is a team within a department
type Team struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DepartmentID string `json:"departmentId,omitempty"`
}

// PracticeArea is a legal practice area staff can be attached to
type PracticeArea struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}
