package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldRules(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	rules := make(map[string]string)
	for _, f := range verr.Fields {
		rules[f.Field] = f.Rule
	}
	return rules
}

func TestValidate_LeaveDraft(t *testing.T) {
	valid := LeaveDraft{
		LeaveTypeID: "annual",
		StartDate:   NewDate(2026, time.June, 1),
		EndDate:     NewDate(2026, time.June, 3),
		Reason:      "Holiday",
	}
	assert.NoError(t, Validate(valid))

	rules := fieldRules(t, Validate(LeaveDraft{}))
	assert.Equal(t, "required", rules["leaveTypeId"])
	assert.Equal(t, "required", rules["reason"])
	assert.Equal(t, "required", rules["startDate"])
	assert.Equal(t, "required", rules["endDate"])

	backwards := valid
	backwards.EndDate = NewDate(2026, time.May, 30)
	rules = fieldRules(t, Validate(backwards))
	assert.Equal(t, "notbefore", rules["endDate"])

	sameDay := valid
	sameDay.EndDate = sameDay.StartDate
	assert.NoError(t, Validate(sameDay))
}

func TestValidate_StaffDraft(t *testing.T) {
	draft := StaffDraft{Name: "Efua", Email: "efua@firm.example", Roles: []StaffRole{RoleHR}}
	assert.NoError(t, Validate(&draft))

	draft.Email = "not-an-email"
	draft.Roles = append(draft.Roles, StaffRole("wizard"))
	err := Validate(&draft)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email (email)")
	assert.Contains(t, err.Error(), "staffrole")
}

func TestValidate_BlogPost(t *testing.T) {
	assert.NoError(t, Validate(BlogPost{Title: "Firm news", Content: "<p>Hello</p>"}))

	rules := fieldRules(t, Validate(BlogPost{CoverImageURL: "nope"}))
	assert.Equal(t, "required", rules["title"])
	assert.Equal(t, "required", rules["content"])
	assert.Equal(t, "url", rules["coverImageUrl"])
}
