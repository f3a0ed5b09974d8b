package entity

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("staffrole", func(fl validator.FieldLevel) bool {
			return StaffRole(fl.Field().String()).IsValid()
		})
		validate.RegisterStructValidation(validateLeaveDraftDates, LeaveDraft{})
	})
	return validate
}

func validateLeaveDraftDates(sl validator.StructLevel) {
	draft := sl.Current().Interface().(LeaveDraft)
	if draft.StartDate.IsZero() {
		sl.ReportError(draft.StartDate, "startDate", "StartDate", "required", "")
	}
	if draft.EndDate.IsZero() {
		sl.ReportError(draft.EndDate, "endDate", "EndDate", "required", "")
	}
	if !draft.StartDate.IsZero() && !draft.EndDate.IsZero() && draft.EndDate.Before(draft.StartDate.Time) {
		sl.ReportError(draft.EndDate, "endDate", "EndDate", "notbefore", "startDate")
	}
}

// FieldError describes one invalid form field
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationError collects the invalid fields of a form
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s (%s)", f.Field, f.Rule))
	}
	return "invalid fields: " + strings.Join(parts, ", ")
}

// Validate checks a form struct against its validate tags and registered rules
func Validate(form any) error {
	err := validatorInstance().Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return out
}
