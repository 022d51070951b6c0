// Package validate adapts go-playground/validator to echo's Validator
// interface so handlers can call c.Validate on bound request structs.
package validate

import (
	"github.com/go-playground/validator/v10"

	"github.com/careportal/careportal/internal/platform/errs"
)

type EchoValidator struct {
	validator *validator.Validate
}

func New() *EchoValidator {
	return &EchoValidator{validator: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate returns a ValidationError naming the first failed field so the
// handler layer maps it to a 400 without inspecting validator internals.
func (v *EchoValidator) Validate(i interface{}) error {
	err := v.validator.Struct(i)
	if err == nil {
		return nil
	}
	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return errs.Validationf("field %s failed on %s", fe.Field(), fe.Tag())
	}
	return errs.Validationf("invalid request payload")
}
