package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validator wraps the struct validator used across handlers and config.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	return &Validator{validate: validator.New()}
}

// Validate checks struct tags and returns the first violation as a plain error.
func (v *Validator) Validate(obj interface{}) error {
	if err := v.validate.Struct(obj); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			ve := verrs[0]
			return fmt.Errorf("field %s failed validation rule %q", ve.Namespace(), ve.Tag())
		}
		return err
	}
	return nil
}

// Var validates a single value against a rule expression.
func (v *Validator) Var(value interface{}, rules string) error {
	return v.validate.Var(value, rules)
}
