// Package validator wraps go-playground/validator with request helpers.
package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := &Validator{
		validate: validator.New(),
	}
	v.registerCustomValidations()
	return v
}

func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			var errMessages []string
			for _, e := range validationErrors {
				errMessages = append(errMessages, fmt.Sprintf(
					"Field '%s' failed validation '%s'",
					e.Field(),
					e.Tag(),
				))
			}
			return fmt.Errorf("validation failed: %v", errMessages)
		}
		return err
	}
	return nil
}

func (v *Validator) registerCustomValidations() {
	// session_code: exactly 8 uppercase alphanumerics
	_ = v.validate.RegisterValidation("session_code", func(fl validator.FieldLevel) bool {
		code := fl.Field().String()
		if len(code) != 8 {
			return false
		}
		for _, c := range code {
			if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
				return false
			}
		}
		return true
	})

	// sender_role: one of the two fixed chat participants
	_ = v.validate.RegisterValidation("sender_role", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "alice", "bob":
			return true
		}
		return false
	})
}
