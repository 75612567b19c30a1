package utils

import (
	"strings"

	apperrors "hirenest/pkg/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct validates a struct based on its validation tags and returns
// a validation AppError listing every failing field.
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateVar validates a single value against a tag expression.
func ValidateVar(v interface{}, tag string) error {
	return validate.Var(v, tag)
}

func formatValidationError(err error) error {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		messages := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			messages = append(messages, formatFieldError(e))
		}
		return apperrors.NewValidationError(strings.Join(messages, "; "))
	}
	return apperrors.NewValidationError(err.Error())
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Field())

	switch e.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return field + " must be at least " + e.Param() + " characters"
	case "max":
		return field + " must be at most " + e.Param() + " characters"
	case "email":
		return field + " must be a valid email"
	case "oneof":
		return field + " must be one of: " + e.Param()
	case "uuid":
		return field + " must be a valid id"
	case "url":
		return field + " must be a valid url"
	default:
		return field + " is invalid"
	}
}
