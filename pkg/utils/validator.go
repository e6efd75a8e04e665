package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/turtacn/kpidash/pkg/errors"
)

var defaultValidator = validator.New()

var (
	matchFirstCap = regexp.MustCompile("(.)([A-Z][a-z]+)")
	matchAllCap   = regexp.MustCompile("([a-z0-9])([A-Z])")
)

// Validator returns the shared validator instance so other packages can
// register custom rules against the same engine.
func Validator() *validator.Validate {
	return defaultValidator
}

// ValidateStruct validates a struct using the default validator.
// It returns an invalid_request AppError listing each failing field.
func ValidateStruct(s interface{}) error {
	err := defaultValidator.Struct(s)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.ErrInvalidRequest.WithCause(err)
	}
	appErr := errors.ErrInvalidRequest
	for _, fe := range validationErrors {
		appErr = appErr.WithDetail(toLowerCamel(fe.Field()), formatValidationError(fe))
	}
	return appErr
}

// formatValidationError creates a user-friendly error message for a validation error.
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "min", "gt", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lt", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed on the '%s' tag", fe.Tag())
	}
}

// toLowerCamel turns a Go field name into the JSON casing used by the API.
func toLowerCamel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// ToSnakeCase converts a string from CamelCase to snake_case.
// Used for configuration keys in validation messages.
func ToSnakeCase(str string) string {
	snake := matchFirstCap.ReplaceAllString(str, "${1}_${2}")
	snake = matchAllCap.ReplaceAllString(snake, "${1}_${2}")
	return strings.ToLower(snake)
}

// ValidateEmail checks if a string is a valid email address.
func ValidateEmail(email string) bool {
	return defaultValidator.Var(email, "required,email") == nil
}
