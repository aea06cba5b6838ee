package model

import (
	"fmt"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// Add appends a field error.
func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// ValidateIssue checks the identity fields of an Issue.
// Only a missing id or key makes an issue invalid; every other field has a
// renderable default. It returns a *ValidationError or nil.
func ValidateIssue(i *Issue) error {
	var ve ValidationError

	if strings.TrimSpace(i.ID) == "" {
		ve.Add("id", "is required")
	}

	if strings.TrimSpace(i.Key) == "" {
		ve.Add("key", "is required")
	}

	if i.Status.CategoryKey != "" && !i.Status.CategoryKey.IsValid() {
		ve.Add("status.category_key", fmt.Sprintf("invalid value %q", i.Status.CategoryKey))
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
