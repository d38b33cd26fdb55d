package validator

import "strings"

// ValidationErrors is the translated result of a failed validation.
type ValidationErrors struct {
	Errors []FieldError `json:"errors"`
}

// FieldError is one failed rule on one field.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (v *ValidationErrors) Error() string {
	if !v.HasErrors() {
		return ""
	}
	return "validation failed: " + strings.Join(v.Messages(), "; ")
}

// HasErrors reports whether any rule failed.
func (v *ValidationErrors) HasErrors() bool {
	return v != nil && len(v.Errors) > 0
}

// First returns the first message, or "".
func (v *ValidationErrors) First() string {
	if !v.HasErrors() {
		return ""
	}
	return v.Errors[0].Message
}

// Messages returns every message in field order.
func (v *ValidationErrors) Messages() []string {
	if !v.HasErrors() {
		return nil
	}
	messages := make([]string, len(v.Errors))
	for i, fe := range v.Errors {
		messages[i] = fe.Message
	}
	return messages
}

// ByField groups the messages by field name.
func (v *ValidationErrors) ByField() map[string][]string {
	if !v.HasErrors() {
		return nil
	}
	out := make(map[string][]string)
	for _, fe := range v.Errors {
		out[fe.Field] = append(out[fe.Field], fe.Message)
	}
	return out
}

// NewValidationError creates a ValidationErrors holding one error.
func NewValidationError(field, tag, message string) *ValidationErrors {
	return &ValidationErrors{Errors: []FieldError{{Field: field, Tag: tag, Message: message}}}
}
