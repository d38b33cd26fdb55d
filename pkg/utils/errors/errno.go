// Package errors provides the structured error codes returned by the planner API.
//
// Error Code Format: AABBCCC (7 digits)
//
//	AA  (00-99): service code
//	BB  (00-99): category code
//	CCC (000-999): sequence inside the category
//
// Usage:
//
//	return errors.ErrInvalidParam.WithMessage("query is required")
//	return errors.ErrPlanFailed.WithCause(err)
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
)

// Errno is a registered error with code, transport status and bilingual message.
type Errno struct {
	Code      int        `json:"code"`
	HTTP      int        `json:"-"`
	GRPCCode  codes.Code `json:"-"`
	MessageEN string     `json:"message"`
	MessageZH string     `json:"message_zh,omitempty"`

	cause error
}

// New creates an Errno. It is not registered; wrap it with Register.
func New(code, httpStatus int, grpcCode codes.Code, messageEN, messageZH string) *Errno {
	return &Errno{
		Code:      code,
		HTTP:      httpStatus,
		GRPCCode:  grpcCode,
		MessageEN: messageEN,
		MessageZH: messageZH,
	}
}

// Error implements the error interface.
func (e *Errno) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("errno %d: %s: %v", e.Code, e.MessageEN, e.cause)
	}
	return fmt.Sprintf("errno %d: %s", e.Code, e.MessageEN)
}

// Unwrap returns the underlying cause.
func (e *Errno) Unwrap() error {
	return e.cause
}

// Is matches any Errno carrying the same code.
func (e *Errno) Is(target error) bool {
	var t *Errno
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

func (e *Errno) clone() *Errno {
	c := *e
	return &c
}

// WithCause returns a copy of e wrapping cause.
func (e *Errno) WithCause(cause error) *Errno {
	c := e.clone()
	c.cause = cause
	return c
}

// WithMessage returns a copy of e with a replaced English message.
func (e *Errno) WithMessage(msg string) *Errno {
	c := e.clone()
	c.MessageEN = msg
	return c
}

// WithMessagef is WithMessage with formatting.
func (e *Errno) WithMessagef(format string, args ...interface{}) *Errno {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// Message returns the message for lang ("zh" or anything else for English).
func (e *Errno) Message(lang string) string {
	if (lang == "zh" || lang == "zh-CN" || lang == "zh-TW") && e.MessageZH != "" {
		return e.MessageZH
	}
	return e.MessageEN
}

// HTTPStatus returns the HTTP status, defaulting to 500.
func (e *Errno) HTTPStatus() int {
	if e.HTTP == 0 {
		return http.StatusInternalServerError
	}
	return e.HTTP
}

// FromError converts any error into an Errno; unknown errors become ErrInternal.
func FromError(err error) *Errno {
	if err == nil {
		return nil
	}
	var e *Errno
	if errors.As(err, &e) {
		return e
	}
	return ErrInternal.WithCause(err)
}

// IsCode reports whether err is an Errno with the given code.
func IsCode(err error, code int) bool {
	var e *Errno
	return errors.As(err, &e) && e.Code == code
}
