package entangle

import (
	"errors"
	"fmt"

	"github.com/roach88/entangle/internal/syntax"
)

// Transformation error and warning codes (E2xx / W2xx).
const (
	ErrCodeTargetNotPath    = "E201" // implementation target is not a plain type path
	ErrCodeReturnNotPath    = "E202" // forwarded method return type is not a plain type path
	ErrCodeUnknownItem      = "E290" // unknown implementation item kind
	ErrCodeUnknownConstruct = "E291" // construct outside the closed sum
	ErrCodeRenderFailed     = "E292" // expansion could not be rendered to source

	WarnCodeVisibilityWidened = "W210" // visibility scope widened
	WarnCodeActorOnly         = "W211" // associated function kept on the actor only
)

// ErrorClass separates errors the user can fix from transformer defects.
type ErrorClass int

const (
	// ClassUser is a malformed input the user can correct.
	ClassUser ErrorClass = iota
	// ClassInternal is an input shape outside the designed grammar subset.
	ClassInternal
)

func (c ErrorClass) String() string {
	if c == ClassInternal {
		return "internal"
	}
	return "user"
}

// Error aborts the transformation of one construct.
type Error struct {
	Class   ErrorClass
	Code    string
	Message string
	Span    syntax.Span
}

func (e *Error) Error() string {
	if e.Span.IsValid() {
		return fmt.Sprintf("%s: [%s] %s", e.Span, e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// IsUserError returns true if err is a user-correctable transformation error.
// Uses errors.As to handle wrapped errors.
func IsUserError(err error) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Class == ClassUser
	}
	return false
}

// IsInternalError returns true if err signals a transformer defect.
// Uses errors.As to handle wrapped errors.
func IsInternalError(err error) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Class == ClassInternal
	}
	return false
}

func userError(code string, span syntax.Span, format string, args ...any) *Error {
	return &Error{Class: ClassUser, Code: code, Message: fmt.Sprintf(format, args...), Span: span}
}

func internalError(code string, span syntax.Span, format string, args ...any) *Error {
	return &Error{Class: ClassInternal, Code: code, Message: fmt.Sprintf(format, args...), Span: span}
}
