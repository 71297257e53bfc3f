package tickets

import (
	"errors"
	"fmt"
)

// Kind classifies errors that are shown to the user.
type Kind int

const (
	// KindUnauthorized means the actor lacks the role or identity the operation requires.
	KindUnauthorized Kind = iota + 1

	// KindPrecondition means the ticket or panel is not in a state that allows the operation.
	KindPrecondition

	// KindNotFound means the ticket record does not exist.
	KindNotFound

	// KindIntegrity means the stored record is missing data the operation needs.
	KindIntegrity
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindPrecondition:
		return "precondition"
	case KindNotFound:
		return "not_found"
	case KindIntegrity:
		return "integrity"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is an error whose message can be shown to the user as is.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, msg string) *Error {
	return &Error{
		Kind:    kind,
		Message: msg,
	}
}

// AsError returns the user facing error wrapped in err, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
