package booking

import (
	"errors"
	"fmt"
)

// Kind classifies a booking failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindForbidden
	KindDuplicateValue
	KindBadRequest
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindDuplicateValue:
		return "duplicate_value"
	case KindBadRequest:
		return "bad_request"
	}
	return "unexpected"
}

// Error is a typed booking failure. Callers match on kind with errors.Is
// against the sentinel values below.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches a bare sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrForbidden      = &Error{Kind: KindForbidden}
	ErrDuplicateValue = &Error{Kind: KindDuplicateValue}
	ErrBadRequest     = &Error{Kind: KindBadRequest}

	// ErrCapacityExceeded is returned when a guarded transition would push
	// confirm_count past max_users.
	ErrCapacityExceeded = &Error{Kind: KindBadRequest, Msg: "capacity exceeded"}
)

func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) error {
	return &Error{Kind: KindForbidden, Msg: fmt.Sprintf(format, args...)}
}

func DuplicateValue(format string, args ...any) error {
	return &Error{Kind: KindDuplicateValue, Msg: fmt.Sprintf(format, args...)}
}

func BadRequest(format string, args ...any) error {
	return &Error{Kind: KindBadRequest, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindUnknown
}

// ErrorKind maps an error to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	return KindOf(err).String()
}
