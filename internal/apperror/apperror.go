package apperror

import "errors"

// Kind is a stable error category that handlers map to HTTP status codes.
type Kind string

const (
	KindNotFound   Kind = "not_found"
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
)

// Error carries a Kind plus a client-safe message. Msg is returned to callers
// for Validation/NotFound/Conflict; anything else stays internal.
type Error struct {
	Kind   Kind
	Msg    string
	Fields []string // optional list of individual violations
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func New(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func NotFound(msg string, err error) error   { return New(KindNotFound, msg, err) }
func Validation(msg string, err error) error { return New(KindValidation, msg, err) }
func Conflict(msg string, err error) error   { return New(KindConflict, msg, err) }

// ValidationList wraps a set of accumulated violations; the first one becomes
// the headline message, the rest stay available via Violations.
func ValidationList(violations []string) error {
	if len(violations) == 0 {
		return nil
	}
	return &Error{Kind: KindValidation, Msg: violations[0], Fields: violations}
}

// Violations extracts the accumulated violation list, if err carries one.
func Violations(err error) []string {
	var e *Error
	if !errors.As(err, &e) {
		return nil
	}
	return e.Fields
}

func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
