package lifecycle

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies lifecycle failures
type Kind string

const (
	KindValidation        Kind = "validation"
	KindForbidden         Kind = "forbidden"
	KindNotFound          Kind = "not_found"
	KindInvalidTransition Kind = "invalid_transition"
	KindConflict          Kind = "conflict"
	KindActiveApplication Kind = "active_application"
	KindUpload            Kind = "upload"
	KindStore             Kind = "store"
	KindPartial           Kind = "partial"
)

// Error is returned by every engine operation.
// errors.Is matches any *Error of the same Kind, so the sentinels below work as targets.
type Error struct {
	Kind    Kind
	Op      Action
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(string(e.Op))
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s: %s", k, e.Fields[k])
		}
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrValidation        = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrForbidden         = &Error{Kind: KindForbidden, Message: "operation not permitted for this actor"}
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "not found"}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition, Message: "invalid state transition"}
	ErrConflict          = &Error{Kind: KindConflict, Message: "application was modified concurrently"}
	ErrActiveApplication = &Error{Kind: KindActiveApplication, Message: "student already has an active application"}
	ErrUpload            = &Error{Kind: KindUpload, Message: "upload failed"}
	ErrStore             = &Error{Kind: KindStore, Message: "store write failed"}
	ErrPartial           = &Error{Kind: KindPartial, Message: "operation partially applied"}
)

func newError(kind Kind, op Action, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, op Action, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...), Err: err}
}

func validationError(op Action, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: "invalid input", Fields: fields}
}

// KindOf returns the Kind of err, or KindStore for foreign errors
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindStore
}
