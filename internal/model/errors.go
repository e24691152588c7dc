// Package model defines the GeoJSON-shaped domain types shared between
// the feature store, the modes and the coordinator: Feature, its tagged
// Geometry variant, and the ChangeBatch emitted on every mutation.
package model

import "fmt"

// Kind tags a store/mode-base error so callers can branch with
// errors.Is instead of string matching, per spec.md §7.
type Kind string

const (
	KindNotRegistered     Kind = "NotRegistered"
	KindAlreadyRegistered Kind = "AlreadyRegistered"
	KindIllegalStateWrite Kind = "IllegalStateWrite"
	KindInvalidGeometry   Kind = "InvalidGeometry"
	KindUnknownID         Kind = "UnknownId"
	KindInvalidStyles     Kind = "InvalidStyles"
)

// Error is a structural/usage error per spec.md §7's first policy
// bucket: these are thrown to the caller because they signal a
// programming bug, never a transient drag-time geometry violation.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Msg) }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == "" || t.Kind == e.Kind
}

func NewError(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}
