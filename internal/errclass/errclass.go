// Package errclass implements the four-way error taxonomy from the backend
// design: Transient, UserFacing, Operational and Programmer errors. Callers
// classify with errors.As against *Error rather than maintaining four
// parallel error hierarchies, following the sentinel-error style the
// engine's own config validation uses.
package errclass

import (
	"errors"
	"fmt"
)

// Class is one of the four error categories.
type Class string

const (
	Transient  Class = "transient"  // telemetry source unavailable this tick
	UserFacing Class = "user_facing" // validation rejects, cancel, admin auth denied
	Operational Class = "operational" // trash move failure, subprocess non-zero exit
	Programmer  Class = "programmer"  // invariant violation, fatal to the operation only
)

// Error wraps an underlying error with a Class for callers that need to
// decide whether something is worth surfacing, retrying, or just logging.
type Error struct {
	Class Class
	Op    string
	Err   error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Class, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Class, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a classified error.
func New(class Class, op string, err error) *Error {
	return &Error{Class: class, Op: op, Err: err}
}

// Wrap is a convenience for New with fmt.Errorf-style wrapping preserved.
func Wrap(class Class, op string, err error, msg string) *Error {
	return &Error{Class: class, Op: op, Err: fmt.Errorf("%s: %w", msg, err)}
}

// Is reports whether err is classified as class.
func Is(err error, class Class) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Class == class
	}
	return false
}

// Sentinel UserFacing reasons for pre-deletion validation blocks (spec.md §4.3).
var (
	ErrBlockedSystemCritical  = errors.New("blocked:SystemCritical")
	ErrBlockedUserProtected   = errors.New("blocked:UserProtected")
	ErrBlockedPermissionDenied = errors.New("blocked:PermissionDenied")
	ErrBlockedInUse           = errors.New("blocked:InUse")
	ErrTrashFailed            = errors.New("trash_failed")
)

// ErrUnknownOperation is returned by the registry for an id it does not know.
var ErrUnknownOperation = errors.New("registry: unknown operation id")

// ErrAdminAuthDenied is returned when the deep-clean's auth stage is
// refused (the user declined elevation, or the helper rejected it).
var ErrAdminAuthDenied = errors.New("admin_auth_denied")

// ErrAlreadyTerminal is a Programmer-class invariant violation: a terminal
// event was about to be emitted twice for the same operation.
var ErrAlreadyTerminal = errors.New("registry: operation already terminal")
