// Package gitgoverr defines the stable error taxonomy shared by every
// adapter in the core. Callers match on Kind, never on message text.
package gitgoverr

import (
	"errors"
	"fmt"
)

// Kind is a stable, comparable error classification. Messages may change;
// Kind never does.
type Kind string

const (
	KindInvalidData        Kind = "INVALID_DATA"
	KindActorNotFound      Kind = "ACTOR_NOT_FOUND"
	KindActorNotAgent      Kind = "ACTOR_NOT_AGENT"
	KindActorAlreadyRevoked Kind = "ACTOR_ALREADY_REVOKED"
	KindNoActiveActor      Kind = "NO_ACTIVE_ACTOR"
	KindTaskNotFound       Kind = "TASK_NOT_FOUND"
	KindCycleNotFound      Kind = "CYCLE_NOT_FOUND"
	KindFeedbackNotFound   Kind = "FEEDBACK_NOT_FOUND"
	KindRecordNotFound     Kind = "RECORD_NOT_FOUND"
	KindIllegalTransition  Kind = "ILLEGAL_TRANSITION"
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindPreconditionFailed Kind = "PRECONDITION_FAILED"
	KindDuplicateAssignment Kind = "DUPLICATE_ASSIGNMENT"
	KindAlreadyResolved    Kind = "ALREADY_RESOLVED"
	KindLinkInconsistent   Kind = "LINK_INCONSISTENT"
	KindChecksumMismatch   Kind = "CHECKSUM_MISMATCH"
	KindSignatureInvalid   Kind = "SIGNATURE_INVALID"
	KindKeyNotFound        Kind = "KEY_NOT_FOUND"
	KindPrivateKeyNotFound Kind = "PRIVATE_KEY_NOT_FOUND"
	KindMissingTransitionTo Kind = "MISSING_TRANSITION_TO"
	KindNotImplemented     Kind = "NOT_IMPLEMENTED"
	KindIOError            Kind = "IO_ERROR"
)

// Error is the concrete error type surfaced by adapters. Op names the
// adapter method that failed (e.g. "Identity.RevokeActor").
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Op, e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error with no wrapped cause.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap builds an Error around an existing cause.
func Wrap(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind from err, or "" if err isn't a *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
