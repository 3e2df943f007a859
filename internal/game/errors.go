package game

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a rejected command.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindState      ErrorKind = "state"
	KindCapacity   ErrorKind = "capacity"
	KindReference  ErrorKind = "reference"
	KindSession    ErrorKind = "session"
	KindTransport  ErrorKind = "transport"
	KindFatal      ErrorKind = "fatal"
)

// Stable machine-readable error codes sent to clients.
const (
	CodeMalformed       = "malformed"
	CodeUnknownCommand  = "unknown-command"
	CodeInvalidName     = "invalid-name"
	CodeNameTaken       = "name-taken"
	CodeInvalidDir      = "invalid-direction"
	CodeInvalidText     = "invalid-text"
	CodeInvalidDecision = "invalid-decision"
	CodeSelfTarget      = "self-target"
	CodeNotReady        = "not-ready"
	CodeNotActive       = "match-not-active"
	CodeNotInCombat     = "not-in-combat"
	CodeSearching       = "player-searching"
	CodeNoWeapon        = "no-weapon"
	CodeTargetBusy      = "target-busy"
	CodeNotInMatch      = "not-in-match"
	CodeAlreadyInMatch  = "already-in-match"
	CodeMatchFull       = "match-full"
	CodeMatchStarted    = "match-started"
	CodeServerFull      = "server-full"
	CodeUnknownTarget   = "unknown-target"
	CodeTargetNotHere   = "target-not-here"
	CodeNoExit          = "no-exit"
	CodeUnknownRoom     = "unknown-room"
	CodeUnknownMatch    = "unknown-match"
	CodeSessionInvalid  = "session-invalid"
	CodeSessionMismatch = "session-mismatch"
	CodeDisconnected    = "disconnected"
	CodeInternal        = "internal-error"
)

// Error is a command rejection reported back to the caller. These are not
// system failures, just commands that cannot be carried out right now.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NewError creates a typed rejection.
func NewError(kind ErrorKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// Errorf creates a typed rejection with a formatted message.
func Errorf(kind ErrorKind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsError extracts the typed rejection from err, if there is one.
func AsError(err error) (*Error, bool) {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr, true
	}
	return nil, false
}

// CodeOf returns the code of a typed rejection, or CodeInternal for any other
// non-nil error.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	if gerr, ok := AsError(err); ok {
		return gerr.Code
	}
	return CodeInternal
}

var (
	ErrNotReady      = NewError(KindState, CodeNotReady, "You are not ready to act yet.")
	ErrNotActive     = NewError(KindState, CodeNotActive, "The match has not started.")
	ErrNotInCombat   = NewError(KindState, CodeNotInCombat, "You are not in combat.")
	ErrSearching     = NewError(KindState, CodeSearching, "You are busy searching.")
	ErrNoWeapon      = NewError(KindState, CodeNoWeapon, "There is nothing to search for here.")
	ErrNotInMatch    = NewError(KindState, CodeNotInMatch, "You are not in a match.")
	ErrMatchFull     = NewError(KindCapacity, CodeMatchFull, "The match is full.")
	ErrMatchStarted  = NewError(KindCapacity, CodeMatchStarted, "The match has already started.")
	ErrSelfTarget    = NewError(KindValidation, CodeSelfTarget, "You cannot attack yourself.")
	ErrNameTaken     = NewError(KindValidation, CodeNameTaken, "That name is already taken in this match.")
	ErrUnknownTarget = NewError(KindReference, CodeUnknownTarget, "There is no such player.")
	ErrTargetNotHere = NewError(KindReference, CodeTargetNotHere, "They are not here.")
	ErrDisconnected  = NewError(KindTransport, CodeDisconnected, "You are disconnected.")

	ErrSessionInvalid  = NewError(KindSession, CodeSessionInvalid, "That session is not valid.")
	ErrSessionMismatch = NewError(KindSession, CodeSessionMismatch, "The session does not match that player.")
	ErrAlreadyInMatch  = NewError(KindState, CodeAlreadyInMatch, "You are already in a match.")
	ErrServerFull      = NewError(KindCapacity, CodeServerFull, "The server cannot host another match.")
	ErrUnknownMatch    = NewError(KindReference, CodeUnknownMatch, "There is no such match.")
)
