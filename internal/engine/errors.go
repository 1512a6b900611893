package engine

import "errors"

// Typed command outcomes. Nothing in the engine panics or fails
// uncontrolled: every rejected command returns one of these.
var (
	// ErrInvalidTransition signals a command issued in a state that
	// forbids it. Callers must treat it as a programming-error signal,
	// not a recoverable condition.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrAnswerLocked signals an attempt to change an answer after its
	// reveal. Benign from the UI's point of view.
	ErrAnswerLocked = errors.New("answer locked after reveal")

	// ErrSessionPaused signals a scorer or navigation command issued
	// while the session is paused.
	ErrSessionPaused = errors.New("session is paused")

	// ErrPersistenceFailure signals that a finalized result could not be
	// handed to the persistence collaborator. The result is retained for
	// an explicit retry; it is never silently dropped.
	ErrPersistenceFailure = errors.New("result persistence failed")

	// ErrSessionConflict signals that the user already has a live session.
	ErrSessionConflict = errors.New("another session is already active")

	// ErrSessionNotFound signals a command addressed to an unknown or
	// already removed session.
	ErrSessionNotFound = errors.New("session not found")
)
