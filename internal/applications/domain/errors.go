package domain

import "errors"

var (
	// ErrTerminalState is returned for any decision on a selected or rejected application.
	ErrTerminalState = errors.New("application is in a terminal state")
	// ErrReasonRequired is returned when a rejection has no reason.
	ErrReasonRequired = errors.New("rejection requires a reason")
	// ErrActorRequired is returned when a decision has no acting operator.
	ErrActorRequired = errors.New("decision requires an actor")
	// ErrUnknownDecision is returned for an unrecognised decision kind.
	ErrUnknownDecision = errors.New("unknown decision kind")
	// ErrIllegalTransition is returned when the current status does not allow the move.
	ErrIllegalTransition = errors.New("transition not allowed from current status")
	// ErrHardGateFailed is returned when a lead failing hard criteria would become qualified.
	ErrHardGateFailed = errors.New("application fails hard criteria")
	// ErrInvalidViewingSlot is returned when a slot ends before it starts.
	ErrInvalidViewingSlot = errors.New("viewing slot ends before it starts")
)
