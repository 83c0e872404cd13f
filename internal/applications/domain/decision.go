package domain

import (
	"time"

	"github.com/google/uuid"
)

// DecisionKind is an operator decision on an application.
type DecisionKind string

const (
	DecisionAccept          DecisionKind = "accept"
	DecisionReject          DecisionKind = "reject"
	DecisionScheduleViewing DecisionKind = "schedule_viewing"
)

func (k DecisionKind) Valid() bool {
	return k == DecisionAccept || k == DecisionReject || k == DecisionScheduleViewing
}

// ViewingSlot is a requested viewing appointment window.
type ViewingSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DecisionRecord is the append-only log entry of a committed decision.
type DecisionRecord struct {
	ID               uuid.UUID
	LeadID           uuid.UUID
	Kind             DecisionKind
	Reason           *string
	Actor            string
	FromStatus       Status
	ToStatus         Status
	HardGateOverride bool
	ViewingSlot      *ViewingSlot
	DecidedAt        time.Time
}
