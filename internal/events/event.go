// Package events defines the domain events exchanged between modules.
// Bus infrastructure lives in platform/events.
package events

import (
	"time"

	"tenant_portal_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Publisher   = events.Publisher
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Application Lifecycle Events
// =============================================================================

// ApplicationImported is published when an already-ingested application is stored.
type ApplicationImported struct {
	BaseEvent
	ApplicationID uuid.UUID `json:"applicationId"`
	PropertyID    uuid.UUID `json:"propertyId"`
	SourcePortal  string    `json:"sourcePortal"`
}

func (e ApplicationImported) EventName() string { return "applications.imported" }

// ApplicationEvaluated is published after criteria evaluation is persisted.
type ApplicationEvaluated struct {
	BaseEvent
	ApplicationID uuid.UUID `json:"applicationId"`
	PropertyID    uuid.UUID `json:"propertyId"`
	HardPass      bool      `json:"hardPass"`
	Score         *float64  `json:"score,omitempty"`
}

func (e ApplicationEvaluated) EventName() string { return "applications.evaluated" }

// ApplicationAdvanced is published when an application moves along the pipeline
// without a decision.
type ApplicationAdvanced struct {
	BaseEvent
	ApplicationID uuid.UUID `json:"applicationId"`
	PropertyID    uuid.UUID `json:"propertyId"`
	FromStatus    string    `json:"fromStatus"`
	ToStatus      string    `json:"toStatus"`
}

func (e ApplicationAdvanced) EventName() string { return "applications.advanced" }

// =============================================================================
// Decision Events
// =============================================================================

// Applicant identifies who receives a notification.
type Applicant struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// ApplicationAccepted is published when a tenant is selected. Siblings are the
// other open applications on the property; nothing rejects them automatically.
type ApplicationAccepted struct {
	BaseEvent
	ApplicationID    uuid.UUID   `json:"applicationId"`
	PropertyID       uuid.UUID   `json:"propertyId"`
	DecisionID       uuid.UUID   `json:"decisionId"`
	Actor            string      `json:"actor"`
	Applicant        Applicant   `json:"applicant"`
	HardGateOverride bool        `json:"hardGateOverride"`
	SiblingIDs       []uuid.UUID `json:"siblingIds"`
}

func (e ApplicationAccepted) EventName() string { return "applications.accepted" }

// ApplicationRejected is published when an application is turned down.
type ApplicationRejected struct {
	BaseEvent
	ApplicationID uuid.UUID `json:"applicationId"`
	PropertyID    uuid.UUID `json:"propertyId"`
	DecisionID    uuid.UUID `json:"decisionId"`
	Actor         string    `json:"actor"`
	Applicant     Applicant `json:"applicant"`
	Reason        string    `json:"reason"`
}

func (e ApplicationRejected) EventName() string { return "applications.rejected" }

// ViewingRequested asks the scheduling subsystem to reserve a viewing slot.
type ViewingRequested struct {
	BaseEvent
	ApplicationID uuid.UUID  `json:"applicationId"`
	PropertyID    uuid.UUID  `json:"propertyId"`
	DecisionID    uuid.UUID  `json:"decisionId"`
	Applicant     Applicant  `json:"applicant"`
	SlotStart     *time.Time `json:"slotStart,omitempty"`
	SlotEnd       *time.Time `json:"slotEnd,omitempty"`
}

func (e ViewingRequested) EventName() string { return "applications.viewing_requested" }

// ViewingReleased tells the scheduling subsystem a reserved slot is free again.
type ViewingReleased struct {
	BaseEvent
	ApplicationID uuid.UUID `json:"applicationId"`
	PropertyID    uuid.UUID `json:"propertyId"`
	DecisionID    uuid.UUID `json:"decisionId"`
}

func (e ViewingReleased) EventName() string { return "applications.viewing_released" }
