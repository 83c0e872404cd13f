// Package notification turns application decision events into queued side
// effects: applicant emails and viewing slot requests. Domain modules
// publish events and never talk to the queue directly.
package notification

import (
	"context"

	"tenant_portal_backend/internal/events"
	"tenant_portal_backend/internal/scheduler"
	"tenant_portal_backend/platform/logger"
)

type Module struct {
	queue scheduler.TaskEnqueuer
	log   *logger.Logger
}

// New creates the notification module. A nil queue disables side effects.
func New(queue scheduler.TaskEnqueuer, log *logger.Logger) *Module {
	return &Module{queue: queue, log: log}
}

// RegisterHandlers subscribes the module to decision events.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.ApplicationAccepted{}.EventName(), m)
	bus.Subscribe(events.ApplicationRejected{}.EventName(), m)
	bus.Subscribe(events.ViewingRequested{}.EventName(), m)
	bus.Subscribe(events.ViewingReleased{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	if m.queue == nil {
		m.log.Debug("task queue not configured; side effect dropped", "event", event.EventName())
		return nil
	}

	switch e := event.(type) {
	case events.ApplicationAccepted:
		return m.handleApplicationAccepted(ctx, e)
	case events.ApplicationRejected:
		return m.handleApplicationRejected(ctx, e)
	case events.ViewingRequested:
		return m.handleViewingRequested(ctx, e)
	case events.ViewingReleased:
		return m.handleViewingReleased(ctx, e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleApplicationAccepted(ctx context.Context, e events.ApplicationAccepted) error {
	if len(e.SiblingIDs) > 0 {
		m.log.Info("open sibling applications remain after acceptance",
			"applicationId", e.ApplicationID,
			"propertyId", e.PropertyID,
			"siblings", len(e.SiblingIDs),
		)
	}
	if e.HardGateOverride {
		m.log.Warn("application accepted despite failing hard criteria", "applicationId", e.ApplicationID, "actor", e.Actor)
	}

	return m.queue.EnqueueApplicantNotification(ctx, scheduler.ApplicantNotificationPayload{
		ApplicationID: e.ApplicationID.String(),
		DecisionID:    e.DecisionID.String(),
		Kind:          scheduler.NotificationAccepted,
		Email:         e.Applicant.Email,
		Name:          e.Applicant.Name,
	})
}

func (m *Module) handleApplicationRejected(ctx context.Context, e events.ApplicationRejected) error {
	return m.queue.EnqueueApplicantNotification(ctx, scheduler.ApplicantNotificationPayload{
		ApplicationID: e.ApplicationID.String(),
		DecisionID:    e.DecisionID.String(),
		Kind:          scheduler.NotificationRejected,
		Email:         e.Applicant.Email,
		Name:          e.Applicant.Name,
		Reason:        e.Reason,
	})
}

func (m *Module) handleViewingRequested(ctx context.Context, e events.ViewingRequested) error {
	if err := m.queue.EnqueueViewingReservation(ctx, scheduler.ViewingSlotPayload{
		ApplicationID: e.ApplicationID.String(),
		PropertyID:    e.PropertyID.String(),
		DecisionID:    e.DecisionID.String(),
		SlotStart:     e.SlotStart,
		SlotEnd:       e.SlotEnd,
	}); err != nil {
		return err
	}

	return m.queue.EnqueueApplicantNotification(ctx, scheduler.ApplicantNotificationPayload{
		ApplicationID: e.ApplicationID.String(),
		DecisionID:    e.DecisionID.String(),
		Kind:          scheduler.NotificationViewingInvite,
		Email:         e.Applicant.Email,
		Name:          e.Applicant.Name,
		SlotStart:     e.SlotStart,
		SlotEnd:       e.SlotEnd,
	})
}

func (m *Module) handleViewingReleased(ctx context.Context, e events.ViewingReleased) error {
	return m.queue.EnqueueViewingRelease(ctx, scheduler.ViewingSlotPayload{
		ApplicationID: e.ApplicationID.String(),
		PropertyID:    e.PropertyID.String(),
		DecisionID:    e.DecisionID.String(),
	})
}
