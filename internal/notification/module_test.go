package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"tenant_portal_backend/internal/events"
	"tenant_portal_backend/internal/scheduler"
	"tenant_portal_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	notifications []scheduler.ApplicantNotificationPayload
	reservations  []scheduler.ViewingSlotPayload
	releases      []scheduler.ViewingSlotPayload
	err           error
}

func (q *fakeQueue) EnqueueApplicantNotification(_ context.Context, p scheduler.ApplicantNotificationPayload) error {
	q.notifications = append(q.notifications, p)
	return q.err
}

func (q *fakeQueue) EnqueueViewingReservation(_ context.Context, p scheduler.ViewingSlotPayload) error {
	q.reservations = append(q.reservations, p)
	return q.err
}

func (q *fakeQueue) EnqueueViewingRelease(_ context.Context, p scheduler.ViewingSlotPayload) error {
	q.releases = append(q.releases, p)
	return q.err
}

func TestAcceptedEnqueuesNotification(t *testing.T) {
	q := &fakeQueue{}
	m := New(q, logger.Discard())
	decisionID := uuid.New()

	err := m.Handle(context.Background(), events.ApplicationAccepted{
		BaseEvent:     events.NewBaseEvent(),
		ApplicationID: uuid.New(),
		DecisionID:    decisionID,
		Applicant:     events.Applicant{Name: "Anna", Email: "anna@example.ch"},
		SiblingIDs:    []uuid.UUID{uuid.New()},
	})
	require.NoError(t, err)
	require.Len(t, q.notifications, 1)
	assert.Equal(t, scheduler.NotificationAccepted, q.notifications[0].Kind)
	assert.Equal(t, decisionID.String(), q.notifications[0].DecisionID)
	assert.Equal(t, "anna@example.ch", q.notifications[0].Email)
}

func TestViewingRequestedReservesAndInvites(t *testing.T) {
	q := &fakeQueue{}
	m := New(q, logger.Discard())
	start := time.Date(2026, 3, 5, 16, 0, 0, 0, time.UTC)

	err := m.Handle(context.Background(), events.ViewingRequested{
		BaseEvent:     events.NewBaseEvent(),
		ApplicationID: uuid.New(),
		PropertyID:    uuid.New(),
		DecisionID:    uuid.New(),
		SlotStart:     &start,
	})
	require.NoError(t, err)
	require.Len(t, q.reservations, 1)
	assert.Equal(t, &start, q.reservations[0].SlotStart)
	require.Len(t, q.notifications, 1)
	assert.Equal(t, scheduler.NotificationViewingInvite, q.notifications[0].Kind)
}

func TestRejectedAndReleased(t *testing.T) {
	q := &fakeQueue{}
	m := New(q, logger.Discard())

	require.NoError(t, m.Handle(context.Background(), events.ApplicationRejected{ApplicationID: uuid.New(), Reason: "Einkommen"}))
	require.NoError(t, m.Handle(context.Background(), events.ViewingReleased{ApplicationID: uuid.New()}))

	require.Len(t, q.notifications, 1)
	assert.Equal(t, "Einkommen", q.notifications[0].Reason)
	assert.Len(t, q.releases, 1)
}

func TestQueueErrorsPropagate(t *testing.T) {
	q := &fakeQueue{err: errors.New("redis down")}
	m := New(q, logger.Discard())

	err := m.Handle(context.Background(), events.ViewingRequested{ApplicationID: uuid.New()})
	assert.EqualError(t, err, "redis down")
	assert.Empty(t, q.notifications)
}

func TestNilQueueDropsEvents(t *testing.T) {
	m := New(nil, logger.Discard())
	assert.NoError(t, m.Handle(context.Background(), events.ApplicationRejected{}))
}

func TestSubscribedThroughBus(t *testing.T) {
	q := &fakeQueue{}
	bus := events.NewInMemoryBus(logger.Discard())
	New(q, logger.Discard()).RegisterHandlers(bus)

	require.NoError(t, bus.PublishSync(context.Background(), events.ApplicationRejected{ApplicationID: uuid.New(), Reason: "x"}))
	assert.Len(t, q.notifications, 1)
}
