package events

import (
	platformevents "tenant_portal_backend/platform/events"
	"tenant_portal_backend/platform/logger"
)

type InMemoryBus = platformevents.InMemoryBus

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}
