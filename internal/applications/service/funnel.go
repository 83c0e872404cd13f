package service

import (
	"context"

	"tenant_portal_backend/internal/applications/funnel"
	"tenant_portal_backend/internal/applications/reporting"
	"tenant_portal_backend/internal/applications/repository"
	"tenant_portal_backend/internal/applications/transport"
	"tenant_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

// Funnel aggregates the property's applications received in the optional window.
func (s *Service) Funnel(ctx context.Context, propertyID uuid.UUID, q transport.FunnelQuery) (transport.FunnelResponse, error) {
	from, err := parseInstant("from", q.From, false)
	if err != nil {
		return transport.FunnelResponse{}, err
	}
	to, err := parseInstant("to", q.To, true)
	if err != nil {
		return transport.FunnelResponse{}, err
	}
	if from != nil && to != nil && from.After(*to) {
		return transport.FunnelResponse{}, apperr.Validation("from must not be after to")
	}
	window := reporting.Window{From: from, To: to}
	log := s.log.WithContext(ctx)

	cacheable := false
	var version int64
	if s.cache != nil {
		report, v, ok, err := s.cache.Get(ctx, propertyID, window)
		switch {
		case err != nil:
			log.Warn("funnel cache read failed", "propertyId", propertyID, "error", err)
		case ok:
			return funnelResponse(propertyID, window, report, true), nil
		default:
			cacheable, version = true, v
		}
	}

	leads, err := s.repo.List(ctx, repository.ListParams{PropertyID: propertyID, From: from, To: to})
	if err != nil {
		return transport.FunnelResponse{}, err
	}
	report := funnel.Aggregate(leads)

	if cacheable {
		if err := s.cache.Put(ctx, propertyID, window, version, report); err != nil {
			log.Warn("funnel cache write failed", "propertyId", propertyID, "error", err)
		}
	}
	return funnelResponse(propertyID, window, report, false), nil
}

func funnelResponse(propertyID uuid.UUID, w reporting.Window, r funnel.Report, cached bool) transport.FunnelResponse {
	resp := toFunnelResponse(r)
	resp.PropertyID = propertyID
	resp.From = w.From
	resp.To = w.To
	resp.Cached = cached
	return resp
}
