package service

import (
	"context"
	"errors"

	"tenant_portal_backend/internal/applications/comparison"
	"tenant_portal_backend/internal/applications/domain"
	"tenant_portal_backend/internal/applications/repository"
	"tenant_portal_backend/internal/applications/transport"
	"tenant_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

// Compare builds the side-by-side table for a shortlist. All applications
// must belong to the same property since comparators follow its criteria.
func (s *Service) Compare(ctx context.Context, req transport.CompareRequest) (transport.CompareResponse, error) {
	ids := dedupe(req.ApplicationIDs)
	if len(ids) == 0 {
		return transport.CompareResponse{Applications: []transport.ApplicationResponse{}, Attributes: []transport.ComparisonRow{}}, nil
	}

	found, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return transport.CompareResponse{}, err
	}
	byID := make(map[uuid.UUID]domain.Lead, len(found))
	for _, l := range found {
		byID[l.ID] = l
	}

	leads := make([]domain.Lead, 0, len(ids))
	var missing []string
	for _, id := range ids {
		l, ok := byID[id]
		if !ok {
			missing = append(missing, id.String())
			continue
		}
		leads = append(leads, l)
	}
	if len(missing) > 0 {
		return transport.CompareResponse{}, apperr.NotFound("applications not found").WithDetails(map[string][]string{"ids": missing})
	}

	propertyID := leads[0].PropertyID
	for _, l := range leads[1:] {
		if l.PropertyID != propertyID {
			return transport.CompareResponse{}, apperr.Validation("applications must belong to the same property")
		}
	}

	criteria, err := s.repo.GetCriteria(ctx, propertyID)
	if errors.Is(err, repository.ErrCriteriaNotFound) {
		criteria = s.presets.Default().ForProperty(propertyID)
	} else if err != nil {
		return transport.CompareResponse{}, err
	}

	attrs := comparison.Select(comparison.DefaultAttributes(criteria), req.Attributes)
	return transport.CompareResponse{
		Applications: toApplicationResponses(leads),
		Attributes:   toComparisonRows(comparison.Compare(leads, attrs)),
	}, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
