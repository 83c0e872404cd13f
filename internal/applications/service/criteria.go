package service

import (
	"context"
	"errors"
	"time"

	"tenant_portal_backend/internal/applications/domain"
	"tenant_portal_backend/internal/applications/repository"
	"tenant_portal_backend/internal/applications/transport"
	"tenant_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

const (
	criteriaSourceStored = "stored"
	criteriaSourcePreset = "preset"
)

// GetCriteria returns the stored criteria or, if none exist, the default preset.
func (s *Service) GetCriteria(ctx context.Context, propertyID uuid.UUID) (transport.CriteriaResponse, error) {
	criteria, err := s.repo.GetCriteria(ctx, propertyID)
	if errors.Is(err, repository.ErrCriteriaNotFound) {
		return toCriteriaResponse(s.presets.Default().ForProperty(propertyID), criteriaSourcePreset), nil
	}
	if err != nil {
		return transport.CriteriaResponse{}, err
	}
	return toCriteriaResponse(criteria, criteriaSourceStored), nil
}

// PutCriteria replaces the property's criteria. Omitted hard or soft
// criteria are taken from the default preset. Unknown soft criteria are
// stored and reported back, never rejected.
func (s *Service) PutCriteria(ctx context.Context, propertyID uuid.UUID, req transport.CriteriaRequest) (transport.CriteriaResponse, error) {
	criteria := s.presets.Default().ForProperty(propertyID)
	criteria.MonthlyRent = req.MonthlyRent

	if req.AvailableFrom != nil && *req.AvailableFrom != "" {
		t, err := time.Parse(transport.DateLayout, *req.AvailableFrom)
		if err != nil {
			return transport.CriteriaResponse{}, apperr.Validation("available_from must be YYYY-MM-DD")
		}
		criteria.AvailableFrom = &t
	}
	if req.HardCriteria != nil {
		criteria.Hard = domain.HardCriteria{
			PetsAllowed:      req.HardCriteria.PetsAllowed,
			SmokingAllowed:   req.HardCriteria.SmokingAllowed,
			MinIncomeRatio:   req.HardCriteria.MinIncomeRatio,
			MaxHouseholdSize: req.HardCriteria.MaxHouseholdSize,
		}
	}
	if req.SoftCriteria != nil {
		criteria.SoftWeights = req.SoftCriteria
	}
	if req.ComfortableHouseholdSize > 0 {
		criteria.ComfortableHouseholdSize = req.ComfortableHouseholdSize
	}
	if req.RequiredDocuments > 0 {
		criteria.RequiredDocuments = req.RequiredDocuments
	}

	if unknown := criteria.UnknownSoftCriteria(); len(unknown) > 0 {
		s.log.WithContext(ctx).Warn("unknown soft criteria stored", "propertyId", propertyID, "criteria", unknown)
	}

	saved, err := s.repo.UpsertCriteria(ctx, criteria)
	if err != nil {
		return transport.CriteriaResponse{}, err
	}
	return toCriteriaResponse(saved, criteriaSourceStored), nil
}
