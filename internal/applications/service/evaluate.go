package service

import (
	"context"
	"errors"

	"tenant_portal_backend/internal/applications/domain"
	"tenant_portal_backend/internal/applications/evaluation"
	"tenant_portal_backend/internal/applications/repository"
	"tenant_portal_backend/internal/applications/transport"
	"tenant_portal_backend/internal/events"
	"tenant_portal_backend/platform/apperr"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// batchConcurrency bounds parallel writes during a property re-evaluation.
const batchConcurrency = 4

// storedCriteria loads the property's criteria. Evaluation needs the rent and
// availability that only stored criteria carry.
func (s *Service) storedCriteria(ctx context.Context, propertyID uuid.UUID) (domain.Criteria, error) {
	criteria, err := s.repo.GetCriteria(ctx, propertyID)
	if errors.Is(err, repository.ErrCriteriaNotFound) {
		return domain.Criteria{}, apperr.Validation("property has no selection criteria; configure them before evaluating")
	}
	return criteria, err
}

// Evaluate re-scores one application against its property's criteria.
func (s *Service) Evaluate(ctx context.Context, id uuid.UUID) (transport.EvaluationResponse, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.EvaluationResponse{}, mapRepoError(err)
	}
	criteria, err := s.storedCriteria(ctx, lead.PropertyID)
	if err != nil {
		return transport.EvaluationResponse{}, err
	}

	updated, res, err := s.evaluateAndStore(ctx, lead, criteria)
	if err != nil {
		return transport.EvaluationResponse{}, err
	}
	return transport.EvaluationResponse{
		Application: toApplicationResponse(updated),
		Scored:      res.Scored,
		SubScores:   res.SubScores,
		Warnings:    toEvaluationWarnings(res.Warnings),
	}, nil
}

// EvaluateProperty re-scores every application of a property.
func (s *Service) EvaluateProperty(ctx context.Context, propertyID uuid.UUID) (transport.BatchEvaluationResponse, error) {
	criteria, err := s.storedCriteria(ctx, propertyID)
	if err != nil {
		return transport.BatchEvaluationResponse{}, err
	}
	leads, err := s.repo.List(ctx, repository.ListParams{PropertyID: propertyID})
	if err != nil {
		return transport.BatchEvaluationResponse{}, err
	}

	results := make([]evaluation.Result, len(leads))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i := range leads {
		i := i
		g.Go(func() error {
			_, res, err := s.evaluateAndStore(gctx, leads[i], criteria)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return transport.BatchEvaluationResponse{}, err
	}

	resp := transport.BatchEvaluationResponse{PropertyID: propertyID, Evaluated: len(results)}
	for _, res := range results {
		if res.HardPass {
			resp.HardPassed++
		}
		if !res.Scored {
			resp.Unscored++
		}
		resp.Warnings += len(res.Warnings)
	}
	return resp, nil
}

// evaluateAndStore runs the evaluator, persists the verdict and score and
// returns the updated lead.
func (s *Service) evaluateAndStore(ctx context.Context, lead domain.Lead, criteria domain.Criteria) (domain.Lead, evaluation.Result, error) {
	res := evaluation.Evaluate(lead, criteria)
	log := s.log.WithContext(ctx)
	for _, w := range res.Warnings {
		if w.Attribute != "" {
			log.DataIncomplete(lead.ID.String(), w.Criterion, w.Attribute)
		} else {
			log.Warn("soft criterion ignored", "leadId", lead.ID, "criterion", w.Criterion)
		}
	}

	now := s.now()
	verdict := res.Verdict()
	var score *float64
	if res.Scored {
		v := res.SoftScore
		score = &v
	}

	if err := s.repo.UpdateEvaluation(ctx, lead.ID, repository.EvaluationParams{Verdict: verdict, Score: score, ScoredAt: now}); err != nil {
		return domain.Lead{}, res, mapRepoError(err)
	}

	lead.Verdict = &verdict
	lead.Score = score
	lead.ScoredAt = &now

	s.bus.Publish(ctx, events.ApplicationEvaluated{
		BaseEvent:     events.NewBaseEvent(),
		ApplicationID: lead.ID,
		PropertyID:    lead.PropertyID,
		HardPass:      res.HardPass,
		Score:         score,
	})
	return lead, res, nil
}
