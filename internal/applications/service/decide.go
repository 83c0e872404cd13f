package service

import (
	"context"
	"errors"

	"tenant_portal_backend/internal/applications/decision"
	"tenant_portal_backend/internal/applications/domain"
	"tenant_portal_backend/internal/applications/repository"
	"tenant_portal_backend/internal/applications/transport"
	"tenant_portal_backend/internal/events"
	"tenant_portal_backend/platform/apperr"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// mapWriteConflict translates conditional-update failures from the repository.
func mapWriteConflict(err error, attempted domain.Status) error {
	switch {
	case errors.Is(err, domain.ErrTerminalState):
		return apperr.Wrap(apperr.KindConflict, "application was closed by another decision", err)
	case errors.Is(err, repository.ErrStatusChanged):
		return apperr.Wrap(apperr.KindConflict, "application changed while deciding; reload and retry", err).
			WithDetails(map[string]string{"attempted": string(attempted)})
	}
	return mapRepoError(err)
}

// Decide applies an operator decision and publishes its side effects.
func (s *Service) Decide(ctx context.Context, id uuid.UUID, req transport.DecisionRequest, actor string) (transport.DecisionResponse, error) {
	var (
		lead domain.Lead
		last *domain.DecisionRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lead, err = s.repo.GetByID(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		last, err = s.repo.LatestDecision(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return transport.DecisionResponse{}, mapRepoError(err)
	}

	cmd := decision.Command{Kind: domain.DecisionKind(req.Decision), Reason: req.Reason, Actor: actor}
	if req.ViewingSlot != nil {
		cmd.Slot = &domain.ViewingSlot{Start: req.ViewingSlot.Start.UTC(), End: req.ViewingSlot.End.UTC()}
	}

	tr, err := decision.Decide(lead, last, cmd, s.now())
	if err != nil {
		return transport.DecisionResponse{}, err
	}
	if tr.NoOp {
		return transport.DecisionResponse{Application: toApplicationResponse(lead), NoOp: true, Effects: []string{}}, nil
	}

	updated, err := s.repo.ApplyDecision(ctx, *tr.Record)
	if err != nil {
		return transport.DecisionResponse{}, mapWriteConflict(err, tr.To)
	}

	s.log.WithContext(ctx).DecisionApplied(updated.ID.String(), string(tr.Record.Kind), string(tr.From), string(tr.To), tr.Record.Actor)
	s.invalidateFunnel(ctx, updated.PropertyID)
	s.publishEffects(ctx, updated, tr)

	record := toDecisionRecordResponse(*tr.Record)
	effects := make([]string, len(tr.Effects))
	for i, e := range tr.Effects {
		effects[i] = string(e)
	}
	return transport.DecisionResponse{Application: toApplicationResponse(updated), Decision: &record, Effects: effects}, nil
}

func (s *Service) publishEffects(ctx context.Context, lead domain.Lead, tr decision.Transition) {
	rec := tr.Record
	applicant := events.Applicant{Name: lead.ApplicantName, Email: lead.ApplicantEmail}

	switch rec.Kind {
	case domain.DecisionAccept:
		siblings, err := s.repo.ListOpenSiblings(ctx, lead.PropertyID, lead.ID)
		if err != nil {
			s.log.WithContext(ctx).Error("listing sibling applications failed", "leadId", lead.ID, "error", err)
			siblings = nil
		}
		s.bus.Publish(ctx, events.ApplicationAccepted{
			BaseEvent:        events.NewBaseEvent(),
			ApplicationID:    lead.ID,
			PropertyID:       lead.PropertyID,
			DecisionID:       rec.ID,
			Actor:            rec.Actor,
			Applicant:        applicant,
			HardGateOverride: rec.HardGateOverride,
			SiblingIDs:       siblings,
		})

	case domain.DecisionReject:
		reason := ""
		if rec.Reason != nil {
			reason = *rec.Reason
		}
		s.bus.Publish(ctx, events.ApplicationRejected{
			BaseEvent:     events.NewBaseEvent(),
			ApplicationID: lead.ID,
			PropertyID:    lead.PropertyID,
			DecisionID:    rec.ID,
			Actor:         rec.Actor,
			Applicant:     applicant,
			Reason:        reason,
		})
		if tr.Has(decision.EffectReleaseViewingSlot) {
			s.bus.Publish(ctx, events.ViewingReleased{
				BaseEvent:     events.NewBaseEvent(),
				ApplicationID: lead.ID,
				PropertyID:    lead.PropertyID,
				DecisionID:    rec.ID,
			})
		}

	case domain.DecisionScheduleViewing:
		e := events.ViewingRequested{
			BaseEvent:     events.NewBaseEvent(),
			ApplicationID: lead.ID,
			PropertyID:    lead.PropertyID,
			DecisionID:    rec.ID,
			Applicant:     applicant,
		}
		if rec.ViewingSlot != nil {
			start, end := rec.ViewingSlot.Start, rec.ViewingSlot.End
			e.SlotStart, e.SlotEnd = &start, &end
		}
		s.bus.Publish(ctx, e)
	}
}

// Advance moves an application forward along the pipeline.
func (s *Service) Advance(ctx context.Context, id uuid.UUID, req transport.AdvanceRequest) (transport.ApplicationResponse, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.ApplicationResponse{}, mapRepoError(err)
	}

	target := domain.Status(req.Status)
	if err := decision.Advance(lead, target); err != nil {
		return transport.ApplicationResponse{}, err
	}

	updated, err := s.repo.AdvanceStatus(ctx, id, lead.Status, target)
	if err != nil {
		return transport.ApplicationResponse{}, mapWriteConflict(err, target)
	}

	s.invalidateFunnel(ctx, updated.PropertyID)
	s.bus.Publish(ctx, events.ApplicationAdvanced{
		BaseEvent:     events.NewBaseEvent(),
		ApplicationID: updated.ID,
		PropertyID:    updated.PropertyID,
		FromStatus:    string(lead.Status),
		ToStatus:      string(updated.Status),
	})
	return toApplicationResponse(updated), nil
}

// ListDecisions returns the decision history of an application, oldest first.
func (s *Service) ListDecisions(ctx context.Context, id uuid.UUID) (transport.DecisionHistoryResponse, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return transport.DecisionHistoryResponse{}, mapRepoError(err)
	}
	records, err := s.repo.ListDecisions(ctx, id)
	if err != nil {
		return transport.DecisionHistoryResponse{}, mapRepoError(err)
	}
	items := make([]transport.DecisionRecordResponse, len(records))
	for i, r := range records {
		items[i] = toDecisionRecordResponse(r)
	}
	return transport.DecisionHistoryResponse{Items: items}, nil
}
