// Package service orchestrates the applications workflow: it loads data
// from the repository, runs the pure engines and publishes the resulting
// domain events.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"tenant_portal_backend/internal/applications/domain"
	"tenant_portal_backend/internal/applications/filtering"
	"tenant_portal_backend/internal/applications/funnel"
	"tenant_portal_backend/internal/applications/reporting"
	"tenant_portal_backend/internal/applications/repository"
	"tenant_portal_backend/internal/applications/transport"
	"tenant_portal_backend/internal/events"
	"tenant_portal_backend/platform/apperr"
	"tenant_portal_backend/platform/logger"
	"tenant_portal_backend/platform/phone"
	"tenant_portal_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Repository is the data access the service needs.
type Repository interface {
	repository.ApplicationReader
	repository.ApplicationWriter
	repository.DecisionStore
	repository.SiblingFinder
	repository.CriteriaStore
}

// FunnelCache caches aggregated funnel reports per property.
type FunnelCache interface {
	// Get also returns the cache version the lookup saw; Put stores under it.
	Get(ctx context.Context, propertyID uuid.UUID, w reporting.Window) (report funnel.Report, version int64, ok bool, err error)
	Put(ctx context.Context, propertyID uuid.UUID, w reporting.Window, version int64, report funnel.Report) error
	Invalidate(ctx context.Context, propertyID uuid.UUID) error
}

type Service struct {
	repo    Repository
	bus     events.Publisher
	cache   FunnelCache
	presets domain.CriteriaPresets
	log     *logger.Logger
	now     func() time.Time
}

// New creates the applications service. cache may be nil.
func New(repo Repository, bus events.Publisher, cache FunnelCache, presets domain.CriteriaPresets, log *logger.Logger) *Service {
	if presets == nil {
		presets = domain.BuiltinPresets()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		repo:    repo,
		bus:     bus,
		cache:   cache,
		presets: presets,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func mapRepoError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("application not found")
	case errors.Is(err, repository.ErrCriteriaNotFound):
		return apperr.NotFound("no selection criteria configured for property")
	case errors.Is(err, repository.ErrDuplicate):
		return apperr.Conflict("application already exists")
	}
	return err
}

// Import stores an application that was ingested elsewhere. When the
// property has stored criteria the application is evaluated immediately.
func (s *Service) Import(ctx context.Context, req transport.ImportApplicationRequest) (transport.ApplicationResponse, error) {
	status := domain.StatusViewingRequested
	if req.Status != "" {
		status = domain.Status(req.Status)
	}
	if !status.IsPreQualification() {
		return transport.ApplicationResponse{}, apperr.Validation("imported applications must start before qualification").
			WithDetails(map[string]string{"status": req.Status})
	}

	moveIn, flexible, err := parseMoveIn(req.ApplicationDetails.MoveInDate)
	if err != nil {
		return transport.ApplicationResponse{}, err
	}

	lead := domain.Lead{
		ID:                uuid.New(),
		PropertyID:        req.PropertyID,
		SourcePortal:      domain.SourcePortal(req.SourcePortal),
		ApplicantName:     sanitize.Text(req.Applicant.Name),
		ApplicantEmail:    strings.ToLower(strings.TrimSpace(req.Applicant.Email)),
		Income:            req.ApplicationDetails.Income,
		HouseholdSize:     req.ApplicationDetails.HouseholdSize,
		HasPets:           req.ApplicationDetails.HasPets,
		Smoker:            req.ApplicationDetails.Smoker,
		MoveInDate:        moveIn,
		MoveInFlexible:    flexible,
		DocumentsProvided: req.ApplicationDetails.DocumentsProvided,
		AIInsights:        toDomainAIInsights(req.AIInsights),
		Status:            status,
	}
	if req.ID != nil {
		lead.ID = *req.ID
	}
	if req.CreatedAt != nil {
		lead.CreatedAt = req.CreatedAt.UTC()
	}
	if p := phone.NormalizeE164(req.Applicant.Phone); p != "" {
		lead.ApplicantPhone = &p
	}
	if es := req.ApplicationDetails.EmploymentStatus; es != nil {
		employment := domain.EmploymentStatus(*es)
		lead.EmploymentStatus = &employment
	}

	created, err := s.repo.Create(ctx, lead)
	if err != nil {
		return transport.ApplicationResponse{}, mapRepoError(err)
	}

	s.invalidateFunnel(ctx, created.PropertyID)
	s.bus.Publish(ctx, events.ApplicationImported{
		BaseEvent:     events.NewBaseEvent(),
		ApplicationID: created.ID,
		PropertyID:    created.PropertyID,
		SourcePortal:  string(created.SourcePortal),
	})

	criteria, err := s.repo.GetCriteria(ctx, created.PropertyID)
	if errors.Is(err, repository.ErrCriteriaNotFound) {
		return toApplicationResponse(created), nil
	}
	if err != nil {
		return transport.ApplicationResponse{}, err
	}

	evaluated, _, err := s.evaluateAndStore(ctx, created, criteria)
	if err != nil {
		return transport.ApplicationResponse{}, err
	}
	return toApplicationResponse(evaluated), nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.ApplicationResponse, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.ApplicationResponse{}, mapRepoError(err)
	}
	return toApplicationResponse(lead), nil
}

// List returns the property's applications narrowed by the filter query.
func (s *Service) List(ctx context.Context, q transport.ListApplicationsQuery) (transport.ListApplicationsResponse, error) {
	propertyID, err := uuid.Parse(q.PropertyID)
	if err != nil {
		return transport.ListApplicationsResponse{}, apperr.Validation("invalid propertyId")
	}
	spec, err := toFilterSpec(q)
	if err != nil {
		return transport.ListApplicationsResponse{}, err
	}
	if err := spec.Validate(); err != nil {
		return transport.ListApplicationsResponse{}, err
	}

	leads, err := s.repo.List(ctx, repository.ListParams{PropertyID: propertyID, From: spec.From, To: spec.To})
	if err != nil {
		return transport.ListApplicationsResponse{}, err
	}

	filtered, err := filtering.Filter(leads, spec)
	if err != nil {
		return transport.ListApplicationsResponse{}, err
	}
	return transport.ListApplicationsResponse{Items: toApplicationResponses(filtered), Total: len(filtered)}, nil
}

func toFilterSpec(q transport.ListApplicationsQuery) (filtering.Spec, error) {
	from, err := parseInstant("from", q.From, false)
	if err != nil {
		return filtering.Spec{}, err
	}
	to, err := parseInstant("to", q.To, true)
	if err != nil {
		return filtering.Spec{}, err
	}

	spec := filtering.Spec{
		MinScore:       q.MinScore,
		MaxScore:       q.MaxScore,
		From:           from,
		To:             to,
		OnlyGreenFlags: q.OnlyGreenFlags,
		NoRedFlags:     q.NoRedFlags,
		HighConfidence: q.HighConfidence,
	}
	for _, p := range q.Portals {
		spec.Portals = append(spec.Portals, domain.SourcePortal(p))
	}
	for _, st := range q.Statuses {
		spec.Statuses = append(spec.Statuses, domain.Status(st))
	}
	return spec, nil
}

func (s *Service) invalidateFunnel(ctx context.Context, propertyID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, propertyID); err != nil {
		s.log.WithContext(ctx).Warn("funnel cache invalidation failed", "propertyId", propertyID, "error", err)
	}
}
