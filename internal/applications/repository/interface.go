package repository

import (
	"context"
	"time"

	"tenant_portal_backend/internal/applications/domain"

	"github.com/google/uuid"
)

// ApplicationReader provides read access to applications.
type ApplicationReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Lead, error)
	List(ctx context.Context, params ListParams) ([]domain.Lead, error)
}

// ApplicationWriter creates applications and stores derived data.
type ApplicationWriter interface {
	Create(ctx context.Context, lead domain.Lead) (domain.Lead, error)
	UpdateEvaluation(ctx context.Context, id uuid.UUID, params EvaluationParams) error
	// AdvanceStatus moves id from one status to another if it is still in from.
	AdvanceStatus(ctx context.Context, id uuid.UUID, from, to domain.Status) (domain.Lead, error)
}

// DecisionStore persists decisions together with the status change they cause.
type DecisionStore interface {
	ApplyDecision(ctx context.Context, record domain.DecisionRecord) (domain.Lead, error)
	LatestDecision(ctx context.Context, leadID uuid.UUID) (*domain.DecisionRecord, error)
	ListDecisions(ctx context.Context, leadID uuid.UUID) ([]domain.DecisionRecord, error)
}

// SiblingFinder lists other open applications on the same property.
type SiblingFinder interface {
	ListOpenSiblings(ctx context.Context, propertyID, excludeID uuid.UUID) ([]uuid.UUID, error)
}

// CriteriaStore persists per-property selection criteria.
type CriteriaStore interface {
	GetCriteria(ctx context.Context, propertyID uuid.UUID) (domain.Criteria, error)
	UpsertCriteria(ctx context.Context, criteria domain.Criteria) (domain.Criteria, error)
}

// PropertyLister enumerates properties that have applications.
type PropertyLister interface {
	ListPropertyIDs(ctx context.Context) ([]uuid.UUID, error)
}

// ListParams selects applications. PropertyID is required; the time
// bounds are inclusive and optional.
type ListParams struct {
	PropertyID uuid.UUID
	From       *time.Time
	To         *time.Time
}

// EvaluationParams is the evaluator output to persist.
type EvaluationParams struct {
	Verdict  domain.Verdict
	Score    *float64
	ScoredAt time.Time
}

// Store is the full repository surface.
type Store interface {
	ApplicationReader
	ApplicationWriter
	DecisionStore
	SiblingFinder
	CriteriaStore
	PropertyLister
}

var _ Store = (*Repository)(nil)
