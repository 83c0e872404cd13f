package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"tenant_portal_backend/internal/applications/domain"
	"tenant_portal_backend/internal/applications/funnel"
	"tenant_portal_backend/internal/applications/reporting"
	"tenant_portal_backend/internal/applications/repository"
	"tenant_portal_backend/internal/events"

	"github.com/google/uuid"
)

type fakeRepo struct {
	mu        sync.Mutex
	leads     map[uuid.UUID]domain.Lead
	decisions map[uuid.UUID][]domain.DecisionRecord
	criteria  map[uuid.UUID]domain.Criteria
	// applyErr, when set, is returned by ApplyDecision to simulate a lost race.
	applyErr error
	// historyErr, when set, is returned by ListDecisions.
	historyErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		leads:     map[uuid.UUID]domain.Lead{},
		decisions: map[uuid.UUID][]domain.DecisionRecord{},
		criteria:  map[uuid.UUID]domain.Criteria{},
	}
}

func (r *fakeRepo) put(l domain.Lead) domain.Lead {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leads[l.ID] = l
	return l
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return domain.Lead{}, repository.ErrNotFound
	}
	return l, nil
}

func (r *fakeRepo) GetByIDs(_ context.Context, ids []uuid.UUID) ([]domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Lead
	for _, id := range ids {
		if l, ok := r.leads[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeRepo) List(_ context.Context, params repository.ListParams) ([]domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Lead, 0)
	for _, l := range r.leads {
		if l.PropertyID != params.PropertyID {
			continue
		}
		if params.From != nil && l.CreatedAt.Before(*params.From) {
			continue
		}
		if params.To != nil && l.CreatedAt.After(*params.To) {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeRepo) Create(_ context.Context, l domain.Lead) (domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.leads[l.ID]; ok {
		return domain.Lead{}, repository.ErrDuplicate
	}
	r.leads[l.ID] = l
	return l, nil
}

func (r *fakeRepo) UpdateEvaluation(_ context.Context, id uuid.UUID, p repository.EvaluationParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return repository.ErrNotFound
	}
	v := p.Verdict
	at := p.ScoredAt
	l.Verdict, l.Score, l.ScoredAt = &v, p.Score, &at
	r.leads[id] = l
	return nil
}

func (r *fakeRepo) AdvanceStatus(_ context.Context, id uuid.UUID, from, to domain.Status) (domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return domain.Lead{}, repository.ErrNotFound
	}
	if l.Status != from {
		return domain.Lead{}, repository.ErrStatusChanged
	}
	l.Status = to
	r.leads[id] = l
	return l, nil
}

func (r *fakeRepo) ApplyDecision(_ context.Context, rec domain.DecisionRecord) (domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.applyErr != nil {
		return domain.Lead{}, r.applyErr
	}
	l, ok := r.leads[rec.LeadID]
	if !ok {
		return domain.Lead{}, repository.ErrNotFound
	}
	if l.Status.IsTerminal() {
		return domain.Lead{}, domain.ErrTerminalState
	}
	if l.Status != rec.FromStatus {
		return domain.Lead{}, repository.ErrStatusChanged
	}
	l.Status = rec.ToStatus
	at := rec.DecidedAt
	l.DecidedAt = &at
	if rec.Kind == domain.DecisionReject {
		l.RejectionReason = rec.Reason
	}
	r.leads[l.ID] = l
	r.decisions[l.ID] = append(r.decisions[l.ID], rec)
	return l, nil
}

func (r *fakeRepo) LatestDecision(_ context.Context, id uuid.UUID) (*domain.DecisionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	recs := r.decisions[id]
	if len(recs) == 0 {
		return nil, nil
	}
	last := recs[len(recs)-1]
	return &last, nil
}

func (r *fakeRepo) ListDecisions(_ context.Context, id uuid.UUID) ([]domain.DecisionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.historyErr != nil {
		return nil, r.historyErr
	}
	return append([]domain.DecisionRecord{}, r.decisions[id]...), nil
}

func (r *fakeRepo) ListOpenSiblings(_ context.Context, propertyID, excludeID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []uuid.UUID
	for _, l := range r.leads {
		if l.PropertyID == propertyID && l.ID != excludeID && !l.Status.IsTerminal() {
			out = append(out, l.ID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

func (r *fakeRepo) GetCriteria(_ context.Context, propertyID uuid.UUID) (domain.Criteria, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.criteria[propertyID]
	if !ok {
		return domain.Criteria{}, repository.ErrCriteriaNotFound
	}
	return c, nil
}

func (r *fakeRepo) UpsertCriteria(_ context.Context, c domain.Criteria) (domain.Criteria, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.criteria[c.PropertyID] = c
	return c, nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) named(name string) []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []events.Event
	for _, e := range b.events {
		if e.EventName() == name {
			out = append(out, e)
		}
	}
	return out
}

type fakeCache struct {
	mu          sync.Mutex
	reports     map[string]funnel.Report
	versions    map[uuid.UUID]int64
	invalidated []uuid.UUID
}

func newFakeCache() *fakeCache {
	return &fakeCache{reports: map[string]funnel.Report{}, versions: map[uuid.UUID]int64{}}
}

func (c *fakeCache) key(id uuid.UUID, version int64, w reporting.Window) string {
	return fmt.Sprintf("%s:v%d:%s", id, version, w)
}

func (c *fakeCache) Get(_ context.Context, id uuid.UUID, w reporting.Window) (funnel.Report, int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	version := c.versions[id]
	r, ok := c.reports[c.key(id, version, w)]
	return r, version, ok, nil
}

func (c *fakeCache) Put(_ context.Context, id uuid.UUID, w reporting.Window, version int64, r funnel.Report) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports[c.key(id, version, w)] = r
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, id)
	c.versions[id]++
	return nil
}
