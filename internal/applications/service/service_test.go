package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"tenant_portal_backend/internal/applications/domain"
	"tenant_portal_backend/internal/applications/repository"
	"tenant_portal_backend/internal/applications/transport"
	"tenant_portal_backend/internal/events"
	"tenant_portal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

type fixture struct {
	repo  *fakeRepo
	bus   *recordingBus
	cache *fakeCache
	svc   *Service
}

func newFixture() fixture {
	f := fixture{repo: newFakeRepo(), bus: &recordingBus{}, cache: newFakeCache()}
	f.svc = New(f.repo, f.bus, f.cache, nil, nil)
	f.svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

func (f fixture) lead(propertyID uuid.UUID, status domain.Status) domain.Lead {
	return f.repo.put(domain.Lead{
		ID:             uuid.New(),
		PropertyID:     propertyID,
		SourcePortal:   domain.PortalHomegate,
		CreatedAt:      time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC),
		ApplicantName:  "Anna Muster",
		ApplicantEmail: "anna@example.ch",
		Status:         status,
	})
}

func (f fixture) storeCriteria(propertyID uuid.UUID, rent float64) {
	c := domain.BuiltinPresets().Default().ForProperty(propertyID)
	c.MonthlyRent = rent
	f.repo.criteria[propertyID] = c
}

func TestImport_NormalizesAndEvaluates(t *testing.T) {
	f := newFixture()
	pid := uuid.New()
	f.storeCriteria(pid, 3000)

	resp, err := f.svc.Import(context.Background(), transport.ImportApplicationRequest{
		PropertyID:   pid,
		SourcePortal: string(domain.PortalHomegate),
		Applicant: transport.ApplicantRequest{
			Name:  "  <b>Anna</b>   Muster ",
			Email: " Anna@Example.CH ",
			Phone: "044 668 18 00",
		},
		ApplicationDetails: transport.ApplicationDetails{
			Income:        ptr(120000.0),
			HouseholdSize: ptr(2),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Anna Muster", resp.Applicant.Name)
	assert.Equal(t, "anna@example.ch", resp.Applicant.Email)
	require.NotNil(t, resp.Applicant.Phone)
	assert.Equal(t, "+41446681800", *resp.Applicant.Phone)
	assert.Equal(t, string(domain.StatusViewingRequested), resp.Status)
	require.NotNil(t, resp.Verdict)
	assert.True(t, resp.Verdict.HardPass)
	assert.NotNil(t, resp.Score)

	assert.Len(t, f.bus.named("applications.imported"), 1)
	assert.Len(t, f.bus.named("applications.evaluated"), 1)
	assert.Contains(t, f.cache.invalidated, pid)
}

func TestImport_WithoutCriteriaSkipsEvaluation(t *testing.T) {
	f := newFixture()
	resp, err := f.svc.Import(context.Background(), transport.ImportApplicationRequest{
		PropertyID:   uuid.New(),
		SourcePortal: string(domain.PortalFlatfox),
		Applicant:    transport.ApplicantRequest{Name: "Ben"},
	})
	require.NoError(t, err)
	assert.Nil(t, resp.Verdict)
	assert.Nil(t, resp.Score)
	assert.Empty(t, f.bus.named("applications.evaluated"))
}

func TestImport_RejectsQualifiedStatus(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Import(context.Background(), transport.ImportApplicationRequest{
		PropertyID:   uuid.New(),
		SourcePortal: string(domain.PortalHomegate),
		Status:       string(domain.StatusQualified),
		Applicant:    transport.ApplicantRequest{Name: "Ben"},
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestImport_DuplicateIsConflict(t *testing.T) {
	f := newFixture()
	existing := f.lead(uuid.New(), domain.StatusViewingRequested)
	_, err := f.svc.Import(context.Background(), transport.ImportApplicationRequest{
		ID:           &existing.ID,
		PropertyID:   existing.PropertyID,
		SourcePortal: string(domain.PortalHomegate),
		Applicant:    transport.ApplicantRequest{Name: "Ben"},
	})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestEvaluate_RequiresStoredCriteria(t *testing.T) {
	f := newFixture()
	l := f.lead(uuid.New(), domain.StatusViewingRequested)
	_, err := f.svc.Evaluate(context.Background(), l.ID)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestEvaluate_UnknownApplication(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Evaluate(context.Background(), uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestEvaluateProperty_CountsResults(t *testing.T) {
	f := newFixture()
	pid := uuid.New()
	f.storeCriteria(pid, 3500)
	rich := f.lead(pid, domain.StatusViewingRequested)
	rich.Income = ptr(150000.0)
	f.repo.put(rich)
	f.lead(pid, domain.StatusViewingRequested)

	resp, err := f.svc.EvaluateProperty(context.Background(), pid)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Evaluated)
	assert.Equal(t, 1, resp.HardPassed)
	assert.Len(t, f.bus.named("applications.evaluated"), 2)
}

func TestDecide_AcceptFlagsSiblings(t *testing.T) {
	f := newFixture()
	pid := uuid.New()
	chosen := f.lead(pid, domain.StatusQualified)
	open := f.lead(pid, domain.StatusViewingAttended)
	f.lead(pid, domain.StatusRejected)
	f.lead(uuid.New(), domain.StatusQualified)

	resp, err := f.svc.Decide(context.Background(), chosen.ID, transport.DecisionRequest{Decision: "accept"}, "user:ops")
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusSelected), resp.Application.Status)
	require.NotNil(t, resp.Decision)
	assert.Equal(t, "user:ops", resp.Decision.Actor)
	assert.ElementsMatch(t, []string{"notify_applicant", "flag_siblings"}, resp.Effects)

	accepted := f.bus.named("applications.accepted")
	require.Len(t, accepted, 1)
	evt := accepted[0].(events.ApplicationAccepted)
	assert.Equal(t, []uuid.UUID{open.ID}, evt.SiblingIDs)
	assert.Contains(t, f.cache.invalidated, pid)
}

func TestDecide_AcceptOverridesFailedHardGate(t *testing.T) {
	f := newFixture()
	l := f.lead(uuid.New(), domain.StatusDossierSubmitted)
	l.Verdict = &domain.Verdict{HardPass: false, HardFailures: []string{domain.HardMinIncomeRatio}}
	f.repo.put(l)

	resp, err := f.svc.Decide(context.Background(), l.ID, transport.DecisionRequest{Decision: "accept"}, "user:ops")
	require.NoError(t, err)
	assert.True(t, resp.Decision.HardGateOverride)
}

func TestDecide_RejectRequiresReason(t *testing.T) {
	f := newFixture()
	l := f.lead(uuid.New(), domain.StatusViewingRequested)

	_, err := f.svc.Decide(context.Background(), l.ID, transport.DecisionRequest{Decision: "reject", Reason: "  <p> </p> "}, "user:ops")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.ErrorIs(t, err, domain.ErrReasonRequired)
	assert.Empty(t, f.repo.decisions[l.ID])
}

func TestDecide_RejectReleasesScheduledViewing(t *testing.T) {
	f := newFixture()
	l := f.lead(uuid.New(), domain.StatusViewingScheduled)

	resp, err := f.svc.Decide(context.Background(), l.ID, transport.DecisionRequest{Decision: "reject", Reason: "Income too low"}, "user:ops")
	require.NoError(t, err)
	require.NotNil(t, resp.Application.RejectionReason)
	assert.Equal(t, "Income too low", *resp.Application.RejectionReason)
	assert.Len(t, f.bus.named("applications.rejected"), 1)
	assert.Len(t, f.bus.named("applications.viewing_released"), 1)
}

func TestDecide_TerminalIsConflict(t *testing.T) {
	f := newFixture()
	l := f.lead(uuid.New(), domain.StatusSelected)

	_, err := f.svc.Decide(context.Background(), l.ID, transport.DecisionRequest{Decision: "reject", Reason: "late"}, "user:ops")
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.ErrorIs(t, err, domain.ErrTerminalState)
	assert.Empty(t, f.bus.events)
}

func TestDecide_LostRaceIsConflict(t *testing.T) {
	f := newFixture()
	l := f.lead(uuid.New(), domain.StatusQualified)
	f.repo.applyErr = domain.ErrTerminalState

	_, err := f.svc.Decide(context.Background(), l.ID, transport.DecisionRequest{Decision: "accept"}, "user:ops")
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.True(t, errors.Is(err, domain.ErrTerminalState))
	assert.Empty(t, f.bus.named("applications.accepted"))
}

func TestDecide_RepeatedScheduleIsNoOp(t *testing.T) {
	f := newFixture()
	l := f.lead(uuid.New(), domain.StatusViewingRequested)
	slot := &transport.ViewingSlot{
		Start: time.Date(2026, 3, 5, 17, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 5, 17, 30, 0, 0, time.UTC),
	}
	req := transport.DecisionRequest{Decision: "schedule_viewing", ViewingSlot: slot}

	first, err := f.svc.Decide(context.Background(), l.ID, req, "user:ops")
	require.NoError(t, err)
	assert.False(t, first.NoOp)
	assert.Equal(t, string(domain.StatusViewingScheduled), first.Application.Status)

	second, err := f.svc.Decide(context.Background(), l.ID, req, "user:ops")
	require.NoError(t, err)
	assert.True(t, second.NoOp)
	assert.Nil(t, second.Decision)
	assert.Len(t, f.repo.decisions[l.ID], 1)
	assert.Len(t, f.bus.named("applications.viewing_requested"), 1)
}

func TestAdvance_HardGate(t *testing.T) {
	f := newFixture()
	l := f.lead(uuid.New(), domain.StatusDossierSubmitted)

	_, err := f.svc.Advance(context.Background(), l.ID, transport.AdvanceRequest{Status: string(domain.StatusQualified)})
	assert.ErrorIs(t, err, domain.ErrHardGateFailed)

	l.Verdict = &domain.Verdict{HardPass: true, HardFailures: []string{}}
	f.repo.put(l)
	resp, err := f.svc.Advance(context.Background(), l.ID, transport.AdvanceRequest{Status: string(domain.StatusQualified)})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusQualified), resp.Status)
	assert.Len(t, f.bus.named("applications.advanced"), 1)
}

func TestAdvance_Backwards(t *testing.T) {
	f := newFixture()
	l := f.lead(uuid.New(), domain.StatusDossierRequested)
	_, err := f.svc.Advance(context.Background(), l.ID, transport.AdvanceRequest{Status: string(domain.StatusViewingScheduled)})
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
}

func TestListDecisions(t *testing.T) {
	f := newFixture()
	l := f.lead(uuid.New(), domain.StatusViewingRequested)
	_, err := f.svc.Decide(context.Background(), l.ID, transport.DecisionRequest{Decision: "reject", Reason: "no dossier"}, "user:ops")
	require.NoError(t, err)

	hist, err := f.svc.ListDecisions(context.Background(), l.ID)
	require.NoError(t, err)
	require.Len(t, hist.Items, 1)
	assert.Equal(t, "reject", hist.Items[0].Decision)

	_, err = f.svc.ListDecisions(context.Background(), uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestListDecisions_MapsRepositoryErrors(t *testing.T) {
	f := newFixture()
	l := f.lead(uuid.New(), domain.StatusViewingRequested)
	f.repo.historyErr = repository.ErrNotFound

	_, err := f.svc.ListDecisions(context.Background(), l.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestList_AppliesFilter(t *testing.T) {
	f := newFixture()
	pid := uuid.New()
	high := f.lead(pid, domain.StatusViewingRequested)
	high.Score = ptr(82.5)
	f.repo.put(high)
	low := f.lead(pid, domain.StatusViewingRequested)
	low.Score = ptr(40.0)
	f.repo.put(low)
	f.lead(pid, domain.StatusViewingRequested)

	all, err := f.svc.List(context.Background(), transport.ListApplicationsQuery{PropertyID: pid.String()})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Total)

	filtered, err := f.svc.List(context.Background(), transport.ListApplicationsQuery{PropertyID: pid.String(), MinScore: ptr(50.0)})
	require.NoError(t, err)
	require.Equal(t, 1, filtered.Total)
	assert.Equal(t, high.ID, filtered.Items[0].ID)

	_, err = f.svc.List(context.Background(), transport.ListApplicationsQuery{PropertyID: pid.String(), MinScore: ptr(80.0), MaxScore: ptr(20.0)})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.List(context.Background(), transport.ListApplicationsQuery{PropertyID: pid.String(), From: "yesterday"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestCompare(t *testing.T) {
	f := newFixture()
	pid := uuid.New()
	a := f.lead(pid, domain.StatusQualified)
	a.Income = ptr(150000.0)
	f.repo.put(a)
	b := f.lead(pid, domain.StatusQualified)
	b.Income = ptr(90000.0)
	f.repo.put(b)

	resp, err := f.svc.Compare(context.Background(), transport.CompareRequest{
		ApplicationIDs: []uuid.UUID{a.ID, b.ID, a.ID},
		Attributes:     []string{"income"},
	})
	require.NoError(t, err)
	assert.Len(t, resp.Applications, 2)
	require.Len(t, resp.Attributes, 1)
	assert.Equal(t, []uuid.UUID{a.ID}, resp.Attributes[0].BestLeadIDs)
}

func TestCompare_Errors(t *testing.T) {
	f := newFixture()
	a := f.lead(uuid.New(), domain.StatusQualified)
	b := f.lead(uuid.New(), domain.StatusQualified)

	_, err := f.svc.Compare(context.Background(), transport.CompareRequest{ApplicationIDs: []uuid.UUID{a.ID, b.ID}})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.Compare(context.Background(), transport.CompareRequest{ApplicationIDs: []uuid.UUID{a.ID, uuid.New()}})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCriteria_PresetFallbackAndPut(t *testing.T) {
	f := newFixture()
	pid := uuid.New()

	got, err := f.svc.GetCriteria(context.Background(), pid)
	require.NoError(t, err)
	assert.Equal(t, criteriaSourcePreset, got.Source)

	put, err := f.svc.PutCriteria(context.Background(), pid, transport.CriteriaRequest{
		MonthlyRent:   2800,
		AvailableFrom: ptr("2026-05-01"),
		SoftCriteria:  map[string]float64{"income_ratio": 1, "credit_score": 0.5},
	})
	require.NoError(t, err)
	assert.Equal(t, criteriaSourceStored, put.Source)
	assert.Equal(t, []string{"credit_score"}, put.UnknownCriteria)
	require.NotNil(t, put.HardCriteria.MinIncomeRatio)
	assert.InDelta(t, 3.0, *put.HardCriteria.MinIncomeRatio, 1e-9)

	_, err = f.svc.PutCriteria(context.Background(), pid, transport.CriteriaRequest{MonthlyRent: 2800, AvailableFrom: ptr("May 1st")})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestFunnel_ReadThroughCache(t *testing.T) {
	f := newFixture()
	pid := uuid.New()
	f.lead(pid, domain.StatusViewingRequested)
	f.lead(pid, domain.StatusQualified)

	first, err := f.svc.Funnel(context.Background(), pid, transport.FunnelQuery{})
	require.NoError(t, err)
	assert.False(t, first.Cached)
	require.NotEmpty(t, first.Stages)
	assert.Equal(t, transport.StageCount{Stage: "total_leads", Count: 2}, first.Stages[0])

	second, err := f.svc.Funnel(context.Background(), pid, transport.FunnelQuery{})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Stages, second.Stages)

	_, err = f.svc.Funnel(context.Background(), pid, transport.FunnelQuery{From: "2026-03-01", To: "2026-02-01"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestFunnel_DecisionInvalidatesCachedReport(t *testing.T) {
	f := newFixture()
	pid := uuid.New()
	l := f.lead(pid, domain.StatusQualified)
	f.lead(pid, domain.StatusViewingRequested)

	before, err := f.svc.Funnel(context.Background(), pid, transport.FunnelQuery{})
	require.NoError(t, err)
	require.False(t, before.Cached)

	_, err = f.svc.Decide(context.Background(), l.ID, transport.DecisionRequest{Decision: string(domain.DecisionAccept)}, "user:op")
	require.NoError(t, err)

	after, err := f.svc.Funnel(context.Background(), pid, transport.FunnelQuery{})
	require.NoError(t, err)
	assert.False(t, after.Cached)
	assert.Contains(t, after.Stages, transport.StageCount{Stage: "selected", Count: 1})
}
