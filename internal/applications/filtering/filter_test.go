package filtering

import (
	"testing"
	"time"

	"tenant_portal_backend/internal/applications/domain"
	"tenant_portal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

var base = time.Date(2026, time.February, 1, 12, 0, 0, 0, time.UTC)

func pool() []domain.Lead {
	conf := 0.9
	low := 0.4
	return []domain.Lead{
		{ID: uuid.New(), Score: ptr(92.0), CreatedAt: base, SourcePortal: domain.PortalHomegate, Status: domain.StatusQualified,
			Verdict: &domain.Verdict{HardPass: true}, AIInsights: &domain.AIInsights{Confidence: &conf, Flags: []domain.AIFlag{{Kind: domain.FlagGreen}}}},
		{ID: uuid.New(), Score: ptr(85.0), CreatedAt: base.AddDate(0, 0, 1), SourcePortal: domain.PortalFlatfox, Status: domain.StatusQualified,
			Verdict: &domain.Verdict{HardPass: false, HardFailures: []string{domain.HardMinIncomeRatio}}},
		{ID: uuid.New(), Score: ptr(40.0), CreatedAt: base.AddDate(0, 0, 2), SourcePortal: domain.PortalHomegate, Status: domain.StatusViewingRequested,
			AIInsights: &domain.AIInsights{Confidence: &low, Flags: []domain.AIFlag{{Kind: domain.FlagGreen}, {Kind: domain.FlagRed}}}},
		{ID: uuid.New(), CreatedAt: base.AddDate(0, 0, 3), SourcePortal: domain.PortalDirect, Status: domain.StatusSelected,
			Verdict: &domain.Verdict{HardPass: false}},
	}
}

func ids(leads []domain.Lead) []uuid.UUID {
	out := make([]uuid.UUID, len(leads))
	for i, l := range leads {
		out[i] = l.ID
	}
	return out
}

func TestFilterIdentityAndEmpty(t *testing.T) {
	leads := pool()

	got, err := Filter(leads, Spec{})
	require.NoError(t, err)
	assert.Equal(t, leads, got)

	got, err = Filter(leads, Spec{MinScore: ptr(0.0), MaxScore: ptr(100.0)})
	require.NoError(t, err)
	assert.Equal(t, ids(leads), ids(got), "explicit default range is still identity")

	got, err = Filter(nil, Spec{NoRedFlags: true})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilterPredicates(t *testing.T) {
	leads := pool()

	tests := []struct {
		name string
		spec Spec
		want []uuid.UUID
	}{
		{name: "score range inclusive", spec: Spec{MinScore: ptr(85.0), MaxScore: ptr(92.0)}, want: []uuid.UUID{leads[0].ID, leads[1].ID}},
		{name: "narrowed range drops unscored", spec: Spec{MaxScore: ptr(99.0)}, want: []uuid.UUID{leads[0].ID, leads[1].ID, leads[2].ID}},
		{name: "date range inclusive", spec: Spec{From: ptr(base.AddDate(0, 0, 1)), To: ptr(base.AddDate(0, 0, 2))}, want: []uuid.UUID{leads[1].ID, leads[2].ID}},
		{name: "open upper bound", spec: Spec{From: ptr(base.AddDate(0, 0, 3))}, want: []uuid.UUID{leads[3].ID}},
		{name: "portal", spec: Spec{Portals: []domain.SourcePortal{domain.PortalHomegate}}, want: []uuid.UUID{leads[0].ID, leads[2].ID}},
		{name: "no red flags", spec: Spec{NoRedFlags: true}, want: []uuid.UUID{leads[0].ID, leads[1].ID, leads[3].ID}},
		{name: "only green flags", spec: Spec{OnlyGreenFlags: true}, want: []uuid.UUID{leads[0].ID}},
		{name: "high confidence", spec: Spec{HighConfidence: true}, want: []uuid.UUID{leads[0].ID}},
		{name: "combined", spec: Spec{Portals: []domain.SourcePortal{domain.PortalHomegate}, NoRedFlags: true}, want: []uuid.UUID{leads[0].ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Filter(leads, tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilterHardGatePrecedence(t *testing.T) {
	leads := pool()

	got, err := Filter(leads, Spec{Statuses: []domain.Status{domain.StatusQualified, domain.StatusSelected}})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{leads[0].ID}, ids(got))
	for _, l := range got {
		assert.True(t, l.PassesHardCriteria())
	}

	got, err = Filter(leads, Spec{Statuses: []domain.Status{domain.StatusViewingRequested}})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{leads[2].ID}, ids(got))
}

func TestFilterRejectsMalformedSpec(t *testing.T) {
	specs := []Spec{
		{MinScore: ptr(80.0), MaxScore: ptr(20.0)},
		{MinScore: ptr(-1.0)},
		{MaxScore: ptr(101.0)},
		{From: ptr(base), To: ptr(base.Add(-time.Hour))},
		{Portals: []domain.SourcePortal{"craigslist"}},
		{Statuses: []domain.Status{"archived"}},
	}
	for _, spec := range specs {
		_, err := Filter(pool(), spec)
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	}
}
