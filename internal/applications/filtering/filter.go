// Package filtering narrows an application pool with a compound AND of
// optional predicates.
package filtering

import (
	"fmt"
	"time"

	"tenant_portal_backend/internal/applications/domain"
	"tenant_portal_backend/platform/apperr"
)

const (
	MinScore = 0.0
	MaxScore = 100.0
)

// Spec is a compound filter. Zero values disable a predicate.
type Spec struct {
	// MinScore and MaxScore bound the soft score inclusively. A bound left
	// nil or at its default does not filter; once the range is narrowed,
	// unscored leads no longer match.
	MinScore *float64
	MaxScore *float64
	// From and To bound the received timestamp inclusively.
	From *time.Time
	To   *time.Time

	Portals  []domain.SourcePortal
	Statuses []domain.Status

	OnlyGreenFlags bool
	NoRedFlags     bool
	HighConfidence bool
}

// Validate rejects malformed specs.
func (s Spec) Validate() error {
	problems := map[string]string{}

	for field, bound := range map[string]*float64{"minScore": s.MinScore, "maxScore": s.MaxScore} {
		if bound != nil && (*bound < MinScore || *bound > MaxScore) {
			problems[field] = fmt.Sprintf("must be between %.0f and %.0f", MinScore, MaxScore)
		}
	}
	if s.MinScore != nil && s.MaxScore != nil && *s.MinScore > *s.MaxScore {
		problems["minScore"] = "must not exceed maxScore"
	}
	if s.From != nil && s.To != nil && s.From.After(*s.To) {
		problems["from"] = "must not be after to"
	}
	for _, p := range s.Portals {
		if !p.Valid() {
			problems["portal"] = fmt.Sprintf("unknown portal %q", p)
		}
	}
	for _, st := range s.Statuses {
		if !st.Valid() {
			problems["status"] = fmt.Sprintf("unknown status %q", st)
		}
	}

	if len(problems) > 0 {
		return apperr.Validation("invalid filter").WithDetails(problems)
	}
	return nil
}

func (s Spec) scoreRangeActive() bool {
	return (s.MinScore != nil && *s.MinScore > MinScore) || (s.MaxScore != nil && *s.MaxScore < MaxScore)
}

// IsDefault reports whether no predicate is active.
func (s Spec) IsDefault() bool {
	return !s.scoreRangeActive() &&
		s.From == nil && s.To == nil &&
		len(s.Portals) == 0 && len(s.Statuses) == 0 &&
		!s.OnlyGreenFlags && !s.NoRedFlags && !s.HighConfidence
}

type predicate func(domain.Lead) bool

// predicates returns the active predicates, cheapest first.
func (s Spec) predicates() []predicate {
	var preds []predicate

	if s.scoreRangeActive() {
		lo, hi := MinScore, MaxScore
		if s.MinScore != nil {
			lo = *s.MinScore
		}
		if s.MaxScore != nil {
			hi = *s.MaxScore
		}
		preds = append(preds, func(l domain.Lead) bool {
			return l.Score != nil && *l.Score >= lo && *l.Score <= hi
		})
	}
	if s.From != nil {
		from := *s.From
		preds = append(preds, func(l domain.Lead) bool { return !l.CreatedAt.Before(from) })
	}
	if s.To != nil {
		to := *s.To
		preds = append(preds, func(l domain.Lead) bool { return !l.CreatedAt.After(to) })
	}
	if len(s.Portals) > 0 {
		set := make(map[domain.SourcePortal]struct{}, len(s.Portals))
		for _, p := range s.Portals {
			set[p] = struct{}{}
		}
		preds = append(preds, func(l domain.Lead) bool {
			_, ok := set[l.SourcePortal]
			return ok
		})
	}
	if len(s.Statuses) > 0 {
		set := make(map[domain.Status]struct{}, len(s.Statuses))
		for _, st := range s.Statuses {
			set[st] = struct{}{}
		}
		preds = append(preds, func(l domain.Lead) bool {
			if _, ok := set[l.Status]; !ok {
				return false
			}
			// A lead that failed its hard criteria is never shown as qualified or selected.
			return !l.Status.RequiresHardPass() || l.PassesHardCriteria()
		})
	}
	if s.NoRedFlags {
		preds = append(preds, func(l domain.Lead) bool { return !l.AIInsights.HasRedFlag() })
	}
	if s.HighConfidence {
		preds = append(preds, func(l domain.Lead) bool { return l.AIInsights.HighConfidence() })
	}
	if s.OnlyGreenFlags {
		preds = append(preds, func(l domain.Lead) bool { return l.AIInsights.OnlyGreenFlags() })
	}
	return preds
}

// Filter returns the leads matching every active predicate in input order.
// A default spec returns leads unchanged.
func Filter(leads []domain.Lead, spec Spec) ([]domain.Lead, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if len(leads) == 0 {
		return []domain.Lead{}, nil
	}
	if spec.IsDefault() {
		return leads, nil
	}

	preds := spec.predicates()
	out := make([]domain.Lead, 0, len(leads))
next:
	for _, l := range leads {
		for _, p := range preds {
			if !p(l) {
				continue next
			}
		}
		out = append(out, l)
	}
	return out, nil
}
