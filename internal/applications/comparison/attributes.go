package comparison

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"tenant_portal_backend/internal/applications/domain"
	"tenant_portal_backend/internal/applications/evaluation"
)

// Attribute keys of the default comparison table.
const (
	KeyScore            = "score"
	KeyIncome           = "income"
	KeyIncomeRatio      = "income_ratio"
	KeyEmploymentStatus = "employment_status"
	KeyHouseholdSize    = "household_size"
	KeyPets             = "has_pets"
	KeySmoker           = "smoker"
	KeyMoveInDate       = "move_in_date"
	KeyDocuments        = "documents"
	KeyAIConfidence     = "ai_confidence"
	KeyPortal           = "source_portal"
)

// DefaultAttributes builds the comparison table for a property. Comparators
// that encode landlord policy read it from criteria.
func DefaultAttributes(criteria domain.Criteria) []AttributeSpec {
	return []AttributeSpec{
		Attribute[float64]{
			Key:     KeyScore,
			Label:   "Score",
			Extract: func(l domain.Lead) (float64, bool) { return deref(l.Score) },
			Format:  func(v float64) string { return strconv.FormatFloat(v, 'f', 0, 64) },
			Compare: Higher[float64],
		}.Spec(),
		Attribute[float64]{
			Key:     KeyIncome,
			Label:   "Annual income",
			Extract: func(l domain.Lead) (float64, bool) { return deref(l.Income) },
			Format:  FormatCHF,
			Compare: Higher[float64],
		}.Spec(),
		Attribute[float64]{
			Key:   KeyIncomeRatio,
			Label: "Income / rent",
			Extract: func(l domain.Lead) (float64, bool) {
				return evaluation.IncomeToRent(l, criteria)
			},
			Format:  func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) + "x" },
			Compare: Higher[float64],
		}.Spec(),
		Attribute[domain.EmploymentStatus]{
			Key:     KeyEmploymentStatus,
			Label:   "Employment",
			Extract: func(l domain.Lead) (domain.EmploymentStatus, bool) { return deref(l.EmploymentStatus) },
			Format:  humanize[domain.EmploymentStatus],
			Compare: func(a, b domain.EmploymentStatus) int {
				return Higher(a.Stability(), b.Stability())
			},
		}.Spec(),
		Attribute[int]{
			Key:     KeyHouseholdSize,
			Label:   "Household size",
			Extract: func(l domain.Lead) (int, bool) { return deref(l.HouseholdSize) },
			Format:  strconv.Itoa,
			Compare: Lower[int],
		}.Spec(),
		Attribute[bool]{
			Key:     KeyPets,
			Label:   "Pets",
			Extract: func(l domain.Lead) (bool, bool) { return deref(l.HasPets) },
			Format:  yesNo,
			Compare: preferAbsent(criteria.Hard.DisallowsPets()),
		}.Spec(),
		Attribute[bool]{
			Key:     KeySmoker,
			Label:   "Smoker",
			Extract: func(l domain.Lead) (bool, bool) { return deref(l.Smoker) },
			Format:  yesNo,
			Compare: preferAbsent(criteria.Hard.DisallowsSmoking()),
		}.Spec(),
		moveInAttribute(criteria).Spec(),
		Attribute[int]{
			Key:     KeyDocuments,
			Label:   "Documents",
			Extract: func(l domain.Lead) (int, bool) { return l.DocumentCount() },
			Format: func(v int) string {
				return fmt.Sprintf("%d/%d", v, criteria.RequiredDocumentCount())
			},
			Compare: Higher[int],
		}.Spec(),
		Attribute[float64]{
			Key:   KeyAIConfidence,
			Label: "AI confidence",
			Extract: func(l domain.Lead) (float64, bool) {
				if l.AIInsights == nil {
					return 0, false
				}
				return deref(l.AIInsights.Confidence)
			},
			Format:  func(v float64) string { return strconv.Itoa(int(math.Round(v*100))) + "%" },
			Compare: Higher[float64],
		}.Spec(),
		Attribute[domain.SourcePortal]{
			Key:     KeyPortal,
			Label:   "Source",
			Extract: func(l domain.Lead) (domain.SourcePortal, bool) { return l.SourcePortal, l.SourcePortal != "" },
			Format:  humanize[domain.SourcePortal],
		}.Spec(),
	}
}

// preferAbsent prefers false over true only when the property rules out the
// habit. Otherwise the attribute has no ordering and is display-only.
func preferAbsent(disallowed bool) func(a, b bool) int {
	if !disallowed {
		return nil
	}
	return func(a, b bool) int {
		if a == b {
			return 0
		}
		if !a {
			return 1
		}
		return -1
	}
}

type moveIn struct {
	date     time.Time
	flexible bool
}

// moveInAttribute prefers dates closest to availability, or the earliest date
// when the property has no availability date. Flexible is shown but not ranked.
func moveInAttribute(criteria domain.Criteria) Attribute[moveIn] {
	distance := func(m moveIn) float64 {
		if criteria.AvailableFrom == nil {
			return float64(m.date.Unix())
		}
		return evaluation.MoveInDistanceDays(m.date, *criteria.AvailableFrom)
	}
	return Attribute[moveIn]{
		Key:   KeyMoveInDate,
		Label: "Move-in",
		Extract: func(l domain.Lead) (moveIn, bool) {
			if l.MoveInFlexible {
				return moveIn{flexible: true}, true
			}
			if l.MoveInDate == nil {
				return moveIn{}, false
			}
			return moveIn{date: *l.MoveInDate}, true
		},
		Format: func(m moveIn) string {
			if m.flexible {
				return "Flexible"
			}
			return m.date.Format("02.01.2006")
		},
		Compare: func(a, b moveIn) int {
			return Lower(distance(a), distance(b))
		},
		Rankable: func(m moveIn) bool { return !m.flexible },
	}
}

// FormatCHF renders an amount as whole Swiss francs, e.g. "CHF 120'000".
func FormatCHF(v float64) string {
	n := int64(math.Round(v))
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('\'')
		}
		b.WriteRune(r)
	}
	return "CHF " + sign + b.String()
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func humanize[T ~string](v T) string {
	s := strings.ReplaceAll(string(v), "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func deref[T any](p *T) (T, bool) {
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}

// Select narrows attrs to the given keys in the order requested. Unknown
// keys are skipped. An empty key list returns attrs unchanged.
func Select(attrs []AttributeSpec, keys []string) []AttributeSpec {
	if len(keys) == 0 {
		return attrs
	}
	byKey := make(map[string]AttributeSpec, len(attrs))
	for _, a := range attrs {
		byKey[a.Key] = a
	}
	out := make([]AttributeSpec, 0, len(keys))
	for _, k := range keys {
		if a, ok := byKey[k]; ok {
			out = append(out, a)
		}
	}
	return out
}
