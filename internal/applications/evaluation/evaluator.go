// Package evaluation scores an application against a property's criteria.
// Everything here is pure: the same lead and criteria always yield the same
// result and nothing is persisted.
package evaluation

import (
	"math"
	"sort"
	"time"

	"tenant_portal_backend/internal/applications/domain"
)

const (
	// incomeRentMultiple is the rent multiple a monthly income is measured against.
	incomeRentMultiple = 3.0
	// incomeRatioCeiling is the income/(3*rent) ratio that earns a full sub-score.
	incomeRatioCeiling   = 1.5
	householdPenalty     = 0.25
	moveInGraceDays      = 14.0
	moveInHorizonDays    = 90.0
	habitPenaltySubScore = 0.5
)

// Warning reports a soft criterion that was skipped. It never blocks scoring.
type Warning struct {
	Criterion string `json:"criterion"`
	Attribute string `json:"attribute,omitempty"`
	Message   string `json:"message"`
}

// Result is the outcome of Evaluate.
type Result struct {
	HardPass     bool
	HardFailures []string
	// SoftScore is in [0,100]. It is meaningful only when Scored is true.
	SoftScore float64
	Scored    bool
	SubScores map[string]float64
	Warnings  []Warning
}

// Verdict converts the hard-criteria part of the result to the stored form.
func (r Result) Verdict() domain.Verdict {
	failures := r.HardFailures
	if failures == nil {
		failures = []string{}
	}
	return domain.Verdict{HardPass: r.HardPass, HardFailures: failures}
}

// Evaluate applies the hard gates and computes the weighted soft score.
func Evaluate(lead domain.Lead, criteria domain.Criteria) Result {
	failures := evaluateHard(lead, criteria)
	res := Result{
		HardPass:     len(failures) == 0,
		HardFailures: failures,
		SubScores:    make(map[string]float64),
	}

	for _, name := range criteria.UnknownSoftCriteria() {
		res.Warnings = append(res.Warnings, Warning{Criterion: name, Message: "unknown soft criterion ignored"})
	}

	var weighted, totalWeight float64
	for _, name := range sortedWeightKeys(criteria.SoftWeights) {
		weight := criteria.SoftWeights[name]
		if weight <= 0 || !domain.IsKnownSoftCriterion(name) {
			continue
		}
		score, missing := subScore(name, lead, criteria)
		if missing != "" {
			res.Warnings = append(res.Warnings, Warning{Criterion: name, Attribute: missing, Message: "attribute missing, criterion excluded"})
			continue
		}
		score = clamp01(score)
		res.SubScores[name] = score
		weighted += weight * score
		totalWeight += weight
	}

	if totalWeight > 0 {
		res.Scored = true
		res.SoftScore = round2(clamp01(weighted/totalWeight) * 100)
	}
	return res
}

// evaluateHard returns the names of failing hard rules. A rule whose input is
// missing fails.
func evaluateHard(lead domain.Lead, criteria domain.Criteria) []string {
	var failures []string
	hard := criteria.Hard

	if hard.DisallowsPets() && (lead.HasPets == nil || *lead.HasPets) {
		failures = append(failures, domain.HardPetsAllowed)
	}
	if hard.DisallowsSmoking() && (lead.Smoker == nil || *lead.Smoker) {
		failures = append(failures, domain.HardSmokingAllowed)
	}
	if hard.MinIncomeRatio != nil {
		ratio, ok := IncomeToRent(lead, criteria)
		if !ok || ratio < *hard.MinIncomeRatio {
			failures = append(failures, domain.HardMinIncomeRatio)
		}
	}
	if hard.MaxHouseholdSize != nil && (lead.HouseholdSize == nil || *lead.HouseholdSize > *hard.MaxHouseholdSize) {
		failures = append(failures, domain.HardMaxHouseholdSize)
	}
	return failures
}

// IncomeToRent returns monthly income divided by monthly rent. ok is false
// when either side is unknown.
func IncomeToRent(lead domain.Lead, criteria domain.Criteria) (float64, bool) {
	monthly, ok := lead.MonthlyIncome()
	if !ok || criteria.MonthlyRent <= 0 {
		return 0, false
	}
	return monthly / criteria.MonthlyRent, true
}

// subScore returns the criterion's score in [0,1], or the name of the missing
// attribute that prevented scoring.
func subScore(name string, lead domain.Lead, criteria domain.Criteria) (float64, string) {
	switch name {
	case domain.SoftIncomeRatio:
		if lead.Income == nil {
			return 0, "income"
		}
		if criteria.MonthlyRent <= 0 {
			return 0, "monthly_rent"
		}
		ratio, _ := IncomeToRent(lead, criteria)
		return math.Min(1, (ratio/incomeRentMultiple)/incomeRatioCeiling), ""

	case domain.SoftHouseholdSize:
		if lead.HouseholdSize == nil {
			return 0, "household_size"
		}
		extra := *lead.HouseholdSize - criteria.ComfortableSize()
		if extra <= 0 {
			return 1, ""
		}
		return math.Max(0, 1-householdPenalty*float64(extra)), ""

	case domain.SoftEmploymentStatus:
		if lead.EmploymentStatus == nil {
			return 0, "employment_status"
		}
		return lead.EmploymentStatus.Stability(), ""

	case domain.SoftDocuments:
		count, ok := lead.DocumentCount()
		if !ok {
			return 0, "documents_provided"
		}
		return math.Min(1, float64(count)/float64(criteria.RequiredDocumentCount())), ""

	case domain.SoftMoveInDate:
		if lead.MoveInFlexible {
			return 1, ""
		}
		if lead.MoveInDate == nil {
			return 0, "move_in_date"
		}
		if criteria.AvailableFrom == nil {
			return 0, "available_from"
		}
		return moveInScore(*lead.MoveInDate, *criteria.AvailableFrom), ""

	case domain.SoftNoPets:
		if lead.HasPets == nil {
			return 0, "has_pets"
		}
		return habitScore(*lead.HasPets), ""

	case domain.SoftNonSmoker:
		if lead.Smoker == nil {
			return 0, "smoker"
		}
		return habitScore(*lead.Smoker), ""

	case domain.SoftAIRecommendation:
		ai := lead.AIInsights
		if ai == nil || ai.Confidence == nil || !ai.Recommendation.Valid() {
			return 0, "ai_insights"
		}
		conf := clamp01(*ai.Confidence)
		switch ai.Recommendation {
		case domain.RecommendationPositive:
			return conf, ""
		case domain.RecommendationNegative:
			return 1 - conf, ""
		default:
			return 0.5, ""
		}
	}
	return 0, name
}

// MoveInDistanceDays is the absolute distance between the desired move-in and
// the availability date, in days.
func MoveInDistanceDays(moveIn, availableFrom time.Time) float64 {
	return math.Abs(moveIn.Sub(availableFrom).Hours() / 24)
}

func moveInScore(moveIn, availableFrom time.Time) float64 {
	days := MoveInDistanceDays(moveIn, availableFrom)
	switch {
	case days <= moveInGraceDays:
		return 1
	case days >= moveInHorizonDays:
		return 0
	default:
		return 1 - (days-moveInGraceDays)/(moveInHorizonDays-moveInGraceDays)
	}
}

func habitScore(present bool) float64 {
	if present {
		return habitPenaltySubScore
	}
	return 1
}

func sortedWeightKeys(weights map[string]float64) []string {
	keys := make([]string, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
