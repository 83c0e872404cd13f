package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Hard rule names reported in Verdict.HardFailures.
const (
	HardPetsAllowed      = "pets_allowed"
	HardSmokingAllowed   = "smoking_allowed"
	HardMinIncomeRatio   = "min_income_ratio"
	HardMaxHouseholdSize = "max_household_size"
)

// Soft criterion names accepted as weight keys.
const (
	SoftIncomeRatio      = "income_ratio"
	SoftHouseholdSize    = "household_size"
	SoftEmploymentStatus = "employment_status"
	SoftDocuments        = "documents"
	SoftMoveInDate       = "move_in_date"
	SoftNoPets           = "no_pets"
	SoftNonSmoker        = "non_smoker"
	SoftAIRecommendation = "ai_recommendation"
)

var knownSoftCriteria = map[string]struct{}{
	SoftIncomeRatio:      {},
	SoftHouseholdSize:    {},
	SoftEmploymentStatus: {},
	SoftDocuments:        {},
	SoftMoveInDate:       {},
	SoftNoPets:           {},
	SoftNonSmoker:        {},
	SoftAIRecommendation: {},
}

// IsKnownSoftCriterion reports whether the evaluator can score name.
func IsKnownSoftCriterion(name string) bool {
	_, ok := knownSoftCriteria[name]
	return ok
}

// SoftCriteria lists the known soft criterion names in sorted order.
func SoftCriteria() []string {
	names := make([]string, 0, len(knownSoftCriteria))
	for name := range knownSoftCriteria {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

const (
	DefaultComfortableHouseholdSize = 2
	DefaultRequiredDocuments        = 5
)

// HardCriteria are gating rules. A nil field means the rule is not configured.
type HardCriteria struct {
	PetsAllowed      *bool    `json:"pets_allowed,omitempty" yaml:"pets_allowed"`
	SmokingAllowed   *bool    `json:"smoking_allowed,omitempty" yaml:"smoking_allowed"`
	MinIncomeRatio   *float64 `json:"min_income_ratio,omitempty" yaml:"min_income_ratio"`
	MaxHouseholdSize *int     `json:"max_household_size,omitempty" yaml:"max_household_size"`
}

// DisallowsPets is true when pets are explicitly not allowed.
func (h HardCriteria) DisallowsPets() bool {
	return h.PetsAllowed != nil && !*h.PetsAllowed
}

// DisallowsSmoking is true when smoking is explicitly not allowed.
func (h HardCriteria) DisallowsSmoking() bool {
	return h.SmokingAllowed != nil && !*h.SmokingAllowed
}

// Criteria is the landlord's selection configuration for one property.
type Criteria struct {
	PropertyID               uuid.UUID
	MonthlyRent              float64
	AvailableFrom            *time.Time
	Hard                     HardCriteria
	SoftWeights              map[string]float64
	ComfortableHouseholdSize int
	RequiredDocuments        int
	UpdatedAt                time.Time
}

// ComfortableSize returns the configured comfortable household size or the default.
func (c Criteria) ComfortableSize() int {
	if c.ComfortableHouseholdSize > 0 {
		return c.ComfortableHouseholdSize
	}
	return DefaultComfortableHouseholdSize
}

// RequiredDocumentCount returns the configured document count or the default.
func (c Criteria) RequiredDocumentCount() int {
	if c.RequiredDocuments > 0 {
		return c.RequiredDocuments
	}
	return DefaultRequiredDocuments
}

// UnknownSoftCriteria returns the weight keys the evaluator cannot read, sorted.
func (c Criteria) UnknownSoftCriteria() []string {
	var unknown []string
	for name := range c.SoftWeights {
		if !IsKnownSoftCriterion(name) {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	return unknown
}
