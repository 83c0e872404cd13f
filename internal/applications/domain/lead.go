package domain

import (
	"time"

	"github.com/google/uuid"
)

// FlagKind grades an AI-produced observation about an applicant.
type FlagKind string

const (
	FlagGreen  FlagKind = "green"
	FlagYellow FlagKind = "yellow"
	FlagRed    FlagKind = "red"
)

func (k FlagKind) Valid() bool {
	return k == FlagGreen || k == FlagYellow || k == FlagRed
}

// Recommendation is the AI verdict on an applicant.
type Recommendation string

const (
	RecommendationPositive Recommendation = "recommended"
	RecommendationNeutral  Recommendation = "neutral"
	RecommendationNegative Recommendation = "not_recommended"
)

func (r Recommendation) Valid() bool {
	return r == RecommendationPositive || r == RecommendationNeutral || r == RecommendationNegative
}

// HighConfidenceThreshold is the minimum AI confidence treated as "high".
const HighConfidenceThreshold = 0.8

// AIFlag is a single labelled observation.
type AIFlag struct {
	Kind  FlagKind `json:"kind"`
	Label string   `json:"label"`
}

// AIInsights is optional analysis attached by the ingestion side.
type AIInsights struct {
	Summary        string         `json:"summary,omitempty"`
	Recommendation Recommendation `json:"recommendation,omitempty"`
	Confidence     *float64       `json:"confidence,omitempty"`
	Flags          []AIFlag       `json:"flags,omitempty"`
}

// HasRedFlag reports whether any flag is red.
func (a *AIInsights) HasRedFlag() bool {
	if a == nil {
		return false
	}
	for _, f := range a.Flags {
		if f.Kind == FlagRed {
			return true
		}
	}
	return false
}

// OnlyGreenFlags reports whether there is at least one flag and every flag is green.
func (a *AIInsights) OnlyGreenFlags() bool {
	if a == nil || len(a.Flags) == 0 {
		return false
	}
	for _, f := range a.Flags {
		if f.Kind != FlagGreen {
			return false
		}
	}
	return true
}

// HighConfidence reports whether the AI confidence is at or above the threshold.
func (a *AIInsights) HighConfidence() bool {
	return a != nil && a.Confidence != nil && *a.Confidence >= HighConfidenceThreshold
}

// Verdict is the hard-criteria outcome written by the evaluator.
type Verdict struct {
	HardPass     bool     `json:"hard_pass"`
	HardFailures []string `json:"hard_failures"`
}

// Lead is one applicant's application to one property. Extracted attributes
// are pointers: nil means the attribute was not supplied.
type Lead struct {
	ID           uuid.UUID
	PropertyID   uuid.UUID
	SourcePortal SourcePortal
	CreatedAt    time.Time
	UpdatedAt    time.Time

	ApplicantName  string
	ApplicantEmail string
	ApplicantPhone *string

	Income            *float64 // annual, CHF
	EmploymentStatus  *EmploymentStatus
	HouseholdSize     *int
	HasPets           *bool
	Smoker            *bool
	MoveInDate        *time.Time
	MoveInFlexible    bool
	DocumentsProvided []string

	AIInsights *AIInsights

	Status          Status
	Verdict         *Verdict
	Score           *float64
	ScoredAt        *time.Time
	RejectionReason *string
	DecidedAt       *time.Time
}

// DocumentCount returns the number of provided documents. ok is false when
// the document list was never supplied.
func (l Lead) DocumentCount() (count int, ok bool) {
	if l.DocumentsProvided == nil {
		return 0, false
	}
	return len(l.DocumentsProvided), true
}

// PassesHardCriteria is true only for an evaluated lead whose verdict passed.
func (l Lead) PassesHardCriteria() bool {
	return l.Verdict != nil && l.Verdict.HardPass
}

// FailsHardCriteria is true only for an evaluated lead whose verdict failed.
func (l Lead) FailsHardCriteria() bool {
	return l.Verdict != nil && !l.Verdict.HardPass
}

// MonthlyIncome converts the annual income to a monthly figure.
func (l Lead) MonthlyIncome() (float64, bool) {
	if l.Income == nil {
		return 0, false
	}
	return *l.Income / 12, true
}
