// Package transport holds the request and response bodies of the
// applications API. Field names follow the lead record shape exchanged with
// the frontend.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// Custom validation tags registered by the module.
const (
	TagPortal         = "portal"
	TagLeadStatus     = "leadstatus"
	TagEmployment     = "employment"
	TagDecision       = "decision"
	TagFlagKind       = "flagkind"
	TagRecommendation = "recommendation"
)

// MoveInFlexible is the move_in_date value for applicants without a fixed date.
const MoveInFlexible = "flexible"

// DateLayout is used for calendar dates on the wire.
const DateLayout = "2006-01-02"

// Request DTOs

type ApplicantRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=200"`
	Email string `json:"email,omitempty" validate:"omitempty,email,max=320"`
	Phone string `json:"phone,omitempty" validate:"omitempty,min=5,max=40"`
}

type ApplicationDetails struct {
	Income           *float64 `json:"income,omitempty" validate:"omitempty,gte=0,lte=100000000"`
	EmploymentStatus *string  `json:"employment_status,omitempty" validate:"omitempty,employment"`
	HouseholdSize    *int     `json:"household_size,omitempty" validate:"omitempty,gte=1,lte=30"`
	HasPets          *bool    `json:"has_pets,omitempty"`
	Smoker           *bool    `json:"smoker,omitempty"`
	// MoveInDate is a calendar date or "flexible".
	MoveInDate        *string  `json:"move_in_date,omitempty" validate:"omitempty,max=32"`
	DocumentsProvided []string `json:"documents_provided,omitempty" validate:"omitempty,max=100,dive,min=1,max=200"`
}

type AIFlag struct {
	Kind  string `json:"kind" validate:"required,flagkind"`
	Label string `json:"label" validate:"required,max=200"`
}

type AIInsights struct {
	Summary        string   `json:"summary,omitempty" validate:"max=4000"`
	Recommendation string   `json:"recommendation,omitempty" validate:"omitempty,recommendation"`
	Confidence     *float64 `json:"confidence,omitempty" validate:"omitempty,gte=0,lte=1"`
	Flags          []AIFlag `json:"flags,omitempty" validate:"omitempty,max=50,dive"`
}

type ImportApplicationRequest struct {
	ID                 *uuid.UUID         `json:"id,omitempty"`
	PropertyID         uuid.UUID          `json:"property_id" validate:"required"`
	SourcePortal       string             `json:"source_portal" validate:"required,portal"`
	Status             string             `json:"status,omitempty" validate:"omitempty,leadstatus"`
	CreatedAt          *time.Time         `json:"created_at,omitempty"`
	Applicant          ApplicantRequest   `json:"applicant"`
	ApplicationDetails ApplicationDetails `json:"application_details"`
	AIInsights         *AIInsights        `json:"ai_insights,omitempty"`
}

// ListApplicationsQuery binds the filter query string.
type ListApplicationsQuery struct {
	PropertyID     string   `form:"propertyId" validate:"required,uuid"`
	MinScore       *float64 `form:"minScore"`
	MaxScore       *float64 `form:"maxScore"`
	From           string   `form:"from"`
	To             string   `form:"to"`
	Portals        []string `form:"portal" validate:"omitempty,dive,portal"`
	Statuses       []string `form:"status" validate:"omitempty,dive,leadstatus"`
	OnlyGreenFlags bool     `form:"onlyGreenFlags"`
	NoRedFlags     bool     `form:"noRedFlags"`
	HighConfidence bool     `form:"highConfidence"`
}

type AdvanceRequest struct {
	Status string `json:"status" validate:"required,leadstatus"`
}

type ViewingSlot struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required"`
}

type DecisionRequest struct {
	Decision    string       `json:"decision" validate:"required,decision"`
	Reason      string       `json:"reason,omitempty" validate:"max=2000"`
	ViewingSlot *ViewingSlot `json:"viewing_slot,omitempty"`
}

type CompareRequest struct {
	ApplicationIDs []uuid.UUID `json:"application_ids" validate:"max=20"`
	Attributes     []string    `json:"attributes,omitempty" validate:"omitempty,max=20"`
}

type HardCriteria struct {
	PetsAllowed      *bool    `json:"pets_allowed,omitempty"`
	SmokingAllowed   *bool    `json:"smoking_allowed,omitempty"`
	MinIncomeRatio   *float64 `json:"min_income_ratio,omitempty" validate:"omitempty,gte=0,lte=20"`
	MaxHouseholdSize *int     `json:"max_household_size,omitempty" validate:"omitempty,gte=1,lte=30"`
}

type CriteriaRequest struct {
	MonthlyRent   float64 `json:"monthly_rent" validate:"required,gt=0"`
	AvailableFrom *string `json:"available_from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	// HardCriteria and SoftCriteria fall back to the default preset when omitted.
	HardCriteria             *HardCriteria      `json:"hard_criteria,omitempty"`
	SoftCriteria             map[string]float64 `json:"soft_criteria,omitempty" validate:"omitempty,dive,gte=0,lte=1"`
	ComfortableHouseholdSize int                `json:"comfortable_household_size,omitempty" validate:"omitempty,gte=1,lte=30"`
	RequiredDocuments        int                `json:"required_documents,omitempty" validate:"omitempty,gte=1,lte=50"`
}

type FunnelQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
}

// Response DTOs

type ApplicantResponse struct {
	Name  string  `json:"name"`
	Email string  `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

type ApplicationDetailsResponse struct {
	Income            *float64 `json:"income,omitempty"`
	EmploymentStatus  *string  `json:"employment_status,omitempty"`
	HouseholdSize     *int     `json:"household_size,omitempty"`
	HasPets           *bool    `json:"has_pets,omitempty"`
	Smoker            *bool    `json:"smoker,omitempty"`
	MoveInDate        *string  `json:"move_in_date,omitempty"`
	DocumentsProvided []string `json:"documents_provided,omitempty"`
	DocumentsCount    *int     `json:"documents_count,omitempty"`
}

type VerdictResponse struct {
	HardPass     bool     `json:"hard_pass"`
	HardFailures []string `json:"hard_failures"`
}

type ApplicationResponse struct {
	ID                 uuid.UUID                  `json:"id"`
	PropertyID         uuid.UUID                  `json:"property_id"`
	Score              *float64                   `json:"score"`
	Status             string                     `json:"status"`
	SourcePortal       string                     `json:"source_portal"`
	CreatedAt          time.Time                  `json:"created_at"`
	UpdatedAt          time.Time                  `json:"updated_at"`
	Applicant          ApplicantResponse          `json:"applicant"`
	ApplicationDetails ApplicationDetailsResponse `json:"application_details"`
	AIInsights         *AIInsights                `json:"ai_insights,omitempty"`
	Verdict            *VerdictResponse           `json:"verdict,omitempty"`
	ScoredAt           *time.Time                 `json:"scored_at,omitempty"`
	RejectionReason    *string                    `json:"rejection_reason,omitempty"`
	DecidedAt          *time.Time                 `json:"decided_at,omitempty"`
}

type ListApplicationsResponse struct {
	Items []ApplicationResponse `json:"items"`
	Total int                   `json:"total"`
}

type EvaluationWarning struct {
	Criterion string `json:"criterion"`
	Attribute string `json:"attribute,omitempty"`
	Message   string `json:"message"`
}

type EvaluationResponse struct {
	Application ApplicationResponse `json:"application"`
	Scored      bool                `json:"scored"`
	SubScores   map[string]float64  `json:"sub_scores"`
	Warnings    []EvaluationWarning `json:"warnings"`
}

type BatchEvaluationResponse struct {
	PropertyID uuid.UUID `json:"property_id"`
	Evaluated  int       `json:"evaluated"`
	HardPassed int       `json:"hard_passed"`
	Unscored   int       `json:"unscored"`
	Warnings   int       `json:"warnings"`
}

type DecisionRecordResponse struct {
	ID               uuid.UUID    `json:"id"`
	LeadID           uuid.UUID    `json:"lead_id"`
	Decision         string       `json:"decision"`
	Reason           *string      `json:"reason,omitempty"`
	Actor            string       `json:"actor"`
	FromStatus       string       `json:"from_status"`
	ToStatus         string       `json:"to_status"`
	HardGateOverride bool         `json:"hard_gate_override"`
	ViewingSlot      *ViewingSlot `json:"viewing_slot,omitempty"`
	Timestamp        time.Time    `json:"timestamp"`
}

type DecisionResponse struct {
	Application ApplicationResponse     `json:"application"`
	Decision    *DecisionRecordResponse `json:"decision,omitempty"`
	NoOp        bool                    `json:"no_op"`
	Effects     []string                `json:"effects"`
}

type DecisionHistoryResponse struct {
	Items []DecisionRecordResponse `json:"items"`
}

type ComparisonCell struct {
	LeadID  uuid.UUID `json:"lead_id"`
	Display string    `json:"display"`
	Missing bool      `json:"missing"`
	Best    bool      `json:"best"`
}

type ComparisonRow struct {
	Key         string           `json:"key"`
	Label       string           `json:"label"`
	Cells       []ComparisonCell `json:"cells"`
	BestLeadIDs []uuid.UUID      `json:"best_lead_ids"`
}

type CompareResponse struct {
	Applications []ApplicationResponse `json:"applications"`
	Attributes   []ComparisonRow       `json:"attributes"`
}

type CriteriaResponse struct {
	PropertyID               uuid.UUID          `json:"property_id"`
	MonthlyRent              float64            `json:"monthly_rent"`
	AvailableFrom            *string            `json:"available_from,omitempty"`
	HardCriteria             HardCriteria       `json:"hard_criteria"`
	SoftCriteria             map[string]float64 `json:"soft_criteria"`
	ComfortableHouseholdSize int                `json:"comfortable_household_size"`
	RequiredDocuments        int                `json:"required_documents"`
	Source                   string             `json:"source"` // stored or preset
	UnknownCriteria          []string           `json:"unknown_criteria,omitempty"`
	UpdatedAt                *time.Time         `json:"updated_at,omitempty"`
}

type StageCount struct {
	Stage string `json:"stage"`
	Count int    `json:"count"`
}

type Conversion struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	Rate float64 `json:"rate"`
}

type Bucket struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type FunnelResponse struct {
	PropertyID  uuid.UUID    `json:"property_id"`
	From        *time.Time   `json:"from,omitempty"`
	To          *time.Time   `json:"to,omitempty"`
	Stages      []StageCount `json:"stages"`
	Conversions []Conversion `json:"conversions"`
	ByPortal    []Bucket     `json:"by_portal"`
	ByDay       []Bucket     `json:"by_day"`
	ByStatus    []Bucket     `json:"by_status"`
	Cached      bool         `json:"cached"`
}
