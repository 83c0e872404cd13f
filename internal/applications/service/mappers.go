package service

import (
	"strings"
	"time"

	"tenant_portal_backend/internal/applications/comparison"
	"tenant_portal_backend/internal/applications/domain"
	"tenant_portal_backend/internal/applications/evaluation"
	"tenant_portal_backend/internal/applications/funnel"
	"tenant_portal_backend/internal/applications/transport"
	"tenant_portal_backend/platform/apperr"
)

func toApplicationResponse(l domain.Lead) transport.ApplicationResponse {
	resp := transport.ApplicationResponse{
		ID:           l.ID,
		PropertyID:   l.PropertyID,
		Score:        l.Score,
		Status:       string(l.Status),
		SourcePortal: string(l.SourcePortal),
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
		Applicant: transport.ApplicantResponse{
			Name:  l.ApplicantName,
			Email: l.ApplicantEmail,
			Phone: l.ApplicantPhone,
		},
		ApplicationDetails: transport.ApplicationDetailsResponse{
			Income:            l.Income,
			HouseholdSize:     l.HouseholdSize,
			HasPets:           l.HasPets,
			Smoker:            l.Smoker,
			DocumentsProvided: l.DocumentsProvided,
		},
		ScoredAt:        l.ScoredAt,
		RejectionReason: l.RejectionReason,
		DecidedAt:       l.DecidedAt,
	}

	if l.EmploymentStatus != nil {
		es := string(*l.EmploymentStatus)
		resp.ApplicationDetails.EmploymentStatus = &es
	}
	if l.MoveInFlexible {
		flexible := transport.MoveInFlexible
		resp.ApplicationDetails.MoveInDate = &flexible
	} else if l.MoveInDate != nil {
		d := l.MoveInDate.Format(transport.DateLayout)
		resp.ApplicationDetails.MoveInDate = &d
	}
	if n, ok := l.DocumentCount(); ok {
		resp.ApplicationDetails.DocumentsCount = &n
	}
	if l.Verdict != nil {
		resp.Verdict = &transport.VerdictResponse{HardPass: l.Verdict.HardPass, HardFailures: l.Verdict.HardFailures}
	}
	if l.AIInsights != nil {
		resp.AIInsights = toAIInsightsDTO(*l.AIInsights)
	}
	return resp
}

func toApplicationResponses(leads []domain.Lead) []transport.ApplicationResponse {
	out := make([]transport.ApplicationResponse, len(leads))
	for i, l := range leads {
		out[i] = toApplicationResponse(l)
	}
	return out
}

func toAIInsightsDTO(ai domain.AIInsights) *transport.AIInsights {
	dto := &transport.AIInsights{
		Summary:        ai.Summary,
		Recommendation: string(ai.Recommendation),
		Confidence:     ai.Confidence,
	}
	for _, f := range ai.Flags {
		dto.Flags = append(dto.Flags, transport.AIFlag{Kind: string(f.Kind), Label: f.Label})
	}
	return dto
}

func toDomainAIInsights(dto *transport.AIInsights) *domain.AIInsights {
	if dto == nil {
		return nil
	}
	ai := &domain.AIInsights{
		Summary:        strings.TrimSpace(dto.Summary),
		Recommendation: domain.Recommendation(dto.Recommendation),
		Confidence:     dto.Confidence,
	}
	for _, f := range dto.Flags {
		ai.Flags = append(ai.Flags, domain.AIFlag{Kind: domain.FlagKind(f.Kind), Label: strings.TrimSpace(f.Label)})
	}
	return ai
}

// parseMoveIn reads a move_in_date value: a calendar date or "flexible".
func parseMoveIn(value *string) (date *time.Time, flexible bool, err error) {
	if value == nil {
		return nil, false, nil
	}
	v := strings.TrimSpace(*value)
	if strings.EqualFold(v, transport.MoveInFlexible) {
		return nil, true, nil
	}
	if v == "" {
		return nil, false, nil
	}
	t, err := time.Parse(transport.DateLayout, v)
	if err != nil {
		return nil, false, apperr.Validation("move_in_date must be YYYY-MM-DD or \"flexible\"").
			WithDetails(map[string]string{"move_in_date": v})
	}
	return &t, false, nil
}

// parseInstant accepts RFC 3339 timestamps or calendar dates. A bare date used
// as an upper bound covers the whole day.
func parseInstant(field, value string, endOfDay bool) (*time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(transport.DateLayout, v)
	if err != nil {
		return nil, apperr.Validation("invalid date").WithDetails(map[string]string{field: v})
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func toDecisionRecordResponse(r domain.DecisionRecord) transport.DecisionRecordResponse {
	resp := transport.DecisionRecordResponse{
		ID:               r.ID,
		LeadID:           r.LeadID,
		Decision:         string(r.Kind),
		Reason:           r.Reason,
		Actor:            r.Actor,
		FromStatus:       string(r.FromStatus),
		ToStatus:         string(r.ToStatus),
		HardGateOverride: r.HardGateOverride,
		Timestamp:        r.DecidedAt,
	}
	if r.ViewingSlot != nil {
		resp.ViewingSlot = &transport.ViewingSlot{Start: r.ViewingSlot.Start, End: r.ViewingSlot.End}
	}
	return resp
}

func toEvaluationWarnings(ws []evaluation.Warning) []transport.EvaluationWarning {
	out := make([]transport.EvaluationWarning, len(ws))
	for i, w := range ws {
		out[i] = transport.EvaluationWarning{Criterion: w.Criterion, Attribute: w.Attribute, Message: w.Message}
	}
	return out
}

func toComparisonRows(results []comparison.AttributeResult) []transport.ComparisonRow {
	rows := make([]transport.ComparisonRow, len(results))
	for i, r := range results {
		cells := make([]transport.ComparisonCell, len(r.Cells))
		for j, c := range r.Cells {
			cells[j] = transport.ComparisonCell{LeadID: c.LeadID, Display: c.Display, Missing: c.Missing, Best: c.Best}
		}
		rows[i] = transport.ComparisonRow{Key: r.Key, Label: r.Label, Cells: cells, BestLeadIDs: r.BestLeadIDs}
	}
	return rows
}

func toCriteriaResponse(c domain.Criteria, source string) transport.CriteriaResponse {
	resp := transport.CriteriaResponse{
		PropertyID:  c.PropertyID,
		MonthlyRent: c.MonthlyRent,
		HardCriteria: transport.HardCriteria{
			PetsAllowed:      c.Hard.PetsAllowed,
			SmokingAllowed:   c.Hard.SmokingAllowed,
			MinIncomeRatio:   c.Hard.MinIncomeRatio,
			MaxHouseholdSize: c.Hard.MaxHouseholdSize,
		},
		SoftCriteria:             c.SoftWeights,
		ComfortableHouseholdSize: c.ComfortableSize(),
		RequiredDocuments:        c.RequiredDocumentCount(),
		Source:                   source,
		UnknownCriteria:          c.UnknownSoftCriteria(),
	}
	if resp.SoftCriteria == nil {
		resp.SoftCriteria = map[string]float64{}
	}
	if c.AvailableFrom != nil {
		d := c.AvailableFrom.Format(transport.DateLayout)
		resp.AvailableFrom = &d
	}
	if !c.UpdatedAt.IsZero() {
		updated := c.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}

func toFunnelResponse(r funnel.Report) transport.FunnelResponse {
	resp := transport.FunnelResponse{
		Stages:      make([]transport.StageCount, len(r.Stages)),
		Conversions: make([]transport.Conversion, len(r.Conversions)),
		ByPortal:    toBuckets(r.ByPortal),
		ByDay:       toBuckets(r.ByDay),
		ByStatus:    toBuckets(r.ByStatus),
	}
	for i, s := range r.Stages {
		resp.Stages[i] = transport.StageCount{Stage: s.Stage, Count: s.Count}
	}
	for i, c := range r.Conversions {
		resp.Conversions[i] = transport.Conversion{From: c.From, To: c.To, Rate: c.Rate}
	}
	return resp
}

func toBuckets(bs []funnel.Bucket) []transport.Bucket {
	out := make([]transport.Bucket, len(bs))
	for i, b := range bs {
		out[i] = transport.Bucket{Key: b.Key, Count: b.Count}
	}
	return out
}
