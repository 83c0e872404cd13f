package transport

import (
	"fmt"

	"tenant_portal_backend/internal/applications/domain"
	"tenant_portal_backend/platform/validator"
)

// RegisterValidations installs the enum tags used by the request DTOs.
func RegisterValidations(val *validator.Validator) error {
	tags := map[string][]string{
		TagPortal:     stringsOf(domain.Portals()),
		TagLeadStatus: stringsOf(domain.Statuses()),
		TagEmployment: stringsOf(domain.EmploymentStatuses()),
		TagDecision: {
			string(domain.DecisionAccept),
			string(domain.DecisionReject),
			string(domain.DecisionScheduleViewing),
		},
		TagFlagKind: {string(domain.FlagGreen), string(domain.FlagYellow), string(domain.FlagRed)},
		TagRecommendation: {
			string(domain.RecommendationPositive),
			string(domain.RecommendationNeutral),
			string(domain.RecommendationNegative),
		},
	}
	for tag, allowed := range tags {
		if err := val.RegisterOneOf(tag, allowed...); err != nil {
			return fmt.Errorf("register %s validation: %w", tag, err)
		}
	}
	return nil
}

func stringsOf[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
