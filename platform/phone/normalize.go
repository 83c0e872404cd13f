// Package phone normalizes applicant phone numbers delivered by listing portals.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is assumed for numbers submitted without a country prefix.
const DefaultRegion = "CH"

// NormalizeE164 formats input as E.164 using DefaultRegion. Input that does
// not parse to a valid number is returned trimmed and unchanged.
func NormalizeE164(input string) string {
	return NormalizeE164In(input, DefaultRegion)
}

// NormalizeE164In is NormalizeE164 with an explicit fallback region.
func NormalizeE164In(input, region string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, region)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return trimmed
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

// Valid reports whether input parses to a valid number in DefaultRegion.
func Valid(input string) bool {
	number, err := phonenumbers.Parse(strings.TrimSpace(input), DefaultRegion)
	return err == nil && phonenumbers.IsValidNumber(number)
}
