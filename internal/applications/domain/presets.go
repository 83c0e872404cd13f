package domain

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// DefaultPresetName is the preset applied to properties without stored criteria.
const DefaultPresetName = "default"

// CriteriaPreset is a reusable criteria template without property specifics.
type CriteriaPreset struct {
	Hard                     HardCriteria       `yaml:"hard"`
	Soft                     map[string]float64 `yaml:"soft"`
	ComfortableHouseholdSize int                `yaml:"comfortable_household_size"`
	RequiredDocuments        int                `yaml:"required_documents"`
}

// CriteriaPresets maps preset names to templates.
type CriteriaPresets map[string]CriteriaPreset

// BuiltinPresets returns the presets used when no file is configured.
func BuiltinPresets() CriteriaPresets {
	ratio := 3.0
	return CriteriaPresets{
		DefaultPresetName: {
			Hard: HardCriteria{MinIncomeRatio: &ratio},
			Soft: map[string]float64{
				SoftIncomeRatio:      1,
				SoftEmploymentStatus: 0.6,
				SoftDocuments:        0.5,
				SoftHouseholdSize:    0.4,
				SoftMoveInDate:       0.3,
			},
			ComfortableHouseholdSize: DefaultComfortableHouseholdSize,
			RequiredDocuments:        DefaultRequiredDocuments,
		},
	}
}

// LoadCriteriaPresets reads presets from a YAML file. An empty path yields
// the builtin presets. A file without a default preset inherits the builtin one.
func LoadCriteriaPresets(path string) (CriteriaPresets, error) {
	presets := BuiltinPresets()
	if path == "" {
		return presets, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read criteria presets: %w", err)
	}

	var loaded CriteriaPresets
	if err := yaml.Unmarshal(raw, &loaded); err != nil {
		return nil, fmt.Errorf("parse criteria presets: %w", err)
	}

	for name, preset := range loaded {
		if err := preset.validate(); err != nil {
			return nil, fmt.Errorf("preset %q: %w", name, err)
		}
		presets[name] = preset
	}
	return presets, nil
}

func (p CriteriaPreset) validate() error {
	for name, weight := range p.Soft {
		if weight < 0 || weight > 1 {
			return fmt.Errorf("soft weight %s=%v outside [0,1]", name, weight)
		}
	}
	if p.Hard.MinIncomeRatio != nil && *p.Hard.MinIncomeRatio < 0 {
		return fmt.Errorf("min_income_ratio must not be negative")
	}
	if p.Hard.MaxHouseholdSize != nil && *p.Hard.MaxHouseholdSize < 1 {
		return fmt.Errorf("max_household_size must be at least 1")
	}
	return nil
}

// Default returns the default preset.
func (p CriteriaPresets) Default() CriteriaPreset {
	if preset, ok := p[DefaultPresetName]; ok {
		return preset
	}
	return BuiltinPresets()[DefaultPresetName]
}

// ForProperty instantiates the preset for a property. Rent and availability
// are property facts and must be set by the caller.
func (p CriteriaPreset) ForProperty(propertyID uuid.UUID) Criteria {
	weights := make(map[string]float64, len(p.Soft))
	for k, v := range p.Soft {
		weights[k] = v
	}
	return Criteria{
		PropertyID:               propertyID,
		Hard:                     p.Hard,
		SoftWeights:              weights,
		ComfortableHouseholdSize: p.ComfortableHouseholdSize,
		RequiredDocuments:        p.RequiredDocuments,
	}
}
