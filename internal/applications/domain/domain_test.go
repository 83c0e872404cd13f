package domain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOrdering(t *testing.T) {
	statuses := Statuses()
	for i := 1; i < len(statuses)-1; i++ {
		assert.Less(t, statuses[i-1].Rank(), statuses[i].Rank(), "%s before %s", statuses[i-1], statuses[i])
	}
	assert.True(t, StatusSelected.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.False(t, StatusQualified.IsTerminal())

	assert.True(t, StatusDossierSubmitted.IsPreQualification())
	assert.False(t, StatusQualified.IsPreQualification())
	assert.False(t, Status("archived").IsPreQualification())
	assert.Equal(t, -1, Status("archived").Rank())
}

func TestAIInsightsFlags(t *testing.T) {
	var none *AIInsights
	assert.False(t, none.OnlyGreenFlags())
	assert.False(t, none.HasRedFlag())
	assert.False(t, none.HighConfidence())

	empty := &AIInsights{}
	assert.False(t, empty.OnlyGreenFlags(), "no flags is not only-green")

	mixed := &AIInsights{Flags: []AIFlag{{Kind: FlagGreen}, {Kind: FlagRed}}}
	assert.False(t, mixed.OnlyGreenFlags())
	assert.True(t, mixed.HasRedFlag())

	conf := 0.8
	green := &AIInsights{Confidence: &conf, Flags: []AIFlag{{Kind: FlagGreen}}}
	assert.True(t, green.OnlyGreenFlags())
	assert.True(t, green.HighConfidence())
}

func TestDocumentCount(t *testing.T) {
	_, ok := Lead{}.DocumentCount()
	assert.False(t, ok)

	n, ok := Lead{DocumentsProvided: []string{}}.DocumentCount()
	assert.True(t, ok)
	assert.Zero(t, n)
}

func TestUnknownSoftCriteria(t *testing.T) {
	c := Criteria{SoftWeights: map[string]float64{"income_ratio": 1, "zodiac": 1, "aura": 0.5}}
	assert.Equal(t, []string{"aura", "zodiac"}, c.UnknownSoftCriteria())
}

func TestLoadCriteriaPresets(t *testing.T) {
	t.Run("empty path uses builtin", func(t *testing.T) {
		presets, err := LoadCriteriaPresets("")
		require.NoError(t, err)
		def := presets.Default()
		require.NotNil(t, def.Hard.MinIncomeRatio)
		assert.Equal(t, 3.0, *def.Hard.MinIncomeRatio)
	})

	t.Run("file presets", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "criteria.yaml")
		body := `
family:
  hard:
    pets_allowed: true
    max_household_size: 6
  soft:
    household_size: 0.2
    income_ratio: 0.9
  comfortable_household_size: 4
`
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

		presets, err := LoadCriteriaPresets(path)
		require.NoError(t, err)

		family, ok := presets["family"]
		require.True(t, ok)
		require.NotNil(t, family.Hard.PetsAllowed)
		assert.True(t, *family.Hard.PetsAllowed)
		assert.Nil(t, family.Hard.SmokingAllowed)

		id := uuid.New()
		c := family.ForProperty(id)
		assert.Equal(t, id, c.PropertyID)
		assert.Equal(t, 4, c.ComfortableSize())
		assert.Equal(t, DefaultRequiredDocuments, c.RequiredDocumentCount())

		_, hasDefault := presets[DefaultPresetName]
		assert.True(t, hasDefault)
	})

	t.Run("weight out of range", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("default:\n  soft:\n    income_ratio: 2\n"), 0o600))
		_, err := LoadCriteriaPresets(path)
		assert.Error(t, err)
	})
}
