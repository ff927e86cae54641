package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sector-engine/internal/model"
	"github.com/sells-group/sector-engine/internal/taxonomy"
)

func TestCardText(t *testing.T) {
	tax := testTaxonomy(t)

	t.Run("dual template", func(t *testing.T) {
		dual := &model.DualSector{
			Primary: "SEC_ALPHA", PrimaryPct: 52,
			Secondary: "SEC_BRAVO", SecondaryPct: 48,
			Enabled: true,
		}
		got := cardText(tax, "SEC_ALPHA", profileOf(map[string]float64{"SEC_ALPHA": 52, "SEC_BRAVO": 48}), dual)
		assert.Equal(t, "Alphaworks(52%) + Bravo Industries(48%) based composite alpha·bravo company", got)
	})

	t.Run("primary with secondary", func(t *testing.T) {
		got := cardText(tax, "SEC_ALPHA", profileOf(map[string]float64{"SEC_ALPHA": 80, "SEC_BRAVO": 15}), nil)
		assert.Equal(t, "primary: Alphaworks(80%) / secondary: Bravo Industries(15%)", got)
	})

	t.Run("primary only", func(t *testing.T) {
		got := cardText(tax, "SEC_ALPHA", profileOf(map[string]float64{"SEC_ALPHA": 100}), nil)
		assert.Equal(t, "primary: Alphaworks(100%)", got)
	})

	t.Run("no revenue profile", func(t *testing.T) {
		got := cardText(tax, "SEC_ALPHA", nil, nil)
		assert.Equal(t, "primary: Alphaworks", got)
	})

	t.Run("fractional percent keeps one decimal", func(t *testing.T) {
		got := cardText(tax, "SEC_ALPHA", profileOf(map[string]float64{"SEC_ALPHA": 66.7, "SEC_BRAVO": 33.3}), nil)
		assert.Contains(t, got, "Alphaworks(66.7%)")
		assert.Contains(t, got, "Bravo Industries(33.3%)")
	})
}

func TestMissingSegmentNote(t *testing.T) {
	tax := taxonomy.Default()

	t.Run("strong text signal without revenue", func(t *testing.T) {
		c := model.Company{
			Ticker:  "TST",
			Summary: "memory chips and a growing lithium-ion battery line",
		}
		profile := &model.RevenueProfile{
			SectorPct: map[string]float64{"SEC_SEMI": 100},
			Mappings: []model.SegmentMapping{
				{Segment: "semiconductor", SectorCode: "SEC_SEMI", RevenuePct: 100},
			},
		}

		note := missingSegmentNote(tax, c, profile, "SEC_SEMI")
		require.NotNil(t, note)
		assert.Equal(t, "SEC_BATTERY", note.Sector)
		assert.Contains(t, note.SignalsFound, "battery")
		assert.Equal(t, []string{"semiconductor"}, note.RevenueChecked)
		assert.Equal(t, "note_only", note.SupplementMethod)
		assert.NotEmpty(t, note.Explanation)
	})

	t.Run("no note when revenue covers the signal", func(t *testing.T) {
		c := model.Company{Summary: "lithium-ion battery maker"}
		profile := &model.RevenueProfile{
			SectorPct: map[string]float64{"SEC_BATTERY": 100},
			Mappings: []model.SegmentMapping{
				{Segment: "battery", SectorCode: "SEC_BATTERY", RevenuePct: 100},
			},
		}
		assert.Nil(t, missingSegmentNote(tax, c, profile, "SEC_BATTERY"))
	})

	t.Run("no note without segment data", func(t *testing.T) {
		c := model.Company{Summary: "lithium-ion battery maker"}
		assert.Nil(t, missingSegmentNote(tax, c, nil, "SEC_SEMI"))
		assert.Nil(t, missingSegmentNote(tax, c, &model.RevenueProfile{}, "SEC_SEMI"))
	})

	t.Run("weak signals ignored", func(t *testing.T) {
		// "chip" carries weight 1, below the note floor.
		c := model.Company{Summary: "chip distribution"}
		profile := &model.RevenueProfile{
			SectorPct: map[string]float64{"SEC_RETAIL": 100},
			Mappings: []model.SegmentMapping{
				{Segment: "retail", SectorCode: "SEC_RETAIL", RevenuePct: 100},
			},
		}
		assert.Nil(t, missingSegmentNote(tax, c, profile, "SEC_RETAIL"))
	})
}

func TestFormatPct(t *testing.T) {
	assert.Equal(t, "52", formatPct(52))
	assert.Equal(t, "33.3", formatPct(33.3))
	assert.Equal(t, "0.5", formatPct(0.5))
}
