package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sector-engine/internal/model"
)

func profileOf(pct map[string]float64) *model.RevenueProfile {
	return &model.RevenueProfile{SectorPct: pct}
}

func TestDualPolicy(t *testing.T) {
	p := DefaultDualPolicy()

	t.Run("close race fires margin gate", func(t *testing.T) {
		d := p.Evaluate(profileOf(map[string]float64{"SEC_ALPHA": 52, "SEC_BRAVO": 48}))
		require.NotNil(t, d)
		assert.True(t, d.Enabled)
		assert.Equal(t, "top1_top2_close", d.Reason)
		assert.Equal(t, "SEC_ALPHA", d.Primary)
		assert.Equal(t, "SEC_BRAVO", d.Secondary)
		assert.InDelta(t, 0.04, d.Margin, 1e-9)
		assert.Equal(t, "v1.0", d.RuleVersion)
	})

	t.Run("significant secondary fires share gate", func(t *testing.T) {
		d := p.Evaluate(profileOf(map[string]float64{"SEC_ALPHA": 65, "SEC_BRAVO": 35}))
		require.NotNil(t, d)
		assert.Equal(t, "top2_significant", d.Reason)
	})

	t.Run("margin gate wins when both fire", func(t *testing.T) {
		d := p.Evaluate(profileOf(map[string]float64{"SEC_ALPHA": 51, "SEC_BRAVO": 49}))
		require.NotNil(t, d)
		assert.Equal(t, "top1_top2_close", d.Reason)
	})

	t.Run("dominant primary stays single", func(t *testing.T) {
		assert.Nil(t, p.Evaluate(profileOf(map[string]float64{"SEC_ALPHA": 80, "SEC_BRAVO": 15})))
	})

	t.Run("single sector stays single", func(t *testing.T) {
		assert.Nil(t, p.Evaluate(profileOf(map[string]float64{"SEC_ALPHA": 100})))
	})

	t.Run("nil profile", func(t *testing.T) {
		assert.Nil(t, p.Evaluate(nil))
	})

	t.Run("boundary margin exactly at threshold", func(t *testing.T) {
		d := p.Evaluate(profileOf(map[string]float64{"SEC_ALPHA": 52.5, "SEC_BRAVO": 47.5}))
		require.NotNil(t, d)
		assert.Equal(t, "top1_top2_close", d.Reason)
	})

	t.Run("boundary secondary exactly at threshold", func(t *testing.T) {
		d := p.Evaluate(profileOf(map[string]float64{"SEC_ALPHA": 70, "SEC_BRAVO": 30}))
		require.NotNil(t, d)
		assert.Equal(t, "top2_significant", d.Reason)
	})
}
