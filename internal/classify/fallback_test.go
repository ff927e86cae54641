package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/sector-engine/internal/model"
)

func TestResolveFallback_ChainOrder(t *testing.T) {
	tax := testTaxonomy(t)
	prior := &model.IndustryPrior{Sector: "SEC_BRAVO"}

	t.Run("rule rung", func(t *testing.T) {
		fb := resolveFallback(tax, RuleResult{Sector: "SEC_ALPHA", Score: 0.35},
			[]model.Candidate{{Sector: "SEC_BRAVO", Score: 0.9, Source: model.SourceEmbedding}}, prior)
		assert.Equal(t, model.FallbackRule, fb.Type)
		assert.Equal(t, "SEC_ALPHA", fb.Sector)
		assert.Equal(t, model.ConfidenceMedium, fb.Confidence)
	})

	t.Run("top1 rung", func(t *testing.T) {
		fb := resolveFallback(tax, RuleResult{},
			[]model.Candidate{{Sector: "SEC_BRAVO", Score: 0.31, Source: model.SourceEmbedding}}, prior)
		assert.Equal(t, model.FallbackTop1, fb.Type)
		assert.Equal(t, "SEC_BRAVO", fb.Sector)
		assert.Equal(t, model.ConfidenceLow, fb.Confidence)
	})

	t.Run("top1 skipped below floor", func(t *testing.T) {
		fb := resolveFallback(tax, RuleResult{},
			[]model.Candidate{{Sector: "SEC_BRAVO", Score: 0.29, Source: model.SourceEmbedding}}, prior)
		assert.Equal(t, model.FallbackPrior, fb.Type)
	})

	t.Run("prior-injected candidate goes to the prior rung", func(t *testing.T) {
		fb := resolveFallback(tax, RuleResult{},
			[]model.Candidate{{Sector: "SEC_BRAVO", Score: 0.30, Source: model.SourcePrior}}, prior)
		assert.Equal(t, model.FallbackPrior, fb.Type)
		assert.Equal(t, "SEC_BRAVO", fb.Sector)
		assert.Equal(t, model.ConfidenceVeryLow, fb.Confidence)
	})

	t.Run("prior rung", func(t *testing.T) {
		fb := resolveFallback(tax, RuleResult{}, nil, prior)
		assert.Equal(t, model.FallbackPrior, fb.Type)
		assert.Equal(t, model.ConfidenceVeryLow, fb.Confidence)
	})

	t.Run("invalid prior falls through to unknown", func(t *testing.T) {
		fb := resolveFallback(tax, RuleResult{}, nil, &model.IndustryPrior{Sector: "SEC_NOPE"})
		assert.Equal(t, model.FallbackUnknown, fb.Type)
		assert.Equal(t, model.UnknownSector, fb.Sector)
	})

	t.Run("unknown rung", func(t *testing.T) {
		fb := resolveFallback(tax, RuleResult{}, nil, nil)
		assert.Equal(t, model.FallbackUnknown, fb.Type)
		assert.Equal(t, model.UnknownSector, fb.Sector)
		assert.Equal(t, model.ConfidenceVeryLow, fb.Confidence)
	})
}
