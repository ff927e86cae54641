package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/sector-engine/internal/model"
)

func TestRuleScore(t *testing.T) {
	rc := NewRuleClassifier(testTaxonomy(t))

	tests := []struct {
		name       string
		company    model.Company
		wantSector string
		wantScore  float64
	}{
		{
			name:       "full dictionary match",
			company:    model.Company{Summary: "maker of alphamatic alpha modules"},
			wantSector: "SEC_ALPHA",
			wantScore:  1.0,
		},
		{
			name:       "half dictionary match",
			company:    model.Company{Summary: "alpha module maker"},
			wantSector: "SEC_ALPHA",
			wantScore:  0.5,
		},
		{
			name:       "keywords field counts",
			company:    model.Company{Keywords: []string{"bravo"}},
			wantSector: "SEC_BRAVO",
			wantScore:  1.0,
		},
		{
			name:    "no match",
			company: model.Company{Summary: "completely unrelated"},
		},
		{
			name: "client names do not score",
			company: model.Company{
				Summary: "widget maker",
				Clients: []string{"Bravo Industries Ltd"},
			},
		},
		{
			name:    "empty company",
			company: model.Company{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rc.Score(tt.company)
			assert.Equal(t, tt.wantSector, got.Sector)
			assert.InDelta(t, tt.wantScore, got.Score, 1e-9)
		})
	}
}

func TestRuleBand(t *testing.T) {
	assert.Equal(t, BandHigh, RuleResult{Score: 0.75}.Band())
	assert.Equal(t, BandHigh, RuleResult{Score: 0.7}.Band())
	assert.Equal(t, BandMedium, RuleResult{Score: 0.5}.Band())
	assert.Equal(t, BandMedium, RuleResult{Score: 0.4}.Band())
	assert.Equal(t, BandLow, RuleResult{Score: 0.39}.Band())
	assert.Equal(t, BandLow, RuleResult{}.Band())
}

func TestRuleScoreDeterministic(t *testing.T) {
	rc := NewRuleClassifier(testTaxonomy(t))
	c := model.Company{
		Summary:  "alpha and bravo conglomerate",
		Products: []string{"alpha modules", "bravo goods"},
	}
	first := rc.Score(c)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, rc.Score(c))
	}
}
