package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sector-engine/internal/model"
)

func nearTie() []model.Candidate {
	return []model.Candidate{
		{Sector: "SEC_ALPHA", Score: 0.50, Source: model.SourceEmbedding},
		{Sector: "SEC_BRAVO", Score: 0.49, Source: model.SourceEmbedding},
	}
}

func TestBoost_AnchorFlipsNearTie(t *testing.T) {
	b := NewBooster(testTaxonomy(t), DefaultBoostParams())
	company := model.Company{Ticker: "TST", Clients: []string{"Bravo Corp"}}
	graph := &model.GraphSnapshot{
		Anchors: []model.Anchor{{Company: "Bravo Corp", Sector: "SEC_BRAVO", Weight: 1}},
	}

	cands, log := b.Apply(company, graph, nearTie())

	assert.True(t, log.AnchorApplied)
	assert.False(t, log.GraphApplied)
	assert.InDelta(t, 0.03, log.Delta, 1e-9)
	assert.Equal(t, "applied", log.Reason)
	assert.Equal(t, "SEC_BRAVO", cands[0].Sector)
	assert.InDelta(t, 0.52, cands[0].Score, 1e-9)
}

func TestBoost_BudgetCapsCombinedDelta(t *testing.T) {
	b := NewBooster(testTaxonomy(t), DefaultBoostParams())
	company := model.Company{Ticker: "TST", Clients: []string{"Bravo Corp", "Bravo Two"}}
	graph := &model.GraphSnapshot{
		Anchors: []model.Anchor{
			{Company: "Bravo Corp", Sector: "SEC_BRAVO", Weight: 1},
			{Company: "Bravo Two", Sector: "SEC_BRAVO", Weight: 1},
		},
		Edges: []model.KGEdge{
			{Source: "TST", Target: "T2", Relation: model.RelationSuppliesTo, Weight: 10},
		},
		PrimarySector: map[string]string{"T2": "SEC_BRAVO"},
	}

	cands, log := b.Apply(company, graph, nearTie())

	assert.LessOrEqual(t, log.Delta, DefaultBoostParams().Budget+1e-9)
	assert.InDelta(t, 0.05, log.Delta, 1e-9)
	assert.InDelta(t, 0.54, cands[0].Score, 1e-9)
}

func TestBoost_GapGateBlocksDecidedRaces(t *testing.T) {
	b := NewBooster(testTaxonomy(t), DefaultBoostParams())
	company := model.Company{Ticker: "TST", Clients: []string{"Bravo Corp"}}
	graph := &model.GraphSnapshot{
		Anchors: []model.Anchor{{Company: "Bravo Corp", Sector: "SEC_BRAVO", Weight: 1}},
	}
	cands := []model.Candidate{
		{Sector: "SEC_ALPHA", Score: 0.60, Source: model.SourceEmbedding},
		{Sector: "SEC_BRAVO", Score: 0.40, Source: model.SourceEmbedding},
	}

	out, log := b.Apply(company, graph, cands)

	assert.Equal(t, "gap_above_gate", log.Reason)
	assert.Zero(t, log.Delta)
	assert.Equal(t, "SEC_ALPHA", out[0].Sector)
	assert.InDelta(t, 0.40, out[1].Score, 1e-9)
}

func TestBoost_AgnosticSectorNeverBoosted(t *testing.T) {
	b := NewBooster(testTaxonomy(t), DefaultBoostParams())
	company := model.Company{Ticker: "TST", Clients: []string{"Consultco"}}
	graph := &model.GraphSnapshot{
		Anchors: []model.Anchor{{Company: "Consultco", Sector: "SEC_SVC", Weight: 1}},
	}
	cands := []model.Candidate{
		{Sector: "SEC_SVC", Score: 0.50, Source: model.SourceEmbedding},
		{Sector: "SEC_ALPHA", Score: 0.49, Source: model.SourceEmbedding},
	}

	out, log := b.Apply(company, graph, cands)

	assert.False(t, log.AnchorApplied)
	assert.Equal(t, "no_matching_evidence", log.Reason)
	assert.InDelta(t, 0.50, out[0].Score, 1e-9)
}

func TestBoost_RoleDecayShrinksDelta(t *testing.T) {
	b := NewBooster(testTaxonomy(t), DefaultBoostParams())
	company := model.Company{
		Ticker:  "TST",
		Summary: "consulting and outsourcing services for manufacturers",
		Clients: []string{"Bravo Corp"},
	}
	graph := &model.GraphSnapshot{
		Anchors: []model.Anchor{{Company: "Bravo Corp", Sector: "SEC_BRAVO", Weight: 1}},
	}

	cands, log := b.Apply(company, graph, nearTie())

	assert.InDelta(t, 0.2, log.Multiplier, 1e-9)
	assert.InDelta(t, 0.006, log.Delta, 1e-9)
	assert.Contains(t, log.Reason, "role_decay")
	// The decayed delta is too small to flip the tie.
	assert.Equal(t, "SEC_ALPHA", cands[0].Sector)
}

func TestBoost_NoEvidenceReasons(t *testing.T) {
	b := NewBooster(testTaxonomy(t), DefaultBoostParams())

	_, log := b.Apply(model.Company{Ticker: "TST"}, nil, nearTie())
	assert.Equal(t, "no_graph_evidence", log.Reason)

	_, log = b.Apply(model.Company{Ticker: "TST"}, &model.GraphSnapshot{}, nearTie())
	assert.Equal(t, "no_graph_evidence", log.Reason)

	_, log = b.Apply(model.Company{Ticker: "TST"}, &model.GraphSnapshot{
		Anchors: []model.Anchor{{Company: "X", Sector: "SEC_BRAVO", Weight: 1}},
	}, nil)
	assert.Equal(t, "no_candidates", log.Reason)
}

func TestBoost_IgnoredRelationsAndForeignEdges(t *testing.T) {
	b := NewBooster(testTaxonomy(t), DefaultBoostParams())
	graph := &model.GraphSnapshot{
		Edges: []model.KGEdge{
			{Source: "TST", Target: "T2", Relation: "CUSTOMER_OF", Weight: 5},
			{Source: "OTHER", Target: "T3", Relation: model.RelationSuppliesTo, Weight: 5},
		},
		PrimarySector: map[string]string{"T2": "SEC_BRAVO", "T3": "SEC_BRAVO"},
	}

	_, log := b.Apply(model.Company{Ticker: "TST"}, graph, nearTie())
	assert.False(t, log.GraphApplied)
	assert.Equal(t, "no_matching_evidence", log.Reason)
}

func TestBoost_GraphEdgeScaledByStrength(t *testing.T) {
	b := NewBooster(testTaxonomy(t), DefaultBoostParams())
	graph := &model.GraphSnapshot{
		Edges: []model.KGEdge{
			{Source: "TST", Target: "T2", Relation: model.RelationCoreDependency, Weight: 2.5},
		},
		PrimarySector: map[string]string{"T2": "SEC_BRAVO"},
	}

	cands, log := b.Apply(model.Company{Ticker: "TST"}, graph, nearTie())

	require.True(t, log.GraphApplied)
	// 0.02 base * 0.8 relation * 0.5 strength.
	assert.InDelta(t, 0.008, log.Delta, 1e-9)
	assert.InDelta(t, 0.498, cands[1].Score, 1e-9)
}

func TestDetectRole(t *testing.T) {
	role, agnostic, conf := detectRole("it services and system integration consulting")
	assert.Equal(t, "system_integrator", role)
	assert.True(t, agnostic)
	assert.Greater(t, conf, 0.0)

	role, agnostic, _ = detectRole("operates a production plant and factory")
	assert.Equal(t, "manufacturer", role)
	assert.False(t, agnostic)

	role, _, conf = detectRole("nothing descriptive here")
	assert.Empty(t, role)
	assert.Zero(t, conf)
}
