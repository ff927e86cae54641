package classify

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/sector-engine/internal/model"
	"github.com/sells-group/sector-engine/internal/taxonomy"
)

// BoostParams tunes the evidence-boosting engine. All deltas share one
// budget so boosting can nudge a near-tie but never manufacture a winner.
type BoostParams struct {
	Budget         float64 // max combined delta per company
	GapGate        float64 // boosting only when top1-top2 is within this
	AnchorBase     float64 // base delta for an anchor-client match
	GraphBase      float64 // base delta for a graph edge
	StrengthCap    float64 // edge strength that saturates the scale
	RelationWeight map[string]float64
}

// DefaultBoostParams returns the standard parameters.
func DefaultBoostParams() BoostParams {
	return BoostParams{
		Budget:      0.05,
		GapGate:     0.03,
		AnchorBase:  0.03,
		GraphBase:   0.02,
		StrengthCap: 5,
		RelationWeight: map[string]float64{
			model.RelationSuppliesTo:     1.0,
			model.RelationCoreDependency: 0.8,
		},
	}
}

// Booster applies anchor-client and graph-edge boosts to a candidate list.
type Booster struct {
	tax    *taxonomy.Snapshot
	params BoostParams
}

// NewBooster returns a booster over the snapshot.
func NewBooster(tax *taxonomy.Snapshot, params BoostParams) *Booster {
	return &Booster{tax: tax, params: params}
}

// Apply mutates candidate scores in place according to the boosting rules
// and returns the sorted list plus a structured log of what happened.
// Boosting fires only on near-ties, never toward agnostic sectors, and the
// total delta stays within the budget.
func (b *Booster) Apply(c model.Company, graph *model.GraphSnapshot, cands []model.Candidate) ([]model.Candidate, model.BoostLog) {
	log := model.BoostLog{Multiplier: 1}

	if len(cands) == 0 {
		log.Reason = "no_candidates"
		return cands, log
	}
	if graph == nil || (len(graph.Anchors) == 0 && len(graph.Edges) == 0) {
		log.Reason = "no_graph_evidence"
		return cands, log
	}
	if len(cands) >= 2 && cands[0].Score-cands[1].Score > b.params.GapGate {
		log.Reason = "gap_above_gate"
		return cands, log
	}

	mult, role := roleMultiplier(lowerText(c))
	log.Multiplier = mult

	remaining := b.params.Budget

	// Anchor pass: a known exemplar appearing in the client list is supply
	// evidence for that exemplar's sector.
	for _, anchor := range graph.Anchors {
		if remaining <= 0 {
			break
		}
		if !clientListed(c.Clients, anchor.Company) {
			continue
		}
		delta := b.params.AnchorBase * anchor.Weight * mult
		if applied := b.boostSector(cands, anchor.Sector, delta, &remaining); applied {
			log.AnchorApplied = true
		}
	}

	// Graph pass: outbound supply-style edges, scaled by edge strength.
	for _, edge := range graph.Edges {
		if remaining <= 0 {
			break
		}
		if edge.Source != c.Ticker {
			continue
		}
		relWeight := b.params.RelationWeight[edge.Relation]
		if relWeight == 0 {
			continue
		}
		target := graph.PrimarySector[edge.Target]
		if target == "" {
			continue
		}
		strength := edge.Weight / b.params.StrengthCap
		if strength > 1 {
			strength = 1
		}
		delta := b.params.GraphBase * relWeight * strength * mult
		if applied := b.boostSector(cands, target, delta, &remaining); applied {
			log.GraphApplied = true
		}
	}

	switch {
	case log.AnchorApplied || log.GraphApplied:
		log.Delta = b.params.Budget - remaining
		log.Reason = "applied"
		if mult < 1 {
			log.Reason = "applied_role_decay:" + role
		}
	default:
		log.Reason = "no_matching_evidence"
	}

	sort.SliceStable(cands, func(i, j int) bool { return cands[i].Score > cands[j].Score })

	if log.Delta > 0 {
		zap.L().Debug("boost applied",
			zap.String("ticker", c.Ticker),
			zap.Float64("delta", log.Delta),
			zap.Float64("multiplier", mult),
			zap.Bool("anchor", log.AnchorApplied),
			zap.Bool("graph", log.GraphApplied),
		)
	}
	return cands, log
}

// boostSector adds delta to the candidate for sector, honoring the agnostic
// block list and the remaining budget.
func (b *Booster) boostSector(cands []model.Candidate, sector string, delta float64, remaining *float64) bool {
	if delta <= 0 || b.tax.IsAgnostic(sector) {
		return false
	}
	if delta > *remaining {
		delta = *remaining
	}
	for i := range cands {
		if cands[i].Sector == sector {
			cands[i].Score += delta
			if cands[i].Score > 1 {
				cands[i].Score = 1
			}
			*remaining -= delta
			return true
		}
	}
	return false
}

func clientListed(clients []string, company string) bool {
	needle := strings.ToLower(company)
	for _, cl := range clients {
		if strings.Contains(strings.ToLower(cl), needle) {
			return true
		}
	}
	return false
}
