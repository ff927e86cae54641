package classify

import "sort"

// Weights is one allocation across the three ensemble signals.
type Weights struct {
	Rule      float64
	Embedding float64
	Validator float64
}

func (w Weights) sum() float64 { return w.Rule + w.Embedding + w.Validator }

// WeightPolicy is the declarative table of base weights and situational
// adjustments for the ensemble. Keeping the shifts as data makes the
// weighting auditable per result.
type WeightPolicy struct {
	Base        Weights
	RuleHighAdj Weights
	RuleLowAdj  Weights
	ComplexAdj  Weights

	// ComplexCandidates is the candidate count above which the complex
	// adjustment kicks in.
	ComplexCandidates int
}

// DefaultWeightPolicy returns the standard policy.
func DefaultWeightPolicy() WeightPolicy {
	return WeightPolicy{
		Base:        Weights{Rule: 0.4, Embedding: 0.5, Validator: 0.1},
		RuleHighAdj: Weights{Rule: +0.15, Embedding: -0.10, Validator: -0.05},
		RuleLowAdj:  Weights{Rule: -0.10, Embedding: +0.08, Validator: +0.02},
		ComplexAdj:  Weights{Rule: -0.05, Embedding: +0.05},

		ComplexCandidates: 3,
	}
}

// Resolve computes the effective weights for one classification call.
// Absent validator mass is redistributed pro-rata; the result always sums
// to 1 when any weight survives.
func (p WeightPolicy) Resolve(band RuleBand, diversified bool, candidates int, hasValidator bool) Weights {
	w := p.Base

	switch band {
	case BandHigh:
		w = w.add(p.RuleHighAdj)
	case BandLow:
		w = w.add(p.RuleLowAdj)
	}
	if diversified || candidates > p.ComplexCandidates {
		w = w.add(p.ComplexAdj)
	}

	w = w.clamp()
	if !hasValidator {
		w = w.redistributeValidator()
	}
	return w.normalize()
}

func (w Weights) add(adj Weights) Weights {
	return Weights{
		Rule:      w.Rule + adj.Rule,
		Embedding: w.Embedding + adj.Embedding,
		Validator: w.Validator + adj.Validator,
	}
}

func (w Weights) clamp() Weights {
	if w.Rule < 0 {
		w.Rule = 0
	}
	if w.Embedding < 0 {
		w.Embedding = 0
	}
	if w.Validator < 0 {
		w.Validator = 0
	}
	return w
}

func (w Weights) redistributeValidator() Weights {
	rest := w.Rule + w.Embedding
	if w.Validator == 0 || rest == 0 {
		w.Validator = 0
		return w
	}
	w.Rule += w.Validator * w.Rule / rest
	w.Embedding += w.Validator * w.Embedding / rest
	w.Validator = 0
	return w
}

func (w Weights) normalize() Weights {
	s := w.sum()
	if s == 0 {
		return w
	}
	return Weights{Rule: w.Rule / s, Embedding: w.Embedding / s, Validator: w.Validator / s}
}

// sectorScores collects each signal's per-sector score for the ensemble.
type sectorScores struct {
	Rule      map[string]float64
	Embedding map[string]float64
	Validator map[string]float64
}

// combine computes the weighted ensemble score for every sector present in
// any signal and returns them best first.
func combine(w Weights, s sectorScores) []scoredSector {
	sectors := make(map[string]bool)
	for code := range s.Rule {
		sectors[code] = true
	}
	for code := range s.Embedding {
		sectors[code] = true
	}
	for code := range s.Validator {
		sectors[code] = true
	}

	out := make([]scoredSector, 0, len(sectors))
	for code := range sectors {
		score := w.Rule*s.Rule[code] + w.Embedding*s.Embedding[code] + w.Validator*s.Validator[code]
		out = append(out, scoredSector{Sector: code, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Sector < out[j].Sector
	})
	return out
}

type scoredSector struct {
	Sector string
	Score  float64
}
