package classify

import "github.com/sells-group/sector-engine/internal/model"

const fallbackCandidateFloor = 0.30

// fallbackDecision is one resolved rung of the fallback chain.
type fallbackDecision struct {
	Sector     string
	Score      float64
	Confidence model.Confidence
	Type       model.FallbackType
}

// resolveFallback walks the ordered chain: rule result, best surviving
// candidate, external industry prior, unknown sentinel. Exactly one rung
// fires; the engine never errors out of a classification.
func resolveFallback(tax interface{ Valid(string) bool }, rule RuleResult, cands []model.Candidate, prior *model.IndustryPrior) fallbackDecision {
	if rule.Sector != "" && rule.Score > 0 {
		return fallbackDecision{
			Sector:     rule.Sector,
			Score:      rule.Score,
			Confidence: model.ConfidenceMedium,
			Type:       model.FallbackRule,
		}
	}
	for _, cand := range cands {
		// Prior-injected candidates belong to the prior rung below.
		if cand.Source == model.SourcePrior {
			continue
		}
		if cand.Score >= fallbackCandidateFloor {
			return fallbackDecision{
				Sector:     cand.Sector,
				Score:      cand.Score,
				Confidence: model.ConfidenceLow,
				Type:       model.FallbackTop1,
			}
		}
		break
	}
	if prior != nil && prior.Sector != "" && tax.Valid(prior.Sector) {
		return fallbackDecision{
			Sector:     prior.Sector,
			Confidence: model.ConfidenceVeryLow,
			Type:       model.FallbackPrior,
		}
	}
	return fallbackDecision{
		Sector:     model.UnknownSector,
		Confidence: model.ConfidenceVeryLow,
		Type:       model.FallbackUnknown,
	}
}
