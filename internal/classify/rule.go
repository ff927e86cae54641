package classify

import (
	"strings"

	"github.com/sells-group/sector-engine/internal/model"
	"github.com/sells-group/sector-engine/internal/taxonomy"
)

// RuleBand buckets a rule score for the ensemble weight policy.
type RuleBand string

const (
	BandHigh   RuleBand = "HIGH"
	BandMedium RuleBand = "MEDIUM"
	BandLow    RuleBand = "LOW"
)

const (
	bandHighFloor = 0.7
	bandLowCeil   = 0.4
)

// RuleResult is the outcome of the keyword pass: the best-scoring sector,
// a normalized score and the terms that fired.
type RuleResult struct {
	Sector  string
	Score   float64
	Matched []string
}

// Band returns the score bucket used to shift ensemble weights.
func (r RuleResult) Band() RuleBand {
	switch {
	case r.Score >= bandHighFloor:
		return BandHigh
	case r.Score < bandLowCeil:
		return BandLow
	default:
		return BandMedium
	}
}

// RuleClassifier scores companies against the taxonomy's weighted keyword
// dictionaries. It is deterministic and needs no network.
type RuleClassifier struct {
	tax *taxonomy.Snapshot
}

// NewRuleClassifier returns a rule classifier over the snapshot.
func NewRuleClassifier(tax *taxonomy.Snapshot) *RuleClassifier {
	return &RuleClassifier{tax: tax}
}

// Score runs the keyword pass over the company's own description fields.
// Client names stay out of the scan. The per-sector score is the matched
// weight divided by the sector's total keyword weight, so dictionary size
// does not skew comparisons.
func (rc *RuleClassifier) Score(c model.Company) RuleResult {
	text := lowerDescription(c)
	if text == "" {
		return RuleResult{}
	}

	var best RuleResult
	for i := range rc.tax.Sectors {
		sec := &rc.tax.Sectors[i]
		if len(sec.Keywords) == 0 {
			continue
		}
		var total, matched float64
		var terms []string
		for _, kw := range sec.Keywords {
			total += kw.Weight
			if strings.Contains(text, kw.Term) {
				matched += kw.Weight
				terms = append(terms, kw.Term)
			}
		}
		if matched == 0 || total == 0 {
			continue
		}
		score := matched / total
		if score > 1 {
			score = 1
		}
		if score > best.Score {
			best = RuleResult{Sector: sec.Code, Score: score, Matched: terms}
		}
	}
	return best
}
