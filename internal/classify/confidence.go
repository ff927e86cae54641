package classify

import "github.com/sells-group/sector-engine/internal/model"

// confidenceFor maps an ensemble score onto the trust tiers.
func confidenceFor(score float64) model.Confidence {
	switch {
	case score >= 0.7:
		return model.ConfidenceHigh
	case score >= 0.5:
		return model.ConfidenceMedium
	case score >= 0.3:
		return model.ConfidenceLow
	default:
		return model.ConfidenceVeryLow
	}
}
