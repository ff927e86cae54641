package classify

import "github.com/sells-group/sector-engine/internal/model"

// DualPolicy decides when a company is genuinely two-sector. Thresholds are
// fractions of total revenue; RuleVersion is stamped into every block so
// downstream consumers can tell which revision produced it.
type DualPolicy struct {
	MarginMax    float64 // dual when (top1-top2)/100 is within this
	SecondaryMin float64 // or when top2 revenue share reaches this
	RuleVersion  string
}

// DefaultDualPolicy returns the v1.0 policy.
func DefaultDualPolicy() DualPolicy {
	return DualPolicy{MarginMax: 0.05, SecondaryMin: 0.30, RuleVersion: "v1.0"}
}

// Evaluate applies the policy to a revenue profile. It returns nil unless
// at least two sectors carry mapped revenue and one of the two gates fires.
// The close-race gate takes precedence in the recorded reason.
func (p DualPolicy) Evaluate(profile *model.RevenueProfile) *model.DualSector {
	if profile == nil {
		return nil
	}
	top := profile.TopSectors()
	if len(top) < 2 {
		return nil
	}
	p1 := profile.SectorPct[top[0]]
	p2 := profile.SectorPct[top[1]]
	if p2 <= 0 {
		return nil
	}

	margin := (p1 - p2) / 100
	var reason string
	switch {
	case margin <= p.MarginMax:
		reason = "top1_top2_close"
	case p2/100 >= p.SecondaryMin:
		reason = "top2_significant"
	default:
		return nil
	}

	return &model.DualSector{
		Primary:      top[0],
		PrimaryPct:   p1,
		Secondary:    top[1],
		SecondaryPct: p2,
		Margin:       margin,
		Reason:       reason,
		RuleVersion:  p.RuleVersion,
		Enabled:      true,
	}
}
