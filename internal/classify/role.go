package classify

import "strings"

// roleProfile describes one company role detected from free text. Agnostic
// roles (companies that serve an industry without belonging to it) decay
// the boost multiplier.
type roleProfile struct {
	name     string
	agnostic bool
	positive []string
	negative []string
}

var roleProfiles = []roleProfile{
	{
		name: "manufacturer",
		positive: []string{
			"manufactur", "production", "produces", "factory", "plant",
			"fabricat", "assembly line",
		},
		negative: []string{"consulting", "brokerage"},
	},
	{
		name:     "service_provider",
		agnostic: true,
		positive: []string{
			"service provider", "services for", "consulting", "outsourcing",
			"maintenance services", "managed services", "solutions for",
		},
		negative: []string{"manufactur", "production", "factory", "plant"},
	},
	{
		name:     "system_integrator",
		agnostic: true,
		positive: []string{
			"system integration", "si services", "it services", "software development",
			"platform operator",
		},
		negative: []string{"manufactur", "fabricat", "factory"},
	},
	{
		name:     "distributor",
		agnostic: true,
		positive: []string{
			"distribut", "wholesale", "trading company", "reseller", "retailer",
		},
		negative: []string{"manufactur", "production", "develops"},
	},
}

const (
	rolePositiveWeight = 2.0
	roleNegativeWeight = 3.0
	roleConfidenceGate = 0.7
	roleDecayFactor    = 0.2
)

// detectRole scores each role profile against the company text. Confidence
// is the relative gap between the two best roles.
func detectRole(text string) (role string, agnostic bool, confidence float64) {
	type scored struct {
		profile roleProfile
		score   float64
	}
	var top1, top2 scored
	for _, p := range roleProfiles {
		var s float64
		for _, term := range p.positive {
			if strings.Contains(text, term) {
				s += rolePositiveWeight
			}
		}
		for _, term := range p.negative {
			if strings.Contains(text, term) {
				s -= roleNegativeWeight
			}
		}
		if s > top1.score {
			top2 = top1
			top1 = scored{profile: p, score: s}
		} else if s > top2.score {
			top2 = scored{profile: p, score: s}
		}
	}
	if top1.score <= 0 {
		return "", false, 0
	}
	confidence = (top1.score - top2.score) / top1.score
	return top1.profile.name, top1.profile.agnostic, confidence
}

// roleMultiplier returns the boost multiplier for a company. A confidently
// detected agnostic role means graph evidence mostly reflects who the
// company serves, so its boost is decayed rather than blocked outright.
func roleMultiplier(text string) (mult float64, role string) {
	role, agnostic, confidence := detectRole(text)
	if agnostic && confidence >= roleConfidenceGate {
		return roleDecayFactor, role
	}
	return 1.0, role
}
