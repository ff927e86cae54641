package segment

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/sector-engine/internal/model"
	"github.com/sells-group/sector-engine/internal/taxonomy"
)

// Segment labels that carry no sector signal. They stay out of the revenue
// profile but remain in the mapping audit trail.
var neutralTerms = []string{
	"other", "others", "etc", "misc", "miscellaneous",
	"adjustment", "adjustments", "elimination", "eliminations",
	"intercompany", "internal transaction", "unallocated",
}

// Mapper resolves extracted segments against the taxonomy's alias tables.
type Mapper struct {
	tax *taxonomy.Snapshot
}

// NewMapper returns a mapper over the given taxonomy snapshot.
func NewMapper(tax *taxonomy.Snapshot) *Mapper {
	return &Mapper{tax: tax}
}

// Map aggregates leaf segment revenue into per-sector weights. Subtotal rows
// and neutral labels are excluded from aggregation; every input row appears
// in the audit trail regardless of outcome.
func (m *Mapper) Map(records []model.SegmentRecord) *model.RevenueProfile {
	profile := &model.RevenueProfile{
		SectorPct: make(map[string]float64),
		Mappings:  make([]model.SegmentMapping, 0, len(records)),
	}

	var totalLeaf, mappedLeaf float64
	aliases := m.tax.Aliases()
	for _, rec := range records {
		mapping := model.SegmentMapping{Segment: rec.Name, RevenuePct: rec.RevenuePct}
		if rec.IsSubtotal || isNeutral(rec.Name) {
			profile.Mappings = append(profile.Mappings, mapping)
			continue
		}
		totalLeaf += rec.RevenuePct

		code, alias, exact := m.resolve(rec, aliases)
		if code != "" {
			mapping.SectorCode = code
			mapping.MatchedAlias = alias
			mapping.Exact = exact
			profile.SectorPct[code] += rec.RevenuePct
			mappedLeaf += rec.RevenuePct
		} else {
			zap.L().Debug("unmapped segment", zap.String("segment", rec.Name))
		}
		profile.Mappings = append(profile.Mappings, mapping)
	}

	if totalLeaf > 0 {
		profile.Coverage = mappedLeaf / totalLeaf
	}
	return profile
}

// resolve tries the exact alias table first, then longest-alias substring
// matching. Composite parent::child keys resolve on the child label before
// falling back to the parent.
func (m *Mapper) resolve(rec model.SegmentRecord, aliases []string) (code, alias string, exact bool) {
	keys := candidateKeys(rec)

	for _, key := range keys {
		if c := m.tax.AliasSector(key); c != "" {
			return c, key, true
		}
	}
	for _, key := range keys {
		for _, a := range aliases {
			// Two-letter aliases are exact-match only; as substrings they
			// collide with ordinary words.
			if len(a) < 3 {
				continue
			}
			if strings.Contains(key, a) {
				return m.tax.AliasSector(a), a, false
			}
		}
	}
	return "", "", false
}

func candidateKeys(rec model.SegmentRecord) []string {
	name := canonical(rec.Name)
	if parent, child, found := strings.Cut(name, "::"); found {
		return []string{strings.TrimSpace(child), strings.TrimSpace(parent)}
	}
	return []string{name}
}

func isNeutral(name string) bool {
	n := canonical(name)
	if _, child, found := strings.Cut(n, "::"); found {
		n = strings.TrimSpace(child)
	}
	for _, t := range neutralTerms {
		if n == t || strings.HasPrefix(n, t+" ") {
			return true
		}
	}
	return false
}
