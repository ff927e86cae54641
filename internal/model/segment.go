package model

// SegmentRecord is one business-segment row extracted from a filing table.
// Records are produced fresh per filing ingestion and superseded as a set,
// never mutated in place.
type SegmentRecord struct {
	// Name is the segment label. Sub-items carry a "parent::child" composite
	// key so the hierarchy survives flattening.
	Name       string  `json:"name"`
	ParentName string  `json:"parent_name,omitempty"`
	RevenuePct float64 `json:"revenue_pct"`
	IsSubtotal bool    `json:"is_subtotal"`
}

// SegmentMapping records how one segment resolved against the taxonomy.
// Unmapped segments keep an empty SectorCode and stay in the audit trail.
type SegmentMapping struct {
	Segment      string  `json:"segment"`
	SectorCode   string  `json:"sector_code,omitempty"`
	RevenuePct   float64 `json:"revenue_pct"`
	MatchedAlias string  `json:"matched_alias,omitempty"`
	Exact        bool    `json:"exact"`
}

// RevenueProfile is the aggregate output of segment-to-sector mapping:
// per-sector revenue weight plus the mapping audit trail.
type RevenueProfile struct {
	// SectorPct maps taxonomy sector codes to summed leaf revenue percent.
	SectorPct map[string]float64 `json:"sector_pct"`
	// Coverage is mapped revenue divided by total leaf revenue, in [0,1].
	Coverage float64          `json:"coverage"`
	Mappings []SegmentMapping `json:"mappings,omitempty"`
}

// TopSectors returns the sector codes ordered by descending revenue weight.
func (p *RevenueProfile) TopSectors() []string {
	if p == nil || len(p.SectorPct) == 0 {
		return nil
	}
	codes := make([]string, 0, len(p.SectorPct))
	for code := range p.SectorPct {
		codes = append(codes, code)
	}
	// Deterministic order: weight descending, code ascending on ties.
	for i := 1; i < len(codes); i++ {
		for j := i; j > 0; j-- {
			a, b := codes[j], codes[j-1]
			if p.SectorPct[a] > p.SectorPct[b] ||
				(p.SectorPct[a] == p.SectorPct[b] && a < b) {
				codes[j], codes[j-1] = codes[j-1], codes[j]
			} else {
				break
			}
		}
	}
	return codes
}
