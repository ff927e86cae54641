package classify

import (
	"strings"

	"github.com/sells-group/sector-engine/internal/taxonomy"
)

// Value-chain positions.
const (
	ChainUpstream   = "UPSTREAM"
	ChainMidstream  = "MIDSTREAM"
	ChainDownstream = "DOWNSTREAM"
)

// subSectorFor picks the sub-sector under sec whose keyword table matches
// the company text most often. No hits means no sub-sector.
func subSectorFor(sec *taxonomy.Sector, text string) string {
	if sec == nil {
		return ""
	}
	best, bestHits := "", 0
	for _, sub := range sec.SubSectors {
		hits := 0
		for _, kw := range sub.Keywords {
			if strings.Contains(text, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = sub.Code, hits
		}
	}
	return best
}

// valueChainFor classifies the company's position in its sector's chain by
// keyword count, and resolves the sector's detail label for that position.
func valueChainFor(tax *taxonomy.Snapshot, sectorCode, text string) (chain, detail string) {
	counts := map[string]int{
		ChainUpstream:   countHits(text, tax.ValueChain.Upstream),
		ChainMidstream:  countHits(text, tax.ValueChain.Midstream),
		ChainDownstream: countHits(text, tax.ValueChain.Downstream),
	}
	best, bestHits := "", 0
	for _, pos := range []string{ChainUpstream, ChainMidstream, ChainDownstream} {
		if counts[pos] > bestHits {
			best, bestHits = pos, counts[pos]
		}
	}
	if best == "" {
		return "", ""
	}
	if sec := tax.Sector(sectorCode); sec != nil {
		detail = sec.ChainDetail[best]
	}
	return best, detail
}

func countHits(text string, terms []string) int {
	n := 0
	for _, t := range terms {
		if strings.Contains(text, t) {
			n++
		}
	}
	return n
}
