package classify

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sells-group/sector-engine/internal/model"
	"github.com/sells-group/sector-engine/internal/taxonomy"
)

// missingSignalFloor is the minimum keyword weight a single matched term
// needs before a zero-revenue sector is worth a note.
const missingSignalFloor = 2.0

// cardText renders the one-line display summary for a result.
func cardText(tax *taxonomy.Snapshot, primary string, profile *model.RevenueProfile, dual *model.DualSector) string {
	if dual != nil && dual.Enabled {
		return fmt.Sprintf("%s(%s%%) + %s(%s%%) based composite %s·%s company",
			tax.DisplayName(dual.Primary), formatPct(dual.PrimaryPct),
			tax.DisplayName(dual.Secondary), formatPct(dual.SecondaryPct),
			tax.Descriptor(dual.Primary), tax.Descriptor(dual.Secondary),
		)
	}

	primaryPct := 0.0
	var secondary string
	if profile != nil {
		primaryPct = profile.SectorPct[primary]
		for _, code := range profile.TopSectors() {
			if code != primary {
				secondary = code
				break
			}
		}
	}

	if primaryPct <= 0 {
		return fmt.Sprintf("primary: %s", tax.DisplayName(primary))
	}
	if secondary == "" {
		return fmt.Sprintf("primary: %s(%s%%)", tax.DisplayName(primary), formatPct(primaryPct))
	}
	return fmt.Sprintf("primary: %s(%s%%) / secondary: %s(%s%%)",
		tax.DisplayName(primary), formatPct(primaryPct),
		tax.DisplayName(secondary), formatPct(profile.SectorPct[secondary]),
	)
}

// missingSegmentNote looks for a strong free-text sector signal that has no
// mapped revenue behind it. The mismatch becomes a structured note; the
// sector is never fabricated into the result.
func missingSegmentNote(tax *taxonomy.Snapshot, c model.Company, profile *model.RevenueProfile, primary string) *model.MissingSegmentNote {
	if profile == nil || len(profile.Mappings) == 0 {
		return nil
	}
	text := lowerDescription(c)

	checked := make([]string, 0, len(profile.Mappings))
	for _, m := range profile.Mappings {
		checked = append(checked, m.Segment)
	}

	var bestSector string
	var bestWeight float64
	var bestSignals []string
	for i := range tax.Sectors {
		sec := &tax.Sectors[i]
		if sec.Agnostic || sec.Code == primary || profile.SectorPct[sec.Code] > 0 {
			continue
		}
		var weight float64
		var signals []string
		for _, kw := range sec.Keywords {
			if kw.Weight >= missingSignalFloor && strings.Contains(text, kw.Term) {
				weight += kw.Weight
				signals = append(signals, kw.Term)
			}
		}
		if weight > bestWeight {
			bestSector, bestWeight, bestSignals = sec.Code, weight, signals
		}
	}
	if bestSector == "" {
		return nil
	}

	return &model.MissingSegmentNote{
		Sector:       bestSector,
		SignalsFound: bestSignals,
		RevenueChecked: checked,
		Explanation: fmt.Sprintf(
			"company text signals %s but no revenue segment maps to it",
			tax.DisplayName(bestSector),
		),
		SupplementMethod: "note_only",
	}
}

// formatPct renders a revenue percent with one decimal at most.
func formatPct(v float64) string {
	s := strconv.FormatFloat(v, 'f', 1, 64)
	return strings.TrimSuffix(s, ".0")
}
