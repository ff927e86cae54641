package report

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/sector-engine/internal/model"
	"github.com/sells-group/sector-engine/internal/store"
)

// ConfidenceReport aggregates trust and mechanism usage over the current
// result set.
type ConfidenceReport struct {
	Total     int                        `json:"total"`
	Tiers     map[model.Confidence]int   `json:"tiers"`
	Methods   map[model.Method]int       `json:"methods"`
	Fallbacks map[model.FallbackType]int `json:"fallbacks"`
	Sectors   map[string]int             `json:"sectors"`

	BoostApplied int `json:"boost_applied"`
	DualSector   int `json:"dual_sector"`
	MissingNote  int `json:"missing_segment_notes"`
}

// Confidence tallies tier distribution, fallback-type counts and boosting
// usage over the stored results.
func Confidence(ctx context.Context, st store.Store, filter store.ResultFilter) (*ConfidenceReport, error) {
	results, err := st.ListResults(ctx, filter)
	if err != nil {
		return nil, eris.Wrap(err, "report: list results")
	}

	rep := &ConfidenceReport{
		Total:     len(results),
		Tiers:     make(map[model.Confidence]int),
		Methods:   make(map[model.Method]int),
		Fallbacks: make(map[model.FallbackType]int),
		Sectors:   make(map[string]int),
	}
	for i := range results {
		res := &results[i]
		rep.Tiers[res.Confidence]++
		rep.Methods[res.Method]++
		rep.Sectors[res.MajorSector]++
		if res.FallbackUsed {
			rep.Fallbacks[res.FallbackType]++
		}
		if res.BoostLog.AnchorApplied || res.BoostLog.GraphApplied {
			rep.BoostApplied++
		}
		if res.DualSector != nil && res.DualSector.Enabled {
			rep.DualSector++
		}
		if res.MissingSegment != nil {
			rep.MissingNote++
		}
	}
	return rep, nil
}
