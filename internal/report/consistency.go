// Package report runs downstream audits over stored classification
// results.
package report

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/sector-engine/internal/classify"
	"github.com/sells-group/sector-engine/internal/model"
	"github.com/sells-group/sector-engine/internal/store"
	"github.com/sells-group/sector-engine/internal/taxonomy"
)

// Issue kinds found by the consistency audit.
const (
	IssuePriorDisagreement = "prior_disagreement"
	IssueSubSectorOrphan   = "subsector_orphan"
	IssueDualViolation     = "dual_policy_violation"
)

// ConsistencyIssue flags one stored result that fails an audit predicate.
type ConsistencyIssue struct {
	Ticker string `json:"ticker"`
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// ConsistencyReport summarizes one audit pass.
type ConsistencyReport struct {
	Checked int                `json:"checked"`
	Issues  []ConsistencyIssue `json:"issues"`
}

// Consistency audits current results against the stored exchange priors,
// the taxonomy hierarchy and the dual-sector policy predicate.
func Consistency(ctx context.Context, st store.Store, tax *taxonomy.Snapshot, dual classify.DualPolicy, filter store.ResultFilter) (*ConsistencyReport, error) {
	results, err := st.ListResults(ctx, filter)
	if err != nil {
		return nil, eris.Wrap(err, "report: list results")
	}
	priors, err := st.ListPriors(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "report: list priors")
	}

	rep := &ConsistencyReport{Checked: len(results)}
	for i := range results {
		res := &results[i]
		if prior, ok := priors[res.Ticker]; ok && prior.Sector != "" && prior.Sector != res.MajorSector {
			rep.Issues = append(rep.Issues, ConsistencyIssue{
				Ticker: res.Ticker,
				Kind:   IssuePriorDisagreement,
				Detail: "assigned " + res.MajorSector + ", exchange prior " + prior.Sector,
			})
		}
		if res.SubSector != "" && !subSectorUnder(tax, res.MajorSector, res.SubSector) {
			rep.Issues = append(rep.Issues, ConsistencyIssue{
				Ticker: res.Ticker,
				Kind:   IssueSubSectorOrphan,
				Detail: "sub-sector " + res.SubSector + " not under " + res.MajorSector,
			})
		}
		if issue := dualViolation(res.DualSector, dual); issue != "" {
			rep.Issues = append(rep.Issues, ConsistencyIssue{
				Ticker: res.Ticker,
				Kind:   IssueDualViolation,
				Detail: issue,
			})
		}
	}
	return rep, nil
}

func subSectorUnder(tax *taxonomy.Snapshot, major, sub string) bool {
	sec := tax.Sector(major)
	if sec == nil {
		return false
	}
	for _, ss := range sec.SubSectors {
		if ss.Code == sub {
			return true
		}
	}
	return false
}

// dualViolation re-evaluates the policy predicate against the stored
// block. A block that neither gate would admit today is stale.
func dualViolation(d *model.DualSector, policy classify.DualPolicy) string {
	if d == nil || !d.Enabled {
		return ""
	}
	margin := (d.PrimaryPct - d.SecondaryPct) / 100
	if margin <= policy.MarginMax {
		return ""
	}
	if d.SecondaryPct/100 >= policy.SecondaryMin {
		return ""
	}
	return "dual block fails both policy gates (reason " + d.Reason + ", rule " + d.RuleVersion + ")"
}
