package main

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/sector-engine/internal/classify"
	"github.com/sells-group/sector-engine/internal/report"
	"github.com/sells-group/sector-engine/internal/store"
)

var reportRunID string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Audit stored classification results",
}

var reportConsistencyCmd = &cobra.Command{
	Use:   "consistency",
	Short: "Flag results that disagree with priors, taxonomy or the dual policy",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		dual := classify.DualPolicy{
			MarginMax:    cfg.Dual.MarginMax,
			SecondaryMin: cfg.Dual.SecondaryMin,
			RuleVersion:  cfg.Dual.RuleVersion,
		}
		rep, err := report.Consistency(ctx, env.Store, env.Taxonomy, dual, store.ResultFilter{RunID: reportRunID})
		if err != nil {
			return err
		}
		return printJSON(rep)
	},
}

var reportConfidenceCmd = &cobra.Command{
	Use:   "confidence",
	Short: "Tier distribution, fallback counts and boosting usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		rep, err := report.Confidence(ctx, env.Store, store.ResultFilter{RunID: reportRunID})
		if err != nil {
			return err
		}
		return printJSON(rep)
	},
}

func init() {
	reportCmd.PersistentFlags().StringVar(&reportRunID, "run", "", "restrict to one batch run id")
	reportCmd.AddCommand(reportConsistencyCmd)
	reportCmd.AddCommand(reportConfidenceCmd)
	rootCmd.AddCommand(reportCmd)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal report")
	}
	fmt.Println(string(out))
	return nil
}
