package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/sector-engine/internal/classify"
	"github.com/sells-group/sector-engine/internal/segment"
)

var (
	classifyInput  string
	classifyFiling string
	classifyDryRun bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify a single company and store the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		entries, err := readCompanyFile(classifyInput)
		if err != nil {
			return err
		}
		if len(entries) != 1 {
			return eris.Errorf("classify expects exactly one company, got %d (use batch)", len(entries))
		}
		entry := entries[0]
		if classifyFiling != "" {
			entry.Filing = classifyFiling
		}

		in, err := buildInput(ctx, env, entry, uuid.NewString())
		if err != nil {
			return err
		}

		res := env.Classifier.Classify(ctx, in)

		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal result")
		}
		fmt.Println(string(out))

		if classifyDryRun {
			zap.L().Info("dry run, result not stored", zap.String("ticker", res.Ticker))
			return nil
		}
		return env.Store.SaveResult(ctx, res)
	},
}

func init() {
	classifyCmd.Flags().StringVar(&classifyInput, "company", "", "company YAML file (required)")
	classifyCmd.Flags().StringVar(&classifyFiling, "filing", "", "xlsx filing with segment tables")
	classifyCmd.Flags().BoolVar(&classifyDryRun, "dry-run", false, "classify without writing to the store")
	_ = classifyCmd.MarkFlagRequired("company")
	rootCmd.AddCommand(classifyCmd)
}

// buildInput assembles the classifier input for one entry: filing tables
// when a workbook is given, and the stored exchange prior unless the entry
// carries its own.
func buildInput(ctx context.Context, env *engineEnv, entry companyEntry, runID string) (classify.Input, error) {
	in := classify.Input{
		Company: entry.Company,
		Graph:   entry.Graph,
		Prior:   entry.Prior,
		RunID:   runID,
	}

	if entry.Filing != "" {
		tables, err := segment.ReadWorkbook(entry.Filing)
		if err != nil {
			return classify.Input{}, err
		}
		in.Tables = tables
	}

	if in.Prior == nil {
		prior, err := env.Store.GetPrior(ctx, entry.Company.Ticker)
		if err != nil {
			zap.L().Warn("prior lookup failed",
				zap.String("ticker", entry.Company.Ticker),
				zap.Error(err),
			)
		} else {
			in.Prior = prior
		}
	}
	return in, nil
}
