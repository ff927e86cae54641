package main

import (
	"context"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	batchInput  string
	batchLimit  int
	batchDryRun bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Classify a universe of companies concurrently",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		entries, err := readCompanyFile(batchInput)
		if err != nil {
			return err
		}

		return processBatch(ctx, env, entries, batchLimit, cfg.Batch.MaxConcurrent)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "company universe YAML file (required)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of companies to process (0 = all)")
	batchCmd.Flags().BoolVar(&batchDryRun, "dry-run", false, "classify without writing to the store")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}

// processBatch applies limit, then classifies companies concurrently. A
// run id ties the batch together; per-company failures are logged and
// counted, never abort the batch.
func processBatch(ctx context.Context, env *engineEnv, entries []companyEntry, limit, concurrency int) error {
	if len(entries) == 0 {
		zap.L().Info("no companies to classify")
		return nil
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	runID := uuid.NewString()

	zap.L().Info("processing batch",
		zap.String("run_id", runID),
		zap.Int("companies", len(entries)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var stored, failed, fallbacks atomic.Int64

	for _, entry := range entries {
		g.Go(func() error {
			log := zap.L().With(zap.String("ticker", entry.Company.Ticker))

			in, err := buildInput(gctx, env, entry, runID)
			if err != nil {
				failed.Add(1)
				log.Error("input assembly failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			res := env.Classifier.Classify(gctx, in)
			if res.FallbackUsed {
				fallbacks.Add(1)
			}

			if batchDryRun {
				stored.Add(1)
				return nil
			}
			if err := env.Store.SaveResult(gctx, res); err != nil {
				failed.Add(1)
				log.Error("store failed", zap.Error(err))
				return nil
			}
			stored.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.String("run_id", runID),
		zap.Int64("stored", stored.Load()),
		zap.Int64("failed", failed.Load()),
		zap.Int64("fallbacks", fallbacks.Load()),
	)
	return nil
}
