package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/sector-engine/internal/model"
)

var priorsInput string

var priorsCmd = &cobra.Command{
	Use:   "priors",
	Short: "Bulk-load exchange industry priors into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		priors, err := readPriorFile(priorsInput)
		if err != nil {
			return err
		}
		if err := st.SavePriors(ctx, priors); err != nil {
			return err
		}

		zap.L().Info("priors loaded", zap.Int("tickers", len(priors)))
		return nil
	},
}

func init() {
	priorsCmd.Flags().StringVar(&priorsInput, "input", "", "priors YAML file (required)")
	_ = priorsCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(priorsCmd)
}

// readPriorFile parses a ticker to prior mapping:
//
//	priors:
//	  "005930": {sector: SEC_SEMI, subsector: MEMORY}
func readPriorFile(path string) (map[string]model.IndustryPrior, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read prior file %s", path)
	}

	var file struct {
		Priors map[string]model.IndustryPrior `yaml:"priors"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, eris.Wrapf(err, "parse prior file %s", path)
	}
	if len(file.Priors) == 0 {
		return nil, eris.Errorf("prior file %s lists no tickers", path)
	}
	return file.Priors, nil
}
