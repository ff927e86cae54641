package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/sector-engine/internal/classify"
	"github.com/sells-group/sector-engine/internal/model"
	"github.com/sells-group/sector-engine/internal/store"
	"github.com/sells-group/sector-engine/internal/taxonomy"
	"github.com/sells-group/sector-engine/pkg/embedding"
	"github.com/sells-group/sector-engine/pkg/llm"
	"github.com/sells-group/sector-engine/pkg/rerank"
)

// engineEnv bundles the store and the assembled classifier. Callers should
// defer env.Close().
type engineEnv struct {
	Store      store.Store
	Taxonomy   *taxonomy.Snapshot
	Classifier *classify.Classifier
}

func (e *engineEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initStore opens the configured database backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initEngine sets up the store, the taxonomy and the capability clients,
// then assembles the classifier. Missing API keys degrade the flow rather
// than failing it.
func initEngine(ctx context.Context) (*engineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	tax := taxonomy.Default()
	if cfg.Taxonomy.Path != "" {
		tax, err = taxonomy.Load(cfg.Taxonomy.Path)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
	}

	ccfg := classify.Config{
		Taxonomy: tax,
		Thresholds: classify.Thresholds{
			RuleShortCircuit:   cfg.Thresholds.RuleShortCircuit,
			RuleMidBand:        cfg.Thresholds.RuleMidBand,
			RuleInject:         cfg.Thresholds.RuleInject,
			PriorBonus:         cfg.Thresholds.PriorBonus,
			PriorInjectScore:   cfg.Thresholds.PriorInjectScore,
			DiversifiedSectors: cfg.Thresholds.DiversifiedSectors,
		},
		Dual: classify.DualPolicy{
			MarginMax:    cfg.Dual.MarginMax,
			SecondaryMin: cfg.Dual.SecondaryMin,
			RuleVersion:  cfg.Dual.RuleVersion,
		},
	}
	ccfg.Boost = classify.DefaultBoostParams()
	ccfg.Boost.Budget = cfg.Boost.Budget
	ccfg.Boost.GapGate = cfg.Boost.GapGate
	ccfg.Boost.AnchorBase = cfg.Boost.AnchorBase
	ccfg.Boost.GraphBase = cfg.Boost.GraphBase
	ccfg.Boost.StrengthCap = cfg.Boost.StrengthCap

	if cfg.Embedding.Key != "" {
		ccfg.Embedder = embedding.NewClient(cfg.Embedding.Key,
			embedding.WithBaseURL(cfg.Embedding.BaseURL),
			embedding.WithModel(cfg.Embedding.Model),
			embedding.WithRateLimit(cfg.Embedding.RPS, 1),
		)
	} else {
		zap.L().Warn("SECTOR_EMBEDDING_KEY not set, embedding channel disabled")
	}
	if cfg.Rerank.Key != "" {
		ccfg.Reranker = rerank.NewClient(cfg.Rerank.Key,
			rerank.WithBaseURL(cfg.Rerank.BaseURL),
			rerank.WithModel(cfg.Rerank.Model),
		)
	}
	if cfg.Anthropic.Key != "" {
		ccfg.Validator = llm.NewClient(cfg.Anthropic.Key, llm.WithModel(cfg.Anthropic.Model))
	} else {
		zap.L().Warn("SECTOR_ANTHROPIC_KEY not set, validator disabled")
	}

	return &engineEnv{
		Store:      st,
		Taxonomy:   tax,
		Classifier: classify.New(ccfg),
	}, nil
}

// companyFile is the YAML input shape for classify and batch.
type companyFile struct {
	Companies []companyEntry `yaml:"companies"`
}

type companyEntry struct {
	Company model.Company        `yaml:",inline"`
	Filing  string               `yaml:"filing,omitempty"`
	Graph   *model.GraphSnapshot `yaml:"graph,omitempty"`
	Prior   *model.IndustryPrior `yaml:"prior,omitempty"`
}

func readCompanyFile(path string) ([]companyEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read company file %s", path)
	}

	var file companyFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, eris.Wrapf(err, "parse company file %s", path)
	}
	if len(file.Companies) == 0 {
		// Allow a single bare company document too.
		var entry companyEntry
		if err := yaml.Unmarshal(raw, &entry); err != nil || entry.Company.Ticker == "" {
			return nil, eris.Errorf("company file %s lists no companies", path)
		}
		return []companyEntry{entry}, nil
	}
	return file.Companies, nil
}
