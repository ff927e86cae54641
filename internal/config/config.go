package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Taxonomy   TaxonomyConfig   `yaml:"taxonomy" mapstructure:"taxonomy"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Embedding  EmbeddingConfig  `yaml:"embedding" mapstructure:"embedding"`
	Rerank     RerankConfig     `yaml:"rerank" mapstructure:"rerank"`
	Thresholds ThresholdConfig  `yaml:"thresholds" mapstructure:"thresholds"`
	Dual       DualConfig       `yaml:"dual" mapstructure:"dual"`
	Boost      BoostConfig      `yaml:"boost" mapstructure:"boost"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// TaxonomyConfig points at the sector dictionary. An empty path uses the
// embedded default.
type TaxonomyConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// AnthropicConfig holds the validator LLM settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// EmbeddingConfig holds the embedding API settings.
type EmbeddingConfig struct {
	Key     string  `yaml:"key" mapstructure:"key"`
	BaseURL string  `yaml:"base_url" mapstructure:"base_url"`
	Model   string  `yaml:"model" mapstructure:"model"`
	RPS     float64 `yaml:"rps" mapstructure:"rps"`
}

// RerankConfig holds the rerank API settings.
type RerankConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// ThresholdConfig mirrors the decision gates of the classification flow.
type ThresholdConfig struct {
	RuleShortCircuit   float64 `yaml:"rule_short_circuit" mapstructure:"rule_short_circuit"`
	RuleMidBand        float64 `yaml:"rule_mid_band" mapstructure:"rule_mid_band"`
	RuleInject         float64 `yaml:"rule_inject" mapstructure:"rule_inject"`
	PriorBonus         float64 `yaml:"prior_bonus" mapstructure:"prior_bonus"`
	PriorInjectScore   float64 `yaml:"prior_inject_score" mapstructure:"prior_inject_score"`
	DiversifiedSectors int     `yaml:"diversified_sectors" mapstructure:"diversified_sectors"`
}

// DualConfig holds the dual-sector policy parameters.
type DualConfig struct {
	MarginMax    float64 `yaml:"margin_max" mapstructure:"margin_max"`
	SecondaryMin float64 `yaml:"secondary_min" mapstructure:"secondary_min"`
	RuleVersion  string  `yaml:"rule_version" mapstructure:"rule_version"`
}

// BoostConfig holds the relationship-boosting parameters.
type BoostConfig struct {
	Budget      float64 `yaml:"budget" mapstructure:"budget"`
	GapGate     float64 `yaml:"gap_gate" mapstructure:"gap_gate"`
	AnchorBase  float64 `yaml:"anchor_base" mapstructure:"anchor_base"`
	GraphBase   float64 `yaml:"graph_base" mapstructure:"graph_base"`
	StrengthCap float64 `yaml:"strength_cap" mapstructure:"strength_cap"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "sector.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("batch.max_concurrent", 5)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("embedding.base_url", "https://api.upstage.ai/v1/solar")
	v.SetDefault("embedding.model", "embedding-query")
	v.SetDefault("embedding.rps", 5)
	v.SetDefault("rerank.base_url", "https://api.cohere.com")
	v.SetDefault("rerank.model", "rerank-v3.5")
	v.SetDefault("thresholds.rule_short_circuit", 0.90)
	v.SetDefault("thresholds.rule_mid_band", 0.70)
	v.SetDefault("thresholds.rule_inject", 0.40)
	v.SetDefault("thresholds.prior_bonus", 0.10)
	v.SetDefault("thresholds.prior_inject_score", 0.30)
	v.SetDefault("thresholds.diversified_sectors", 3)
	v.SetDefault("dual.margin_max", 0.05)
	v.SetDefault("dual.secondary_min", 0.30)
	v.SetDefault("dual.rule_version", "v1.0")
	v.SetDefault("boost.budget", 0.05)
	v.SetDefault("boost.gap_gate", 0.03)
	v.SetDefault("boost.anchor_base", 0.03)
	v.SetDefault("boost.graph_base", 0.02)
	v.SetDefault("boost.strength_cap", 5)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
