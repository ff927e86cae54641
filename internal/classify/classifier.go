package classify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/sector-engine/internal/model"
	"github.com/sells-group/sector-engine/internal/segment"
	"github.com/sells-group/sector-engine/internal/taxonomy"
	"github.com/sells-group/sector-engine/pkg/embedding"
	"github.com/sells-group/sector-engine/pkg/llm"
	"github.com/sells-group/sector-engine/pkg/rerank"
)

// Thresholds are the decision gates of the classification flow.
type Thresholds struct {
	// RuleShortCircuit ends the flow on the rule result alone.
	RuleShortCircuit float64
	// RuleMidBand skips the validator when the rule score reaches it.
	RuleMidBand float64
	// RuleInject merges the rule result into the candidate list.
	RuleInject float64
	// PriorBonus is added to the rule score when the external industry
	// prior agrees with it.
	PriorBonus float64
	// PriorInjectScore is the score a disagreeing prior enters the
	// candidate list with.
	PriorInjectScore float64
	// DiversifiedSectors is the mapped-sector count at which a company
	// counts as diversified for the weight policy.
	DiversifiedSectors int
}

// DefaultThresholds returns the standard gates.
func DefaultThresholds() Thresholds {
	return Thresholds{
		RuleShortCircuit:   0.90,
		RuleMidBand:        0.70,
		RuleInject:         0.40,
		PriorBonus:         0.10,
		PriorInjectScore:   0.30,
		DiversifiedSectors: 3,
	}
}

// Config assembles a classifier. Taxonomy is required; the capability
// clients are optional and the flow degrades without them. Zero-value
// policies are replaced by their defaults.
type Config struct {
	Taxonomy  *taxonomy.Snapshot
	Embedder  embedding.Client
	Reranker  rerank.Client
	Validator llm.Client

	Thresholds Thresholds
	Weights    WeightPolicy
	Dual       DualPolicy
	Boost      BoostParams
}

// Classifier runs the full decision flow for one company at a time. It is
// safe for concurrent use; per-call state stays on the stack.
type Classifier struct {
	tax       *taxonomy.Snapshot
	extractor *segment.Extractor
	mapper    *segment.Mapper
	rule      *RuleClassifier
	embed     *EmbedClassifier
	rerank    *Reranker
	validator *Validator
	booster   *Booster

	thresholds Thresholds
	weights    WeightPolicy
	dual       DualPolicy
}

// New builds a classifier from cfg.
func New(cfg Config) *Classifier {
	if cfg.Thresholds == (Thresholds{}) {
		cfg.Thresholds = DefaultThresholds()
	}
	if cfg.Weights.Base == (Weights{}) {
		cfg.Weights = DefaultWeightPolicy()
	}
	if cfg.Dual == (DualPolicy{}) {
		cfg.Dual = DefaultDualPolicy()
	}
	if cfg.Boost.Budget == 0 {
		cfg.Boost = DefaultBoostParams()
	}

	c := &Classifier{
		tax:        cfg.Taxonomy,
		extractor:  segment.NewExtractor(),
		mapper:     segment.NewMapper(cfg.Taxonomy),
		rule:       NewRuleClassifier(cfg.Taxonomy),
		booster:    NewBooster(cfg.Taxonomy, cfg.Boost),
		thresholds: cfg.Thresholds,
		weights:    cfg.Weights,
		dual:       cfg.Dual,
	}
	if cfg.Embedder != nil {
		c.embed = NewEmbedClassifier(cfg.Embedder, cfg.Taxonomy)
	}
	if cfg.Reranker != nil {
		c.rerank = NewReranker(cfg.Reranker, cfg.Taxonomy)
	}
	if cfg.Validator != nil {
		c.validator = NewValidator(cfg.Validator, cfg.Taxonomy)
	}
	return c
}

// Input is everything known about one company at classification time.
type Input struct {
	Company model.Company
	// Tables are raw filing tables; Segments overrides them when the
	// extraction already happened upstream.
	Tables   []segment.Table
	Segments []model.SegmentRecord
	Prior    *model.IndustryPrior
	Graph    *model.GraphSnapshot
	RunID    string
}

// Classify runs the decision flow. It always returns a result: capability
// failures degrade the flow and the fallback chain guarantees an
// assignment.
func (c *Classifier) Classify(ctx context.Context, in Input) *model.ClassificationResult {
	started := time.Now()
	res := &model.ClassificationResult{
		ID:        uuid.NewString(),
		RunID:     in.RunID,
		Ticker:    in.Company.Ticker,
		CreatedAt: time.Now().UTC(),
	}

	records := in.Segments
	if len(records) == 0 && len(in.Tables) > 0 {
		records = c.extractor.Extract(in.Tables)
	}
	var profile *model.RevenueProfile
	if len(records) > 0 {
		profile = c.mapper.Map(records)
	}

	rule := c.rule.Score(in.Company)
	priorAgrees := c.applyPriorBonus(&rule, in.Prior)
	res.RuleScore = rule.Score

	if rule.Sector != "" && rule.Score >= c.thresholds.RuleShortCircuit {
		res.Method = model.MethodRule
		res.Confidence = model.ConfidenceHigh
		res.EnsembleScore = rule.Score
		res.BoostLog = model.BoostLog{Multiplier: 1, Reason: "rule_short_circuit"}
		res.Reasoning = "rule keywords: " + strings.Join(rule.Matched, ", ")
		c.finalize(res, rule.Sector, in.Company, profile)
		c.logResult(res, started)
		return res
	}

	cands := c.embedCandidates(ctx, in.Company)
	if len(cands) > 0 {
		res.EmbeddingScore = cands[0].Score
	}
	cands = c.injectRule(cands, rule)
	cands = c.injectPrior(cands, in.Prior, priorAgrees)
	sortCandidates(cands)

	cands, res.BoostLog = c.booster.Apply(in.Company, in.Graph, cands)
	preRerank := len(cands)

	short := cands
	if c.rerank != nil && len(cands) > rerankKeep {
		short = c.rerank.Refine(ctx, in.Company, cands)
		if len(short) > 0 && short[0].Source == model.SourceRerank {
			res.RerankScore = short[0].Score
		}
	}

	if len(short) == 0 {
		fb := resolveFallback(c.tax, rule, nil, in.Prior)
		res.Method = model.MethodFallback
		res.Confidence = fb.Confidence
		res.EnsembleScore = fb.Score
		res.FallbackUsed = true
		res.FallbackType = fb.Type
		res.Reasoning = "fallback: no candidates survived"
		c.finalize(res, fb.Sector, in.Company, profile)
		c.logResult(res, started)
		return res
	}

	validatorScores := c.validate(ctx, in.Company, rule, short, profile)

	diversified := profile != nil && len(profile.SectorPct) >= c.thresholds.DiversifiedSectors
	w := c.weights.Resolve(rule.Band(), diversified, preRerank, len(validatorScores) > 0)

	scores := sectorScores{
		Rule:      map[string]float64{},
		Embedding: map[string]float64{},
		Validator: validatorScores,
	}
	allowed := map[string]bool{}
	for _, cand := range short {
		allowed[cand.Sector] = true
	}
	if rule.Sector != "" {
		allowed[rule.Sector] = true
		scores.Rule[rule.Sector] = rule.Score
	}
	for sec := range validatorScores {
		allowed[sec] = true
	}
	// The embedding channel reads post-boost candidate scores, so boost
	// deltas carry into the ensemble. Rule- and prior-sourced candidates
	// stay out: their mass arrives through their own channels.
	for _, cand := range cands {
		if cand.Source == model.SourceEmbedding && allowed[cand.Sector] {
			scores.Embedding[cand.Sector] = cand.Score
		}
	}

	ranked := combine(w, scores)
	if len(ranked) == 0 || ranked[0].Score == 0 ||
		(len(scores.Embedding) == 0 && len(scores.Validator) == 0) {
		// Rule-only mass is not an ensemble. With embedding and validator
		// both silent (or a lone injected prior no channel backs), the
		// chain resolves the best available rung instead.
		fb := resolveFallback(c.tax, rule, short, in.Prior)
		res.Method = model.MethodFallback
		res.Confidence = fb.Confidence
		res.EnsembleScore = fb.Score
		res.FallbackUsed = true
		res.FallbackType = fb.Type
		res.Reasoning = "fallback: ensemble had no weighted signal"
		c.finalize(res, fb.Sector, in.Company, profile)
		c.logResult(res, started)
		return res
	}
	top := ranked[0]
	res.Method = model.MethodEnsemble
	res.EnsembleScore = top.Score
	res.ValidatorScore = validatorScores[top.Sector]
	res.Confidence = confidenceFor(top.Score)
	res.Reasoning = fmt.Sprintf(
		"ensemble rule=%.2f embed=%.2f validator=%.2f over %d candidates",
		w.Rule, w.Embedding, w.Validator, preRerank,
	)
	c.finalize(res, top.Sector, in.Company, profile)
	c.logResult(res, started)
	return res
}

// applyPriorBonus rewards rule/prior agreement and reports whether the
// prior already supports the rule sector.
func (c *Classifier) applyPriorBonus(rule *RuleResult, prior *model.IndustryPrior) bool {
	if prior == nil || prior.Sector == "" || !c.tax.Valid(prior.Sector) {
		return false
	}
	if rule.Sector != prior.Sector {
		return false
	}
	rule.Score = min(1, rule.Score+c.thresholds.PriorBonus)
	return true
}

func (c *Classifier) embedCandidates(ctx context.Context, company model.Company) []model.Candidate {
	if c.embed == nil {
		return nil
	}
	cands, err := c.embed.Candidates(ctx, company)
	if err != nil {
		zap.L().Warn("embedding unavailable",
			zap.String("ticker", company.Ticker),
			zap.Error(err),
		)
		return nil
	}
	return cands
}

// injectRule merges a sufficiently confident rule result into the
// candidate list, averaging with an existing entry for the same sector.
func (c *Classifier) injectRule(cands []model.Candidate, rule RuleResult) []model.Candidate {
	if rule.Sector == "" || rule.Score < c.thresholds.RuleInject {
		return cands
	}
	for i := range cands {
		if cands[i].Sector == rule.Sector {
			cands[i].Score = (cands[i].Score + rule.Score) / 2
			return cands
		}
	}
	return append(cands, model.Candidate{
		Sector: rule.Sector,
		Score:  rule.Score,
		Source: model.SourceRule,
	})
}

// injectPrior adds a disagreeing external prior as a low-trust candidate.
func (c *Classifier) injectPrior(cands []model.Candidate, prior *model.IndustryPrior, agrees bool) []model.Candidate {
	if prior == nil || agrees || prior.Sector == "" || !c.tax.Valid(prior.Sector) {
		return cands
	}
	for _, cand := range cands {
		if cand.Sector == prior.Sector {
			return cands
		}
	}
	return append(cands, model.Candidate{
		Sector:    prior.Sector,
		SubSector: prior.SubSector,
		Score:     c.thresholds.PriorInjectScore,
		Source:    model.SourcePrior,
	})
}

// validate runs the LLM reviewer below the mid band. Failures are logged
// and surface as an empty map, which shifts validator mass to the other
// signals.
func (c *Classifier) validate(ctx context.Context, company model.Company, rule RuleResult, short []model.Candidate, profile *model.RevenueProfile) map[string]float64 {
	if c.validator == nil || rule.Score >= c.thresholds.RuleMidBand {
		return nil
	}
	verdict, err := c.validator.Validate(ctx, company, short, profile)
	if err != nil {
		zap.L().Warn("validator unavailable",
			zap.String("ticker", company.Ticker),
			zap.Error(err),
		)
		return nil
	}
	out := make(map[string]float64, len(verdict))
	for _, v := range verdict {
		out[v.Sector] = v.Score
	}
	return out
}

// finalize fills the sector-dependent output fields shared by every path.
func (c *Classifier) finalize(res *model.ClassificationResult, sector string, company model.Company, profile *model.RevenueProfile) {
	text := lowerDescription(company)

	res.MajorSector = sector
	res.SectorL1 = sector
	res.SubSector = subSectorFor(c.tax.Sector(sector), text)
	res.SectorL2 = res.SubSector
	res.ValueChain, res.ValueChainDetail = valueChainFor(c.tax, sector, text)

	res.DualSector = c.dual.Evaluate(profile)
	res.MissingSegment = missingSegmentNote(c.tax, company, profile, sector)
	res.CardText = cardText(c.tax, sector, profile, res.DualSector)
}

func (c *Classifier) logResult(res *model.ClassificationResult, started time.Time) {
	zap.L().Info("classified",
		zap.String("ticker", res.Ticker),
		zap.String("sector", res.MajorSector),
		zap.String("method", string(res.Method)),
		zap.String("confidence", string(res.Confidence)),
		zap.Float64("score", res.EnsembleScore),
		zap.Bool("fallback", res.FallbackUsed),
		zap.Duration("took", time.Since(started)),
	)
}

func sortCandidates(cands []model.Candidate) {
	for i := 1; i < len(cands); i++ {
		for j := i; j > 0 && cands[j].Score > cands[j-1].Score; j-- {
			cands[j], cands[j-1] = cands[j-1], cands[j]
		}
	}
}
