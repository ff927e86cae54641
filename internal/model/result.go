package model

import "time"

// Confidence is the trust tier attached to a classification result.
type Confidence string

const (
	ConfidenceHigh    Confidence = "HIGH"
	ConfidenceMedium  Confidence = "MEDIUM"
	ConfidenceLow     Confidence = "LOW"
	ConfidenceVeryLow Confidence = "VERY_LOW"
)

// Method identifies which path produced the final assignment.
type Method string

const (
	MethodRule     Method = "RULE_BASED"
	MethodEnsemble Method = "ENSEMBLE"
	MethodFallback Method = "FALLBACK"
)

// CandidateSource tags where a classification candidate's score came from.
type CandidateSource string

const (
	SourceRule      CandidateSource = "RULE"
	SourceEmbedding CandidateSource = "EMBEDDING"
	SourceRerank    CandidateSource = "RERANK"
	SourceValidator CandidateSource = "VALIDATOR"
	SourcePrior     CandidateSource = "PRIOR"
)

// FallbackType names the rung of the fallback chain that fired.
type FallbackType string

const (
	FallbackRule    FallbackType = "RULE"
	FallbackTop1    FallbackType = "TOP1"
	FallbackPrior   FallbackType = "KRX"
	FallbackUnknown FallbackType = "UNKNOWN"
)

// UnknownSector is the sentinel taxonomy code assigned when every
// classification path fails. It is a valid node in the taxonomy.
const UnknownSector = "SEC_UNKNOWN"

// Candidate is an ephemeral scored sector hypothesis. It exists only for the
// duration of one classification call.
type Candidate struct {
	Sector    string          `json:"sector"`
	SubSector string          `json:"sub_sector,omitempty"`
	Score     float64         `json:"score"`
	Source    CandidateSource `json:"source"`
	Reasoning string          `json:"reasoning,omitempty"`
}

// BoostLog records what the boosting engine did (or why it declined).
// The combined delta of both mechanisms never exceeds the global budget.
type BoostLog struct {
	AnchorApplied bool    `json:"anchor_applied"`
	GraphApplied  bool    `json:"graph_applied"`
	Multiplier    float64 `json:"multiplier"`
	Delta         float64 `json:"delta"`
	Reason        string  `json:"reason,omitempty"`
}

// DualSector is the secondary-sector block stored when the dual-sector
// policy gate fires. RuleVersion is stamped so downstream consumers can tell
// which revision of the policy produced the block.
type DualSector struct {
	Primary      string  `json:"primary"`
	PrimaryPct   float64 `json:"primary_pct"`
	Secondary    string  `json:"secondary"`
	SecondaryPct float64 `json:"secondary_pct"`
	Margin       float64 `json:"margin"`
	Reason       string  `json:"reason"`
	RuleVersion  string  `json:"rule_version"`
	Enabled      bool    `json:"enabled"`
}

// MissingSegmentNote explains a free-text signal that has no matching
// revenue segment. It is emitted instead of fabricating a sector.
type MissingSegmentNote struct {
	Sector           string   `json:"sector"`
	SignalsFound     []string `json:"signals_found"`
	RevenueChecked   []string `json:"revenue_segments_checked"`
	Explanation      string   `json:"explanation"`
	SupplementMethod string   `json:"supplement_method"`
}

// ClassificationResult is the terminal output for one ticker. Exactly one
// result is current per ticker; prior versions are archived for audit.
type ClassificationResult struct {
	ID     string `json:"id"`
	RunID  string `json:"run_id,omitempty"`
	Ticker string `json:"ticker"`

	MajorSector      string `json:"major_sector"`
	SubSector        string `json:"sub_sector,omitempty"`
	SectorL1         string `json:"sector_l1"`
	SectorL2         string `json:"sector_l2,omitempty"`
	ValueChain       string `json:"value_chain,omitempty"`
	ValueChainDetail string `json:"value_chain_detail,omitempty"`

	Confidence Confidence `json:"confidence"`
	Method     Method     `json:"method"`

	RuleScore      float64 `json:"rule_score,omitempty"`
	EmbeddingScore float64 `json:"embedding_score,omitempty"`
	RerankScore    float64 `json:"rerank_score,omitempty"`
	ValidatorScore float64 `json:"validator_score,omitempty"`
	EnsembleScore  float64 `json:"ensemble_score"`

	DualSector     *DualSector         `json:"dual_sector,omitempty"`
	BoostLog       BoostLog            `json:"boosting_log"`
	MissingSegment *MissingSegmentNote `json:"missing_segment,omitempty"`

	CardText  string `json:"card_text"`
	Reasoning string `json:"reasoning,omitempty"`

	FallbackUsed bool         `json:"fallback_used"`
	FallbackType FallbackType `json:"fallback_type,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
