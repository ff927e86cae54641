// Package store persists classification results, their audit history and
// the exchange-sourced industry priors.
package store

import (
	"context"

	"github.com/sells-group/sector-engine/internal/model"
)

// ResultFilter specifies criteria for listing current results.
type ResultFilter struct {
	RunID        string           `json:"run_id,omitempty"`
	Sector       string           `json:"sector,omitempty"`
	Confidence   model.Confidence `json:"confidence,omitempty"`
	Method       model.Method     `json:"method,omitempty"`
	FallbackOnly bool             `json:"fallback_only,omitempty"`
	Limit        int              `json:"limit,omitempty"`
	Offset       int              `json:"offset,omitempty"`
}

// Store defines the persistence interface for the classification engine.
// Exactly one result is current per ticker; SaveResult archives the row it
// replaces in the same transaction.
type Store interface {
	// Results
	SaveResult(ctx context.Context, res *model.ClassificationResult) error
	GetResult(ctx context.Context, ticker string) (*model.ClassificationResult, error)
	ListResults(ctx context.Context, filter ResultFilter) ([]model.ClassificationResult, error)
	History(ctx context.Context, ticker string, limit int) ([]model.ClassificationResult, error)

	// Exchange priors
	SavePriors(ctx context.Context, priors map[string]model.IndustryPrior) error
	GetPrior(ctx context.Context, ticker string) (*model.IndustryPrior, error)
	ListPriors(ctx context.Context) (map[string]model.IndustryPrior, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
