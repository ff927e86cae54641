package classify

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/sector-engine/internal/model"
	"github.com/sells-group/sector-engine/internal/taxonomy"
	"github.com/sells-group/sector-engine/pkg/rerank"
)

const rerankKeep = 2

// Reranker narrows the embedding shortlist with a cross-encoder. Rerank is
// best-effort: any failure falls back to the incoming order.
type Reranker struct {
	client rerank.Client
	tax    *taxonomy.Snapshot
}

// NewReranker returns a reranker over the snapshot.
func NewReranker(client rerank.Client, tax *taxonomy.Snapshot) *Reranker {
	return &Reranker{client: client, tax: tax}
}

// Refine reorders candidates by pairwise relevance against the company text
// and keeps the top two. The returned candidates carry the cross-encoder
// score with source RERANK.
func (r *Reranker) Refine(ctx context.Context, c model.Company, cands []model.Candidate) []model.Candidate {
	if len(cands) <= rerankKeep {
		return cands
	}

	docs := make([]string, len(cands))
	for i, cand := range cands {
		sec := r.tax.Sector(cand.Sector)
		if sec == nil {
			docs[i] = cand.Sector
			continue
		}
		docs[i] = sec.Name + ": " + sec.Description
	}

	resp, err := r.client.Rerank(ctx, rerank.Request{
		Query:     companyText(c),
		Documents: docs,
		TopN:      rerankKeep,
	})
	if err != nil || len(resp.Results) == 0 {
		zap.L().Warn("rerank unavailable, keeping embedding order",
			zap.String("ticker", c.Ticker),
			zap.Error(err),
		)
		return cands[:rerankKeep]
	}

	out := make([]model.Candidate, 0, rerankKeep)
	for _, res := range resp.Results {
		if res.Index < 0 || res.Index >= len(cands) {
			continue
		}
		cand := cands[res.Index]
		cand.Score = res.RelevanceScore
		cand.Source = model.SourceRerank
		out = append(out, cand)
		if len(out) == rerankKeep {
			break
		}
	}
	if len(out) == 0 {
		return cands[:rerankKeep]
	}
	return out
}
