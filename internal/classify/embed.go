package classify

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/sector-engine/internal/model"
	"github.com/sells-group/sector-engine/internal/resilience"
	"github.com/sells-group/sector-engine/internal/taxonomy"
	"github.com/sells-group/sector-engine/pkg/embedding"
)

const (
	embedMinScore = 0.30
	embedTopK     = 5
)

// EmbedClassifier scores a company against per-sector reference vectors by
// cosine similarity. Reference vectors are embedded lazily once per process
// and shared across workers.
type EmbedClassifier struct {
	client embedding.Client
	tax    *taxonomy.Snapshot
	retry  resilience.Policy

	mu   sync.Mutex
	refs map[string][]float32
}

// NewEmbedClassifier returns an embedding classifier over the snapshot.
func NewEmbedClassifier(client embedding.Client, tax *taxonomy.Snapshot) *EmbedClassifier {
	return &EmbedClassifier{
		client: client,
		tax:    tax,
		retry:  resilience.DefaultPolicy(),
	}
}

// Candidates embeds the company text and returns the sectors whose
// reference vectors clear the similarity floor, best first, capped at five.
func (e *EmbedClassifier) Candidates(ctx context.Context, c model.Company) ([]model.Candidate, error) {
	refs, err := e.references(ctx)
	if err != nil {
		return nil, err
	}

	vecs, err := resilience.Retry(ctx, e.retry, "embed_company", func(ctx context.Context) ([][]float32, error) {
		return e.client.Embed(ctx, []string{companyText(c)})
	})
	if err != nil {
		return nil, eris.Wrapf(err, "embedding company %s", c.Ticker)
	}
	if len(vecs) != 1 {
		return nil, eris.Errorf("embedding company %s: got %d vectors", c.Ticker, len(vecs))
	}
	query := vecs[0]

	cands := make([]model.Candidate, 0, embedTopK)
	for code, ref := range refs {
		score := cosine(query, ref)
		if score < embedMinScore {
			continue
		}
		cands = append(cands, model.Candidate{Sector: code, Score: score, Source: model.SourceEmbedding})
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		return cands[i].Sector < cands[j].Sector
	})
	if len(cands) > embedTopK {
		cands = cands[:embedTopK]
	}
	return cands, nil
}

// references builds the sector reference vectors on first use.
func (e *EmbedClassifier) references(ctx context.Context) (map[string][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.refs != nil {
		return e.refs, nil
	}

	codes := make([]string, 0, len(e.tax.Sectors))
	texts := make([]string, 0, len(e.tax.Sectors))
	for i := range e.tax.Sectors {
		sec := &e.tax.Sectors[i]
		if sec.Code == model.UnknownSector {
			continue
		}
		codes = append(codes, sec.Code)
		texts = append(texts, referenceText(sec))
	}

	vecs, err := resilience.Retry(ctx, e.retry, "embed_references", func(ctx context.Context) ([][]float32, error) {
		return e.client.Embed(ctx, texts)
	})
	if err != nil {
		return nil, eris.Wrap(err, "embedding sector references")
	}
	if len(vecs) != len(codes) {
		return nil, eris.Errorf("sector references: got %d vectors for %d sectors", len(vecs), len(codes))
	}

	refs := make(map[string][]float32, len(codes))
	for i, code := range codes {
		refs[code] = vecs[i]
	}
	e.refs = refs
	return refs, nil
}

// referenceText is the prose a sector is embedded as: name, description and
// its keyword vocabulary.
func referenceText(sec *taxonomy.Sector) string {
	var b strings.Builder
	b.WriteString(sec.Name)
	if sec.Description != "" {
		b.WriteString("\n")
		b.WriteString(sec.Description)
	}
	if len(sec.Keywords) > 0 {
		terms := make([]string, len(sec.Keywords))
		for i, kw := range sec.Keywords {
			terms[i] = kw.Term
		}
		b.WriteString("\n")
		b.WriteString(strings.Join(terms, ", "))
	}
	return b.String()
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
