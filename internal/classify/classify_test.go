package classify

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/sector-engine/internal/taxonomy"
	"github.com/sells-group/sector-engine/pkg/llm"
	"github.com/sells-group/sector-engine/pkg/rerank"
)

// Small fixed taxonomy with round numbers so scores in assertions stay
// readable.
const testTaxonomyYAML = `
version: "test"
value_chain:
  upstream: [ore mining]
  midstream: [smelting]
  downstream: [retailing]
sectors:
  - code: SEC_ALPHA
    name: Alphaworks
    descriptor: alpha
    description: Makers of alpha modules.
    rule_keywords:
      - {term: alpha, weight: 1}
      - {term: alphamatic, weight: 1}
    aliases: [alpha]
    sub_sectors:
      - code: CORE
        name: Core
        keywords: [alphamatic]
    value_chain_detail:
      MIDSTREAM: alpha smelting
  - code: SEC_BRAVO
    name: Bravo Industries
    descriptor: bravo
    description: Makers of bravo goods.
    rule_keywords:
      - {term: bravo, weight: 1}
    aliases: [bravo]
  - code: SEC_SVC
    name: Generic Services
    descriptor: services
    agnostic: true
    description: Service companies of no particular industry.
    rule_keywords:
      - {term: consulting, weight: 1}
    aliases: [services]
  - code: SEC_UNKNOWN
    name: Unclassified
    descriptor: unclassified
    agnostic: true
`

func testTaxonomy(t *testing.T) *taxonomy.Snapshot {
	t.Helper()
	snap, err := taxonomy.Parse([]byte(testTaxonomyYAML))
	require.NoError(t, err)
	return snap
}

// fakeEmbedder maps texts to vectors by substring. Reference texts start
// with the sector name; anything else is treated as company text.
type fakeEmbedder struct {
	companyVec []float32
	err        error
	calls      int
}

func (f *fakeEmbedder) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		switch {
		case strings.HasPrefix(in, "Alphaworks"):
			out[i] = []float32{1, 0}
		case strings.HasPrefix(in, "Bravo Industries"):
			out[i] = []float32{0, 1}
		case strings.HasPrefix(in, "Generic Services"):
			out[i] = []float32{-1, 0}
		default:
			out[i] = f.companyVec
		}
	}
	return out, nil
}

// fakeLLM returns a canned validator response.
type fakeLLM struct {
	text  string
	err   error
	calls int
}

func (f *fakeLLM) CreateMessage(context.Context, llm.MessageRequest) (*llm.MessageResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &llm.MessageResponse{Text: f.text, Model: "fake"}, nil
}

// fakeReranker returns fixed index/score pairs.
type fakeReranker struct {
	results []rerank.Result
	err     error
	calls   int
}

func (f *fakeReranker) Rerank(context.Context, rerank.Request) (*rerank.Response, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &rerank.Response{Results: f.results}, nil
}
