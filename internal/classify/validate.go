package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/sector-engine/internal/model"
	"github.com/sells-group/sector-engine/internal/resilience"
	"github.com/sells-group/sector-engine/internal/taxonomy"
	"github.com/sells-group/sector-engine/pkg/llm"
)

const (
	validatorTimeout   = 45 * time.Second
	validatorMaxInputs = 3
)

const validatorSystemPrompt = `You are a sector classification reviewer for listed companies.
Given a company profile and candidate sectors, judge which candidates fit and how strongly.
Respond with JSON only, no prose, in this exact shape:
{"sectors": [{"sector": "<code>", "weight": <0..1>, "reasoning": "<short>"}]}
Include one to three entries, weights descending. Use only the candidate codes given.`

// Validator asks an LLM to weigh the top candidates. It is strictly
// best-effort: every failure path returns an error the caller logs and then
// proceeds without validator mass.
type Validator struct {
	client llm.Client
	tax    *taxonomy.Snapshot
	retry  resilience.Policy
}

// NewValidator returns a validator over the snapshot.
func NewValidator(client llm.Client, tax *taxonomy.Snapshot) *Validator {
	return &Validator{client: client, tax: tax, retry: resilience.DefaultPolicy()}
}

type validatorPayload struct {
	Sectors []struct {
		Sector    string  `json:"sector"`
		Weight    float64 `json:"weight"`
		Reasoning string  `json:"reasoning"`
	} `json:"sectors"`
}

// Validate submits the top candidates with their evidence and parses the
// weighted verdict. Unknown sector codes are dropped; an empty verdict is
// an error.
func (v *Validator) Validate(ctx context.Context, c model.Company, cands []model.Candidate, profile *model.RevenueProfile) ([]model.Candidate, error) {
	if len(cands) == 0 {
		return nil, eris.New("validator: no candidates")
	}
	if len(cands) > validatorMaxInputs {
		cands = cands[:validatorMaxInputs]
	}

	ctx, cancel := context.WithTimeout(ctx, validatorTimeout)
	defer cancel()

	prompt := v.buildPrompt(c, cands, profile)
	resp, err := resilience.Retry(ctx, v.retry, "validator", func(ctx context.Context) (*llm.MessageResponse, error) {
		return v.client.CreateMessage(ctx, llm.MessageRequest{
			System:   validatorSystemPrompt,
			Messages: []llm.Message{{Role: "user", Content: prompt}},
		})
	})
	if err != nil {
		return nil, eris.Wrap(err, "validator: llm call")
	}
	resp.Usage.LogCost(resp.Model, "validator")

	payload, err := parseValidatorJSON(resp.Text)
	if err != nil {
		return nil, err
	}

	out := make([]model.Candidate, 0, len(payload.Sectors))
	for _, s := range payload.Sectors {
		if !v.tax.Valid(s.Sector) {
			zap.L().Warn("validator returned unknown sector",
				zap.String("ticker", c.Ticker),
				zap.String("sector", s.Sector),
			)
			continue
		}
		w := s.Weight
		if w < 0 {
			w = 0
		}
		if w > 1 {
			w = 1
		}
		out = append(out, model.Candidate{
			Sector:    s.Sector,
			Score:     w,
			Source:    model.SourceValidator,
			Reasoning: s.Reasoning,
		})
	}
	if len(out) == 0 {
		return nil, eris.New("validator: verdict empty after filtering")
	}
	return out, nil
}

func (v *Validator) buildPrompt(c model.Company, cands []model.Candidate, profile *model.RevenueProfile) string {
	var b strings.Builder
	b.WriteString("Company profile:\n")
	b.WriteString(companyText(c))
	b.WriteString("\n\nCandidate sectors:\n")
	for _, cand := range cands {
		name := v.tax.DisplayName(cand.Sector)
		fmt.Fprintf(&b, "- %s (%s): score %.3f\n", cand.Sector, name, cand.Score)
	}
	if profile != nil && len(profile.SectorPct) > 0 {
		b.WriteString("\nRevenue by sector:\n")
		for _, code := range profile.TopSectors() {
			fmt.Fprintf(&b, "- %s: %.1f%%\n", code, profile.SectorPct[code])
		}
	}
	return b.String()
}

// parseValidatorJSON tolerates prose or fencing around the JSON object.
func parseValidatorJSON(text string) (*validatorPayload, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, eris.Errorf("validator: no JSON object in response: %.120s", text)
	}
	var payload validatorPayload
	if err := json.Unmarshal([]byte(text[start:end+1]), &payload); err != nil {
		return nil, eris.Wrap(err, "validator: parse response")
	}
	if len(payload.Sectors) == 0 {
		return nil, eris.New("validator: empty sectors array")
	}
	return &payload, nil
}
