package classify

import (
	"sort"
	"strings"

	"github.com/sells-group/sector-engine/internal/model"
)

// companyText builds the canonical text representation of a company for
// embeddings and rerank queries. List fields are sorted so the same
// company always produces the same text.
func companyText(c model.Company) string {
	return buildText(c, c.Clients)
}

// descriptionText is companyText without the client list. Keyword scans
// read it: a sector term inside a customer's name describes the customer,
// and enters the flow as graph evidence instead of a keyword hit.
func descriptionText(c model.Company) string {
	return buildText(c, nil)
}

func buildText(c model.Company, clients []string) string {
	parts := make([]string, 0, 5)
	if c.Name != "" {
		parts = append(parts, c.Name)
	}
	if c.Summary != "" {
		parts = append(parts, c.Summary)
	}
	for _, list := range [][]string{c.Products, c.Keywords, clients} {
		if len(list) == 0 {
			continue
		}
		sorted := append([]string(nil), list...)
		sort.Strings(sorted)
		parts = append(parts, strings.Join(sorted, ", "))
	}
	return strings.Join(parts, "\n")
}

func lowerText(c model.Company) string {
	return strings.ToLower(companyText(c))
}

func lowerDescription(c model.Company) string {
	return strings.ToLower(descriptionText(c))
}
