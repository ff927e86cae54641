package model

// Anchor links an exemplar company to the sector its suppliers almost
// always belong to. Appearing in a company's client list is treated as
// supply-relationship evidence for that sector.
type Anchor struct {
	Company string  `json:"company"`
	Sector  string  `json:"sector"`
	Weight  float64 `json:"weight"`
}

// KGEdge is a precomputed relationship-graph edge between two tickers.
// Only relation types with a positive configured weight participate in
// graph-edge boosting.
type KGEdge struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Relation string  `json:"relation_type"`
	Weight   float64 `json:"weight"`
}

// Safe relation types for graph-edge boosting. Customer, project and
// generic relations are excluded: they point the wrong way too often.
const (
	RelationSuppliesTo     = "SUPPLIES_TO"
	RelationCoreDependency = "CORE_DEPENDENCY"
)

// GraphSnapshot bundles the read-only relationship evidence passed into a
// classification call. Shared across workers; never mutated.
type GraphSnapshot struct {
	Anchors []Anchor `json:"anchors,omitempty"`
	Edges   []KGEdge `json:"edges,omitempty"`
	// PrimarySector maps a ticker to its currently stored primary sector,
	// used to project edge endpoints onto the taxonomy.
	PrimarySector map[string]string `json:"primary_sector,omitempty"`
}
