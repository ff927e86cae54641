package model

// Company is the immutable per-run snapshot of a listed company's
// descriptive data. Free-text fields come from the external company store
// and are never mutated by the engine.
type Company struct {
	Ticker   string   `json:"ticker"`
	Name     string   `json:"name"`
	Summary  string   `json:"summary"`
	Products []string `json:"products,omitempty"`
	Clients  []string `json:"clients,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

// IndustryPrior is an externally supplied reference classification,
// typically derived from the exchange's industry code. It is consumed as a
// low-trust candidate and as the third fallback rung, never as a primary
// signal.
type IndustryPrior struct {
	Sector    string `json:"sector"`
	SubSector string `json:"sub_sector,omitempty"`
}
