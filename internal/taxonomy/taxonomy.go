package taxonomy

import (
	"strings"
)

// KeywordWeight is one weighted rule keyword for a sector.
type KeywordWeight struct {
	Term   string  `yaml:"term"`
	Weight float64 `yaml:"weight"`
}

// SubSector is a second-level node under a major sector, matched by
// keyword count against company text.
type SubSector struct {
	Code     string   `yaml:"code"`
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Sector is one major taxonomy node together with the dictionaries the
// engine needs for it: rule keywords, segment aliases, sub-sectors and
// value-chain detail labels.
type Sector struct {
	Code        string            `yaml:"code"`
	Name        string            `yaml:"name"`
	Descriptor  string            `yaml:"descriptor"`
	Description string            `yaml:"description"`
	Level       int               `yaml:"level"`
	Parent      string            `yaml:"parent,omitempty"`
	Agnostic    bool              `yaml:"agnostic,omitempty"`
	Keywords    []KeywordWeight   `yaml:"rule_keywords,omitempty"`
	Aliases     []string          `yaml:"aliases,omitempty"`
	SubSectors  []SubSector       `yaml:"sub_sectors,omitempty"`
	ChainDetail map[string]string `yaml:"value_chain_detail,omitempty"`
}

// ValueChainKeywords holds the global position keyword tables.
type ValueChainKeywords struct {
	Upstream   []string `yaml:"upstream"`
	Midstream  []string `yaml:"midstream"`
	Downstream []string `yaml:"downstream"`
}

// Snapshot is the read-only taxonomy handed to each classification call.
// It is built once per batch run and shared across workers.
type Snapshot struct {
	Version    string             `yaml:"version"`
	Sectors    []Sector           `yaml:"sectors"`
	ValueChain ValueChainKeywords `yaml:"value_chain"`

	byCode  map[string]*Sector
	byAlias map[string]string
}

// index builds the lookup maps. Called once by the loader.
func (s *Snapshot) index() {
	s.byCode = make(map[string]*Sector, len(s.Sectors))
	s.byAlias = make(map[string]string)
	for i := range s.Sectors {
		sec := &s.Sectors[i]
		s.byCode[sec.Code] = sec
		for _, alias := range sec.Aliases {
			s.byAlias[strings.ToLower(alias)] = sec.Code
		}
	}
}

// Sector returns the node for a code, or nil if the code is unknown.
func (s *Snapshot) Sector(code string) *Sector {
	return s.byCode[code]
}

// Valid reports whether code names a taxonomy node.
func (s *Snapshot) Valid(code string) bool {
	_, ok := s.byCode[code]
	return ok
}

// IsAgnostic reports whether code is a generic catch-all sector that the
// boosting engine must never touch.
func (s *Snapshot) IsAgnostic(code string) bool {
	sec := s.byCode[code]
	return sec != nil && sec.Agnostic
}

// AliasSector returns the sector code an exact alias maps to, or "".
func (s *Snapshot) AliasSector(alias string) string {
	return s.byAlias[strings.ToLower(alias)]
}

// Aliases returns every registered alias sorted longest-first, so that the
// substring matching pass prefers the most specific alias.
func (s *Snapshot) Aliases() []string {
	out := make([]string, 0, len(s.byAlias))
	for alias := range s.byAlias {
		out = append(out, alias)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && (len(out[j]) > len(out[j-1]) ||
			(len(out[j]) == len(out[j-1]) && out[j] < out[j-1])); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// DisplayName returns the human-readable name for a code, falling back to
// the code itself for unknown sectors.
func (s *Snapshot) DisplayName(code string) string {
	if sec := s.byCode[code]; sec != nil {
		return sec.Name
	}
	return code
}

// Descriptor returns the short card-text descriptor for a code.
func (s *Snapshot) Descriptor(code string) string {
	if sec := s.byCode[code]; sec != nil && sec.Descriptor != "" {
		return sec.Descriptor
	}
	return s.DisplayName(code)
}

// Codes returns all sector codes in declaration order.
func (s *Snapshot) Codes() []string {
	out := make([]string, len(s.Sectors))
	for i := range s.Sectors {
		out[i] = s.Sectors[i].Code
	}
	return out
}
