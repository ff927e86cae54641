package taxonomy

import (
	_ "embed"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yaml
var embedded []byte

// Load reads a taxonomy snapshot from a YAML file. Every sector must name a
// code; duplicate codes and aliases pointing at unknown sectors are rejected
// so bad dictionaries fail at startup instead of mid-batch.
func Load(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "reading taxonomy file %s", path)
	}
	return Parse(raw)
}

// Parse decodes and indexes a snapshot from YAML bytes.
func Parse(raw []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := yaml.Unmarshal(raw, &snap); err != nil {
		return nil, eris.Wrap(err, "parsing taxonomy yaml")
	}
	if err := snap.validate(); err != nil {
		return nil, err
	}
	snap.index()
	return &snap, nil
}

// Default returns the snapshot compiled into the binary. It never fails; the
// embedded dictionary is validated by the package tests.
func Default() *Snapshot {
	snap, err := Parse(embedded)
	if err != nil {
		panic(eris.ToString(err, true))
	}
	return snap
}

func (s *Snapshot) validate() error {
	if len(s.Sectors) == 0 {
		return eris.New("taxonomy has no sectors")
	}
	seen := make(map[string]bool, len(s.Sectors))
	for _, sec := range s.Sectors {
		if sec.Code == "" {
			return eris.Errorf("sector %q has no code", sec.Name)
		}
		if seen[sec.Code] {
			return eris.Errorf("duplicate sector code %s", sec.Code)
		}
		seen[sec.Code] = true
		for _, kw := range sec.Keywords {
			if kw.Weight <= 0 {
				return eris.Errorf("sector %s keyword %q has non-positive weight", sec.Code, kw.Term)
			}
		}
	}
	for _, sec := range s.Sectors {
		if sec.Parent != "" && !seen[sec.Parent] {
			return eris.Errorf("sector %s names unknown parent %s", sec.Code, sec.Parent)
		}
	}
	return nil
}
