package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/sector-engine/internal/taxonomy"
)

func TestSubSectorFor(t *testing.T) {
	tax := taxonomy.Default()
	semi := tax.Sector("SEC_SEMI")

	assert.Equal(t, "MEMORY", subSectorFor(semi, "dram and nand flash maker"))
	assert.Equal(t, "EQUIPMENT", subSectorFor(semi, "etch and deposition equipment"))
	assert.Empty(t, subSectorFor(semi, "nothing relevant"))
	assert.Empty(t, subSectorFor(nil, "dram"))

	bravo := testTaxonomy(t).Sector("SEC_BRAVO")
	assert.Empty(t, subSectorFor(bravo, "bravo goods"), "sector without sub-sector table")
}

func TestValueChainFor(t *testing.T) {
	tax := testTaxonomy(t)

	chain, detail := valueChainFor(tax, "SEC_ALPHA", "runs smelting operations")
	assert.Equal(t, ChainMidstream, chain)
	assert.Equal(t, "alpha smelting", detail)

	chain, detail = valueChainFor(tax, "SEC_BRAVO", "ore mining concern")
	assert.Equal(t, ChainUpstream, chain)
	assert.Empty(t, detail, "sector without a detail label for that position")

	chain, detail = valueChainFor(tax, "SEC_ALPHA", "no chain words")
	assert.Empty(t, chain)
	assert.Empty(t, detail)
}
