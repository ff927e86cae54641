package segment

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeWorkbook(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, row := range rows {
			r := sheet.AddRow()
			for _, cell := range row {
				r.AddCell().SetString(cell)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "filing.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadWorkbook(t *testing.T) {
	path := writeWorkbook(t, map[string][][]string{
		"Segments": {
			{"Business Segment", "Revenue %"},
			{"Memory", "60"},
			{"Foundry", "40"},
		},
	})

	tables, err := ReadWorkbook(path)
	require.NoError(t, err)
	require.Len(t, tables, 1)

	assert.Equal(t, "Segments", tables[0].Name)
	require.Len(t, tables[0].Rows, 3)
	assert.Equal(t, []string{"Business Segment", "Revenue %"}, tables[0].Rows[0])
	assert.Equal(t, []string{"Foundry", "40"}, tables[0].Rows[2])
}

func TestReadWorkbook_Missing(t *testing.T) {
	_, err := ReadWorkbook(filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.Error(t, err)
}

func TestReadWorkbook_FlowsIntoExtractor(t *testing.T) {
	path := writeWorkbook(t, map[string][][]string{
		"Revenue by Segment": {
			{"Business Segment", "Revenue %"},
			{"Memory", "60%"},
			{"Foundry", "40%"},
		},
	})

	tables, err := ReadWorkbook(path)
	require.NoError(t, err)

	records := NewExtractor().Extract(tables)
	require.Len(t, records, 2)
	assert.Equal(t, "memory", records[0].Name)
	assert.InDelta(t, 60, records[0].RevenuePct, 1e-9)
}
