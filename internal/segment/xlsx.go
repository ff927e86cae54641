package segment

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// ReadWorkbook loads every sheet of an XLSX filing as a candidate table.
// Sheet names feed the table scorer alongside header text.
func ReadWorkbook(path string) ([]Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: open %s", path)
	}

	tables := make([]Table, 0, len(f.Sheets))
	for _, sheet := range f.Sheets {
		rows := make([][]string, 0, len(sheet.Rows))
		for _, row := range sheet.Rows {
			cells := make([]string, len(row.Cells))
			for j, cell := range row.Cells {
				cells[j] = cell.String()
			}
			rows = append(rows, cells)
		}
		tables = append(tables, Table{Name: sheet.Name, Rows: rows})
	}
	return tables, nil
}
