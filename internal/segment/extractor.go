package segment

import (
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/sector-engine/internal/model"
)

// Header keyword classes used to score candidate tables. A filing usually
// carries several revenue tables; the business-segment breakdown scores far
// above regional or product appendices so it wins regardless of document
// order.
var (
	segmentHeaderTerms = []string{
		"business segment", "operating segment", "segment information",
		"business division", "revenue by segment", "business unit",
		"segment", "division",
	}
	consolidatedHeaderTerms = []string{
		"consolidated", "revenue breakdown", "sales composition",
	}
	genericHeaderTerms = []string{
		"product", "item", "category", "goods", "service line",
	}

	subtotalTerms = []string{"total", "subtotal", "sum", "aggregate"}

	pctHeaderTerms    = []string{"%", "percent", "pct", "ratio", "share", "proportion", "composition", "weight"}
	amountHeaderTerms = []string{"revenue", "sales", "amount", "value"}
	nameHeaderTerms   = []string{"segment", "division", "business", "product", "item", "category", "name"}
	childHeaderTerms  = []string{"sub", "detail", "item", "product", "line"}
)

const (
	maxHeaderRows = 3
	minSegments   = 2

	// Leaf percentages outside this window mean the wrong table or a
	// mangled parse; the candidate is rejected and the next one tried.
	minLeafSum = 70.0
	maxLeafSum = 130.0
)

// Table is one rectangular grid of cells from a filing document.
type Table struct {
	Name string
	Rows [][]string
}

// Extractor locates the business-segment revenue table in a filing and
// flattens it into segment records.
type Extractor struct{}

// NewExtractor returns a ready extractor.
func NewExtractor() *Extractor { return &Extractor{} }

// Extract scores every candidate table, then parses them best-first until
// one yields a sane segment breakdown. No qualifying table is not an error:
// the caller falls through to text-only classification.
func (e *Extractor) Extract(tables []Table) []model.SegmentRecord {
	type scored struct {
		table Table
		score int
	}
	candidates := make([]scored, 0, len(tables))
	for _, t := range tables {
		if s := scoreTable(t); s > 0 {
			candidates = append(candidates, scored{table: t, score: s})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	for _, c := range candidates {
		records, ok := parseTable(c.table)
		if ok {
			return records
		}
		zap.L().Debug("rejected candidate segment table",
			zap.String("table", c.table.Name),
			zap.Int("score", c.score),
		)
	}
	return nil
}

// scoreTable rates how likely a table is the business-segment breakdown
// from its header text alone.
func scoreTable(t Table) int {
	depth := headerDepth(t.Rows)
	if depth == 0 {
		return 0
	}
	var header strings.Builder
	for _, row := range t.Rows[:depth] {
		for _, cell := range row {
			header.WriteString(canonical(cell))
			header.WriteByte(' ')
		}
	}
	header.WriteString(canonical(t.Name))
	text := header.String()

	score := 0
	for _, term := range segmentHeaderTerms {
		if strings.Contains(text, term) {
			score += 10
			break
		}
	}
	for _, term := range consolidatedHeaderTerms {
		if strings.Contains(text, term) {
			score += 5
			break
		}
	}
	for _, term := range genericHeaderTerms {
		if strings.Contains(text, term) {
			score++
			break
		}
	}
	return score
}

// headerDepth counts leading rows with no numeric cell, capped at
// maxHeaderRows. Multi-row headers are merged per column downstream. Past
// the first row a header must span at least two columns, so a name-only
// anchor row is not swallowed into the header.
func headerDepth(rows [][]string) int {
	depth := 0
	for i, row := range rows {
		if depth == maxHeaderRows || rowHasNumber(row) {
			break
		}
		if i > 0 && countNonEmpty(row) < 2 {
			break
		}
		depth++
	}
	return depth
}

func countNonEmpty(row []string) int {
	n := 0
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			n++
		}
	}
	return n
}

func rowHasNumber(row []string) bool {
	for _, cell := range row {
		if _, ok := parseNumber(cell); ok {
			return true
		}
	}
	return false
}

// mergeHeaders joins up to maxHeaderRows header rows vertically into one
// composite label per column.
func mergeHeaders(rows [][]string, depth int) []string {
	cols := 0
	for _, row := range rows[:depth] {
		if len(row) > cols {
			cols = len(row)
		}
	}
	merged := make([]string, cols)
	for _, row := range rows[:depth] {
		for i, cell := range row {
			c := canonical(cell)
			if c == "" {
				continue
			}
			if merged[i] == "" {
				merged[i] = c
			} else {
				merged[i] += " " + c
			}
		}
	}
	return merged
}

type tableLayout struct {
	nameCol   int
	childCol  int // -1 when the table has no sub-item column
	pctCol    int // -1 when percentages must be derived from amounts
	amountCol int
}

func detectLayout(headers []string) (tableLayout, bool) {
	l := tableLayout{nameCol: -1, childCol: -1, pctCol: -1, amountCol: -1}
	for i, h := range headers {
		switch {
		case l.pctCol < 0 && containsAny(h, pctHeaderTerms):
			l.pctCol = i
		case l.amountCol < 0 && containsAny(h, amountHeaderTerms):
			l.amountCol = i
		case l.nameCol < 0 && containsAny(h, nameHeaderTerms):
			l.nameCol = i
		case l.nameCol >= 0 && l.childCol < 0 && i == l.nameCol+1 && containsAny(h, childHeaderTerms):
			l.childCol = i
		}
	}
	if l.nameCol < 0 {
		l.nameCol = 0
	}
	if l.pctCol < 0 && l.amountCol < 0 {
		return l, false
	}
	return l, true
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// parseTable flattens one scored candidate into segment records. It returns
// ok=false when the layout cannot be detected or the leaf percentages fail
// the sanity window.
func parseTable(t Table) ([]model.SegmentRecord, bool) {
	depth := headerDepth(t.Rows)
	if depth == 0 || depth >= len(t.Rows) {
		return nil, false
	}
	layout, ok := detectLayout(mergeHeaders(t.Rows, depth))
	if !ok {
		return nil, false
	}

	var records []model.SegmentRecord
	var lastLeaf string
	var lastParent string
	for _, row := range t.Rows[depth:] {
		rec, ok := parseRow(row, layout, &lastLeaf, &lastParent)
		if ok {
			records = append(records, rec)
		}
	}
	markParents(records)

	if layout.pctCol < 0 {
		amountsToPct(records)
	}
	scaleFractions(records)

	if !validLeaves(records) {
		return nil, false
	}
	return records, true
}

func parseRow(row []string, layout tableLayout, lastLeaf, lastParent *string) (model.SegmentRecord, bool) {
	valueCol := layout.pctCol
	if valueCol < 0 {
		valueCol = layout.amountCol
	}
	var value float64
	var hasValue bool
	if valueCol < len(row) {
		value, hasValue = parseNumber(row[valueCol])
	}

	raw := ""
	if layout.nameCol < len(row) {
		raw = row[layout.nameCol]
	}
	child := ""
	if layout.childCol >= 0 && layout.childCol < len(row) {
		child = canonical(row[layout.childCol])
	}
	indented := isIndented(raw)
	name := canonical(strings.TrimLeft(raw, " \t-·└├"))

	if !hasValue {
		// Value-less rows with a top-level name are grouping anchors for
		// the indented sub-items beneath them.
		if name != "" && !indented && child == "" && !containsAny(name, subtotalTerms) {
			*lastParent = name
			*lastLeaf = name
		}
		return model.SegmentRecord{}, false
	}

	if name != "" && containsAny(name, subtotalTerms) {
		// Subtotal rows never become inheritance anchors and are kept
		// only for the audit trail.
		return model.SegmentRecord{Name: name, RevenuePct: value, IsSubtotal: true}, true
	}

	switch {
	case name == "" && child == "":
		// Merged-cell continuation: inherit the nearest preceding leaf.
		// When that leaf is its own anchor the parent link is dropped, or
		// markParents would turn the inherited leaf into a subtotal.
		if *lastLeaf == "" {
			return model.SegmentRecord{}, false
		}
		parent := *lastParent
		if parent == *lastLeaf {
			parent = ""
		}
		return model.SegmentRecord{Name: *lastLeaf, ParentName: parent, RevenuePct: value}, true

	case child != "":
		parent := name
		if parent == "" {
			parent = *lastParent
			if parent == "" {
				parent = *lastLeaf
			}
		}
		if parent == "" {
			*lastLeaf = child
			return model.SegmentRecord{Name: child, RevenuePct: value}, true
		}
		*lastParent = parent
		*lastLeaf = parent + "::" + child
		return model.SegmentRecord{Name: *lastLeaf, ParentName: parent, RevenuePct: value}, true

	case indented && *lastParent != "":
		*lastLeaf = *lastParent + "::" + name
		return model.SegmentRecord{Name: *lastLeaf, ParentName: *lastParent, RevenuePct: value}, true

	default:
		*lastLeaf = name
		*lastParent = name
		return model.SegmentRecord{Name: name, RevenuePct: value}, true
	}
}

func isIndented(raw string) bool {
	if strings.HasPrefix(raw, "  ") || strings.HasPrefix(raw, "\t") {
		return true
	}
	trimmed := strings.TrimSpace(raw)
	return strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "·") ||
		strings.HasPrefix(trimmed, "└") || strings.HasPrefix(trimmed, "├")
}

// markParents flags rows whose name is some other row's parent: their value
// aggregates the children and must not be counted twice.
func markParents(records []model.SegmentRecord) {
	parents := make(map[string]bool)
	for _, r := range records {
		if r.ParentName != "" {
			parents[r.ParentName] = true
		}
	}
	for i := range records {
		if parents[records[i].Name] {
			records[i].IsSubtotal = true
		}
	}
}

// amountsToPct converts absolute revenue amounts into percentages over the
// leaf total.
func amountsToPct(records []model.SegmentRecord) {
	var total float64
	for _, r := range records {
		if !r.IsSubtotal {
			total += r.RevenuePct
		}
	}
	if total <= 0 {
		return
	}
	for i := range records {
		records[i].RevenuePct = records[i].RevenuePct / total * 100
	}
}

// scaleFractions promotes fraction-style tables (0.45 for 45%) to percent.
func scaleFractions(records []model.SegmentRecord) {
	var sum float64
	for _, r := range records {
		if !r.IsSubtotal {
			sum += r.RevenuePct
		}
	}
	if sum > 0 && sum <= 1.5 {
		for i := range records {
			records[i].RevenuePct *= 100
		}
	}
}

func validLeaves(records []model.SegmentRecord) bool {
	var sum float64
	leaves := 0
	for _, r := range records {
		if r.IsSubtotal {
			continue
		}
		leaves++
		sum += r.RevenuePct
	}
	return leaves >= minSegments && sum >= minLeafSum && sum <= maxLeafSum
}

// parseNumber reads a cell as a number, tolerating thousands separators,
// percent signs and accounting-style negatives.
func parseNumber(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, false
	}
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		v = -v
	}
	return v, true
}
