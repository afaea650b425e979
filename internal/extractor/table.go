package extractor

import (
	"sort"
	"strconv"
	"strings"
)

// Table is a rectangular row-of-cells structure recovered from page
// layout. Cells are trimmed strings; missing cells are empty strings.
type Table [][]string

// Tables reconstructs candidate tables from the page's word coordinates.
// Two strategies are tried in order: a column-grid built from X positions
// shared across rows, then plain per-row gap splitting. The first
// strategy to yield any table wins. Pages without word coordinates
// (fallback extraction paths) yield nothing.
func (p *Page) Tables() []Table {
	rows := wordRows(p.Words)
	if len(rows) < 2 {
		return nil
	}
	if tables := gridTables(rows); len(tables) > 0 {
		return tables
	}
	return gapTables(rows)
}

type wordRow struct {
	y     float64
	words []Word
}

// wordRows buckets words into visual rows by Y proximity. Words are
// assumed sorted top-to-bottom already (extractPage emits them so).
func wordRows(words []Word) []wordRow {
	var rows []wordRow
	for _, w := range words {
		n := len(rows)
		if n > 0 && absf(rows[n-1].y-w.Y) <= 2.5 {
			rows[n-1].words = append(rows[n-1].words, w)
			continue
		}
		rows = append(rows, wordRow{y: w.Y, words: []Word{w}})
	}
	for i := range rows {
		sort.Slice(rows[i].words, func(a, b int) bool {
			return rows[i].words[a].X < rows[i].words[b].X
		})
	}
	return rows
}

// gridTables builds a column grid from X start positions that repeat
// across rows, then assigns each word to its nearest column. This is
// the line-based strategy: it survives rows with missing cells, which
// pure gap splitting cannot.
func gridTables(rows []wordRow) []Table {
	edges := columnEdges(rows)
	if len(edges) < 3 {
		return nil
	}

	var cellRows [][]string
	for _, row := range rows {
		cells := make([]string, len(edges))
		for _, w := range row.words {
			col := columnFor(edges, w.X)
			if cells[col] != "" {
				cells[col] += " "
			}
			cells[col] += w.Text
		}
		cellRows = append(cellRows, trimCells(cells))
	}
	return segmentRuns(cellRows)
}

// columnEdges clusters word X starts across rows and keeps clusters
// that recur in enough rows to be believable column boundaries.
func columnEdges(rows []wordRow) []float64 {
	var xs []float64
	for _, row := range rows {
		for _, w := range row.words {
			xs = append(xs, w.X)
		}
	}
	sort.Float64s(xs)

	type cluster struct {
		sum   float64
		count int
	}
	var clusters []cluster
	for _, x := range xs {
		n := len(clusters)
		if n > 0 && x-clusters[n-1].sum/float64(clusters[n-1].count) <= 6 {
			clusters[n-1].sum += x
			clusters[n-1].count++
			continue
		}
		clusters = append(clusters, cluster{sum: x, count: 1})
	}

	minCount := len(rows) * 2 / 5
	if minCount < 2 {
		minCount = 2
	}
	var edges []float64
	for _, c := range clusters {
		if c.count >= minCount {
			edges = append(edges, c.sum/float64(c.count))
		}
	}
	return edges
}

func columnFor(edges []float64, x float64) int {
	col := 0
	for i, e := range edges {
		if x >= e-6 {
			col = i
		}
	}
	return col
}

// gapTables splits each row into cells wherever the horizontal gap
// between adjacent words exceeds a threshold.
func gapTables(rows []wordRow) []Table {
	var cellRows [][]string
	for _, row := range rows {
		var cells []string
		var cur strings.Builder
		var prevEnd float64
		for j, w := range row.words {
			if j > 0 && w.X-prevEnd > 12 {
				cells = append(cells, cur.String())
				cur.Reset()
			} else if j > 0 {
				cur.WriteString(" ")
			}
			cur.WriteString(w.Text)
			prevEnd = w.X + w.W
		}
		if cur.Len() > 0 {
			cells = append(cells, cur.String())
		}
		cellRows = append(cellRows, trimCells(cells))
	}
	return segmentRuns(cellRows)
}

// segmentRuns groups contiguous multi-cell rows into tables. A run needs
// at least three rows with two or more filled cells to count; isolated
// multi-cell rows are page prose, not tables.
func segmentRuns(cellRows [][]string) []Table {
	var tables []Table
	var run Table
	flush := func() {
		if multiCellCount(run) >= 3 {
			tables = append(tables, padTable(run))
		}
		run = nil
	}
	for _, cells := range cellRows {
		if filledCount(cells) >= 2 {
			run = append(run, cells)
			continue
		}
		// Single-cell rows inside a run are kept: wrapped descriptions
		// and section labels land there and are cleaned later.
		if len(run) > 0 && filledCount(cells) == 1 {
			run = append(run, cells)
			continue
		}
		flush()
	}
	flush()
	return tables
}

func multiCellCount(t Table) int {
	n := 0
	for _, row := range t {
		if filledCount(row) >= 2 {
			n++
		}
	}
	return n
}

func filledCount(cells []string) int {
	n := 0
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			n++
		}
	}
	return n
}

func trimCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.Join(strings.Fields(c), " ")
	}
	return out
}

func padTable(t Table) Table {
	width := 0
	for _, row := range t {
		if len(row) > width {
			width = len(row)
		}
	}
	for i, row := range t {
		for len(row) < width {
			row = append(row, "")
		}
		t[i] = row
	}
	return t
}

// Clean drops all-empty rows, all-empty columns, and duplicate columns,
// returning a dense 0-indexed table.
func (t Table) Clean() Table {
	var rows Table
	for _, row := range t {
		if filledCount(row) > 0 {
			rows = append(rows, append([]string(nil), row...))
		}
	}
	if len(rows) == 0 {
		return nil
	}

	width := len(rows[0])
	keep := make([]bool, width)
	var colTexts []string
	seen := map[string]bool{}
	for c := 0; c < width; c++ {
		var b strings.Builder
		empty := true
		for _, row := range rows {
			if c < len(row) {
				if strings.TrimSpace(row[c]) != "" {
					empty = false
				}
				b.WriteString(row[c])
				b.WriteByte('\x00')
			}
		}
		sig := b.String()
		keep[c] = !empty && !seen[sig]
		seen[sig] = true
		colTexts = append(colTexts, sig)
	}

	var out Table
	for _, row := range rows {
		var cells []string
		for c := 0; c < width; c++ {
			if keep[c] && c < len(row) {
				cells = append(cells, row[c])
			}
		}
		out = append(out, cells)
	}
	return out
}

// SplitHeader scans the first rows (up to three) for one whose cells
// contain any of the given keywords and treats it as the header row;
// everything after it is the body. Without a keyword hit, row 0 is the
// header. Header labels are deduplicated with numeric suffixes.
func (t Table) SplitHeader(keywords []string) (header []string, body Table) {
	if len(t) == 0 {
		return nil, nil
	}
	headerIdx := 0
	scan := len(t)
	if scan > 3 {
		scan = 3
	}
	for i := 0; i < scan; i++ {
		if rowHasKeyword(t[i], keywords) {
			headerIdx = i
			break
		}
	}
	header = UniqueColumns(t[headerIdx])
	body = t[headerIdx+1:]
	return header, body
}

func rowHasKeyword(cells []string, keywords []string) bool {
	for _, c := range cells {
		lc := strings.ToLower(c)
		for _, k := range keywords {
			if strings.Contains(lc, k) {
				return true
			}
		}
	}
	return false
}

// UniqueColumns suffixes repeated header labels with a counter so every
// column has a distinct key.
func UniqueColumns(header []string) []string {
	out := make([]string, len(header))
	seen := map[string]int{}
	for i, h := range header {
		h = strings.Join(strings.Fields(h), " ")
		if n, ok := seen[h]; ok {
			seen[h] = n + 1
			out[i] = h + "_" + strconv.Itoa(n)
		} else {
			seen[h] = 1
			out[i] = h
		}
	}
	return out
}

func absf(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
