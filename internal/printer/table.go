package printer

import (
	"bufio"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

const (
	columnSeparator = "│"
	truncateTail    = "…"
)

// Table is a header plus rows of cells. Implementations are also what gets
// encoded in JSON mode, so they should marshal to their natural form.
type Table interface {
	Header() []string
	Rows() [][]string
}

// WriteTable renders t with every cell right-padded to the widest value of
// its column and followed by a space. Columns are separated by │ and the
// table is surrounded by blank lines. When opts.MaxWidth is set and the
// table is wider, the widest column is shrunk and its cells truncated.
func WriteTable(w io.Writer, t Table, opts TableOpts) error {
	header := sanitizeRow(t.Header())
	rows := make([][]string, 0)
	for _, row := range t.Rows() {
		rows = append(rows, sanitizeRow(row))
	}

	widths := columnWidths(header, rows)
	if opts.MaxWidth > 0 {
		shrinkColumns(widths, opts.MaxWidth)
	}

	bw := bufio.NewWriter(w)
	bw.WriteString("\n")
	writeRow(bw, header, widths)
	for _, row := range rows {
		writeRow(bw, row, widths)
	}
	bw.WriteString("\n")
	return bw.Flush()
}

func sanitizeRow(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = strings.NewReplacer("\r\n", " ", "\n", " ", "\t", " ").Replace(cell)
	}
	return out
}

func columnWidths(header []string, rows [][]string) []int {
	widths := make([]int, len(header))
	for i, cell := range header {
		widths[i] = runewidth.StringWidth(cell)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

func tableWidth(widths []int) int {
	total := len(widths) - 1
	for _, w := range widths {
		total += w + 1
	}
	return total
}

func shrinkColumns(widths []int, maxWidth int) {
	for tableWidth(widths) > maxWidth {
		widest := 0
		for i, w := range widths {
			if w > widths[widest] {
				widest = i
			}
		}
		overflow := tableWidth(widths) - maxWidth
		next := widths[widest] - overflow
		if next < 1 {
			next = 1
		}
		if next == widths[widest] {
			return
		}
		widths[widest] = next
	}
}

func writeRow(w *bufio.Writer, row []string, widths []int) {
	for i, width := range widths {
		if i > 0 {
			w.WriteString(columnSeparator)
		}
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if runewidth.StringWidth(cell) > width {
			cell = runewidth.Truncate(cell, width, truncateTail)
		}
		w.WriteString(runewidth.FillRight(cell, width))
		w.WriteString(" ")
	}
	w.WriteString("\n")
}
