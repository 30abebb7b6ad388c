// Package table renders rows of named columns as aligned plain text.
package table

import (
	"bufio"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Alignment controls how a cell is padded to its column width.
type Alignment int

const (
	Left Alignment = iota
	Right
	Center
)

const (
	cellSep   = " | "
	borderSep = "-+-"
)

// Column describes one table column. Headers are always centered; Align
// applies to body cells.
type Column struct {
	Header string
	Align  Alignment
}

// Columns builds left-aligned columns from header names.
func Columns(headers ...string) []Column {
	cols := make([]Column, len(headers))
	for i, h := range headers {
		cols[i] = Column{Header: h, Align: Left}
	}
	return cols
}

// Widths returns the display width of each column: the widest of the header
// and every cell in that column. Rows shorter than cols count as empty cells.
// Width is terminal cells, not characters: East Asian wide runes count as two,
// ANSI escape sequences as zero.
func Widths(cols []Column, rows [][]string) []int {
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = lipgloss.Width(c.Header)
	}
	for _, row := range rows {
		for i := range cols {
			if i >= len(row) {
				break
			}
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

// Render writes a header line, a separator line and one line per row.
// Cells are never truncated.
func Render(w io.Writer, cols []Column, rows [][]string) error {
	widths := Widths(cols, rows)
	bw := bufio.NewWriter(w)

	cells := make([]string, len(cols))
	for i, c := range cols {
		cells[i] = Pad(c.Header, widths[i], Center)
	}
	writeLine(bw, cells, cellSep)

	for i, wd := range widths {
		cells[i] = strings.Repeat("-", wd)
	}
	writeLine(bw, cells, borderSep)

	for _, row := range rows {
		for i, c := range cols {
			var v string
			if i < len(row) {
				v = row[i]
			}
			cells[i] = Pad(v, widths[i], c.Align)
		}
		writeLine(bw, cells, cellSep)
	}

	return bw.Flush()
}

// Pad aligns s within width. Strings already at least width wide are
// returned unchanged. Center puts the odd space on the right, except when
// both the padding and the width are odd, where it goes on the left.
func Pad(s string, width int, align Alignment) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}

	switch align {
	case Right:
		return strings.Repeat(" ", gap) + s
	case Center:
		left := gap/2 + (gap & width & 1)
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
	default:
		return s + strings.Repeat(" ", gap)
	}
}

func writeLine(bw *bufio.Writer, cells []string, sep string) {
	bw.WriteString(strings.Join(cells, sep))
	bw.WriteByte('\n')
}
