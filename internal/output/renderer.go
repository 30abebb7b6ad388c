package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/atikulmunna/flowscope/internal/model"
	"github.com/atikulmunna/flowscope/internal/report"
	"github.com/atikulmunna/flowscope/internal/table"
	"github.com/charmbracelet/lipgloss"
)

// Renderer writes a Report to an output stream.
type Renderer interface {
	Render(r *report.Report) error
}

// New returns the renderer for format ("text" or "json").
func New(format string, w io.Writer, opts TextOptions) (Renderer, error) {
	switch format {
	case "", "text":
		return NewTextRenderer(w, opts), nil
	case "json":
		return NewJSONRenderer(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want text or json)", format)
	}
}

// ---------------------------------------------------------------------------
// Text Renderer (aligned tables)
// ---------------------------------------------------------------------------

var (
	styleAllowed      = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)  // green
	styleDenied       = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true) // red
	styleUnclassified = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true) // yellow
)

// TextOptions tunes the text layout.
type TextOptions struct {
	Color            bool // style section headings
	ShowUnclassified bool // print a third section for unknown action codes
}

type section struct {
	title       string
	placeholder string
	rows        []model.Row
	style       lipgloss.Style
}

// TextRenderer prints allowed and denied traffic as aligned tables.
type TextRenderer struct {
	w    io.Writer
	opts TextOptions
}

// NewTextRenderer returns a Renderer that writes tables to w.
func NewTextRenderer(w io.Writer, opts TextOptions) *TextRenderer {
	return &TextRenderer{w: w, opts: opts}
}

func (r *TextRenderer) Render(rep *report.Report) error {
	sections := []section{
		{"=== ALLOWED TRAFFIC ===", "No allowed traffic found.", rep.Allowed, styleAllowed},
		{"=== DENIED TRAFFIC ===", "No denied traffic found.", rep.Denied, styleDenied},
	}
	if r.opts.ShowUnclassified {
		sections = append(sections, section{"=== UNCLASSIFIED TRAFFIC ===", "No unclassified traffic found.", rep.Unclassified, styleUnclassified})
	}

	var buf bytes.Buffer
	for i, s := range sections {
		if i > 0 {
			buf.WriteByte('\n')
		}
		title := s.title
		if r.opts.Color {
			title = s.style.Render(title)
		}
		buf.WriteString(title)
		buf.WriteByte('\n')

		if err := WriteRows(&buf, s.rows, s.placeholder); err != nil {
			return err
		}
	}

	_, err := r.w.Write(buf.Bytes())
	return err
}

// WriteRows renders rows as a table under the fixed flow columns, or writes
// placeholder when there are none.
func WriteRows(w io.Writer, rows []model.Row, placeholder string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, placeholder)
		return err
	}

	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = row.Values()
	}
	return table.Render(w, table.Columns(model.Columns...), cells)
}

// ---------------------------------------------------------------------------
// JSON Renderer (structured output for piping)
// ---------------------------------------------------------------------------

// JSONRenderer prints the report as a single indented JSON document.
type JSONRenderer struct {
	enc *json.Encoder
}

// NewJSONRenderer returns a Renderer that writes JSON to w.
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return &JSONRenderer{enc: enc}
}

func (r *JSONRenderer) Render(rep *report.Report) error {
	return r.enc.Encode(rep)
}
