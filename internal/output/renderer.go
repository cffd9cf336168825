package output

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/atikulmunna/logformat/internal/ast"
	"github.com/atikulmunna/logformat/internal/model"
	"github.com/atikulmunna/logformat/internal/record"
	"github.com/charmbracelet/lipgloss"
)

// Renderer writes formatted LogEntry values to a destination.
type Renderer interface {
	Render(entry model.LogEntry) error
}

// ---------------------------------------------------------------------------
// Text Renderer (colorized terminal output)
// ---------------------------------------------------------------------------

// TextRenderer prints the message template with highlighted placeholders,
// followed by each rendered entity.
type TextRenderer struct {
	w           io.Writer
	source      lipgloss.Style
	placeholder lipgloss.Style
	entity      lipgloss.Style
	rejected    lipgloss.Style
}

// NewTextRenderer returns a TextRenderer writing to w. Colors are used only
// when color is true and w supports them.
func NewTextRenderer(w io.Writer, color bool) *TextRenderer {
	r := &TextRenderer{w: w}
	if !color {
		return r
	}

	lr := lipgloss.NewRenderer(w)
	r.source = lr.NewStyle().Foreground(lipgloss.Color("39")).Faint(true)      // cyan
	r.placeholder = lr.NewStyle().Foreground(lipgloss.Color("213")).Bold(true) // magenta
	r.entity = lr.NewStyle().Foreground(lipgloss.Color("245"))                 // gray
	r.rejected = lr.NewStyle().Foreground(lipgloss.Color("220"))               // yellow
	return r
}

func (r *TextRenderer) Render(entry model.LogEntry) error {
	msg := entry.Message
	for i := range entry.Entities {
		ph := ast.Placeholder(i + 1)
		msg = strings.Replace(msg, ph, r.placeholder.Render(ph), 1)
	}

	var b strings.Builder
	if entry.Source != "" && entry.Source != "-" {
		b.WriteString(r.source.Render(entry.Source))
		b.WriteByte(' ')
	}
	b.WriteString(msg)
	if entry.Rejected > 0 {
		b.WriteByte(' ')
		b.WriteString(r.rejected.Render(fmt.Sprintf("(%d span(s) kept as text)", entry.Rejected)))
	}
	b.WriteByte('\n')

	for i, e := range entry.Entities {
		b.WriteString("  ")
		b.WriteString(r.placeholder.Render(fmt.Sprintf("[%d]", i+1)))
		b.WriteByte(' ')
		b.WriteString(r.entity.Render(strings.ReplaceAll(e, "\n", "\n  ")))
		b.WriteByte('\n')
	}

	_, err := io.WriteString(r.w, b.String())
	return err
}

// ---------------------------------------------------------------------------
// JSON Renderer (structured output for piping)
// ---------------------------------------------------------------------------

// JSONRenderer prints each entry as a single JSON object per line. JSON
// records are written back with their original fields.
type JSONRenderer struct {
	w io.Writer
}

// NewJSONRenderer returns a Renderer that writes JSON lines to w.
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	return &JSONRenderer{w: w}
}

func (r *JSONRenderer) Render(entry model.LogEntry) error {
	line, err := record.Encode(entry)
	if err != nil {
		return fmt.Errorf("encode entry from %s: %w", entry.Source, err)
	}
	_, err = r.w.Write(line)
	return err
}

// ---------------------------------------------------------------------------
// Multi Renderer
// ---------------------------------------------------------------------------

// Multi fans an entry out to several renderers. A failing renderer does not
// stop delivery to the rest.
type Multi []Renderer

func (m Multi) Render(entry model.LogEntry) error {
	var errs []error
	for _, r := range m {
		if err := r.Render(entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
