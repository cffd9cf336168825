// Package render turns entity trees into text. Pretty and JSON share one
// traversal and differ only in vocabulary; Surface writes the compact form
// the parser reads back.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/atikulmunna/logformat/internal/ast"
)

// Mode selects how entities are rendered.
type Mode string

const (
	ModePretty Mode = "pretty"
	ModeJSON   Mode = "json"
)

// ParseMode validates a mode name (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModePretty, ModeJSON:
		return m, nil
	default:
		return "", fmt.Errorf("unknown render mode %q (want pretty or json)", s)
	}
}

// Render writes e to w in the given mode with indent spaces per nesting level.
func Render(w io.Writer, mode Mode, e ast.Entity, indent int) error {
	switch mode {
	case ModePretty:
		return Pretty(w, e, indent)
	case ModeJSON:
		return JSON(w, e, indent)
	default:
		return fmt.Errorf("unknown render mode %q", mode)
	}
}

// String renders e into a string. An unknown mode yields the JSON form.
func String(mode Mode, e ast.Entity, indent int) string {
	var sb strings.Builder
	if mode == ModePretty {
		_ = Pretty(&sb, e, indent)
	} else {
		_ = JSON(&sb, e, indent)
	}
	return sb.String()
}

// Pretty writes the indented debug form: Name(\n  key = value\n). Text is
// quoted, numbers are bare and null values are written as nothing.
func Pretty(w io.Writer, e ast.Entity, indent int) error {
	p := &printer{w: w, indent: indent, vocab: prettyVocab}
	e.Accept(p)
	return p.err
}

// JSON writes the indented JSON form. Null values are written as null.
func JSON(w io.Writer, e ast.Entity, indent int) error {
	p := &printer{w: w, indent: indent, vocab: jsonVocab}
	e.Accept(p)
	return p.err
}

// Surface writes e on one line in the syntax the parser accepts,
// e.g. Name(a = 1, b = text, c = ).
func Surface(w io.Writer, e ast.Entity) error {
	s := &surface{w: w}
	e.Accept(s)
	return s.err
}

// FormatNumber returns the shortest decimal form of v that reads back as the
// same float32, without exponent.
func FormatNumber(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}

// ---------------------------------------------------------------------------
// Indented printer
// ---------------------------------------------------------------------------

type vocabulary struct {
	open  func(o *ast.Object) string
	close string
	key   func(k string) string
	text  func(s string) string
	null  string
}

var prettyVocab = vocabulary{
	open:  func(o *ast.Object) string { return o.Name + "(" },
	close: ")",
	key:   func(k string) string { return k + " = " },
	text:  strconv.Quote,
	null:  "",
}

var jsonVocab = vocabulary{
	open:  func(*ast.Object) string { return "{" },
	close: "}",
	key:   func(k string) string { return quoteJSON(k) + ": " },
	text:  quoteJSON,
	null:  "null",
}

// printer is the visitor behind Pretty and JSON. It keeps the first write
// error and ignores everything after it.
type printer struct {
	w      io.Writer
	err    error
	indent int
	depth  int
	vocab  vocabulary
}

func (p *printer) write(s string) {
	if p.err != nil || s == "" {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

func (p *printer) writeIndent() {
	if p.indent > 0 {
		p.write(strings.Repeat(" ", p.indent*p.depth))
	}
}

func (p *printer) EnterObject(o *ast.Object) {
	p.write(p.vocab.open(o))
	if len(o.Attributes) > 0 {
		p.write("\n")
	}
	p.depth++
}

func (p *printer) VisitAttributeKey(key string) {
	p.writeIndent()
	p.write(p.vocab.key(key))
}

func (p *printer) BetweenAttributes() { p.write(",\n") }

func (p *printer) ExitObject(o *ast.Object) {
	p.depth--
	if len(o.Attributes) > 0 {
		p.write("\n")
		p.writeIndent()
	}
	p.write(p.vocab.close)
}

func (p *printer) VisitText(t *ast.Text)     { p.write(p.vocab.text(t.Value)) }
func (p *printer) VisitNumber(n *ast.Number) { p.write(FormatNumber(n.Value)) }
func (p *printer) VisitNull(*ast.Null)       { p.write(p.vocab.null) }

// quoteJSON quotes s as a JSON string without HTML escaping.
func quoteJSON(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return strconv.Quote(s)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// ---------------------------------------------------------------------------
// Surface syntax
// ---------------------------------------------------------------------------

type surface struct {
	w   io.Writer
	err error
}

func (s *surface) write(str string) {
	if s.err != nil || str == "" {
		return
	}
	_, s.err = io.WriteString(s.w, str)
}

func (s *surface) EnterObject(o *ast.Object)    { s.write(o.Name + "(") }
func (s *surface) VisitAttributeKey(key string) { s.write(key + " = ") }
func (s *surface) BetweenAttributes()           { s.write(", ") }
func (s *surface) ExitObject(*ast.Object)       { s.write(")") }
func (s *surface) VisitText(t *ast.Text)        { s.write(t.Value) }
func (s *surface) VisitNumber(n *ast.Number)    { s.write(FormatNumber(n.Value)) }
func (s *surface) VisitNull(*ast.Null)          {}
