package parser

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/atikulmunna/logformat/internal/ast"
	"github.com/atikulmunna/logformat/internal/lexer"
)

/*
	Grammar for one isolated object span:

	LogEntity     := Number | Text ['(' [AttributeList] ')']
	AttributeList := Attribute (',' Attribute)*
	Attribute     := Text '=' [LogEntity]    value omitted iff next token is ',' or ')'
*/

// Error is a grammar failure inside one object span.
type Error struct {
	Expected string
	Found    string
	Err      error // underlying *lexer.Error when the input could not be tokenized
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("expected %s: %v", e.Expected, e.Err)
	}
	return fmt.Sprintf("expected %s but found %s", e.Expected, e.Found)
}

func (e *Error) Unwrap() error { return e.Err }

// ---------------------------------------------------------------------------
// Message splitting
// ---------------------------------------------------------------------------

// Option configures ParseMessage.
type Option func(*options)

type options struct {
	onReject func(span string, err error)
}

// WithRejectHook registers fn to observe spans that failed to parse and were
// kept as literal text.
func WithRejectHook(fn func(span string, err error)) Option {
	return func(o *options) { o.onReject = fn }
}

// ParseMessage separates free text from balanced-parenthesis object spans and
// parses each span into an entity. Recognized spans are replaced in the
// template by placeholders; spans that fail to parse stay in the template
// verbatim. ParseMessage never fails.
func ParseMessage(line string, opts ...Option) ast.LogMessage {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var (
		free     bytes.Buffer
		obj      strings.Builder
		entities []ast.Entity
		depth    int
		mark     int // free text before mark belongs to an earlier span
	)

	reject := func(span string, err error) {
		if o.onReject != nil {
			o.onReject(span, err)
		}
		free.WriteString(span)
	}

	// '(' and ')' never occur inside a multi-byte UTF-8 sequence, so bytes
	// are copied through unchanged.
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '(':
			if depth == 0 {
				obj.WriteString(takeLastWord(&free, mark))
			}
			obj.WriteByte(c)
			depth++

		case c == ')' && depth > 0:
			obj.WriteByte(c)
			depth--
			if depth > 0 {
				continue
			}
			span := obj.String()
			obj.Reset()

			e, err := ParseEntity(span)
			if err != nil {
				reject(span, err)
				continue
			}
			entities = append(entities, e)
			free.WriteString(ast.Placeholder(len(entities)))
			mark = free.Len()

		case depth > 0:
			obj.WriteByte(c)

		default:
			free.WriteByte(c)
		}
	}

	if depth > 0 {
		reject(obj.String(), &Error{Expected: "')'", Found: "end of input"})
	}

	return ast.LogMessage{Message: free.String(), Entities: entities}
}

// takeLastWord removes the last whitespace-delimited word of buf, together
// with any whitespace following it, and returns the removed text. Nothing
// before offset mark is taken.
func takeLastWord(buf *bytes.Buffer, mark int) string {
	b := buf.Bytes()

	end := len(b)
	for end > mark {
		r, size := utf8.DecodeLastRune(b[mark:end])
		if !unicode.IsSpace(r) {
			break
		}
		end -= size
	}

	start := end
	for start > mark {
		r, size := utf8.DecodeLastRune(b[mark:start])
		if unicode.IsSpace(r) {
			break
		}
		start -= size
	}
	if start == end {
		return ""
	}

	word := string(b[start:])
	buf.Truncate(start)
	return word
}

// ---------------------------------------------------------------------------
// Grammar
// ---------------------------------------------------------------------------

// ParseEntity parses one isolated span such as "MyClass(a = 1, b = x)".
// The whole span must be consumed.
func ParseEntity(span string) (ast.Entity, error) {
	g := &grammar{lex: lexer.New(span)}
	if err := g.advance(); err != nil {
		return nil, err
	}

	e, err := g.entity()
	if err != nil {
		return nil, err
	}
	if tok, ok := g.lex.Peek(); ok {
		return nil, &Error{Expected: "end of input", Found: tok.String()}
	}
	return e, nil
}

// grammar is a recursive-descent consumer over one lexer with one token of lookahead.
type grammar struct {
	lex *lexer.Lexer
}

func (g *grammar) advance() error {
	if err := g.lex.Advance(); err != nil {
		return &Error{Expected: "a token", Found: "unlexable input", Err: err}
	}
	return nil
}

func (g *grammar) at(k lexer.Kind) bool {
	tok, ok := g.lex.Peek()
	return ok && tok.Kind == k
}

func (g *grammar) unexpected(expected string) error {
	found := "end of input"
	if tok, ok := g.lex.Peek(); ok {
		found = tok.String()
	}
	return &Error{Expected: expected, Found: found}
}

func (g *grammar) entity() (ast.Entity, error) {
	tok, ok := g.lex.Peek()
	if !ok || (tok.Kind != lexer.Number && tok.Kind != lexer.Text) {
		return nil, g.unexpected("a number or text")
	}
	if err := g.advance(); err != nil {
		return nil, err
	}

	if tok.Kind == lexer.Number {
		return &ast.Number{Value: tok.Value}, nil
	}
	if !g.at(lexer.OpenBracket) {
		return &ast.Text{Value: tok.Text}, nil
	}
	return g.object(tok.Text)
}

// object parses the bracketed part of an object; the current token is '('.
func (g *grammar) object(name string) (*ast.Object, error) {
	if err := g.advance(); err != nil {
		return nil, err
	}

	obj := &ast.Object{Name: name}
	if !g.at(lexer.CloseBracket) {
		attrs, err := g.attributeList()
		if err != nil {
			return nil, err
		}
		obj.Attributes = attrs
		if !g.at(lexer.CloseBracket) {
			return nil, g.unexpected("')' after attribute list")
		}
	}

	if err := g.advance(); err != nil {
		return nil, err
	}
	return obj, nil
}

func (g *grammar) attributeList() ([]ast.Attribute, error) {
	first, err := g.attribute()
	if err != nil {
		return nil, err
	}
	attrs := []ast.Attribute{first}

	for g.at(lexer.Comma) {
		if err := g.advance(); err != nil {
			return nil, err
		}
		next, err := g.attribute()
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, next)
	}
	return attrs, nil
}

func (g *grammar) attribute() (ast.Attribute, error) {
	tok, ok := g.lex.Peek()
	if !ok || tok.Kind != lexer.Text {
		return ast.Attribute{}, g.unexpected("attribute name")
	}
	if err := g.advance(); err != nil {
		return ast.Attribute{}, err
	}

	if !g.at(lexer.Equals) {
		return ast.Attribute{}, g.unexpected("'=' between name and value")
	}
	if err := g.advance(); err != nil {
		return ast.Attribute{}, err
	}

	// The ',' or ')' after an omitted value belongs to the enclosing list.
	if g.at(lexer.Comma) || g.at(lexer.CloseBracket) {
		return ast.Attribute{Key: tok.Text, Value: &ast.Null{}}, nil
	}

	value, err := g.entity()
	if err != nil {
		return ast.Attribute{}, err
	}
	return ast.Attribute{Key: tok.Text, Value: value}, nil
}
