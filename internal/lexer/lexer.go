package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Kind identifies the type of a Token.
type Kind int

const (
	OpenBracket Kind = iota
	CloseBracket
	Comma
	Equals
	Number
	Text
)

func (k Kind) String() string {
	switch k {
	case OpenBracket:
		return "'('"
	case CloseBracket:
		return "')'"
	case Comma:
		return "','"
	case Equals:
		return "'='"
	case Number:
		return "number"
	case Text:
		return "text"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Token is a single lexed unit. Text holds the source text of the token;
// Value is only meaningful for Number tokens.
type Token struct {
	Kind  Kind
	Text  string
	Value float32
}

func (t Token) String() string {
	switch t.Kind {
	case Number:
		return "number " + t.Text
	case Text:
		return fmt.Sprintf("text %q", t.Text)
	default:
		return t.Kind.String()
	}
}

// Error reports input the lexer cannot turn into a token.
type Error struct {
	Pos    int    // rune offset where the token started
	Input  string // offending input
	Reason string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("lex error at offset %d: %s %q", e.Pos, e.Reason, e.Input)
}

func (e *Error) Unwrap() error { return e.Err }

// Lexer turns a text buffer into a stream of tokens with one token of lookahead.
// The current token is only computed by Advance; Peek never consumes input.
type Lexer struct {
	input []rune
	pos   int
	tok   Token
	ok    bool
	err   error
}

// New returns a Lexer positioned before the first token of text.
// Call Advance to compute the first token.
func New(text string) *Lexer {
	return &Lexer{input: []rune(text)}
}

// Advance discards the current token and lexes the next one.
// At end of input Peek reports no token and Advance returns nil.
// A lexing failure is sticky: every later Advance returns the same error.
func (l *Lexer) Advance() error {
	if l.err != nil {
		return l.err
	}
	l.tok, l.ok, l.err = l.scan()
	return l.err
}

// Peek returns the current token. The boolean is false at end of input
// or after a lexing failure.
func (l *Lexer) Peek() (Token, bool) {
	return l.tok, l.ok
}

// Set force-sets the current token without touching the remaining input.
func (l *Lexer) Set(tok Token) {
	l.tok, l.ok = tok, true
}

// Pos returns the rune offset of the next unread character.
func (l *Lexer) Pos() int { return l.pos }

// Err returns the lexing failure that stopped the stream, if any.
func (l *Lexer) Err() error { return l.err }

func (l *Lexer) scan() (Token, bool, error) {
	for l.pos < len(l.input) && unicode.IsSpace(l.input[l.pos]) {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return Token{}, false, nil
	}

	start := l.pos
	r := l.input[l.pos]
	switch r {
	case '(':
		l.pos++
		return Token{Kind: OpenBracket, Text: "("}, true, nil
	case ')':
		l.pos++
		return Token{Kind: CloseBracket, Text: ")"}, true, nil
	case ',':
		l.pos++
		return Token{Kind: Comma, Text: ","}, true, nil
	case '=':
		l.pos++
		return Token{Kind: Equals, Text: "="}, true, nil
	}

	switch {
	case unicode.IsLetter(r):
		return l.text(start), true, nil
	case unicode.IsNumber(r):
		return l.number(start)
	}
	return Token{}, false, &Error{Pos: start, Input: string(r), Reason: "unexpected character"}
}

// text consumes everything up to the next structural character. Internal
// whitespace is kept so multi-word runs become one token; trailing
// whitespace is dropped.
func (l *Lexer) text(start int) Token {
	for l.pos < len(l.input) && !IsStructural(l.input[l.pos]) {
		l.pos++
	}
	s := strings.TrimRightFunc(string(l.input[start:l.pos]), unicode.IsSpace)
	return Token{Kind: Text, Text: s}
}

// number consumes a run of letters, digits and dots and requires the whole
// run to be a valid decimal float32. Runs such as 123abc, 1.2.3 or 0x1p4 are
// rejected here.
func (l *Lexer) number(start int) (Token, bool, error) {
	for l.pos < len(l.input) {
		r := l.input[l.pos]
		if r != '.' && !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			break
		}
		l.pos++
	}
	run := string(l.input[start:l.pos])
	if strings.IndexFunc(run, notDecimal) >= 0 {
		err := &strconv.NumError{Func: "ParseFloat", Num: run, Err: strconv.ErrSyntax}
		return Token{}, false, &Error{Pos: start, Input: run, Reason: "invalid number", Err: err}
	}
	v, err := strconv.ParseFloat(run, 32)
	if err != nil {
		return Token{}, false, &Error{Pos: start, Input: run, Reason: "invalid number", Err: err}
	}
	return Token{Kind: Number, Text: run, Value: float32(v)}, true, nil
}

// notDecimal reports whether r cannot appear in a decimal literal.
func notDecimal(r rune) bool {
	return (r < '0' || r > '9') && r != '.' && r != 'e' && r != 'E'
}

// IsStructural reports whether r is one of the characters that delimit tokens.
func IsStructural(r rune) bool {
	return r == '(' || r == ')' || r == ',' || r == '='
}
