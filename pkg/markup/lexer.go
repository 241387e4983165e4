// Package markup tokenizes and parses the small tag-based text format shared
// by the whole-store and fixed-buffer documents.
//
// The format is a strict subset of XML: one root element holding a flat list
// of child elements, each with attributes and a text body. Attribute values may
// be double-quoted or bare (FieldSize=8). There are no comments, processing
// instructions, self-closing tags or nested children.
package markup

import (
	"fmt"
)

// Kind identifies a lexer token.
type Kind uint8

const (
	KindEOF      Kind = iota
	KindStartTag      // <name
	KindAttr          // name="value" or name=value
	KindTagEnd        // >
	KindEndTag        // </name>
	KindText          // character data between tags
)

// String returns the token kind name.
func (k Kind) String() string {
	switch k {
	case KindEOF:
		return "EOF"
	case KindStartTag:
		return "START_TAG"
	case KindAttr:
		return "ATTR"
	case KindTagEnd:
		return "TAG_END"
	case KindEndTag:
		return "END_TAG"
	case KindText:
		return "TEXT"
	default:
		return "UNKNOWN"
	}
}

// Position is a location in the source. Offset is 0-based, Line and Col are 1-based.
type Position struct {
	Offset int
	Line   int
	Col    int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Token is a single lexical unit. Name is set for tags and attributes, Value
// for attributes and text.
type Token struct {
	Kind   Kind
	Name   string
	Value  string
	Quoted bool
	Pos    Position
}

// String returns a debug representation of the token.
func (t Token) String() string {
	switch t.Kind {
	case KindStartTag, KindEndTag:
		return fmt.Sprintf("%s(%s)", t.Kind, t.Name)
	case KindAttr:
		return fmt.Sprintf("%s(%s=%q)", t.Kind, t.Name, t.Value)
	case KindText:
		return fmt.Sprintf("%s(%q)", t.Kind, t.Value)
	default:
		return t.Kind.String()
	}
}

// SyntaxError reports malformed input with its location.
type SyntaxError struct {
	Pos Position
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %s: %s", e.Pos, e.Msg)
}

// Lexer splits a document into tokens.
type Lexer struct {
	src   []byte
	pos   int
	line  int
	col   int
	inTag bool
}

// NewLexer creates a lexer over src. src is not modified.
func NewLexer(src []byte) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

// Tokenize returns every token up to and including EOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == KindEOF {
			return tokens, nil
		}
	}
}

// Next returns the next token.
func (l *Lexer) Next() (Token, error) {
	if l.inTag {
		return l.nextInTag()
	}

	if l.pos >= len(l.src) {
		return Token{Kind: KindEOF, Pos: l.currentPos()}, nil
	}

	start := l.currentPos()
	if l.peek() != '<' {
		for l.pos < len(l.src) && l.peek() != '<' {
			l.advance()
		}
		return Token{Kind: KindText, Value: string(l.src[start.Offset:l.pos]), Pos: start}, nil
	}

	l.advance() // <
	if l.pos < len(l.src) && l.peek() == '/' {
		l.advance()
		name, err := l.scanName("end tag")
		if err != nil {
			return Token{}, err
		}
		l.skipSpace()
		if l.pos >= len(l.src) {
			return Token{}, l.errorf(start, "unterminated end tag </%s", name)
		}
		if l.peek() != '>' {
			return Token{}, l.errorf(l.currentPos(), "expected '>' to close </%s, got %q", name, l.peek())
		}
		l.advance()
		return Token{Kind: KindEndTag, Name: name, Pos: start}, nil
	}

	name, err := l.scanName("tag")
	if err != nil {
		return Token{}, err
	}
	l.inTag = true
	return Token{Kind: KindStartTag, Name: name, Pos: start}, nil
}

func (l *Lexer) nextInTag() (Token, error) {
	l.skipSpace()
	if l.pos >= len(l.src) {
		return Token{}, l.errorf(l.currentPos(), "unterminated tag")
	}

	start := l.currentPos()
	switch ch := l.peek(); ch {
	case '>':
		l.advance()
		l.inTag = false
		return Token{Kind: KindTagEnd, Pos: start}, nil
	case '<':
		return Token{}, l.errorf(start, "unexpected '<' inside tag")
	case '/':
		return Token{}, l.errorf(start, "self-closing tags are not supported")
	}

	name, err := l.scanName("attribute")
	if err != nil {
		return Token{}, err
	}
	if l.pos >= len(l.src) || l.peek() != '=' {
		return Token{}, l.errorf(l.currentPos(), "expected '=' after attribute %s", name)
	}
	l.advance()

	if l.pos < len(l.src) && l.peek() == '"' {
		return l.scanQuoted(name, start)
	}

	valueStart := l.pos
	for l.pos < len(l.src) && !isSpace(l.peek()) && l.peek() != '>' {
		if ch := l.peek(); ch == '<' || ch == '"' {
			return Token{}, l.errorf(l.currentPos(), "unexpected %q in value of %s", ch, name)
		}
		l.advance()
	}
	if l.pos == valueStart {
		return Token{}, l.errorf(l.currentPos(), "missing value for attribute %s", name)
	}
	return Token{Kind: KindAttr, Name: name, Value: string(l.src[valueStart:l.pos]), Pos: start}, nil
}

func (l *Lexer) scanQuoted(name string, start Position) (Token, error) {
	l.advance() // opening "
	valueStart := l.pos
	for {
		if l.pos >= len(l.src) {
			return Token{}, l.errorf(start, "missing closing quote for attribute %s", name)
		}
		ch := l.peek()
		if ch == '"' {
			break
		}
		if ch == '<' {
			return Token{}, l.errorf(l.currentPos(), "missing closing quote for attribute %s", name)
		}
		l.advance()
	}
	value := string(l.src[valueStart:l.pos])
	l.advance() // closing "
	return Token{Kind: KindAttr, Name: name, Value: value, Quoted: true, Pos: start}, nil
}

func (l *Lexer) scanName(what string) (string, error) {
	start := l.pos
	for l.pos < len(l.src) && isNameChar(l.peek()) {
		l.advance()
	}
	if l.pos == start {
		if l.pos >= len(l.src) {
			return "", l.errorf(l.currentPos(), "unexpected end of input, expected %s name", what)
		}
		return "", l.errorf(l.currentPos(), "expected %s name, got %q", what, l.peek())
	}
	return string(l.src[start:l.pos]), nil
}

func (l *Lexer) skipSpace() {
	for l.pos < len(l.src) && isSpace(l.peek()) {
		l.advance()
	}
}

func (l *Lexer) peek() byte {
	return l.src[l.pos]
}

func (l *Lexer) advance() {
	if l.src[l.pos] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.pos++
}

func (l *Lexer) currentPos() Position {
	return Position{Offset: l.pos, Line: l.line, Col: l.col}
}

func (l *Lexer) errorf(pos Position, format string, args ...interface{}) error {
	return &SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isNameChar(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') || ch == '_' || ch == '-' || ch == '.' || ch == ':'
}

// IsBlank reports whether s holds only whitespace.
func IsBlank(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isSpace(s[i]) {
			return false
		}
	}
	return true
}
