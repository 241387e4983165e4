package markup

// Attr is a single attribute in source order.
type Attr struct {
	Name   string
	Value  string
	Quoted bool
}

// Span is a half-open byte range [Start, End) into the parsed source.
type Span struct {
	Start int
	End   int
}

// Len returns the span length.
func (s Span) Len() int {
	return s.End - s.Start
}

// Element is one child of the root. Text is the raw body, not unescaped.
//
// Fragment covers the tag interior and its body: everything after the opening
// '<' up to the '<' of the end tag, e.g. `field type="String" token="B">Test`.
type Element struct {
	Name     string
	Attrs    []Attr
	Text     string
	Pos      Position
	Fragment Span
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Document is a parsed root element and its children in source order.
type Document struct {
	Root      string
	RootAttrs []Attr
	Children  []Element
}

type parser struct {
	lex *Lexer
	src []byte
}

// Parse reads a complete document: optional whitespace, one root element with
// flat children separated by whitespace, optional trailing whitespace.
func Parse(src []byte) (*Document, error) {
	p := &parser{lex: NewLexer(src), src: src}
	return p.parse()
}

func (p *parser) parse() (*Document, error) {
	tok, err := p.nextSignificant()
	if err != nil {
		return nil, err
	}
	if tok.Kind == KindEOF {
		return nil, &SyntaxError{Pos: tok.Pos, Msg: "empty document"}
	}
	if tok.Kind != KindStartTag {
		return nil, &SyntaxError{Pos: tok.Pos, Msg: "expected root element, got " + tok.Kind.String()}
	}

	doc := &Document{Root: tok.Name}
	if doc.RootAttrs, err = p.attrs(); err != nil {
		return nil, err
	}

	for {
		tok, err := p.nextSignificant()
		if err != nil {
			return nil, err
		}
		switch tok.Kind {
		case KindStartTag:
			el, err := p.element(tok)
			if err != nil {
				return nil, err
			}
			doc.Children = append(doc.Children, el)
		case KindEndTag:
			if tok.Name != doc.Root {
				return nil, &SyntaxError{Pos: tok.Pos, Msg: "mismatched end tag </" + tok.Name + ">, expected </" + doc.Root + ">"}
			}
			if err := p.expectEOF(); err != nil {
				return nil, err
			}
			return doc, nil
		case KindEOF:
			return nil, &SyntaxError{Pos: tok.Pos, Msg: "missing </" + doc.Root + ">"}
		default:
			return nil, &SyntaxError{Pos: tok.Pos, Msg: "unexpected " + tok.Kind.String()}
		}
	}
}

// element parses the remainder of a child whose start tag was just read.
func (p *parser) element(start Token) (Element, error) {
	el := Element{Name: start.Name, Pos: start.Pos}
	el.Fragment.Start = start.Pos.Offset + 1

	attrs, err := p.attrs()
	if err != nil {
		return el, err
	}
	el.Attrs = attrs

	tok, err := p.lex.Next()
	if err != nil {
		return el, err
	}
	if tok.Kind == KindText {
		el.Text = tok.Value
		if tok, err = p.lex.Next(); err != nil {
			return el, err
		}
	}

	switch {
	case tok.Kind == KindEndTag && tok.Name == el.Name:
		el.Fragment.End = tok.Pos.Offset
		return el, nil
	case tok.Kind == KindEndTag:
		return el, &SyntaxError{Pos: tok.Pos, Msg: "mismatched end tag </" + tok.Name + ">, expected </" + el.Name + ">"}
	case tok.Kind == KindStartTag:
		return el, &SyntaxError{Pos: tok.Pos, Msg: "nested element <" + tok.Name + "> inside <" + el.Name + ">"}
	default:
		return el, &SyntaxError{Pos: tok.Pos, Msg: "missing </" + el.Name + ">"}
	}
}

// attrs collects attributes up to the closing '>' of the current tag.
func (p *parser) attrs() ([]Attr, error) {
	var attrs []Attr
	for {
		tok, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindTagEnd {
			return attrs, nil
		}
		for _, a := range attrs {
			if a.Name == tok.Name {
				return nil, &SyntaxError{Pos: tok.Pos, Msg: "duplicate attribute " + tok.Name}
			}
		}
		attrs = append(attrs, Attr{Name: tok.Name, Value: tok.Value, Quoted: tok.Quoted})
	}
}

// nextSignificant skips whitespace-only text and rejects any other text.
func (p *parser) nextSignificant() (Token, error) {
	for {
		tok, err := p.lex.Next()
		if err != nil {
			return tok, err
		}
		if tok.Kind != KindText {
			return tok, nil
		}
		if !IsBlank(tok.Value) {
			return tok, &SyntaxError{Pos: tok.Pos, Msg: "unexpected text outside element"}
		}
	}
}

func (p *parser) expectEOF() error {
	tok, err := p.nextSignificant()
	if err != nil {
		return err
	}
	if tok.Kind != KindEOF {
		return &SyntaxError{Pos: tok.Pos, Msg: "trailing content after root element"}
	}
	return nil
}
