// Package document encodes a field store as a whole-store <Fields> document
// and reads one back.
//
// Each field is written on its own line:
//
//	<Fields>
//	<Field FieldName="A" FieldSize=8 FieldModifier=0>01</Field>
//	</Fields>
//
// FieldSize is the width in bits and the body is ceil(FieldSize/8) bytes of
// uppercase hex. Names are written verbatim.
package document

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ssargent/sdds/pkg/column"
	"github.com/ssargent/sdds/pkg/fields"
	"github.com/ssargent/sdds/pkg/markup"
)

const (
	RootElement  = "Fields"
	FieldElement = "Field"

	AttrName     = "FieldName"
	AttrSize     = "FieldSize"
	AttrModifier = "FieldModifier"
)


var (
	ErrWrongRoot     = errors.New("document: root element is not <Fields>")
	ErrWrongElement  = errors.New("document: child element is not <Field>")
	ErrMissingAttr   = errors.New("document: missing attribute")
	ErrBadNumber     = errors.New("document: invalid number")
	ErrBadPayload    = errors.New("document: invalid payload")
	ErrUnknownAttr   = errors.New("document: unknown attribute")
	ErrPayloadLength = errors.New("document: payload length does not match FieldSize")
)

// ParseError reports why a document was rejected. Field is empty when the
// failure is not tied to a single field.
type ParseError struct {
	Field string
	Pos   markup.Position
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("document: %s: %v", e.Pos, e.Err)
	}
	return fmt.Sprintf("document: field %q at %s: %v", e.Field, e.Pos, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Write streams the document for s to w.
func Write(w io.Writer, s *fields.Store) error {
	bw := bufio.NewWriter(w)
	var hexBuf []byte

	bw.WriteString("<" + RootElement + ">\n")
	err := s.Each(func(name string, sizeBits uint32, payload []byte, modifier byte) error {
		bw.WriteString(`<` + FieldElement + ` ` + AttrName + `="`)
		bw.WriteString(name)
		bw.WriteString(`" ` + AttrSize + `=`)
		bw.WriteString(strconv.FormatUint(uint64(sizeBits), 10))
		bw.WriteString(` ` + AttrModifier + `=`)
		bw.WriteString(strconv.FormatUint(uint64(modifier), 10))
		bw.WriteByte('>')
		hexBuf = column.AppendHex(hexBuf[:0], payload)
		bw.Write(hexBuf)
		_, err := bw.WriteString("</" + FieldElement + ">\n")
		return err
	})
	if err != nil {
		return err
	}
	bw.WriteString("</" + RootElement + ">\n")
	return bw.Flush()
}

// Encode returns the document for s.
func Encode(s *fields.Store) string {
	var sb strings.Builder
	sb.Grow(encodedLen(s))
	// strings.Builder never fails
	_ = Write(&sb, s)
	return sb.String()
}

func encodedLen(s *fields.Store) int {
	n := len("<Fields>\n</Fields>\n")
	_ = s.Each(func(name string, _ uint32, payload []byte, _ byte) error {
		n += len(`<Field FieldName="" FieldSize=4294967295 FieldModifier=255></Field>` + "\n")
		n += len(name) + 2*len(payload)
		return nil
	})
	return n
}

// Decode parses a whole-store document. Decoding is all or nothing: the
// first problem is returned as a *ParseError and no store is produced.
func Decode(text []byte, opts ...fields.Option) (*fields.Store, error) {
	doc, err := markup.Parse(text)
	if err != nil {
		var syn *markup.SyntaxError
		if errors.As(err, &syn) {
			return nil, &ParseError{Pos: syn.Pos, Err: err}
		}
		return nil, &ParseError{Err: err}
	}
	if doc.Root != RootElement {
		return nil, &ParseError{Err: fmt.Errorf("%w: <%s>", ErrWrongRoot, doc.Root)}
	}

	s := fields.NewStore(opts...)
	for i := range doc.Children {
		el := &doc.Children[i]
		f, err := decodeField(el)
		if err == nil {
			err = s.AddField(f)
		}
		if err != nil {
			s.Close()
			return nil, &ParseError{Field: f.Name, Pos: el.Pos, Err: err}
		}
	}
	return s, nil
}

func decodeField(el *markup.Element) (fields.Field, error) {
	var f fields.Field
	if el.Name != FieldElement {
		return f, fmt.Errorf("%w: <%s>", ErrWrongElement, el.Name)
	}

	name, ok := el.Attr(AttrName)
	if !ok {
		return f, fmt.Errorf("%w %s", ErrMissingAttr, AttrName)
	}
	f.Name = name

	for _, a := range el.Attrs {
		switch a.Name {
		case AttrName, AttrSize, AttrModifier:
		default:
			return f, fmt.Errorf("%w %s", ErrUnknownAttr, a.Name)
		}
	}

	size, err := uintAttr(el, AttrSize, 32)
	if err != nil {
		return f, err
	}
	f.SizeBits = uint32(size)

	mod, err := uintAttr(el, AttrModifier, 8)
	if err != nil {
		return f, err
	}
	f.Modifier = byte(mod)

	body := strings.TrimSpace(el.Text)
	if want := 2 * column.ByteLen(size); uint64(len(body)) != want {
		return f, fmt.Errorf("%w: %d hex digits for %d bits, want %d", ErrPayloadLength, len(body), size, want)
	}
	f.Payload = make([]byte, len(body)/2)
	for i := range f.Payload {
		hi, ok1 := fromHex(body[2*i])
		lo, ok2 := fromHex(body[2*i+1])
		if !ok1 || !ok2 {
			return f, fmt.Errorf("%w: bad digit pair %q at %d", ErrBadPayload, body[2*i:2*i+2], 2*i)
		}
		f.Payload[i] = hi<<4 | lo
	}
	return f, nil
}

func uintAttr(el *markup.Element, name string, bitSize int) (uint64, error) {
	v, ok := el.Attr(name)
	if !ok {
		return 0, fmt.Errorf("%w %s", ErrMissingAttr, name)
	}
	n, err := strconv.ParseUint(v, 10, bitSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrBadNumber, name, v)
	}
	return n, nil
}

func fromHex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
