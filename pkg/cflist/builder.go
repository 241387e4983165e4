package cflist

import (
	"fmt"
	"strconv"
	"strings"
)

// Builder appends a document into a caller-owned fixed buffer. Content is
// always followed by a NUL byte, so the buffer can be handed straight to the
// extraction side.
type Builder struct {
	codec *Codec
	buf   []byte
	off   int
}

// NewBuilder creates a builder over buf that stages through c.
func (c *Codec) NewBuilder(buf []byte) *Builder {
	return &Builder{codec: c, buf: buf}
}

// Start writes the opening marker.
func (b *Builder) Start() {
	b.appendString(StartMarker)
}

// End writes the closing marker.
func (b *Builder) End() {
	b.appendString(EndMarker)
}

// AddUnsigned appends an Integer field holding v.
func (b *Builder) AddUnsigned(token string, v uint64) {
	_ = b.codec.scratch.with(func(buf []byte) error {
		n := len(strconv.AppendUint(buf[:0], v, 10))
		b.appendField(TypeInteger, token, buf[:n])
		return nil
	})
}

// AddSigned appends an Integer field holding v.
func (b *Builder) AddSigned(token string, v int64) {
	_ = b.codec.scratch.with(func(buf []byte) error {
		n := len(strconv.AppendInt(buf[:0], v, 10))
		b.appendField(TypeInteger, token, buf[:n])
		return nil
	})
}

// AddBool appends a Boolean field.
func (b *Builder) AddBool(token string, v bool) {
	s := boolFalse
	if v {
		s = boolTrue
	}
	b.appendField(TypeBoolean, token, []byte(s))
}

// AddString appends a String field. The value is escaped first.
func (b *Builder) AddString(token string, v string) {
	n := b.codec.escapeStaged(v)
	_ = b.codec.scratch.with(func(buf []byte) error {
		b.appendField(TypeString, token, buf[:n])
		return nil
	})
}

// AddHexBinary appends a HexBinary field rendering v as uppercase pairs.
func (b *Builder) AddHexBinary(token string, v []byte) {
	_ = b.codec.scratch.with(func(buf []byte) error {
		st := stager{buf: buf, what: "staging buffer"}
		st.writeHex(v)
		b.appendField(TypeHexBinary, token, buf[:st.off])
		return nil
	})
}

// AddValue appends a field of type typ from its text form: a decimal
// integer, anything strconv.ParseBool accepts, plain text, or hex digits.
// Unlike the typed adders it reports bad input as an error. Overflowing the
// buffer still panics.
func (b *Builder) AddValue(token string, typ FieldType, value string) error {
	if !ValidToken(token) {
		return fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}
	switch typ {
	case TypeInteger:
		if strings.HasPrefix(value, "-") {
			v, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("%w: token %q: integer %q", ErrInvalidValue, token, value)
			}
			b.AddSigned(token, v)
			return nil
		}
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: token %q: integer %q", ErrInvalidValue, token, value)
		}
		b.AddUnsigned(token, v)
	case TypeBoolean:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: token %q: boolean %q", ErrInvalidValue, token, value)
		}
		b.AddBool(token, v)
	case TypeString:
		b.AddString(token, value)
	case TypeHexBinary:
		if len(value)%2 != 0 {
			return fmt.Errorf("%w: token %q: odd hex length %d", ErrInvalidValue, token, len(value))
		}
		v := make([]byte, len(value)/2)
		for i := 0; i < len(value); i += 2 {
			hi, ok1 := fromHexChar(value[i])
			lo, ok2 := fromHexChar(value[i+1])
			if !ok1 || !ok2 {
				return fmt.Errorf("%w: token %q: bad hex pair %q at %d", ErrInvalidValue, token, value[i:i+2], i)
			}
			v[i/2] = hi<<4 | lo
		}
		b.AddHexBinary(token, v)
	default:
		return fmt.Errorf("%w: token %q: type %q", ErrInvalidValue, token, typ)
	}
	return nil
}

// ValidToken reports whether token can be written into a field unescaped.
func ValidToken(token string) bool {
	return token != "" && !strings.ContainsAny(token, "\"<>&")
}

func (b *Builder) appendField(typ FieldType, token string, value []byte) {
	if !ValidToken(token) {
		panic(fmt.Sprintf("cflist: invalid token %q", token))
	}

	st := stager{buf: b.buf, off: b.off, what: "document buffer"}
	st.reserve(len(fieldOpen) + len(typ) + len(fieldToken) + len(token) + len(fieldBody) + len(value) + len(fieldClose))
	st.writeString(fieldOpen)
	st.writeString(string(typ))
	st.writeString(fieldToken)
	st.writeString(token)
	st.writeString(fieldBody)
	st.write(value)
	st.writeString(fieldClose)
	st.terminate()
	b.off = st.off
}

func (b *Builder) appendString(s string) {
	st := stager{buf: b.buf, off: b.off, what: "document buffer"}
	st.writeString(s)
	st.terminate()
	b.off = st.off
}

// Len returns the number of content bytes written.
func (b *Builder) Len() int {
	return b.off
}

// Remaining returns how many more content bytes fit.
func (b *Builder) Remaining() int {
	if left := len(b.buf) - b.off - 1; left > 0 {
		return left
	}
	return 0
}

// Bytes returns the document written so far, without the terminator.
func (b *Builder) Bytes() []byte {
	return b.buf[:b.off]
}

// String returns the document written so far.
func (b *Builder) String() string {
	return string(b.buf[:b.off])
}
