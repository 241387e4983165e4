package cflist

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ssargent/sdds/pkg/markup"
)

// Attributes of a fixed-buffer field.
const (
	TokenAttr = "token"
	TypeAttr  = "type"
)

var (
	ErrNotFound       = errors.New("cflist: field not found")
	ErrTypeMismatch   = errors.New("cflist: field type mismatch")
	ErrMalformedField = errors.New("cflist: malformed field")
	ErrInvalidHex     = errors.New("cflist: invalid hex payload")
	ErrInvalidToken   = errors.New("cflist: invalid token")
	ErrInvalidValue   = errors.New("cflist: invalid field value")
)

// FindTextBetween returns the text after the first occurrence of left and
// before the next occurrence of right. An empty right means "to the end".
func FindTextBetween(s, left, right string) (string, bool) {
	i := strings.Index(s, left)
	if i < 0 {
		return "", false
	}
	rest := s[i+len(left):]
	if right == "" {
		return rest, true
	}
	j := strings.Index(rest, right)
	if j < 0 {
		return "", false
	}
	return rest[:j], true
}

// FindFieldByToken returns the fragment of the field whose token is exactly
// token, e.g. `field type="String" token="B">Test`.
func (c *Codec) FindFieldByToken(doc []byte, token string) (string, bool, error) {
	return c.FindField(doc, TokenAttr, token)
}

// FindField returns the fragment of the first child element whose attr
// attribute equals key exactly. doc is read up to its first NUL byte and is
// never modified; the search runs on a copy in the staging buffer, which holds
// the matched fragment at its front afterwards.
func (c *Codec) FindField(doc []byte, attr, key string) (string, bool, error) {
	_, fragment, found, err := c.find(doc, attr, key)
	return fragment, found, err
}

// FindElement is FindField returning the parsed element, so callers read
// attributes and text without re-scanning the fragment.
func (c *Codec) FindElement(doc []byte, attr, key string) (*markup.Element, bool, error) {
	el, _, found, err := c.find(doc, attr, key)
	if err != nil || !found {
		return nil, found, err
	}
	return el, true, nil
}

func (c *Codec) find(doc []byte, attr, key string) (*markup.Element, string, bool, error) {
	if i := bytes.IndexByte(doc, 0); i >= 0 {
		doc = doc[:i]
	}

	var (
		match    *markup.Element
		fragment string
	)
	err := c.scratch.with(func(buf []byte) error {
		st := stager{buf: buf, what: "staging buffer"}
		st.write(doc)
		st.terminate()

		parsed, err := markup.Parse(buf[:st.off])
		if err != nil {
			return err
		}

		log := c.log.WithFields(logrus.Fields{"attr": attr, "key": key})
		for i := range parsed.Children {
			el := &parsed.Children[i]
			v, ok := el.Attr(attr)
			// length first so a prefix never matches
			if !ok || len(v) != len(key) || v != key {
				log.WithField("element", el.Pos.String()).Trace("skipping field")
				continue
			}

			n := copy(buf, buf[el.Fragment.Start:el.Fragment.End])
			buf[n] = 0
			fragment = string(buf[:n])
			match = el
			log.Debug("field found")
			return nil
		}

		log.WithField("scanned", len(parsed.Children)).Debug("field not found")
		return nil
	})
	if err != nil {
		return nil, "", false, err
	}
	return match, fragment, match != nil, nil
}

// Field returns the declared type and raw (still escaped) value of a field.
func (c *Codec) Field(doc []byte, token string) (FieldType, string, error) {
	el, ok, err := c.FindElement(doc, TokenAttr, token)
	if err != nil {
		return "", "", err
	}
	if !ok {
		return "", "", fmt.Errorf("%w: token %q", ErrNotFound, token)
	}

	typ, ok := el.Attr(TypeAttr)
	if !ok {
		return "", "", fmt.Errorf("%w: token %q has no type", ErrMalformedField, token)
	}
	return FieldType(typ), el.Text, nil
}

// Type returns the declared type of the field with token.
func (c *Codec) Type(doc []byte, token string) (FieldType, error) {
	typ, _, err := c.Field(doc, token)
	return typ, err
}

func (c *Codec) typedValue(doc []byte, token string, want FieldType) (string, error) {
	typ, value, err := c.Field(doc, token)
	if err != nil {
		return "", err
	}
	if typ != want {
		return "", fmt.Errorf("%w: token %q is %s, not %s", ErrTypeMismatch, token, typ, want)
	}
	return value, nil
}

// String returns the unescaped value of a String field.
func (c *Codec) String(doc []byte, token string) (string, error) {
	value, err := c.typedValue(doc, token, TypeString)
	if err != nil {
		return "", err
	}
	return c.Unescape(value)
}

// Unsigned returns the value of an Integer field as uint64.
func (c *Codec) Unsigned(doc []byte, token string) (uint64, error) {
	value, err := c.typedValue(doc, token, TypeInteger)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("token %q: %w", token, err)
	}
	return v, nil
}

// Signed returns the value of an Integer field as int64.
func (c *Codec) Signed(doc []byte, token string) (int64, error) {
	value, err := c.typedValue(doc, token, TypeInteger)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("token %q: %w", token, err)
	}
	return v, nil
}

// Bool returns the value of a Boolean field.
func (c *Codec) Bool(doc []byte, token string) (bool, error) {
	value, err := c.typedValue(doc, token, TypeBoolean)
	if err != nil {
		return false, err
	}
	switch value {
	case boolTrue:
		return true, nil
	case boolFalse:
		return false, nil
	}
	return false, fmt.Errorf("%w: token %q has boolean value %q", ErrMalformedField, token, value)
}

// HexBinary returns the decoded payload of a HexBinary field.
func (c *Codec) HexBinary(doc []byte, token string) ([]byte, error) {
	value, err := c.typedValue(doc, token, TypeHexBinary)
	if err != nil {
		return nil, err
	}
	return c.DecodeHex(value)
}

// DecodeHex decodes pairs of hex digits. The text is staged and decoded in
// place: each byte is written at half the offset it was read from, which never
// overtakes the read cursor.
func (c *Codec) DecodeHex(value string) ([]byte, error) {
	if len(value)%2 != 0 {
		return nil, fmt.Errorf("%w: odd length %d", ErrInvalidHex, len(value))
	}

	var out []byte
	err := c.scratch.with(func(buf []byte) error {
		st := stager{buf: buf, what: "staging buffer"}
		st.writeString(value)

		for r := 0; r < st.off; r += 2 {
			hi, ok1 := fromHexChar(buf[r])
			lo, ok2 := fromHexChar(buf[r+1])
			if !ok1 || !ok2 {
				return fmt.Errorf("%w: bad digit pair %q at offset %d", ErrInvalidHex, buf[r:r+2], r)
			}
			buf[r/2] = hi<<4 | lo
		}
		n := st.off / 2
		buf[n] = 0
		out = append([]byte{}, buf[:n]...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func fromHexChar(c byte) (byte, bool) {
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
