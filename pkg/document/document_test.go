package document

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/sdds/pkg/cflist"
	"github.com/ssargent/sdds/pkg/fields"
	"github.com/ssargent/sdds/pkg/markup"
)

const sampleText = "<Fields>\n" +
	"<Field FieldName=\"A\" FieldSize=8 FieldModifier=0>01</Field>\n" +
	"<Field FieldName=\"B\" FieldSize=48 FieldModifier=0>010203040506</Field>\n" +
	"<Field FieldName=\"C\" FieldSize=96 FieldModifier=3>48656C6C6F20546865726521</Field>\n" +
	"</Fields>\n"

func newSampleStore(t *testing.T) *fields.Store {
	t.Helper()
	s := fields.NewStore()
	require.NoError(t, s.Add("A", 8, []byte{0x01}, 0))
	require.NoError(t, s.Add("B", 48, []byte{1, 2, 3, 4, 5, 6}, 0))
	require.NoError(t, s.Add("C", 96, []byte("Hello There!"), 3))
	return s
}

func TestEncode(t *testing.T) {
	s := newSampleStore(t)
	assert.Equal(t, sampleText, Encode(s))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, s))
	assert.Equal(t, sampleText, buf.String())
}

func TestEncode_Empty(t *testing.T) {
	assert.Equal(t, "<Fields>\n</Fields>\n", Encode(fields.NewStore()))
}

func TestEncode_PartialByte(t *testing.T) {
	s := fields.NewStore()
	require.NoError(t, s.Add("flags", 3, []byte{0xFF}, 255))
	require.NoError(t, s.Add("empty", 0, nil, 0))

	want := "<Fields>\n" +
		"<Field FieldName=\"flags\" FieldSize=3 FieldModifier=255>07</Field>\n" +
		"<Field FieldName=\"empty\" FieldSize=0 FieldModifier=0></Field>\n" +
		"</Fields>\n"
	assert.Equal(t, want, Encode(s))
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWrite_PropagatesError(t *testing.T) {
	err := Write(failWriter{}, newSampleStore(t))
	assert.EqualError(t, err, "disk full")
}

func TestDecode_RoundTrip(t *testing.T) {
	s := newSampleStore(t)
	decoded, err := Decode([]byte(Encode(s)))
	require.NoError(t, err)

	assert.Equal(t, s.Fields(), decoded.Fields())
	assert.Equal(t, 3, decoded.FieldCount())
	assert.Equal(t, uint64(152), decoded.TotalBitSize())
	assert.Equal(t, uint64(19), decoded.TotalByteSize())
	assert.Equal(t, sampleText, Encode(decoded))
}

func TestDecode_Lenient(t *testing.T) {
	text := "  <Fields>\n\t<Field FieldSize=\"12\" FieldName=\"x\" FieldModifier=\"1\" > 0fff </Field>\r\n</Fields>"
	s, err := Decode([]byte(text))
	require.NoError(t, err)

	f, ok := s.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, uint32(12), f.SizeBits)
	assert.Equal(t, byte(1), f.Modifier)
	assert.Equal(t, []byte{0x0F, 0x0F}, f.Payload, "tail bits beyond FieldSize are masked")
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		field string
		want  error
	}{
		{
			name: "wrong root",
			text: `<cFList></cFList>`,
			want: ErrWrongRoot,
		},
		{
			name: "wrong child",
			text: `<Fields><field FieldName="A" FieldSize=8 FieldModifier=0>01</field></Fields>`,
			want: ErrWrongElement,
		},
		{
			name:  "missing size",
			text:  `<Fields><Field FieldName="A" FieldModifier=0>01</Field></Fields>`,
			field: "A",
			want:  ErrMissingAttr,
		},
		{
			name: "missing name",
			text: `<Fields><Field FieldSize=8 FieldModifier=0>01</Field></Fields>`,
			want: ErrMissingAttr,
		},
		{
			name:  "non numeric size",
			text:  `<Fields><Field FieldName="A" FieldSize=eight FieldModifier=0>01</Field></Fields>`,
			field: "A",
			want:  ErrBadNumber,
		},
		{
			name:  "modifier out of range",
			text:  `<Fields><Field FieldName="A" FieldSize=8 FieldModifier=256>01</Field></Fields>`,
			field: "A",
			want:  ErrBadNumber,
		},
		{
			name:  "unknown attribute",
			text:  `<Fields><Field FieldName="A" FieldSize=8 FieldModifier=0 Extra=1>01</Field></Fields>`,
			field: "A",
			want:  ErrUnknownAttr,
		},
		{
			name:  "payload too short",
			text:  `<Fields><Field FieldName="A" FieldSize=16 FieldModifier=0>01</Field></Fields>`,
			field: "A",
			want:  ErrPayloadLength,
		},
		{
			name:  "odd digits",
			text:  `<Fields><Field FieldName="A" FieldSize=8 FieldModifier=0>1</Field></Fields>`,
			field: "A",
			want:  ErrPayloadLength,
		},
		{
			name:  "bad digit",
			text:  `<Fields><Field FieldName="A" FieldSize=8 FieldModifier=0>0Z</Field></Fields>`,
			field: "A",
			want:  ErrBadPayload,
		},
		{
			name: "duplicate name",
			text: `<Fields>` +
				`<Field FieldName="A" FieldSize=8 FieldModifier=0>01</Field>` +
				`<Field FieldName="A" FieldSize=8 FieldModifier=0>02</Field>` +
				`</Fields>`,
			field: "A",
			want:  fields.ErrDuplicateName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Decode([]byte(tt.text))
			assert.Nil(t, s)

			var pe *ParseError
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Equal(t, tt.field, pe.Field)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecode_SyntaxError(t *testing.T) {
	_, err := Decode([]byte("<Fields>\n<Field FieldName=\"A\" FieldSize=8 FieldModifier=0>01</Fields>"))

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	var syn *markup.SyntaxError
	require.True(t, errors.As(err, &syn))
	assert.Equal(t, 2, pe.Pos.Line)
}

func TestDecode_Limits(t *testing.T) {
	_, err := Decode([]byte(sampleText), fields.WithLimits(fields.Limits{MaxFields: 2}))
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "C", pe.Field)
	assert.ErrorIs(t, err, fields.ErrTooManyFields)
}

func TestExtractPayload(t *testing.T) {
	c := cflist.NewCodec(nil)
	doc := []byte(sampleText)

	payload, size, err := ExtractPayload(c, doc, "A")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, payload)
	assert.Equal(t, uint32(8), size)

	payload, size, err = ExtractPayload(c, doc, "C")
	require.NoError(t, err)
	assert.Equal(t, "Hello There!", string(payload))
	assert.Equal(t, uint32(96), size)

	_, _, err = ExtractPayload(c, doc, "D")
	assert.ErrorIs(t, err, cflist.ErrNotFound)

	assert.Equal(t, sampleText, string(doc))
	assert.False(t, c.Scratch().InUse())
}

func TestExtractPayload_NameLooksLikeAttribute(t *testing.T) {
	s := fields.NewStore()
	require.NoError(t, s.Add("x FieldSize=16", 8, []byte{0x01}, 0))
	require.NoError(t, s.Add("y", 16, []byte{0xAB, 0xCD}, 0))

	text := Encode(s)
	_, err := Decode([]byte(text))
	require.NoError(t, err)

	c := cflist.NewCodec(nil)
	payload, size, err := ExtractPayload(c, []byte(text), "x FieldSize=16")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, payload)
	assert.Equal(t, uint32(8), size)

	payload, size, err = ExtractPayload(c, []byte(text), "y")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAB, 0xCD}, payload)
	assert.Equal(t, uint32(16), size)
	assert.False(t, c.Scratch().InUse())
}

func TestExtractPayload_HexText(t *testing.T) {
	c := cflist.NewCodec(nil)
	fragment, ok, err := c.FindField([]byte(sampleText), AttrName, "A")
	require.NoError(t, err)
	require.True(t, ok)

	hex, ok := cflist.FindTextBetween(fragment, ">", "")
	require.True(t, ok)
	assert.Equal(t, "01", hex)
}

func TestExtractPayload_AfterRemove(t *testing.T) {
	s := newSampleStore(t)
	require.NoError(t, s.Remove("B"))
	assert.Equal(t, 2, s.FieldCount())
	assert.Equal(t, uint64(104), s.TotalBitSize())

	doc := []byte(Encode(s))
	assert.False(t, strings.Contains(string(doc), `FieldName="B"`))

	c := cflist.NewCodec(nil)
	_, _, err := ExtractPayload(c, doc, "B")
	assert.ErrorIs(t, err, cflist.ErrNotFound)

	payload, _, err := ExtractPayload(c, doc, "C")
	require.NoError(t, err)
	assert.Equal(t, []byte("Hello There!"), payload)
}

func TestExtractPayload_Mismatch(t *testing.T) {
	c := cflist.NewCodec(nil)
	doc := []byte(`<Fields><Field FieldName="A" FieldSize=16 FieldModifier=0>01</Field></Fields>`)
	_, _, err := ExtractPayload(c, doc, "A")
	assert.ErrorIs(t, err, ErrPayloadLength)
}
