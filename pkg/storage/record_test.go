package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCodec_EncodeDecodeRoundTrip(t *testing.T) {
	codec := NewRecordCodec()

	testCases := []struct {
		name string
		kind Kind
		doc  string
		body []byte
	}{
		{
			name: "fields document",
			kind: KindFields,
			doc:  "sample",
			body: []byte("<Fields>\n<Field FieldName=\"A\" FieldSize=8 FieldModifier=0>01</Field>\n</Fields>\n"),
		},
		{
			name: "cflist document",
			kind: KindCFList,
			doc:  "device",
			body: []byte(`<cFList><field type="Boolean" token="C">True</field></cFList>`),
		},
		{
			name: "empty name",
			kind: KindFields,
			body: []byte("<Fields>\n</Fields>\n"),
		},
		{
			name: "empty body",
			kind: KindCFList,
			doc:  "nothing",
		},
		{
			name: "large body",
			kind: KindFields,
			doc:  "big",
			body: bytes.Repeat([]byte("v"), 10240),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := codec.Encode(tc.kind, []byte(tc.doc), tc.body)
			require.NoError(t, err)
			assert.Len(t, encoded, headerSize+len(tc.doc)+len(tc.body))

			record, err := codec.Decode(encoded)
			require.NoError(t, err)
			require.NoError(t, record.Validate())

			assert.Equal(t, tc.kind, record.Kind)
			assert.Equal(t, tc.doc, string(record.Name))
			assert.Equal(t, string(tc.body), string(record.Body))
			assert.Equal(t, uint32(len(tc.doc)), record.NameSize)
			assert.Equal(t, uint32(len(tc.body)), record.BodySize)
			assert.WithinDuration(t, time.Now(), record.Time(), time.Minute)
		})
	}
}

func TestRecordCodec_Layout(t *testing.T) {
	r := &Record{
		Kind:      KindCFList,
		NameSize:  2,
		BodySize:  3,
		Timestamp: 0x0102030405060708,
		Name:      []byte("ab"),
		Body:      []byte("xyz"),
	}
	buf := NewRecordCodec().EncodeRecord(r)

	require.Len(t, buf, 26)
	assert.Equal(t, r.CRC32, binary.LittleEndian.Uint32(buf[0:4]))
	assert.Equal(t, byte(KindCFList), buf[4])
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(buf[5:9]))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(buf[9:13]))
	assert.Equal(t, uint64(0x0102030405060708), binary.LittleEndian.Uint64(buf[13:21]))
	assert.Equal(t, "abxyz", string(buf[21:]))
}

func TestRecordCodec_DetectsCorruption(t *testing.T) {
	codec := NewRecordCodec()
	encoded, err := codec.Encode(KindFields, []byte("name"), []byte("<Fields>\n</Fields>\n"))
	require.NoError(t, err)

	// flip one bit at every position after the CRC
	for i := 4; i < len(encoded); i++ {
		corrupt := append([]byte(nil), encoded...)
		corrupt[i] ^= 0x01

		r, err := codec.Decode(corrupt)
		if err != nil {
			// size fields may now exceed the buffer
			assert.True(t, errors.Is(err, ErrShortRecord), "offset %d: %v", i, err)
			continue
		}
		assert.ErrorIs(t, r.Validate(), ErrChecksum, "offset %d", i)
	}
}

func TestRecordCodec_DecodeErrors(t *testing.T) {
	codec := NewRecordCodec()

	_, err := codec.Decode(make([]byte, headerSize-1))
	assert.ErrorIs(t, err, ErrShortRecord)

	encoded, err := codec.Encode(KindFields, []byte("n"), []byte("body"))
	require.NoError(t, err)
	_, err = codec.Decode(encoded[:len(encoded)-1])
	assert.ErrorIs(t, err, ErrShortRecord)

	_, err = codec.Encode(Kind(9), nil, nil)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestKind(t *testing.T) {
	for _, k := range []Kind{KindFields, KindCFList} {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
		assert.True(t, k.Valid())
	}

	_, err := ParseKind("xml")
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.False(t, Kind(0).Valid())
	assert.Equal(t, "kind(7)", Kind(7).String())
}
