package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"time"
)

// headerSize is CRC32(4) + Kind(1) + NameSize(4) + BodySize(4) + Timestamp(8).
const headerSize = 21

var (
	ErrChecksum    = errors.New("storage: record checksum mismatch")
	ErrShortRecord = errors.New("storage: record truncated")
	ErrUnknownKind = errors.New("storage: unknown document kind")
)

// Kind says which document format a record body holds.
type Kind uint8

const (
	KindFields Kind = iota + 1 // whole-store <Fields> document
	KindCFList                 // fixed-buffer <cFList> document
)

func (k Kind) String() string {
	switch k {
	case KindFields:
		return "fields"
	case KindCFList:
		return "cflist"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindFields || k == KindCFList
}

// ParseKind maps "fields" or "cflist" to its Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "fields":
		return KindFields, nil
	case "cflist":
		return KindCFList, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Record is one archived document with its frame metadata.
type Record struct {
	CRC32     uint32
	Kind      Kind
	NameSize  uint32
	BodySize  uint32
	Timestamp uint64 // Unix nanoseconds
	Name      []byte
	Body      []byte
}

// NewRecord creates a record stamped with the current time.
func NewRecord(kind Kind, name, body []byte) *Record {
	if uint64(len(name)) > uint64(^uint32(0)) {
		panic("storage: name too large")
	}
	if uint64(len(body)) > uint64(^uint32(0)) {
		panic("storage: body too large")
	}
	return &Record{
		Kind:      kind,
		NameSize:  uint32(len(name)),
		BodySize:  uint32(len(body)),
		Timestamp: uint64(time.Now().UnixNano()),
		Name:      name,
		Body:      body,
	}
}

// Size returns the encoded length of the record.
func (r *Record) Size() int {
	return headerSize + len(r.Name) + len(r.Body)
}

// Time returns the record timestamp.
func (r *Record) Time() time.Time {
	return time.Unix(0, int64(r.Timestamp))
}

// Validate checks the stored checksum against the record contents.
func (r *Record) Validate() error {
	if sum := r.checksum(); r.CRC32 != sum {
		return fmt.Errorf("%w: %08x != %08x", ErrChecksum, r.CRC32, sum)
	}
	return nil
}

func (r *Record) checksum() uint32 {
	var hdr [headerSize - 4]byte
	hdr[0] = byte(r.Kind)
	binary.LittleEndian.PutUint32(hdr[1:], r.NameSize)
	binary.LittleEndian.PutUint32(hdr[5:], r.BodySize)
	binary.LittleEndian.PutUint64(hdr[9:], r.Timestamp)

	crc := crc32.NewIEEE()
	crc.Write(hdr[:])
	crc.Write(r.Name)
	crc.Write(r.Body)
	return crc.Sum32()
}

// RecordCodec frames records for the archive.
type RecordCodec struct{}

// NewRecordCodec creates a record codec.
func NewRecordCodec() *RecordCodec {
	return &RecordCodec{}
}

// Encode frames a new record for kind, name and body.
func (c *RecordCodec) Encode(kind Kind, name, body []byte) ([]byte, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}
	return c.EncodeRecord(NewRecord(kind, name, body)), nil
}

// EncodeRecord frames r, computing its checksum.
func (c *RecordCodec) EncodeRecord(r *Record) []byte {
	r.CRC32 = r.checksum()

	buf := make([]byte, r.Size())
	binary.LittleEndian.PutUint32(buf[0:], r.CRC32)
	buf[4] = byte(r.Kind)
	binary.LittleEndian.PutUint32(buf[5:], r.NameSize)
	binary.LittleEndian.PutUint32(buf[9:], r.BodySize)
	binary.LittleEndian.PutUint64(buf[13:], r.Timestamp)
	copy(buf[headerSize:], r.Name)
	copy(buf[headerSize+len(r.Name):], r.Body)
	return buf
}

// Decode parses a framed record. Name and Body alias data. The checksum is
// not verified; call Validate.
func (c *RecordCodec) Decode(data []byte) (*Record, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes, header needs %d", ErrShortRecord, len(data), headerSize)
	}

	r := &Record{
		CRC32:     binary.LittleEndian.Uint32(data[0:]),
		Kind:      Kind(data[4]),
		NameSize:  binary.LittleEndian.Uint32(data[5:]),
		BodySize:  binary.LittleEndian.Uint32(data[9:]),
		Timestamp: binary.LittleEndian.Uint64(data[13:]),
	}

	need := uint64(headerSize) + uint64(r.NameSize) + uint64(r.BodySize)
	if uint64(len(data)) < need {
		return nil, fmt.Errorf("%w: %d bytes, record needs %d", ErrShortRecord, len(data), need)
	}

	nameEnd := headerSize + int(r.NameSize)
	r.Name = data[headerSize:nameEnd]
	r.Body = data[nameEnd : nameEnd+int(r.BodySize)]
	return r, nil
}
