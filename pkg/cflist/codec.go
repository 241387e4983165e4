package cflist

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// FieldType is the declared type of a field.
type FieldType string

const (
	TypeInteger   FieldType = "Integer"
	TypeBoolean   FieldType = "Boolean"
	TypeString    FieldType = "String"
	TypeHexBinary FieldType = "HexBinary"
)

// Valid reports whether t is one of the four known types.
func (t FieldType) Valid() bool {
	switch t {
	case TypeInteger, TypeBoolean, TypeString, TypeHexBinary:
		return true
	}
	return false
}

// Document markers and the per-field template pieces.
const (
	StartMarker = "<cFList>"
	EndMarker   = "</cFList>"

	fieldOpen  = `<field type="`
	fieldToken = `" token="`
	fieldBody  = `">`
	fieldClose = `</field>`
)

// Well-known tokens.
const (
	TokenSize          = "A"
	TokenSerial        = "B"
	TokenSupportsPower = "C"
)

const (
	boolTrue  = "True"
	boolFalse = "False"
)

// Codec owns a staging buffer and runs every build and extraction step
// through it.
type Codec struct {
	scratch *Scratch
	log     *logrus.Entry
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithLogger sets the logger used for extraction tracing.
func WithLogger(log *logrus.Entry) CodecOption {
	return func(c *Codec) {
		c.log = log
	}
}

// NewCodec creates a codec over scratch. A nil scratch gets a fresh buffer
// of DefaultScratchSize.
func NewCodec(scratch *Scratch, opts ...CodecOption) *Codec {
	if scratch == nil {
		scratch = NewScratch(DefaultScratchSize)
	}
	c := &Codec{scratch: scratch}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logrus.NewEntry(logrus.StandardLogger())
	}
	return c
}

// Scratch returns the codec's staging buffer.
func (c *Codec) Scratch() *Scratch {
	return c.scratch
}

// Default is the process-wide codec used by the package level helpers.
var Default = NewCodec(NewScratch(DefaultScratchSize))

// Pool hands out codecs to concurrent callers, one staging buffer each.
type Pool struct {
	pool sync.Pool
}

// NewPool creates a pool whose codecs use staging buffers of scratchSize bytes.
func NewPool(scratchSize int, opts ...CodecOption) *Pool {
	p := &Pool{}
	p.pool.New = func() interface{} {
		return NewCodec(NewScratch(scratchSize), opts...)
	}
	return p
}

// Get takes a codec from the pool.
func (p *Pool) Get() *Codec {
	return p.pool.Get().(*Codec)
}

// Put returns a codec to the pool. A codec whose buffer is still held is
// dropped rather than shared.
func (p *Pool) Put(c *Codec) {
	if c == nil || c.scratch.InUse() {
		return
	}
	p.pool.Put(c)
}

// Escape is Default.Escape.
func Escape(s string) string {
	return Default.Escape(s)
}

// Unescape is Default.Unescape.
func Unescape(s string) (string, error) {
	return Default.Unescape(s)
}

// NewBuilder creates a builder over buf that stages through Default.
func NewBuilder(buf []byte) *Builder {
	return Default.NewBuilder(buf)
}

// FindFieldByToken is Default.FindFieldByToken.
func FindFieldByToken(doc []byte, token string) (string, bool, error) {
	return Default.FindFieldByToken(doc, token)
}
