package api

import (
	"time"

	"github.com/segmentio/ksuid"

	"github.com/ssargent/sdds/pkg/storage"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port            int
	Bind            string
	APIKey          string
	ScratchSize     int    // staging buffer per pooled codec
	BufferSize      int    // default <cFList> build buffer
	MaxFields       int    // per whole-store document
	MaxPayloadBytes uint64 // per field
}

// maxBufferSize caps the build buffer a client may ask for.
const maxBufferSize = 1 << 20

// DocumentArchive is the archive surface the handlers need.
type DocumentArchive interface {
	Create(kind storage.Kind, name string, body []byte) (ksuid.KSUID, error)
	Read(id ksuid.KSUID) (*storage.Record, error)
	Update(id ksuid.KSUID, body []byte) error
	Delete(id ksuid.KSUID) error
	List(limit int) ([]storage.Entry, error)
	ListKind(kind storage.Kind, limit int) ([]storage.Entry, error)
	Count() (int, error)
}

// FieldInput is one field of a whole-store document request
type FieldInput struct {
	Name       string `json:"name"`
	SizeBits   uint32 `json:"size_bits"`
	PayloadHex string `json:"payload_hex"`
	Modifier   uint8  `json:"modifier"`
}

// FieldsDocumentRequest creates or replaces a whole-store <Fields> document
type FieldsDocumentRequest struct {
	Name   string       `json:"name"`
	Fields []FieldInput `json:"fields"`
}

// TokenInput is one field of a fixed-buffer document request. Value holds
// the decimal integer, True/False, plain text, or hex digits.
type TokenInput struct {
	Token string `json:"token"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// CFListDocumentRequest creates or replaces a fixed-buffer <cFList> document
type CFListDocumentRequest struct {
	Name       string       `json:"name"`
	BufferSize int          `json:"buffer_size,omitempty"`
	Fields     []TokenInput `json:"fields"`
}

// DocumentResponse describes an archived document
type DocumentResponse struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Name       string    `json:"name"`
	Size       int       `json:"size"`
	CreatedAt  time.Time `json:"created_at"`
	FieldCount int       `json:"field_count,omitempty"`
	TotalBits  uint64    `json:"total_bits,omitempty"`
	TotalBytes uint64    `json:"total_bytes,omitempty"`
	Document   string    `json:"document,omitempty"`
}

// FieldValueResponse is a single extracted field
type FieldValueResponse struct {
	Key      string `json:"key"`
	Type     string `json:"type"`
	Value    string `json:"value"`
	SizeBits uint32 `json:"size_bits,omitempty"`
}

// FieldSummary is one decoded field of a whole-store document
type FieldSummary struct {
	Name       string `json:"name"`
	SizeBits   uint32 `json:"size_bits"`
	Modifier   uint8  `json:"modifier"`
	PayloadHex string `json:"payload_hex"`
}

// DecodeResponse is the result of decoding a whole-store document
type DecodeResponse struct {
	FieldCount int            `json:"field_count"`
	TotalBits  uint64         `json:"total_bits"`
	TotalBytes uint64         `json:"total_bytes"`
	Fields     []FieldSummary `json:"fields"`
}
