package fields

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ssargent/sdds/pkg/column"
)

var (
	ErrDuplicateName = errors.New("field name already exists")
	ErrNotFound      = errors.New("field not found")
	ErrShortPayload  = errors.New("payload shorter than declared size")
	ErrTooManyFields = errors.New("field limit reached")
)

// Field is a single named value. Payload always holds ceil(SizeBits/8) bytes.
type Field struct {
	Name     string
	SizeBits uint32
	Payload  []byte
	Modifier byte
}

// ByteSize returns the number of payload bytes the field occupies.
func (f Field) ByteSize() uint64 {
	return column.ByteLen(uint64(f.SizeBits))
}

// Limits caps what a store may allocate. Zero values fall back to the column
// package defaults.
type Limits struct {
	MaxFields       int
	MaxPayloadBytes uint64
}

// Option configures a Store.
type Option func(*Store)

// WithLimits sets allocation limits on the store.
func WithLimits(l Limits) Option {
	return func(s *Store) {
		s.limits = l
	}
}

// Store is an ordered, name-unique table of fields.
type Store struct {
	names     []string
	payloads  [][]byte
	sizes     []uint32
	modifiers []byte
	count     int
	limits    Limits

	// beforeGrow, when set, runs before each column append; tests use it
	// to fail a column part way through Add.
	beforeGrow func(column string) error
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// indexOf returns the position of name or -1.
func (s *Store) indexOf(name string) int {
	for i := 0; i < s.count; i++ {
		if s.names[i] == name {
			return i
		}
	}
	return -1
}

// Add appends a field. The store keeps its own copy of name and of the first
// ceil(sizeBits/8) bytes of payload. On any error the store is left unchanged.
func (s *Store) Add(name string, sizeBits uint32, payload []byte, modifier byte) error {
	if s.indexOf(name) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	if s.limits.MaxFields > 0 && s.count >= s.limits.MaxFields {
		return fmt.Errorf("%w: %d", ErrTooManyFields, s.limits.MaxFields)
	}

	n := column.ByteLen(uint64(sizeBits))
	if uint64(len(payload)) < n {
		return fmt.Errorf("%w: %q needs %d bytes, got %d", ErrShortPayload, name, n, len(payload))
	}

	owned, err := column.CopyBytes(payload, n, s.limits.MaxPayloadBytes)
	if err != nil {
		return fmt.Errorf("failed to copy payload for %q: %w", name, err)
	}
	column.MaskTail(owned, uint64(sizeBits))

	return s.appendRow(name, sizeBits, owned, modifier)
}

// appendRow grows every column by one entry. When a column fails the ones
// already grown are cut back, so count and the columns stay in step.
func (s *Store) appendRow(name string, sizeBits uint32, payload []byte, modifier byte) error {
	newLen := s.count + 1
	ownedName := strings.Clone(name)

	cols := []struct {
		name string
		grow func() error
		undo func()
	}{
		{"size", func() error { return column.Append(&s.sizes, newLen, sizeBits) }, func() { column.Truncate(&s.sizes, s.count) }},
		{"modifier", func() error { return column.Append(&s.modifiers, newLen, modifier) }, func() { column.Truncate(&s.modifiers, s.count) }},
		{"payload", func() error { return column.Append(&s.payloads, newLen, payload) }, func() { column.Truncate(&s.payloads, s.count) }},
		{"name", func() error { return column.Append(&s.names, newLen, ownedName) }, func() { column.Truncate(&s.names, s.count) }},
	}

	for i, c := range cols {
		var err error
		if s.beforeGrow != nil {
			err = s.beforeGrow(c.name)
		}
		if err == nil {
			err = c.grow()
		}
		if err != nil {
			for j := i - 1; j >= 0; j-- {
				cols[j].undo()
			}
			return fmt.Errorf("failed to grow %s column: %w", c.name, err)
		}
	}

	// only counted once every column holds the new entry
	s.count = newLen
	return nil
}

// AddField is Add for a Field value.
func (s *Store) AddField(f Field) error {
	return s.Add(f.Name, f.SizeBits, f.Payload, f.Modifier)
}

// Remove deletes the named field, keeping the order of the remaining ones.
func (s *Store) Remove(name string) error {
	i := s.indexOf(name)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	for _, err := range []error{
		column.RemoveAt(&s.names, i),
		column.RemoveAt(&s.payloads, i),
		column.RemoveAt(&s.sizes, i),
		column.RemoveAt(&s.modifiers, i),
	} {
		if err != nil {
			// columns are always count long, so this means the invariant broke
			panic(fmt.Sprintf("fields: column out of step removing %q: %v", name, err))
		}
	}
	s.count--
	return nil
}

// Lookup returns the named field. The payload is a copy; the store keeps sole
// ownership of its buffers.
func (s *Store) Lookup(name string) (Field, bool) {
	i := s.indexOf(name)
	if i < 0 {
		return Field{}, false
	}
	return s.fieldAt(i), true
}

func (s *Store) fieldAt(i int) Field {
	return Field{
		Name:     s.names[i],
		SizeBits: s.sizes[i],
		Payload:  append([]byte(nil), s.payloads[i]...),
		Modifier: s.modifiers[i],
	}
}

// FieldCount returns the number of fields in the store.
func (s *Store) FieldCount() int {
	return s.count
}

// TotalBitSize sums the declared size of every field.
func (s *Store) TotalBitSize() uint64 {
	var total uint64
	for i := 0; i < s.count; i++ {
		total += uint64(s.sizes[i])
	}
	return total
}

// TotalByteSize is TotalBitSize rounded up to whole bytes.
func (s *Store) TotalByteSize() uint64 {
	return column.ByteLen(s.TotalBitSize())
}

// Names returns field names in insertion order.
func (s *Store) Names() []string {
	names := make([]string, s.count)
	copy(names, s.names)
	return names
}

// Fields returns copies of every field in insertion order.
func (s *Store) Fields() []Field {
	out := make([]Field, 0, s.count)
	for i := 0; i < s.count; i++ {
		out = append(out, s.fieldAt(i))
	}
	return out
}

// Each calls fn for every field in order without copying payloads. fn must not
// retain or modify the payload slice. Iteration stops at the first error.
func (s *Store) Each(fn func(name string, sizeBits uint32, payload []byte, modifier byte) error) error {
	for i := 0; i < s.count; i++ {
		if err := fn(s.names[i], s.sizes[i], s.payloads[i], s.modifiers[i]); err != nil {
			return err
		}
	}
	return nil
}

// String lists field names, one per line.
func (s *Store) String() string {
	var sb strings.Builder
	for i := 0; i < s.count; i++ {
		sb.WriteString(s.names[i])
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Close releases every owned buffer. The store is empty and usable afterwards.
func (s *Store) Close() {
	clear(s.payloads)
	clear(s.names)
	s.names = nil
	s.payloads = nil
	s.sizes = nil
	s.modifiers = nil
	s.count = 0
}
