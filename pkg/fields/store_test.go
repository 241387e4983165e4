package fields

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/sdds/pkg/column"
)

// newSampleStore builds the three-field store used throughout the docs:
// A is one byte, B six bytes, C the ASCII text "Hello There!".
func newSampleStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	require.NoError(t, s.Add("A", 8, []byte{0x01}, 0))
	require.NoError(t, s.Add("B", 48, []byte{1, 2, 3, 4, 5, 6}, 0))
	c := []byte("Hello There!")
	require.NoError(t, s.Add("C", uint32(len(c)*8), c, 0))
	return s
}

func TestStore_SampleScenario(t *testing.T) {
	s := newSampleStore(t)

	assert.Equal(t, 3, s.FieldCount())
	assert.Equal(t, uint64(152), s.TotalBitSize())
	assert.Equal(t, uint64(19), s.TotalByteSize())
	assert.Equal(t, "A\nB\nC\n", s.String())

	require.NoError(t, s.Remove("B"))
	assert.Equal(t, 2, s.FieldCount())
	assert.Equal(t, uint64(104), s.TotalBitSize())
	assert.Equal(t, uint64(13), s.TotalByteSize())
	assert.Equal(t, []string{"A", "C"}, s.Names())
}

func TestStore_Add(t *testing.T) {
	t.Run("duplicate name leaves store unchanged", func(t *testing.T) {
		s := newSampleStore(t)
		before := s.Fields()

		err := s.Add("B", 8, []byte{0xFF}, 1)
		assert.ErrorIs(t, err, ErrDuplicateName)
		assert.Equal(t, 3, s.FieldCount())
		assert.Equal(t, before, s.Fields())
	})

	t.Run("payload is copied", func(t *testing.T) {
		s := NewStore()
		payload := []byte{0xAA, 0xBB}
		require.NoError(t, s.Add("X", 16, payload, 0))

		payload[0] = 0x00
		f, ok := s.Lookup("X")
		require.True(t, ok)
		assert.Equal(t, []byte{0xAA, 0xBB}, f.Payload)
	})

	t.Run("only ceil(bits/8) bytes are kept", func(t *testing.T) {
		s := NewStore()
		require.NoError(t, s.Add("X", 12, []byte{0x12, 0x34, 0x56}, 0))

		f, ok := s.Lookup("X")
		require.True(t, ok)
		assert.Len(t, f.Payload, 2)
		assert.Equal(t, uint64(2), f.ByteSize())
	})

	t.Run("unused tail bits are masked", func(t *testing.T) {
		s := NewStore()
		require.NoError(t, s.Add("X", 12, []byte{0xFF, 0xFF}, 0))
		require.NoError(t, s.Add("Y", 1, []byte{0xFE}, 0))

		x, _ := s.Lookup("X")
		assert.Equal(t, []byte{0xFF, 0x0F}, x.Payload)
		y, _ := s.Lookup("Y")
		assert.Equal(t, []byte{0x00}, y.Payload)
	})

	t.Run("short payload is rejected", func(t *testing.T) {
		s := NewStore()
		err := s.Add("X", 48, []byte{1, 2, 3}, 0)
		assert.ErrorIs(t, err, ErrShortPayload)
		assert.Equal(t, 0, s.FieldCount())
	})

	t.Run("zero sized field", func(t *testing.T) {
		s := NewStore()
		require.NoError(t, s.Add("empty", 0, nil, 0))
		f, ok := s.Lookup("empty")
		require.True(t, ok)
		assert.Empty(t, f.Payload)
		assert.Equal(t, uint64(0), s.TotalByteSize())
	})

	t.Run("payload limit leaves store unchanged", func(t *testing.T) {
		s := NewStore(WithLimits(Limits{MaxPayloadBytes: 4}))
		require.NoError(t, s.Add("small", 32, []byte{1, 2, 3, 4}, 0))

		err := s.Add("big", 40, []byte{1, 2, 3, 4, 5}, 0)
		assert.ErrorIs(t, err, column.ErrTooLarge)
		assert.Equal(t, 1, s.FieldCount())
		assert.Equal(t, []string{"small"}, s.Names())
	})

	t.Run("field limit", func(t *testing.T) {
		s := NewStore(WithLimits(Limits{MaxFields: 2}))
		require.NoError(t, s.Add("a", 8, []byte{1}, 0))
		require.NoError(t, s.Add("b", 8, []byte{2}, 0))

		err := s.Add("c", 8, []byte{3}, 0)
		assert.ErrorIs(t, err, ErrTooManyFields)
		assert.Equal(t, 2, s.FieldCount())
	})
}

func TestStore_Remove(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		s := newSampleStore(t)
		err := s.Remove("Z")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, 3, s.FieldCount())
	})

	t.Run("preserves order across all columns", func(t *testing.T) {
		s := NewStore()
		for i := 0; i < 5; i++ {
			require.NoError(t, s.Add(fmt.Sprintf("f%d", i), uint32(8*(i+1)), make([]byte, i+1), byte(i)))
		}
		require.NoError(t, s.Remove("f1"))
		require.NoError(t, s.Remove("f3"))

		got := s.Fields()
		require.Len(t, got, 3)
		for i, want := range []int{0, 2, 4} {
			assert.Equal(t, fmt.Sprintf("f%d", want), got[i].Name)
			assert.Equal(t, uint32(8*(want+1)), got[i].SizeBits)
			assert.Equal(t, byte(want), got[i].Modifier)
			assert.Len(t, got[i].Payload, want+1)
		}
	})

	t.Run("name is reusable after removal", func(t *testing.T) {
		s := newSampleStore(t)
		require.NoError(t, s.Remove("A"))
		require.NoError(t, s.Add("A", 16, []byte{0xBE, 0xEF}, 7))

		f, ok := s.Lookup("A")
		require.True(t, ok)
		assert.Equal(t, uint32(16), f.SizeBits)
		assert.Equal(t, byte(7), f.Modifier)
		assert.Equal(t, []string{"B", "C", "A"}, s.Names())
	})
}

func TestStore_Lookup(t *testing.T) {
	s := newSampleStore(t)

	f, ok := s.Lookup("B")
	require.True(t, ok)
	assert.Equal(t, uint32(48), f.SizeBits)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, f.Payload)
	assert.Equal(t, byte(0), f.Modifier)

	f.Payload[0] = 0xFF
	again, _ := s.Lookup("B")
	assert.Equal(t, byte(1), again.Payload[0], "lookup must not expose the owned buffer")

	_, ok = s.Lookup("missing")
	assert.False(t, ok)
}

func TestStore_Each(t *testing.T) {
	s := newSampleStore(t)

	var names []string
	err := s.Each(func(name string, sizeBits uint32, payload []byte, modifier byte) error {
		names = append(names, name)
		assert.Equal(t, int(column.ByteLen(uint64(sizeBits))), len(payload))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, names)

	stop := fmt.Errorf("stop")
	calls := 0
	err = s.Each(func(string, uint32, []byte, byte) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestStore_Add_ColumnFailureRollsBack(t *testing.T) {
	grow := errors.New("out of memory")

	for _, col := range []string{"size", "modifier", "payload", "name"} {
		t.Run(col, func(t *testing.T) {
			s := newSampleStore(t)
			before := s.Fields()
			s.beforeGrow = func(c string) error {
				if c == col {
					return grow
				}
				return nil
			}

			err := s.Add("D", 16, []byte{0xDE, 0xAD}, 7)
			require.ErrorIs(t, err, grow)
			assert.Contains(t, err.Error(), col+" column")

			assert.Equal(t, 3, s.FieldCount())
			assert.Len(t, s.sizes, 3)
			assert.Len(t, s.modifiers, 3)
			assert.Len(t, s.payloads, 3)
			assert.Len(t, s.names, 3)
			assert.Equal(t, before, s.Fields())
			assert.Equal(t, uint64(152), s.TotalBitSize())
			_, ok := s.Lookup("D")
			assert.False(t, ok)

			s.beforeGrow = nil
			require.NoError(t, s.Add("D", 16, []byte{0xDE, 0xAD}, 7))
			assert.Equal(t, []string{"A", "B", "C", "D"}, s.Names())
			f, ok := s.Lookup("D")
			require.True(t, ok)
			assert.Equal(t, byte(7), f.Modifier)
			assert.Equal(t, []byte{0xDE, 0xAD}, f.Payload)
		})
	}
}

func TestStore_Close(t *testing.T) {
	s := newSampleStore(t)
	s.Close()

	assert.Equal(t, 0, s.FieldCount())
	assert.Equal(t, uint64(0), s.TotalBitSize())
	assert.Empty(t, s.Names())

	require.NoError(t, s.Add("A", 8, []byte{1}, 0), "store should be reusable after Close")
	assert.Equal(t, 1, s.FieldCount())
}

// TestStore_RandomizedTotals checks count and bit totals against a plain model
// over random add/remove sequences with distinct names.
func TestStore_RandomizedTotals(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	s := NewStore()
	model := map[string]uint32{}

	for step := 0; step < 500; step++ {
		name := fmt.Sprintf("n%d", r.Intn(40))
		if _, exists := model[name]; exists && r.Intn(2) == 0 {
			require.NoError(t, s.Remove(name))
			delete(model, name)
			continue
		}

		bits := uint32(r.Intn(200))
		err := s.Add(name, bits, make([]byte, column.ByteLen(uint64(bits))), byte(r.Intn(256)))
		if _, exists := model[name]; exists {
			assert.ErrorIs(t, err, ErrDuplicateName)
			continue
		}
		require.NoError(t, err)
		model[name] = bits
	}

	var total uint64
	for _, bits := range model {
		total += uint64(bits)
	}
	assert.Equal(t, len(model), s.FieldCount())
	assert.Equal(t, total, s.TotalBitSize())
	assert.Equal(t, column.ByteLen(total), s.TotalByteSize())
}
