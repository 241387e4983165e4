package cflist

import (
	"errors"
	"fmt"

	"github.com/ssargent/sdds/pkg/column"
)

// DefaultScratchSize is the staging buffer capacity used by Default.
const DefaultScratchSize = 8192

var (
	ErrScratchBusy    = errors.New("cflist: staging buffer already in use")
	ErrScratchNotHeld = errors.New("cflist: staging buffer released while not held")
)

// CapacityError is the panic value raised when a write would not fit in a
// fixed-capacity buffer.
type CapacityError struct {
	What string
	Need int
	Cap  int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("cflist: %s too small: need %d bytes, capacity %d", e.What, e.Need, e.Cap)
}

// Scratch is a fixed-capacity staging buffer with an in-use guard.
type Scratch struct {
	buf   []byte
	inUse bool
}

// NewScratch allocates a staging buffer of size bytes.
func NewScratch(size int) *Scratch {
	if size <= 0 {
		size = DefaultScratchSize
	}
	return &Scratch{buf: make([]byte, size)}
}

// Size returns the buffer capacity.
func (s *Scratch) Size() int {
	return len(s.buf)
}

// InUse reports whether the buffer is currently held.
func (s *Scratch) InUse() bool {
	return s.inUse
}

func (s *Scratch) acquire() []byte {
	if s.inUse {
		panic(ErrScratchBusy)
	}
	s.inUse = true
	return s.buf
}

func (s *Scratch) release() {
	if !s.inUse {
		panic(ErrScratchNotHeld)
	}
	s.inUse = false
}

// with runs fn while holding the buffer. The buffer is released however fn
// exits, including by panic.
func (s *Scratch) with(fn func(buf []byte) error) error {
	buf := s.acquire()
	defer s.release()
	return fn(buf)
}

// stager appends into a fixed buffer, always keeping one byte free for the
// NUL terminator.
type stager struct {
	buf  []byte
	off  int
	what string
}

func (st *stager) reserve(n int) {
	if st.off+n >= len(st.buf) {
		panic(&CapacityError{What: st.what, Need: st.off + n + 1, Cap: len(st.buf)})
	}
}

func (st *stager) write(p []byte) {
	st.reserve(len(p))
	st.off += copy(st.buf[st.off:], p)
}

func (st *stager) writeString(s string) {
	st.reserve(len(s))
	st.off += copy(st.buf[st.off:], s)
}

func (st *stager) writeByte(c byte) {
	st.reserve(1)
	st.buf[st.off] = c
	st.off++
}

// writeHex writes the uppercase hex form of p.
func (st *stager) writeHex(p []byte) {
	n := 2 * len(p)
	st.reserve(n)
	column.AppendHex(st.buf[st.off:st.off], p)
	st.off += n
}

func (st *stager) terminate() {
	st.buf[st.off] = 0
}
