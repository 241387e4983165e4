// Package column provides the growable column primitives that back the field
// store's parallel arrays, plus the bit/byte rounding helpers shared by the
// codecs.
//
// Every mutating helper builds its result on the side and only commits it to
// the caller's slice once it is complete, so a failed call leaves the column
// exactly as it was.
package column

import (
	"errors"
	"fmt"
)

// MaxLen is the largest number of elements a single column may hold.
const MaxLen = 1 << 24

// DefaultByteLimit bounds a single owned byte copy when no limit is given.
const DefaultByteLimit = 64 << 20

var (
	ErrInvalidLength = errors.New("column: new length must exceed current length")
	ErrTooLarge      = errors.New("column: allocation exceeds limit")
	ErrOutOfRange    = errors.New("column: index out of range")
)

// Append grows col to exactly newLen elements and stores v in the last slot.
// Elements between the old length and newLen-1 are zero valued.
func Append[T any](col *[]T, newLen int, v T) error {
	cur := *col
	if newLen <= len(cur) {
		return fmt.Errorf("%w: %d <= %d", ErrInvalidLength, newLen, len(cur))
	}
	if newLen > MaxLen {
		return fmt.Errorf("%w: %d elements", ErrTooLarge, newLen)
	}

	var grown []T
	if newLen <= cap(cur) {
		grown = cur[:newLen]
		clear(grown[len(cur) : newLen-1])
	} else {
		// append picks an amortized capacity for us
		grown = append(cur, make([]T, newLen-len(cur)-1)...)
		grown = append(grown, v)
	}
	grown[newLen-1] = v

	*col = grown
	return nil
}

// RemoveAt deletes the element at i, shifting the rest down by one.
func RemoveAt[T any](col *[]T, i int) error {
	cur := *col
	if i < 0 || i >= len(cur) {
		return fmt.Errorf("%w: %d of %d", ErrOutOfRange, i, len(cur))
	}

	copy(cur[i:], cur[i+1:])
	var zero T
	cur[len(cur)-1] = zero // drop the reference held by the vacated slot
	*col = cur[:len(cur)-1]
	return nil
}

// Truncate cuts col back to n elements. It is used to roll back a partially
// applied multi-column append.
func Truncate[T any](col *[]T, n int) {
	cur := *col
	if n < 0 || n >= len(cur) {
		return
	}
	clear(cur[n:])
	*col = cur[:n]
}

// CopyBytes returns an independent copy of the first n bytes of src. The copy
// is refused when n exceeds limit (DefaultByteLimit when limit is zero).
func CopyBytes(src []byte, n uint64, limit uint64) ([]byte, error) {
	if limit == 0 {
		limit = DefaultByteLimit
	}
	if n > limit {
		return nil, fmt.Errorf("%w: %d bytes > %d", ErrTooLarge, n, limit)
	}
	if n > uint64(len(src)) {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrOutOfRange, n, len(src))
	}

	dst := make([]byte, n)
	copy(dst, src[:n])
	return dst, nil
}
