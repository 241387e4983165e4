// Package fields implements the field store: an insertion-ordered table of
// uniquely named binary fields whose sizes are declared in bits.
//
// # Layout
//
// A Store keeps four parallel columns that always have the same length:
//
//	names     []string   // unique key per field
//	payloads  [][]byte   // owned copy, ceil(sizeBits/8) bytes
//	sizes     []uint32   // declared size in bits
//	modifiers []byte     // reserved formatting tag, stored but not interpreted
//
// Add appends to all four columns or to none of them. Remove shifts every later
// entry down by one so insertion order is preserved.
//
// # Bit sizes
//
// Fields need not be byte aligned. When sizeBits is not a multiple of eight the
// unused high bits of the final payload byte are cleared on Add, so two stores
// holding the same logical fields always encode to the same document.
//
// TotalByteSize rounds the concatenated bit length, not each field: a store
// holding two 4-bit fields reports 1 byte even though each payload occupies a
// byte of its own. Do not use it to compute payload offsets.
//
// # Thread Safety
//
// A Store has no internal locking. It is meant for a single writer; callers
// sharing a Store between goroutines must synchronize externally.
package fields
