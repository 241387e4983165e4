package column

import "encoding/hex"

// AppendHex appends the uppercase hex form of src to dst. Every codec in the
// module renders payloads this way.
func AppendHex(dst, src []byte) []byte {
	start := len(dst)
	dst = append(dst, make([]byte, hex.EncodedLen(len(src)))...)
	hex.Encode(dst[start:], src)
	out := dst[start:]
	for i, c := range out {
		if c >= 'a' {
			out[i] = c - ('a' - 'A')
		}
	}
	return dst
}

// Hex returns the uppercase hex form of src.
func Hex(src []byte) string {
	return string(AppendHex(make([]byte, 0, hex.EncodedLen(len(src))), src))
}
