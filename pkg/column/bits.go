package column

// ByteLen returns the number of whole bytes needed to hold bits.
// Example: 9 bits need 2 bytes.
func ByteLen(bits uint64) uint64 {
	if bits%8 == 0 {
		return bits / 8
	}
	return bits/8 + 1
}

// TailBits returns how many bits of the final byte are in use, 8 when the
// size is byte aligned.
func TailBits(bits uint64) uint {
	if rem := bits % 8; rem != 0 {
		return uint(rem)
	}
	return 8
}

// MaskTail zeroes the unused high bits of the final byte of payload so that a
// field of bits bits never carries stray data past its declared size.
func MaskTail(payload []byte, bits uint64) {
	n := ByteLen(bits)
	if n == 0 || uint64(len(payload)) < n {
		return
	}
	used := TailBits(bits)
	if used == 8 {
		return
	}
	payload[n-1] &= byte(0xff) >> (8 - used)
}
