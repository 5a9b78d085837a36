package protocol

// MaxVarIntLen is the longest encoding of a 32-bit VarInt.
const MaxVarIntLen = 5

// AppendVarInt appends the VarInt encoding of n to dst.
// The value is shifted as unsigned, so negative numbers always take 5 bytes.
func AppendVarInt(dst []byte, n int32) []byte {
	u := uint32(n)
	for {
		b := byte(u & 0x7f)
		u >>= 7
		if u == 0 {
			return append(dst, b)
		}
		dst = append(dst, b|0x80)
	}
}

// EncodeVarInt returns the 1 to 5 byte encoding of n.
func EncodeVarInt(n int32) []byte {
	return AppendVarInt(make([]byte, 0, MaxVarIntLen), n)
}

// VarIntSize returns the number of bytes EncodeVarInt(n) produces.
func VarIntSize(n int32) int {
	u := uint32(n)
	size := 1
	for u >= 0x80 {
		u >>= 7
		size++
	}

	return size
}

// DecodeVarInt reads a VarInt from the front of buf and returns it with the number of bytes consumed.
// It fails with ErrNotEnoughData when buf ends before the terminating byte,
// and with ErrVarIntTooLong when a sixth byte would be required.
func DecodeVarInt(buf []byte) (int32, int, error) {
	var acc uint32
	for i := 0; i < MaxVarIntLen; i++ {
		if i >= len(buf) {
			return 0, 0, ErrNotEnoughData
		}
		b := buf[i]
		acc |= uint32(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			return int32(acc), i + 1, nil
		}
	}

	return 0, 0, ErrVarIntTooLong
}
