package protocol

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// AppendString appends s as a VarInt byte length followed by its UTF-8 bytes.
func AppendString(dst []byte, s string) []byte {
	dst = AppendVarInt(dst, int32(len(s)))
	return append(dst, s...)
}

// EncodeString returns the protocol encoding of s.
func EncodeString(s string) []byte {
	return AppendString(make([]byte, 0, len(s)+MaxVarIntLen), s)
}

// DecodeString reads a protocol string from the front of buf and returns it with the bytes consumed.
// buf is expected to hold a complete field, so a truncated length prefix is an ErrInvalidString.
func DecodeString(buf []byte) (string, int, error) {
	n, off, err := DecodeVarInt(buf)
	if err != nil {
		if errors.Is(err, ErrNotEnoughData) {
			return "", 0, fmt.Errorf("%w: truncated length prefix", ErrInvalidString)
		}
		return "", 0, err
	}

	size := uint64(uint32(n))
	if size > uint64(len(buf)-off) {
		return "", 0, fmt.Errorf("%w: declared length %d exceeds %d available bytes",
			ErrInvalidString, size, len(buf)-off)
	}

	raw := buf[off : off+int(size)]
	if !utf8.Valid(raw) {
		return "", 0, fmt.Errorf("%w: not valid UTF-8", ErrInvalidString)
	}

	return string(raw), off + int(size), nil
}
