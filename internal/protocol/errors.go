package protocol

import (
	"errors"
	"fmt"
	"net"
)

var (
	// ErrNotEnoughData reports that a streaming decoder needs more input.
	// Nothing was consumed; the caller should append bytes and retry.
	ErrNotEnoughData = errors.New("not enough data")

	// ErrVarIntTooLong reports a VarInt without a terminating byte in its first 5 bytes.
	ErrVarIntTooLong = errors.New("varint is longer than 5 bytes")

	// ErrInvalidString reports a protocol string whose declared length overflows the buffer
	// or whose bytes are not valid UTF-8.
	ErrInvalidString = errors.New("invalid protocol string")

	// ErrInvalidFrame reports a frame with a negative length or a length shorter than its packet id.
	ErrInvalidFrame = errors.New("invalid frame")

	// ErrFrameTooLarge reports a declared frame length above the reader limit.
	ErrFrameTooLarge = errors.New("frame too large")

	// ErrAddressTooLong reports a handshake address longer than 255 bytes.
	ErrAddressTooLong = errors.New("address too long")

	// ErrPayloadTooLarge reports packet data that cannot be framed with an int32 length.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrOutOfOrder reports a session step attempted before the preceding one.
	ErrOutOfOrder = errors.New("exchange step out of order")

	// ErrProtocolViolation matches every *ViolationError.
	ErrProtocolViolation = errors.New("protocol violation")
)

// IsFormatError reports whether err is a fatal wire format error.
// ErrNotEnoughData is not one of them.
func IsFormatError(err error) bool {
	return errors.Is(err, ErrVarIntTooLong) ||
		errors.Is(err, ErrInvalidString) ||
		errors.Is(err, ErrInvalidFrame) ||
		errors.Is(err, ErrFrameTooLarge)
}

// ViolationError is returned when the peer answers with well-formed data
// that breaks the exchange, such as a pong echoing another payload.
type ViolationError struct {
	Reason   string
	Sent     int64
	Received int64
}

func (e *ViolationError) Error() string {
	if e.Reason != "" {
		return "protocol violation: " + e.Reason
	}

	return fmt.Sprintf("protocol violation: pong payload %d does not match ping payload %d", e.Received, e.Sent)
}

// Is makes errors.Is(err, ErrProtocolViolation) true.
func (e *ViolationError) Is(target error) bool {
	return target == ErrProtocolViolation
}

// ConnError wraps refusal, reset, or timeout during connect, read or write.
type ConnError struct {
	Err  error
	Op   string
	Addr string
}

func (e *ConnError) Error() string {
	if e.Addr == "" {
		return e.Op + ": " + e.Err.Error()
	}

	return e.Op + " " + e.Addr + ": " + e.Err.Error()
}

func (e *ConnError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the underlying error was a timeout.
func (e *ConnError) Timeout() bool {
	var ne net.Error
	if errors.As(e.Err, &ne) {
		return ne.Timeout()
	}

	return false
}
