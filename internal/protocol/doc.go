// Package protocol implements the wire format of the Server List Ping exchange:
// VarInts, length-prefixed strings, packet framing, and the ordered
// handshake, status, ping and pong steps over a single connection.
//
// Decoding is streaming safe. DecodePacket is a pure function over a buffer
// that reports ErrNotEnoughData without consuming anything, and Reader
// appends bytes from the network and retries until a full frame is present.
//
// Handshake to 0.0.0.0:1 without a protocol version encodes as
//
//	17 0 255 255 255 255 15 7 48 46 48 46 48 46 48 0 1 1
//
// and the status request as
//
//	1 0
package protocol
