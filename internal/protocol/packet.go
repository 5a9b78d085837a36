package protocol

import (
	"errors"
	"fmt"
	"io"
	"math"
)

// MaxFrameLength is the largest frame length the Reader accepts by default,
// the ceiling of a 3-byte VarInt used by vanilla servers.
const MaxFrameLength = 1<<21 - 1

// readChunk is how many bytes the Reader asks the transport for at once.
const readChunk = 4096

// Packet is a single protocol message: a VarInt id followed by opaque data.
type Packet struct {
	Data []byte
	ID   int32
}

// Append appends the framed packet to dst:
// VarInt(len(id)+len(data)) ++ VarInt(id) ++ data.
func (p Packet) Append(dst []byte) ([]byte, error) {
	idSize := VarIntSize(p.ID)
	if len(p.Data) > math.MaxInt32-idSize {
		return dst, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(p.Data))
	}

	dst = AppendVarInt(dst, int32(idSize+len(p.Data)))
	dst = AppendVarInt(dst, p.ID)

	return append(dst, p.Data...), nil
}

// EncodePacket returns the wire frame for p.
func EncodePacket(p Packet) ([]byte, error) {
	return p.Append(make([]byte, 0, 2*MaxVarIntLen+len(p.Data)))
}

// DecodePacket decodes one frame from the front of buf and returns it with the number of bytes consumed.
//
// ErrNotEnoughData means the frame is incomplete: nothing was consumed and the call
// can be repeated once more bytes have been appended. Any other error is fatal for the stream.
// The returned Data does not alias buf.
func DecodePacket(buf []byte) (Packet, int, error) {
	length, lenSize, err := DecodeVarInt(buf)
	if err != nil {
		return Packet{}, 0, err
	}
	if length < 0 {
		return Packet{}, 0, fmt.Errorf("%w: negative length %d", ErrInvalidFrame, length)
	}

	id, idSize, err := DecodeVarInt(buf[lenSize:])
	if err != nil {
		// a complete frame cannot hold an id longer than itself
		if errors.Is(err, ErrNotEnoughData) && len(buf)-lenSize >= int(length) {
			return Packet{}, 0, fmt.Errorf("%w: packet id overruns length %d", ErrInvalidFrame, length)
		}
		return Packet{}, 0, err
	}
	if int(length) < idSize {
		return Packet{}, 0, fmt.Errorf("%w: length %d shorter than packet id", ErrInvalidFrame, length)
	}

	// compared as int64 so a length near MaxInt32 cannot overflow int on 32-bit platforms
	if int64(length) > int64(len(buf)-lenSize) {
		return Packet{}, 0, ErrNotEnoughData
	}
	start := lenSize + idSize
	end := lenSize + int(length)

	data := make([]byte, end-start)
	copy(data, buf[start:end])

	return Packet{ID: id, Data: data}, end, nil
}

// WritePacket frames p and writes it to w in a single Write call.
func WritePacket(w io.Writer, p Packet) error {
	frame, err := EncodePacket(p)
	if err != nil {
		return err
	}

	_, err = w.Write(frame)
	return err
}

// Reader decodes frames from a byte stream, buffering partial frames between reads.
type Reader struct {
	r   io.Reader
	buf []byte

	// MaxLength caps the declared frame length; frames above it fail with ErrFrameTooLarge.
	MaxLength int
}

// NewReader returns a Reader with the default MaxFrameLength.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r, MaxLength: MaxFrameLength}
}

// Buffered returns the number of bytes read from the stream but not yet consumed.
func (r *Reader) Buffered() int {
	return len(r.buf)
}

// ReadPacket returns the next frame, reading from the stream until one is complete.
// A stream that ends mid-frame yields io.ErrUnexpectedEOF; a stream that ends
// between frames yields io.EOF.
func (r *Reader) ReadPacket() (Packet, error) {
	chunk := make([]byte, readChunk)

	for {
		if err := r.checkLength(); err != nil {
			return Packet{}, err
		}

		p, n, err := DecodePacket(r.buf)
		if err == nil {
			r.buf = r.buf[n:]
			return p, nil
		}
		if !errors.Is(err, ErrNotEnoughData) {
			return Packet{}, err
		}

		read, rerr := r.r.Read(chunk)
		r.buf = append(r.buf, chunk[:read]...)
		if rerr != nil {
			if read > 0 {
				continue
			}
			if errors.Is(rerr, io.EOF) && len(r.buf) > 0 {
				return Packet{}, io.ErrUnexpectedEOF
			}
			return Packet{}, rerr
		}
	}
}

// checkLength rejects an oversized frame as soon as its length prefix is buffered.
func (r *Reader) checkLength() error {
	if r.MaxLength <= 0 {
		return nil
	}

	length, _, err := DecodeVarInt(r.buf)
	if err != nil {
		// incomplete prefixes are retried, malformed ones surface from DecodePacket
		return nil
	}
	if int(length) > r.MaxLength {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrFrameTooLarge, length, r.MaxLength)
	}

	return nil
}
