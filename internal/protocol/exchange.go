package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// Packet ids and handshake constants of the status exchange.
const (
	HandshakeID      int32 = 0x00
	StatusRequestID  int32 = 0x00
	StatusResponseID int32 = 0x00
	PingID           int32 = 0x01
	PongID           int32 = 0x01

	// VersionUnspecified is declared when the client does not negotiate a protocol version.
	VersionUnspecified int32 = -1

	// NextStateStatus switches the connection into the status state after the handshake.
	NextStateStatus int32 = 1

	// MaxAddressLen is the longest server address a handshake may carry.
	MaxAddressLen = 255
)

// Handshake is the first packet of every connection.
type Handshake struct {
	Address         string
	ProtocolVersion int32
	NextState       int32
	Port            uint16
}

// StatusHandshake returns a handshake that declares no protocol version and asks for the status state.
func StatusHandshake(address string, port uint16) Handshake {
	return Handshake{
		ProtocolVersion: VersionUnspecified,
		Address:         address,
		Port:            port,
		NextState:       NextStateStatus,
	}
}

// Packet builds the handshake packet, rejecting addresses over MaxAddressLen bytes.
func (h Handshake) Packet() (Packet, error) {
	if len(h.Address) > MaxAddressLen {
		return Packet{}, fmt.Errorf("%w: %d bytes (max %d)", ErrAddressTooLong, len(h.Address), MaxAddressLen)
	}

	data := make([]byte, 0, 2*MaxVarIntLen+len(h.Address)+MaxVarIntLen+2)
	data = AppendVarInt(data, h.ProtocolVersion)
	data = AppendString(data, h.Address)
	data = binary.BigEndian.AppendUint16(data, h.Port)
	data = AppendVarInt(data, h.NextState)

	return Packet{ID: HandshakeID, Data: data}, nil
}

// DecodeHandshake parses the data of a handshake packet, the server side of Packet.
func DecodeHandshake(p Packet) (Handshake, error) {
	if p.ID != HandshakeID {
		return Handshake{}, &ViolationError{Reason: fmt.Sprintf("handshake has packet id %d", p.ID)}
	}

	var h Handshake
	buf := p.Data

	version, n, err := DecodeVarInt(buf)
	if err != nil {
		return Handshake{}, fmt.Errorf("%w: protocol version: %w", ErrInvalidFrame, err)
	}
	buf = buf[n:]

	h.Address, n, err = DecodeString(buf)
	if err != nil {
		return Handshake{}, fmt.Errorf("server address: %w", err)
	}
	if len(h.Address) > MaxAddressLen {
		return Handshake{}, fmt.Errorf("%w: %d bytes (max %d)", ErrAddressTooLong, len(h.Address), MaxAddressLen)
	}
	buf = buf[n:]

	if len(buf) < 2 {
		return Handshake{}, fmt.Errorf("%w: truncated port", ErrInvalidFrame)
	}
	h.Port = binary.BigEndian.Uint16(buf)
	buf = buf[2:]

	h.NextState, n, err = DecodeVarInt(buf)
	if err != nil {
		return Handshake{}, fmt.Errorf("%w: next state: %w", ErrInvalidFrame, err)
	}
	if n != len(buf) {
		return Handshake{}, fmt.Errorf("%w: %d trailing bytes", ErrInvalidFrame, len(buf)-n)
	}

	h.ProtocolVersion = version
	return h, nil
}

// WriteHandshake sends h. Nothing is written if the address is too long.
func WriteHandshake(w io.Writer, h Handshake) error {
	p, err := h.Packet()
	if err != nil {
		return err
	}

	return WritePacket(w, p)
}

// WriteStatusRequest sends the empty status request packet.
func WriteStatusRequest(w io.Writer) error {
	return WritePacket(w, Packet{ID: StatusRequestID})
}

// ReadStatusResponse reads one frame and returns the JSON text it carries.
func ReadStatusResponse(r *Reader) (string, error) {
	p, err := r.ReadPacket()
	if err != nil {
		return "", err
	}
	if p.ID != StatusResponseID {
		return "", &ViolationError{Reason: fmt.Sprintf("status response has packet id %d", p.ID)}
	}

	text, _, err := DecodeString(p.Data)
	if err != nil {
		return "", fmt.Errorf("status response: %w", err)
	}

	return text, nil
}

// WritePing sends payload as an 8-byte big-endian ping.
func WritePing(w io.Writer, payload int64) error {
	data := binary.BigEndian.AppendUint64(make([]byte, 0, 8), uint64(payload))
	return WritePacket(w, Packet{ID: PingID, Data: data})
}

// ReadPong reads one frame and checks that it echoes want.
// A different payload is a *ViolationError, never a silent success.
func ReadPong(r *Reader, want int64) error {
	p, err := r.ReadPacket()
	if err != nil {
		return err
	}
	if p.ID != PongID {
		return &ViolationError{Reason: fmt.Sprintf("pong has packet id %d", p.ID), Sent: want}
	}
	if len(p.Data) != 8 {
		return fmt.Errorf("%w: pong payload is %d bytes, want 8", ErrInvalidFrame, len(p.Data))
	}

	got := int64(binary.BigEndian.Uint64(p.Data))
	if got != want {
		return &ViolationError{Sent: want, Received: got}
	}

	return nil
}

// State is the position of a Session in the exchange.
type State int

// Session states, in the only order they may occur.
const (
	StateHandshake State = iota
	StateStatus
	StatePing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateHandshake:
		return "handshake"
	case StateStatus:
		return "status"
	case StatePing:
		return "ping"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session drives the status exchange over one connection:
// handshake, status request, status response, ping, pong.
// It is not safe for concurrent use.
type Session struct {
	w     io.Writer
	r     *Reader
	now   func() time.Time
	state State
}

// NewSession starts a session on rw.
func NewSession(rw io.ReadWriter) *Session {
	return &Session{w: rw, r: NewReader(rw), now: time.Now}
}

// State returns the next step the session expects.
func (s *Session) State() State {
	return s.state
}

// Handshake sends the handshake packet.
func (s *Session) Handshake(h Handshake) error {
	if err := s.expect(StateHandshake); err != nil {
		return err
	}
	if err := WriteHandshake(s.w, h); err != nil {
		return err
	}

	s.state = StateStatus
	return nil
}

// RequestStatus sends the status request and returns the JSON text of the response.
func (s *Session) RequestStatus() (string, error) {
	if err := s.expect(StateStatus); err != nil {
		return "", err
	}
	if err := WriteStatusRequest(s.w); err != nil {
		return "", err
	}

	text, err := ReadStatusResponse(s.r)
	if err != nil {
		return "", err
	}

	s.state = StatePing
	return text, nil
}

// Ping sends payload, waits for the pong and returns the round-trip time.
func (s *Session) Ping(payload int64) (time.Duration, error) {
	if err := s.expect(StatePing); err != nil {
		return 0, err
	}
	if err := WritePing(s.w, payload); err != nil {
		return 0, err
	}

	sent := s.now()
	if err := ReadPong(s.r, payload); err != nil {
		return 0, err
	}
	rtt := s.now().Sub(sent)

	s.state = StateDone
	return rtt, nil
}

func (s *Session) expect(want State) error {
	if s.state != want {
		return fmt.Errorf("%w: at %s, want %s", ErrOutOfOrder, s.state, want)
	}

	return nil
}
