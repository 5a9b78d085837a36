// Package fake runs a local status server with scripted behavior for tests and development.
package fake

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/woozymasta/mcstatus/internal/logger"
	"github.com/woozymasta/mcstatus/internal/protocol"
)

// Mode selects how the server answers a connection.
type Mode string

// Answer modes.
const (
	// ModeStatus runs the exchange like a real server.
	ModeStatus Mode = "status"

	// ModeGarbage answers the status request with bytes that are not a frame.
	ModeGarbage Mode = "garbage"

	// ModeSilent reads everything and never answers.
	ModeSilent Mode = "silent"

	// ModeBadPong answers the status request, then echoes a different ping payload.
	ModeBadPong Mode = "bad-pong"

	// ModeClose closes every connection right after accepting it.
	ModeClose Mode = "close"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeStatus, ModeGarbage, ModeSilent, ModeBadPong, ModeClose:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}

// garbage starts with a VarInt that never terminates.
var garbage = []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 'n', 'o', 'p', 'e'}

// idleTimeout drops clients that stall between packets.
const idleTimeout = 30 * time.Second

// Server is a TCP listener speaking the server side of the status exchange.
type Server struct {
	log      zerolog.Logger
	listener net.Listener
	conns    map[net.Conn]struct{}
	shutdown chan struct{}
	status   string
	mode     Mode

	handshakes []protocol.Handshake

	wg sync.WaitGroup
	mu sync.Mutex
}

// Listen starts serving on addr ("127.0.0.1:0" picks a free port).
// statusJSON is sent as the status response text.
func Listen(addr string, mode Mode, statusJSON string) (*Server, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s := &Server{
		log:      logger.Component("fake").With().Str("mode", string(mode)).Logger(),
		listener: l,
		conns:    make(map[net.Conn]struct{}),
		shutdown: make(chan struct{}),
		status:   statusJSON,
		mode:     mode,
	}

	s.wg.Add(1)
	go s.accept()

	s.log.Debug().Str("addr", l.Addr().String()).Msg("Fake server listening")
	return s, nil
}

// Addr returns the address the server listens on.
func (s *Server) Addr() netip.AddrPort {
	if tcp, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return tcp.AddrPort()
	}

	return netip.MustParseAddrPort(s.listener.Addr().String())
}

// Handshakes returns a copy of the handshakes received so far.
func (s *Server) Handshakes() []protocol.Handshake {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]protocol.Handshake, len(s.handshakes))
	copy(out, s.handshakes)
	return out
}

// Close stops accepting, drops open connections and waits for handlers to return.
func (s *Server) Close() error {
	s.mu.Lock()
	select {
	case <-s.shutdown:
		s.mu.Unlock()
		return nil
	default:
	}
	close(s.shutdown)
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()

	err := s.listener.Close()
	s.wg.Wait()

	s.log.Debug().Msg("Fake server stopped")
	return err
}

func (s *Server) accept() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Warn().Err(err).Msg("Accept failed")
			continue
		}

		if !s.track(conn) {
			_ = conn.Close()
			return
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)

			if err := s.handle(conn); err != nil {
				s.log.Debug().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("Connection ended")
			}
		}()
	}
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.shutdown:
		return false
	default:
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()

	_ = conn.Close()
}

func (s *Server) handle(conn net.Conn) error {
	if s.mode == ModeClose {
		return nil
	}

	r := protocol.NewReader(conn)
	next := func() (protocol.Packet, error) {
		_ = conn.SetDeadline(time.Now().Add(idleTimeout))
		return r.ReadPacket()
	}

	p, err := next()
	if err != nil {
		return err
	}
	h, err := protocol.DecodeHandshake(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.handshakes = append(s.handshakes, h)
	s.mu.Unlock()

	if h.NextState != protocol.NextStateStatus {
		return fmt.Errorf("next state %d is not status", h.NextState)
	}

	for {
		p, err := next()
		if err != nil {
			return err
		}

		switch {
		case s.mode == ModeSilent:
			continue

		case p.ID == protocol.StatusRequestID && s.mode == ModeGarbage:
			_, err = conn.Write(garbage)
			return err

		case p.ID == protocol.StatusRequestID:
			resp := protocol.Packet{ID: protocol.StatusResponseID, Data: protocol.EncodeString(s.status)}
			if err := protocol.WritePacket(conn, resp); err != nil {
				return err
			}

		case p.ID == protocol.PingID && len(p.Data) == 8:
			payload := binary.BigEndian.Uint64(p.Data)
			if s.mode == ModeBadPong {
				payload++
			}
			pong := protocol.Packet{ID: protocol.PongID, Data: binary.BigEndian.AppendUint64(nil, payload)}
			return protocol.WritePacket(conn, pong)

		default:
			return fmt.Errorf("unexpected packet id %d with %d bytes", p.ID, len(p.Data))
		}
	}
}
