package game

import (
	"context"
	"net/netip"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcstatus/internal/protocol"
)

// Probe reports whether addr answers the handshake and status request with a
// well-formed status response. The whole probe, connect included, is bounded by
// timeout. JSON validity of the response is not checked.
// The connection is closed before Probe returns, whatever the outcome.
func Probe(ctx context.Context, d Dialer, addr netip.AddrPort, timeout time.Duration) bool {
	err := probe(ctx, d, addr, timeout)
	if err != nil {
		log.Trace().
			Err(err).
			Str("ip", addr.Addr().String()).
			Uint16("port", addr.Port()).
			Msg("Probe failed")
		return false
	}

	return true
}

func probe(ctx context.Context, d Dialer, addr netip.AddrPort, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := connect(ctx, d, addr)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	// read and write share the deadline of the probe, cancellation unblocks them early
	deadline, _ := ctx.Deadline()
	if err := conn.SetDeadline(deadline); err != nil {
		return wrapIO("deadline", addr, err)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	s := protocol.NewSession(conn)
	if err := s.Handshake(protocol.StatusHandshake(addr.Addr().String(), addr.Port())); err != nil {
		return wrapIO("write", addr, err)
	}
	if _, err := s.RequestStatus(); err != nil {
		return wrapIO("read", addr, err)
	}

	return nil
}
