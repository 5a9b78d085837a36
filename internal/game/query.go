// Package game queries game servers over the Server List Ping protocol.
package game

import (
	"context"
	"net/netip"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcstatus/internal/config"
	"github.com/woozymasta/mcstatus/internal/protocol"
	"github.com/woozymasta/mcstatus/internal/status"
)

// pingPayload picks the value echoed by the pong, vanilla clients send a timestamp.
var pingPayload = func() int64 { return time.Now().UnixMilli() }

// Result is the outcome of a full status query.
type Result struct {
	// Status is nil when the JSON text does not match the expected shape, see SchemaErr.
	Status *status.Response

	// SchemaErr is the *status.SchemaError of the JSON text, if any.
	// It does not abort the query, the ping still runs.
	SchemaErr error

	// Raw is the JSON text of the status response.
	Raw string

	Address netip.AddrPort
	Latency time.Duration
}

// Query runs the full exchange against addr: handshake, status request,
// status response, ping and pong, on one connection.
// Connection failures are *protocol.ConnError, a pong echoing another payload
// is a *protocol.ViolationError.
func Query(ctx context.Context, d Dialer, addr netip.AddrPort, options config.Query) (*Result, error) {
	logCtx := log.With().
		Str("ip", addr.Addr().String()).
		Uint16("port", addr.Port()).
		Logger()

	dialCtx, cancel := context.WithTimeout(ctx, options.Timeout)
	conn, err := connect(dialCtx, d, addr)
	cancel()
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	address := options.ServerAddress
	if address == "" {
		address = addr.Addr().String()
	}

	s := protocol.NewSession(conn)
	step := func(op string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return wrapIO(op, addr, conn.SetDeadline(time.Now().Add(options.IOTimeout)))
	}

	if err := step("write"); err != nil {
		return nil, err
	}
	logCtx.Debug().Str("server_address", address).Msg("Handshake")
	if err := s.Handshake(protocol.StatusHandshake(address, addr.Port())); err != nil {
		return nil, cancelled(ctx, wrapIO("write", addr, err))
	}

	logCtx.Debug().Msg("Status request")
	text, err := s.RequestStatus()
	if err != nil {
		return nil, cancelled(ctx, wrapIO("read", addr, err))
	}

	res := &Result{Address: addr, Raw: text}
	res.Status, res.SchemaErr = status.Parse(text)
	if res.SchemaErr != nil {
		logCtx.Warn().Err(res.SchemaErr).Str("json", text).Msg("Status response does not match schema")
	}

	if err := step("write"); err != nil {
		return nil, err
	}
	payload := pingPayload()
	logCtx.Debug().Int64("payload", payload).Msg("Ping")
	res.Latency, err = s.Ping(payload)
	if err != nil {
		return nil, cancelled(ctx, wrapIO("read", addr, err))
	}
	logCtx.Debug().Dur("latency", res.Latency).Msg("Pong")

	return res, nil
}

// cancelled prefers the context error when cancellation caused err.
func cancelled(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	return err
}
