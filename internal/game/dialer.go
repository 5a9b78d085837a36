package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/netip"
	"net/url"
	"os"
	"time"

	"github.com/woozymasta/mcstatus/internal/protocol"
	"golang.org/x/net/proxy"
)

// Dialer opens TCP connections to game servers.
// *net.Dialer and the SOCKS5 dialers of golang.org/x/net/proxy satisfy it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// NewDialer returns a direct dialer bounded by timeout, or a SOCKS5 dialer
// when proxyURL is set (socks5:// or socks5h://).
func NewDialer(timeout time.Duration, proxyURL string) (Dialer, error) {
	direct := &net.Dialer{Timeout: timeout}
	if proxyURL == "" {
		return direct, nil
	}

	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy url: %w", err)
	}

	d, err := proxy.FromURL(u, direct)
	if err != nil {
		return nil, fmt.Errorf("proxy %s: %w", u.Redacted(), err)
	}
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd, nil
	}

	return contextDialer{d: d}, nil
}

// contextDialer adapts a proxy.Dialer without DialContext to context cancellation.
type contextDialer struct {
	d proxy.Dialer
}

func (c contextDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	type dialResult struct {
		conn net.Conn
		err  error
	}

	resultCh := make(chan dialResult, 1)
	go func() {
		conn, err := c.d.Dial(network, address)
		resultCh <- dialResult{conn, err}
	}()

	select {
	case <-ctx.Done():
		// close the connection if the dial completes after we gave up
		go func() {
			if r := <-resultCh; r.conn != nil {
				_ = r.conn.Close()
			}
		}()
		return nil, ctx.Err()
	case r := <-resultCh:
		return r.conn, r.err
	}
}

// connect dials addr and returns connection failures as *protocol.ConnError.
func connect(ctx context.Context, d Dialer, addr netip.AddrPort) (net.Conn, error) {
	conn, err := d.DialContext(ctx, "tcp", addr.String())
	if err != nil {
		return nil, &protocol.ConnError{Op: "connect", Addr: addr.String(), Err: err}
	}

	return conn, nil
}

// wrapIO keeps wire format errors and violations as they are and wraps
// transport failures into *protocol.ConnError.
func wrapIO(op string, addr netip.AddrPort, err error) error {
	if err == nil {
		return nil
	}
	if protocol.IsFormatError(err) ||
		errors.Is(err, protocol.ErrProtocolViolation) ||
		errors.Is(err, protocol.ErrAddressTooLong) ||
		errors.Is(err, protocol.ErrOutOfOrder) {
		return err
	}

	var ne net.Error
	if errors.As(err, &ne) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, net.ErrClosed) {
		return &protocol.ConnError{Op: op, Addr: addr.String(), Err: err}
	}

	return err
}
