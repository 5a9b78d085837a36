// Package scanner finds the ports of a host that answer a probe.
package scanner

import (
	"context"
	"net/netip"
	"slices"
	"sync"
	"time"

	"github.com/woozymasta/mcstatus/internal/logger"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// DefaultWorkers bounds concurrent probes when WithWorkers is not given.
const DefaultWorkers = 256

// ProbeFunc reports whether addr answers. It must honour ctx and return promptly once it is done.
type ProbeFunc func(ctx context.Context, addr netip.AddrPort) bool

// Range is an inclusive port range. From > To is an empty range.
type Range struct {
	From uint16
	To   uint16
}

// Empty reports whether the range holds no ports.
func (r Range) Empty() bool {
	return r.From > r.To
}

// Len returns the number of ports in the range.
func (r Range) Len() int {
	if r.Empty() {
		return 0
	}

	return int(r.To) - int(r.From) + 1
}

// Result is the set of open ports found by a scan.
type Result struct {
	ports map[uint16]struct{}
}

// Has reports whether port answered.
func (r Result) Has(port uint16) bool {
	_, ok := r.ports[port]
	return ok
}

// Len returns the number of open ports.
func (r Result) Len() int {
	return len(r.ports)
}

// Ports returns the open ports in ascending order.
func (r Result) Ports() []uint16 {
	out := make([]uint16, 0, len(r.ports))
	for p := range r.ports {
		out = append(out, p)
	}
	slices.Sort(out)

	return out
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithWorkers bounds the number of probes in flight. Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithRate limits how many probes start per second, with the given burst.
// A limit of zero or less means no limit.
func WithRate(perSecond float64, burst int) Option {
	return func(s *Scanner) {
		if perSecond <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	}
}

// WithOnOpen registers fn to be called for every open port as soon as it is found.
// Calls may come from several goroutines at once.
func WithOnOpen(fn func(port uint16)) Option {
	return func(s *Scanner) {
		s.onOpen = fn
	}
}

// Scanner probes every port of a range concurrently.
type Scanner struct {
	probe   ProbeFunc
	limiter *rate.Limiter
	onOpen  func(port uint16)
	workers int
}

// New returns a Scanner running probe against each port.
func New(probe ProbeFunc, opts ...Option) *Scanner {
	s := &Scanner{probe: probe, workers: DefaultWorkers}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Scan probes every port of r on ip and returns those that answered.
// Every probe has finished when Scan returns. If ctx is cancelled, ports not yet
// started are skipped and the partial result is returned together with ctx.Err().
func (s *Scanner) Scan(ctx context.Context, ip netip.Addr, r Range) (Result, error) {
	res := Result{ports: make(map[uint16]struct{})}
	if r.Empty() {
		return res, nil
	}

	logCtx := logger.Component("scanner").With().Str("ip", ip.String()).Logger()
	logCtx.Info().
		Uint16("from", r.From).
		Uint16("to", r.To).
		Int("workers", s.workers).
		Msg("Scan started")
	start := time.Now()

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.workers)

	// int counter so To == 65535 terminates
	for p := int(r.From); p <= int(r.To); p++ {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}

		port := uint16(p)
		g.Go(func() error {
			// cancelled while waiting for a free slot
			if ctx.Err() != nil {
				return nil
			}
			if !s.probe(ctx, netip.AddrPortFrom(ip, port)) {
				return nil
			}

			mu.Lock()
			res.ports[port] = struct{}{}
			mu.Unlock()

			logCtx.Debug().Uint16("port", port).Msg("Port open")
			if s.onOpen != nil {
				s.onOpen(port)
			}
			return nil
		})
	}
	_ = g.Wait()

	logCtx.Info().
		Int("open", res.Len()).
		Dur("took", time.Since(start)).
		Msg("Scan finished")

	return res, ctx.Err()
}
