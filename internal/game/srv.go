package game

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"slices"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// ErrNoSRV is returned when a host has no _minecraft._tcp record.
var ErrNoSRV = errors.New("no srv record")

const srvService = "_minecraft._tcp."

// SRVResolver looks up the _minecraft._tcp records clients use to find servers
// that do not listen on the default port.
type SRVResolver struct {
	client  *dns.Client
	servers []string
}

// NewSRVResolver uses the nameservers listed in /etc/resolv.conf.
func NewSRVResolver(timeout time.Duration) (*SRVResolver, error) {
	conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil {
		return nil, fmt.Errorf("read resolver config: %w", err)
	}

	servers := make([]string, 0, len(conf.Servers))
	for _, s := range conf.Servers {
		servers = append(servers, net.JoinHostPort(s, conf.Port))
	}

	return NewSRVResolverWith(timeout, servers...), nil
}

// NewSRVResolverWith queries the given nameservers ("host:port") in order.
func NewSRVResolverWith(timeout time.Duration, servers ...string) *SRVResolver {
	return &SRVResolver{
		client:  &dns.Client{Timeout: timeout},
		servers: servers,
	}
}

// Lookup returns the target and port of the preferred SRV record of host:
// lowest priority first, then highest weight.
func (r *SRVResolver) Lookup(ctx context.Context, host string) (string, uint16, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(srvService+host), dns.TypeSRV)
	m.RecursionDesired = true

	var lastErr error
	for _, server := range r.servers {
		resp, _, err := r.client.ExchangeContext(ctx, m, server)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.Rcode != dns.RcodeSuccess && resp.Rcode != dns.RcodeNameError {
			lastErr = fmt.Errorf("%s answered %s", server, dns.RcodeToString[resp.Rcode])
			continue
		}

		var records []*dns.SRV
		for _, rr := range resp.Answer {
			if srv, ok := rr.(*dns.SRV); ok && srv.Target != "." {
				records = append(records, srv)
			}
		}
		if len(records) == 0 {
			return "", 0, fmt.Errorf("%w for %s", ErrNoSRV, host)
		}

		slices.SortStableFunc(records, func(a, b *dns.SRV) int {
			if a.Priority != b.Priority {
				return int(a.Priority) - int(b.Priority)
			}
			return int(b.Weight) - int(a.Weight)
		})

		return strings.TrimSuffix(records[0].Target, "."), records[0].Port, nil
	}

	if lastErr == nil {
		lastErr = errors.New("no nameservers")
	}
	return "", 0, fmt.Errorf("srv lookup %s: %w", host, lastErr)
}

// ApplySRV rewrites a bare hostname to the target of its SRV record.
// IP literals, addresses with an explicit port and hosts without a record are returned unchanged.
func ApplySRV(ctx context.Context, r *SRVResolver, address string) string {
	host := strings.TrimSpace(address)
	if _, _, err := net.SplitHostPort(host); err == nil {
		return address
	}
	if _, err := netip.ParseAddr(strings.Trim(host, "[]")); err == nil {
		return address
	}

	target, port, err := r.Lookup(ctx, host)
	if err != nil {
		return address
	}

	return net.JoinHostPort(target, fmt.Sprint(port))
}
