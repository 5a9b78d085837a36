package game

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"
)

// ResolveEndpoint turns "host", "host:port", "[v6]:port" or "v6" into an address and port,
// using defaultPort when none is given. Hostnames resolve to their first IPv4
// address, or the first IPv6 one when the host has no A records.
func ResolveEndpoint(ctx context.Context, s string, defaultPort uint16) (netip.AddrPort, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return netip.AddrPort{}, errors.New("empty address")
	}

	if ap, err := netip.ParseAddrPort(s); err == nil {
		return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port()), nil
	}

	host, port := s, defaultPort
	if h, p, err := net.SplitHostPort(s); err == nil {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return netip.AddrPort{}, fmt.Errorf("invalid port %q", p)
		}
		host, port = h, uint16(n)
	}

	addr, err := ResolveHost(ctx, host)
	if err != nil {
		return netip.AddrPort{}, err
	}

	return netip.AddrPortFrom(addr, port), nil
}

// ResolveHost resolves an IP literal or hostname, preferring IPv4.
func ResolveHost(ctx context.Context, host string) (netip.Addr, error) {
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	if host == "" {
		return netip.Addr{}, errors.New("empty host")
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr.Unmap(), nil
	}

	addrs, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("resolve %s: %w", host, err)
	}

	var firstV6 netip.Addr
	for _, a := range addrs {
		a = a.Unmap()
		if a.Is4() {
			return a, nil
		}
		if !firstV6.IsValid() {
			firstV6 = a
		}
	}
	if firstV6.IsValid() {
		return firstV6, nil
	}

	return netip.Addr{}, fmt.Errorf("resolve %s: no addresses", host)
}
