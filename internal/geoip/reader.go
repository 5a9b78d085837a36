package geoip

import (
	"net"
	"net/netip"

	"github.com/oschwald/geoip2-golang"
)

// Provider looks up the country of server addresses in a GeoIP2 or GeoLite2 country database.
type Provider struct {
	db *geoip2.Reader
}

// Open loads the MMDB file at path.
func Open(path string) (*Provider, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}

	return &Provider{db: db}, nil
}

// Close releases the database.
func (p *Provider) Close() error {
	return p.db.Close()
}

// CountryCode returns the ISO country code of addr ("US", "DE"), or an empty string
// when the address is private, unknown to the database or the lookup fails.
// A nil Provider always returns an empty string.
func (p *Provider) CountryCode(addr netip.Addr) string {
	if p == nil || !addr.IsValid() || addr.IsLoopback() || addr.IsPrivate() {
		return ""
	}

	record, err := p.db.Country(net.IP(addr.Unmap().AsSlice()))
	if err != nil {
		return ""
	}

	return record.Country.IsoCode
}
