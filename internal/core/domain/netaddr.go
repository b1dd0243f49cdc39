package domain

import (
	"fmt"
	"net/netip"
	"strings"
)

// ParseNetworkEntry parses an allowlist or trusted proxy entry: a bare IP
// address or a CIDR prefix. A bare address becomes a single-host prefix.
// Zoned IPv6 addresses are rejected because client addresses are compared
// without zones.
func ParseNetworkEntry(entry string) (netip.Prefix, error) {
	entry = strings.TrimSpace(entry)
	if strings.Contains(entry, "/") {
		p, err := netip.ParsePrefix(entry)
		if err != nil {
			return netip.Prefix{}, fmt.Errorf("invalid CIDR %q", entry)
		}
		return p.Masked(), nil
	}

	addr, err := netip.ParseAddr(entry)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid IP %q", entry)
	}
	if addr.Zone() != "" {
		return netip.Prefix{}, fmt.Errorf("zoned IP %q is not supported", entry)
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// ParseNetworkEntries parses every entry, stopping at the first invalid one.
func ParseNetworkEntries(entries []string) ([]netip.Prefix, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, e := range entries {
		p, err := ParseNetworkEntry(e)
		if err != nil {
			return nil, err
		}
		prefixes = append(prefixes, p)
	}
	return prefixes, nil
}

// PrefixesContain reports whether addr falls inside any of prefixes.
// IPv4-mapped IPv6 addresses match their IPv4 form.
func PrefixesContain(prefixes []netip.Prefix, addr netip.Addr) bool {
	addr = addr.WithZone("").Unmap()
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
