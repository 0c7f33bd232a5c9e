package elem

import (
	"fmt"
	"net/netip"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ParseFilter compiles one (name, value) pair into a Filter, per the small
// grammar each of the "Recognized filter kinds" in spec section 4.8 defines.
// name selects the kind; value is parsed according to that kind's grammar.
// Composing several Filters into one predicate is MatchAll's job, not this
// function's: ParseFilter always returns exactly one Filter per call.
func ParseFilter(name, value string) (Filter, error) {
	switch name {
	case "origin_asn":
		asn, err := parseASN(value)
		if err != nil {
			return nil, fmt.Errorf("origin_asn: %w", err)
		}
		return FilterOriginASN(asn), nil

	case "prefix":
		p, err := netip.ParsePrefix(value)
		if err != nil {
			return nil, fmt.Errorf("prefix: %w", err)
		}
		return FilterPrefixExact(p), nil

	case "prefix_super":
		p, err := netip.ParsePrefix(value)
		if err != nil {
			return nil, fmt.Errorf("prefix_super: %w", err)
		}
		return FilterPrefixSuper(p), nil

	case "prefix_sub":
		p, err := netip.ParsePrefix(value)
		if err != nil {
			return nil, fmt.Errorf("prefix_sub: %w", err)
		}
		return FilterPrefixSub(p), nil

	case "prefix_including":
		p, err := netip.ParsePrefix(value)
		if err != nil {
			return nil, fmt.Errorf("prefix_including: %w", err)
		}
		return FilterPrefixIncluding(p), nil

	case "peer_ip":
		ip, err := netip.ParseAddr(value)
		if err != nil {
			return nil, fmt.Errorf("peer_ip: %w", err)
		}
		return FilterPeerIP(ip), nil

	case "peer_ip_in":
		var ips []netip.Addr
		for _, s := range strings.Split(value, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			ip, err := netip.ParseAddr(s)
			if err != nil {
				return nil, fmt.Errorf("peer_ip_in: %w", err)
			}
			ips = append(ips, ip)
		}
		return FilterPeerIPIn(ips...), nil

	case "peer_asn":
		asn, err := parseASN(value)
		if err != nil {
			return nil, fmt.Errorf("peer_asn: %w", err)
		}
		return FilterPeerASN(asn), nil

	case "elem_type":
		switch strings.ToLower(value) {
		case "announce":
			return FilterElemType(ANNOUNCE), nil
		case "withdraw":
			return FilterElemType(WITHDRAW), nil
		default:
			return nil, fmt.Errorf("elem_type: must be announce or withdraw, got %q", value)
		}

	case "ts_start":
		ts, err := parseTimestamp(value)
		if err != nil {
			return nil, fmt.Errorf("ts_start: %w", err)
		}
		return FilterTsStart(ts), nil

	case "ts_end":
		ts, err := parseTimestamp(value)
		if err != nil {
			return nil, fmt.Errorf("ts_end: %w", err)
		}
		return FilterTsEnd(ts), nil

	case "as_path":
		re, err := regexp.Compile(value)
		if err != nil {
			return nil, fmt.Errorf("as_path: %w", err)
		}
		return FilterAsPath(re), nil

	case "ipv4_only":
		return FilterIPv4Only(), nil

	case "ipv6_only":
		return FilterIPv6Only(), nil

	default:
		return nil, fmt.Errorf("unrecognized filter kind %q", name)
	}
}

// parseASN accepts either a bare decimal ASN ("64500") or the asdot form
// used by 32-bit ASNs ("1.100").
func parseASN(value string) (uint32, error) {
	if hi, lo, ok := strings.Cut(value, "."); ok {
		h, err := strconv.ParseUint(hi, 10, 16)
		if err != nil {
			return 0, err
		}
		l, err := strconv.ParseUint(lo, 10, 16)
		if err != nil {
			return 0, err
		}
		return uint32(h)<<16 | uint32(l), nil
	}
	v, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// parseTimestamp accepts RFC3339 or a bare decimal unix-seconds value.
func parseTimestamp(value string) (time.Time, error) {
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Parse(time.RFC3339, value)
}
