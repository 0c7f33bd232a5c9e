package elem

import (
	"net/netip"
	"regexp"
	"strconv"
	"time"
)

// Filter is a predicate over a flattened elem, used by the iterator layer
// to decide which elems to surface. The recognized kinds below mirror the
// filter grammar exposed to callers; composing several is a logical AND
// (see MatchAll).
type Filter func(e *Elem) bool

// MatchAll reports whether e satisfies every filter in filters. An empty
// filter list matches everything.
func MatchAll(filters []Filter, e *Elem) bool {
	for _, f := range filters {
		if !f(e) {
			return false
		}
	}
	return true
}

// FilterOriginASN matches elems whose origin ASN set contains asn.
func FilterOriginASN(asn uint32) Filter {
	return func(e *Elem) bool {
		for _, a := range e.OriginASNs {
			if a == asn {
				return true
			}
		}
		return false
	}
}

// FilterPrefixExact matches elems whose prefix equals p exactly.
func FilterPrefixExact(p netip.Prefix) Filter {
	return func(e *Elem) bool {
		return e.Prefix == p
	}
}

// FilterPrefixSuper matches elems whose prefix is a supernet of (covers) p.
func FilterPrefixSuper(p netip.Prefix) Filter {
	return func(e *Elem) bool {
		return e.Prefix.Bits() <= p.Bits() && e.Prefix.Overlaps(p)
	}
}

// FilterPrefixSub matches elems whose prefix is a subnet of (is covered by) p.
func FilterPrefixSub(p netip.Prefix) Filter {
	return func(e *Elem) bool {
		return e.Prefix.Bits() >= p.Bits() && p.Overlaps(e.Prefix)
	}
}

// FilterPrefixIncluding matches elems whose prefix overlaps p in either
// direction (exact, super, or sub).
func FilterPrefixIncluding(p netip.Prefix) Filter {
	return func(e *Elem) bool {
		return e.Prefix.Overlaps(p)
	}
}

// FilterPeerIP matches elems from exactly one peer address.
func FilterPeerIP(ip netip.Addr) Filter {
	return func(e *Elem) bool {
		return e.PeerIP == ip
	}
}

// FilterPeerIPIn matches elems from any of the given peer addresses.
func FilterPeerIPIn(ips ...netip.Addr) Filter {
	set := make(map[netip.Addr]struct{}, len(ips))
	for _, ip := range ips {
		set[ip] = struct{}{}
	}
	return func(e *Elem) bool {
		_, ok := set[e.PeerIP]
		return ok
	}
}

// FilterPeerASN matches elems from exactly one peer ASN.
func FilterPeerASN(asn uint32) Filter {
	return func(e *Elem) bool {
		return e.PeerASN == asn
	}
}

// FilterElemType matches elems of exactly one Type (ANNOUNCE or WITHDRAW).
func FilterElemType(t Type) Filter {
	return func(e *Elem) bool {
		return e.Type == t
	}
}

// FilterTsStart matches elems timestamped at or after ts.
func FilterTsStart(ts time.Time) Filter {
	return func(e *Elem) bool {
		return !e.Time.Before(ts)
	}
}

// FilterTsEnd matches elems timestamped at or before ts.
func FilterTsEnd(ts time.Time) Filter {
	return func(e *Elem) bool {
		return !e.Time.After(ts)
	}
}

// FilterAsPath matches elems whose AS_PATH, rendered as the canonical
// space-separated ASN sequence (see Elem.AsPathString), matches re. An
// elem with no AS_PATH never matches.
func FilterAsPath(re *regexp.Regexp) Filter {
	return func(e *Elem) bool {
		if e.AsPath == nil {
			return false
		}
		return re.MatchString(e.AsPathString())
	}
}

// FilterIPv4Only matches elems whose prefix is IPv4.
func FilterIPv4Only() Filter {
	return func(e *Elem) bool {
		return e.Prefix.Addr().Is4()
	}
}

// FilterIPv6Only matches elems whose prefix is IPv6.
func FilterIPv6Only() Filter {
	return func(e *Elem) bool {
		return e.Prefix.Addr().Is6()
	}
}

// AsPathString renders e.AsPath as the canonical ASN-space-separated form
// used by FilterAsPath and Pipe: AS_SET members of one hop are joined by a
// comma, hops are joined by a space.
func (e *Elem) AsPathString() string {
	if e.AsPath == nil {
		return ""
	}

	var b []byte
	for i, hop := range e.AsPath.Hops() {
		if i > 0 {
			b = append(b, ' ')
		}
		for j, asn := range hop {
			if j > 0 {
				b = append(b, ',')
			}
			b = strconv.AppendUint(b, uint64(asn), 10)
		}
	}
	return string(b)
}
