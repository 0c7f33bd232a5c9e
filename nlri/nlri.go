package nlri

import (
	"net/netip"
	"strconv"
	"strings"

	"github.com/bgpfix/bgpfix/af"
	"github.com/bgpfix/bgpfix/binary"
	"github.com/bgpfix/bgpfix/caps"
	"github.com/bgpfix/bgpfix/json"
)

var msb = binary.Msb

// NLRI is Network Layer Reachability Information (RFC4271),
// extended to support ADD_PATH (RFC7911).
type NLRI struct {
	netip.Prefix // the IP prefix

	Options Options // controls optional features
	Val     uint32  // additional NLRI value, eg. the ADD_PATH Path Identifier
}

type Options byte

const (
	_           Options = iota
	OPT_VALUE           // Val holds some arbitrary value (user-controlled)
	OPT_ADDPATH         // Val holds ADD_PATH
)

// RD is a Route Distinguisher (rfc4364/4.2): an 8-byte tag prepended to
// VPN-IPv4/VPN-IPv6 prefixes to disambiguate overlapping customer address
// space across different VPNs.
type RD struct {
	Type  uint16 // 0, 1, or 2
	Value uint64 // the remaining 6 bytes, interpreted per Type
}

// Unmarshal reads an 8-byte RD from src.
func (rd *RD) Unmarshal(src []byte) error {
	if len(src) < 8 {
		return ErrLength
	}
	rd.Type = msb.Uint16(src[0:2])
	switch rd.Type {
	case 0, 1, 2:
		var buf [8]byte
		copy(buf[2:], src[2:8])
		rd.Value = msb.Uint64(buf[:])
	default:
		return ErrRD
	}
	return nil
}

// Marshal appends the 8-byte wire form of rd to dst.
func (rd RD) Marshal(dst []byte) []byte {
	dst = msb.AppendUint16(dst, rd.Type)
	var buf [8]byte
	msb.PutUint64(buf[:], rd.Value)
	return append(dst, buf[2:8]...)
}

// VPN is a labeled VPN-IPv4/VPN-IPv6 prefix carried under SAFI 128
// (rfc4364): a 3-byte MPLS label stack, an 8-byte RD, then the prefix.
type VPN struct {
	Label  uint32 // 24-bit label, bottom-of-stack bit included
	RD     RD
	Prefix netip.Prefix
}

// UnmarshalVPN reads one VPN NLRI entry from src (wire layout:
// 1B total_bit_len | 3B label | 8B RD | remaining prefix bits).
func UnmarshalVPN(src []byte, ipv6 bool) (v VPN, n int, err error) {
	if len(src) < 1 {
		return v, 0, ErrLength
	}
	totalBits := int(src[0])
	n = 1
	src = src[1:]

	const rdBits = 8 * 8 // RD is 8 bytes
	const labelBits = 3 * 8
	if totalBits < labelBits+rdBits {
		return v, n, ErrValue
	}
	prefixBits := totalBits - labelBits - rdBits
	if (ipv6 && prefixBits > 128) || (!ipv6 && prefixBits > 32) {
		return v, n, ErrValue
	}

	byteLen := (totalBits - labelBits - rdBits + 7) / 8
	need := 3 + 8 + byteLen
	if len(src) < need {
		return v, n, ErrLength
	}

	v.Label = uint32(src[0])<<16 | uint32(src[1])<<8 | uint32(src[2])
	if err := v.RD.Unmarshal(src[3:11]); err != nil {
		return v, n, err
	}

	var tmp [16]byte
	copy(tmp[:], src[11:11+byteLen])
	if ipv6 {
		v.Prefix, err = netip.AddrFrom16(tmp).Prefix(prefixBits)
	} else {
		v.Prefix, err = netip.AddrFrom4([4]byte(tmp[:])).Prefix(prefixBits)
	}
	n += need
	return v, n, err
}

// Marshal appends the wire form of v to dst.
func (v VPN) Marshal(dst []byte) []byte {
	prefixBits := v.Prefix.Bits()
	totalBits := 3*8 + 8*8 + prefixBits
	dst = append(dst, byte(totalBits))
	dst = append(dst, byte(v.Label>>16), byte(v.Label>>8), byte(v.Label))
	dst = v.RD.Marshal(dst)

	byteLen := (prefixBits + 7) / 8
	return append(dst, v.Prefix.Addr().AsSlice()[:byteLen]...)
}

// IsSingleIP reports whether p's prefix length covers its entire address
// (a /32 for IPv4 or /128 for IPv6), ie. it identifies one address rather
// than a range.
func (p *NLRI) IsSingleIP() bool {
	return p.Bits() == p.Addr().BitLen()
}

// FromString parses a plain "addr/bits" prefix string into an NLRI with
// no ADD_PATH identifier.
func FromString(s string) (NLRI, error) {
	p, err := netip.ParsePrefix(s)
	if err != nil {
		return NLRI{}, err
	}
	return NLRI{Prefix: p}, nil
}

// ToJSON appends JSON representation of prefixes in src to dst
func ToJSON(dst []byte, src []NLRI) []byte {
	dst = append(dst, '[')
	for i := range src {
		p := &src[i]
		if i > 0 {
			dst = append(dst, ',')
		}
		if p.Options == OPT_ADDPATH {
			dst = append(dst, `"#`...)
			dst = json.Uint32(dst, p.Val)
			dst = append(dst, ':')
		} else {
			dst = append(dst, '"')
		}
		dst = p.Prefix.AppendTo(dst)
		dst = append(dst, '"')
	}
	return append(dst, ']')
}

// FromJSON parses JSON representation of prefixes in src into dst
func FromJSON(src []byte, dst []NLRI) ([]NLRI, error) {
	err := json.ArrayEach(src, func(key int, buf []byte, typ json.Type) error {
		var (
			nlri NLRI
			err  error
			s    = json.S(buf)
		)

		if len(s) == 0 {
			return json.ErrValue
		}

		// starts with #? treat as add-path path identifier
		if s[0] == '#' {
			before, after, found := strings.Cut(s[1:], ":")
			if !found || len(before) < 2 {
				return json.ErrValue
			}
			val, err := strconv.ParseUint(before[1:], 10, 32)
			if err != nil {
				return err
			}
			nlri.Options = OPT_ADDPATH
			nlri.Val = uint32(val)
			s = after
		}

		nlri.Prefix, err = netip.ParsePrefix(s)
		if err != nil {
			return err
		}

		dst = append(dst, nlri)
		return nil
	})
	return dst, err
}

// Unmarshal unmarshals src into prefix p
func (p *NLRI) Unmarshal(src []byte, ipv6, addpath bool) (n int, err error) {
	// reset options, just in case
	p.Options = 0

	// parse ADD_PATH Path Identifier?
	if addpath {
		if len(src) < 5 {
			return n, ErrLength
		}
		p.Options = OPT_ADDPATH
		p.Val = msb.Uint32(src[0:4])
		src = src[4:]
		n += 4
	}

	// prefix length in bits
	l := int(src[0])
	src = src[1:]
	n++
	if l > 128 || (!ipv6 && l > 32) {
		return n, ErrValue
	}

	// bit length -> bytes
	b := l / 8
	if l%8 != 0 {
		b++
	}
	if len(src) < b {
		return n, ErrLength
	}

	// copy what's defined, try to parse
	var tmp [16]byte
	n += copy(tmp[:], src[:b])
	if ipv6 {
		p.Prefix, err = netip.AddrFrom16(tmp).Prefix(l)
	} else {
		p.Prefix, err = netip.AddrFrom4([4]byte(tmp[:])).Prefix(l)
	}
	return n, err
}

// Unmarshal unmarshals IP prefixes from src into dst
func Unmarshal(dst []NLRI, src []byte, as af.AF, cps caps.Caps) ([]NLRI, error) {
	var (
		ipv6    = as.Afi() == af.AFI_IPV6
		addpath = caps.HasReceiveAddPath(cps, as.Afi(), as.Safi())
	)

	for len(src) > 0 {
		l := len(dst)
		if cap(dst) > l {
			dst = dst[:l+1]
		} else {
			dst = append(dst, NLRI{})
		}
		p := &dst[l]

		n, err := p.Unmarshal(src, ipv6, addpath)
		if err != nil {
			return dst, ErrLength
		}

		src = src[n:]
	}

	return dst, nil
}

// UnmarshalHeuristic decodes the NLRI list in src as af, the way Unmarshal
// does, but if addpath is false and decoding fails (or the window is
// immediately suspicious: a leading zero prefix-length byte, which never
// happens in a well-formed non-addpath NLRI since it would encode a 0/0
// default route redundantly with bytes looking like a path identifier),
// it retries the whole window as add-path. If the retry also fails, the
// original (non-addpath) error is returned, not the retry's.
//
// This exists because some MRT/TABLE_DUMP_V2 producers emit add-path
// encoded NLRI in record types that aren't marked as add-path.
func UnmarshalHeuristic(src []byte, ipv6 bool) (out []NLRI, addpath bool, err error) {
	// a leading zero prefix-length byte never happens in a well-formed
	// non-addpath NLRI: it would decode as a redundant 0/0 default route
	// sitting in front of bytes that look like a path identifier instead.
	suspicious := len(src) > 0 && src[0] == 0

	out, err = unmarshalPlain(nil, src, ipv6, false)
	if err == nil && !suspicious {
		return out, false, nil
	}

	retry, rerr := unmarshalPlain(nil, src, ipv6, true)
	if rerr == nil {
		return retry, true, nil
	}

	if err == nil {
		return out, false, nil // plain decode worked; add-path retry didn't, so trust it
	}
	return nil, false, err
}

func unmarshalPlain(dst []NLRI, src []byte, ipv6, addpath bool) ([]NLRI, error) {
	for len(src) > 0 {
		var p NLRI
		n, err := p.Unmarshal(src, ipv6, addpath)
		if err != nil {
			return dst, err
		}
		dst = append(dst, p)
		src = src[n:]
	}
	return dst, nil
}

// Marshal marshals prefix p to dst
func (p *NLRI) Marshal(dst []byte, addpath bool) []byte {
	if addpath {
		if p.Options == OPT_ADDPATH {
			dst = msb.AppendUint32(dst, p.Val)
		} else {
			dst = msb.AppendUint32(dst, 0)
		}
	}

	l := p.Bits()
	b := l / 8
	if l%8 != 0 {
		b++
	}
	dst = append(dst, byte(l))

	return append(dst, p.Addr().AsSlice()[:b]...)
}

// Marshal marshals prefixes in src to dst
func Marshal(dst []byte, src []NLRI, as af.AF, cps caps.Caps) []byte {
	var (
		ipv6    = as.Afi() == af.AFI_IPV6
		addpath = caps.HasSendAddPath(cps, as.Afi(), as.Safi())
	)
	for _, p := range src {
		if p.Addr().Is6() == ipv6 {
			dst = p.Marshal(dst, addpath)
		}
	}
	return dst
}
