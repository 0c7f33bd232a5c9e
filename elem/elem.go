// Package elem flattens MRT records and archived BGP UPDATE messages into
// per-prefix elems, the way a RIB dump or an update stream is usually
// consumed downstream: one record per announced or withdrawn prefix,
// carrying the attributes that applied to it on the wire.
package elem

import (
	"net/netip"
	"strconv"
	"time"

	"github.com/bgpfix/bgpfix/attrs"
	"github.com/bgpfix/bgpfix/json"
)

// Type is the elem kind: an announcement or a withdrawal.
type Type uint8

const (
	ANNOUNCE Type = 1
	WITHDRAW Type = 2
)

func (t Type) String() string {
	switch t {
	case ANNOUNCE:
		return "A"
	case WITHDRAW:
		return "W"
	default:
		return "?"
	}
}

// CommunityKind tags which wire community flavor a Community value holds.
type CommunityKind uint8

const (
	COMMUNITY_PLAIN CommunityKind = iota
	COMMUNITY_EXTENDED
	COMMUNITY_LARGE
)

// Community is a tagged union over the three wire community flavors
// (RFC 1997, RFC 4360, RFC 8092), so an elem can expose all of them through
// one ordered list instead of three separate attributes.
type Community struct {
	Kind CommunityKind

	ASN    uint32 // plain: 16-bit community ASN; large: Global Administrator
	Value  uint32 // plain: 16-bit community value; large: Local Data Part 1
	Value2 uint32 // large: Local Data Part 2

	Ext uint64 // extended: the raw 8-byte wire value (type(16) << 48 | value(48))
}

// ToJSON appends the JSON representation of c to dst.
func (c Community) ToJSON(dst []byte) []byte {
	dst = append(dst, '"')
	switch c.Kind {
	case COMMUNITY_LARGE:
		dst = strconv.AppendUint(dst, uint64(c.ASN), 10)
		dst = append(dst, ':')
		dst = strconv.AppendUint(dst, uint64(c.Value), 10)
		dst = append(dst, ':')
		dst = strconv.AppendUint(dst, uint64(c.Value2), 10)
	case COMMUNITY_EXTENDED:
		var buf [8]byte
		for i := range buf {
			buf[i] = byte(c.Ext >> (56 - 8*i))
		}
		dst = json.Hex(dst, buf[:])
	default: // COMMUNITY_PLAIN
		dst = strconv.AppendUint(dst, uint64(c.ASN), 10)
		dst = append(dst, ':')
		dst = strconv.AppendUint(dst, uint64(c.Value), 10)
	}
	return append(dst, '"')
}

// Elem is the flattened, per-prefix view of a routing announcement or
// withdrawal (see mrt.TableDumpV2, mrt.Bgp4, and Flattener).
type Elem struct {
	Time time.Time
	Type Type

	PeerIP  netip.Addr
	PeerASN uint32

	Prefix netip.Prefix
	PathID uint32 // ADD_PATH identifier; 0 if not add-path

	NextHop netip.Addr // zero Addr iff absent

	AsPath     *attrs.Aspath // nil iff absent (always nil on WITHDRAW)
	OriginASNs []uint32      // origin AS, or the AS_SET members if the AS_PATH ends in one

	HasOrigin bool
	Origin    uint8 // 0=IGP, 1=EGP, 2=INCOMPLETE; valid iff HasOrigin

	HasLocalPref bool
	LocalPref    uint32

	HasMed bool
	Med    uint32

	Communities []Community

	Atomic bool

	HasAggr bool
	AggrASN uint32
	AggrIP  netip.Addr

	HasOnlyToCustomer bool
	OnlyToCustomer    uint32
}

// ToJSON appends the JSON representation of e to dst.
func (e *Elem) ToJSON(dst []byte) []byte {
	dst = append(dst, `{"type":"`...)
	dst = append(dst, e.Type.String()...)
	dst = append(dst, `","time":`...)
	dst = strconv.AppendFloat(dst, float64(e.Time.UnixMicro())/1e6, 'f', 6, 64)

	dst = append(dst, `,"peer_ip":"`...)
	dst = e.PeerIP.AppendTo(dst)
	dst = append(dst, `","peer_asn":`...)
	dst = strconv.AppendUint(dst, uint64(e.PeerASN), 10)

	dst = append(dst, `,"prefix":"`...)
	dst = e.Prefix.AppendTo(dst)
	dst = append(dst, '"')
	if e.PathID != 0 {
		dst = append(dst, `,"path_id":`...)
		dst = strconv.AppendUint(dst, uint64(e.PathID), 10)
	}

	if e.NextHop.IsValid() {
		dst = append(dst, `,"next_hop":"`...)
		dst = e.NextHop.AppendTo(dst)
		dst = append(dst, '"')
	}

	if e.AsPath != nil {
		dst = append(dst, `,"as_path":`...)
		dst = e.AsPath.ToJSON(dst)
	}
	if len(e.OriginASNs) > 0 {
		dst = append(dst, `,"origin_asns":[`...)
		for i, asn := range e.OriginASNs {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = strconv.AppendUint(dst, uint64(asn), 10)
		}
		dst = append(dst, ']')
	}
	if e.HasOrigin {
		dst = append(dst, `,"origin":`...)
		switch e.Origin {
		case 0:
			dst = append(dst, `"IGP"`...)
		case 1:
			dst = append(dst, `"EGP"`...)
		case 2:
			dst = append(dst, `"INCOMPLETE"`...)
		default:
			dst = json.Byte(dst, e.Origin)
		}
	}
	if e.HasLocalPref {
		dst = append(dst, `,"local_pref":`...)
		dst = strconv.AppendUint(dst, uint64(e.LocalPref), 10)
	}
	if e.HasMed {
		dst = append(dst, `,"med":`...)
		dst = strconv.AppendUint(dst, uint64(e.Med), 10)
	}
	if len(e.Communities) > 0 {
		dst = append(dst, `,"communities":[`...)
		for i := range e.Communities {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = e.Communities[i].ToJSON(dst)
		}
		dst = append(dst, ']')
	}
	if e.Atomic {
		dst = append(dst, `,"atomic":true`...)
	}
	if e.HasAggr {
		dst = append(dst, `,"aggr_asn":`...)
		dst = strconv.AppendUint(dst, uint64(e.AggrASN), 10)
		dst = append(dst, `,"aggr_ip":"`...)
		dst = e.AggrIP.AppendTo(dst)
		dst = append(dst, '"')
	}
	if e.HasOnlyToCustomer {
		dst = append(dst, `,"only_to_customer":`...)
		dst = strconv.AppendUint(dst, uint64(e.OnlyToCustomer), 10)
	}

	return append(dst, '}')
}

func (e *Elem) String() string {
	return json.S(e.ToJSON(nil))
}

// Pipe renders e in the compact pipe-delimited textual form:
// type|ts|peer_ip|peer_asn|prefix|as_path|origin|next_hop|local_pref|med|communities|atomic|aggr
func (e *Elem) Pipe() string {
	dst := make([]byte, 0, 128)

	dst = append(dst, e.Type.String()...)
	dst = append(dst, '|')
	dst = strconv.AppendFloat(dst, float64(e.Time.UnixMicro())/1e6, 'f', -1, 64)
	dst = append(dst, '|')
	if e.PeerIP.IsValid() {
		dst = e.PeerIP.AppendTo(dst)
	}
	dst = append(dst, '|')
	dst = strconv.AppendUint(dst, uint64(e.PeerASN), 10)
	dst = append(dst, '|')
	dst = e.Prefix.AppendTo(dst)
	dst = append(dst, '|')

	dst = append(dst, e.AsPathString()...)
	dst = append(dst, '|')

	if e.HasOrigin {
		switch e.Origin {
		case 0:
			dst = append(dst, "IGP"...)
		case 1:
			dst = append(dst, "EGP"...)
		case 2:
			dst = append(dst, "INCOMPLETE"...)
		}
	}
	dst = append(dst, '|')

	if e.NextHop.IsValid() {
		dst = e.NextHop.AppendTo(dst)
	}
	dst = append(dst, '|')

	if e.HasLocalPref {
		dst = strconv.AppendUint(dst, uint64(e.LocalPref), 10)
	}
	dst = append(dst, '|')

	if e.HasMed {
		dst = strconv.AppendUint(dst, uint64(e.Med), 10)
	}
	dst = append(dst, '|')

	for i := range e.Communities {
		if i > 0 {
			dst = append(dst, ' ')
		}
		dst = e.Communities[i].appendPipe(dst)
	}
	dst = append(dst, '|')

	if e.Atomic {
		dst = append(dst, "AT"...)
	}
	dst = append(dst, '|')

	if e.HasAggr {
		dst = strconv.AppendUint(dst, uint64(e.AggrASN), 10)
		dst = append(dst, ' ')
		dst = e.AggrIP.AppendTo(dst)
	}

	return string(dst)
}

func (c Community) appendPipe(dst []byte) []byte {
	switch c.Kind {
	case COMMUNITY_LARGE:
		dst = strconv.AppendUint(dst, uint64(c.ASN), 10)
		dst = append(dst, ':')
		dst = strconv.AppendUint(dst, uint64(c.Value), 10)
		dst = append(dst, ':')
		return strconv.AppendUint(dst, uint64(c.Value2), 10)
	case COMMUNITY_EXTENDED:
		var buf [8]byte
		for i := range buf {
			buf[i] = byte(c.Ext >> (56 - 8*i))
		}
		return json.Hex(dst, buf[:])
	default:
		dst = strconv.AppendUint(dst, uint64(c.ASN), 10)
		dst = append(dst, ':')
		return strconv.AppendUint(dst, uint64(c.Value), 10)
	}
}
