package msg

import (
	"fmt"
	"math"
	"net/netip"

	"github.com/bgpfix/bgpfix/af"
	"github.com/bgpfix/bgpfix/attrs"
	"github.com/bgpfix/bgpfix/caps"
	"github.com/bgpfix/bgpfix/json"
	"github.com/bgpfix/bgpfix/nlri"
	"github.com/rs/zerolog/log"
)

// Update represents a BGP UPDATE message
type Update struct {
	Msg *Msg // parent BGP message

	// AddPath is true iff Reach/Unreach carry a 4-byte path identifier
	// (RFC 7911). The caller context (a negotiated capability for a live
	// BGP session, or the enclosing MRT BGP4MP subtype for an archived
	// message) decides this; Update itself never guesses.
	AddPath bool

	Reach    []nlri.NLRI // reachable IPv4 unicast
	Unreach  []nlri.NLRI // unreachable IPv4 unicast
	RawAttrs []byte      // raw attributes

	Attrs attrs.Attrs // parsed attributes
	afi   af.AFI       // AFI from attr.ATTR_MP_REACH / attr.ATTR_MP_UNREACH
	safi  af.SAFI      // SAFI from attr.ATTR_MP_REACH / attr.ATTR_MP_UNREACH
}

const (
	UPDATE_MINLEN = 23 - HEADLEN // rfc4271/4.3
)

// Init initializes u to use parent m
func (u *Update) Init(m *Msg) {
	u.Msg = m
}

// Reset prepares u for re-use
func (u *Update) Reset() {
	u.Unreach = u.Unreach[:0]
	u.Reach = u.Reach[:0]
	u.RawAttrs = nil
	u.Attrs.Reset()
	u.afi = 0
	u.safi = 0
}

// Parse parses msg.Data as BGP UPDATE. addpath controls whether the
// top-level (non-MP) NLRI lists carry a 4-byte path identifier; the NLRI
// outside MP_REACH/MP_UNREACH is always IPv4 (rfc4271/4.3).
func (u *Update) Parse(addpath bool) error {
	buf := u.Msg.Data
	if len(buf) < UPDATE_MINLEN {
		return ErrShort
	}
	u.AddPath = addpath

	var withdrawn []byte
	l := msb.Uint16(buf[0:2])
	buf = buf[2:]
	if int(l)+2 > len(buf) {
		return ErrShort
	} else if l > 0 {
		withdrawn = buf[:l]
		buf = buf[l:]
	}

	var ats []byte
	l = msb.Uint16(buf[0:2])
	buf = buf[2:]
	if int(l) > len(buf) {
		return ErrShort
	} else if l > 0 {
		ats = buf[:l]
		buf = buf[l:]
	}

	announced := buf

	var err error
	if len(announced) > 0 {
		u.Reach, err = attrs.ReadPrefixes(u.Reach[:0], announced, false, addpath)
		if err != nil {
			return err
		}
	} else {
		u.Reach = u.Reach[:0]
	}

	if len(withdrawn) > 0 {
		u.Unreach, err = attrs.ReadPrefixes(u.Unreach[:0], withdrawn, false, addpath)
		if err != nil {
			return err
		}
	} else {
		u.Unreach = u.Unreach[:0]
	}

	u.RawAttrs = ats
	return nil
}

// ParseAttrs parses all attributes from RawAttrs into Attrs.
//
// A sub-parser failure on an attribute whose ATTR_PARTIAL flag is set is
// recovered: the attribute is dropped and a warning is logged, and parsing
// continues with the next attribute. A failure on a non-partial attribute
// is propagated immediately. Fewer than 3 stray bytes at the end of the
// attribute stream are tolerated, not rejected.
func (u *Update) ParseAttrs(cps caps.Caps) error {
	var (
		raw  = u.RawAttrs    // all attributes
		atyp attrs.CodeFlags // attribute type
		alen uint16          // attribute length
		ats  attrs.Attrs     // parsed attributes
	)

	ats.Init()
	for len(raw) >= 3 {
		// parse attribute type
		atyp = attrs.CodeFlags(msb.Uint16(raw[0:2]))
		acode := atyp.Code()
		partial := atyp.HasFlags(attrs.ATTR_PARTIAL)

		// parse attribute length
		if !atyp.HasFlags(attrs.ATTR_EXTENDED) {
			alen = uint16(raw[2])
			raw = raw[3:]
		} else if len(raw) < 4 {
			if partial {
				log.Warn().Int("code", int(acode)).Msg("dropping partial attribute: truncated extended length")
				break
			}
			return ErrParams
		} else { // extended length
			alen = msb.Uint16(raw[2:4])
			raw = raw[4:]
		}

		if len(raw) < int(alen) {
			if partial {
				// the declared length runs past what's left: there is no
				// reliable boundary for a next attribute, so drop the rest
				// of the stream along with this one.
				log.Warn().Int("code", int(acode)).Msg("dropping partial attribute: truncated value")
				break
			}
			return ErrAttrs
		}

		// put attribute value in buf, skip raw to next
		buf := raw[:alen]
		raw = raw[alen:]

		// a duplicate?
		if ats.Has(acode) {
			if partial {
				log.Warn().Int("code", int(acode)).Msg("dropping partial attribute: duplicate")
				continue
			}
			return fmt.Errorf("%s: %w", acode, ErrAttrDupe)
		}

		// create, overwrite flags, try parsing
		attr := ats.Use(acode)
		attr.SetFlags(atyp.Flags())
		if err := attr.Unmarshal(buf, cps); err != nil {
			if partial {
				ats.Drop(acode)
				log.Warn().Err(err).Int("code", int(acode)).Msg("dropping partial attribute")
				continue
			}
			return fmt.Errorf("%s: %w", acode, err)
		}
	}

	// store
	u.Attrs = ats
	return nil
}

func (u *Update) afisafi() bool {
	if reach, ok := u.Attrs.Get(attrs.ATTR_MP_REACH).(*attrs.MP); ok {
		u.afi = reach.Afi()
		u.safi = reach.Safi()
		return true
	} else if unreach, ok := u.Attrs.Get(attrs.ATTR_MP_UNREACH).(*attrs.MP); ok {
		u.afi = unreach.Afi()
		u.safi = unreach.Safi()
		return true
	} else {
		return false
	}
}

// Afi returns the AFI from MP_REACH attribute (or MP_UNREACH)
func (u *Update) Afi() af.AFI {
	if u.afi > 0 || u.afisafi() {
		return u.afi
	} else {
		return 0
	}
}

// Safi returns the SAFI from MP_REACH attribute (or MP_UNREACH)
func (u *Update) Safi() af.SAFI {
	if u.safi > 0 || u.afisafi() {
		return u.safi
	} else {
		return 0
	}
}

// AfiSafi returns the AFI/SAFI pair carried by u: the MP_REACH/MP_UNREACH
// pair if present, else IPv4 unicast for the plain withdrawn/reachable
// prefix lists (rfc4271/4.3 NLRI is always IPv4 outside multiprotocol BGP).
func (u *Update) AfiSafi() af.AF {
	if afi, safi := u.Afi(), u.Safi(); afi != 0 {
		return af.New(afi, safi)
	}
	return af.New(af.AFI_IPV4, af.SAFI_UNICAST)
}

// ReachMP returns attr.ATTR_MP_REACH value from u, or nil if not defined
func (u *Update) ReachMP() attrs.MPValue {
	if a, ok := u.Attrs.Get(attrs.ATTR_MP_REACH).(*attrs.MP); ok {
		return a.Value
	} else {
		return nil
	}
}

// UnreachMP returns attr.ATTR_MP_UNREACH value from u, or nil if not defined
func (u *Update) UnreachMP() attrs.MPValue {
	if a, ok := u.Attrs.Get(attrs.ATTR_MP_UNREACH).(*attrs.MP); ok {
		return a.Value
	} else {
		return nil
	}
}

// AllReach returns all reachable prefixes carried by u: the top-level
// IPv4 unicast list plus any MP_REACH prefixes.
func (u *Update) AllReach() []nlri.NLRI {
	out := u.Reach
	if mp, ok := u.ReachMP().(*attrs.MPPrefixes); ok {
		out = append(append([]nlri.NLRI(nil), out...), mp.Prefixes...)
	}
	return out
}

// AllUnreach returns all unreachable prefixes carried by u: the top-level
// IPv4 unicast list plus any MP_UNREACH prefixes.
func (u *Update) AllUnreach() []nlri.NLRI {
	out := u.Unreach
	if mp, ok := u.UnreachMP().(*attrs.MPPrefixes); ok {
		out = append(append([]nlri.NLRI(nil), out...), mp.Prefixes...)
	}
	return out
}

// AsPath returns the effective AS_PATH of u: AS_PATH merged with AS4_PATH
// per RFC 6793 4.2.3 if both are present, else nil if neither is set.
func (u *Update) AsPath() *attrs.Aspath {
	return u.Attrs.MergedAsPath()
}

// NextHop returns the effective next-hop address of u: the plain NEXT_HOP
// attribute if present, else the MP_REACH NLRI's next-hop.
func (u *Update) NextHop() netip.Addr {
	return u.Attrs.Nexthop()
}

// Community returns the ATTR_COMMUNITY value of u, or an empty Community
// if not defined.
func (u *Update) Community() attrs.Community {
	return u.Attrs.Community()
}

// ExtCommunity returns the ATTR_EXT_COMMUNITY value of u, or an empty
// Extcom if not defined.
func (u *Update) ExtCommunity() attrs.Extcom {
	return u.Attrs.ExtCommunity()
}

// LargeCommunity returns the ATTR_LARGE_COMMUNITY value of u, or an empty
// LargeCom if not defined.
func (u *Update) LargeCommunity() attrs.LargeCom {
	return u.Attrs.LargeCommunity()
}

// MarshalAttrs marshals u.Attrs into u.RawAttrs
func (u *Update) MarshalAttrs(cps caps.Caps) error {
	// NB: avoid u.RawAttrs[:0] as it might be referencing another slice
	u.RawAttrs = nil

	// marshal one-by-one
	var raw []byte
	u.Attrs.Each(func(i int, ac attrs.Code, at attrs.Attr) {
		raw = at.Marshal(raw, cps)
	})
	u.RawAttrs = raw
	return nil
}

// Marshal marshals u into u.Msg.Data
func (u *Update) Marshal(cps caps.Caps) error {
	msg := u.Msg
	msg.Data = nil
	dst := msg.buf[:0]

	// withdrawn routes
	dst = append(dst, 0, 0) // length (tbd [1])
	dst = attrs.WritePrefixes(dst, u.Unreach, u.AddPath)
	if l := len(dst) - 2; l > math.MaxUint16 {
		return fmt.Errorf("Marshal: too long Withdrawn Routes: %w (%d)", ErrLength, l)
	} else if l > 0 {
		msb.PutUint16(dst, uint16(l)) // [1]
	}

	// attributes
	if len(u.RawAttrs) > math.MaxUint16 {
		return fmt.Errorf("Marshal: too long Attributes: %w (%d)", ErrLength, len(u.RawAttrs))
	}
	dst = msb.AppendUint16(dst, uint16(len(u.RawAttrs)))
	dst = append(dst, u.RawAttrs...)

	// NLRI
	dst = attrs.WritePrefixes(dst, u.Reach, u.AddPath)

	// done
	msg.buf = dst
	msg.Data = dst
	msg.ref = false
	return nil
}

// String dumps u to JSON
func (u *Update) String() string {
	return string(u.ToJSON(nil))
}

// ToJSON appends JSON representation of u to dst (may be nil)
func (u *Update) ToJSON(dst []byte) []byte {
	dst = append(dst, '{')

	if len(u.Reach) > 0 {
		dst = append(dst, `"reach":`...)
		dst = nlri.ToJSON(dst, u.Reach)
	}

	if len(u.Unreach) > 0 {
		if len(u.Reach) > 0 {
			dst = append(dst, ',')
		}
		dst = append(dst, `"unreach":`...)
		dst = nlri.ToJSON(dst, u.Unreach)
	}

	if len(u.Reach) > 0 || len(u.Unreach) > 0 {
		dst = append(dst, ',')
	}

	dst = append(dst, `"attrs":`...)
	if u.Attrs.Valid() {
		dst = u.Attrs.ToJSON(dst)
	} else {
		dst = json.Hex(dst, u.RawAttrs)
	}

	dst = append(dst, '}')
	return dst
}

// FromJSON reads u JSON representation from src
func (u *Update) FromJSON(src []byte) error {
	return json.ObjectEach(src, func(key string, val []byte, typ json.Type) (err error) {
		switch key {
		case "reach":
			u.Reach, err = nlri.FromJSON(val, u.Reach[:0])
		case "unreach":
			u.Unreach, err = nlri.FromJSON(val, u.Unreach[:0])
		case "attrs":
			if typ == json.String {
				u.RawAttrs, err = json.UnHex(val, u.RawAttrs[:0])
			} else {
				err = u.Attrs.FromJSON(val)
			}
		}
		return err
	})
}
