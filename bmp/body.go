package bmp

import (
	"net/netip"
)

// TLV is a generic {type, length, value} element as used by the
// Initiation, Termination, Peer Up, and Route Mirroring message bodies
// (RFC 7854 sections 4.4, 4.5, 4.10, 4.7).
type TLV struct {
	Type  uint16
	Value []byte
}

// Information TLV types shared by Initiation/Termination/PeerUp (RFC 7854).
const (
	TLV_STRING     = 0 // free-form string (Initiation/PeerUp sysDescr etc, and Termination reason string)
	TLV_SYSDESCR   = 1
	TLV_SYSNAME    = 2
	TLV_VRF_TABLE  = 3
	TLV_ADMIN_IP   = 15 // RFC 8671 admin label
	TERM_REASON    = 0  // Termination: 2-byte reason code, encoded as a 2-byte Value
	TERM_REASON_LN = 2
)

// Route Mirroring TLV types (RFC 7854 section 4.7).
const (
	RM_TLV_BGP_MESSAGE = 0 // Value is a raw BGP message
	RM_TLV_INFORMATION = 1 // Value is a 2-byte info code (eg. "a message was lost")
)

// parseTLVs decodes a {type uint16, length uint16, value}* stream that
// runs to the end of raw. It stops (returning what it has so far) on a
// truncated trailing TLV rather than failing the whole message, matching
// the per-record error recovery posture the rest of this package follows.
func parseTLVs(raw []byte) []TLV {
	var out []TLV
	for len(raw) >= 4 {
		typ := msb.Uint16(raw[0:2])
		ln := int(msb.Uint16(raw[2:4]))
		raw = raw[4:]
		if ln > len(raw) {
			break
		}
		out = append(out, TLV{Type: typ, Value: raw[:ln]})
		raw = raw[ln:]
	}
	return out
}

// marshalTLVs appends tlvs to dst in {type, length, value} wire form.
func marshalTLVs(dst []byte, tlvs []TLV) []byte {
	for _, t := range tlvs {
		dst = msb.AppendUint16(dst, t.Type)
		dst = msb.AppendUint16(dst, uint16(len(t.Value)))
		dst = append(dst, t.Value...)
	}
	return dst
}

// PeerUp is the body of a Peer Up Notification (RFC 7854 section 4.10).
// LocalAddress/LocalPort/RemotePort describe the TCP session bgpd opened
// to the peer; SentOpen/ReceivedOpen are the two raw BGP OPEN messages
// (19-byte header included) exchanged on it; TLVs carries any trailing
// Information TLVs (sysName, string, VRF/table name, ...).
type PeerUp struct {
	LocalAddress netip.Addr
	LocalPort    uint16
	RemotePort   uint16
	SentOpen     []byte
	ReceivedOpen []byte
	TLVs         []TLV
}

// bgpMsgLen returns the total length (header included) of the BGP message
// starting at raw, per the 16B marker + 2B length + 1B type header.
func bgpMsgLen(raw []byte) (int, error) {
	if len(raw) < 19 {
		return 0, ErrShort
	}
	ln := int(msb.Uint16(raw[16:18]))
	if ln < 19 || ln > len(raw) {
		return 0, ErrLength
	}
	return ln, nil
}

// FromBytes parses a Peer Up body from raw (the bytes following the
// per-peer header). v6 selects the 4- vs 16-byte local address form,
// matching the enclosing per-peer header's V flag.
func (pu *PeerUp) FromBytes(raw []byte, v6 bool) error {
	if len(raw) < 20 {
		return ErrShort
	}

	if v6 {
		pu.LocalAddress = netip.AddrFrom16([16]byte(raw[0:16]))
	} else {
		pu.LocalAddress = netip.AddrFrom4([4]byte(raw[12:16]))
	}
	pu.LocalPort = uint16(msb.Uint16(raw[16:18]))
	pu.RemotePort = uint16(msb.Uint16(raw[18:20]))
	off := 20

	sentLen, err := bgpMsgLen(raw[off:])
	if err != nil {
		return err
	}
	pu.SentOpen = raw[off : off+sentLen]
	off += sentLen

	rcvdLen, err := bgpMsgLen(raw[off:])
	if err != nil {
		return err
	}
	pu.ReceivedOpen = raw[off : off+rcvdLen]
	off += rcvdLen

	pu.TLVs = parseTLVs(raw[off:])
	return nil
}

// ToBytes appends pu's wire form to dst.
func (pu *PeerUp) ToBytes(dst []byte, v6 bool) []byte {
	var addr [16]byte
	if v6 {
		addr = pu.LocalAddress.As16()
	} else {
		a4 := pu.LocalAddress.As4()
		copy(addr[12:], a4[:])
	}
	dst = append(dst, addr[:]...)
	dst = msb.AppendUint16(dst, pu.LocalPort)
	dst = msb.AppendUint16(dst, pu.RemotePort)
	dst = append(dst, pu.SentOpen...)
	dst = append(dst, pu.ReceivedOpen...)
	dst = marshalTLVs(dst, pu.TLVs)
	return dst
}

// PeerDown reason codes (RFC 7854 section 4.9, RFC 9069 section 3 adds 6).
const (
	PEER_DOWN_LOCAL_NOTIFY  = 1 // local system closed session, NOTIFICATION PDU follows
	PEER_DOWN_LOCAL_FSM     = 2 // local system closed session, 2-byte FSM event code follows
	PEER_DOWN_REMOTE_NOTIFY = 3 // remote system closed session, NOTIFICATION PDU follows
	PEER_DOWN_REMOTE_NODATA = 4 // remote system closed session, no data follows
	PEER_DOWN_PEER_DECONFIG = 5 // peer de-configured, no data follows
	PEER_DOWN_LOCRIB_CLOSED = 6 // Loc-RIB instance de-configured, no data follows (RFC 9069)
)

// PeerDown is the body of a Peer Down Notification (RFC 7854 section 4.9).
// The shape of Data depends on Reason: for reasons 1 and 3 it is a raw BGP
// NOTIFICATION message (error_code, error_subcode, data); for reason 2 it
// is a 2-byte FSM event code; for 4, 5 and 6 it is empty.
type PeerDown struct {
	Reason uint8
	Data   []byte
}

// FromBytes parses a Peer Down body from raw (the bytes following the
// per-peer header).
func (pd *PeerDown) FromBytes(raw []byte) error {
	if len(raw) < 1 {
		return ErrShort
	}
	pd.Reason = raw[0]
	pd.Data = raw[1:]
	return nil
}

// ToBytes appends pd's wire form to dst.
func (pd *PeerDown) ToBytes(dst []byte) []byte {
	dst = append(dst, pd.Reason)
	dst = append(dst, pd.Data...)
	return dst
}

// Notification returns the embedded BGP NOTIFICATION error_code, subcode,
// and trailing data, valid iff Reason is PEER_DOWN_LOCAL_NOTIFY or
// PEER_DOWN_REMOTE_NOTIFY and Data is at least 2 bytes long.
func (pd *PeerDown) Notification() (code, subcode uint8, data []byte, ok bool) {
	if pd.Reason != PEER_DOWN_LOCAL_NOTIFY && pd.Reason != PEER_DOWN_REMOTE_NOTIFY {
		return 0, 0, nil, false
	}
	if len(pd.Data) < 2 {
		return 0, 0, nil, false
	}
	return pd.Data[0], pd.Data[1], pd.Data[2:], true
}

// FSMCode returns the 2-byte FSM event code, valid iff Reason is
// PEER_DOWN_LOCAL_FSM and Data is at least 2 bytes long.
func (pd *PeerDown) FSMCode() (code uint16, ok bool) {
	if pd.Reason != PEER_DOWN_LOCAL_FSM || len(pd.Data) < 2 {
		return 0, false
	}
	return msb.Uint16(pd.Data[0:2]), true
}

// StatType enumerates Statistics Report TLV types (RFC 7854 section 4.8,
// RFC 8671 adds 14-17 Adj-RIB-Out variants).
type StatType uint16

const (
	STAT_PREFIXES_REJECTED     StatType = 0
	STAT_DUPLICATE_PREFIX      StatType = 1
	STAT_DUPLICATE_WITHDRAW    StatType = 2
	STAT_INVALID_CLUSTER_LOOP  StatType = 3
	STAT_INVALID_AS_PATH_LOOP  StatType = 4
	STAT_INVALID_ORIGINATOR_ID StatType = 5
	STAT_INVALID_AS_CONFED     StatType = 6
	STAT_ADJ_RIB_IN            StatType = 7  // gauge: routes in Adj-RIB-In
	STAT_LOC_RIB               StatType = 8  // gauge: routes in Loc-RIB
	STAT_ADJ_RIB_IN_AFI        StatType = 9  // afi/safi gauge
	STAT_LOC_RIB_AFI           StatType = 10 // afi/safi gauge
	STAT_WITHDRAW_UPDATE       StatType = 11
	STAT_WITHDRAW_PREFIX       StatType = 12
	STAT_DUPLICATE_UPDATE      StatType = 13
	STAT_ADJ_RIB_OUT_PRE       StatType = 14 // gauge, RFC 8671 (not AFI/SAFI-keyed)
	STAT_ADJ_RIB_OUT_POST      StatType = 15 // gauge, RFC 8671 (not AFI/SAFI-keyed)
	STAT_ADJ_RIB_OUT_PRE_AFI   StatType = 16 // afi/safi gauge, RFC 8671
	STAT_ADJ_RIB_OUT_POST_AFI  StatType = 17 // afi/safi gauge, RFC 8671
)

// afiSafiStatTypes holds the TLV types whose value is an AFI/SAFI-keyed
// gauge (afi uint16 + safi uint8 + count uint64) rather than a plain
// counter/gauge.
var afiSafiStatTypes = map[StatType]bool{
	STAT_ADJ_RIB_IN_AFI:       true,
	STAT_LOC_RIB_AFI:          true,
	STAT_ADJ_RIB_OUT_PRE_AFI:  true,
	STAT_ADJ_RIB_OUT_POST_AFI: true,
}

// StatCounter is one decoded Statistics Report TLV.
type StatCounter struct {
	Type StatType
	AFI  uint16 // valid iff Type is one of the afiSafiStatTypes
	SAFI uint8  // valid iff Type is one of the afiSafiStatTypes
	Raw  []byte // the undecoded value, for types whose length doesn't match a known shape
}

// Value returns the counter's numeric value: an AFI/SAFI gauge's 8-byte
// count, a plain 8-byte gauge, or a plain 4-byte counter widened to
// uint64. ok is false if the TLV's length matches none of those shapes
// and the caller must fall back to Raw.
func (c *StatCounter) Value() (v uint64, ok bool) {
	if afiSafiStatTypes[c.Type] {
		if len(c.Raw) < 8 {
			return 0, false
		}
		return msb.Uint64(c.Raw[len(c.Raw)-8:]), true
	}
	switch len(c.Raw) {
	case 4:
		return uint64(msb.Uint32(c.Raw)), true
	case 8:
		return msb.Uint64(c.Raw), true
	default:
		return 0, false
	}
}

// StatsReport is the body of a Statistics Report message (RFC 7854
// section 4.8): a count followed by that many {type, length, value} TLVs.
type StatsReport struct {
	Counters []StatCounter
}

// FromBytes parses a Statistics Report body from raw (the bytes following
// the per-peer header). Per the §4.6 loop-break policy shared with the
// MRT RIB decoders, a malformed trailing TLV stops the loop rather than
// failing the whole message.
func (sr *StatsReport) FromBytes(raw []byte) error {
	if len(raw) < 4 {
		return ErrShort
	}
	count := int(msb.Uint32(raw[0:4]))
	raw = raw[4:]

	sr.Counters = make([]StatCounter, 0, clampCount(count, len(raw), 4))
	for i := 0; i < count && len(raw) >= 4; i++ {
		typ := StatType(msb.Uint16(raw[0:2]))
		ln := int(msb.Uint16(raw[2:4]))
		raw = raw[4:]
		if ln > len(raw) {
			break
		}

		c := StatCounter{Type: typ, Raw: raw[:ln]}
		if afiSafiStatTypes[typ] && ln >= 3 {
			c.AFI = msb.Uint16(raw[0:2])
			c.SAFI = raw[2]
		}
		sr.Counters = append(sr.Counters, c)
		raw = raw[ln:]
	}
	return nil
}

// ToBytes appends sr's wire form to dst.
func (sr *StatsReport) ToBytes(dst []byte) []byte {
	dst = msb.AppendUint32(dst, uint32(len(sr.Counters)))
	for _, c := range sr.Counters {
		dst = msb.AppendUint16(dst, uint16(c.Type))
		dst = msb.AppendUint16(dst, uint16(len(c.Raw)))
		dst = append(dst, c.Raw...)
	}
	return dst
}

// clampCount bounds a declared element count by the bytes actually
// available, defending RIB/stats pre-allocation against a hostile
// declared count (spec.md section 5's "Memory bounds" clamp).
func clampCount(declared, remaining, minSize int) int {
	if minSize <= 0 {
		return declared
	}
	if max := remaining / minSize; declared > max {
		return max
	}
	return declared
}
