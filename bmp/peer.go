package bmp

import (
	"net/netip"
	"time"

	"github.com/bgpfix/bgpfix/binary"
)

// Per-Peer header length (RFC 7854 section 4.2)
const PEER_HEADLEN = 42

// Peer represents BMP Per-Peer Header (RFC 7854 section 4.2)
type Peer struct {
	Type    uint8      // Peer Type (0=Global, 1=RD, 2=Local)
	Flags   uint8      // Peer Flags
	RD      uint64     // Peer Distinguisher (Route Distinguisher for type 1)
	Address netip.Addr // Peer IP Address
	AS      uint32     // Peer AS Number
	ID      uint32     // Peer BGP ID
	Time    time.Time  // Timestamp
}

// Peer Flags
const (
	PEER_FLAG_V6 = 0x80 // V flag: IPv6 (1) or IPv4 (0)
	PEER_FLAG_L  = 0x40 // L flag: post-policy (1) or pre-policy (0)
	PEER_FLAG_A  = 0x20 // A flag: legacy 2-byte AS path format (1) or 4-byte AS (0)
	PEER_FLAG_O  = 0x10 // O flag: Adj-RIB-Out (1) or Adj-RIB-In (0)
)

// Peer Types (RFC 7854 section 4.2, RFC 8671, RFC 9069)
const (
	PEER_TYPE_GLOBAL  = 0 // Global Instance Peer
	PEER_TYPE_RD      = 1 // RD Instance Peer
	PEER_TYPE_LOCAL   = 2 // Local Instance Peer
	PEER_TYPE_LOC_RIB = 3 // Loc-RIB Instance Peer (RFC 9069)
)

// Reset clears the peer header
func (p *Peer) Reset() {
	p.Type = 0
	p.Flags = 0
	p.RD = 0
	p.Address = netip.Addr{}
	p.AS = 0
	p.ID = 0
	p.Time = time.Time{}
}

// IsIPv6 returns true if peer address is IPv6
func (p *Peer) IsIPv6() bool {
	return p.Flags&PEER_FLAG_V6 != 0
}

// IsAdjRibOut returns true if this Route Monitoring/Mirroring message
// carries Adj-RIB-Out state rather than Adj-RIB-In (the O flag).
func (p *Peer) IsAdjRibOut() bool {
	return p.Flags&PEER_FLAG_O != 0
}

// IsLocRib returns true if this is a Loc-RIB Instance Peer (RFC 9069).
func (p *Peer) IsLocRib() bool {
	return p.Type == PEER_TYPE_LOC_RIB
}

// IsPostPolicy returns true if this is post-policy data
func (p *Peer) IsPostPolicy() bool {
	return p.Flags&PEER_FLAG_L != 0
}

// Is2ByteAS returns true if AS is 2-byte (legacy)
func (p *Peer) Is2ByteAS() bool {
	return p.Flags&PEER_FLAG_A != 0
}

// FromBytes parses the Per-Peer header from raw bytes.
// Returns the number of bytes consumed.
func (p *Peer) FromBytes(raw []byte) (int, error) {
	if len(raw) < PEER_HEADLEN {
		return 0, ErrShort
	}

	msb := binary.Msb

	p.Type = raw[0]
	p.Flags = raw[1]
	p.RD = msb.Uint64(raw[2:10])

	// Parse IP address (16 bytes, IPv4 is in last 4 bytes)
	if p.Flags&PEER_FLAG_V6 != 0 {
		// IPv6
		p.Address = netip.AddrFrom16([16]byte(raw[10:26]))
	} else {
		// IPv4 (stored in last 4 bytes of 16-byte field)
		p.Address = netip.AddrFrom4([4]byte(raw[22:26]))
	}

	p.AS = msb.Uint32(raw[26:30])
	if p.Is2ByteAS() {
		// field is still 4 bytes on the wire; only the low 16 bits are meaningful
		p.AS &= 0xffff
	}
	p.ID = msb.Uint32(raw[30:34])

	// Timestamp: seconds + microseconds
	sec := msb.Uint32(raw[34:38])
	usec := msb.Uint32(raw[38:42])
	p.Time = time.Unix(int64(sec), int64(usec)*1000).UTC()

	return PEER_HEADLEN, nil
}

// ToBytes writes the Per-Peer header into dst, reusing its backing array
// when it has enough capacity and allocating a fresh PEER_HEADLEN buffer
// otherwise. Returns the written slice.
func (p *Peer) ToBytes(dst []byte) []byte {
	if cap(dst) < PEER_HEADLEN {
		dst = make([]byte, PEER_HEADLEN)
	} else {
		dst = dst[:PEER_HEADLEN]
	}

	msb := binary.Msb

	dst[0] = p.Type
	dst[1] = p.Flags
	msb.PutUint64(dst[2:10], p.RD)

	var addr [16]byte
	if p.Flags&PEER_FLAG_V6 != 0 {
		addr = p.Address.As16()
	} else {
		a4 := p.Address.As4()
		copy(addr[12:], a4[:])
	}
	copy(dst[10:26], addr[:])

	as := p.AS
	if p.Is2ByteAS() {
		as &= 0xffff
	}
	msb.PutUint32(dst[26:30], as)
	msb.PutUint32(dst[30:34], p.ID)

	sec := p.Time.Unix()
	usec := p.Time.Nanosecond() / 1000
	msb.PutUint32(dst[34:38], uint32(sec))
	msb.PutUint32(dst[38:42], uint32(usec))

	return dst
}
