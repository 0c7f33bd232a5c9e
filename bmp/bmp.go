// Package bmp supports BGP Monitoring Protocol (RFC 7854)
package bmp

import (
	"bytes"
	"io"

	"github.com/bgpfix/bgpfix/binary"
	"github.com/bgpfix/bgpfix/msg"
)

var msb = binary.Msb

// BMP common header length (RFC 7854 section 4.1)
const HEADLEN = 6 // version(1) + length(4) + type(1)

// BMP protocol version
const VERSION = 3

// MsgType represents BMP message type (RFC 7854 section 4.1)
type MsgType uint8

const (
	MSG_ROUTE_MONITORING  MsgType = 0 // Route Monitoring
	MSG_STATISTICS_REPORT MsgType = 1 // Statistics Report
	MSG_PEER_DOWN         MsgType = 2 // Peer Down Notification
	MSG_PEER_UP           MsgType = 3 // Peer Up Notification
	MSG_INITIATION        MsgType = 4 // Initiation Message
	MSG_TERMINATION       MsgType = 5 // Termination Message
	MSG_ROUTE_MIRRORING   MsgType = 6 // Route Mirroring
)

// String returns the name of the message type
func (t MsgType) String() string {
	switch t {
	case MSG_ROUTE_MONITORING:
		return "ROUTE_MONITORING"
	case MSG_STATISTICS_REPORT:
		return "STATISTICS_REPORT"
	case MSG_PEER_DOWN:
		return "PEER_DOWN"
	case MSG_PEER_UP:
		return "PEER_UP"
	case MSG_INITIATION:
		return "INITIATION"
	case MSG_TERMINATION:
		return "TERMINATION"
	case MSG_ROUTE_MIRRORING:
		return "ROUTE_MIRRORING"
	default:
		return "UNKNOWN"
	}
}

// Bmp represents a BMP message (RFC 7854)
type Bmp struct {
	ref bool   // true iff Data is a reference to borrowed memory
	buf []byte // internal buffer

	Version uint8   // BMP version (should be 3)
	Length  uint32  // Total message length
	Type    MsgType // Message type

	Peer    Peer   // Per-Peer Header (for types 0,1,2,3,6)
	BgpData []byte // raw BGP message (for Route Monitoring)

	PeerUp   *PeerUp      // decoded body, set iff Type == MSG_PEER_UP
	PeerDown *PeerDown    // decoded body, set iff Type == MSG_PEER_DOWN
	Stats    *StatsReport // decoded body, set iff Type == MSG_STATISTICS_REPORT
	TLVs     []TLV        // decoded body, set iff Type is MSG_INITIATION, MSG_TERMINATION or MSG_ROUTE_MIRRORING
}

// NewBmp returns a new empty BMP message
func NewBmp() *Bmp {
	return new(Bmp)
}

// Reset clears the message
func (b *Bmp) Reset() *Bmp {
	b.ref = false
	if cap(b.buf) < 1024*1024 {
		b.buf = b.buf[:0]
	} else {
		b.buf = nil
	}

	b.Version = 0
	b.Length = 0
	b.Type = 0
	b.Peer.Reset()
	b.BgpData = nil
	b.PeerUp = nil
	b.PeerDown = nil
	b.Stats = nil
	b.TLVs = nil

	return b
}

// FromBytes parses the BMP message from raw bytes.
// Does not copy data. Returns the number of bytes consumed.
func (b *Bmp) FromBytes(raw []byte) (int, error) {
	if len(raw) < HEADLEN {
		return 0, ErrShort
	}

	// Parse common header
	b.Version = raw[0]
	if b.Version != VERSION {
		return 0, ErrVersion
	}
	b.Length = msb.Uint32(raw[1:5])
	b.Type = MsgType(raw[5])

	// Validate length
	off := HEADLEN
	ml := int(b.Length)
	if ml < off {
		return 0, ErrLength
	} else if len(raw) < ml {
		return 0, ErrShort
	}

	// Parse Per-Peer header for applicable message types
	switch b.Type {
	case MSG_ROUTE_MONITORING, MSG_STATISTICS_REPORT, MSG_PEER_DOWN, MSG_PEER_UP, MSG_ROUTE_MIRRORING:
		if ml-off < PEER_HEADLEN {
			return off, ErrShort
		}
		n, err := b.Peer.FromBytes(raw[off:])
		if err != nil {
			return off, err
		}
		off += n
	default:
		b.Peer.Reset()
	}

	b.PeerUp = nil
	b.PeerDown = nil
	b.Stats = nil
	b.TLVs = nil

	switch b.Type {
	case MSG_ROUTE_MONITORING:
		if off < ml {
			b.ref = true
			b.BgpData = raw[off:ml]
		} else {
			b.BgpData = nil
		}
	case MSG_PEER_UP:
		pu := new(PeerUp)
		if err := pu.FromBytes(raw[off:ml], b.Peer.IsIPv6()); err != nil {
			// malformed Peer Up body: keep the raw bytes rather than
			// failing the whole message, matching the recoverable-error
			// posture the rest of this package follows.
			b.ref = true
			b.BgpData = raw[off:ml]
		} else {
			b.BgpData = nil
			b.PeerUp = pu
		}
	case MSG_PEER_DOWN:
		pd := new(PeerDown)
		if err := pd.FromBytes(raw[off:ml]); err != nil {
			b.ref = true
			b.BgpData = raw[off:ml]
		} else {
			b.BgpData = nil
			b.PeerDown = pd
		}
	case MSG_STATISTICS_REPORT:
		sr := new(StatsReport)
		if err := sr.FromBytes(raw[off:ml]); err != nil {
			b.ref = true
			b.BgpData = raw[off:ml]
		} else {
			b.BgpData = nil
			b.Stats = sr
		}
	case MSG_INITIATION, MSG_TERMINATION, MSG_ROUTE_MIRRORING:
		b.BgpData = nil
		b.TLVs = parseTLVs(raw[off:ml])
	default:
		b.BgpData = nil
	}

	return ml, nil
}

// CopyData copies referenced data if needed, making Bmp the owner
func (b *Bmp) CopyData() *Bmp {
	if !b.ref {
		return b
	}
	b.ref = false

	if b.BgpData == nil {
		return b
	}

	b.buf = append(b.buf[:0], b.BgpData...)
	b.BgpData = b.buf
	return b
}

// HasPerPeerHeader returns true if this message type has a Per-Peer header
func (b *Bmp) HasPerPeerHeader() bool {
	switch b.Type {
	case MSG_ROUTE_MONITORING, MSG_STATISTICS_REPORT, MSG_PEER_DOWN, MSG_PEER_UP, MSG_ROUTE_MIRRORING:
		return true
	default:
		return false
	}
}

// body returns the serialized message body (everything after the per-peer
// header, or after the common header for Initiation/Termination). It
// prefers a decoded structured field over raw BgpData, so a message
// parsed by FromBytes and re-marshaled round-trips byte-for-byte.
func (b *Bmp) body() []byte {
	switch b.Type {
	case MSG_PEER_UP:
		if b.PeerUp != nil {
			return b.PeerUp.ToBytes(nil, b.Peer.IsIPv6())
		}
	case MSG_PEER_DOWN:
		if b.PeerDown != nil {
			return b.PeerDown.ToBytes(nil)
		}
	case MSG_STATISTICS_REPORT:
		if b.Stats != nil {
			return b.Stats.ToBytes(nil)
		}
	case MSG_INITIATION, MSG_TERMINATION, MSG_ROUTE_MIRRORING:
		if b.TLVs != nil {
			return marshalTLVs(nil, b.TLVs)
		}
	}
	return b.BgpData
}

// Marshal serializes the BMP message to b.buf.
// For Route Monitoring messages, BgpData must already contain the BGP message.
func (b *Bmp) Marshal() error {
	if b.BgpData == nil && b.Type == MSG_ROUTE_MONITORING {
		return ErrNoData
	}

	data := b.body()

	// calculate total length
	length := HEADLEN
	if b.HasPerPeerHeader() {
		length += PEER_HEADLEN
	}
	length += len(data)

	// allocate buffer
	if cap(b.buf) < length {
		b.buf = make([]byte, length)
	}
	b.buf = b.buf[:length]

	// common header
	b.buf[0] = VERSION
	msb.PutUint32(b.buf[1:5], uint32(length))
	b.buf[5] = byte(b.Type)

	off := HEADLEN

	// per-peer header
	if b.HasPerPeerHeader() {
		b.Peer.ToBytes(b.buf[off:])
		off += PEER_HEADLEN
	}

	// body
	if len(data) > 0 {
		copy(b.buf[off:], data)
	}

	b.Length = uint32(length)
	return nil
}

// WriteTo writes the BMP message to w, implementing io.WriterTo.
// Call Marshal() first.
func (b *Bmp) WriteTo(w io.Writer) (int64, error) {
	if len(b.buf) == 0 {
		return 0, ErrNoData
	}
	n, err := w.Write(b.buf)
	return int64(n), err
}

// Bytes returns the marshaled BMP message.
// Call Marshal() first.
func (b *Bmp) Bytes() []byte {
	return b.buf
}

// FromMsg populates BMP ROUTE_MONITORING from BGP message m.
// m must already be marshaled. b.Peer must already carry the peer
// identity (address, ASN, flags); the caller owns that context.
func (b *Bmp) FromMsg(m *msg.Msg) error {
	if m.Data == nil {
		return ErrNoData
	}

	// Set message type
	b.Type = MSG_ROUTE_MONITORING

	// Write complete BGP message (header + data) to BgpData
	var bb bytes.Buffer
	if _, err := m.WriteTo(&bb); err != nil {
		return err
	}
	b.BgpData = bb.Bytes()

	// Set peer time from message
	b.Peer.Time = m.Time

	if b.Peer.Address.Is6() {
		b.Peer.Flags |= PEER_FLAG_V6
	}

	return nil
}
