package mrt

import (
	"net/netip"
	"time"

	"github.com/bgpfix/bgpfix/attrs"
	"github.com/bgpfix/bgpfix/caps"
	"github.com/bgpfix/bgpfix/msg"
)

// TABLE_DUMP (v1) subtypes (rfc6396/4.2)
const (
	TABLE_DUMP_AFI_IPV4 Sub = 1
	TABLE_DUMP_AFI_IPV6 Sub = 2
)

// TableDump represents a legacy MRT TABLE_DUMP (type 12) record: a single
// RIB prefix as seen by one peer, predating the PeerIndexTable split of
// TABLE_DUMP_V2.
type TableDump struct {
	Mrt *Mrt // parent MRT message

	ViewNumber     uint16
	SequenceNumber uint16
	Prefix         netip.Prefix
	Status         uint8
	OriginatedTime time.Time
	PeerIP         netip.Addr
	PeerAS         uint32 // always 16-bit on the wire

	RawAttrs []byte      // raw attribute bytes, referenced
	Attrs    attrs.Attrs // populated by ParseAttrs
}

// Init initializes td to use parent mrt
func (td *TableDump) Init(mrt *Mrt) {
	td.Mrt = mrt
}

// Reset prepares td for re-use
func (td *TableDump) Reset() {
	td.ViewNumber = 0
	td.SequenceNumber = 0
	td.Prefix = netip.Prefix{}
	td.Status = 0
	td.OriginatedTime = time.Time{}
	td.PeerIP = netip.Addr{}
	td.PeerAS = 0
	td.RawAttrs = nil
	td.Attrs.Reset()
}

// Parse parses td.Mrt.Data as a TABLE_DUMP entry, referencing data.
func (td *TableDump) Parse() error {
	mrt := td.Mrt
	if mrt.Type != TABLE_DUMP {
		return ErrType
	}

	var ipv6 bool
	switch mrt.Sub {
	case TABLE_DUMP_AFI_IPV4:
		ipv6 = false
	case TABLE_DUMP_AFI_IPV6:
		ipv6 = true
	default:
		return ErrSub
	}

	alen := 4
	if ipv6 {
		alen = 16
	}

	buf := mrt.Data
	minlen := 2 + 2 + alen + 1 + 1 + 4 + alen + 2 + 2
	if len(buf) < minlen {
		return ErrShort
	}

	td.ViewNumber = msb.Uint16(buf[0:2])
	td.SequenceNumber = msb.Uint16(buf[2:4])
	off := 4

	var addr netip.Addr
	if ipv6 {
		addr = netip.AddrFrom16([16]byte(buf[off : off+16]))
	} else {
		addr = netip.AddrFrom4([4]byte(buf[off : off+4]))
	}
	off += alen

	plen := int(buf[off])
	off++
	if (ipv6 && plen > 128) || (!ipv6 && plen > 32) {
		return ErrLength
	}

	prefix, err := addr.Prefix(plen)
	if err != nil {
		return err
	}
	td.Prefix = prefix

	td.Status = buf[off]
	off++

	sec := msb.Uint32(buf[off : off+4])
	td.OriginatedTime = time.Unix(int64(sec), 0).UTC()
	off += 4

	if ipv6 {
		td.PeerIP = netip.AddrFrom16([16]byte(buf[off : off+16]))
	} else {
		td.PeerIP = netip.AddrFrom4([4]byte(buf[off : off+4]))
	}
	off += alen

	td.PeerAS = uint32(msb.Uint16(buf[off : off+2]))
	off += 2

	attrlen := int(msb.Uint16(buf[off : off+2]))
	off += 2
	if len(buf) < off+attrlen {
		return ErrShort
	}
	td.RawAttrs = buf[off : off+attrlen]

	mrt.Upper = TABLE_DUMP
	return nil
}

// ParseAttrs parses td.RawAttrs into td.Attrs. TABLE_DUMP v1 predates
// 4-byte ASN support, so attributes are decoded with 16-bit ASNs; no
// 4-byte decoding is attempted.
func (td *TableDump) ParseAttrs() error {
	m := msg.NewMsg()
	m.Update.RawAttrs = td.RawAttrs
	var cps caps.Caps
	cps.Use(caps.CAP_AS_GUESS)
	if err := m.Update.ParseAttrs(cps); err != nil {
		return err
	}
	td.Attrs = m.Update.Attrs
	return nil
}

// Marshal marshals td to td.Mrt.Data.
func (td *TableDump) Marshal() error {
	mrt := td.Mrt
	if mrt.Type != TABLE_DUMP {
		return ErrType
	}

	ipv6 := td.Prefix.Addr().Is6()
	switch {
	case ipv6 && mrt.Sub != TABLE_DUMP_AFI_IPV6:
		return ErrSub
	case !ipv6 && mrt.Sub != TABLE_DUMP_AFI_IPV4:
		return ErrSub
	}

	alen := 4
	if ipv6 {
		alen = 16
	}

	buf := mrt.buf[:0]
	buf = msb.AppendUint16(buf, td.ViewNumber)
	buf = msb.AppendUint16(buf, td.SequenceNumber)

	addrBytes := td.Prefix.Addr().AsSlice()
	for len(addrBytes) < alen {
		addrBytes = append(addrBytes, 0)
	}
	buf = append(buf, addrBytes[:alen]...)

	buf = append(buf, byte(td.Prefix.Bits()))
	buf = append(buf, td.Status)
	buf = msb.AppendUint32(buf, uint32(td.OriginatedTime.Unix()))

	peerBytes := td.PeerIP.AsSlice()
	for len(peerBytes) < alen {
		peerBytes = append(peerBytes, 0)
	}
	buf = append(buf, peerBytes[:alen]...)

	buf = msb.AppendUint16(buf, uint16(td.PeerAS))
	buf = msb.AppendUint16(buf, uint16(len(td.RawAttrs)))
	buf = append(buf, td.RawAttrs...)

	mrt.Upper = TABLE_DUMP
	mrt.buf = buf
	mrt.Data = buf
	mrt.ref = false
	return nil
}
