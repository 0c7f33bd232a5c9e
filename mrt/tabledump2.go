package mrt

import (
	"math"
	"net/netip"
	"time"

	"github.com/bgpfix/bgpfix/af"
	"github.com/bgpfix/bgpfix/attrs"
	"github.com/bgpfix/bgpfix/caps"
	"github.com/bgpfix/bgpfix/msg"
	"github.com/bgpfix/bgpfix/nlri"
)

// TABLE_DUMP_V2 (type 13) subtypes, see
// https://www.iana.org/assignments/mrt/mrt.xhtml
const (
	TDV2_PEER_INDEX_TABLE        Sub = 1
	TDV2_RIB_IPV4_UNICAST        Sub = 2
	TDV2_RIB_IPV4_MULTICAST      Sub = 3
	TDV2_RIB_IPV6_UNICAST        Sub = 4
	TDV2_RIB_IPV6_MULTICAST      Sub = 5
	TDV2_RIB_GENERIC             Sub = 6
	TDV2_GEO_PEER_TABLE          Sub = 7
	TDV2_RIB_IPV4_UNICAST_ADDPATH   Sub = 8
	TDV2_RIB_IPV4_MULTICAST_ADDPATH Sub = 9
	TDV2_RIB_IPV6_UNICAST_ADDPATH   Sub = 10
	TDV2_RIB_IPV6_MULTICAST_ADDPATH Sub = 11
	TDV2_RIB_GENERIC_ADDPATH        Sub = 12
)

// Peer Type bitflags for PeerIndexTable/GeoPeerTable entries (rfc6396/4.3.1)
const (
	TDV2_PEER_IPV6 uint8 = 0x01
	TDV2_PEER_AS4  uint8 = 0x02
)

// TDPeer is one entry in a PeerIndexTable or GeoPeerTable.
type TDPeer struct {
	Type  uint8
	BgpID uint32
	IP    netip.Addr
	AS    uint32 // 16- or 32-bit, per Type&TDV2_PEER_AS4
}

// PeerIndexTable is the TABLE_DUMP_V2 PEER_INDEX_TABLE record
// (rfc6396/4.3.1): the peer table referenced by peer_index in every
// subsequent RIB entry in the same MRT stream.
type PeerIndexTable struct {
	CollectorID uint32
	ViewName    string
	Peers       []TDPeer // Peers[i] is peer index i
}

// RibEntry is one per-peer entry inside a TABLE_DUMP_V2 RIB record.
type RibEntry struct {
	PeerIndex      uint16
	OriginatedTime time.Time
	PathID         uint32 // ADD_PATH identifier, 0 if not add-path

	RawAttrs []byte      // raw attribute bytes, referenced
	Attrs    attrs.Attrs // populated by ParseAttrs
}

// Rib is a TABLE_DUMP_V2 RIB_AFI_* or RIB_GENERIC record: a single prefix
// (or VPN prefix) plus one RibEntry per peer that carries it.
type Rib struct {
	SequenceNumber uint32
	Afi            af.AFI
	Safi           af.SAFI
	Prefix         netip.Prefix // valid unless Safi == af.SAFI_MPLS_VPN
	VPN            nlri.VPN     // valid iff Safi == af.SAFI_MPLS_VPN
	Entries        []RibEntry
}

// GeoPeer is one entry in a GeoPeerTable (rfc6397).
type GeoPeer struct {
	TDPeer
	Lat float32
	Lon float32
}

// GeoPeerTable is the TABLE_DUMP_V2 GEO_PEER_TABLE record (rfc6397): a
// PeerIndexTable extended with collector/peer coordinates.
type GeoPeerTable struct {
	CollectorID  uint32
	ViewName     string
	CollectorLat float32
	CollectorLon float32
	Peers        []GeoPeer
}

// TableDumpV2 represents a parsed MRT TABLE_DUMP_V2 (type 13) record. Only
// one of PeerIndex, Rib, Geo is valid, selected by Mrt.Sub.
type TableDumpV2 struct {
	Mrt *Mrt // parent MRT message

	PeerIndex PeerIndexTable
	Rib       Rib
	Geo       GeoPeerTable
}

// Init initializes td2 to use parent mrt
func (td2 *TableDumpV2) Init(mrt *Mrt) {
	td2.Mrt = mrt
}

// Reset prepares td2 for re-use
func (td2 *TableDumpV2) Reset() {
	td2.PeerIndex = PeerIndexTable{}
	td2.Rib = Rib{}
	td2.Geo = GeoPeerTable{}
}

// ribAfiSafi returns the AFI/SAFI pair implied by a TABLE_DUMP_V2 RIB_AFI_*
// subtype, and whether it carries ADD_PATH entries.
func ribAfiSafi(sub Sub) (afi af.AFI, safi af.SAFI, addpath bool, ok bool) {
	switch sub {
	case TDV2_RIB_IPV4_UNICAST:
		return af.AFI_IPV4, af.SAFI_UNICAST, false, true
	case TDV2_RIB_IPV4_MULTICAST:
		return af.AFI_IPV4, af.SAFI_MULTICAST, false, true
	case TDV2_RIB_IPV6_UNICAST:
		return af.AFI_IPV6, af.SAFI_UNICAST, false, true
	case TDV2_RIB_IPV6_MULTICAST:
		return af.AFI_IPV6, af.SAFI_MULTICAST, false, true
	case TDV2_RIB_IPV4_UNICAST_ADDPATH:
		return af.AFI_IPV4, af.SAFI_UNICAST, true, true
	case TDV2_RIB_IPV4_MULTICAST_ADDPATH:
		return af.AFI_IPV4, af.SAFI_MULTICAST, true, true
	case TDV2_RIB_IPV6_UNICAST_ADDPATH:
		return af.AFI_IPV6, af.SAFI_UNICAST, true, true
	case TDV2_RIB_IPV6_MULTICAST_ADDPATH:
		return af.AFI_IPV6, af.SAFI_MULTICAST, true, true
	default:
		return 0, 0, false, false
	}
}

// Parse parses td2.Mrt.Data as a TABLE_DUMP_V2 record, referencing data.
func (td2 *TableDumpV2) Parse() error {
	mrt := td2.Mrt
	if mrt.Type != TABLE_DUMP2 {
		return ErrType
	}

	var err error
	switch mrt.Sub {
	case TDV2_PEER_INDEX_TABLE:
		err = td2.parsePeerIndex(mrt.Data)
	case TDV2_GEO_PEER_TABLE:
		err = td2.parseGeoPeerTable(mrt.Data)
	case TDV2_RIB_GENERIC, TDV2_RIB_GENERIC_ADDPATH:
		err = td2.parseRibGeneric(mrt.Data, mrt.Sub == TDV2_RIB_GENERIC_ADDPATH)
	default:
		if afi, safi, addpath, ok := ribAfiSafi(mrt.Sub); ok {
			err = td2.parseRibAfi(mrt.Data, afi, safi, addpath)
		} else {
			err = ErrSub
		}
	}

	if err == nil {
		mrt.Upper = TABLE_DUMP2
	}
	return err
}

func readPeerEntry(buf []byte) (p TDPeer, n int, err error) {
	if len(buf) < 1+4 {
		return p, 0, ErrShort
	}
	p.Type = buf[0]
	p.BgpID = msb.Uint32(buf[1:5])
	off := 5

	alen := 4
	if p.Type&TDV2_PEER_IPV6 != 0 {
		alen = 16
	}
	if len(buf) < off+alen {
		return p, 0, ErrShort
	}
	if alen == 16 {
		p.IP = netip.AddrFrom16([16]byte(buf[off : off+16]))
	} else {
		p.IP = netip.AddrFrom4([4]byte(buf[off : off+4]))
	}
	off += alen

	aslen := 2
	if p.Type&TDV2_PEER_AS4 != 0 {
		aslen = 4
	}
	if len(buf) < off+aslen {
		return p, 0, ErrShort
	}
	if aslen == 4 {
		p.AS = msb.Uint32(buf[off : off+4])
	} else {
		p.AS = uint32(msb.Uint16(buf[off : off+2]))
	}
	off += aslen

	return p, off, nil
}

func readViewName(buf []byte) (name string, n int, err error) {
	if len(buf) < 2 {
		return "", 0, ErrShort
	}
	l := int(msb.Uint16(buf[0:2]))
	if len(buf) < 2+l {
		return "", 0, ErrShort
	}
	return string(buf[2 : 2+l]), 2 + l, nil
}

func (td2 *TableDumpV2) parsePeerIndex(buf []byte) error {
	if len(buf) < 4 {
		return ErrShort
	}
	pit := PeerIndexTable{}
	pit.CollectorID = msb.Uint32(buf[0:4])
	buf = buf[4:]

	name, n, err := readViewName(buf)
	if err != nil {
		return err
	}
	pit.ViewName = name
	buf = buf[n:]

	if len(buf) < 2 {
		return ErrShort
	}
	count := int(msb.Uint16(buf[0:2]))
	buf = buf[2:]

	// clamp against hostile declared counts (min entry = 1+4+4+2 = 11 bytes)
	if count > len(buf)/11 {
		count = len(buf) / 11
	}

	pit.Peers = make([]TDPeer, 0, count)
	for len(buf) > 0 {
		p, n, err := readPeerEntry(buf)
		if err != nil {
			break // loop break policy: keep what we have
		}
		pit.Peers = append(pit.Peers, p)
		buf = buf[n:]
	}

	td2.PeerIndex = pit
	return nil
}

func (td2 *TableDumpV2) parseGeoPeerTable(buf []byte) error {
	if len(buf) < 4 {
		return ErrShort
	}
	gpt := GeoPeerTable{}
	gpt.CollectorID = msb.Uint32(buf[0:4])
	buf = buf[4:]

	name, n, err := readViewName(buf)
	if err != nil {
		return err
	}
	gpt.ViewName = name
	buf = buf[n:]

	if len(buf) < 4+4+2 {
		return ErrShort
	}
	gpt.CollectorLat = math.Float32frombits(msb.Uint32(buf[0:4]))
	gpt.CollectorLon = math.Float32frombits(msb.Uint32(buf[4:8]))
	count := int(msb.Uint16(buf[8:10]))
	buf = buf[10:]

	// min entry = 1+4+4+2+4+4 = 19 bytes
	if count > len(buf)/19 {
		count = len(buf) / 19
	}

	gpt.Peers = make([]GeoPeer, 0, count)
	for len(buf) > 0 {
		p, n, err := readPeerEntry(buf)
		if err != nil {
			break
		}
		buf = buf[n:]
		if len(buf) < 8 {
			break
		}
		lat := math.Float32frombits(msb.Uint32(buf[0:4]))
		lon := math.Float32frombits(msb.Uint32(buf[4:8]))
		buf = buf[8:]
		gpt.Peers = append(gpt.Peers, GeoPeer{TDPeer: p, Lat: lat, Lon: lon})
	}

	td2.Geo = gpt
	return nil
}

// parseRibEntries reads entry_count and that many RIB entries from buf.
// On the first malformed entry it stops and returns the entries
// accumulated so far, per the MRT RIB_AFI/RIB_GENERIC loop break policy.
func parseRibEntries(buf []byte, addpath bool) ([]RibEntry, error) {
	if len(buf) < 2 {
		return nil, ErrShort
	}
	count := int(msb.Uint16(buf[0:2]))
	buf = buf[2:]

	minEntry := 2 + 4 + 2
	if addpath {
		minEntry += 4
	}
	if count > len(buf)/minEntry {
		count = len(buf) / minEntry
	}

	entries := make([]RibEntry, 0, count)
	for len(buf) > 0 && len(entries) < count {
		if len(buf) < 2+4+2 {
			break
		}
		var e RibEntry
		e.PeerIndex = msb.Uint16(buf[0:2])
		sec := msb.Uint32(buf[2:6])
		e.OriginatedTime = time.Unix(int64(sec), 0).UTC()
		off := 6

		if addpath {
			if len(buf) < off+4 {
				break
			}
			e.PathID = msb.Uint32(buf[off : off+4])
			off += 4
		}

		if len(buf) < off+2 {
			break
		}
		alen := int(msb.Uint16(buf[off : off+2]))
		off += 2
		if len(buf) < off+alen {
			break
		}
		e.RawAttrs = buf[off : off+alen]
		off += alen

		entries = append(entries, e)
		buf = buf[off:]
	}

	return entries, nil
}

func (td2 *TableDumpV2) parseRibAfi(buf []byte, afi af.AFI, safi af.SAFI, addpath bool) error {
	if len(buf) < 4+1 {
		return ErrShort
	}
	seq := msb.Uint32(buf[0:4])
	buf = buf[4:]

	ipv6 := afi == af.AFI_IPV6
	plen := int(buf[0])
	if (ipv6 && plen > 128) || (!ipv6 && plen > 32) {
		return ErrLength
	}
	buf = buf[1:]

	blen := plen / 8
	if plen%8 != 0 {
		blen++
	}
	if len(buf) < blen {
		return ErrShort
	}

	var tmp [16]byte
	copy(tmp[:], buf[:blen])
	buf = buf[blen:]

	var prefix netip.Prefix
	var err error
	if ipv6 {
		prefix, err = netip.AddrFrom16(tmp).Prefix(plen)
	} else {
		prefix, err = netip.AddrFrom4([4]byte(tmp[:])).Prefix(plen)
	}
	if err != nil {
		return err
	}

	entries, err := parseRibEntries(buf, addpath)
	if err != nil {
		return err
	}

	td2.Rib = Rib{
		SequenceNumber: seq,
		Afi:            afi,
		Safi:           safi,
		Prefix:         prefix,
		Entries:        entries,
	}
	return nil
}

func (td2 *TableDumpV2) parseRibGeneric(buf []byte, addpath bool) error {
	if len(buf) < 4+2+1 {
		return ErrShort
	}
	seq := msb.Uint32(buf[0:4])
	afi := af.NewAFIBytes(buf[4:6])
	safi := af.SAFI(buf[6])
	buf = buf[7:]

	rib := Rib{SequenceNumber: seq, Afi: afi, Safi: safi}

	switch safi {
	case af.SAFI_MPLS_VPN:
		v, n, err := nlri.UnmarshalVPN(buf, afi == af.AFI_IPV6)
		if err != nil {
			return err
		}
		rib.VPN = v
		buf = buf[n:]
	default:
		// other AFI/SAFI: decode the prefix as a plain prefix of the AFI,
		// then parse the entries the same way as for VPN.
		ipv6 := afi == af.AFI_IPV6
		if len(buf) < 1 {
			return ErrShort
		}
		plen := int(buf[0])
		if (ipv6 && plen > 128) || (!ipv6 && plen > 32) {
			return ErrLength
		}
		blen := plen / 8
		if plen%8 != 0 {
			blen++
		}
		if len(buf) < 1+blen {
			return ErrShort
		}
		var tmp [16]byte
		copy(tmp[:], buf[1:1+blen])
		buf = buf[1+blen:]

		var err error
		if ipv6 {
			rib.Prefix, err = netip.AddrFrom16(tmp).Prefix(plen)
		} else {
			rib.Prefix, err = netip.AddrFrom4([4]byte(tmp[:])).Prefix(plen)
		}
		if err != nil {
			return err
		}
	}

	entries, err := parseRibEntries(buf, addpath)
	if err != nil {
		return err
	}
	rib.Entries = entries

	td2.Rib = rib
	return nil
}

// ParseAttrs parses entry.RawAttrs into entry.Attrs with 32-bit ASNs
// (CAP_AS4), as TABLE_DUMP_V2 RIB entries always use them. It does not use
// the AFI/SAFI or prefix of the enclosing Rib record and builds no NLRI
// from them.
func (rib *Rib) ParseAttrs(entry *RibEntry) error {
	m := msg.NewMsg()
	m.Update.RawAttrs = entry.RawAttrs
	var cps caps.Caps
	cps.Use(caps.CAP_AS4)
	if err := m.Update.ParseAttrs(cps); err != nil {
		return err
	}
	entry.Attrs = m.Update.Attrs
	return nil
}
