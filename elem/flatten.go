package elem

import (
	"net/netip"
	"time"

	"github.com/bgpfix/bgpfix/af"
	"github.com/bgpfix/bgpfix/attrs"
	"github.com/bgpfix/bgpfix/caps"
	"github.com/bgpfix/bgpfix/filter"
	"github.com/bgpfix/bgpfix/mrt"
	"github.com/bgpfix/bgpfix/msg"
	"github.com/bgpfix/bgpfix/nlri"
)

// Flattener converts MRT records and archived BGP UPDATE messages into
// elems. It keeps the most recently observed TABLE_DUMP_V2 PeerIndexTable,
// since later RIB_AFI_* / RIB_GENERIC records reference peers by index only
// (rfc6396/4.3.1). A Flattener must not be shared between independent MRT
// streams.
type Flattener struct {
	table *mrt.PeerIndexTable

	// RawFilter, if set, is evaluated against each BGP4MP inner UPDATE
	// message (once its attributes are parsed) before it is expanded
	// into per-prefix elems. A message the filter rejects yields zero
	// elems without running the per-prefix expansion in fromUpdate.
	// This reuses the message-level filter expression language the
	// teacher built for live pipe filtering (package filter) as a
	// coarser-grained complement to the per-elem Filter predicates in
	// filter.go; it has no effect on TABLE_DUMP/TABLE_DUMP_V2 records,
	// which carry no inner msg.Msg to evaluate against.
	RawFilter *filter.Filter

	eval filter.Eval
}

// NewFlattener returns a Flattener with no peer table loaded yet.
func NewFlattener() *Flattener {
	return &Flattener{}
}

// Reset drops the cached peer table, as if f had never seen a stream.
func (f *Flattener) Reset() {
	f.table = nil
}

// Table returns the currently cached PeerIndexTable, or nil.
func (f *Flattener) Table() *mrt.PeerIndexTable {
	return f.table
}

// FromMrt flattens one MRT record into zero or more elems. It parses m's
// upper layer first if that hasn't happened yet. State-change BGP4MP
// records and PeerIndexTable/GeoPeerTable records yield no elems.
func (f *Flattener) FromMrt(m *mrt.Mrt) ([]*Elem, error) {
	switch m.Type {
	case mrt.BGP4MP, mrt.BGP4MP_ET:
		switch m.Sub {
		case mrt.BGP4_STATE_CHANGE, mrt.BGP4_STATE_CHANGE_AS4:
			return nil, nil
		}
	}

	if err := m.Parse(); err != nil {
		return nil, err
	}

	switch m.Upper {
	case mrt.TABLE_DUMP:
		return f.fromTableDump(&m.TableDump)
	case mrt.TABLE_DUMP2:
		return f.fromTableDumpV2(&m.TableDumpV2)
	case mrt.BGP4MP, mrt.BGP4MP_ET:
		return f.fromBgp4(m)
	default:
		return nil, ErrType
	}
}

func (f *Flattener) fromTableDump(td *mrt.TableDump) ([]*Elem, error) {
	if !td.Attrs.Valid() {
		if err := td.ParseAttrs(); err != nil {
			return nil, err
		}
	}

	e := &Elem{
		Time:    td.OriginatedTime,
		Type:    ANNOUNCE,
		PeerIP:  td.PeerIP,
		PeerASN: td.PeerAS,
		Prefix:  td.Prefix,
	}
	applyAttrs(e, td.Attrs)
	return []*Elem{e}, nil
}

func (f *Flattener) fromTableDumpV2(td2 *mrt.TableDumpV2) ([]*Elem, error) {
	switch td2.Mrt.Sub {
	case mrt.TDV2_PEER_INDEX_TABLE:
		table := td2.PeerIndex // copy: td2 is reset and reused across records
		f.table = &table
		return nil, nil
	case mrt.TDV2_GEO_PEER_TABLE:
		return nil, nil
	}

	if f.table == nil {
		return nil, ErrNoTable
	}

	rib := &td2.Rib
	prefix := rib.Prefix
	isVPN := rib.Safi == af.SAFI_MPLS_VPN
	if isVPN {
		prefix = rib.VPN.Prefix
	}

	// VPN RIB_GENERIC entries are indexed by (peer, RD, prefix, label) to
	// reject a malformed record that lists the same peer twice for the
	// same VPN prefix (see nlri.VPNIndex).
	var vpnSeen *nlri.VPNIndex
	if isVPN {
		vpnSeen = nlri.NewVPNIndex()
	}

	elems := make([]*Elem, 0, len(rib.Entries))
	for i := range rib.Entries {
		entry := &rib.Entries[i]
		if int(entry.PeerIndex) >= len(f.table.Peers) {
			return elems, ErrNoPeer
		}
		if isVPN && vpnSeen.Seen(rib.VPN, entry.PeerIndex) {
			continue
		}

		if !entry.Attrs.Valid() {
			if err := rib.ParseAttrs(entry); err != nil {
				return elems, err
			}
		}

		peer := f.table.Peers[entry.PeerIndex]
		e := &Elem{
			Time:    entry.OriginatedTime,
			Type:    ANNOUNCE,
			PeerIP:  peer.IP,
			PeerASN: peer.AS,
			Prefix:  prefix,
			PathID:  entry.PathID,
		}
		applyAttrs(e, entry.Attrs)
		elems = append(elems, e)
	}
	return elems, nil
}

func (f *Flattener) fromBgp4(m *mrt.Mrt) ([]*Elem, error) {
	b4 := &m.Bgp4

	bm := msg.NewMsg()
	if err := b4.ToMsg(bm); err != nil {
		return nil, err
	}
	if bm.Type != msg.UPDATE {
		return nil, nil
	}

	var cps caps.Caps
	if b4.Mrt.Sub.HasAS4() {
		cps.Use(caps.CAP_AS4)
	} else {
		cps.Use(caps.CAP_AS_GUESS)
	}

	// AddPath is signalled by the BGP4MP subtype, not by a capability
	// negotiated on a live session, so the inner Update is parsed directly
	// rather than through Msg.Parse.
	if err := bm.Update.Parse(b4.AddPath); err != nil {
		return nil, err
	}
	if err := bm.Update.ParseAttrs(cps); err != nil {
		return nil, err
	}

	if f.RawFilter != nil {
		f.eval.SetMsg(bm)
		if !f.eval.Run(f.RawFilter) {
			return nil, nil
		}
	}

	return fromUpdate(m.Time, b4.PeerIP, b4.PeerAS, &bm.Update), nil
}

// fromUpdate expands one inner BGP UPDATE into elems, in the order required
// by the flattening invariant: top-level announced prefixes, then MP_REACH
// prefixes, then top-level withdrawn prefixes, then MP_UNREACH prefixes.
// Withdraw elems carry no path attributes besides OTC, since a withdrawal
// has no meaningful AS_PATH/communities/etc on the wire.
func fromUpdate(ts time.Time, peerIP netip.Addr, peerASN uint32, u *msg.Update) []*Elem {
	var elems []*Elem

	base := func(typ Type, n nlri.NLRI) *Elem {
		e := &Elem{
			Time:    ts,
			Type:    typ,
			PeerIP:  peerIP,
			PeerASN: peerASN,
			Prefix:  n.Prefix,
		}
		if n.Options == nlri.OPT_ADDPATH {
			e.PathID = n.Val
		}
		return e
	}

	for _, n := range u.Reach {
		e := base(ANNOUNCE, n)
		applyAttrs(e, u.Attrs)
		elems = append(elems, e)
	}
	if mp, ok := u.ReachMP().(*attrs.MPPrefixes); ok {
		for _, n := range mp.Prefixes {
			e := base(ANNOUNCE, n)
			applyAttrs(e, u.Attrs)
			elems = append(elems, e)
		}
	}

	for _, n := range u.Unreach {
		e := base(WITHDRAW, n)
		applyOTC(e, u.Attrs)
		elems = append(elems, e)
	}
	if mp, ok := u.UnreachMP().(*attrs.MPPrefixes); ok {
		for _, n := range mp.Prefixes {
			e := base(WITHDRAW, n)
			applyOTC(e, u.Attrs)
			elems = append(elems, e)
		}
	}

	return elems
}

// applyAttrs copies the path attributes from ats into e.
func applyAttrs(e *Elem, ats attrs.Attrs) {
	if !ats.Valid() {
		return
	}

	if nh, ok := ats.Get(attrs.ATTR_NEXTHOP).(*attrs.IP); ok {
		e.NextHop = nh.Addr
	} else if mp, ok := ats.Get(attrs.ATTR_MP_REACH).(*attrs.MP); ok {
		if pfx, ok := mp.Value.(*attrs.MPPrefixes); ok && pfx.NextHop.IsValid() {
			e.NextHop = pfx.NextHop
		}
	}

	if asp := ats.MergedAsPath(); asp != nil {
		e.AsPath = asp
		e.OriginASNs = ats.AsOriginSet()
	}

	if o, ok := ats.Get(attrs.ATTR_ORIGIN).(*attrs.Origin); ok {
		e.HasOrigin = true
		e.Origin = o.Origin
	}

	if lp, ok := ats.Get(attrs.ATTR_LOCALPREF).(*attrs.U32); ok {
		e.HasLocalPref = true
		e.LocalPref = lp.Val
	}

	if med, ok := ats.Get(attrs.ATTR_MED).(*attrs.U32); ok {
		e.HasMed = true
		e.Med = med.Val
	}

	e.Communities = appendCommunities(e.Communities, ats)

	if ats.Has(attrs.ATTR_AGGREGATE) {
		e.Atomic = true
	}

	if agg, ok := aggregatorOf(ats); ok {
		e.HasAggr = true
		e.AggrASN = agg.ASN
		e.AggrIP = agg.Addr
	}

	applyOTC(e, ats)
}

// applyOTC copies just the ATTR_OTC attribute into e, as used by WITHDRAW
// elems (rfc9234 only_to_customer survives a withdrawal).
func applyOTC(e *Elem, ats attrs.Attrs) {
	if otc, ok := ats.Get(attrs.ATTR_OTC).(*attrs.OTC); ok {
		e.HasOnlyToCustomer = true
		e.OnlyToCustomer = otc.ASN
	}
}

// aggregatorOf returns the effective AGGREGATOR: AS4AGGREGATOR if present
// (rfc6793/4.2.3 always carries the full 32-bit ASN), else AGGREGATOR.
func aggregatorOf(ats attrs.Attrs) (*attrs.Aggregator, bool) {
	if a, ok := ats.Get(attrs.ATTR_AS4AGGREGATOR).(*attrs.Aggregator); ok {
		return a, true
	}
	if a, ok := ats.Get(attrs.ATTR_AGGREGATOR).(*attrs.Aggregator); ok {
		return a, true
	}
	return nil, false
}

// appendCommunities flattens the three wire community attributes of ats
// into dst, preserving plain/large/extended shape through Community.
func appendCommunities(dst []Community, ats attrs.Attrs) []Community {
	if c, ok := ats.Get(attrs.ATTR_COMMUNITY).(*attrs.Community); ok {
		for i := range c.ASN {
			dst = append(dst, Community{
				Kind:  COMMUNITY_PLAIN,
				ASN:   uint32(c.ASN[i]),
				Value: uint32(c.Value[i]),
			})
		}
	}

	if lc, ok := ats.Get(attrs.ATTR_LARGE_COMMUNITY).(*attrs.LargeCom); ok {
		for i := range lc.ASN {
			dst = append(dst, Community{
				Kind:   COMMUNITY_LARGE,
				ASN:    lc.ASN[i],
				Value:  lc.Value1[i],
				Value2: lc.Value2[i],
			})
		}
	}

	if ec, ok := ats.Get(attrs.ATTR_EXT_COMMUNITY).(*attrs.Extcom); ok {
		for i := range ec.Type {
			val := ec.Value[i]
			if val == nil {
				continue
			}
			wire := val.Marshal() & 0x0000ffffffffffff
			wire |= uint64(ec.Type[i]) << 48
			dst = append(dst, Community{Kind: COMMUNITY_EXTENDED, Ext: wire})
		}
	}

	return dst
}
