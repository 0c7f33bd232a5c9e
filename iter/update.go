package iter

import (
	"context"
	"io"
	"net/netip"
	"time"

	"github.com/bgpfix/bgpfix/af"
	"github.com/bgpfix/bgpfix/attrs"
	"github.com/bgpfix/bgpfix/caps"
	"github.com/bgpfix/bgpfix/mrt"
	"github.com/bgpfix/bgpfix/msg"
	"github.com/bgpfix/bgpfix/nlri"
	"github.com/rs/zerolog"
)

// UpdateKind tags which variant of UpdateItem is populated.
type UpdateKind uint8

const (
	UPDATE_BGP4MP       UpdateKind = iota // one per inner UPDATE message
	UPDATE_TABLEDUMPV2                    // one per TABLE_DUMP_V2 RIB prefix, all peer entries together
	UPDATE_TABLEDUMP                      // one legacy TABLE_DUMP (v1) message
)

// Bgp4MpUpdate is one archived BGP UPDATE message, as carried by a BGP4MP
// or BGP4MP_ET MRT record.
type Bgp4MpUpdate struct {
	Time    time.Time
	PeerIP  netip.Addr
	PeerASN uint32
	Update  *msg.Update
}

// TableDumpV2Entry is one TABLE_DUMP_V2 RIB prefix together with every
// peer's RibEntry that announced it, mirroring the on-wire grouping
// (rfc6396/4.3.2): the prefix is decoded once and shared across peers.
type TableDumpV2Entry struct {
	SequenceNumber uint32
	Prefix         netip.Prefix
	VPN            nlri.VPN // valid iff the RIB record's SAFI is af.SAFI_MPLS_VPN
	Table          *mrt.PeerIndexTable
	Entries        []mrt.RibEntry
}

// TableDumpMessage is one legacy TABLE_DUMP (v1) message.
type TableDumpMessage struct {
	Time    time.Time
	PeerIP  netip.Addr
	PeerASN uint32
	Prefix  netip.Prefix
	Attrs   attrs.Attrs
}

// UpdateItem is a tagged union yielded by UpdateIterator, exposing the
// natural per-message/per-prefix grouping of each MRT variant instead of
// flattening everything to per-prefix elems (see ElemIterator for that).
type UpdateItem struct {
	Kind UpdateKind

	Bgp4Mp     *Bgp4MpUpdate
	TableDump2 *TableDumpV2Entry
	TableDump  *TableDumpMessage
}

// UpdateIterator pulls one UpdateItem at a time out of a RecordIterator,
// skipping records that carry no update-oriented content (state changes,
// PeerIndexTable/GeoPeerTable records themselves, which are consumed as a
// side effect to keep the peer table current).
type UpdateIterator struct {
	*zerolog.Logger

	rec   *RecordIterator
	table *mrt.PeerIndexTable
}

// NewUpdateIterator returns an UpdateIterator driven by rec.
func NewUpdateIterator(rec *RecordIterator) *UpdateIterator {
	nop := zerolog.Nop()
	return &UpdateIterator{Logger: &nop, rec: rec}
}

// NewUpdateIteratorFromReader is a convenience wrapper combining
// NewRecordIterator and NewUpdateIterator.
func NewUpdateIteratorFromReader(ctx context.Context, r io.Reader) *UpdateIterator {
	return NewUpdateIterator(NewRecordIterator(ctx, r))
}

// Records returns the underlying RecordIterator, eg. to inspect Stats.
func (it *UpdateIterator) Records() *RecordIterator {
	return it.rec
}

// Next returns the next UpdateItem. It absorbs per-record parse errors
// (logs and skips to the next record) and terminates on io.EOF or a fatal
// RecordIterator error.
func (it *UpdateIterator) Next() (*UpdateItem, error) {
	for {
		m, err := it.rec.Next()
		if err != nil {
			return nil, err
		}

		item, err := it.fromMrt(m)
		if err != nil {
			it.Warn().Err(err).Msg("dropping record: update parse error")
			continue
		}
		if item == nil {
			continue // structural record (state change, peer/geo table)
		}
		return item, nil
	}
}

// NextFallible returns the very next update-bearing record exactly as
// parsed, surfacing every error verbatim. It still silently skips records
// with no update content (state changes, peer/geo tables), since those are
// not errors.
func (it *UpdateIterator) NextFallible() (*UpdateItem, error) {
	for {
		m, err := it.rec.NextFallible()
		if err != nil {
			return nil, err
		}

		item, err := it.fromMrt(m)
		if err != nil {
			return nil, err
		}
		if item == nil {
			continue
		}
		return item, nil
	}
}

func (it *UpdateIterator) fromMrt(m *mrt.Mrt) (*UpdateItem, error) {
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
		return it.fromTableDump(&m.TableDump)
	case mrt.TABLE_DUMP2:
		return it.fromTableDumpV2(&m.TableDumpV2)
	case mrt.BGP4MP, mrt.BGP4MP_ET:
		return it.fromBgp4(m)
	default:
		return nil, nil
	}
}

func (it *UpdateIterator) fromTableDump(td *mrt.TableDump) (*UpdateItem, error) {
	if !td.Attrs.Valid() {
		if err := td.ParseAttrs(); err != nil {
			return nil, err
		}
	}
	return &UpdateItem{
		Kind: UPDATE_TABLEDUMP,
		TableDump: &TableDumpMessage{
			Time:    td.OriginatedTime,
			PeerIP:  td.PeerIP,
			PeerASN: td.PeerAS,
			Prefix:  td.Prefix,
			Attrs:   td.Attrs,
		},
	}, nil
}

func (it *UpdateIterator) fromTableDumpV2(td2 *mrt.TableDumpV2) (*UpdateItem, error) {
	switch td2.Mrt.Sub {
	case mrt.TDV2_PEER_INDEX_TABLE:
		table := td2.PeerIndex // copy: td2 is reset and reused across records
		it.table = &table
		return nil, nil
	case mrt.TDV2_GEO_PEER_TABLE:
		return nil, nil
	}

	rib := &td2.Rib
	for i := range rib.Entries {
		entry := &rib.Entries[i]
		if !entry.Attrs.Valid() {
			if err := rib.ParseAttrs(entry); err != nil {
				return nil, err
			}
		}
	}

	prefix := rib.Prefix
	if rib.Safi == af.SAFI_MPLS_VPN {
		prefix = rib.VPN.Prefix
	}

	return &UpdateItem{
		Kind: UPDATE_TABLEDUMPV2,
		TableDump2: &TableDumpV2Entry{
			SequenceNumber: rib.SequenceNumber,
			Prefix:         prefix,
			VPN:            rib.VPN,
			Table:          it.table,
			Entries:        rib.Entries,
		},
	}, nil
}

func (it *UpdateIterator) fromBgp4(m *mrt.Mrt) (*UpdateItem, error) {
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

	if err := bm.Update.Parse(b4.AddPath); err != nil {
		return nil, err
	}
	if err := bm.Update.ParseAttrs(cps); err != nil {
		return nil, err
	}

	return &UpdateItem{
		Kind: UPDATE_BGP4MP,
		Bgp4Mp: &Bgp4MpUpdate{
			Time:    m.Time,
			PeerIP:  b4.PeerIP,
			PeerASN: b4.PeerAS,
			Update:  &bm.Update,
		},
	}, nil
}
