package nlri

import (
	"strconv"

	radix "github.com/armon/go-radix"
)

// VPNIndex deduplicates VPN NLRI (SAFI 128) entries keyed by their Route
// Distinguisher plus prefix, the way CSUNetSec/protoparse's RIB walker
// indexes decoded prefixes in a radix tree before re-exporting them. It is
// scoped to a single TABLE_DUMP_V2 RIB_GENERIC record: build one, call Seen
// for every entry, and discard it once the record is flattened.
type VPNIndex struct {
	tree *radix.Tree
}

// NewVPNIndex returns an empty index.
func NewVPNIndex() *VPNIndex {
	return &VPNIndex{tree: radix.New()}
}

func vpnKey(v VPN, peerIndex uint16) string {
	var buf [8]byte
	rd := v.RD
	buf[0], buf[1] = byte(rd.Type>>8), byte(rd.Type)
	for i := 0; i < 6; i++ {
		buf[2+i] = byte(rd.Value >> (40 - 8*i))
	}
	return string(buf[:]) + "/" + v.Prefix.String() + "#" + strconv.Itoa(int(v.Label)) +
		"@" + strconv.Itoa(int(peerIndex))
}

// Seen reports whether a VPN entry from the same peer, with the same RD,
// prefix, and label, was already recorded, and records it if not. The first
// call for a given (peerIndex, v) pair returns false; every later call with
// the same pair returns true. This guards against a malformed RIB_GENERIC
// record that lists the same peer twice for the same VPN prefix.
func (x *VPNIndex) Seen(v VPN, peerIndex uint16) bool {
	key := vpnKey(v, peerIndex)
	if _, found := x.tree.Get(key); found {
		return true
	}
	x.tree.Insert(key, struct{}{})
	return false
}

// Len returns the number of distinct VPN entries recorded so far.
func (x *VPNIndex) Len() int {
	return x.tree.Len()
}
