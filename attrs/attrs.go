// Package attrs represents BGP path attributes.
//
// This package can store a set of BGP attributes in a thread-unsafe map
// using the Attrs type, and read/write a particular BGP attribute
// representation using implementations of the Attr interface.
package attrs

import (
	"fmt"
	"net/netip"
	"sort"

	"github.com/bgpfix/bgpfix/binary"
	"github.com/bgpfix/bgpfix/json"
)

var msb = binary.Msb

// Attrs is an ordinary map that represents a set of BGP path attributes.
// It should not contain nil values.
//
// Attrs and its values are not thread-safe.
type Attrs struct {
	db map[Code]Attr
}

// Init initializes Attrs. Can be called multiple times for lazy init.
func (ats *Attrs) Init() {
	if ats.db == nil {
		ats.db = map[Code]Attr{}
	}
}

// Valid returns true iff Attrs has already been initialized
func (ats *Attrs) Valid() bool {
	return ats.db != nil
}

// Reset resets Attrs back to initial state.
func (ats *Attrs) Reset() {
	ats.db = nil
}

// Clear drops all attributes.
func (ats *Attrs) Clear() {
	if ats.Valid() {
		clear(ats.db)
	}
}

// Len returns the number of attributes
func (ats *Attrs) Len() int {
	if ats.Valid() {
		return len(ats.db)
	} else {
		return 0
	}
}

// SetFrom sets all attributes from src, overwriting ats[ac] for existing attribute codes
func (ats *Attrs) SetFrom(src Attrs) {
	if !src.Valid() {
		return
	}

	ats.Init()
	for ac, at := range src.db {
		ats.db[ac] = at
	}
}

// Get returns ats[ac] or nil if not possible.
func (ats *Attrs) Get(ac Code) Attr {
	if ats.Valid() {
		return ats.db[ac]
	} else {
		return nil
	}
}

// Has returns true iff ats[ac] is set and non-nil
func (ats *Attrs) Has(ac Code) bool {
	return ats.Get(ac) != nil
}

// Drop drops ats[ac].
func (ats *Attrs) Drop(ac Code) {
	if ats.Valid() {
		delete(ats.db, ac)
	}
}

// Set overwrites ats[ac] with value.
func (ats *Attrs) Set(ac Code, value Attr) {
	ats.Init()
	ats.db[ac] = value
}

// Use returns ats[ac] if its already set and non-nil.
// Otherwise, it adds a new instance for ac with default flags.
func (ats *Attrs) Use(ac Code) Attr {
	// already there?
	if ats.Valid() {
		if at, ok := ats.db[ac]; ok && at != nil {
			return at
		}
	} else {
		ats.Init()
	}

	// create, store, and return
	at := NewAttr(ac)
	ats.db[ac] = at
	return at
}

// Each executes cb for each attribute in ats,
// in an ascending order of attribute codes.
func (ats *Attrs) Each(cb func(i int, ac Code, at Attr)) {
	if !ats.Valid() {
		return
	}

	// dump ats into todo
	type attcode struct {
		ac Code
		at Attr
	}
	var todo []attcode
	for ac, at := range ats.db {
		if at != nil {
			todo = append(todo, attcode{ac, at})
		}
	}

	// sort todo
	sort.Slice(todo, func(i, j int) bool {
		return todo[i].ac < todo[j].ac
	})

	// run
	for i, c := range todo {
		cb(i, c.ac, c.at)
	}
}

func (ats *Attrs) MarshalJSON() ([]byte, error) {
	return ats.ToJSON(nil), nil
}

func (ats *Attrs) ToJSON(dst []byte) []byte {
	if !ats.Valid() {
		return append(dst, "{}"...)
	}

	dst = append(dst, '{')
	ats.Each(func(i int, ac Code, at Attr) {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = ac.ToJSON(dst)

		dst = append(dst, `:{"flags":`...)
		dst = at.Flags().ToJSON(dst)

		dst = append(dst, `,"value":`...)
		dst = at.ToJSON(dst)
		dst = append(dst, '}')
	})
	return append(dst, '}')
}

func (ats *Attrs) FromJSON(src []byte) error {
	return json.ObjectEach(src, func(key string, val []byte, typ json.Type) error {
		// is key a valid attribute code?
		var acode Code
		if err := acode.FromJSON([]byte(key)); err != nil {
			return fmt.Errorf("%w: %w", ErrAttrCode, err)
		}
		attr := ats.Use(acode)

		// has flags?
		v, vt, _ := json.Get(val, "flags")
		if vt != json.NotExist {
			var af Flags
			if err := af.FromJSON(v); err != nil {
				return fmt.Errorf("%w: %w", ErrAttrFlags, err)
			}
			attr.SetFlags(af)

			// fetch the value
			v, _, _ = json.Get(val, "value")
		} else {
			// no flags (use defults), try to use the whole val
			v = val
		}

		// has the value?
		if len(v) == 0 {
			return ErrAttrValue
		}

		// parse?
		if err := attr.FromJSON(v); err != nil {
			return err
		}

		// success!
		return nil
	})
}

// MP returns raw MP-BGP attribute ac
func (ats *Attrs) MP(ac Code) *MP {
	if a, ok := ats.Get(ac).(*MP); ok {
		return a
	}
	return nil
}

// MPPrefixes returns *MPPrefixes MP-BGP attribute ac
func (ats *Attrs) MPPrefixes(ac Code) *MPPrefixes {
	if a, ok := ats.Get(ac).(*MP); ok && a.Value != nil {
		pfx, _ := a.Value.(*MPPrefixes)
		return pfx
	}
	return nil
}

// AsPath returns the ATTR_ASPATH from ats, or nil if not defined.
func (ats *Attrs) AsPath() *Aspath {
	if ap, ok := ats.Get(ATTR_ASPATH).(*Aspath); ok {
		return ap
	} else {
		return nil
	}
}

// As4Path returns the ATTR_AS4PATH from ats, or nil if not defined.
func (ats *Attrs) As4Path() *Aspath {
	if ap, ok := ats.Get(ATTR_AS4PATH).(*Aspath); ok {
		return ap
	} else {
		return nil
	}
}

// MergedAsPath returns the effective AS_PATH: AS_PATH merged with AS4_PATH
// per RFC 6793 4.2.3 if both are present, else whichever of the two is set.
func (ats *Attrs) MergedAsPath() *Aspath {
	return MergeAspath(ats.AsPath(), ats.As4Path())
}

// AsOrigin returns the last AS in the merged AS_PATH, or 0 on error
func (ats *Attrs) AsOrigin() uint32 {
	asp := ats.MergedAsPath()
	if asp == nil {
		return 0
	}

	for i := len(asp.Segments) - 1; i >= 0; i-- {
		seg := &asp.Segments[i]
		switch {
		case len(seg.List) == 0:
			continue
		case seg.IsSet:
			return 0
		default:
			return seg.List[len(seg.List)-1]
		}
	}

	return 0
}

// AsOriginSet returns the set of origin ASNs: either the single origin ASN,
// or, when the last AS_PATH segment is an AS_SET, all its members.
func (ats *Attrs) AsOriginSet() []uint32 {
	asp := ats.MergedAsPath()
	if asp == nil || len(asp.Segments) == 0 {
		return nil
	}

	last := &asp.Segments[len(asp.Segments)-1]
	if len(last.List) == 0 {
		return nil
	}
	if last.IsSet {
		return last.List
	}
	return last.List[len(last.List)-1:]
}

// Nexthop returns the effective next-hop address: the plain NEXT_HOP
// attribute if present, else the MP_REACH NLRI's next-hop, else an
// invalid netip.Addr. Matches the precedence elem.applyAttrs uses.
func (ats *Attrs) Nexthop() netip.Addr {
	if nh, ok := ats.Get(ATTR_NEXTHOP).(*IP); ok {
		return nh.Addr
	}
	if mp, ok := ats.Get(ATTR_MP_REACH).(*MP); ok {
		if pfx, ok := mp.Value.(*MPPrefixes); ok {
			return pfx.NextHop
		}
	}
	return netip.Addr{}
}

// Community returns the ATTR_COMMUNITY from ats, or an empty Community
// if not defined.
func (ats *Attrs) Community() Community {
	if c, ok := ats.Get(ATTR_COMMUNITY).(*Community); ok {
		return *c
	}
	return Community{}
}

// ExtCommunity returns the ATTR_EXT_COMMUNITY from ats, or an empty
// Extcom if not defined.
func (ats *Attrs) ExtCommunity() Extcom {
	if c, ok := ats.Get(ATTR_EXT_COMMUNITY).(*Extcom); ok {
		return *c
	}
	return Extcom{}
}

// LargeCommunity returns the ATTR_LARGE_COMMUNITY from ats, or an empty
// LargeCom if not defined.
func (ats *Attrs) LargeCommunity() LargeCom {
	if c, ok := ats.Get(ATTR_LARGE_COMMUNITY).(*LargeCom); ok {
		return *c
	}
	return LargeCom{}
}
