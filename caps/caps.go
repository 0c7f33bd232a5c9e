// Package caps implements BGP capabilities.
//
// This package stores a set of BGP capabilities using the Caps type, and
// reads/writes a particular BGP capability representation using
// implementations of the Cap interface. Decoding is driven by a single
// caller goroutine per stream (see the iterator layer), so Caps is a plain
// map rather than a concurrent one.
package caps

import (
	"fmt"
	"sort"

	"github.com/bgpfix/bgpfix/binary"
	"github.com/bgpfix/bgpfix/json"
)

var msb = binary.Msb

// Caps represents a set of BGP capabilities. It may contain nil values.
// The zero value is ready to use.
type Caps struct {
	db map[Code]Cap
}

// Init initializes Caps. Can be called multiple times for lazy init.
func (cps *Caps) Init() {
	if cps.db == nil {
		cps.db = make(map[Code]Cap)
	}
}

// Valid returns true iff Caps has already been initialized
func (cps *Caps) Valid() bool {
	return cps.db != nil
}

// Reset resets Caps back to initial state.
func (cps *Caps) Reset() {
	cps.db = nil
}

// Clear drops all capabilities.
func (cps *Caps) Clear() {
	for cc := range cps.db {
		delete(cps.db, cc)
	}
}

// Len returns the number of capabilites
func (cps *Caps) Len() int {
	return len(cps.db)
}

// SetFrom sets all capabilities from src, overwriting cps[cc] for existing capability codes
func (cps *Caps) SetFrom(src Caps) {
	if !src.Valid() {
		return
	}

	cps.Init()
	for cc, cap := range src.db {
		cps.db[cc] = cap
	}
}

// Get returns cps[cc] or nil if not possible.
func (cps *Caps) Get(cc Code) Cap {
	return cps.db[cc]
}

// Has returns true iff cps[cc] is set and non-nil
func (cps *Caps) Has(cc Code) bool {
	return cps.Get(cc) != nil
}

// Drop drops cps[cc].
func (cps *Caps) Drop(cc Code) {
	delete(cps.db, cc)
}

// Set overwrites cps[cc] with value.
func (cps *Caps) Set(cc Code, value Cap) {
	cps.Init()
	cps.db[cc] = value
}

// Use returns cps[cc] if its already there (may be nil).
// Otherwise, it adds a new instance of cc in cps.
func (cps *Caps) Use(cc Code) Cap {
	cps.Init()
	if cap, ok := cps.db[cc]; ok {
		return cap
	}

	cap := NewCap(cc)
	cps.db[cc] = cap
	return cap
}

// Each executes cb for each non-nil capability in cps,
// in an ascending order of capability codes.
func (cps *Caps) Each(cb func(i int, cc Code, cap Cap)) {
	if len(cps.db) == 0 {
		return
	}

	type capcode struct {
		cc  Code
		cap Cap
	}
	todo := make([]capcode, 0, len(cps.db))
	for cc, cap := range cps.db {
		if cap != nil {
			todo = append(todo, capcode{cc, cap})
		}
	}

	sort.Slice(todo, func(i, j int) bool {
		return todo[i].cc < todo[j].cc
	})

	for i, c := range todo {
		cb(i, c.cc, c.cap)
	}
}

func (cps *Caps) String() string {
	return string(cps.ToJSON(nil))
}

func (cps *Caps) MarshalJSON() (dst []byte, err error) {
	return cps.ToJSON(nil), nil
}

func (cps *Caps) ToJSON(dst []byte) []byte {
	if !cps.Valid() {
		return append(dst, "null"...)
	}

	dst = append(dst, '{')
	cps.Each(func(i int, cc Code, cap Cap) {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = cc.ToJSON(dst)
		dst = append(dst, ':')
		dst = cap.ToJSON(dst)
	})
	return append(dst, '}')
}

func (cps *Caps) FromJSON(src []byte) error {
	return json.ObjectEach(src, func(key string, val []byte, typ json.Type) error {
		var cc Code
		if err := cc.FromJSON([]byte(key)); err != nil {
			return fmt.Errorf("%w: %w", ErrCapCode, err)
		}
		c := cps.Use(cc)
		return c.FromJSON(val)
	})
}
