// Package af implements AFI, SAFI, and their combinations as used throughout
// the wire formats: MP_REACH/MP_UNREACH, BMP per-peer headers, and the
// various BGP capabilities that are scoped per address family.
package af

import (
	"strings"

	"github.com/bgpfix/bgpfix/json"
)

// AF packs an AFI/SAFI pair as afi(16) + 0(8) + safi(8).
type AF uint32

// New returns an AF for the given AFI and SAFI.
func New(afi AFI, safi SAFI) AF {
	return AF(uint32(afi)<<16 | uint32(safi))
}

// NewAF is an alias of New, kept for call sites that spell it out.
func NewAF(afi AFI, safi SAFI) AF {
	return New(afi, safi)
}

// NewAFBytes reads AF from its 3-byte wire form: afi(16) + safi(8).
func NewAFBytes(buf []byte) AF {
	if len(buf) < 3 {
		return 0
	}
	return AF(uint32(msb.Uint16(buf[0:2]))<<16 | uint32(buf[2]))
}

// Marshal3 marshals af as 3 bytes: afi(16) + safi(8).
func (af AF) Marshal3(dst []byte) []byte {
	dst = msb.AppendUint16(dst, uint16(af.Afi()))
	return append(dst, byte(af.Safi()))
}

func (af AF) Afi() AFI {
	return AFI(af >> 16)
}

func (af AF) Safi() SAFI {
	return SAFI(af)
}

// AddVal extends af with a 32-bit value, producing an AFV.
func (af AF) AddVal(val uint32) AFV {
	return NewAFV(af.Afi(), af.Safi(), val)
}

func (af AF) ToJSON(dst []byte) []byte {
	dst = append(dst, '"')
	dst = append(dst, af.Afi().String()...)
	dst = append(dst, '/')
	dst = append(dst, af.Safi().String()...)
	dst = append(dst, '"')
	return dst
}

func (af AF) ToJSONKey(dst []byte, key string) []byte {
	dst = append(dst, '"')
	dst = append(dst, key...)
	dst = append(dst, `":`...)
	return af.ToJSON(dst)
}

func (af *AF) FromJSON(src []byte) error {
	s1, s2, ok := strings.Cut(json.SQ(src), "/")
	if !ok {
		return ErrValue
	}

	afi, err := AFIString(s1)
	if err != nil {
		return err
	}

	safi, err := SAFIString(s2)
	if err != nil {
		return err
	}

	*af = New(afi, safi)
	return nil
}
