package attrs

import (
	"github.com/bgpfix/bgpfix/caps"
	"github.com/bgpfix/bgpfix/json"
)

// BGPLS represents ATTR_BGP_LS (RFC 7752): a sequence of TLVs describing
// node, link, or prefix attributes attached to a Link-State NLRI. TLV
// semantics are left opaque here; callers that need node/link/prefix
// classification can switch on BGPLSTLV.Type against the well-known
// ranges from RFC 7752 section 3.3.
type BGPLS struct {
	CodeFlags
	TLVs []BGPLSTLV
}

// BGPLSTLV is one top-level BGP-LS attribute TLV.
type BGPLSTLV struct {
	Type  uint16
	Value []byte
}

func NewBGPLS(at CodeFlags) Attr {
	return &BGPLS{CodeFlags: at}
}

func (a *BGPLS) Reset() {
	a.TLVs = a.TLVs[:0]
}

func (a *BGPLS) Unmarshal(buf []byte, cps caps.Caps) error {
	for len(buf) > 0 {
		if len(buf) < 4 {
			return ErrLength
		}
		typ := msb.Uint16(buf[0:2])
		tl := int(msb.Uint16(buf[2:4]))
		buf = buf[4:]
		if len(buf) < tl {
			return ErrLength
		}

		val := make([]byte, tl)
		copy(val, buf[:tl])
		a.TLVs = append(a.TLVs, BGPLSTLV{Type: typ, Value: val})
		buf = buf[tl:]
	}
	return nil
}

func (a *BGPLS) Marshal(dst []byte, cps caps.Caps) []byte {
	var body []byte
	for _, t := range a.TLVs {
		body = msb.AppendUint16(body, t.Type)
		body = msb.AppendUint16(body, uint16(len(t.Value)))
		body = append(body, t.Value...)
	}

	dst = a.CodeFlags.MarshalLen(dst, len(body))
	return append(dst, body...)
}

func (a *BGPLS) ToJSON(dst []byte) []byte {
	dst = append(dst, '[')
	for i, t := range a.TLVs {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = append(dst, `{"type":`...)
		dst = json.Uint32(dst, uint32(t.Type))
		dst = append(dst, `,"value":`...)
		dst = json.Hex(dst, t.Value)
		dst = append(dst, '}')
	}
	return append(dst, ']')
}

func (a *BGPLS) FromJSON(src []byte) error {
	return json.ArrayEach(src, func(_ int, val []byte, _ json.Type) error {
		var t BGPLSTLV
		err := json.ObjectEach(val, func(key string, v []byte, typ json.Type) (err error) {
			switch key {
			case "type":
				var u32 uint32
				u32, err = json.UnU32(v)
				t.Type = uint16(u32)
			case "value":
				t.Value, err = json.UnHex(v, t.Value[:0])
			}
			return
		})
		if err != nil {
			return err
		}
		a.TLVs = append(a.TLVs, t)
		return nil
	})
}
