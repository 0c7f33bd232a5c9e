package attrs

import (
	"net/netip"

	"github.com/bgpfix/bgpfix/caps"
	"github.com/bgpfix/bgpfix/json"
)

// ExtcomV6 represents ATTR_IPV6_EXT_COMMUNITY (RFC 5701): an extended
// community whose global administrator is an IPv6 address, so each entry
// is 20 bytes instead of the regular 8.
type ExtcomV6 struct {
	CodeFlags

	Type  []ExtcomType // top 2 bytes (type + subtype)
	Value []ExtcomAddr6
}

// ExtcomAddr6 is an IPv6-address-specific extended community value.
type ExtcomAddr6 struct {
	Addr  netip.Addr
	Value uint16 // 2-byte local administrator
}

func NewExtComV6(at CodeFlags) Attr {
	return &ExtcomV6{CodeFlags: at}
}

func (a *ExtcomV6) Reset() {
	a.Type = a.Type[:0]
	a.Value = a.Value[:0]
}

func (a *ExtcomV6) Unmarshal(buf []byte, cps caps.Caps) error {
	exp := len(buf) / 20
	if len(a.Type) == 0 && cap(a.Type) < exp {
		a.Type = make([]ExtcomType, 0, exp)
		a.Value = make([]ExtcomAddr6, 0, exp)
	}

	for len(buf) > 0 {
		if len(buf) < 20 {
			return ErrLength
		}

		et := ExtcomType(msb.Uint16(buf[0:2]))
		addr := netip.AddrFrom16([16]byte(buf[2:18]))
		val := msb.Uint16(buf[18:20])
		buf = buf[20:]

		a.Type = append(a.Type, et)
		a.Value = append(a.Value, ExtcomAddr6{Addr: addr, Value: val})
	}

	return nil
}

func (a *ExtcomV6) Marshal(dst []byte, cps caps.Caps) []byte {
	dst = a.CodeFlags.MarshalLen(dst, 20*len(a.Type))
	for i, et := range a.Type {
		dst = msb.AppendUint16(dst, uint16(et))
		v := a.Value[i]
		addr := v.Addr.As16()
		dst = append(dst, addr[:]...)
		dst = msb.AppendUint16(dst, v.Value)
	}
	return dst
}

func (a *ExtcomV6) ToJSON(dst []byte) []byte {
	dst = append(dst, '[')
	for i, et := range a.Type {
		if i > 0 {
			dst = append(dst, ',')
		}
		v := a.Value[i]
		dst = append(dst, '{')
		dst = append(dst, `"type":`...)
		dst = et.ToJSON(dst)
		dst = append(dst, `,"addr":"`...)
		dst = v.Addr.AppendTo(dst)
		dst = append(dst, `","value":`...)
		dst = json.Uint32(dst, uint32(v.Value))
		dst = append(dst, '}')
	}
	return append(dst, ']')
}

func (a *ExtcomV6) FromJSON(src []byte) error {
	return json.ArrayEach(src, func(_ int, val []byte, _ json.Type) error {
		var (
			et  ExtcomType
			v   ExtcomAddr6
			err error
		)
		err = json.ObjectEach(val, func(key string, vv []byte, typ json.Type) (err error) {
			switch key {
			case "type":
				err = et.FromJSON(vv)
			case "addr":
				v.Addr, err = netip.ParseAddr(json.S(vv))
			case "value":
				var u32 uint32
				u32, err = json.UnU32(vv)
				v.Value = uint16(u32)
			}
			return
		})
		if err != nil {
			return err
		}
		a.Type = append(a.Type, et)
		a.Value = append(a.Value, v)
		return nil
	})
}
