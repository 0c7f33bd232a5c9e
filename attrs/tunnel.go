package attrs

import (
	"github.com/bgpfix/bgpfix/caps"
	"github.com/bgpfix/bgpfix/json"
)

// TunnelEncap represents ATTR_TUNNEL, the Tunnel Encapsulation attribute
// (RFC 9012): a sequence of per-tunnel-type TLVs, each holding a sequence
// of sub-TLVs describing that tunnel's encapsulation details.
type TunnelEncap struct {
	CodeFlags
	Tunnels []TunnelTLV
}

// TunnelTLV is one top-level Tunnel TLV.
type TunnelTLV struct {
	Type    uint16
	SubTLVs []TunnelSubTLV
}

// TunnelSubTLV is one sub-TLV inside a TunnelTLV. Sub-TLV types below 128
// use a 1-byte length field on the wire; 128 and above use 2 bytes.
type TunnelSubTLV struct {
	Type  uint8
	Value []byte
}

func NewTunnelEncap(at CodeFlags) Attr {
	return &TunnelEncap{CodeFlags: at}
}

func (a *TunnelEncap) Unmarshal(buf []byte, cps caps.Caps) error {
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

		tlv := TunnelTLV{Type: typ}
		sub := buf[:tl]
		for len(sub) > 0 {
			st := sub[0]
			sub = sub[1:]

			var sl int
			if st < 128 {
				if len(sub) < 1 {
					return ErrLength
				}
				sl = int(sub[0])
				sub = sub[1:]
			} else {
				if len(sub) < 2 {
					return ErrLength
				}
				sl = int(msb.Uint16(sub[0:2]))
				sub = sub[2:]
			}
			if len(sub) < sl {
				return ErrLength
			}

			val := make([]byte, sl)
			copy(val, sub[:sl])
			tlv.SubTLVs = append(tlv.SubTLVs, TunnelSubTLV{Type: st, Value: val})
			sub = sub[sl:]
		}

		a.Tunnels = append(a.Tunnels, tlv)
		buf = buf[tl:]
	}
	return nil
}

func (a *TunnelEncap) Marshal(dst []byte, cps caps.Caps) []byte {
	// pre-render the body so we can write accurate lengths
	var body []byte
	for _, t := range a.Tunnels {
		body = msb.AppendUint16(body, t.Type)

		start := len(body)
		body = append(body, 0, 0) // placeholder for sub-TLV length
		for _, s := range t.SubTLVs {
			body = append(body, s.Type)
			if s.Type < 128 {
				body = append(body, byte(len(s.Value)))
			} else {
				body = msb.AppendUint16(body, uint16(len(s.Value)))
			}
			body = append(body, s.Value...)
		}
		msb.PutUint16(body[start:start+2], uint16(len(body)-start-2))
	}

	dst = a.CodeFlags.MarshalLen(dst, len(body))
	return append(dst, body...)
}

func (a *TunnelEncap) ToJSON(dst []byte) []byte {
	dst = append(dst, '[')
	for i, t := range a.Tunnels {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = append(dst, `{"type":`...)
		dst = json.U32(dst, uint32(t.Type))
		dst = append(dst, `,"sub_tlvs":[`...)
		for j, s := range t.SubTLVs {
			if j > 0 {
				dst = append(dst, ',')
			}
			dst = append(dst, `{"type":`...)
			dst = json.Byte(dst, s.Type)
			dst = append(dst, `,"value":`...)
			dst = json.Hex(dst, s.Value)
			dst = append(dst, '}')
		}
		dst = append(dst, `]}`...)
	}
	return append(dst, ']')
}

func (a *TunnelEncap) FromJSON(src []byte) error {
	return json.ArrayEach(src, func(_ int, val []byte, _ json.Type) error {
		var t TunnelTLV
		err := json.ObjectEach(val, func(key string, v []byte, typ json.Type) error {
			switch key {
			case "type":
				n, err := json.UnU32(v)
				t.Type = uint16(n)
				return err
			case "sub_tlvs":
				return json.ArrayEach(v, func(_ int, sv []byte, _ json.Type) error {
					var s TunnelSubTLV
					err := json.ObjectEach(sv, func(sk string, svv []byte, _ json.Type) (err error) {
						switch sk {
						case "type":
							s.Type, err = json.UnByte(svv)
						case "value":
							s.Value, err = json.UnHex(svv, s.Value[:0])
						}
						return
					})
					if err != nil {
						return err
					}
					t.SubTLVs = append(t.SubTLVs, s)
					return nil
				})
			}
			return nil
		})
		if err != nil {
			return err
		}
		a.Tunnels = append(a.Tunnels, t)
		return nil
	})
}
