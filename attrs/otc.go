package attrs

import (
	"github.com/bgpfix/bgpfix/caps"
	"github.com/bgpfix/bgpfix/json"
)

// OTC represents ATTR_OTC, the Only to Customer attribute (RFC 9234),
// used to enforce valley-free routing between BGP roles.
type OTC struct {
	CodeFlags
	ASN uint32
}

func NewOTC(at CodeFlags) Attr {
	return &OTC{CodeFlags: at}
}

func (a *OTC) Unmarshal(buf []byte, cps caps.Caps) error {
	if len(buf) != 4 {
		return ErrLength
	}
	a.ASN = msb.Uint32(buf)
	return nil
}

func (a *OTC) Marshal(dst []byte, cps caps.Caps) []byte {
	dst = a.CodeFlags.MarshalLen(dst, 4)
	return msb.AppendUint32(dst, a.ASN)
}

func (a *OTC) ToJSON(dst []byte) []byte {
	return json.Uint32(dst, a.ASN)
}

func (a *OTC) FromJSON(src []byte) (err error) {
	a.ASN, err = json.UnUint32(src)
	return
}
