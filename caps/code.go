package caps

import (
	"strconv"
	"strings"

	"github.com/bgpfix/bgpfix/json"
)

var codeName = map[Code]string{
	CAP_MP:                     "MP",
	CAP_ROUTE_REFRESH:          "ROUTE_REFRESH",
	CAP_OUTBOUND_FILTERING:     "OUTBOUND_FILTERING",
	CAP_EXTENDED_NEXTHOP:       "EXTENDED_NEXTHOP",
	CAP_EXTENDED_MESSAGE:       "EXTENDED_MESSAGE",
	CAP_BGPSEC:                 "BGPSEC",
	CAP_MULTIPLE_LABELS:        "MULTIPLE_LABELS",
	CAP_ROLE:                   "ROLE",
	CAP_GRACEFUL_RESTART:       "GRACEFUL_RESTART",
	CAP_AS4:                    "AS4",
	CAP_DYNAMIC:                "DYNAMIC",
	CAP_MULTISESSION:           "MULTISESSION",
	CAP_ADDPATH:                "ADDPATH",
	CAP_ENHANCED_ROUTE_REFRESH: "ENHANCED_ROUTE_REFRESH",
	CAP_LLGR:                   "LLGR",
	CAP_ROUTING_POLICY:         "ROUTING_POLICY",
	CAP_FQDN:                   "FQDN",
	CAP_BFD:                    "BFD",
	CAP_VERSION:                "VERSION",
	CAP_PRE_ROUTE_REFRESH:      "PRE_ROUTE_REFRESH",
}

var codeValue = func() map[string]Code {
	m := make(map[string]Code, len(codeName))
	for k, v := range codeName {
		m[v] = k
	}
	return m
}()

func (cc Code) String() string {
	if name, ok := codeName[cc]; ok {
		return "CAP_" + name
	}
	return "CAP_" + strconv.Itoa(int(cc))
}

func (cc Code) ToJSON(dst []byte) []byte {
	dst = append(dst, '"')
	if name, ok := codeName[cc]; ok {
		dst = append(dst, name...)
	} else {
		dst = append(dst, `CAP_`...)
		dst = json.Byte(dst, byte(cc))
	}
	return append(dst, '"')
}

func (cc *Code) FromJSON(src []byte) error {
	name := json.SQ(src)
	if val, ok := codeValue[name]; ok {
		*cc = val
		return nil
	}
	if rest, ok := strings.CutPrefix(name, "CAP_"); ok {
		val, err := strconv.ParseUint(rest, 0, 8)
		if err != nil {
			return err
		}
		*cc = Code(val)
		return nil
	}
	return ErrValue
}
