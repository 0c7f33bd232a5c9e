package af

import "fmt"

// SAFI is the 1-byte Subsequent Address Family Identifier.
type SAFI uint8

const (
	SAFI_UNICAST             SAFI = 1
	SAFI_MULTICAST           SAFI = 2
	SAFI_MPLS                SAFI = 4
	SAFI_MCAST_VPN           SAFI = 5
	SAFI_PLACEMENT_MSPW      SAFI = 6
	SAFI_MCAST_VPLS          SAFI = 8
	SAFI_SFC                 SAFI = 9
	SAFI_TUNNEL              SAFI = 64
	SAFI_VPLS                SAFI = 65
	SAFI_MDT                 SAFI = 66
	SAFI_4OVER6              SAFI = 67
	SAFI_6OVER4              SAFI = 68
	SAFI_L1VPN_DISCOVERY     SAFI = 69
	SAFI_EVPNS               SAFI = 70
	SAFI_LS                  SAFI = 71
	SAFI_LS_VPN              SAFI = 72
	SAFI_SR_TE_POLICY        SAFI = 73
	SAFI_SD_WAN_CAPABILITIES SAFI = 74
	SAFI_ROUTING_POLICY      SAFI = 75
	SAFI_CLASSFUL_TRANSPORT  SAFI = 76
	SAFI_TUNNELED_FLOWSPEC   SAFI = 77
	SAFI_MCAST_TREE          SAFI = 78
	SAFI_DPS                 SAFI = 79
	SAFI_LS_SPF              SAFI = 80
	SAFI_CAR                 SAFI = 83
	SAFI_VPN_CAR             SAFI = 84
	SAFI_MUP                 SAFI = 85
	SAFI_MPLS_VPN            SAFI = 128
	SAFI_MULTICAST_VPNS      SAFI = 129
	SAFI_ROUTE_TARGET        SAFI = 132
	SAFI_FLOWSPEC            SAFI = 133
	SAFI_L3VPN_FLOWSPEC      SAFI = 134
	SAFI_VPN_DISCOVERY       SAFI = 140
)

var safiNames = map[SAFI]string{
	SAFI_UNICAST:             "UNICAST",
	SAFI_MULTICAST:           "MULTICAST",
	SAFI_MPLS:                "MPLS",
	SAFI_MCAST_VPN:           "MCAST_VPN",
	SAFI_PLACEMENT_MSPW:      "PLACEMENT_MSPW",
	SAFI_MCAST_VPLS:          "MCAST_VPLS",
	SAFI_SFC:                 "SFC",
	SAFI_TUNNEL:              "TUNNEL",
	SAFI_VPLS:                "VPLS",
	SAFI_MDT:                 "MDT",
	SAFI_4OVER6:              "4OVER6",
	SAFI_6OVER4:              "6OVER4",
	SAFI_L1VPN_DISCOVERY:     "L1VPN_DISCOVERY",
	SAFI_EVPNS:               "EVPNS",
	SAFI_LS:                  "LS",
	SAFI_LS_VPN:              "LS_VPN",
	SAFI_SR_TE_POLICY:        "SR_TE_POLICY",
	SAFI_SD_WAN_CAPABILITIES: "SD_WAN_CAPABILITIES",
	SAFI_ROUTING_POLICY:      "ROUTING_POLICY",
	SAFI_CLASSFUL_TRANSPORT:  "CLASSFUL_TRANSPORT",
	SAFI_TUNNELED_FLOWSPEC:   "TUNNELED_FLOWSPEC",
	SAFI_MCAST_TREE:          "MCAST_TREE",
	SAFI_DPS:                 "DPS",
	SAFI_LS_SPF:              "LS_SPF",
	SAFI_CAR:                 "CAR",
	SAFI_VPN_CAR:             "VPN_CAR",
	SAFI_MUP:                 "MUP",
	SAFI_MPLS_VPN:            "MPLS_VPN",
	SAFI_MULTICAST_VPNS:      "MULTICAST_VPNS",
	SAFI_ROUTE_TARGET:        "ROUTE_TARGET",
	SAFI_FLOWSPEC:            "FLOWSPEC",
	SAFI_L3VPN_FLOWSPEC:      "L3VPN_FLOWSPEC",
	SAFI_VPN_DISCOVERY:       "VPN_DISCOVERY",
}

var safiValues = func() map[string]SAFI {
	m := make(map[string]SAFI, len(safiNames))
	for k, v := range safiNames {
		m[v] = k
	}
	return m
}()

func (s SAFI) String() string {
	if name, ok := safiNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SAFI(%d)", uint8(s))
}

// SAFIString parses the String() representation (or a raw decimal number)
// back into a SAFI.
func SAFIString(s string) (SAFI, error) {
	if v, ok := safiValues[s]; ok {
		return v, nil
	}
	return parseUintEnum[SAFI](s)
}
