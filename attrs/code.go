package attrs

// CodeName maps a recognized attribute code to its canonical name, used
// for JSON rendering. Unrecognized codes render as "ATTR_<n>" instead.
var CodeName = map[Code]string{
	ATTR_ORIGIN:             "ORIGIN",
	ATTR_ASPATH:             "ASPATH",
	ATTR_NEXTHOP:            "NEXTHOP",
	ATTR_MED:                "MED",
	ATTR_LOCALPREF:          "LOCALPREF",
	ATTR_AGGREGATE:          "AGGREGATE",
	ATTR_AGGREGATOR:         "AGGREGATOR",
	ATTR_COMMUNITY:          "COMMUNITY",
	ATTR_ORIGINATOR:         "ORIGINATOR",
	ATTR_CLUSTER_LIST:       "CLUSTER_LIST",
	ATTR_MP_REACH:           "MP_REACH",
	ATTR_MP_UNREACH:         "MP_UNREACH",
	ATTR_EXT_COMMUNITY:      "EXT_COMMUNITY",
	ATTR_AS4PATH:            "AS4PATH",
	ATTR_AS4AGGREGATOR:      "AS4AGGREGATOR",
	ATTR_PMSI_TUNNEL:        "PMSI_TUNNEL",
	ATTR_TUNNEL:             "TUNNEL",
	ATTR_TRAFFIC_ENG:        "TRAFFIC_ENG",
	ATTR_IPV6_EXT_COMMUNITY: "IPV6_EXT_COMMUNITY",
	ATTR_AIGP:               "AIGP",
	ATTR_PE_DISTING:         "PE_DISTING",
	ATTR_BGP_LS:             "BGP_LS",
	ATTR_LARGE_COMMUNITY:    "LARGE_COMMUNITY",
	ATTR_BGPSEC_PATH:        "BGPSEC_PATH",
	ATTR_OTC:                "OTC",
	ATTR_DPATH:              "DPATH",
	ATTR_SFP_ATTR:           "SFP_ATTR",
	ATTR_BFD_DISCRIMINATOR:  "BFD_DISCRIMINATOR",
	ATTR_RCA:                "RCA",
	ATTR_PREFIX_SID:         "PREFIX_SID",
	ATTR_SET:                "SET",
	ATTR_DEVELOPMENT:        "DEVELOPMENT",
}

// CodeValue is the inverse of CodeName, for parsing JSON back.
var CodeValue = func() map[string]Code {
	m := make(map[string]Code, len(CodeName))
	for k, v := range CodeName {
		m[v] = k
	}
	return m
}()
