package af

import "fmt"

// AFI is the 2-byte Address Family Identifier (IANA "Address Family Numbers").
type AFI uint16

const (
	AFI_IPV4            AFI = 1
	AFI_IPV6            AFI = 2
	AFI_L2VPN           AFI = 25
	AFI_MPLS_SECTION    AFI = 26
	AFI_MPLS_LSP        AFI = 27
	AFI_MPLS_PSEUDOWIRE AFI = 28
	AFI_MT_IPV4         AFI = 29
	AFI_MT_IPV6         AFI = 30
	AFI_SFC             AFI = 31
	AFI_LS              AFI = 16388
	AFI_ROUTING_POLICY  AFI = 16398
	AFI_MPLS_NAMESPACES AFI = 16399
)

// NewAFIBytes reads an AFI from its 2-byte big-endian wire form.
func NewAFIBytes(buf []byte) AFI {
	if len(buf) < 2 {
		return 0
	}
	return AFI(msb.Uint16(buf[0:2]))
}

func (a AFI) String() string {
	switch a {
	case AFI_IPV4:
		return "IPV4"
	case AFI_IPV6:
		return "IPV6"
	case AFI_L2VPN:
		return "L2VPN"
	case AFI_MPLS_SECTION:
		return "MPLS_SECTION"
	case AFI_MPLS_LSP:
		return "MPLS_LSP"
	case AFI_MPLS_PSEUDOWIRE:
		return "MPLS_PSEUDOWIRE"
	case AFI_MT_IPV4:
		return "MT_IPV4"
	case AFI_MT_IPV6:
		return "MT_IPV6"
	case AFI_SFC:
		return "SFC"
	case AFI_LS:
		return "LS"
	case AFI_ROUTING_POLICY:
		return "ROUTING_POLICY"
	case AFI_MPLS_NAMESPACES:
		return "MPLS_NAMESPACES"
	default:
		return fmt.Sprintf("AFI(%d)", uint16(a))
	}
}

// AFIString parses the String() representation (or a raw decimal number)
// back into an AFI.
func AFIString(s string) (AFI, error) {
	switch s {
	case "IPV4":
		return AFI_IPV4, nil
	case "IPV6":
		return AFI_IPV6, nil
	case "L2VPN":
		return AFI_L2VPN, nil
	case "MPLS_SECTION":
		return AFI_MPLS_SECTION, nil
	case "MPLS_LSP":
		return AFI_MPLS_LSP, nil
	case "MPLS_PSEUDOWIRE":
		return AFI_MPLS_PSEUDOWIRE, nil
	case "MT_IPV4":
		return AFI_MT_IPV4, nil
	case "MT_IPV6":
		return AFI_MT_IPV6, nil
	case "SFC":
		return AFI_SFC, nil
	case "LS":
		return AFI_LS, nil
	case "ROUTING_POLICY":
		return AFI_ROUTING_POLICY, nil
	case "MPLS_NAMESPACES":
		return AFI_MPLS_NAMESPACES, nil
	}
	return parseUintEnum[AFI](s)
}
