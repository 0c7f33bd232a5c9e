package af

import (
	"strconv"
	"unsafe"

	"github.com/bgpfix/bgpfix/binary"
)

var msb = binary.Msb

// bsu returns string from byte slice, unquoting if necessary
func bsu(buf []byte) string {
	if l := len(buf); l > 1 && buf[0] == '"' && buf[l-1] == '"' {
		buf = buf[1 : l-1]
	}
	return *(*string)(unsafe.Pointer(&buf))
}

// parseUintEnum parses a raw decimal number into an enum type, for values
// that did not match any named constant.
func parseUintEnum[T ~uint8 | ~uint16 | ~uint32](s string) (T, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, ErrValue
	}
	return T(v), nil
}
