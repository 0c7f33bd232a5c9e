// Package json provides small, allocation-conscious JSON helpers shared by
// the wire packages. It is a thin layer over jsonparser: the decoder reads
// values directly out of the source buffer instead of building a generic
// tree, and the encoder appends straight into a growing []byte.
package json

import (
	"encoding/hex"
	"errors"
	"net/netip"
	"strconv"
	"unsafe"

	jsp "github.com/buger/jsonparser"
)

const hextable = "0123456789abcdef"

// Literal tokens, handy when a ToJSON method wants to emit a bare constant.
const (
	Null  = "null"
	True  = "true"
	False = "false"
)

var ErrValue = errors.New("invalid value")

// Type mirrors jsonparser.ValueType so callers of this package never need
// to import jsonparser directly.
type Type = jsp.ValueType

const (
	NotExist Type = jsp.NotExist
	String   Type = jsp.String
	Number   Type = jsp.Number
	Object   Type = jsp.Object
	Array    Type = jsp.Array
	Boolean  Type = jsp.Boolean
	TypeNull Type = jsp.Null
	Unknown  Type = jsp.Unknown
)

func Hex(dst []byte, src []byte) []byte {
	if src == nil {
		return append(dst, Null...)
	} else if len(src) == 0 {
		return append(dst, `""`...)
	}

	dst = append(dst, `"0x`...)
	for _, v := range src {
		dst = append(dst, hextable[v>>4], hextable[v&0x0f])
	}
	return append(dst, '"')
}

func UnHex(dst []byte, src []byte) ([]byte, error) {
	src = Q(src)
	if len(src) < 2 {
		return dst[:0], nil
	} else if src[0] == '0' && src[1] == 'x' {
		src = src[2:]
	}
	bl := len(src) / 2
	if cap(dst) >= bl {
		dst = dst[:bl]
	} else {
		dst = make([]byte, bl)
	}
	_, err := hex.Decode(dst, src)
	return dst, err
}

// Ascii appends src escaped for embedding inside a JSON string (without the
// surrounding quotes).
func Ascii(dst []byte, src []byte) []byte {
	for _, b := range src {
		switch b {
		case '"', '\\':
			dst = append(dst, '\\', b)
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\t':
			dst = append(dst, '\\', 't')
		case '\r':
			dst = append(dst, '\\', 'r')
		default:
			if b < 0x20 || b >= 0x7f {
				dst = append(dst, '\\', 'u', '0', '0', hextable[b>>4], hextable[b&0x0f])
			} else {
				dst = append(dst, b)
			}
		}
	}
	return dst
}

func Byte(dst []byte, src byte) []byte {
	return strconv.AppendUint(dst, uint64(src), 10)
}

func UnByte(src []byte) (byte, error) {
	v, err := strconv.ParseUint(SQ(src), 0, 8)
	return uint8(v), err
}

func U32(dst []byte, src uint32) []byte {
	return strconv.AppendUint(dst, uint64(src), 10)
}

func UnU32(src []byte) (uint32, error) {
	v, err := strconv.ParseUint(SQ(src), 0, 32)
	return uint32(v), err
}

func U64(dst []byte, src uint64) []byte {
	return strconv.AppendUint(dst, src, 10)
}

func UnU64(src []byte) (uint64, error) {
	return strconv.ParseUint(SQ(src), 0, 64)
}

// Uint32 and Uint64 are longhand aliases for U32/U64, kept for call sites
// that spell out the full type name.
func Uint32(dst []byte, src uint32) []byte       { return U32(dst, src) }
func UnUint32(src []byte) (uint32, error)         { return UnU32(src) }
func Uint64(dst []byte, src uint64) []byte       { return U64(dst, src) }
func UnUint64(src []byte) (uint64, error)         { return UnU64(src) }

func Bool(dst []byte, val bool) []byte {
	if val {
		return append(dst, True...)
	}
	return append(dst, False...)
}

func UnBool(src []byte) (bool, error) {
	switch SQ(src) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, ErrValue
	}
}

func Prefix(dst []byte, src netip.Prefix) []byte {
	dst = append(dst, '"')
	dst = src.AppendTo(dst)
	return append(dst, '"')
}

func UnPrefix(src []byte) (netip.Prefix, error) {
	return netip.ParsePrefix(SQ(src))
}

func Prefixes(dst []byte, src []netip.Prefix) []byte {
	dst = append(dst, '[')
	for i := range src {
		if i > 0 {
			dst = append(dst, `,"`...)
		} else {
			dst = append(dst, '"')
		}
		dst = src[i].AppendTo(dst)
		dst = append(dst, '"')
	}
	return append(dst, ']')
}

func UnPrefixes(val []byte, dst []netip.Prefix) ([]netip.Prefix, error) {
	out := dst
	err := ArrayEach(val, func(_ int, buf []byte, typ Type) error {
		if typ != String {
			return ErrValue
		}
		p, err := netip.ParsePrefix(S(buf))
		if err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	return out, err
}

// S returns a string backed by buf, without copying.
func S(buf []byte) string {
	return *(*string)(unsafe.Pointer(&buf))
}

// Q strips surrounding double quotes from buf, if present.
func Q(buf []byte) []byte {
	if l := len(buf); l > 1 && buf[0] == '"' && buf[l-1] == '"' {
		return buf[1 : l-1]
	}
	return buf
}

// SQ is S(Q(buf)).
func SQ(buf []byte) string {
	return S(Q(buf))
}

// Get fetches a value at the given (possibly nested) key path.
func Get(src []byte, keys ...string) ([]byte, Type, error) {
	val, typ, _, err := jsp.Get(src, keys...)
	return val, typ, err
}

// ArrayEach calls cb for every element of the src JSON array, in order,
// stopping at the first error cb returns.
func ArrayEach(src []byte, cb func(idx int, val []byte, typ Type) error) error {
	var (
		i        int
		reterr   error
		breakErr = errors.New("break")
	)
	_, err := jsp.ArrayEach(src, func(val []byte, typ jsp.ValueType, _ int, _ error) {
		if reterr != nil {
			return
		}
		if err := cb(i, val, typ); err != nil {
			reterr = err
		}
		i++
	})
	_ = breakErr
	if reterr != nil {
		return reterr
	}
	return err
}

// ObjectEach calls cb for every key/value pair of the src JSON object, in
// on-wire order, stopping at the first error cb returns.
func ObjectEach(src []byte, cb func(key string, val []byte, typ Type) error) error {
	return jsp.ObjectEach(src, func(key, val []byte, typ jsp.ValueType, _ int) error {
		return cb(S(key), val, typ)
	})
}
