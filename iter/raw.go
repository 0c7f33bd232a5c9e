package iter

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bgpfix/bgpfix/mrt"
)

// RawRecord is one undecoded MRT record: its common header, decoded just
// far enough to read off, plus the exact header+body bytes as they
// appeared on the wire. Used for diagnostic dumping and re-framing without
// paying for a full decode.
type RawRecord struct {
	Header mrt.Mrt // only Time/Type/Sub/Data are populated; Upper is INVALID
	Raw    []byte  // header+body bytes, exactly as read
}

// RawRecordIterator pulls one undecoded MRT record at a time out of a
// reader, splitting off the header and body without dispatching into any
// sub-decoder. It shares RecordIterator's length bound and is useful for
// re-framing a stream or dumping malformed records for offline analysis.
type RawRecordIterator struct {
	ctx context.Context
	r   io.Reader

	MaxLen uint32 // 0 uses DefaultMaxLen

	hdr  [mrt.HEADLEN]byte
	done bool
}

// NewRawRecordIterator returns a RawRecordIterator reading from r.
func NewRawRecordIterator(ctx context.Context, r io.Reader) *RawRecordIterator {
	return &RawRecordIterator{ctx: ctx, r: r, MaxLen: DefaultMaxLen}
}

// Next returns the next raw record. It surfaces io.EOF at a clean
// end-of-stream and ErrTruncated/ErrIoError otherwise; there is no
// recovery layer here since callers of the raw iterator want the bytes,
// not a best-effort decode.
func (it *RawRecordIterator) Next() (*RawRecord, error) {
	if it.done {
		return nil, io.EOF
	}

	if it.ctx != nil {
		if cerr := it.ctx.Err(); cerr != nil {
			return nil, cerr
		}
	}

	if _, err := io.ReadFull(it.r, it.hdr[:]); err != nil {
		it.done = true
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: header: %w", ErrIoError, err)
	}

	maxLen := it.MaxLen
	if maxLen == 0 {
		maxLen = DefaultMaxLen
	}

	l := msb.Uint32(it.hdr[8:12])
	if l > maxLen {
		it.done = true
		return nil, fmt.Errorf("%w: declared length %d exceeds max %d", ErrTruncated, l, maxLen)
	}

	buf := make([]byte, mrt.HEADLEN+int(l))
	copy(buf, it.hdr[:])
	if _, err := io.ReadFull(it.r, buf[mrt.HEADLEN:]); err != nil {
		it.done = true
		return nil, fmt.Errorf("%w: body: %w", ErrTruncated, err)
	}

	rr := &RawRecord{Raw: buf}
	if _, err := rr.Header.FromBytes(buf); err != nil {
		it.done = true
		return nil, fmt.Errorf("%w: %w", ErrGarbled, err)
	}

	return rr, nil
}
