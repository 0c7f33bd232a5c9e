// Package iter drives the MRT decoder over a byte reader, pulling one
// record or one flattened elem at a time, with an error-recovery split
// (an absorbing default form and a fallible form).
package iter

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bgpfix/bgpfix/binary"
	"github.com/bgpfix/bgpfix/mrt"
	"github.com/rs/zerolog"
)

var msb = binary.Msb

// DefaultMaxLen bounds a single MRT record body, defending against hostile
// length fields (rfc6396/2 length is attacker-controlled and unrelated to
// the bytes actually available).
const DefaultMaxLen = 16 * 1024 * 1024

// RecordOptions configures a RecordIterator. Do not modify after the first
// call to Next or NextFallible.
type RecordOptions struct {
	Logger *zerolog.Logger // nil disables logging
	MaxLen uint32          // 0 uses DefaultMaxLen

	// DumpFunc, if set, is called with the raw header+body bytes of every
	// record that fails to parse ("core dump" for offline diagnosis).
	DumpFunc func(raw []byte)
}

// RecordStats counts what a RecordIterator has seen.
type RecordStats struct {
	Parsed    uint64
	Truncated uint64
	Garbled   uint64
}

// RecordIterator pulls one MRT record at a time out of a reader.
//
// Cancellation: dropping the iterator releases the reader; there is no
// internal goroutine. Passing a canceled ctx (or canceling it mid-stream)
// makes the next Next/NextFallible call return ctx.Err().
type RecordIterator struct {
	*zerolog.Logger

	ctx context.Context
	r   io.Reader

	Stats   RecordStats
	Options RecordOptions

	hdr  [mrt.HEADLEN]byte
	done bool
}

// NewRecordIterator returns a RecordIterator reading MRT records from r.
func NewRecordIterator(ctx context.Context, r io.Reader) *RecordIterator {
	it := &RecordIterator{ctx: ctx, r: r}
	it.Options.MaxLen = DefaultMaxLen
	nop := zerolog.Nop()
	it.Logger = &nop
	return it
}

// SetOptions overwrites it.Options, applying defaults for zero values.
func (it *RecordIterator) SetOptions(opts RecordOptions) {
	it.Options = opts
	if opts.Logger != nil {
		it.Logger = opts.Logger
	}
	if it.Options.MaxLen == 0 {
		it.Options.MaxLen = DefaultMaxLen
	}
}

// next reads exactly one MRT record from the reader, without any recovery.
func (it *RecordIterator) next() (m *mrt.Mrt, raw []byte, err error) {
	if it.ctx != nil {
		if cerr := it.ctx.Err(); cerr != nil {
			return nil, nil, cerr
		}
	}

	if _, err := io.ReadFull(it.r, it.hdr[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, io.EOF // clean end of stream, between records
		}
		return nil, nil, fmt.Errorf("%w: header: %w", ErrIoError, err)
	}

	l := msb.Uint32(it.hdr[8:12])
	if l > it.Options.MaxLen {
		return nil, nil, fmt.Errorf("%w: declared length %d exceeds max %d", ErrTruncated, l, it.Options.MaxLen)
	}

	buf := make([]byte, mrt.HEADLEN+int(l))
	copy(buf, it.hdr[:])
	if _, err := io.ReadFull(it.r, buf[mrt.HEADLEN:]); err != nil {
		return nil, buf, fmt.Errorf("%w: body: %w", ErrTruncated, err)
	}

	m = mrt.NewMrt()
	if _, err := m.FromBytes(buf); err != nil {
		return nil, buf, fmt.Errorf("%w: %w", ErrGarbled, err)
	}

	it.Stats.Parsed++
	return m, buf, nil
}

// Next returns the next MRT record. It absorbs TruncatedMsg by logging and
// stopping cleanly (a trailing partial record is treated as end-of-stream,
// not a caller-visible error), and returns every other error, including
// io.EOF at a clean end of stream, verbatim: there is no framing-level
// resync point once a record's envelope fails to parse.
func (it *RecordIterator) Next() (*mrt.Mrt, error) {
	if it.done {
		return nil, io.EOF
	}

	m, raw, err := it.next()
	switch {
	case err == nil:
		return m, nil
	case errors.Is(err, io.EOF):
		it.done = true
		return nil, io.EOF
	case errors.Is(err, ErrTruncated):
		it.Stats.Truncated++
		it.Warn().Err(err).Msg("truncated MRT record at end of stream")
		it.done = true
		return nil, io.EOF
	default: // ErrGarbled, ErrIoError, ctx.Err(): no way to resync, fatal
		if errors.Is(err, ErrGarbled) {
			it.Stats.Garbled++
			if it.Options.DumpFunc != nil {
				it.Options.DumpFunc(raw)
			}
		}
		it.done = true
		return nil, err
	}
}

// NextFallible returns the very next record exactly as parsed, surfacing
// every error verbatim instead of absorbing any of them.
func (it *RecordIterator) NextFallible() (*mrt.Mrt, error) {
	m, _, err := it.next()
	return m, err
}
