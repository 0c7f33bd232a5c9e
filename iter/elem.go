package iter

import (
	"context"
	"io"

	"github.com/bgpfix/bgpfix/elem"
	"github.com/bgpfix/bgpfix/filter"
	"github.com/rs/zerolog"
)

// ElemOptions configures an ElemIterator.
type ElemOptions struct {
	Logger *zerolog.Logger

	// Filters is an append-only, ANDed list of predicates (bgpfix.org
	// filter semantics): an elem is yielded iff it matches every filter.
	Filters []elem.Filter

	// RawFilter, if set, is evaluated against each BGP4MP inner UPDATE
	// message before it is flattened into elems; see elem.Flattener.RawFilter.
	RawFilter *filter.Filter
}

// ElemIterator yields elems flattened from the records of a RecordIterator,
// draining each record's elems (in on-wire order) before pulling the next
// record.
type ElemIterator struct {
	*zerolog.Logger

	rec  *RecordIterator
	flat *elem.Flattener

	Options ElemOptions

	pending []*elem.Elem
}

// NewElemIterator returns an ElemIterator driven by rec.
func NewElemIterator(rec *RecordIterator) *ElemIterator {
	nop := zerolog.Nop()
	return &ElemIterator{
		Logger: &nop,
		rec:    rec,
		flat:   elem.NewFlattener(),
	}
}

// NewElemIteratorFromReader is a convenience wrapper combining
// NewRecordIterator and NewElemIterator.
func NewElemIteratorFromReader(ctx context.Context, r io.Reader) *ElemIterator {
	return NewElemIterator(NewRecordIterator(ctx, r))
}

// SetOptions overwrites it.Options.
func (it *ElemIterator) SetOptions(opts ElemOptions) {
	it.Options = opts
	if opts.Logger != nil {
		it.Logger = opts.Logger
	}
	it.flat.RawFilter = opts.RawFilter
}

// AddFilter appends f to the filter list.
func (it *ElemIterator) AddFilter(f elem.Filter) {
	it.Options.Filters = append(it.Options.Filters, f)
}

// Records returns the underlying RecordIterator, eg. to inspect Stats.
func (it *ElemIterator) Records() *RecordIterator {
	return it.rec
}

// Table returns the underlying Flattener, which caches the PeerIndexTable.
func (it *ElemIterator) Table() *elem.Flattener {
	return it.flat
}

// Next returns the next elem matching every configured filter. It absorbs
// per-record flatten errors (logs and skips to the next record) and
// terminates on io.EOF or a fatal RecordIterator error.
func (it *ElemIterator) Next() (*elem.Elem, error) {
	for {
		if e, ok := it.pop(); ok {
			return e, nil
		}

		m, err := it.rec.Next()
		if err != nil {
			return nil, err
		}

		elems, ferr := it.flat.FromMrt(m)
		if ferr != nil {
			it.Warn().Err(ferr).Msg("dropping record: flatten error")
			continue
		}
		it.pending = elems
	}
}

// NextFallible returns the very next elem exactly as flattened, surfacing
// every RecordIterator and flatten error verbatim instead of absorbing
// any of them. Unlike Next, it does not apply Options.Filters: a caller
// that wants errors surfaced verbatim is expected to filter explicitly.
func (it *ElemIterator) NextFallible() (*elem.Elem, error) {
	for {
		if len(it.pending) > 0 {
			e := it.pending[0]
			it.pending = it.pending[1:]
			return e, nil
		}

		m, err := it.rec.NextFallible()
		if err != nil {
			return nil, err
		}

		elems, err := it.flat.FromMrt(m)
		if err != nil {
			return nil, err
		}
		it.pending = elems
	}
}

// pop returns the next pending elem matching every filter, draining
// (and dropping) any that don't match along the way.
func (it *ElemIterator) pop() (*elem.Elem, bool) {
	for len(it.pending) > 0 {
		e := it.pending[0]
		it.pending = it.pending[1:]
		if elem.MatchAll(it.Options.Filters, e) {
			return e, true
		}
	}
	return nil, false
}
