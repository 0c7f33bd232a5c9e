package elem

import "errors"

var (
	ErrNoPeer  = errors.New("peer index not found in peer index table")
	ErrNoTable = errors.New("no peer index table seen yet on this stream")
	ErrType    = errors.New("record type does not flatten to elems")
)
