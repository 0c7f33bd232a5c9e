package iter

import "errors"

var (
	// ErrIoError wraps a failure of the underlying reader.
	ErrIoError = errors.New("io error")

	// ErrTruncated means the declared record length exceeds the configured
	// maximum, or fewer bytes remain than the header declared.
	ErrTruncated = errors.New("truncated record")

	// ErrGarbled means the record envelope was the right length but its
	// content failed to parse; there is no way to resync mid-stream.
	ErrGarbled = errors.New("garbled record")
)
