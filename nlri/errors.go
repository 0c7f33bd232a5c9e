package nlri

import "errors"

var (
	ErrValue  = errors.New("invalid value")
	ErrLength = errors.New("invalid length")
	ErrRD     = errors.New("invalid route distinguisher")
)
