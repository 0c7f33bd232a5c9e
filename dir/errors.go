package dir

import "errors"

var ErrValue = errors.New("invalid direction value")
