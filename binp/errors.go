package binp

import "errors"

// ErrTruncated is returned by Reader.End when a read ran past the end
// of the underlying slice.
var ErrTruncated = errors.New("binp: truncated data")
