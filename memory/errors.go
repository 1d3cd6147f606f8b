package memory

import "errors"

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("memory: store closed")
