package kvs

import "errors"

// ErrInvalidPattern is returned when an ns/name glob pattern fails to
// compile.
var ErrInvalidPattern = errors.New("kvs: invalid glob pattern")
