package normalize

import "errors"

// ErrDuplicateKey is reported for a record whose key was already loaded.
var ErrDuplicateKey = errors.New("duplicate issue key")
