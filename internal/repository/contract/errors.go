package contract

import "errors"

// ErrDuplicateKey is returned when a create hits an existing primary key.
var ErrDuplicateKey = errors.New("duplicate key")
