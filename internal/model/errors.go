package model

import "errors"

// ErrNotFound marks a lookup or update that matched no row.
var ErrNotFound = errors.New("not found")
