package domain

import "errors"

// ErrNotFound marks lookups for routes, stops, or legs that do not exist.
var ErrNotFound = errors.New("not found")
