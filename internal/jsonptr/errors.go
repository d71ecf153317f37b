package jsonptr

import "errors"

// ErrNotFound is returned when a pointer fails to resolve against a document.
var ErrNotFound = errors.New("jsonptr: path not found")
