// Package xerrors is a small generic convenience wrapper around the
// standard library's error-inspection helpers, in the same spirit as
// the teacher's pkg/xerrors.
package xerrors

import "errors"

// AsA checks whether err (or any error it wraps) is of type T, returning
// it if so. A generic wrapper around [errors.As] that avoids the
// caller having to declare and address-of a local variable.
func AsA[T error](err error) (_ T, ok bool) {
	var e T

	if ok := errors.As(err, &e); ok {
		return e, true
	}

	var zero T
	return zero, false
}
