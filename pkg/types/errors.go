package types

import "github.com/samber/oops"

// ErrorKind is the oops error code attached to every fatal error.
type ErrorKind string

const (
	KindTransport ErrorKind = "transport_error"
	KindStorage   ErrorKind = "storage_error"
	KindConfig    ErrorKind = "config_error"
	KindDecode    ErrorKind = "decode_error"
)

// KindOf returns the deepest error kind found in the chain, or "" if none.
func KindOf(err error) ErrorKind {
	oe, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	kind, _ := oe.Code().(ErrorKind)
	return kind
}
