package address

import (
	"errors"
	"fmt"
)

var (
	ErrUnrecognized = errors.New("not a recognised address")
	ErrNotAccount   = errors.New("not a plain account address")
	ErrNotMuxed     = errors.New("not a muxed account address")
	ErrInvalidID    = errors.New("muxed id must be an unsigned 64-bit decimal")
	ErrUnsupported  = errors.New("address type has no on-chain form")
)

// CodecError is returned by explicit encode and decode operations. Input is
// kept in full; Error() truncates it.
type CodecError struct {
	Op    string
	Input string
	Cause error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("address: failed to %s %q: %v", e.Op, Truncate(e.Input, 8, 8), e.Cause)
}

func (e *CodecError) Unwrap() error {
	return e.Cause
}
