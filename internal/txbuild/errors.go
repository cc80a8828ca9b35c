package txbuild

import (
	"errors"
	"fmt"
)

// Check names the step of a build that rejected the intent. Callers branch on
// Check, never on the message.
type Check string

const (
	CheckSource               Check = "source"
	CheckAsset                Check = "asset"
	CheckAmount               Check = "amount"
	CheckFee                  Check = "fee"
	CheckTimeout              Check = "timeout"
	CheckDestination          Check = "destination"
	CheckUnresolvedFederation Check = "unresolved_federation"
	CheckSelfSend             Check = "self_send"
	CheckBalance              Check = "balance"
	CheckMemo                 Check = "memo"
	CheckBelowMinimumReserve  Check = "below_minimum_reserve"
	CheckMuxedUnsupported     Check = "muxed_unsupported"
	CheckNetwork              Check = "network"
	CheckEncoding             Check = "encoding"
)

// ErrorKind groups checks into the broad classes callers react to.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindCodec      ErrorKind = "codec"
	KindNetwork    ErrorKind = "network"
)

// Kind reports whether a failed check is fixable by correcting input or
// depends on the environment.
func (c Check) Kind() ErrorKind {
	switch c {
	case CheckNetwork:
		return KindNetwork
	case CheckMuxedUnsupported, CheckEncoding:
		return KindCodec
	default:
		return KindValidation
	}
}

var (
	ErrSourceNotFound = errors.New("source account does not exist")
	ErrNotPositive    = errors.New("must be greater than zero")
)

// BuildError is returned for every build that does not produce an envelope.
type BuildError struct {
	Check   Check
	Message string
	Cause   error
}

func (e *BuildError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return fmt.Sprintf("txbuild: %s: %s: %v", e.Check, e.Message, e.Cause)
	}
	return fmt.Sprintf("txbuild: %s: %s", e.Check, e.Message)
}

func (e *BuildError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func (e *BuildError) Kind() ErrorKind {
	return e.Check.Kind()
}

func newError(check Check, msg string, cause error) error {
	return &BuildError{Check: check, Message: msg, Cause: cause}
}

// IsCheck reports whether err is (or wraps) a BuildError for check.
func IsCheck(err error, check Check) bool {
	var e *BuildError
	if !errors.As(err, &e) {
		return false
	}
	return e.Check == check
}

// CheckOf returns the failed check of a BuildError, or "" for other errors.
func CheckOf(err error) Check {
	var e *BuildError
	if !errors.As(err, &e) {
		return ""
	}
	return e.Check
}
