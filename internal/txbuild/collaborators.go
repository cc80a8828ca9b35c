package txbuild

import (
	"context"
	"time"
)

// Account is the on-chain state of an account the builder needs.
type Account struct {
	ID       string
	Sequence int64
	Exists   bool
}

// AccountLoader reads accounts from the network. A missing account is
// reported as Exists false with a nil error.
type AccountLoader interface {
	LoadAccount(ctx context.Context, accountID string) (Account, error)
}

type PrepareStatus string

const (
	PrepareSuccess PrepareStatus = "SUCCESS"
	PrepareError   PrepareStatus = "ERROR"
)

type PrepareResult struct {
	Status      PrepareStatus
	PreparedXDR string
	Error       string
}

// Preparer simulates a contract envelope and returns it with resources and
// footprint filled in.
type Preparer interface {
	Prepare(ctx context.Context, envelopeXDR string) (PrepareResult, error)
}

// MuxedSupportChecker reports whether a contract accepts muxed addresses as
// transfer recipients.
type MuxedSupportChecker interface {
	SupportsMuxed(ctx context.Context, contractID string) (bool, error)
}

// Recorder receives build metrics.
type Recorder interface {
	RecordBuild(path string, success bool, duration time.Duration)
	RecordValidationFailure(check string)
	RecordSimulationFallback()
}

type nilRecorder struct{}

func (nilRecorder) RecordBuild(string, bool, time.Duration) {}
func (nilRecorder) RecordValidationFailure(string)          {}
func (nilRecorder) RecordSimulationFallback()               {}
