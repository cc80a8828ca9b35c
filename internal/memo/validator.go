package memo

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/stellar/go/xdr"

	"github.com/vultisig/stellar-txcore/internal/address"
	"github.com/vultisig/stellar-txcore/internal/network"
	"github.com/vultisig/stellar-txcore/internal/soroban"
)

// Result is the memo policy for one transaction. IsStillChecking is set
// while lookups are in flight.
type Result struct {
	IsRequired      bool
	IsStillChecking bool
}

var (
	notRequired = Result{}
	required    = Result{IsRequired: true}
	pending     = Result{IsRequired: true, IsStillChecking: true}
)

// Directory lists accounts known to require a memo. A false answer only
// means the account is not listed.
type Directory interface {
	MemoRequired(ctx context.Context, account string) (bool, error)
}

// Preflight fails with ErrMemoRequired when the network says the
// transaction's destination requires a memo.
type Preflight interface {
	CheckMemoRequired(ctx context.Context, env xdr.TransactionEnvelope) error
}

// Recorder receives memo policy metrics.
type Recorder interface {
	RecordCheck(source string, required bool)
	RecordSuperseded()
}

type nilRecorder struct{}

func (nilRecorder) RecordCheck(string, bool) {}
func (nilRecorder) RecordSuperseded()        {}

const (
	sourceGate          = "gate"
	sourceMemo          = "memo"
	sourceMuxed         = "muxed"
	sourceContract      = "contract"
	sourceNoDestination = "no_destination"
	sourceDirectory     = "directory"
	sourcePreflight     = "preflight"
	sourceFailClosed    = "fail_closed"
)

// Request is everything a memo decision depends on.
type Request struct {
	EnvelopeXDR string
	// Memo is the memo the user entered, which may not be in the envelope
	// yet.
	Memo              string
	Network           network.Name
	ValidationEnabled bool
}

type Options struct {
	Directory Directory
	Preflight Preflight
	Metrics   Recorder
	Logger    logrus.FieldLogger
}

type Validator struct {
	directory Directory
	preflight Preflight
	metrics   Recorder
	logger    logrus.FieldLogger
}

func NewValidator(opts Options) *Validator {
	v := &Validator{
		directory: opts.Directory,
		preflight: opts.Preflight,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
	}
	if v.metrics == nil {
		v.metrics = nilRecorder{}
	}
	if v.logger == nil {
		v.logger = logrus.StandardLogger()
	}
	return v
}

// Check decides whether req's transaction is missing a required memo. The
// directory is always asked before the preflight, and any state it cannot
// resolve reports the memo as required.
func (v *Validator) Check(ctx context.Context, req Request) Result {
	env, dest, res, done := v.precheck(req)
	if done {
		return res
	}
	return v.lookup(ctx, env, dest)
}

func (v *Validator) lookup(ctx context.Context, env xdr.TransactionEnvelope, dest string) Result {
	logger := v.logger.WithField("destination", address.Truncate(dest, 6, 6))

	if v.directory != nil {
		listed, err := v.directory.MemoRequired(ctx, dest)
		switch {
		case err != nil:
			logger.WithError(err).Warn("memo: directory lookup failed, falling back to preflight")
		case listed:
			return v.decide(sourceDirectory, required)
		}
	}

	if v.preflight == nil {
		return v.decide(sourceFailClosed, required)
	}
	err := v.preflight.CheckMemoRequired(ctx, env)
	switch {
	case err == nil:
		return v.decide(sourcePreflight, notRequired)
	case errors.Is(err, ErrMemoRequired):
		return v.decide(sourcePreflight, required)
	default:
		logger.WithError(err).Warn("memo: preflight failed, treating memo as required")
		return v.decide(sourceFailClosed, required)
	}
}

// precheck resolves everything that needs no lookup. done is false when the
// directory and preflight must be consulted for dest.
func (v *Validator) precheck(req Request) (env xdr.TransactionEnvelope, dest string, res Result, done bool) {
	if !req.ValidationEnabled || !network.IsMainnet(req.Network) {
		return env, "", v.decide(sourceGate, notRequired), true
	}
	if req.Memo != "" {
		return env, "", v.decide(sourceMemo, notRequired), true
	}

	env, err := soroban.DecodeEnvelope(req.EnvelopeXDR)
	if err != nil {
		v.logger.WithError(err).Warn("memo: cannot read envelope, treating memo as required")
		return env, "", v.decide(sourceFailClosed, required), true
	}
	if env.Memo().Type != xdr.MemoTypeMemoNone {
		return env, "", v.decide(sourceMemo, notRequired), true
	}

	dest, ok := DestinationOf(env)
	if !ok {
		return env, "", v.decide(sourceNoDestination, notRequired), true
	}
	switch address.Classify(dest).Kind() {
	case address.KindMuxed:
		return env, dest, v.decide(sourceMuxed, notRequired), true
	case address.KindContract:
		return env, dest, v.decide(sourceContract, notRequired), true
	}
	return env, dest, Result{}, false
}

func (v *Validator) decide(source string, r Result) Result {
	v.metrics.RecordCheck(source, r.IsRequired)
	return r
}

// DestinationOf returns the destination of the first operation that has one:
// a payment or create-account destination, or the recipient of a contract
// transfer. Fee-bump envelopes are read through to their inner transaction.
func DestinationOf(env xdr.TransactionEnvelope) (string, bool) {
	for _, op := range env.Operations() {
		if dest, ok := operationDestination(op); ok {
			return dest, true
		}
	}
	return "", false
}

func operationDestination(op xdr.Operation) (string, bool) {
	switch op.Body.Type {
	case xdr.OperationTypePayment:
		if p, ok := op.Body.GetPaymentOp(); ok {
			return address.FromMuxedAccount(p.Destination).String(), true
		}
	case xdr.OperationTypeCreateAccount:
		if c, ok := op.Body.GetCreateAccountOp(); ok {
			return address.FromAccountID(c.Destination).String(), true
		}
	case xdr.OperationTypeInvokeHostFunction:
		inv, ok := soroban.DecodeOperationInvocation(op)
		if !ok || inv.FunctionName != soroban.FnTransfer || inv.Args.To == "" {
			return "", false
		}
		switch inv.Args.Kind {
		case soroban.InvocationTokenTransfer, soroban.InvocationCollectibleTransfer:
			return inv.Args.To, true
		}
	}
	return "", false
}
