package txbuild

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stellar/go/amount"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"
	"golang.org/x/sync/errgroup"

	"github.com/vultisig/stellar-txcore/internal/address"
	"github.com/vultisig/stellar-txcore/internal/network"
	"github.com/vultisig/stellar-txcore/internal/soroban"
)

type Path string

const (
	PathClassic  Path = "classic"
	PathContract Path = "contract"
)

// Options configures a Builder. Network and Accounts are required.
type Options struct {
	Network      network.Details
	Accounts     AccountLoader
	Preparer     Preparer
	MuxedSupport MuxedSupportChecker
	Metrics      Recorder
	Logger       logrus.FieldLogger
	Now          func() time.Time
}

// Builder turns intents into unsigned envelopes. It keeps no state between
// builds: every change to an intent means a new Build.
type Builder struct {
	network  network.Details
	accounts AccountLoader
	preparer Preparer
	muxed    MuxedSupportChecker
	metrics  Recorder
	logger   logrus.FieldLogger
	now      func() time.Time
}

func NewBuilder(opts Options) (*Builder, error) {
	if opts.Network.Passphrase == "" {
		return nil, errors.New("txbuild: network is required")
	}
	if opts.Accounts == nil {
		return nil, errors.New("txbuild: account loader is required")
	}

	b := &Builder{
		network:  opts.Network,
		accounts: opts.Accounts,
		preparer: opts.Preparer,
		muxed:    opts.MuxedSupport,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		now:      opts.Now,
	}
	if b.metrics == nil {
		b.metrics = nilRecorder{}
	}
	if b.logger == nil {
		b.logger = logrus.StandardLogger()
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b, nil
}

// Result is a built envelope and how it was built.
type Result struct {
	EnvelopeXDR string
	Envelope    xdr.TransactionEnvelope
	Path        Path
	Operation   xdr.OperationType
	// ContractID is the invoked contract on the contract path.
	ContractID string
	// FinalDestination is the recipient written into the operation. It can
	// differ from the intent when a memo was folded into a muxed address or
	// a muxed recipient was collapsed to its base account.
	FinalDestination string
	MemoAttached     bool
	// Prepared is false when simulation failed and EnvelopeXDR is the
	// unprepared envelope.
	Prepared        bool
	SimulationError string
	// MuxedRejected is set when simulation failed in a way that points at
	// the contract refusing a muxed recipient.
	MuxedRejected bool
}

// Build validates the intent and produces its envelope.
func (b *Builder) Build(ctx context.Context, in Intent) (*Result, error) {
	start := b.now()
	path := PathClassic
	if in.usesContract() {
		path = PathContract
	}

	res, err := b.build(ctx, in, path)
	if err != nil {
		if check := CheckOf(err); check != "" && check.Kind() == KindValidation {
			b.metrics.RecordValidationFailure(string(check))
		}
		b.metrics.RecordBuild(string(path), false, b.now().Sub(start))
		return nil, err
	}
	b.metrics.RecordBuild(string(path), true, b.now().Sub(start))
	return res, nil
}

func (b *Builder) build(ctx context.Context, in Intent, path Path) (*Result, error) {
	v, err := in.validate()
	if err != nil {
		return nil, err
	}

	checkDestination := path == PathClassic && in.Asset.Kind == AssetNative
	source, destExists, err := b.loadAccounts(ctx, v, checkDestination)
	if err != nil {
		return nil, err
	}

	// One operation per envelope, so the base fee is the whole fee.
	tx := txnbuild.TransactionParams{
		SourceAccount:        &txnbuild.SimpleAccount{AccountID: in.Source, Sequence: source.Sequence},
		IncrementSequenceNum: true,
		BaseFee:              int64(v.feeStroops),
	}

	if path == PathContract {
		return b.buildContract(ctx, in, v, tx)
	}
	return b.buildClassic(in, v, tx, destExists)
}

// loadAccounts loads the source and, when asked, whether the destination
// exists. A failed destination lookup counts as a missing account so the
// create-account branch can proceed.
func (b *Builder) loadAccounts(ctx context.Context, v validated, checkDestination bool) (Account, bool, error) {
	var (
		source     Account
		destExists = true
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		acc, err := b.accounts.LoadAccount(gctx, address.BaseAccount(v.source.String()))
		if err != nil {
			return newError(CheckNetwork, "failed to load source account", err)
		}
		if !acc.Exists {
			return newError(CheckNetwork, "failed to load source account", ErrSourceNotFound)
		}
		source = acc
		return nil
	})
	if checkDestination {
		g.Go(func() error {
			base := address.BaseAccount(v.destination.String())
			acc, err := b.accounts.LoadAccount(gctx, base)
			if err != nil {
				b.logger.WithError(err).
					WithField("destination", address.Truncate(base, 6, 6)).
					Warn("txbuild: destination lookup failed, treating as unfunded")
				destExists = false
				return nil
			}
			destExists = acc.Exists
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Account{}, false, err
	}
	return source, destExists, nil
}

func (b *Builder) buildClassic(in Intent, v validated, tx txnbuild.TransactionParams, destExists bool) (*Result, error) {
	maxTime := b.now().Unix() + int64(v.timeout)
	tx.Preconditions = txnbuild.Preconditions{TimeBounds: txnbuild.NewTimebounds(0, maxTime)}

	res := &Result{Path: PathClassic, FinalDestination: in.Destination}

	if in.Asset.Kind == AssetNative && !destExists {
		if v.units.Int64() < network.MinStartingBalance {
			return nil, newError(CheckBelowMinimumReserve,
				fmt.Sprintf("a new account needs a starting balance of at least %d XLM", network.MinStartingBalance/network.StroopsPerLumen), nil)
		}
		tx.Operations = []txnbuild.Operation{&txnbuild.CreateAccount{
			Destination: address.BaseAccount(in.Destination),
			Amount:      amount.StringFromInt64(v.units.Int64()),
		}}
	} else {
		tx.Operations = []txnbuild.Operation{&txnbuild.Payment{
			Destination: in.Destination,
			Amount:      amount.StringFromInt64(v.units.Int64()),
			Asset:       in.Asset.classic(),
		}}
	}

	// A muxed recipient already carries its own sub-identity.
	if in.Memo != "" && v.destination.Kind() != address.KindMuxed {
		tx.Memo = txnbuild.MemoText(in.Memo)
		res.MemoAttached = true
	}

	return b.finish(res, tx)
}

// contractFor picks the contract a transfer invokes: the asset's own contract
// for contract tokens and collectibles, the native asset contract for lumens
// and the destination contract otherwise.
func (b *Builder) contractFor(in Intent) string {
	switch in.Asset.Kind {
	case AssetContractToken, AssetCollectible:
		return in.Asset.ContractID
	case AssetNative:
		return b.network.NativeContractID()
	default:
		return in.Destination
	}
}

func (b *Builder) buildContract(ctx context.Context, in Intent, v validated, tx txnbuild.TransactionParams) (*Result, error) {
	// Preparation runs after the build, so a deadline here could expire
	// before the envelope is ever signed.
	tx.Preconditions = txnbuild.Preconditions{TimeBounds: txnbuild.NewInfiniteTimeout()}

	contractID := b.contractFor(in)
	supportsMuxed := b.supportsMuxed(ctx, contractID)

	dest, err := address.ResolveContractDestination(in.Destination, in.Memo, supportsMuxed)
	if err != nil {
		return nil, newError(CheckMuxedUnsupported, "contract does not accept muxed addresses, use a plain account", err)
	}

	var value xdr.ScVal
	if in.Asset.Kind == AssetCollectible {
		value = soroban.ScvU32(in.Asset.TokenID)
	} else {
		value, err = soroban.ScvI128(v.units)
		if err != nil {
			return nil, newError(CheckAmount, "amount does not fit i128", err)
		}
	}

	// The muxed id of a source only names it at the transaction level. The
	// token authorizes the spend against the base account.
	from := address.BaseAccount(in.Source)
	op, err := soroban.TransferCall(contractID, from, dest.Address, value)
	if err != nil {
		return nil, newError(CheckEncoding, "failed to encode transfer call", err)
	}
	tx.Operations = []txnbuild.Operation{op}

	res := &Result{
		Path:             PathContract,
		ContractID:       contractID,
		FinalDestination: dest.Address,
	}
	if in.Memo != "" && !dest.MemoFolded {
		tx.Memo = txnbuild.MemoText(in.Memo)
		res.MemoAttached = true
	}

	res, err = b.finish(res, tx)
	if err != nil {
		return nil, err
	}
	b.prepare(ctx, res)
	return res, nil
}

func (b *Builder) supportsMuxed(ctx context.Context, contractID string) bool {
	if b.muxed == nil {
		return false
	}
	ok, err := b.muxed.SupportsMuxed(ctx, contractID)
	if err != nil {
		b.logger.WithError(err).
			WithField("contract", address.Truncate(contractID, 6, 6)).
			Warn("txbuild: muxed support check failed, assuming unsupported")
		return false
	}
	return ok
}

func (b *Builder) finish(res *Result, params txnbuild.TransactionParams) (*Result, error) {
	tx, err := txnbuild.NewTransaction(params)
	if err != nil {
		return nil, newError(CheckEncoding, "failed to build transaction", err)
	}
	encoded, err := tx.Base64()
	if err != nil {
		return nil, newError(CheckEncoding, "failed to encode envelope", err)
	}
	res.Envelope = tx.ToXDR()
	res.EnvelopeXDR = encoded
	res.Operation = res.Envelope.Operations()[0].Body.Type
	return res, nil
}

// prepare swaps in the simulated envelope. Any failure keeps the unprepared
// one: it is still signable, even if submission will likely reject it.
func (b *Builder) prepare(ctx context.Context, res *Result) {
	if b.preparer == nil {
		return
	}

	fallback := func(reason string) {
		b.metrics.RecordSimulationFallback()
		res.SimulationError = reason
		res.MuxedRejected = isMuxedRejection(reason)
		b.logger.WithFields(logrus.Fields{
			"contract": address.Truncate(res.ContractID, 6, 6),
			"reason":   reason,
		}).Warn("txbuild: simulation failed, returning unprepared envelope")
	}

	out, err := b.preparer.Prepare(ctx, res.EnvelopeXDR)
	if err != nil {
		fallback(err.Error())
		return
	}
	if out.Status != PrepareSuccess || out.PreparedXDR == "" {
		reason := out.Error
		if reason == "" {
			reason = fmt.Sprintf("prepare returned status %q", out.Status)
		}
		fallback(reason)
		return
	}

	prepared, err := soroban.DecodeEnvelope(out.PreparedXDR)
	if err != nil {
		fallback(err.Error())
		return
	}
	res.Envelope = prepared
	res.EnvelopeXDR = out.PreparedXDR
	res.Prepared = true
}

var muxedRejectionMarkers = []string{
	"UnreachableCodeReached",
	"muxed",
	"Muxed",
	"scAddressTypeMuxedAccount",
	"InvalidAction",
}

func isMuxedRejection(reason string) bool {
	for _, m := range muxedRejectionMarkers {
		if strings.Contains(reason, m) {
			return true
		}
	}
	return false
}
