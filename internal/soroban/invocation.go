package soroban

import (
	"fmt"
	"math/big"

	"github.com/sirupsen/logrus"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"

	"github.com/vultisig/stellar-txcore/internal/address"
)

const (
	FnTransfer = "transfer"
	FnMint     = "mint"
)

// InvocationKind says which token interface a call was recognised as.
type InvocationKind string

const (
	InvocationUnknown             InvocationKind = "unknown"
	InvocationTokenTransfer       InvocationKind = "token_transfer"
	InvocationCollectibleTransfer InvocationKind = "collectible_transfer"
	InvocationMint                InvocationKind = "mint"
)

// InvocationArgs is what a token call did. For a transfer exactly one of
// Amount and TokenID is set; mint has no sender so From is empty.
type InvocationArgs struct {
	Kind    InvocationKind
	From    string
	To      string
	Amount  *big.Int
	TokenID *uint32
}

func unknownInvocation() InvocationArgs {
	return InvocationArgs{Kind: InvocationUnknown, Amount: new(big.Int)}
}

var log logrus.FieldLogger = logrus.StandardLogger()

// SetLogger replaces the logger used for decode diagnostics.
func SetLogger(l logrus.FieldLogger) {
	if l != nil {
		log = l
	}
}

// DecodeInvocation recovers transfer or mint semantics from a contract call.
// It never fails: calls it cannot interpret decode to the unknown default,
// a zero amount with empty parties.
//
// transfer(from, to, value) is told apart by the type of value: i128 is a
// fungible token amount, u32 a collectible token id.
func DecodeInvocation(functionName string, args []xdr.ScVal) InvocationArgs {
	switch functionName {
	case FnTransfer:
		return decodeTransfer(args)
	case FnMint:
		return decodeMint(args)
	default:
		return unknownInvocation()
	}
}

func decodeTransfer(args []xdr.ScVal) InvocationArgs {
	if len(args) < 3 {
		log.WithField("args", len(args)).Debug("soroban: transfer with too few arguments")
		return unknownInvocation()
	}

	from, err := AddressString(args[0])
	if err != nil {
		log.WithError(err).Debug("soroban: transfer sender is not an address")
		return unknownInvocation()
	}
	to, err := AddressString(args[1])
	if err != nil {
		log.WithError(err).Debug("soroban: transfer recipient is not an address")
		return unknownInvocation()
	}

	value := args[2]
	switch {
	case value.Type == xdr.ScValTypeScvI128 && value.I128 != nil:
		return InvocationArgs{
			Kind:   InvocationTokenTransfer,
			From:   from,
			To:     to,
			Amount: Int128(*value.I128),
		}
	case value.Type == xdr.ScValTypeScvU32 && value.U32 != nil:
		id := uint32(*value.U32)
		return InvocationArgs{
			Kind:    InvocationCollectibleTransfer,
			From:    from,
			To:      to,
			TokenID: &id,
		}
	default:
		log.WithField("type", value.Type.String()).Debug("soroban: transfer value is neither i128 nor u32")
		return unknownInvocation()
	}
}

func decodeMint(args []xdr.ScVal) InvocationArgs {
	if len(args) < 2 {
		log.WithField("args", len(args)).Debug("soroban: mint with too few arguments")
		return unknownInvocation()
	}

	to, err := AddressString(args[0])
	if err != nil {
		log.WithError(err).Debug("soroban: mint recipient is not an address")
		return unknownInvocation()
	}
	if args[1].Type != xdr.ScValTypeScvI128 || args[1].I128 == nil {
		log.WithField("type", args[1].Type.String()).Debug("soroban: mint amount is not i128")
		return unknownInvocation()
	}

	return InvocationArgs{
		Kind:   InvocationMint,
		From:   "",
		To:     to,
		Amount: Int128(*args[1].I128),
	}
}

// OperationInvocation is a decoded invoke-contract operation from history.
type OperationInvocation struct {
	ContractID   string
	FunctionName string
	Args         InvocationArgs
}

// DecodeOperationInvocation decodes an invoke-host-function operation. ok is
// false for any other operation or host function.
func DecodeOperationInvocation(op xdr.Operation) (OperationInvocation, bool) {
	invoke, ok := op.Body.GetInvokeHostFunctionOp()
	if !ok {
		return OperationInvocation{}, false
	}
	call, ok := invoke.HostFunction.GetInvokeContract()
	if !ok {
		return OperationInvocation{}, false
	}

	contract, err := address.FromScAddress(call.ContractAddress)
	if err != nil || contract.Kind() != address.KindContract {
		return OperationInvocation{}, false
	}

	fn := string(call.FunctionName)
	return OperationInvocation{
		ContractID:   contract.String(),
		FunctionName: fn,
		Args:         DecodeInvocation(fn, call.Args),
	}, true
}

// DecodeEnvelope reads a base64 transaction envelope of any type: legacy,
// v1 or fee bump.
func DecodeEnvelope(b64 string) (xdr.TransactionEnvelope, error) {
	var env xdr.TransactionEnvelope
	if err := xdr.SafeUnmarshalBase64(b64, &env); err != nil {
		return xdr.TransactionEnvelope{}, fmt.Errorf("soroban: failed to decode envelope: %w", err)
	}
	return env, nil
}

// EnvelopeInvocations decodes every contract call in env. A fee bump is
// read through to its inner transaction; Index is the operation's position
// there.
func EnvelopeInvocations(env xdr.TransactionEnvelope) []IndexedInvocation {
	var out []IndexedInvocation
	for i, op := range env.Operations() {
		if inv, ok := DecodeOperationInvocation(op); ok {
			out = append(out, IndexedInvocation{Index: i, OperationInvocation: inv})
		}
	}
	return out
}

type IndexedInvocation struct {
	Index int
	OperationInvocation
}

// TransferCall builds the invoke-contract operation for transfer(from, to,
// value) against contractID.
func TransferCall(contractID, from, to string, value xdr.ScVal) (*txnbuild.InvokeHostFunction, error) {
	contract, ok := address.Classify(contractID).(address.Contract)
	if !ok {
		return nil, fmt.Errorf("soroban: %q is not a contract address", address.Truncate(contractID, 6, 6))
	}
	contractAddr, err := address.ToScAddress(contract)
	if err != nil {
		return nil, err
	}
	fromVal, err := ScvAddress(from)
	if err != nil {
		return nil, err
	}
	toVal, err := ScvAddress(to)
	if err != nil {
		return nil, err
	}

	return &txnbuild.InvokeHostFunction{
		HostFunction: xdr.HostFunction{
			Type: xdr.HostFunctionTypeHostFunctionTypeInvokeContract,
			InvokeContract: &xdr.InvokeContractArgs{
				ContractAddress: contractAddr,
				FunctionName:    xdr.ScSymbol(FnTransfer),
				Args:            xdr.ScVec{fromVal, toVal, value},
			},
		},
	}, nil
}
