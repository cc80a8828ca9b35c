package main

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
	"github.com/stellar/go/xdr"

	"github.com/vultisig/stellar-txcore/internal/address"
	"github.com/vultisig/stellar-txcore/internal/soroban"
	"github.com/vultisig/stellar-txcore/internal/util"
)

type envelopeView struct {
	Source        string          `json:"source" yaml:"source"`
	Fee           uint32          `json:"fee" yaml:"fee"`
	Sequence      int64           `json:"sequence" yaml:"sequence"`
	FeeBump       *feeBumpView    `json:"fee_bump,omitempty" yaml:"fee_bump,omitempty"`
	Memo          *memoView       `json:"memo,omitempty" yaml:"memo,omitempty"`
	Preconditions string          `json:"preconditions" yaml:"preconditions"`
	TimeBounds    *boundsView     `json:"time_bounds,omitempty" yaml:"time_bounds,omitempty"`
	LedgerBounds  *boundsView     `json:"ledger_bounds,omitempty" yaml:"ledger_bounds,omitempty"`
	Operations    []operationView `json:"operations" yaml:"operations"`
	Soroban       *sorobanView    `json:"soroban,omitempty" yaml:"soroban,omitempty"`
	Signatures    int             `json:"signatures" yaml:"signatures"`
}

// feeBumpView is the outer transaction of a fee-bump envelope. The rest of
// the view describes the inner transaction.
type feeBumpView struct {
	FeeSource string `json:"fee_source" yaml:"fee_source"`
	Fee       int64  `json:"fee" yaml:"fee"`
}

type boundsView struct {
	Min uint64 `json:"min" yaml:"min"`
	Max uint64 `json:"max" yaml:"max"`
}

type memoView struct {
	Type  string `json:"type" yaml:"type"`
	Value string `json:"value" yaml:"value"`
}

type operationView struct {
	Type        string          `json:"type" yaml:"type"`
	Source      string          `json:"source,omitempty" yaml:"source,omitempty"`
	Destination string          `json:"destination,omitempty" yaml:"destination,omitempty"`
	Asset       string          `json:"asset,omitempty" yaml:"asset,omitempty"`
	Amount      string          `json:"amount,omitempty" yaml:"amount,omitempty"`
	Contract    string          `json:"contract,omitempty" yaml:"contract,omitempty"`
	Function    string          `json:"function,omitempty" yaml:"function,omitempty"`
	Invocation  *invocationView `json:"invocation,omitempty" yaml:"invocation,omitempty"`
	AuthEntries int             `json:"auth_entries,omitempty" yaml:"auth_entries,omitempty"`
}

type invocationView struct {
	Kind    string  `json:"kind" yaml:"kind"`
	From    string  `json:"from,omitempty" yaml:"from,omitempty"`
	To      string  `json:"to,omitempty" yaml:"to,omitempty"`
	Amount  string  `json:"amount,omitempty" yaml:"amount,omitempty"`
	TokenID *uint32 `json:"token_id,omitempty" yaml:"token_id,omitempty"`
}

type sorobanView struct {
	ResourceFee  int64  `json:"resource_fee" yaml:"resource_fee"`
	Instructions uint32 `json:"instructions" yaml:"instructions"`
	ReadOnly     int    `json:"read_only_entries" yaml:"read_only_entries"`
	ReadWrite    int    `json:"read_write_entries" yaml:"read_write_entries"`
}

func (a *app) decodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode base64 XDR",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "envelope XDR",
		Short: "Decode a transaction envelope, including token invocations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := soroban.DecodeEnvelope(args[0])
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), a.output, newEnvelopeView(env))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "scval XDR",
		Short: "Decode a single contract value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var v xdr.ScVal
			if err := xdr.SafeUnmarshalBase64(args[0], &v); err != nil {
				return fmt.Errorf("failed to decode contract value: %w", err)
			}
			return writeOutput(cmd.OutOrStdout(), a.output, scValue(v))
		},
	})
	return cmd
}

func newEnvelopeView(env xdr.TransactionEnvelope) envelopeView {
	v := envelopeView{
		Source:        address.FromMuxedAccount(env.SourceAccount()).String(),
		Fee:           env.Fee(),
		Sequence:      env.SeqNum(),
		Memo:          newMemoView(env.Memo()),
		Preconditions: displayName(env.Preconditions().Type.String(), "PreconditionTypePrecond"),
		Signatures:    len(env.Signatures()),
	}
	if env.IsFeeBump() {
		v.FeeBump = &feeBumpView{
			FeeSource: address.FromMuxedAccount(env.FeeBumpAccount()).String(),
			Fee:       env.FeeBumpFee(),
		}
	}
	if tb := env.TimeBounds(); tb != nil {
		v.TimeBounds = &boundsView{Min: uint64(tb.MinTime), Max: uint64(tb.MaxTime)}
	}
	if lb := env.LedgerBounds(); lb != nil {
		v.LedgerBounds = &boundsView{Min: uint64(lb.MinLedger), Max: uint64(lb.MaxLedger)}
	}
	for _, op := range env.Operations() {
		v.Operations = append(v.Operations, newOperationView(op))
	}
	if d, ok := sorobanData(env); ok {
		v.Soroban = &sorobanView{
			ResourceFee:  int64(d.ResourceFee),
			Instructions: uint32(d.Resources.Instructions),
			ReadOnly:     len(d.Resources.Footprint.ReadOnly),
			ReadWrite:    len(d.Resources.Footprint.ReadWrite),
		}
	}
	return v
}

func sorobanData(env xdr.TransactionEnvelope) (xdr.SorobanTransactionData, bool) {
	switch {
	case env.IsFeeBump():
		if inner, ok := env.FeeBump.Tx.InnerTx.GetV1(); ok {
			return inner.Tx.Ext.GetSorobanData()
		}
	case env.V1 != nil:
		return env.V1.Tx.Ext.GetSorobanData()
	}
	return xdr.SorobanTransactionData{}, false
}

func newMemoView(m xdr.Memo) *memoView {
	switch {
	case m.Type == xdr.MemoTypeMemoText && m.Text != nil:
		return &memoView{Type: "text", Value: *m.Text}
	case m.Type == xdr.MemoTypeMemoId && m.Id != nil:
		return &memoView{Type: "id", Value: strconv.FormatUint(uint64(*m.Id), 10)}
	case m.Type == xdr.MemoTypeMemoHash && m.Hash != nil:
		return &memoView{Type: "hash", Value: hex.EncodeToString(m.Hash[:])}
	case m.Type == xdr.MemoTypeMemoReturn && m.RetHash != nil:
		return &memoView{Type: "return", Value: hex.EncodeToString(m.RetHash[:])}
	default:
		return nil
	}
}

func newOperationView(op xdr.Operation) operationView {
	v := operationView{Type: displayName(op.Body.Type.String(), "OperationType")}
	if op.SourceAccount != nil {
		v.Source = address.FromMuxedAccount(*op.SourceAccount).String()
	}

	body := op.Body
	switch body.Type {
	case xdr.OperationTypeCreateAccount:
		if c, ok := body.GetCreateAccountOp(); ok {
			v.Destination = address.FromAccountID(c.Destination).String()
			v.Asset = "native"
			v.Amount = util.FromBaseUnits(big.NewInt(int64(c.StartingBalance)), util.NativeDecimals)
		}
	case xdr.OperationTypePayment:
		if p, ok := body.GetPaymentOp(); ok {
			v.Destination = address.FromMuxedAccount(p.Destination).String()
			v.Asset = assetString(p.Asset)
			v.Amount = util.FromBaseUnits(big.NewInt(int64(p.Amount)), util.NativeDecimals)
		}
	case xdr.OperationTypeInvokeHostFunction:
		if invoke, ok := body.GetInvokeHostFunctionOp(); ok {
			v.AuthEntries = len(invoke.Auth)
		}
		if inv, ok := soroban.DecodeOperationInvocation(op); ok {
			v.Contract = inv.ContractID
			v.Function = inv.FunctionName
			v.Invocation = &invocationView{
				Kind:    string(inv.Args.Kind),
				From:    inv.Args.From,
				To:      inv.Args.To,
				TokenID: inv.Args.TokenID,
			}
			if inv.Args.Amount != nil {
				v.Invocation.Amount = inv.Args.Amount.String()
			}
		}
	}
	return v
}

func assetString(a xdr.Asset) string {
	if a.Type == xdr.AssetTypeAssetTypeNative {
		return "native"
	}
	return a.StringCanonical()
}

// displayName turns a generated enum name such as OperationTypeInvokeHostFunction
// into invoke_host_function.
func displayName(name, prefix string) string {
	name = strings.TrimPrefix(name, prefix)
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// scValue renders a contract value as plain data for display.
func scValue(v xdr.ScVal) map[string]any {
	out := map[string]any{"type": displayName(v.Type.String(), "ScValTypeScv")}

	switch v.Type {
	case xdr.ScValTypeScvBool:
		if v.B != nil {
			out["value"] = *v.B
		}
	case xdr.ScValTypeScvU32:
		if v.U32 != nil {
			out["value"] = uint32(*v.U32)
		}
	case xdr.ScValTypeScvI32:
		if v.I32 != nil {
			out["value"] = int32(*v.I32)
		}
	case xdr.ScValTypeScvU64:
		if v.U64 != nil {
			out["value"] = strconv.FormatUint(uint64(*v.U64), 10)
		}
	case xdr.ScValTypeScvTimepoint:
		if v.Timepoint != nil {
			out["value"] = strconv.FormatUint(uint64(*v.Timepoint), 10)
		}
	case xdr.ScValTypeScvDuration:
		if v.Duration != nil {
			out["value"] = strconv.FormatUint(uint64(*v.Duration), 10)
		}
	case xdr.ScValTypeScvI64:
		if v.I64 != nil {
			out["value"] = strconv.FormatInt(int64(*v.I64), 10)
		}
	case xdr.ScValTypeScvU128:
		if p := v.U128; p != nil {
			n := new(big.Int).Lsh(new(big.Int).SetUint64(uint64(p.Hi)), 64)
			out["value"] = n.Or(n, new(big.Int).SetUint64(uint64(p.Lo))).String()
		}
	case xdr.ScValTypeScvI128:
		if v.I128 != nil {
			out["value"] = soroban.Int128(*v.I128).String()
		}
	case xdr.ScValTypeScvU256:
		if p := v.U256; p != nil {
			out["value"] = int256(uint64(p.HiHi), uint64(p.HiLo), uint64(p.LoHi), uint64(p.LoLo), false).String()
		}
	case xdr.ScValTypeScvI256:
		if p := v.I256; p != nil {
			out["value"] = int256(uint64(p.HiHi), uint64(p.HiLo), uint64(p.LoHi), uint64(p.LoLo), true).String()
		}
	case xdr.ScValTypeScvBytes:
		if v.Bytes != nil {
			out["value"] = hex.EncodeToString(*v.Bytes)
		}
	case xdr.ScValTypeScvString:
		if v.Str != nil {
			out["value"] = string(*v.Str)
		}
	case xdr.ScValTypeScvSymbol:
		if v.Sym != nil {
			out["value"] = string(*v.Sym)
		}
	case xdr.ScValTypeScvAddress:
		if s, err := soroban.AddressString(v); err == nil {
			out["value"] = s
		}
	case xdr.ScValTypeScvVec:
		items := []map[string]any{}
		if vec, ok := v.GetVec(); ok && vec != nil {
			for _, item := range *vec {
				items = append(items, scValue(item))
			}
		}
		out["value"] = items
	case xdr.ScValTypeScvMap:
		entries := []map[string]any{}
		if m, ok := v.GetMap(); ok && m != nil {
			for _, e := range *m {
				entries = append(entries, map[string]any{"key": scValue(e.Key), "val": scValue(e.Val)})
			}
		}
		out["value"] = entries
	case xdr.ScValTypeScvError:
		if e := v.Error; e != nil {
			view := map[string]any{"type": displayName(e.Type.String(), "ScErrorTypeSce")}
			if e.ContractCode != nil {
				view["contract_code"] = uint32(*e.ContractCode)
			}
			if e.Code != nil {
				view["code"] = displayName(e.Code.String(), "ScErrorCodeScec")
			}
			out["value"] = view
		}
	case xdr.ScValTypeScvLedgerKeyNonce:
		if v.NonceKey != nil {
			out["value"] = strconv.FormatInt(int64(v.NonceKey.Nonce), 10)
		}
	}
	return out
}

func int256(hiHi, hiLo, loHi, loLo uint64, signed bool) *big.Int {
	n := new(big.Int)
	for _, w := range []uint64{hiHi, hiLo, loHi, loLo} {
		n.Lsh(n, 64)
		n.Or(n, new(big.Int).SetUint64(w))
	}
	if signed && int64(hiHi) < 0 {
		n.Sub(n, new(big.Int).Lsh(big.NewInt(1), 256))
	}
	return n
}
