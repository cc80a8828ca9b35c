package soroban

import (
	"math/big"
	"testing"

	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	account1  = "GAAQCAIBAEAQCAIBAEAQCAIBAEAQCAIBAEAQCAIBAEAQCAIBAEAQDZ7H"
	account2  = "GABAEAQCAIBAEAQCAIBAEAQCAIBAEAQCAIBAEAQCAIBAEAQCAIBAEJXA"
	muxed2_77 = "MABAEAQCAIBAEAQCAIBAEAQCAIBAEAQCAIBAEAQCAIBAEAQCAIBAEAAAAAAAAAAAJVCOI"
	contract5 = "CACQKBIFAUCQKBIFAUCQKBIFAUCQKBIFAUCQKBIFAUCQKBIFAUCQLC2U"
)

func filled(b byte) [32]byte {
	var k [32]byte
	for i := range k {
		k[i] = b
	}
	return k
}

func accountVal(b byte) xdr.ScVal {
	key := xdr.Uint256(filled(b))
	return xdr.ScVal{Type: xdr.ScValTypeScvAddress, Address: &xdr.ScAddress{
		Type:      xdr.ScAddressTypeScAddressTypeAccount,
		AccountId: &xdr.AccountId{Type: xdr.PublicKeyTypePublicKeyTypeEd25519, Ed25519: &key},
	}}
}

func i128Val(lo uint64) xdr.ScVal {
	return xdr.ScVal{Type: xdr.ScValTypeScvI128, I128: &xdr.Int128Parts{Lo: xdr.Uint64(lo)}}
}

func voidVal() xdr.ScVal {
	return xdr.ScVal{Type: xdr.ScValTypeScvVoid}
}

func TestDecodeInvocation_Transfer(t *testing.T) {
	t.Run("fungible amount as i128", func(t *testing.T) {
		got := DecodeInvocation("transfer", []xdr.ScVal{accountVal(1), accountVal(2), i128Val(1000000)})

		assert.Equal(t, InvocationTokenTransfer, got.Kind)
		assert.Equal(t, account1, got.From)
		assert.Equal(t, account2, got.To)
		require.NotNil(t, got.Amount)
		assert.Equal(t, "1000000", got.Amount.String())
		assert.Nil(t, got.TokenID)
	})

	t.Run("collectible token id as u32", func(t *testing.T) {
		got := DecodeInvocation("transfer", []xdr.ScVal{accountVal(1), accountVal(2), ScvU32(12345)})

		assert.Equal(t, InvocationCollectibleTransfer, got.Kind)
		assert.Equal(t, account1, got.From)
		assert.Equal(t, account2, got.To)
		require.NotNil(t, got.TokenID)
		assert.Equal(t, uint32(12345), *got.TokenID)
		assert.Nil(t, got.Amount)
	})

	t.Run("muxed and contract parties", func(t *testing.T) {
		contract := xdr.ContractId(filled(5))
		to := xdr.ScVal{Type: xdr.ScValTypeScvAddress, Address: &xdr.ScAddress{
			Type:         xdr.ScAddressTypeScAddressTypeMuxedAccount,
			MuxedAccount: &xdr.MuxedEd25519Account{Id: 77, Ed25519: xdr.Uint256(filled(2))},
		}}
		from := xdr.ScVal{Type: xdr.ScValTypeScvAddress, Address: &xdr.ScAddress{
			Type:       xdr.ScAddressTypeScAddressTypeContract,
			ContractId: &contract,
		}}

		got := DecodeInvocation("transfer", []xdr.ScVal{from, to, i128Val(1)})
		assert.Equal(t, contract5, got.From)
		assert.Equal(t, muxed2_77, got.To)
	})

	t.Run("negative amount", func(t *testing.T) {
		v, err := ScvI128(big.NewInt(-5))
		require.NoError(t, err)

		got := DecodeInvocation("transfer", []xdr.ScVal{accountVal(1), accountVal(2), v})
		assert.Equal(t, "-5", got.Amount.String())
	})
}

func TestDecodeInvocation_TransferAmountXORTokenID(t *testing.T) {
	values := []xdr.ScVal{i128Val(7), ScvU32(7)}
	for _, v := range values {
		got := DecodeInvocation("transfer", []xdr.ScVal{accountVal(1), accountVal(2), v})
		assert.True(t, (got.Amount == nil) != (got.TokenID == nil), v.Type.String())
	}
}

func TestDecodeInvocation_Mint(t *testing.T) {
	got := DecodeInvocation("mint", []xdr.ScVal{accountVal(1), i128Val(5000000), voidVal()})

	assert.Equal(t, InvocationMint, got.Kind)
	assert.Equal(t, "", got.From)
	assert.Equal(t, account1, got.To)
	assert.Equal(t, "5000000", got.Amount.String())
	assert.Nil(t, got.TokenID)
}

func TestDecodeInvocation_UnknownDefault(t *testing.T) {
	tests := []struct {
		name string
		fn   string
		args []xdr.ScVal
	}{
		{"unknown function", "approve", []xdr.ScVal{accountVal(1), voidVal(), voidVal()}},
		{"transfer with u64 value", "transfer", []xdr.ScVal{accountVal(1), accountVal(2), u64Val(9)}},
		{"transfer with too few args", "transfer", []xdr.ScVal{accountVal(1), accountVal(2)}},
		{"transfer with non-address sender", "transfer", []xdr.ScVal{ScvU32(1), accountVal(2), i128Val(1)}},
		{"transfer from liquidity pool", "transfer", []xdr.ScVal{
			{Type: xdr.ScValTypeScvAddress, Address: &xdr.ScAddress{Type: xdr.ScAddressTypeScAddressTypeLiquidityPool}},
			accountVal(2), i128Val(1),
		}},
		{"mint with u32 amount", "mint", []xdr.ScVal{accountVal(1), ScvU32(3)}},
		{"mint without args", "mint", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeInvocation(tt.fn, tt.args)
			assert.Equal(t, InvocationUnknown, got.Kind)
			assert.Equal(t, "", got.From)
			assert.Equal(t, "", got.To)
			require.NotNil(t, got.Amount)
			assert.Equal(t, 0, got.Amount.Sign())
			assert.Nil(t, got.TokenID)
		})
	}
}

func TestScvI128(t *testing.T) {
	maxV := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minV := new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	big64 := new(big.Int).Lsh(big.NewInt(3), 64)

	for _, v := range []*big.Int{big.NewInt(0), big.NewInt(100000000), big.NewInt(-1), maxV, minV, big64} {
		sv, err := ScvI128(v)
		require.NoError(t, err)
		assert.Equal(t, 0, v.Cmp(Int128(*sv.I128)), v.String())
	}

	sv, err := ScvI128(big.NewInt(-1))
	require.NoError(t, err)
	assert.Equal(t, xdr.Int64(-1), sv.I128.Hi)
	assert.Equal(t, xdr.Uint64(^uint64(0)), sv.I128.Lo)

	_, err = ScvI128(new(big.Int).Add(maxV, big.NewInt(1)))
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = ScvI128(new(big.Int).Sub(minV, big.NewInt(1)))
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestScvAddress(t *testing.T) {
	v, err := ScvAddress(muxed2_77)
	require.NoError(t, err)
	require.NotNil(t, v.Address)
	assert.Equal(t, xdr.ScAddressTypeScAddressTypeMuxedAccount, v.Address.Type)
	require.NotNil(t, v.Address.MuxedAccount)
	assert.Equal(t, xdr.Uint64(77), v.Address.MuxedAccount.Id)

	s, err := AddressString(v)
	require.NoError(t, err)
	assert.Equal(t, muxed2_77, s)

	_, err = ScvAddress("user*domain.com")
	assert.Error(t, err)
}

func u64Val(v uint64) xdr.ScVal {
	u := xdr.Uint64(v)
	return xdr.ScVal{Type: xdr.ScValTypeScvU64, U64: &u}
}

func TestTransferCall_DecodesBack(t *testing.T) {
	amount, err := ScvI128(big.NewInt(100000000))
	require.NoError(t, err)

	call, err := TransferCall(contract5, account1, account2, amount)
	require.NoError(t, err)
	op, err := call.BuildXDR()
	require.NoError(t, err)

	b64, err := xdr.MarshalBase64(op)
	require.NoError(t, err)
	var decoded xdr.Operation
	require.NoError(t, xdr.SafeUnmarshalBase64(b64, &decoded))

	inv, ok := DecodeOperationInvocation(decoded)
	require.True(t, ok)
	assert.Equal(t, contract5, inv.ContractID)
	assert.Equal(t, "transfer", inv.FunctionName)
	assert.Equal(t, account1, inv.Args.From)
	assert.Equal(t, account2, inv.Args.To)
	assert.Equal(t, "100000000", inv.Args.Amount.String())

	payment, err := (&txnbuild.Payment{Destination: account2, Amount: "1", Asset: txnbuild.NativeAsset{}}).BuildXDR()
	require.NoError(t, err)
	_, ok = DecodeOperationInvocation(payment)
	assert.False(t, ok)

	_, err = TransferCall(account1, account1, account2, amount)
	assert.Error(t, err)
}

// transferTx builds an unsigned v1 transaction around a token transfer.
func transferTx(t *testing.T, cond txnbuild.Preconditions) *txnbuild.Transaction {
	t.Helper()
	amount, err := ScvI128(big.NewInt(25000000))
	require.NoError(t, err)
	call, err := TransferCall(contract5, account1, muxed2_77, amount)
	require.NoError(t, err)

	tx, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        &txnbuild.SimpleAccount{AccountID: account1, Sequence: 41},
		IncrementSequenceNum: true,
		BaseFee:              txnbuild.MinBaseFee,
		Operations: []txnbuild.Operation{
			&txnbuild.ManageData{Name: "note", Value: []byte("x")},
			call,
		},
		Preconditions: cond,
	})
	require.NoError(t, err)
	return tx
}

func assertTransferAt(t *testing.T, invs []IndexedInvocation, index int) {
	t.Helper()
	require.Len(t, invs, 1)
	assert.Equal(t, index, invs[0].Index)
	assert.Equal(t, contract5, invs[0].ContractID)
	assert.Equal(t, InvocationTokenTransfer, invs[0].Args.Kind)
	assert.Equal(t, account1, invs[0].Args.From)
	assert.Equal(t, muxed2_77, invs[0].Args.To)
	assert.Equal(t, "25000000", invs[0].Args.Amount.String())
}

func TestEnvelopeInvocations_FeeBump(t *testing.T) {
	inner := transferTx(t, txnbuild.Preconditions{TimeBounds: txnbuild.NewInfiniteTimeout()})
	bump, err := txnbuild.NewFeeBumpTransaction(txnbuild.FeeBumpTransactionParams{
		Inner:      inner,
		FeeAccount: account2,
		BaseFee:    txnbuild.MinBaseFee * 10,
	})
	require.NoError(t, err)
	b64, err := bump.Base64()
	require.NoError(t, err)

	env, err := DecodeEnvelope(b64)
	require.NoError(t, err)
	require.True(t, env.IsFeeBump())
	assertTransferAt(t, EnvelopeInvocations(env), 1)
}

func TestEnvelopeInvocations_PreconditionsV2(t *testing.T) {
	tx := transferTx(t, txnbuild.Preconditions{
		TimeBounds:                 txnbuild.NewTimebounds(0, 1900000000),
		LedgerBounds:               &txnbuild.LedgerBounds{MinLedger: 100, MaxLedger: 200},
		MinSequenceNumberAge:       60,
		MinSequenceNumberLedgerGap: 2,
	})
	b64, err := tx.Base64()
	require.NoError(t, err)

	env, err := DecodeEnvelope(b64)
	require.NoError(t, err)
	require.Equal(t, xdr.PreconditionTypePrecondV2, env.Preconditions().Type)
	assertTransferAt(t, EnvelopeInvocations(env), 1)
}

func TestDecodeEnvelope_Malformed(t *testing.T) {
	for _, in := range []string{"", "not base64", "AAAA"} {
		_, err := DecodeEnvelope(in)
		assert.Error(t, err, in)
	}
}
