package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	protocol "github.com/stellar/go/protocols/rpc"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vultisig/stellar-txcore/internal/network"
	"github.com/vultisig/stellar-txcore/internal/soroban"
	"github.com/vultisig/stellar-txcore/internal/txbuild"
)

const (
	accountA  = "GA7QYNF7SOWQ3GLR2BGMZEHXAVIRZA4KVWLTJJFC7MGXUA74P7UJVSGZ"
	accountB  = "GDMSTCQQ2GYHGWBX3RF5QXNMMQNQ6PHPE6SH4XKTUVHS6P23F7H7V6TX"
	contractA = "CA3D5KRYM6CB7OWQ6TWYRR3Z4T7GNZLKERYNZGGA5SOAOPIFY6YQGAXE"
)

func transferEnvelope(t *testing.T) (xdr.TransactionEnvelope, string) {
	t.Helper()
	amount, err := soroban.ScvI128(big.NewInt(100000000))
	require.NoError(t, err)
	op, err := soroban.TransferCall(contractA, accountA, accountB, amount)
	require.NoError(t, err)

	tx, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        &txnbuild.SimpleAccount{AccountID: accountA, Sequence: 1},
		IncrementSequenceNum: true,
		Operations:           []txnbuild.Operation{op},
		BaseFee:              txnbuild.MinBaseFee,
		Preconditions:        txnbuild.Preconditions{TimeBounds: txnbuild.NewInfiniteTimeout()},
	})
	require.NoError(t, err)
	b64, err := tx.Base64()
	require.NoError(t, err)
	return tx.ToXDR(), b64
}

type fakeSimulator struct {
	resp protocol.SimulateTransactionResponse
	err  error
	reqs []protocol.SimulateTransactionRequest
}

func (f *fakeSimulator) SimulateTransaction(_ context.Context, req protocol.SimulateTransactionRequest) (protocol.SimulateTransactionResponse, error) {
	f.reqs = append(f.reqs, req)
	return f.resp, f.err
}

func encode(t *testing.T, v any) string {
	t.Helper()
	b64, err := xdr.MarshalBase64(v)
	require.NoError(t, err)
	return b64
}

func TestPrepare_AssemblesSimulation(t *testing.T) {
	env, b64 := transferEnvelope(t)

	data := encode(t, xdr.SorobanTransactionData{
		Resources:   xdr.SorobanResources{Instructions: 5000, DiskReadBytes: 100, WriteBytes: 50},
		ResourceFee: 7000,
	})
	call := env.Operations()[0].Body.InvokeHostFunctionOp.HostFunction.InvokeContract
	auth := []string{encode(t, xdr.SorobanAuthorizationEntry{
		Credentials: xdr.SorobanCredentials{Type: xdr.SorobanCredentialsTypeSorobanCredentialsSourceAccount},
		RootInvocation: xdr.SorobanAuthorizedInvocation{Function: xdr.SorobanAuthorizedFunction{
			Type:       xdr.SorobanAuthorizedFunctionTypeSorobanAuthorizedFunctionTypeContractFn,
			ContractFn: call,
		}},
	})}
	sim := &fakeSimulator{resp: protocol.SimulateTransactionResponse{
		TransactionDataXDR: data,
		MinResourceFee:     7000,
		LatestLedger:       1234,
		Results:            []protocol.SimulateHostFunctionResult{{AuthXDR: &auth}},
	}}

	res, err := NewClientWith(sim).Prepare(context.Background(), b64)
	require.NoError(t, err)
	require.Equal(t, txbuild.PrepareSuccess, res.Status)
	require.Len(t, sim.reqs, 1)
	assert.Equal(t, b64, sim.reqs[0].Transaction)

	prepared, err := soroban.DecodeEnvelope(res.PreparedXDR)
	require.NoError(t, err)
	assert.Equal(t, uint32(7100), prepared.Fee())
	got, ok := prepared.V1.Tx.Ext.GetSorobanData()
	require.True(t, ok)
	assert.Equal(t, xdr.Int64(7000), got.ResourceFee)
	assert.Equal(t, xdr.Uint32(5000), got.Resources.Instructions)
	require.Len(t, prepared.Operations()[0].Body.InvokeHostFunctionOp.Auth, 1)
	assert.Equal(t, env.SeqNum(), prepared.SeqNum())
}

func TestPrepare_SimulationError(t *testing.T) {
	_, b64 := transferEnvelope(t)
	sim := &fakeSimulator{resp: protocol.SimulateTransactionResponse{
		Error:        "HostError: Error(Contract, #10) UnreachableCodeReached",
		LatestLedger: 1234,
	}}

	res, err := NewClientWith(sim).Prepare(context.Background(), b64)
	require.NoError(t, err)
	assert.Equal(t, txbuild.PrepareError, res.Status)
	assert.Contains(t, res.Error, "UnreachableCodeReached")
	assert.Empty(t, res.PreparedXDR)
}

func TestPrepare_BadSimulationData(t *testing.T) {
	_, b64 := transferEnvelope(t)
	sim := &fakeSimulator{resp: protocol.SimulateTransactionResponse{TransactionDataXDR: "AAAA", MinResourceFee: 10}}

	res, err := NewClientWith(sim).Prepare(context.Background(), b64)
	require.NoError(t, err)
	assert.Equal(t, txbuild.PrepareError, res.Status)
}

func TestPrepare_Errors(t *testing.T) {
	_, b64 := transferEnvelope(t)

	_, err := NewClientWith(&fakeSimulator{err: errors.New("connection reset")}).Prepare(context.Background(), b64)
	assert.ErrorContains(t, err, "connection reset")

	sim := &fakeSimulator{}
	_, err = NewClientWith(sim).Prepare(context.Background(), "not-an-envelope")
	assert.Error(t, err)
	assert.Empty(t, sim.reqs, "an unreadable envelope is never simulated")
}

// jsonRPCServer answers every call with result or rpcErr, echoing the
// request id.
func jsonRPCServer(t *testing.T, result any, rpcErr map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
			Params struct {
				Transaction string `json:"transaction"`
			} `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, protocol.SimulateTransactionMethodName, req.Method)
		assert.NotEmpty(t, req.Params.Transaction)

		out := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr != nil {
			out["error"] = rpcErr
		} else {
			out["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClient_OverJSONRPC(t *testing.T) {
	_, b64 := transferEnvelope(t)
	data := encode(t, xdr.SorobanTransactionData{ResourceFee: 300})

	srv := jsonRPCServer(t, map[string]any{
		"transactionData": data,
		"minResourceFee":  "300",
		"latestLedger":    1234,
	}, nil)
	res, err := NewClient(srv.URL, nil).Prepare(context.Background(), b64)
	require.NoError(t, err)
	require.Equal(t, txbuild.PrepareSuccess, res.Status)

	prepared, err := soroban.DecodeEnvelope(res.PreparedXDR)
	require.NoError(t, err)
	assert.Equal(t, uint32(400), prepared.Fee())

	failing := jsonRPCServer(t, nil, map[string]any{"code": -32602, "message": "invalid params"})
	_, err = NewClient(failing.URL, nil).Prepare(context.Background(), b64)
	assert.ErrorContains(t, err, "invalid params")

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()
	_, err = NewClient(down.URL, nil).Prepare(context.Background(), b64)
	assert.Error(t, err)
}

func TestPrepare_FeedsBuilderFallback(t *testing.T) {
	sim := &fakeSimulator{resp: protocol.SimulateTransactionResponse{Error: "Muxed addresses are not supported"}}

	b, err := txbuild.NewBuilder(txbuild.Options{
		Network:  network.MustLookup(network.Public),
		Accounts: staticLoader{},
		Preparer: NewClientWith(sim),
	})
	require.NoError(t, err)

	res, err := b.Build(context.Background(), txbuild.Intent{
		Source:           accountA,
		Destination:      contractA,
		Amount:           "1",
		Asset:            txbuild.NativeAsset(),
		Fee:              "0.00001",
		Timeout:          30 * time.Second,
		SpendableBalance: "10",
	})
	require.NoError(t, err)
	assert.False(t, res.Prepared)
	assert.True(t, res.MuxedRejected)
	assert.Equal(t, txbuild.PathContract, res.Path)
}

type staticLoader struct{}

func (staticLoader) LoadAccount(_ context.Context, id string) (txbuild.Account, error) {
	return txbuild.Account{ID: id, Sequence: 10, Exists: true}, nil
}
