package rpc

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	client "github.com/stellar/go/clients/rpcclient"
	protocol "github.com/stellar/go/protocols/rpc"
	"github.com/stellar/go/xdr"

	"github.com/vultisig/stellar-txcore/internal/txbuild"
)

// Simulator is the part of a Soroban RPC client Prepare needs.
type Simulator interface {
	SimulateTransaction(ctx context.Context, req protocol.SimulateTransactionRequest) (protocol.SimulateTransactionResponse, error)
}

// Client prepares contract envelopes against a Soroban JSON-RPC endpoint.
type Client struct {
	sim Simulator
}

func NewClient(rpcURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return NewClientWith(client.NewClient(rpcURL, httpClient))
}

func NewClientWith(sim Simulator) *Client {
	return &Client{sim: sim}
}

// Prepare implements txbuild.Preparer: it simulates the envelope and folds
// the returned footprint, resource fee and authorization into it. A failed
// simulation is a PrepareError result, not an error.
func (c *Client) Prepare(ctx context.Context, envelopeXDR string) (txbuild.PrepareResult, error) {
	var env xdr.TransactionEnvelope
	if err := xdr.SafeUnmarshalBase64(envelopeXDR, &env); err != nil {
		return txbuild.PrepareResult{}, fmt.Errorf("rpc: failed to decode envelope: %w", err)
	}
	if env.Type != xdr.EnvelopeTypeEnvelopeTypeTx || env.V1 == nil {
		return txbuild.PrepareResult{}, fmt.Errorf("rpc: cannot prepare %s envelope", env.Type)
	}

	sim, err := c.sim.SimulateTransaction(ctx, protocol.SimulateTransactionRequest{Transaction: envelopeXDR})
	if err != nil {
		return txbuild.PrepareResult{}, fmt.Errorf("rpc: simulateTransaction failed: %w", err)
	}
	if sim.Error != "" {
		return txbuild.PrepareResult{Status: txbuild.PrepareError, Error: sim.Error}, nil
	}

	if err := assemble(env.V1, sim); err != nil {
		return txbuild.PrepareResult{Status: txbuild.PrepareError, Error: err.Error()}, nil
	}
	out, err := xdr.MarshalBase64(env)
	if err != nil {
		return txbuild.PrepareResult{}, fmt.Errorf("rpc: failed to encode envelope: %w", err)
	}
	return txbuild.PrepareResult{Status: txbuild.PrepareSuccess, PreparedXDR: out}, nil
}

func assemble(env *xdr.TransactionV1Envelope, sim protocol.SimulateTransactionResponse) error {
	var data xdr.SorobanTransactionData
	if err := xdr.SafeUnmarshalBase64(sim.TransactionDataXDR, &data); err != nil {
		return fmt.Errorf("rpc: bad transaction data: %w", err)
	}
	if sim.MinResourceFee < 0 {
		return fmt.Errorf("rpc: bad resource fee %d", sim.MinResourceFee)
	}
	fee := int64(env.Tx.Fee) + sim.MinResourceFee
	if fee > math.MaxUint32 {
		return fmt.Errorf("rpc: fee %d overflows uint32", fee)
	}

	env.Tx.Fee = xdr.Uint32(fee)
	env.Tx.Ext = xdr.TransactionExt{V: 1, SorobanData: &data}

	if len(env.Tx.Operations) != 1 || len(sim.Results) == 0 || sim.Results[0].AuthXDR == nil {
		return nil
	}
	invoke := env.Tx.Operations[0].Body.InvokeHostFunctionOp
	if invoke == nil || len(invoke.Auth) > 0 {
		return nil
	}
	for _, b64 := range *sim.Results[0].AuthXDR {
		var entry xdr.SorobanAuthorizationEntry
		if err := xdr.SafeUnmarshalBase64(b64, &entry); err != nil {
			return fmt.Errorf("rpc: bad auth entry: %w", err)
		}
		invoke.Auth = append(invoke.Auth, entry)
	}
	return nil
}
