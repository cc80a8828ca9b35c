package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vultisig/stellar-txcore/internal/address"
	"github.com/vultisig/stellar-txcore/internal/horizon"
	"github.com/vultisig/stellar-txcore/internal/metrics"
	"github.com/vultisig/stellar-txcore/internal/rpc"
	"github.com/vultisig/stellar-txcore/internal/txbuild"
	"github.com/vultisig/stellar-txcore/internal/util"
)

type buildFlags struct {
	from     string
	to       string
	amount   string
	asset    string
	decimals int
	tokenID  int64
	memo     string
	fee      string
	timeout  time.Duration
	balance  string
}

type buildView struct {
	Envelope         string `json:"envelope" yaml:"envelope"`
	Path             string `json:"path" yaml:"path"`
	Operation        string `json:"operation" yaml:"operation"`
	Contract         string `json:"contract,omitempty" yaml:"contract,omitempty"`
	FinalDestination string `json:"final_destination" yaml:"final_destination"`
	MemoAttached     bool   `json:"memo_attached" yaml:"memo_attached"`
	Prepared         bool   `json:"prepared" yaml:"prepared"`
	SimulationError  string `json:"simulation_error,omitempty" yaml:"simulation_error,omitempty"`
	MuxedRejected    bool   `json:"muxed_rejected,omitempty" yaml:"muxed_rejected,omitempty"`
}

func (a *app) buildCmd() *cobra.Command {
	var f buildFlags
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build an unsigned payment or token transfer envelope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			details, err := a.networkDetails()
			if err != nil {
				return err
			}
			asset, err := parseAsset(f.asset, f.decimals, f.tokenID)
			if err != nil {
				return err
			}

			hz := horizon.NewClient(util.IfEmptyElse(a.cfg.HorizonURL, details.HorizonURL), nil)
			balance := f.balance
			if balance == "" {
				if asset.Kind != txbuild.AssetNative {
					return errors.New("--balance is required for non-native assets")
				}
				balance, err = hz.NativeBalance(cmd.Context(), address.BaseAccount(f.from))
				if err != nil {
					return err
				}
			}

			builder, err := txbuild.NewBuilder(txbuild.Options{
				Network:  details,
				Accounts: hz,
				Preparer: rpc.NewClient(util.IfEmptyElse(a.cfg.SorobanRPCURL, details.SorobanRPCURL), nil),
				Metrics:  metrics.NewBuilderMetrics(),
				Logger:   a.logger,
			})
			if err != nil {
				return err
			}

			res, err := builder.Build(cmd.Context(), txbuild.Intent{
				Source:           f.from,
				Destination:      f.to,
				Amount:           f.amount,
				Asset:            asset,
				Memo:             f.memo,
				Fee:              f.fee,
				Timeout:          f.timeout,
				SpendableBalance: balance,
			})
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), a.output, buildView{
				Envelope:         res.EnvelopeXDR,
				Path:             string(res.Path),
				Operation:        displayName(res.Operation.String(), "OperationType"),
				Contract:         res.ContractID,
				FinalDestination: res.FinalDestination,
				MemoAttached:     res.MemoAttached,
				Prepared:         res.Prepared,
				SimulationError:  res.SimulationError,
				MuxedRejected:    res.MuxedRejected,
			})
		},
	}

	cmd.Flags().StringVar(&f.from, "from", "", "source account (G or M address)")
	cmd.Flags().StringVar(&f.to, "to", "", "destination (G, M or C address)")
	cmd.Flags().StringVar(&f.amount, "amount", "", "amount in whole units")
	cmd.Flags().StringVar(&f.asset, "asset", "native", "native, CODE:ISSUER or a token contract id")
	cmd.Flags().IntVar(&f.decimals, "decimals", util.NativeDecimals, "decimals of a contract token")
	cmd.Flags().Int64Var(&f.tokenID, "token-id", -1, "collectible token id; makes --asset a collectible contract")
	cmd.Flags().StringVar(&f.memo, "memo", "", "text memo, or muxed id for contract transfers")
	cmd.Flags().StringVar(&f.fee, "fee", "0.00001", "base fee in XLM")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 3*time.Minute, "how long the transaction stays valid")
	cmd.Flags().StringVar(&f.balance, "balance", "", "spendable balance; loaded from Horizon for native when empty")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

// parseAsset reads the --asset flag. A negative tokenID means the asset is
// not a collectible.
func parseAsset(s string, decimals int, tokenID int64) (txbuild.Asset, error) {
	if tokenID > int64(^uint32(0)) {
		return txbuild.Asset{}, fmt.Errorf("token id %d does not fit u32", tokenID)
	}

	if util.IsNativeToken(s) {
		if tokenID >= 0 {
			return txbuild.Asset{}, errors.New("--token-id needs a collectible contract as --asset")
		}
		return txbuild.NativeAsset(), nil
	}
	if address.Classify(s).Kind() == address.KindContract {
		if tokenID >= 0 {
			return txbuild.Collectible(s, uint32(tokenID)), nil
		}
		return txbuild.ContractToken(s, decimals), nil
	}
	if code, issuer, ok := strings.Cut(s, ":"); ok && tokenID < 0 {
		return txbuild.CreditAsset(code, issuer), nil
	}
	return txbuild.Asset{}, fmt.Errorf("unrecognised asset %q", s)
}
