package main

import (
	"github.com/spf13/cobra"

	"github.com/vultisig/stellar-txcore/internal/horizon"
	"github.com/vultisig/stellar-txcore/internal/memo"
	"github.com/vultisig/stellar-txcore/internal/metrics"
	"github.com/vultisig/stellar-txcore/internal/soroban"
	"github.com/vultisig/stellar-txcore/internal/util"
)

type memoCheckView struct {
	Destination     string `json:"destination,omitempty" yaml:"destination,omitempty"`
	IsRequired      bool   `json:"is_required" yaml:"is_required"`
	IsStillChecking bool   `json:"is_still_checking" yaml:"is_still_checking"`
}

func (a *app) memoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memo",
		Short: "Memo policy checks",
	}

	var userMemo string
	var disabled bool
	check := &cobra.Command{
		Use:   "check ENVELOPE",
		Short: "Report whether an envelope's destination requires a memo",
		Long: `Checks the destination against the memo-required directory first and
falls back to the destination's on-chain config.memo_required flag. Any
lookup that cannot be completed reports the memo as required.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := a.networkDetails()
			if err != nil {
				return err
			}
			cache, store, err := a.openDirectory()
			if err != nil {
				return err
			}
			defer store.Close()

			hz := horizon.NewClient(util.IfEmptyElse(a.cfg.HorizonURL, details.HorizonURL), nil)
			validator := memo.NewValidator(memo.Options{
				Directory: cache,
				Preflight: memo.NewAccountDataPreflight(hz),
				Metrics:   metrics.NewMemoMetrics(),
				Logger:    a.logger,
			})

			res := validator.Check(cmd.Context(), memo.Request{
				EnvelopeXDR:       args[0],
				Memo:              userMemo,
				Network:           details.Name,
				ValidationEnabled: !disabled,
			})
			return writeOutput(cmd.OutOrStdout(), a.output, memoCheckView{
				Destination:     envelopeDestination(args[0]),
				IsRequired:      res.IsRequired,
				IsStillChecking: res.IsStillChecking,
			})
		},
	}
	check.Flags().StringVar(&userMemo, "memo", "", "memo the user has entered but not yet put in the envelope")
	check.Flags().BoolVar(&disabled, "no-validation", false, "act as if the user turned memo validation off")

	cmd.AddCommand(check)
	return cmd
}

func envelopeDestination(envelopeXDR string) string {
	env, err := soroban.DecodeEnvelope(envelopeXDR)
	if err != nil {
		return ""
	}
	dest, _ := memo.DestinationOf(env)
	return dest
}
