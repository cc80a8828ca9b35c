package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vultisig/stellar-txcore/internal/address"
)

type addressView struct {
	Input     string `json:"input" yaml:"input"`
	Kind      string `json:"kind" yaml:"kind"`
	Valid     bool   `json:"valid" yaml:"valid"`
	Base      string `json:"base,omitempty" yaml:"base,omitempty"`
	MuxedID   string `json:"muxed_id,omitempty" yaml:"muxed_id,omitempty"`
	LocalPart string `json:"local_part,omitempty" yaml:"local_part,omitempty"`
	Domain    string `json:"domain,omitempty" yaml:"domain,omitempty"`
}

func newAddressView(input string) addressView {
	a := address.Classify(input)
	v := addressView{
		Input: input,
		Kind:  a.Kind().String(),
		Valid: address.IsValid(input),
	}
	switch t := a.(type) {
	case address.Muxed:
		v.Base = t.Base.String()
		v.MuxedID = strconv.FormatUint(t.ID, 10)
	case address.Federation:
		v.LocalPart = t.LocalPart
		v.Domain = t.Domain
	}
	return v
}

func (a *app) classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify ADDRESS...",
		Short: "Classify addresses as account, muxed, contract, federation or invalid",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			views := make([]addressView, 0, len(args))
			for _, arg := range args {
				views = append(views, newAddressView(arg))
			}
			return writeOutput(cmd.OutOrStdout(), a.output, views)
		},
	}
}

func (a *app) truncateCmd() *cobra.Command {
	var prefix, suffix int
	cmd := &cobra.Command{
		Use:   "truncate ADDRESS",
		Short: "Shorten an address for display",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), address.Truncate(args[0], prefix, suffix))
			return err
		},
	}
	cmd.Flags().IntVar(&prefix, "prefix", 6, "characters to keep at the start")
	cmd.Flags().IntVar(&suffix, "suffix", 6, "characters to keep at the end")
	return cmd
}

func (a *app) muxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mux",
		Short: "Compose and decompose muxed addresses",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "compose ACCOUNT ID",
		Short: "Build the M-address for an account and a 64-bit id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := address.ParseMuxedID(args[1])
			if err != nil {
				return err
			}
			muxed, err := address.Compose(args[0], id)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), a.output, newAddressView(muxed))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "decompose MUXED",
		Short: "Split an M-address into its account and id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := address.Decompose(args[0]); err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), a.output, newAddressView(args[0]))
		},
	})
	return cmd
}
