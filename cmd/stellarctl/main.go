package main

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vultisig/stellar-txcore/internal/logging"
	"github.com/vultisig/stellar-txcore/internal/network"
	"github.com/vultisig/stellar-txcore/internal/util"
)

type app struct {
	cfg    config
	logger *logrus.Logger

	network string
	output  string
}

func main() {
	cfg, err := newConfig()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		logrus.Fatalf("failed to initialize logger: %v", err)
	}

	a := &app{cfg: cfg, logger: logger}
	if err := a.rootCmd().ExecuteContext(context.Background()); err != nil {
		logger.Fatalf("command failed: %v", err)
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "stellarctl",
		Short:         "Stellar transaction construction and memo policy toolkit",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&a.network, "network", "n", "", "network name (PUBLIC, TESTNET, FUTURENET); defaults to $NETWORK")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", formatYAML, "output format: yaml or json")

	root.AddCommand(
		a.classifyCmd(),
		a.truncateCmd(),
		a.muxCmd(),
		a.decodeCmd(),
		a.buildCmd(),
		a.memoCmd(),
		a.directoryCmd(),
	)
	return root
}

func (a *app) networkDetails() (network.Details, error) {
	return network.Lookup(util.IfEmptyElse(a.network, a.cfg.Network))
}
