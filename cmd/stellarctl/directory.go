package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vultisig/stellar-txcore/internal/directory"
	"github.com/vultisig/stellar-txcore/internal/graceful"
	"github.com/vultisig/stellar-txcore/internal/metrics"
	"github.com/vultisig/stellar-txcore/internal/util"
)

// openDirectory builds the memo-required directory cache. It is backed by a
// bolt file when DIRECTORY_CACHE_PATH is set and by memory otherwise.
func (a *app) openDirectory() (*directory.Cache, directory.Store, error) {
	cfg := a.cfg.Directory

	var store directory.Store = directory.NewMemoryStore()
	if cfg.CachePath != "" {
		bolt, err := directory.OpenBoltStore(cfg.CachePath)
		if err != nil {
			return nil, nil, err
		}
		store = bolt
	}

	cache, err := directory.NewCache(directory.Options{
		URL:     util.IfEmptyElse(cfg.URL, directory.DefaultURL),
		Key:     directory.DefaultKey,
		TTL:     cfg.TTL,
		Store:   store,
		Fetcher: directory.NewHTTPFetcher(nil, cfg.MaxPages),
		Metrics: metrics.NewDirectoryMetrics(),
		Logger:  a.logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return cache, store, nil
}

func (a *app) directoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "directory",
		Short: "Manage the cached list of memo-required accounts",
	}
	cmd.AddCommand(a.directoryListCmd(), a.directoryRefreshCmd(), a.directoryWatchCmd())
	return cmd
}

func (a *app) directoryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the memo-required accounts, fetching them if the cache is stale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cache, store, err := a.openDirectory()
			if err != nil {
				return err
			}
			defer store.Close()

			accounts, err := cache.MemoRequiredAccounts(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load directory: %w", err)
			}
			if accounts == nil {
				accounts = []string{}
			}
			return writeOutput(cmd.OutOrStdout(), a.output, accounts)
		},
	}
}

func (a *app) directoryRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refetch the directory regardless of cache age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cache, store, err := a.openDirectory()
			if err != nil {
				return err
			}
			defer store.Close()

			resp, err := cache.Fetch(cmd.Context(), true)
			if err != nil {
				return fmt.Errorf("failed to refresh directory: %w", err)
			}
			a.logger.WithField("records", len(resp.Embedded.Records)).Info("directory refreshed")
			return nil
		},
	}
}

func (a *app) directoryWatchCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the directory cache fresh and serve metrics until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cache, store, err := a.openDirectory()
			if err != nil {
				return err
			}

			server := metrics.StartMetricsServer(a.cfg.Metrics, []string{metrics.ServiceDirectory}, a.logger)

			ctx, stop := graceful.WithSignals(cmd.Context())
			defer stop()

			err = directory.NewRefresher(cache, interval, a.logger).Run(ctx)

			graceful.Shutdown(a.logger, 5*time.Second,
				server.Stop,
				func(context.Context) error { return store.Close() },
			)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", a.cfg.Directory.RefreshInterval, "time between refreshes")
	return cmd
}
