// Package cli wires configuration, storage and services into the auction
// command line.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	account "auction-house/internal/accountService"
	auction "auction-house/internal/auctionService"
	"auction-house/internal/config"
	"auction-house/internal/locker"
	"auction-house/internal/repository"
	"auction-house/utils"
)

type options struct {
	configPath string
	cfg        *config.Config
}

// NewRootCommand builds the auction command tree
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "auction",
		Short:         "Online auction marketplace",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if err := utils.ConfigureLogger(utils.LogOptions{
				Level:      cfg.Log.Level,
				File:       cfg.Log.File,
				MaxSizeMB:  cfg.Log.MaxSizeMB,
				MaxBackups: cfg.Log.MaxBackups,
				MaxAgeDays: cfg.Log.MaxAgeDays,
			}); err != nil {
				return fmt.Errorf("configure logger: %w", err)
			}
			opts.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to YAML config file")

	root.AddCommand(
		newServeCommand(opts),
		newMigrateCommand(opts),
		newSeedCommand(opts),
		newListingsCommand(opts),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app is the set of long-lived components every command works against
type app struct {
	repo     repository.AuctionDB
	auctions *auction.AuctionService
	accounts *account.AccountService
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	repo, err := repository.Open(ctx, cfg.Storage, cfg.Server.Mode == "debug")
	if err != nil {
		return nil, err
	}

	l, err := locker.New(cfg.Lock, cfg.Redis)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("init locker: %w", err)
	}

	return &app{
		repo:     repo,
		auctions: auction.NewAuctionService(repo, l),
		accounts: account.NewAccountService(repo, cfg.JWT),
	}, nil
}

func (a *app) Close() {
	if err := a.repo.Close(); err != nil {
		utils.Warn("failed to close store", map[string]any{"error": err.Error()})
	}
}
