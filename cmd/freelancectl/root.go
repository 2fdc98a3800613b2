package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/diewo77/freelance-pro/internal/cache"
	"github.com/diewo77/freelance-pro/internal/config"
	"github.com/diewo77/freelance-pro/internal/events"
	"github.com/diewo77/freelance-pro/internal/ids"
	"github.com/diewo77/freelance-pro/internal/services"
	"github.com/diewo77/freelance-pro/internal/storage/backend"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Driver     string
	File       string
	SQLitePath string
	Verbose    bool

	cfg     *config.Config
	stores  *services.Stores
	closeFn func() error
}

// Config returns the environment configuration with flag overrides applied.
func (o *RootOptions) Config() *config.Config {
	if o.cfg == nil {
		o.cfg = config.Load()
	}
	cfg := *o.cfg
	if o.Driver != "" {
		cfg.Storage.Driver = o.Driver
	}
	if o.File != "" {
		cfg.Storage.File = o.File
	}
	if o.SQLitePath != "" {
		cfg.Storage.SQLitePath = o.SQLitePath
	}
	return &cfg
}

// Stores opens the configured storage on first use.
func (o *RootOptions) Stores(ctx context.Context, cmd *cobra.Command) (*services.Stores, error) {
	if o.stores != nil {
		return o.stores, nil
	}
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	cfg := o.Config()
	st, closeFn, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	gen, err := ids.New(cfg.App.IDStrategy, cfg.App.SnowflakeNode)
	if err != nil {
		closeFn()
		return nil, err
	}
	o.closeFn = closeFn
	o.stores = services.NewStores(st, cache.Options{Bus: events.NewBus(), IDs: gen, Logger: logger})
	return o.stores, nil
}

func (o *RootOptions) close() error {
	if o.closeFn == nil {
		return nil
	}
	err := o.closeFn()
	o.closeFn, o.stores = nil, nil
	return err
}

// NewRootCommand creates the root command of freelancectl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "freelancectl",
		Short:         "Inspect and maintain freelance-pro records",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.close()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "storage driver (memory|file|sqlite|postgres|s3|none), defaults to STORAGE_DRIVER")
	cmd.PersistentFlags().StringVar(&opts.File, "file", "", "JSON file of the file driver, defaults to STORAGE_FILE")
	cmd.PersistentFlags().StringVar(&opts.SQLitePath, "sqlite-path", "", "database of the sqlite driver, defaults to SQLITE_PATH")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log storage diagnostics to stderr")

	cmd.AddCommand(newDomainCommand(opts, "clients", func(s *services.Stores) *services.ClientStore { return s.Clients }))
	cmd.AddCommand(newDomainCommand(opts, "contracts", func(s *services.Stores) *services.ContractStore { return s.Contracts }))
	cmd.AddCommand(newDomainCommand(opts, "invoices", func(s *services.Stores) *services.InvoiceStore { return s.Invoices }))
	cmd.AddCommand(newDomainCommand(opts, "projects", func(s *services.Stores) *services.ProjectStore { return s.Projects }))
	cmd.AddCommand(newCategoriesCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))

	return cmd
}
