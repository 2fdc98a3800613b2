package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/diewo77/freelance-pro/internal/cache"
	"github.com/diewo77/freelance-pro/internal/db"
	"github.com/diewo77/freelance-pro/internal/services"
	"github.com/diewo77/freelance-pro/internal/storage"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newDomainCommand builds "<plural> list|get|delete|reset" over one store.
func newDomainCommand[T any, P interface {
	*T
	cache.Record
}](opts *RootOptions, plural string, pick func(*services.Stores) *cache.Store[T, P]) *cobra.Command {
	cmd := &cobra.Command{
		Use:   plural,
		Short: fmt.Sprintf("Work with %s", plural),
	}

	store := func(cmd *cobra.Command) (*cache.Store[T, P], error) {
		s, err := opts.Stores(cmd.Context(), cmd)
		if err != nil {
			return nil, err
		}
		return pick(s), nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print the effective collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store(cmd)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), s.List(cmd.Context()))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Print one record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store(cmd)
			if err != nil {
				return err
			}
			rec, ok := s.Get(cmd.Context(), args[0])
			if !ok {
				return fmt.Errorf("%s %s not found", plural, args[0])
			}
			return writeJSON(cmd.OutOrStdout(), rec)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a record from the collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store(cmd)
			if err != nil {
				return err
			}
			if !s.Delete(cmd.Context(), args[0]) {
				return fmt.Errorf("could not delete %s %s", plural, args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Drop every change and restore the demo data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store(cmd)
			if err != nil {
				return err
			}
			if !s.Reset(cmd.Context()) {
				return fmt.Errorf("could not reset %s", plural)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reset %s\n", plural)
			return nil
		},
	})
	return cmd
}

func newCategoriesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Print the project categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.Stores(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), s.Categories.List())
		},
	}
}

func newMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the key-value tables of the sqlite/postgres storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.Config()
			switch storage.Driver(cfg.Storage.Driver) {
			case storage.DriverSQLite, storage.DriverPostgres:
			default:
				return fmt.Errorf("migrate needs the sqlite or postgres driver, got %q", cfg.Storage.Driver)
			}
			conn, err := db.Open(cfg.Storage.Driver, cfg.Storage, cfg.App.Dev)
			if err != nil {
				return err
			}
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()
			if err := db.Migrate(conn); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations completed")
			return nil
		},
	}
}
