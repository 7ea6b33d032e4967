package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Veraticus/concierge/internal/cli"
	"github.com/Veraticus/concierge/internal/common"
	"github.com/Veraticus/concierge/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

Both the SQLite and PostgreSQL backends are supported; the backend is
chosen with database.driver or --db-driver.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show row counts after migrating")

	return cmd
}

// rowCounter is implemented by both storage backends.
type rowCounter interface {
	CountRows(ctx context.Context, table string) (int, error)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	common.LogInfo("Starting database migration", common.Fields{
		"driver": cfg.Database.Driver,
		"path":   cfg.Database.Path,
	})

	store, err := openStorage(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatSuccess("Database is up to date"))

	if !status {
		return nil
	}
	counter, ok := store.(rowCounter)
	if !ok {
		return nil
	}
	return printTableStatus(ctx, out, counter)
}

func printTableStatus(ctx context.Context, w io.Writer, counter rowCounter) error {
	for _, table := range storage.Tables {
		n, err := counter.CountRows(ctx, table)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %-22s %d\n", table, n)
	}
	return nil
}
