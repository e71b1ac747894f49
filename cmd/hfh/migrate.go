package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fontanka/edc-check/internal/cli"
	"github.com/fontanka/edc-check/internal/config"
	"github.com/fontanka/edc-check/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the review log schema to the latest version.

Every command migrates on open; run this to prepare a new database or to
check which version an existing one is at.`,
		Args: cobra.NoArgs,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")
	ctx := cmd.Context()

	dbPath := config.ExpandPath(viper.GetString("database.path"))
	slog.Info("Opening review log", "database", dbPath, "status_only", status)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	out := cmd.OutOrStdout()
	if status {
		current, err := store.SchemaVersion(ctx)
		if err != nil {
			return err
		}
		content := fmt.Sprintf("Database: %s\nCurrent version: %d\nLatest version: %d",
			dbPath, current, storage.ExpectedSchemaVersion)
		_, _ = fmt.Fprintln(out, cli.RenderBox(cli.ChartIcon+" Migration status", content))
		return nil
	}

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	count, err := store.CountEdits(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Database is at version %d (%d edits)", storage.ExpectedSchemaVersion, count)))
	return nil
}
