package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/maturity-diagnostic/internal/config"
	"github.com/maturity-diagnostic/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewMigrateCommand creates the 'diagctl migrate' command
func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the record store schema",
		Long: `Create the schema of the record store selected by STORE_BACKEND.
SQL backends get their tables. A notion data source is checked for the
required properties instead.`,
		Args: cobra.NoArgs,
		RunE: runMigrate,
	}
	cmd.Flags().String("backend", "", "override STORE_BACKEND")
	cmd.Flags().String("sqlite-path", "", "override SQLITE_PATH")
	return cmd
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	storeCfg := cfg.Store
	if v, _ := cmd.Flags().GetString("backend"); v != "" {
		storeCfg.Backend = v
	}
	if v, _ := cmd.Flags().GetString("sqlite-path"); v != "" {
		storeCfg.SQLitePath = v
	}

	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	return migrate(cmd, storeCfg, log)
}

func migrate(cmd *cobra.Command, cfg config.StoreConfig, log *zap.Logger) error {
	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := store.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	defer s.Close()

	// Notion schemas are managed in Notion; only report what is missing
	if ns, ok := s.(*store.NotionStore); ok {
		missing, err := ns.MissingProperties(ctx)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return fmt.Errorf("notion data source lacks properties: %s", strings.Join(missing, ", "))
		}
		color.New(color.FgGreen).Fprintln(out, "Notion data source has every required property")
		return nil
	}

	m, ok := s.(store.Migrator)
	if !ok {
		fmt.Fprintf(out, "Backend %q has no schema to migrate\n", cfg.Backend)
		return nil
	}
	if err := m.Migrate(ctx); err != nil {
		return err
	}

	color.New(color.FgGreen).Fprintf(out, "Schema ready for %s backend\n", cfg.Backend)
	return nil
}
