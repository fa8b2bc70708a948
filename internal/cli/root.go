// Package cli implements the diagctl operator commands.
package cli

import (
	"github.com/maturity-diagnostic/internal/content"
	"github.com/maturity-diagnostic/internal/logger"
	"github.com/maturity-diagnostic/internal/rules"
	"github.com/maturity-diagnostic/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for diagctl
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diagctl",
		Short: "Operator tool for the technology maturity diagnostic",
		Long: `diagctl scores answer sets, prints action plans and renders
diagnostic PDFs offline, and prepares the schema of SQL record stores.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "log debug output to stderr")

	// Add subcommands
	cmd.AddCommand(NewScoreCommand())
	cmd.AddCommand(NewPlanCommand())
	cmd.AddCommand(NewRenderCommand())
	cmd.AddCommand(NewMigrateCommand())

	return cmd
}

func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
	return logger.NewCLI(verbose)
}

func newAssembler(catalog *content.Catalog, log *zap.Logger) *service.Assembler {
	return service.NewAssembler(catalog, rules.NewEngine(catalog, log))
}
