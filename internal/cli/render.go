package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/maturity-diagnostic/internal/content"
	"github.com/maturity-diagnostic/internal/domain"
	"github.com/maturity-diagnostic/internal/render"
	"github.com/maturity-diagnostic/pkg/sanitizer"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type renderOptions struct {
	answers string
	name    string
	email   string
	company string
	output  string
}

// NewRenderCommand creates the 'diagctl render' command
func NewRenderCommand() *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a diagnostic PDF offline",
		Long: `Assemble a diagnostic from an answer set and client details and
write its PDF without touching any record store or e-mail provider.`,
		Example: `  diagctl render --answers ABCD --name "Ana Souza" --company "Souza Advogados" -o ana.pdf`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.answers, "answers", "", "four answers, e.g. ABCD (required)")
	cmd.Flags().StringVar(&opts.name, "name", "", "client name (required)")
	cmd.Flags().StringVar(&opts.email, "email", "", "client e-mail")
	cmd.Flags().StringVar(&opts.company, "company", "", "company name (required)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default diagnostico-<id>.pdf)")
	_ = cmd.MarkFlagRequired("answers")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("company")

	return cmd
}

func runRender(cmd *cobra.Command, opts *renderOptions) error {
	answers, err := parseAnswers([]string{opts.answers})
	if err != nil {
		return err
	}

	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	catalog := content.Default()
	rec := newAssembler(catalog, log).Assemble(domain.ClientInfo{
		Name:    sanitizer.NormalizeName(opts.name),
		Email:   sanitizer.NormalizeEmail(opts.email),
		Company: sanitizer.NormalizeCompany(opts.company),
	}, answers)

	pdf, err := render.NewPDFRenderer(catalog, log).Render(rec)
	if err != nil {
		return err
	}

	output := opts.output
	if output == "" {
		output = "diagnostico-" + rec.ID + ".pdf"
	}
	if err := os.WriteFile(output, pdf, 0o644); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}

	log.Debug("pdf written", zap.String("path", output), zap.Int("bytes", len(pdf)))

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Score %d/5 ", rec.Devolutiva.Score.Score)
	levelColor(rec.Devolutiva.Score.Level).Fprintln(out, catalog.LevelLabel(rec.Devolutiva.Score.Level))
	color.New(color.FgGreen).Fprintf(out, "Wrote %s (%d bytes)\n", output, len(pdf))
	return nil
}
