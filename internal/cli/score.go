package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/maturity-diagnostic/internal/content"
	"github.com/maturity-diagnostic/internal/domain"
	"github.com/spf13/cobra"
)

// NewScoreCommand creates the 'diagctl score' command
func NewScoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "score <answers...>",
		Short: "Score an answer set",
		Long: `Compute the score, level, strengths and gaps for four answers.
Answers may be given as separate arguments (A B C D) or as one word (ABCD).`,
		Example: "  diagctl score A A D D\n  diagctl score ABCD",
		Args:    cobra.RangeArgs(1, domain.QuestionCount),
		RunE:    runScore,
	}
}

func runScore(cmd *cobra.Command, args []string) error {
	answers, err := parseAnswers(args)
	if err != nil {
		return err
	}

	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	catalog := content.Default()
	devolutiva := newAssembler(catalog, log).Devolutiva(answers)
	printDevolutiva(cmd.OutOrStdout(), catalog, devolutiva)
	return nil
}

// parseAnswers accepts "A B C D", "ABCD" and lower case letters.
func parseAnswers(args []string) (domain.DiagnosticAnswers, error) {
	joined := strings.ToUpper(strings.Join(args, ""))
	return domain.AnswersFromString(joined)
}

func levelColor(level domain.Level) *color.Color {
	switch level {
	case domain.LevelAdvanced:
		return color.New(color.FgGreen, color.Bold)
	case domain.LevelIntermediate:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}

func printDevolutiva(out io.Writer, catalog *content.Catalog, d domain.Devolutiva) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	s := d.Score
	cyan.Fprintf(out, "Answers: %s\n", d.Answers)
	fmt.Fprintf(out, "Points:  %d/16\n", s.TotalPoints)
	fmt.Fprintf(out, "Score:   %d/5 ", s.Score)
	levelColor(s.Level).Fprintf(out, "%s (%s)\n", catalog.LevelLabel(s.Level), s.Level)
	if s.HasTwoOrMoreA {
		fmt.Fprintf(out, "Two or more A answers (capped: %t)\n", s.CappedScore)
	}

	fmt.Fprintln(out)
	cyan.Fprintln(out, "Strengths")
	for _, item := range d.Strengths {
		green.Fprintf(out, "  + %s\n", item)
	}

	fmt.Fprintln(out)
	cyan.Fprintln(out, "Gaps")
	if len(d.Gaps) == 0 {
		fmt.Fprintln(out, "  (none)")
	}
	for _, item := range d.Gaps {
		red.Fprintf(out, "  - %s\n", item)
	}

	fmt.Fprintln(out)
	cyan.Fprintln(out, "Action plans")
	for _, slot := range d.ActionPlans {
		status := "no plan"
		if slot.Present() {
			status = slot.Plan.NextStep
		}
		fmt.Fprintf(out, "  %s (%s): %s\n", slot.Key(), slot.Answer, status)
	}
}
