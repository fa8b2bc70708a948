package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/maturity-diagnostic/internal/content"
	"github.com/maturity-diagnostic/internal/domain"
	"github.com/spf13/cobra"
)

// NewPlanCommand creates the 'diagctl plan' command
func NewPlanCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "plan <question> <answer>",
		Short:   "Print the action plan for a question and answer",
		Example: "  diagctl plan 2 B",
		Args:    cobra.ExactArgs(2),
		RunE:    runPlan,
	}
}

func runPlan(cmd *cobra.Command, args []string) error {
	questionID, err := strconv.Atoi(args[0])
	if err != nil || questionID < 1 || questionID > domain.QuestionCount {
		return fmt.Errorf("question must be 1..%d, got %q", domain.QuestionCount, args[0])
	}
	answer, err := domain.ParseAnswer(strings.ToUpper(args[1]))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	catalog := content.Default()
	q, _ := catalog.Question(questionID)

	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Fprintf(out, "%s (q%d = %s)\n", q.Title, questionID, answer)

	plan, ok := catalog.ActionPlan(questionID, answer)
	if !ok {
		fmt.Fprintln(out, "no plan")
		return nil
	}

	section := func(title, body string) {
		color.New(color.Bold).Fprintf(out, "\n%s\n", title)
		fmt.Fprintf(out, "  %s\n", body)
	}
	list := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		color.New(color.Bold).Fprintf(out, "\n%s\n", title)
		for _, item := range items {
			fmt.Fprintf(out, "  - %s\n", item)
		}
	}

	section("Cenário Real", plan.Scenario)
	section("Como Grandes Escritórios Fazem", plan.BestPractice)
	section("Seu Próximo Passo", plan.NextStep)
	section("O Que Fazer", plan.WhatToDo)
	list("Como Fazer", plan.HowToDo)
	list("Exemplos Práticos", plan.PracticalExamples)
	list("Ferramentas Sugeridas", plan.SuggestedTools)
	section("Resultado Esperado", plan.ExpectedResult)
	return nil
}
