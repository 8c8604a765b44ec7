package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nyashahama/management-diagnostic/internal/quiz"
)

var validateCmd = &cobra.Command{
	Use:   "validate [source]",
	Short: "Load and check a quiz document, then print a summary",
	Long: "validate loads a quiz document exactly as serve does and reports every\n" +
		"problem it finds. source defaults to --quiz, then QUIZ_SOURCE.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if len(args) == 1 {
			cfg.QuizSource = args[0]
		}

		q, err := loadQuiz(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: ok\n", cfg.QuizSource)
		fmt.Fprintf(out, "variant:    %s\n", q.Variant())
		fmt.Fprintf(out, "categories: %d\n", q.CategoryCount())
		fmt.Fprintf(out, "questions:  %d\n", q.TotalQuestions())
		if sizes := q.Settings().TeamSizeOptions; len(sizes) > 0 {
			fmt.Fprintf(out, "team sizes: %s\n", strings.Join(sizes, ", "))
		}
		for _, f := range q.BusinessInfo() {
			fmt.Fprintf(out, "intro:      %s (%d options)\n", f.ID, len(f.Options))
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "\nID\tNAME\tQUESTIONS\tLOW\tMID\tHIGH")
		for _, c := range q.Categories() {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n", c.ID, c.Name, len(c.Questions),
				tierRange(c.Results.Low), tierRange(c.Results.Mid), tierRange(c.Results.High))
		}
		return tw.Flush()
	},
}

func tierRange(t quiz.Tier) string {
	return fmt.Sprintf("%g-%g", t.Min(), t.Max())
}
