package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepzone/internal/exam"
)

var testsCmd = &cobra.Command{
	Use:   "tests",
	Short: "List available tests",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log, closeLog := newLogger(cfg, cmd.ErrOrStderr())
		defer closeLog()

		svc, err := exam.NewService(cmd.Context(), cfg.Exam, log)
		if err != nil {
			return fmt.Errorf("create exam service: %w", err)
		}
		defer svc.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		tests, err := svc.ListTests(ctx)
		if err != nil {
			return fmt.Errorf("list tests: %w", err)
		}
		printTests(cmd.OutOrStdout(), tests)
		return nil
	},
}

func printTests(w io.Writer, tests []exam.TestInfo) {
	if len(tests) == 0 {
		fmt.Fprintln(w, "No tests available.")
		return
	}
	for _, t := range tests {
		fmt.Fprintf(w, "%-20s %s\n", t.ID, t.Title)
		fmt.Fprintf(w, "%-20s %d questions, %d min, %g marks\n", "", t.QuestionCount, t.DurationMinutes, t.TotalMarks)
		if len(t.Sections) > 0 {
			fmt.Fprintf(w, "%-20s sections: %s\n", "", strings.Join(t.Sections, ", "))
		}
	}
}
