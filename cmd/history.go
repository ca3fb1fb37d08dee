package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepzone/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print past attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		attempts, err := st.AttemptRepo().ListAttempts(cmd.Context(), store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("list attempts: %w", err)
		}
		printHistory(cmd.OutOrStdout(), attempts)
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum number of attempts to print")
}

func printHistory(w io.Writer, attempts []store.AttemptRecord) {
	if len(attempts) == 0 {
		fmt.Fprintln(w, "No attempts yet.")
		return
	}
	for _, a := range attempts {
		fmt.Fprintf(w, "%s  %-30s %6g / %-6g %-10s %d warnings\n",
			a.SubmittedAt.Local().Format("2006-01-02 15:04"),
			a.Title, a.Score, a.MaxScore, a.Reason, a.Violations)
	}
}
