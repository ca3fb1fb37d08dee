package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepzone/internal/app"
	"github.com/abhisek/prepzone/internal/exam"
	attemptscreen "github.com/abhisek/prepzone/internal/screens/attempt"
)

// runApp loads config, opens the store, builds the exam service, and
// launches the TUI.
func runApp(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, closeLog := newLogger(cfg, cmd.ErrOrStderr())
	defer closeLog()

	opts := app.Options{
		Settings: attemptscreen.Settings{
			MaxWarnings: cfg.Security.MaxWarnings,
			Screenshots: cfg.Security.Screenshots,
		},
		Logger: log,
	}

	st, err := openStore(cfg)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "History not available:", err)
		log.Warn().Err(err).Msg("Local history disabled")
	} else {
		defer st.Close()
		opts.Repo = st.AttemptRepo()
	}

	svc, err := exam.NewService(ctx, cfg.Exam, log)
	if err != nil {
		return fmt.Errorf("create exam service: %w", err)
	}
	defer svc.Close()
	opts.Service = svc

	log.Info().Str("mode", cfg.Exam.Mode).Msg("Starting prepzone")
	return app.Run(opts)
}
