package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/expense-tracker/internal/repository"
)

func newDBHealthCommand() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "dbhealth",
		Short: "Ping the database and count stored expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(false)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()
			db, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			w := cmd.OutOrStdout()
			if err := db.HealthCheck(ctx, timeout); err != nil {
				_, _ = fmt.Fprintf(w, "DB health: FAIL (%v)\n", err)
				return err
			}
			_, _ = fmt.Fprintf(w, "DB health: OK (%s)\n", db.Dialect)

			n, err := repository.NewExpenseRepository(db, logger).CountExpenses(ctx)
			if err != nil {
				return fmt.Errorf("counting expenses: %w", err)
			}
			_, _ = fmt.Fprintf(w, "expenses count: %d\n", n)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", time.Second, "ping timeout")
	return cmd
}
