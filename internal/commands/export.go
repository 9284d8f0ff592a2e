package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/expense-tracker/internal/export"
	"github.com/joseph-ayodele/expense-tracker/internal/repository"
	"github.com/joseph-ayodele/expense-tracker/internal/utils"
)

func newExportCommand() *cobra.Command {
	var from, to, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write expenses to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fromDate, err := parseOptionalDate(from)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			toDate, err := parseOptionalDate(to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}

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

			svc := export.NewService(repository.NewExpenseRepository(db, logger), logger)
			data, rows, err := svc.ExportExpensesXLSX(ctx, fromDate, toDate)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d expenses to %s\n", rows, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&out, "out", "expenses.xlsx", "output file")
	return cmd
}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := utils.ParseYMD(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
