package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/expense-tracker/constants"
	"github.com/joseph-ayodele/expense-tracker/internal/extract"
	"github.com/joseph-ayodele/expense-tracker/internal/repository"
)

type scanOutput struct {
	Mode    string `json:"mode"`
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
	Draft   any    `json:"draft"`
	Text    string `json:"text,omitempty"`
	SavedID string `json:"savedId,omitempty"`
}

func newScanCommand() *cobra.Command {
	var save, showText bool

	cmd := &cobra.Command{
		Use:   "scan <file>",
		Short: "Run the extraction pipeline on a local receipt and print the draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(true)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			mediaType, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
			if constants.MapMediaTypeToFormat(mediaType) == "" {
				return fmt.Errorf("%s: unsupported media type %s", path, mediaType)
			}

			ctx := cmd.Context()
			p := buildPipeline(cfg, logger)
			res := p.Run(ctx, extract.Document{
				Data:      data,
				MediaType: mediaType,
				Filename:  filepath.Base(path),
			})

			out := scanOutput{Mode: p.Mode(), Status: string(res.Status), Reason: res.Reason, Draft: res.Draft}
			if showText {
				out.Text = res.Text
			}

			if save {
				db, err := openStore(ctx, cfg, logger)
				if err != nil {
					return err
				}
				defer db.Close()
				created, err := repository.NewExpenseRepository(db, logger).CreateExpense(ctx, res.Draft.ToExpense(time.Now()))
				if err != nil {
					return err
				}
				out.SavedID = created.ID.String()
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "store the draft as an expense")
	cmd.Flags().BoolVar(&showText, "text", false, "include the recognized text in the output")
	return cmd
}
