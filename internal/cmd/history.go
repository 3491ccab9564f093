package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/quantmind-br/tytm/internal/config"
	"github.com/quantmind-br/tytm/internal/db"
	"github.com/quantmind-br/tytm/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command
func NewHistoryCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var (
		limit      int
		clearAll   bool
		yes        bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:               "history [theme]",
		Short:             "Show the install and removal history",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeInstalled(cfg, log),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			journal, err := db.New(ctx, cfg.Paths.DBFile)
			if err != nil {
				ui.PrintError("failed to open history: %v", err)
				return fmt.Errorf("open history: %w", err)
			}
			defer journal.Close()

			if clearAll {
				if !yes {
					ok, err := ui.ConfirmPrompt("Delete the whole history")
					if err != nil {
						return fmt.Errorf("confirm: %w", err)
					}
					if !ok {
						ui.PrintInfo("Cancelled")
						return nil
					}
				}
				n, err := journal.Clear(ctx)
				if err != nil {
					ui.PrintError("failed to clear history: %v", err)
					return fmt.Errorf("clear history: %w", err)
				}
				log.Info().Int64("events", n).Msg("history cleared")
				ui.PrintSuccess("Deleted %d history entries", n)
				return nil
			}

			themeID := ""
			if len(args) == 1 {
				themeID = args[0]
			}

			events, err := journal.List(ctx, themeID, limit)
			if err != nil {
				ui.PrintError("failed to read history: %v", err)
				return fmt.Errorf("list history: %w", err)
			}

			if jsonOutput {
				if events == nil {
					events = []db.Event{}
				}
				return writeJSON(cmd.OutOrStdout(), events)
			}
			if len(events) == 0 {
				ui.PrintInfo("No history yet")
				return nil
			}

			table := newTable(cmd.OutOrStdout(), []string{"Date", "Theme", "Action", "Version", "Sub-packages"})
			for _, event := range events {
				if err := table.Append(
					event.CreatedAt.Local().Format("2006-01-02 15:04"),
					orDash(event.ThemeID),
					ui.ColorizeAction(event.Action),
					orDash(event.Version),
					strings.Join(event.Subs, ", "),
				); err != nil {
					return fmt.Errorf("render table: %w", err)
				}
			}
			return table.Render()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of entries, 0 for all")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "delete the whole history")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	return cmd
}
