package cmd

import (
	"fmt"

	"github.com/quantmind-br/tytm/internal/config"
	"github.com/quantmind-br/tytm/internal/core"
	"github.com/quantmind-br/tytm/internal/db"
	"github.com/quantmind-br/tytm/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewUpdateCmd creates the update command
func NewUpdateCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Refresh the manifest store",
		Long: `Clone the manifest registry and merge its manifests into the local store.
Installed themes are not touched; run add again to pick up new versions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := commandContext(cmd, cfg)
			defer cancel()

			a := newApp(cfg, log)
			if err := a.runner.RequireCommand("git"); err != nil {
				ui.PrintError("git is required to update manifests")
				return fmt.Errorf("update: %w", err)
			}

			log.Info().
				Str("registry", cfg.Registry.URL).
				Str("subdir", cfg.Registry.Subdir).
				Msg("updating manifests")

			var count int
			err := withSpinner("Updating manifests", func() error {
				var uerr error
				count, uerr = a.store.Update(ctx, cfg.Registry.URL, cfg.Registry.Subdir)
				return uerr
			})
			if err != nil {
				ui.PrintError("failed to update manifests: %v", err)
				return fmt.Errorf("update manifests: %w", err)
			}

			a.record(ctx, &db.Event{ThemeID: "", Action: core.ActionUpdate})
			ui.PrintSuccess("Updated %d manifest files in %s", count, a.store.Dir())
			return nil
		},
	}

	return cmd
}
