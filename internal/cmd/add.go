package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/quantmind-br/tytm/internal/config"
	"github.com/quantmind-br/tytm/internal/core"
	"github.com/quantmind-br/tytm/internal/db"
	"github.com/quantmind-br/tytm/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewAddCmd creates the add command
func NewAddCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var (
		subs []string
		opts core.InstallOptions
	)

	cmd := &cobra.Command{
		Use:   "add <theme>",
		Short: "Install a theme",
		Long: `Install a theme from the manifest store.

The theme's default sub-packages are installed together with any given with
--sub. Running add on an installed theme installs further sub-packages and
refreshes its assets.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeAvailable(cfg, log),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			ctx, cancel := commandContext(cmd, cfg)
			defer cancel()

			log.Info().
				Str("theme", id).
				Strs("subs", subs).
				Bool("no_default", opts.NoDefault).
				Bool("force", opts.Force).
				Msg("adding theme")

			a := newApp(cfg, log)
			m, err := a.manifest(id)
			if err != nil {
				return fmt.Errorf("load manifest: %w", err)
			}

			ui.PrintInfo("Fetching %s %s", m.Name, m.Version)
			result, err := a.env.Add(ctx, m, subs, opts)
			if err != nil {
				printAddError(id, err)
				return fmt.Errorf("add %s: %w", id, err)
			}

			for _, sub := range result.Skipped {
				ui.PrintWarning("%s/%s is already installed, use --force to reinstall it", id, sub)
			}
			if len(result.Added) == 0 {
				ui.PrintInfo("Nothing to install for %s", id)
				return nil
			}

			action := core.ActionAddSub
			if result.Fresh {
				action = core.ActionInstall
			}
			a.record(ctx, &db.Event{
				ThemeID: id,
				Action:  action,
				Version: m.Version,
				Subs:    result.Added,
			})

			ui.PrintSuccess("Installed %s %s (%s)", m.Name, m.Version, strings.Join(result.Added, ", "))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&subs, "sub", "s", nil, "sub-package to install (repeatable)")
	cmd.Flags().BoolVar(&opts.NoDefault, "no-default", false, "do not install the default sub-packages")
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "reinstall sub-packages that are already installed")
	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "replace existing files in the theme directory")

	return cmd
}

func printAddError(id string, err error) {
	switch {
	case errors.Is(err, core.ErrNothingSelected):
		ui.PrintError("%s has no default sub-packages, choose some with --sub", id)
	case errors.Is(err, core.ErrSubPackageNotFound):
		ui.PrintError("%v", err)
	case errors.Is(err, core.ErrConflict):
		ui.PrintError("%v", err)
		ui.PrintInfo("Use --overwrite to replace existing files")
	case errors.Is(err, core.ErrBrokenRecord):
		ui.PrintError("%v", err)
		ui.PrintInfo("Run 'tytm doctor' to inspect the theme directory")
	default:
		ui.PrintError("failed to install %s: %v", id, err)
	}
}
