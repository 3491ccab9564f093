package cmd

import (
	"context"
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

// NewRemoveCmd creates the remove command
func NewRemoveCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var subs []string

	cmd := &cobra.Command{
		Use:     "remove [theme]",
		Aliases: []string{"rm", "uninstall"},
		Short:   "Remove a theme or some of its sub-packages",
		Long: `Remove an installed theme. With --sub only the listed sub-packages are
removed; the theme is uninstalled once none is left. Run without arguments to
pick themes interactively.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeInstalled(cfg, log),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a := newApp(cfg, log)

			if len(args) == 0 {
				if len(subs) > 0 {
					ui.PrintError("--sub requires a theme")
					return fmt.Errorf("--sub without theme: %w", core.ErrNothingSelected)
				}
				return runInteractiveRemove(ctx, a)
			}

			return removeTheme(ctx, a, args[0], subs)
		},
	}

	cmd.Flags().StringSliceVarP(&subs, "sub", "s", nil, "sub-package to remove (repeatable)")

	return cmd
}

func runInteractiveRemove(ctx context.Context, a *app) error {
	ids, err := a.env.InstalledIDs()
	if err != nil {
		ui.PrintError("failed to list installed themes: %v", err)
		return fmt.Errorf("list installed: %w", err)
	}
	if len(ids) == 0 {
		ui.PrintInfo("No themes installed")
		return nil
	}

	selected, err := ui.MultiSelectPrompt("Themes to remove", ids)
	if err != nil {
		if errors.Is(err, ui.ErrCancelled) {
			ui.PrintInfo("Cancelled")
			return nil
		}
		return fmt.Errorf("select themes: %w", err)
	}
	if len(selected) == 0 {
		ui.PrintInfo("Nothing selected")
		return nil
	}

	var failed []string
	for _, id := range selected {
		if err := removeTheme(ctx, a, id, nil); err != nil {
			failed = append(failed, id)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("failed to remove %s", strings.Join(failed, ", "))
	}
	return nil
}

func removeTheme(ctx context.Context, a *app, id string, subs []string) error {
	a.log.Info().Str("theme", id).Strs("subs", subs).Msg("removing theme")

	ip, err := a.env.Installed(id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			ui.PrintError("theme %s is not installed", id)
		} else {
			ui.PrintError("failed to load %s: %v", id, err)
		}
		return fmt.Errorf("remove %s: %w", id, err)
	}
	version := ip.Version

	result, err := a.env.Remove(id, subs)
	if err != nil {
		ui.PrintError("failed to remove %s: %v", id, err)
		return fmt.Errorf("remove %s: %w", id, err)
	}

	for _, sub := range result.NotInstalled {
		ui.PrintWarning("%s/%s is not installed", id, sub)
	}

	switch {
	case result.Uninstalled:
		a.record(ctx, &db.Event{ThemeID: id, Action: core.ActionUninstall, Version: version, Subs: result.Removed})
		ui.PrintSuccess("Uninstalled %s", id)
	case len(result.Removed) > 0:
		a.record(ctx, &db.Event{ThemeID: id, Action: core.ActionRemoveSub, Version: version, Subs: result.Removed})
		ui.PrintSuccess("Removed %s from %s", strings.Join(result.Removed, ", "), id)
	default:
		ui.PrintInfo("Nothing to remove for %s", id)
	}
	return nil
}
