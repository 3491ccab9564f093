package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/quantmind-br/tytm/internal/config"
	"github.com/quantmind-br/tytm/internal/manifest"
	"github.com/quantmind-br/tytm/internal/theme"
	"github.com/quantmind-br/tytm/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewListCmd creates the list command
func NewListCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var (
		available  bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List installed themes",
		Long:    `List installed themes, or with --available every theme in the manifest store.`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := newApp(cfg, log)

			installed, err := a.env.ListInstalled()
			if err != nil {
				ui.PrintError("failed to list installed themes: %v", err)
				return fmt.Errorf("list installed: %w", err)
			}

			if available {
				manifests, err := a.store.List()
				if err != nil {
					ui.PrintError("failed to list manifests: %v", err)
					return fmt.Errorf("list manifests: %w", err)
				}
				if jsonOutput {
					return writeJSON(cmd.OutOrStdout(), manifests)
				}
				if len(manifests) == 0 {
					ui.PrintInfo("No manifests found, run 'tytm update' first")
					return nil
				}
				return printAvailableTable(cmd.OutOrStdout(), manifests, installed)
			}

			if jsonOutput {
				if installed == nil {
					installed = []*theme.InstalledPackage{}
				}
				return writeJSON(cmd.OutOrStdout(), installed)
			}
			if len(installed) == 0 {
				ui.PrintInfo("No themes installed")
				return nil
			}
			return printInstalledTable(cmd.OutOrStdout(), installed)
		},
	}

	cmd.Flags().BoolVarP(&available, "available", "a", false, "list themes in the manifest store")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithHeader(header),
		tablewriter.WithAlignment(tw.MakeAlign(len(header), tw.AlignLeft)),
		tablewriter.WithSymbols(tw.NewSymbols(tw.StyleNone)),
	)
}

func printInstalledTable(w io.Writer, installed []*theme.InstalledPackage) error {
	table := newTable(w, []string{"ID", "Name", "Version", "Sub-packages", "Assets"})

	for _, ip := range installed {
		assets := make([]string, 0, len(ip.Assets))
		for _, asset := range ip.Assets {
			assets = append(assets, asset.Name().String())
		}
		if err := table.Append(
			ip.ID,
			ip.Name,
			orDash(ip.Version),
			strings.Join(ip.SubIDs(), ", "),
			orDash(strings.Join(assets, ", ")),
		); err != nil {
			return fmt.Errorf("render table: %w", err)
		}
	}

	return table.Render()
}

func printAvailableTable(w io.Writer, manifests []*manifest.Manifest, installed []*theme.InstalledPackage) error {
	owned := make(map[string]*theme.InstalledPackage, len(installed))
	for _, ip := range installed {
		owned[ip.ID] = ip
	}

	table := newTable(w, []string{"ID", "Name", "Version", "Source", "Sub-packages", "Installed"})

	for _, m := range manifests {
		state := ""
		if ip, ok := owned[m.ID]; ok {
			state = ui.CheckMark
			if ip.Version != m.Version {
				state += " " + ip.Version
			}
		}
		if err := table.Append(
			m.ID,
			m.Name,
			orDash(m.Version),
			ui.ColorizeSourceKind(m.Source.Kind),
			strings.Join(m.SubPackageIDs(), ", "),
			state,
		); err != nil {
			return fmt.Errorf("render table: %w", err)
		}
	}

	return table.Render()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
