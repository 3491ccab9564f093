package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/quantmind-br/tytm/internal/config"
	"github.com/quantmind-br/tytm/internal/core"
	"github.com/quantmind-br/tytm/internal/manifest"
	"github.com/quantmind-br/tytm/internal/theme"
	"github.com/quantmind-br/tytm/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewInfoCmd creates the info command
func NewInfoCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:               "info <theme>",
		Short:             "Show details about a theme",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeAvailable(cfg, log),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			a := newApp(cfg, log)

			m, merr := a.store.Get(id)
			if merr != nil && !errors.Is(merr, core.ErrNotFound) {
				ui.PrintError("failed to load manifest %s: %v", id, merr)
				return fmt.Errorf("info %s: %w", id, merr)
			}

			ip, ierr := a.env.Installed(id)
			if ierr != nil && !errors.Is(ierr, core.ErrNotFound) {
				ui.PrintError("failed to load installed record %s: %v", id, ierr)
				return fmt.Errorf("info %s: %w", id, ierr)
			}

			if m == nil && ip == nil {
				_, err := a.manifest(id)
				return fmt.Errorf("info %s: %w", id, err)
			}

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), struct {
					Manifest  *manifest.Manifest      `json:"manifest,omitempty"`
					Installed *theme.InstalledPackage `json:"installed,omitempty"`
				}{m, ip})
			}

			printInfo(id, m, ip)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	return cmd
}

func printInfo(id string, m *manifest.Manifest, ip *theme.InstalledPackage) {
	name := id
	switch {
	case m != nil:
		name = m.Name
	case ip != nil:
		name = ip.Name
	}
	ui.PrintHeader(name)
	ui.PrintKeyValue("ID", id)

	if m != nil {
		ui.PrintKeyValue("Version", orDash(m.Version))
		ui.PrintKeyValue("Source", fmt.Sprintf("%s %s", ui.ColorizeSourceKind(m.Source.Kind), m.Source.Spec.URL))
		if m.Source.Spec.Content != "" {
			ui.PrintKeyValue("Content", m.Source.Spec.Content)
		}
		if len(m.Source.Spec.Excludes) > 0 {
			ui.PrintKeyValue("Excludes", strings.Join(m.Source.Spec.Excludes, ", "))
		}
		assets := make([]string, 0, len(m.Assets))
		for _, asset := range m.Assets {
			assets = append(assets, asset.String())
		}
		ui.PrintKeyValue("Assets", orDash(strings.Join(assets, ", ")))
	} else {
		ui.PrintWarning("%s is installed but no longer in the manifest store", id)
	}

	if ip == nil {
		ui.PrintKeyValue("Installed", "no")
	} else {
		ui.PrintKeyValue("Installed", orDash(ip.Version))
	}

	fmt.Fprintln(ui.Stdout())
	ui.PrintKeyValue("Sub-packages", "")
	ui.PrintList(subPackageLines(m, ip))
}

func subPackageLines(m *manifest.Manifest, ip *theme.InstalledPackage) []string {
	var lines []string
	seen := make(map[string]struct{})

	if m != nil {
		defaults := make(map[string]struct{}, len(m.Default))
		for _, id := range m.Default {
			defaults[id] = struct{}{}
		}
		for _, pkg := range m.Pkgs {
			seen[pkg.ID] = struct{}{}
			line := fmt.Sprintf("%s (%s)", pkg.ID, pkg.File)
			if _, ok := defaults[pkg.ID]; ok {
				line += " [default]"
			}
			if ip != nil && ip.HasSub(pkg.ID) {
				line += " " + ui.CheckMark
			}
			lines = append(lines, line)
		}
	}

	if ip != nil {
		for _, pkg := range ip.Pkgs {
			if _, ok := seen[pkg.ID]; ok {
				continue
			}
			lines = append(lines, fmt.Sprintf("%s (%s) %s", pkg.ID, pkg.File.Name(), ui.CheckMark))
		}
	}
	return lines
}
