package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/quantmind-br/tytm/internal/config"
	"github.com/quantmind-br/tytm/internal/core"
	"github.com/quantmind-br/tytm/internal/db"
	"github.com/quantmind-br/tytm/internal/fsops"
	"github.com/quantmind-br/tytm/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewDoctorCmd creates the doctor command
func NewDoctorCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check dependencies and the integrity of installed themes",
		Long: `Check that git is available, that the configured directories are usable,
and that every installed theme matches the files and shared directory records
on disk.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a := newApp(cfg, log)
			r := &report{}

			ui.PrintHeader("Dependencies")
			if a.runner.CommandExists("git") {
				ui.PrintSuccess("git: found")
			} else {
				r.warn("git not found: git sources and 'tytm update' will fail")
			}

			ui.PrintHeader("Directories")
			checkDir(a, r, "Theme directory", cfg.Paths.ThemeDir)
			checkDir(a, r, "Data directory", cfg.Paths.DataDir)

			if ids, err := a.store.IDs(); err != nil {
				r.fail(fmt.Sprintf("manifest store %s: %v", a.store.Dir(), err))
			} else if len(ids) == 0 {
				r.warn("manifest store is empty, run 'tytm update'")
			} else {
				ui.PrintSuccess("Manifest store: %d themes (%s)", len(ids), a.store.Dir())
			}

			if journal, err := db.New(ctx, cfg.Paths.DBFile); err != nil {
				r.warn(fmt.Sprintf("history journal unavailable: %v", err))
			} else {
				ui.PrintSuccess("History journal: %s", journal.Path())
				journal.Close()
			}

			ui.PrintHeader("Installed themes")
			ids, err := a.env.InstalledIDs()
			if err != nil {
				r.fail(fmt.Sprintf("cannot read %s: %v", cfg.Paths.InstalledDir, err))
			} else {
				ui.PrintInfo("%d installed", len(ids))
				problems, err := a.env.Check()
				if err != nil {
					r.fail(fmt.Sprintf("check installed themes: %v", err))
				}
				for _, p := range problems {
					if errors.Is(p.Err, core.ErrBrokenRecord) {
						r.broken = true
					}
					r.fail(p.String())
				}
				if err == nil && len(problems) == 0 {
					ui.PrintSuccess("All installed themes are consistent")
				}
			}

			return r.summary(log)
		},
	}

	return cmd
}

type report struct {
	issues   []string
	warnings []string
	broken   bool
}

func (r *report) fail(msg string) {
	ui.PrintError("%s", msg)
	r.issues = append(r.issues, msg)
}

func (r *report) warn(msg string) {
	ui.PrintWarning("%s", msg)
	r.warnings = append(r.warnings, msg)
}

func (r *report) summary(log *zerolog.Logger) error {
	ui.PrintHeader("Summary")

	if len(r.warnings) > 0 {
		ui.PrintWarning("%d warning(s)", len(r.warnings))
	}
	if len(r.issues) == 0 {
		ui.PrintSuccess("All checks passed")
		return nil
	}

	ui.PrintError("%d issue(s) found:", len(r.issues))
	ui.PrintList(r.issues)
	log.Warn().Int("issues", len(r.issues)).Msg("doctor found issues")

	err := fmt.Errorf("doctor found %d issue(s)", len(r.issues))
	if r.broken {
		err = fmt.Errorf("%w: %w", err, core.ErrBrokenRecord)
	}
	return err
}

// checkDir reports whether path is a writable directory. A missing
// directory is only a warning since commands create it on demand.
func checkDir(a *app, r *report, name, path string) {
	fs := a.env.Fs
	switch {
	case !fsops.Exists(fs, path):
		r.warn(fmt.Sprintf("%s does not exist yet: %s", name, path))
	case !fsops.IsDir(fs, path):
		r.fail(fmt.Sprintf("%s is not a directory: %s", name, path))
	default:
		if err := fsops.CheckWritable(fs, path); err != nil {
			r.fail(fmt.Sprintf("%s is not writable: %s", name, filepath.Clean(path)))
			return
		}
		ui.PrintSuccess("%s: %s", name, path)
	}
}
