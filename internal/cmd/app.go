package cmd

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/quantmind-br/tytm/internal/config"
	"github.com/quantmind-br/tytm/internal/core"
	"github.com/quantmind-br/tytm/internal/db"
	"github.com/quantmind-br/tytm/internal/helpers"
	"github.com/quantmind-br/tytm/internal/manifest"
	"github.com/quantmind-br/tytm/internal/source"
	"github.com/quantmind-br/tytm/internal/theme"
	"github.com/quantmind-br/tytm/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// newRunner builds the runner used to invoke git. Tests replace it.
var newRunner = func() helpers.CommandRunner {
	return helpers.NewOSCommandRunner()
}

// app bundles the stores a command works against
type app struct {
	cfg    *config.Config
	log    *zerolog.Logger
	runner helpers.CommandRunner
	store  *manifest.Store
	env    *theme.Env
}

func newApp(cfg *config.Config, log *zerolog.Logger) *app {
	fs := afero.NewOsFs()
	runner := newRunner()

	fetcher := source.NewFetcherWithDeps(fs, runner, &http.Client{Timeout: cfg.Network.TimeoutDuration()}, log)
	fetcher.SetProgress(true)

	return &app{
		cfg:    cfg,
		log:    log,
		runner: runner,
		store:  manifest.NewStoreWithDeps(fs, runner, cfg.Paths.ManifestDir, log),
		env:    theme.NewEnvWithDeps(cfg, log, fs, fetcher),
	}
}

// record appends an event to the history journal. The journal is
// informational, so failures only produce a warning.
func (a *app) record(ctx context.Context, event *db.Event) {
	journal, err := db.New(ctx, a.cfg.Paths.DBFile)
	if err != nil {
		a.log.Warn().Err(err).Str("db", a.cfg.Paths.DBFile).Msg("failed to open history journal")
		return
	}
	defer journal.Close()

	if err := journal.Record(ctx, event); err != nil {
		a.log.Warn().Err(err).Str("theme", event.ThemeID).Msg("failed to record history event")
	}
}

// manifest loads id from the store and prints suggestions when it is unknown
func (a *app) manifest(id string) (*manifest.Manifest, error) {
	m, err := a.store.Get(id)
	if err == nil {
		return m, nil
	}

	if errors.Is(err, core.ErrNotFound) {
		ui.PrintError("theme %q not found", id)
		if suggestions := a.store.Suggest(id); len(suggestions) > 0 {
			ui.PrintInfo("Did you mean: %s?", strings.Join(suggestions, ", "))
		} else {
			ui.PrintInfo("Run 'tytm update' to refresh the manifest list")
		}
		return nil, err
	}

	ui.PrintError("failed to load manifest %s: %v", id, err)
	return nil, err
}

// commandContext bounds cmd's context by the network timeout
func commandContext(cmd *cobra.Command, cfg *config.Config) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, cfg.Network.TimeoutDuration())
}

// withSpinner runs fn while a spinner animates on stderr
func withSpinner(description string, fn func() error) error {
	spinner := ui.NewSpinner(description)
	stop := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				spinner.Tick()
			}
		}
	}()

	err := fn()
	close(stop)
	wg.Wait()
	spinner.Stop()
	return err
}

// completeAvailable completes theme ids from the manifest store
func completeAvailable(cfg *config.Config, log *zerolog.Logger) cobra.CompletionFunc {
	return func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		ids, err := manifest.NewStore(cfg, log).IDs()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		return ids, cobra.ShellCompDirectiveNoFileComp
	}
}

// completeInstalled completes ids of installed themes
func completeInstalled(cfg *config.Config, log *zerolog.Logger) cobra.CompletionFunc {
	return func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		ids, err := theme.NewEnv(cfg, log).InstalledIDs()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		return ids, cobra.ShellCompDirectiveNoFileComp
	}
}
