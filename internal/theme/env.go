// Package theme installs staged themes into the Typora themes directory and
// keeps the per-theme installed records that drive later removal.
package theme

import (
	"github.com/quantmind-br/tytm/internal/config"
	"github.com/quantmind-br/tytm/internal/fsops"
	"github.com/quantmind-br/tytm/internal/sharedir"
	"github.com/quantmind-br/tytm/internal/source"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Env holds the dependencies shared by every theme operation
type Env struct {
	Fs           afero.Fs
	Mover        *fsops.Mover
	Registry     *sharedir.Registry
	Fetcher      *source.Fetcher
	ThemeDir     string
	InstalledDir string
	Log          *zerolog.Logger
}

// NewEnv creates an Env with default system dependencies
func NewEnv(cfg *config.Config, log *zerolog.Logger) *Env {
	return NewEnvWithDeps(cfg, log, afero.NewOsFs(), source.NewFetcher(cfg, log))
}

// NewEnvWithDeps creates an Env with injected dependencies (for testing)
func NewEnvWithDeps(cfg *config.Config, log *zerolog.Logger, fs afero.Fs, fetcher *source.Fetcher) *Env {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	mover := fsops.NewMover(fs, log)
	return &Env{
		Fs:           fs,
		Mover:        mover,
		Registry:     sharedir.NewRegistry(mover, log),
		Fetcher:      fetcher,
		ThemeDir:     cfg.Paths.ThemeDir,
		InstalledDir: cfg.Paths.InstalledDir,
		Log:          log,
	}
}

func policyFor(overwrite bool) fsops.Policy {
	if overwrite {
		return fsops.Overwrite
	}
	return fsops.FailOnConflict
}
