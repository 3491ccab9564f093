package theme

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quantmind-br/tytm/internal/core"
	"github.com/quantmind-br/tytm/internal/fsops"
	"github.com/quantmind-br/tytm/internal/manifest"
	"github.com/quantmind-br/tytm/internal/sharedir"
	"github.com/quantmind-br/tytm/internal/source"
	"github.com/spf13/afero"
)

// Package is a manifest bound to fetched content waiting to be installed.
// It owns a temporary directory; callers must Close it.
type Package struct {
	manifest *manifest.Manifest
	content  *source.Content
	env      *Env
}

// Stage fetches the manifest's source and binds it to the manifest
func (e *Env) Stage(ctx context.Context, m *manifest.Manifest) (*Package, error) {
	e.Log.Info().Str("theme", m.ID).Str("source", m.Source.String()).Msg("fetching theme")

	content, err := e.Fetcher.Fetch(ctx, m.Source)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", m.ID, err)
	}
	return &Package{manifest: m, content: content, env: e}, nil
}

// Manifest returns the manifest the package was staged from
func (p *Package) Manifest() *manifest.Manifest {
	return p.manifest
}

// Dir returns the directory holding the staged theme files
func (p *Package) Dir() string {
	return p.content.Dir
}

// Close deletes the staged content
func (p *Package) Close() error {
	return p.content.Close()
}

// Install moves every asset into the theme directory and registers the
// package as a user of each one. The returned record has no sub-packages
// and is not persisted. On failure every registration made so far is
// released again.
func (p *Package) Install(opts core.InstallOptions) (*InstalledPackage, error) {
	ip := &InstalledPackage{
		ID:      p.manifest.ID,
		Name:    p.manifest.Name,
		Version: p.manifest.Version,
		env:     p.env,
	}

	if err := p.installAssets(ip, opts.Overwrite); err != nil {
		if rerr := ip.clearAssets(); rerr != nil {
			p.env.Log.Warn().Err(rerr).Str("theme", ip.ID).Msg("failed to release assets")
		}
		return nil, err
	}
	return ip, nil
}

// installAssets places every manifest asset and records it on ip.
// Files inside a directory that other packages already share are replaced;
// anything else follows the overwrite flag. Every asset is checked before
// the first one is registered, and an asset is recorded on ip as soon as
// its directory lists ip as a user.
func (p *Package) installAssets(ip *InstalledPackage, overwrite bool) error {
	e := p.env
	if err := fsops.EnsureDir(e.Fs, e.ThemeDir, 0755); err != nil {
		return err
	}

	policies := make([]fsops.Policy, len(p.manifest.Assets))
	for i, asset := range p.manifest.Assets {
		policy, err := p.checkAsset(asset, overwrite)
		if err != nil {
			return err
		}
		policies[i] = policy
	}

	for i, asset := range p.manifest.Assets {
		dst := asset.Under(e.ThemeDir)
		shared, err := e.Registry.Get(dst.Path())
		if err != nil {
			return err
		}
		if err := shared.UsedBy(ip.ID); err != nil {
			return err
		}
		if !ip.hasAsset(dst) {
			ip.Assets = append(ip.Assets, dst)
		}

		if _, err := e.Mover.Move(asset.Under(p.Dir()), e.ThemeDir, policies[i]); err != nil {
			return fmt.Errorf("install asset %s: %w", asset, err)
		}
		e.Log.Debug().Str("theme", ip.ID).Str("asset", dst.Path()).Msg("asset installed")
	}

	return nil
}

// checkAsset validates one staged asset and returns the policy its move
// uses. It fails with core.ErrConflict when the move would replace a file
// that no installed theme owns.
func (p *Package) checkAsset(asset fsops.ObjectName, overwrite bool) (fsops.Policy, error) {
	e := p.env
	src := asset.Under(p.Dir())
	if !fsops.Exists(e.Fs, src.Path()) {
		return 0, fmt.Errorf("asset %q missing from %s: %w", asset, p.manifest.ID, core.ErrNotFound)
	}
	if !fsops.IsDir(e.Fs, src.Path()) {
		return 0, fmt.Errorf("%w: asset %q of %s is not a directory", core.ErrParse, asset, p.manifest.ID)
	}
	if sharedir.HasRecord(e.Fs, src.Path()) {
		return 0, fmt.Errorf("%w: asset %q of %s contains a shared directory record", core.ErrParse, asset, p.manifest.ID)
	}

	dst := asset.Under(e.ThemeDir)
	if filepath.Clean(dst.Path()) == filepath.Clean(e.InstalledDir) {
		return 0, fmt.Errorf("%w: asset %q of %s is the installed records directory", core.ErrParse, asset, p.manifest.ID)
	}
	if overwrite || !fsops.Exists(e.Fs, dst.Path()) {
		return policyFor(overwrite), nil
	}

	if !fsops.IsDir(e.Fs, dst.Path()) {
		return 0, fmt.Errorf("install asset %s: %w: %s is a file", asset, core.ErrConflict, dst)
	}

	shared, err := e.Registry.Get(dst.Path())
	if err != nil {
		return 0, err
	}
	if len(shared.Users()) > 0 {
		return fsops.Overwrite, nil
	}
	if err := findCollision(e.Fs, src.Path(), dst.Path()); err != nil {
		return 0, fmt.Errorf("install asset %s: %w", asset, err)
	}
	return fsops.FailOnConflict, nil
}

// findCollision fails with core.ErrConflict at the first entry under src
// whose counterpart under dst exists and cannot be merged into.
func findCollision(fs afero.Fs, src, dst string) error {
	return afero.Walk(fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		target := filepath.Join(dst, rel)
		existing, err := fs.Stat(target)
		switch {
		case os.IsNotExist(err):
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		case err != nil:
			return fmt.Errorf("stat %s: %w", target, err)
		case info.IsDir() && existing.IsDir():
			return nil
		}
		return fmt.Errorf("%w: %s", core.ErrConflict, target)
	})
}
