package theme

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/quantmind-br/tytm/internal/core"
	"github.com/quantmind-br/tytm/internal/fsops"
	"github.com/quantmind-br/tytm/internal/security"
	"github.com/spf13/afero"
)

const recordExt = ".json"

// InstalledSubPackage is a sub-package file placed in the theme directory
type InstalledSubPackage struct {
	ID   string       `json:"id"`
	File fsops.Object `json:"file"`
}

// InstalledPackage is the persisted state of an installed theme.
// Its record file exists exactly when Pkgs is non-empty.
type InstalledPackage struct {
	ID      string                `json:"id"`
	Name    string                `json:"name"`
	Version string                `json:"version"`
	Assets  []fsops.Object        `json:"assets"`
	Pkgs    []InstalledSubPackage `json:"pkgs"`

	env *Env
}

// Installed loads the record for id. It returns core.ErrNotFound when the
// theme is not installed.
func (e *Env) Installed(id string) (*InstalledPackage, error) {
	if err := security.ValidateThemeID(id); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidName, err)
	}

	path := e.recordPath(id)
	data, err := afero.ReadFile(e.Fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("theme %q is not installed: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read installed record: %w", err)
	}

	var ip InstalledPackage
	if err := json.Unmarshal(data, &ip); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrBrokenRecord, path, err)
	}
	if ip.ID != id {
		return nil, fmt.Errorf("%w: %s holds theme %q", core.ErrBrokenRecord, path, ip.ID)
	}
	if err := e.checkContained(&ip); err != nil {
		return nil, err
	}

	ip.env = e
	return &ip, nil
}

// checkContained rejects records pointing outside the theme directory, so a
// tampered record can never make removal delete foreign files.
func (e *Env) checkContained(ip *InstalledPackage) error {
	paths := make([]string, 0, len(ip.Assets)+len(ip.Pkgs))
	for _, asset := range ip.Assets {
		paths = append(paths, asset.Path())
	}
	for _, pkg := range ip.Pkgs {
		paths = append(paths, pkg.File.Path())
	}

	for _, p := range paths {
		within, err := security.IsPathWithinDirectory(p, e.ThemeDir)
		if err != nil || !within || p == filepath.Clean(e.ThemeDir) {
			return fmt.Errorf("%w: %s: %s is outside %s", core.ErrBrokenRecord, ip.ID, p, e.ThemeDir)
		}
	}
	return nil
}

// IsInstalled reports whether a record exists for id
func (e *Env) IsInstalled(id string) bool {
	return fsops.Exists(e.Fs, e.recordPath(id))
}

// InstalledIDs lists the ids that have a record, sorted, without loading them
func (e *Env) InstalledIDs() ([]string, error) {
	entries, err := afero.ReadDir(e.Fs, e.InstalledDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read installed records: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != recordExt {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), recordExt))
	}
	sort.Strings(ids)
	return ids, nil
}

// ListInstalled loads every installed record, sorted by id
func (e *Env) ListInstalled() ([]*InstalledPackage, error) {
	ids, err := e.InstalledIDs()
	if err != nil {
		return nil, err
	}

	out := make([]*InstalledPackage, 0, len(ids))
	for _, id := range ids {
		ip, err := e.Installed(id)
		if err != nil {
			return nil, err
		}
		out = append(out, ip)
	}
	return out, nil
}

func (e *Env) recordPath(id string) string {
	return filepath.Join(e.InstalledDir, id+recordExt)
}

// HasSub reports whether sub-package id is installed
func (ip *InstalledPackage) HasSub(id string) bool {
	return ip.subIndex(id) >= 0
}

// SubIDs returns the installed sub-package ids in install order
func (ip *InstalledPackage) SubIDs() []string {
	ids := make([]string, 0, len(ip.Pkgs))
	for _, pkg := range ip.Pkgs {
		ids = append(ids, pkg.ID)
	}
	return ids
}

func (ip *InstalledPackage) subIndex(id string) int {
	for i, pkg := range ip.Pkgs {
		if pkg.ID == id {
			return i
		}
	}
	return -1
}

func (ip *InstalledPackage) hasAsset(obj fsops.Object) bool {
	for _, asset := range ip.Assets {
		if asset.Path() == obj.Path() {
			return true
		}
	}
	return false
}

// AddSub moves sub-package id from the staged package into the theme
// directory and records it. The record is not saved.
// An id that is already installed fails with core.ErrAlreadyInstalled unless
// opts.Force replaces it.
func (ip *InstalledPackage) AddSub(id string, from *Package, opts core.InstallOptions) error {
	sub, ok := from.Manifest().SubPackage(id)
	if !ok {
		return fmt.Errorf("%s/%s: %w", ip.ID, id, core.ErrSubPackageNotFound)
	}

	if i := ip.subIndex(id); i >= 0 {
		if !opts.Force {
			return fmt.Errorf("%s/%s: %w", ip.ID, id, core.ErrAlreadyInstalled)
		}
		if err := ip.env.Mover.Remove(ip.Pkgs[i].File); err != nil {
			return err
		}
		ip.Pkgs = append(ip.Pkgs[:i], ip.Pkgs[i+1:]...)
	}

	policy := policyFor(opts.Overwrite || opts.Force)
	file, err := ip.env.Mover.Move(sub.File.Under(from.Dir()), ip.env.ThemeDir, policy)
	if err != nil {
		return fmt.Errorf("install %s/%s: %w", ip.ID, id, err)
	}

	ip.Pkgs = append(ip.Pkgs, InstalledSubPackage{ID: id, File: file})
	ip.env.Log.Debug().Str("theme", ip.ID).Str("sub", id).Str("file", file.Path()).Msg("sub-package installed")
	return nil
}

// Save replaces the record file with the current state.
// Saving a record without sub-packages is a programming error.
func (ip *InstalledPackage) Save() error {
	if len(ip.Pkgs) == 0 {
		panic(fmt.Sprintf("theme: saving %s with no sub-packages", ip.ID))
	}

	e := ip.env
	if err := fsops.EnsureDir(e.Fs, e.InstalledDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(ip, "", "  ")
	if err != nil {
		return fmt.Errorf("encode installed record: %w", err)
	}

	path := e.recordPath(ip.ID)
	if err := e.Fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove old record: %w", err)
	}
	if err := afero.WriteFile(e.Fs, path, data, 0644); err != nil {
		return fmt.Errorf("write installed record: %w", err)
	}

	e.Log.Debug().Str("theme", ip.ID).Str("file", path).Msg("installed record saved")
	return nil
}

// RemoveSub deletes sub-package id. It reports false without error when id
// is not installed. Removing the last sub-package releases the assets and
// deletes the record; otherwise the record is saved again.
func (ip *InstalledPackage) RemoveSub(id string) (bool, error) {
	i := ip.subIndex(id)
	if i < 0 {
		ip.env.Log.Info().Str("theme", ip.ID).Str("sub", id).Msg("sub-package not installed")
		return false, nil
	}

	if err := ip.env.Mover.Remove(ip.Pkgs[i].File); err != nil {
		return false, err
	}
	ip.Pkgs = append(ip.Pkgs[:i], ip.Pkgs[i+1:]...)

	if len(ip.Pkgs) > 0 {
		return true, ip.Save()
	}

	if err := ip.clearAssets(); err != nil {
		return true, err
	}
	return true, ip.deleteRecord()
}

// Uninstall deletes every sub-package file, releases the assets and
// deletes the record.
func (ip *InstalledPackage) Uninstall() error {
	for _, pkg := range ip.Pkgs {
		if err := ip.env.Mover.Remove(pkg.File); err != nil {
			return err
		}
	}
	ip.Pkgs = nil

	if err := ip.clearAssets(); err != nil {
		return err
	}
	return ip.deleteRecord()
}

// clearAssets gives up this package's claim on every asset directory.
// Directories nobody else uses are deleted.
func (ip *InstalledPackage) clearAssets() error {
	if len(ip.Pkgs) != 0 {
		panic(fmt.Sprintf("theme: releasing assets of %s while sub-packages remain", ip.ID))
	}

	for _, asset := range ip.Assets {
		shared, err := ip.env.Registry.Get(asset.Path())
		if err != nil {
			return err
		}
		if err := shared.RemovedBy(ip.ID); err != nil {
			return fmt.Errorf("release asset %s: %w", asset, err)
		}
	}
	ip.Assets = nil
	return nil
}

func (ip *InstalledPackage) deleteRecord() error {
	path := ip.env.recordPath(ip.ID)
	if err := ip.env.Fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove installed record: %w", err)
	}
	ip.env.Log.Debug().Str("theme", ip.ID).Msg("installed record removed")
	return nil
}
