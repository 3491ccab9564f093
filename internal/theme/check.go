package theme

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/quantmind-br/tytm/internal/core"
	"github.com/quantmind-br/tytm/internal/fsops"
	"github.com/quantmind-br/tytm/internal/sharedir"
	"github.com/spf13/afero"
)

// Problem is an inconsistency between an installed record and the disk
type Problem struct {
	Theme string
	Path  string
	Err   error
}

func (p Problem) String() string {
	if p.Theme == "" {
		return fmt.Sprintf("%s: %v", p.Path, p.Err)
	}
	return fmt.Sprintf("%s: %s: %v", p.Theme, p.Path, p.Err)
}

// Check verifies every installed record: the record loads, each sub-package
// file exists, and each asset directory exists with a sidecar that lists the
// theme. It then scans the theme directory for shared directories listing a
// user that has no record claiming them. It never modifies the disk.
func (e *Env) Check() ([]Problem, error) {
	ids, err := e.InstalledIDs()
	if err != nil {
		return nil, err
	}

	var problems []Problem
	owned := make(map[string]map[string]bool, len(ids))
	for _, id := range ids {
		ip, err := e.Installed(id)
		if err != nil {
			problems = append(problems, Problem{Theme: id, Path: e.recordPath(id), Err: err})
			continue
		}
		owned[id] = make(map[string]bool, len(ip.Assets))

		for _, pkg := range ip.Pkgs {
			if !fsops.Exists(e.Fs, pkg.File.Path()) {
				problems = append(problems, Problem{
					Theme: id,
					Path:  pkg.File.Path(),
					Err:   fmt.Errorf("sub-package %s: %w", pkg.ID, core.ErrNotFound),
				})
			}
		}

		for _, asset := range ip.Assets {
			owned[id][filepath.Clean(asset.Path())] = true
			if !fsops.IsDir(e.Fs, asset.Path()) {
				problems = append(problems, Problem{
					Theme: id,
					Path:  asset.Path(),
					Err:   fmt.Errorf("asset directory: %w", core.ErrNotFound),
				})
				continue
			}

			dir, err := e.Registry.Get(asset.Path())
			if err != nil {
				problems = append(problems, Problem{Theme: id, Path: asset.Path(), Err: err})
				continue
			}
			if !dir.IsUsedBy(id) {
				problems = append(problems, Problem{
					Theme: id,
					Path:  asset.Path(),
					Err:   fmt.Errorf("%w: %s is not listed as a user", core.ErrBrokenRecord, id),
				})
			}
		}
	}

	orphans, err := e.checkOwners(ids, owned)
	if err != nil {
		return nil, err
	}
	problems = append(problems, orphans...)

	e.Log.Debug().Int("themes", len(ids)).Int("problems", len(problems)).Msg("checked installed themes")
	return problems, nil
}

// checkOwners reports every user listed in a shared directory sidecar whose
// installed record does not claim that directory. Users whose record failed
// to load are skipped since Check already reported them.
func (e *Env) checkOwners(ids []string, owned map[string]map[string]bool) ([]Problem, error) {
	entries, err := afero.ReadDir(e.Fs, e.ThemeDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read theme directory: %w", err)
	}

	installed := make(map[string]bool, len(ids))
	for _, id := range ids {
		installed[id] = true
	}

	var problems []Problem
	for _, entry := range entries {
		path := filepath.Join(e.ThemeDir, entry.Name())
		if !entry.IsDir() || filepath.Clean(path) == filepath.Clean(e.InstalledDir) || !sharedir.HasRecord(e.Fs, path) {
			continue
		}

		dir, err := e.Registry.Get(path)
		if err != nil {
			problems = append(problems, Problem{Path: path, Err: err})
			continue
		}

		for _, user := range dir.Users() {
			switch {
			case !installed[user]:
				problems = append(problems, Problem{
					Theme: user,
					Path:  path,
					Err:   fmt.Errorf("%w: listed as a user but not installed", core.ErrBrokenRecord),
				})
			case owned[user] != nil && !owned[user][filepath.Clean(path)]:
				problems = append(problems, Problem{
					Theme: user,
					Path:  path,
					Err:   fmt.Errorf("%w: listed as a user but its record does not claim the directory", core.ErrBrokenRecord),
				})
			}
		}
	}
	return problems, nil
}
