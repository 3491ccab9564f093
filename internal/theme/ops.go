package theme

import (
	"context"
	"errors"
	"fmt"

	"github.com/quantmind-br/tytm/internal/core"
	"github.com/quantmind-br/tytm/internal/fsops"
	"github.com/quantmind-br/tytm/internal/manifest"
)

// AddResult describes what an Add call changed
type AddResult struct {
	Package *InstalledPackage
	Added   []string
	Skipped []string
	Fresh   bool
}

// RemoveResult describes what a Remove call changed
type RemoveResult struct {
	Removed      []string
	NotInstalled []string
	Uninstalled  bool
}

// SelectSubs resolves the sub-packages an add installs: the manifest
// defaults unless noDefault, followed by the requested ids, without
// duplicates. Every id must be declared by the manifest.
func SelectSubs(m *manifest.Manifest, requested []string, noDefault bool) ([]string, error) {
	var ids []string
	seen := make(map[string]struct{})
	push := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	if !noDefault {
		for _, id := range m.Default {
			push(id)
		}
	}
	for _, id := range requested {
		if _, ok := m.SubPackage(id); !ok {
			return nil, fmt.Errorf("%s/%s: %w", m.ID, id, core.ErrSubPackageNotFound)
		}
		push(id)
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("%s: %w", m.ID, core.ErrNothingSelected)
	}
	return ids, nil
}

// Add fetches m and installs the selected sub-packages. For a theme that is
// already installed, assets are refreshed in place and installed
// sub-packages are skipped unless opts.Force is set.
func (e *Env) Add(ctx context.Context, m *manifest.Manifest, requested []string, opts core.InstallOptions) (*AddResult, error) {
	subs, err := SelectSubs(m, requested, opts.NoDefault)
	if err != nil {
		return nil, err
	}

	existing, err := e.Installed(m.ID)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	result := &AddResult{Fresh: existing == nil}
	pending := subs
	if existing != nil && !opts.Force {
		pending = nil
		for _, id := range subs {
			if existing.HasSub(id) {
				result.Skipped = append(result.Skipped, id)
				continue
			}
			pending = append(pending, id)
		}
		if len(pending) == 0 {
			result.Package = existing
			return result, nil
		}
	}

	if !opts.Overwrite && !opts.Force {
		if err := e.checkSubConflicts(m, pending); err != nil {
			return nil, err
		}
	}

	pkg, err := e.Stage(ctx, m)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := pkg.Close(); cerr != nil {
			e.Log.Warn().Err(cerr).Str("theme", m.ID).Msg("failed to remove staged content")
		}
	}()

	ip := existing
	if ip == nil {
		if ip, err = pkg.Install(opts); err != nil {
			return nil, err
		}
	} else {
		if err := pkg.installAssets(ip, true); err != nil {
			e.abandon(ip, false)
			return nil, err
		}
		ip.Name, ip.Version = m.Name, m.Version
	}

	for _, id := range pending {
		if err := ip.AddSub(id, pkg, opts); err != nil {
			e.abandon(ip, result.Fresh)
			return nil, err
		}
		result.Added = append(result.Added, id)
	}

	if err := ip.Save(); err != nil {
		e.abandon(ip, result.Fresh)
		return nil, err
	}

	e.Log.Info().Str("theme", ip.ID).Strs("subs", result.Added).Msg("theme installed")
	result.Package = ip
	return result, nil
}

// checkSubConflicts fails with core.ErrConflict when a file already sits
// where one of the pending sub-packages would be placed.
func (e *Env) checkSubConflicts(m *manifest.Manifest, pending []string) error {
	for _, id := range pending {
		sub, ok := m.SubPackage(id)
		if !ok {
			return fmt.Errorf("%s/%s: %w", m.ID, id, core.ErrSubPackageNotFound)
		}
		dst := sub.File.Under(e.ThemeDir)
		if fsops.Exists(e.Fs, dst.Path()) {
			return fmt.Errorf("install %s/%s: %w: %s", m.ID, id, core.ErrConflict, dst)
		}
	}
	return nil
}

// abandon cleans up after an add that failed once assets were registered.
// A fresh package is uninstalled again. An existing one is saved so its
// record matches the shared directories that list it.
func (e *Env) abandon(ip *InstalledPackage, fresh bool) {
	var err error
	if fresh || len(ip.Pkgs) == 0 {
		err = ip.Uninstall()
	} else {
		err = ip.Save()
	}
	if err != nil {
		e.Log.Warn().Err(err).Str("theme", ip.ID).Msg("failed to clean up after a failed add")
	}
}

// Remove uninstalls theme id entirely when subs is empty, otherwise removes
// only the listed sub-packages. Failures while deleting wrap
// core.ErrUninstall.
func (e *Env) Remove(id string, subs []string) (*RemoveResult, error) {
	ip, err := e.Installed(id)
	if err != nil {
		return nil, err
	}

	result := &RemoveResult{}
	if len(subs) == 0 {
		result.Removed = ip.SubIDs()
		if err := ip.Uninstall(); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", core.ErrUninstall, id, err)
		}
		result.Uninstalled = true
		e.Log.Info().Str("theme", id).Msg("theme uninstalled")
		return result, nil
	}

	for _, sub := range subs {
		removed, err := ip.RemoveSub(sub)
		if err != nil {
			return nil, fmt.Errorf("%w: %s/%s: %w", core.ErrUninstall, id, sub, err)
		}
		if removed {
			result.Removed = append(result.Removed, sub)
		} else {
			result.NotInstalled = append(result.NotInstalled, sub)
		}
	}
	result.Uninstalled = len(ip.Pkgs) == 0

	e.Log.Info().Str("theme", id).Strs("removed", result.Removed).Msg("sub-packages removed")
	return result, nil
}
