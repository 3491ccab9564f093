// Package manifest reads theme descriptions from the local manifest store
// and refreshes that store from the remote registry repository.
package manifest

import (
	"fmt"

	"github.com/quantmind-br/tytm/internal/core"
	"github.com/quantmind-br/tytm/internal/fsops"
	"github.com/quantmind-br/tytm/internal/paths"
	"github.com/quantmind-br/tytm/internal/security"
	"github.com/quantmind-br/tytm/internal/sharedir"
	"github.com/quantmind-br/tytm/internal/source"
)

// SubPackage is an optional theme file that can be installed on its own
type SubPackage struct {
	ID   string           `json:"id" yaml:"id"`
	File fsops.ObjectName `json:"file" yaml:"file"`
}

// Manifest describes a theme: where to fetch it, which shared asset
// directories it ships and which sub-packages can be picked.
type Manifest struct {
	ID      string             `json:"id" yaml:"id"`
	Name    string             `json:"name" yaml:"name"`
	Version string             `json:"version" yaml:"version"`
	Source  source.Source      `json:"source" yaml:"source"`
	Assets  []fsops.ObjectName `json:"assets" yaml:"assets"`
	Pkgs    []SubPackage       `json:"pkgs" yaml:"pkgs"`
	Default []string           `json:"default" yaml:"default"`
}

// Validate checks ids, names and the source, that no asset or sub-package
// file takes a name reserved for tytm's own files, and that every default
// sub-package is declared. Failures wrap core.ErrParse.
func (m *Manifest) Validate() error {
	if err := security.ValidateThemeID(m.ID); err != nil {
		return fmt.Errorf("%w: %v", core.ErrParse, err)
	}
	if m.Name == "" {
		m.Name = m.ID
	}
	if err := security.ValidateVersion(m.Version); err != nil {
		return fmt.Errorf("%w: %s: %v", core.ErrParse, m.ID, err)
	}
	if err := m.Source.Validate(); err != nil {
		return fmt.Errorf("%s: %w", m.ID, err)
	}

	assets := make(map[fsops.ObjectName]struct{}, len(m.Assets))
	for _, asset := range m.Assets {
		if _, err := fsops.ParseObjectName(asset.String()); err != nil {
			return fmt.Errorf("%w: %s: asset: %v", core.ErrParse, m.ID, err)
		}
		if isReserved(asset) {
			return fmt.Errorf("%w: %s: asset name %q is reserved", core.ErrParse, m.ID, asset)
		}
		if _, dup := assets[asset]; dup {
			return fmt.Errorf("%w: %s: duplicate asset %q", core.ErrParse, m.ID, asset)
		}
		assets[asset] = struct{}{}
	}

	pkgs := make(map[string]struct{}, len(m.Pkgs))
	for _, pkg := range m.Pkgs {
		if err := security.ValidateThemeID(pkg.ID); err != nil {
			return fmt.Errorf("%w: %s: sub-package: %v", core.ErrParse, m.ID, err)
		}
		if _, err := fsops.ParseObjectName(pkg.File.String()); err != nil {
			return fmt.Errorf("%w: %s: sub-package %s: %v", core.ErrParse, m.ID, pkg.ID, err)
		}
		if isReserved(pkg.File) {
			return fmt.Errorf("%w: %s: sub-package %s: file name %q is reserved", core.ErrParse, m.ID, pkg.ID, pkg.File)
		}
		if _, dup := pkgs[pkg.ID]; dup {
			return fmt.Errorf("%w: %s: duplicate sub-package %q", core.ErrParse, m.ID, pkg.ID)
		}
		pkgs[pkg.ID] = struct{}{}
	}

	for _, id := range m.Default {
		if _, ok := pkgs[id]; !ok {
			return fmt.Errorf("%w: %s: default sub-package %q is not declared", core.ErrParse, m.ID, id)
		}
	}

	return nil
}

// isReserved reports names tytm keeps for its own files in the theme directory
func isReserved(name fsops.ObjectName) bool {
	return name.String() == paths.InstalledDirName || sharedir.IsReservedName(name.String())
}

// SubPackage looks up a declared sub-package by id
func (m *Manifest) SubPackage(id string) (SubPackage, bool) {
	for _, pkg := range m.Pkgs {
		if pkg.ID == id {
			return pkg, true
		}
	}
	return SubPackage{}, false
}

// SubPackageIDs returns the declared sub-package ids in manifest order
func (m *Manifest) SubPackageIDs() []string {
	ids := make([]string, 0, len(m.Pkgs))
	for _, pkg := range m.Pkgs {
		ids = append(ids, pkg.ID)
	}
	return ids
}
