package paths

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

// InstalledDirName is the directory inside the Typora themes folder that
// holds one installed-manifest file per theme.
const InstalledDirName = "tytm-pkgs"

var errNoAppData = errors.New("roaming application data folder not available")

// Resolver computes the default locations used by tytm.
// It knows where Typora keeps its themes on every supported OS.
type Resolver struct {
	homeDir string
	goos    string
	getenv  func(string) string
	appData func() (string, error)
}

// NewResolver creates a Resolver for the current user and OS.
func NewResolver() *Resolver {
	homeDir, _ := os.UserHomeDir()
	return &Resolver{
		homeDir: homeDir,
		goos:    runtime.GOOS,
		getenv:  os.Getenv,
		appData: roamingAppData,
	}
}

// NewResolverWithHome creates a Resolver with an explicit home directory and
// target OS (useful for tests). Environment lookups are disabled.
func NewResolverWithHome(homeDir, goos string) *Resolver {
	return &Resolver{
		homeDir: homeDir,
		goos:    goos,
		getenv:  func(string) string { return "" },
		appData: func() (string, error) {
			return filepath.Join(homeDir, "AppData", "Roaming"), nil
		},
	}
}

// HomeDir returns the resolved home directory.
func (r *Resolver) HomeDir() string {
	return r.homeDir
}

// ThemeDir returns the folder Typora loads themes from.
func (r *Resolver) ThemeDir() string {
	switch r.goos {
	case "windows":
		return filepath.Join(r.roaming(), "Typora", "themes")
	case "darwin":
		return filepath.Join(r.homeDir, "Library", "Application Support", "abnerworks.Typora", "themes")
	default:
		return filepath.Join(r.xdg("XDG_CONFIG_HOME", ".config"), "Typora", "themes")
	}
}

// InstalledDir returns the installed-manifest directory for a theme dir.
func (r *Resolver) InstalledDir(themeDir string) string {
	return filepath.Join(themeDir, InstalledDirName)
}

// DataDir returns the directory for tytm's own state: manifests, history
// database and log file.
func (r *Resolver) DataDir() string {
	switch r.goos {
	case "windows":
		return filepath.Join(r.roaming(), "tytm")
	case "darwin":
		return filepath.Join(r.homeDir, "Library", "Application Support", "tytm")
	default:
		return filepath.Join(r.xdg("XDG_DATA_HOME", filepath.Join(".local", "share")), "tytm")
	}
}

// ConfigDir returns the directory searched for config.toml.
func (r *Resolver) ConfigDir() string {
	if r.goos == "windows" {
		return filepath.Join(r.roaming(), "tytm")
	}
	return filepath.Join(r.xdg("XDG_CONFIG_HOME", ".config"), "tytm")
}

func (r *Resolver) roaming() string {
	if dir, err := r.appData(); err == nil && dir != "" {
		return dir
	}
	if dir := r.getenv("APPDATA"); dir != "" {
		return dir
	}
	return filepath.Join(r.homeDir, "AppData", "Roaming")
}

func (r *Resolver) xdg(key, fallback string) string {
	if dir := r.getenv(key); filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(r.homeDir, fallback)
}
