package core

// InstallOptions contains options for theme installation
type InstallOptions struct {
	Force     bool // Replace sub-packages that are already installed
	NoDefault bool // Skip the manifest's default sub-packages
	Overwrite bool // Replace conflicting files in the theme directory instead of failing
}
