package core

import (
	"errors"
	"io/fs"
)

// SourceKind identifies how a theme's content is fetched
type SourceKind string

const (
	SourceZip SourceKind = "zip"
	SourceGit SourceKind = "git"
)

// Action is a lifecycle event recorded in the history journal
type Action string

const (
	ActionInstall   Action = "install"
	ActionAddSub    Action = "add-sub"
	ActionRemoveSub Action = "remove-sub"
	ActionUninstall Action = "uninstall"
	ActionUpdate    Action = "update"
)

// Exit codes
const (
	ExitSuccess         = 0
	ExitGeneral         = 1
	ExitInvalidArgs     = 2
	ExitInstallFailed   = 3
	ExitUninstallFailed = 4
	ExitDatabase        = 5
	ExitPermission      = 6
	ExitNetwork         = 7
	ExitCommandNotFound = 8
	ExitCorrupted       = 9
	ExitInterrupted     = 130
)

// ExitCodeFor maps an error returned by a command to a process exit code
func ExitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrBrokenRecord):
		return ExitCorrupted
	case errors.Is(err, ErrCommandNotFound):
		return ExitCommandNotFound
	case errors.Is(err, ErrDatabase):
		return ExitDatabase
	case errors.Is(err, fs.ErrPermission):
		return ExitPermission
	case errors.Is(err, ErrNetwork), errors.Is(err, ErrClone):
		return ExitNetwork
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrSubPackageNotFound), errors.Is(err, ErrInvalidName),
		errors.Is(err, ErrNothingSelected), errors.Is(err, ErrAlreadyInstalled):
		return ExitInvalidArgs
	case errors.Is(err, ErrUninstall):
		return ExitUninstallFailed
	case errors.Is(err, ErrExtraction), errors.Is(err, ErrConflict), errors.Is(err, ErrParse):
		return ExitInstallFailed
	default:
		return ExitGeneral
	}
}
