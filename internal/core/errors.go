package core

import "errors"

var (
	// ErrNotFound is returned when a manifest or installed record does not exist
	ErrNotFound = errors.New("not found")

	// ErrSubPackageNotFound is returned when a sub-package id is not declared by a manifest
	ErrSubPackageNotFound = errors.New("sub-package not found")

	// ErrParse is returned when a manifest or record does not match the expected shape
	ErrParse = errors.New("parse error")

	// ErrInvalidName is returned for names that are not a single UTF-8 path segment
	ErrInvalidName = errors.New("invalid name")

	// ErrConflict is returned when a move would replace an existing file
	ErrConflict = errors.New("destination already exists")

	// ErrNothingSelected is returned when an add would install no sub-package
	ErrNothingSelected = errors.New("no sub-packages selected")

	// ErrAlreadyInstalled is returned when a sub-package is added twice without Force
	ErrAlreadyInstalled = errors.New("already installed")

	// ErrBrokenRecord marks a sidecar whose stored path does not match its directory.
	// It indicates on-disk corruption and must abort the running command.
	ErrBrokenRecord = errors.New("broken shared directory record")

	// ErrNetwork is returned when a download fails
	ErrNetwork = errors.New("network error")

	// ErrExtraction is returned when an archive cannot be extracted
	ErrExtraction = errors.New("extraction error")

	// ErrClone is returned when a git clone fails
	ErrClone = errors.New("clone error")

	// ErrCommandNotFound is returned when a required external command is not in PATH
	ErrCommandNotFound = errors.New("command not found")

	// ErrDatabase is returned when the history journal cannot be opened or queried
	ErrDatabase = errors.New("database error")

	// ErrUninstall is returned when removing installed files or records fails
	ErrUninstall = errors.New("uninstall error")
)
