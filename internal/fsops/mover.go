package fsops

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/quantmind-br/tytm/internal/core"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Policy decides what happens when a moved file meets an existing entry
type Policy int

const (
	// FailOnConflict refuses to replace an existing file
	FailOnConflict Policy = iota
	// Overwrite removes the existing entry and puts the moved one in its place
	Overwrite
)

// Mover moves objects between directories on a filesystem.
// Directories are fused: moving a directory onto an existing directory of
// the same name merges their contents recursively. A failed move is not
// rolled back and may leave a partially merged tree.
type Mover struct {
	fs  afero.Fs
	log *zerolog.Logger
}

// NewMover creates a Mover
func NewMover(fs afero.Fs, log *zerolog.Logger) *Mover {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Mover{fs: fs, log: log}
}

// Fs returns the underlying filesystem
func (m *Mover) Fs() afero.Fs {
	return m.fs
}

// Move moves src under dstDir and returns the moved object.
// src no longer exists after a successful move.
func (m *Mover) Move(src Object, dstDir string, policy Policy) (Object, error) {
	info, err := lstat(m.fs, src.Path())
	if err != nil {
		return Object{}, fmt.Errorf("stat %s: %w", src, err)
	}

	dst := src.Name().Under(dstDir)
	if dst.Path() == src.Path() {
		return src, nil
	}

	dstInfo, err := lstat(m.fs, dst.Path())
	exists := err == nil
	if err != nil && !os.IsNotExist(err) {
		return Object{}, fmt.Errorf("stat %s: %w", dst, err)
	}

	if info.IsDir() {
		if exists && !dstInfo.IsDir() {
			if policy != Overwrite {
				return Object{}, fmt.Errorf("move directory %s: %w: %s is a file", src, core.ErrConflict, dst)
			}
			if err := m.fs.Remove(dst.Path()); err != nil {
				return Object{}, fmt.Errorf("replace %s: %w", dst, err)
			}
			exists = false
		}
		if !exists {
			if err := m.fs.MkdirAll(dst.Path(), info.Mode().Perm()|0700); err != nil {
				return Object{}, fmt.Errorf("create %s: %w", dst, err)
			}
		}

		entries, err := afero.ReadDir(m.fs, src.Path())
		if err != nil {
			return Object{}, fmt.Errorf("read %s: %w", src, err)
		}
		for _, entry := range entries {
			child := NewObject(filepath.Join(src.Path(), entry.Name()))
			if _, err := m.Move(child, dst.Path(), policy); err != nil {
				return Object{}, err
			}
		}
		if err := m.fs.Remove(src.Path()); err != nil {
			return Object{}, fmt.Errorf("remove moved directory %s: %w", src, err)
		}
		return dst, nil
	}

	if exists {
		if policy != Overwrite {
			return Object{}, fmt.Errorf("move %s: %w: %s", src, core.ErrConflict, dst)
		}
		m.log.Debug().Str("path", dst.Path()).Msg("overwriting existing entry")
		if err := m.fs.RemoveAll(dst.Path()); err != nil {
			return Object{}, fmt.Errorf("replace %s: %w", dst, err)
		}
	}

	if err := m.renameFile(src.Path(), dst.Path(), info.Mode()); err != nil {
		return Object{}, err
	}
	return dst, nil
}

// MoveContents moves every direct child of src into dstDir and returns an
// object for dstDir. When src is a file it is moved like Move.
// The emptied src directory is removed.
func (m *Mover) MoveContents(src Object, dstDir string, policy Policy) (Object, error) {
	info, err := lstat(m.fs, src.Path())
	if err != nil {
		return Object{}, fmt.Errorf("stat %s: %w", src, err)
	}
	if !info.IsDir() {
		return m.Move(src, dstDir, policy)
	}

	dst := NewObject(dstDir)
	if dst.Path() == src.Path() {
		return dst, nil
	}

	if err := m.fs.MkdirAll(dst.Path(), 0755); err != nil {
		return Object{}, fmt.Errorf("create %s: %w", dst, err)
	}

	entries, err := afero.ReadDir(m.fs, src.Path())
	if err != nil {
		return Object{}, fmt.Errorf("read %s: %w", src, err)
	}
	for _, entry := range entries {
		child := NewObject(filepath.Join(src.Path(), entry.Name()))
		if _, err := m.Move(child, dst.Path(), policy); err != nil {
			return Object{}, err
		}
	}

	if err := m.fs.Remove(src.Path()); err != nil {
		return Object{}, fmt.Errorf("remove moved directory %s: %w", src, err)
	}
	return dst, nil
}

// Remove deletes a file or a directory with everything in it.
// Removing an object that is already gone succeeds.
func (m *Mover) Remove(obj Object) error {
	info, err := lstat(m.fs, obj.Path())
	if os.IsNotExist(err) {
		m.log.Debug().Str("path", obj.Path()).Msg("object already removed")
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", obj, err)
	}

	if info.IsDir() {
		err = m.fs.RemoveAll(obj.Path())
	} else {
		err = m.fs.Remove(obj.Path())
	}
	if err != nil {
		return fmt.Errorf("remove %s: %w", obj, err)
	}
	return nil
}

// renameFile renames a single file, copying it when the rename crosses devices
func (m *Mover) renameFile(src, dst string, mode os.FileMode) error {
	err := m.fs.Rename(src, dst)
	if err == nil {
		return nil
	}

	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) || mode&os.ModeSymlink != 0 {
		return fmt.Errorf("rename %s: %w", src, err)
	}

	m.log.Debug().Err(err).Str("src", src).Str("dst", dst).Msg("rename failed, copying instead")
	if cerr := copyFile(m.fs, src, dst, mode.Perm()); cerr != nil {
		return fmt.Errorf("rename %s: %w (copy fallback: %v)", src, err, cerr)
	}
	if rerr := m.fs.Remove(src); rerr != nil {
		return fmt.Errorf("remove %s after copy: %w", src, rerr)
	}
	return nil
}

func copyFile(fs afero.Fs, src, dst string, perm os.FileMode) (err error) {
	in, err := fs.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close destination: %w", cerr)
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return fmt.Errorf("copy contents: %w", err)
	}
	return nil
}

func lstat(fs afero.Fs, path string) (os.FileInfo, error) {
	if l, ok := fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(path)
		return info, err
	}
	return fs.Stat(path)
}
