// Package sharedir keeps track of which installed themes depend on a shared
// directory in the theme tree. The record lives in a sidecar file inside the
// directory itself and exists only while at least one theme uses it; when
// the last user goes away the whole directory is deleted.
//
// The sidecar is plain data. It is read, modified and written back without
// any file lock, so two concurrent runs touching the same directory can lose
// an update.
package sharedir

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/quantmind-br/tytm/internal/core"
	"github.com/quantmind-br/tytm/internal/fsops"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

const (
	// LockFileName is the sidecar file name inside every shared directory
	LockFileName = ".tytm.lock"
	// LegacyLockFileName is the sidecar name older releases wrote. It is
	// read when LockFileName is absent and replaced on the next save.
	LegacyLockFileName = ".tytm.fsx.lock"
)

// HasRecord reports whether the directory at path carries a sidecar
func HasRecord(fs afero.Fs, path string) bool {
	return fsops.Exists(fs, filepath.Join(path, LockFileName)) ||
		fsops.Exists(fs, filepath.Join(path, LegacyLockFileName))
}

// IsReservedName reports whether name is one of the sidecar file names
func IsReservedName(name string) bool {
	return name == LockFileName || name == LegacyLockFileName
}

// Registry loads shared directory records
type Registry struct {
	mover *fsops.Mover
	log   *zerolog.Logger
}

// NewRegistry creates a Registry that deletes released directories with mover
func NewRegistry(mover *fsops.Mover, log *zerolog.Logger) *Registry {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Registry{mover: mover, log: log}
}

// Dir is the in-memory view of one shared directory
type Dir struct {
	path   string
	usedBy map[string]struct{}

	reg *Registry
}

type record struct {
	Path   string   `json:"path"`
	UsedBy []string `json:"used_by"`
}

// Get loads the record of the directory at path, falling back to the legacy
// sidecar name. If no sidecar exists a new
// record with no users is returned and the directory is created.
// A sidecar that names a different directory yields core.ErrBrokenRecord.
func (r *Registry) Get(path string) (*Dir, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	fs := r.mover.Fs()

	if !fsops.IsDir(fs, abs) {
		if err := fs.MkdirAll(abs, 0755); err != nil {
			return nil, fmt.Errorf("create shared directory %s: %w", abs, err)
		}
	}

	d := &Dir{path: abs, usedBy: make(map[string]struct{}), reg: r}

	data, err := afero.ReadFile(fs, filepath.Join(abs, LockFileName))
	if os.IsNotExist(err) {
		data, err = afero.ReadFile(fs, filepath.Join(abs, LegacyLockFileName))
	}
	if os.IsNotExist(err) {
		r.log.Debug().Str("path", abs).Msg("new shared directory record")
		return d, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s record: %w", abs, err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrBrokenRecord, abs, err)
	}
	if filepath.Clean(rec.Path) != abs {
		return nil, fmt.Errorf("%w: %s claims to describe %s", core.ErrBrokenRecord, abs, rec.Path)
	}

	for _, id := range rec.UsedBy {
		d.usedBy[id] = struct{}{}
	}
	return d, nil
}

// Path returns the absolute directory path
func (d *Dir) Path() string {
	return d.path
}

// Users returns the ids depending on the directory, sorted
func (d *Dir) Users() []string {
	users := make([]string, 0, len(d.usedBy))
	for id := range d.usedBy {
		users = append(users, id)
	}
	sort.Strings(users)
	return users
}

// IsUsedBy reports whether id depends on the directory
func (d *Dir) IsUsedBy(id string) bool {
	_, ok := d.usedBy[id]
	return ok
}

// UsedBy adds id to the users and writes the sidecar
func (d *Dir) UsedBy(id string) error {
	d.usedBy[id] = struct{}{}
	return d.save()
}

// RemovedBy drops id from the users. When nobody is left the directory is
// deleted with everything in it; otherwise the sidecar is rewritten.
func (d *Dir) RemovedBy(id string) error {
	delete(d.usedBy, id)

	if len(d.usedBy) == 0 {
		d.reg.log.Debug().Str("path", d.path).Str("last_user", id).Msg("removing unused shared directory")
		return d.reg.mover.Remove(fsops.NewObject(d.path))
	}
	return d.save()
}

func (d *Dir) save() error {
	if len(d.usedBy) == 0 {
		panic("sharedir: saving a record without users")
	}

	data, err := json.Marshal(record{Path: d.path, UsedBy: d.Users()})
	if err != nil {
		return fmt.Errorf("marshal %s record: %w", d.path, err)
	}

	fs := d.reg.mover.Fs()
	file := filepath.Join(d.path, LockFileName)
	if err := fs.Remove(file); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("replace %s record: %w", d.path, err)
	}
	if err := afero.WriteFile(fs, file, data, 0644); err != nil {
		return fmt.Errorf("write %s record: %w", d.path, err)
	}

	legacy := filepath.Join(d.path, LegacyLockFileName)
	if err := fs.Remove(legacy); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s legacy record: %w", d.path, err)
	}
	return nil
}
