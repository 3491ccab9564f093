package fsops

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/quantmind-br/tytm/internal/core"
	"golang.org/x/text/unicode/norm"
)

// ObjectName is a single path segment naming a file or directory
// independently of where it lives. Names are NFC-normalized so the same
// theme asset compares equal across filesystems.
type ObjectName string

// ParseObjectName validates and normalizes a name
func ParseObjectName(s string) (ObjectName, error) {
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("%w: %q is not valid UTF-8", core.ErrInvalidName, s)
	}
	s = norm.NFC.String(s)
	switch {
	case s == "", s == ".", s == "..":
		return "", fmt.Errorf("%w: %q", core.ErrInvalidName, s)
	case strings.ContainsAny(s, `/\`):
		return "", fmt.Errorf("%w: %q contains a path separator", core.ErrInvalidName, s)
	case strings.ContainsRune(s, 0):
		return "", fmt.Errorf("%w: %q contains a null byte", core.ErrInvalidName, s)
	}
	return ObjectName(s), nil
}

// String returns the name as a plain string
func (n ObjectName) String() string {
	return string(n)
}

// Under returns the object with this name inside dir
func (n ObjectName) Under(dir string) Object {
	return NewObject(filepath.Join(dir, string(n)))
}

// MarshalText implements encoding.TextMarshaler
func (n ObjectName) MarshalText() ([]byte, error) {
	return []byte(n), nil
}

// UnmarshalText implements encoding.TextUnmarshaler and validates the name
func (n *ObjectName) UnmarshalText(text []byte) error {
	parsed, err := ParseObjectName(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// Object is a path to a file or a whole directory. Whoever holds an Object
// owns what it points at; moving it yields a new Object for the new location.
// An Object never refers to a filesystem root.
type Object struct {
	path string
}

// NewObject wraps a path
func NewObject(path string) Object {
	return Object{path: filepath.Clean(path)}
}

// Path returns the current location of the object
func (o Object) Path() string {
	return o.path
}

// Name returns the last path segment
func (o Object) Name() ObjectName {
	return ObjectName(filepath.Base(o.path))
}

// IsZero reports whether the object points nowhere
func (o Object) IsZero() bool {
	return o.path == ""
}

// String implements fmt.Stringer
func (o Object) String() string {
	return o.path
}

// MarshalText implements encoding.TextMarshaler
func (o Object) MarshalText() ([]byte, error) {
	return []byte(o.path), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (o *Object) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		return fmt.Errorf("%w: empty object path", core.ErrParse)
	}
	*o = NewObject(string(text))
	return nil
}
