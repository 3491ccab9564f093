package manifest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/quantmind-br/tytm/internal/config"
	"github.com/quantmind-br/tytm/internal/core"
	"github.com/quantmind-br/tytm/internal/fsops"
	"github.com/quantmind-br/tytm/internal/helpers"
	"github.com/quantmind-br/tytm/internal/security"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const maxSuggestions = 3

// extensions in lookup order
var extensions = []string{".json", ".yaml", ".yml"}

// Store is a directory holding one manifest file per theme id
type Store struct {
	fs     afero.Fs
	dir    string
	mover  *fsops.Mover
	runner helpers.CommandRunner
	log    *zerolog.Logger
}

// NewStore creates a store over the configured manifest directory
func NewStore(cfg *config.Config, log *zerolog.Logger) *Store {
	return NewStoreWithDeps(afero.NewOsFs(), helpers.NewOSCommandRunner(), cfg.Paths.ManifestDir, log)
}

// NewStoreWithDeps creates a store with injected dependencies (for testing)
func NewStoreWithDeps(fs afero.Fs, runner helpers.CommandRunner, dir string, log *zerolog.Logger) *Store {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Store{
		fs:     fs,
		dir:    dir,
		mover:  fsops.NewMover(fs, log),
		runner: runner,
		log:    log,
	}
}

// Dir returns the store directory
func (s *Store) Dir() string {
	return s.dir
}

// Get reads and validates the manifest for id.
// {id}.json takes precedence over {id}.yaml and {id}.yml.
func (s *Store) Get(id string) (*Manifest, error) {
	if err := security.ValidateThemeID(id); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidName, err)
	}

	for _, ext := range extensions {
		path := filepath.Join(s.dir, id+ext)
		data, err := afero.ReadFile(s.fs, path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read manifest %s: %w", path, err)
		}

		m, err := decode(data, ext)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", core.ErrParse, path, err)
		}
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if m.ID != id {
			return nil, fmt.Errorf("%w: %s declares id %q", core.ErrParse, path, m.ID)
		}

		s.log.Debug().Str("theme", id).Str("file", path).Msg("manifest loaded")
		return m, nil
	}

	return nil, fmt.Errorf("theme %q: %w", id, core.ErrNotFound)
}

func decode(data []byte, ext string) (*Manifest, error) {
	var m Manifest
	if ext == ".json" {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&m); err != nil {
			return nil, err
		}
		return &m, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// IDs lists the theme ids present in the store, sorted
func (s *Store) IDs() ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest store: %w", err)
	}

	seen := make(map[string]struct{})
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if !isManifestExt(ext) {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ext)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	sort.Strings(ids)
	return ids, nil
}

func isManifestExt(ext string) bool {
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// List loads every manifest in the store. Manifests that fail to load are
// logged and skipped.
func (s *Store) List() ([]*Manifest, error) {
	ids, err := s.IDs()
	if err != nil {
		return nil, err
	}

	manifests := make([]*Manifest, 0, len(ids))
	for _, id := range ids {
		m, err := s.Get(id)
		if err != nil {
			s.log.Warn().Err(err).Str("theme", id).Msg("skipping unreadable manifest")
			continue
		}
		manifests = append(manifests, m)
	}
	return manifests, nil
}

// Suggest returns up to three known ids close to id, best match first
func (s *Store) Suggest(id string) []string {
	ids, err := s.IDs()
	if err != nil || len(ids) == 0 {
		return nil
	}

	type candidate struct {
		id       string
		distance int
	}

	needle := strings.ToLower(id)
	limit := len(needle)/3 + 1
	var candidates []candidate
	for _, known := range ids {
		dist := fuzzy.LevenshteinDistance(needle, strings.ToLower(known))
		if fuzzy.MatchNormalizedFold(id, known) || dist <= limit {
			candidates = append(candidates, candidate{id: known, distance: dist})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})

	var out []string
	for i := 0; i < len(candidates) && i < maxSuggestions; i++ {
		out = append(out, candidates[i].id)
	}
	return out
}

// Update clones repoURL and merges its subdir into the store, replacing
// manifests with the same name. It returns the number of manifest files
// now present in the merged tree.
func (s *Store) Update(ctx context.Context, repoURL, subdir string) (int, error) {
	if err := security.ValidateGitURL(repoURL); err != nil {
		return 0, fmt.Errorf("%w: registry url: %v", core.ErrParse, err)
	}
	rel, err := security.ValidateRelativePath(subdir)
	if err != nil {
		return 0, fmt.Errorf("%w: registry subdir: %v", core.ErrParse, err)
	}
	if err := s.runner.RequireCommand("git"); err != nil {
		return 0, fmt.Errorf("%w: %w", core.ErrClone, err)
	}

	tmp, err := fsops.CreateTempDir(s.fs, "tytm-manifest-")
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := s.fs.RemoveAll(tmp); err != nil {
			s.log.Warn().Err(err).Str("dir", tmp).Msg("failed to clean up temp dir")
		}
	}()

	repo := filepath.Join(tmp, "repo")
	s.log.Info().Str("url", repoURL).Msg("fetching manifests")
	if _, err := s.runner.RunCommand(ctx, "git", "clone", "--depth", "1", "--quiet", "--", repoURL, repo); err != nil {
		return 0, fmt.Errorf("%w: %v", core.ErrClone, err)
	}

	src := filepath.Join(repo, filepath.FromSlash(rel))
	if !fsops.IsDir(s.fs, src) {
		return 0, fmt.Errorf("registry has no %q directory: %w", rel, core.ErrNotFound)
	}

	count, err := fsops.CountFiles(s.fs, src)
	if err != nil {
		return 0, fmt.Errorf("scan registry: %w", err)
	}

	if _, err := s.mover.MoveContents(fsops.NewObject(src), s.dir, fsops.Overwrite); err != nil {
		return 0, fmt.Errorf("merge manifests: %w", err)
	}

	s.log.Info().Int("files", count).Str("dir", s.dir).Msg("manifests updated")
	return count, nil
}
