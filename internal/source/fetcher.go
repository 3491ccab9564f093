package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/quantmind-br/tytm/internal/config"
	"github.com/quantmind-br/tytm/internal/core"
	"github.com/quantmind-br/tytm/internal/fsops"
	"github.com/quantmind-br/tytm/internal/helpers"
	"github.com/quantmind-br/tytm/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

const (
	downloadName = "download"
	extractDir   = "src"
	stagedDir    = "theme"
)

// Content is a fetched theme tree in a temporary directory.
// Dir holds exactly the theme's files; Close deletes everything.
type Content struct {
	Dir  string
	root string
	fs   afero.Fs
}

// Close removes the temporary directory. It is safe to call more than once.
func (c *Content) Close() error {
	if c == nil || c.root == "" {
		return nil
	}
	root := c.root
	c.root = ""
	if err := c.fs.RemoveAll(root); err != nil {
		return fmt.Errorf("remove temp dir: %w", err)
	}
	return nil
}

// Fetcher downloads or clones sources into temporary directories
type Fetcher struct {
	fs       afero.Fs
	mover    *fsops.Mover
	runner   helpers.CommandRunner
	client   *http.Client
	log      *zerolog.Logger
	progress bool
}

// NewFetcher creates a fetcher using the OS filesystem, the git binary and an
// HTTP client bounded by the configured network timeout
func NewFetcher(cfg *config.Config, log *zerolog.Logger) *Fetcher {
	fs := afero.NewOsFs()
	client := &http.Client{Timeout: cfg.Network.TimeoutDuration()}
	f := NewFetcherWithDeps(fs, helpers.NewOSCommandRunner(), client, log)
	f.progress = true
	return f
}

// NewFetcherWithDeps creates a fetcher with injected dependencies (for testing)
func NewFetcherWithDeps(fs afero.Fs, runner helpers.CommandRunner, client *http.Client, log *zerolog.Logger) *Fetcher {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{
		fs:     fs,
		mover:  fsops.NewMover(fs, log),
		runner: runner,
		client: client,
		log:    log,
	}
}

// SetProgress toggles the download progress bar
func (f *Fetcher) SetProgress(on bool) {
	f.progress = on
}

// Fetch retrieves src into a fresh temporary directory, removes the excluded
// entries and flattens the content directory into Content.Dir.
// The caller owns the result and must Close it.
func (f *Fetcher) Fetch(ctx context.Context, src Source) (*Content, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}

	root, err := fsops.CreateTempDir(f.fs, "tytm-")
	if err != nil {
		return nil, err
	}
	content := &Content{Dir: filepath.Join(root, stagedDir), root: root, fs: f.fs}

	if err := f.fetchInto(ctx, src, root); err != nil {
		if cerr := content.Close(); cerr != nil {
			f.log.Warn().Err(cerr).Str("dir", root).Msg("failed to clean up temp dir")
		}
		return nil, err
	}

	return content, nil
}

func (f *Fetcher) fetchInto(ctx context.Context, src Source, root string) error {
	tree := filepath.Join(root, extractDir)

	switch src.Kind {
	case core.SourceZip:
		if err := f.fetchArchive(ctx, src.Spec.URL, root, tree); err != nil {
			return err
		}
	case core.SourceGit:
		if err := f.clone(ctx, src.Spec.URL, tree); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown source type %q", core.ErrParse, src.Kind)
	}

	contentDir := filepath.Join(tree, filepath.FromSlash(src.Spec.Content))
	if !fsops.IsDir(f.fs, contentDir) {
		return fmt.Errorf("%w: content directory %q not found in %s", core.ErrNotFound, src.Spec.Content, src)
	}

	for _, ex := range src.Spec.Excludes {
		obj := fsops.NewObject(filepath.Join(contentDir, filepath.FromSlash(ex)))
		if !fsops.Exists(f.fs, obj.Path()) {
			f.log.Warn().Str("exclude", ex).Str("source", src.String()).Msg("excluded path not present")
			continue
		}
		if err := f.mover.Remove(obj); err != nil {
			return fmt.Errorf("apply exclude %q: %w", ex, err)
		}
	}

	staged := filepath.Join(root, stagedDir)
	if _, err := f.mover.MoveContents(fsops.NewObject(contentDir), staged, fsops.FailOnConflict); err != nil {
		return fmt.Errorf("stage content: %w", err)
	}

	f.log.Debug().Str("source", src.String()).Str("dir", staged).Msg("source fetched")
	return nil
}

func (f *Fetcher) fetchArchive(ctx context.Context, url, root, tree string) error {
	archive := filepath.Join(root, downloadName)
	if err := f.download(ctx, url, archive); err != nil {
		return err
	}

	f.log.Debug().Str("archive", archive).Msg("extracting")
	if err := helpers.ExtractArchive(f.fs, archive, tree); err != nil {
		return fmt.Errorf("%w: %v", core.ErrExtraction, err)
	}

	if err := f.fs.Remove(archive); err != nil {
		f.log.Debug().Err(err).Msg("failed to remove downloaded archive")
	}
	return nil
}

func (f *Fetcher) download(ctx context.Context, url, dst string) error {
	f.log.Info().Str("url", url).Msg("downloading")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: create request: %v", core.ErrNetwork, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: download failed with status %d (URL: %s)", core.ErrNetwork, resp.StatusCode, url)
	}

	out, err := f.fs.Create(dst)
	if err != nil {
		return fmt.Errorf("create download file: %w", err)
	}
	defer out.Close()

	var w io.Writer = out
	if f.progress {
		pw := ui.NewProgressWriter(out, resp.ContentLength, "Downloading")
		defer pw.Close()
		w = pw
	}

	written, err := io.Copy(w, resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", core.ErrNetwork, err)
	}

	f.log.Debug().Int64("bytes", written).Str("url", url).Msg("download complete")
	return nil
}

func (f *Fetcher) clone(ctx context.Context, url, dst string) error {
	if err := f.runner.RequireCommand("git"); err != nil {
		return fmt.Errorf("%w: %w", core.ErrClone, err)
	}

	f.log.Info().Str("url", url).Msg("cloning")
	if _, err := f.runner.RunCommand(ctx, "git", "clone", "--depth", "1", "--quiet", "--", url, dst); err != nil {
		return fmt.Errorf("%w: %v", core.ErrClone, err)
	}

	// repository metadata is never part of a theme
	if err := f.fs.RemoveAll(filepath.Join(dst, ".git")); err != nil {
		return fmt.Errorf("remove .git: %w", err)
	}
	return nil
}
