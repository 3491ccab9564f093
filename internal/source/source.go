// Package source describes where a theme's files come from and fetches them
// into a temporary directory.
package source

import (
	"fmt"

	"github.com/quantmind-br/tytm/internal/core"
	"github.com/quantmind-br/tytm/internal/security"
)

// Spec is the payload shared by every source kind.
// Content is the directory inside the fetched tree that holds the theme;
// Excludes are removed from it before the theme is staged. Both are
// slash-separated and relative.
type Spec struct {
	URL      string   `json:"url" yaml:"url"`
	Content  string   `json:"content" yaml:"content"`
	Excludes []string `json:"excludes" yaml:"excludes"`
}

// Source is a tagged union serialised as {"type": "zip", "value": {...}}
type Source struct {
	Kind core.SourceKind `json:"type" yaml:"type"`
	Spec Spec            `json:"value" yaml:"value"`
}

// Validate checks the kind, the URL against what that kind can fetch, and
// every relative path. It normalises
// Content and Excludes in place.
func (s *Source) Validate() error {
	switch s.Kind {
	case core.SourceZip, core.SourceGit:
	default:
		return fmt.Errorf("%w: unknown source type %q", core.ErrParse, s.Kind)
	}

	validateURL := security.ValidateArchiveURL
	if s.Kind == core.SourceGit {
		validateURL = security.ValidateGitURL
	}
	if err := validateURL(s.Spec.URL); err != nil {
		return fmt.Errorf("%w: %v", core.ErrParse, err)
	}

	content, err := security.ValidateRelativePath(s.Spec.Content)
	if err != nil {
		return fmt.Errorf("%w: content: %v", core.ErrParse, err)
	}
	s.Spec.Content = content

	for i, ex := range s.Spec.Excludes {
		cleaned, err := security.ValidateRelativePath(ex)
		if err != nil {
			return fmt.Errorf("%w: exclude: %v", core.ErrParse, err)
		}
		if cleaned == "." {
			return fmt.Errorf("%w: exclude %q removes the whole content", core.ErrParse, ex)
		}
		s.Spec.Excludes[i] = cleaned
	}

	return nil
}

func (s Source) String() string {
	return fmt.Sprintf("%s+%s", s.Kind, s.Spec.URL)
}
