// Package catalog retrieves the reference catalog of known-good playbooks.
//
// The catalog lives in a git repository. Every load clones it fresh into a
// scoped scratch directory so the catalog always reflects the latest
// upstream state; there is no incremental sync and no local copy survives
// the call.
package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v5"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/remedyd/internal/config"
	"github.com/fyrsmithlabs/remedyd/internal/remedy"
	"github.com/fyrsmithlabs/remedyd/internal/workdir"
)

// SourceUnavailableError indicates the catalog repository could not be
// retrieved. It aborts the current incident's processing; the loop treats
// it as a per-cycle failure.
type SourceUnavailableError struct {
	URL string
	Err error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("catalog repository %s unavailable: %v", e.URL, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// playbookExtensions are the file extensions recognized as playbooks.
var playbookExtensions = map[string]bool{
	".yml":  true,
	".yaml": true,
}

// Library loads the playbook catalog from its reference repository.
type Library struct {
	cfg    config.CatalogConfig
	logger *zap.Logger
}

// NewLibrary creates a catalog library.
func NewLibrary(cfg config.CatalogConfig, logger *zap.Logger) *Library {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Library{cfg: cfg, logger: logger}
}

// RepoURL returns the catalog repository URL, used in ticket comments that
// point reporters at an existing playbook.
func (l *Library) RepoURL() string {
	return l.cfg.RepoURL
}

// Load clones the catalog repository and returns all playbooks in it,
// ordered by repository-relative path.
func (l *Library) Load(ctx context.Context) ([]remedy.Document, error) {
	if l.cfg.CloneTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.CloneTimeout.Duration())
		defer cancel()
	}

	dir, release, err := workdir.Acquire("remedyd-catalog")
	if err != nil {
		return nil, err
	}
	defer release()

	l.logger.Info("cloning playbook catalog", zap.String("url", l.cfg.RepoURL))

	if _, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL: l.cfg.RepoURL,
	}); err != nil {
		return nil, &SourceUnavailableError{URL: l.cfg.RepoURL, Err: err}
	}

	docs, err := collectPlaybooks(dir)
	if err != nil {
		return nil, err
	}

	l.logger.Info("catalog loaded", zap.Int("playbooks", len(docs)))
	return docs, nil
}

// collectPlaybooks walks the clone and reads every recognized playbook.
func collectPlaybooks(root string) ([]remedy.Document, error) {
	var docs []remedy.Document

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == git.GitDirName {
				return filepath.SkipDir
			}
			return nil
		}
		if !playbookExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read playbook %s: %w", path, err)
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		docs = append(docs, remedy.Document{
			Content: string(content),
			Source:  remedy.SourceCatalog,
			Path:    filepath.ToSlash(rel),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate catalog: %w", err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}
