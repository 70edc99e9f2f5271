package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/remedyd/internal/config"
	"github.com/fyrsmithlabs/remedyd/internal/remedy"
)

// seedRepo creates a local git repository containing the given files.
func seedRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	for path, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}

	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, wt.AddWithOptions(&git.AddOptions{All: true}))

	_, err = wt.Commit("seed", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	return dir
}

func TestLoad(t *testing.T) {
	repoDir := seedRepo(t, map[string]string{
		"restart-service.yml":    "---\n- hosts: all\n",
		"nested/clean-disk.yaml": "---\n- hosts: storage\n",
		"README.md":              "not a playbook",
		"scripts/run.sh":         "#!/bin/sh\n",
	})

	library := NewLibrary(config.CatalogConfig{RepoURL: repoDir}, nil)

	docs, err := library.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)

	// Ordered by repository-relative path.
	assert.Equal(t, "nested/clean-disk.yaml", docs[0].Path)
	assert.Equal(t, "restart-service.yml", docs[1].Path)

	for _, doc := range docs {
		assert.Equal(t, remedy.SourceCatalog, doc.Source)
		assert.NotEmpty(t, doc.Content)
	}
}

func TestLoad_EmptyCatalog(t *testing.T) {
	repoDir := seedRepo(t, map[string]string{"README.md": "nothing here"})
	library := NewLibrary(config.CatalogConfig{RepoURL: repoDir}, nil)

	docs, err := library.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestLoad_SourceUnavailable(t *testing.T) {
	library := NewLibrary(config.CatalogConfig{
		RepoURL: filepath.Join(t.TempDir(), "does-not-exist"),
	}, nil)

	_, err := library.Load(context.Background())
	require.Error(t, err)

	var unavailable *SourceUnavailableError
	assert.ErrorAs(t, err, &unavailable)
}

func TestLoad_RemovesScratchDirectory(t *testing.T) {
	repoDir := seedRepo(t, map[string]string{"a.yml": "---\n"})

	scratch := t.TempDir()
	t.Setenv("TMPDIR", scratch)
	library := NewLibrary(config.CatalogConfig{RepoURL: repoDir}, nil)

	_, err := library.Load(context.Background())
	require.NoError(t, err)

	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
