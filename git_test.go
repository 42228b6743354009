package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsGitURL(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"https://github.com/user/repo.git", true},
		{"git@github.com:user/repo.git", true},
		{"git@github.com:user/repo", true},
		{"ssh://git@host/repo", true},
		{"git://host/repo", true},
		{"/home/user/project", false},
		{".", false},
		{"https://github.com/user/repo", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isGitURL(tt.input), tt.input)
	}
}

func TestRepoNameFromURL(t *testing.T) {
	assert.Equal(t, "repo", repoNameFromURL("https://github.com/user/repo.git"))
	assert.Equal(t, "repo", repoNameFromURL("git@github.com:user/repo.git"))
	assert.Equal(t, "project", repoNameFromURL("ssh://git@host/group/project/"))
	assert.Equal(t, "repo", repoNameFromURL("git@host:"))
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.md")
	dst := filepath.Join(dir, "out", "nested", "dst.md")
	require.NoError(t, os.WriteFile(src, []byte("report body"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.md"), []byte("old"), 0o644))

	require.NoError(t, copyFile(src, dst))
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "report body", string(got))

	require.NoError(t, copyFile(src, filepath.Join(dir, "stale.md")))
	got, err = os.ReadFile(filepath.Join(dir, "stale.md"))
	require.NoError(t, err)
	assert.Equal(t, "report body", string(got))

	assert.Error(t, copyFile(filepath.Join(dir, "missing"), dst))
}

func TestCopyFile_OntoItself(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.md")
	require.NoError(t, os.WriteFile(path, []byte("report body"), 0o644))

	err := copyFile(path, path)
	assert.ErrorIs(t, err, ErrSameFile)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "report body", string(got))
}

// newBareRepo commits files into a fresh repository and returns a file:// URL
// of a bare clone of it, named repo.git.
func newBareRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	work := filepath.Join(dir, "work")
	writeTree(t, work, files)

	repo, err := git.PlainInit(work, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	for name := range files {
		_, err := wt.Add(name)
		require.NoError(t, err)
	}
	_, err = wt.Commit("initial commit", &git.CommitOptions{
		Author: &object.Signature{Name: "kbgen", Email: "kbgen@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	bare := filepath.Join(dir, "repo.git")
	_, err = git.PlainClone(bare, true, &git.CloneOptions{URL: work})
	require.NoError(t, err)
	return "file://" + filepath.ToSlash(bare)
}

func TestRootCmd_GitURL(t *testing.T) {
	url := newBareRepo(t, map[string]string{
		"main.go":     "package main",
		"pkg/util.go": "package pkg",
	})

	t.Run("absolute output", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "kb.md")

		stdout, _, err := execute(t, "", url, "--output", out)
		require.NoError(t, err)

		report := readReport(t, out)
		assert.Contains(t, report, "# Knowledge Base for repo\n")
		assert.Contains(t, report, "package main")
		assert.Contains(t, report, "Path: pkg/util.go")
		assert.Contains(t, stdout, "Knowledge base generated at: "+out)
	})

	t.Run("relative output is copied out of the clone", func(t *testing.T) {
		wd := t.TempDir()
		chdir(t, wd)

		stdout, _, err := execute(t, "", url)
		require.NoError(t, err)

		report := readReport(t, filepath.Join(wd, DefaultOutputFile))
		assert.Contains(t, report, "package main")
		assert.Contains(t, stdout, "Knowledge base generated at: "+DefaultOutputFile)
	})
}
