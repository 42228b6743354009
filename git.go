package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// isGitURL checks if the input looks like a Git repository URL rather than a
// local path: a .git suffix, the scp-like git@ form or an explicit ssh:// or
// git:// scheme.
func isGitURL(input string) bool {
	return strings.HasSuffix(input, ".git") ||
		strings.HasPrefix(input, "git@") ||
		strings.HasPrefix(input, "ssh://") ||
		strings.HasPrefix(input, "git://")
}

// cloneGitRepo makes a shallow clone of the default branch under a temporary
// directory. The checkout is named after the repository so the report title
// matches it. The caller removes tempDir.
func cloneGitRepo(url string, console *Console) (repoDir, tempDir string, err error) {
	tempDir, err = os.MkdirTemp("", "kbgen-git-")
	if err != nil {
		return "", "", fmt.Errorf("failed to create temporary directory: %w", err)
	}
	repoDir = filepath.Join(tempDir, repoNameFromURL(url))

	console.Infof("Cloning Git repository '%s' into '%s'...", url, repoDir)
	_, err = git.PlainClone(repoDir, false, &git.CloneOptions{
		URL:           url,
		Progress:      console.progress(),
		ReferenceName: plumbing.HEAD,
		SingleBranch:  true,
		Depth:         1,
	})
	if err != nil {
		_ = os.RemoveAll(tempDir)
		return "", "", fmt.Errorf("failed to clone repository '%s': %w", url, err)
	}
	return repoDir, tempDir, nil
}

// repoNameFromURL derives a directory-like name from a clone URL, used to
// title reports generated from a temporary clone.
func repoNameFromURL(url string) string {
	name := strings.TrimSuffix(strings.TrimRight(url, "/"), ".git")
	if i := strings.LastIndexAny(name, "/:"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return "repo"
	}
	return name
}

// copyFile copies src to dst, replacing dst. Copying a file onto itself is
// refused, since creating dst would truncate src.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if srcInfo, err := in.Stat(); err == nil {
		if dstInfo, err := os.Stat(dst); err == nil && os.SameFile(srcInfo, dstInfo) {
			return fmt.Errorf("%w: %s", ErrSameFile, dst)
		}
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
