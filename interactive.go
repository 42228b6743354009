package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	fuzzyfinder "github.com/ktr0731/go-fuzzyfinder"
)

const rootPrompt = "Enter the full repository path: "

// promptRoot asks for the repository path on in. Surrounding whitespace and
// quotes (as pasted from a file manager) are removed.
func promptRoot(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, rootPrompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("error reading repository path: %w", err)
	}
	path := strings.Trim(strings.TrimSpace(line), `"'`)
	if path == "" {
		return "", ErrNoRoot
	}
	return path, nil
}

// listCandidateDirs returns the directories under base that a user may pick as
// a root, skipping the ones the rules would prune anyway.
func listCandidateDirs(base string, rules *ExclusionRules) ([]string, error) {
	candidates := []string{base}
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == base || !d.IsDir() {
			return nil
		}
		if rules.SkipDir(d.Name()) || strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		candidates = append(candidates, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning for directories: %w", err)
	}
	return candidates, nil
}

// pickDirectory opens a fuzzy finder over the directories under the current
// one. An empty path with a nil error means the user aborted.
func pickDirectory(rules *ExclusionRules) (string, error) {
	candidates, err := listCandidateDirs(".", rules)
	if err != nil {
		return "", err
	}

	idx, err := fuzzyfinder.Find(
		candidates,
		func(i int) string {
			return candidates[i]
		},
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return "Select the repository root. Press Enter to confirm."
			}
			entries, statErr := os.ReadDir(candidates[i])
			if statErr != nil {
				return fmt.Sprintf("Path: %s\nError reading directory: %v", candidates[i], statErr)
			}
			var b strings.Builder
			fmt.Fprintf(&b, "Path: %s\nEntries: %d\n\n", candidates[i], len(entries))
			for _, e := range entries {
				name := e.Name()
				if e.IsDir() {
					name += "/"
				}
				b.WriteString(name + "\n")
			}
			return b.String()
		}),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return "", nil
		}
		return "", fmt.Errorf("fuzzy finder error: %w", err)
	}
	return candidates[idx], nil
}
