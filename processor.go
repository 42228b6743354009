package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	gitignore "github.com/monochromegane/go-gitignore"
)

// DefaultOutputFile is the report name used by the CLI.
const DefaultOutputFile = "knowledge_base.md"

// errNotText marks files that cannot be decoded as UTF-8. They are skipped
// without a diagnostic, like permission errors.
var errNotText = errors.New("content is not valid UTF-8 text")

var newlineNormalizer = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Generate walks rootPath and writes the knowledge base to outputFileName
// inside it, overwriting any previous report.
//
// Only setup problems are returned: a missing root, a root that is not a
// directory, an invalid rule set, an output file that cannot be created or
// written. Files that are excluded or cannot be read just increase the skipped
// counter.
func Generate(rootPath, outputFileName string, opts GenerateOptions) (*Summary, error) {
	rules := opts.Rules
	if rules == nil {
		rules = DefaultRules()
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("error resolving path %s: %w", rootPath, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("error accessing path %s: %w", rootPath, err)
	}
	// The title names the real directory, not a link to it.
	if absRoot, err = filepath.EvalSymlinks(absRoot); err != nil {
		return nil, fmt.Errorf("error resolving path %s: %w", rootPath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, absRoot)
	}

	outputPath := outputFileName
	if !filepath.IsAbs(outputPath) {
		outputPath = filepath.Join(absRoot, outputFileName)
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("error creating output file %s: %w", outputPath, err)
	}

	summary := &Summary{Root: absRoot, OutputPath: outputPath}
	w := &walker{
		root:       absRoot,
		outputPath: filepath.Clean(outputPath),
		rules:      rules,
		console:    opts.Console,
		rw:         newReportWriter(out),
		summary:    summary,
	}
	if opts.RespectGitignore {
		w.ignore = loadGitignore(absRoot, opts.Console)
	}

	w.rw.writeHeader(filepath.Base(absRoot), now())
	if err := w.walkDir(absRoot, 0); err != nil {
		out.Close()
		return nil, err
	}
	w.rw.writeSummary(summary, rules)

	if err := w.rw.flush(); err != nil {
		out.Close()
		return nil, fmt.Errorf("error writing output file %s: %w", outputPath, err)
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("error closing output file %s: %w", outputPath, err)
	}
	return summary, nil
}

// walker holds the traversal state of one run.
type walker struct {
	root       string
	outputPath string
	rules      *ExclusionRules
	ignore     gitignore.IgnoreMatcher
	console    *Console
	rw         *reportWriter
	summary    *Summary
}

// walkDir emits the heading and the files of dir, then descends into the
// subdirectories that survived pruning. Excluded subdirectories are dropped
// from the list before recursion and are never opened.
func (w *walker) walkDir(dir string, depth int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if depth == 0 {
			return fmt.Errorf("error reading root directory %s: %w", dir, err)
		}
		w.console.Warnf("could not read directory %s: %v", dir, err)
		return nil
	}

	var subdirs, files []string
	for _, e := range entries {
		name := e.Name()
		path := filepath.Join(dir, name)
		switch {
		case e.IsDir():
			if w.rules.SkipDir(name) || w.ignored(path, true) {
				continue
			}
			subdirs = append(subdirs, name)
		case e.Type()&fs.ModeSymlink != 0 && isDir(path):
			// directory links are listed but never followed
		default:
			files = append(files, name)
		}
	}

	w.rw.writeDirHeading(depth, filepath.Base(dir))
	relDir := w.relDir(dir)
	for _, name := range files {
		w.processFile(dir, relDir, depth, name)
	}
	if w.rw.err != nil {
		return fmt.Errorf("error writing output file %s: %w", w.outputPath, w.rw.err)
	}

	for _, name := range subdirs {
		if err := w.walkDir(filepath.Join(dir, name), depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) processFile(dir, relDir string, depth int, name string) {
	path := filepath.Join(dir, name)
	if path == w.outputPath || w.rules.SkipFile(name) || w.ignored(path, false) {
		w.summary.Skipped++
		return
	}

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || w.rules.TooLarge(info.Size()) {
		w.summary.Skipped++
		return
	}

	content, err := readText(path)
	if err != nil {
		if !errors.Is(err, errNotText) && !errors.Is(err, fs.ErrPermission) {
			w.console.Errorf("processing %s: %v", path, err)
		}
		w.summary.Skipped++
		return
	}

	relPath := relDir + "/" + name
	w.rw.writeEntry(depth, name, relPath, content)
	w.summary.Processed++
	w.summary.Files = append(w.summary.Files, FileEntry{
		Path:    path,
		RelPath: relPath,
		Size:    info.Size(),
	})
}

func (w *walker) ignored(path string, isDir bool) bool {
	return w.ignore != nil && w.ignore.Match(path, isDir)
}

// relDir returns dir relative to the root with forward slashes; "." for the root.
func (w *walker) relDir(dir string) string {
	rel, err := filepath.Rel(w.root, dir)
	if err != nil {
		return dir
	}
	return filepath.ToSlash(rel)
}

// readText returns the file content with line endings normalised to "\n".
func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", errNotText
	}
	return newlineNormalizer.Replace(string(data)), nil
}

// loadGitignore returns a matcher for the root .gitignore, or nil when there is
// none or it cannot be parsed.
func loadGitignore(root string, console *Console) gitignore.IgnoreMatcher {
	path := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	matcher, err := gitignore.NewGitIgnore(path)
	if err != nil {
		console.Warnf("could not parse .gitignore file %s: %v", path, err)
		return nil
	}
	return matcher
}

// isDir reports whether path (following links) is a directory.
func isDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
