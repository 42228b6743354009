package main

import "time"

// FileEntry describes a file whose content was embedded in the report.
type FileEntry struct {
	Path    string // absolute path on disk
	RelPath string // slash-separated, as printed in the "Path:" line
	Size    int64
}

// Summary holds the counters of a single generation run.
type Summary struct {
	Root       string // absolute root directory
	OutputPath string
	Processed  int
	Skipped    int
	Files      []FileEntry
}

// GenerateOptions carries the optional inputs of Generate.
// The zero value uses the default rules, the wall clock and a silent console.
type GenerateOptions struct {
	Rules            *ExclusionRules
	RespectGitignore bool
	Now              func() time.Time
	Console          *Console
}
