package main

import "errors"

// Setup errors returned by Generate and the rules loader. Per-file problems are
// never reported through these; they only move the skip counter.
var (
	// ErrNotDirectory is returned when the root path exists but is not a directory.
	ErrNotDirectory = errors.New("root path is not a directory")

	// ErrInvalidMaxFileSize is returned when the size threshold is not positive.
	ErrInvalidMaxFileSize = errors.New("invalid max file size: must be positive")

	// ErrNoRoot is returned when no repository path was given or entered.
	ErrNoRoot = errors.New("no repository path provided")

	// ErrRulesFileNotFound is returned when an explicit --rules file does not exist.
	ErrRulesFileNotFound = errors.New("rules file not found")

	// ErrSameFile is returned when a report would be copied onto itself.
	ErrSameFile = errors.New("source and destination are the same file")
)
