package main

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yml
var defaultRulesYAML []byte

// RuleOverrides mirrors the keys of a rules file. A nil list keeps the current
// set, a non-nil list (even an empty one) replaces it. MaxFileSize 0 keeps the
// current threshold.
type RuleOverrides struct {
	Dirs        []string `yaml:"ignored_dirs"`
	Files       []string `yaml:"ignored_files"`
	Extensions  []string `yaml:"ignored_extensions"`
	MaxFileSize int64    `yaml:"max_file_size"`
}

// ExclusionRules decides which directories are pruned and which files are skipped.
type ExclusionRules struct {
	dirs        map[string]struct{}
	files       map[string]struct{}
	extensions  map[string]struct{}
	MaxFileSize int64
}

// DefaultRules returns the built-in rule set parsed from the embedded YAML.
func DefaultRules() *ExclusionRules {
	var o RuleOverrides
	if err := yaml.Unmarshal(defaultRulesYAML, &o); err != nil {
		panic(fmt.Sprintf("embedded default rules are invalid: %v", err))
	}
	return &ExclusionRules{
		dirs:        toSet(o.Dirs),
		files:       toSet(o.Files),
		extensions:  toSet(normalizeExtensions(o.Extensions)),
		MaxFileSize: o.MaxFileSize,
	}
}

// NewRules builds a rule set from explicit lists, without any defaults.
func NewRules(dirs, files, extensions []string, maxFileSize int64) (*ExclusionRules, error) {
	r := &ExclusionRules{
		dirs:        toSet(dirs),
		files:       toSet(files),
		extensions:  toSet(normalizeExtensions(extensions)),
		MaxFileSize: maxFileSize,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// With returns a copy of r with the non-empty parts of o applied.
func (r *ExclusionRules) With(o RuleOverrides) *ExclusionRules {
	out := &ExclusionRules{
		dirs:        r.dirs,
		files:       r.files,
		extensions:  r.extensions,
		MaxFileSize: r.MaxFileSize,
	}
	if o.Dirs != nil {
		out.dirs = toSet(o.Dirs)
	}
	if o.Files != nil {
		out.files = toSet(o.Files)
	}
	if o.Extensions != nil {
		out.extensions = toSet(normalizeExtensions(o.Extensions))
	}
	if o.MaxFileSize != 0 {
		out.MaxFileSize = o.MaxFileSize
	}
	return out
}

// Validate checks the size threshold.
func (r *ExclusionRules) Validate() error {
	if r.MaxFileSize <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxFileSize, r.MaxFileSize)
	}
	return nil
}

// SkipDir reports whether a directory with this base name must be pruned.
func (r *ExclusionRules) SkipDir(name string) bool {
	_, ok := r.dirs[name]
	return ok
}

// SkipFile reports whether a file is excluded by name, extension or the hidden
// marker. Size is checked separately since it needs a stat.
func (r *ExclusionRules) SkipFile(name string) bool {
	if _, ok := r.files[name]; ok {
		return true
	}
	if _, ok := r.extensions[strings.ToLower(filepath.Ext(name))]; ok {
		return true
	}
	return strings.HasPrefix(name, ".")
}

// TooLarge reports whether size is over the threshold. A file of exactly
// MaxFileSize bytes is accepted.
func (r *ExclusionRules) TooLarge(size int64) bool {
	return size > r.MaxFileSize
}

// Dirs returns the ignored directory names, sorted.
func (r *ExclusionRules) Dirs() []string { return sortedKeys(r.dirs) }

// Files returns the ignored file names, sorted.
func (r *ExclusionRules) Files() []string { return sortedKeys(r.files) }

// Extensions returns the ignored extensions, sorted.
func (r *ExclusionRules) Extensions() []string { return sortedKeys(r.extensions) }

// loadRulesFile reads overrides from a YAML file with the same keys as
// default_rules.yml.
func loadRulesFile(path string) (RuleOverrides, error) {
	var o RuleOverrides
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return o, fmt.Errorf("%w: %s", ErrRulesFileNotFound, path)
		}
		return o, fmt.Errorf("error reading rules file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &o); err != nil {
		return o, fmt.Errorf("error parsing rules file %s: %w", path, err)
	}
	return o, nil
}

// normalizeExtensions lowercases extensions and adds the leading dot.
func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if ext[0] != '.' {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			set[item] = struct{}{}
		}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
