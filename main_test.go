package main

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs a fresh root command and returns its stdout and stderr.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--no-color"))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func readReport(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestNewRootCmd(t *testing.T) {
	cmd := newRootCmd()

	assert.Equal(t, "kbgen [ROOT]", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.NotEmpty(t, cmd.Version)

	for _, name := range []string{
		"output", "max-size", "ignore-dir", "ignore-file", "ignore-ext", "rules",
		"gitignore", "pick", "count-tokens", "tokenizer", "model", "tokenizer-file",
		"pdf", "clipboard", "no-color",
	} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag %s", name)
	}
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.Equal(t, DefaultOutputFile, cmd.Flags().Lookup("output").DefValue)
	assert.Equal(t, "o", cmd.Flags().Lookup("output").Shorthand)
}

func TestRootCmd_GeneratesReport(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"app.py":              "print('app')",
		"node_modules/dep.js": "dep",
	})

	stdout, _, err := execute(t, "", root)
	require.NoError(t, err)

	report := readReport(t, filepath.Join(root, DefaultOutputFile))
	assert.Contains(t, report, "# Knowledge Base for "+filepath.Base(root)+"\n")
	assert.Contains(t, report, "Path: ./app.py")
	assert.NotContains(t, report, "dep.js")
	assert.Contains(t, stdout, "Knowledge base generated at: "+filepath.Join(root, DefaultOutputFile))
	assert.Contains(t, stdout, "Files processed: 1")
	assert.Contains(t, stdout, "Files skipped: 1")
}

func TestRootCmd_PromptsForRoot(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"main.go": "package main"})

	stdout, _, err := execute(t, "  "+root+"  \n")
	require.NoError(t, err)

	assert.Contains(t, stdout, rootPrompt)
	assert.FileExists(t, filepath.Join(root, DefaultOutputFile))
}

func TestRootCmd_EmptyPrompt(t *testing.T) {
	_, _, err := execute(t, "\n")
	assert.ErrorIs(t, err, ErrNoRoot)
}

func TestRootCmd_MissingRoot(t *testing.T) {
	_, _, err := execute(t, "", filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestRootCmd_FlagOverrides(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"keep.go":           "package keep",
		"skip.py":           "skipped = True",
		"big.go":            strings.Repeat("x", 64),
		"node_modules/n.go": "package n",
		"vendor/v.go":       "package v",
	})

	_, _, err := execute(t, "", root,
		"--output", "kb.txt",
		"--ignore-ext", "PY",
		"--ignore-dir", "vendor",
		"--max-size", "32",
	)
	require.NoError(t, err)

	report := readReport(t, filepath.Join(root, "kb.txt"))
	assert.Contains(t, report, "Path: ./keep.go")
	assert.Contains(t, report, "Path: node_modules/n.go")
	assert.NotContains(t, report, "skip.py")
	assert.NotContains(t, report, "big.go")
	assert.NotContains(t, report, "v.go")
	assert.Contains(t, report, "Tamaño máximo permitido: 0.032 KB\n")
	assert.Contains(t, report, "Extensiones ignoradas: .py\n")
	assert.Contains(t, report, "Directorios ignorados: vendor\n")
	assert.Contains(t, report, "Archivos procesados: 2\n")
	assert.Contains(t, report, "Archivos omitidos: 3\n")
}

func TestRootCmd_ConfigFile(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"small.go":          "package small",
		"big.go":            strings.Repeat("y", 30),
		"vendor/v.go":       "package v",
		"node_modules/n.js": "n",
	})
	cfg := filepath.Join(t.TempDir(), "kbgen.toml")
	content := "output = \"context.txt\"\nmax_size = 20\nignored_dirs = [\"vendor\"]\n"
	require.NoError(t, os.WriteFile(cfg, []byte(content), 0o644))

	stdout, _, err := execute(t, "", root, "--config", cfg)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Using config file: "+cfg)
	report := readReport(t, filepath.Join(root, "context.txt"))
	assert.Contains(t, report, "Path: ./small.go")
	assert.Contains(t, report, "Path: node_modules/n.js")
	assert.NotContains(t, report, "big.go")
	assert.NotContains(t, report, "📁 vendor/")
	assert.Contains(t, report, "Tamaño máximo permitido: 0.02 KB\n")
}

func TestRootCmd_FlagsBeatConfigFile(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.go": strings.Repeat("a", 50)})
	cfg := filepath.Join(t.TempDir(), "kbgen.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("max_size = 10\n"), 0o644))

	_, _, err := execute(t, "", root, "--config", cfg, "--max-size", "100")
	require.NoError(t, err)

	report := readReport(t, filepath.Join(root, DefaultOutputFile))
	assert.Contains(t, report, "Path: ./a.go")
}

func TestRootCmd_ConfigFileInWorkingDirectory(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	wd := t.TempDir()
	chdir(t, wd)
	require.NoError(t, os.WriteFile(filepath.Join(wd, "kbgen.toml"), []byte("output = \"from-config.md\"\n"), 0o644))
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.go": "package a"})

	stdout, _, err := execute(t, "", root)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Using config file: ")
	report := readReport(t, filepath.Join(root, "from-config.md"))
	assert.Contains(t, report, "Path: ./a.go")
}

func TestRootCmd_NoColorFromConfigFile(t *testing.T) {
	saved := color.NoColor
	t.Cleanup(func() { color.NoColor = saved })
	color.NoColor = false

	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.go": "package a"})
	cfg := filepath.Join(t.TempDir(), "kbgen.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("no_color = true\n"), 0o644))

	cmd := newRootCmd()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stdout)
	cmd.SetArgs([]string{root, "--config", cfg})
	require.NoError(t, cmd.Execute())

	assert.True(t, color.NoColor)
	assert.NotContains(t, stdout.String(), "\x1b[")
}

func TestRootCmd_MissingConfigFile(t *testing.T) {
	_, _, err := execute(t, "", t.TempDir(), "--config", filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestRootCmd_RulesFile(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.go":          "package a",
		"a_test.go":     "package a",
		"notes.md":      "# notes",
		"target/out.rs": "fn x() {}",
	})
	rulesPath := filepath.Join(t.TempDir(), "rules.yml")
	rules := "ignored_dirs: [target]\nignored_files: [a_test.go]\nignored_extensions: []\n"
	require.NoError(t, os.WriteFile(rulesPath, []byte(rules), 0o644))

	_, _, err := execute(t, "", root, "--rules", rulesPath, "--output", "kb.txt")
	require.NoError(t, err)

	report := readReport(t, filepath.Join(root, "kb.txt"))
	assert.Contains(t, report, "Path: ./a.go")
	assert.Contains(t, report, "Path: ./notes.md")
	assert.NotContains(t, report, "a_test.go")
	assert.NotContains(t, report, "out.rs")
	assert.Contains(t, report, "Extensiones ignoradas: \n")
	assert.Contains(t, report, "Directorios ignorados: target\n")
}

func TestRootCmd_MissingRulesFile(t *testing.T) {
	_, _, err := execute(t, "", t.TempDir(), "--rules", filepath.Join(t.TempDir(), "missing.yml"))
	assert.ErrorIs(t, err, ErrRulesFileNotFound)
}

func TestRootCmd_InvalidMaxSize(t *testing.T) {
	_, _, err := execute(t, "", t.TempDir(), "--max-size=-1")
	assert.ErrorIs(t, err, ErrInvalidMaxFileSize)
}

func TestRootCmd_PDF(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"main.go": "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n",
		"util.py": "def f():\n    return 'ñ'\n",
	})
	pdfPath := filepath.Join(t.TempDir(), "kb.pdf")

	stdout, _, err := execute(t, "", root, "--pdf", pdfPath)
	require.NoError(t, err)

	assert.Contains(t, stdout, "PDF saved to "+pdfPath)
	data, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestRootCmd_TooManyArgs(t *testing.T) {
	_, _, err := execute(t, "", t.TempDir(), t.TempDir())
	assert.Error(t, err)
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
