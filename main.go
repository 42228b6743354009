// Command kbgen turns a repository into a single annotated text file, the
// "knowledge base", ready to be pasted into a tool that consumes plain text.
//
// Usage:
//
//	kbgen [ROOT]
//
// ROOT is a local directory or a Git URL. Without it, kbgen asks for the path.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is the application version, set via ldflags.
var version = "dev"

// cliOptions is the configuration of one run after defaults, the config file
// and flags have been merged.
type cliOptions struct {
	Output      string
	Rules       *ExclusionRules
	Gitignore   bool
	Pick        bool
	CountTokens bool
	Tokenizer   TokenizerSettings
	PDF         string
	Clipboard   bool
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string
	var console *Console

	cmd := &cobra.Command{
		Use:   "kbgen [ROOT]",
		Short: "Generate a knowledge base file from a repository",
		Long: `kbgen walks a repository, skips dependency folders, build output, secrets
and binary assets, and concatenates every remaining source file into a single
knowledge_base.md written at the repository root.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
				color.NoColor = true
			}
			console = NewConsole(cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err := initConfig(v, cfgFile, console); err != nil {
				return err
			}
			if v.GetBool("no_color") {
				color.NoColor = true
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := resolveOptions(v)
			if err != nil {
				return err
			}
			return run(cmd, args, opts, console)
		},
	}

	flags := cmd.Flags()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/kbgen/kbgen.toml or ./kbgen.toml)")

	flags.StringP("output", "o", DefaultOutputFile, "Name of the report written inside the repository root")
	v.BindPFlag("output", flags.Lookup("output"))
	flags.Int64P("max-size", "s", 0, "Maximum file size in bytes (default from rules, 100000)")
	v.BindPFlag("max_size", flags.Lookup("max-size"))
	flags.StringSlice("ignore-dir", nil, "Directory names to prune, replacing the default set (comma-separated)")
	v.BindPFlag("ignored_dirs", flags.Lookup("ignore-dir"))
	flags.StringSlice("ignore-file", nil, "File names to skip, replacing the default set (comma-separated)")
	v.BindPFlag("ignored_files", flags.Lookup("ignore-file"))
	flags.StringSlice("ignore-ext", nil, "Extensions to skip, replacing the default set (comma-separated, e.g. .log,.css)")
	v.BindPFlag("ignored_extensions", flags.Lookup("ignore-ext"))
	flags.String("rules", "", "YAML file with ignored_dirs, ignored_files, ignored_extensions and max_file_size")
	v.BindPFlag("rules", flags.Lookup("rules"))
	flags.Bool("gitignore", false, "Also skip paths matched by the root .gitignore")
	v.BindPFlag("gitignore", flags.Lookup("gitignore"))
	flags.Bool("pick", false, "Pick the repository root with a fuzzy finder")
	v.BindPFlag("pick", flags.Lookup("pick"))

	flags.Bool("count-tokens", false, "Count the tokens of the generated report")
	v.BindPFlag("count_tokens", flags.Lookup("count-tokens"))
	flags.String("tokenizer", "tiktoken", "Tokenizer to use: tiktoken or huggingface")
	v.BindPFlag("tokenizer", flags.Lookup("tokenizer"))
	flags.String("model", "", "Model name for the tokenizer (e.g., gpt-4o, gpt2)")
	v.BindPFlag("model", flags.Lookup("model"))
	flags.String("tokenizer-file", "", "Path to a local tokenizer.json")
	v.BindPFlag("tokenizer_file", flags.Lookup("tokenizer-file"))

	flags.String("pdf", "", "Also render the report as a PDF at this path")
	v.BindPFlag("pdf", flags.Lookup("pdf"))
	flags.BoolP("clipboard", "c", false, "Copy the report to the clipboard")
	v.BindPFlag("clipboard", flags.Lookup("clipboard"))
	flags.Bool("no-color", false, "Disable coloured console output")
	v.BindPFlag("no_color", flags.Lookup("no-color"))

	v.SetDefault("output", DefaultOutputFile)
	v.SetDefault("tokenizer", "tiktoken")

	return cmd
}

// initConfig reads the config file, if any. Environment variables are not
// consulted.
func initConfig(v *viper.Viper, cfgFile string, console *Console) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "kbgen"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("kbgen")
		v.SetConfigType("toml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	console.Infof("Using config file: %s", v.ConfigFileUsed())
	return nil
}

// resolveOptions builds the rule set as defaults < rules file < config/flags.
func resolveOptions(v *viper.Viper) (*cliOptions, error) {
	rules := DefaultRules()
	if path := v.GetString("rules"); path != "" {
		fileOverrides, err := loadRulesFile(path)
		if err != nil {
			return nil, err
		}
		rules = rules.With(fileOverrides)
	}
	rules = rules.With(overridesFromConfig(v))
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	return &cliOptions{
		Output:      v.GetString("output"),
		Rules:       rules,
		Gitignore:   v.GetBool("gitignore"),
		Pick:        v.GetBool("pick"),
		CountTokens: v.GetBool("count_tokens"),
		Tokenizer: TokenizerSettings{
			Type:  v.GetString("tokenizer"),
			Model: v.GetString("model"),
			File:  v.GetString("tokenizer_file"),
		},
		PDF:       v.GetString("pdf"),
		Clipboard: v.GetBool("clipboard"),
	}, nil
}

// overridesFromConfig only replaces the sets that were actually given, so an
// unset key keeps the default list.
func overridesFromConfig(v *viper.Viper) RuleOverrides {
	var o RuleOverrides
	if v.IsSet("ignored_dirs") {
		o.Dirs = append([]string{}, v.GetStringSlice("ignored_dirs")...)
	}
	if v.IsSet("ignored_files") {
		o.Files = append([]string{}, v.GetStringSlice("ignored_files")...)
	}
	if v.IsSet("ignored_extensions") {
		o.Extensions = append([]string{}, v.GetStringSlice("ignored_extensions")...)
	}
	o.MaxFileSize = v.GetInt64("max_size")
	return o
}

func run(cmd *cobra.Command, args []string, opts *cliOptions, console *Console) error {
	root, err := resolveRoot(cmd, args, opts)
	if err != nil {
		return err
	}
	if root == "" {
		console.Infof("Selection aborted.")
		return nil
	}

	genRoot := root
	if isGitURL(root) {
		repoDir, tempDir, err := cloneGitRepo(root, console)
		if err != nil {
			return err
		}
		defer os.RemoveAll(tempDir)
		genRoot = repoDir
	}

	summary, err := Generate(genRoot, opts.Output, GenerateOptions{
		Rules:            opts.Rules,
		RespectGitignore: opts.Gitignore,
		Console:          console,
	})
	if err != nil {
		return err
	}

	if opts.PDF != "" {
		if err := generatePDF(filepath.Base(summary.Root), summary, opts.Rules, opts.PDF, console); err != nil {
			console.Errorf("generating PDF: %v", err)
		} else {
			console.Infof("PDF saved to %s", opts.PDF)
		}
	}
	if opts.CountTokens || opts.Clipboard {
		deliverReport(summary.OutputPath, opts, console)
	}

	reportPath := summary.OutputPath
	if genRoot != root && filepath.Clean(opts.Output) != filepath.Clean(summary.OutputPath) {
		reportPath = opts.Output
		if err := copyFile(summary.OutputPath, reportPath); err != nil {
			return fmt.Errorf("error copying report out of the clone: %w", err)
		}
	}

	console.Successf("Knowledge base generated at: %s", reportPath)
	console.Labelf("Files processed", "%d", summary.Processed)
	console.Labelf("Files skipped", "%d", summary.Skipped)
	return nil
}

// resolveRoot takes the root from the arguments, the fuzzy picker or a prompt,
// in that order.
func resolveRoot(cmd *cobra.Command, args []string, opts *cliOptions) (string, error) {
	switch {
	case len(args) == 1:
		return args[0], nil
	case opts.Pick:
		return pickDirectory(opts.Rules)
	default:
		return promptRoot(cmd.InOrStdin(), cmd.OutOrStdout())
	}
}

// deliverReport counts tokens and copies the report to the clipboard. Failures
// here never fail the run; the report is already on disk.
func deliverReport(path string, opts *cliOptions, console *Console) {
	data, err := os.ReadFile(path)
	if err != nil {
		console.Warnf("could not read back %s: %v", path, err)
		return
	}
	text := string(data)

	if opts.CountTokens {
		tk, err := newTokenizer(opts.Tokenizer, console)
		if err != nil {
			console.Warnf("token counting disabled: %v", err)
		} else {
			defer tk.Close()
			console.Labelf("Estimated tokens", "%d", tk.CountTokens(text))
		}
	}

	if opts.Clipboard {
		if err := clipboard.WriteAll(text); err != nil {
			console.Warnf("could not copy report to clipboard: %v", err)
		} else {
			console.Infof("Report copied to clipboard.")
		}
	}
}

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		NewConsole(os.Stdout, os.Stderr).Errorf("%v", err)
		os.Exit(1)
	}
}
