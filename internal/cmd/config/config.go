// Package config provides CLI commands for managing backport configuration.
package config

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	appconfig "github.com/Iron-Ham/backport/internal/config"
	"github.com/Iron-Ham/backport/internal/prompt"
	"github.com/Iron-Ham/backport/internal/tui/styles"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify backport configuration",
	Long: `View or modify backport configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  backport config set interactive never
  backport config set hints.max_commits 5
  backport config set git.reset_author true

Valid keys:
  interactive           - Prompt for conflicts: auto, always, never
  editor                - Editor opened on the repository before prompting
  commit_conflicts      - Commit conflict markers when not interactive (true/false)
  cherry_pick_ref       - Append "(cherry picked from commit ...)" (true/false)
  mainline              - Parent number for merge commits
  pr_lookup             - Look up pull requests with the gh CLI (true/false)
  git.author_name       - Override the commit author's name
  git.author_email      - Override the commit author's email
  git.reset_author      - Use the local git identity (true/false)
  auto_resolve.command  - Command run on conflicting files
  hints.max_commits     - Maximum related commits shown (0 disables)
  hints.search_depth    - Source commits inspected for hints
  logging.enabled       - Write a debug log (true/false)
  logging.level         - debug, info, warn, error`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/backport/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in your editor",
	Long: `Open the config file in your preferred editor.

Uses the configured editor, then $EDITOR or $VISUAL, and falls back to
common editors (vim, nano, vi). If no config file exists, creates one with
default values first.`,
	RunE: runConfigEdit,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configEditCmd)
}

// Register adds all config-related commands to the given parent command.
func Register(parent *cobra.Command) {
	parent.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := appconfig.Load()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, styles.Title.Render("Current configuration:"))
	fmt.Fprintln(out)

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Config file: (none - using defaults)\n")
	}
	fmt.Fprintln(out)

	writeConfig(out, cfg)
	return nil
}

func writeConfig(out io.Writer, cfg *appconfig.Config) {
	fmt.Fprintf(out, "interactive: %s\n", cfg.Interactive)
	fmt.Fprintf(out, "editor: %s\n", cfg.Editor)
	fmt.Fprintf(out, "commit_conflicts: %v\n", cfg.CommitConflicts)
	fmt.Fprintf(out, "cherry_pick_ref: %v\n", cfg.CherryPickRef)
	fmt.Fprintf(out, "mainline: %d\n", cfg.Mainline)
	fmt.Fprintf(out, "pr_lookup: %v\n", cfg.PRLookup)

	fmt.Fprintln(out, "git:")
	fmt.Fprintf(out, "  author_name: %s\n", cfg.Git.AuthorName)
	fmt.Fprintf(out, "  author_email: %s\n", cfg.Git.AuthorEmail)
	fmt.Fprintf(out, "  reset_author: %v\n", cfg.Git.ResetAuthor)

	fmt.Fprintln(out, "auto_resolve:")
	fmt.Fprintf(out, "  ours: [%s]\n", strings.Join(cfg.AutoResolve.Ours, ", "))
	fmt.Fprintf(out, "  theirs: [%s]\n", strings.Join(cfg.AutoResolve.Theirs, ", "))
	fmt.Fprintf(out, "  command: %s\n", cfg.AutoResolve.Command)

	fmt.Fprintln(out, "hints:")
	fmt.Fprintf(out, "  max_commits: %d\n", cfg.Hints.MaxCommits)
	fmt.Fprintf(out, "  search_depth: %d\n", cfg.Hints.SearchDepth)

	fmt.Fprintln(out, "logging:")
	fmt.Fprintf(out, "  enabled: %v\n", cfg.Logging.Enabled)
	fmt.Fprintf(out, "  level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(out, "  max_size_mb: %d\n", cfg.Logging.MaxSizeMB)
	fmt.Fprintf(out, "  max_backups: %d\n", cfg.Logging.MaxBackups)
}

// settableKeys maps each key accepted by `config set` to its value kind.
var settableKeys = map[string]string{
	"interactive":          "interactive",
	"editor":               "string",
	"commit_conflicts":     "bool",
	"cherry_pick_ref":      "bool",
	"mainline":             "int",
	"pr_lookup":            "bool",
	"git.author_name":      "string",
	"git.author_email":     "string",
	"git.reset_author":     "bool",
	"auto_resolve.command": "string",
	"hints.max_commits":    "int",
	"hints.search_depth":   "int",
	"logging.enabled":      "bool",
	"logging.level":        "level",
}

// parseValue converts a raw `config set` value to the type stored for key.
func parseValue(key, value string) (any, error) {
	keyType, ok := settableKeys[key]
	if !ok {
		return nil, fmt.Errorf("unknown configuration key: %s\nRun 'backport config set --help' to see valid keys", key)
	}

	switch keyType {
	case "interactive":
		if !slices.Contains(appconfig.ValidInteractiveModes(), value) {
			return nil, fmt.Errorf("invalid value for %s: %s\nValid options: %s",
				key, value, strings.Join(appconfig.ValidInteractiveModes(), ", "))
		}
		return value, nil
	case "level":
		if !slices.Contains(appconfig.ValidLogLevels(), value) {
			return nil, fmt.Errorf("invalid value for %s: %s\nValid options: %s",
				key, value, strings.Join(appconfig.ValidLogLevels(), ", "))
		}
		return value, nil
	case "bool":
		if value != "true" && value != "false" {
			return nil, fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		return value == "true", nil
	case "int":
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected integer", key)
		}
		if intVal < 0 {
			return nil, fmt.Errorf("invalid value for %s: must be non-negative", key)
		}
		return intVal, nil
	default:
		return value, nil
	}
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	typedValue, err := parseValue(key, args[1])
	if err != nil {
		return err
	}

	// Ensure config directory exists
	if err := os.MkdirAll(appconfig.ConfigDir(), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	viper.Set(key, typedValue)

	configFile := appconfig.ConfigFile()
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", key, typedValue)
	fmt.Fprintf(cmd.OutOrStdout(), "Config saved to %s\n", configFile)
	return nil
}

const defaultConfigContent = `# backport configuration

# Prompt for manual conflict resolution: auto (when stdin is a terminal),
# always, or never
interactive: auto

# Editor opened on the repository before the first prompt (empty = none)
editor: ""

# When not interactive, commit conflict markers instead of failing
commit_conflicts: false

# Append "(cherry picked from commit ...)" to ported commit messages
cherry_pick_ref: true

# Parent number used when porting merge commits (0 = not a merge)
mainline: 0

# Ask the gh CLI which pull requests already carry the commit
pr_lookup: true

git:
  # Override the original author (leave empty to keep it)
  author_name: ""
  author_email: ""
  # Attribute ported commits to the local git identity
  reset_author: false

# Resolvers tried before asking for help
auto_resolve:
  # Globs whose conflicts keep the target branch's version
  ours: []
  # Globs whose conflicts take the ported commit's version
  theirs: []
  # Command run with the conflicting files as arguments
  command: ""

# Related commits suggested when a cherry-pick conflicts
hints:
  max_commits: 10
  search_depth: 500

logging:
  enabled: true
  level: info
  max_size_mb: 5
  max_backups: 2
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configFile := appconfig.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'backport config set' to modify values", configFile)
	}

	if err := os.MkdirAll(appconfig.ConfigDir(), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configFile, []byte(defaultConfigContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", configFile)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", appconfig.ConfigFile())
	}

	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", appconfig.ConfigFile())
	fmt.Fprintf(out, "  2. ./%s (repository overrides)\n", appconfig.RepoConfigFileName)
	fmt.Fprintln(out, "\nEnvironment variables: BACKPORT_* (e.g., BACKPORT_HINTS_MAX_COMMITS)")
	return nil
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	configFile := appconfig.ConfigFile()

	// Check if config file exists, if not create it
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		fmt.Fprintln(cmd.OutOrStdout(), "Config file doesn't exist, creating with defaults...")
		if err := runConfigInit(cmd, args); err != nil {
			return err
		}
	}

	editor := prompt.ResolveEditor(viper.GetString("editor"))
	if editor == "" {
		return fmt.Errorf("no editor found. Set $EDITOR environment variable")
	}

	if err := prompt.NewEditor().Open(cmd.Context(), editor, configFile, ""); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Config file saved: %s\n", configFile)
	return nil
}
