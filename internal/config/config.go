package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Interactive modes.
const (
	// InteractiveAuto prompts only when stdin is a terminal.
	InteractiveAuto   = "auto"
	InteractiveAlways = "always"
	InteractiveNever  = "never"
)

// RepoConfigFileName is the per-repository config file, read after the user
// config so that its values win.
const RepoConfigFileName = ".backport.yaml"

// Config represents the complete backport configuration
type Config struct {
	// Interactive controls whether conflicts are resolved with prompts.
	// Options: "auto", "always", "never"
	Interactive string `mapstructure:"interactive"`
	// Editor is launched on the repository before the first prompt.
	// Empty means no editor is opened.
	Editor string `mapstructure:"editor"`
	// CommitConflicts commits conflict markers instead of failing when not
	// running interactively.
	CommitConflicts bool `mapstructure:"commit_conflicts"`
	// CherryPickRef appends "(cherry picked from commit ...)" to messages
	CherryPickRef bool `mapstructure:"cherry_pick_ref"`
	// Mainline selects the parent number when porting merge commits (0 = unset)
	Mainline int `mapstructure:"mainline"`
	// PRLookup asks the gh CLI which pull requests already carry the commit
	PRLookup bool `mapstructure:"pr_lookup"`

	Git         GitConfig         `mapstructure:"git"`
	AutoResolve AutoResolveConfig `mapstructure:"auto_resolve"`
	Hints       HintsConfig       `mapstructure:"hints"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// GitConfig controls who the ported commits are attributed to
type GitConfig struct {
	// AuthorName overrides the original author's name
	AuthorName string `mapstructure:"author_name"`
	// AuthorEmail overrides the original author's email
	AuthorEmail string `mapstructure:"author_email"`
	// ResetAuthor attributes commits to the local git identity
	ResetAuthor bool `mapstructure:"reset_author"`
}

// AutoResolveConfig configures the resolvers tried before prompting
type AutoResolveConfig struct {
	// Ours lists globs whose conflicts take the target branch's version
	Ours []string `mapstructure:"ours"`
	// Theirs lists globs whose conflicts take the ported commit's version
	Theirs []string `mapstructure:"theirs"`
	// Command is run with the conflicting files as arguments
	Command string `mapstructure:"command"`
}

// Enabled reports whether any automatic resolver is configured.
func (a AutoResolveConfig) Enabled() bool {
	return len(a.Ours) > 0 || len(a.Theirs) > 0 || a.Command != ""
}

// HintsConfig bounds the search for related commits
type HintsConfig struct {
	// MaxCommits is the maximum number of hints shown (0 disables hints)
	MaxCommits int `mapstructure:"max_commits"`
	// SearchDepth is how many source commits are inspected
	SearchDepth int `mapstructure:"search_depth"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled writes a debug log to <repo>/.backport/debug.log
	Enabled bool `mapstructure:"enabled"`
	// Level is the minimum log level (debug, info, warn, error)
	Level string `mapstructure:"level"`
	// MaxSizeMB is the size at which the log file is rotated
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated files kept
	MaxBackups int `mapstructure:"max_backups"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Interactive:     InteractiveAuto,
		Editor:          "",
		CommitConflicts: false,
		CherryPickRef:   true,
		Mainline:        0,
		PRLookup:        true,
		Git:             GitConfig{},
		AutoResolve: AutoResolveConfig{
			Ours:   []string{},
			Theirs: []string{},
		},
		Hints: HintsConfig{
			MaxCommits:  10,
			SearchDepth: 500,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  5,
			MaxBackups: 2,
		},
	}
}

// SetDefaults registers default values with the global viper instance
func SetDefaults() {
	SetDefaultsOn(viper.GetViper())
}

// SetDefaultsOn registers default values with v
func SetDefaultsOn(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("interactive", defaults.Interactive)
	v.SetDefault("editor", defaults.Editor)
	v.SetDefault("commit_conflicts", defaults.CommitConflicts)
	v.SetDefault("cherry_pick_ref", defaults.CherryPickRef)
	v.SetDefault("mainline", defaults.Mainline)
	v.SetDefault("pr_lookup", defaults.PRLookup)

	// Git defaults
	v.SetDefault("git.author_name", defaults.Git.AuthorName)
	v.SetDefault("git.author_email", defaults.Git.AuthorEmail)
	v.SetDefault("git.reset_author", defaults.Git.ResetAuthor)

	// Auto-resolve defaults
	v.SetDefault("auto_resolve.ours", defaults.AutoResolve.Ours)
	v.SetDefault("auto_resolve.theirs", defaults.AutoResolve.Theirs)
	v.SetDefault("auto_resolve.command", defaults.AutoResolve.Command)

	// Hint defaults
	v.SetDefault("hints.max_commits", defaults.Hints.MaxCommits)
	v.SetDefault("hints.search_depth", defaults.Hints.SearchDepth)

	// Logging defaults
	v.SetDefault("logging.enabled", defaults.Logging.Enabled)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the configuration from v and validates it.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "backport")
	}
	// Fall back to ~/.config/backport
	home, err := os.UserHomeDir()
	if err != nil {
		return ".backport"
	}
	return filepath.Join(home, ".config", "backport")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ValidInteractiveModes returns the list of valid interactive values
func ValidInteractiveModes() []string {
	return []string{InteractiveAuto, InteractiveAlways, InteractiveNever}
}

// ResolveInteractive decides whether to prompt given the configured mode and
// whether stdin is a terminal.
func ResolveInteractive(mode string, isTerminal bool) bool {
	switch mode {
	case InteractiveAlways:
		return true
	case InteractiveNever:
		return false
	default:
		return isTerminal
	}
}
