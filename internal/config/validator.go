package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "hints.max_commits")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateGeneral()...)
	errors = append(errors, c.validateGit()...)
	errors = append(errors, c.validateAutoResolve()...)
	errors = append(errors, c.validateHints()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validateGeneral() []ValidationError {
	var errors []ValidationError

	if c.Interactive != "" && !slices.Contains(ValidInteractiveModes(), c.Interactive) {
		errors = append(errors, ValidationError{
			Field:   "interactive",
			Value:   c.Interactive,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidInteractiveModes(), ", ")),
		})
	}

	if c.Mainline < 0 {
		errors = append(errors, ValidationError{
			Field:   "mainline",
			Value:   c.Mainline,
			Message: "must be non-negative",
		})
	}

	// Committing markers only makes sense when nobody is asked to fix them
	if c.CommitConflicts && c.Interactive == InteractiveAlways {
		errors = append(errors, ValidationError{
			Field:   "commit_conflicts",
			Value:   c.CommitConflicts,
			Message: "cannot be combined with interactive: always",
		})
	}

	return errors
}

// validateGit validates the GitConfig
func (c *Config) validateGit() []ValidationError {
	var errors []ValidationError

	if c.Git.ResetAuthor && (c.Git.AuthorName != "" || c.Git.AuthorEmail != "") {
		errors = append(errors, ValidationError{
			Field:   "git.reset_author",
			Value:   c.Git.ResetAuthor,
			Message: "cannot be combined with git.author_name or git.author_email",
		})
	}

	if c.Git.AuthorEmail != "" && !strings.Contains(c.Git.AuthorEmail, "@") {
		errors = append(errors, ValidationError{
			Field:   "git.author_email",
			Value:   c.Git.AuthorEmail,
			Message: "must be an email address",
		})
	}

	return errors
}

// validateAutoResolve checks that every glob compiles
func (c *Config) validateAutoResolve() []ValidationError {
	var errors []ValidationError

	check := func(field string, patterns []string) {
		for i, pattern := range patterns {
			if strings.TrimSpace(pattern) == "" {
				errors = append(errors, ValidationError{
					Field:   fmt.Sprintf("%s[%d]", field, i),
					Value:   pattern,
					Message: "cannot be empty",
				})
				continue
			}
			if _, err := glob.Compile(pattern, '/'); err != nil {
				errors = append(errors, ValidationError{
					Field:   fmt.Sprintf("%s[%d]", field, i),
					Value:   pattern,
					Message: fmt.Sprintf("invalid glob: %v", err),
				})
			}
		}
	}
	check("auto_resolve.ours", c.AutoResolve.Ours)
	check("auto_resolve.theirs", c.AutoResolve.Theirs)

	return errors
}

// validateHints validates the HintsConfig
func (c *Config) validateHints() []ValidationError {
	var errors []ValidationError

	if c.Hints.MaxCommits < 0 {
		errors = append(errors, ValidationError{
			Field:   "hints.max_commits",
			Value:   c.Hints.MaxCommits,
			Message: "must be non-negative",
		})
	}

	if c.Hints.SearchDepth < 1 {
		errors = append(errors, ValidationError{
			Field:   "hints.search_depth",
			Value:   c.Hints.SearchDepth,
			Message: "must be at least 1",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	// Validate log level
	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	// Max size must be positive
	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	// Reasonable upper bound for log file size
	const maxLogSizeMB = 1000 // 1GB
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	// Max backups must be non-negative
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
