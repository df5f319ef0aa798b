// Package errors provides centralized error definitions and error handling utilities
// for backport. It defines the classified failures of a backport attempt, the
// tool-invocation error raised by git and editor primitives, and helpers for
// classifying errors at the CLI boundary.
//
// # Error Kinds
//
// Backport errors describe why porting a commit onto a branch stopped:
//   - MergeConflictError: non-interactive mode hit unresolved conflicts
//   - AbortError: the user declined to continue during interactive resolution
//   - RetryLimitExceededError: the interactive loop ran past its round ceiling
//
// Tool errors wrap failures of external processes:
//   - GitError: git (or editor, or gh) invocations unrelated to conflicts
//
// Semantic errors represent common error conditions:
//   - ValidationError: invalid input or configuration
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewMergeConflictError([]string{"a.go"}, hints)
//	err := errors.NewGitError("cherry-pick failed", cause).WithBranch("7.x")
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrAborted) { ... }
//
//	var conflictErr *errors.MergeConflictError
//	if errors.As(err, &conflictErr) { ... }
//
//	if errors.IsUserFacing(err) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Backport sentinel errors
var (
	// ErrMergeConflict indicates that a cherry-pick left unresolved conflicts.
	ErrMergeConflict = New("merge conflict")
	// ErrAborted indicates that the user aborted conflict resolution.
	ErrAborted = New("backport aborted")
	// ErrRetryLimitExceeded indicates that the resolution loop ran too many rounds.
	ErrRetryLimitExceeded = New("conflict resolution retry limit exceeded")
	// ErrAlreadyBackported indicates that the commit is already on the target branch.
	ErrAlreadyBackported = New("commit already backported")
)

// Git-related sentinel errors
var (
	// ErrNotGitRepository indicates that the directory is not a git repository.
	ErrNotGitRepository = New("not a git repository")
	// ErrBranchNotFound indicates that a branch could not be found.
	ErrBranchNotFound = New("branch not found")
	// ErrCommitNotFound indicates that a commit could not be resolved.
	ErrCommitNotFound = New("commit not found")
)

// General sentinel errors
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// BackportError is the base interface for all classified backport errors.
// It extends the standard error interface with methods used when deciding
// how to surface a failure.
type BackportError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the operation may succeed when run again.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Backport Errors
// -----------------------------------------------------------------------------

// MergeConflictError is raised when conflicts remain and the session cannot
// prompt for manual resolution. Files holds the displayed (possibly
// truncated) relative paths; Hints holds formatted related commits that are
// not yet on the target branch.
//
// Example:
//
//	err := errors.NewMergeConflictError([]string{"a.go", "b.go"}, nil)
//	fmt.Println(err) // "merge conflict in 2 file(s): a.go, b.go"
type MergeConflictError struct {
	baseError
	Files []string
	Hints []string
}

// NewMergeConflictError creates a new MergeConflictError.
func NewMergeConflictError(files, hints []string) *MergeConflictError {
	return &MergeConflictError{
		baseError: baseError{
			message:    "merge conflict",
			cause:      ErrMergeConflict,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
		Files: files,
		Hints: hints,
	}
}

// Error returns the formatted error message.
func (e *MergeConflictError) Error() string {
	if len(e.Files) == 0 {
		return e.message
	}
	return fmt.Sprintf("%s in %d file(s): %s", e.message, len(e.Files), strings.Join(e.Files, ", "))
}

// Is checks if this error matches the target.
func (e *MergeConflictError) Is(target error) bool {
	if _, ok := target.(*MergeConflictError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// AbortError is raised when the user declines to continue resolving conflicts.
// The working tree is left exactly as the user left it.
type AbortError struct {
	baseError
}

// NewAbortError creates a new AbortError.
func NewAbortError(message string) *AbortError {
	if message == "" {
		message = "conflict resolution aborted by user"
	}
	return &AbortError{
		baseError: baseError{
			message:    message,
			cause:      ErrAborted,
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
	}
}

// Error returns the formatted error message.
func (e *AbortError) Error() string {
	return e.message
}

// Is checks if this error matches the target.
func (e *AbortError) Is(target error) bool {
	if _, ok := target.(*AbortError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// RetryLimitExceededError guards against runaway interactive sessions. It is
// never presented as a normal abort.
type RetryLimitExceededError struct {
	baseError
	Retries int
}

// NewRetryLimitExceededError creates a new RetryLimitExceededError.
func NewRetryLimitExceededError(retries int) *RetryLimitExceededError {
	return &RetryLimitExceededError{
		baseError: baseError{
			message:    "conflict resolution retry limit exceeded",
			cause:      ErrRetryLimitExceeded,
			severity:   SeverityCritical,
			retryable:  false,
			userFacing: false,
		},
		Retries: retries,
	}
}

// Error returns the formatted error message.
func (e *RetryLimitExceededError) Error() string {
	return fmt.Sprintf("%s after %d rounds", e.message, e.Retries)
}

// Is checks if this error matches the target.
func (e *RetryLimitExceededError) Is(target error) bool {
	if _, ok := target.(*RetryLimitExceededError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Tool Errors
// -----------------------------------------------------------------------------

// GitError represents a failed invocation of git or another external tool
// that is unrelated to conflicts (missing executable, bad revision, hook
// failure, permission failure).
//
// Example:
//
//	err := errors.NewGitError("failed to cherry-pick", cause)
//	err = err.WithBranch("7.x").WithRepository("/path/to/repo")
type GitError struct {
	baseError
	Branch     string
	Commit     string
	Repository string
	GitOutput  string // Captured command output
}

// NewGitError creates a new GitError.
func NewGitError(message string, cause error) *GitError {
	return &GitError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithBranch adds a branch name to the error context.
func (e *GitError) WithBranch(branch string) *GitError {
	e.Branch = branch
	return e
}

// WithCommit adds a commit SHA to the error context.
func (e *GitError) WithCommit(sha string) *GitError {
	e.Commit = sha
	return e
}

// WithRepository adds a repository path to the error context.
func (e *GitError) WithRepository(path string) *GitError {
	e.Repository = path
	return e
}

// WithGitOutput adds command output to the error context.
func (e *GitError) WithGitOutput(output string) *GitError {
	e.GitOutput = output
	return e
}

// WithSeverity sets the error severity.
func (e *GitError) WithSeverity(s Severity) *GitError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *GitError) Error() string {
	var parts []string
	if e.Branch != "" {
		parts = append(parts, fmt.Sprintf("branch=%s", e.Branch))
	}
	if e.Commit != "" {
		parts = append(parts, fmt.Sprintf("commit=%s", e.Commit))
	}
	if e.Repository != "" {
		parts = append(parts, fmt.Sprintf("repo=%s", e.Repository))
	}

	prefix := "git error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("git error [%s]", strings.Join(parts, ", "))
	}

	msg := e.message
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	if e.GitOutput != "" {
		msg = fmt.Sprintf("%s\ngit output: %s", msg, strings.TrimSpace(e.GitOutput))
	}

	return fmt.Sprintf("%s: %s", prefix, msg)
}

// Is checks if this error matches the target.
func (e *GitError) Is(target error) bool {
	if _, ok := target.(*GitError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("target branch cannot be empty")
//	err = err.WithField("branch").WithValue("")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var bpErr BackportError
	if As(err, &bpErr) {
		return bpErr.IsRetryable()
	}
	return false
}

// IsUserFacing returns true if the error message is safe to display to end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var bpErr BackportError
	if As(err, &bpErr) {
		return bpErr.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement BackportError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var bpErr BackportError
	if As(err, &bpErr) {
		return bpErr.Severity()
	}
	return SeverityError
}

// Exit codes returned by the CLI for classified failures.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitMergeConflict = 2
	ExitAborted       = 3
	ExitRetryLimit    = 4
	ExitInvalidInput  = 5
)

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case Is(err, ErrMergeConflict):
		return ExitMergeConflict
	case Is(err, ErrAborted):
		return ExitAborted
	case Is(err, ErrRetryLimitExceeded):
		return ExitRetryLimit
	case Is(err, ErrInvalidInput):
		return ExitInvalidInput
	default:
		return ExitFailure
	}
}
