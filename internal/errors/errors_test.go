package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// -----------------------------------------------------------------------------
// Severity Tests
// -----------------------------------------------------------------------------

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// Backport Error Tests
// -----------------------------------------------------------------------------

func TestMergeConflictError(t *testing.T) {
	err := NewMergeConflictError([]string{"a.go", "b.go"}, []string{"- fix parser (abc1234)"})

	if got, want := err.Error(), "merge conflict in 2 file(s): a.go, b.go"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, ErrMergeConflict) {
		t.Error("errors.Is(err, ErrMergeConflict) = false, want true")
	}
	if Is(err, ErrAborted) {
		t.Error("errors.Is(err, ErrAborted) = true, want false")
	}
	if !err.IsUserFacing() {
		t.Error("IsUserFacing() = false, want true")
	}
	if len(err.Hints) != 1 {
		t.Errorf("len(Hints) = %d, want 1", len(err.Hints))
	}

	wrapped := fmt.Errorf("backport to 7.x: %w", err)
	var conflictErr *MergeConflictError
	if !As(wrapped, &conflictErr) {
		t.Fatal("errors.As() failed to find MergeConflictError through wrapping")
	}
	if conflictErr.Files[1] != "b.go" {
		t.Errorf("Files[1] = %q, want %q", conflictErr.Files[1], "b.go")
	}
}

func TestMergeConflictError_NoFiles(t *testing.T) {
	err := NewMergeConflictError(nil, nil)
	if got := err.Error(); got != "merge conflict" {
		t.Errorf("Error() = %q, want %q", got, "merge conflict")
	}
}

func TestAbortError(t *testing.T) {
	err := NewAbortError("")
	if !strings.Contains(err.Error(), "aborted") {
		t.Errorf("Error() = %q, want it to mention abort", err.Error())
	}
	if !Is(err, ErrAborted) {
		t.Error("errors.Is(err, ErrAborted) = false, want true")
	}
	if Is(err, ErrRetryLimitExceeded) {
		t.Error("abort must not classify as retry limit")
	}
	if err.Severity() != SeverityWarning {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityWarning)
	}

	custom := NewAbortError("stopped at round 3")
	if custom.Error() != "stopped at round 3" {
		t.Errorf("Error() = %q, want custom message", custom.Error())
	}
}

func TestRetryLimitExceededError(t *testing.T) {
	err := NewRetryLimitExceededError(101)

	if !Is(err, ErrRetryLimitExceeded) {
		t.Error("errors.Is(err, ErrRetryLimitExceeded) = false, want true")
	}
	if Is(err, ErrAborted) {
		t.Error("retry limit must never classify as abort")
	}
	if err.Severity() != SeverityCritical {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityCritical)
	}
	if err.IsUserFacing() {
		t.Error("IsUserFacing() = true, want false")
	}
	if !strings.Contains(err.Error(), "101") {
		t.Errorf("Error() = %q, want it to include the round count", err.Error())
	}
}

// -----------------------------------------------------------------------------
// GitError Tests
// -----------------------------------------------------------------------------

func TestGitError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *GitError
		want string
	}{
		{
			name: "message only",
			err:  NewGitError("failed to commit", nil),
			want: "git error: failed to commit",
		},
		{
			name: "with context",
			err: NewGitError("failed to cherry-pick", errors.New("exit status 128")).
				WithBranch("7.x").
				WithCommit("abc123").
				WithRepository("/repo"),
			want: "git error [branch=7.x, commit=abc123, repo=/repo]: failed to cherry-pick: exit status 128",
		},
		{
			name: "with output",
			err:  NewGitError("failed", nil).WithGitOutput("fatal: bad revision\n"),
			want: "git error: failed\ngit output: fatal: bad revision",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGitError_Is(t *testing.T) {
	err := NewGitError("failed to resolve commit", ErrCommitNotFound).WithSeverity(SeverityWarning)

	if !Is(err, ErrCommitNotFound) {
		t.Error("errors.Is(err, ErrCommitNotFound) = false, want true")
	}
	if GetSeverity(err) != SeverityWarning {
		t.Errorf("GetSeverity() = %v, want %v", GetSeverity(err), SeverityWarning)
	}
	var gitErr *GitError
	if !As(fmt.Errorf("wrap: %w", err), &gitErr) {
		t.Error("errors.As() failed to find GitError")
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("must not be empty").WithField("branch").WithValue("")

	if got, want := err.Error(), "validation error [field=branch, value=]: must not be empty"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, ErrInvalidInput) {
		t.Error("errors.Is(err, ErrInvalidInput) = false, want true")
	}
}

// -----------------------------------------------------------------------------
// Classification Tests
// -----------------------------------------------------------------------------

func TestClassificationHelpers(t *testing.T) {
	plain := errors.New("plain")

	if IsRetryable(nil) || IsRetryable(plain) {
		t.Error("IsRetryable() should be false for nil and plain errors")
	}
	if IsUserFacing(plain) {
		t.Error("IsUserFacing(plain) = true, want false")
	}
	if !IsUserFacing(NewAbortError("")) {
		t.Error("IsUserFacing(AbortError) = false, want true")
	}
	if GetSeverity(nil) != SeverityDebug {
		t.Errorf("GetSeverity(nil) = %v, want %v", GetSeverity(nil), SeverityDebug)
	}
	if GetSeverity(plain) != SeverityError {
		t.Errorf("GetSeverity(plain) = %v, want %v", GetSeverity(plain), SeverityError)
	}
	if GetSeverity(NewRetryLimitExceededError(101)) != SeverityCritical {
		t.Error("GetSeverity(RetryLimitExceededError) should be critical")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"conflict", NewMergeConflictError([]string{"a.go"}, nil), ExitMergeConflict},
		{"abort", fmt.Errorf("wrapped: %w", NewAbortError("")), ExitAborted},
		{"retry limit", NewRetryLimitExceededError(101), ExitRetryLimit},
		{"validation", NewValidationError("bad"), ExitInvalidInput},
		{"git", NewGitError("failed", nil), ExitFailure},
		{"plain", errors.New("boom"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
