// Package resolve provides automatic conflict resolvers that plug into the
// backport engine through backport.AutoResolver.
//
// During a cherry-pick "ours" is the target branch and "theirs" is the commit
// being ported.
package resolve

import (
	"context"
	stderrors "errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/Iron-Ham/backport/internal/backport"
	"github.com/Iron-Ham/backport/internal/git"
	"github.com/Iron-Ham/backport/internal/logging"
)

// SideCheckout checks out one side of a conflict and stages the result.
type SideCheckout interface {
	CheckoutSide(ctx context.Context, side git.Side, files []string) error
	StageFiles(ctx context.Context, files []string) error
}

// GlobResolver resolves files whose repository-relative path matches a
// configured pattern by taking one side wholesale. It only acts when every
// conflicting file matches; otherwise it leaves the tree untouched.
type GlobResolver struct {
	repo   SideCheckout
	ours   []glob.Glob
	theirs []glob.Glob
	logger *logging.Logger
}

// NewGlobResolver compiles the ours and theirs patterns. Patterns use '/' as
// the separator, so "*" stays within a directory and "**" crosses them.
func NewGlobResolver(repo SideCheckout, ours, theirs []string, logger *logging.Logger) (*GlobResolver, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	r := &GlobResolver{repo: repo, logger: logger}

	var err error
	if r.ours, err = compileAll(ours); err != nil {
		return nil, err
	}
	if r.theirs, err = compileAll(theirs); err != nil {
		return nil, err
	}
	return r, nil
}

func compileAll(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid auto-resolve pattern %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

func matchAny(globs []glob.Glob, path string) bool {
	for _, g := range globs {
		if g.Match(path) {
			return true
		}
	}
	return false
}

// Attempt implements backport.AutoResolver. Ours patterns win over theirs.
func (r *GlobResolver) Attempt(ctx context.Context, files []string, repoPath, _ string) (bool, error) {
	if len(files) == 0 {
		return false, nil
	}

	var ours, theirs []string
	for _, file := range files {
		rel := relativePath(repoPath, file)
		switch {
		case matchAny(r.ours, rel):
			ours = append(ours, file)
		case matchAny(r.theirs, rel):
			theirs = append(theirs, file)
		default:
			r.logger.Debug("glob resolver skipped", "file", rel)
			return false, nil
		}
	}

	if err := r.repo.CheckoutSide(ctx, git.SideOurs, ours); err != nil {
		return false, err
	}
	if err := r.repo.CheckoutSide(ctx, git.SideTheirs, theirs); err != nil {
		return false, err
	}
	if err := r.repo.StageFiles(ctx, files); err != nil {
		return false, err
	}

	r.logger.Info("glob resolver resolved conflicts", "ours", len(ours), "theirs", len(theirs))
	return true, nil
}

func relativePath(repoPath, file string) string {
	if repoPath == "" {
		return filepath.ToSlash(file)
	}
	rel, err := filepath.Rel(repoPath, file)
	if err != nil {
		return filepath.ToSlash(file)
	}
	return filepath.ToSlash(rel)
}

// ConflictStager re-checks the tree after an external fix and stages it.
type ConflictStager interface {
	ConflictingFiles(ctx context.Context) ([]backport.ConflictingFile, error)
	StageFiles(ctx context.Context, files []string) error
}

// CommandResolver runs an external command (a merge tool or an AI CLI) in the
// repository with the relative conflicting paths appended as arguments.
// It succeeds when the command exits 0 and no conflict markers remain.
type CommandResolver struct {
	command  []string
	repo     ConflictStager
	executor git.CommandExecutor
	logger   *logging.Logger
}

// NewCommandResolver parses command on whitespace.
func NewCommandResolver(command string, repo ConflictStager, executor git.CommandExecutor, logger *logging.Logger) (*CommandResolver, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("auto-resolve command is empty")
	}
	if executor == nil {
		executor = git.NewCLICommandExecutor()
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &CommandResolver{command: fields, repo: repo, executor: executor, logger: logger}, nil
}

// Attempt implements backport.AutoResolver.
func (r *CommandResolver) Attempt(ctx context.Context, files []string, repoPath, targetBranch string) (bool, error) {
	if len(files) == 0 {
		return false, nil
	}

	args := append([]string{}, r.command[1:]...)
	for _, file := range files {
		args = append(args, relativePath(repoPath, file))
	}

	env := []string{"BACKPORT_TARGET_BRANCH=" + targetBranch}
	output, err := r.executor.RunWithEnv(ctx, repoPath, env, r.command[0], args...)
	if err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			r.logger.Warn("auto-resolve command failed",
				"command", r.command[0],
				"error", err,
				"output", strings.TrimSpace(string(output)))
			return false, nil
		}
		return false, fmt.Errorf("failed to run auto-resolve command %q: %w", r.command[0], err)
	}

	remaining, err := r.repo.ConflictingFiles(ctx)
	if err != nil {
		return false, err
	}
	if len(remaining) > 0 {
		r.logger.Info("auto-resolve command left conflicts", "remaining", len(remaining))
		return false, nil
	}

	if err := r.repo.StageFiles(ctx, files); err != nil {
		return false, err
	}
	return true, nil
}

// Chain tries resolvers in order; the first success wins.
type Chain []backport.AutoResolver

// Attempt implements backport.AutoResolver.
func (c Chain) Attempt(ctx context.Context, files []string, repoPath, targetBranch string) (bool, error) {
	for _, r := range c {
		if r == nil {
			continue
		}
		ok, err := r.Attempt(ctx, files, repoPath, targetBranch)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

var (
	_ backport.AutoResolver = (*GlobResolver)(nil)
	_ backport.AutoResolver = (*CommandResolver)(nil)
	_ backport.AutoResolver = Chain(nil)
)
