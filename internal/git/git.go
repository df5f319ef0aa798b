// Package git provides the version-control primitives used by backport.
//
// CLIRepository wraps git CLI commands behind a CommandExecutor so tests can
// replace process execution. It implements backport.Repository: the
// cherry-pick apply primitive, the idempotent commit primitive and the two
// working-tree queries.
package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Iron-Ham/backport/internal/backport"
	"github.com/Iron-Ham/backport/internal/errors"
)

// -----------------------------------------------------------------------------
// Command Executor
// -----------------------------------------------------------------------------

// CommandExecutor abstracts command execution for testability.
type CommandExecutor interface {
	// Run executes a command in dir and returns combined output.
	Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error)

	// RunWithEnv is Run with extra environment variables appended.
	RunWithEnv(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, error)
}

// CLICommandExecutor executes commands using os/exec.
type CLICommandExecutor struct{}

// NewCLICommandExecutor creates a new CLI command executor.
func NewCLICommandExecutor() *CLICommandExecutor {
	return &CLICommandExecutor{}
}

// Run executes a command and returns combined output.
func (e *CLICommandExecutor) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	return e.RunWithEnv(ctx, dir, nil, name, args...)
}

// RunWithEnv executes a command with extra environment variables.
func (e *CLICommandExecutor) RunWithEnv(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	return cmd.CombinedOutput()
}

// -----------------------------------------------------------------------------
// CLIRepository
// -----------------------------------------------------------------------------

// CLIRepository implements backport.Repository using git CLI commands.
type CLIRepository struct {
	repoDir  string
	executor CommandExecutor
}

// NewCLIRepository creates a CLIRepository rooted at repoDir.
func NewCLIRepository(repoDir string) *CLIRepository {
	return &CLIRepository{
		repoDir:  repoDir,
		executor: NewCLICommandExecutor(),
	}
}

// NewCLIRepositoryWithExecutor creates a CLIRepository with a custom executor.
// This is primarily useful for testing.
func NewCLIRepositoryWithExecutor(repoDir string, executor CommandExecutor) *CLIRepository {
	return &CLIRepository{
		repoDir:  repoDir,
		executor: executor,
	}
}

// FindRoot returns the top-level directory of the repository containing dir.
func FindRoot(ctx context.Context, executor CommandExecutor, dir string) (string, error) {
	output, err := executor.Run(ctx, dir, "git", "rev-parse", "--show-toplevel")
	if err != nil {
		return "", errors.NewGitError("failed to find repository root", errors.ErrNotGitRepository).
			WithRepository(dir).
			WithGitOutput(string(output))
	}
	return strings.TrimSpace(string(output)), nil
}

// Dir returns the repository root.
func (r *CLIRepository) Dir() string {
	return r.repoDir
}

// authorArgs returns the config overrides that set the committer identity.
func authorArgs(author backport.CommitAuthor) []string {
	if author.Name == "" && author.Email == "" {
		return nil
	}
	return []string{"-c", "user.name=" + author.Name, "-c", "user.email=" + author.Email}
}

// authorEnv returns the environment that sets the author identity.
func authorEnv(author backport.CommitAuthor) []string {
	if author.Name == "" && author.Email == "" {
		return nil
	}
	return []string{"GIT_AUTHOR_NAME=" + author.Name, "GIT_AUTHOR_EMAIL=" + author.Email}
}

// isConflictOutput reports whether cherry-pick output describes a stop
// that needs resolving rather than a tool failure.
func isConflictOutput(output string) bool {
	return strings.Contains(output, "CONFLICT") ||
		strings.Contains(output, "could not apply") ||
		strings.Contains(output, "after resolving the conflicts")
}

// isRefusedOutput reports whether git refused to start the pick because it
// would clobber files in the working tree. Nothing was applied in that case.
func isRefusedOutput(output string) bool {
	return strings.Contains(output, "would be overwritten by merge")
}

func isEmptyPickOutput(output string) bool {
	return strings.Contains(output, "The previous cherry-pick is now empty") ||
		strings.Contains(output, "nothing to commit")
}

// CherryPick replays req.SHA onto the current branch. Conflicts and unstaged
// leftovers are reported in the result; only unrelated failures are errors.
func (r *CLIRepository) CherryPick(ctx context.Context, req backport.ApplyRequest) (backport.ApplyResult, error) {
	args := authorArgs(req.Author)
	args = append(args, "cherry-pick")
	if req.CherryPickRef {
		args = append(args, "-x")
	}
	if req.Mainline > 0 {
		args = append(args, "--mainline", strconv.Itoa(req.Mainline))
	}
	args = append(args, req.SHA)

	output, err := r.executor.RunWithEnv(ctx, r.repoDir, authorEnv(req.Author), "git", args...)
	if err == nil {
		return backport.ApplyResult{}, nil
	}

	outputStr := string(output)
	switch {
	case isEmptyPickOutput(outputStr):
		_, _ = r.executor.Run(ctx, r.repoDir, "git", "cherry-pick", "--abort")
		msg := "cherry-pick is empty; was this commit already backported?"
		if req.MergedTarget != nil && req.MergedTarget.URL != "" {
			msg = "cherry-pick is empty; the commit was already backported in " + req.MergedTarget.URL
		}
		return backport.ApplyResult{}, errors.NewGitError(msg, errors.ErrAlreadyBackported).
			WithRepository(r.repoDir).
			WithBranch(req.TargetBranch).
			WithCommit(req.SHA)

	case strings.Contains(outputStr, "bad revision") || strings.Contains(outputStr, "bad object"):
		return backport.ApplyResult{}, errors.NewGitError("failed to resolve commit", errors.ErrCommitNotFound).
			WithRepository(r.repoDir).
			WithCommit(req.SHA).
			WithGitOutput(outputStr)

	case isRefusedOutput(outputStr):
		return backport.ApplyResult{}, errors.NewGitError("cherry-pick would overwrite local files", err).
			WithRepository(r.repoDir).
			WithBranch(req.TargetBranch).
			WithCommit(req.SHA).
			WithGitOutput(outputStr).
			WithSeverity(errors.SeverityWarning)

	case isConflictOutput(outputStr):
		conflicting, queryErr := r.ConflictingFiles(ctx)
		if queryErr != nil {
			return backport.ApplyResult{}, queryErr
		}
		unstaged, queryErr := r.UnstagedFiles(ctx)
		if queryErr != nil {
			return backport.ApplyResult{}, queryErr
		}
		// A stop that left nothing to resolve is a tool failure.
		if len(conflicting) == 0 && len(unstaged) == 0 {
			return backport.ApplyResult{}, errors.NewGitError("failed to cherry-pick", err).
				WithRepository(r.repoDir).
				WithBranch(req.TargetBranch).
				WithCommit(req.SHA).
				WithGitOutput(outputStr)
		}
		return backport.ApplyResult{
			ConflictingFiles: conflicting,
			UnstagedFiles:    unstaged,
			NeedsResolving:   true,
		}, nil
	}

	return backport.ApplyResult{}, errors.NewGitError("failed to cherry-pick", err).
		WithRepository(r.repoDir).
		WithBranch(req.TargetBranch).
		WithCommit(req.SHA).
		WithGitOutput(outputStr)
}

// CommitStaged commits the index, reusing the prepared message (MERGE_MSG)
// when there is one. It returns nil when there is nothing to commit.
func (r *CLIRepository) CommitStaged(ctx context.Context, author backport.CommitAuthor, message string) error {
	args := append(authorArgs(author), "commit", "--no-edit")
	output, err := r.executor.RunWithEnv(ctx, r.repoDir, authorEnv(author), "git", args...)
	if err == nil {
		return nil
	}

	outputStr := string(output)
	if strings.Contains(outputStr, "nothing to commit") {
		return nil
	}

	// No prepared message (the cherry-pick already committed or was reset),
	// so supply the original one.
	if strings.Contains(outputStr, "empty commit message") {
		args = append(authorArgs(author), "commit", "-m", message)
		output, err = r.executor.RunWithEnv(ctx, r.repoDir, authorEnv(author), "git", args...)
		if err == nil {
			return nil
		}
		outputStr = string(output)
	}

	return errors.NewGitError("failed to commit changes", err).
		WithRepository(r.repoDir).
		WithGitOutput(outputStr)
}

// ConflictingFiles returns the files that still contain conflict markers.
func (r *CLIRepository) ConflictingFiles(ctx context.Context) ([]backport.ConflictingFile, error) {
	// diff --check exits non-zero when it finds problems; the output is what matters.
	output, err := r.executor.Run(ctx, r.repoDir, "git", "--no-pager", "diff", "--check")
	if err != nil && len(strings.TrimSpace(string(output))) == 0 {
		return nil, errors.NewGitError("failed to get conflicting files", err).
			WithRepository(r.repoDir)
	}

	return parseConflictMarkers(r.repoDir, string(output)), nil
}

// parseConflictMarkers extracts files from `git diff --check` lines of the
// form "path:line: leftover conflict marker", preserving first-seen order.
func parseConflictMarkers(repoDir, output string) []backport.ConflictingFile {
	seen := make(map[string]bool)
	files := []backport.ConflictingFile{}

	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "leftover conflict marker") {
			continue
		}
		idx := strings.Index(line, ":")
		if idx <= 0 {
			continue
		}
		rel := line[:idx]
		if seen[rel] {
			continue
		}
		seen[rel] = true
		files = append(files, backport.ConflictingFile{
			Absolute: filepath.Join(repoDir, rel),
			Relative: rel,
		})
	}
	return files
}

// UnstagedFiles returns absolute paths of files with unstaged modifications.
func (r *CLIRepository) UnstagedFiles(ctx context.Context) ([]string, error) {
	output, err := r.executor.Run(ctx, r.repoDir, "git", "--no-pager", "diff", "--name-only")
	if err != nil {
		return nil, errors.NewGitError("failed to get unstaged files", err).
			WithRepository(r.repoDir).
			WithGitOutput(string(output))
	}

	files := []string{}
	for _, line := range strings.Split(strings.TrimSpace(string(output)), "\n") {
		if line != "" {
			files = append(files, filepath.Join(r.repoDir, line))
		}
	}
	return files, nil
}

// StageFiles adds the given files to the index as they are on disk.
func (r *CLIRepository) StageFiles(ctx context.Context, files []string) error {
	if len(files) == 0 {
		return nil
	}
	args := append([]string{"add", "--"}, files...)
	output, err := r.executor.Run(ctx, r.repoDir, "git", args...)
	if err != nil {
		return errors.NewGitError("failed to stage files", err).
			WithRepository(r.repoDir).
			WithGitOutput(string(output))
	}
	return nil
}

// Side selects one side of a conflict.
type Side string

const (
	SideOurs   Side = "ours"
	SideTheirs Side = "theirs"
)

// CheckoutSide replaces the given conflicting files with one side's version.
func (r *CLIRepository) CheckoutSide(ctx context.Context, side Side, files []string) error {
	if len(files) == 0 {
		return nil
	}
	args := append([]string{"checkout", "--" + string(side), "--"}, files...)
	output, err := r.executor.Run(ctx, r.repoDir, "git", args...)
	if err != nil {
		return errors.NewGitError("failed to check out "+string(side)+" version", err).
			WithRepository(r.repoDir).
			WithGitOutput(string(output))
	}
	return nil
}

// Identity returns the configured git user.
func (r *CLIRepository) Identity(ctx context.Context) (backport.CommitAuthor, error) {
	name, err := r.configValue(ctx, "user.name")
	if err != nil {
		return backport.CommitAuthor{}, err
	}
	email, err := r.configValue(ctx, "user.email")
	if err != nil {
		return backport.CommitAuthor{}, err
	}
	return backport.CommitAuthor{Name: name, Email: email}, nil
}

func (r *CLIRepository) configValue(ctx context.Context, key string) (string, error) {
	output, err := r.executor.Run(ctx, r.repoDir, "git", "config", "--get", key)
	if err != nil {
		return "", errors.NewGitError("failed to read git config "+key, err).
			WithRepository(r.repoDir).
			WithGitOutput(string(output))
	}
	return strings.TrimSpace(string(output)), nil
}

// CurrentBranch returns the checked-out branch name.
func (r *CLIRepository) CurrentBranch(ctx context.Context) (string, error) {
	output, err := r.executor.Run(ctx, r.repoDir, "git", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", errors.NewGitError("failed to get branch", err).
			WithRepository(r.repoDir).
			WithGitOutput(string(output))
	}
	return strings.TrimSpace(string(output)), nil
}

// Checkout switches the working tree to branch.
func (r *CLIRepository) Checkout(ctx context.Context, branch string) error {
	output, err := r.executor.Run(ctx, r.repoDir, "git", "checkout", branch)
	if err != nil {
		cause := err
		if strings.Contains(string(output), "did not match any") {
			cause = errors.ErrBranchNotFound
		}
		return errors.NewGitError("failed to check out branch", cause).
			WithRepository(r.repoDir).
			WithBranch(branch).
			WithGitOutput(string(output))
	}
	return nil
}

// IsCherryPickInProgress returns true if a cherry-pick is stopped mid-way.
func (r *CLIRepository) IsCherryPickInProgress(ctx context.Context) bool {
	output, err := r.executor.Run(ctx, r.repoDir, "git", "rev-parse", "--git-path", "CHERRY_PICK_HEAD")
	if err != nil {
		return false
	}
	path := strings.TrimSpace(string(output))
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.repoDir, path)
	}
	_, err = os.Stat(path)
	return err == nil
}

// AbortCherryPick aborts an in-progress cherry-pick.
func (r *CLIRepository) AbortCherryPick(ctx context.Context) error {
	output, err := r.executor.Run(ctx, r.repoDir, "git", "cherry-pick", "--abort")
	if err != nil {
		return errors.NewGitError("failed to abort cherry-pick", err).
			WithRepository(r.repoDir).
			WithGitOutput(string(output))
	}
	return nil
}

// Ensure CLIRepository satisfies the interfaces the orchestrator consumes.
var _ backport.Repository = (*CLIRepository)(nil)
