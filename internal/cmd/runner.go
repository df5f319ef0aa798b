package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/Iron-Ham/backport/internal/backport"
	"github.com/Iron-Ham/backport/internal/batch"
	"github.com/Iron-Ham/backport/internal/errors"
	"github.com/Iron-Ham/backport/internal/logging"
	"github.com/Iron-Ham/backport/internal/tui/styles"
	"github.com/Iron-Ham/backport/internal/util"
)

// branchRepository is the working tree as seen by the runner.
type branchRepository interface {
	CurrentBranch(ctx context.Context) (string, error)
	Checkout(ctx context.Context, branch string) error
	IsCherryPickInProgress(ctx context.Context) bool
	AbortCherryPick(ctx context.Context) error
}

type commitLookup interface {
	LookupCommit(ctx context.Context, rev string) (backport.Commit, error)
}

type pullRequestLookup interface {
	TargetStates(ctx context.Context, sha string) []backport.TargetPullRequest
}

type commitPorter interface {
	BackportOneCommit(ctx context.Context, opts backport.Options, commit backport.Commit, targetBranch string) error
}

// runner executes a plan one (commit, branch) pair at a time. The first
// failure stops the run and the remaining pairs are skipped.
type runner struct {
	repo         branchRepository
	commits      commitLookup
	prs          pullRequestLookup
	orchestrator commitPorter
	opts         backport.Options
	printer      backport.Printer
	logger       *logging.Logger
}

func (r *runner) run(ctx context.Context, plan *batch.Plan) error {
	original, err := r.repo.CurrentBranch(ctx)
	if err != nil {
		return err
	}

	done := 0
	for _, item := range plan.Commits {
		commit, err := r.commits.LookupCommit(ctx, item.SHA)
		if err != nil {
			return err
		}
		commit.SourceBranch = original
		if r.prs != nil {
			commit.TargetPullRequestStates = r.prs.TargetStates(ctx, commit.SHA)
		}

		for _, branch := range item.Branches {
			if err := r.repo.Checkout(ctx, branch); err != nil {
				r.restore(ctx, original)
				r.reportSkipped(plan.Len() - done - 1)
				return err
			}
			if err := r.orchestrator.BackportOneCommit(ctx, r.opts, commit, branch); err != nil {
				logFailure(r.logger.WithCommit(commit.ShortSHA()).WithBranch(branch), err)
				err = r.handleFailure(ctx, err, original)
				r.reportSkipped(plan.Len() - done - 1)
				return err
			}
			done++
		}
	}

	r.restore(ctx, original)
	r.printer.Println(styles.SuccessMsg.Render(fmt.Sprintf("Backported %s", util.Plural(done, "commit", "commits"))))
	return nil
}

// handleFailure reports a failed backport. A conflict that nobody will fix is
// rolled back so that the branch is left as it was; an interrupted
// interactive session keeps the working tree for the user.
func (r *runner) handleFailure(ctx context.Context, err error, original string) error {
	var conflictErr *errors.MergeConflictError
	if !errors.As(err, &conflictErr) {
		if errors.Is(err, errors.ErrAborted) || errors.Is(err, errors.ErrRetryLimitExceeded) {
			r.printer.Println(styles.WarningMsg.Render("The cherry-pick was left in progress. Run `git cherry-pick --abort` to discard it."))
		}
		return err
	}

	if len(conflictErr.Hints) > 0 {
		r.printer.Println(styles.Hint.Render("Consider backporting these commits first:\n" + strings.Join(conflictErr.Hints, "\n")))
	}
	if r.repo.IsCherryPickInProgress(ctx) {
		if abortErr := r.repo.AbortCherryPick(ctx); abortErr != nil {
			r.logger.Warn("failed to abort cherry-pick", "error", abortErr)
			return errors.Join(err, abortErr)
		}
	}
	r.restore(ctx, original)
	return err
}

// reportSkipped tells the user how many (commit, branch) pairs were not started.
func (r *runner) reportSkipped(remaining int) {
	if remaining <= 0 {
		return
	}
	r.printer.Println(styles.Muted.Render(fmt.Sprintf("Skipped %s", util.Plural(remaining, "remaining backport", "remaining backports"))))
}

// logFailure logs err at the level its severity calls for.
func logFailure(logger *logging.Logger, err error) {
	switch errors.GetSeverity(err) {
	case errors.SeverityDebug:
		logger.Debug("backport stopped", "error", err)
	case errors.SeverityInfo:
		logger.Info("backport stopped", "error", err)
	case errors.SeverityWarning:
		logger.Warn("backport stopped", "error", err)
	default:
		logger.Error("backport failed", "error", err, "severity", errors.GetSeverity(err).String())
	}
}

func (r *runner) restore(ctx context.Context, branch string) {
	if branch == "" || branch == "HEAD" {
		return
	}
	if err := r.repo.Checkout(ctx, branch); err != nil {
		r.logger.Warn("failed to restore original branch", "branch", branch, "error", err)
	}
}
