package backport

import (
	"context"
	"fmt"

	"github.com/Iron-Ham/backport/internal/logging"
)

// Orchestrator drives one commit through cherry-pick, conflict handling and
// the final commit.
type Orchestrator struct {
	repo       Repository
	controller *Controller
	progress   Progress
	logger     *logging.Logger
}

// NewOrchestrator creates an Orchestrator. deps.Repository must be set.
func NewOrchestrator(deps Dependencies) *Orchestrator {
	deps = deps.withDefaults()
	return &Orchestrator{
		repo:       deps.Repository,
		controller: NewController(deps),
		progress:   deps.Progress,
		logger:     deps.Logger,
	}
}

// BackportOneCommit cherry-picks commit onto the checked-out targetBranch and
// commits the result. Errors from the apply step, conflict resolution or the
// commit are returned unchanged.
func (o *Orchestrator) BackportOneCommit(ctx context.Context, opts Options, commit Commit, targetBranch string) error {
	logger := o.logger.WithCommit(commit.ShortSHA()).WithBranch(targetBranch)
	o.progress.Start(fmt.Sprintf("Cherry-picking: %s", commit.Subject()))

	outcome, err := o.run(ctx, opts, commit, targetBranch, logger)
	if err != nil {
		logger.Error("backport failed", "error", err)
		o.progress.Fail(fmt.Sprintf("Cherry-picking failed: %s", commit.Subject()))
		return err
	}

	logger.Info("backport complete", "outcome", outcome.String())
	if outcome == OutcomeCommittedWithConflicts {
		o.progress.Warn(fmt.Sprintf("Committed with conflict markers: %s", commit.Subject()))
		return nil
	}
	o.progress.Succeed(fmt.Sprintf("Cherry-picked: %s", commit.Subject()))
	return nil
}

func (o *Orchestrator) run(ctx context.Context, opts Options, commit Commit, targetBranch string, logger *logging.Logger) (Outcome, error) {
	author, err := o.resolveAuthor(ctx, opts, commit)
	if err != nil {
		return OutcomeAborted, err
	}

	req := ApplyRequest{
		SHA:           commit.SHA,
		TargetBranch:  targetBranch,
		Author:        author,
		Mainline:      opts.Mainline,
		CherryPickRef: opts.CherryPickRef,
		MergedTarget:  commit.MergedTargetPullRequest(targetBranch),
	}
	logger.WithPhase("apply").Debug("cherry-picking", "author", author.String())

	result, err := o.repo.CherryPick(ctx, req)
	if err != nil {
		return OutcomeAborted, err
	}

	outcome := OutcomeNoConflict
	if result.NeedsResolving {
		logger.Info("cherry-pick stopped",
			"conflicting", len(result.ConflictingFiles),
			"unstaged", len(result.UnstagedFiles))
		outcome, err = o.controller.Resolve(ctx, opts, commit, targetBranch, result.Snapshot())
		if err != nil {
			return outcome, err
		}
	}

	logger.WithPhase("commit").Debug("committing staged changes")
	if err := o.repo.CommitStaged(ctx, author, commit.Message); err != nil {
		return OutcomeAborted, err
	}
	return outcome, nil
}

// resolveAuthor picks the identity for the resulting commit. ResetAuthor uses
// the local git identity; otherwise configured values override the original
// author field by field.
func (o *Orchestrator) resolveAuthor(ctx context.Context, opts Options, commit Commit) (CommitAuthor, error) {
	if opts.ResetAuthor {
		return o.repo.Identity(ctx)
	}

	author := commit.Author
	if opts.GitAuthorName != "" {
		author.Name = opts.GitAuthorName
	}
	if opts.GitAuthorEmail != "" {
		author.Email = opts.GitAuthorEmail
	}
	return author, nil
}
