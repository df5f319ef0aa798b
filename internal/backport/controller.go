package backport

import (
	"context"
	"fmt"
	"strings"

	"github.com/Iron-Ham/backport/internal/errors"
	"github.com/Iron-Ham/backport/internal/logging"
)

// Dependencies are the collaborators shared by the Orchestrator and the
// Controller. Repository is required; every other field may be nil.
type Dependencies struct {
	Repository Repository
	Hints      HintFinder
	Confirmer  Confirmer
	Editor     EditorLauncher
	Printer    Printer
	Progress   Progress
	Logger     *logging.Logger
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Printer == nil {
		d.Printer = nopPrinter{}
	}
	if d.Progress == nil {
		d.Progress = nopProgress{}
	}
	if d.Logger == nil {
		d.Logger = logging.NopLogger()
	}
	return d
}

// Controller decides what happens after a cherry-pick stops on conflicts:
// automatic resolution, a classified failure, or interactive resolution.
type Controller struct {
	tree      TreeQuerier
	stager    Stager
	hints     HintFinder
	confirmer Confirmer
	editor    EditorLauncher
	printer   Printer
	logger    *logging.Logger
}

// NewController creates a Controller from deps.
func NewController(deps Dependencies) *Controller {
	deps = deps.withDefaults()
	return &Controller{
		tree:      deps.Repository,
		stager:    deps.Repository,
		hints:     deps.Hints,
		confirmer: deps.Confirmer,
		editor:    deps.Editor,
		printer:   deps.Printer,
		logger:    deps.Logger,
	}
}

// Resolve handles a conflicting cherry-pick of commit onto targetBranch.
// snapshot is the working-tree state reported by the apply step.
//
// The automatic resolver always runs first and short-circuits everything
// else on success. In non-interactive mode Resolve never blocks: it fails
// with a MergeConflictError (or stages the markers when CommitConflicts is
// set). In interactive mode it launches the editor once and settles the tree.
// On error the returned outcome is OutcomeAborted.
func (c *Controller) Resolve(ctx context.Context, opts Options, commit Commit, targetBranch string, snapshot Snapshot) (Outcome, error) {
	logger := c.logger.WithCommit(commit.ShortSHA()).WithBranch(targetBranch).WithPhase("resolve")

	resolver := opts.AutoResolver
	if resolver == nil {
		resolver = NopResolver{}
	}
	resolved, err := resolver.Attempt(ctx, snapshot.AbsolutePaths(), opts.RepoPath, targetBranch)
	if err != nil {
		logger.Error("automatic resolution failed", "error", err)
		return OutcomeAborted, err
	}
	if resolved {
		logger.Info("conflicts resolved automatically", "files", len(snapshot.Conflicting))
		return OutcomeAutoResolved, nil
	}

	files := snapshot.DisplayPaths()
	hints := c.findHints(ctx, commit, targetBranch, files, logger)

	if !opts.Interactive {
		if opts.CommitConflicts {
			staged := append(snapshot.AbsolutePaths(), snapshot.ExtraUnstaged()...)
			if err := c.stager.StageFiles(ctx, staged); err != nil {
				return OutcomeAborted, err
			}
			logger.Warn("committing unresolved conflicts", "files", len(snapshot.Conflicting))
			return OutcomeCommittedWithConflicts, nil
		}
		logger.Info("conflicts in non-interactive mode", "files", len(snapshot.Conflicting), "hints", len(hints))
		return OutcomeAborted, errors.NewMergeConflictError(files, formatHints(hints))
	}

	if c.confirmer == nil {
		return OutcomeAborted, errors.NewValidationError("interactive resolution requires a confirmation prompt")
	}

	c.printSummary(opts.RepoPath, targetBranch, hints)

	if opts.Editor != "" && c.editor != nil {
		logger.Debug("launching editor", "editor", opts.Editor)
		if err := c.editor.Launch(ctx, opts.Editor, opts.RepoPath); err != nil {
			return OutcomeAborted, err
		}
	}

	if err := c.settle(ctx, opts.RepoPath, snapshot, logger.WithPhase("settle")); err != nil {
		return OutcomeAborted, err
	}
	logger.Info("conflicts resolved manually")
	return OutcomeManuallyResolved, nil
}

// findHints looks up related commits. Lookup failures only mean no hints.
func (c *Controller) findHints(ctx context.Context, commit Commit, targetBranch string, files []string, logger *logging.Logger) []Hint {
	if c.hints == nil || len(files) == 0 {
		return nil
	}
	hints, err := c.hints.FindUnportedRelatedCommits(ctx, commit, targetBranch, files)
	if err != nil {
		logger.Warn("hint lookup failed", "error", err)
		return nil
	}
	return hints
}

func (c *Controller) printSummary(repoPath, targetBranch string, hints []Hint) {
	c.printer.Println("The commit could not be backported due to conflicts")
	c.printer.Println(fmt.Sprintf("Please fix the conflicts in %s", repoPath))

	if len(hints) == 0 {
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Hint: Before fixing the conflicts manually you should consider backporting the following pull requests to %q:\n", targetBranch)
	sb.WriteString(strings.Join(formatHints(hints), "\n"))
	c.printer.Println(sb.String())
}

func formatHints(hints []Hint) []string {
	formatted := make([]string, 0, len(hints))
	for _, h := range hints {
		formatted = append(formatted, h.Formatted)
	}
	return formatted
}
