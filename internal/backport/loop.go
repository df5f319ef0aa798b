package backport

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"github.com/Iron-Ham/backport/internal/errors"
	"github.com/Iron-Ham/backport/internal/logging"
	"github.com/Iron-Ham/backport/internal/util"
)

const promptDivider = "----------------------------------------"

// settle prompts until the current snapshot is committable. Round 0 checks
// the snapshot it was handed; later rounds check a fresh query.
func (c *Controller) settle(ctx context.Context, repoPath string, snapshot Snapshot, logger *logging.Logger) error {
	retries := 0
	for {
		if snapshot.Settled() {
			logger.Debug("working tree settled", "round", retries)
			return nil
		}

		text := renderPrompt(retries, snapshot, repoPath)
		confirmed, err := c.confirmer.Confirm(ctx, text)
		if err != nil {
			return err
		}
		if !confirmed {
			logger.Info("user aborted conflict resolution", "round", retries)
			return errors.NewAbortError("")
		}

		retries++
		if retries > MaxRetries {
			logger.Error("retry limit exceeded", "round", retries)
			return errors.NewRetryLimitExceededError(MaxRetries)
		}

		snapshot, err = c.querySnapshot(ctx)
		if err != nil {
			return err
		}
		logger.Debug("queried working tree",
			"round", retries,
			"conflicting", len(snapshot.Conflicting),
			"unstaged", len(snapshot.Unstaged))
	}
}

// querySnapshot runs both working-tree queries concurrently and waits for both.
func (c *Controller) querySnapshot(ctx context.Context) (Snapshot, error) {
	var snapshot Snapshot

	p := pool.New().WithErrors().WithContext(ctx).WithFirstError()
	p.Go(func(ctx context.Context) error {
		files, err := c.tree.ConflictingFiles(ctx)
		snapshot.Conflicting = files
		return err
	})
	p.Go(func(ctx context.Context) error {
		files, err := c.tree.UnstagedFiles(ctx)
		snapshot.Unstaged = files
		return err
	})
	if err := p.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snapshot, nil
}

// renderPrompt builds the text shown before each confirmation.
func renderPrompt(round int, snapshot Snapshot, repoPath string) string {
	var sections []string
	if round > 0 {
		sections = append(sections, promptDivider)
	}
	sections = append(sections, "Fix the following conflicts manually:")

	if len(snapshot.Conflicting) > 0 {
		section := "Conflicting files:\n" + util.Bullets(snapshot.DisplayPaths())
		if hidden := len(snapshot.Conflicting) - MaxDisplayedFiles; hidden > 0 {
			section += fmt.Sprintf("\n ... and %d more", hidden)
		}
		sections = append(sections, section)
	}

	if len(snapshot.Unstaged) > 0 {
		shown := snapshot.Unstaged[:min(len(snapshot.Unstaged), MaxDisplayedFiles)]
		paths := make([]string, len(shown))
		for i, path := range shown {
			paths[i] = displayPath(repoPath, path)
		}
		section := "Unstaged files:\n" + util.Bullets(paths)
		if hidden := len(snapshot.Unstaged) - len(shown); hidden > 0 {
			section += fmt.Sprintf("\n ... and %d more", hidden)
		}
		sections = append(sections, section)
	}

	sections = append(sections, "Press ENTER when the conflicts are resolved and files are staged")
	return strings.Join(sections, "\n\n")
}

// displayPath shows path relative to repoPath when it lies inside it.
func displayPath(repoPath, path string) string {
	if repoPath == "" {
		return path
	}
	rel, err := filepath.Rel(repoPath, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
