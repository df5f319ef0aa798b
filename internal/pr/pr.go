// Package pr looks up pull requests on the code host through the gh CLI.
package pr

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/Iron-Ham/backport/internal/backport"
	"github.com/Iron-Ham/backport/internal/git"
	"github.com/Iron-Ham/backport/internal/logging"
)

// ghPullRequest mirrors the fields requested from `gh pr list --json`.
type ghPullRequest struct {
	Number      int    `json:"number"`
	State       string `json:"state"`
	BaseRefName string `json:"baseRefName"`
	URL         string `json:"url"`
}

// Lookup finds pull requests that proposed a commit to other branches.
type Lookup struct {
	dir      string
	executor git.CommandExecutor
	logger   *logging.Logger
}

// NewLookup creates a Lookup that runs gh inside repository dir.
func NewLookup(dir string, executor git.CommandExecutor, logger *logging.Logger) *Lookup {
	if executor == nil {
		executor = git.NewCLICommandExecutor()
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Lookup{dir: dir, executor: executor, logger: logger}
}

// Available reports whether the gh CLI is on PATH.
func Available() bool {
	_, err := exec.LookPath("gh")
	return err == nil
}

// TargetStates returns one record per pull request that mentions sha. Lookup
// failures are logged and reported as no pull requests.
func (l *Lookup) TargetStates(ctx context.Context, sha string) []backport.TargetPullRequest {
	states, err := l.targetStates(ctx, sha)
	if err != nil {
		l.logger.Warn("pull request lookup failed", "sha", sha, "error", err)
		return nil
	}
	return states
}

func (l *Lookup) targetStates(ctx context.Context, sha string) ([]backport.TargetPullRequest, error) {
	output, err := l.executor.Run(ctx, l.dir, "gh", "pr", "list",
		"--search", sha,
		"--state", "all",
		"--json", "number,state,baseRefName,url")
	if err != nil {
		return nil, fmt.Errorf("gh pr list failed: %w\n%s", err, strings.TrimSpace(string(output)))
	}
	return parsePullRequests(output)
}

// parsePullRequests converts gh JSON output into target pull requests.
// Unknown states are skipped.
func parsePullRequests(data []byte) ([]backport.TargetPullRequest, error) {
	var prs []ghPullRequest
	if err := json.Unmarshal(data, &prs); err != nil {
		return nil, fmt.Errorf("failed to parse gh output: %w", err)
	}

	states := make([]backport.TargetPullRequest, 0, len(prs))
	for _, p := range prs {
		state := backport.PRState(strings.ToUpper(p.State))
		switch state {
		case backport.PRStateOpen, backport.PRStateMerged, backport.PRStateClosed:
		default:
			continue
		}
		states = append(states, backport.TargetPullRequest{
			Branch: p.BaseRefName,
			State:  state,
			Number: p.Number,
			URL:    p.URL,
		})
	}
	return states, nil
}
