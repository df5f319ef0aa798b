// Package backport ports a single commit onto a target branch. It replays the
// commit with the apply primitive, classifies the result, tries an automatic
// resolver, and otherwise drives a bounded interactive resolution loop until
// the working tree is committable or the user aborts.
//
// The package only orchestrates. Git primitives, the hint lookup, prompts and
// the editor are reached through the interfaces in this file so that the
// state machine can be tested against simulated working trees.
package backport

import (
	"context"
	"strings"
)

// MaxRetries bounds the interactive resolution loop.
const MaxRetries = 100

// MaxDisplayedFiles caps how many conflicting files are shown to the user and
// handed to the hint lookup. Settlement still depends on the full live query.
const MaxDisplayedFiles = 50

// PRState is the state of a pull request that proposed a commit for a branch.
type PRState string

const (
	PRStateOpen   PRState = "OPEN"
	PRStateMerged PRState = "MERGED"
	PRStateClosed PRState = "CLOSED"
)

// TargetPullRequest records a pull request that proposed a commit for Branch.
type TargetPullRequest struct {
	Branch string
	State  PRState
	Number int
	URL    string
}

// CommitAuthor is the identity the resulting commit is attributed to.
type CommitAuthor struct {
	Name  string
	Email string
}

// String formats the author the way git does ("Name <email>").
func (a CommitAuthor) String() string {
	return a.Name + " <" + a.Email + ">"
}

// Commit identifies the change being ported. It is read-only to this package.
type Commit struct {
	SHA          string
	Message      string
	Author       CommitAuthor
	SourceBranch string

	TargetPullRequestStates []TargetPullRequest
}

// ShortSHA returns the first eight characters of the commit hash.
func (c Commit) ShortSHA() string {
	if len(c.SHA) <= 8 {
		return c.SHA
	}
	return c.SHA[:8]
}

// Subject returns the first line of the commit message.
func (c Commit) Subject() string {
	subject, _, _ := strings.Cut(c.Message, "\n")
	return strings.TrimSpace(subject)
}

// MergedTargetPullRequest returns the merged pull request for branch, if any.
func (c Commit) MergedTargetPullRequest(branch string) *TargetPullRequest {
	for i := range c.TargetPullRequestStates {
		pr := c.TargetPullRequestStates[i]
		if pr.State == PRStateMerged && pr.Branch == branch {
			return &pr
		}
	}
	return nil
}

// ConflictingFile is one file with unresolved conflict markers. Absolute is
// used for tool invocation, Relative for display and hint lookups.
type ConflictingFile struct {
	Absolute string
	Relative string
}

// Snapshot is the result of one working-tree query. Unstaged paths are absolute.
type Snapshot struct {
	Conflicting []ConflictingFile
	Unstaged    []string
}

// Settled reports whether the snapshot is committable: no conflicting files
// remain and every unstaged file is accounted for as a conflicting file.
func (s Snapshot) Settled() bool {
	if len(s.Conflicting) > 0 {
		return false
	}
	return len(s.ExtraUnstaged()) == 0
}

// ExtraUnstaged returns the unstaged files that are not conflicting files.
func (s Snapshot) ExtraUnstaged() []string {
	conflicting := make(map[string]struct{}, len(s.Conflicting))
	for _, f := range s.Conflicting {
		conflicting[f.Absolute] = struct{}{}
	}

	var extra []string
	for _, path := range s.Unstaged {
		if _, ok := conflicting[path]; !ok {
			extra = append(extra, path)
		}
	}
	return extra
}

// AbsolutePaths returns the absolute paths of all conflicting files.
func (s Snapshot) AbsolutePaths() []string {
	paths := make([]string, len(s.Conflicting))
	for i, f := range s.Conflicting {
		paths[i] = f.Absolute
	}
	return paths
}

// DisplayPaths returns at most MaxDisplayedFiles relative paths.
func (s Snapshot) DisplayPaths() []string {
	n := min(len(s.Conflicting), MaxDisplayedFiles)
	paths := make([]string, n)
	for i := 0; i < n; i++ {
		paths[i] = s.Conflicting[i].Relative
	}
	return paths
}

// Outcome is the result of the conflict-resolution phase.
type Outcome int

const (
	OutcomeNoConflict Outcome = iota
	OutcomeAutoResolved
	OutcomeManuallyResolved
	OutcomeAborted
	// OutcomeCommittedWithConflicts means the conflict markers were staged to
	// be committed as-is.
	OutcomeCommittedWithConflicts
)

// String returns a human-readable outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeNoConflict:
		return "no_conflict"
	case OutcomeAutoResolved:
		return "auto_resolved"
	case OutcomeManuallyResolved:
		return "manually_resolved"
	case OutcomeAborted:
		return "aborted"
	case OutcomeCommittedWithConflicts:
		return "committed_with_conflicts"
	default:
		return "unknown"
	}
}

// Hint is a related commit that touches the conflicting files and has not
// been ported to the target branch yet.
type Hint struct {
	SHA       string
	Subject   string
	Formatted string
}

// ApplyRequest describes one cherry-pick.
type ApplyRequest struct {
	SHA           string
	TargetBranch  string
	Author        CommitAuthor
	Mainline      int
	CherryPickRef bool
	// MergedTarget is set when a pull request for this commit already merged
	// into the target branch.
	MergedTarget *TargetPullRequest
}

// ApplyResult is the non-exceptional result of a cherry-pick. Conflicts are
// reported here, never as errors.
type ApplyResult struct {
	ConflictingFiles []ConflictingFile
	UnstagedFiles    []string
	NeedsResolving   bool
}

// Snapshot returns the working-tree state reported by the apply primitive.
func (r ApplyResult) Snapshot() Snapshot {
	return Snapshot{Conflicting: r.ConflictingFiles, Unstaged: r.UnstagedFiles}
}

// Applier replays a commit onto the current branch.
type Applier interface {
	CherryPick(ctx context.Context, req ApplyRequest) (ApplyResult, error)
}

// Committer commits the staged changes. It is a no-op when nothing is staged
// and the apply step already produced a commit.
type Committer interface {
	CommitStaged(ctx context.Context, author CommitAuthor, message string) error
}

// Stager stages files as they currently are in the working tree.
type Stager interface {
	StageFiles(ctx context.Context, files []string) error
}

// TreeQuerier reports the current working-tree state. Both queries are
// side-effect free and independent.
type TreeQuerier interface {
	ConflictingFiles(ctx context.Context) ([]ConflictingFile, error)
	UnstagedFiles(ctx context.Context) ([]string, error)
}

// IdentityReader reads the local git identity.
type IdentityReader interface {
	Identity(ctx context.Context) (CommitAuthor, error)
}

// Repository is everything the orchestrator needs from the working tree.
type Repository interface {
	Applier
	Committer
	Stager
	TreeQuerier
	IdentityReader
}

// AutoResolver attempts to fix conflicts without user interaction.
type AutoResolver interface {
	Attempt(ctx context.Context, files []string, repoPath, targetBranch string) (bool, error)
}

// HintFinder finds related commits that have not been ported to targetBranch.
type HintFinder interface {
	FindUnportedRelatedCommits(ctx context.Context, commit Commit, targetBranch string, files []string) ([]Hint, error)
}

// Confirmer presents text and blocks until the user affirms or declines.
type Confirmer interface {
	Confirm(ctx context.Context, text string) (bool, error)
}

// EditorLauncher opens an editor on the repository and waits for it to exit.
type EditorLauncher interface {
	Launch(ctx context.Context, editor, repoPath string) error
}

// Progress receives start, success and failure signals for a backport.
type Progress interface {
	Start(text string)
	Succeed(text string)
	Warn(text string)
	Fail(text string)
}

// Printer writes informational output shown to the user during resolution.
type Printer interface {
	Println(text string)
}

// Options configures one backport operation.
type Options struct {
	// Interactive enables prompting; when false conflicts fail immediately.
	Interactive bool
	// AutoResolver is tried before any prompt. Nil means no resolver.
	AutoResolver AutoResolver
	// Editor is launched once against RepoPath before the first prompt.
	Editor string
	// RepoPath is the repository the cherry-pick runs in.
	RepoPath string
	// Cwd is the directory the tool was started from.
	Cwd string

	// CommitConflicts commits conflict markers instead of failing in
	// non-interactive mode.
	CommitConflicts bool
	// Mainline selects the parent when cherry-picking a merge commit.
	Mainline int
	// CherryPickRef appends "(cherry picked from commit ...)" to the message.
	CherryPickRef bool

	// ResetAuthor attributes the commit to the local git identity.
	ResetAuthor bool
	// GitAuthorName and GitAuthorEmail override the original author.
	GitAuthorName  string
	GitAuthorEmail string
}
