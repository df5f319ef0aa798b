// Package history reads commit history with go-git. It turns a revision into
// a backport.Commit and finds related commits that a target branch is still
// missing, which are shown as hints when a cherry-pick conflicts.
package history

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/Iron-Ham/backport/internal/backport"
	"github.com/Iron-Ham/backport/internal/errors"
	"github.com/Iron-Ham/backport/internal/logging"
)

// Defaults for Options fields left at zero.
const (
	DefaultMaxCommits  = 10
	DefaultSearchDepth = 500
)

var cherryPickTrailer = regexp.MustCompile(`\(cherry picked from commit ([0-9a-f]{7,40})\)`)

// Options bounds the history search.
type Options struct {
	// MaxCommits caps the number of hints returned.
	MaxCommits int
	// SearchDepth caps how many commits are inspected on each side.
	SearchDepth int
}

// Finder implements backport.HintFinder over a go-git repository.
type Finder struct {
	repo   *gogit.Repository
	opts   Options
	logger *logging.Logger
}

// Open opens the repository containing path.
func Open(path string, opts Options, logger *logging.Logger) (*Finder, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, errors.NewGitError("failed to open repository", errors.ErrNotGitRepository).
			WithRepository(path).
			WithGitOutput(err.Error())
	}
	return New(repo, opts, logger), nil
}

// New wraps an already opened repository.
func New(repo *gogit.Repository, opts Options, logger *logging.Logger) *Finder {
	if opts.MaxCommits <= 0 {
		opts.MaxCommits = DefaultMaxCommits
	}
	if opts.SearchDepth <= 0 {
		opts.SearchDepth = DefaultSearchDepth
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Finder{repo: repo, opts: opts, logger: logger}
}

// LookupCommit resolves rev (a full or abbreviated hash, or any revision go-git
// understands) into a backport.Commit.
func (f *Finder) LookupCommit(_ context.Context, rev string) (backport.Commit, error) {
	c, err := f.resolve(rev)
	if err != nil {
		return backport.Commit{}, err
	}
	return backport.Commit{
		SHA:     c.Hash.String(),
		Message: strings.TrimRight(c.Message, "\n"),
		Author:  backport.CommitAuthor{Name: c.Author.Name, Email: c.Author.Email},
	}, nil
}

func (f *Finder) resolve(rev string) (*object.Commit, error) {
	hash, err := f.repo.ResolveRevision(plumbing.Revision(strings.TrimSpace(rev)))
	if err != nil {
		return nil, errors.NewGitError("failed to resolve revision "+rev, errors.ErrCommitNotFound).
			WithGitOutput(err.Error())
	}
	c, err := f.repo.CommitObject(*hash)
	if err != nil {
		return nil, errors.NewGitError("failed to read commit "+rev, errors.ErrCommitNotFound).
			WithGitOutput(err.Error())
	}
	return c, nil
}

// resolveBranch prefers a local branch, then a remote-tracking branch on
// origin, then any revision.
func (f *Finder) resolveBranch(branch string) (*object.Commit, error) {
	for _, name := range []plumbing.ReferenceName{
		plumbing.NewBranchReferenceName(branch),
		plumbing.NewRemoteReferenceName("origin", branch),
	} {
		ref, err := f.repo.Reference(name, true)
		if err != nil {
			continue
		}
		if c, err := f.repo.CommitObject(ref.Hash()); err == nil {
			return c, nil
		}
	}

	c, err := f.resolve(branch)
	if err != nil {
		return nil, errors.NewGitError("failed to resolve target branch", errors.ErrBranchNotFound).
			WithBranch(branch)
	}
	return c, nil
}

// FindUnportedRelatedCommits walks back from the commit's first parent to the
// point where the source history meets targetBranch, and returns commits that
// touch any of files and are not on targetBranch yet. A commit counts as
// ported when its hash appears in a "(cherry picked from commit ...)" trailer
// or its subject matches a commit on targetBranch since the fork point.
func (f *Finder) FindUnportedRelatedCommits(ctx context.Context, commit backport.Commit, targetBranch string, files []string) ([]backport.Hint, error) {
	if len(files) == 0 {
		return nil, nil
	}

	source, err := f.resolve(commit.SHA)
	if err != nil {
		return nil, err
	}
	if source.NumParents() == 0 {
		return nil, nil
	}
	parent, err := source.Parent(0)
	if err != nil {
		return nil, fmt.Errorf("failed to read parent of %s: %w", commit.SHA, err)
	}

	target, err := f.resolveBranch(targetBranch)
	if err != nil {
		return nil, err
	}

	bases, err := parent.MergeBase(target)
	if err != nil {
		return nil, fmt.Errorf("failed to find merge base: %w", err)
	}
	stop := make(map[plumbing.Hash]bool, len(bases))
	for _, b := range bases {
		stop[b.Hash] = true
	}

	ported, err := f.portedOnTarget(ctx, target, stop)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(files))
	for _, file := range files {
		wanted[file] = true
	}

	var hints []backport.Hint
	inspected := 0
	iter := object.NewCommitPreorderIter(parent, stop, nil)
	defer iter.Close()

	for len(hints) < f.opts.MaxCommits && inspected < f.opts.SearchDepth {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c, err := iter.Next()
		if err != nil {
			break
		}
		inspected++

		if ported.has(c) {
			continue
		}
		touches, err := touchesAny(c, wanted)
		if err != nil {
			f.logger.Debug("skipping commit without readable diff", "sha", c.Hash.String(), "error", err)
			continue
		}
		if !touches {
			continue
		}

		subject := firstLine(c.Message)
		short := c.Hash.String()[:8]
		hints = append(hints, backport.Hint{
			SHA:       c.Hash.String(),
			Subject:   subject,
			Formatted: fmt.Sprintf("- %s (%s)", subject, short),
		})
	}

	f.logger.Debug("hint search complete",
		"sha", commit.ShortSHA(),
		"branch", targetBranch,
		"inspected", inspected,
		"hints", len(hints))
	return hints, nil
}

type portedSet struct {
	hashes   map[string]bool
	subjects map[string]bool
}

// has reports whether a commit is already on the target branch. Trailers may
// carry abbreviated hashes.
func (p portedSet) has(c *object.Commit) bool {
	if p.subjects[firstLine(c.Message)] {
		return true
	}
	full := c.Hash.String()
	for h := range p.hashes {
		if strings.HasPrefix(full, h) {
			return true
		}
	}
	return false
}

// portedOnTarget collects the commits already present on target since the
// fork point, keyed by cherry-pick trailer hash and by subject.
func (f *Finder) portedOnTarget(ctx context.Context, target *object.Commit, stop map[plumbing.Hash]bool) (portedSet, error) {
	set := portedSet{hashes: make(map[string]bool), subjects: make(map[string]bool)}

	iter := object.NewCommitPreorderIter(target, stop, nil)
	defer iter.Close()

	for i := 0; i < f.opts.SearchDepth; i++ {
		if err := ctx.Err(); err != nil {
			return set, err
		}
		c, err := iter.Next()
		if err != nil {
			break
		}
		set.subjects[firstLine(c.Message)] = true
		for _, m := range cherryPickTrailer.FindAllStringSubmatch(c.Message, -1) {
			set.hashes[m[1]] = true
		}
	}
	return set, nil
}

// touchesAny reports whether c changes any of the wanted paths. Merge commits
// are skipped.
func touchesAny(c *object.Commit, wanted map[string]bool) (bool, error) {
	if c.NumParents() > 1 {
		return false, nil
	}

	tree, err := c.Tree()
	if err != nil {
		return false, err
	}

	var parentTree *object.Tree
	if c.NumParents() == 1 {
		p, err := c.Parent(0)
		if err != nil {
			return false, err
		}
		if parentTree, err = p.Tree(); err != nil {
			return false, err
		}
	}

	changes, err := object.DiffTree(parentTree, tree)
	if err != nil {
		return false, err
	}
	for _, change := range changes {
		if wanted[change.From.Name] || wanted[change.To.Name] {
			return true, nil
		}
	}
	return false, nil
}

func firstLine(message string) string {
	line, _, _ := strings.Cut(message, "\n")
	return strings.TrimSpace(line)
}

var _ backport.HintFinder = (*Finder)(nil)
