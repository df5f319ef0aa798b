package backport

import (
	"context"
	stderrors "errors"
	"reflect"
	"strings"
	"testing"

	"github.com/Iron-Ham/backport/internal/errors"
)

func TestController_AutoResolveShortCircuits(t *testing.T) {
	repo := &mockRepository{}
	hints := &mockHintFinder{}
	confirmer := &mockConfirmer{fallback: true}
	editor := &mockEditor{}
	resolver := &mockResolver{resolved: true}

	c := NewController(Dependencies{Repository: repo, Hints: hints, Confirmer: confirmer, Editor: editor})
	opts := Options{Interactive: true, AutoResolver: resolver, Editor: "vim", RepoPath: "/repo"}

	outcome, err := c.Resolve(context.Background(), opts, Commit{SHA: "abc123"}, "7.x",
		Snapshot{Conflicting: conflicts("a.go", "b.go")})
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if outcome != OutcomeAutoResolved {
		t.Errorf("outcome = %v, want %v", outcome, OutcomeAutoResolved)
	}
	if !reflect.DeepEqual(resolver.calls, [][]string{{"/repo/a.go", "/repo/b.go"}}) {
		t.Errorf("resolver received %v, want absolute paths", resolver.calls)
	}
	if len(hints.calls) != 0 {
		t.Error("hint lookup must not run after automatic resolution")
	}
	if len(confirmer.prompts) != 0 {
		t.Error("no prompt may be shown after automatic resolution")
	}
	if len(editor.calls) != 0 {
		t.Error("editor must not be launched after automatic resolution")
	}
}

func TestController_ResolverErrorPropagates(t *testing.T) {
	wantErr := stderrors.New("resolver crashed")
	c := NewController(Dependencies{Repository: &mockRepository{}})

	_, err := c.Resolve(context.Background(), Options{AutoResolver: &mockResolver{err: wantErr}},
		Commit{}, "7.x", Snapshot{Conflicting: conflicts("a.go")})
	if err != wantErr {
		t.Errorf("Resolve() error = %v, want %v", err, wantErr)
	}
}

func TestController_NonInteractiveNeverPrompts(t *testing.T) {
	repo := &mockRepository{}
	confirmer := &mockConfirmer{fallback: true}
	hints := &mockHintFinder{hints: []Hint{{Formatted: "- Add parser (1234abcd)"}}}
	resolver := &mockResolver{}

	c := NewController(Dependencies{Repository: repo, Hints: hints, Confirmer: confirmer})
	opts := Options{Interactive: false, AutoResolver: resolver, RepoPath: "/repo"}

	outcome, err := c.Resolve(context.Background(), opts, Commit{SHA: "abc123"}, "7.x",
		Snapshot{Conflicting: conflicts("a.go", "b.go")})

	var conflictErr *errors.MergeConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("Resolve() error = %v, want MergeConflictError", err)
	}
	if outcome != OutcomeAborted {
		t.Errorf("outcome = %v, want %v", outcome, OutcomeAborted)
	}
	if !reflect.DeepEqual(conflictErr.Files, []string{"a.go", "b.go"}) {
		t.Errorf("Files = %v", conflictErr.Files)
	}
	if !reflect.DeepEqual(conflictErr.Hints, []string{"- Add parser (1234abcd)"}) {
		t.Errorf("Hints = %v", conflictErr.Hints)
	}
	if len(resolver.calls) != 1 {
		t.Errorf("resolver calls = %d, want 1", len(resolver.calls))
	}
	if len(confirmer.prompts) != 0 {
		t.Errorf("non-interactive mode prompted %d times", len(confirmer.prompts))
	}
	if repo.conflictCalls != 0 || len(repo.staged) != 0 {
		t.Error("non-interactive failure must not touch the working tree")
	}
}

func TestController_HintFailureMeansNoHints(t *testing.T) {
	hints := &mockHintFinder{err: stderrors.New("history unavailable")}
	c := NewController(Dependencies{Repository: &mockRepository{}, Hints: hints})

	_, err := c.Resolve(context.Background(), Options{}, Commit{}, "7.x",
		Snapshot{Conflicting: conflicts("a.go")})

	var conflictErr *errors.MergeConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("Resolve() error = %v, want MergeConflictError", err)
	}
	if len(conflictErr.Hints) != 0 {
		t.Errorf("Hints = %v, want none", conflictErr.Hints)
	}
	if strings.Contains(err.Error(), "history unavailable") {
		t.Error("hint lookup error leaked into the returned error")
	}
}

func TestController_DisplayCap(t *testing.T) {
	all := numberedConflicts(75)
	repo := &mockRepository{
		snapshots: []Snapshot{
			{Conflicting: all[MaxDisplayedFiles:]},
			{},
		},
	}
	hints := &mockHintFinder{}
	confirmer := &mockConfirmer{fallback: true}

	c := NewController(Dependencies{Repository: repo, Hints: hints, Confirmer: confirmer})
	outcome, err := c.Resolve(context.Background(), Options{Interactive: true, RepoPath: "/repo"},
		Commit{SHA: "abc123"}, "7.x", Snapshot{Conflicting: all})
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if outcome != OutcomeManuallyResolved {
		t.Errorf("outcome = %v, want %v", outcome, OutcomeManuallyResolved)
	}

	if len(hints.calls) != 1 {
		t.Fatalf("hint lookups = %d, want 1", len(hints.calls))
	}
	if len(hints.calls[0]) != MaxDisplayedFiles {
		t.Errorf("hint lookup received %d files, want %d", len(hints.calls[0]), MaxDisplayedFiles)
	}
	if got := strings.Count(confirmer.prompts[0], "\n - "); got != MaxDisplayedFiles {
		t.Errorf("first prompt lists %d files, want %d", got, MaxDisplayedFiles)
	}
	if !strings.Contains(confirmer.prompts[0], "... and 25 more") {
		t.Error("first prompt should mention the hidden files")
	}
	// The 25 files beyond the cap still had to disappear before settling.
	if len(confirmer.prompts) != 2 {
		t.Errorf("prompts = %d, want 2", len(confirmer.prompts))
	}
	if !strings.Contains(confirmer.prompts[1], "file74.go") {
		t.Error("second prompt should list the remaining undisplayed files")
	}
}

func TestController_CommitConflicts(t *testing.T) {
	repo := &mockRepository{}
	c := NewController(Dependencies{Repository: repo})

	snapshot := Snapshot{
		Conflicting: conflicts("a.go"),
		Unstaged:    []string{"/repo/a.go", "/repo/gen.go"},
	}
	outcome, err := c.Resolve(context.Background(), Options{CommitConflicts: true}, Commit{}, "7.x", snapshot)
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if outcome != OutcomeCommittedWithConflicts {
		t.Errorf("outcome = %v, want %v", outcome, OutcomeCommittedWithConflicts)
	}
	want := [][]string{{"/repo/a.go", "/repo/gen.go"}}
	if !reflect.DeepEqual(repo.staged, want) {
		t.Errorf("staged = %v, want %v", repo.staged, want)
	}
}

func TestController_EditorLaunchedOnce(t *testing.T) {
	repo := &mockRepository{
		snapshots: []Snapshot{
			{Conflicting: conflicts("a.go")},
			{Unstaged: []string{"/repo/a.go"}},
			{},
		},
	}
	editor := &mockEditor{}
	confirmer := &mockConfirmer{fallback: true}
	printer := &recordingPrinter{}
	hints := &mockHintFinder{hints: []Hint{{Formatted: "- Add parser (1234abcd)"}}}

	c := NewController(Dependencies{
		Repository: repo,
		Hints:      hints,
		Confirmer:  confirmer,
		Editor:     editor,
		Printer:    printer,
	})
	opts := Options{Interactive: true, Editor: "code", RepoPath: "/repo"}

	outcome, err := c.Resolve(context.Background(), opts, Commit{}, "7.x", Snapshot{Conflicting: conflicts("a.go")})
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if outcome != OutcomeManuallyResolved {
		t.Errorf("outcome = %v", outcome)
	}
	if !reflect.DeepEqual(editor.calls, []string{"code /repo"}) {
		t.Errorf("editor calls = %v, want exactly one launch", editor.calls)
	}
	if len(confirmer.prompts) != 3 {
		t.Errorf("prompts = %d, want 3", len(confirmer.prompts))
	}

	output := strings.Join(printer.lines, "\n")
	for _, want := range []string{
		"The commit could not be backported due to conflicts",
		"Please fix the conflicts in /repo",
		`backporting the following pull requests to "7.x"`,
		"- Add parser (1234abcd)",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("summary missing %q:\n%s", want, output)
		}
	}
}

func TestController_EditorFailurePropagates(t *testing.T) {
	wantErr := errors.NewGitError("editor exited with status 1", nil)
	confirmer := &mockConfirmer{fallback: true}
	c := NewController(Dependencies{
		Repository: &mockRepository{},
		Confirmer:  confirmer,
		Editor:     &mockEditor{err: wantErr},
	})

	_, err := c.Resolve(context.Background(), Options{Interactive: true, Editor: "vim"}, Commit{}, "7.x",
		Snapshot{Conflicting: conflicts("a.go")})
	if err != wantErr {
		t.Errorf("Resolve() error = %v, want %v", err, wantErr)
	}
	if len(confirmer.prompts) != 0 {
		t.Error("no prompt should follow a failed editor launch")
	}
}

func TestController_InteractiveWithoutConfirmer(t *testing.T) {
	c := NewController(Dependencies{Repository: &mockRepository{}})

	_, err := c.Resolve(context.Background(), Options{Interactive: true}, Commit{}, "7.x",
		Snapshot{Conflicting: conflicts("a.go")})
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("Resolve() error = %v, want ErrInvalidInput", err)
	}
}
