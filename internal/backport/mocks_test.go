package backport

import (
	"context"
	"fmt"
	"sync"
)

// mockRepository simulates a working tree. Each round of queries returns the
// next snapshot in snapshots; the last snapshot repeats once exhausted.
type mockRepository struct {
	mu sync.Mutex

	applyResult ApplyResult
	applyErr    error
	commitErr   error
	stageErr    error
	queryErr    error
	identity    CommitAuthor

	snapshots     []Snapshot
	conflictCalls int
	unstagedCalls int

	applyRequests []ApplyRequest
	commits       []CommitAuthor
	commitMessage string
	staged        [][]string
	identityCalls int
}

func (m *mockRepository) CherryPick(_ context.Context, req ApplyRequest) (ApplyResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyRequests = append(m.applyRequests, req)
	return m.applyResult, m.applyErr
}

func (m *mockRepository) CommitStaged(_ context.Context, author CommitAuthor, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commits = append(m.commits, author)
	m.commitMessage = message
	return m.commitErr
}

func (m *mockRepository) StageFiles(_ context.Context, files []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staged = append(m.staged, files)
	return m.stageErr
}

func (m *mockRepository) snapshotAt(i int) Snapshot {
	if len(m.snapshots) == 0 {
		return Snapshot{}
	}
	if i >= len(m.snapshots) {
		i = len(m.snapshots) - 1
	}
	return m.snapshots[i]
}

func (m *mockRepository) ConflictingFiles(_ context.Context) ([]ConflictingFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.snapshotAt(m.conflictCalls)
	m.conflictCalls++
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return s.Conflicting, nil
}

func (m *mockRepository) UnstagedFiles(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.snapshotAt(m.unstagedCalls)
	m.unstagedCalls++
	return s.Unstaged, nil
}

func (m *mockRepository) Identity(_ context.Context) (CommitAuthor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identityCalls++
	return m.identity, nil
}

// mockConfirmer answers prompts from answers, then repeats fallback.
type mockConfirmer struct {
	answers  []bool
	fallback bool
	err      error
	prompts  []string
}

func (m *mockConfirmer) Confirm(_ context.Context, text string) (bool, error) {
	m.prompts = append(m.prompts, text)
	if m.err != nil {
		return false, m.err
	}
	i := len(m.prompts) - 1
	if i < len(m.answers) {
		return m.answers[i], nil
	}
	return m.fallback, nil
}

type mockHintFinder struct {
	hints []Hint
	err   error
	calls [][]string
}

func (m *mockHintFinder) FindUnportedRelatedCommits(_ context.Context, _ Commit, _ string, files []string) ([]Hint, error) {
	m.calls = append(m.calls, files)
	return m.hints, m.err
}

type mockEditor struct {
	err   error
	calls []string
}

func (m *mockEditor) Launch(_ context.Context, editor, repoPath string) error {
	m.calls = append(m.calls, editor+" "+repoPath)
	return m.err
}

type mockResolver struct {
	resolved bool
	err      error
	calls    [][]string
}

func (m *mockResolver) Attempt(_ context.Context, files []string, _, _ string) (bool, error) {
	m.calls = append(m.calls, files)
	return m.resolved, m.err
}

type recordingPrinter struct {
	lines []string
}

func (p *recordingPrinter) Println(text string) {
	p.lines = append(p.lines, text)
}

type recordingProgress struct {
	events []string
}

func (p *recordingProgress) Start(text string)   { p.events = append(p.events, "start: "+text) }
func (p *recordingProgress) Succeed(text string) { p.events = append(p.events, "succeed: "+text) }
func (p *recordingProgress) Warn(text string)    { p.events = append(p.events, "warn: "+text) }
func (p *recordingProgress) Fail(text string)    { p.events = append(p.events, "fail: "+text) }

// conflicts builds n conflicting files under /repo.
func conflicts(names ...string) []ConflictingFile {
	files := make([]ConflictingFile, len(names))
	for i, name := range names {
		files[i] = ConflictingFile{Absolute: "/repo/" + name, Relative: name}
	}
	return files
}

func numberedConflicts(n int) []ConflictingFile {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("file%02d.go", i)
	}
	return conflicts(names...)
}
