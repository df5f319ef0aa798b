package pr

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/Iron-Ham/backport/internal/backport"
)

type mockExecutor struct {
	output []byte
	err    error
	dir    string
	name   string
	args   []string
}

func (m *mockExecutor) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	return m.RunWithEnv(ctx, dir, nil, name, args...)
}

func (m *mockExecutor) RunWithEnv(_ context.Context, dir string, _ []string, name string, args ...string) ([]byte, error) {
	m.dir, m.name, m.args = dir, name, args
	return m.output, m.err
}

func TestLookup_TargetStates(t *testing.T) {
	executor := &mockExecutor{output: []byte(`[
		{"number": 12, "state": "MERGED", "baseRefName": "main", "url": "https://github.com/o/r/pull/12"},
		{"number": 15, "state": "merged", "baseRefName": "7.x", "url": "https://github.com/o/r/pull/15"},
		{"number": 16, "state": "OPEN", "baseRefName": "6.x", "url": "https://github.com/o/r/pull/16"},
		{"number": 17, "state": "DRAFT", "baseRefName": "5.x", "url": "https://github.com/o/r/pull/17"}
	]`)}
	lookup := NewLookup("/repo", executor, nil)

	got := lookup.TargetStates(context.Background(), "abc123")
	want := []backport.TargetPullRequest{
		{Branch: "main", State: backport.PRStateMerged, Number: 12, URL: "https://github.com/o/r/pull/12"},
		{Branch: "7.x", State: backport.PRStateMerged, Number: 15, URL: "https://github.com/o/r/pull/15"},
		{Branch: "6.x", State: backport.PRStateOpen, Number: 16, URL: "https://github.com/o/r/pull/16"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TargetStates() = %+v, want %+v", got, want)
	}

	if executor.name != "gh" || executor.dir != "/repo" {
		t.Errorf("ran %q in %q", executor.name, executor.dir)
	}
	if args := strings.Join(executor.args, " "); args != "pr list --search abc123 --state all --json number,state,baseRefName,url" {
		t.Errorf("args = %q", args)
	}

	commit := backport.Commit{TargetPullRequestStates: got}
	if merged := commit.MergedTargetPullRequest("7.x"); merged == nil || merged.Number != 15 {
		t.Errorf("MergedTargetPullRequest(7.x) = %+v", merged)
	}
}

func TestLookup_FailuresMeanNoStates(t *testing.T) {
	tests := []struct {
		name     string
		executor *mockExecutor
	}{
		{"gh fails", &mockExecutor{output: []byte("gh: not logged in"), err: errors.New("exit status 4")}},
		{"invalid json", &mockExecutor{output: []byte("not json")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := NewLookup("/repo", tt.executor, nil)
			if got := lookup.TargetStates(context.Background(), "abc123"); got != nil {
				t.Errorf("TargetStates() = %+v, want nil", got)
			}
		})
	}
}

func TestParsePullRequests_Empty(t *testing.T) {
	got, err := parsePullRequests([]byte("[]"))
	if err != nil {
		t.Fatalf("parsePullRequests() unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("parsePullRequests() = %+v, want empty", got)
	}
}
