// Package testutil provides git repository fixtures for backport tests.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// Identity used for every commit made by fixtures.
const (
	TestUserName  = "Backport Test"
	TestUserEmail = "test@backport.dev"
)

// SkipIfNoGit skips the test if git is not installed.
func SkipIfNoGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

// SetupTestRepo creates a temporary git repository on branch "main" with an
// initial commit. The repository is removed when the test completes.
func SetupTestRepo(t *testing.T) string {
	t.Helper()
	SkipIfNoGit(t)

	dir := t.TempDir()
	// macOS temp dirs are symlinked; git reports resolved paths.
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}

	Git(t, dir, "init")
	Git(t, dir, "config", "user.email", TestUserEmail)
	Git(t, dir, "config", "user.name", TestUserName)
	Git(t, dir, "config", "commit.gpgsign", "false")

	WriteFile(t, dir, "README.md", "# Test Repository\n")
	Git(t, dir, "add", ".")
	Git(t, dir, "commit", "-m", "Initial commit")
	Git(t, dir, "branch", "-M", "main")

	return dir
}

// WriteFile writes content to a repository-relative path without staging it.
func WriteFile(t *testing.T, repoDir, path, content string) {
	t.Helper()

	fullPath := filepath.Join(repoDir, path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
}

// CommitFile writes, stages and commits a file, returning the new HEAD SHA.
func CommitFile(t *testing.T, repoDir, path, content, message string) string {
	t.Helper()

	WriteFile(t, repoDir, path, content)
	Git(t, repoDir, "add", path)
	Git(t, repoDir, "commit", "-m", message)
	return HeadSHA(t, repoDir)
}

// CreateBranch creates a branch at HEAD without switching to it.
func CreateBranch(t *testing.T, repoDir, branch string) {
	t.Helper()
	Git(t, repoDir, "branch", branch)
}

// CheckoutBranch switches to an existing branch.
func CheckoutBranch(t *testing.T, repoDir, branch string) {
	t.Helper()
	Git(t, repoDir, "checkout", branch)
}

// HeadSHA returns the full SHA of HEAD.
func HeadSHA(t *testing.T, repoDir string) string {
	t.Helper()
	return strings.TrimSpace(Git(t, repoDir, "rev-parse", "HEAD"))
}

// HeadMessage returns the full message of the HEAD commit.
func HeadMessage(t *testing.T, repoDir string) string {
	t.Helper()
	return strings.TrimSpace(Git(t, repoDir, "log", "-1", "--pretty=%B"))
}

// CommitCount returns the number of commits reachable from HEAD.
func CommitCount(t *testing.T, repoDir string) int {
	t.Helper()
	n, err := strconv.Atoi(strings.TrimSpace(Git(t, repoDir, "rev-list", "--count", "HEAD")))
	if err != nil {
		t.Fatalf("failed to parse commit count: %v", err)
	}
	return n
}

// Git runs a git command in dir, failing the test on error.
func Git(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_EDITOR=true")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s failed: %v\n%s", strings.Join(args, " "), err, output)
	}
	return string(output)
}

// GitMayFail runs a git command and returns its output and error.
func GitMayFail(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_EDITOR=true")
	output, err := cmd.CombinedOutput()
	return string(output), err
}
