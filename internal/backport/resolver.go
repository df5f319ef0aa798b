package backport

import "context"

// NopResolver never resolves anything. It stands in for "no automatic
// resolver configured".
type NopResolver struct{}

// Attempt always reports that the conflicts remain.
func (NopResolver) Attempt(context.Context, []string, string, string) (bool, error) {
	return false, nil
}

// ResolverFunc adapts a function to the AutoResolver interface.
type ResolverFunc func(ctx context.Context, files []string, repoPath, targetBranch string) (bool, error)

// Attempt calls f.
func (f ResolverFunc) Attempt(ctx context.Context, files []string, repoPath, targetBranch string) (bool, error) {
	return f(ctx, files, repoPath, targetBranch)
}

type nopProgress struct{}

func (nopProgress) Start(string)   {}
func (nopProgress) Succeed(string) {}
func (nopProgress) Warn(string)    {}
func (nopProgress) Fail(string)    {}

type nopPrinter struct{}

func (nopPrinter) Println(string) {}
