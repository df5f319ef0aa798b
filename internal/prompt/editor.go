package prompt

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// fallbackEditors are tried in order when neither the configuration nor the
// environment names an editor.
var fallbackEditors = []string{"vim", "nano", "vi"}

// Editor launches an editor attached to the given streams.
type Editor struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewEditor returns an Editor attached to the process's standard streams.
func NewEditor() *Editor {
	return &Editor{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Launch opens editor on repoPath and blocks until it exits. editor may carry
// arguments, e.g. "code --wait".
func (e *Editor) Launch(ctx context.Context, editor, repoPath string) error {
	return e.Open(ctx, editor, repoPath, repoPath)
}

// Open runs editor on target from dir ("" for the current directory) and
// blocks until it exits.
func (e *Editor) Open(ctx context.Context, editor, target, dir string) error {
	fields := strings.Fields(editor)
	if len(fields) == 0 {
		return fmt.Errorf("no editor configured")
	}

	args := append(fields[1:], target)
	cmd := exec.CommandContext(ctx, fields[0], args...)
	cmd.Dir = dir
	cmd.Stdin = e.Stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("editor %q exited with error: %w", editor, err)
	}
	return nil
}

// ResolveEditor picks the editor to use: configured, then $EDITOR, then
// $VISUAL, then the first common editor found on PATH. It returns "" when
// nothing is available.
func ResolveEditor(configured string) string {
	if configured != "" {
		return configured
	}
	for _, env := range []string{"EDITOR", "VISUAL"} {
		if editor := os.Getenv(env); editor != "" {
			return editor
		}
	}
	for _, name := range fallbackEditors {
		if _, err := exec.LookPath(name); err == nil {
			return name
		}
	}
	return ""
}
