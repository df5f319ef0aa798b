// Package prompt implements the terminal side of conflict resolution: the
// confirmation prompt, informational output, progress lines and the editor.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/Iron-Ham/backport/internal/tui/styles"
	"github.com/Iron-Ham/backport/internal/util"
)

type readResult struct {
	line string
	err  error
}

// Terminal talks to the user over a reader and a writer. It implements
// backport.Confirmer, backport.Printer and backport.Progress.
type Terminal struct {
	in    *bufio.Reader
	out   io.Writer
	width int

	mu      sync.Mutex
	once    sync.Once
	results chan readResult
}

// NewTerminal creates a Terminal. When out is a terminal, progress lines are
// truncated to its width.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	t := &Terminal{
		in:      bufio.NewReader(in),
		out:     out,
		results: make(chan readResult),
	}
	if f, ok := out.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil {
			t.width = width
		}
	}
	return t
}

// Stdio returns a Terminal bound to the process's standard streams.
func Stdio() *Terminal {
	return NewTerminal(os.Stdin, os.Stdout)
}

// readLines feeds input lines to results. A single reader goroutine keeps a
// cancelled Confirm from swallowing the answer to the next one.
func (t *Terminal) readLines() {
	for {
		line, err := t.in.ReadString('\n')
		t.results <- readResult{line: line, err: err}
		if err != nil {
			return
		}
	}
}

// Confirm prints text and waits for an answer. ENTER, "y" or "yes" affirm;
// "n", "no", "q", "quit" or "abort" decline, as does end of input. Anything
// else asks again.
func (t *Terminal) Confirm(ctx context.Context, text string) (bool, error) {
	t.once.Do(func() { go t.readLines() })

	t.Println(text)
	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case res, ok := <-t.results:
			if !ok {
				return false, nil
			}
			if res.err != nil {
				// Keep reporting end of input to later prompts.
				close(t.results)
				if res.err == io.EOF {
					return false, nil
				}
				return false, fmt.Errorf("failed to read answer: %w", res.err)
			}
			if answer, known := parseAnswer(res.line); known {
				return answer, nil
			}
			t.Println(styles.Muted.Render(`Press ENTER to continue or type "abort" to stop`))
		}
	}
}

func parseAnswer(line string) (answer, known bool) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "y", "yes":
		return true, true
	case "n", "no", "q", "quit", "abort":
		return false, true
	default:
		return false, false
	}
}

// Println writes text followed by a newline.
func (t *Terminal) Println(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, text)
}

// Start reports that an operation began.
func (t *Terminal) Start(text string) { t.status(styles.StateRunning, text) }

// Succeed reports that an operation finished.
func (t *Terminal) Succeed(text string) { t.status(styles.StateSuccess, text) }

// Warn reports that an operation finished with a caveat.
func (t *Terminal) Warn(text string) { t.status(styles.StateWarning, text) }

// Fail reports that an operation failed.
func (t *Terminal) Fail(text string) { t.status(styles.StateFailed, text) }

func (t *Terminal) status(state, text string) {
	t.Println(util.FitLine(styles.RenderState(state, text), t.width))
}
