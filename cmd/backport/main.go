// Command backport ports commits onto release branches.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/Iron-Ham/backport/internal/cmd"
	"github.com/Iron-Ham/backport/internal/errors"
	"github.com/Iron-Ham/backport/internal/tui/styles"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cmd.Execute(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, styles.ErrorMsg.Render("Error:")+" "+err.Error())
		os.Exit(errors.ExitCode(err))
	}
}
