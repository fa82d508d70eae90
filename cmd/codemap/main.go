// Command codemap lays out, renders and serves codebase maps.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/codemap/internal/cli"
	"github.com/matzehuels/codemap/pkg/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	c := cli.New(os.Stderr, cli.LogInfo)
	err := c.RootCommand().ExecuteContext(ctx)
	stop()

	code := cli.ExitCode(err)
	switch {
	case code == 0 || code == 130:
	case errors.GetCode(err) != "":
		c.Logger.Error(errors.UserMessage(err), "code", errors.GetCode(err))
	default:
		c.Logger.Error(err)
	}
	os.Exit(code)
}
