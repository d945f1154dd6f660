package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/vulnconsole/vulnconsole/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := runMain(ctx, Execute, os.Stderr)
	stop()
	if code != 0 {
		os.Exit(code)
	}
}

func runMain(ctx context.Context, execute func(context.Context) error, stderr io.Writer) int {
	err := execute(ctx)
	if err == nil {
		return 0
	}
	code, report := classifyError(err)
	if report != nil {
		message := "command failed"
		if code == exitCanceled {
			message = "command canceled"
		}
		emitCommandError(report, message, code, stderr)
	}
	return code
}

// classifyError picks the exit code for err and the error to report, nil
// when the command already reported it.
func classifyError(err error) (int, error) {
	var ee *exitError
	switch {
	case errors.As(err, &ee):
		if ee.silent {
			return ee.code, nil
		}
		if ee.err != nil {
			return ee.code, ee.err
		}
		return ee.code, err
	case errors.Is(err, context.Canceled):
		return exitCanceled, err
	default:
		return 1, err
	}
}

// emitCommandError writes a structured record for long-running commands
// and a plain line for interactive ones.
func emitCommandError(err error, message string, exitCode int, stderr io.Writer) {
	ctx := currentCommandExecutionContext()
	if ctx.UsesStructuredLog {
		cfg, cfgErr := logging.LoadConfigFromEnv()
		if cfgErr != nil {
			cfg = logging.DefaultConfig()
		}
		logging.NewLogger(cfg, stderr, ctx.CommandPath).Error(message, "exit_code", exitCode, "error", err)
		return
	}
	if exitCode == exitCanceled {
		fmt.Fprintln(stderr, "canceled")
		return
	}
	fmt.Fprintln(stderr, err)
}
