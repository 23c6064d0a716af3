package adapters

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog"
	"mvdan.cc/sh/v3/syntax"

	"pyimport/internal/ports"
)

// CommandRunnerAdapter runs commands in the foreground, inheriting the
// process's output streams, and blocks until they exit.
type CommandRunnerAdapter struct {
	Logger zerolog.Logger
	Stdout io.Writer
	Stderr io.Writer
}

func NewCommandRunnerAdapter(logger zerolog.Logger) CommandRunnerAdapter {
	return CommandRunnerAdapter{Logger: logger, Stdout: os.Stdout, Stderr: os.Stderr}
}

func (a CommandRunnerAdapter) LookPath(name string) (string, error) {
	exe, err := exec.LookPath(name)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("cannot find %s in PATH", name)).
			WithCause(err)
	}
	return exe, nil
}

func (a CommandRunnerAdapter) Run(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("empty command")
	}
	cmdline := QuoteCommand(argv)
	a.Logger.Info().Str("cmd", cmdline).Msg("running")

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = a.Stdout
	cmd.Stderr = a.Stderr
	if err := cmd.Run(); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("command failed: %s", cmdline)).
			WithCause(err)
	}
	return nil
}

// QuoteCommand joins argv into a line a POSIX shell would parse back into
// the same arguments.
func QuoteCommand(argv []string) string {
	quoted := make([]string, 0, len(argv))
	for _, arg := range argv {
		q, err := syntax.Quote(arg, syntax.LangPOSIX)
		if err != nil {
			q = strconv.Quote(arg)
		}
		quoted = append(quoted, q)
	}
	return strings.Join(quoted, " ")
}

var _ ports.CommandRunnerPort = CommandRunnerAdapter{}
