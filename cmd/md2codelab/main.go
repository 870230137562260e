package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	md2codelab "github.com/alnah/go-md2codelab"
	"github.com/alnah/go-md2codelab/internal/hints"
)

// Version is set at build time via ldflags.
var Version = "dev"

// ErrUnknownCommand is returned for an unrecognized subcommand.
var ErrUnknownCommand = errors.New("unknown command")

func main() {
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))

	ctx, stop := notifyContext(context.Background())
	code := runMain(ctx, os.Args, DefaultEnv())
	stop()
	os.Exit(code)
}

// runMain dispatches the subcommand and turns its error into an exit code,
// printing the error and any hint to stderr.
func runMain(ctx context.Context, args []string, env *Environment) int {
	if len(args) > 0 {
		args = args[1:] // program name
	}
	if len(args) == 0 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	warnUnknownEnvVars(env.Stderr)

	cmd, rest := args[0], args[1:]
	var err error
	switch cmd {
	case "serve":
		err = runServe(ctx, rest, env)
	case "convert":
		err = runConvert(ctx, rest, env)
	case "config":
		err = runConfig(rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "md2codelab %s\n", Version)
	case "help", "-h", "--help":
		runHelp(rest, env)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}

	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintln(env.Stderr, strings.TrimSpace(err.Error())+hintFor(err))
		if errors.Is(err, ErrUnknownCommand) {
			printUsage(env.Stderr)
		}
	}
	return exitCodeFor(err)
}

// hintFor returns a hint for errors whose fix does not depend on call-site
// details. Hints that need an address or prefix are attached where the
// error is created.
func hintFor(err error) string {
	switch {
	case errors.Is(err, md2codelab.ErrEmptyDocument):
		return hints.ForEmptyDocument()
	case errors.Is(err, md2codelab.ErrFetchFailed) && errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, ErrWriteOutput):
		return hints.ForOutputDirectory()
	default:
		return ""
	}
}
