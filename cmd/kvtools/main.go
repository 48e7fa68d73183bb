package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kvtools/internal/cli"
	kverrors "github.com/matzehuels/kvtools/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130) // Standard shell convention for SIGINT
		}
		fmt.Fprintln(os.Stderr, "Error:", kverrors.UserMessage(err))
		os.Exit(exitCode(err))
	}
}

func run(ctx context.Context) error {
	var verbose bool

	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()
	root.SilenceErrors = true
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	preRun := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			c.SetLogLevel(cli.LogDebug)
		}
		if preRun != nil {
			return preRun(cmd, args)
		}
		return nil
	}

	return root.ExecuteContext(ctx)
}

// exitCode distinguishes bad input from missing data and other failures.
func exitCode(err error) int {
	switch kverrors.GetCode(err) {
	case kverrors.ErrCodeInvalidInput, kverrors.ErrCodeInvalidReference, kverrors.ErrCodeInvalidFormat:
		return 2
	case kverrors.ErrCodeNotFound, kverrors.ErrCodeFileNotFound:
		return 3
	case kverrors.ErrCodeForbidden:
		return 4
	default:
		return 1
	}
}
