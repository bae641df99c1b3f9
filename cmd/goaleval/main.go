// Package main is the goaleval command line interface.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "goaleval",
		Short:         "Evaluate whether a portfolio can meet a financial goal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newEvaluateCmd(), newParseGoalCmd(), newValidateCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
