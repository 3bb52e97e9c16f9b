// Package cli wires the cobra command tree for running a pool manifest.
package cli

import (
	stdcontext "context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewRootCmd constructs the procpool command tree.
func NewRootCmd() *cobra.Command {
	var manifestFile string

	root := &cobra.Command{
		Use:   "procpool",
		Short: "Admission-gated supervisor for a pool of external processes",
	}

	root.PersistentFlags().StringVarP(&manifestFile, "file", "f", "pool.yaml", "Path to pool manifest")

	ctx := &cliContext{manifestFile: &manifestFile}
	root.AddCommand(newRunCmd(ctx))

	root.SilenceUsage = true
	root.SilenceErrors = true

	return root
}

// Execute runs the CLI entrypoint, relaying INT/TERM into the command
// context's cancellation the way the supervisor's own signal relay does
// for its children.
func Execute() {
	ctx, stop := signal.NotifyContext(stdcontext.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	root.SetContext(ctx)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type cliContext struct {
	manifestFile *string
}

// supportsInteractiveOutput reports whether cmd's stdout is a real
// terminal, gating the --tui flag.
func supportsInteractiveOutput(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
