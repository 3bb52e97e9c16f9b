package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/procpool/internal/cliutil"
	"github.com/Paintersrp/procpool/internal/manifest"
	"github.com/Paintersrp/procpool/internal/supervisor"
	"github.com/Paintersrp/procpool/internal/tui"
)

func newRunCmd(ctx *cliContext) *cobra.Command {
	var useTUI bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Spawn a pool manifest's children and supervise them until they exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.Load(*ctx.manifestFile)
			if err != nil {
				return err
			}

			sink := cliutil.NewJSONSink(cmd.ErrOrStderr())
			sup, err := supervisor.New(supervisor.Options{
				MaxKids:   m.MaxKids,
				Timeout:   m.Timeout.Duration,
				Backend:   m.Backend,
				Debug:     m.Debug,
				DebugSink: sink,
			})
			if err != nil {
				return err
			}
			defer sup.Close()

			runCtx := cmd.Context()
			for _, c := range m.Children {
				opts := []supervisor.SpawnOption{supervisor.WithID(c.ID)}
				if c.Extra != nil {
					opts = append(opts, supervisor.WithExtra(c.Extra))
				}
				if _, err := sup.Spawn(runCtx, c.Cmdline, opts...); err != nil {
					return fmt.Errorf("spawn %q: %w", c.ID, err)
				}
			}

			if useTUI {
				if !supportsInteractiveOutput(cmd) {
					return fmt.Errorf("--tui requires an interactive terminal")
				}
				ui := tui.New(sup.Kids)
				go sup.Wait(runCtx, 0)
				return ui.Run(runCtx)
			}

			sup.Wait(runCtx, 0)
			return nil
		},
	}

	cmd.Flags().BoolVar(&useTUI, "tui", false, "Show a live table of running children")

	return cmd
}
