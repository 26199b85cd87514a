package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/pkg/runner"
)

func newRunCmd(flags *globalFlags) *cobra.Command {
	var (
		input    string
		userID   string
		jsonMode bool
		verbose  bool
		plain    bool
	)
	cmd := &cobra.Command{
		Use:   "run <workflow-file|workflow-id>",
		Short: "Execute a workflow once",
		Long: `Executes a workflow file, or a stored workflow by ID, and prints its output.
The input is taken from --input, or read from stdin when the flag is absent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)

			app, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			defer app.Close()

			def, err := cli.LoadDefinition(ctx, app.Loader, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var handler runner.OutputHandler
			if jsonMode {
				handler = runner.NewJSONHandler(out, true)
			} else {
				opts := []runner.TextHandlerOption{runner.WithVerbose(verbose)}
				if !plain && tui.IsTerminal() {
					tui.PrintBanner(out)
					opts = append(opts, runner.WithTextHandlerRenderer(tui.NewRenderer()))
				}
				handler = runner.NewTextHandler(out, opts...)
			}

			r := runner.NewRunner(
				runner.WithExecutor(app.Engine),
				runner.WithOutputHandler(handler),
				runner.WithLogger(app.Logger),
				runner.WithIdentity(userID),
			)

			var in io.Reader = strings.NewReader(input)
			if !cmd.Flags().Changed("input") {
				in = cmd.InOrStdin()
			}
			_, err = r.Run(ctx, def, in)
			if errors.Is(err, runner.ErrRunFailed) {
				// Already reported by the handler.
				return fmt.Errorf("workflow %q failed", def.ID)
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "Run input (default: stdin)")
	cmd.Flags().StringVarP(&userID, "user", "u", "", "Owner whose documents RAG queries search")
	cmd.Flags().BoolVar(&jsonMode, "json", false, "Print the full result as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print per-node statuses and usage")
	cmd.Flags().BoolVar(&plain, "plain", false, "Disable Markdown rendering and the banner")
	return cmd
}
