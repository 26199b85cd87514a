/*
Package runner implements one-shot workflow runs for command-line hosts.

It reads the run input from an io.Reader, sanitizes it, hands it to an
Executor and reports the result through a pluggable OutputHandler.

# Key Components

  - Runner: reads, sanitizes, executes and reports.
  - OutputHandler: decouples how results are presented (text, JSON).
  - SanitizeInput: the input policy shared with the HTTP and MCP surfaces.

# Usage

	r := runner.NewRunner(
		runner.WithExecutor(engine),
		runner.WithOutputHandler(runner.NewTextHandler(os.Stdout)),
	)

	if _, err := r.Run(ctx, def, os.Stdin); err != nil {
		log.Fatal(err)
	}
*/
package runner
