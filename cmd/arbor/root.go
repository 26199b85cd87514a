package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/internal/config"
	"github.com/aretw0/arbor/internal/logging"
)

type globalFlags struct {
	configPath string
	logLevel   string
	workflows  string
	loam       bool
	debug      bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "arbor",
		Short:         "Arbor runs workflow graphs of LLM, retrieval and transform nodes",
		Long:          `Arbor validates and executes workflow DAGs authored as JSON or YAML, locally or behind an HTTP or MCP server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "YAML or HCL configuration file")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config)")
	pf.StringVarP(&flags.workflows, "dir", "d", "workflows", "Directory of stored workflows")
	pf.BoolVar(&flags.loam, "loam", false, "Read --dir as a Loam repository of Markdown workflows")
	pf.BoolVar(&flags.debug, "debug", false, "Log every node transition")

	root.AddCommand(
		newRunCmd(flags),
		newValidateCmd(),
		newGraphCmd(flags),
		newServeCmd(flags),
		newMCPCmd(flags),
		newVersionCmd(),
	)
	return root
}

// setup loads the configuration and wires the application.
func setup(cmd *cobra.Command, flags *globalFlags) (*cli.App, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if flags.debug {
		cfg.LogLevel = "debug"
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.NewWithWriter(cmd.ErrOrStderr(), level)

	return cli.NewApp(cmd.Context(), cfg, cli.Options{
		WorkflowDir: flags.workflows,
		Loam:        flags.loam,
		Debug:       flags.debug,
	}, logger)
}
