package main

import (
	"fmt"
	"os"

	"go.opentelemetry.io/otel"

	"github.com/san-kum/stepviz/internal/config"
	"github.com/san-kum/stepviz/internal/logging"
	"github.com/san-kum/stepviz/internal/registry"
	"github.com/san-kum/stepviz/internal/runner"
	"github.com/spf13/cobra"
)

var (
	configFile string
	dataDir    string
	logLevel   string

	// Set up by the root command before any subcommand runs.
	cfg *config.Config
	log *logging.Logger
	reg *registry.Registry
	gen *runner.Runner
)

// main registers every command and exits 1, after printing the error to
// stderr, if the command fails.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "stepviz:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "stepviz",
		Short:         "step-by-step algorithm visualizer",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return log.Close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd, nil)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (DEBUG, INFO, WARN, ERROR)")

	rootCmd.AddCommand(
		newStepsCmd(),
		newListCmd(),
		newPresetsCmd(),
		newPlayCmd(),
		newSaveCmd(),
		newRunsCmd(),
		newExportCmd(),
		newPrecomputeCmd(),
		newServeCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

// setup loads the config, from --config or ./stepviz.yaml when present, and
// builds the logger, registry and runner shared by every command. Flags
// override the config file and environment.
func setup(cmd *cobra.Command) error {
	path := configFile
	if path == "" {
		if _, err := os.Stat(config.FileName); err == nil {
			path = config.FileName
		}
	}
	var err error
	cfg, err = config.Load(path)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("data") {
		cfg.DataDir = dataDir
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	log, err = logging.NewLogger(cfg.Log.Dir, cfg.Log.Level)
	if err != nil {
		return err
	}
	reg = registry.New()
	gen = runner.New(
		runner.WithLogger(log),
		runner.WithTracer(otel.Tracer("github.com/san-kum/stepviz")),
	)
	log.Debug("configured", "config", path, "data_dir", cfg.DataDir)
	return nil
}
