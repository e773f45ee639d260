package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/san-kum/stepviz/internal/config"
	"github.com/san-kum/stepviz/internal/precompute"
	"github.com/san-kum/stepviz/internal/server"
	"github.com/spf13/cobra"
)

var (
	outputDir string
	dryRun    bool
	workers   int
	addr      string
	force     bool
)

func newPrecomputeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "precompute",
		Short: "write every algorithm's presets as step documents",
		Args:  cobra.NoArgs,
		RunE:  runPrecompute,
	}
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "output directory (default from config)")
	cmd.Flags().StringVar(&algorithm, "algorithm", "", "only precompute one algorithm")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list the files without writing them")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent generators (default from config)")
	return cmd
}

func runPrecompute(cmd *cobra.Command, args []string) error {
	opts := precompute.Options{
		OutputDir: cfg.Precompute.OutputDir,
		Algorithm: algorithm,
		DryRun:    dryRun,
		Workers:   cfg.Precompute.Workers,
	}
	if outputDir != "" {
		opts.OutputDir = outputDir
	}
	if workers > 0 {
		opts.Workers = workers
	}

	results, err := precompute.New(reg, cfg, gen, log).Run(cmd.Context(), opts)
	if results == nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ALGORITHM\tPRESET\tSTEPS\tPATH")
	for _, r := range results {
		steps := fmt.Sprint(r.Steps)
		switch {
		case r.Err != nil:
			steps = "FAILED: " + r.Err.Error()
		case dryRun:
			steps = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Algorithm, r.Preset, steps, r.Path)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	return err
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the algorithm catalog and step sequences over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = cfg.Server.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			fmt.Fprintf(cmd.OutOrStdout(), "serving on %s\n", addr)
			return server.New(reg, cfg, gen, log).ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "manage the config file",
	}
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the default config",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.FileName
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := config.Save(path, config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}
