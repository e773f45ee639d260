package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/san-kum/stepviz/internal/export"
	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/runio"
	"github.com/san-kum/stepviz/internal/step"
	"github.com/spf13/cobra"
)

var (
	preset    string
	inputFile string
	category  string
)

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", "named input set (see `stepviz presets <id>`)")
	cmd.Flags().StringVar(&inputFile, "input", "", "YAML or JSON inputs overriding the preset, - for stdin")
}

func newStepsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "steps [algorithm]",
		Short: "print the step sequence as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runSteps,
	}
	addInputFlags(cmd)
	return cmd
}

func runSteps(cmd *cobra.Command, args []string) error {
	_, _, seq, err := generate(cmd.Context(), args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}
	return export.WriteSequence(cmd.OutOrStdout(), seq)
}

// resolveInputs looks up id and layers --input over the --preset inputs.
func resolveInputs(id string, stdin io.Reader) (generator.Definition, generator.Inputs, error) {
	def, err := reg.Get(id)
	if err != nil {
		return nil, nil, err
	}
	inputs, err := cfg.Preset(def.Metadata(), preset)
	if err != nil {
		return nil, nil, err
	}
	if inputFile != "" {
		over, err := runio.ReadInputs(inputFile, stdin)
		if err != nil {
			return nil, nil, err
		}
		inputs = generator.Resolve(inputs, over)
	}
	return def, inputs, nil
}

func generate(ctx context.Context, id string, stdin io.Reader) (generator.Definition, generator.Inputs, step.Sequence, error) {
	def, inputs, err := resolveInputs(id, stdin)
	if err != nil {
		return nil, nil, nil, err
	}
	seq, err := gen.Run(ctx, def, inputs)
	if err != nil {
		return nil, nil, nil, err
	}
	return def, inputs, seq, nil
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "list algorithms",
		Args:  cobra.NoArgs,
		RunE:  listAlgorithms,
	}
	cmd.Flags().StringVar(&category, "category", "", "only list one category")
	return cmd
}

func listAlgorithms(cmd *cobra.Command, args []string) error {
	metas, err := reg.List(generator.Category(category))
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tDESCRIPTION")
	for _, m := range metas {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.ID, m.Name, m.Category, m.Description)
	}
	return w.Flush()
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets [algorithm]",
		Short: "list available presets for an algorithm",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := reg.Get(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "presets for %s:\n", args[0])
			for _, p := range cfg.ListPresets(def.Metadata()) {
				fmt.Fprintf(out, "  %s\n", p)
			}
			return nil
		},
	}
}
