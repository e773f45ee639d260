package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/san-kum/stepviz/internal/export"
	"github.com/san-kum/stepviz/internal/layout"
	"github.com/san-kum/stepviz/internal/step"
	"github.com/san-kum/stepviz/internal/storage"
	"github.com/spf13/cobra"
)

var (
	algorithm string
	reindex   bool
	svgOut    string
	svgStep   int
	svgScale  float64
)

// openStore initializes the run store under the configured data directory.
// Callers close it.
func openStore() (*storage.Store, error) {
	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

func newSaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save [algorithm]",
		Short: "generate a run and store it under the data directory",
		Args:  cobra.ExactArgs(1),
		RunE:  saveRun,
	}
	addInputFlags(cmd)
	return cmd
}

func saveRun(cmd *cobra.Command, args []string) error {
	def, inputs, seq, err := generate(cmd.Context(), args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	doc := step.NewDocument(def.Metadata().ID, inputs, seq, step.GeneratedByGo, time.Now().UTC())
	runID, err := st.Save(doc, preset)
	if err != nil {
		return err
	}
	log.Info("run saved", "run", runID, "algorithm", def.Metadata().ID, "steps", len(seq))

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run id: %s\n", runID)
	fmt.Fprintf(out, "steps: %d\n", len(seq))
	fmt.Fprintf(out, "terminal: %s\n", seq.Last().ID)
	return nil
}

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "list stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}
	cmd.Flags().StringVar(&algorithm, "algorithm", "", "only list runs of one algorithm")
	cmd.Flags().BoolVar(&reindex, "reindex", false, "rebuild the index from the run directories first")
	return cmd
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	out := cmd.OutOrStdout()
	if reindex {
		n, err := st.Reindex()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "reindexed %d runs\n", n)
	}

	runs, err := st.List(algorithm)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tALGORITHM\tPRESET\tTIME\tSTEPS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
			run.ID,
			run.Algorithm,
			run.Preset,
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			run.Steps,
		)
	}
	return w.Flush()
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print a stored run as JSON, or render one step as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	cmd.Flags().StringVar(&svgOut, "svg", "", "write the scene of --step to this SVG file")
	cmd.Flags().IntVar(&svgStep, "step", 0, "step index for --svg")
	cmd.Flags().Float64Var(&svgScale, "scale", 8, "pixels per scene unit for --svg")
	return cmd
}

func exportRun(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	doc, err := st.LoadDocument(args[0])
	if err != nil {
		return err
	}
	if svgOut == "" {
		return export.WriteDocument(cmd.OutOrStdout(), doc)
	}

	if svgStep < 0 || svgStep >= len(doc.Steps) {
		return fmt.Errorf("step %d out of range [0, %d]", svgStep, len(doc.Steps)-1)
	}
	svg := export.SceneToSVG(layout.Scene(doc.Steps[svgStep]), layout.Width, layout.Height, svgScale)
	if err := os.WriteFile(svgOut, []byte(svg), 0o644); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (step %d of %s)\n", svgOut, svgStep, doc.AlgorithmID)
	return nil
}
