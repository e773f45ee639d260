// Package precompute renders every preset of every generator to
// <out>/<algorithm>/<preset>.steps.json. Output bytes depend only on the
// generator and its inputs, so reruns produce identical files.
package precompute

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/stepviz/internal/config"
	"github.com/san-kum/stepviz/internal/export"
	"github.com/san-kum/stepviz/internal/logging"
	"github.com/san-kum/stepviz/internal/registry"
	"github.com/san-kum/stepviz/internal/runner"
	"github.com/san-kum/stepviz/internal/step"
)

const fileSuffix = ".steps.json"

var ErrFailed = errors.New("precompute: presets failed")

// Job is one (algorithm, preset) pair and the file it produces.
type Job struct {
	Algorithm string
	Preset    string
	Path      string
}

type Result struct {
	Job
	Steps int
	Err   error
}

type Options struct {
	OutputDir string
	// Algorithm restricts the run to one id. Empty means every algorithm.
	Algorithm string
	DryRun    bool
	Workers   int
}

type Pipeline struct {
	reg    *registry.Registry
	cfg    *config.Config
	runner *runner.Runner
	log    *logging.Logger
}

func New(reg *registry.Registry, cfg *config.Config, r *runner.Runner, log *logging.Logger) *Pipeline {
	if log == nil {
		log = logging.NopLogger()
	}
	if r == nil {
		r = runner.New(runner.WithLogger(log))
	}
	return &Pipeline{reg: reg, cfg: cfg, runner: r, log: log.WithComponent("precompute")}
}

// Plan lists the jobs for opts in algorithm then preset order.
func (p *Pipeline) Plan(opts Options) ([]Job, error) {
	ids := p.reg.IDs()
	if opts.Algorithm != "" {
		if _, err := p.reg.Get(opts.Algorithm); err != nil {
			return nil, err
		}
		ids = []string{opts.Algorithm}
	}

	var jobs []Job
	for _, id := range ids {
		def, _ := p.reg.Get(id)
		for _, name := range p.cfg.ListPresets(def.Metadata()) {
			if name != filepath.Base(name) || name == "." || name == ".." {
				return nil, fmt.Errorf("precompute: preset name %q for %s is not a valid file name", name, id)
			}
			jobs = append(jobs, Job{
				Algorithm: id,
				Preset:    name,
				Path:      filepath.Join(opts.OutputDir, id, name+fileSuffix),
			})
		}
	}
	return jobs, nil
}

// Run executes the plan with at most opts.Workers jobs in flight. A failed
// job does not stop the others; the returned error wraps ErrFailed when any
// job failed. Results are in plan order.
func (p *Pipeline) Run(ctx context.Context, opts Options) ([]Result, error) {
	jobs, err := p.Plan(opts)
	if err != nil {
		return nil, err
	}
	results := make([]Result, len(jobs))
	for i, j := range jobs {
		results[i].Job = j
	}
	if opts.DryRun {
		return results, nil
	}

	g := new(errgroup.Group)
	g.SetLimit(max(opts.Workers, 1))
	for i := range jobs {
		g.Go(func() error {
			res := &results[i]
			if err := ctx.Err(); err != nil {
				res.Err = err
				return nil
			}
			res.Steps, res.Err = p.runJob(ctx, res.Job)
			log := p.log.With("algorithm", res.Algorithm, "preset", res.Preset)
			if res.Err != nil {
				log.Error("preset failed", "error", res.Err)
			} else {
				log.Info("preset written", "path", res.Path, "steps", res.Steps)
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return results, fmt.Errorf("%w: %d of %d", ErrFailed, failed, len(results))
	}
	return results, nil
}

func (p *Pipeline) runJob(ctx context.Context, job Job) (int, error) {
	def, err := p.reg.Get(job.Algorithm)
	if err != nil {
		return 0, err
	}
	inputs, err := p.cfg.Preset(def.Metadata(), job.Preset)
	if err != nil {
		return 0, err
	}
	seq, err := p.runner.Run(ctx, def, inputs)
	if err != nil {
		return 0, err
	}

	doc := step.NewDocument(job.Algorithm, inputs, seq, step.GeneratedByPrecomputed, time.Time{})
	if err := os.MkdirAll(filepath.Dir(job.Path), 0755); err != nil {
		return 0, err
	}
	if err := export.WriteDocumentFile(job.Path, doc); err != nil {
		return 0, err
	}
	return len(seq), nil
}
