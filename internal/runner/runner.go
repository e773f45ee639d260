// Package runner resolves inputs, invokes a generator and validates what it
// produced. A sequence that fails validation is a defect in the generator
// and is never repaired.
package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/logging"
	"github.com/san-kum/stepviz/internal/step"
)

var ErrDefect = errors.New("runner: generator defect")

// DefectError marks a generator that panicked or emitted an invalid
// sequence. Err is usually a *step.ValidationError.
type DefectError struct {
	Algorithm string
	Err       error
}

func (e *DefectError) Error() string {
	return fmt.Sprintf("generator %q is defective: %v", e.Algorithm, e.Err)
}

func (e *DefectError) Unwrap() []error {
	return []error{ErrDefect, e.Err}
}

type Runner struct {
	tracer trace.Tracer
	log    *logging.Logger
}

type Option func(*Runner)

func WithTracer(t trace.Tracer) Option {
	return func(r *Runner) { r.tracer = t }
}

func WithLogger(l *logging.Logger) Option {
	return func(r *Runner) { r.log = l }
}

func New(opts ...Option) *Runner {
	r := &Runner{
		tracer: noop.NewTracerProvider().Tracer("stepviz/runner"),
		log:    logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultRunner = New()

// Run generates and validates a sequence with no tracing or logging.
func Run(def generator.Definition, inputs generator.Inputs) (step.Sequence, error) {
	return defaultRunner.Run(context.Background(), def, inputs)
}

// Run merges inputs over the generator's defaults, runs it and validates
// the result. Generator errors are returned unchanged.
func (r *Runner) Run(ctx context.Context, def generator.Definition, inputs generator.Inputs) (step.Sequence, error) {
	id := def.Metadata().ID
	_, span := r.tracer.Start(ctx, "runner.run", trace.WithAttributes(attribute.String("algorithm.id", id)))
	defer span.End()

	log := r.log.WithAlgorithm(id)
	start := time.Now()

	seq, err := r.generate(def, generator.Resolve(def.Metadata().Defaults, inputs))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, strings.TrimSpace(err.Error()))
		if errors.Is(err, ErrDefect) {
			log.Error("generator defect", "error", err)
		} else {
			log.Warn("generation rejected", "error", err)
		}
		return nil, err
	}

	span.SetAttributes(attribute.Int("steps.count", len(seq)))
	log.Debug("generated", "steps", len(seq), "elapsed", time.Since(start))
	return seq, nil
}

func (r *Runner) generate(def generator.Definition, inputs generator.Inputs) (seq step.Sequence, err error) {
	id := def.Metadata().ID
	defer func() {
		if p := recover(); p != nil {
			r.log.WithAlgorithm(id).Error("generator panic", "panic", p, "stack", string(debug.Stack()))
			seq, err = nil, &DefectError{Algorithm: id, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	seq, err = def.Run(inputs)
	if err != nil {
		return nil, err
	}
	if err := step.Validate(seq); err != nil {
		return nil, &DefectError{Algorithm: id, Err: err}
	}
	if err := step.CheckFinite(seq); err != nil {
		return nil, &DefectError{Algorithm: id, Err: err}
	}
	return seq, nil
}
