package runner

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/registry"
	"github.com/san-kum/stepviz/internal/step"
)

type noInput struct{}

func fake(id string, gen func() step.Sequence) generator.Definition {
	return generator.New(generator.Metadata{ID: id, Name: id, Category: generator.Classical},
		func(noInput) (step.Sequence, error) { return gen(), nil })
}

func TestEveryGeneratorIsValidAndDeterministic(t *testing.T) {
	reg := registry.New()
	for _, id := range reg.IDs() {
		def, _ := reg.Get(id)
		t.Run(id, func(t *testing.T) {
			first, err := Run(def, nil)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			second, err := Run(def, generator.Inputs{})
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if diff := cmp.Diff(first, second); diff != "" {
				t.Errorf("sequences differ between runs (-first +second):\n%s", diff)
			}
		})
	}
}

func TestEveryExampleRuns(t *testing.T) {
	reg := registry.New()
	for _, id := range reg.IDs() {
		def, _ := reg.Get(id)
		for _, ex := range def.Metadata().Examples {
			t.Run(id+"/"+ex.Name, func(t *testing.T) {
				if _, err := Run(def, ex.Inputs); err != nil {
					t.Errorf("Run() error = %v", err)
				}
			})
		}
	}
}

func TestExamplesWithoutTarget(t *testing.T) {
	tests := []struct {
		id, example, terminal string
	}{
		{"bfs", "explore-all", "exploration_complete"},
		{"dfs", "explore-all", "exploration_complete"},
		{"dijkstra", "all-distances", "complete"},
	}
	reg := registry.New()
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			def, err := reg.Get(tt.id)
			if err != nil {
				t.Fatal(err)
			}
			var inputs generator.Inputs
			for _, ex := range def.Metadata().Examples {
				if ex.Name == tt.example {
					inputs = ex.Inputs
				}
			}
			if inputs == nil {
				t.Fatalf("%s has no example %q", tt.id, tt.example)
			}
			seq, err := Run(def, inputs)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if got := seq.Last().ID; got != tt.terminal {
				t.Errorf("terminal id = %q, want %q", got, tt.terminal)
			}
		})
	}
}

func TestBinarySearchEmptyArray(t *testing.T) {
	def, _ := registry.New().Get("binary-search")
	seq, err := Run(def, generator.Inputs{"array": []int{}, "target": 1})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := seq.IDs(); !cmp.Equal(got, []string{"initialize", "not_found"}) {
		t.Errorf("ids = %v, want [initialize not_found]", got)
	}
}

func TestStateIsolation(t *testing.T) {
	def, _ := registry.New().Get("bubble-sort")
	seq, err := Run(def, nil)
	if err != nil {
		t.Fatal(err)
	}
	before := seq[1].State.Clone()
	seq[0].State["array"].([]any)[0] = 999
	if diff := cmp.Diff(before, seq[1].State); diff != "" {
		t.Errorf("mutating step 0 changed step 1 (-want +got):\n%s", diff)
	}
}

func TestDefects(t *testing.T) {
	tests := []struct {
		name string
		gen  func() step.Sequence
		want error
	}{
		{"empty", func() step.Sequence { return nil }, step.ErrEmptySequence},
		{"no terminal", func() step.Sequence {
			b := step.NewBuilder()
			b.Add(step.Step{ID: "a", Title: "A", Explanation: "a"})
			return b.Sequence()
		}, step.ErrMissingTerminal},
		{"bad index", func() step.Sequence {
			return step.Sequence{{ID: "a", Index: 3, Title: "A", Explanation: "a", IsTerminal: true}}
		}, step.ErrIndexMismatch},
		{"non-finite", func() step.Sequence {
			b := step.NewBuilder()
			b.Add(step.Step{ID: "a", Title: "A", Explanation: "a", IsTerminal: true, State: step.State{"x": math.Inf(1)}})
			return b.Sequence()
		}, step.ErrNonFinite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(fake("broken", tt.gen), nil)
			if !errors.Is(err, ErrDefect) {
				t.Fatalf("Run() error = %v, want ErrDefect", err)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Run() error = %v, want %v", err, tt.want)
			}
			var de *DefectError
			if !errors.As(err, &de) || de.Algorithm != "broken" {
				t.Errorf("Run() error = %#v, want *DefectError for broken", err)
			}
		})
	}
}

func TestPanicBecomesDefect(t *testing.T) {
	def := fake("panicky", func() step.Sequence { panic("index out of range") })
	_, err := Run(def, nil)
	if !errors.Is(err, ErrDefect) {
		t.Fatalf("Run() error = %v, want ErrDefect", err)
	}
}

func TestGeneratorErrorsPassThrough(t *testing.T) {
	def, _ := registry.New().Get("multi-head-attention")
	_, err := Run(def, generator.Inputs{"embeddingDim": 6, "numHeads": 4})
	var pe *generator.PreconditionError
	if !errors.As(err, &pe) {
		t.Fatalf("Run() error = %v, want *PreconditionError", err)
	}
	if errors.Is(err, ErrDefect) {
		t.Error("precondition error reported as a defect")
	}
	want := "multi-head-attention: d_model (6) must be divisible by numHeads (4). Got d_model % numHeads = 2."
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestTracing(t *testing.T) {
	tracer, recorder := newTestTracer()
	r := New(WithTracer(tracer))
	reg := registry.New()

	bfs, _ := reg.Get("bfs")
	seq, err := r.Run(context.Background(), bfs, nil)
	if err != nil {
		t.Fatal(err)
	}
	conv, _ := reg.Get("convolution")
	_, err = r.Run(context.Background(), conv, generator.Inputs{"kernel": [][]float64{{1}, {1}, {1}, {1}, {1}}})
	if err == nil {
		t.Fatal("oversized kernel accepted")
	}

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("ended span count = %d, want 2", len(spans))
	}
	ok, failed := spans[0], spans[1]
	if ok.Name() != "runner.run" {
		t.Errorf("span name = %q, want runner.run", ok.Name())
	}
	if got := attr(ok.Attributes(), "algorithm.id"); got.AsString() != "bfs" {
		t.Errorf("algorithm.id = %q, want bfs", got.AsString())
	}
	if got := attr(ok.Attributes(), "steps.count"); got.AsInt64() != int64(len(seq)) {
		t.Errorf("steps.count = %d, want %d", got.AsInt64(), len(seq))
	}
	if failed.Status().Code != codes.Error {
		t.Errorf("failed span status = %v, want %v", failed.Status().Code, codes.Error)
	}
}

func newTestTracer() (trace.Tracer, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return provider.Tracer("runner-test"), recorder
}

func attr(attrs []attribute.KeyValue, key string) attribute.Value {
	for _, a := range attrs {
		if string(a.Key) == key {
			return a.Value
		}
	}
	return attribute.Value{}
}
