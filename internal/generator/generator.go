package generator

import (
	"errors"

	"github.com/san-kum/stepviz/internal/step"
)

type Category string

const (
	Classical    Category = "classical"
	GenerativeAI Category = "generative-ai"
	DeepLearning Category = "deep-learning"
	Quantum      Category = "quantum"
)

// Categories lists every known category in display order.
func Categories() []Category {
	return []Category{Classical, GenerativeAI, DeepLearning, Quantum}
}

// Example is a named input set shipped with a generator.
type Example struct {
	Name   string
	Inputs Inputs
}

type Metadata struct {
	ID          string
	Name        string
	Category    Category
	Description string
	Schema      Schema
	Defaults    Inputs
	Examples    []Example
}

// Definition is the capability every algorithm generator exposes. Run must be
// pure: identical inputs yield an identical sequence, with no I/O and no
// shared mutable state.
type Definition interface {
	Metadata() Metadata
	Run(in Inputs) (step.Sequence, error)
}

type typed[T any] struct {
	meta Metadata
	gen  func(T) (step.Sequence, error)
}

// New adapts a generator over a strongly typed input record T to the generic
// Definition contract. Inputs are checked against meta.Schema, then decoded
// into T using its json tags.
func New[T any](meta Metadata, gen func(T) (step.Sequence, error)) Definition {
	return &typed[T]{meta: meta, gen: gen}
}

func (d *typed[T]) Metadata() Metadata {
	m := d.meta
	m.Defaults = d.meta.Defaults.Clone()
	m.Examples = make([]Example, len(d.meta.Examples))
	for i, ex := range d.meta.Examples {
		m.Examples[i] = Example{Name: ex.Name, Inputs: ex.Inputs.Clone()}
	}
	return m
}

func (d *typed[T]) Run(in Inputs) (step.Sequence, error) {
	if err := d.meta.Schema.Check(d.meta.ID, in); err != nil {
		return nil, err
	}

	var args T
	if err := in.Decode(&args); err != nil {
		return nil, &InputError{Algorithm: d.meta.ID, Reason: err.Error()}
	}

	seq, err := d.gen(args)
	if err != nil {
		var pe *PreconditionError
		if errors.As(err, &pe) && pe.Algorithm == "" {
			pe.Algorithm = d.meta.ID
		}
		return nil, err
	}
	return seq, nil
}
