package config

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/san-kum/stepviz/internal/generator"
)

// DefaultPreset names a generator's own default inputs.
const DefaultPreset = "default"

var ErrUnknownPreset = errors.New("config: unknown preset")

// Preset resolves name for the algorithm described by meta. The generator's
// defaults and examples win over user presets of the same name. The
// returned inputs are a copy.
func (c *Config) Preset(meta generator.Metadata, name string) (generator.Inputs, error) {
	if name == "" || name == DefaultPreset {
		return meta.Defaults.Clone(), nil
	}
	for _, ex := range meta.Examples {
		if ex.Name == name {
			return generator.Resolve(meta.Defaults, ex.Inputs), nil
		}
	}
	if c != nil {
		if in, ok := c.Presets[meta.ID][name]; ok {
			return generator.Resolve(meta.Defaults, generator.Inputs(in)), nil
		}
	}
	return nil, fmt.Errorf("%w %q for %s (available: %v)", ErrUnknownPreset, name, meta.ID, c.ListPresets(meta))
}

// ListPresets returns every preset name Preset accepts for meta, sorted.
func (c *Config) ListPresets(meta generator.Metadata) []string {
	names := []string{DefaultPreset}
	for _, ex := range meta.Examples {
		names = append(names, ex.Name)
	}
	if c != nil {
		for name := range c.Presets[meta.ID] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return slices.Compact(names)
}
