package generator

import (
	"github.com/go-viper/mapstructure/v2"

	"github.com/san-kum/stepviz/internal/step"
)

// Inputs is the generic input record handed to every generator.
type Inputs map[string]any

// Clone returns a deep copy normalized to JSON-shaped values.
func (in Inputs) Clone() Inputs {
	if in == nil {
		return Inputs{}
	}
	return Inputs(step.Snapshot(map[string]any(in)).(map[string]any))
}

// Decode fills out, a pointer to a struct with json tags, from the record.
// Unknown fields are rejected.
func (in Inputs) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Result:      out,
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]any(in))
}

// Resolve merges caller-provided overrides onto defaults field by field.
// Fields absent from overrides fall back to the defaults; the result shares
// no structure with either argument.
func Resolve(defaults, overrides Inputs) Inputs {
	out := defaults.Clone()
	for k, v := range overrides.Clone() {
		out[k] = v
	}
	return out
}
