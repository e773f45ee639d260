// Package runio reads generator inputs supplied on the command line.
package runio

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/stepviz/internal/generator"
)

// ReadInputs loads an input record from path, or from stdin when path is
// "-". The file may be YAML or JSON.
func ReadInputs(path string, stdin io.Reader) (generator.Inputs, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return ParseInputs(data)
}

func ParseInputs(data []byte) (generator.Inputs, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse inputs: %w", err)
	}
	if raw == nil {
		return generator.Inputs{}, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("parse inputs: top level must be a mapping, got %T", raw)
	}
	return generator.Inputs(m).Clone(), nil
}
