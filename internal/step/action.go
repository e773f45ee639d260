package step

import (
	"encoding/json"
	"fmt"
)

// P is shorthand for an action payload.
type P = map[string]any

// VisualAction describes a declarative visual effect. On the wire it is a
// flat object: {"type": ..., <params>...}.
type VisualAction struct {
	Type   string
	Params map[string]any
}

// Action builds a VisualAction whose params are a structural copy of p.
func Action(typ string, p P) VisualAction {
	a := VisualAction{Type: typ, Params: map[string]any{}}
	if p != nil {
		a.Params = Snapshot(p).(map[string]any)
	}
	return a
}

// Clone returns an independent copy of the action.
func (a VisualAction) Clone() VisualAction {
	return Action(a.Type, a.Params)
}

// Param returns a parameter value and whether it was present.
func (a VisualAction) Param(key string) (any, bool) {
	v, ok := a.Params[key]
	return v, ok
}

func (a VisualAction) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(a.Params)+1)
	for k, v := range a.Params {
		flat[k] = v
	}
	flat["type"] = a.Type
	return json.Marshal(flat)
}

func (a *VisualAction) UnmarshalJSON(data []byte) error {
	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	typ, ok := flat["type"].(string)
	if !ok {
		return fmt.Errorf("%w: missing type discriminant", ErrInvalidAction)
	}
	delete(flat, "type")
	a.Type = typ
	a.Params = flat
	return nil
}
