package step

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Snapshot returns a structural copy of v normalized to JSON-shaped values:
// map[string]any, []any, int, float64, string, bool and nil. Nil slices
// become empty slices so they serialize as [] rather than null. Structs are
// copied field by field using their json tags.
func Snapshot(v any) any {
	if v == nil {
		return nil
	}
	return snapshotValue(reflect.ValueOf(v))
}

func snapshotValue(rv reflect.Value) any {
	switch rv.Kind() {
	case reflect.Invalid:
		return nil
	case reflect.Interface, reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return snapshotValue(rv.Elem())
	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[mapKey(iter.Key())] = snapshotValue(iter.Value())
		}
		return out
	case reflect.Slice:
		if rv.IsNil() {
			return []any{}
		}
		return snapshotList(rv)
	case reflect.Array:
		return snapshotList(rv)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Struct:
		return snapshotStruct(rv)
	default:
		panic(fmt.Sprintf("step: cannot snapshot value of kind %s", rv.Kind()))
	}
}

func snapshotList(rv reflect.Value) []any {
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = snapshotValue(rv.Index(i))
	}
	return out
}

func snapshotStruct(rv reflect.Value) map[string]any {
	rt := rv.Type()
	out := make(map[string]any, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		name, omitEmpty := f.Name, false
		if tag, ok := f.Tag.Lookup("json"); ok {
			parts := strings.Split(tag, ",")
			if parts[0] == "-" {
				continue
			}
			if parts[0] != "" {
				name = parts[0]
			}
			for _, opt := range parts[1:] {
				if opt == "omitempty" {
					omitEmpty = true
				}
			}
		}
		fv := rv.Field(i)
		if omitEmpty && fv.IsZero() {
			continue
		}
		out[name] = snapshotValue(fv)
	}
	return out
}

func mapKey(k reflect.Value) string {
	switch k.Kind() {
	case reflect.String:
		return k.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10)
	default:
		return fmt.Sprint(k.Interface())
	}
}

// CheckFinite returns an ErrNonFinite validation error for the first NaN or
// Inf found in any step's state.
func CheckFinite(seq Sequence) error {
	for i, s := range seq {
		if path := firstNonFinite(map[string]any(s.State), "state"); path != "" {
			return invalid(i, s.ID, ErrNonFinite, "at %s", path)
		}
	}
	return nil
}

func firstNonFinite(v any, path string) string {
	switch x := v.(type) {
	case float64:
		if !isFinite(x) {
			return path
		}
	case float32:
		if !isFinite(float64(x)) {
			return path
		}
	case map[string]any:
		for k, el := range x {
			if p := firstNonFinite(el, path+"."+k); p != "" {
				return p
			}
		}
	case State:
		return firstNonFinite(map[string]any(x), path)
	case []any:
		for i, el := range x {
			if p := firstNonFinite(el, fmt.Sprintf("%s[%d]", path, i)); p != "" {
				return p
			}
		}
	case []float64:
		for i, el := range x {
			if !isFinite(el) {
				return fmt.Sprintf("%s[%d]", path, i)
			}
		}
	case [][]float64:
		for i, row := range x {
			if p := firstNonFinite(row, fmt.Sprintf("%s[%d]", path, i)); p != "" {
				return p
			}
		}
	}
	return ""
}
