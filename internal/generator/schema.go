package generator

import (
	"fmt"
	"math"
	"reflect"
	"sort"
)

// Field types accepted in a Schema.
const (
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeString  = "string"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
)

// Field declares one input and the limits that keep generation bounded.
// On an array field Min and Max bound every numeric element, including the
// elements of nested rows.
type Field struct {
	Type        string
	Description string
	Required    bool
	Min, Max    *float64
	MinItems    int
	MaxItems    int
	Items       string
	Enum        []string
}

// Schema maps input names to their declarations.
type Schema map[string]Field

// Bound is a helper for Field.Min and Field.Max.
func Bound(v float64) *float64 { return &v }

// Names returns the declared field names in sorted order.
func (s Schema) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check validates in against the schema. Unknown fields are left for the
// decoder to reject.
func (s Schema) Check(algorithm string, in Inputs) error {
	for _, name := range s.Names() {
		f := s[name]
		v, ok := in[name]
		if !ok || v == nil {
			if f.Required {
				return &InputError{Algorithm: algorithm, Field: name, Reason: "required"}
			}
			continue
		}
		if reason := f.check(v); reason != "" {
			return &InputError{Algorithm: algorithm, Field: name, Reason: reason}
		}
	}
	return nil
}

func (f Field) check(v any) string {
	switch f.Type {
	case TypeInteger, TypeNumber:
		n, ok := toFloat(v)
		if !ok {
			return fmt.Sprintf("expected %s, got %T", f.Type, v)
		}
		if f.Type == TypeInteger && n != math.Trunc(n) {
			return fmt.Sprintf("expected integer, got %v", n)
		}
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return "must be finite"
		}
		if f.Min != nil && n < *f.Min {
			return fmt.Sprintf("must be >= %v", *f.Min)
		}
		if f.Max != nil && n > *f.Max {
			return fmt.Sprintf("must be <= %v", *f.Max)
		}
	case TypeString:
		str, ok := v.(string)
		if !ok {
			return fmt.Sprintf("expected string, got %T", v)
		}
		if len(f.Enum) > 0 && !contains(f.Enum, str) {
			return fmt.Sprintf("must be one of %v", f.Enum)
		}
	case TypeBoolean:
		if _, ok := v.(bool); !ok {
			return fmt.Sprintf("expected boolean, got %T", v)
		}
	case TypeArray:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return fmt.Sprintf("expected array, got %T", v)
		}
		if rv.Len() < f.MinItems {
			return fmt.Sprintf("needs at least %d items", f.MinItems)
		}
		if f.MaxItems > 0 && rv.Len() > f.MaxItems {
			return fmt.Sprintf("supports at most %d items", f.MaxItems)
		}
		if f.Items != "" {
			item := Field{Type: f.Items, Min: f.Min, Max: f.Max}
			if f.Items == TypeArray {
				item.Items = TypeNumber
			}
			for i := 0; i < rv.Len(); i++ {
				if reason := item.check(rv.Index(i).Interface()); reason != "" {
					return fmt.Sprintf("item %d: %s", i, reason)
				}
			}
		}
	case TypeObject:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Map {
			return fmt.Sprintf("expected object, got %T", v)
		}
		if f.MaxItems > 0 && rv.Len() > f.MaxItems {
			return fmt.Sprintf("supports at most %d entries", f.MaxItems)
		}
	}
	return ""
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	}
	return 0, false
}

func contains(list []string, s string) bool {
	for _, el := range list {
		if el == s {
			return true
		}
	}
	return false
}
