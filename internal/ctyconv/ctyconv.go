// Package ctyconv converts between cty.Value, the representation used for
// step arguments loaded from configuration, and plain Go values used by
// modules, sinks and log output.
package ctyconv

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ToInterface converts a cty.Value to a Go interface{}. Null and unknown
// values become nil, whole numbers become int64 and other numbers float64.
func ToInterface(val cty.Value) (any, error) {
	val, _ = val.Unmark()
	if !val.IsKnown() || val.IsNull() {
		return nil, nil
	}
	ty := val.Type()
	if ty.IsPrimitiveType() {
		switch ty {
		case cty.String:
			return val.AsString(), nil
		case cty.Number:
			bf := val.AsBigFloat()
			if bf.IsInt() {
				if i, acc := bf.Int64(); acc == 0 {
					return i, nil
				}
			}
			f, _ := bf.Float64()
			return f, nil
		case cty.Bool:
			return val.True(), nil
		default:
			return nil, fmt.Errorf("unsupported primitive type: %s", ty.FriendlyName())
		}
	}
	if ty.IsObjectType() || ty.IsMapType() {
		out := make(map[string]any, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			elem, err := ToInterface(v)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = elem
		}
		return out, nil
	}
	if ty.IsTupleType() || ty.IsListType() || ty.IsSetType() {
		out := make([]any, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			elem, err := ToInterface(v)
			if err != nil {
				return nil, err
			}
			out = append(out, elem)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported cty.Type for conversion: %s", ty.FriendlyName())
}

// FromInterface converts a Go value, typically decoded from YAML or returned
// by a module, into a cty.Value. Maps with string keys become objects and
// slices become tuples so heterogeneous data survives the conversion.
func FromInterface(v any) (cty.Value, error) {
	switch t := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case cty.Value:
		return t, nil
	case string:
		return cty.StringVal(t), nil
	case bool:
		return cty.BoolVal(t), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cty.NumberIntVal(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return cty.NumberUIntVal(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return cty.NumberFloatVal(rv.Float()), nil
	case reflect.String:
		return cty.StringVal(rv.String()), nil
	case reflect.Bool:
		return cty.BoolVal(rv.Bool()), nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return cty.NullVal(cty.DynamicPseudoType), nil
		}
		return FromInterface(rv.Elem().Interface())
	case reflect.Map:
		return mapToObject(rv)
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elem, err := FromInterface(rv.Index(i).Interface())
			if err != nil {
				return cty.NilVal, fmt.Errorf("index %d: %w", i, err)
			}
			elems = append(elems, elem)
		}
		if len(elems) == 0 {
			return cty.EmptyTupleVal, nil
		}
		return cty.TupleVal(elems), nil
	}

	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("cannot convert %T to a cty value: %w", v, err)
	}
	return gocty.ToCtyValue(v, ty)
}

func mapToObject(rv reflect.Value) (cty.Value, error) {
	if rv.Len() == 0 {
		return cty.EmptyObjectVal, nil
	}
	attrs := make(map[string]cty.Value, rv.Len())
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
	})
	for _, k := range keys {
		name := fmt.Sprint(k.Interface())
		elem, err := FromInterface(rv.MapIndex(k).Interface())
		if err != nil {
			return cty.NilVal, fmt.Errorf("key %q: %w", name, err)
		}
		attrs[name] = elem
	}
	return cty.ObjectVal(attrs), nil
}

// ForLogs converts a value to its loggable representation.
// For cty.Value, it's converted to a Go interface. Other types are passed through.
func ForLogs(v any) any {
	if ctyVal, ok := v.(cty.Value); ok {
		converted, err := ToInterface(ctyVal)
		if err != nil {
			return fmt.Sprintf("[unloggable cty.Value: %v]", err)
		}
		return converted
	}
	return v
}
