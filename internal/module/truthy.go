package module

import (
	"reflect"

	"github.com/zclconf/go-cty/cty"
)

// Truther lets a result type decide its own validity.
type Truther interface {
	Truthy() bool
}

// Truthy reports whether a module result counts as valid: nil, false, zero
// numbers and empty strings or collections are invalid; everything else,
// including any non-nil pointer or struct, is valid.
func Truthy(v Result) bool {
	// A nil pointer is falsy even when its type implements Truther, which
	// would otherwise panic on a value receiver.
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return false
	}

	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case Truther:
		return t.Truthy()
	case cty.Value:
		return ctyTruthy(t)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Complex64, reflect.Complex128:
		return rv.Complex() != 0
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array, reflect.Chan:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface, reflect.Func, reflect.UnsafePointer:
		return !rv.IsNil()
	default:
		return true
	}
}

func ctyTruthy(v cty.Value) bool {
	v, _ = v.Unmark()
	if !v.IsKnown() || v.IsNull() {
		return false
	}
	ty := v.Type()
	switch {
	case ty == cty.Bool:
		return v.True()
	case ty == cty.Number:
		return v.AsBigFloat().Sign() != 0
	case ty == cty.String:
		return v.AsString() != ""
	case ty.IsObjectType():
		return len(ty.AttributeTypes()) > 0
	case ty.IsListType(), ty.IsSetType(), ty.IsMapType(), ty.IsTupleType():
		return v.LengthInt() > 0
	default:
		return true
	}
}
