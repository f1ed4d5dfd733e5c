package module

import (
	"fmt"

	"github.com/specialistvlad/chainrunner/internal/ctyconv"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Arg returns the named attribute of an object or map argument value. The
// second return value is false when args is not an object/map or the
// attribute is absent or null.
func (s Settings) Arg(name string) (cty.Value, bool) {
	args, _ := s.Args.Unmark()
	if !args.IsKnown() || args.IsNull() {
		return cty.NilVal, false
	}
	ty := args.Type()
	var v cty.Value
	switch {
	case ty.IsObjectType():
		if !ty.HasAttribute(name) {
			return cty.NilVal, false
		}
		v = args.GetAttr(name)
	case ty.IsMapType():
		key := cty.StringVal(name)
		if !args.HasIndex(key).True() {
			return cty.NilVal, false
		}
		v = args.Index(key)
	default:
		return cty.NilVal, false
	}
	if v.IsNull() {
		return cty.NilVal, false
	}
	return v, true
}

// StringArg returns the named argument converted to a string, or def when it
// is absent.
func (s Settings) StringArg(name, def string) (string, error) {
	v, ok := s.Arg(name)
	if !ok {
		return def, nil
	}
	str, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", fmt.Errorf("argument %q: %w", name, err)
	}
	return str.AsString(), nil
}

// BoolArg returns the named argument converted to a bool, or def when it is
// absent.
func (s Settings) BoolArg(name string, def bool) (bool, error) {
	v, ok := s.Arg(name)
	if !ok {
		return def, nil
	}
	b, err := convert.Convert(v, cty.Bool)
	if err != nil {
		return false, fmt.Errorf("argument %q: %w", name, err)
	}
	return b.True(), nil
}

// AnyArg returns the named argument as a plain Go value, or nil when it is
// absent.
func (s Settings) AnyArg(name string) (any, error) {
	v, ok := s.Arg(name)
	if !ok {
		return nil, nil
	}
	out, err := ctyconv.ToInterface(v)
	if err != nil {
		return nil, fmt.Errorf("argument %q: %w", name, err)
	}
	return out, nil
}
