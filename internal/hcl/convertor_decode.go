package hcl

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/specialistvlad/packgrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

var (
	ctyValueType = reflect.TypeOf(cty.Value{})
	durationType = reflect.TypeOf(time.Duration(0))
)

// decode is a recursive function that populates the Go value goVal points to
// from a cty.Value, guided by the Go type.
func (c *Converter) decode(ctx context.Context, val cty.Value, goVal any) error {
	goPtr := reflect.ValueOf(goVal).Elem()
	goType := goPtr.Type()
	logger := ctxlog.FromContext(ctx).With("go_type", goType.String())

	if goType == ctyValueType {
		goPtr.Set(reflect.ValueOf(val))
		return nil
	}
	if !val.IsKnown() || val.IsNull() {
		logger.Debug("Skipping decode for null or unknown value.")
		return nil
	}

	if goType == durationType {
		if val.Type() != cty.String {
			return fmt.Errorf("a duration must be a string like \"1s\", got %s", val.Type().FriendlyName())
		}
		d, err := time.ParseDuration(val.AsString())
		if err != nil {
			return err
		}
		goPtr.SetInt(int64(d))
		return nil
	}

	switch goType.Kind() {
	case reflect.Ptr:
		elem := reflect.New(goType.Elem())
		if err := c.decode(ctx, val, elem.Interface()); err != nil {
			return err
		}
		goPtr.Set(elem)
		return nil

	case reflect.Struct:
		logger.Debug("Decoding as struct.")
		ty := val.Type()
		if !ty.IsObjectType() && !ty.IsMapType() {
			return fmt.Errorf("type mismatch: cannot decode %s into Go struct %s", ty.FriendlyName(), goType.String())
		}
		fields := taggedFields(goType)
		for name, attrVal := range val.AsValueMap() {
			idx, ok := fields[name]
			if !ok {
				return fmt.Errorf("unsupported attribute %q for %s", name, goType.String())
			}
			if err := c.decode(ctx, attrVal, goPtr.Field(idx).Addr().Interface()); err != nil {
				return fmt.Errorf("in attribute '%s': %w", name, err)
			}
		}
		return nil

	case reflect.Interface:
		nativeVal, err := ctyToNative(val)
		if err != nil {
			return err
		}
		if nativeVal != nil {
			goPtr.Set(reflect.ValueOf(nativeVal))
		}
		return nil

	case reflect.Map:
		return c.decodeMap(ctx, val, goPtr)

	case reflect.Slice:
		logger.Debug("Decoding as slice.")
		ty := val.Type()
		if !ty.IsListType() && !ty.IsTupleType() && !ty.IsSetType() {
			return fmt.Errorf("type mismatch: cannot decode %s into Go slice %s", ty.FriendlyName(), goType.String())
		}
		newSlice := reflect.MakeSlice(goType, val.LengthInt(), val.LengthInt())
		it := val.ElementIterator()
		for i := 0; it.Next(); i++ {
			_, elemVal := it.Element()
			if err := c.decode(ctx, elemVal, newSlice.Index(i).Addr().Interface()); err != nil {
				return fmt.Errorf("in element %d: %w", i, err)
			}
		}
		goPtr.Set(newSlice)
		return nil

	default:
		impliedType, err := gocty.ImpliedType(goPtr.Interface())
		if err != nil {
			return fmt.Errorf("unsupported Go type %s: %w", goType.String(), err)
		}
		converted, err := convert.Convert(val, impliedType)
		if err != nil {
			return fmt.Errorf("cannot convert %s to required type %s: %w", val.Type().FriendlyName(), impliedType.FriendlyName(), err)
		}
		return gocty.FromCtyValue(converted, goVal)
	}
}

// decodeMap decodes an object or map value into a Go map with string keys.
func (c *Converter) decodeMap(ctx context.Context, val cty.Value, goPtr reflect.Value) error {
	goType := goPtr.Type()
	if goType.Key().Kind() != reflect.String {
		return fmt.Errorf("unsupported map key type %s", goType.Key().String())
	}
	ty := val.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return fmt.Errorf("type mismatch: cannot decode %s into Go map %s", ty.FriendlyName(), goType.String())
	}

	newMap := reflect.MakeMapWithSize(goType, val.LengthInt())
	for key, elemVal := range val.AsValueMap() {
		elemPtr := reflect.New(goType.Elem())
		if err := c.decode(ctx, elemVal, elemPtr.Interface()); err != nil {
			return fmt.Errorf("failed to decode map element '%s': %w", key, err)
		}
		newMap.SetMapIndex(reflect.ValueOf(key).Convert(goType.Key()), elemPtr.Elem())
	}
	goPtr.Set(newMap)
	return nil
}
