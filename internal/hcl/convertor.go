package hcl

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/specialistvlad/packgrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// tagName is the struct tag that maps option names to Go fields.
const tagName = "pg"

// Converter is the cty-based implementation of the config.Converter interface.
type Converter struct{}

// NewConverter creates a new converter.
func NewConverter() *Converter {
	return &Converter{}
}

// DecodeOptions populates the struct pointed to by target from options,
// matching option names against `pg:"name"` struct tags.
func (c *Converter) DecodeOptions(ctx context.Context, target any, options map[string]cty.Value) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Starting option decoding.", "target", fmt.Sprintf("%T", target), "count", len(options))

	ptr := reflect.ValueOf(target)
	if ptr.Kind() != reflect.Ptr || ptr.IsNil() || ptr.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("target must be a non-nil pointer to a struct, got %T", target)
	}
	structVal := ptr.Elem()
	fields := taggedFields(structVal.Type())

	names := make([]string, 0, len(options))
	for name := range options {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		idx, ok := fields[name]
		if !ok {
			errs = append(errs, fmt.Errorf("unsupported option %q", name))
			continue
		}
		if err := c.decode(ctx, options[name], structVal.Field(idx).Addr().Interface()); err != nil {
			errs = append(errs, fmt.Errorf("failed to decode option '%s': %w", name, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	logger.Debug("Finished option decoding successfully.")
	return nil
}

// ToNative converts v to plain Go data.
func (c *Converter) ToNative(v cty.Value) (any, error) {
	return ctyToNative(v)
}

// taggedFields maps tag names to field indexes of an exported struct type.
func taggedFields(t reflect.Type) map[string]int {
	fields := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := strings.Split(f.Tag.Get(tagName), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		fields[name] = i
	}
	return fields
}
