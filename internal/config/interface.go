package config

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads the configuration file at path, translates it into the
	// format-agnostic model, and returns a matching Converter.
	Load(ctx context.Context, path string) (*Model, Converter, error)
}

// Converter binds option values from the configuration to Go types used by
// stages and plugins.
type Converter interface {
	// DecodeOptions populates the struct pointed to by target from options.
	// Fields keep their current value when the option is absent, so callers
	// set defaults before decoding. Unknown option names are an error.
	DecodeOptions(ctx context.Context, target any, options map[string]cty.Value) error

	// ToNative converts a cty.Value to plain Go data: string, float64, bool,
	// []any and map[string]any.
	ToNative(v cty.Value) (any, error)
}
