package config

import (
	"errors"
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// DefaultFilename is the output filename template used when none is set.
const DefaultFilename = "[name][ext]"

// Model is the unified, format-agnostic representation of a build
// configuration. All paths in it are absolute.
type Model struct {
	// BaseDir is the directory of the configuration file. Relative paths in
	// plugin options are resolved against it.
	BaseDir string
	Entries []string
	Output  *Output
	Rules   []*Rule
	Plugins []*PluginRef
}

// Output describes where and how emitted assets are written.
type Output struct {
	// Path is the output directory. Empty disables writing assets.
	Path string
	// Filename is the asset name template, see DefaultFilename.
	Filename string
	// PassThroughUnmatched stores the raw content of resources no rule
	// matches instead of failing them.
	PassThroughUnmatched bool
}

// Rule pairs a path predicate with an ordered loader chain. At least one of
// Test and Include is set.
type Rule struct {
	// Test is a regular expression matched against the resource path.
	Test string
	// Include is a glob matched against the base name of the resource path.
	Include string
	// Exclude is a regular expression; matching paths are skipped by the rule.
	Exclude string
	// Use lists the loaders in configuration order. The last one runs first.
	Use []*LoaderRef
}

// LoaderRef names a stage and carries that reference's options.
type LoaderRef struct {
	Name    string
	Options map[string]cty.Value
}

// PluginRef names a plugin, its options and, optionally, the events it
// subscribes to instead of its defaults.
type PluginRef struct {
	Name    string
	Events  []string
	Options map[string]cty.Value
}

// Validate checks the structural rules shared by every configuration format.
func (m *Model) Validate() error {
	var errs []error
	if len(m.Entries) == 0 {
		errs = append(errs, errors.New("at least one entry is required"))
	}
	for i, r := range m.Rules {
		if r.Test == "" && r.Include == "" {
			errs = append(errs, fmt.Errorf("rule #%d: one of 'test' or 'include' is required", i))
		}
		if len(r.Use) == 0 {
			errs = append(errs, fmt.Errorf("rule #%d: at least one loader is required", i))
		}
		for j, ref := range r.Use {
			if ref.Name == "" {
				errs = append(errs, fmt.Errorf("rule #%d, loader #%d: name is required", i, j))
			}
		}
	}
	for i, p := range m.Plugins {
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("plugin #%d: name is required", i))
		}
	}
	return errors.Join(errs...)
}
