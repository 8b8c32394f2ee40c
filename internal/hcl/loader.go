package hcl

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/packgrid/internal/config"
	"github.com/specialistvlad/packgrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	env map[string]string
}

// NewLoader creates a new HCL configuration loader. env is exposed to
// expressions as the `env` object variable.
func NewLoader(env map[string]string) *Loader {
	return &Loader{env: env}
}

// fileRoot is the top-level schema of a build configuration file.
type fileRoot struct {
	Entry   []string       `hcl:"entry"`
	Output  *outputBlock   `hcl:"output,block"`
	Rules   []*ruleBlock   `hcl:"rule,block"`
	Plugins []*pluginBlock `hcl:"plugin,block"`
}

type outputBlock struct {
	Path                 string `hcl:"path,optional"`
	Filename             string `hcl:"filename,optional"`
	PassThroughUnmatched bool   `hcl:"pass_through_unmatched,optional"`
}

type ruleBlock struct {
	Test    string      `hcl:"test,optional"`
	Include string      `hcl:"include,optional"`
	Exclude string      `hcl:"exclude,optional"`
	Use     []*useBlock `hcl:"use,block"`
}

type useBlock struct {
	Name    string         `hcl:"name,label"`
	Options hcl.Expression `hcl:"options,optional"`
}

type pluginBlock struct {
	Name    string         `hcl:"name,label"`
	Events  []string       `hcl:"events,optional"`
	Options hcl.Expression `hcl:"options,optional"`
}

// Load parses and decodes the HCL file at path and translates it into the
// format-agnostic model.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, config.Converter, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path", path)

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve config path %s: %w", path, err)
	}

	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(absPath)
	if diags.HasErrors() {
		return nil, nil, fmt.Errorf("failed to parse HCL file %s: %w", absPath, diags)
	}

	evalCtx := newEvalContext(l.env)
	var root fileRoot
	if diags := gohcl.DecodeBody(hclFile.Body, evalCtx, &root); diags.HasErrors() {
		return nil, nil, fmt.Errorf("failed to decode HCL file %s: %w", absPath, diags)
	}

	model, err := l.translate(ctx, filepath.Dir(absPath), &root, evalCtx)
	if err != nil {
		return nil, nil, fmt.Errorf("in %s: %w", absPath, err)
	}
	if err := model.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration %s: %w", absPath, err)
	}

	logger.Debug("HCL loading complete.", "entries", len(model.Entries), "rules", len(model.Rules), "plugins", len(model.Plugins))
	return model, NewConverter(), nil
}

func (l *Loader) translate(ctx context.Context, baseDir string, root *fileRoot, evalCtx *hcl.EvalContext) (*config.Model, error) {
	model := &config.Model{
		BaseDir: baseDir,
		Output:  &config.Output{Filename: config.DefaultFilename},
	}
	for _, entry := range root.Entry {
		model.Entries = append(model.Entries, ResolvePath(baseDir, entry))
	}

	if out := root.Output; out != nil {
		if out.Path != "" {
			model.Output.Path = ResolvePath(baseDir, out.Path)
		}
		if out.Filename != "" {
			model.Output.Filename = out.Filename
		}
		model.Output.PassThroughUnmatched = out.PassThroughUnmatched
	}

	for i, rb := range root.Rules {
		rule := &config.Rule{Test: rb.Test, Include: rb.Include, Exclude: rb.Exclude}
		for _, ub := range rb.Use {
			opts, err := evalOptions(ctx, ub.Options, evalCtx)
			if err != nil {
				return nil, fmt.Errorf("rule #%d, loader %q: %w", i, ub.Name, err)
			}
			rule.Use = append(rule.Use, &config.LoaderRef{Name: ub.Name, Options: opts})
		}
		model.Rules = append(model.Rules, rule)
	}

	for _, pb := range root.Plugins {
		opts, err := evalOptions(ctx, pb.Options, evalCtx)
		if err != nil {
			return nil, fmt.Errorf("plugin %q: %w", pb.Name, err)
		}
		model.Plugins = append(model.Plugins, &config.PluginRef{Name: pb.Name, Events: pb.Events, Options: opts})
	}
	return model, nil
}

// evalOptions evaluates an `options` attribute into its top-level attributes.
func evalOptions(ctx context.Context, expr hcl.Expression, evalCtx *hcl.EvalContext) (map[string]cty.Value, error) {
	opts := make(map[string]cty.Value)
	if !isExprDefined(ctx, expr, "options") {
		return opts, nil
	}

	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid options: %w", diags)
	}
	if val.IsNull() {
		return opts, nil
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, fmt.Errorf("options must be an object, got %s", val.Type().FriendlyName())
	}
	if !val.IsWhollyKnown() {
		return nil, fmt.Errorf("options must be known at load time")
	}
	for k, v := range val.AsValueMap() {
		opts[k] = v
	}
	return opts, nil
}

// ResolvePath makes p absolute, relative to baseDir.
func ResolvePath(baseDir, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(baseDir, p)
}
