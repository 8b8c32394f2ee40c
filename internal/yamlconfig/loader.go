package yamlconfig

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/specialistvlad/packgrid/internal/config"
	"github.com/specialistvlad/packgrid/internal/ctxlog"
	"github.com/specialistvlad/packgrid/internal/hcl"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	"gopkg.in/yaml.v3"
)

// Loader reads build configuration from YAML files.
type Loader struct {
	env map[string]string
}

// NewLoader creates a YAML loader. `${NAME}` references in the document are
// replaced with values from env before parsing.
func NewLoader(env map[string]string) *Loader {
	return &Loader{env: env}
}

type document struct {
	Entry   stringList  `yaml:"entry"`
	Output  *outputDoc  `yaml:"output"`
	Rules   []ruleDoc   `yaml:"rules"`
	Plugins []pluginDoc `yaml:"plugins"`
}

type outputDoc struct {
	Path                 string `yaml:"path"`
	Filename             string `yaml:"filename"`
	PassThroughUnmatched bool   `yaml:"pass_through_unmatched"`
}

type ruleDoc struct {
	Test    string   `yaml:"test"`
	Include string   `yaml:"include"`
	Exclude string   `yaml:"exclude"`
	Use     []useDoc `yaml:"use"`
}

type useDoc struct {
	Loader  string         `yaml:"loader"`
	Options map[string]any `yaml:"options"`
}

type pluginDoc struct {
	Name    string         `yaml:"name"`
	Events  stringList     `yaml:"events"`
	Options map[string]any `yaml:"options"`
}

// stringList accepts either a single string or a sequence of strings.
type stringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *stringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = stringList{node.Value}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a list of strings", node.Line)
	}
}

// Load reads and decodes the YAML file at path.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, config.Converter, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML loader started.", "path", path)

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve config path %s: %w", path, err)
	}
	raw, err := os.ReadFile(absPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read YAML file %s: %w", absPath, err)
	}
	expanded, err := expandVars(raw, l.env)
	if err != nil {
		return nil, nil, fmt.Errorf("in %s: %w", absPath, err)
	}

	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("failed to decode YAML file %s: %w", absPath, err)
	}

	model, err := translate(filepath.Dir(absPath), &doc)
	if err != nil {
		return nil, nil, fmt.Errorf("in %s: %w", absPath, err)
	}
	if err := model.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration %s: %w", absPath, err)
	}

	logger.Debug("YAML loading complete.", "entries", len(model.Entries), "rules", len(model.Rules), "plugins", len(model.Plugins))
	return model, hcl.NewConverter(), nil
}

func translate(baseDir string, doc *document) (*config.Model, error) {
	model := &config.Model{
		BaseDir: baseDir,
		Output:  &config.Output{Filename: config.DefaultFilename},
	}
	for _, entry := range doc.Entry {
		model.Entries = append(model.Entries, hcl.ResolvePath(baseDir, entry))
	}
	if out := doc.Output; out != nil {
		if out.Path != "" {
			model.Output.Path = hcl.ResolvePath(baseDir, out.Path)
		}
		if out.Filename != "" {
			model.Output.Filename = out.Filename
		}
		model.Output.PassThroughUnmatched = out.PassThroughUnmatched
	}

	for i, rd := range doc.Rules {
		rule := &config.Rule{Test: rd.Test, Include: rd.Include, Exclude: rd.Exclude}
		for _, ud := range rd.Use {
			opts, err := toCty(ud.Options)
			if err != nil {
				return nil, fmt.Errorf("rule #%d, loader %q: %w", i, ud.Loader, err)
			}
			rule.Use = append(rule.Use, &config.LoaderRef{Name: ud.Loader, Options: opts})
		}
		model.Rules = append(model.Rules, rule)
	}

	for _, pd := range doc.Plugins {
		opts, err := toCty(pd.Options)
		if err != nil {
			return nil, fmt.Errorf("plugin %q: %w", pd.Name, err)
		}
		model.Plugins = append(model.Plugins, &config.PluginRef{Name: pd.Name, Events: pd.Events, Options: opts})
	}
	return model, nil
}

// toCty converts decoded YAML options to cty values through their JSON form.
func toCty(options map[string]any) (map[string]cty.Value, error) {
	out := make(map[string]cty.Value, len(options))
	if len(options) == 0 {
		return out, nil
	}
	b, err := json.Marshal(options)
	if err != nil {
		return nil, fmt.Errorf("options are not representable as JSON: %w", err)
	}
	ty, err := ctyjson.ImpliedType(b)
	if err != nil {
		return nil, fmt.Errorf("failed to infer option types: %w", err)
	}
	val, err := ctyjson.Unmarshal(b, ty)
	if err != nil {
		return nil, fmt.Errorf("failed to convert options: %w", err)
	}
	for k, v := range val.AsValueMap() {
		out[k] = v
	}
	return out, nil
}

var varPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandVars replaces ${NAME} references. Undefined names are an error.
func expandVars(raw []byte, env map[string]string) ([]byte, error) {
	missing := make(map[string]struct{})
	out := varPattern.ReplaceAllFunc(raw, func(m []byte) []byte {
		name := string(varPattern.FindSubmatch(m)[1])
		v, ok := env[name]
		if !ok {
			missing[name] = struct{}{}
			return m
		}
		return []byte(v)
	})
	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for n := range missing {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("undefined variables: %v", names)
	}
	return out, nil
}
