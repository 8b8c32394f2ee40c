package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/packgrid/internal/config"
	"github.com/specialistvlad/packgrid/internal/ctxlog"
)

// Validate checks that every stage and plugin the configuration names is
// registered.
func (r *Registry) Validate(ctx context.Context, m *config.Model) error {
	logger := ctxlog.FromContext(ctx)
	var errs []string

	for i, rule := range m.Rules {
		for _, ref := range rule.Use {
			if _, ok := r.stages[ref.Name]; !ok {
				errs = append(errs, fmt.Sprintf("rule #%d: unknown loader '%s' (available: %s)", i, ref.Name, strings.Join(r.StageNames(), ", ")))
			}
		}
	}
	for _, ref := range m.Plugins {
		def, ok := r.plugins[ref.Name]
		if !ok {
			errs = append(errs, fmt.Sprintf("unknown plugin '%s' (available: %s)", ref.Name, strings.Join(r.PluginNames(), ", ")))
			continue
		}
		if def.NewOptions == nil && len(ref.Options) > 0 {
			errs = append(errs, fmt.Sprintf("plugin '%s' takes no options", ref.Name))
		}
		if len(ref.Events) == 0 && len(def.Events) == 0 {
			errs = append(errs, fmt.Sprintf("plugin '%s' subscribes to no events; set 'events'", ref.Name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	logger.Debug("Registry validation passed.", "stages", len(r.stages), "plugins", len(r.plugins))
	return nil
}
