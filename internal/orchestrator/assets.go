package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/packgrid/internal/ctxlog"
	"github.com/specialistvlad/packgrid/internal/model"
)

// AssetName expands the [name] and [ext] placeholders of tpl for path.
func AssetName(tpl, path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return strings.NewReplacer("[name]", strings.TrimSuffix(base, ext), "[ext]", ext).Replace(tpl)
}

// RenderValue turns a chain's final value into asset bytes: []byte verbatim,
// strings as their bytes, anything else as JSON.
func RenderValue(v any) ([]byte, error) {
	switch val := v.(type) {
	case []byte:
		return val, nil
	case string:
		return []byte(val), nil
	default:
		return json.Marshal(val)
	}
}

// renderAssets stores every successful module as an asset. Nothing is
// rendered when there is no output location.
func (o *Orchestrator) renderAssets(ctx context.Context, comp *model.Compilation) error {
	if o.deps.Emitter == nil {
		return nil
	}
	logger := ctxlog.FromContext(ctx)
	for _, m := range comp.Modules() {
		if m.Failed() {
			continue
		}
		name := AssetName(o.opts.Filename, m.Path)
		content, err := RenderValue(m.Value)
		if err != nil {
			return fmt.Errorf("failed to render %s: %w", m.Path, err)
		}
		if _, exists := comp.Asset(name); exists {
			logger.Warn("Asset name collision, later resource wins.", "asset", name, "resource", m.Path)
		}
		comp.SetAsset(name, content)
	}
	return nil
}

// writeAssets writes every asset of the compilation through the emitter.
func (o *Orchestrator) writeAssets(ctx context.Context, comp *model.Compilation) error {
	logger := ctxlog.FromContext(ctx)
	if o.deps.Emitter == nil {
		logger.Debug("No output location, skipping asset writing.")
		return nil
	}
	o.status.set(PhaseWriting, "")
	names := comp.AssetNames()
	for _, name := range names {
		content, _ := comp.Asset(name)
		if err := o.deps.Emitter.Emit(ctx, name, content); err != nil {
			return fmt.Errorf("failed to emit %s: %w", name, err)
		}
	}
	logger.Info("Assets written.", "count", len(names))
	return nil
}
