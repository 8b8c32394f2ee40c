package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/specialistvlad/packgrid/internal/model"
	"github.com/specialistvlad/packgrid/internal/orchestrator"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
	dimColor  = color.New(color.Faint)
	nameColor = color.New(color.FgCyan)
)

// Report prints a summary of comp and the phase outcome to w.
func Report(w io.Writer, comp *model.Compilation, err error) {
	if comp == nil {
		failColor.Fprintf(w, "build failed: %v\n", err)
		return
	}
	stats := comp.Stats()
	for _, m := range comp.Modules() {
		if m.Failed() {
			failColor.Fprint(w, "  ✗ ")
			fmt.Fprintf(w, "%s ", m.Path)
			dimColor.Fprintf(w, "%s\n", m.Err)
			continue
		}
		okColor.Fprint(w, "  ✓ ")
		fmt.Fprintf(w, "%s ", m.Path)
		dimColor.Fprintf(w, "(%s)\n", m.Duration.Round(time.Millisecond))
	}
	for _, name := range comp.AssetNames() {
		content, _ := comp.Asset(name)
		fmt.Fprint(w, "  → ")
		nameColor.Fprint(w, name)
		dimColor.Fprintf(w, " %d B\n", len(content))
	}

	summary := fmt.Sprintf("%d module(s), %d failed, %d cacheable, %d asset(s) in %s",
		stats.Modules, stats.Failed, stats.Cacheable, stats.Assets, time.Since(comp.StartedAt).Round(time.Millisecond))
	if err == nil {
		okColor.Fprintf(w, "build %s succeeded: %s\n", stats.ID, summary)
		return
	}
	failColor.Fprintf(w, "build %s failed: %s\n", stats.ID, summary)
	var hookErr *orchestrator.HookError
	if errors.As(err, &hookErr) {
		failColor.Fprintf(w, "  hook %q: %v\n", hookErr.Event, hookErr.Err)
	}
}
