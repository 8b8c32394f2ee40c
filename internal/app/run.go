package app

import (
	"context"
	"errors"

	"github.com/specialistvlad/packgrid/internal/ctxlog"
	"github.com/specialistvlad/packgrid/internal/model"
)

// Run executes one build phase over the configured entries. The Compilation
// is returned even when the phase fails.
func (a *App) Run(ctx context.Context) (*model.Compilation, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if err := a.startStatusServer(ctx); err != nil {
		return nil, err
	}

	comp, err := a.orchestrator.Run(ctx, a.model.Entries)
	if closeErr := a.closeStatusServer(ctx); closeErr != nil {
		err = errors.Join(err, closeErr)
	}

	a.logger.Debug("App.Run method finished.")
	return comp, err
}
