package stage

import (
	"context"
	"errors"
	"log/slog"
)

// ErrSkip is returned by Prepare when the stage output already exists and
// Execute must not run. Prepare has loaded the stored output into the item.
var ErrSkip = errors.New("stage output already present")

// Handler describes the contract the pipeline needs from each stage.
type Handler interface {
	Prepare(context.Context, *Item) error
	Execute(context.Context, *Item) error
	HealthCheck(context.Context) Health
}

// LoggerAware stages receive the stage-scoped logger before Prepare.
type LoggerAware interface {
	SetLogger(*slog.Logger)
}
