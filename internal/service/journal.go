package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/model"
)

// RunRecorder persists run journal entries. *repository.RunRepository satisfies it.
type RunRecorder interface {
	InsertRun(ctx context.Context, run model.Run) error
}

// journal writes run entries and never fails the caller. A nil recorder disables it.
type journal struct {
	rec    RunRecorder
	logger zerolog.Logger
}

func (j journal) record(ctx context.Context, run model.Run, started time.Time) {
	if j.rec == nil {
		return
	}
	run.ID = uuid.NewString()
	run.StartedAt = started.UTC()
	run.DurationMs = time.Since(started).Milliseconds()

	if err := j.rec.InsertRun(context.WithoutCancel(ctx), run); err != nil {
		j.logger.Warn().Err(err).Str("kind", string(run.Kind)).Msg("failed to write run journal entry")
	}
}
