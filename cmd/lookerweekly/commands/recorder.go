package commands

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/woskam/looker-studio-automation/internal/consolidation"
	"github.com/woskam/looker-studio-automation/internal/history"
	"github.com/woskam/looker-studio-automation/internal/infrastructure"
)

// historyRecorder appends consolidation results to the run ledger and
// keeps the last one for the console summary. A ledger that cannot be
// opened or written never fails a run.
type historyRecorder struct {
	store  *history.Store
	logger *slog.Logger
	last   *consolidation.Result
}

func (a *app) openRecorder(ctx context.Context) *historyRecorder {
	r := &historyRecorder{logger: infrastructure.WithComponent(a.logger, "history")}
	if !a.cfg.History.Enabled {
		return r
	}

	store, err := history.Open(ctx, a.cfg.History.Path, a.logger)
	if err != nil {
		r.logger.WarnContext(ctx, "Run history unavailable",
			slog.String("path", a.cfg.History.Path),
			slog.String("error", err.Error()))
		return r
	}
	r.store = store
	return r
}

// RecordConsolidation stores result under the run's trace id.
func (r *historyRecorder) RecordConsolidation(ctx context.Context, result *consolidation.Result) {
	if result == nil {
		return
	}
	r.last = result
	if r.store == nil {
		return
	}

	id := infrastructure.GetTraceID(ctx)
	if _, err := uuid.Parse(id); err != nil {
		id = infrastructure.GenerateTraceID()
	}
	if err := r.store.Record(ctx, result.Record(id)); err != nil {
		infrastructure.WithError(r.logger, err).WarnContext(ctx, "Run not recorded", slog.String("run_id", id))
		return
	}
	r.logger.DebugContext(ctx, "Run recorded", slog.String("run_id", id))
}

func (r *historyRecorder) Close() {
	if r.store == nil {
		return
	}
	if err := r.store.Close(); err != nil {
		r.logger.Warn("Closing run history failed", slog.String("error", err.Error()))
	}
}
