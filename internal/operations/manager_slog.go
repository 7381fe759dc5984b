package operations

import (
	"context"
	"log/slog"
)

func (m *Manager) logOperationStart(ctx context.Context, req OperationRequest, steps int) {
	m.logger.InfoContext(ctx, "operation_start",
		slog.String("operation_id", req.ID),
		slog.String("step", req.Step),
		slog.Int("step_count", steps),
		slog.Any("parameters", req.Parameters))
}

// logOperationComplete summarizes the finished run; skipped and failed step
// IDs are listed so a partial run can be read from one line.
func (m *Manager) logOperationComplete(ctx context.Context, state *OperationState) {
	m.logger.InfoContext(ctx, "operation_complete",
		slog.String("operation_id", state.ID),
		slog.String("status", string(state.Status)),
		slog.Any("failed_steps", state.StepsWithStatus(StepStatusFailed)),
		slog.Any("skipped_steps", state.StepsWithStatus(StepStatusSkipped)),
		slog.Int("warnings", len(state.GetWarnings())),
		slog.Duration("duration", state.Duration()))
}

func (m *Manager) logOperationError(ctx context.Context, operationID string, err error) {
	m.logger.ErrorContext(ctx, "operation_error",
		slog.String("operation_id", operationID),
		slog.Any("error", err))
}

func (m *Manager) logStageStart(ctx context.Context, operationID, stageID string) {
	m.logger.InfoContext(ctx, "stage_start",
		slog.String("operation_id", operationID),
		slog.String("step", stageID))
}

func (m *Manager) logStageComplete(ctx context.Context, operationID string, step *StepState) {
	m.logger.InfoContext(ctx, "stage_complete",
		slog.String("operation_id", operationID),
		slog.String("step", step.ID),
		slog.Int("attempts", step.Attempts),
		slog.Duration("duration", step.Duration()))
}

func (m *Manager) logStageError(ctx context.Context, operationID, stageID string, err error) {
	m.logger.ErrorContext(ctx, "stage_error",
		slog.String("operation_id", operationID),
		slog.String("step", stageID),
		slog.Any("error", err))
}
