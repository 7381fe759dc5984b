package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/woskam/looker-studio-automation/internal/infrastructure"
)

// Manager orchestrates pipeline execution
type Manager struct {
	registry *Registry
	config   *Config
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *infrastructure.RunMetrics
}

// NewManager creates a new pipeline manager
func NewManager(registry *Registry, config *Config, logger *slog.Logger) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if config == nil {
		config = NewConfig()
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	return &Manager{
		registry: registry,
		config:   config,
		logger:   infrastructure.WithComponent(logger, "operations"),
		tracer:   noop.NewTracerProvider().Tracer(infrastructure.MeterName),
	}
}

// SetTelemetry attaches a tracer and step metrics. Either may be nil.
func (m *Manager) SetTelemetry(tracer trace.Tracer, metrics *infrastructure.RunMetrics) {
	if tracer != nil {
		m.tracer = tracer
	}
	m.metrics = metrics
}

// RegisterStage registers a Step with the pipeline
func (m *Manager) RegisterStage(step Step) error {
	return m.registry.Register(step)
}

// SetConfig updates the pipeline configuration
func (m *Manager) SetConfig(config *Config) {
	if config != nil {
		m.config = config
	}
}

// GetRegistry returns the registry for accessing registered stages
func (m *Manager) GetRegistry() *Registry {
	return m.registry
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *Config {
	return m.config
}

// Execute runs the requested step, or every registered step in dependency
// order. Failures of optional steps are reported as warnings and leave the
// operation completed.
func (m *Manager) Execute(ctx context.Context, req OperationRequest) (*OperationResponse, error) {
	if req.ID == "" {
		req.ID = infrastructure.GenerateTraceID()
	}
	ctx = infrastructure.WithTraceID(ctx, req.ID)

	ctx, span := m.tracer.Start(ctx, "operation.execute", trace.WithAttributes(
		attribute.String("operation.id", req.ID),
		attribute.String("operation.step", req.Step),
	))
	defer span.End()

	state := NewOperationState(req.ID)
	state.setParameters(req.Parameters)

	steps, err := m.plan(req)
	if err != nil {
		m.logOperationError(ctx, req.ID, err)
		state.Fail(err)
		span.SetStatus(codes.Error, err.Error())
		return m.createResponse(state), err
	}

	for _, step := range steps {
		state.SetStage(step.ID(), NewStepState(step.ID(), step.Name()))
	}

	m.logOperationStart(ctx, req, len(steps))
	state.Start()

	err = m.executeSequential(ctx, state, steps)
	if GetErrorType(err) == ErrorTypeCancellation {
		state.Cancel()
		span.SetStatus(codes.Error, err.Error())
		m.logOperationError(ctx, req.ID, err)
	} else if err != nil {
		state.Fail(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.logOperationError(ctx, req.ID, err)
	} else {
		state.Complete()
	}
	m.logOperationComplete(ctx, state)

	return m.createResponse(state), err
}

// plan picks the steps a request runs.
func (m *Manager) plan(req OperationRequest) ([]Step, error) {
	if req.Step == "" {
		steps, err := m.registry.GetDependencyOrder()
		if err != nil {
			return nil, NewFatalError("failed to order steps", err)
		}
		return steps, nil
	}

	step, err := m.registry.Get(req.Step)
	if err != nil {
		return nil, &OperationError{
			Type:    ErrorTypeNotFound,
			Step:    req.Step,
			Message: "requested step not registered",
			Cause:   err,
		}
	}
	return []Step{step}, nil
}

// executeSequential executes steps one by one
func (m *Manager) executeSequential(ctx context.Context, state *OperationState, steps []Step) error {
	var firstErr error

	for i, step := range steps {
		if ctx.Err() != nil {
			m.logger.WarnContext(ctx, "operation_cancelled",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()))
			m.skipRemaining(state, steps[i:], "operation cancelled")
			return NewCancellationError(step.ID())
		}

		stepState := state.GetStage(step.ID())
		if stepState.GetStatus() == StepStatusSkipped {
			m.logger.InfoContext(ctx, "stage_skipped",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()),
				slog.String("reason", stepState.Message))
			continue
		}

		m.logger.InfoContext(ctx, "executing_stage",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("stage_number", i+1),
			slog.Int("total_stages", len(steps)))

		err := m.executeStage(ctx, state, step)
		if err == nil {
			continue
		}

		m.logStageError(ctx, state.ID, step.ID(), err)
		m.skipDependentStages(state, steps, step.ID())

		if step.Optional() {
			state.AddWarning(err.Error())
			m.logger.WarnContext(ctx, "optional_stage_failed",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()),
				slog.String("error", err.Error()))
			continue
		}

		if !m.config.ContinueOnError {
			return err
		}
		if firstErr == nil {
			firstErr = err
		}
		m.logger.WarnContext(ctx, "stage_failed_continuing",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.String("error", err.Error()))
	}

	return firstErr
}

// executeStage executes a single Step with retry logic
func (m *Manager) executeStage(ctx context.Context, state *OperationState, step Step) error {
	stepState := state.GetStage(step.ID())
	if stepState == nil {
		return NewFatalError("step state not found", nil)
	}

	ctx, span := m.tracer.Start(ctx, "operation.step", trace.WithAttributes(
		attribute.String("step.id", step.ID()),
		attribute.String("step.name", step.Name()),
		attribute.Bool("step.optional", step.Optional()),
	))
	defer span.End()

	err := m.runStage(ctx, state, stepState, step)
	m.metrics.RecordStep(ctx, step.ID(), err == nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.Int("step.attempts", stepState.Attempts))
	return err
}

func (m *Manager) runStage(ctx context.Context, state *OperationState, stepState *StepState, step Step) error {
	m.logStageStart(ctx, state.ID, step.ID())

	if err := m.checkDependencies(state, step); err != nil {
		stepState.Skip(err.Error())
		return err
	}

	if err := step.Validate(state); err != nil {
		verr := NewValidationError(step.ID(), err.Error())
		verr.Cause = err
		stepState.Fail(verr)
		return verr
	}

	timeout := m.config.GetStageTimeout(step.ID())
	var (
		stageCtx context.Context
		cancel   context.CancelFunc
	)
	if timeout > 0 {
		stageCtx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		stageCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	retry := m.config.RetryConfig
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}

	for attempt := 1; ; attempt++ {
		stepState.Start()
		err := step.Execute(stageCtx, state)

		if err == nil {
			stepState.Complete()
			m.logStageComplete(ctx, state.ID, stepState)
			return nil
		}

		if errors.Is(stageCtx.Err(), context.DeadlineExceeded) {
			terr := NewTimeoutError(step.ID(), timeout.String())
			terr.Cause = err
			stepState.Fail(terr)
			return terr
		}

		if !IsRetryable(err) || attempt >= retry.MaxAttempts {
			wrapped := WrapError(err, step.ID(), "step execution failed")
			stepState.Fail(wrapped)
			return wrapped
		}

		delay := m.calculateRetryDelay(attempt, retry)
		m.logger.WarnContext(ctx, "stage_retry",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", retry.MaxAttempts),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))

		select {
		case <-time.After(delay):
		case <-stageCtx.Done():
			terr := NewTimeoutError(step.ID(), timeout.String())
			terr.Cause = err
			stepState.Fail(terr)
			return terr
		}
	}
}

// skipDependentStages marks all steps that depend on the failed Step as skipped
func (m *Manager) skipDependentStages(state *OperationState, steps []Step, failedStageID string) {
	for _, step := range steps {
		for _, dep := range step.GetDependencies() {
			if dep != failedStageID {
				continue
			}
			stepState := state.GetStage(step.ID())
			if stepState != nil && stepState.GetStatus() == StepStatusPending {
				stepState.Skip(fmt.Sprintf("dependency %s failed", failedStageID))
				m.skipDependentStages(state, steps, step.ID())
			}
			break
		}
	}
}

func (m *Manager) skipRemaining(state *OperationState, steps []Step, reason string) {
	for _, step := range steps {
		if s := state.GetStage(step.ID()); s != nil && s.GetStatus() == StepStatusPending {
			s.Skip(reason)
		}
	}
}

// checkDependencies verifies that the dependencies taking part in this
// operation completed. A dependency outside the operation, as when a single
// step is requested, is assumed satisfied.
func (m *Manager) checkDependencies(state *OperationState, step Step) error {
	for _, dep := range step.GetDependencies() {
		depState := state.GetStage(dep)
		if depState == nil {
			continue
		}
		if status := depState.GetStatus(); status != StepStatusCompleted {
			return NewDependencyError(step.ID(), dep,
				fmt.Sprintf("dependency %s not completed (status: %s)", dep, status))
		}
	}
	return nil
}

// calculateRetryDelay calculates the delay before next retry
func (m *Manager) calculateRetryDelay(attempt int, config RetryConfig) time.Duration {
	delay := config.InitialDelay
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * config.Multiplier)
	}
	if config.MaxDelay > 0 && delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	return delay
}

// createResponse creates a pipeline response from state
func (m *Manager) createResponse(state *OperationState) *OperationResponse {
	snapshot := state.Clone()
	resp := &OperationResponse{
		ID:       snapshot.ID,
		Status:   snapshot.Status,
		Duration: snapshot.Duration(),
		Steps:    snapshot.Steps,
		Warnings: snapshot.Warnings,
	}

	if snapshot.Error != nil {
		resp.Error = snapshot.Error.Error()
	}

	return resp
}
