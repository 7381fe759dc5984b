package operations

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"
)

// Step is one unit of the weekly pipeline
type Step interface {
	ID() string
	Name() string

	// Execute runs the step. Results for later steps go into state's Context.
	Execute(ctx context.Context, state *OperationState) error

	// Validate runs before every attempt; an error fails the step unretried.
	Validate(state *OperationState) error

	// GetDependencies lists steps that must complete first
	GetDependencies() []string

	// Optional reports whether a failure of this Step leaves the operation
	// successful. Steps depending on a failed optional Step are still skipped.
	Optional() bool
}

// StepStatus represents the current status of a Step
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// StepState tracks one step through a run
type StepState struct {
	mu        sync.RWMutex           `json:"-"`
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Status    StepStatus             `json:"status"`
	StartTime *time.Time             `json:"start_time,omitempty"`
	EndTime   *time.Time             `json:"end_time,omitempty"`
	Attempts  int                    `json:"attempts"`
	Message   string                 `json:"message"`
	Error     error                  `json:"error,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewStepState creates a pending step
func NewStepState(id, name string) *StepState {
	return &StepState{
		ID:       id,
		Name:     name,
		Status:   StepStatusPending,
		Metadata: make(map[string]interface{}),
	}
}

// Start begins an attempt. A retried step keeps its attempt count.
func (s *StepState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.StartTime = &now
	s.EndTime = nil
	s.Status = StepStatusActive
	s.Attempts++
}

func (s *StepState) finish(status StepStatus, err error, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = status
	s.Error = err
	if message != "" {
		s.Message = message
	}
}

// Complete ends the step successfully and clears an earlier attempt's error.
func (s *StepState) Complete() { s.finish(StepStatusCompleted, nil, "") }

func (s *StepState) Fail(err error) { s.finish(StepStatusFailed, err, "") }

// Skip records why the step never ran
func (s *StepState) Skip(reason string) { s.finish(StepStatusSkipped, nil, reason) }

// SetMetadata records a value shown in step summaries
func (s *StepState) SetMetadata(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Metadata[key] = value
}

// GetStatus returns the current status
func (s *StepState) GetStatus() StepStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// Duration covers the latest attempt
func (s *StepState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.StartTime == nil {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(*s.StartTime)
	}
	return time.Since(*s.StartTime)
}

func (s *StepState) clone() *StepState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &StepState{
		ID:        s.ID,
		Name:      s.Name,
		Status:    s.Status,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Attempts:  s.Attempts,
		Message:   s.Message,
		Error:     s.Error,
		Metadata:  maps.Clone(s.Metadata),
	}
}

// BaseStage carries the identity of a Step; embed it and add Execute.
type BaseStage struct {
	id           string
	name         string
	dependencies []string
	optional     bool
}

// NewBaseStage creates a new base Step
func NewBaseStage(id, name string, dependencies []string) BaseStage {
	if dependencies == nil {
		dependencies = []string{}
	}
	return BaseStage{
		id:           id,
		name:         name,
		dependencies: dependencies,
	}
}

// ID returns the Step ID
func (b *BaseStage) ID() string {
	if b == nil {
		return ""
	}
	return b.id
}

// Name returns the Step name
func (b *BaseStage) Name() string {
	if b == nil {
		return ""
	}
	return b.name
}

// GetDependencies returns the Step dependencies
func (b *BaseStage) GetDependencies() []string {
	if b == nil {
		return nil
	}
	return b.dependencies
}

// Validate provides a default validation that always passes
func (b *BaseStage) Validate(state *OperationState) error {
	if b == nil {
		return fmt.Errorf("BaseStage is nil")
	}
	return nil
}

// Optional reports whether the Step was marked optional
func (b *BaseStage) Optional() bool {
	return b != nil && b.optional
}

// SetOptional marks the Step optional or critical
func (b *BaseStage) SetOptional(optional bool) {
	b.optional = optional
}
