package operations

import (
	"maps"
	"sync"
	"time"
)

// OperationStatusValue is the overall status of a pipeline run
type OperationStatusValue string

const (
	OperationStatusPending   OperationStatusValue = "pending"
	OperationStatusRunning   OperationStatusValue = "running"
	OperationStatusCompleted OperationStatusValue = "completed"
	OperationStatusFailed    OperationStatusValue = "failed"
	OperationStatusCancelled OperationStatusValue = "cancelled"
)

// OperationState is shared by the steps of one pipeline run. Steps hand
// results to later steps through Context; request parameters are read-only.
type OperationState struct {
	mu sync.RWMutex

	ID        string               `json:"id"`
	Status    OperationStatusValue `json:"status"`
	StartTime time.Time            `json:"start_time"`
	EndTime   *time.Time           `json:"end_time,omitempty"`

	Steps      map[string]*StepState  `json:"steps"`
	Context    map[string]interface{} `json:"context"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	Warnings   []string               `json:"warnings,omitempty"` // failures of optional steps
	Error      error                  `json:"error,omitempty"`
}

// NewOperationState creates a pending state for run id
func NewOperationState(id string) *OperationState {
	return &OperationState{
		ID:         id,
		Status:     OperationStatusPending,
		StartTime:  time.Now(),
		Steps:      make(map[string]*StepState),
		Context:    make(map[string]interface{}),
		Parameters: make(map[string]interface{}),
	}
}

func (p *OperationState) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Status = OperationStatusRunning
	p.StartTime = time.Now()
}

func (p *OperationState) finish(status OperationStatusValue, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = status
	p.Error = err
}

// Complete marks the run completed; warnings do not change that.
func (p *OperationState) Complete() { p.finish(OperationStatusCompleted, nil) }

func (p *OperationState) Fail(err error) { p.finish(OperationStatusFailed, err) }

func (p *OperationState) Cancel() { p.finish(OperationStatusCancelled, nil) }

func (p *OperationState) GetStage(stageID string) *StepState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Steps[stageID]
}

func (p *OperationState) SetStage(stageID string, state *StepState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Steps[stageID] = state
}

// GetContext returns a value an earlier step published
func (p *OperationState) GetContext(key string) (interface{}, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	val, ok := p.Context[key]
	return val, ok
}

// SetContext publishes a value for later steps
func (p *OperationState) SetContext(key string, value interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Context[key] = value
}

// Parameter returns a request parameter as a string, or "".
func (p *OperationState) Parameter(key string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, _ := p.Parameters[key].(string)
	return s
}

func (p *OperationState) setParameters(params map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	maps.Copy(p.Parameters, params)
}

// AddWarning records a problem that did not fail the run
func (p *OperationState) AddWarning(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Warnings = append(p.Warnings, msg)
}

func (p *OperationState) GetWarnings() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.Warnings...)
}

// Duration is the run time so far, or the total once finished
func (p *OperationState) Duration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.EndTime != nil {
		return p.EndTime.Sub(p.StartTime)
	}
	return time.Since(p.StartTime)
}

// StepsWithStatus returns the IDs of the steps currently in status
func (p *OperationState) StepsWithStatus(status StepStatus) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var ids []string
	for id, step := range p.Steps {
		if step.GetStatus() == status {
			ids = append(ids, id)
		}
	}
	return ids
}

// Clone returns a deep copy safe to hand out after the run
func (p *OperationState) Clone() *OperationState {
	p.mu.RLock()
	defer p.mu.RUnlock()

	clone := &OperationState{
		ID:         p.ID,
		Status:     p.Status,
		StartTime:  p.StartTime,
		Steps:      make(map[string]*StepState, len(p.Steps)),
		Context:    maps.Clone(p.Context),
		Parameters: maps.Clone(p.Parameters),
		Warnings:   append([]string(nil), p.Warnings...),
		Error:      p.Error,
	}
	if p.EndTime != nil {
		end := *p.EndTime
		clone.EndTime = &end
	}
	for id, step := range p.Steps {
		clone.Steps[id] = step.clone()
	}
	return clone
}
