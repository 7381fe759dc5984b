package operations

import (
	"time"
)

// Pipeline step identifiers
const (
	StageIDExtraction    = "extraction"
	StageIDConsolidation = "consolidation"
)

// Pipeline step names
const (
	StageNameExtraction    = "Dashboard Export"
	StageNameConsolidation = "Weekly Consolidation"
)

// Context keys for operation state
const (
	ContextKeyPeriod        = "period"
	ContextKeyPeriodFile    = "period_file"
	ContextKeyConsolidation = "consolidation_result"
	ContextKeyMasterPath    = "master_path"
	ContextKeyRows          = "rows"
)

// Request parameters the stages read
const (
	ParamPeriodDir = "period_dir"
	ParamMaster    = "master"
)

// Default timeouts
const (
	DefaultStageTimeout      = 30 * time.Minute
	DefaultExtractionTimeout = 15 * time.Minute

	// NoTimeout leaves a step bounded only by the operation's context.
	NoTimeout time.Duration = -1
)

// RetryConfig defines retry behavior for steps
type RetryConfig struct {
	MaxAttempts  int           `json:"max_attempts"`
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	Multiplier   float64       `json:"multiplier"`
}

// NewRetryConfig returns the default retry configuration: a single attempt.
// A browser export or a consolidation is not retried automatically.
func NewRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  1,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// OperationRequest represents a request to execute the pipeline
type OperationRequest struct {
	ID         string                 `json:"id"`
	Step       string                 `json:"step,omitempty"` // run a single step; empty runs all
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// OperationResponse represents the response from a pipeline execution
type OperationResponse struct {
	ID       string                `json:"id"`
	Status   OperationStatusValue  `json:"status"`
	Duration time.Duration         `json:"duration"`
	Steps    map[string]*StepState `json:"steps"`
	Warnings []string              `json:"warnings,omitempty"`
	Error    string                `json:"error,omitempty"`
}
