package operations

import (
	"time"

	"github.com/woskam/looker-studio-automation/internal/config"
)

// stageTimeoutGrace lets a step's own deadline fire before the manager's.
const stageTimeoutGrace = time.Minute

// Config is the execution policy of one pipeline run.
type Config struct {
	StageTimeouts   map[string]time.Duration `json:"stage_timeouts"`
	RetryConfig     RetryConfig              `json:"retry_config"`
	ContinueOnError bool                     `json:"continue_on_error"` // keep going after a critical step fails
}

// NewConfig returns the default policy: one attempt per step, stop at the
// first critical failure. Consolidation is local file work and runs
// unbounded.
func NewConfig() *Config {
	return &Config{
		StageTimeouts: map[string]time.Duration{
			StageIDExtraction:    DefaultExtractionTimeout,
			StageIDConsolidation: NoTimeout,
		},
		RetryConfig: NewRetryConfig(),
	}
}

// ConfigFor derives the policy for the weekly pipeline from the extraction
// settings. The extraction step is bounded by the browser timeout plus a
// grace period, so the extractor reports its own timeout first.
func ConfigFor(cfg config.ExtractionConfig) *Config {
	c := NewConfig()
	if cfg.Timeout > 0 {
		c.SetStageTimeout(StageIDExtraction, cfg.Timeout+stageTimeoutGrace)
	}
	return c
}

// GetStageTimeout returns the timeout of stageID, DefaultStageTimeout when
// none is set, or 0 when the step is configured with NoTimeout.
func (c *Config) GetStageTimeout(stageID string) time.Duration {
	d, ok := c.StageTimeouts[stageID]
	switch {
	case !ok || d == 0:
		return DefaultStageTimeout
	case d < 0:
		return 0
	}
	return d
}

func (c *Config) SetStageTimeout(stageID string, timeout time.Duration) {
	if c.StageTimeouts == nil {
		c.StageTimeouts = make(map[string]time.Duration)
	}
	c.StageTimeouts[stageID] = timeout
}

// ConfigBuilder builds a Config fluently; tests use it to tune one knob.
type ConfigBuilder struct {
	config *Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{config: NewConfig()}
}

func (b *ConfigBuilder) WithStageTimeout(stageID string, timeout time.Duration) *ConfigBuilder {
	b.config.SetStageTimeout(stageID, timeout)
	return b
}

func (b *ConfigBuilder) WithRetryConfig(retry RetryConfig) *ConfigBuilder {
	b.config.RetryConfig = retry
	return b
}

func (b *ConfigBuilder) WithContinueOnError(continueOnError bool) *ConfigBuilder {
	b.config.ContinueOnError = continueOnError
	return b
}

func (b *ConfigBuilder) Build() *Config {
	return b.config
}
