package operations

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/woskam/looker-studio-automation/internal/config"
)

func TestConfigFor(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		want    time.Duration
	}{
		{"browser timeout plus grace", 10 * time.Minute, 11 * time.Minute},
		{"unset keeps the default", 0, DefaultExtractionTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ConfigFor(config.ExtractionConfig{Timeout: tt.timeout})
			assert.Equal(t, tt.want, c.GetStageTimeout(StageIDExtraction))
			assert.Zero(t, c.GetStageTimeout(StageIDConsolidation), "consolidation is unbounded")
			assert.Equal(t, 1, c.RetryConfig.MaxAttempts)
			assert.False(t, c.ContinueOnError)
		})
	}
}

func TestGetStageTimeout(t *testing.T) {
	c := NewConfigBuilder().
		WithStageTimeout("bounded", time.Minute).
		WithStageTimeout("unbounded", NoTimeout).
		WithStageTimeout("zero", 0).
		Build()

	assert.Equal(t, time.Minute, c.GetStageTimeout("bounded"))
	assert.Zero(t, c.GetStageTimeout("unbounded"))
	assert.Equal(t, DefaultStageTimeout, c.GetStageTimeout("zero"))
	assert.Equal(t, DefaultStageTimeout, c.GetStageTimeout("unknown"))
}
