package operations

import (
	"context"

	"github.com/woskam/looker-studio-automation/internal/consolidation"
	"github.com/woskam/looker-studio-automation/internal/extraction"
)

// Extractor exports one period file from the dashboard.
type Extractor interface {
	Extract(ctx context.Context) (*extraction.Result, error)
}

// Consolidator rebuilds the master workbook from the period files.
type Consolidator interface {
	Run(ctx context.Context) (*consolidation.Result, error)
}

// RunRecorder is told about every consolidation result, failed ones
// included.
type RunRecorder interface {
	RecordConsolidation(ctx context.Context, result *consolidation.Result)
}
