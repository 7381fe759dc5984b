package operations

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/woskam/looker-studio-automation/internal/consolidation"
)

// ExtractionStage exports last week's period file from the dashboard
type ExtractionStage struct {
	BaseStage
	extractor Extractor
	logger    *slog.Logger
}

// NewExtractionStage creates the critical export step
func NewExtractionStage(extractor Extractor, logger *slog.Logger) *ExtractionStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionStage{
		BaseStage: NewBaseStage(StageIDExtraction, StageNameExtraction, nil),
		extractor: extractor,
		logger:    logger.With(slog.String("step", StageIDExtraction)),
	}
}

// Validate checks that an extractor is wired
func (s *ExtractionStage) Validate(state *OperationState) error {
	if s.extractor == nil {
		return fmt.Errorf("no extractor configured")
	}
	return nil
}

// Execute runs the browser export and publishes the period file
func (s *ExtractionStage) Execute(ctx context.Context, state *OperationState) error {
	s.logger.InfoContext(ctx, "Exporting period file",
		slog.String("period_dir", state.Parameter(ParamPeriodDir)))
	result, err := s.extractor.Extract(ctx)
	if err != nil {
		return err
	}

	state.SetContext(ContextKeyPeriod, result.Window.Period)
	state.SetContext(ContextKeyPeriodFile, result.Path)
	if st := state.GetStage(s.ID()); st != nil {
		st.SetMetadata("period", result.Window.Period.String())
		st.SetMetadata("file", result.Path)
	}

	s.logger.InfoContext(ctx, "Period file exported",
		slog.String("period", result.Window.Period.String()),
		slog.String("path", result.Path))
	return nil
}

// ConsolidationStage rebuilds the master workbook. It is optional: in the
// pipeline a failed consolidation does not undo a successful export.
type ConsolidationStage struct {
	BaseStage
	consolidator Consolidator
	recorder     RunRecorder
	logger       *slog.Logger
}

// NewConsolidationStage creates the consolidation step, depending on the
// extraction step.
func NewConsolidationStage(consolidator Consolidator, logger *slog.Logger) *ConsolidationStage {
	if logger == nil {
		logger = slog.Default()
	}
	stage := &ConsolidationStage{
		BaseStage:    NewBaseStage(StageIDConsolidation, StageNameConsolidation, []string{StageIDExtraction}),
		consolidator: consolidator,
		logger:       logger.With(slog.String("step", StageIDConsolidation)),
	}
	stage.SetOptional(true)
	return stage
}

// SetRecorder registers a recorder told about every consolidation result
func (s *ConsolidationStage) SetRecorder(recorder RunRecorder) {
	s.recorder = recorder
}

// Validate checks that a consolidator is wired
func (s *ConsolidationStage) Validate(state *OperationState) error {
	if s.consolidator == nil {
		return fmt.Errorf("no consolidator configured")
	}
	return nil
}

// Execute consolidates every period file into the master workbook
func (s *ConsolidationStage) Execute(ctx context.Context, state *OperationState) error {
	if file, ok := state.GetContext(ContextKeyPeriodFile); ok {
		s.logger.InfoContext(ctx, "Consolidating after export", slog.Any("period_file", file))
	}
	s.logger.InfoContext(ctx, "Rebuilding master workbook",
		slog.String("master", state.Parameter(ParamMaster)))
	result, err := s.consolidator.Run(ctx)
	if result != nil {
		state.SetContext(ContextKeyConsolidation, result)
		if s.recorder != nil {
			s.recorder.RecordConsolidation(ctx, result)
		}
	}
	if err != nil {
		return err
	}

	state.SetContext(ContextKeyMasterPath, result.MasterPath)
	state.SetContext(ContextKeyRows, result.Rows)
	if st := state.GetStage(s.ID()); st != nil {
		st.SetMetadata("rows", result.Rows)
		st.SetMetadata("master", result.MasterPath)
		st.SetMetadata("backup", result.BackupPath)
	}
	return nil
}

// ConsolidationResult returns the result the consolidation step stored, if
// it ran.
func ConsolidationResult(state *OperationState) (*consolidation.Result, bool) {
	v, ok := state.GetContext(ContextKeyConsolidation)
	if !ok {
		return nil, false
	}
	result, ok := v.(*consolidation.Result)
	return result, ok && result != nil
}
