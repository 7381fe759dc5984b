// Package operations runs the weekly pipeline as a sequence of steps.
//
// A Registry holds the steps and orders them by their dependencies. The
// Manager executes them one by one with per-step timeouts and optional
// retries, tracking each step in an OperationState. A failed critical step
// fails the operation and skips the steps depending on it; a failed optional
// step is recorded as a warning and the operation still completes.
//
// The weekly pipeline registers two steps:
//
//	manager := operations.NewManager(nil, nil, logger)
//	manager.RegisterStage(operations.NewExtractionStage(extractor, logger))
//	manager.RegisterStage(operations.NewConsolidationStage(consolidator, logger))
//	resp, err := manager.Execute(ctx, operations.OperationRequest{})
//
// Extraction is critical. Consolidation depends on it and is optional.
package operations
