package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	_ "modernc.org/sqlite"

	apperrors "github.com/woskam/looker-studio-automation/internal/errors"
	"github.com/woskam/looker-studio-automation/internal/infrastructure"
	"github.com/woskam/looker-studio-automation/pkg/contracts/domain"
)

//go:embed schema.sql
var schema string

// MemoryPath opens a private in-memory ledger.
const MemoryPath = ":memory:"

const timeLayout = time.RFC3339Nano

// Store is the SQLite ledger of consolidation runs.
type Store struct {
	db       *sql.DB
	validate *validator.Validate
	logger   *slog.Logger
}

// Open opens or creates the ledger at path and applies the schema.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = infrastructure.WithComponent(logger, "history")

	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, apperrors.NewStorageError("failed to create history directory", err).
				WithContext("path", path)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open history database", err).
			WithContext("path", path)
	}
	// One connection keeps the pragma and an in-memory database alive.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError("failed to apply history schema", err).
			WithContext("path", path)
	}

	logger.Debug("History ledger opened", slog.String("path", path))
	return &Store{db: db, validate: validator.New(), logger: logger}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends rec and its file outcomes.
func (s *Store) Record(ctx context.Context, rec domain.RunRecord) error {
	if err := s.validate.Struct(rec); err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("invalid run record: %v", err))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageError("failed to begin history transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs (
		id, started_at, finished_at, status, input_dir, master_path, backup_path,
		row_count, col_count, first_year, first_week, last_year, last_week, error
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.StartedAt.UTC().Format(timeLayout),
		rec.FinishedAt.UTC().Format(timeLayout),
		string(rec.Status),
		rec.InputDir,
		rec.MasterPath,
		rec.BackupPath,
		rec.Rows,
		rec.Columns,
		rec.First.Year, rec.First.Week,
		rec.Last.Year, rec.Last.Week,
		rec.Error,
	)
	if err != nil {
		return apperrors.NewStorageError("failed to insert run", err).WithContext("run_id", rec.ID)
	}

	for i, f := range rec.Files {
		_, err := tx.ExecContext(ctx, `INSERT INTO run_files (
			run_id, position, name, year, week, status, row_count, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, i, f.Name, f.Period.Year, f.Period.Week, string(f.Status), f.Rows, f.Error)
		if err != nil {
			return apperrors.NewStorageError("failed to insert run file", err).
				WithContext("run_id", rec.ID).
				WithContext("file", f.Name)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStorageError("failed to commit run", err).WithContext("run_id", rec.ID)
	}

	s.logger.InfoContext(ctx, "Run recorded",
		slog.String("run_id", rec.ID),
		slog.String("status", string(rec.Status)),
		slog.Int("files", len(rec.Files)))
	return nil
}

// List returns up to limit runs, newest first. A limit below one returns
// every run.
func (s *Store) List(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if limit < 1 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `SELECT
		id, started_at, finished_at, status, input_dir, master_path, backup_path,
		row_count, col_count, first_year, first_week, last_year, last_week, error
	FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to query runs", err)
	}
	defer rows.Close()

	var runs []domain.RunRecord
	for rows.Next() {
		var (
			rec               domain.RunRecord
			started, finished string
			status            string
		)
		err := rows.Scan(&rec.ID, &started, &finished, &status, &rec.InputDir,
			&rec.MasterPath, &rec.BackupPath, &rec.Rows, &rec.Columns,
			&rec.First.Year, &rec.First.Week, &rec.Last.Year, &rec.Last.Week, &rec.Error)
		if err != nil {
			return nil, apperrors.NewStorageError("failed to read run", err)
		}
		rec.Status = domain.RunStatus(status)
		if rec.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, apperrors.NewStorageError("corrupt run timestamp", err).WithContext("run_id", rec.ID)
		}
		if rec.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
			return nil, apperrors.NewStorageError("corrupt run timestamp", err).WithContext("run_id", rec.ID)
		}
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("failed to read runs", err)
	}
	rows.Close()

	for i := range runs {
		files, err := s.files(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Files = files
	}
	return runs, nil
}

func (s *Store) files(ctx context.Context, runID string) ([]domain.FileOutcome, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, year, week, status, row_count, error
		FROM run_files WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to query run files", err).WithContext("run_id", runID)
	}
	defer rows.Close()

	var files []domain.FileOutcome
	for rows.Next() {
		var (
			f      domain.FileOutcome
			status string
		)
		if err := rows.Scan(&f.Name, &f.Period.Year, &f.Period.Week, &status, &f.Rows, &f.Error); err != nil {
			return nil, apperrors.NewStorageError("failed to read run file", err).WithContext("run_id", runID)
		}
		f.Status = domain.FileStatus(status)
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("failed to read run files", err).WithContext("run_id", runID)
	}
	return files, nil
}
