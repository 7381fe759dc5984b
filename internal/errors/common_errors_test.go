package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name: "error without cause",
			appError: &AppError{
				Type:    ErrTypeDiscoveryEmpty,
				Message: "no period files found",
			},
			wantMessage: "[DISCOVERY_EMPTY] no period files found",
		},
		{
			name: "error with cause",
			appError: &AppError{
				Type:    ErrTypeStorage,
				Message: "failed to write master workbook",
				Cause:   fmt.Errorf("disk full"),
			},
			wantMessage: "[STORAGE] failed to write master workbook: disk full",
		},
		{
			name: "error with empty message",
			appError: &AppError{
				Type: ErrTypeValidation,
			},
			wantMessage: "[VALIDATION] ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("record on line 3: wrong number of fields")
	err := NewLoadError("data_week01_2025.csv", cause)

	assert.Same(t, cause, err.Unwrap())
	assert.ErrorIs(t, fmt.Errorf("wrapped: %w", err), cause)
}

func TestAppError_WithContext(t *testing.T) {
	t.Run("nil context is initialised", func(t *testing.T) {
		appError := &AppError{Type: ErrTypeLoad, Message: "Test error"}

		result := appError.WithContext("path", "a.csv")

		assert.Same(t, appError, result)
		require.NotNil(t, result.Context)
		assert.Equal(t, "a.csv", result.Context["path"])
	})

	t.Run("existing context is extended", func(t *testing.T) {
		appError := NewDiscoveryEmptyError("/tmp/weekly")

		appError.WithContext("pattern", "data_week*.csv")

		assert.Equal(t, "/tmp/weekly", appError.Context["dir"])
		assert.Equal(t, "data_week*.csv", appError.Context["pattern"])
	})
}

func TestAppError_Fatal(t *testing.T) {
	tests := []struct {
		name  string
		err   *AppError
		fatal bool
	}{
		{"parse error is per file", NewParsingError("bad name", nil), false},
		{"load error is per file", NewLoadError("x.csv", nil), false},
		{"discovery empty ends the run", NewDiscoveryEmptyError("dir"), true},
		{"assembly empty ends the run", NewAssemblyEmptyError(), true},
		{"storage ends the run", NewStorageError("write", nil), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fatal, tt.err.Fatal())
		})
	}
}

func TestIsType(t *testing.T) {
	inner := NewParsingError("week segment is not an integer", nil)
	outer := NewExtractionError("download failed", inner)

	tests := []struct {
		name    string
		err     error
		errType ErrorType
		want    bool
	}{
		{"direct match", inner, ErrTypeParsing, true},
		{"outer match", outer, ErrTypeExtraction, true},
		{"nested match", outer, ErrTypeParsing, true},
		{"wrapped with fmt", fmt.Errorf("step: %w", outer), ErrTypeParsing, true},
		{"no match", outer, ErrTypeStorage, false},
		{"plain error", errors.New("boom"), ErrTypeStorage, false},
		{"nil error", nil, ErrTypeStorage, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsType(tt.err, tt.errType))
		})
	}
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrTypeAssemblyEmpty, TypeOf(fmt.Errorf("run: %w", NewAssemblyEmptyError())))
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantType ErrorType
	}{
		{"discovery empty", NewDiscoveryEmptyError("d"), ErrTypeDiscoveryEmpty},
		{"parsing", NewParsingError("m", nil), ErrTypeParsing},
		{"load", NewLoadError("p", nil), ErrTypeLoad},
		{"assembly empty", NewAssemblyEmptyError(), ErrTypeAssemblyEmpty},
		{"storage", NewStorageError("m", nil), ErrTypeStorage},
		{"extraction", NewExtractionError("m", nil), ErrTypeExtraction},
		{"validation", NewValidationError("m"), ErrTypeValidation},
		{"not found", NewNotFoundError("report"), ErrTypeNotFound},
		{"config", NewConfigError("m", nil), ErrTypeConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.NotNil(t, tt.err.Context)
		})
	}

	assert.Equal(t, "report not found", NewNotFoundError("report").Message)
}
