package extraction

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/woskam/looker-studio-automation/internal/errors"
)

func TestNeedsSignIn(t *testing.T) {
	tests := []struct {
		location string
		want     bool
	}{
		{"https://accounts.google.com/v3/signin/identifier?continue=x", true},
		{"https://example.com/SignIn", true},
		{"https://lookerstudio.google.com/reporting/abc/page/p_1", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			assert.Equal(t, tt.want, needsSignIn(tt.location))
		})
	}
}

func TestHoverPoints(t *testing.T) {
	points := hoverPoints(100, 50, 600)

	assert.Len(t, points, 16)
	assert.Equal(t, [2]float64{620, 60}, points[0])
	assert.Equal(t, [2]float64{550, 90}, points[len(points)-1])
	for _, p := range points {
		assert.Less(t, p[0], 700.0, "inside the right edge")
		assert.Greater(t, p[1], 50.0, "below the top edge")
	}
}

func TestSkipButton(t *testing.T) {
	assert.True(t, skipButton("Filter on table"))
	assert.True(t, skipButton("Remove filters"))
	assert.False(t, skipButton("More options"))
	assert.False(t, skipButton(""))
}

func TestForceHoverScript(t *testing.T) {
	script := forceHoverScript(headerSelector)
	assert.Contains(t, script, `"//ng2-component-header[contains(@class, 'simple-table')]"`)
	assert.Contains(t, script, "mouseenter")
}

func TestClassify(t *testing.T) {
	t.Run("keeps app errors", func(t *testing.T) {
		orig := apperrors.NewExtractionError("table component not found", nil)
		assert.Same(t, orig, classify("failed to locate table", orig))
	})

	t.Run("deadline", func(t *testing.T) {
		err := classify("failed to open dashboard", fmt.Errorf("navigate: %w", context.DeadlineExceeded))
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeExtraction))
		assert.Contains(t, err.Error(), "timed out")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("other", func(t *testing.T) {
		cause := errors.New("websocket closed")
		err := classify("failed to open dashboard", cause)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeExtraction))
		assert.ErrorIs(t, err, cause)
	})
}
