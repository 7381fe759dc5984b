package extraction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/woskam/looker-studio-automation/pkg/contracts/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestPreviousWeek(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		wantStart time.Time
		want      domain.Period
	}{
		{
			name:      "monday",
			now:       time.Date(2025, time.January, 13, 10, 30, 0, 0, time.Local),
			wantStart: date(2025, time.January, 5),
			want:      domain.Period{Year: 2025, Week: 1},
		},
		{
			name:      "sunday goes back a full week",
			now:       time.Date(2025, time.January, 12, 23, 59, 0, 0, time.Local),
			wantStart: date(2025, time.January, 5),
			want:      domain.Period{Year: 2025, Week: 1},
		},
		{
			name:      "saturday",
			now:       date(2025, time.January, 18),
			wantStart: date(2025, time.January, 5),
			want:      domain.Period{Year: 2025, Week: 1},
		},
		{
			name:      "across new year",
			now:       date(2025, time.January, 2),
			wantStart: date(2024, time.December, 22),
			want:      domain.Period{Year: 2024, Week: 51},
		},
		{
			name:      "week ending in the new year",
			now:       date(2025, time.January, 6),
			wantStart: date(2024, time.December, 29),
			want:      domain.Period{Year: 2024, Week: 52},
		},
		{
			name:      "iso year differs from calendar year",
			now:       date(2021, time.January, 13),
			wantStart: date(2021, time.January, 3),
			want:      domain.Period{Year: 2020, Week: 53},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := PreviousWeek(tt.now)
			assert.True(t, w.Start.Equal(tt.wantStart), "start %s, want %s", w.Start, tt.wantStart)
			assert.Equal(t, time.Sunday, w.Start.Weekday())
			assert.Equal(t, time.Saturday, w.End.Weekday())
			assert.True(t, w.End.Equal(tt.wantStart.AddDate(0, 0, 6)))
			assert.Equal(t, tt.want, w.Period)
			assert.True(t, w.End.Before(tt.now), "window must end before now")
		})
	}
}

func TestWindowString(t *testing.T) {
	w := PreviousWeek(date(2025, time.January, 13))
	assert.Equal(t, "Jan 5, 2025 - Jan 11, 2025", w.String())

	w = PreviousWeek(date(2025, time.January, 6))
	assert.Equal(t, "Dec 29, 2024 - Jan 4, 2025", w.String())
}

func TestDayLabels(t *testing.T) {
	assert.Equal(t, []string{"January 5, 2025", "Jan 5, 2025"}, dayLabels(date(2025, time.January, 5)))
	assert.Equal(t, []string{"May 31, 2025", "May 31, 2025"}, dayLabels(date(2025, time.May, 31)))
}
