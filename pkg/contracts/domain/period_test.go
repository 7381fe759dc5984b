package domain

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPeriod(t *testing.T) {
	tests := []struct {
		name        string
		year, week  int
		wantErr     bool
		errContains string
	}{
		{name: "first week", year: 2025, week: 1},
		{name: "week 53", year: 2026, week: 53},
		{name: "week zero", year: 2025, week: 0, wantErr: true, errContains: "outside 1-53"},
		{name: "week 54", year: 2025, week: 54, wantErr: true, errContains: "outside 1-53"},
		{name: "zero year", year: 0, week: 10, wantErr: true, errContains: "must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPeriod(tt.year, tt.week)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, Period{Year: tt.year, Week: tt.week}, p)
		})
	}
}

func TestPeriod_FileName(t *testing.T) {
	assert.Equal(t, "data_week03_2025.csv", Period{Year: 2025, Week: 3}.FileName())
	assert.Equal(t, "data_week42_2024.csv", Period{Year: 2024, Week: 42}.FileName())
}

func TestPeriod_Ordering(t *testing.T) {
	periods := []Period{
		{Year: 2026, Week: 1},
		{Year: 2025, Week: 5},
		{Year: 2025, Week: 1},
		{Year: 2025, Week: 5},
	}
	sort.SliceStable(periods, func(i, j int) bool { return periods[i].Less(periods[j]) })

	assert.Equal(t, []Period{
		{Year: 2025, Week: 1},
		{Year: 2025, Week: 5},
		{Year: 2025, Week: 5},
		{Year: 2026, Week: 1},
	}, periods)
	assert.Equal(t, 0, Period{Year: 2025, Week: 5}.Compare(Period{Year: 2025, Week: 5}))
	assert.True(t, Period{Year: 2025, Week: 52}.Less(Period{Year: 2026, Week: 1}))
}

func TestPeriodOf(t *testing.T) {
	// 2024-12-29 is a Sunday in ISO week 52 of 2024; 2024-12-30 starts 2025-W01.
	assert.Equal(t, Period{Year: 2024, Week: 52}, PeriodOf(time.Date(2024, 12, 29, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, Period{Year: 2025, Week: 1}, PeriodOf(time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)))
}

func TestPeriod_String(t *testing.T) {
	assert.Equal(t, "2025-W07", Period{Year: 2025, Week: 7}.String())
	assert.True(t, Period{}.IsZero())
}

func TestTable_HeaderAndSpan(t *testing.T) {
	table := &Table{
		Columns: []string{"A", "B"},
		Rows: []Row{
			{Period: Period{Year: 2025, Week: 1}, Values: []Value{Text("1"), Missing}},
			{Period: Period{Year: 2025, Week: 1}, Values: []Value{Text("2"), Text("")}},
			{Period: Period{Year: 2025, Week: 3}, Values: []Value{Text("3"), Text("x")}},
		},
	}

	assert.Equal(t, []string{"Year", "Week", "A", "B"}, table.Header())
	first, last, ok := table.Span()
	require.True(t, ok)
	assert.Equal(t, Period{Year: 2025, Week: 1}, first)
	assert.Equal(t, Period{Year: 2025, Week: 3}, last)
	assert.Equal(t, []Period{{Year: 2025, Week: 1}, {Year: 2025, Week: 3}}, table.Periods())

	_, _, ok = (&Table{}).Span()
	assert.False(t, ok)
}

func TestValue(t *testing.T) {
	assert.True(t, Missing.IsMissing())
	assert.False(t, Text("").IsMissing())
	assert.Equal(t, "42", Text("42").String())
}
