package domain

import (
	"fmt"
	"time"
)

const (
	// MinWeek and MaxWeek bound an ISO week number.
	MinWeek = 1
	MaxWeek = 53

	// PeriodFilePrefix is the literal every period file name starts with.
	PeriodFilePrefix = "data_week"
	// PeriodFileExt is the extension of a period file.
	PeriodFileExt = ".csv"
	// PeriodFileGlob matches candidate period files in a directory.
	PeriodFileGlob = PeriodFilePrefix + "*" + PeriodFileExt
)

// Period identifies one ISO week of exported data.
//
// A Period is built once, when a period file is discovered, and carried
// alongside every row loaded from that file. Nothing downstream re-parses
// file names.
type Period struct {
	Year int `json:"year" validate:"required,min=1"`
	Week int `json:"week" validate:"required,min=1,max=53"`
}

// NewPeriod validates year and week and returns the Period.
func NewPeriod(year, week int) (Period, error) {
	if year <= 0 {
		return Period{}, fmt.Errorf("year %d must be positive", year)
	}
	if week < MinWeek || week > MaxWeek {
		return Period{}, fmt.Errorf("week %d outside %d-%d", week, MinWeek, MaxWeek)
	}
	return Period{Year: year, Week: week}, nil
}

// PeriodOf returns the ISO week (and ISO year) containing t.
func PeriodOf(t time.Time) Period {
	year, week := t.ISOWeek()
	return Period{Year: year, Week: week}
}

// FileName is the canonical period file name, e.g. data_week03_2025.csv.
func (p Period) FileName() string {
	return fmt.Sprintf("%s%02d_%d%s", PeriodFilePrefix, p.Week, p.Year, PeriodFileExt)
}

// Compare orders periods by year, then week.
func (p Period) Compare(other Period) int {
	switch {
	case p.Year < other.Year:
		return -1
	case p.Year > other.Year:
		return 1
	case p.Week < other.Week:
		return -1
	case p.Week > other.Week:
		return 1
	default:
		return 0
	}
}

// Less reports whether p sorts before other.
func (p Period) Less(other Period) bool {
	return p.Compare(other) < 0
}

// IsZero reports whether p is the zero value.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Week == 0
}

func (p Period) String() string {
	return fmt.Sprintf("%d-W%02d", p.Year, p.Week)
}
