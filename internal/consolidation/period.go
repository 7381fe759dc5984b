package consolidation

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/woskam/looker-studio-automation/internal/errors"
	"github.com/woskam/looker-studio-automation/pkg/contracts/domain"
)

const (
	nameSeparator = "_"
	weekPrefix    = "week"
	nameSegments  = 3
)

// ParsePeriod decodes the Period encoded in a period file name such as
// data_week03_2025.csv. The name is split on "_" into exactly three
// segments; the second, minus its "week" prefix, is the week and the third
// is the year. Both must be unsigned decimal integers and form a valid
// Period.
func ParsePeriod(name string) (domain.Period, error) {
	base := strings.TrimSuffix(name, domain.PeriodFileExt)
	parts := strings.Split(base, nameSeparator)
	if len(parts) != nameSegments {
		return domain.Period{}, parseError(name, fmt.Errorf("expected %d segments separated by %q, got %d", nameSegments, nameSeparator, len(parts)))
	}

	weekPart, ok := strings.CutPrefix(parts[1], weekPrefix)
	if !ok {
		return domain.Period{}, parseError(name, fmt.Errorf("segment %q lacks the %q prefix", parts[1], weekPrefix))
	}

	week, err := parseUnsigned(weekPart)
	if err != nil {
		return domain.Period{}, parseError(name, fmt.Errorf("week: %w", err))
	}
	year, err := parseUnsigned(parts[2])
	if err != nil {
		return domain.Period{}, parseError(name, fmt.Errorf("year: %w", err))
	}

	period, err := domain.NewPeriod(year, week)
	if err != nil {
		return domain.Period{}, parseError(name, err)
	}
	return period, nil
}

// parseUnsigned accepts only ASCII digits, so "+5", " 5" and "-1" fail.
func parseUnsigned(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty segment")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%q is not an integer", s)
		}
	}
	return strconv.Atoi(s)
}

func parseError(name string, cause error) *apperrors.AppError {
	return apperrors.NewParsingError("cannot decode period from file name", cause).
		WithContext("file", name)
}
