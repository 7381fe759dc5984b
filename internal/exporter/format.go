package exporter

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/woskam/looker-studio-automation/pkg/contracts/domain"
)

// plainNumber matches integers and decimals without grouping separators,
// signs other than a leading minus, or redundant leading zeros.
var plainNumber = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?$`)

// cellValue converts an opaque source value into the value stored in the
// workbook. Plain numbers that survive the conversion exactly become numeric
// cells, everything else stays text. Missing and empty values produce a
// blank cell.
func cellValue(v domain.Value) interface{} {
	if v.IsMissing() {
		return nil
	}
	s := v.String()
	if s == "" {
		return nil
	}
	if !plainNumber.MatchString(s) {
		return s
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || strconv.FormatFloat(f, 'f', -1, 64) != canonicalDecimal(s) {
		return s
	}
	return f
}

// canonicalDecimal drops trailing fractional zeros: "2.50" and "2.5" denote
// the same number.
func canonicalDecimal(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	return strings.TrimSuffix(strings.TrimRight(s, "0"), ".")
}
