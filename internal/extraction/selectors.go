package extraction

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// XPath selectors for the dashboard UI. The report viewer exposes no stable
// ids, so most lookups carry fallbacks tried in order.
const (
	dateRangeSelector     = `//div[contains(@class, 'date') or contains(@aria-label, 'date') or contains(@class, 'date-range')]`
	calendarSelector      = `//div[contains(@class, 'mat-calendar-content')]`
	applyButtonSelector   = `//button[contains(text(), 'Apply') or contains(., 'Apply')]`
	loadingSelector       = `//*[contains(@class, 'loading') or contains(@class, 'spinner') or contains(@class, 'progress')]`
	overlayCloseSelector  = `//button[contains(text(), 'Cancel') or contains(text(), 'Close') or contains(@aria-label, 'Close')]`
	backdropSelector      = `.cdk-overlay-backdrop`
	headerSelector        = `//ng2-component-header[contains(@class, 'simple-table')]`
	headerButtonsSelector = headerSelector + `//button`
	dialogExportSelector  = `//button[contains(text(), 'Export') or contains(., 'Export')]`
)

// tableSelectors locate the table chart, canvas first.
var tableSelectors = []string{
	`//ng2-canvas-component[contains(@class, 'simple-table')]`,
	headerSelector,
}

// exportMenuSelectors locate the "Export data" entry of a chart menu.
var exportMenuSelectors = []string{
	`//*[text()='Export data']`,
	`//*[contains(text(), 'Export')]`,
	`//button[contains(., 'Export')]`,
	`//div[contains(., 'Export data')]`,
	`//*[@aria-label='Export data']`,
}

// keepFormattingSelectors locate the "Keep value formatting" checkbox.
var keepFormattingSelectors = []string{
	`//input[@type='checkbox' and following-sibling::*[contains(text(), 'Keep value formatting')]]`,
	`//mat-checkbox[contains(., 'Keep value formatting')]`,
	`//*[contains(text(), 'Keep value formatting')]`,
}

// startDaySelectors find the calendar cell for day anywhere on the page.
func startDaySelectors(day time.Time) []string {
	var out []string
	for _, label := range dayLabels(day) {
		out = append(out, fmt.Sprintf(`//button[@aria-label=%s]`, xpathLiteral(label)))
	}
	out = append(out, dayNumberSelectors("", day)...)
	return append(out, fmt.Sprintf(`//button[contains(@class, 'mat-calendar') and contains(., '%d')]`, day.Day()))
}

// endDaySelectors find the cell for day inside the right-hand calendar,
// then fall back to the second and finally the first global match of its
// aria-label.
func endDaySelectors(day time.Time) []string {
	right := "(" + calendarSelector + ")[2]"

	var out []string
	for _, label := range dayLabels(day) {
		out = append(out, fmt.Sprintf(`%s//button[@aria-label=%s]`, right, xpathLiteral(label)))
	}
	out = append(out, dayNumberSelectors(right, day)...)
	out = append(out, fmt.Sprintf(`%s//button[contains(., '%d') and not(contains(@class, 'mat-calendar-body-disabled'))]`, right, day.Day()))

	for _, index := range []int{2, 1} {
		for _, label := range dayLabels(day) {
			out = append(out, fmt.Sprintf(`(//button[@aria-label=%s])[%d]`, xpathLiteral(label), index))
		}
	}
	return out
}

func dayNumberSelectors(scope string, day time.Time) []string {
	n := strconv.Itoa(day.Day())
	return []string{
		fmt.Sprintf(`%s//div[contains(@class, 'mat-calendar-body-cell-content') and text()='%s']`, scope, n),
		fmt.Sprintf(`%s//button[contains(@class, 'mat-calendar-body-cell') and .//div[text()='%s']]`, scope, n),
	}
}

// xpathLiteral quotes s for use inside an XPath expression.
func xpathLiteral(s string) string {
	if strings.Contains(s, "'") {
		return `"` + s + `"`
	}
	return "'" + s + "'"
}

// signInMarkers mark a redirect to the account login page.
var signInMarkers = []string{"accounts.google.com", "signin"}
