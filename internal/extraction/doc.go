// Package extraction exports the previous week's table from a Looker Studio
// dashboard with a Chrome session driven through chromedp.
//
// An Extractor opens the report with a persistent user-data directory, sets
// the date picker to the Sunday-to-Saturday week before today, opens the
// table's chart menu and starts "Export data". The browser download is then
// moved into the weekly directory as data_week<WW>_<YYYY>.csv, replacing an
// earlier export of the same week.
//
// CopySession seeds the automation profile with the session files of the
// user's regular Chrome profile so the export runs signed in.
package extraction
