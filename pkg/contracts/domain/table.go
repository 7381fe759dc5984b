package domain

const (
	// YearColumn and WeekColumn are injected ahead of every source column.
	YearColumn = "Year"
	WeekColumn = "Week"
)

// Value is one cell of a period record. Source values are opaque text; a
// Value is either present (possibly the empty string) or Missing, which marks
// a column that the row's source file did not have.
type Value struct {
	text    string
	present bool
}

// Missing is the marker for a column absent from a row's source file.
var Missing = Value{}

// Text wraps a value read from a period file.
func Text(s string) Value {
	return Value{text: s, present: true}
}

// IsMissing reports whether v is the Missing marker.
func (v Value) IsMissing() bool {
	return !v.present
}

// String returns the raw text, or "" for Missing.
func (v Value) String() string {
	return v.text
}

// Batch is every record loaded from one period file, in file order.
type Batch struct {
	Source  string   // file name the batch came from
	Period  Period   // parsed once from Source
	Columns []string // header of the source file
	Records [][]Value
}

// Len returns the number of records in the batch.
func (b Batch) Len() int {
	return len(b.Records)
}

// Row is a tagged record: a Period plus one value per table column.
type Row struct {
	Period Period
	Values []Value
}

// Table is the master table. Columns holds the union of source columns in
// first-seen order; Year and Week are implied leading columns and are
// derived from each row's Period.
type Table struct {
	Columns []string
	Rows    []Row
}

// Header returns the full column list, Year and Week first.
func (t *Table) Header() []string {
	header := make([]string, 0, len(t.Columns)+2)
	header = append(header, YearColumn, WeekColumn)
	return append(header, t.Columns...)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Span returns the first and last period of a sorted table.
// ok is false for an empty table.
func (t *Table) Span() (first, last Period, ok bool) {
	if len(t.Rows) == 0 {
		return Period{}, Period{}, false
	}
	return t.Rows[0].Period, t.Rows[len(t.Rows)-1].Period, true
}

// Periods returns the distinct periods of a sorted table, in order.
func (t *Table) Periods() []Period {
	var out []Period
	for _, r := range t.Rows {
		if len(out) == 0 || out[len(out)-1] != r.Period {
			out = append(out, r.Period)
		}
	}
	return out
}
