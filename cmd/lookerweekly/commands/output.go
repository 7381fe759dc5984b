package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/woskam/looker-studio-automation/internal/consolidation"
	"github.com/woskam/looker-studio-automation/internal/extraction"
	"github.com/woskam/looker-studio-automation/internal/operations"
	"github.com/woskam/looker-studio-automation/pkg/contracts/domain"
)

const timeLayout = "2006-01-02 15:04:05"

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

func periodRange(first, last domain.Period) string {
	if first.IsZero() {
		return "-"
	}
	return fmt.Sprintf("%s .. %s", first, last)
}

// printConsolidation prints the per-file outcomes and, for a successful
// run, where the master went and what it holds.
func printConsolidation(out io.Writer, result *consolidation.Result) {
	if result == nil {
		return
	}

	if len(result.Files) > 0 {
		t := newTable(out)
		t.AppendHeader(table.Row{"File", "Period", "Status", "Rows", "Error"})
		for _, f := range result.Files {
			period := "-"
			if !f.Period.IsZero() {
				period = f.Period.String()
			}
			t.AppendRow(table.Row{f.Name, period, f.Status, f.Rows, f.Error})
		}
		t.Render()
	}

	if !result.Success() {
		return
	}

	t := newTable(out)
	t.AppendRows([]table.Row{
		{"Master", result.MasterPath},
		{"Backup", result.BackupPath},
		{"Rows", result.Rows},
		{"Columns", result.Columns},
		{"Periods", periodRange(result.First, result.Last)},
	})
	t.Render()
}

func printExtraction(out io.Writer, result *extraction.Result) {
	t := newTable(out)
	t.AppendRows([]table.Row{
		{"Period", result.Window.Period.String()},
		{"Window", fmt.Sprintf("%s .. %s", result.Window.Start.Format(time.DateOnly), result.Window.End.Format(time.DateOnly))},
		{"File", result.Path},
		{"Duration", result.Duration.Round(time.Millisecond)},
	})
	t.Render()
}

var stepOrder = []string{operations.StageIDExtraction, operations.StageIDConsolidation}

func printSteps(out io.Writer, resp *operations.OperationResponse) {
	if resp == nil || len(resp.Steps) == 0 {
		return
	}

	t := newTable(out)
	t.AppendHeader(table.Row{"Step", "Status", "Duration", "Message"})
	for _, id := range stepOrder {
		st, ok := resp.Steps[id]
		if !ok {
			continue
		}
		msg := st.Message
		if st.Error != nil {
			msg = st.Error.Error()
		}
		t.AppendRow(table.Row{st.Name, st.Status, st.Duration().Round(time.Millisecond), msg})
	}
	t.Render()
}

func printHistory(out io.Writer, runs []domain.RunRecord) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		return
	}

	t := newTable(out)
	t.AppendHeader(table.Row{"Started", "Status", "Files", "Rows", "Periods", "Duration", "Error"})
	for _, run := range runs {
		t.AppendRow(table.Row{
			run.StartedAt.Local().Format(timeLayout),
			run.Status,
			fmt.Sprintf("%d/%d", run.Loaded(), len(run.Files)),
			run.Rows,
			periodRange(run.First, run.Last),
			run.Duration().Round(time.Millisecond),
			run.Error,
		})
	}
	t.Render()
}

func printSessionCopy(out io.Writer, report *extraction.SessionCopy) {
	if report == nil {
		return
	}

	t := newTable(out)
	t.SetTitle(fmt.Sprintf("%s -> %s", report.Source, report.Destination))
	t.AppendHeader(table.Row{"File", "Result"})
	status := make(map[string]string, len(extraction.SessionFiles))
	for _, name := range report.Copied {
		status[name] = "copied"
	}
	for _, name := range report.Missing {
		status[name] = "not found"
	}
	for name, err := range report.Failed {
		status[name] = "failed: " + err.Error()
	}
	for _, name := range extraction.SessionFiles {
		s, ok := status[name]
		if !ok {
			s = "skipped"
		}
		t.AppendRow(table.Row{name, s})
	}
	t.Render()
}
