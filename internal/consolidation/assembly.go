package consolidation

import (
	"sort"

	apperrors "github.com/woskam/looker-studio-automation/internal/errors"
	"github.com/woskam/looker-studio-automation/pkg/contracts/domain"
)

// Assemble merges batches into the master table. Columns are aligned by
// name over the union of all batch headers in first-seen order; a column
// absent from a batch is Missing in its rows. The merged rows are then
// stable-sorted by period, so rows sharing a period keep batch order and
// file order.
func Assemble(batches []domain.Batch) (*domain.Table, error) {
	if len(batches) == 0 {
		return nil, apperrors.NewAssemblyEmptyError()
	}

	table := &domain.Table{}
	index := make(map[string]int)
	total := 0
	for _, b := range batches {
		for _, col := range b.Columns {
			if _, ok := index[col]; !ok {
				index[col] = len(table.Columns)
				table.Columns = append(table.Columns, col)
			}
		}
		total += b.Len()
	}

	table.Rows = make([]domain.Row, 0, total)
	for _, b := range batches {
		positions := make([]int, len(b.Columns))
		for i, col := range b.Columns {
			positions[i] = index[col]
		}

		for _, record := range b.Records {
			values := make([]domain.Value, len(table.Columns))
			for i := range values {
				values[i] = domain.Missing
			}
			for i, v := range record {
				values[positions[i]] = v
			}
			table.Rows = append(table.Rows, domain.Row{Period: b.Period, Values: values})
		}
	}

	sort.SliceStable(table.Rows, func(i, j int) bool {
		return table.Rows[i].Period.Less(table.Rows[j].Period)
	})

	return table, nil
}
