package consolidation

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"unicode/utf8"

	apperrors "github.com/woskam/looker-studio-automation/internal/errors"
	"github.com/woskam/looker-studio-automation/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadBatch reads every record of the period file at path. The first row is
// the header. Records shorter than the header are padded with empty values;
// longer records, invalid UTF-8 and a missing header are load errors.
func LoadBatch(path, name string, period domain.Period) (domain.Batch, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Batch{}, apperrors.NewLoadError(path, err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if !utf8.Valid(raw) {
		return domain.Batch{}, apperrors.NewLoadError(path, fmt.Errorf("file is not valid UTF-8"))
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return domain.Batch{}, apperrors.NewLoadError(path, fmt.Errorf("file has no header row"))
	}
	if err != nil {
		return domain.Batch{}, apperrors.NewLoadError(path, err)
	}

	columns, err := normalizeHeader(header)
	if err != nil {
		return domain.Batch{}, apperrors.NewLoadError(path, err)
	}

	batch := domain.Batch{
		Source:  name,
		Period:  period,
		Columns: columns,
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return domain.Batch{}, apperrors.NewLoadError(path, err)
		}
		if len(record) > len(columns) {
			line, _ := reader.FieldPos(0)
			return domain.Batch{}, apperrors.NewLoadError(path,
				fmt.Errorf("record on line %d has %d fields, header has %d", line, len(record), len(columns)))
		}

		values := make([]domain.Value, len(columns))
		for i := range values {
			if i < len(record) {
				values[i] = domain.Text(record[i])
			} else {
				values[i] = domain.Text("")
			}
		}
		batch.Records = append(batch.Records, values)
	}

	return batch, nil
}

// normalizeHeader names blank columns "Unnamed: <index>" and suffixes
// repeated names with ".1", ".2" and so on. Year and Week are reserved.
func normalizeHeader(header []string) ([]string, error) {
	columns := make([]string, len(header))
	seen := make(map[string]int, len(header))

	for i, name := range header {
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if name == domain.YearColumn || name == domain.WeekColumn {
			return nil, fmt.Errorf("column %q is reserved", name)
		}

		if n, dup := seen[name]; dup {
			candidate := name
			for {
				n++
				candidate = name + "." + strconv.Itoa(n)
				if _, taken := seen[candidate]; !taken {
					break
				}
			}
			seen[name] = n
			name = candidate
		}
		seen[name] = 0
		columns[i] = name
	}

	return columns, nil
}
