package product

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/disdro-l0/internal/domain"
	"github.com/couchcryptid/disdro-l0/internal/standards"
)

// WriteTabular writes the frame as CSV with a header row. Column order is
// the frame order; missing values are empty cells.
func (s *Store) WriteTabular(path string, f *standards.Frame, force bool) error {
	return s.writeAtomic(path, force, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		header := make([]string, len(f.Columns))
		for i, c := range f.Columns {
			header[i] = c.Name
		}
		if err := cw.Write(header); err != nil {
			return err
		}
		record := make([]string, len(f.Columns))
		for r := range f.Len() {
			for i, c := range f.Columns {
				record[i] = FormatValue(c.Values[r])
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

// FormatValue renders a frame value canonically. The output re-coerces to
// the same value.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case string:
		return x
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case time.Duration:
		return standards.FormatClock(x)
	case []float64:
		parts := make([]string, len(x))
		for i, f := range x {
			parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(x)
	}
}

// ReadTabular reads a tabular product back as raw string rows.
func (s *Store) ReadTabular(path string) (*domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read tabular product %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read tabular product %s: missing header", path)
	}
	tbl := domain.NewTable(records[0]...)
	tbl.Rows = records[1:]
	return tbl, nil
}
