package parquet

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xtxerr/entralog/internal/frame"
)

// WriteCSV writes a frame to a CSV file with a header row, overwriting any
// existing file at path. Cells for columns a row lacks are empty.
func WriteCSV(path string, f *frame.Frame) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	w := csv.NewWriter(out)
	columns := f.Columns()

	if err := w.Write(columns); err != nil {
		out.Close()
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(columns))
	for i := 0; i < f.NumRows(); i++ {
		for j, col := range columns {
			record[j] = formatCell(f.Value(i, col))
		}
		if err := w.Write(record); err != nil {
			out.Close()
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		out.Close()
		return fmt.Errorf("flush: %w", err)
	}
	return out.Close()
}

// formatCell renders one CSV cell.
func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	default:
		return Format(v)
	}
}
