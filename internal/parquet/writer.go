package parquet

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/xtxerr/entralog/internal/frame"
)

// columnType is the physical type chosen for a column when writing.
type columnType int

const (
	typeString columnType = iota
	typeInt64
	typeFloat64
	typeBool
)

// WriteFrame writes a frame to a Parquet file with zstd compression,
// overwriting any existing file at path. The schema is built from the
// frame's columns; every column is optional so rows missing a column
// write as null.
func WriteFrame(path string, f *frame.Frame) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	types := inferColumnTypes(f)

	group := parquet.Group{}
	for _, col := range f.Columns() {
		group[col] = parquet.Optional(nodeFor(types[col]))
	}
	schema := parquet.NewSchema("combined_table", group)

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	writer := parquet.NewGenericWriter[map[string]any](out, schema,
		parquet.Compression(&parquet.Zstd))

	rows := make([]map[string]any, 0, f.NumRows())
	for i := 0; i < f.NumRows(); i++ {
		rows = append(rows, normalizeRow(f.Row(i), f.Columns(), types))
	}

	if len(rows) > 0 {
		if _, err := writer.Write(rows); err != nil {
			out.Close()
			return fmt.Errorf("write rows: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		out.Close()
		return fmt.Errorf("close writer: %w", err)
	}
	return out.Close()
}

// inferColumnTypes picks one physical type per column from the values it
// actually holds. Columns whose values disagree fall back to string.
func inferColumnTypes(f *frame.Frame) map[string]columnType {
	types := make(map[string]columnType, f.NumColumns())
	for _, col := range f.Columns() {
		types[col] = inferColumn(f, col)
	}
	return types
}

func inferColumn(f *frame.Frame, col string) columnType {
	seen := false
	current := typeString
	for i := 0; i < f.NumRows(); i++ {
		v := f.Value(i, col)
		if v == nil {
			continue
		}
		t := typeOf(v)
		if !seen {
			current, seen = t, true
			continue
		}
		if t == current {
			continue
		}
		// Ints widen to float; anything else degrades to string.
		if (t == typeInt64 && current == typeFloat64) || (t == typeFloat64 && current == typeInt64) {
			current = typeFloat64
			continue
		}
		return typeString
	}
	return current
}

func typeOf(v any) columnType {
	switch v.(type) {
	case bool:
		return typeBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return typeInt64
	case float32, float64:
		return typeFloat64
	default:
		return typeString
	}
}

// nodeFor returns the schema node for a column type.
func nodeFor(t columnType) parquet.Node {
	switch t {
	case typeInt64:
		return parquet.Int(64)
	case typeFloat64:
		return parquet.Leaf(parquet.DoubleType)
	case typeBool:
		return parquet.Leaf(parquet.BooleanType)
	default:
		return parquet.String()
	}
}

// normalizeRow produces a row whose values match the column's physical
// type. Values of the wrong type are rendered as strings; nested values
// that survived flattening (unsupported depth) are JSON-encoded.
func normalizeRow(row map[string]any, columns []string, types map[string]columnType) map[string]any {
	out := make(map[string]any, len(columns))
	for _, col := range columns {
		v, ok := row[col]
		if !ok || v == nil {
			continue
		}
		out[col] = coerce(v, types[col])
	}
	return out
}

func coerce(v any, t columnType) any {
	switch t {
	case typeInt64:
		switch n := v.(type) {
		case int:
			return int64(n)
		case int8:
			return int64(n)
		case int16:
			return int64(n)
		case int32:
			return int64(n)
		case int64:
			return n
		case uint:
			return int64(n)
		case uint8:
			return int64(n)
		case uint16:
			return int64(n)
		case uint32:
			return int64(n)
		case uint64:
			return int64(n)
		}
	case typeFloat64:
		switch n := v.(type) {
		case float32:
			return float64(n)
		case float64:
			return n
		case int:
			return float64(n)
		case int32:
			return float64(n)
		case int64:
			return float64(n)
		}
	case typeBool:
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return Format(v)
}

// Format renders any value as a string for string-typed columns and CSV
// cells. Maps and slices are JSON-encoded so opaque nested values stay
// inspectable downstream.
func Format(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	default:
		return fmt.Sprint(val)
	}
}
