// Package parquet reads and writes Parquet files with schemas that are not
// known at compile time. Rows travel as map[string]any so log exports with
// arbitrary and evolving column sets can be combined.
package parquet

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/xtxerr/entralog/internal/frame"
)

// readBatchSize is the number of rows decoded per Read call.
const readBatchSize = 1024

// ReadFrame reads an entire Parquet file into a Frame, preserving the
// file's column order and row order. Nested groups are reconstructed as
// map[string]any values.
func ReadFrame(path string) (*frame.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet %s: %w", path, err)
	}

	schema := pf.Schema()
	out := frame.New()
	for _, field := range schema.Fields() {
		out.AddColumn(field.Name())
	}

	for _, rg := range pf.RowGroups() {
		if err := readRowGroup(schema, rg, out); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	return out, nil
}

// readRowGroup decodes one row group into the frame.
func readRowGroup(schema *parquet.Schema, rg parquet.RowGroup, out *frame.Frame) error {
	rows := rg.Rows()
	defer rows.Close()

	buf := make([]parquet.Row, readBatchSize)
	for {
		n, err := rows.ReadRows(buf)
		for i := 0; i < n; i++ {
			row := make(map[string]any)
			if rerr := schema.Reconstruct(&row, buf[i]); rerr != nil {
				return fmt.Errorf("reconstruct row: %w", rerr)
			}
			out.Append(row)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read rows: %w", err)
		}
	}
}

// NumRows returns the row count of a Parquet file without decoding it.
func NumRows(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat file: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return 0, fmt.Errorf("open parquet %s: %w", path, err)
	}
	return pf.NumRows(), nil
}
