// Package combine discovers per-day Parquet log exports, filters them by
// the date token in their names, flattens one level of nested columns, and
// writes a combined CSV + Parquet table per root directory.
package combine

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/xtxerr/entralog/internal/datetoken"
	"github.com/xtxerr/entralog/internal/errors"
	"github.com/xtxerr/entralog/internal/frame"
	"github.com/xtxerr/entralog/internal/logging"
	"github.com/xtxerr/entralog/internal/parquet"
)

// Fixed output names, overwritten on every run.
const (
	CSVName     = "combined_table.csv"
	ParquetName = "combined_table.parquet"
)

// Options configures a combine run.
type Options struct {
	// Roots are the directories to search recursively for Parquet files.
	Roots []string

	// StartDate and EndDate optionally bound admission by date token,
	// inclusive, as YYYYMMDD strings. Empty means open.
	StartDate string
	EndDate   string

	// OutDir receives the combined outputs. Empty means the first root.
	OutDir string
}

// Result reports what a combine run produced.
type Result struct {
	FilesAdmitted int
	Rows          int
	Columns       int
	CSVPath       string
	ParquetPath   string
}

// Combine runs the full pipeline: discover, admit, read, flatten, concat,
// write. Zero admitted files is a hard failure (ErrNoFilesAdmitted) so a
// previous good output is never silently replaced by an empty one.
func Combine(opts Options) (*Result, error) {
	log := logging.Component("combine")

	// Malformed dates fail the run before any file is read.
	rng, err := datetoken.NewRange(opts.StartDate, opts.EndDate)
	if err != nil {
		return nil, err
	}

	files, err := findParquetFiles(log, opts.Roots, rng)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.Wrapf(errors.ErrNoFilesAdmitted, "roots %v, start %q, end %q",
			opts.Roots, opts.StartDate, opts.EndDate)
	}
	log.Info("files admitted", "count", len(files))

	combined := frame.New()
	for _, path := range files {
		f, err := parquet.ReadFrame(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		f.FlattenNested()
		combined.Concat(f)
		log.Debug("file combined", "path", path, "rows", f.NumRows())
	}

	outDir := opts.OutDir
	if outDir == "" {
		outDir = opts.Roots[0]
	}

	res := &Result{
		FilesAdmitted: len(files),
		Rows:          combined.NumRows(),
		Columns:       combined.NumColumns(),
		CSVPath:       filepath.Join(outDir, CSVName),
		ParquetPath:   filepath.Join(outDir, ParquetName),
	}

	if err := parquet.WriteCSV(res.CSVPath, combined); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	if err := parquet.WriteFrame(res.ParquetPath, combined); err != nil {
		return nil, fmt.Errorf("write parquet: %w", err)
	}

	log.Info("combined table written", "rows", res.Rows, "columns", res.Columns,
		"csv", res.CSVPath, "parquet", res.ParquetPath)
	return res, nil
}

// findParquetFiles walks each root recursively and returns the admitted
// Parquet files in lexical walk order, which fixes the row order of the
// combined output. Files without a valid date token are excluded. Previous
// combined outputs are never re-admitted as inputs.
func findParquetFiles(log *slog.Logger, roots []string, rng datetoken.Range) ([]string, error) {
	var files []string

	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), ".parquet") {
				return nil
			}
			if d.Name() == ParquetName {
				return nil
			}

			// Tokens are parsed from the root-relative path so digits in
			// parent directories never count.
			rel, rerr := filepath.Rel(root, path)
			if rerr != nil {
				rel = d.Name()
			}

			token := datetoken.FromName(filepath.ToSlash(rel))
			if token == "" {
				log.Debug("no date token, excluded", "path", path)
				return nil
			}
			if !rng.AdmitsToken(token) {
				log.Debug("outside date range, excluded", "path", path, "token", token)
				return nil
			}

			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}

	return files, nil
}
