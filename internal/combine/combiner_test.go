package combine

import (
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	parquetgo "github.com/parquet-go/parquet-go"

	"github.com/xtxerr/entralog/internal/errors"
	"github.com/xtxerr/entralog/internal/frame"
	"github.com/xtxerr/entralog/internal/parquet"
)

// writeFixture writes a Parquet file with the given rows.
func writeFixture(t *testing.T, path string, rows []map[string]any) {
	t.Helper()
	f := frame.New()
	for _, row := range rows {
		f.Append(row)
	}
	if err := parquet.WriteFrame(path, f); err != nil {
		t.Fatalf("write fixture %s: %v", path, err)
	}
}

// signinFixtures writes the two-file scenario: 20240601 with 3 rows of
// (id, status), 20240815 with 2 rows of (id, status, extra).
func signinFixtures(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	writeFixture(t, filepath.Join(dir, "signinlog_20240601.parquet"), []map[string]any{
		{"id": int64(1), "status": "ok"},
		{"id": int64(2), "status": "ok"},
		{"id": int64(3), "status": "fail"},
	})
	writeFixture(t, filepath.Join(dir, "signinlog_20240815.parquet"), []map[string]any{
		{"id": int64(4), "status": "ok", "extra": "x"},
		{"id": int64(5), "status": "ok", "extra": "y"},
	})

	return dir
}

func TestCombineDateRangeAdmitsOnlyFirstFile(t *testing.T) {
	dir := signinFixtures(t)

	res, err := Combine(Options{
		Roots:     []string{dir},
		StartDate: "20240601",
		EndDate:   "20240630",
	})
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}

	if res.FilesAdmitted != 1 {
		t.Errorf("FilesAdmitted = %d, want 1", res.FilesAdmitted)
	}
	if res.Rows != 3 {
		t.Errorf("Rows = %d, want 3", res.Rows)
	}

	out, err := parquet.ReadFrame(res.ParquetPath)
	if err != nil {
		t.Fatalf("read combined parquet: %v", err)
	}
	cols := out.Columns()
	sort.Strings(cols)
	if !reflect.DeepEqual(cols, []string{"id", "status"}) {
		t.Errorf("columns = %v, want [id status]", cols)
	}
}

func TestCombineAllFilesSumsRows(t *testing.T) {
	dir := signinFixtures(t)

	res, err := Combine(Options{Roots: []string{dir}})
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}

	if res.FilesAdmitted != 2 {
		t.Errorf("FilesAdmitted = %d, want 2", res.FilesAdmitted)
	}
	// Row count invariant: sum of all admitted files' rows.
	if res.Rows != 5 {
		t.Errorf("Rows = %d, want 5", res.Rows)
	}

	out, err := parquet.ReadFrame(res.ParquetPath)
	if err != nil {
		t.Fatalf("read combined parquet: %v", err)
	}
	cols := out.Columns()
	sort.Strings(cols)
	if !reflect.DeepEqual(cols, []string{"extra", "id", "status"}) {
		t.Errorf("columns = %v, want union [extra id status]", cols)
	}

	// Files are combined in lexical order: the 20240601 rows come first
	// and lack "extra".
	if v := out.Value(0, "extra"); v != nil && v != "" {
		t.Errorf("row 0 extra = %v, want null", v)
	}
}

func TestCombineMalformedDateFailsBeforeReading(t *testing.T) {
	// The root does not even exist; a malformed date must fail first.
	_, err := Combine(Options{
		Roots:     []string{"/nonexistent"},
		StartDate: "2024-06-01",
	})
	if !errors.Is(err, errors.ErrInvalidDate) {
		t.Fatalf("got %v, want ErrInvalidDate", err)
	}
}

func TestCombineZeroAdmittedIsHardFailure(t *testing.T) {
	dir := signinFixtures(t)

	_, err := Combine(Options{
		Roots:     []string{dir},
		StartDate: "20250101",
		EndDate:   "20250131",
	})
	if !errors.Is(err, errors.ErrNoFilesAdmitted) {
		t.Fatalf("got %v, want ErrNoFilesAdmitted", err)
	}
}

func TestCombineExcludesTokenlessFiles(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, filepath.Join(dir, "signinlog_20240601.parquet"), []map[string]any{
		{"id": int64(1)},
	})
	writeFixture(t, filepath.Join(dir, "notes.parquet"), []map[string]any{
		{"id": int64(99)},
	})

	res, err := Combine(Options{Roots: []string{dir}})
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if res.FilesAdmitted != 1 || res.Rows != 1 {
		t.Errorf("admitted %d files, %d rows; want 1/1", res.FilesAdmitted, res.Rows)
	}
}

// writeNestedFixture writes a Parquet file whose "properties" column is a
// real nested group, like the Azure log exports.
func writeNestedFixture(t *testing.T, path string) {
	t.Helper()
	schema := parquetgo.NewSchema("export", parquetgo.Group{
		"id": parquetgo.Optional(parquetgo.Int(64)),
		"properties": parquetgo.Group{
			"userPrincipalName": parquetgo.Optional(parquetgo.String()),
			"result":            parquetgo.Optional(parquetgo.String()),
		},
	})

	out, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	w := parquetgo.NewGenericWriter[map[string]any](out, schema)
	_, err = w.Write([]map[string]any{
		{"id": int64(1), "properties": map[string]any{"userPrincipalName": "alice", "result": "success"}},
		{"id": int64(2), "properties": map[string]any{"userPrincipalName": "bob", "result": "failure"}},
	})
	if err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close fixture: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
}

func TestCombineFlattensNestedColumns(t *testing.T) {
	dir := t.TempDir()
	writeNestedFixture(t, filepath.Join(dir, "auditlog_20240601.parquet"))

	res, err := Combine(Options{Roots: []string{dir}})
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}

	out, err := parquet.ReadFrame(res.ParquetPath)
	if err != nil {
		t.Fatalf("read combined parquet: %v", err)
	}

	cols := out.Columns()
	sort.Strings(cols)
	want := []string{"id", "properties_result", "properties_userPrincipalName"}
	if !reflect.DeepEqual(cols, want) {
		t.Fatalf("columns = %v, want %v", cols, want)
	}
	if v := out.Value(0, "properties_userPrincipalName"); v != "alice" {
		t.Errorf("row 0 actor = %v, want alice", v)
	}
}

func TestCombineWalksRecursively(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "20240601")
	writeFixture(t, filepath.Join(nested, "data.parquet"), []map[string]any{
		{"id": int64(1)},
		{"id": int64(2)},
	})

	res, err := Combine(Options{Roots: []string{dir}})
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if res.Rows != 2 {
		t.Errorf("Rows = %d, want 2", res.Rows)
	}
}

func TestCombineOverwritesPreviousOutputs(t *testing.T) {
	dir := signinFixtures(t)

	if _, err := Combine(Options{Roots: []string{dir}}); err != nil {
		t.Fatalf("first Combine: %v", err)
	}

	// Second run must not re-admit the previous combined output.
	res, err := Combine(Options{Roots: []string{dir}})
	if err != nil {
		t.Fatalf("second Combine: %v", err)
	}
	if res.FilesAdmitted != 2 || res.Rows != 5 {
		t.Errorf("second run: %d files, %d rows; want 2/5", res.FilesAdmitted, res.Rows)
	}

	if _, err := os.Stat(res.CSVPath); err != nil {
		t.Errorf("csv output: %v", err)
	}
}
