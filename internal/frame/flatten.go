package frame

import (
	"sort"
)

// ColumnKind classifies a column for the flattening pass.
type ColumnKind int

const (
	// KindScalar covers already-flat values: strings, numbers, booleans,
	// timestamps, byte slices, and nulls.
	KindScalar ColumnKind = iota

	// KindNested marks columns whose values are one level of key-value
	// structure (map[string]any).
	KindNested

	// KindUnsupported marks columns with deeper or non-object nesting
	// (lists, maps inside maps). These are left opaque.
	KindUnsupported
)

// Separator joins parent and child keys when a nested column is flattened.
const Separator = "_"

// InspectColumn decides the kind of a column in a single pass over the
// rows. A column is nested if any value is a map; it degrades to
// unsupported if any of those maps contains a non-scalar value, since only
// one level of nesting is unfolded.
func (f *Frame) InspectColumn(column string) ColumnKind {
	kind := KindScalar
	for _, row := range f.rows {
		v, ok := row[column]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case map[string]any:
			kind = KindNested
			for _, child := range val {
				switch child.(type) {
				case map[string]any, []any:
					return KindUnsupported
				}
			}
		case []any:
			return KindUnsupported
		}
	}
	return kind
}

// FlattenNested expands every nested-object column into flat columns named
// parent_child and removes the original column. Scalar columns are left
// untouched; unsupported-depth columns stay opaque. The kind of each
// column is decided once, before any row is rewritten.
func (f *Frame) FlattenNested() {
	nested := make([]string, 0)
	for _, c := range f.columns {
		if f.InspectColumn(c) == KindNested {
			nested = append(nested, c)
		}
	}

	for _, column := range nested {
		f.flattenColumn(column)
	}
}

// flattenColumn unnests a single column known to be KindNested.
func (f *Frame) flattenColumn(column string) {
	// Collect the union of child keys first so column order is stable
	// regardless of which rows carry which keys.
	childSet := make(map[string]struct{})
	for _, row := range f.rows {
		if m, ok := row[column].(map[string]any); ok {
			for k := range m {
				childSet[k] = struct{}{}
			}
		}
	}

	children := make([]string, 0, len(childSet))
	for k := range childSet {
		children = append(children, k)
	}
	sort.Strings(children)

	for _, row := range f.rows {
		m, ok := row[column].(map[string]any)
		delete(row, column)
		if !ok {
			continue
		}
		for k, v := range m {
			row[column+Separator+k] = v
		}
	}

	f.removeColumn(column)
	for _, k := range children {
		f.AddColumn(column + Separator + k)
	}
}

// removeColumn drops a column name from the ordered set.
func (f *Frame) removeColumn(name string) {
	if _, ok := f.colSet[name]; !ok {
		return
	}
	delete(f.colSet, name)
	for i, c := range f.columns {
		if c == name {
			f.columns = append(f.columns[:i], f.columns[i+1:]...)
			break
		}
	}
}
