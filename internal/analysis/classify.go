// Package analysis classifies dataset columns and computes per-column statistics.
package analysis

import (
	"encoding/json"
	"slices"

	"github.com/saadbenchekroun/data-visualizer/internal/dataset"
)

// ColumnType is the semantic label the resolver works with.
type ColumnType string

const (
	Numeric     ColumnType = "numeric"
	Datetime    ColumnType = "datetime"
	Boolean     ColumnType = "boolean"
	Categorical ColumnType = "categorical"
	Text        ColumnType = "text"
)

const (
	// Fewer distinct values than this is always categorical.
	categoricalMaxUnique = 20
	// A distinct-to-rows ratio below this is categorical.
	categoricalMaxRatio = 0.1
)

// Classification maps every dataset column to exactly one ColumnType and
// remembers the dataset's column order.
type Classification struct {
	order []string
	types map[string]ColumnType
}

// Classify labels each column of ds. The first matching rule wins: numeric
// dtype, datetime dtype, boolean dtype, then categorical or text by cardinality.
func Classify(ds *dataset.Dataset) Classification {
	c := Classification{types: make(map[string]ColumnType, len(ds.Columns))}
	rows := ds.NumRows()
	for _, col := range ds.Columns {
		if _, dup := c.types[col.Name]; !dup {
			c.order = append(c.order, col.Name)
		}
		c.types[col.Name] = classifyColumn(col, rows)
	}
	return c
}

func classifyColumn(col *dataset.Column, rows int) ColumnType {
	switch {
	case col.IsNumeric():
		return Numeric
	case col.DType == dataset.DTypeDatetime:
		return Datetime
	case col.DType == dataset.DTypeBool:
		return Boolean
	}

	unique := col.Distinct()
	if unique < categoricalMaxUnique {
		return Categorical
	}
	// rows > 0 here: unique >= 20 implies at least 20 rows.
	if float64(unique)/float64(rows) < categoricalMaxRatio {
		return Categorical
	}
	return Text
}

// Type returns the label of a column.
func (c Classification) Type(name string) (ColumnType, bool) {
	t, ok := c.types[name]
	return t, ok
}

// Columns returns, in dataset order, the columns labelled with any of types.
// With no types it returns every column.
func (c Classification) Columns(types ...ColumnType) []string {
	out := []string{}
	for _, name := range c.order {
		if len(types) == 0 || slices.Contains(types, c.types[name]) {
			out = append(out, name)
		}
	}
	return out
}

// Map returns a copy of the name to type mapping.
func (c Classification) Map() map[string]ColumnType {
	out := make(map[string]ColumnType, len(c.types))
	for k, v := range c.types {
		out[k] = v
	}
	return out
}

func (c Classification) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.types)
}
