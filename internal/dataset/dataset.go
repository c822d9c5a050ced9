// Package dataset holds the typed tabular data the resolver works on and the
// loaders that build it from CSV, spreadsheets and database rows.
package dataset

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// DType is the storage type of a column.
type DType string

const (
	DTypeInt      DType = "int"
	DTypeFloat    DType = "float"
	DTypeBool     DType = "bool"
	DTypeDatetime DType = "datetime"
	DTypeString   DType = "string"
)

// Column is a named, single-typed sequence of values. Missing cells are nil.
type Column struct {
	Name   string `json:"name"`
	DType  DType  `json:"dtype"`
	Values []any  `json:"-"`
}

// IsNumeric reports whether the column holds ints or floats.
func (c *Column) IsNumeric() bool {
	return c.DType == DTypeInt || c.DType == DTypeFloat
}

// Distinct counts distinct non-nil values.
func (c *Column) Distinct() int {
	seen := make(map[any]struct{}, len(c.Values))
	for _, v := range c.Values {
		if v == nil {
			continue
		}
		if t, ok := v.(time.Time); ok {
			v = t.UnixNano()
		}
		seen[v] = struct{}{}
	}
	return len(seen)
}

// NonNull counts non-nil values.
func (c *Column) NonNull() int {
	n := 0
	for _, v := range c.Values {
		if v != nil {
			n++
		}
	}
	return n
}

// Dataset is an ordered set of equally long columns.
type Dataset struct {
	Name    string    `json:"name"`
	Columns []*Column `json:"columns"`
}

// NumRows returns the row count.
func (d *Dataset) NumRows() int {
	if len(d.Columns) == 0 {
		return 0
	}
	return len(d.Columns[0].Values)
}

// ColumnNames returns the column names in dataset order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by exact name.
func (d *Dataset) Column(name string) (*Column, bool) {
	for _, c := range d.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Rows returns up to limit rows as maps keyed by column name. A limit <= 0
// returns every row.
func (d *Dataset) Rows(limit int) []map[string]any {
	n := d.NumRows()
	if limit > 0 && limit < n {
		n = limit
	}
	rows := make([]map[string]any, n)
	for i := 0; i < n; i++ {
		row := make(map[string]any, len(d.Columns))
		for _, c := range d.Columns {
			row[c.Name] = c.Values[i]
		}
		rows[i] = row
	}
	return rows
}

// FromRecords builds a dataset from a header and text rows, inferring each
// column's type. Short rows are padded with missing values; extra cells are dropped.
// Header names are made unique, see uniqueHeaders.
func FromRecords(name string, header []string, rows [][]string) *Dataset {
	ds := &Dataset{Name: name, Columns: make([]*Column, len(header))}
	for colIdx, h := range uniqueHeaders(header) {
		raw := make([]string, len(rows))
		for i, row := range rows {
			if colIdx < len(row) {
				raw[i] = strings.TrimSpace(row[colIdx])
			}
		}
		ds.Columns[colIdx] = columnFromStrings(h, raw)
	}
	return ds
}

// uniqueHeaders names blank headers "Unnamed: <index>" and renames repeats of
// a name to name.1, name.2 and so on, skipping names already taken.
func uniqueHeaders(header []string) []string {
	out := make([]string, len(header))
	taken := make(map[string]bool, len(header))
	for _, h := range header {
		taken[h] = true
	}
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		for n := 1; seen[name] || (name != h && taken[name]); n++ {
			name = fmt.Sprintf("%s.%d", h, n)
		}
		seen[name] = true
		out[i] = name
	}
	return out
}

// FromMaps builds a dataset from rows keyed by column name, such as database
// results. Go-typed values keep their type; text values go through inference.
func FromMaps(name string, columns []string, rows []map[string]any) (*Dataset, error) {
	ds := &Dataset{Name: name, Columns: make([]*Column, len(columns))}
	for colIdx, colName := range columns {
		col, err := columnFromValues(colName, rows)
		if err != nil {
			return nil, err
		}
		ds.Columns[colIdx] = col
	}
	return ds, nil
}

func columnFromValues(name string, rows []map[string]any) (*Column, error) {
	var dtype DType
	values := make([]any, len(rows))
	texts := make([]string, len(rows))
	textual := true

	for i, row := range rows {
		v := row[name]
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			texts[i] = strings.TrimSpace(s)
			continue
		}
		textual = false

		var got DType
		switch x := v.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			got = DTypeInt
			values[i] = reflect.ValueOf(x).Convert(reflect.TypeOf(int64(0))).Interface()
		case float32:
			got = DTypeFloat
			values[i] = float64(x)
		case float64:
			got = DTypeFloat
			values[i] = x
		case bool:
			got = DTypeBool
			values[i] = x
		case time.Time:
			got = DTypeDatetime
			values[i] = x
		default:
			return nil, fmt.Errorf("column %q: unsupported value type %T", name, v)
		}

		switch {
		case dtype == "":
			dtype = got
		case dtype == DTypeInt && got == DTypeFloat, dtype == DTypeFloat && got == DTypeInt:
			dtype = DTypeFloat
		case dtype != got:
			return nil, fmt.Errorf("column %q: mixed value types %s and %s", name, dtype, got)
		}
	}

	if textual {
		return columnFromStrings(name, texts), nil
	}
	for _, t := range texts {
		if t != "" {
			return nil, fmt.Errorf("column %q: mixed text and %s values", name, dtype)
		}
	}
	if dtype == DTypeFloat {
		for i, v := range values {
			if n, ok := v.(int64); ok {
				values[i] = float64(n)
			}
		}
	}
	return &Column{Name: name, DType: dtype, Values: values}, nil
}

func columnFromStrings(name string, raw []string) *Column {
	dtype := inferDType(raw)
	values := make([]any, len(raw))
	for i, s := range raw {
		if s == "" {
			continue
		}
		values[i] = convert(dtype, s)
		if f, ok := values[i].(float64); ok && math.IsNaN(f) {
			values[i] = nil
		}
	}
	return &Column{Name: name, DType: dtype, Values: values}
}

// inferDType picks the narrowest type every non-empty value parses as.
func inferDType(raw []string) DType {
	isInt, isFloat, isBool, isDate := true, true, true, true
	seen := false
	for _, val := range raw {
		if val == "" {
			continue
		}
		seen = true
		if isInt {
			if _, err := strconv.ParseInt(val, 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat {
			if _, err := strconv.ParseFloat(val, 64); err != nil {
				isFloat = false
			}
		}
		if isBool {
			if _, ok := parseBool(val); !ok {
				isBool = false
			}
		}
		if isDate {
			if _, ok := parseDate(val); !ok {
				isDate = false
			}
		}
		if !isInt && !isFloat && !isBool && !isDate {
			break
		}
	}

	switch {
	case !seen:
		return DTypeString
	case isInt:
		return DTypeInt
	case isFloat:
		return DTypeFloat
	case isBool:
		return DTypeBool
	case isDate:
		return DTypeDatetime
	}
	return DTypeString
}

func convert(dtype DType, s string) any {
	switch dtype {
	case DTypeInt:
		n, _ := strconv.ParseInt(s, 10, 64)
		return n
	case DTypeFloat:
		f, _ := strconv.ParseFloat(s, 64)
		return f
	case DTypeBool:
		b, _ := parseBool(s)
		return b
	case DTypeDatetime:
		t, _ := parseDate(s)
		return t
	}
	return s
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01/02/2006",
	"02/01/2006",
	"2006/01/02",
	"2006-01",
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
