// Package chart defines the chart configuration handed to the rendering layer.
package chart

import (
	"fmt"
	"slices"
)

// Type identifies one of the supported visualization kinds.
type Type string

const (
	BarChart    Type = "bar_chart"
	LineChart   Type = "line_chart"
	ScatterPlot Type = "scatter_plot"
	PieChart    Type = "pie_chart"
	Histogram   Type = "histogram"
	BoxPlot     Type = "box_plot"
	Heatmap     Type = "heatmap"
)

// Types lists every supported chart type in declaration order.
func Types() []Type {
	return []Type{BarChart, LineChart, ScatterPlot, PieChart, Histogram, BoxPlot, Heatmap}
}

// Valid reports whether t is a supported chart type.
func (t Type) Valid() bool {
	return slices.Contains(Types(), t)
}

// ParseType converts a tag such as "pie_chart" into a Type.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown chart type %q", s)
	}
	return t, nil
}

// Aggregation identifies how grouped values are combined.
type Aggregation string

const (
	Sum     Aggregation = "sum"
	Average Aggregation = "average"
	Count   Aggregation = "count"
	Min     Aggregation = "min"
	Max     Aggregation = "max"
	Median  Aggregation = "median"
)

// NoColumn is the sentinel used for an absent grouping column (box plots).
const NoColumn = "None"

// Config is a chart configuration. It encodes to the flat role mapping the
// renderer consumes: role names map to column names or literal parameters.
type Config struct {
	ChartType   Type        `json:"chart_type" yaml:"chart_type"`
	Title       string      `json:"title,omitempty" yaml:"title,omitempty"`
	X           string      `json:"x,omitempty" yaml:"x,omitempty"`
	Y           string      `json:"y,omitempty" yaml:"y,omitempty"`
	Color       string      `json:"color,omitempty" yaml:"color,omitempty"`
	Size        string      `json:"size,omitempty" yaml:"size,omitempty"`
	Names       string      `json:"names,omitempty" yaml:"names,omitempty"`
	Values      string      `json:"values,omitempty" yaml:"values,omitempty"`
	Bins        int         `json:"bins,omitempty" yaml:"bins,omitempty"`
	Orientation string      `json:"orientation,omitempty" yaml:"orientation,omitempty"`
	Hole        *float64    `json:"hole,omitempty" yaml:"hole,omitempty"`
	Markers     bool        `json:"markers,omitempty" yaml:"markers,omitempty"`
	ColorScale  string      `json:"color_scale,omitempty" yaml:"color_scale,omitempty"`
	Aggregation Aggregation `json:"aggregation,omitempty" yaml:"aggregation,omitempty"`
}

// Role names of column-valued entries.
const (
	RoleX      = "x"
	RoleY      = "y"
	RoleColor  = "color"
	RoleSize   = "size"
	RoleNames  = "names"
	RoleValues = "values"
)

// ColumnRoles returns the column-valued roles that are set, keyed by role name.
// The NoColumn sentinel is not a column and is left out.
func (c Config) ColumnRoles() map[string]string {
	roles := make(map[string]string)
	for role, col := range map[string]string{
		RoleX:      c.X,
		RoleY:      c.Y,
		RoleColor:  c.Color,
		RoleSize:   c.Size,
		RoleNames:  c.Names,
		RoleValues: c.Values,
	} {
		if col != "" && col != NoColumn {
			roles[role] = col
		}
	}
	return roles
}

// MapColumns returns a copy of c with every column-valued role passed through fn.
func (c Config) MapColumns(fn func(string) string) Config {
	out := c
	for _, p := range []*string{&out.X, &out.Y, &out.Color, &out.Size, &out.Names, &out.Values} {
		if *p != "" && *p != NoColumn {
			*p = fn(*p)
		}
	}
	if c.Hole != nil {
		h := *c.Hole
		out.Hole = &h
	}
	return out
}

// Validate checks that every column-valued role names one of columns.
func (c Config) Validate(columns []string) error {
	if !c.ChartType.Valid() {
		return fmt.Errorf("unknown chart type %q", c.ChartType)
	}
	roles := c.ColumnRoles()
	for _, role := range []string{RoleX, RoleY, RoleColor, RoleSize, RoleNames, RoleValues} {
		col, ok := roles[role]
		if ok && !slices.Contains(columns, col) {
			return fmt.Errorf("%s references unknown column %q", role, col)
		}
	}
	return nil
}

// Float returns a pointer to v, for literal parameters such as Hole.
func Float(v float64) *float64 {
	return &v
}
