package nlp

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/saadbenchekroun/data-visualizer/internal/analysis"
	"github.com/saadbenchekroun/data-visualizer/internal/chart"
	"github.com/saadbenchekroun/data-visualizer/internal/dataset"
)

// Result is a resolved chart configuration together with how it was reached.
type Result struct {
	Config chart.Config `json:"config"`
	// Requested is the chart type asked for, before any degradation.
	Requested   chart.Type        `json:"requested"`
	Degraded    *Degradation      `json:"degraded,omitempty"`
	Aggregation chart.Aggregation `json:"aggregation"`
	Referenced  []string          `json:"referenced"`
	Match       ChartTypeMatch    `json:"match"`
	Hints       []Hint            `json:"hints,omitempty"`
}

// Resolve picks a chart type from query and binds it to the columns of ds.
// It fails only when a fallback needs two columns and ds has fewer.
func Resolve(query string, ds *dataset.Dataset) (*Result, error) {
	m := MatchChartType(query)
	return resolve(m.ChartType, m, query, ds)
}

// ResolveAs is Resolve with the chart type chosen by the caller.
func ResolveAs(chartType chart.Type, query string, ds *dataset.Dataset) (*Result, error) {
	if !chartType.Valid() {
		return nil, fmt.Errorf("unknown chart type %q", chartType)
	}
	return resolve(chartType, MatchChartType(query), query, ds)
}

func resolve(chartType chart.Type, m ChartTypeMatch, query string, ds *dataset.Dataset) (*Result, error) {
	q := strings.ToLower(query)
	columns := ds.ColumnNames()
	c := analysis.Classify(ds)

	r := request{
		columns:     columns,
		numeric:     c.Columns(analysis.Numeric),
		categorical: c.Columns(analysis.Categorical, analysis.Boolean),
		datetime:    c.Columns(analysis.Datetime),
		referenced:  FindReferencedColumns(q, columns),
		aggregation: FindAggregation(q),
	}

	cfg := chart.Config{ChartType: chartType, Title: capitalize(q)}
	degraded, err := configurators[chartType](r, &cfg)
	if err != nil {
		return nil, err
	}

	return &Result{
		Config:      cfg,
		Requested:   chartType,
		Degraded:    degraded,
		Aggregation: r.aggregation,
		Referenced:  r.referenced,
		Match:       m,
		Hints:       FindHints(q, columns, r.referenced),
	}, nil
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	first, size := utf8.DecodeRuneInString(s)
	if first == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(first)) + s[size:]
}
