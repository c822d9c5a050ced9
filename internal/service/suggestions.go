package service

import (
	"fmt"

	"github.com/saadbenchekroun/data-visualizer/internal/analysis"
	"github.com/saadbenchekroun/data-visualizer/internal/chart"
	"github.com/saadbenchekroun/data-visualizer/internal/dataset"
)

const (
	minSuggestedBins    = 10
	maxSuggestedBins    = 30
	maxPieCategories    = 8
	maxHeatmapCells     = 100
	suggestedPieHole    = 0.4
	suggestedColorScale = "Viridis"
)

// Suggestion is a ready-made chart proposed from the shape of a dataset.
type Suggestion struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Config      chart.Config `json:"config"`
}

// Suggestions proposes up to seven charts that fit ds, each built from the
// first columns of the types it needs.
func Suggestions(ds *dataset.Dataset) []Suggestion {
	c := analysis.Classify(ds)
	numeric := c.Columns(analysis.Numeric)
	categorical := c.Columns(analysis.Categorical)
	datetime := c.Columns(analysis.Datetime)

	distinct := func(name string) int {
		if col, ok := ds.Column(name); ok {
			return col.Distinct()
		}
		return 0
	}
	nth := func(cols []string, i int) string {
		if len(cols) > i {
			return cols[i]
		}
		return ""
	}

	out := []Suggestion{}
	if len(numeric) == 0 {
		return out
	}
	num := numeric[0]
	cat := nth(categorical, 0)

	if len(datetime) > 0 {
		out = append(out, Suggestion{
			Title:       "Time Series Analysis",
			Description: fmt.Sprintf("Track how %s changes over time", num),
			Config: chart.Config{
				ChartType: chart.LineChart, Title: num + " Over Time",
				X: datetime[0], Y: num, Markers: true,
			},
		})
	}

	if len(numeric) >= 2 {
		out = append(out, Suggestion{
			Title:       "Correlation Analysis",
			Description: fmt.Sprintf("Explore relationship between %s and %s", num, numeric[1]),
			Config: chart.Config{
				ChartType: chart.ScatterPlot, Title: fmt.Sprintf("Correlation: %s vs %s", num, numeric[1]),
				X: num, Y: numeric[1], Color: cat,
			},
		})
	}

	if cat != "" {
		out = append(out, Suggestion{
			Title:       "Category Comparison",
			Description: fmt.Sprintf("Compare %s across different %s categories", num, cat),
			Config: chart.Config{
				ChartType: chart.BarChart, Title: fmt.Sprintf("%s by %s", num, cat),
				X: cat, Y: num, Color: nth(categorical, 1),
			},
		})
	}

	out = append(out, Suggestion{
		Title:       "Distribution Analysis",
		Description: fmt.Sprintf("Examine the distribution of %s values", num),
		Config: chart.Config{
			ChartType: chart.Histogram, Title: "Distribution of " + num,
			X: num, Bins: min(maxSuggestedBins, max(minSuggestedBins, distinct(num)/2)), Color: cat,
		},
	})

	if cat == "" {
		return out
	}

	if distinct(cat) <= maxPieCategories {
		out = append(out, Suggestion{
			Title:       "Proportion Analysis",
			Description: fmt.Sprintf("See the relative proportions of %s by %s", num, cat),
			Config: chart.Config{
				ChartType: chart.PieChart, Title: fmt.Sprintf("Distribution of %s by %s", num, cat),
				Names: cat, Values: num, Hole: chart.Float(suggestedPieHole),
			},
		})
	}

	out = append(out, Suggestion{
		Title:       "Statistical Distribution by Category",
		Description: fmt.Sprintf("Compare statistical distributions of %s across %s categories", num, cat),
		Config: chart.Config{
			ChartType: chart.BoxPlot, Title: fmt.Sprintf("Distribution of %s by %s", num, cat),
			X: cat, Y: num,
		},
	})

	if len(categorical) >= 2 && distinct(cat)*distinct(categorical[1]) <= maxHeatmapCells {
		second := categorical[1]
		out = append(out, Suggestion{
			Title:       "Cross-Category Analysis",
			Description: fmt.Sprintf("Analyze how %s varies across combinations of %s and %s", num, cat, second),
			Config: chart.Config{
				ChartType: chart.Heatmap, Title: fmt.Sprintf("%s by %s and %s", num, cat, second),
				X: cat, Y: second, Values: num, ColorScale: suggestedColorScale,
			},
		})
	}
	return out
}
