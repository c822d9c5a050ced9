package nlp

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/saadbenchekroun/data-visualizer/internal/chart"
	"github.com/saadbenchekroun/data-visualizer/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func revenueDataset() *dataset.Dataset {
	return dataset.FromRecords("revenue", []string{"Date", "Region", "Revenue"}, [][]string{
		{"2024-01-01", "North", "120"},
		{"2024-01-02", "South", "80"},
		{"2024-01-03", "East", "95"},
		{"2024-01-04", "West", "110"},
		{"2024-01-05", "North", "130"},
		{"2024-01-06", "South", "70"},
		{"2024-01-07", "East", "90"},
		{"2024-01-08", "West", "105"},
	})
}

func salesDataset() *dataset.Dataset {
	return dataset.FromRecords("sales", []string{"Region", "Product", "Sales", "Profit"}, [][]string{
		{"North", "Widget", "100", "20"},
		{"South", "Gadget", "150", "35"},
		{"North", "Gadget", "90", "15"},
		{"East", "Widget", "120", "25"},
		{"South", "Widget", "80", "10"},
		{"East", "Gadget", "60", "5"},
	})
}

func TestResolveRevenueTrend(t *testing.T) {
	res, err := Resolve("revenue trend over time", revenueDataset())
	require.NoError(t, err)

	require.Equal(t, chart.Config{
		ChartType:   chart.LineChart,
		Title:       "Revenue trend over time",
		X:           "Date",
		Y:           "Revenue",
		Color:       "Region",
		Markers:     true,
		Aggregation: chart.Sum,
	}, res.Config)
	require.Equal(t, chart.LineChart, res.Requested)
	require.Nil(t, res.Degraded)
	require.Equal(t, []string{"Revenue"}, res.Referenced)
	require.Equal(t, 1, res.Match.Score)
	require.Empty(t, res.Hints)

	b, err := json.Marshal(res.Config)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"chart_type": "line_chart",
		"title": "Revenue trend over time",
		"x": "Date",
		"y": "Revenue",
		"color": "Region",
		"markers": true,
		"aggregation": "sum"
	}`, string(b))
}

func TestResolveConfigurators(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		ds       *dataset.Dataset
		expected chart.Config
	}{
		{
			name:  "bar from two references colors by other category",
			query: "bar chart of sales by product",
			ds:    salesDataset(),
			expected: chart.Config{
				ChartType: chart.BarChart, Title: "Bar chart of sales by product",
				X: "Product", Y: "Sales", Color: "Region",
				Orientation: "Vertical", Aggregation: chart.Sum,
			},
		},
		{
			name:  "bar does not color by its own axis",
			query: "average sales by region",
			ds:    salesDataset(),
			expected: chart.Config{
				ChartType: chart.BarChart, Title: "Average sales by region",
				X: "Region", Y: "Sales",
				Orientation: "Vertical", Aggregation: chart.Average,
			},
		},
		{
			name:  "bar keeps a single referenced measure on y",
			query: "bar chart of profit",
			ds:    salesDataset(),
			expected: chart.Config{
				ChartType: chart.BarChart, Title: "Bar chart of profit",
				X: "Region", Y: "Profit",
				Orientation: "Vertical", Aggregation: chart.Sum,
			},
		},
		{
			name:  "bar puts a measure on y when only categories are referenced",
			query: "bar chart counting region and product",
			ds:    salesDataset(),
			expected: chart.Config{
				ChartType: chart.BarChart, Title: "Bar chart counting region and product",
				X: "Region", Y: "Sales",
				Orientation: "Vertical", Aggregation: chart.Count,
			},
		},
		{
			name:  "bar uses a referenced date when no category is referenced",
			query: "bar chart of revenue by date",
			ds:    revenueDataset(),
			expected: chart.Config{
				ChartType: chart.BarChart, Title: "Bar chart of revenue by date",
				X: "Date", Y: "Revenue",
				Orientation: "Vertical", Aggregation: chart.Sum,
			},
		},
		{
			name:  "line without dates uses two numeric columns",
			query: "line chart of sales and profit",
			ds:    salesDataset(),
			expected: chart.Config{
				ChartType: chart.LineChart, Title: "Line chart of sales and profit",
				X: "Sales", Y: "Profit", Color: "Region",
				Markers: true, Aggregation: chart.Sum,
			},
		},
		{
			name:  "pie",
			query: "pie chart of profit by product",
			ds:    salesDataset(),
			expected: chart.Config{
				ChartType: chart.PieChart, Title: "Pie chart of profit by product",
				Names: "Product", Values: "Profit", Hole: chart.Float(0),
				Aggregation: chart.Sum,
			},
		},
		{
			name:  "histogram",
			query: "histogram of sales",
			ds:    salesDataset(),
			expected: chart.Config{
				ChartType: chart.Histogram, Title: "Histogram of sales",
				X: "Sales", Bins: 20,
			},
		},
		{
			name:  "box plot grouped by category",
			query: "box plot of profit by region",
			ds:    salesDataset(),
			expected: chart.Config{
				ChartType: chart.BoxPlot, Title: "Box plot of profit by region",
				X: "Region", Y: "Profit",
			},
		},
		{
			name:  "box plot without category",
			query: "box plot",
			ds: dataset.FromRecords("body", []string{"Height", "Weight"}, [][]string{
				{"170", "65"}, {"182", "80"},
			}),
			expected: chart.Config{
				ChartType: chart.BoxPlot, Title: "Box plot",
				X: chart.NoColumn, Y: "Height",
			},
		},
		{
			name:  "heatmap",
			query: "heatmap of sales by product and region",
			ds:    salesDataset(),
			expected: chart.Config{
				ChartType: chart.Heatmap, Title: "Heatmap of sales by product and region",
				X: "Region", Y: "Product", Values: "Sales", ColorScale: "Viridis",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Resolve(tt.query, tt.ds)
			require.NoError(t, err)
			require.Nil(t, res.Degraded)
			require.Equal(t, tt.expected, res.Config)
			require.NoError(t, res.Config.Validate(tt.ds.ColumnNames()))
		})
	}
}

func TestResolveScatterUsesReferencedColumns(t *testing.T) {
	ds := dataset.FromRecords("costs", []string{"Region", "Price", "Quantity", "Cost"}, [][]string{
		{"North", "10.5", "3", "7.25"},
		{"South", "12", "5", "8"},
		{"East", "9.75", "2", "6.5"},
	})

	res, err := Resolve("scatter of cost against price", ds)
	require.NoError(t, err)
	assert.Equal(t, chart.ScatterPlot, res.Config.ChartType)
	assert.Equal(t, []string{"Price", "Cost"}, res.Referenced)
	assert.Equal(t, "Price", res.Config.X)
	assert.Equal(t, "Cost", res.Config.Y)
	assert.Equal(t, "Quantity", res.Config.Color)
}

func TestResolveScatterDegradesToBar(t *testing.T) {
	ds := dataset.FromRecords("sales", []string{"Region", "Product", "Sales"}, [][]string{
		{"North", "Widget", "100"},
		{"South", "Gadget", "150"},
	})

	res, err := Resolve("scatter plot of sales", ds)
	require.NoError(t, err)
	require.Equal(t, chart.ScatterPlot, res.Requested)
	require.Equal(t, &Degradation{
		Requested: chart.ScatterPlot,
		Actual:    chart.BarChart,
		Reason:    "scatter plot needs at least two numeric columns",
	}, res.Degraded)
	require.Equal(t, chart.Config{
		ChartType: chart.BarChart, Title: "Scatter plot of sales",
		X: "Region", Y: "Sales",
		Orientation: "Vertical", Aggregation: chart.Sum,
	}, res.Config)
}

func TestResolveDegradesConsistently(t *testing.T) {
	ds := dataset.FromRecords("labels", []string{"Region", "Product"}, [][]string{
		{"North", "Widget"},
		{"South", "Gadget"},
	})

	for _, typ := range []chart.Type{chart.ScatterPlot, chart.PieChart, chart.Histogram, chart.BoxPlot, chart.Heatmap} {
		t.Run(string(typ), func(t *testing.T) {
			res, err := ResolveAs(typ, "overview", ds)
			require.NoError(t, err)
			require.NotNil(t, res.Degraded)
			require.Equal(t, typ, res.Degraded.Requested)
			require.Equal(t, chart.BarChart, res.Degraded.Actual)
			require.NotEmpty(t, res.Degraded.Reason)
			require.Equal(t, chart.BarChart, res.Config.ChartType)
			require.Equal(t, "Region", res.Config.X)
			require.Equal(t, "Product", res.Config.Y)
			require.Empty(t, res.Config.Color)
		})
	}
}

func TestResolveAs(t *testing.T) {
	res, err := ResolveAs(chart.PieChart, "revenue by region", revenueDataset())
	require.NoError(t, err)
	require.Equal(t, chart.PieChart, res.Requested)
	require.Equal(t, chart.BarChart, res.Match.ChartType)
	require.True(t, res.Match.Defaulted)
	require.Equal(t, "Region", res.Config.Names)
	require.Equal(t, "Revenue", res.Config.Values)

	b, err := json.Marshal(res.Config)
	require.NoError(t, err)
	require.Contains(t, string(b), `"hole":0`)

	_, err = ResolveAs(chart.Type("radar"), "revenue", revenueDataset())
	require.Error(t, err)
}

func TestResolveInsufficientColumns(t *testing.T) {
	ds := dataset.FromRecords("names", []string{"Name"}, [][]string{{"a"}, {"b"}})

	_, err := Resolve("bar chart of names", ds)
	require.ErrorIs(t, err, ErrInsufficientColumns)
	var insufficient *InsufficientColumnsError
	require.True(t, errors.As(err, &insufficient))
	require.Equal(t, chart.BarChart, insufficient.ChartType)
	require.Equal(t, 1, insufficient.Have)

	_, err = Resolve("anything", &dataset.Dataset{})
	require.ErrorIs(t, err, ErrInsufficientColumns)

	scores := dataset.FromRecords("scores", []string{"Score"}, [][]string{{"1"}, {"2"}})
	res, err := Resolve("histogram of score", scores)
	require.NoError(t, err)
	require.Equal(t, "Score", res.Config.X)
}

func TestCapitalize(t *testing.T) {
	require.Equal(t, "", capitalize(""))
	require.Equal(t, "Revenue by region", capitalize("  revenue BY region "))
	require.Equal(t, "Élan", capitalize("élan"))
}
