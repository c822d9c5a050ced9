package nlp

import (
	"slices"

	"github.com/saadbenchekroun/data-visualizer/internal/chart"
)

const (
	histogramBins      = 20
	defaultOrientation = "Vertical"
	heatmapColorScale  = "Viridis"
)

// request is what every configurator sees: the dataset's columns partitioned
// by type, the referenced columns and the aggregation.
type request struct {
	columns     []string
	numeric     []string
	categorical []string
	datetime    []string
	referenced  []string
	aggregation chart.Aggregation
}

// refsIn returns the referenced columns that belong to set, in reference order.
func (r request) refsIn(set []string) []string {
	out := []string{}
	for _, col := range r.referenced {
		if slices.Contains(set, col) {
			out = append(out, col)
		}
	}
	return out
}

// preferred returns up to n distinct columns of set, referenced ones first.
func (r request) preferred(set []string, n int) []string {
	out := []string{}
	for _, col := range append(r.refsIn(set), set...) {
		if len(out) == n {
			break
		}
		if !slices.Contains(out, col) {
			out = append(out, col)
		}
	}
	return out
}

func (r request) first(set []string) string {
	if p := r.preferred(set, 1); len(p) == 1 {
		return p[0]
	}
	return ""
}

// Degradation records that the requested chart type could not be built from
// the dataset and a bar chart was produced instead.
type Degradation struct {
	Requested chart.Type `json:"requested"`
	Actual    chart.Type `json:"actual"`
	Reason    string     `json:"reason"`
}

type configurator func(r request, cfg *chart.Config) (*Degradation, error)

var configurators = map[chart.Type]configurator{
	chart.BarChart:    configureBar,
	chart.LineChart:   configureLine,
	chart.ScatterPlot: configureScatter,
	chart.PieChart:    configurePie,
	chart.Histogram:   configureHistogram,
	chart.BoxPlot:     configureBox,
	chart.Heatmap:     configureHeatmap,
}

// degrade rewrites cfg as a bar chart chosen by the bar rules.
func degrade(r request, cfg *chart.Config, reason string) (*Degradation, error) {
	d := &Degradation{Requested: cfg.ChartType, Actual: chart.BarChart, Reason: reason}
	*cfg = chart.Config{ChartType: chart.BarChart, Title: cfg.Title}
	if _, err := configureBar(r, cfg); err != nil {
		return nil, err
	}
	return d, nil
}

// firstTwoColumns binds x and y to the dataset's first two columns whatever their type.
func firstTwoColumns(r request, cfg *chart.Config) error {
	if len(r.columns) < 2 {
		return &InsufficientColumnsError{ChartType: cfg.ChartType, Have: len(r.columns)}
	}
	cfg.X, cfg.Y = r.columns[0], r.columns[1]
	return nil
}

// firstOf returns the first column of the first non-empty set.
func firstOf(sets ...[]string) string {
	for _, set := range sets {
		if len(set) > 0 {
			return set[0]
		}
	}
	return ""
}

// configureBar puts a category (or date) on x and a measure on y, referenced
// columns first. Without a category/measure pair it falls back to two
// measures, then to two referenced columns, then to the first two columns.
func configureBar(r request, cfg *chart.Config) (*Degradation, error) {
	x := firstOf(r.refsIn(r.categorical), r.refsIn(r.datetime), r.categorical, r.datetime)
	y := r.first(r.numeric)
	switch {
	case x != "" && y != "":
		cfg.X, cfg.Y = x, y
	case len(r.numeric) >= 2:
		p := r.preferred(r.numeric, 2)
		cfg.X, cfg.Y = p[0], p[1]
	case len(r.referenced) >= 2:
		cfg.X, cfg.Y = r.referenced[0], r.referenced[1]
	default:
		if err := firstTwoColumns(r, cfg); err != nil {
			return nil, err
		}
	}

	// Color by the first category when there are several and it is not on the axis.
	if len(r.categorical) > 1 && r.categorical[0] != cfg.X {
		cfg.Color = r.categorical[0]
	}
	cfg.Orientation = defaultOrientation
	cfg.Aggregation = r.aggregation
	return nil, nil
}

func configureLine(r request, cfg *chart.Config) (*Degradation, error) {
	switch {
	case len(r.datetime) > 0:
		cfg.X = r.first(r.datetime)
		switch {
		case len(r.numeric) > 0:
			cfg.Y = r.first(r.numeric)
		case len(r.referenced) > 0:
			cfg.Y = r.referenced[0]
		default:
			cfg.Y = r.columns[0]
		}
	case len(r.numeric) >= 2:
		xy := r.preferred(r.numeric, 2)
		cfg.X, cfg.Y = xy[0], xy[1]
	default:
		if err := firstTwoColumns(r, cfg); err != nil {
			return nil, err
		}
	}

	if len(r.categorical) > 0 {
		cfg.Color = r.first(r.categorical)
	}
	cfg.Markers = true
	cfg.Aggregation = r.aggregation
	return nil, nil
}

func configureScatter(r request, cfg *chart.Config) (*Degradation, error) {
	if len(r.numeric) < 2 {
		return degrade(r, cfg, "scatter plot needs at least two numeric columns")
	}
	picked := r.preferred(r.numeric, 3)
	cfg.X, cfg.Y = picked[0], picked[1]
	if len(picked) == 3 {
		cfg.Color = picked[2]
	}
	return nil, nil
}

func configurePie(r request, cfg *chart.Config) (*Degradation, error) {
	if len(r.categorical) == 0 || len(r.numeric) == 0 {
		return degrade(r, cfg, "pie chart needs a categorical and a numeric column")
	}
	cfg.Names = r.first(r.categorical)
	cfg.Values = r.first(r.numeric)
	cfg.Hole = chart.Float(0)
	cfg.Aggregation = r.aggregation
	return nil, nil
}

func configureHistogram(r request, cfg *chart.Config) (*Degradation, error) {
	if len(r.numeric) == 0 {
		return degrade(r, cfg, "histogram needs a numeric column")
	}
	cfg.X = r.first(r.numeric)
	cfg.Bins = histogramBins
	return nil, nil
}

func configureBox(r request, cfg *chart.Config) (*Degradation, error) {
	if len(r.numeric) == 0 {
		return degrade(r, cfg, "box plot needs a numeric column")
	}
	cfg.Y = r.first(r.numeric)
	cfg.X = chart.NoColumn
	if len(r.categorical) > 0 {
		cfg.X = r.first(r.categorical)
	}
	return nil, nil
}

func configureHeatmap(r request, cfg *chart.Config) (*Degradation, error) {
	if len(r.categorical) < 2 || len(r.numeric) == 0 {
		return degrade(r, cfg, "heatmap needs two categorical columns and a numeric column")
	}
	xy := r.preferred(r.categorical, 2)
	cfg.X, cfg.Y = xy[0], xy[1]
	cfg.Values = r.first(r.numeric)
	cfg.ColorScale = heatmapColorScale
	return nil, nil
}
