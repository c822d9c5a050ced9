// Package nlp turns a free-text request and a dataset into a chart configuration.
//
// Matching is plain case-insensitive substring containment, not word-boundary
// aware: a column named "age" is referenced by any query containing "page" or
// "average". That behavior is kept for compatibility with existing fixtures.
package nlp

import "github.com/saadbenchekroun/data-visualizer/internal/chart"

type chartTypeKeywords struct {
	chartType chart.Type
	phrases   []string
}

// Declaration order is the tie-break order for MatchChartType.
var chartTypeTable = []chartTypeKeywords{
	{chart.BarChart, []string{"bar", "bars", "bar chart", "bar graph", "column", "columns"}},
	{chart.LineChart, []string{"line", "lines", "line chart", "line graph", "trend", "trends", "time series"}},
	{chart.ScatterPlot, []string{"scatter", "scatterplot", "scatter plot", "points", "correlation"}},
	{chart.PieChart, []string{"pie", "pie chart", "proportion", "percentage", "distribution"}},
	{chart.Histogram, []string{"histogram", "distribution", "frequency"}},
	{chart.BoxPlot, []string{"box", "box plot", "boxplot", "whisker", "quartile", "median", "box and whisker"}},
	{chart.Heatmap, []string{"heatmap", "heat map", "correlation", "matrix"}},
}

// Phrases that turn a query with no chart keyword into a line chart.
var timePhrases = []string{"over time", "trend", "time series"}

type aggregationKeywords struct {
	aggregation chart.Aggregation
	phrases     []string
}

// Searched in order; the first phrase found wins.
var aggregationTable = []aggregationKeywords{
	{chart.Sum, []string{"sum", "total", "add"}},
	{chart.Average, []string{"average", "avg", "mean"}},
	{chart.Count, []string{"count", "frequency", "occurrences", "number of"}},
	{chart.Min, []string{"minimum", "min", "lowest", "smallest"}},
	{chart.Max, []string{"maximum", "max", "highest", "largest"}},
	{chart.Median, []string{"median", "middle"}},
}

const defaultAggregation = chart.Sum

// ChartTypeKeywords returns a copy of the trigger phrases for each chart type.
func ChartTypeKeywords() map[chart.Type][]string {
	out := make(map[chart.Type][]string, len(chartTypeTable))
	for _, k := range chartTypeTable {
		out[k.chartType] = append([]string(nil), k.phrases...)
	}
	return out
}

// AggregationKeywords returns a copy of the trigger phrases for each aggregation.
func AggregationKeywords() map[chart.Aggregation][]string {
	out := make(map[chart.Aggregation][]string, len(aggregationTable))
	for _, k := range aggregationTable {
		out[k.aggregation] = append([]string(nil), k.phrases...)
	}
	return out
}

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"a", "about", "above", "after", "again", "all", "am", "an", "and", "any", "are", "as", "at",
		"be", "because", "been", "before", "being", "below", "between", "both", "but", "by",
		"can", "could", "did", "do", "does", "doing", "down", "during", "each", "few", "for", "from",
		"further", "had", "has", "have", "having", "he", "her", "here", "hers", "him", "his", "how",
		"i", "if", "in", "into", "is", "it", "its", "itself", "just", "me", "more", "most", "my",
		"no", "nor", "not", "now", "of", "off", "on", "once", "only", "or", "other", "our", "ours",
		"out", "over", "own", "same", "she", "should", "so", "some", "such", "than", "that", "the",
		"their", "theirs", "them", "then", "there", "these", "they", "this", "those", "through",
		"to", "too", "under", "until", "up", "very", "was", "we", "were", "what", "when", "where",
		"which", "while", "who", "whom", "why", "will", "with", "would", "you", "your", "yours",
		// Request verbs that never name data.
		"show", "plot", "draw", "display", "give", "make", "create", "chart", "graph", "please", "per",
	} {
		stopwords[w] = struct{}{}
	}
}
