package nlp

import (
	"strings"
	"unicode"

	"github.com/sahilm/fuzzy"
	"github.com/saadbenchekroun/data-visualizer/internal/chart"
)

// ChartTypeMatch is the outcome of scoring a query against the keyword table.
type ChartTypeMatch struct {
	ChartType chart.Type         `json:"chart_type"`
	Score     int                `json:"score"`
	Scores    map[chart.Type]int `json:"scores"`
	// Tied lists every type sharing the top score, in table order, when more
	// than one does. The first of them is chosen.
	Tied []chart.Type `json:"tied,omitempty"`
	// Defaulted is set when no phrase matched and the time-language default applied.
	Defaulted bool `json:"defaulted"`
}

// Ambiguous reports whether the chart type was not a clear keyword winner.
func (m ChartTypeMatch) Ambiguous() bool {
	return m.Defaulted || len(m.Tied) > 1
}

// MatchChartType scores query against every chart type; each trigger phrase
// found as a substring adds one. The strictly highest score wins and ties go
// to the type declared first. With no match at all, time language selects a
// line chart and anything else a bar chart.
func MatchChartType(query string) ChartTypeMatch {
	q := strings.ToLower(query)
	m := ChartTypeMatch{Scores: make(map[chart.Type]int, len(chartTypeTable))}

	for _, entry := range chartTypeTable {
		score := 0
		for _, phrase := range entry.phrases {
			if strings.Contains(q, phrase) {
				score++
			}
		}
		m.Scores[entry.chartType] = score
		switch {
		case score > m.Score:
			m.ChartType, m.Score = entry.chartType, score
			m.Tied = []chart.Type{entry.chartType}
		case score == m.Score && score > 0:
			m.Tied = append(m.Tied, entry.chartType)
		}
	}

	if m.Score == 0 {
		m.Defaulted = true
		m.ChartType = chart.BarChart
		if containsAny(q, timePhrases) {
			m.ChartType = chart.LineChart
		}
	}
	if len(m.Tied) < 2 {
		m.Tied = nil
	}
	return m
}

// ResolveChartType returns only the winning chart type of MatchChartType.
func ResolveChartType(query string) chart.Type {
	return MatchChartType(query).ChartType
}

// FindAggregation returns the aggregation of the first trigger phrase found,
// scanning the table in order, or sum when none is present.
func FindAggregation(query string) chart.Aggregation {
	q := strings.ToLower(query)
	for _, entry := range aggregationTable {
		if containsAny(q, entry.phrases) {
			return entry.aggregation
		}
	}
	return defaultAggregation
}

// columnVariants are the spellings of a column name a query may use: the
// lowercased name, the name with '_' and '-' as spaces, and that form with
// a trailing "s" toggled.
func columnVariants(name string) []string {
	lower := strings.ToLower(name)
	normalized := strings.NewReplacer("_", " ", "-", " ").Replace(lower)
	toggled := normalized + "s"
	if strings.HasSuffix(normalized, "s") {
		toggled = strings.TrimSuffix(normalized, "s")
	}
	return []string{lower, normalized, toggled}
}

// FindReferencedColumns returns, in the order of columns and without
// duplicates, every column one of whose variants occurs in query.
func FindReferencedColumns(query string, columns []string) []string {
	q := strings.ToLower(query)
	out := []string{}
	seen := make(map[string]bool, len(columns))
	for _, col := range columns {
		if seen[col] {
			continue
		}
		for _, v := range columnVariants(col) {
			if v != "" && strings.Contains(q, v) {
				out = append(out, col)
				seen[col] = true
				break
			}
		}
	}
	return out
}

// Tokenize lowercases query, splits it on anything but letters and digits,
// and drops stopwords.
func Tokenize(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, stop := stopwords[f]; !stop {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// Hint suggests the column a query term probably meant.
type Hint struct {
	Term   string `json:"term"`
	Column string `json:"column"`
}

const minHintTermLen = 3

// FindHints fuzzy-matches query terms that no keyword or referenced column
// accounts for against the column names. Hints are advisory only.
func FindHints(query string, columns, referenced []string) []Hint {
	var known []string
	for _, entry := range chartTypeTable {
		known = append(known, entry.phrases...)
	}
	for _, entry := range aggregationTable {
		known = append(known, entry.phrases...)
	}
	known = append(known, timePhrases...)
	for _, col := range referenced {
		known = append(known, columnVariants(col)...)
	}

	hints := []Hint{}
	seen := make(map[string]bool)
	for _, term := range Tokenize(query) {
		if len(term) < minHintTermLen || seen[term] || coveredBy(term, known) {
			continue
		}
		seen[term] = true
		matches := fuzzy.Find(term, columns)
		if len(matches) == 0 {
			continue
		}
		hints = append(hints, Hint{Term: term, Column: matches[0].Str})
	}
	return hints
}

func coveredBy(term string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(p, term) || strings.Contains(term, p) {
			return true
		}
	}
	return false
}

func containsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
