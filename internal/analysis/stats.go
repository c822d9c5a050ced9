package analysis

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/saadbenchekroun/data-visualizer/internal/dataset"
)

const maxValueCounts = 10

// ValueCount is one entry of a categorical column's frequency table.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Stats summarizes a single column. Fields that do not apply to the column's
// type are left nil.
type Stats struct {
	Count       int          `json:"count"`
	NullCount   int          `json:"null_count"`
	UniqueCount int          `json:"unique_count"`
	Min         any          `json:"min,omitempty"`
	Max         any          `json:"max,omitempty"`
	Mean        *float64     `json:"mean,omitempty"`
	Median      *float64     `json:"median,omitempty"`
	Std         *float64     `json:"std,omitempty"`
	ValueCounts []ValueCount `json:"value_counts,omitempty"`
}

// ColumnStats computes Stats for every column of ds.
func ColumnStats(ds *dataset.Dataset) map[string]Stats {
	out := make(map[string]Stats, len(ds.Columns))
	for _, col := range ds.Columns {
		out[col.Name] = columnStats(col)
	}
	return out
}

func columnStats(col *dataset.Column) Stats {
	s := Stats{
		Count:       col.NonNull(),
		UniqueCount: col.Distinct(),
	}
	s.NullCount = len(col.Values) - s.Count

	switch {
	case col.IsNumeric():
		values := numericValues(col)
		if len(values) == 0 {
			break
		}
		min, max, mean, median := CalculateStats(values)
		s.Min, s.Max = min, max
		s.Mean, s.Median = &mean, &median
		if len(values) > 1 {
			std := sampleStd(values, mean)
			s.Std = &std
		}
	case col.DType == dataset.DTypeDatetime:
		var lo, hi time.Time
		for _, v := range col.Values {
			t, ok := v.(time.Time)
			if !ok {
				continue
			}
			if lo.IsZero() || t.Before(lo) {
				lo = t
			}
			if hi.IsZero() || t.After(hi) {
				hi = t
			}
		}
		if !lo.IsZero() {
			s.Min, s.Max = lo.Format("2006-01-02"), hi.Format("2006-01-02")
		}
	case col.DType != dataset.DTypeBool:
		if s.UniqueCount <= maxValueCounts {
			s.ValueCounts = valueCounts(col)
		}
	}
	return s
}

func numericValues(col *dataset.Column) []float64 {
	values := make([]float64, 0, len(col.Values))
	for _, v := range col.Values {
		switch n := v.(type) {
		case int64:
			values = append(values, float64(n))
		case float64:
			values = append(values, n)
		}
	}
	return values
}

// CalculateStats computes min, max, mean and median of values, which must not be empty.
func CalculateStats(values []float64) (min, max, mean, median float64) {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	min = sorted[0]
	max = sorted[len(sorted)-1]

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	mean = sum / float64(len(sorted))

	if len(sorted)%2 == 0 {
		median = (sorted[len(sorted)/2-1] + sorted[len(sorted)/2]) / 2
	} else {
		median = sorted[len(sorted)/2]
	}
	return
}

func sampleStd(values []float64, mean float64) float64 {
	ss := 0.0
	for _, v := range values {
		ss += (v - mean) * (v - mean)
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

func valueCounts(col *dataset.Column) []ValueCount {
	counts := make(map[string]int)
	for _, v := range col.Values {
		if v == nil {
			continue
		}
		counts[fmt.Sprint(v)]++
	}
	out := make([]ValueCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, ValueCount{Value: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > maxValueCounts {
		out = out[:maxValueCounts]
	}
	return out
}

// TimeSeriesInfo reports whether a dataset pairs dates with measures.
type TimeSeriesInfo struct {
	IsTimeSeries bool     `json:"is_time_series"`
	DatetimeCols []string `json:"datetime_cols,omitempty"`
	NumericCols  []string `json:"numeric_cols,omitempty"`
}

// DetectTimeSeries finds datetime and numeric columns; the dataset is a time
// series when it has at least one of each.
func DetectTimeSeries(ds *dataset.Dataset) TimeSeriesInfo {
	c := Classify(ds)
	dates := c.Columns(Datetime)
	nums := c.Columns(Numeric)
	if len(dates) == 0 || len(nums) == 0 {
		return TimeSeriesInfo{}
	}
	return TimeSeriesInfo{IsTimeSeries: true, DatetimeCols: dates, NumericCols: nums}
}
