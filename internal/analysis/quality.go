package analysis

import (
	"math"
	"time"

	"github.com/saadbenchekroun/data-visualizer/internal/dataset"
)

// QualityProfile holds quality metrics for a column.
type QualityProfile struct {
	Column          string  `json:"column"`
	TotalRows       int     `json:"total_rows"`
	NonNullRows     int     `json:"non_null_rows"`
	NullRate        float64 `json:"null_rate"`
	DistinctCount   int     `json:"distinct_count"`
	UniquenessRatio float64 `json:"uniqueness_ratio"`
	Entropy         float64 `json:"entropy"`
	// IsIdentifier marks columns that look like row keys: nearly every value
	// is distinct and nearly none is missing. They make poor chart axes.
	IsIdentifier bool    `json:"is_identifier"`
	QualityScore float64 `json:"quality_score"` // 0-1
}

const (
	identifierMinUniqueness = 0.95
	identifierMaxNullRate   = 0.05
	// Bits of entropy that score best.
	idealEntropy = 4.0
)

// ProfileQuality profiles every column of ds, in dataset order.
func ProfileQuality(ds *dataset.Dataset) []QualityProfile {
	profiles := make([]QualityProfile, len(ds.Columns))
	for i, col := range ds.Columns {
		profiles[i] = profileColumn(col)
	}
	return profiles
}

func profileColumn(col *dataset.Column) QualityProfile {
	p := QualityProfile{Column: col.Name, TotalRows: len(col.Values)}

	counts := make(map[any]int)
	for _, v := range col.Values {
		if v == nil {
			continue
		}
		if t, ok := v.(time.Time); ok {
			v = t.UnixNano()
		}
		p.NonNullRows++
		counts[v]++
	}
	p.DistinctCount = len(counts)

	if p.TotalRows > 0 {
		p.NullRate = float64(p.TotalRows-p.NonNullRows) / float64(p.TotalRows)
	}
	if p.NonNullRows > 0 {
		p.UniquenessRatio = float64(p.DistinctCount) / float64(p.NonNullRows)
	}
	p.Entropy = entropy(counts, p.NonNullRows)
	p.IsIdentifier = p.NonNullRows > 0 && p.UniquenessRatio > identifierMinUniqueness && p.NullRate < identifierMaxNullRate
	p.QualityScore = qualityScore(p)
	return p
}

// entropy computes the Shannon entropy of counts in bits.
func entropy(counts map[any]int, total int) float64 {
	if total == 0 {
		return 0
	}
	e := 0.0
	for _, n := range counts {
		if n > 0 {
			p := float64(n) / float64(total)
			e -= p * math.Log2(p)
		}
	}
	return e
}

// qualityScore penalizes missing values and entropy far from idealEntropy.
func qualityScore(p QualityProfile) float64 {
	score := 1.0 - p.NullRate
	penalty := math.Abs(p.Entropy-idealEntropy) / 10.0
	score *= math.Max(0.5, 1.0-penalty)
	return math.Max(0, math.Min(1, score))
}
