package nlp

import (
	"errors"
	"fmt"

	"github.com/saadbenchekroun/data-visualizer/internal/chart"
)

// ErrInsufficientColumns indicates a fallback needed two columns the dataset does not have.
var ErrInsufficientColumns = errors.New("dataset needs at least two columns")

// InsufficientColumnsError reports which configuration hit the column shortage.
type InsufficientColumnsError struct {
	ChartType chart.Type
	Have      int
}

func (e *InsufficientColumnsError) Error() string {
	return fmt.Sprintf("cannot configure %s: dataset has %d column(s), need at least 2", e.ChartType, e.Have)
}

func (e *InsufficientColumnsError) Unwrap() error {
	return ErrInsufficientColumns
}
