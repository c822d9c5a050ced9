package models

import (
	"github.com/saadbenchekroun/data-visualizer/internal/analysis"
	"github.com/saadbenchekroun/data-visualizer/internal/dataset"
	"github.com/saadbenchekroun/data-visualizer/internal/nlp"
	"github.com/saadbenchekroun/data-visualizer/internal/service"
)

// DatasetSummary is returned after a dataset is loaded and by the dataset listing.
type DatasetSummary struct {
	Name        string   `json:"name"`
	Rows        int      `json:"rows"`
	Columns     int      `json:"columns"`
	ColumnNames []string `json:"column_names"`
}

func NewDatasetSummary(ds *dataset.Dataset) DatasetSummary {
	return DatasetSummary{
		Name:        ds.Name,
		Rows:        ds.NumRows(),
		Columns:     len(ds.Columns),
		ColumnNames: ds.ColumnNames(),
	}
}

// DatasetResponse for GET /api/datasets/{name}
type DatasetResponse struct {
	DatasetSummary
	DTypes map[string]dataset.DType `json:"dtypes"`
}

// ColumnsResponse for GET /api/datasets/{name}/columns
type ColumnsResponse struct {
	Types      analysis.Classification   `json:"types"`
	Stats      map[string]analysis.Stats `json:"stats"`
	TimeSeries analysis.TimeSeriesInfo   `json:"time_series"`
}

// PreviewResponse for GET /api/datasets/{name}/preview
type PreviewResponse struct {
	Rows    int              `json:"rows"`
	Columns []string         `json:"columns"`
	Data    []map[string]any `json:"data"`
}

// QueryRequest for POST /api/datasets/{name}/query
type QueryRequest struct {
	Query     string `json:"query"`
	ChartType string `json:"chart_type,omitempty"`
	// Assist asks the model for a chart type when no keyword matched.
	Assist bool `json:"assist,omitempty"`
}

// QueryResponse is a resolution plus whether the model chose its chart type.
type QueryResponse struct {
	*nlp.Result
	Assisted bool `json:"assisted"`
}

// ApplyTemplateRequest for POST /api/datasets/{name}/templates/apply
type ApplyTemplateRequest struct {
	Industry string            `json:"industry"`
	Template string            `json:"template"`
	Mapping  map[string]string `json:"mapping,omitempty"`
	// Assist asks the model to map fields no column name matches.
	Assist bool `json:"assist,omitempty"`
}

type ApplyTemplateResponse struct {
	Template       string                  `json:"template"`
	Mapping        map[string]string       `json:"mapping"`
	Visualizations []service.Visualization `json:"visualizations"`
}

// MappingErrorResponse is returned when a template cannot be applied with the
// fields mapped so far.
type MappingErrorResponse struct {
	Error   string            `json:"error"`
	Missing []string          `json:"missing"`
	Unknown map[string]string `json:"unknown,omitempty"`
	Mapping map[string]string `json:"mapping"`
}

// TemplatesResponse for GET /api/templates
type TemplatesResponse struct {
	Industry  string             `json:"industry"`
	Templates []service.Template `json:"templates"`
}

// DBImportRequest for POST /api/db/import
type DBImportRequest struct {
	Table string `json:"table"`
	Name  string `json:"name,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// OllamaConfig for /api/config/ollama endpoint
type OllamaConfig struct {
	BaseURL string `json:"baseUrl"`
	Model   string `json:"model"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
