package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"maps"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/saadbenchekroun/data-visualizer/internal/analysis"
	"github.com/saadbenchekroun/data-visualizer/internal/chart"
	"github.com/saadbenchekroun/data-visualizer/internal/dataset"
	"github.com/saadbenchekroun/data-visualizer/internal/llm"
	"github.com/saadbenchekroun/data-visualizer/internal/metrics"
	"github.com/saadbenchekroun/data-visualizer/internal/models"
	"github.com/saadbenchekroun/data-visualizer/internal/nlp"
	"github.com/saadbenchekroun/data-visualizer/internal/service"
	"github.com/saadbenchekroun/data-visualizer/internal/state"
)

const (
	DefaultMaxUploadBytes = 100 << 20
	DefaultPreviewRows    = 10
	maxPreviewRows        = 1000
	multipartMemory       = 32 << 20
)

type Options struct {
	MaxUploadBytes int64
	// DatabaseURL is used by ConnectDB when the request names no server.
	DatabaseURL string
}

type Handler struct {
	Store      *state.Store
	LLMService *llm.Service
	DataSource service.DataSource
	Log        *slog.Logger
	opts       Options
}

func NewHandler(log *slog.Logger, store *state.Store, llmSvc *llm.Service, ds service.DataSource, opts Options) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handler{
		Store:      store,
		LLMService: llmSvc,
		DataSource: ds,
		Log:        log,
		opts:       opts,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/datasets", func(r chi.Router) {
			r.Post("/", h.UploadDataset)
			r.Get("/", h.ListDatasets)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", h.GetDataset)
				r.Delete("/", h.DeleteDataset)
				r.Get("/columns", h.GetColumns)
				r.Get("/preview", h.GetPreview)
				r.Get("/quality", h.GetQuality)
				r.Post("/query", h.Query)
				r.Get("/suggestions", h.GetSuggestions)
				r.Post("/templates/apply", h.ApplyTemplate)
			})
		})

		r.Get("/keywords", h.GetKeywords)
		r.Get("/templates/industries", h.ListIndustries)
		r.Get("/templates", h.ListTemplates)

		// DB Routes
		r.Post("/db/connect", h.ConnectDB)
		r.Get("/db/status", h.DBStatus)
		r.Get("/db/tables", h.ListTables)
		r.Post("/db/import", h.ImportTable)

		r.Get("/config/ollama", h.GetOllamaConfig)
		r.Post("/config/ollama", h.SaveOllamaConfig)
	})
}

// ============================================================================
// Health
// ============================================================================

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

// ============================================================================
// Datasets
// ============================================================================

// UploadDataset loads a CSV or XLSX file sent as the multipart field "file".
// The optional "name" field overrides the file name as the dataset name.
func (h *Handler) UploadDataset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")
	ds, err := dataset.Load(header.Filename, file)
	if err != nil {
		metrics.DatasetLoadErrs.WithLabelValues(format).Inc()
		h.Log.Warn("failed to load upload", "file", header.Filename, "error", err)
		h.fail(w, err)
		return
	}

	ds.Name = r.FormValue("name")
	if ds.Name == "" {
		base := filepath.Base(header.Filename)
		ds.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	h.save(w, ds, format)
}

func (h *Handler) save(w http.ResponseWriter, ds *dataset.Dataset, format string) {
	if err := h.Store.Save(ds); err != nil {
		h.fail(w, err)
		return
	}
	metrics.DatasetsLoaded.WithLabelValues(format).Inc()
	h.Log.Info("dataset loaded", "name", ds.Name, "format", format, "rows", ds.NumRows(), "columns", len(ds.Columns))
	writeJSON(w, http.StatusCreated, models.NewDatasetSummary(ds))
}

func (h *Handler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	summaries := []models.DatasetSummary{}
	for _, name := range h.Store.List() {
		ds, err := h.Store.Get(name)
		if err != nil {
			continue // expired between List and Get
		}
		summaries = append(summaries, models.NewDatasetSummary(ds))
	}
	writeJSON(w, http.StatusOK, map[string]any{"datasets": summaries})
}

// dataset writes an error and returns nil when the {name} dataset is not loaded.
func (h *Handler) dataset(w http.ResponseWriter, r *http.Request) *dataset.Dataset {
	ds, err := h.Store.Get(chi.URLParam(r, "name"))
	if err != nil {
		h.fail(w, err)
		return nil
	}
	return ds
}

func (h *Handler) GetDataset(w http.ResponseWriter, r *http.Request) {
	ds := h.dataset(w, r)
	if ds == nil {
		return
	}
	dtypes := make(map[string]dataset.DType, len(ds.Columns))
	for _, col := range ds.Columns {
		dtypes[col.Name] = col.DType
	}
	writeJSON(w, http.StatusOK, models.DatasetResponse{DatasetSummary: models.NewDatasetSummary(ds), DTypes: dtypes})
}

func (h *Handler) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Delete(chi.URLParam(r, "name")); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetColumns(w http.ResponseWriter, r *http.Request) {
	ds := h.dataset(w, r)
	if ds == nil {
		return
	}
	writeJSON(w, http.StatusOK, models.ColumnsResponse{
		Types:      analysis.Classify(ds),
		Stats:      analysis.ColumnStats(ds),
		TimeSeries: analysis.DetectTimeSeries(ds),
	})
}

func (h *Handler) GetQuality(w http.ResponseWriter, r *http.Request) {
	ds := h.dataset(w, r)
	if ds == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"columns": analysis.ProfileQuality(ds)})
}

func (h *Handler) GetPreview(w http.ResponseWriter, r *http.Request) {
	ds := h.dataset(w, r)
	if ds == nil {
		return
	}

	limit := DefaultPreviewRows
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxPreviewRows)
	}

	rows := ds.Rows(limit)
	writeJSON(w, http.StatusOK, models.PreviewResponse{Rows: ds.NumRows(), Columns: ds.ColumnNames(), Data: rows})
}

// ============================================================================
// Query
// ============================================================================

// Query resolves a free-text request into a chart configuration. An explicit
// chart_type overrides keyword matching; with assist set, a query no keyword
// matched asks the model for the chart type and keeps the keyword default if
// that fails.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	ds := h.dataset(w, r)
	if ds == nil {
		return
	}

	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	var (
		res      *nlp.Result
		err      error
		assisted bool
	)
	switch {
	case req.ChartType != "":
		chartType, perr := chart.ParseType(req.ChartType)
		if perr != nil {
			writeError(w, http.StatusBadRequest, perr.Error())
			return
		}
		res, err = nlp.ResolveAs(chartType, req.Query, ds)
	case req.Assist && h.LLMService != nil && nlp.MatchChartType(req.Query).Defaulted:
		chartType, aerr := h.LLMService.SuggestChartType(r.Context(), req.Query, ds.ColumnNames())
		if aerr != nil {
			metrics.AssistOutcomes.WithLabelValues("error").Inc()
			h.Log.Warn("chart type assist failed, using keyword default", "error", aerr)
			res, err = nlp.Resolve(req.Query, ds)
			break
		}
		metrics.AssistOutcomes.WithLabelValues("ok").Inc()
		assisted = true
		res, err = nlp.ResolveAs(chartType, req.Query, ds)
	default:
		res, err = nlp.Resolve(req.Query, ds)
	}
	if err != nil {
		h.fail(w, err)
		return
	}

	metrics.Resolutions.WithLabelValues(string(res.Config.ChartType)).Inc()
	if res.Degraded != nil {
		metrics.Degradations.WithLabelValues(string(res.Degraded.Requested)).Inc()
	}
	h.Log.Debug("query resolved",
		"dataset", ds.Name,
		"chart_type", res.Config.ChartType,
		"requested", res.Requested,
		"degraded", res.Degraded != nil,
		"assisted", assisted)

	writeJSON(w, http.StatusOK, models.QueryResponse{Result: res, Assisted: assisted})
}

func (h *Handler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	ds := h.dataset(w, r)
	if ds == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": service.Suggestions(ds)})
}

// GetKeywords lists the phrases that select each chart type and aggregation.
func (h *Handler) GetKeywords(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"chart_types":  nlp.ChartTypeKeywords(),
		"aggregations": nlp.AggregationKeywords(),
	})
}

// ============================================================================
// Templates
// ============================================================================

func (h *Handler) ListIndustries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"industries": service.Industries()})
}

func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	industry := r.URL.Query().Get("industry")
	writeJSON(w, http.StatusOK, models.TemplatesResponse{Industry: industry, Templates: service.TemplatesFor(industry)})
}

// ApplyTemplate maps a template's fields onto the dataset's columns. Fields are
// matched by name first, then taken from the request mapping, then, with
// assist set, from the model.
func (h *Handler) ApplyTemplate(w http.ResponseWriter, r *http.Request) {
	ds := h.dataset(w, r)
	if ds == nil {
		return
	}

	var req models.ApplyTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	tmpl, err := service.GetTemplate(req.Industry, req.Template)
	if err != nil {
		h.fail(w, err)
		return
	}

	columns := ds.ColumnNames()
	mapping := service.SuggestMapping(tmpl, columns)
	maps.Copy(mapping, req.Mapping)

	if missing := service.MissingFields(tmpl, mapping); req.Assist && h.LLMService != nil && len(missing) > 0 {
		matches, err := h.LLMService.MatchFields(r.Context(), missing, columns)
		if err != nil {
			h.Log.Warn("field mapping assist failed", "template", tmpl.Name, "error", err)
		}
		for _, m := range matches {
			mapping[m.Field] = m.Column
		}
	}

	vizs, err := service.ApplyTemplate(tmpl, mapping, columns)
	if err != nil {
		var merr *service.MappingError
		if errors.As(err, &merr) {
			writeJSON(w, http.StatusUnprocessableEntity, models.MappingErrorResponse{
				Error:   merr.Error(),
				Missing: merr.Missing,
				Unknown: merr.Unknown,
				Mapping: mapping,
			})
			return
		}
		h.fail(w, err)
		return
	}

	metrics.TemplateApplications.WithLabelValues(tmpl.Name).Inc()
	writeJSON(w, http.StatusOK, models.ApplyTemplateResponse{Template: tmpl.Name, Mapping: mapping, Visualizations: vizs})
}

// ============================================================================
// Database
// ============================================================================

// ConnectDB establishes a database connection
func (h *Handler) ConnectDB(w http.ResponseWriter, r *http.Request) {
	var config service.DataSourceConfig
	if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if config.URL == "" && config.Host == "" {
		config.URL = h.opts.DatabaseURL
	}
	if config.URL == "" && config.Host == "" {
		writeError(w, http.StatusBadRequest, "url or host is required")
		return
	}

	if err := h.DataSource.Connect(r.Context(), config); err != nil {
		h.Log.Warn("database connect failed", "error", err)
		writeError(w, http.StatusBadGateway, "Failed to connect: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "connected"})
}

// DBStatus reports whether a database connection is open.
func (h *Handler) DBStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"connected": h.DataSource.Connected()})
}

// ListTables returns tables from connected DB
func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.DataSource.ListTables(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": tables})
}

// ImportTable reads a table of the connected database into the store.
func (h *Handler) ImportTable(w http.ResponseWriter, r *http.Request) {
	var req models.DBImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Table == "" {
		writeError(w, http.StatusBadRequest, "table is required")
		return
	}

	ds, err := h.DataSource.ReadTable(r.Context(), req.Table, req.Limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	if req.Name != "" {
		ds.Name = req.Name
	}
	h.save(w, ds, "postgres")
}

// ============================================================================
// Ollama Config
// ============================================================================

func (h *Handler) GetOllamaConfig(w http.ResponseWriter, r *http.Request) {
	cfg := h.LLMService.Config()
	writeJSON(w, http.StatusOK, models.OllamaConfig{BaseURL: cfg.BaseURL, Model: cfg.Model})
}

func (h *Handler) SaveOllamaConfig(w http.ResponseWriter, r *http.Request) {
	var config models.OllamaConfig
	if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	cfg := h.LLMService.Config()
	if config.BaseURL != "" {
		cfg.BaseURL = config.BaseURL
	}
	if config.Model != "" {
		cfg.Model = config.Model
	}
	h.LLMService.SetConfig(cfg)
	cfg = h.LLMService.Config()

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Ollama configuration saved successfully",
		"config":  models.OllamaConfig{BaseURL: cfg.BaseURL, Model: cfg.Model},
	})
}
