package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/saadbenchekroun/data-visualizer/internal/analysis"
	"github.com/saadbenchekroun/data-visualizer/internal/chart"
	"github.com/saadbenchekroun/data-visualizer/internal/llm"
	"github.com/saadbenchekroun/data-visualizer/internal/models"
	"github.com/saadbenchekroun/data-visualizer/internal/nlp"
	"github.com/saadbenchekroun/data-visualizer/internal/service"
	"github.com/saadbenchekroun/data-visualizer/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const revenueCSV = `Date,Region,Revenue
2024-01-01,North,120
2024-01-02,South,80
2024-01-03,East,95
2024-01-04,West,110
2024-01-05,North,130
2024-01-06,South,70
`

const retailCSV = `Date,Sales,Product_Category,Segment
2024-01-01,100,Toys,Retail
2024-01-02,150,Books,Wholesale
2024-01-03,90,Toys,Retail
`

type queryBody struct {
	Config    chart.Config     `json:"config"`
	Requested chart.Type       `json:"requested"`
	Degraded  *nlp.Degradation `json:"degraded"`
	Assisted  bool             `json:"assisted"`
}

func newTestServer(t *testing.T, llmSvc *llm.Service) *httptest.Server {
	t.Helper()
	if llmSvc == nil {
		llmSvc = llm.NewService("http://127.0.0.1:1", "")
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(log, state.NewStore(0), llmSvc, service.NewPostgresDataSource(), Options{MaxUploadBytes: 1 << 20})
	srv := httptest.NewServer(NewRouter(h, []string{"http://localhost:3000"}))
	t.Cleanup(srv.Close)
	return srv
}

// fakeOllama answers every generate call with response, or fails when status
// is not 200.
func fakeOllama(t *testing.T, status int, response string) *llm.Service {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(llm.GenerateResponse{Response: response})
	}))
	t.Cleanup(srv.Close)
	return llm.NewService(srv.URL, "test")
}

func upload(t *testing.T, srv *httptest.Server, filename, name, content string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if name != "" {
		require.NoError(t, mw.WriteField("name", name))
	}
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/datasets/", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func postJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := get(t, srv.URL+"/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	require.Equal(t, "OK", string(body))
}

func TestUploadAndInspectDataset(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := upload(t, srv, "revenue.csv", "", revenueCSV)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	summary := decode[models.DatasetSummary](t, resp)
	require.Equal(t, models.DatasetSummary{
		Name: "revenue", Rows: 6, Columns: 3, ColumnNames: []string{"Date", "Region", "Revenue"},
	}, summary)

	list := decode[map[string][]models.DatasetSummary](t, get(t, srv.URL+"/api/datasets/"))
	require.Len(t, list["datasets"], 1)

	resp = get(t, srv.URL+"/api/datasets/revenue/columns")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cols := decode[map[string]any](t, resp)
	assert.Equal(t, map[string]any{"Date": "datetime", "Region": "categorical", "Revenue": "numeric"}, cols["types"])

	resp = get(t, srv.URL+"/api/datasets/revenue/preview?limit=2")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	preview := decode[models.PreviewResponse](t, resp)
	assert.Equal(t, 6, preview.Rows)
	assert.Len(t, preview.Data, 2)
	assert.Equal(t, "North", preview.Data[0]["Region"])

	resp = get(t, srv.URL+"/api/datasets/revenue/preview?limit=abc")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadNamedAndRejected(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := upload(t, srv, "export.csv", "q1", revenueCSV)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "q1", decode[models.DatasetSummary](t, resp).Name)

	resp = upload(t, srv, "notes.txt", "", "hello")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = upload(t, srv, "big.csv", "", strings.Repeat("a,b\n", 300_000))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestDeleteDataset(t *testing.T) {
	srv := newTestServer(t, nil)
	upload(t, srv, "revenue.csv", "", revenueCSV)

	del := func() int {
		req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/datasets/revenue/", nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}
	assert.Equal(t, http.StatusNoContent, del())
	assert.Equal(t, http.StatusNotFound, del())
	assert.Equal(t, http.StatusNotFound, get(t, srv.URL+"/api/datasets/revenue/").StatusCode)
}

func TestQuery(t *testing.T) {
	srv := newTestServer(t, nil)
	upload(t, srv, "revenue.csv", "", revenueCSV)
	url := srv.URL + "/api/datasets/revenue/query"

	resp := postJSON(t, url, models.QueryRequest{Query: "revenue trend over time"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[queryBody](t, resp)
	assert.Equal(t, chart.LineChart, body.Config.ChartType)
	assert.Equal(t, "Date", body.Config.X)
	assert.Equal(t, "Revenue", body.Config.Y)
	assert.Equal(t, "Revenue trend over time", body.Config.Title)
	assert.False(t, body.Assisted)

	resp = postJSON(t, url, models.QueryRequest{Query: "revenue by region", ChartType: "pie_chart"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, chart.PieChart, decode[queryBody](t, resp).Config.ChartType)

	resp = postJSON(t, url, models.QueryRequest{Query: "revenue", ChartType: "radar"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, url, models.QueryRequest{Query: "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/datasets/missing/query", models.QueryRequest{Query: "bar chart"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestQueryInsufficientColumns(t *testing.T) {
	srv := newTestServer(t, nil)
	upload(t, srv, "single.csv", "", "Revenue\n1\n2\n")

	resp := postJSON(t, srv.URL+"/api/datasets/single/query", models.QueryRequest{Query: "bar chart"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, decode[models.ErrorResponse](t, resp).Error, "need at least 2")
}

func TestQueryAssist(t *testing.T) {
	srv := newTestServer(t, fakeOllama(t, http.StatusOK, "I would use a pie_chart here."))
	upload(t, srv, "revenue.csv", "", revenueCSV)
	url := srv.URL + "/api/datasets/revenue/query"

	resp := postJSON(t, url, models.QueryRequest{Query: "how is revenue split", Assist: true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[queryBody](t, resp)
	assert.Equal(t, chart.PieChart, body.Config.ChartType)
	assert.True(t, body.Assisted)

	// A keyword match never consults the model.
	resp = postJSON(t, url, models.QueryRequest{Query: "revenue line chart", Assist: true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decode[queryBody](t, resp)
	assert.Equal(t, chart.LineChart, body.Config.ChartType)
	assert.False(t, body.Assisted)
}

func TestQueryAssistFallsBack(t *testing.T) {
	srv := newTestServer(t, fakeOllama(t, http.StatusInternalServerError, ""))
	upload(t, srv, "revenue.csv", "", revenueCSV)

	resp := postJSON(t, srv.URL+"/api/datasets/revenue/query", models.QueryRequest{Query: "how is revenue split", Assist: true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[queryBody](t, resp)
	assert.Equal(t, chart.BarChart, body.Config.ChartType)
	assert.False(t, body.Assisted)
}

func TestSuggestions(t *testing.T) {
	srv := newTestServer(t, nil)
	upload(t, srv, "revenue.csv", "", revenueCSV)

	resp := get(t, srv.URL+"/api/datasets/revenue/suggestions")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string][]service.Suggestion](t, resp)
	require.NotEmpty(t, body["suggestions"])
	assert.Equal(t, chart.LineChart, body["suggestions"][0].Config.ChartType)
}

func TestTemplates(t *testing.T) {
	srv := newTestServer(t, nil)

	industries := decode[map[string][]string](t, get(t, srv.URL+"/api/templates/industries"))
	assert.Contains(t, industries["industries"], "Retail & E-commerce")

	resp := get(t, srv.URL+"/api/templates?industry=Retail+%26+E-commerce")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[models.TemplatesResponse](t, resp)
	assert.Equal(t, "Retail & E-commerce", list.Industry)
	assert.Equal(t, "Sales Performance Dashboard", list.Templates[0].Name)
}

func TestApplyTemplate(t *testing.T) {
	srv := newTestServer(t, nil)
	upload(t, srv, "retail.csv", "", retailCSV)
	url := srv.URL + "/api/datasets/retail/templates/apply"
	req := models.ApplyTemplateRequest{Industry: "Retail & E-commerce", Template: "Sales Performance Dashboard"}

	resp := postJSON(t, url, req)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	merr := decode[models.MappingErrorResponse](t, resp)
	assert.Equal(t, []string{"Customer Segment"}, merr.Missing)
	assert.Equal(t, map[string]string{"Date": "Date", "Sales": "Sales", "Product Category": "Product_Category"}, merr.Mapping)

	req.Mapping = map[string]string{"Customer Segment": "Segment"}
	resp = postJSON(t, url, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	applied := decode[models.ApplyTemplateResponse](t, resp)
	require.Len(t, applied.Visualizations, 3)
	assert.Equal(t, "Product_Category", applied.Visualizations[1].Config.X)
	assert.Equal(t, "Segment", applied.Visualizations[2].Config.Names)

	req.Template = "Nope"
	resp = postJSON(t, url, req)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestApplyTemplateAssist(t *testing.T) {
	llmSvc := fakeOllama(t, http.StatusOK,
		`{"matches": [{"field": "Customer Segment", "column": "Segment", "confidence": 0.8, "reason": "segments"}]}`)
	srv := newTestServer(t, llmSvc)
	upload(t, srv, "retail.csv", "", retailCSV)

	resp := postJSON(t, srv.URL+"/api/datasets/retail/templates/apply", models.ApplyTemplateRequest{
		Industry: "Retail & E-commerce", Template: "Sales Performance Dashboard", Assist: true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Segment", decode[models.ApplyTemplateResponse](t, resp).Mapping["Customer Segment"])
}

func TestDatabaseNotConnected(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := get(t, srv.URL+"/api/db/tables")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/db/import", models.DBImportRequest{Table: "orders"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/db/import", models.DBImportRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/db/connect", service.DataSourceConfig{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = get(t, srv.URL+"/api/db/status")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]bool{"connected": false}, decode[map[string]bool](t, resp))
}

func TestKeywords(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := get(t, srv.URL+"/api/keywords")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]map[string][]string](t, resp)
	assert.Equal(t, "bar", body["chart_types"][string(chart.BarChart)][0])
	assert.Contains(t, body["chart_types"][string(chart.Histogram)], "histogram")
	assert.Contains(t, body["aggregations"][string(chart.Average)], "average")
}

func TestOllamaConfig(t *testing.T) {
	srv := newTestServer(t, llm.NewService("http://ollama:11434", "llama3"))

	cfg := decode[models.OllamaConfig](t, get(t, srv.URL+"/api/config/ollama"))
	assert.Equal(t, models.OllamaConfig{BaseURL: "http://ollama:11434", Model: "llama3"}, cfg)

	resp := postJSON(t, srv.URL+"/api/config/ollama", models.OllamaConfig{Model: "mistral"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cfg = decode[models.OllamaConfig](t, get(t, srv.URL+"/api/config/ollama"))
	assert.Equal(t, models.OllamaConfig{BaseURL: "http://ollama:11434", Model: "mistral"}, cfg)
}

func TestQuality(t *testing.T) {
	srv := newTestServer(t, nil)
	upload(t, srv, "revenue.csv", "", revenueCSV)

	resp := get(t, srv.URL+"/api/datasets/revenue/quality")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string][]analysis.QualityProfile](t, resp)
	require.Len(t, body["columns"], 3)
	assert.Equal(t, "Date", body["columns"][0].Column)
	assert.True(t, body["columns"][0].IsIdentifier)
	assert.False(t, body["columns"][1].IsIdentifier)
}
