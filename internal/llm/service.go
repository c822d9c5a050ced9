package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/saadbenchekroun/data-visualizer/internal/chart"
)

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3"
)

type Config struct {
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
}

type Service struct {
	mu     sync.RWMutex
	config Config
	client *http.Client
}

func NewService(baseURL, model string) *Service {
	s := &Service{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	s.SetConfig(Config{BaseURL: baseURL, Model: model})
	return s
}

// Config returns the current Ollama endpoint and model.
func (s *Service) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// SetConfig replaces the endpoint and model; empty fields take the defaults.
func (s *Service) SetConfig(cfg Config) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
}

type GenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type GenerateResponse struct {
	Response string `json:"response"`
}

// CallOllama sends prompt to the generate endpoint and returns the completion.
func (s *Service) CallOllama(ctx context.Context, prompt string) (string, error) {
	cfg := s.Config()
	reqBody := GenerateRequest{
		Model:  cfg.Model,
		Prompt: prompt,
		Stream: false,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/api/generate", bytes.NewReader(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama API returned status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var genResp GenerateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", err
	}

	return genResp.Response, nil
}

var (
	jsonObject = regexp.MustCompile(`\{[\s\S]*\}`)
	chartTag   = regexp.MustCompile(`[a-z_]+`)
)

// SuggestChartType asks the model which chart type fits query over columns.
// The answer must be one of the supported tags.
func (s *Service) SuggestChartType(ctx context.Context, query string, columns []string) (chart.Type, error) {
	tags := make([]string, 0, len(chart.Types()))
	for _, t := range chart.Types() {
		tags = append(tags, string(t))
	}

	prompt := fmt.Sprintf(`
You choose chart types for a data visualization tool.

Request: %q
Columns: %s

Answer with exactly one of: %s
Return ONLY the chart type.
`, query, strings.Join(columns, ", "), strings.Join(tags, ", "))

	response, err := s.CallOllama(ctx, prompt)
	if err != nil {
		return "", err
	}

	for _, word := range chartTag.FindAllString(strings.ToLower(response), -1) {
		if t := chart.Type(word); t.Valid() {
			return t, nil
		}
	}
	return "", fmt.Errorf("no chart type in response %q", response)
}

type Match struct {
	Field      string  `json:"field"`
	Column     string  `json:"column"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

type MatchesResponse struct {
	Matches []Match `json:"matches"`
}

const minMatchConfidence = 0.5

// MatchFields asks the model to pair template fields with dataset columns.
// Matches naming unknown fields or columns, or below 0.5 confidence, are dropped.
func (s *Service) MatchFields(ctx context.Context, fields, columns []string) ([]Match, error) {
	prompt := fmt.Sprintf(`
You are an expert data integration specialist. Match the chart template fields to dataset columns based on semantic meaning.

Fields: %s
Columns: %s

Only include matches where you are confident (score > 0.5).

Format:
{
	"matches": [
		{"field": "template_field", "column": "dataset_column", "confidence": 0.9, "reason": "Both refer to..."}
	]
}

Return ONLY the JSON.
`, strings.Join(fields, ", "), strings.Join(columns, ", "))

	response, err := s.CallOllama(ctx, prompt)
	if err != nil {
		return nil, err
	}

	jsonStr := jsonObject.FindString(response)
	if jsonStr == "" {
		return nil, fmt.Errorf("no JSON found in response")
	}

	var matchesResp MatchesResponse
	if err := json.Unmarshal([]byte(jsonStr), &matchesResp); err != nil {
		return nil, err
	}

	matches := []Match{}
	for _, m := range matchesResp.Matches {
		if m.Confidence < minMatchConfidence || !slices.Contains(fields, m.Field) || !slices.Contains(columns, m.Column) {
			continue
		}
		matches = append(matches, m)
	}
	return matches, nil
}
