package service

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/saadbenchekroun/data-visualizer/internal/chart"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var templatesYAML []byte

var (
	ErrUnknownTemplate   = errors.New("unknown template")
	ErrIncompleteMapping = errors.New("incomplete field mapping")
)

// Visualization is one chart of a template, written against template field names.
type Visualization struct {
	Title  string       `json:"title" yaml:"title"`
	Config chart.Config `json:"config" yaml:"config"`
}

// Template is a named set of visualizations for an industry.
type Template struct {
	Name           string          `json:"name" yaml:"name"`
	Description    string          `json:"description" yaml:"description"`
	RequiredFields []string        `json:"required_fields" yaml:"required_fields"`
	Visualizations []Visualization `json:"visualizations" yaml:"visualizations"`
}

type industry struct {
	Name      string     `yaml:"name"`
	Templates []Template `yaml:"templates"`
}

type catalog struct {
	Industries []industry `yaml:"industries"`
	Default    []Template `yaml:"default"`
}

var (
	catalogOnce sync.Once
	catalogData catalog
	catalogErr  error
)

func loadCatalog() (catalog, error) {
	catalogOnce.Do(func() {
		catalogData, catalogErr = parseCatalog(templatesYAML)
	})
	return catalogData, catalogErr
}

func parseCatalog(data []byte) (catalog, error) {
	var c catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return catalog{}, fmt.Errorf("parse template catalog: %w", err)
	}
	all := slices.Clone(c.Default)
	for _, ind := range c.Industries {
		all = append(all, ind.Templates...)
	}
	for _, t := range all {
		for _, v := range t.Visualizations {
			if err := v.Config.Validate(t.RequiredFields); err != nil {
				return catalog{}, fmt.Errorf("template %q, %q: %w", t.Name, v.Title, err)
			}
		}
	}
	return c, nil
}

func mustCatalog() catalog {
	c, err := loadCatalog()
	if err != nil {
		panic(err)
	}
	return c
}

// Industries returns the industries that have their own templates.
func Industries() []string {
	c := mustCatalog()
	names := make([]string, 0, len(c.Industries))
	for _, ind := range c.Industries {
		names = append(names, ind.Name)
	}
	return names
}

// TemplatesFor returns the templates of industry, or the general set when the
// industry has none of its own.
func TemplatesFor(industry string) []Template {
	c := mustCatalog()
	for _, ind := range c.Industries {
		if ind.Name == industry {
			return slices.Clone(ind.Templates)
		}
	}
	return slices.Clone(c.Default)
}

// GetTemplate looks a template up by industry and name.
func GetTemplate(industry, name string) (Template, error) {
	for _, t := range TemplatesFor(industry) {
		if t.Name == name {
			return t, nil
		}
	}
	return Template{}, fmt.Errorf("%w: %q for industry %q", ErrUnknownTemplate, name, industry)
}

func normalizeFieldName(s string) string {
	s = strings.NewReplacer("_", " ", "-", " ").Replace(strings.ToLower(s))
	return strings.Join(strings.Fields(s), " ")
}

// SuggestMapping pairs each required field with the column whose normalized
// name equals the field's. Fields without such a column are left out.
func SuggestMapping(t Template, columns []string) map[string]string {
	mapping := make(map[string]string)
	for _, field := range t.RequiredFields {
		want := normalizeFieldName(field)
		for _, col := range columns {
			if normalizeFieldName(col) == want {
				mapping[field] = col
				break
			}
		}
	}
	return mapping
}

// MissingFields lists, in template order, the required fields that mapping
// does not cover.
func MissingFields(t Template, mapping map[string]string) []string {
	missing := []string{}
	for _, field := range t.RequiredFields {
		if mapping[field] == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

// MappingError reports why a field mapping cannot be applied.
type MappingError struct {
	Template string
	Missing  []string
	// Unknown maps template fields to columns that are not in the dataset.
	Unknown map[string]string
}

func (e *MappingError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "unmapped fields: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Unknown) > 0 {
		fields := make([]string, 0, len(e.Unknown))
		for field := range e.Unknown {
			fields = append(fields, field)
		}
		slices.Sort(fields)
		for i, field := range fields {
			fields[i] = fmt.Sprintf("%s -> %q", field, e.Unknown[field])
		}
		parts = append(parts, "unknown columns: "+strings.Join(fields, ", "))
	}
	return fmt.Sprintf("template %q: %s", e.Template, strings.Join(parts, "; "))
}

func (e *MappingError) Unwrap() error { return ErrIncompleteMapping }

// ApplyTemplate rewrites the template's visualizations from field names to
// dataset columns. Every required field must map to one of columns.
func ApplyTemplate(t Template, mapping map[string]string, columns []string) ([]Visualization, error) {
	merr := &MappingError{Template: t.Name, Missing: MissingFields(t, mapping), Unknown: map[string]string{}}
	for _, field := range t.RequiredFields {
		if col := mapping[field]; col != "" && !slices.Contains(columns, col) {
			merr.Unknown[field] = col
		}
	}
	if len(merr.Missing) > 0 || len(merr.Unknown) > 0 {
		return nil, merr
	}

	out := make([]Visualization, 0, len(t.Visualizations))
	for _, v := range t.Visualizations {
		cfg := v.Config.MapColumns(func(field string) string {
			if col, ok := mapping[field]; ok {
				return col
			}
			return field
		})
		if err := cfg.Validate(columns); err != nil {
			return nil, fmt.Errorf("template %q, %q: %w", t.Name, v.Title, err)
		}
		out = append(out, Visualization{Title: v.Title, Config: cfg})
	}
	return out, nil
}
