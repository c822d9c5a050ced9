package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DatasetsLoaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dataviz_datasets_loaded_total", Help: "Datasets loaded, by source format.",
	}, []string{"format"})
	DatasetLoadErrs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dataviz_dataset_load_errors_total", Help: "Failed dataset loads, by source format.",
	}, []string{"format"})

	Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dataviz_resolutions_total", Help: "Resolved chart configurations, by returned chart type.",
	}, []string{"chart_type"})
	Degradations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dataviz_degradations_total", Help: "Resolutions that fell back to a bar chart, by requested chart type.",
	}, []string{"requested"})
	AssistOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dataviz_assist_outcomes_total", Help: "Model-assisted chart type lookups, by result.",
	}, []string{"result"})

	TemplateApplications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dataviz_template_applications_total", Help: "Templates applied to datasets, by template.",
	}, []string{"template"})
)
