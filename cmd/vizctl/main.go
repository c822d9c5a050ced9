// Command vizctl runs the chart resolver against local CSV and XLSX files.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/saadbenchekroun/data-visualizer/internal/analysis"
	"github.com/saadbenchekroun/data-visualizer/internal/chart"
	"github.com/saadbenchekroun/data-visualizer/internal/dataset"
	"github.com/saadbenchekroun/data-visualizer/internal/nlp"
	"github.com/saadbenchekroun/data-visualizer/internal/service"
	"github.com/spf13/cobra"
)

const (
	exitCodeSuccess = 0
	exitCodeError   = 1
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	rootCmd := &cobra.Command{
		Use:          "vizctl",
		Short:        "Resolve chart configurations for local data files.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)

	rootCmd.AddCommand(
		newClassifyCmd(),
		newResolveCmd(),
		newSuggestCmd(),
		newTemplatesCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		return exitCodeError
	}
	return exitCodeSuccess
}

func loadFile(path string) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return dataset.Load(path, f)
}

func newTable(out io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetHeader(header)
	return table
}

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify FILE",
		Short: "Show each column's type and summary statistics.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := loadFile(args[0])
			if err != nil {
				return err
			}
			types := analysis.Classify(ds)
			stats := analysis.ColumnStats(ds)
			quality := analysis.ProfileQuality(ds)

			table := newTable(cmd.OutOrStdout(), "Column", "DType", "Type", "Count", "Nulls", "Unique", "Mean", "Quality")
			for i, col := range ds.Columns {
				t, _ := types.Type(col.Name)
				s := stats[col.Name]
				mean := ""
				if s.Mean != nil {
					mean = strconv.FormatFloat(*s.Mean, 'f', 2, 64)
				}
				q := strconv.FormatFloat(quality[i].QualityScore, 'f', 2, 64)
				if quality[i].IsIdentifier {
					q += " (id)"
				}
				table.Append([]string{
					col.Name,
					string(col.DType),
					string(t),
					strconv.Itoa(s.Count),
					strconv.Itoa(s.NullCount),
					strconv.Itoa(s.UniqueCount),
					mean,
					q,
				})
			}
			table.Render()
			return nil
		},
	}
}

func newResolveCmd() *cobra.Command {
	var (
		chartType string
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "resolve FILE QUERY...",
		Short: "Turn a question about FILE into a chart configuration.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := loadFile(args[0])
			if err != nil {
				return err
			}
			query := strings.Join(args[1:], " ")

			var res *nlp.Result
			if chartType != "" {
				t, err := chart.ParseType(chartType)
				if err != nil {
					return err
				}
				res, err = nlp.ResolveAs(t, query, ds)
				if err != nil {
					return err
				}
			} else if res, err = nlp.Resolve(query, ds); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			table := newTable(out, "Role", "Value")
			for _, row := range configRows(res.Config) {
				table.Append(row)
			}
			table.Render()
			if res.Degraded != nil {
				fmt.Fprintf(out, "note: %s requested, %s\n", res.Degraded.Requested, res.Degraded.Reason)
			}
			for _, h := range res.Hints {
				fmt.Fprintf(out, "hint: %q may mean column %q\n", h.Term, h.Column)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&chartType, "chart-type", "", "chart type to build instead of matching keywords")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full resolution as JSON")
	return cmd
}

// configRows lists the set entries of cfg as role/value pairs.
func configRows(cfg chart.Config) [][]string {
	rows := [][]string{{"chart_type", string(cfg.ChartType)}}
	add := func(role, value string) {
		if value != "" {
			rows = append(rows, []string{role, value})
		}
	}
	add("title", cfg.Title)
	add(chart.RoleX, cfg.X)
	add(chart.RoleY, cfg.Y)
	add(chart.RoleColor, cfg.Color)
	add(chart.RoleSize, cfg.Size)
	add(chart.RoleNames, cfg.Names)
	add(chart.RoleValues, cfg.Values)
	if cfg.Bins > 0 {
		add("bins", strconv.Itoa(cfg.Bins))
	}
	add("orientation", cfg.Orientation)
	if cfg.Hole != nil {
		add("hole", strconv.FormatFloat(*cfg.Hole, 'f', -1, 64))
	}
	if cfg.Markers {
		add("markers", "true")
	}
	add("color_scale", cfg.ColorScale)
	add("aggregation", string(cfg.Aggregation))
	return rows
}

func newSuggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest FILE",
		Short: "List the charts that suit FILE's columns.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := loadFile(args[0])
			if err != nil {
				return err
			}
			table := newTable(cmd.OutOrStdout(), "Chart", "Title", "X", "Y", "Color")
			for _, s := range service.Suggestions(ds) {
				x, y := s.Config.X, s.Config.Y
				if s.Config.ChartType == chart.PieChart {
					x, y = s.Config.Names, s.Config.Values
				}
				table.Append([]string{string(s.Config.ChartType), s.Title, x, y, s.Config.Color})
			}
			table.Render()
			return nil
		},
	}
}

func newTemplatesCmd() *cobra.Command {
	var industry string
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List industries, or the dashboard templates of one industry.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if industry == "" {
				table := newTable(out, "Industry", "Templates")
				for _, name := range service.Industries() {
					table.Append([]string{name, strconv.Itoa(len(service.TemplatesFor(name)))})
				}
				table.Render()
				return nil
			}

			table := newTable(out, "Template", "Required Fields", "Charts")
			for _, t := range service.TemplatesFor(industry) {
				table.Append([]string{t.Name, strings.Join(t.RequiredFields, ", "), strconv.Itoa(len(t.Visualizations))})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().StringVarP(&industry, "industry", "i", "", "industry whose templates to list")
	return cmd
}
