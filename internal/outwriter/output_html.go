package outwriter

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/huangsam/acfperiod/schema"
)

// writeHTMLResults renders one interactive ACF chart per result on a single page.
func writeHTMLResults(w io.Writer, results []schema.PeriodResult, precision int) error {
	page := components.NewPage()
	page.PageTitle = "ACF period search"

	for _, r := range results {
		page.AddCharts(newACFChart(r, precision))
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render HTML: %w", err)
	}
	return nil
}

// newACFChart plots the raw and smoothed ACF against lag time, with the
// considered maxima marked.
func newACFChart(r schema.PeriodResult, precision int) *charts.Line {
	raw := make([]opts.LineData, 0, len(r.ACF))
	smoothed := make([]opts.LineData, 0, len(r.SmoothedACF))
	for i, p := range r.Periods {
		if i < len(r.ACF) {
			raw = append(raw, opts.LineData{Value: []any{p, r.ACF[i]}})
		}
		if i < len(r.SmoothedACF) {
			smoothed = append(smoothed, opts.LineData{Value: []any{p, r.SmoothedACF[i]}})
		}
	}

	peaks := make([]opts.ScatterData, 0, len(r.Peaks.Maxima))
	for _, m := range r.Peaks.Considered() {
		peaks = append(peaks, opts.ScatterData{Value: []any{float64(m.Lag) * r.Cadence, m.Value}})
	}

	subtitle := fmt.Sprintf("period=%s naive=%s label=%s",
		strconv.FormatFloat(r.BestPeriod, 'f', precision, 64),
		strconv.FormatFloat(r.NaivePeriod, 'f', precision, 64),
		schema.GetPlainLabel(r))

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: r.Name, Width: "1100px", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: r.Name, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Lag", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "ACF", NameLocation: "middle", NameGap: 40}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	line.AddSeries("acf", raw).AddSeries("smoothed", smoothed)

	scatter := charts.NewScatter()
	scatter.AddSeries("peaks", peaks, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	line.Overlap(scatter)

	return line
}
