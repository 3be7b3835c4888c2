package outwriter

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/acfperiod/schema"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Plot colors.
var (
	rawACFColor      = color.RGBA{R: 160, G: 160, B: 160, A: 255}
	smoothedACFColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	peakColor        = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	periodColor      = color.RGBA{R: 44, G: 160, B: 44, A: 255}
)

// WriteACFPlots saves one ACF plot per result into dir as <name>.acf.<format>.
// Format is png or svg.
func WriteACFPlots(results []schema.PeriodResult, dir, format string) error {
	format = strings.ToLower(format)
	if format == "" {
		format = "png"
	}
	if format != "png" && format != "svg" {
		return fmt.Errorf("unsupported plot format: %s", format)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create plot directory %s: %w", dir, err)
	}

	for _, r := range results {
		p, err := newACFPlot(r)
		if err != nil {
			return fmt.Errorf("failed to build plot for %s: %w", r.Name, err)
		}
		file := filepath.Join(dir, plotFileName(r.Name, format))
		if err := p.Save(10*vg.Inch, 4*vg.Inch, file); err != nil {
			return fmt.Errorf("failed to save plot %s: %w", file, err)
		}
	}
	fmt.Fprintf(os.Stderr, "📈 Wrote %d ACF plots to %s\n", len(results), dir)
	return nil
}

// plotFileName builds a file name that is safe on every platform.
func plotFileName(name, format string) string {
	if name == "" {
		name = "series"
	}
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, name)
	return clean + ".acf." + format
}

// newACFPlot draws the raw and smoothed ACF over lag time, the considered
// maxima, and a vertical line at the best period.
func newACFPlot(r schema.PeriodResult) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s: period %.4g (%s)", r.Name, r.BestPeriod, schema.GetPlainLabel(r))
	p.X.Label.Text = "Lag"
	p.Y.Label.Text = "ACF"
	p.Legend.Top = true

	rawPts := make(plotter.XYs, 0, len(r.ACF))
	smoothPts := make(plotter.XYs, 0, len(r.SmoothedACF))
	for i, x := range r.Periods {
		if i < len(r.ACF) && schema.IsFinite(r.ACF[i]) {
			rawPts = append(rawPts, plotter.XY{X: x, Y: r.ACF[i]})
		}
		if i < len(r.SmoothedACF) && schema.IsFinite(r.SmoothedACF[i]) {
			smoothPts = append(smoothPts, plotter.XY{X: x, Y: r.SmoothedACF[i]})
		}
	}

	if len(rawPts) > 0 {
		rawLine, err := plotter.NewLine(rawPts)
		if err != nil {
			return nil, err
		}
		rawLine.Color = rawACFColor
		rawLine.Width = vg.Points(1)
		p.Add(rawLine)
		p.Legend.Add("acf", rawLine)
	}

	if len(smoothPts) > 0 {
		smoothLine, err := plotter.NewLine(smoothPts)
		if err != nil {
			return nil, err
		}
		smoothLine.Color = smoothedACFColor
		smoothLine.Width = vg.Points(1.5)
		p.Add(smoothLine)
		p.Legend.Add("smoothed", smoothLine)
	}

	considered := r.Peaks.Considered()
	if len(considered) > 0 {
		peakPts := make(plotter.XYs, len(considered))
		for i, m := range considered {
			peakPts[i] = plotter.XY{X: float64(m.Lag) * r.Cadence, Y: m.Value}
		}
		scatter, err := plotter.NewScatter(peakPts)
		if err != nil {
			return nil, err
		}
		scatter.GlyphStyle.Color = peakColor
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		scatter.GlyphStyle.Radius = vg.Points(3)
		p.Add(scatter)
		p.Legend.Add("peaks", scatter)
	}

	if schema.IsFinite(r.BestPeriod) && len(smoothPts) > 0 {
		yMin, yMax := smoothPts[0].Y, smoothPts[0].Y
		for _, pt := range smoothPts {
			yMin = min(yMin, pt.Y)
			yMax = max(yMax, pt.Y)
		}
		marker, err := plotter.NewLine(plotter.XYs{{X: r.BestPeriod, Y: yMin}, {X: r.BestPeriod, Y: yMax}})
		if err != nil {
			return nil, err
		}
		marker.Color = periodColor
		marker.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(marker)
		p.Legend.Add("period", marker)
	}

	return p, nil
}
