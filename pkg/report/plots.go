package report

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/kaniacz/cruk-summer-school-2020/pkg/data"
	"github.com/kaniacz/cruk-summer-school-2020/pkg/pipeline"
)

var classColors = [2]color.RGBA{
	{R: 30, G: 110, B: 220, A: 255}, // Low
	{R: 220, G: 40, B: 40, A: 255},  // High
}

// plotSurvival draws the Kaplan-Meier curves of the predicted groups.
func plotSurvival(path string, part pipeline.Partition) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Kaplan-Meier (%s), log-rank p = %.3g", part.Name, part.LogRank.P)
	p.X.Label.Text = "Time"
	p.Y.Label.Text = "Metastasis-free survival"
	p.Y.Min, p.Y.Max = 0, 1.05
	p.Legend.Top = false

	for g, c := range part.Curves {
		if c == nil {
			continue
		}
		pts := make(plotter.XYs, len(c.Points))
		for i, pt := range c.Points {
			pts[i].X, pts[i].Y = pt.Time, pt.Survival
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		l.StepStyle = plotter.PostStep
		l.Color = classColors[g]
		l.LineStyle.Width = vg.Points(2)
		p.Add(l)
		p.Legend.Add(fmt.Sprintf("%s (n=%d)", c.Label, c.N), l)

		// censoring marks
		var cens plotter.XYs
		for _, pt := range c.Points {
			if pt.Censored > 0 {
				cens = append(cens, plotter.XY{X: pt.Time, Y: pt.Survival})
			}
		}
		if len(cens) == 0 {
			continue
		}
		s, err := plotter.NewScatter(cens)
		if err != nil {
			return err
		}
		s.GlyphStyle.Shape = draw.PlusGlyph{}
		s.Color = classColors[g]
		p.Add(s)
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// plotCorrelation scatters every sample's correlation with the Low template
// against the High template, coloured by true class. Points above the
// diagonal are predicted High.
func plotCorrelation(path string, part pipeline.Partition) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Template correlation (%s)", part.Name)
	p.X.Label.Text = "Correlation with Low template"
	p.Y.Label.Text = "Correlation with High template"

	var byClass [2]plotter.XYs
	for _, r := range part.Results {
		if math.IsNaN(r.CorLow) || math.IsNaN(r.CorHigh) {
			continue
		}
		byClass[r.True] = append(byClass[r.True], plotter.XY{X: r.CorLow, Y: r.CorHigh})
	}
	for g, pts := range byClass {
		if len(pts) == 0 {
			continue
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		s.Color = classColors[g]
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(s)
		p.Legend.Add("true "+data.Risk(g).String(), s)
	}

	diag, err := plotter.NewLine(plotter.XYs{{X: -1, Y: -1}, {X: 1, Y: 1}})
	if err != nil {
		return err
	}
	diag.Color = color.Gray{Y: 128}
	diag.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(diag)
	return p.Save(5*vg.Inch, 5*vg.Inch, path)
}
