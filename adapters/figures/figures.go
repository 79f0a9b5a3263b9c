// Package figures renders scatter projections of EOS tables as PNG files.
//
// The "3d_points" figures are 2D muB-T projections of the (muB, T, Y_Q) point
// cloud, with Y_Q shown as colour bands. The file names match the ones the
// plotting scripts have always produced.
package figures

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"eosphase/domain/core"
	"eosphase/domain/eos"
	"eosphase/internal"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Output file names.
const (
	HadronFile   = "3d_points_hadron.png"
	QuarkFile    = "3d_points_quark.png"
	PhaseMapFile = "phase_map.png"
)

// yqBands is the number of Y_Q colour bands in the projections.
const yqBands = 3

// Renderer writes the figure set for one record set.
type Renderer struct {
	width, height vg.Length
	logger        *internal.Logger
}

// NewRenderer creates a renderer producing 7.6x5.8 inch images.
func NewRenderer() *Renderer {
	return &Renderer{
		width:  7.6 * vg.Inch,
		height: 5.8 * vg.Inch,
		logger: internal.NewDefaultLogger("figures"),
	}
}

// WithLogger replaces the renderer's logger.
func (r *Renderer) WithLogger(logger *internal.Logger) *Renderer {
	r.logger = logger
	return r
}

// Render writes the hadron and quark muB-T projections and the phase map
// into outDir and returns the written paths.
func (r *Renderer) Render(rs *eos.RecordSet, outDir string) ([]string, error) {
	if err := rs.Require(eos.RequiredColumns()...); err != nil {
		return nil, err
	}
	if rs.Len() == 0 {
		return nil, core.NewInsufficientDataError("no rows to plot")
	}
	labeled, err := eos.AddPhaseLabel(rs)
	if err != nil {
		return nil, err
	}
	if labeled, err = eos.AddCombinedPotential(labeled); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", outDir, err)
	}

	col := func(name string) []float64 {
		v, _ := labeled.Column(name)
		return v
	}
	yq, temp := col(eos.ColYQ), col(eos.ColT)

	green := color.RGBA{G: 140, A: 255}
	red := color.RGBA{R: 200, A: 255}

	figs := []struct {
		file string
		plot func() (*plot.Plot, error)
	}{
		{HadronFile, func() (*plot.Plot, error) {
			return bandedScatter("Hadron", "μB [MeV]", col(eos.ColMuBH), temp, yq, green)
		}},
		{QuarkFile, func() (*plot.Plot, error) {
			return bandedScatter("Quark", "μB [MeV]", col(eos.ColMuBQ), temp, yq, red)
		}},
		{PhaseMapFile, func() (*plot.Plot, error) {
			return phaseMap(col(eos.ColMuHatH), temp, col(eos.ColPhase), green, red)
		}},
	}

	paths := make([]string, 0, len(figs))
	for _, fig := range figs {
		p, err := fig.plot()
		if err != nil {
			return paths, fmt.Errorf("plot %s: %w", fig.file, err)
		}
		path := filepath.Join(outDir, fig.file)
		if err := p.Save(r.width, r.height, path); err != nil {
			return paths, fmt.Errorf("save %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	r.logger.Info("wrote %d figures for %d rows to %s", len(paths), rs.Len(), outDir)
	return paths, nil
}

// bandedScatter plots x against T, shading points by Y_Q band from light to dark.
func bandedScatter(title, xLabel string, x, temp, yq []float64, base color.RGBA) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "T [MeV]"

	lo, hi := minMax(yq)
	bands := make([]plotter.XYs, yqBands)
	for i := range x {
		b := 0
		if hi > lo {
			b = int(float64(yqBands) * (yq[i] - lo) / (hi - lo))
			if b >= yqBands {
				b = yqBands - 1
			}
		}
		bands[b] = append(bands[b], plotter.XY{X: x[i], Y: temp[i]})
	}

	width := (hi - lo) / yqBands
	for b, pts := range bands {
		if len(pts) == 0 {
			continue
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		shade := base
		shade.A = uint8(110 + 145*(b+1)/yqBands)
		s.GlyphStyle.Color = shade
		s.GlyphStyle.Radius = vg.Points(1.6)
		p.Add(s)
		p.Legend.Add(fmt.Sprintf("Y_Q %.2f-%.2f", lo+float64(b)*width, lo+float64(b+1)*width), s)
	}
	p.Add(plotter.NewGrid())
	return p, nil
}

// phaseMap plots the combined hadronic potential against T, coloured by phase.
func phaseMap(muhat, temp, phase []float64, hadron, quark color.RGBA) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Phase map"
	p.X.Label.Text = "μ̂_H [MeV]"
	p.Y.Label.Text = "T [MeV]"

	var pts [2]plotter.XYs
	for i := range muhat {
		k := int(phase[i])
		pts[k] = append(pts[k], plotter.XY{X: muhat[i], Y: temp[i]})
	}
	for k, c := range []color.RGBA{hadron, quark} {
		if len(pts[k]) == 0 {
			continue
		}
		s, err := plotter.NewScatter(pts[k])
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Color = c
		s.GlyphStyle.Radius = vg.Points(1.6)
		p.Add(s)
		p.Legend.Add(eos.Phase(k).String(), s)
	}
	p.Add(plotter.NewGrid())
	return p, nil
}

func minMax(v []float64) (float64, float64) {
	lo, hi := v[0], v[0]
	for _, x := range v[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return lo, hi
}
