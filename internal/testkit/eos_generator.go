package testkit

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"
)

// EOSOptions shapes a synthetic solver table. Zero range fields take the
// defaults of DefaultEOSOptions. Boundary and Noise are pointers so that an
// explicit 0 is kept; nil means default.
type EOSOptions struct {
	TMin     float64  `json:"t_min"`
	TMax     float64  `json:"t_max"`
	Boundary *float64 `json:"boundary,omitempty"` // rows with T above this are quark phase
	MuBMax   float64  `json:"mub_max"`
	YQMax    float64  `json:"yq_max"`
	Noise    *float64 `json:"noise,omitempty"` // std of the jitter between hadron and quark potentials
	// Header writes a leading comment line naming the columns.
	Header bool `json:"header"`
}

// Float64 returns a pointer to v for the optional EOSOptions fields.
func Float64(v float64) *float64 { return &v }

// DefaultEOSOptions spans T in [50, 250) MeV with the transition at 150.
func DefaultEOSOptions() EOSOptions {
	return EOSOptions{
		TMin:     50,
		TMax:     250,
		Boundary: Float64(150),
		MuBMax:   600,
		YQMax:    0.5,
		Noise:    Float64(5),
	}
}

func (o EOSOptions) withDefaults() EOSOptions {
	d := DefaultEOSOptions()
	if o.TMin == 0 && o.TMax == 0 {
		o.TMin, o.TMax = d.TMin, d.TMax
	}
	if o.Boundary == nil {
		o.Boundary = d.Boundary
	}
	if o.MuBMax == 0 {
		o.MuBMax = d.MuBMax
	}
	if o.YQMax == 0 {
		o.YQMax = d.YQMax
	}
	if o.Noise == nil {
		o.Noise = d.Noise
	}
	return o
}

// EOSColumns names the ten solver columns in file order.
var EOSColumns = []string{"YQ", "T", "F_quark", "F_hadron", "s", "p", "muB_Q", "muB_H", "muQ_Q", "muQ_H"}

// GenerateEOS returns rows in the solver layout. The quark free energy drops
// below the hadronic one exactly when T exceeds the boundary, so the label is
// a clean temperature cut.
func GenerateEOS(rows int, seed int64, opts EOSOptions) [][]float64 {
	o := opts.withDefaults()
	rng := rand.New(rand.NewSource(seed))
	boundary, noise := *o.Boundary, *o.Noise

	out := make([][]float64, rows)
	for i := range out {
		yq := rng.Float64() * o.YQMax
		t := o.TMin + rng.Float64()*(o.TMax-o.TMin)
		muBH := rng.Float64() * o.MuBMax
		muBQ := muBH + rng.NormFloat64()*noise
		muQH := -30*yq + rng.NormFloat64()*noise/5
		muQQ := muQH + rng.NormFloat64()*noise/5

		fHadron := -math.Pow(t, 4)/1e6 - muBH*muBH/2e3
		fQuark := fHadron - 0.5*(t-boundary)
		entropy := math.Pow(t, 3) / 1e4
		pressure := -fHadron

		out[i] = []float64{yq, t, fQuark, fHadron, entropy, pressure, muBQ, muBH, muQQ, muQH}
	}
	return out
}

// WriteEOS writes rows as a whitespace-delimited table.
func WriteEOS(w io.Writer, rows [][]float64, opts EOSOptions) error {
	bw := bufio.NewWriter(w)
	if opts.Header {
		if _, err := fmt.Fprintf(bw, "# %s\n", strings.Join(EOSColumns, " ")); err != nil {
			return err
		}
	}
	fields := make([]string, len(EOSColumns))
	for _, row := range rows {
		for j, v := range row {
			fields[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if _, err := bw.WriteString(strings.Join(fields[:len(row)], " ") + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteEOSFile generates a table and writes it to path.
func WriteEOSFile(path string, rows int, seed int64, opts EOSOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteEOS(f, GenerateEOS(rows, seed, opts), opts); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
