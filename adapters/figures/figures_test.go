package figures

import (
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"eosphase/domain/core"
	"eosphase/domain/eos"
	"eosphase/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *internal.Logger {
	return internal.NewLoggerTo(io.Discard, internal.LogLevelError, "figures")
}

func sampleRecords(t *testing.T, n int) *eos.RecordSet {
	t.Helper()
	cols := map[string][]float64{}
	for _, name := range eos.RequiredColumns() {
		cols[name] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		temp := 60 + float64(i)*180/float64(n)
		cols[eos.ColYQ][i] = 0.5 * float64(i%5) / 4
		cols[eos.ColT][i] = temp
		cols[eos.ColFHadron][i] = -temp
		cols[eos.ColFQuark][i] = -temp - (temp - 150)
		cols[eos.ColMuBH][i] = float64(i * 7 % 600)
		cols[eos.ColMuBQ][i] = float64(i*7%600) + 3
		cols[eos.ColMuQH][i] = -10
		cols[eos.ColMuQQ][i] = -11
	}
	rs, err := eos.NewRecordSet(eos.RequiredColumns(), cols, nil)
	require.NoError(t, err)
	return rs
}

func TestRender_WritesPNGs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "figs")
	paths, err := NewRenderer().WithLogger(quietLogger()).Render(sampleRecords(t, 60), dir)
	require.NoError(t, err)

	require.Equal(t, []string{
		filepath.Join(dir, HadronFile),
		filepath.Join(dir, QuarkFile),
		filepath.Join(dir, PhaseMapFile),
	}, paths)
	for _, p := range paths {
		f, err := os.Open(p)
		require.NoError(t, err)
		img, err := png.Decode(f)
		f.Close()
		require.NoError(t, err, p)
		assert.Greater(t, img.Bounds().Dx(), 100)
	}
}

func TestRender_Errors(t *testing.T) {
	empty, err := eos.NewRecordSet(eos.RequiredColumns(), map[string][]float64{
		eos.ColYQ: {}, eos.ColT: {}, eos.ColFQuark: {}, eos.ColFHadron: {},
		eos.ColMuBQ: {}, eos.ColMuBH: {}, eos.ColMuQQ: {}, eos.ColMuQH: {},
	}, nil)
	require.NoError(t, err)
	_, err = NewRenderer().WithLogger(quietLogger()).Render(empty, t.TempDir())
	assert.True(t, core.IsInsufficientDataError(err))

	_, err = NewRenderer().WithLogger(quietLogger()).Render(sampleRecords(t, 10).Without(eos.ColMuBQ), t.TempDir())
	assert.True(t, core.IsSchemaError(err))
}

func TestMinMax(t *testing.T) {
	lo, hi := minMax([]float64{3, -1, 7, 2})
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 7.0, hi)
}
