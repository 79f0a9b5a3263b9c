package testkit

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateEOS_Deterministic(t *testing.T) {
	a := GenerateEOS(50, 7, EOSOptions{})
	b := GenerateEOS(50, 7, EOSOptions{})
	c := GenerateEOS(50, 8, EOSOptions{})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestGenerateEOS_ExplicitZeroBoundaryAndNoise(t *testing.T) {
	rows := GenerateEOS(200, 4, EOSOptions{TMin: -100, TMax: 100, Boundary: Float64(0), Noise: Float64(0)})

	for _, r := range rows {
		temp, fq, fh := r[1], r[2], r[3]
		assert.Equal(t, fq < fh, temp > 0, "T=%g", temp)
		assert.Equal(t, r[7], r[6], "muB_Q must equal muB_H without noise")
		assert.Equal(t, r[9], r[8], "muQ_Q must equal muQ_H without noise")
	}
}

func TestGenerateEOS_LabelFollowsBoundary(t *testing.T) {
	rows := GenerateEOS(500, 1, EOSOptions{})
	require.Len(t, rows, 500)

	quark := 0
	for _, r := range rows {
		require.Len(t, r, len(EOSColumns))
		temp, fq, fh := r[1], r[2], r[3]
		assert.GreaterOrEqual(t, temp, 50.0)
		assert.Less(t, temp, 250.0)
		if fq < fh {
			quark++
			assert.Greater(t, temp, 150.0)
		} else {
			assert.LessOrEqual(t, temp, 150.0)
		}
	}
	assert.Greater(t, quark, 100)
	assert.Less(t, quark, 400)
}

func TestWriteEOS_Format(t *testing.T) {
	var buf bytes.Buffer
	rows := GenerateEOS(3, 2, EOSOptions{})
	require.NoError(t, WriteEOS(&buf, rows, EOSOptions{Header: true}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "# YQ T"))
	for _, line := range lines[1:] {
		assert.Len(t, strings.Fields(line), 10)
	}
}

func TestWriteEOSFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eos.dat")
	require.NoError(t, WriteEOSFile(path, 10, 3, EOSOptions{}))
	assert.FileExists(t, path)

	assert.Error(t, WriteEOSFile(filepath.Join(t.TempDir(), "missing", "eos.dat"), 10, 3, EOSOptions{}))
}
