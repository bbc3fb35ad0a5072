package main

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/buoy-vision-go/domain/match"
)

func orangeDisc(w, h, cx, cy, r int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{20, 40, 80, 255}
			if (x-cx)*(x-cx)+(y-cy)*(y-cy) <= r*r {
				c = color.RGBA{240, 120, 30, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestSweepFindsDisc(t *testing.T) {
	frame := orangeDisc(64, 48, 32, 24, 8)
	opts := match.Options{Candidates: 4, Range: 40, Threshold: 0.4, Saturation: 0.95, Workers: 2}
	res, err := sweep(frame, "circle", "orange", opts, 1)
	require.NoError(t, err)
	require.Len(t, res.Candidates, 4)
	assert.True(t, res.Found)

	var buf bytes.Buffer
	report(&buf, res, opts.Threshold)
	assert.Contains(t, buf.String(), "found=true")

	out := filepath.Join(t.TempDir(), "sweep.png")
	require.NoError(t, plotScores(res, opts.Threshold, out))
	st, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, st.Size())
}

func TestSweepUnknownKeywords(t *testing.T) {
	frame := orangeDisc(40, 40, 20, 20, 5)
	opts := match.Options{Candidates: 2, Range: 50, Threshold: 0.4}
	_, err := sweep(frame, "hexagon", "orange", opts, 1)
	assert.Error(t, err)
	_, err = sweep(frame, "circle", "purple", opts, 1)
	assert.Error(t, err)
}
