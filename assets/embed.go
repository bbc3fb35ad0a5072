package assets

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"sort"
	"strings"
)

// templateFS holds one grayscale PNG template per shape keyword.
//
//go:embed *.png
var templateFS embed.FS

// ErrUnknownShape is returned for a shape keyword with no embedded template.
var ErrUnknownShape = errors.New("unknown shape")

// Shapes lists the available shape keywords in sorted order.
func Shapes() []string {
	entries, err := templateFS.ReadDir(".")
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".png"); ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// TemplatePNG returns the raw PNG bytes for a shape keyword.
func TemplatePNG(shape string) ([]byte, error) {
	data, err := templateFS.ReadFile(shape + ".png")
	if err != nil || strings.ContainsAny(shape, "/.") {
		return nil, fmt.Errorf("%w %q (have %s)", ErrUnknownShape, shape, strings.Join(Shapes(), ", "))
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("embedded %s.png is empty", shape)
	}
	return data, nil
}

// Template decodes the shape template into a zero-origin grayscale image.
func Template(shape string) (*image.Gray, error) {
	data, err := TemplatePNG(shape)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s.png: %w", shape, err)
	}
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g, nil
	}
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)
	return g, nil
}
