// Command scalesweep runs one multi-scale search over a still image and
// plots the final score of every scale candidate against its scale.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"log/slog"
	"os"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/soocke/buoy-vision-go/assets"
	"github.com/soocke/buoy-vision-go/config"
	"github.com/soocke/buoy-vision-go/domain/match"
	"github.com/soocke/buoy-vision-go/domain/segment"
)

var (
	imagePath  = flag.String("image", "", "Image to search (png, jpeg, bmp, tiff)")
	outPath    = flag.String("out", "scalesweep.png", "Plot output path")
	shape      = flag.String("shape", "circle", "Template shape keyword")
	colorName  = flag.String("color", "orange", "Color profile keyword")
	candidates = flag.Int("candidates", 20, "Number of initial scales")
	scaleRange = flag.Float64("range", 200, "Maximum scale in percent of template size")
	threshold  = flag.Float64("threshold", 0.4, "Detection threshold")
	stride     = flag.Int("stride", 1, "Coarse correlation stride (>1 trades exactness for speed)")
)

func main() {
	flag.Parse()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	if *imagePath == "" {
		flag.Usage()
		os.Exit(2)
	}
	img, err := imaging.Open(*imagePath)
	if err != nil {
		logger.Error("open image", "error", err)
		os.Exit(1)
	}
	opts := match.Options{Candidates: *candidates, Range: *scaleRange, Threshold: *threshold, Saturation: config.DefaultConfig().SaturationScore}
	res, err := sweep(toRGBA(img), *shape, *colorName, opts, *stride)
	if err != nil {
		logger.Error("sweep", "error", err)
		os.Exit(1)
	}
	report(os.Stdout, res, opts.Threshold)
	if err := plotScores(res, opts.Threshold, *outPath); err != nil {
		logger.Error("plot", "error", err)
		os.Exit(1)
	}
	logger.Info("plot written", "path", *outPath)
}

func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

func sweep(frame *image.RGBA, shape, colorName string, opts match.Options, stride int) (match.Result, error) {
	tmpl, err := assets.Template(shape)
	if err != nil {
		return match.Result{}, err
	}
	mask, err := segment.Classify(frame, colorName)
	if err != nil {
		return match.Result{}, err
	}
	s, err := match.NewSearcher(tmpl, match.NewNCC(stride), opts)
	if err != nil {
		return match.Result{}, err
	}
	return s.Search(mask)
}

func report(w io.Writer, res match.Result, threshold float64) {
	fmt.Fprintf(w, "%-4s %-8s %-6s %-8s %-12s %s\n", "idx", "scale", "steps", "score", "center", "extent")
	for _, c := range res.Candidates {
		mark := ""
		if c.Score >= threshold {
			mark = " *"
		}
		fmt.Fprintf(w, "%-4d %-8.4f %-6d %-8.4f %-12v %v%s\n", c.Index, c.Scale, c.Steps, c.Score, c.Location, c.Extent, mark)
	}
	scores := res.Scores()
	mean, std := stat.MeanStdDev(scores, nil)
	fmt.Fprintf(w, "found=%v selected=%d center=%v score=%.4f mean=%.4f std=%.4f took=%v\n",
		res.Found, res.Selected, res.Center, res.Score, mean, std, res.Duration)
}

func plotScores(res match.Result, threshold float64, path string) error {
	p := plot.New()
	p.Title.Text = "Scale candidates"
	p.X.Label.Text = "scale"
	p.Y.Label.Text = "score"
	p.Y.Min, p.Y.Max = 0, 1

	pts := make(plotter.XYs, 0, len(res.Candidates))
	for _, c := range res.Candidates {
		pts = append(pts, plotter.XY{X: c.Scale, Y: c.Score})
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	scatter.GlyphStyle.Radius = vg.Points(3)
	p.Add(scatter)

	if len(pts) > 0 {
		limit, err := plotter.NewLine(plotter.XYs{{X: pts[0].X, Y: threshold}, {X: pts[len(pts)-1].X, Y: threshold}})
		if err != nil {
			return err
		}
		limit.Width = vg.Points(1)
		limit.Color = color.RGBA{R: 200, A: 255}
		p.Add(limit)
		p.Legend.Add("threshold", limit)
	}
	p.Add(plotter.NewGrid())
	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}
