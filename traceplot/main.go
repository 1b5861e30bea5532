// Command traceplot renders a stabilityd simulation trace (CSV) into PNG
// charts for controller tuning: per-wheel brake multipliers, the throttle
// multiplier, and yaw-rate tracking.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

type trace struct {
	columns map[string]int
	rows    [][]float64
}

func main() {
	var (
		in     = flag.String("in", "trace.csv", "stabilityd CSV trace")
		outDir = flag.String("out", "plots", "output directory for PNG files")
	)
	flag.Parse()

	tr, err := loadTrace(*in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	charts := []struct {
		file   string
		title  string
		yLabel string
		series []string
	}{
		{
			file: "brakes.png", title: "Brake torque multipliers", yLabel: "multiplier",
			series: []string{"brake_mult_fl", "brake_mult_fr", "brake_mult_rl", "brake_mult_rr"},
		},
		{
			file: "throttle.png", title: "Throttle multiplier", yLabel: "multiplier",
			series: []string{"throttle_mult", "tcs_intervention"},
		},
		{
			file: "yaw.png", title: "Yaw-rate tracking", yLabel: "rad/s",
			series: []string{"desired_yaw_radps", "actual_yaw_radps", "yaw_error_radps"},
		},
	}

	for _, c := range charts {
		path := filepath.Join(*outDir, c.file)
		if err := renderChart(tr, c.title, c.yLabel, c.series, path); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s: %v\n", c.file, err)
			os.Exit(1)
		}
		fmt.Println("wrote", path)
	}
}

func loadTrace(path string) (*trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("trace %s has no data rows", path)
	}

	tr := &trace{columns: make(map[string]int, len(records[0]))}
	for i, name := range records[0] {
		tr.columns[name] = i
	}

	for _, rec := range records[1:] {
		row := make([]float64, len(rec))
		for i, cell := range rec {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("bad cell %q: %w", cell, err)
			}
			row[i] = v
		}
		tr.rows = append(tr.rows, row)
	}
	return tr, nil
}

func (tr *trace) series(name string) (plotter.XYs, error) {
	ti, ok := tr.columns["t_s"]
	if !ok {
		return nil, fmt.Errorf("trace missing t_s column")
	}
	ci, ok := tr.columns[name]
	if !ok {
		return nil, fmt.Errorf("trace missing %s column", name)
	}
	pts := make(plotter.XYs, len(tr.rows))
	for i, row := range tr.rows {
		pts[i].X = row[ti]
		pts[i].Y = row[ci]
	}
	return pts, nil
}

var palette = []color.Color{
	color.RGBA{R: 0xd6, G: 0x28, B: 0x28, A: 0xff},
	color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
}

func renderChart(tr *trace, title, yLabel string, names []string, outPath string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "t (s)"
	p.Y.Label.Text = yLabel
	p.Legend.Top = true

	for i, name := range names {
		pts, err := tr.series(name)
		if err != nil {
			return err
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = palette[i%len(palette)]
		p.Add(line)
		p.Legend.Add(name, line)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}

	c := vgimg.NewWith(
		vgimg.UseWH(10*vg.Inch, 5*vg.Inch),
		vgimg.UseDPI(150),
	)
	p.Draw(draw.New(c))

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	png := vgimg.PngCanvas{Canvas: c}
	if _, err := png.WriteTo(out); err != nil {
		return err
	}
	return nil
}
