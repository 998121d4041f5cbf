package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Default chart geometry.
const (
	Width       = 10 * vg.Inch
	Height      = 5 * vg.Inch
	PanelHeight = 2.5 * vg.Inch
)

// WritePNG encodes p as a PNG image.
func WritePNG(w io.Writer, p *plot.Plot, width, height vg.Length) error {
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// WritePanels stacks plots vertically with aligned axes into one PNG.
func WritePanels(w io.Writer, plots []*plot.Plot, width, panelHeight vg.Length) error {
	if len(plots) == 0 {
		return ErrEmptyWindow
	}
	img := vgimg.New(width, vg.Length(len(plots))*panelHeight)
	dc := draw.New(img)
	grid := make([][]*plot.Plot, len(plots))
	for i, p := range plots {
		grid[i] = []*plot.Plot{p}
	}
	tiles := draw.Tiles{Rows: len(plots), Cols: 1, PadY: vg.Points(4)}
	canvases := plot.Align(grid, tiles, dc)
	for i, p := range plots {
		p.Draw(canvases[i][0])
	}
	_, err := vgimg.PngCanvas{Canvas: img}.WriteTo(w)
	return err
}

// SaveFile writes p to path; the extension selects the format.
func SaveFile(p *plot.Plot, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return p.Save(Width, Height, path)
}

// SavePanels writes stacked panels to a PNG file.
func SavePanels(plots []*plot.Plot, path string) error {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".png" {
		return fmt.Errorf("panels can only be written as png, got %q", ext)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePanels(f, plots, Width, PanelHeight); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
