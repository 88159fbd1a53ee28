package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/san-kum/pendsim/internal/pendulum"
	"github.com/san-kum/pendsim/internal/viz"
)

const svgHeader = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`

// CanvasToSVG draws every lit braille dot of canvas as a circle, scale
// pixels per sub-pixel.
func CanvasToSVG(w io.Writer, canvas *viz.Canvas, scale float64) error {
	if canvas == nil {
		return nil
	}

	width := int(float64(canvas.Width*2) * scale)
	height := int(float64(canvas.Height*4) * scale)

	var sb strings.Builder
	fmt.Fprintf(&sb, svgHeader, width, height, width, height)
	sb.WriteString("<g fill=\"#00ff00\">\n")

	dotRadius := scale * 0.4
	for y := 0; y < canvas.Height*4; y++ {
		for x := 0; x < canvas.Width*2; x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
		}
	}

	sb.WriteString("</g>\n</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// TrajectorySVG draws points as a polyline in pendulum coordinates, y
// pointing down, with both axes sharing one scale. Non-finite points break
// the line into separate segments. Fewer than two finite points yields an
// empty document.
func TrajectorySVG(w io.Writer, points []pendulum.Point, width, height int, stroke string) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, svgHeader, width, height, width, height)

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	finite := 0
	for _, p := range points {
		if !isFinite(p) {
			continue
		}
		finite++
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	if finite >= 2 {
		span := math.Max(maxX-minX, maxY-minY)
		if span == 0 {
			span = 1
		}
		span *= 1.2
		scale := math.Min(float64(width), float64(height)) / span
		midX, midY := (minX+maxX)/2, (minY+maxY)/2

		fmt.Fprintf(&sb, "<path fill=\"none\" stroke=\"%s\" stroke-width=\"1.5\" d=\"", stroke)
		pen := false
		for _, p := range points {
			if !isFinite(p) {
				pen = false
				continue
			}
			x := float64(width)/2 + (p.X-midX)*scale
			y := float64(height)/2 + (p.Y-midY)*scale
			cmd := "L"
			if !pen {
				cmd = "M"
			}
			fmt.Fprintf(&sb, "%s%.1f,%.1f ", cmd, x, y)
			pen = true
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func isFinite(p pendulum.Point) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}
