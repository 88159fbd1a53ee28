package viz

import (
	"math"

	"github.com/san-kum/pendsim/internal/pendulum"
)

// Projector maps pendulum coordinates, with y pointing down, onto canvas
// sub-pixels. The pivot sits at (w/2, h/3) and Scale fits r1+r2 into the
// space below it.
type Projector struct {
	PivotX, PivotY int
	Scale          float64
}

func NewProjector(c *Canvas, p pendulum.Params) Projector {
	w, h := float64(c.Width*2), float64(c.Height*4)
	pr := Projector{
		PivotX: int(w / 2),
		PivotY: int(h / 3),
		Scale:  1,
	}

	reach := p.R1 + p.R2
	if reach > 0 && !math.IsInf(reach, 0) {
		room := math.Min(w/2, h*2/3) * 0.95
		pr.Scale = room / reach
	}
	return pr
}

// maxOffset bounds projected coordinates so line drawing stays cheap.
const maxOffset = 1 << 16

// Project returns the sub-pixel for pt. ok is false when pt is not finite or
// lies absurdly far off the canvas.
func (pr Projector) Project(pt pendulum.Point) (x, y int, ok bool) {
	px := pt.X * pr.Scale
	py := pt.Y * pr.Scale
	if !finite(px) || !finite(py) || math.Abs(px) > maxOffset || math.Abs(py) > maxOffset {
		return 0, 0, false
	}
	return pr.PivotX + int(math.Round(px)), pr.PivotY + int(math.Round(py)), true
}

// maxRadius caps bob radii; anything larger covers the whole canvas anyway.
const maxRadius = 512

// Radius converts a length in pendulum units into sub-pixels.
func (pr Projector) Radius(r float64) int {
	v := r * pr.Scale
	if !finite(v) || v < 0 {
		return 0
	}
	return int(math.Round(math.Min(v, maxRadius)))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
