package viz

import "github.com/san-kum/pendsim/internal/pendulum"

// Trail keeps the most recent bob-2 positions, oldest first.
type Trail struct {
	max    int
	points []pendulum.Point
}

func NewTrail(max int) *Trail {
	if max < 0 {
		max = 0
	}
	return &Trail{max: max, points: make([]pendulum.Point, 0, max)}
}

func (t *Trail) Push(p pendulum.Point) {
	if t.max == 0 {
		return
	}
	if len(t.points) == t.max {
		copy(t.points, t.points[1:])
		t.points = t.points[:t.max-1]
	}
	t.points = append(t.points, p)
}

func (t *Trail) Points() []pendulum.Point { return t.points }

func (t *Trail) Len() int { return len(t.points) }

func (t *Trail) Reset() { t.points = t.points[:0] }

// DrawPendulum renders the trail, both rods and both bobs of snap. Parts
// whose coordinates are not finite are skipped.
func DrawPendulum(c *Canvas, pr Projector, snap pendulum.Snapshot, radius1, radius2 float64, trail *Trail) {
	if trail != nil {
		for _, pt := range trail.Points() {
			if x, y, ok := pr.Project(pt); ok {
				c.Set(x, y)
			}
		}
	}

	c.Set(pr.PivotX, pr.PivotY)

	b1x, b1y, ok1 := pr.Project(snap.Bob1)
	b2x, b2y, ok2 := pr.Project(snap.Bob2)
	if ok1 {
		c.DrawLine(pr.PivotX, pr.PivotY, b1x, b1y)
	}
	if ok1 && ok2 {
		c.DrawLine(b1x, b1y, b2x, b2y)
	}
	if ok1 {
		c.FillCircle(b1x, b1y, pr.Radius(radius1))
	}
	if ok2 {
		c.FillCircle(b2x, b2y, pr.Radius(radius2))
	}
}
