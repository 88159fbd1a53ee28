package pendulum

import "math"

// Point is a position relative to the pivot, with y growing downward.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Snapshot holds the derived Cartesian bob positions for one instant.
type Snapshot struct {
	Tick uint64 `json:"tick"`
	Bob1 Point  `json:"bob1"`
	Bob2 Point  `json:"bob2"`
}

// Snapshot recomputes both bob positions from the current angles.
func (p *Pendulum) Snapshot() Snapshot {
	b1, b2 := Positions(p.params, p.A1, p.A2)
	return Snapshot{Tick: p.tick, Bob1: b1, Bob2: b2}
}

func Positions(p Params, a1, a2 float64) (bob1, bob2 Point) {
	bob1 = Point{X: p.R1 * math.Sin(a1), Y: p.R1 * math.Cos(a1)}
	bob2 = Point{X: bob1.X + p.R2*math.Sin(a2), Y: bob1.Y + p.R2*math.Cos(a2)}
	return
}
