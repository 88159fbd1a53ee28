package analysis

import (
	"math"
	"strings"

	"github.com/san-kum/pendsim/internal/dynamo"
)

type PhasePoint struct {
	X, Y float64
}

// PhasePortrait holds a 2D projection of a trajectory onto two state indices.
type PhasePortrait struct {
	XIndex, YIndex int
	Points         []PhasePoint
}

// GeneratePhasePortrait integrates x0 for the given number of ticks and
// records the (xIdx, yIdx) projection after each one.
func GeneratePhasePortrait(
	sys dynamo.System,
	integ dynamo.Integrator,
	x0 dynamo.State,
	xIdx, yIdx int,
	dt float64,
	ticks int,
) *PhasePortrait {
	if xIdx >= len(x0) || yIdx >= len(x0) {
		return nil
	}

	states := make([]dynamo.State, 0, ticks)
	x := x0.Clone()
	t := 0.0
	for i := 0; i < ticks; i++ {
		x = integ.Step(sys, x, t, dt)
		t += dt
		states = append(states, x)
	}

	return PortraitFromStates(states, xIdx, yIdx)
}

// PortraitFromStates projects already recorded states, such as a stored run.
func PortraitFromStates(states []dynamo.State, xIdx, yIdx int) *PhasePortrait {
	portrait := &PhasePortrait{
		XIndex: xIdx,
		YIndex: yIdx,
		Points: make([]PhasePoint, 0, len(states)),
	}
	for _, x := range states {
		if xIdx >= len(x) || yIdx >= len(x) {
			continue
		}
		portrait.Points = append(portrait.Points, PhasePoint{X: x[xIdx], Y: x[yIdx]})
	}
	return portrait
}

// PoincareSection records (recordX, recordY) each time state[crossIdx]
// crosses threshold going upward, linearly interpolated to the crossing.
func PoincareSection(states []dynamo.State, crossIdx int, threshold float64, recordX, recordY int) []PhasePoint {
	points := make([]PhasePoint, 0)
	for i := 1; i < len(states); i++ {
		prev, curr := states[i-1], states[i]
		if crossIdx >= len(curr) || recordX >= len(curr) || recordY >= len(curr) {
			continue
		}
		if !(prev[crossIdx] < threshold && curr[crossIdx] >= threshold) {
			continue
		}

		frac := (threshold - prev[crossIdx]) / (curr[crossIdx] - prev[crossIdx])
		if math.IsNaN(frac) || math.IsInf(frac, 0) {
			frac = 0.5
		}
		points = append(points, PhasePoint{
			X: prev[recordX] + frac*(curr[recordX]-prev[recordX]),
			Y: prev[recordY] + frac*(curr[recordY]-prev[recordY]),
		})
	}
	return points
}

// PhasePortraitToASCII scatters points on a width x height grid, drawing
// axes where zero is in range. Non-finite points are skipped.
func PhasePortraitToASCII(points []PhasePoint, width, height int) string {
	finite := make([]PhasePoint, 0, len(points))
	for _, p := range points {
		if isFinite(p.X) && isFinite(p.Y) {
			finite = append(finite, p)
		}
	}
	if len(finite) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := finite[0].X, finite[0].X
	minY, maxY := finite[0].Y, finite[0].Y
	for _, p := range finite {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}

	for _, p := range finite {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			grid[row][col] = '•'
		}
	}

	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if grid[row][col] == ' ' {
				grid[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if grid[row][col] == ' ' {
				grid[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range grid {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
