package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/pendsim/internal/dynamo"
	"github.com/san-kum/pendsim/internal/experiment"
)

var ErrBadRange = errors.New("optim: bad range")

// Point is one evaluated grid cell.
type Point struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// ParseRange reads "min:max:n" into n evenly spaced values, or a single
// number into a one-value range.
func ParseRange(s string) ([]float64, error) {
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 1:
		v, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrBadRange, s, err)
		}
		return []float64{v}, nil
	case 3:
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err := errors.Join(err1, err2, err3); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrBadRange, s, err)
		}
		if n < 1 {
			return nil, fmt.Errorf("%w: %q needs at least one point", ErrBadRange, s)
		}
		if n == 1 {
			return []float64{lo}, nil
		}
		return floats.Span(make([]float64, n), lo, hi), nil
	}
	return nil, fmt.Errorf("%w: %q, want min:max:n", ErrBadRange, s)
}

// Cells enumerates every parameter combination in row-major order.
func (g *GridSearch) Cells() []map[string]float64 {
	cells := []map[string]float64{{}}
	for i, name := range g.paramNames {
		next := make([]map[string]float64, 0, len(cells)*len(g.ranges[i]))
		for _, cell := range cells {
			for _, v := range g.ranges[i] {
				c := make(map[string]float64, len(cell)+1)
				for k, cv := range cell {
					c[k] = cv
				}
				c[name] = v
				next = append(next, c)
			}
		}
		cells = next
	}
	return cells
}

// Search runs every cell concurrently and returns the evaluated points along
// with the one minimizing metricName. NaN metric values never win.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
) (best Point, points []Point, err error) {
	cells := g.Cells()
	points = make([]Point, len(cells))
	jobs := make([]dynamo.Job, 0, len(cells))
	index := make([]int, 0, len(cells))

	for i, cell := range cells {
		points[i] = Point{Params: cell, Value: math.NaN()}
		exp, err := buildExperiment(cell)
		if err != nil {
			points[i].Err = err
			continue
		}
		jobs = append(jobs, exp.Job(fmt.Sprint(i)))
		index = append(index, i)
	}

	for j, res := range dynamo.RunBatch(ctx, jobs) {
		p := &points[index[j]]
		if res.Err != nil {
			p.Err = res.Err
			continue
		}
		v, ok := res.Result.Metrics[metricName]
		if !ok {
			p.Err = fmt.Errorf("metric %q not recorded", metricName)
			continue
		}
		p.Value = v
	}

	bestIdx := -1
	for i, p := range points {
		if p.Err != nil || math.IsNaN(p.Value) {
			continue
		}
		if bestIdx < 0 || p.Value < points[bestIdx].Value {
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return Point{}, points, fmt.Errorf("no cell produced a finite %s", metricName)
	}
	return points[bestIdx], points, nil
}

// SortedKeys returns the parameter names of p in order.
func (p Point) SortedKeys() []string {
	keys := make([]string, 0, len(p.Params))
	for k := range p.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
