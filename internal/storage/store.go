package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/pendsim/internal/dynamo"
	"github.com/san-kum/pendsim/internal/pendulum"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

var csvHeader = []string{"tick", "a1", "a2", "v1", "v2", "x1", "y1", "x2", "y2"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Run describes what produced a result.
type Run struct {
	Preset     string
	Integrator string
	Config     pendulum.Config
	Render     Render
}

// Render holds the drawing settings a run was made with. Zero radii mean
// "use the masses".
type Render struct {
	Radius1 Number `json:"radius1"`
	Radius2 Number `json:"radius2"`
}

// Radii returns the bob radii for drawing p, falling back to the masses.
func (r Render) Radii(p pendulum.Params) (float64, float64) {
	r1, r2 := float64(r.Radius1), float64(r.Radius2)
	if !(r1 > 0) {
		r1 = p.M1
	}
	if !(r2 > 0) {
		r2 = p.M2
	}
	return r1, r2
}

type RunMetadata struct {
	ID         string            `json:"id"`
	Preset     string            `json:"preset"`
	Timestamp  time.Time         `json:"timestamp"`
	Integrator string            `json:"integrator"`
	Ticks      int               `json:"ticks"`
	Params     Params            `json:"params"`
	Initial    Initial           `json:"initial"`
	Render     Render            `json:"render"`
	Metrics    map[string]Number `json:"metrics"`
	Errors     []string          `json:"errors,omitempty"`
}

type Params struct {
	R1 Number `json:"r1"`
	R2 Number `json:"r2"`
	M1 Number `json:"m1"`
	M2 Number `json:"m2"`
}

type Initial struct {
	A1 Number `json:"a1"`
	A2 Number `json:"a2"`
	V1 Number `json:"v1"`
	V2 Number `json:"v2"`
}

func (p Params) Pendulum() pendulum.Params {
	return pendulum.Params{R1: float64(p.R1), R2: float64(p.R2), M1: float64(p.M1), M2: float64(p.M2)}
}

// Record is one stored tick: the [a1, a2, v1, v2] state plus the derived bob
// positions.
type Record struct {
	Tick           int
	A1, A2, V1, V2 float64
	Bob1, Bob2     pendulum.Point
}

func (r Record) Vector() dynamo.State {
	return dynamo.State{r.A1, r.A2, r.V1, r.V2}
}

func (s *Store) Save(run Run, result *dynamo.Result) (*RunMetadata, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", run.Preset, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, err
	}

	cfg := run.Config
	meta := &RunMetadata{
		ID:         runID,
		Preset:     run.Preset,
		Timestamp:  now,
		Integrator: run.Integrator,
		Ticks:      result.StepsTaken,
		Params:     Params{R1: Number(cfg.R1), R2: Number(cfg.R2), M1: Number(cfg.M1), M2: Number(cfg.M2)},
		Initial:    Initial{A1: Number(cfg.A1), A2: Number(cfg.A2), V1: Number(cfg.V1), V2: Number(cfg.V2)},
		Render:     run.Render,
		Metrics:    make(map[string]Number, len(result.Metrics)),
	}
	for k, v := range result.Metrics {
		meta.Metrics[k] = Number(v)
	}
	for _, err := range result.Errors {
		meta.Errors = append(meta.Errors, err.Error())
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return nil, err
	}
	if err := writeStates(filepath.Join(runDir, statesFile), cfg.Params, result); err != nil {
		return nil, err
	}

	return meta, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeStates(path string, params pendulum.Params, result *dynamo.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for i, x := range result.States {
		if len(x) < 4 {
			return fmt.Errorf("%w: state %d has %d entries", dynamo.ErrDimensionMismatch, i, len(x))
		}
		b1, b2 := pendulum.Positions(params, x[0], x[1])
		row := []string{
			strconv.Itoa(result.Ticks[i]),
			formatFloat(x[0]), formatFloat(x[1]), formatFloat(x[2]), formatFloat(x[3]),
			formatFloat(b1.X), formatFloat(b1.Y), formatFloat(b2.X), formatFloat(b2.Y),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode %s metadata: %w", runID, err)
	}

	return &meta, nil
}

func (s *Store) LoadStates(runID string) ([]Record, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(csvHeader)

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s states: %w", runID, err)
	}
	if len(rows) < 2 {
		return []Record{}, nil
	}

	records := make([]Record, 0, len(rows)-1)
	for line, row := range rows[1:] {
		tick, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", runID, line+2, err)
		}

		var vals [8]float64
		for j := range vals {
			vals[j], err = strconv.ParseFloat(row[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", runID, line+2, err)
			}
		}

		records = append(records, Record{
			Tick: tick,
			A1:   vals[0], A2: vals[1], V1: vals[2], V2: vals[3],
			Bob1: pendulum.Point{X: vals[4], Y: vals[5]},
			Bob2: pendulum.Point{X: vals[6], Y: vals[7]},
		})
	}

	return records, nil
}
