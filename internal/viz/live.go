package viz

import (
	"fmt"
	"image"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/pendsim/internal/pendulum"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	gifPath         = "pendsim.gif"
)

// UpdateTickMsg advances the pendulum by one tick.
type UpdateTickMsg time.Time

// RenderTickMsg redraws the canvas from the latest snapshot.
type RenderTickMsg time.Time

type gifSavedMsg struct {
	path string
	err  error
}

// Options configures the live view.
type Options struct {
	Title            string
	Config           pendulum.Config
	Radius1, Radius2 float64
	TickHz, FPS      int
	Trail            int
	Theme            string
}

// Model is a bubbletea model running one pendulum. Simulation ticks and
// frames are driven by independent messages so the physics rate does not
// depend on the frame rate.
type Model struct {
	opts      Options
	pend      *pendulum.Pendulum
	canvas    *Canvas
	proj      Projector
	trail     *Trail
	theme     Theme
	styles    styles
	running   bool
	frame     string
	energy    []float64
	recording bool
	frames    []*image.Paletted
	status    string
}

func NewModel(opts Options) Model {
	if opts.TickHz <= 0 {
		opts.TickHz = 60
	}
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if opts.Title == "" {
		opts.Title = "double pendulum"
	}

	canvas := NewCanvas(width, height)
	theme := GetTheme(opts.Theme)
	m := Model{
		opts:    opts,
		pend:    pendulum.NewUnchecked(opts.Config),
		canvas:  canvas,
		proj:    NewProjector(canvas, opts.Config.Params),
		trail:   NewTrail(opts.Trail),
		theme:   theme,
		styles:  newStyles(theme),
		running: true,
		energy:  make([]float64, 0, historyCapacity),
	}
	m.render()
	return m
}

// Pendulum exposes the simulated pendulum for inspection.
func (m Model) Pendulum() *pendulum.Pendulum { return m.pend }

func (m Model) Running() bool { return m.running }

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.updateTick(), m.renderTick())
}

func (m Model) updateTick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.opts.TickHz), func(t time.Time) tea.Msg { return UpdateTickMsg(t) })
}

func (m Model) renderTick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.opts.FPS), func(t time.Time) tea.Msg { return RenderTickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "n":
			if !m.running {
				m.step()
				m.render()
			}
		case "r":
			m.reset()
			m.render()
		case "t":
			m.theme = nextTheme(m.theme)
			m.styles = newStyles(m.theme)
		case "g":
			if m.recording {
				frames := m.frames
				m.recording, m.frames = false, nil
				return m, saveGIF(frames, m.opts.FPS)
			}
			m.recording = true
			m.frames = make([]*image.Paletted, 0)
			m.status = "recording"
		}
	case UpdateTickMsg:
		if m.running {
			m.step()
		}
		return m, m.updateTick()
	case RenderTickMsg:
		m.render()
		if m.recording {
			m.frames = append(m.frames, m.canvas.Image(8, 16))
		}
		return m, m.renderTick()
	case gifSavedMsg:
		if msg.err != nil {
			m.status = "gif: " + msg.err.Error()
		} else {
			m.status = "saved " + msg.path
		}
	}
	return m, nil
}

func (m *Model) step() {
	m.pend.Advance()
	m.trail.Push(m.pend.Snapshot().Bob2)

	if e := m.pend.Energy(); finite(e) {
		m.energy = append(m.energy, e)
		if len(m.energy) > historyCapacity {
			m.energy = m.energy[1:]
		}
	}
}

func (m *Model) reset() {
	m.pend = pendulum.NewUnchecked(m.opts.Config)
	m.trail.Reset()
	m.energy = m.energy[:0]
}

func (m *Model) render() {
	m.canvas.Clear()
	DrawPendulum(m.canvas, m.proj, m.pend.Snapshot(), m.opts.Radius1, m.opts.Radius2, m.trail)
	m.frame = m.canvas.String()
}

func saveGIF(frames []*image.Paletted, fps int) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Create(gifPath)
		if err != nil {
			return gifSavedMsg{err: err}
		}
		defer f.Close()

		delay := 100 / fps
		if delay < 1 {
			delay = 1
		}
		if err := WriteGIF(f, frames, delay); err != nil {
			return gifSavedMsg{err: err}
		}
		return gifSavedMsg{path: gifPath}
	}
}

func (m Model) View() string {
	st := m.styles
	p := m.pend

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.opts.Title)) + "\n")

	status := "RUNNING"
	if !m.running {
		status = "PAUSED"
	}
	if m.recording {
		status += " " + st.alert.Render("● REC")
	}
	s.WriteString(status + "\n")
	if m.status != "" && !m.recording {
		s.WriteString(st.label.Render(m.status) + "\n")
	}
	if !p.IsFinite() {
		s.WriteString(st.alert.Render("state is no longer finite") + "\n")
	}

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Tick", fmt.Sprintf("%d", p.Tick()))
	row("a1", fmt.Sprintf("%+.4f", p.A1))
	row("a2", fmt.Sprintf("%+.4f", p.A2))
	row("v1", fmt.Sprintf("%+.5f", p.V1))
	row("v2", fmt.Sprintf("%+.5f", p.V2))
	row("Energy", fmt.Sprintf("%.3f", p.Energy()))
	row("Rate", fmt.Sprintf("%d Hz / %d fps", m.opts.TickHz, m.opts.FPS))

	s.WriteString(st.help.Render("SPC:Pause N:Step R:Reset\nT:Theme G:Record Q/Esc:Quit"))

	canvasView := st.canvas.Render(m.frame)
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.stats.Render(s.String()))
}
