// Package tui plays recorded choreography frames in the terminal.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/pipeflow/internal/capacity"
	"github.com/san-kum/pipeflow/internal/pipeline"
	"github.com/san-kum/pipeflow/internal/render"
)

const (
	panelWidth = 34
	scrubStep  = 10
	minCols    = 40
	minRows    = 10
)

type tickMsg time.Time

// Player is a bubbletea model stepping through frames at the recorded rate.
type Player struct {
	frames     []*pipeline.Frame
	throughput []float64
	canvas     *render.Canvas
	fps        int
	theme      Theme
	styles     styles

	index  int
	paused bool
	width  int
	height int
}

type Option func(*Player)

func WithTheme(t Theme) Option {
	return func(p *Player) {
		p.theme = t
		p.styles = newStyles(t)
	}
}

func WithSize(width, height int) Option {
	return func(p *Player) { p.width, p.height = width, height }
}

func NewPlayer(frames []*pipeline.Frame, fps int, opts ...Option) Player {
	if fps <= 0 {
		fps = 30
	}
	p := Player{
		frames: frames,
		fps:    fps,
		theme:  ThemeMinimal,
		styles: newStyles(ThemeMinimal),
		width:  120,
		height: 30,
	}
	for _, opt := range opts {
		opt(&p)
	}
	p.throughput = make([]float64, len(frames))
	for i, f := range frames {
		p.throughput[i] = float64(capacity.Throughput(f.Values()))
	}
	p.resize()
	return p
}

func (p *Player) resize() {
	cols := max(p.width-panelWidth-4, minCols)
	rows := max(p.height-2, minRows)
	p.canvas = render.NewCanvas(cols, rows)
}

func (p Player) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(p.fps), func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (p Player) Init() tea.Cmd { return p.tick() }

func (p Player) Index() int     { return p.index }
func (p Player) Paused() bool   { return p.paused }
func (p Player) Finished() bool { return p.index >= len(p.frames)-1 }

func (p Player) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return p.handleKey(msg)
	case tea.WindowSizeMsg:
		p.width, p.height = msg.Width, msg.Height
		p.resize()
		return p, nil
	case tickMsg:
		if !p.paused && !p.Finished() {
			p.index++
		}
		return p, p.tick()
	}
	return p, nil
}

func (p Player) handleKey(msg tea.KeyMsg) (Player, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return p, tea.Quit
	case " ", "p":
		p.paused = !p.paused
	case "left", "h":
		p.paused = true
		p.index = max(p.index-scrubStep, 0)
	case "right", "l":
		p.paused = true
		p.index = min(p.index+scrubStep, max(len(p.frames)-1, 0))
	case "home":
		p.paused = true
		p.index = 0
	case "end":
		p.paused = true
		p.index = max(len(p.frames)-1, 0)
	case "r":
		p.index = 0
		p.paused = false
	}
	return p, nil
}

func (p Player) current() *pipeline.Frame {
	if len(p.frames) == 0 {
		return nil
	}
	return p.frames[min(p.index, len(p.frames)-1)]
}

func (p Player) View() string {
	f := p.current()
	if f == nil {
		return p.styles.hint.Render("no frames recorded") + "\n"
	}
	if err := p.canvas.Draw(f); err != nil {
		return fmt.Sprintf("draw error: %v\n", err)
	}
	scene := p.canvas.Styled()
	return lipgloss.JoinHorizontal(lipgloss.Top, scene, p.panel(f))
}

func (p Player) panel(f *pipeline.Frame) string {
	s := p.styles
	var b strings.Builder

	status := "▶ playing"
	switch {
	case p.paused:
		status = "⏸ paused"
	case p.Finished():
		status = "■ done"
	}
	b.WriteString(s.title.Render("PIPEFLOW") + "  " + s.status.Render(status) + "\n\n")

	step := "intro"
	if f.Step > 0 {
		step = fmt.Sprintf("%d", f.Step)
	}
	b.WriteString(s.label.Render("step  ") + s.value.Render(step) + "\n")
	b.WriteString(s.label.Render("time  ") + s.value.Render(fmt.Sprintf("%.2fs", f.Time)) + "\n")
	b.WriteString(s.label.Render("frame ") + s.value.Render(fmt.Sprintf("%d/%d", p.index+1, len(p.frames))) + "\n\n")

	for _, st := range f.Stages {
		mark := "  "
		val := s.value.Render(fmt.Sprintf("%3d", st.Value))
		switch st.Highlight {
		case pipeline.Bottleneck:
			mark = s.bad.Render("▼ ")
			val = s.bad.Render(fmt.Sprintf("%3d", st.Value))
		case pipeline.Improved:
			mark = s.good.Render("▲ ")
			val = s.good.Render(fmt.Sprintf("%3d", st.Value))
		}
		b.WriteString(mark + s.label.Render(fmt.Sprintf("%-12s", st.Label.Content)) + val + "\n")
	}

	upto := p.throughput[:min(p.index+1, len(p.throughput))]
	b.WriteString("\n" + s.label.Render("throughput ") + s.value.Render(fmt.Sprintf("%.0f", upto[len(upto)-1])) + "\n")
	if len(upto) > 1 {
		b.WriteString(asciigraph.Plot(upto,
			asciigraph.Height(5),
			asciigraph.Width(panelWidth-14),
		) + "\n")
	}

	progress := float64(p.index+1) / float64(len(p.frames))
	b.WriteString("\n" + progressBar(progress, panelWidth-4) + "\n\n")
	b.WriteString(s.hint.Render("space pause  ←/→ scrub  r restart  q quit"))

	return s.panel.Width(panelWidth).Render(b.String())
}

// Run plays frames until the user quits.
func Run(frames []*pipeline.Frame, fps int, opts ...Option) error {
	_, err := tea.NewProgram(NewPlayer(frames, fps, opts...), tea.WithAltScreen()).Run()
	return err
}
