// Package ui draws the interactive progress view of multi-file builds.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"mcc/internal/buildpipeline"
)

// stageVerbs label a file while one of its stages runs.
var stageVerbs = map[buildpipeline.Stage]string{
	buildpipeline.StageParse:   "parsing",
	buildpipeline.StageLower:   "lowering",
	buildpipeline.StageCodegen: "generating",
	buildpipeline.StageRender:  "rendering",
	buildpipeline.StageWrite:   "writing",
}

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	styleOK      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleFailed  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	styleWorking = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	styleIdle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

const statusColumn = 12

// progressModel lists every input with its current stage above an overall
// progress bar. It quits when the event channel is closed.
type progressModel struct {
	title   string
	events  <-chan buildpipeline.Event
	spinner spinner.Model
	bar     progress.Model
	files   []fileState
	index   map[string]int
	build   string // build-wide stage label, e.g. "writing"
	width   int
	closed  bool
}

type fileState struct {
	path    string
	stage   buildpipeline.Stage
	status  buildpipeline.Status
	elapsed time.Duration
}

// label is what the status column shows.
func (f fileState) label() string {
	if f.status == buildpipeline.StatusWorking {
		return stageVerbs[f.stage]
	}
	return string(f.status)
}

func (f fileState) style() lipgloss.Style {
	switch f.status {
	case buildpipeline.StatusDone, buildpipeline.StatusCached:
		return styleOK
	case buildpipeline.StatusError:
		return styleFailed
	case buildpipeline.StatusWorking:
		return styleWorking
	}
	return styleIdle
}

// fraction estimates how far through the pipeline the file is.
func (f fileState) fraction() float64 {
	if f.status.Finished() {
		return 1
	}
	if f.status != buildpipeline.StatusWorking {
		return 0
	}
	// write runs once per build, so per-file work ends at render
	perFile := len(buildpipeline.Stages) - 1
	return (float64(f.stage.Index()) + 0.5) / float64(perFile)
}

type eventMsg buildpipeline.Event
type closedMsg struct{}

// NewProgressModel returns a Bubble Tea model fed by pipeline events.
func NewProgressModel(title string, files []string, events <-chan buildpipeline.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styleWorking

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 76

	m := &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		bar:     bar,
		files:   make([]fileState, len(files)),
		index:   make(map[string]int, len(files)),
		width:   80,
	}
	for i, file := range files {
		m.files[i] = fileState{path: file, stage: buildpipeline.StageParse, status: buildpipeline.StatusQueued}
		m.index[file] = i
	}
	return m
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.apply(buildpipeline.Event(msg)), m.next())
	case closedMsg:
		m.closed = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.closed {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = max(msg.Width-4, 10)
		}
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

// next waits for the following pipeline event.
func (m *progressModel) next() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) apply(ev buildpipeline.Event) tea.Cmd {
	if ev.File == "" {
		m.build = ""
		if ev.Status == buildpipeline.StatusWorking {
			m.build = stageVerbs[ev.Stage]
		}
		return nil
	}
	i, ok := m.index[ev.File]
	if !ok {
		return nil
	}
	f := &m.files[i]
	// a write failure after a finished compile still counts
	if f.status.Finished() && ev.Status != buildpipeline.StatusError {
		return nil
	}
	f.stage, f.status = ev.Stage, ev.Status
	if ev.Elapsed > 0 {
		f.elapsed = ev.Elapsed
	}
	return m.bar.SetPercent(m.percent())
}

func (m *progressModel) percent() float64 {
	if len(m.files) == 0 {
		return 0
	}
	var total float64
	for _, f := range m.files {
		total += f.fraction()
	}
	return total / float64(len(m.files))
}

// counts returns finished and failed files.
func (m *progressModel) counts() (finished, failed int) {
	for _, f := range m.files {
		if f.status.Finished() {
			finished++
		}
		if f.status == buildpipeline.StatusError {
			failed++
		}
	}
	return finished, failed
}

func (m *progressModel) View() string {
	if len(m.files) == 0 {
		return ""
	}
	finished, failed := m.counts()
	header := fmt.Sprintf("%s %d/%d", m.title, finished, len(m.files))
	if failed > 0 {
		header += fmt.Sprintf(", %d failed", failed)
	}
	if m.build != "" {
		header += " (" + m.build + ")"
	}
	if m.closed {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(styleTitle.Render(header))
	b.WriteString("\n\n")
	nameWidth := max(m.width-statusColumn-14, 20)
	for _, f := range m.files {
		status := f.style().Render(fmt.Sprintf("%*s", statusColumn, f.label()))
		fmt.Fprintf(&b, "  %s %s", status, truncate(f.path, nameWidth))
		if f.status.Finished() && f.elapsed > 0 {
			fmt.Fprintf(&b, " %s", styleIdle.Render(fmt.Sprintf("%.1fms", float64(f.elapsed)/float64(time.Millisecond))))
		}
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	if m.closed {
		b.WriteString(m.bar.ViewAs(1))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteByte('\n')
	return b.String()
}

// truncate shortens value to width display cells, keeping the file name end
// of a path visible.
func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return "..." + runewidth.TruncateLeft(value, runewidth.StringWidth(value)-width+3, "")
}
