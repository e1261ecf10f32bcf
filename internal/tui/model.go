package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"framepress/internal/processor"
)

// Model renders conversion progress from a stream of ProgressUpdates and
// quits when the stream is closed.
type Model struct {
	updates        <-chan processor.ProgressUpdate
	started        time.Time
	width          int
	total          int
	converted      int
	errors         int
	originalBytes  int64
	convertedBytes int64
	quitting       bool
	interrupted    bool
}

type doneMsg struct{}

type updateMsg processor.ProgressUpdate

func NewModel(updates <-chan processor.ProgressUpdate) Model {
	return Model{updates: updates, started: time.Now()}
}

func (m Model) Init() tea.Cmd {
	return listenForUpdates(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg:
		m.total += msg.TotalDelta
		m.converted += msg.ConvertedDelta
		m.errors += msg.ErrorDelta
		m.originalBytes += msg.OriginalBytesDelta
		m.convertedBytes += msg.ConvertedBytesDelta
		return m, listenForUpdates(m.updates)
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			m.interrupted = true
			return m, tea.Quit
		}
		return m, nil
	default:
		return m, nil
	}
}

// Interrupted reports whether the user quit before the update stream closed.
func (m Model) Interrupted() bool {
	return m.interrupted
}

// Finished is the number of images that reached a terminal status.
func (m Model) Finished() int {
	return m.converted + m.errors
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	barWidth := 40
	if m.width > 0 {
		barWidth = int(math.Min(60, float64(m.width-10)))
		if barWidth < 20 {
			barWidth = 20
		}
	}

	ratio := 0.0
	if m.total > 0 {
		ratio = math.Min(1, float64(m.Finished())/float64(m.total))
	}

	elapsed := time.Since(m.started).Round(time.Millisecond)
	lines := []string{
		titleStyle.Render("framepress"),
		labelStyle.Render(fmt.Sprintf("Images: %d/%d", m.Finished(), m.total)) + dimStyle.Render(fmt.Sprintf("  errors:%d", m.errors)),
		labelStyle.Render(fmt.Sprintf("Size: %s -> %s", FormatBytes(m.originalBytes), FormatBytes(m.convertedBytes))),
		dimStyle.Render(fmt.Sprintf("Elapsed: %s", elapsed)),
		barStyle.Render(renderBar(barWidth, ratio)),
	}
	return strings.Join(lines, "\n")
}

func listenForUpdates(updates <-chan processor.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return doneMsg{}
		}
		return updateMsg(update)
	}
}

func renderBar(width int, ratio float64) string {
	filled := int(math.Round(ratio * float64(width)))
	filled = max(0, min(width, filled))
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}

// FormatBytes renders n with a binary unit suffix.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit && n > -unit {
		return fmt.Sprintf("%d B", n)
	}
	v := float64(n)
	suffixes := []string{"KiB", "MiB", "GiB", "TiB"}
	i := -1
	for math.Abs(v) >= unit && i < len(suffixes)-1 {
		v /= unit
		i++
	}
	return fmt.Sprintf("%.1f %s", v, suffixes[i])
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	labelStyle = lipgloss.NewStyle().Foreground(ColorInk)
	barStyle   = lipgloss.NewStyle().Foreground(ColorSuccess)
	dimStyle   = lipgloss.NewStyle().Foreground(ColorDim)
)
