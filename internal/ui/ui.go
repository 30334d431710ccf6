package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/battmon/internal/format"
	"github.com/Dicklesworthstone/battmon/internal/model"
)

// Model renders live snapshots from the sampler.
type Model struct {
	latest   model.Snapshot
	received bool
	stream   <-chan model.Snapshot
	cancel   context.CancelFunc
	capacity progress.Model
	width    int
	height   int
}

// New renders snapshots from stream; cancel stops the sampler on quit.
func New(stream <-chan model.Snapshot, cancel context.CancelFunc) *Model {
	return &Model{
		latest:   model.Zero(),
		stream:   stream,
		cancel:   cancel,
		capacity: progress.New(progress.WithDefaultGradient(), progress.WithWidth(28)),
		width:    100,
		height:   30,
	}
}

// Messages
type (
	tickMsg struct{}
)

func tickCmd() tea.Cmd { return tea.Tick(time.Second/5, func(time.Time) tea.Msg { return tickMsg{} }) }

func (m *Model) Init() tea.Cmd { return tickCmd() }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancel()
			return m, tea.Quit
		}
	case tickMsg:
		select {
		case snap, ok := <-m.stream:
			if !ok {
				return m, tea.Quit
			}
			m.latest = snap
			m.received = true
		default:
		}
		return m, tickCmd()
	}
	return m, nil
}

// Styles
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	gaugeFill   = "█"
	gaugeEmpty  = "░"
	cardStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("60")).
			Padding(0, 1).
			MarginRight(1)
)

func (m *Model) View() string {
	s := m.latest
	if !m.received {
		return titleStyle.Render("battmon") + "  " + subtleStyle.Render("waiting for first sample…")
	}

	header := titleStyle.Render(format.Title(s)) + "  " +
		subtleStyle.Render(s.Timestamp.Format("Mon Jan 2 15:04:05"))

	l := s.Latest()
	if l == nil {
		return header
	}
	b := l.Battery

	state := "on battery"
	if b.Connected {
		state = "on power"
	}
	battCard := card("Battery", strings.Join([]string{
		m.capacity.ViewAs(b.Capacity),
		fmt.Sprintf("%s, %s remaining", state, format.Duration(b.TimeRemaining)),
		fmt.Sprintf("%.2f V  %d mA  %s", float64(b.VoltageMV)/1000, b.AmperageMA, format.Temp(b.TempC)),
	}, "\n"))

	powerCard := card("Power", fmt.Sprintf("%s  change %s W",
		format.Watts(b.Watts), format.Delta(s.Derived.WattsDelta)))

	cpuCard := card("CPU", cpuLine(s.Derived.CPUUsage, 28))

	winCard := card("Window", windowLines(s.Window, s.Timestamp))

	line1 := lipgloss.JoinHorizontal(lipgloss.Top, battCard, powerCard)
	line2 := lipgloss.JoinHorizontal(lipgloss.Top, cpuCard, winCard)
	footer := subtleStyle.Render(fmt.Sprintf("every %s · q to quit", s.Interval))

	return lipgloss.JoinVertical(lipgloss.Left, header, line1, line2, footer)
}

func cpuLine(usage *float64, width int) string {
	if usage == nil {
		return fmt.Sprintf("[%s] %5s", strings.Repeat(gaugeEmpty, width), format.Placeholder)
	}
	return gaugeBar(*usage*100, width)
}

// windowLines shows how old each anchor is relative to now.
func windowLines(w model.Window, now time.Time) string {
	age := func(s *model.Sample) string {
		if s == nil {
			return format.Placeholder
		}
		return now.Sub(s.Time).Round(time.Second).String()
	}
	return fmt.Sprintf("previous %s\nnext     %s\nlatest   %s",
		age(w.Previous), age(w.Next), age(w.Latest))
}

// Helpers
func gaugeBar(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int((pct / 100) * float64(width))
	if filled > width {
		filled = width
	}
	return fmt.Sprintf("[%s%s] %5.1f%%",
		strings.Repeat(gaugeFill, filled),
		strings.Repeat(gaugeEmpty, width-filled),
		pct)
}

func card(title, body string) string {
	titleStr := labelStyle.Render(title)
	content := titleStr + "\n" + body
	return cardStyle.Render(content)
}

// Run starts the Bubble Tea program and blocks until the user quits.
func Run(ctx context.Context, m *Model) error {
	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := prog.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
