// Package display provides the terminal countdown board using Bubble Tea.
//
// The board is a pull renderer: every tick re-observes the runtimes and
// draws whatever state they report. Tick frequency only affects how
// smooth the countdown looks, never its correctness.
package display

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kbenzar/stovewatch/internal/domain"
	"github.com/kbenzar/stovewatch/internal/timer"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bae6fd")).
			Bold(true)

	runStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fde68a"))

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fca5a5")).
			Bold(true)

	pausedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a1a1aa")).
			Italic(true)

	idleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))

	contextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a")).
			Italic(true)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbf7d0"))

	summaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#52525b"))
)

// keyMap defines the board's keybindings.
type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Start  key.Binding
	Pause  key.Binding
	Reset  key.Binding
	Source key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Start:  key.NewBinding(key.WithKeys("s", "enter"), key.WithHelp("s", "start")),
	Pause:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause")),
	Reset:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
	Source: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "show source")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// Board is the interactive countdown UI over one recipe's aggregator.
type Board struct {
	program *tea.Program
}

// NewBoard creates the board. Call Run() to start.
func NewBoard(title string, agg *timer.Aggregator) *Board {
	m := model{
		title:  title,
		agg:    agg,
		keys:   keys,
		width:  80,
		source: map[string]bool{},
	}
	b := &Board{}
	b.program = tea.NewProgram(m, tea.WithAltScreen())
	return b
}

// Run starts the Bubble Tea event loop. Blocks until quit.
func (b *Board) Run() error {
	_, err := b.program.Run()
	return err
}

type model struct {
	title  string
	agg    *timer.Aggregator
	keys   keyMap
	cursor int
	width  int
	source map[string]bool // timer id -> show context snippet
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return tickCmd()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tickMsg:
		m.agg.TickAll(context.Background())
		return m, tickCmd()

	case tea.KeyMsg:
		timers := m.agg.Timers()
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(timers)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Start):
			if rt := m.selected(timers); rt != nil {
				_ = rt.Start(context.Background())
			}
		case key.Matches(msg, m.keys.Pause):
			if rt := m.selected(timers); rt != nil {
				_ = rt.Pause(context.Background())
			}
		case key.Matches(msg, m.keys.Reset):
			if rt := m.selected(timers); rt != nil {
				rt.Reset(context.Background())
			}
		case key.Matches(msg, m.keys.Source):
			if rt := m.selected(timers); rt != nil {
				m.source[rt.ID()] = !m.source[rt.ID()]
			}
		}
	}
	return m, nil
}

func (m model) selected(timers []*timer.Runtime) *timer.Runtime {
	if m.cursor < 0 || m.cursor >= len(timers) {
		return nil
	}
	return timers[m.cursor]
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("  " + m.title))
	b.WriteString("\n\n")

	timers := m.agg.Timers()
	if len(timers) == 0 {
		b.WriteString(idleStyle.Render("  no timers detected"))
		b.WriteByte('\n')
	}

	for i, rt := range timers {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		b.WriteString(cursor + renderTimer(rt))
		b.WriteByte('\n')

		if m.source[rt.ID()] {
			if d, ok := m.agg.Descriptor(rt.ID()); ok {
				b.WriteString(contextStyle.Render("      " + d.Context))
				b.WriteByte('\n')
			}
		}
	}

	b.WriteByte('\n')
	b.WriteString(summaryStyle.Render(fmt.Sprintf("  %d running, %d completed",
		m.agg.RunningCount(), m.agg.CompletedCount())))
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("  ↑/↓ select · s start · p pause · r reset · o source · q quit"))
	b.WriteByte('\n')
	return b.String()
}

func renderTimer(rt *timer.Runtime) string {
	label := rt.Label()
	switch rt.Phase() {
	case domain.PhaseRunning:
		return label + "  " + runStyle.Render(fmtDuration(rt.Remaining()))
	case domain.PhasePaused:
		return label + "  " + pausedStyle.Render(fmtDuration(rt.Remaining())+" (paused)")
	case domain.PhaseCompleted:
		return label + "  " + doneStyle.Render("DONE!")
	default:
		return label + "  " + idleStyle.Render(fmtDuration(rt.Total()))
	}
}

func fmtDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
