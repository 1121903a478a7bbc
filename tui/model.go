package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/astrolul/tinydaw/config"
	"github.com/astrolul/tinydaw/sampler"
	"github.com/astrolul/tinydaw/theme"
	"github.com/astrolul/tinydaw/widgets"
)

// View identifies which screen is showing.
type View int

const (
	ViewMixer View = iota
	ViewMeter
	ViewAssign
)

var viewNames = map[View]string{
	ViewMixer:  "MIXER",
	ViewMeter:  "METER",
	ViewAssign: "ASSIGN",
}

const (
	volumeStep  = 0.05
	volBarWidth = 12
	vuBarWidth  = 20
	bigBarWidth = 40
)

type Model struct {
	Registry *sampler.Registry
	Theme    *theme.Theme

	tick     time.Duration
	view     View
	selected int

	// Modal assignment states. While either is up, the clock is paused:
	// no ticks reach the registry until the capture ends.
	capturingKey bool
	pathPrompt   bool
	pathBuf      string

	flash    string // UI-level status (assignment results)
	lastKey  string // raw key echo
	quitting bool
}

// TickMsg carries the scheduler tick timestamp.
type TickMsg time.Time

func NewModel(reg *sampler.Registry, th *theme.Theme, cfg *config.Config) Model {
	view := ViewMixer
	switch cfg.UI.StartView {
	case "meter":
		view = ViewMeter
	case "assign":
		view = ViewAssign
	}
	return Model{
		Registry: reg,
		Theme:    th,
		tick:     cfg.TickInterval(),
		view:     view,
	}
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tickCmd(m.tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TickMsg:
		if !m.capturingKey && !m.pathPrompt {
			m.Registry.Tick(time.Time(msg))
		}
		return m, tickCmd(m.tick)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	m.lastKey = key

	if key == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.capturingKey {
		return m.handleKeyCapture(msg)
	}
	if m.pathPrompt {
		return m.handlePathPrompt(msg)
	}

	switch key {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "tab":
		m.view = (m.view + 1) % 3

	case "f1":
		m.view = ViewMixer
	case "f2":
		m.view = ViewMeter
	case "f3":
		m.view = ViewAssign

	case "up":
		if m.selected > 0 {
			m.selected--
		}
	case "down":
		if m.selected < sampler.MaxChannels-1 {
			m.selected++
		}

	case "+", "=":
		m.Registry.AdjustVolume(m.selected, volumeStep)
	case "-", "_":
		m.Registry.AdjustVolume(m.selected, -volumeStep)

	case "t":
		m.Registry.CycleMode(m.selected)

	case "enter":
		if m.view == ViewAssign {
			m.capturingKey = true
			m.flash = ""
		}
	case "o":
		if m.view == ViewAssign {
			m.pathPrompt = true
			m.pathBuf = ""
			m.flash = ""
		}

	default:
		if r := []rune(key); len(r) == 1 {
			m.Registry.DispatchKey(int(r[0]), time.Now())
		}
	}
	return m, nil
}

// handleKeyCapture consumes the next key press as the selected channel's pad
// key. Esc cancels.
func (m Model) handleKeyCapture(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.capturingKey = false
		return m, nil
	}
	if r := []rune(msg.String()); len(r) == 1 {
		m.Registry.AssignKey(m.selected, int(r[0]))
		m.capturingKey = false
		m.flash = fmt.Sprintf("ch %d key set", m.selected+1)
	}
	return m, nil
}

// handlePathPrompt edits the clip path line. Enter commits, esc cancels.
func (m Model) handlePathPrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.pathPrompt = false
	case "enter":
		m.pathPrompt = false
		path := strings.TrimSpace(m.pathBuf)
		if path == "" {
			return m, nil
		}
		if err := m.Registry.AssignFile(m.selected, path); err != nil {
			m.flash = err.Error()
		} else {
			m.flash = fmt.Sprintf("ch %d: loaded %s", m.selected+1, path)
		}
	case "backspace":
		if len(m.pathBuf) > 0 {
			r := []rune(m.pathBuf)
			m.pathBuf = string(r[:len(r)-1])
		}
	default:
		if r := []rune(msg.String()); len(r) == 1 {
			m.pathBuf += string(r[0])
		} else if msg.String() == " " || msg.Type == tea.KeySpace {
			m.pathBuf += " "
		}
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent()).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	warnStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	header := headerStyle.Render(fmt.Sprintf("tinydaw  %s", viewNames[m.view]))

	snaps := m.Registry.Snapshots()
	var body string
	switch m.view {
	case ViewMixer:
		body = m.renderMixer(snaps)
	case ViewMeter:
		body = m.renderMeter(snaps)
	case ViewAssign:
		body = m.renderAssign(snaps)
	}

	status := m.flash
	if status == "" {
		status = m.Registry.Status()
	}
	statusLine := ""
	if status != "" {
		statusLine = warnStyle.Render(status)
	}
	if m.lastKey != "" {
		if statusLine != "" {
			statusLine += "  "
		}
		statusLine += dimStyle.Render("^" + m.lastKey)
	}

	help := dimStyle.Render(m.helpLine())

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(body)
	out.WriteString("\n")
	out.WriteString(statusLine)
	out.WriteString("\n\n")
	out.WriteString(help)
	return out.String()
}

func (m Model) helpLine() string {
	var keys []widgets.KeyBinding
	switch m.view {
	case ViewAssign:
		keys = []widgets.KeyBinding{
			{Key: "enter", Desc: "capture key"},
			{Key: "o", Desc: "set clip path"},
			{Key: "t", Desc: "mode"},
			{Key: "tab", Desc: "view"},
			{Key: "q", Desc: "quit"},
		}
	default:
		keys = []widgets.KeyBinding{
			{Key: "up/down", Desc: "select"},
			{Key: "+/-", Desc: "volume"},
			{Key: "t", Desc: "mode"},
			{Key: "tab", Desc: "view"},
			{Key: "f1/f2/f3", Desc: "mixer/meter/assign"},
			{Key: "q", Desc: "quit"},
		}
	}
	return widgets.RenderKeyHelp(keys)
}

func (m Model) renderMixer(snaps []sampler.Snapshot) string {
	cursorStyle := lipgloss.NewStyle().Foreground(m.Theme.Cursor())
	fgStyle := lipgloss.NewStyle().Foreground(m.Theme.FG())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())

	var out strings.Builder
	for _, s := range snaps {
		cursor := "  "
		if s.Index == m.selected {
			cursor = cursorStyle.Render(string(m.Theme.Symbols.Cursor)) + " "
		}

		pad := string(m.Theme.Symbols.PadIdle)
		nameStyle := dimStyle
		if s.HasResource {
			pad = string(m.Theme.Symbols.PadLoaded)
			nameStyle = fgStyle
		}

		vol := widgets.RenderBar(s.Volume, volBarWidth, m.Theme.Symbols.BarFill, m.Theme.Symbols.BarEmpty, fgStyle)
		vu := widgets.RenderLevelBar(s.VU, vuBarWidth, m.Theme.Symbols.BarFill, m.Theme.Symbols.BarEmpty, m.Theme.Color)

		out.WriteString(fmt.Sprintf("%s%d [%s] %s %s %s vol %s  %s\n",
			cursor,
			s.Index+1,
			s.Char,
			pad,
			nameStyle.Render(fmt.Sprintf("%-14s", truncate(s.Name, 14))),
			dimStyle.Render(fmt.Sprintf("%-7s", s.Mode)),
			vol,
			vu,
		))
	}
	return out.String()
}

func (m Model) renderMeter(snaps []sampler.Snapshot) string {
	cursorStyle := lipgloss.NewStyle().Foreground(m.Theme.Cursor())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())

	var out strings.Builder
	for _, s := range snaps {
		cursor := "  "
		if s.Index == m.selected {
			cursor = cursorStyle.Render(string(m.Theme.Symbols.Cursor)) + " "
		}
		bar := widgets.RenderLevelBar(s.VU, bigBarWidth, m.Theme.Symbols.BarFill, m.Theme.Symbols.BarEmpty, m.Theme.Color)
		out.WriteString(fmt.Sprintf("%s%d [%s] %s %3d%%\n",
			cursor, s.Index+1, s.Char, bar, int(s.VU*100+0.5)))
		out.WriteString(dimStyle.Render(fmt.Sprintf("        %s", truncate(s.Name, bigBarWidth))))
		out.WriteString("\n")
	}
	return out.String()
}

func (m Model) renderAssign(snaps []sampler.Snapshot) string {
	cursorStyle := lipgloss.NewStyle().Foreground(m.Theme.Cursor())
	fgStyle := lipgloss.NewStyle().Foreground(m.Theme.FG())
	accentStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())

	var out strings.Builder
	for _, s := range snaps {
		cursor := "  "
		if s.Index == m.selected {
			cursor = cursorStyle.Render(string(m.Theme.Symbols.Cursor)) + " "
		}
		name := s.Name
		if !s.HasResource {
			name = dimStyle.Render(name)
		} else {
			name = fgStyle.Render(name)
		}
		out.WriteString(fmt.Sprintf("%s%d  key [%s]  %s  %s\n",
			cursor, s.Index+1, accentStyle.Render(s.Char), dimStyle.Render(fmt.Sprintf("%-7s", s.Mode)), name))
	}

	if m.capturingKey {
		out.WriteString("\n")
		out.WriteString(accentStyle.Render(fmt.Sprintf("press a key for channel %d (esc cancels)", m.selected+1)))
		out.WriteString("\n")
	}
	if m.pathPrompt {
		out.WriteString("\n")
		out.WriteString(accentStyle.Render(fmt.Sprintf("clip path for channel %d: ", m.selected+1)))
		out.WriteString(fgStyle.Render(m.pathBuf + "_"))
		out.WriteString("\n")
	}
	return out.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
