// ABOUTME: Bubbletea model for the tone status TUI
// ABOUTME: Defines display state and update logic for a running stream
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Model represents the TUI state
type Model struct {
	product string
	version string

	// Stream
	session    string
	host       string
	device     string
	sampleRate int
	channels   int
	format     string
	state      string

	// Stats
	frames    uint64
	errors    uint64
	lastError string
	elapsed   time.Duration
	duration  time.Duration

	done     bool
	quitting bool
	control  *Control

	// Dimensions
	width  int
	height int
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	case DoneMsg:
		m.done = true
		m.state = "stopped"
		return m, tea.Quit
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s %s", m.product, m.version)))
	b.WriteString("\n")
	b.WriteString(m.renderStream())
	b.WriteString(m.renderProgress())
	b.WriteString(m.renderStats())
	b.WriteString(labelStyle.Render("q: stop"))

	return boxStyle.Render(b.String()) + "\n"
}

// renderStream renders device and format
func (m Model) renderStream() string {
	if m.format == "" {
		return labelStyle.Render("Negotiating output device...") + "\n"
	}
	return fmt.Sprintf("%s %s/%s\n%s %dHz %s %s\n%s %s\n%s %s\n",
		labelStyle.Render("Device: "), m.host, m.device,
		labelStyle.Render("Format: "), m.sampleRate, channelName(m.channels), m.format,
		labelStyle.Render("State:  "), m.state,
		labelStyle.Render("Session:"), m.session)
}

// renderProgress renders elapsed time against the run duration
func (m Model) renderProgress() string {
	if m.duration <= 0 {
		return ""
	}
	bar := renderBar(int(m.elapsed.Milliseconds()), int(m.duration.Milliseconds()), 30)
	return fmt.Sprintf("[%s] %v / %v\n", bar, m.elapsed.Round(10*time.Millisecond), m.duration)
}

// renderStats renders frame and error counters
func (m Model) renderStats() string {
	s := fmt.Sprintf("%s %d  %s %d\n",
		labelStyle.Render("Frames:"), m.frames,
		labelStyle.Render("Errors:"), m.errors)
	if m.lastError != "" {
		s += errorStyle.Render("Last error: "+truncate(m.lastError, 48)) + "\n"
	}
	return s
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		m.control.requestStop()
		return m, tea.Quit
	}
	return m, nil
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Session != "" {
		m.session = msg.Session
	}
	if msg.Format != "" {
		m.host = msg.Host
		m.device = msg.Device
		m.sampleRate = msg.SampleRate
		m.channels = msg.Channels
		m.format = msg.Format
	}
	if msg.State != "" {
		m.state = msg.State
	}
	if msg.Duration != 0 {
		m.duration = msg.Duration
	}
	m.elapsed = msg.Elapsed
	m.frames = msg.Frames
	m.errors = msg.Errors
	if msg.LastError != "" {
		m.lastError = msg.LastError
	}
}

// StatusMsg updates TUI state
type StatusMsg struct {
	Session    string
	Host       string
	Device     string
	SampleRate int
	Channels   int
	Format     string
	State      string
	Frames     uint64
	Errors     uint64
	LastError  string
	Elapsed    time.Duration
	Duration   time.Duration
}

// DoneMsg tells the TUI the stream has finished
type DoneMsg struct{}

// Utility functions
func renderBar(value, max, width int) string {
	if max <= 0 {
		return strings.Repeat("░", width)
	}
	filled := (value * width) / max
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	switch channels {
	case 1:
		return "Mono"
	case 2:
		return "Stereo"
	default:
		return fmt.Sprintf("%dch", channels)
	}
}
