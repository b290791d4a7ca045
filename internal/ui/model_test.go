// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests status updates, message handling, and quit signalling
package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestNewModel(t *testing.T) {
	model := NewModel("resonate-tone", "1.0.0", nil)

	if model.state != "uninitialized" {
		t.Errorf("expected initial state 'uninitialized', got '%s'", model.state)
	}
	if model.frames != 0 {
		t.Errorf("expected no frames initially, got %d", model.frames)
	}
	if model.done || model.quitting {
		t.Error("expected a fresh model to be running")
	}
}

func TestStatusMsgStreamInfo(t *testing.T) {
	model := NewModel("p", "v", nil)

	model.applyStatus(StatusMsg{
		Session:    "abc",
		Host:       "headless",
		Device:     "null",
		SampleRate: 44100,
		Channels:   2,
		Format:     "i16",
		State:      "streaming",
	})

	if model.host != "headless" || model.device != "null" {
		t.Errorf("unexpected host/device %s/%s", model.host, model.device)
	}
	if model.sampleRate != 44100 {
		t.Errorf("expected sampleRate 44100, got %d", model.sampleRate)
	}
	if model.channels != 2 {
		t.Errorf("expected channels 2, got %d", model.channels)
	}
	if model.format != "i16" {
		t.Errorf("expected format 'i16', got '%s'", model.format)
	}
	if model.state != "streaming" {
		t.Errorf("expected state 'streaming', got '%s'", model.state)
	}
	if model.session != "abc" {
		t.Errorf("expected session 'abc', got '%s'", model.session)
	}
}

func TestStatusMsgStatsAndErrors(t *testing.T) {
	model := NewModel("p", "v", nil)

	model.applyStatus(StatusMsg{Frames: 4800, Errors: 1, LastError: "underrun"})
	model.applyStatus(StatusMsg{Frames: 9600, Errors: 1})

	if model.frames != 9600 {
		t.Errorf("expected frames 9600, got %d", model.frames)
	}
	if model.errors != 1 {
		t.Errorf("expected errors 1, got %d", model.errors)
	}
	if model.lastError != "underrun" {
		t.Errorf("last error should persist, got '%s'", model.lastError)
	}
}

func TestStatusMsgKeepsStreamInfo(t *testing.T) {
	model := NewModel("p", "v", nil)
	model.applyStatus(StatusMsg{Format: "f32", SampleRate: 48000, Channels: 2})
	model.applyStatus(StatusMsg{Frames: 10})

	if model.format != "f32" || model.sampleRate != 48000 {
		t.Error("stats-only update should not clear stream info")
	}
}

func TestQuitKeySignalsControl(t *testing.T) {
	control := NewControl()
	model := NewModel("p", "v", control)

	updated, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if !updated.(Model).quitting {
		t.Error("expected model to be quitting")
	}

	select {
	case <-control.Quit:
	default:
		t.Fatal("expected Quit channel to be closed")
	}

	// A second quit must not panic on the closed channel
	model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
}

func TestQuitWithoutControl(t *testing.T) {
	model := NewModel("p", "v", nil)
	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Error("expected quit command")
	}
}

func TestDoneMsgQuits(t *testing.T) {
	model := NewModel("p", "v", nil)
	updated, cmd := model.Update(DoneMsg{})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	m := updated.(Model)
	if !m.done || m.state != "stopped" {
		t.Errorf("expected done and stopped, got done=%v state=%s", m.done, m.state)
	}
}

func TestWindowSize(t *testing.T) {
	model := NewModel("p", "v", nil)
	updated, _ := model.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m := updated.(Model)
	if m.width != 80 || m.height != 24 {
		t.Errorf("expected 80x24, got %dx%d", m.width, m.height)
	}
}

func TestViewRendersStatus(t *testing.T) {
	model := NewModel("resonate-tone", "1.0.0", nil)

	if !strings.Contains(model.View(), "Negotiating") {
		t.Error("expected negotiating placeholder before stream info")
	}

	model.applyStatus(StatusMsg{
		Host:       "oto",
		Device:     "default",
		SampleRate: 48000,
		Channels:   2,
		Format:     "f32",
		State:      "streaming",
		Frames:     12345,
		Elapsed:    500 * time.Millisecond,
		Duration:   time.Second,
		LastError:  "device disconnected",
	})

	view := model.View()
	for _, want := range []string{"resonate-tone", "oto/default", "48000Hz", "Stereo", "12345", "device disconnected"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		value, max, width int
		filled            int
	}{
		{0, 100, 10, 0},
		{50, 100, 10, 5},
		{100, 100, 10, 10},
		{150, 100, 10, 10},
		{5, 0, 10, 0},
	}

	for _, tt := range tests {
		bar := renderBar(tt.value, tt.max, tt.width)
		if got := strings.Count(bar, "█"); got != tt.filled {
			t.Errorf("renderBar(%d, %d, %d): expected %d filled, got %d", tt.value, tt.max, tt.width, tt.filled, got)
		}
		if got := strings.Count(bar, "█") + strings.Count(bar, "░"); got != tt.width {
			t.Errorf("renderBar(%d, %d, %d): expected width %d, got %d", tt.value, tt.max, tt.width, tt.width, got)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("expected 'short', got '%s'", got)
	}
	if got := truncate("this is a long message", 10); got != "this is..." {
		t.Errorf("expected 'this is...', got '%s'", got)
	}
}

func TestChannelName(t *testing.T) {
	tests := map[int]string{1: "Mono", 2: "Stereo", 6: "6ch"}
	for channels, want := range tests {
		if got := channelName(channels); got != want {
			t.Errorf("channelName(%d): expected %s, got %s", channels, want, got)
		}
	}
}
