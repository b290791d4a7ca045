// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program for the tone status display
package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Control carries the stop request from the TUI back to the stream
type Control struct {
	Quit chan struct{}
	once sync.Once
}

// NewControl creates a new control handle
func NewControl() *Control {
	return &Control{Quit: make(chan struct{})}
}

func (c *Control) requestStop() {
	if c == nil {
		return
	}
	c.once.Do(func() { close(c.Quit) })
}

// NewModel creates a new TUI model
func NewModel(product, version string, control *Control) Model {
	return Model{
		product: product,
		version: version,
		state:   "uninitialized",
		control: control,
	}
}

// Run creates the TUI program; the caller starts it with Run
func Run(model Model, opts ...tea.ProgramOption) *tea.Program {
	return tea.NewProgram(model, opts...)
}
