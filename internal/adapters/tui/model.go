// Package tui renders the bootstrap progress as an interactive step list.
package tui

import (
	"bytes"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type stepStatus int

const (
	statusPending stepStatus = iota
	statusRunning
	statusDone
	statusFailed
)

type stepInfo struct {
	name      string
	spanID    string
	status    stepStatus
	startTime time.Time
	endTime   time.Time
	lastLine  string
	err       error
}

// Model is the Bubble Tea model for the bootstrap step list.
type Model struct {
	steps  []*stepInfo
	byName map[string]*stepInfo
	bySpan map[string]*stepInfo

	width    int
	quitting bool
}

// NewModel creates an empty TUI model. Steps arrive via MsgInitSteps.
func NewModel() *Model {
	return &Model{
		byName: make(map[string]*stepInfo),
		bySpan: make(map[string]*stepInfo),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}

	case MsgInitSteps:
		m.initSteps(msg.Steps)

	case MsgStepStart:
		m.startStep(msg)

	case MsgStepLog:
		m.logStep(msg)

	case MsgStepComplete:
		m.completeStep(msg)
	}

	return m, nil
}

func (m *Model) initSteps(names []string) {
	m.steps = m.steps[:0]
	clear(m.byName)
	clear(m.bySpan)

	for _, name := range names {
		step := &stepInfo{name: name, status: statusPending}
		m.steps = append(m.steps, step)
		m.byName[name] = step
	}
}

func (m *Model) startStep(msg MsgStepStart) {
	step, ok := m.byName[msg.Name]
	if !ok {
		// Spans outside the announced plan still get a row
		step = &stepInfo{name: msg.Name}
		m.steps = append(m.steps, step)
		m.byName[msg.Name] = step
	}

	step.spanID = msg.SpanID
	step.status = statusRunning
	step.startTime = msg.StartTime
	m.bySpan[msg.SpanID] = step
}

func (m *Model) logStep(msg MsgStepLog) {
	step, ok := m.bySpan[msg.SpanID]
	if !ok {
		return
	}

	if line := lastNonEmptyLine(msg.Data); line != "" {
		step.lastLine = line
	}
}

func (m *Model) completeStep(msg MsgStepComplete) {
	step, ok := m.bySpan[msg.SpanID]
	if !ok {
		return
	}

	step.endTime = msg.EndTime
	if msg.Err != nil {
		step.status = statusFailed
		step.err = msg.Err
	} else {
		step.status = statusDone
	}
}

// lastNonEmptyLine extracts the last non-empty line of a chunk, stripping
// carriage returns introduced by the PTY.
func lastNonEmptyLine(data []byte) string {
	lines := bytes.Split(data, []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimRight(string(lines[i]), "\r")
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}
