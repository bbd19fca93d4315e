package tui

import "time"

// MsgInitSteps initializes the ordered step list in the UI.
type MsgInitSteps struct {
	Steps []string
}

// MsgStepStart indicates a step (span) has started.
type MsgStepStart struct {
	SpanID    string
	ParentID  string // May be empty if root
	Name      string
	StartTime time.Time
}

// MsgStepLog carries a chunk of output for a specific step.
type MsgStepLog struct {
	SpanID string
	Data   []byte
}

// MsgStepComplete indicates a step (span) has finished.
type MsgStepComplete struct {
	SpanID  string
	EndTime time.Time
	Err     error
}
