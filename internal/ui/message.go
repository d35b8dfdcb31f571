package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spottube/internal/models"
	"github.com/desertthunder/spottube/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var _ tea.Msg = Msg{}

const (
	MsgSubmitted MsgKind = iota
	MsgExpandProgress
	MsgExpandDone
	MsgSnapshot
)

// submittedMsg is the constructor for [MsgSubmitted]
func submittedMsg(err error) Msg {
	return Msg{kind: MsgSubmitted, data: err}
}

// expandProgressMsg is the constructor for [MsgExpandProgress]
func expandProgressMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgExpandProgress, data: update}
}

// expandDoneMsg is the constructor for [MsgExpandDone], sent once the progress channel closes.
func expandDoneMsg() Msg {
	return Msg{kind: MsgExpandDone}
}

// snapshotMsg is the constructor for [MsgSnapshot]
func snapshotMsg(s models.Snapshot) Msg {
	return Msg{kind: MsgSnapshot, data: s}
}
