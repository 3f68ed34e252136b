package ui

import (
	"github.com/framewell/rendergate/internal/validate"
)

// StageMsg reports a validation stage transition for the active file
type StageMsg struct {
	FileIndex int
	Stage     validate.Stage
}

// FileStartMsg indicates validation has started on a new file
type FileStartMsg struct {
	FileIndex int
	FileName  string
}

// FileCompleteMsg indicates a file's validation has finished
type FileCompleteMsg struct {
	FileIndex int
	Report    *validate.Report
	Error     error
}

// AllCompleteMsg indicates all files have been validated
type AllCompleteMsg struct{}
