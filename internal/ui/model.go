// Package ui provides the Bubbletea terminal user interface for rendergate
package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/framewell/rendergate/internal/validate"
)

// FileStatus represents the validation state of a single file
type FileStatus int

const (
	StatusQueued FileStatus = iota
	StatusValidating
	StatusPassed
	StatusFailed
	StatusError
)

// FileProgress tracks progress for a single media file
type FileProgress struct {
	InputPath string
	Status    FileStatus

	// Pipeline stage tracking
	Stage validate.Stage

	StartTime   time.Time
	ElapsedTime time.Duration

	// Completion results
	Report *validate.Report

	// Error tracking
	Error error
}

// Model is the Bubbletea model for the validation UI
type Model struct {
	// File queue
	Files        []FileProgress
	CurrentIndex int
	TotalFiles   int
	PassedFiles  int
	FailedFiles  int
	ErroredFiles int

	// Global state
	StartTime time.Time
	Done      bool

	// Terminal dimensions
	Width  int
	Height int
}

// NewModel creates a new UI model with the given input files
func NewModel(inputFiles []string) Model {
	files := make([]FileProgress, len(inputFiles))
	for i, path := range inputFiles {
		files[i] = FileProgress{
			InputPath: path,
			Status:    StatusQueued,
		}
	}

	return Model{
		Files:        files,
		CurrentIndex: -1, // No file validating yet
		TotalFiles:   len(inputFiles),
		StartTime:    time.Now(),
	}
}

// Init initializes the model. Progress messages arrive through the
// program's Send from the validating goroutine.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case StageMsg:
		if msg.FileIndex >= 0 && msg.FileIndex < len(m.Files) {
			file := &m.Files[msg.FileIndex]
			file.Stage = msg.Stage
			file.Status = StatusValidating
			file.ElapsedTime = time.Since(file.StartTime)
		}
		return m, nil

	case FileStartMsg:
		m.CurrentIndex = msg.FileIndex
		m.Files[m.CurrentIndex].Status = StatusValidating
		m.Files[m.CurrentIndex].StartTime = time.Now()
		return m, nil

	case FileCompleteMsg:
		if msg.FileIndex >= 0 && msg.FileIndex < len(m.Files) {
			file := &m.Files[msg.FileIndex]
			file.Report = msg.Report
			file.Error = msg.Error
			file.ElapsedTime = time.Since(file.StartTime)

			switch {
			case msg.Error != nil:
				file.Status = StatusError
				m.ErroredFiles++
			case msg.Report != nil && msg.Report.Passed:
				file.Status = StatusPassed
				m.PassedFiles++
			default:
				file.Status = StatusFailed
				m.FailedFiles++
			}
		}
		return m, nil

	case AllCompleteMsg:
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the UI
func (m Model) View() string {
	if m.Width == 0 {
		return fmt.Sprintf("Initializing...\nFiles: %d\nCurrent: %d\n", len(m.Files), m.CurrentIndex)
	}

	if m.Done {
		return renderCompletionSummary(m)
	}

	return renderValidationView(m)
}

