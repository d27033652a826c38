package view

import (
	tea "github.com/charmbracelet/bubbletea"
)

// View is the interface that all TUI screens implement.
type View interface {
	tea.Model
	Title() string
	ShortHelp() string
}

// CommonModel is embedded by all views.
type CommonModel struct {
	Width  int
	Height int
}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

// OpenExportMsg asks the root model to show the export screen.
type OpenExportMsg struct{}

// OpenImportMsg asks the root model to show the import screen.
type OpenImportMsg struct{}
