package main

import (
	"github.com/charmbracelet/lipgloss"
)

// fnpool color palette
var (
	colorPrimary = lipgloss.Color("#7D7DF5") // Indigo - titles, brand
	colorAccent  = lipgloss.Color("#B48CF2") // Violet - hashes, highlights
	colorDim     = lipgloss.Color("#5C6370") // Grey - rules, secondary text
	colorSuccess = lipgloss.Color("#6BCB77") // Green for ok states
	colorWarning = lipgloss.Color("#F4D03F") // Amber for warnings
	colorError   = lipgloss.Color("#E06C75") // Red for failures
)

// styles provides pre-configured lipgloss styles for human output
var styles = struct {
	Title   lipgloss.Style
	Rule    lipgloss.Style
	Hash    lipgloss.Style
	Label   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style

	StatusOK   lipgloss.Style
	StatusFail lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(colorPrimary),
	Rule:    lipgloss.NewStyle().Foreground(colorDim),
	Hash:    lipgloss.NewStyle().Foreground(colorAccent),
	Label:   lipgloss.NewStyle().Bold(true),
	Muted:   lipgloss.NewStyle().Foreground(colorDim),
	Success: lipgloss.NewStyle().Foreground(colorSuccess),
	Warning: lipgloss.NewStyle().Foreground(colorWarning),
	Error:   lipgloss.NewStyle().Foreground(colorError),

	StatusOK:   lipgloss.NewStyle().SetString("✓").Foreground(colorSuccess),
	StatusFail: lipgloss.NewStyle().SetString("✗").Foreground(colorError),
}
