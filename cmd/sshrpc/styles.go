package main

import "github.com/charmbracelet/lipgloss"

// Palette for the check matrix (ANSI 256 colour codes).
const (
	colorAccent = lipgloss.Color("39")
	colorMuted  = lipgloss.Color("244")
	colorGood   = lipgloss.Color("42")
	colorBad    = lipgloss.Color("196")
	colorWarn   = lipgloss.Color("220")
	colorLight  = lipgloss.Color("231")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).MarginTop(1).MarginBottom(1)
	infoStyle  = lipgloss.NewStyle().Foreground(colorMuted).MarginLeft(2)
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(colorBad).MarginTop(1)
	checkStyle = lipgloss.NewStyle().Foreground(colorGood).MarginTop(1)
	catStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).MarginTop(1)

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorLight).Background(colorAccent).Padding(0, 1)
	rowStyle    = lipgloss.NewStyle().Padding(0, 1)

	passedStyle  = lipgloss.NewStyle().Foreground(colorGood)
	failedStyle  = lipgloss.NewStyle().Foreground(colorBad)
	skippedStyle = lipgloss.NewStyle().Foreground(colorWarn)

	parityMatchStyle    = passedStyle.Bold(true)
	parityDivergedStyle = failedStyle.Bold(true)
	parityNAStyle       = skippedStyle.Bold(true)
)
