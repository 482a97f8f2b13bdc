// Package view renders dashboard state as styled terminal text. Every
// function here is a pure function of its arguments.
package view

import "github.com/charmbracelet/lipgloss"

var (
	PrimaryColor = lipgloss.Color("#60A5FA") // Blue
	SuccessColor = lipgloss.Color("#10B981") // Green
	WarningColor = lipgloss.Color("#F59E0B") // Amber
	DangerColor  = lipgloss.Color("#F87171") // Red
	MutedColor   = lipgloss.Color("#9CA3AF") // Gray
	TextColor    = lipgloss.Color("#F9FAFB")
	BorderColor  = lipgloss.Color("#6B7280")

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor)

	Muted = lipgloss.NewStyle().Foreground(MutedColor)
	Error = lipgloss.NewStyle().Foreground(DangerColor).Bold(true)
	Label = lipgloss.NewStyle().Bold(true)

	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(BorderColor).
		Padding(0, 1)

	SelectedCard = Card.
			BorderForeground(PrimaryColor)

	TabActive = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextColor).
			Background(PrimaryColor).
			Padding(0, 2)

	TabInactive = lipgloss.NewStyle().
			Foreground(MutedColor).
			Padding(0, 2)

	Modal = lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(PrimaryColor).
		Padding(1, 2)

	HelpBar = lipgloss.NewStyle().
		Foreground(MutedColor).
		MarginTop(1)

	badgeBase = lipgloss.NewStyle().
			Padding(0, 1).
			Bold(true)
)
