package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bidwise/bidwise/internal/models"
	"github.com/bidwise/bidwise/internal/score"
)

// ProjectCard renders a project with its status badge. The selected card is
// drawn with a highlighted border.
func ProjectCard(p models.Project, selected bool, width int) string {
	name := p.Name
	if name == "" {
		name = "(unnamed project)"
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		Label.Render(name),
		Badge(p.Status, ProjectVariant(p.Status)),
		Muted.Render(fmt.Sprintf("Schools: %d", p.Schools)),
	)
	style := Card
	if selected {
		style = SelectedCard
	}
	return style.Width(cardWidth(width)).Render(body)
}

// ProjectList renders one card per project, highlighting the card at index
// highlight. A negative index highlights nothing.
func ProjectList(projects []models.Project, highlight int, width int) string {
	if len(projects) == 0 {
		return Muted.Render("No projects.")
	}
	cards := make([]string, len(projects))
	for i, p := range projects {
		cards[i] = ProjectCard(p, i == highlight, width)
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

// ProjectIndex returns the position of the project called name, or -1.
func ProjectIndex(projects []models.Project, name string) int {
	if name == "" {
		return -1
	}
	for i, p := range projects {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// BidCard renders a bid with its normalized AI score.
func BidCard(b models.Bid, width int) string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		Label.Render(b.Provider)+" "+Muted.Render(b.BidID),
		fmt.Sprintf("Cost: %s", b.Cost),
		fmt.Sprintf("Coverage: %s", b.Coverage),
		fmt.Sprintf("AI Score: %s", score.FormatScore(b.Score())),
	)
	return Card.Width(cardWidth(width)).Render(body)
}

// BidList renders the bids of the selected project.
func BidList(bids []models.Bid, project string, width int) string {
	if project == "" {
		return Muted.Render("Select a project to see its bids.")
	}
	if len(bids) == 0 {
		return Muted.Render("No bids for " + project + ".")
	}
	cards := make([]string, len(bids))
	for i, b := range bids {
		cards[i] = BidCard(b, width)
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

// MilestoneCard renders a milestone with its status badge and verification.
func MilestoneCard(m models.Milestone, width int) string {
	lines := []string{
		Label.Render(m.Title) + " " + Badge(m.Status, MilestoneVariant(m.Status)),
	}
	if m.Date != "" {
		lines = append(lines, Muted.Render(m.Date))
	}
	if m.VerificationMethod != "" {
		lines = append(lines, fmt.Sprintf("Verified by %s (%s)", orDash(m.Verifier), m.VerificationMethod))
	}
	return Card.Width(cardWidth(width)).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// BarFunc draws a progress bar for an already clamped percentage.
type BarFunc func(percent, width int) string

// ProgressPanel renders a project's progress bar, dates and milestones. A nil
// bar uses ProgressBar.
func ProgressPanel(p *models.ProjectProgress, width int, bar BarFunc) string {
	if p == nil {
		return Muted.Render("No progress data.")
	}
	if bar == nil {
		bar = ProgressBar
	}
	parts := []string{
		Title.Render(p.Project),
		fmt.Sprintf("Start: %s   Expected completion: %s", orDash(p.StartDate), orDash(p.ExpectedCompletion)),
		bar(p.Percent(), barWidth(width)),
	}
	for _, m := range p.Milestones {
		parts = append(parts, MilestoneCard(m, width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// ProgressBar renders a bar of the given width filled to percent, followed by
// the percentage label. percent is clamped to [0, 100].
func ProgressBar(percent, width int) string {
	percent = models.ClampPercent(percent)
	if width < 1 {
		width = 1
	}
	filled := width * percent / 100
	bar := lipgloss.NewStyle().Foreground(SuccessColor).Render(strings.Repeat("█", filled)) +
		Muted.Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s %d%%", bar, percent)
}

// ErrorBanner renders msg for display, or nothing when msg is empty.
func ErrorBanner(msg string) string {
	if msg == "" {
		return ""
	}
	return Error.Render("✗ " + msg)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func cardWidth(width int) int {
	if width <= 0 {
		return 40
	}
	return width - 2
}

func barWidth(width int) int {
	if width <= 10 {
		return 30
	}
	return width - 10
}
