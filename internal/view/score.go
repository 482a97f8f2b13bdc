package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bidwise/bidwise/internal/score"
)

// ScorePanel renders the AI evaluation with a horizontal bar per criterion.
func ScorePanel(s score.Summary, width int) string {
	header := Title.Render(s.Title) + "  " + Badge("AI Score: "+s.OverallLabel(), VariantDefault)

	p := s.Proposal
	facts := Card.Render(lipgloss.JoinVertical(lipgloss.Left,
		fmt.Sprintf("Schools: %d", p.Schools),
		fmt.Sprintf("Coverage Area: %s", p.CoverageArea),
		fmt.Sprintf("Total Contract Value: %s", p.TotalContractValue),
		fmt.Sprintf("Cost per School: %s", p.CostPerSchool),
		fmt.Sprintf("Primary Technology: %s", p.PrimaryTechnology),
		fmt.Sprintf("Backup: %s", strings.Join(p.BackupTechnologies, ", ")),
	))

	bw := barWidth(width) / 2
	if bw < 10 {
		bw = 10
	}
	criteria := make([]string, len(s.Criteria))
	for i, c := range s.Criteria {
		filled := int(c.Score / 10 * float64(bw))
		if filled > bw {
			filled = bw
		}
		if filled < 0 {
			filled = 0
		}
		bar := lipgloss.NewStyle().Foreground(PrimaryColor).Render(strings.Repeat("█", filled)) +
			Muted.Render(strings.Repeat("░", bw-filled))
		criteria[i] = fmt.Sprintf("%-20s %s %s", c.Name, bar, score.FormatScore(c.Score))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		facts,
		"",
		Label.Render("Technical Scores"),
		strings.Join(criteria, "\n"),
		bullets("Strengths", s.Strengths, SuccessColor),
		bullets("Improvement Areas", s.Improvements, WarningColor),
		bullets("Risks", s.Risks, DangerColor),
		bullets("Strategic Recommendations", s.Recommendations, PrimaryColor),
	)
}

func bullets(title string, items []string, color lipgloss.Color) string {
	if len(items) == 0 {
		return ""
	}
	lines := []string{"", lipgloss.NewStyle().Bold(true).Foreground(color).Render(title)}
	for _, item := range items {
		lines = append(lines, "  • "+item)
	}
	return strings.Join(lines, "\n")
}
