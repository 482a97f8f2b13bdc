package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/bidwise/bidwise/internal/view"
)

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	width := m.width
	if width <= 0 {
		width = 80
	}

	header := view.Title.Render("Bidwise Procurement Dashboard")
	if m.snap.Loading {
		header += " " + m.spinner.View()
	}

	var body string
	if m.modal != nil {
		body = m.modal.view()
	} else {
		body = m.renderTab(width)
	}

	parts := []string{header, m.renderTabs(), "", body}
	if banner := view.ErrorBanner(m.snap.Error); banner != "" {
		parts = append(parts, "", banner)
	}
	parts = append(parts, view.HelpBar.Render(helpText))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

const helpText = "tab switch • ↑/↓ select project • n new project • s change status • r reload • q quit"

func (m *Model) renderTabs() string {
	tabs := make([]string, numTabs)
	for t := Tab(0); t < numTabs; t++ {
		if t == m.tab {
			tabs[t] = view.TabActive.Render(t.String())
		} else {
			tabs[t] = view.TabInactive.Render(t.String())
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) renderTab(width int) string {
	switch m.tab {
	case TabProjects:
		return m.renderProjects(width)
	case TabBids:
		return view.BidList(m.snap.Bids, m.snap.Selected, width)
	case TabMonitoring:
		return view.TrafficChart(m.snap.Traffic, width-4, 10)
	case TabProgress:
		return m.renderProgress(width)
	case TabScore:
		return view.ScorePanel(m.summary, width)
	}
	return ""
}

func (m *Model) renderProjects(width int) string {
	return view.ProjectList(m.snap.Projects, m.cursor, width)
}

func (m *Model) renderProgress(width int) string {
	if m.snap.Progress == nil && m.snap.Selected == "" {
		return view.Muted.Render("Select a project to see its progress.")
	}
	return view.ProgressPanel(m.snap.Progress, width, m.progressBar)
}

// progressBar draws the animated bubbles bar in place of view.ProgressBar.
func (m *Model) progressBar(percent, _ int) string {
	return m.progress.ViewAs(float64(percent)/100) + fmt.Sprintf(" %d%%", percent)
}
