package view

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bidwise/bidwise/internal/models"
)

// Variant is the visual category of a status badge.
type Variant string

const (
	VariantDefault Variant = "default"
	VariantSuccess Variant = "success"
	VariantWarning Variant = "warning"
	VariantDanger  Variant = "danger"
)

// ProjectVariant maps a project status to its badge category.
func ProjectVariant(status string) Variant {
	switch models.ParseProjectStatus(status) {
	case models.ProjectUnderReview:
		return VariantWarning
	case models.ProjectCompleted:
		return VariantSuccess
	default:
		return VariantDefault
	}
}

// MilestoneVariant maps a milestone status to its badge category.
func MilestoneVariant(status string) Variant {
	switch models.ParseMilestoneStatus(status) {
	case models.MilestoneCompleted:
		return VariantSuccess
	case models.MilestoneInProgress:
		return VariantWarning
	default:
		return VariantDefault
	}
}

// VariantColor returns the background color of a badge category.
func VariantColor(v Variant) lipgloss.Color {
	switch v {
	case VariantSuccess:
		return SuccessColor
	case VariantWarning:
		return WarningColor
	case VariantDanger:
		return DangerColor
	default:
		return PrimaryColor
	}
}

// Badge renders text as a colored pill.
func Badge(text string, v Variant) string {
	return badgeBase.
		Foreground(TextColor).
		Background(VariantColor(v)).
		Render(text)
}
