package score

import (
	"fmt"
	"strings"

	"github.com/bidwise/bidwise/internal/models"
)

// Report renders the summary as plain sectioned text. When bids are given,
// a ranked bid section is appended. Empty sections are omitted.
func Report(s Summary, bids []models.Bid) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s\nAI Score: %s\n", s.Title, s.OverallLabel())

	p := s.Proposal
	sb.WriteString("\n[Proposal]\n")
	fmt.Fprintf(&sb, "Schools: %d\n", p.Schools)
	if p.CoverageArea != "" {
		fmt.Fprintf(&sb, "Coverage Area: %s\n", p.CoverageArea)
	}
	fmt.Fprintf(&sb, "Total Contract Value: %s\n", p.TotalContractValue)
	fmt.Fprintf(&sb, "Cost per School: %s\n", p.CostPerSchool)
	fmt.Fprintf(&sb, "Primary Technology: %s\n", p.PrimaryTechnology)
	if len(p.BackupTechnologies) > 0 {
		fmt.Fprintf(&sb, "Backup: %s\n", strings.Join(p.BackupTechnologies, ", "))
	}

	if len(s.Criteria) > 0 {
		sb.WriteString("\n[Technical Scores]\n")
		for _, c := range s.Criteria {
			fmt.Fprintf(&sb, "%-20s %s\n", c.Name, FormatScore(c.Score))
		}
	}

	writeList(&sb, "Strengths", s.Strengths, false)
	writeList(&sb, "Improvement Areas", s.Improvements, false)
	writeList(&sb, "Risks", s.Risks, false)
	writeList(&sb, "Strategic Recommendations", s.Recommendations, true)

	if len(bids) > 0 {
		sb.WriteString("\n[Ranked Bids]\n")
		for i, b := range RankBids(bids) {
			fmt.Fprintf(&sb, "%d. %s (%s) %s\n", i+1, b.Provider, b.BidID, FormatScore(b.Score()))
		}
	}

	return sb.String()
}

func writeList(sb *strings.Builder, title string, items []string, numbered bool) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n[%s]\n", title)
	for i, item := range items {
		if numbered {
			fmt.Fprintf(sb, "%d. %s\n", i+1, item)
		} else {
			fmt.Fprintf(sb, "- %s\n", item)
		}
	}
}
