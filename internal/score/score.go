// Package score holds the AI evaluation summary shown for the current
// proposal and ranks bids by their normalized AI score.
package score

import (
	"fmt"
	"sort"

	"github.com/bidwise/bidwise/internal/models"
)

// Criterion is one technical evaluation axis, scored on the 0–10 scale.
type Criterion struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Proposal lists the headline facts of the evaluated proposal.
type Proposal struct {
	Schools            int      `json:"schools"`
	CoverageArea       string   `json:"coverageArea"`
	TotalContractValue string   `json:"totalContractValue"`
	CostPerSchool      string   `json:"costPerSchool"`
	PrimaryTechnology  string   `json:"primaryTechnology"`
	BackupTechnologies []string `json:"backupTechnologies"`
}

// Summary is the full AI evaluation of a proposal.
type Summary struct {
	Title           string      `json:"title"`
	Criteria        []Criterion `json:"criteria"`
	Proposal        Proposal    `json:"proposal"`
	Strengths       []string    `json:"strengths"`
	Improvements    []string    `json:"improvements"`
	Risks           []string    `json:"risks"`
	Recommendations []string    `json:"recommendations"`
}

// Default returns the evaluation of the connectivity proposal currently
// under review.
func Default() Summary {
	return Summary{
		Title: "UNICEF Giga Project Proposal Analysis",
		Criteria: []Criterion{
			{Name: "Connectivity", Score: 8.5},
			{Name: "Security", Score: 9.0},
			{Name: "Scalability", Score: 7.5},
			{Name: "Cost-Effectiveness", Score: 8.0},
			{Name: "Implementation", Score: 8.2},
		},
		Proposal: Proposal{
			Schools:            250,
			CoverageArea:       "5,000 km²",
			TotalContractValue: "$255,000",
			CostPerSchool:      "$1,020",
			PrimaryTechnology:  "Fiber Optic",
			BackupTechnologies: []string{"Satellite", "LTE"},
		},
		Strengths: []string{
			"Robust fiber optic primary infrastructure",
			"Comprehensive backup connectivity options",
			"Advanced security protocols",
			"Flexible scaling model",
		},
		Improvements: []string{
			"Negotiate implementation cost reduction",
			"Explore local infrastructure partnerships",
			"Consider phased deployment strategy",
			"Review contention ratio optimization",
		},
		Risks: []string{
			"Potential over-engineering of network infrastructure",
			"High upfront implementation costs",
			"Complex multi-technology deployment",
		},
		Recommendations: []string{
			"Conduct comprehensive cost-benefit analysis for infrastructure scaling",
			"Develop detailed risk mitigation strategy for multi-technology deployment",
			"Establish clear performance monitoring and reporting mechanisms",
			"Explore collaborative funding or technology sharing opportunities",
			"Implement phased rollout to manage complexity and costs",
		},
	}
}

// Overall is the arithmetic mean of the criteria scores, 0 when there are none.
func (s Summary) Overall() float64 {
	if len(s.Criteria) == 0 {
		return 0
	}
	var sum float64
	for _, c := range s.Criteria {
		sum += c.Score
	}
	return sum / float64(len(s.Criteria))
}

// OverallLabel renders Overall with one decimal, e.g. "8.2/10".
func (s Summary) OverallLabel() string {
	return FormatScore(s.Overall())
}

// FormatScore renders a 0–10 score with one decimal.
func FormatScore(v float64) string {
	return fmt.Sprintf("%.1f/%d", v, int(models.MaxAIScore))
}

// RankBids returns bids ordered by normalized AI score, highest first. Ties
// keep their input order.
func RankBids(bids []models.Bid) []models.Bid {
	ranked := make([]models.Bid, len(bids))
	copy(ranked, bids)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score() > ranked[j].Score()
	})
	return ranked
}
