package score

import (
	"strings"
	"testing"

	"github.com/bidwise/bidwise/internal/models"
)

func TestDefault_Overall(t *testing.T) {
	s := Default()

	if len(s.Criteria) != 5 {
		t.Fatalf("got %d criteria, want 5", len(s.Criteria))
	}
	if got := s.OverallLabel(); got != "8.2/10" {
		t.Errorf("OverallLabel = %q, want 8.2/10", got)
	}
}

func TestOverall_NoCriteria(t *testing.T) {
	if got := (Summary{}).Overall(); got != 0 {
		t.Errorf("Overall = %v, want 0", got)
	}
}

func TestRankBids(t *testing.T) {
	bids := []models.Bid{
		{BidID: "A", AIScore: 72},
		{BidID: "B", AIScore: 9.1},
		{BidID: "C", AIScore: 7.2},
	}

	ranked := RankBids(bids)

	var ids []string
	for _, b := range ranked {
		ids = append(ids, b.BidID)
	}
	if got := strings.Join(ids, ","); got != "B,A,C" {
		t.Errorf("order = %s, want B,A,C", got)
	}
	if bids[0].BidID != "A" {
		t.Error("RankBids reordered its input")
	}
}

func TestReport_Sections(t *testing.T) {
	out := Report(Default(), []models.Bid{{BidID: "BID_1", Provider: "TechNet", AIScore: 85}})

	for _, want := range []string{
		"AI Score: 8.2/10",
		"[Proposal]",
		"Total Contract Value: $255,000",
		"Backup: Satellite, LTE",
		"[Technical Scores]",
		"[Strengths]",
		"- Flexible scaling model",
		"[Strategic Recommendations]",
		"5. Implement phased rollout to manage complexity and costs",
		"1. TechNet (BID_1) 8.5/10",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestReport_OmitsEmptySections(t *testing.T) {
	out := Report(Summary{Title: "Empty"}, nil)

	for _, unwanted := range []string{"[Technical Scores]", "[Strengths]", "[Risks]", "[Ranked Bids]"} {
		if strings.Contains(out, unwanted) {
			t.Errorf("report contains empty section %q", unwanted)
		}
	}
	if !strings.Contains(out, "AI Score: 0.0/10") {
		t.Errorf("report = %q", out)
	}
}
