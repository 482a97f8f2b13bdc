package models

import (
	"encoding/json"
	"math"
	"testing"
)

func TestParseProjectStatus(t *testing.T) {
	tests := []struct {
		in   string
		want ProjectStatus
	}{
		{"Open for Bids", ProjectOpenForBids},
		{"under review", ProjectUnderReview},
		{"  Completed ", ProjectCompleted},
		{"Cancelled", ProjectOther},
		{"", ProjectOther},
	}
	for _, tt := range tests {
		if got := ParseProjectStatus(tt.in); got != tt.want {
			t.Errorf("ParseProjectStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseMilestoneStatus(t *testing.T) {
	tests := []struct {
		in   string
		want MilestoneStatus
	}{
		{"Completed", MilestoneCompleted},
		{"In Progress", MilestoneInProgress},
		{"pending", MilestonePending},
		{"Blocked", MilestoneOther},
	}
	for _, tt := range tests {
		if got := ParseMilestoneStatus(tt.in); got != tt.want {
			t.Errorf("ParseMilestoneStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeAIScore(t *testing.T) {
	tests := []struct {
		raw  float64
		want float64
	}{
		{8.7, 8.7},
		{10, 10},
		{85, 8.5},
		{100, 10},
		{250, 10},
		{0, 0},
		{-3, 0},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		got := NormalizeAIScore(tt.raw)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("NormalizeAIScore(%v) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestClampPercent(t *testing.T) {
	tests := []struct{ in, want int }{
		{65, 65},
		{0, 0},
		{100, 100},
		{-5, 0},
		{140, 100},
	}
	for _, tt := range tests {
		if got := ClampPercent(tt.in); got != tt.want {
			t.Errorf("ClampPercent(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestBidJSONFieldNames(t *testing.T) {
	raw := `{"bid_id":"BID_1","provider":"TechNet Solutions","cost":"$125,000","coverage":"98%","aiScore":85,"project_id":"Region A","bidder_id":"BIDDER_1"}`

	var b Bid
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if b.BidID != "BID_1" || b.ProjectID != "Region A" || b.BidderID != "BIDDER_1" {
		t.Errorf("ids not decoded: %+v", b)
	}
	if b.Score() != 8.5 {
		t.Errorf("Score() = %v, want 8.5", b.Score())
	}
}

func TestProgressJSONFieldNames(t *testing.T) {
	raw := `{"project":"Remote Learning Initiative C","startDate":"2025-01-01","expectedCompletion":"2025-06-30","progress":65,
		"milestones":[{"title":"Initial Assessment","status":"Completed","verificationMethod":"Site Survey Documentation","date":"2025-01-15","verifier":"GIGA Technical Team"}]}`

	var p ProjectProgress
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if p.Percent() != 65 {
		t.Errorf("Percent() = %d, want 65", p.Percent())
	}
	if len(p.Milestones) != 1 || p.Milestones[0].VerificationMethod != "Site Survey Documentation" {
		t.Errorf("milestones not decoded: %+v", p.Milestones)
	}
	if p.Milestones[0].KnownStatus() != MilestoneCompleted {
		t.Errorf("KnownStatus() = %q", p.Milestones[0].KnownStatus())
	}
}

func TestMilestoneIDUnmarshal(t *testing.T) {
	tests := []struct {
		in      string
		want    MilestoneID
		wantErr bool
	}{
		{`{"id":7}`, "7", false},
		{`{"id":"ms-7"}`, "ms-7", false},
		{`{"id":null}`, "", false},
		{`{}`, "", false},
		{`{"id":true}`, "", true},
	}
	for _, tt := range tests {
		var m Milestone
		err := json.Unmarshal([]byte(tt.in), &m)
		if (err != nil) != tt.wantErr {
			t.Errorf("Unmarshal(%s) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if m.ID != tt.want {
			t.Errorf("Unmarshal(%s) ID = %q, want %q", tt.in, m.ID, tt.want)
		}
	}
}
