// Package models holds the procurement entities exchanged with the backend.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// ProjectStatus is the lifecycle state of a connectivity project.
type ProjectStatus string

const (
	ProjectOpenForBids ProjectStatus = "Open for Bids"
	ProjectUnderReview ProjectStatus = "Under Review"
	ProjectCompleted   ProjectStatus = "Completed"
	// ProjectOther is the bucket for any status string the dashboard does not know.
	ProjectOther ProjectStatus = "Other"
)

// ProjectStatuses returns the statuses offered in forms, in display order.
func ProjectStatuses() []ProjectStatus {
	return []ProjectStatus{ProjectOpenForBids, ProjectUnderReview, ProjectCompleted}
}

// ParseProjectStatus maps a raw status to a known status, case-insensitively.
// Unrecognized values map to ProjectOther.
func ParseProjectStatus(s string) ProjectStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "open for bids":
		return ProjectOpenForBids
	case "under review":
		return ProjectUnderReview
	case "completed":
		return ProjectCompleted
	default:
		return ProjectOther
	}
}

// MilestoneStatus is the state of a single project milestone.
type MilestoneStatus string

const (
	MilestoneCompleted  MilestoneStatus = "Completed"
	MilestoneInProgress MilestoneStatus = "In Progress"
	MilestonePending    MilestoneStatus = "Pending"
	MilestoneOther      MilestoneStatus = "Other"
)

// ParseMilestoneStatus maps a raw status to a known milestone status.
// Unrecognized values map to MilestoneOther.
func ParseMilestoneStatus(s string) MilestoneStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "completed":
		return MilestoneCompleted
	case "in progress":
		return MilestoneInProgress
	case "pending":
		return MilestonePending
	default:
		return MilestoneOther
	}
}

// Project is a procurement project. Name is its identity.
type Project struct {
	Name    string `json:"name" yaml:"name"`
	Status  string `json:"status" yaml:"status"`
	Schools int    `json:"schools" yaml:"schools"`
}

// KnownStatus returns the parsed status of the project.
func (p Project) KnownStatus() ProjectStatus {
	return ParseProjectStatus(p.Status)
}

// Bid is a provider's offer on a project. ProjectID holds the project name.
type Bid struct {
	BidID     string  `json:"bid_id" yaml:"bid_id"`
	Provider  string  `json:"provider" yaml:"provider"`
	Cost      string  `json:"cost" yaml:"cost"`
	Coverage  string  `json:"coverage" yaml:"coverage"`
	AIScore   float64 `json:"aiScore" yaml:"aiScore"`
	ProjectID string  `json:"project_id" yaml:"project_id"`
	BidderID  string  `json:"bidder_id" yaml:"bidder_id"`
}

// Score returns the bid's AI score on the 0–10 scale.
func (b Bid) Score() float64 {
	return NormalizeAIScore(b.AIScore)
}

// MaxAIScore is the top of the normalized AI score scale.
const MaxAIScore = 10.0

// NormalizeAIScore converts a raw score to the 0–10 scale. Backends report
// either tenths (8.7) or percentages (87); anything above 10 is treated as a
// percentage. The result is clamped to [0, 10].
func NormalizeAIScore(raw float64) float64 {
	if math.IsNaN(raw) || raw <= 0 {
		return 0
	}
	if raw > MaxAIScore {
		raw = raw / 10
	}
	return math.Min(raw, MaxAIScore)
}

// MilestoneID identifies a milestone. Backends send it either as a JSON
// number or a string; both decode to the same text form.
type MilestoneID string

func (id *MilestoneID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = MilestoneID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("milestone id must be a string or number, got %s", data)
	}
	*id = MilestoneID(n.String())
	return nil
}

// Milestone is one verified step of a project's rollout.
type Milestone struct {
	ID                 MilestoneID `json:"id,omitempty" yaml:"id,omitempty"`
	Title              string      `json:"title" yaml:"title"`
	Status             string      `json:"status" yaml:"status"`
	VerificationMethod string      `json:"verificationMethod" yaml:"verificationMethod"`
	Date               string      `json:"date" yaml:"date"`
	Verifier           string      `json:"verifier" yaml:"verifier"`
}

// KnownStatus returns the parsed status of the milestone.
func (m Milestone) KnownStatus() MilestoneStatus {
	return ParseMilestoneStatus(m.Status)
}

// ProjectProgress is the rollout record of a single project.
type ProjectProgress struct {
	Project            string      `json:"project" yaml:"project"`
	StartDate          string      `json:"startDate" yaml:"startDate"`
	ExpectedCompletion string      `json:"expectedCompletion" yaml:"expectedCompletion"`
	Progress           int         `json:"progress" yaml:"progress"`
	Milestones         []Milestone `json:"milestones" yaml:"milestones"`
}

// Percent returns Progress clamped to [0, 100].
func (p ProjectProgress) Percent() int {
	return ClampPercent(p.Progress)
}

// ClampPercent limits v to the range [0, 100].
func ClampPercent(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// TrafficPoint is one sample of the network traffic series.
type TrafficPoint struct {
	Time      string  `json:"time" yaml:"time"`
	Bandwidth float64 `json:"bandwidth" yaml:"bandwidth"`
}

// NewProject is the body of a project creation request.
type NewProject struct {
	Name    string `json:"name" yaml:"name"`
	Status  string `json:"status" yaml:"status"`
	Schools int    `json:"schools" yaml:"schools"`
}

// StatusChange is the body of a project status update request.
type StatusChange struct {
	Name      string `json:"name" yaml:"name"`
	NewStatus string `json:"newStatus" yaml:"newStatus"`
}
