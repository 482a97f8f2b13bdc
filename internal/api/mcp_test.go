package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/bidwise/bidwise/internal/client"
	"github.com/bidwise/bidwise/internal/models"
	"github.com/bidwise/bidwise/internal/score"
	"github.com/bidwise/bidwise/internal/storage"
	"github.com/bidwise/bidwise/internal/store"
)

// --- helpers ---

func newTestMCPDeps(t *testing.T) (MCPDeps, *storage.Store) {
	t.Helper()
	h, db := setupBackend(t, testToken)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	st := store.New(client.New(srv.URL, client.WithToken(testToken)), nil)
	return MCPDeps{Store: st, Summary: score.Default(), Version: "test"}, db
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func makeReadResourceRequest(uri string) mcp.ReadResourceRequest {
	return mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	result, err := handler(context.Background(), makeCallToolRequest(name, args))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return result
}

// --- tests ---

func TestMCPTool_ListProjects(t *testing.T) {
	deps, _ := newTestMCPDeps(t)

	result := callTool(t, mcpListProjects(deps), "list_projects", nil)
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}

	var projects []models.Project
	if err := json.Unmarshal([]byte(toolText(t, result)), &projects); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(projects) != 3 {
		t.Fatalf("expected 3 projects, got %d", len(projects))
	}
}

func TestMCPTool_ListBids_Ranked(t *testing.T) {
	deps, _ := newTestMCPDeps(t)

	result := callTool(t, mcpListBids(deps), "list_bids", map[string]interface{}{
		"project": "Rural Schools Network - Region A",
	})
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}

	var bids []struct {
		BidID string `json:"bid_id"`
		Score string `json:"score"`
	}
	if err := json.Unmarshal([]byte(toolText(t, result)), &bids); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(bids) != 2 {
		t.Fatalf("expected 2 bids, got %d", len(bids))
	}
	if bids[0].BidID != "BID_1" || bids[0].Score != "8.5/10" {
		t.Errorf("top bid = %+v, want BID_1 at 8.5/10", bids[0])
	}
	if got := deps.Store.Snapshot().Selected; got != "Rural Schools Network - Region A" {
		t.Errorf("Selected = %q", got)
	}
}

func TestMCPTool_ListBids_MissingProject(t *testing.T) {
	deps, _ := newTestMCPDeps(t)

	result := callTool(t, mcpListBids(deps), "list_bids", map[string]interface{}{})
	if !result.IsError {
		t.Fatal("expected error result")
	}
}

func TestMCPTool_ProjectProgress(t *testing.T) {
	deps, _ := newTestMCPDeps(t)

	result := callTool(t, mcpProjectProgress(deps), "project_progress", map[string]interface{}{
		"project": "Rural Schools Network - Region A",
	})
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}
	var p models.ProjectProgress
	if err := json.Unmarshal([]byte(toolText(t, result)), &p); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if p.Project != "Rural Schools Network - Region A" || len(p.Milestones) == 0 {
		t.Errorf("progress = %+v", p)
	}

	result = callTool(t, mcpProjectProgress(deps), "project_progress", map[string]interface{}{
		"project": "Urban Connectivity Project B",
	})
	if !result.IsError {
		t.Fatal("expected error for project without progress")
	}
	if text := toolText(t, result); text != "Project progress not found." {
		t.Errorf("text = %q", text)
	}
}

func TestMCPTool_CreateProject(t *testing.T) {
	deps, db := newTestMCPDeps(t)

	result := callTool(t, mcpCreateProject(deps), "create_project", map[string]interface{}{
		"name":    "Island Schools",
		"status":  "Open for Bids",
		"schools": 4,
	})
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}

	p, err := db.GetProject("Island Schools")
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if p.Schools != 4 {
		t.Errorf("schools = %d, want 4", p.Schools)
	}
	if !strings.Contains(toolText(t, result), "Island Schools") {
		t.Error("refreshed project list missing the new project")
	}

	result = callTool(t, mcpCreateProject(deps), "create_project", map[string]interface{}{
		"name":   "Island Schools",
		"status": "Open for Bids",
	})
	if !result.IsError || !strings.Contains(toolText(t, result), "already exists") {
		t.Errorf("duplicate create: %s", toolText(t, result))
	}
}

func TestMCPTool_CreateProject_Validation(t *testing.T) {
	deps, _ := newTestMCPDeps(t)

	result := callTool(t, mcpCreateProject(deps), "create_project", map[string]interface{}{
		"name":   "   ",
		"status": "Open for Bids",
	})
	if !result.IsError {
		t.Fatal("expected validation error")
	}
	if text := toolText(t, result); text != "Project name is required." {
		t.Errorf("text = %q", text)
	}
}

func TestMCPTool_ChangeProjectStatus(t *testing.T) {
	deps, db := newTestMCPDeps(t)

	result := callTool(t, mcpChangeStatus(deps), "change_project_status", map[string]interface{}{
		"name":       "Rural Schools Network - Region A",
		"new_status": "Under Review",
	})
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}
	p, err := db.GetProject("Rural Schools Network - Region A")
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if p.Status != "Under Review" {
		t.Errorf("status = %q", p.Status)
	}

	result = callTool(t, mcpChangeStatus(deps), "change_project_status", map[string]interface{}{
		"name":       "ghost",
		"new_status": "Completed",
	})
	if !result.IsError {
		t.Fatal("expected error for unknown project")
	}
}

func TestMCPTool_TrafficData(t *testing.T) {
	deps, _ := newTestMCPDeps(t)

	result := callTool(t, mcpTrafficData(deps), "traffic_data", nil)
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}

	var out struct {
		Series []models.TrafficPoint `json:"series"`
		Stats  struct {
			Max float64 `json:"max"`
		} `json:"stats"`
		Sparkline string `json:"sparkline"`
	}
	if err := json.Unmarshal([]byte(toolText(t, result)), &out); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(out.Series) == 0 || out.Stats.Max == 0 {
		t.Errorf("traffic = %+v", out)
	}
	if got := len([]rune(out.Sparkline)); got != len(out.Series) {
		t.Errorf("sparkline has %d cells for %d samples", got, len(out.Series))
	}
}

func TestMCPTool_BackendUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	deps := MCPDeps{Store: store.New(client.New(srv.URL), nil)}
	result := callTool(t, mcpListProjects(deps), "list_projects", nil)
	if !result.IsError {
		t.Fatal("expected error result")
	}
	if text := toolText(t, result); text != "Failed to fetch projects." {
		t.Errorf("text = %q", text)
	}
}

func TestMCPResource_AIScore(t *testing.T) {
	deps, _ := newTestMCPDeps(t)
	callTool(t, mcpListBids(deps), "list_bids", map[string]interface{}{
		"project": "Rural Schools Network - Region A",
	})

	contents, err := mcpResourceScore(deps)(context.Background(), makeReadResourceRequest("bidwise://ai-score"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}
	if !strings.Contains(tc.Text, "8.2/10") {
		t.Errorf("report missing overall score:\n%s", tc.Text)
	}
	if !strings.Contains(tc.Text, "TechNet Solutions") {
		t.Errorf("report missing ranked bids:\n%s", tc.Text)
	}
}

func TestMCPResource_Snapshot(t *testing.T) {
	deps, _ := newTestMCPDeps(t)
	if err := deps.Store.LoadInitial(context.Background()); err != nil {
		t.Fatalf("LoadInitial: %v", err)
	}

	contents, err := mcpResourceSnapshot(deps)(context.Background(), makeReadResourceRequest("bidwise://snapshot"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tc := contents[0].(mcp.TextResourceContents)

	var snap store.Snapshot
	if err := json.Unmarshal([]byte(tc.Text), &snap); err != nil {
		t.Fatalf("failed to parse snapshot: %v", err)
	}
	if snap.Selected == "" || len(snap.Projects) != 3 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestNewMCPServer_Registers(t *testing.T) {
	deps, _ := newTestMCPDeps(t)
	if NewMCPServer(deps) == nil {
		t.Fatal("NewMCPServer returned nil")
	}
}
