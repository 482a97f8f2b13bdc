package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bidwise/bidwise/internal/models"
	"github.com/bidwise/bidwise/internal/score"
	"github.com/bidwise/bidwise/internal/store"
	"github.com/bidwise/bidwise/internal/view"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store   *store.Store
	Summary score.Summary
	Version string
}

// NewMCPServer creates an MCP server with all bidwise tools and resources registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	if deps.Version == "" {
		deps.Version = "dev"
	}
	s := server.NewMCPServer(
		"bidwise",
		deps.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("bidwise: school connectivity procurement data (projects, bids, network traffic, implementation progress)."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("list_projects",
			mcp.WithDescription("List all procurement projects with their status and school count."),
		),
		mcpListProjects(deps),
	)

	s.AddTool(
		mcp.NewTool("list_bids",
			mcp.WithDescription("Select a project and list the bids submitted for it."),
			mcp.WithString("project", mcp.Description("Project name"), mcp.Required()),
		),
		mcpListBids(deps),
	)

	s.AddTool(
		mcp.NewTool("project_progress",
			mcp.WithDescription("Select a project and return its implementation progress and milestones."),
			mcp.WithString("project", mcp.Description("Project name"), mcp.Required()),
		),
		mcpProjectProgress(deps),
	)

	s.AddTool(
		mcp.NewTool("create_project",
			mcp.WithDescription("Create a procurement project and return the refreshed project list."),
			mcp.WithString("name", mcp.Description("Unique project name"), mcp.Required()),
			mcp.WithString("status", mcp.Description("Initial status, e.g. Open for Bids"), mcp.Required()),
			mcp.WithNumber("schools", mcp.Description("Number of schools covered (default 0)")),
		),
		mcpCreateProject(deps),
	)

	s.AddTool(
		mcp.NewTool("change_project_status",
			mcp.WithDescription("Change the status of an existing project."),
			mcp.WithString("name", mcp.Description("Project name"), mcp.Required()),
			mcp.WithString("new_status", mcp.Description("New status, e.g. Under Review or Completed"), mcp.Required()),
		),
		mcpChangeStatus(deps),
	)

	s.AddTool(
		mcp.NewTool("traffic_data",
			mcp.WithDescription("Return the network bandwidth series with summary statistics."),
		),
		mcpTrafficData(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"bidwise://ai-score",
			"AI Score Report",
			mcp.WithResourceDescription("Proposal evaluation report with criteria scores and the bids of the selected project ranked"),
			mcp.WithMIMEType("text/plain"),
		),
		mcpResourceScore(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"bidwise://snapshot",
			"Dashboard Snapshot",
			mcp.WithResourceDescription("Current view state as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceSnapshot(deps),
	)

	return s
}

func mcpListProjects(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := deps.Store.RefreshProjects(ctx); err != nil {
			return mcpStoreError(deps, err), nil
		}
		return mcpJSON(deps.Store.Snapshot().Projects), nil
	}
}

func mcpListBids(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		project, err := req.RequireString("project")
		if err != nil || project == "" {
			return mcpError("project is required"), nil
		}
		if err := deps.Store.SelectProject(ctx, project); err != nil {
			return mcpStoreError(deps, err), nil
		}

		type rankedBid struct {
			models.Bid
			Score string `json:"score"`
		}
		ranked := score.RankBids(deps.Store.Snapshot().Bids)
		out := make([]rankedBid, len(ranked))
		for i, b := range ranked {
			out[i] = rankedBid{Bid: b, Score: score.FormatScore(b.Score())}
		}
		return mcpJSON(out), nil
	}
}

func mcpProjectProgress(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		project, err := req.RequireString("project")
		if err != nil || project == "" {
			return mcpError("project is required"), nil
		}
		if deps.Store.Snapshot().Selected != project {
			if err := deps.Store.SelectProject(ctx, project); err != nil {
				return mcpStoreError(deps, err), nil
			}
		}
		if err := deps.Store.RefreshProgress(ctx); err != nil {
			return mcpStoreError(deps, err), nil
		}

		p := deps.Store.Snapshot().Progress
		if p == nil {
			return mcpError(fmt.Sprintf("no progress recorded for %q", project)), nil
		}
		return mcpJSON(p), nil
	}
}

func mcpCreateProject(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil {
			return mcpError("name is required"), nil
		}
		status, err := req.RequireString("status")
		if err != nil {
			return mcpError("status is required"), nil
		}

		p := models.NewProject{Name: name, Status: status, Schools: req.GetInt("schools", 0)}
		if err := deps.Store.CreateProject(ctx, p); err != nil {
			return mcpStoreError(deps, err), nil
		}
		return mcpJSON(deps.Store.Snapshot().Projects), nil
	}
}

func mcpChangeStatus(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil {
			return mcpError("name is required"), nil
		}
		newStatus, err := req.RequireString("new_status")
		if err != nil {
			return mcpError("new_status is required"), nil
		}

		if err := deps.Store.ChangeProjectStatus(ctx, name, newStatus); err != nil {
			return mcpStoreError(deps, err), nil
		}
		return mcpText(fmt.Sprintf("Project %q is now %s.", name, newStatus)), nil
	}
}

func mcpTrafficData(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := deps.Store.RefreshTraffic(ctx); err != nil {
			return mcpStoreError(deps, err), nil
		}

		series := deps.Store.Snapshot().Traffic
		return mcpJSON(map[string]any{
			"series":    series,
			"stats":     view.TrafficStats(series),
			"sparkline": view.Sparkline(view.Bandwidths(series)),
		}), nil
	}
}

func mcpResourceScore(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "text/plain",
				Text:     score.Report(deps.Summary, deps.Store.Snapshot().Bids),
			},
		}, nil
	}
}

func mcpResourceSnapshot(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(deps.Store.Snapshot())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

// mcpStoreError reports the user-facing message the store recorded for err.
func mcpStoreError(deps MCPDeps, err error) *mcp.CallToolResult {
	if msg := deps.Store.Snapshot().Error; msg != "" {
		return mcpError(msg)
	}
	return mcpError(store.Describe(err, store.MsgUnknown))
}

func mcpJSON(v any) *mcp.CallToolResult {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err))
	}
	return mcpText(string(b))
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
