package mcp

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cookiejar-app/cookiejar/internal/domain/cookie"
	"github.com/cookiejar-app/cookiejar/internal/domain/project"
	"github.com/cookiejar-app/cookiejar/internal/stats"
)

type logCookieInput struct {
	Note      string `json:"note"`
	ProjectID string `json:"project_id,omitempty"`
	Level     int    `json:"level,omitempty"`
}

type logCookieOutput struct {
	Cookie cookie.Cookie `json:"cookie"`
}

type listProjectsOutput struct {
	Projects []project.Project `json:"projects"`
}

type dailySummaryOutput struct {
	Summary stats.DailySummary `json:"summary"`
}

func registerTools(server *sdkmcp.Server, svcs Services) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "log_cookie",
		Description: "Record an accomplishment in the jar",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in logCookieInput) (*sdkmcp.CallToolResult, logCookieOutput, error) {
		input := map[string]any{"note": in.Note}
		if in.ProjectID != "" {
			input["projectId"] = in.ProjectID
		}
		if in.Level != 0 {
			input["level"] = in.Level
		}
		c, err := svcs.Cookies.Create(ctx, input)
		if err != nil {
			return nil, logCookieOutput{}, fmt.Errorf("logging cookie: %w", err)
		}
		return nil, logCookieOutput{Cookie: c}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List all projects with their ids, tags and status",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, _ struct{}) (*sdkmcp.CallToolResult, listProjectsOutput, error) {
		projects, err := svcs.Projects.List(ctx)
		if err != nil {
			return nil, listProjectsOutput{}, fmt.Errorf("listing projects: %w", err)
		}
		if projects == nil {
			projects = []project.Project{}
		}
		return nil, listProjectsOutput{Projects: projects}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "daily_summary",
		Description: "Summarize today's activity: counts, records, streak and milestones",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, _ struct{}) (*sdkmcp.CallToolResult, dailySummaryOutput, error) {
		summary, err := statsFor(ctx, svcs)
		if err != nil {
			return nil, dailySummaryOutput{}, fmt.Errorf("building summary: %w", err)
		}
		return nil, dailySummaryOutput{Summary: summary}, nil
	})
}
