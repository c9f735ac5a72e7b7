// Package mcp exposes the jar to agent tooling over the Model Context
// Protocol. It is an optional surface; the daemon mounts it only when
// enabled in config.
package mcp

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cookiejar-app/cookiejar/internal/domain/cookie"
	"github.com/cookiejar-app/cookiejar/internal/domain/project"
	"github.com/cookiejar-app/cookiejar/internal/stats"
)

const serverInstructions = `Cookie Jar tracks small wins ("cookies") across projects.
Use log_cookie to record an accomplishment, list_projects to discover
project ids, and daily_summary to review today's progress.`

// CookieService defines cookie operations needed by MCP.
type CookieService interface {
	List(ctx context.Context) ([]cookie.Cookie, error)
	Create(ctx context.Context, input map[string]any) (cookie.Cookie, error)
}

// ProjectService defines project operations needed by MCP.
type ProjectService interface {
	List(ctx context.Context) ([]project.Project, error)
}

// Services contains the domain services needed by MCP.
type Services struct {
	Cookies  CookieService
	Projects ProjectService
}

// Config contains server configuration.
type Config struct {
	Services Services
	Logger   *slog.Logger
}

// NewServer creates and configures an MCP server with all tools.
func NewServer(cfg Config) *sdkmcp.Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "cookiejar",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerTools(server, cfg.Services)
	return server
}

// NewHTTPHandler wraps the MCP server for mounting on the daemon router.
func NewHTTPHandler(server *sdkmcp.Server) http.Handler {
	return sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return server },
		&sdkmcp.StreamableHTTPOptions{Stateless: true},
	)
}

// statsFor recomputes the daily summary from the live collections.
func statsFor(ctx context.Context, svcs Services) (stats.DailySummary, error) {
	cookies, err := svcs.Cookies.List(ctx)
	if err != nil {
		return stats.DailySummary{}, err
	}
	projects, err := svcs.Projects.List(ctx)
	if err != nil {
		return stats.DailySummary{}, err
	}
	return stats.BuildDailySummary(cookies, projects, time.Now()), nil
}
