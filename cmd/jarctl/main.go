package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/cookiejar-app/cookiejar/internal/transport"
	"github.com/cookiejar-app/cookiejar/pkg/client"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

const defaultBaseURL = "http://127.0.0.1:7292"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	recordStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))

	// Heatmap palette, dim to bright by activity level.
	heatStyles = []lipgloss.Style{
		lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("22")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("40")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("82")),
	}
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		usage()
		return nil
	}

	baseURL := os.Getenv("COOKIEJAR_ADDR")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	c := client.New(baseURL, "jarctl")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch os.Args[1] {
	case "drop":
		return cmdDrop(ctx, c, os.Args[2:])
	case "cookies":
		return cmdCookies(ctx, c)
	case "projects":
		return cmdProjects(ctx, c)
	case "project":
		return cmdProject(ctx, c, os.Args[2:])
	case "stats":
		return cmdStats(ctx, c)
	case "today":
		return cmdToday(ctx, c)
	case "export":
		return cmdExport(ctx, c)
	case "import":
		return cmdImport(ctx, c, os.Args[2:])
	case "version":
		fmt.Println("jarctl", version)
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

func usage() {
	fmt.Println(titleStyle.Render("jarctl") + " - cookie jar from the command line")
	fmt.Println()
	fmt.Println("  drop <note> [-p project] [-l level]   record a cookie")
	fmt.Println("  cookies                               list recent cookies")
	fmt.Println("  projects                              list projects")
	fmt.Println("  project add <name> [tag,tag...]       create a project")
	fmt.Println("  project archive <id>                  archive a project")
	fmt.Println("  stats                                 totals and heatmap")
	fmt.Println("  today                                 today's summary")
	fmt.Println("  export                                write snapshot to stdout")
	fmt.Println("  import <file>                         replace data from snapshot")
}

func cmdDrop(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("drop", flag.ExitOnError)
	projectID := fs.String("p", "", "project id to credit")
	level := fs.Int("l", 1, "significance 1-3")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("drop needs a note")
	}

	input := map[string]any{
		"note":  strings.Join(fs.Args(), " "),
		"level": *level,
	}
	if *projectID != "" {
		input["projectId"] = *projectID
	}

	created, err := c.CreateCookie(ctx, input)
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("cookie dropped ") + subtleStyle.Render(created.ID))
	return nil
}

func cmdCookies(ctx context.Context, c *client.Client) error {
	cookies, err := c.ListCookies(ctx)
	if err != nil {
		return err
	}
	if len(cookies) == 0 {
		fmt.Println(subtleStyle.Render("the jar is empty"))
		return nil
	}

	// Most recent last, capped to the latest twenty.
	start := 0
	if len(cookies) > 20 {
		start = len(cookies) - 20
	}
	for _, ck := range cookies[start:] {
		when := time.UnixMilli(ck.Timestamp).Format("Jan 02 15:04")
		line := subtleStyle.Render(when) + "  " + ck.Note
		if ck.ProjectID != nil {
			line += subtleStyle.Render("  [" + *ck.ProjectID + "]")
		}
		fmt.Println(line)
	}
	return nil
}

func cmdProjects(ctx context.Context, c *client.Client) error {
	projects, err := c.ListProjects(ctx)
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Println(subtleStyle.Render("no projects yet"))
		return nil
	}
	for _, p := range projects {
		line := titleStyle.Render(p.Name) + "  " + subtleStyle.Render(p.ID)
		if len(p.Tags) > 0 {
			line += "  " + subtleStyle.Render(strings.Join(p.Tags, ", "))
		}
		if p.Status == "archived" {
			line += "  " + subtleStyle.Render("(archived)")
		}
		fmt.Println(line)
	}
	return nil
}

func cmdProject(ctx context.Context, c *client.Client, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("project needs a subcommand and argument")
	}
	switch args[0] {
	case "add":
		var tags []string
		if len(args) > 2 {
			tags = strings.Split(args[2], ",")
		}
		res, err := c.CreateProject(ctx, args[1], tags)
		if err != nil {
			return err
		}
		if !res.Success {
			return fmt.Errorf("%s", res.Error)
		}
		fmt.Println(successStyle.Render("project created ") + subtleStyle.Render(res.Project.ID))
		return nil
	case "archive":
		if _, err := c.SetProjectStatus(ctx, args[1], "archived"); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("project archived"))
		return nil
	default:
		return fmt.Errorf("unknown project subcommand: %s", args[0])
	}
}

func cmdStats(ctx context.Context, c *client.Client) error {
	overview, err := c.Overview(ctx)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render("cookie jar"))
	fmt.Printf("  cookies: %d   active projects: %d   days active: %d\n",
		overview.Totals.TotalCookies, overview.Totals.ActiveProjects, overview.Totals.DaysActive)
	fmt.Println()
	fmt.Println(renderHeatmap(overview))
	return nil
}

func cmdToday(ctx context.Context, c *client.Client) error {
	summary, err := c.DailySummary(ctx)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render(summary.Date))
	fmt.Printf("  today: %d   best: %d   total: %d   streak: %d\n",
		summary.TodayCount, summary.PreviousBest, summary.TotalCookies, summary.Streak)
	if summary.NewRecord {
		fmt.Println("  " + recordStyle.Render("new daily record!"))
	}
	if summary.TopProjectName != "" {
		fmt.Printf("  top project: %s (%d)\n", summary.TopProjectName, summary.TopProjectCount)
	}
	for _, m := range summary.ProjectMilestones {
		fmt.Println("  " + successStyle.Render(fmt.Sprintf("%s reached %d cookies", m.Name, m.Count)))
	}
	for _, m := range summary.TagMilestones {
		fmt.Println("  " + successStyle.Render(fmt.Sprintf("#%s reached %d cookies", m.Tag, m.Count)))
	}
	return nil
}

func cmdExport(ctx context.Context, c *client.Client) error {
	snapshot, err := c.Export(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(snapshot)
}

func cmdImport(ctx context.Context, c *client.Client, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("import needs a file")
	}
	payload, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	res, err := c.Import(ctx, payload)
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("%s", res.Error)
	}
	fmt.Println(successStyle.Render("import applied"))
	return nil
}

// renderHeatmap draws the year grid as weekly columns, Sunday on top,
// the way contribution calendars do. The window starts on a Sunday so
// the columns line up without padding.
func renderHeatmap(overview transport.Overview) string {
	days := overview.Heatmap
	if len(days) == 0 {
		return subtleStyle.Render("no activity yet")
	}

	weeks := (len(days) + 6) / 7
	var b strings.Builder
	for row := 0; row < 7; row++ {
		b.WriteString("  ")
		for col := 0; col < weeks; col++ {
			i := col*7 + row
			if i >= len(days) {
				b.WriteString(" ")
				continue
			}
			level := days[i].Level
			if level < 0 {
				level = 0
			}
			if level >= len(heatStyles) {
				level = len(heatStyles) - 1
			}
			b.WriteString(heatStyles[level].Render("■"))
		}
		b.WriteString("\n")
	}
	return b.String()
}
