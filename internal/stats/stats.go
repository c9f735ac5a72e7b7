// Package stats derives dashboard statistics from the full collections.
// Everything here is pure: observers re-fetch and recompute after every
// change notification, so there is no incremental state to maintain.
package stats

import (
	"time"

	"github.com/cookiejar-app/cookiejar/internal/domain/cookie"
	"github.com/cookiejar-app/cookiejar/internal/domain/project"
)

// ProjectStat aggregates the cookies of one project.
type ProjectStat struct {
	CookieCount int   `json:"cookieCount"`
	LastActive  int64 `json:"lastActive"`
}

// Totals holds the dashboard summary cards.
type Totals struct {
	TotalCookies   int `json:"totalCookies"`
	ActiveProjects int `json:"activeProjects"`
	DaysActive     int `json:"daysActive"`
}

// Unassigned keys the aggregate bucket of cookies without a project.
const Unassigned = ""

// Aggregate computes per-project cookie counts and last-active
// timestamps. Cookies without a project land in the Unassigned bucket.
func Aggregate(cookies []cookie.Cookie) map[string]ProjectStat {
	out := map[string]ProjectStat{}
	for _, c := range cookies {
		key := Unassigned
		if c.ProjectID != nil {
			key = *c.ProjectID
		}
		stat := out[key]
		stat.CookieCount++
		if c.Timestamp > stat.LastActive {
			stat.LastActive = c.Timestamp
		}
		out[key] = stat
	}
	return out
}

// ComputeTotals derives the dashboard summary numbers.
func ComputeTotals(cookies []cookie.Cookie, projects []project.Project, today time.Time) Totals {
	loc := today.Location()
	days := map[string]struct{}{}
	for _, c := range cookies {
		days[dayKey(c.Timestamp, loc)] = struct{}{}
	}
	active := 0
	for _, p := range projects {
		if p.Status == project.StatusActive {
			active++
		}
	}
	return Totals{
		TotalCookies:   len(cookies),
		ActiveProjects: active,
		DaysActive:     len(days),
	}
}

// dayKey collapses a timestamp to its local calendar day.
func dayKey(ms int64, loc *time.Location) string {
	return time.UnixMilli(ms).In(loc).Format("2006-01-02")
}
