package stats

import (
	"sort"
	"time"

	"github.com/cookiejar-app/cookiejar/internal/domain/cookie"
	"github.com/cookiejar-app/cookiejar/internal/domain/project"
)

// ProjectMilestone reports a project whose all-time count hit a
// milestone through today's activity.
type ProjectMilestone struct {
	ProjectID string `json:"projectId"`
	Name      string `json:"name"`
	Count     int    `json:"count"`
}

// TagMilestone reports a tag whose all-time count hit a milestone
// through today's activity.
type TagMilestone struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// DailySummary carries everything the daily log and notifications need.
type DailySummary struct {
	Date              string             `json:"date"`
	TodayCount        int                `json:"todayCount"`
	PreviousBest      int                `json:"previousBest"`
	NewRecord         bool               `json:"newRecord"`
	TotalCookies      int                `json:"totalCookies"`
	Streak            int                `json:"streak"`
	TopProjectID      string             `json:"topProjectId,omitempty"`
	TopProjectName    string             `json:"topProjectName,omitempty"`
	TopProjectCount   int                `json:"topProjectCount,omitempty"`
	ProjectMilestones []ProjectMilestone `json:"projectMilestones"`
	TagMilestones     []TagMilestone     `json:"tagMilestones"`
}

// IsMilestone reports whether a cumulative count is a milestone: the
// first cookie ever, or any positive multiple of five.
func IsMilestone(n int) bool {
	return n == 1 || (n > 0 && n%5 == 0)
}

// BuildDailySummary computes today's activity summary. Milestones use
// all-time totals and are only evaluated for projects and tags touched
// by today's cookies. The top project tie-break is deterministic: the
// first project to reach the maximum, in collection order.
func BuildDailySummary(cookies []cookie.Cookie, projects []project.Project, today time.Time) DailySummary {
	loc := today.Location()
	todayKey := midnight(today).Format("2006-01-02")

	byID := map[string]project.Project{}
	for _, p := range projects {
		byID[p.ID] = p
	}

	dailyCounts := map[string]int{}
	projectCounts := map[string]int{}
	tagCounts := map[string]int{}
	for _, c := range cookies {
		dailyCounts[dayKey(c.Timestamp, loc)]++
		pid := Unassigned
		if c.ProjectID != nil {
			pid = *c.ProjectID
		}
		projectCounts[pid]++
		if p, ok := byID[pid]; ok {
			for _, t := range p.Tags {
				tagCounts[t]++
			}
		}
	}

	summary := DailySummary{
		Date:              todayKey,
		TodayCount:        dailyCounts[todayKey],
		TotalCookies:      len(cookies),
		ProjectMilestones: []ProjectMilestone{},
		TagMilestones:     []TagMilestone{},
	}

	for day, n := range dailyCounts {
		if day != todayKey && n > summary.PreviousBest {
			summary.PreviousBest = n
		}
	}
	summary.NewRecord = summary.TodayCount > summary.PreviousBest
	summary.Streak = streak(dailyCounts, today)

	// Projects and tags touched today, in first-encountered order.
	var touchedProjects []string
	seenProjects := map[string]bool{}
	touchedTags := map[string]bool{}
	todayProjectCounts := map[string]int{}
	for _, c := range cookies {
		if dayKey(c.Timestamp, loc) != todayKey {
			continue
		}
		pid := Unassigned
		if c.ProjectID != nil {
			pid = *c.ProjectID
		}
		todayProjectCounts[pid]++
		if !seenProjects[pid] {
			seenProjects[pid] = true
			touchedProjects = append(touchedProjects, pid)
		}
		if p, ok := byID[pid]; ok {
			for _, t := range p.Tags {
				touchedTags[t] = true
			}
		}
	}

	for _, pid := range touchedProjects {
		if pid == Unassigned {
			continue
		}
		if total := projectCounts[pid]; IsMilestone(total) {
			name := pid
			if p, ok := byID[pid]; ok {
				name = p.Name
			}
			summary.ProjectMilestones = append(summary.ProjectMilestones, ProjectMilestone{
				ProjectID: pid,
				Name:      name,
				Count:     total,
			})
		}
	}

	tags := make([]string, 0, len(touchedTags))
	for t := range touchedTags {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	for _, t := range tags {
		if total := tagCounts[t]; IsMilestone(total) {
			summary.TagMilestones = append(summary.TagMilestones, TagMilestone{Tag: t, Count: total})
		}
	}

	top, topCount := "", 0
	for _, pid := range touchedProjects {
		if todayProjectCounts[pid] > topCount {
			top, topCount = pid, todayProjectCounts[pid]
		}
	}
	if top != Unassigned && topCount > 0 {
		summary.TopProjectID = top
		summary.TopProjectCount = topCount
		if p, ok := byID[top]; ok {
			summary.TopProjectName = p.Name
		}
	}

	return summary
}

// streak counts consecutive active local days ending today.
func streak(dailyCounts map[string]int, today time.Time) int {
	n := 0
	for d := midnight(today); dailyCounts[d.Format("2006-01-02")] > 0; d = d.AddDate(0, 0, -1) {
		n++
	}
	return n
}
