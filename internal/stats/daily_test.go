package stats_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cookiejar-app/cookiejar/internal/domain/cookie"
	"github.com/cookiejar-app/cookiejar/internal/domain/project"
	"github.com/cookiejar-app/cookiejar/internal/stats"
)

func TestIsMilestone(t *testing.T) {
	milestones := []int{1, 5, 10, 15, 100}
	for _, n := range milestones {
		require.True(t, stats.IsMilestone(n), "n=%d", n)
	}
	for _, n := range []int{0, 2, 3, 4, 6, 7, 11, -5} {
		require.False(t, stats.IsMilestone(n), "n=%d", n)
	}
}

func TestBuildDailySummary_Empty(t *testing.T) {
	summary := stats.BuildDailySummary(nil, nil, wednesday)
	require.Equal(t, "2024-03-13", summary.Date)
	require.Zero(t, summary.TodayCount)
	require.Zero(t, summary.Streak)
	require.False(t, summary.NewRecord)
	require.Empty(t, summary.ProjectMilestones)
	require.Empty(t, summary.TagMilestones)
	require.Empty(t, summary.TopProjectID)
}

func TestBuildDailySummary_NewRecordIsStrict(t *testing.T) {
	var cookies []cookie.Cookie
	add := func(offset, n int) {
		for i := 0; i < n; i++ {
			cookies = append(cookies, unassigned(wednesday.AddDate(0, 0, offset)))
		}
	}
	add(-1, 3)
	add(0, 3)

	summary := stats.BuildDailySummary(cookies, nil, wednesday)
	require.Equal(t, 3, summary.TodayCount)
	require.Equal(t, 3, summary.PreviousBest)
	require.False(t, summary.NewRecord, "a tie is not a record")

	cookies = append(cookies, unassigned(wednesday))
	summary = stats.BuildDailySummary(cookies, nil, wednesday)
	require.Equal(t, 4, summary.TodayCount)
	require.True(t, summary.NewRecord)
}

func TestBuildDailySummary_Streak(t *testing.T) {
	cookies := []cookie.Cookie{
		unassigned(wednesday),
		unassigned(wednesday.AddDate(0, 0, -1)),
		unassigned(wednesday.AddDate(0, 0, -2)),
		// Gap at -3 ends the run.
		unassigned(wednesday.AddDate(0, 0, -4)),
	}
	summary := stats.BuildDailySummary(cookies, nil, wednesday)
	require.Equal(t, 3, summary.Streak)
}

func TestBuildDailySummary_MilestonesUseAllTimeTotals(t *testing.T) {
	projects := []project.Project{
		{ID: "p1", Name: "Piano", Tags: []string{"music"}, Status: project.StatusActive},
		{ID: "p2", Name: "Garden", Tags: []string{"outside"}, Status: project.StatusActive},
	}
	var cookies []cookie.Cookie
	// Four older cookies plus one today puts Piano at five all-time.
	for i := 0; i < 4; i++ {
		cookies = append(cookies, assigned("p1", wednesday.AddDate(0, 0, -10)))
	}
	cookies = append(cookies, assigned("p1", wednesday))
	// Garden was not touched today, so its milestone does not fire.
	cookies = append(cookies, assigned("p2", wednesday.AddDate(0, 0, -5)))

	summary := stats.BuildDailySummary(cookies, projects, wednesday)
	require.Len(t, summary.ProjectMilestones, 1)
	require.Equal(t, "p1", summary.ProjectMilestones[0].ProjectID)
	require.Equal(t, "Piano", summary.ProjectMilestones[0].Name)
	require.Equal(t, 5, summary.ProjectMilestones[0].Count)

	require.Len(t, summary.TagMilestones, 1)
	require.Equal(t, "music", summary.TagMilestones[0].Tag)
	require.Equal(t, 5, summary.TagMilestones[0].Count)
}

func TestBuildDailySummary_FirstCookieMilestone(t *testing.T) {
	projects := []project.Project{
		{ID: "p1", Name: "Piano", Status: project.StatusActive},
	}
	cookies := []cookie.Cookie{assigned("p1", wednesday)}

	summary := stats.BuildDailySummary(cookies, projects, wednesday)
	require.Len(t, summary.ProjectMilestones, 1)
	require.Equal(t, 1, summary.ProjectMilestones[0].Count)
}

func TestBuildDailySummary_UnassignedNeverMilestones(t *testing.T) {
	cookies := []cookie.Cookie{unassigned(wednesday)}
	summary := stats.BuildDailySummary(cookies, nil, wednesday)
	require.Empty(t, summary.ProjectMilestones)
}

func TestBuildDailySummary_TopProject(t *testing.T) {
	projects := []project.Project{
		{ID: "p1", Name: "Piano", Status: project.StatusActive},
		{ID: "p2", Name: "Garden", Status: project.StatusActive},
	}
	cookies := []cookie.Cookie{
		assigned("p1", wednesday),
		assigned("p2", wednesday),
		assigned("p2", wednesday),
		unassigned(wednesday),
	}

	summary := stats.BuildDailySummary(cookies, projects, wednesday)
	require.Equal(t, "p2", summary.TopProjectID)
	require.Equal(t, "Garden", summary.TopProjectName)
	require.Equal(t, 2, summary.TopProjectCount)
}

func TestBuildDailySummary_TopProjectTieKeepsFirst(t *testing.T) {
	projects := []project.Project{
		{ID: "p1", Name: "Piano", Status: project.StatusActive},
		{ID: "p2", Name: "Garden", Status: project.StatusActive},
	}
	cookies := []cookie.Cookie{
		assigned("p1", wednesday),
		assigned("p2", wednesday),
	}

	summary := stats.BuildDailySummary(cookies, projects, wednesday)
	require.Equal(t, "p1", summary.TopProjectID)
}

func TestBuildDailySummary_UnassignedNeverTops(t *testing.T) {
	cookies := []cookie.Cookie{
		unassigned(wednesday),
		unassigned(wednesday),
	}
	summary := stats.BuildDailySummary(cookies, nil, wednesday)
	require.Empty(t, summary.TopProjectID)
	require.Zero(t, summary.TopProjectCount)
}

func TestBuildDailySummary_YesterdayDoesNotCount(t *testing.T) {
	cookies := []cookie.Cookie{unassigned(wednesday.Add(-24 * time.Hour))}
	summary := stats.BuildDailySummary(cookies, nil, wednesday)
	require.Zero(t, summary.TodayCount)
	require.Equal(t, 1, summary.PreviousBest)
}
