package stats

import (
	"time"

	"github.com/cookiejar-app/cookiejar/internal/domain/cookie"
)

// Day is one cell of the activity heatmap.
type Day struct {
	Date  string `json:"date"` // YYYY-MM-DD, local calendar
	Count int    `json:"count"`
	Level int    `json:"level"` // 0..4
}

// Level buckets a daily count into an intensity tier. The thresholds are
// strict: 0, >0, >2, >5, >8.
func Level(count int) int {
	switch {
	case count > 8:
		return 4
	case count > 5:
		return 3
	case count > 2:
		return 2
	case count > 0:
		return 1
	default:
		return 0
	}
}

// BuildHeatmap buckets cookies per local calendar day over the trailing
// 365 days ending today, with the window start snapped back to the most
// recent Sunday so the grid aligns to whole weeks.
func BuildHeatmap(cookies []cookie.Cookie, today time.Time) []Day {
	loc := today.Location()
	counts := map[string]int{}
	for _, c := range cookies {
		counts[dayKey(c.Timestamp, loc)]++
	}

	end := midnight(today)
	start := end.AddDate(0, 0, -365)
	for start.Weekday() != time.Sunday {
		start = start.AddDate(0, 0, -1)
	}

	var days []Day
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		n := counts[key]
		days = append(days, Day{Date: key, Count: n, Level: Level(n)})
	}
	return days
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
