package sqlgen

import (
	"strings"
	"time"

	"github.com/crmlens/crmlens/internal/interpreter"
)

// resolveTimeFrame turns a timeframe into concrete instants. Windows the
// interpreter (or the fallback) already resolved pass through; otherwise
// only the enumerated phrase set and the "past N units" form are supported
// and anything else reports false so the caller drops the constraint.
func (g *Generator) resolveTimeFrame(tf *interpreter.TimeFrame) (time.Time, time.Time, bool) {
	if tf.Start != nil && tf.End != nil && !tf.End.Before(*tf.Start) {
		return *tf.Start, *tf.End, true
	}

	now := g.now()
	switch strings.ToLower(strings.TrimSpace(tf.Relative)) {
	case "today":
		return startOfDay(now), now, true
	case "yesterday":
		today := startOfDay(now)
		return today.AddDate(0, 0, -1), today.Add(-time.Second), true
	case "this week":
		return startOfWeek(now), now, true
	case "last week":
		week := startOfWeek(now)
		return week.AddDate(0, 0, -7), week.Add(-time.Second), true
	case "this month":
		return startOfMonth(now), now, true
	case "last month":
		month := startOfMonth(now)
		return month.AddDate(0, -1, 0), month.Add(-time.Second), true
	case "this quarter":
		return startOfQuarter(now), now, true
	case "last quarter":
		quarter := startOfQuarter(now)
		return quarter.AddDate(0, -3, 0), quarter.Add(-time.Second), true
	case "this year":
		return startOfYear(now), now, true
	case "last year":
		year := startOfYear(now)
		return year.AddDate(-1, 0, 0), year.Add(-time.Second), true
	}

	if n, unit, ok := interpreter.ParseRelative(tf.Relative); ok {
		return relativeStart(now, n, unit), now, true
	}
	return time.Time{}, time.Time{}, false
}

func relativeStart(now time.Time, n int, unit interpreter.TimeFrameType) time.Time {
	switch unit {
	case interpreter.TimeDay:
		return now.AddDate(0, 0, -n)
	case interpreter.TimeWeek:
		return now.AddDate(0, 0, -7*n)
	case interpreter.TimeMonth:
		return now.AddDate(0, -n, 0)
	case interpreter.TimeQuarter:
		return now.AddDate(0, -3*n, 0)
	case interpreter.TimeYear:
		return now.AddDate(-n, 0, 0)
	}
	return now
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfWeek treats Monday as the first day.
func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return day.AddDate(0, 0, -(weekday - 1))
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func startOfQuarter(t time.Time) time.Time {
	quarter := (int(t.Month()) - 1) / 3
	return time.Date(t.Year(), time.Month(quarter*3+1), 1, 0, 0, 0, 0, t.Location())
}

func startOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
}
