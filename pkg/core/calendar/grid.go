package calendar

import (
	"fmt"
	"strings"
	"time"
)

// GridDays is the number of cells in a month grid (6 rows of 7 days)
const GridDays = 42

// Window is an inclusive range of calendar days at midnight UTC
type Window struct {
	From time.Time
	To   time.Time
}

// Contains reports whether the day falls inside the window
func (w Window) Contains(day time.Time) bool {
	return !day.Before(w.From) && !day.After(w.To)
}

// Days returns every day in the window
func (w Window) Days() []time.Time {
	var days []time.Time
	for d := w.From; !d.After(w.To); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// MonthWindow returns the 6x7 grid range covering the month, including the
// leading and trailing days of the neighbouring months
func MonthWindow(year int, month time.Month, weekStart time.Weekday) Window {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(first.Weekday()) - int(weekStart) + 7) % 7
	from := first.AddDate(0, 0, -offset)
	return Window{From: from, To: from.AddDate(0, 0, GridDays-1)}
}

// Weeks splits the window into rows of seven days
func (w Window) Weeks() [][]time.Time {
	days := w.Days()
	var weeks [][]time.Time
	for i := 0; i < len(days); i += 7 {
		end := i + 7
		if end > len(days) {
			end = len(days)
		}
		weeks = append(weeks, days[i:end])
	}
	return weeks
}

// ParseWeekStart accepts "sunday" or "monday"
func ParseWeekStart(s string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sunday", "sun":
		return time.Sunday, nil
	case "monday", "mon":
		return time.Monday, nil
	default:
		return time.Sunday, fmt.Errorf("unsupported week start %q", s)
	}
}

// ParseMonth parses "2006-01" into a year and month
func ParseMonth(s string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q (expected YYYY-MM): %w", s, err)
	}
	return t.Year(), t.Month(), nil
}
