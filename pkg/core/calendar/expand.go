package calendar

import (
	"sort"
	"time"

	"github.com/jakechorley/mesctl/pkg/core/model"
)

// DefaultMaxSpanDays bounds how many days a single event may be expanded over
const DefaultMaxSpanDays = 366

// Buckets maps an ISO date ("2006-01-02") to the events covering that day
type Buckets map[string][]model.CalEvent

// On returns the events on a given day
func (b Buckets) On(date string) []model.CalEvent {
	return b[date]
}

// Dates returns the bucket keys in chronological order
func (b Buckets) Dates() []string {
	dates := make([]string, 0, len(b))
	for d := range b {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Options controls event expansion
type Options struct {
	// Window clips expansion to the grid range; nil expands every day of every event
	Window *Window
	// MaxSpanDays truncates longer events; 0 disables the guard
	MaxSpanDays int
}

// Report lists the events that were skipped or altered during expansion
type Report struct {
	MissingStart   []model.CalEvent
	InvalidDate    []model.CalEvent
	EndBeforeStart []model.CalEvent
	Truncated      []model.CalEvent
}

// Skipped returns the number of events that contributed nothing
func (r Report) Skipped() int {
	return len(r.MissingStart) + len(r.InvalidDate) + len(r.EndBeforeStart)
}

// Expand places each event into the bucket of every day from its start date to its
// effective end date inclusive. Events without a start date are excluded.
// Each bucket is ordered by start date, then machine number.
func Expand(events []model.CalEvent, opts Options) (Buckets, Report) {
	buckets := make(Buckets)
	var report Report

	for _, ev := range events {
		if ev.StartDate == "" {
			report.MissingStart = append(report.MissingStart, ev)
			continue
		}

		start, err := ParseDate(ev.StartDate)
		if err != nil {
			report.InvalidDate = append(report.InvalidDate, ev)
			continue
		}
		end, err := ParseDate(ev.EffectiveEnd())
		if err != nil {
			report.InvalidDate = append(report.InvalidDate, ev)
			continue
		}
		if end.Before(start) {
			report.EndBeforeStart = append(report.EndBeforeStart, ev)
			continue
		}

		if opts.MaxSpanDays > 0 {
			limit := start.AddDate(0, 0, opts.MaxSpanDays-1)
			if end.After(limit) {
				end = limit
				report.Truncated = append(report.Truncated, ev)
			}
		}

		from, to := start, end
		if opts.Window != nil {
			if from.Before(opts.Window.From) {
				from = opts.Window.From
			}
			if to.After(opts.Window.To) {
				to = opts.Window.To
			}
		}

		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			key := FormatDate(d)
			buckets[key] = append(buckets[key], ev)
		}
	}

	for _, list := range buckets {
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].StartDate != list[j].StartDate {
				return list[i].StartDate < list[j].StartDate
			}
			return list[i].MachineNo < list[j].MachineNo
		})
	}

	return buckets, report
}

// ParseDate parses an ISO calendar date as midnight UTC
func ParseDate(s string) (time.Time, error) {
	return time.Parse(model.DateLayout, s)
}

// FormatDate formats a time as an ISO calendar date
func FormatDate(t time.Time) string {
	return t.Format(model.DateLayout)
}
