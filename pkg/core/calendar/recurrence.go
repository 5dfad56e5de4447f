package calendar

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/jakechorley/mesctl/pkg/core/model"
)

// DefaultRecurrenceLimit caps how many occurrences a single rule may produce
const DefaultRecurrenceLimit = 100

// Repeat expands an event into one copy per occurrence of an RFC 5545 rule, anchored
// at the event's start date. Multi-day events keep their span on every occurrence.
// The rule must be bounded with COUNT or UNTIL.
func Repeat(ev model.CalEvent, rule string, limit int) ([]model.CalEvent, error) {
	if ev.StartDate == "" {
		return nil, fmt.Errorf("event has no start date")
	}
	start, err := ParseDate(ev.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date: %w", err)
	}
	end, err := ParseDate(ev.EffectiveEnd())
	if err != nil {
		return nil, fmt.Errorf("invalid end date: %w", err)
	}
	spanDays := int(end.Sub(start).Hours() / 24)
	if spanDays < 0 {
		return nil, fmt.Errorf("end date %s is before start date %s", ev.EndDate, ev.StartDate)
	}

	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return nil, fmt.Errorf("invalid rrule: %w", err)
	}
	if opt.Count == 0 && opt.Until.IsZero() {
		return nil, fmt.Errorf("rrule must be bounded by COUNT or UNTIL")
	}
	opt.Dtstart = start

	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("invalid rrule: %w", err)
	}

	if limit <= 0 {
		limit = DefaultRecurrenceLimit
	}
	var occurrences []time.Time
	next := r.Iterator()
	for occ, ok := next(); ok; occ, ok = next() {
		if len(occurrences) == limit {
			return nil, fmt.Errorf("rrule produces more than %d occurrences, limit is %d", limit, limit)
		}
		occurrences = append(occurrences, occ)
	}

	events := make([]model.CalEvent, 0, len(occurrences))
	for _, occ := range occurrences {
		copied := ev
		copied.ID = 0
		copied.StartDate = FormatDate(occ)
		if ev.EndDate != "" {
			copied.EndDate = FormatDate(occ.AddDate(0, 0, spanDays))
		}
		events = append(events, copied)
	}
	return events, nil
}

// ValidateRule checks that a rule parses
func ValidateRule(rule string) error {
	if _, err := rrule.StrToRRule(rule); err != nil {
		return fmt.Errorf("invalid rrule: %w", err)
	}
	return nil
}
