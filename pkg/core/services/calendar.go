package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/mesctl/internal/config"
	"github.com/jakechorley/mesctl/pkg/core/calendar"
	"github.com/jakechorley/mesctl/pkg/core/model"
)

// EventsClient defines the backend operations needed to render a month
type EventsClient interface {
	ListEvents(ctx context.Context, from, to string) ([]model.CalEvent, error)
}

// EventWriter defines the backend operations that change events
type EventWriter interface {
	EventsClient
	CreateEvent(ctx context.Context, ev model.CalEvent) (*model.CalEvent, error)
	CreateEvents(ctx context.Context, events []model.CalEvent) ([]model.CalEvent, error)
	UpdateEvent(ctx context.Context, id int64, patch model.EventPatch) error
	DeleteEvent(ctx context.Context, id int64) error
}

// MonthQuery selects the month grid to load
type MonthQuery struct {
	Year        int
	Month       time.Month
	WeekStart   time.Weekday
	MaxSpanDays int
	Tags        []calendar.Selector // Empty shows every event
}

// MonthResult is a month grid ready to render
type MonthResult struct {
	Window    calendar.Window
	Events    []model.CalEvent // After tag filtering
	Buckets   calendar.Buckets
	Report    calendar.Report
	TagCounts map[string]int // Over all fetched events, before filtering
}

// LoadMonth fetches the events overlapping the month grid and expands them into day buckets
func LoadMonth(ctx context.Context, client EventsClient, logger *zap.Logger, q MonthQuery) (*MonthResult, error) {
	if q.Month < time.January || q.Month > time.December {
		return nil, fmt.Errorf("invalid month %d", q.Month)
	}

	window := calendar.MonthWindow(q.Year, q.Month, q.WeekStart)
	from, to := calendar.FormatDate(window.From), calendar.FormatDate(window.To)

	logger.Debug("Fetching events", zap.String("from", from), zap.String("to", to))
	events, err := client.ListEvents(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}

	filtered := calendar.Filter(events, q.Tags...)
	buckets, report := calendar.Expand(filtered, calendar.Options{
		Window:      &window,
		MaxSpanDays: q.MaxSpanDays,
	})

	logger.Debug("Month expanded",
		zap.Int("events", len(events)),
		zap.Int("filtered", len(filtered)),
		zap.Int("days", len(buckets)))
	logReport(logger, report)

	return &MonthResult{
		Window:    window,
		Events:    filtered,
		Buckets:   buckets,
		Report:    report,
		TagCounts: calendar.CountByTag(events),
	}, nil
}

func logReport(logger *zap.Logger, report calendar.Report) {
	ids := func(events []model.CalEvent) []int64 {
		out := make([]int64, len(events))
		for i, ev := range events {
			out[i] = ev.ID
		}
		return out
	}
	if n := len(report.MissingStart) + len(report.InvalidDate); n > 0 {
		logger.Warn("Skipping events with missing or invalid dates",
			zap.Int64s("missing_start", ids(report.MissingStart)),
			zap.Int64s("invalid_date", ids(report.InvalidDate)))
	}
	if len(report.EndBeforeStart) > 0 {
		logger.Warn("Skipping events that end before they start", zap.Int64s("ids", ids(report.EndBeforeStart)))
	}
	if len(report.Truncated) > 0 {
		logger.Warn("Truncated events longer than the span limit", zap.Int64s("ids", ids(report.Truncated)))
	}
}

// NewEventRequest describes one event to create, optionally repeated by an RRULE
type NewEventRequest struct {
	Event model.CalEvent
	RRule string // Empty creates a single event
	Limit int    // Maximum occurrences for RRule
}

// CreateResult holds the created events and the reloaded month
type CreateResult struct {
	Created []model.CalEvent
	Month   *MonthResult
}

// CreateEvents creates a single event, or every occurrence of a recurring one
// through the batch endpoint, then reloads the month
func CreateEvents(ctx context.Context, client EventWriter, logger *zap.Logger, req NewEventRequest, q MonthQuery) (*CreateResult, error) {
	ev := req.Event
	ev.StartDate = strings.TrimSpace(ev.StartDate)
	ev.EndDate = strings.TrimSpace(ev.EndDate)
	if err := validateEvent(ev); err != nil {
		return nil, err
	}

	var created []model.CalEvent
	if req.RRule == "" {
		logger.Info("Creating event", zap.String("machine_no", ev.MachineNo), zap.String("start", ev.StartDate))
		out, err := client.CreateEvent(ctx, ev)
		if err != nil {
			return nil, fmt.Errorf("failed to create event: %w", err)
		}
		created = []model.CalEvent{*out}
	} else {
		occurrences, err := calendar.Repeat(ev, req.RRule, req.Limit)
		if err != nil {
			return nil, err
		}
		logger.Info("Creating recurring events",
			zap.String("machine_no", ev.MachineNo),
			zap.String("rrule", req.RRule),
			zap.Int("count", len(occurrences)))
		created, err = client.CreateEvents(ctx, occurrences)
		if err != nil {
			return nil, fmt.Errorf("failed to create events: %w", err)
		}
	}

	month, err := LoadMonth(ctx, client, logger, q)
	if err != nil {
		return nil, err
	}
	return &CreateResult{Created: created, Month: month}, nil
}

// UpdateEvent applies a partial update, then reloads the month
func UpdateEvent(ctx context.Context, client EventWriter, logger *zap.Logger, id int64, patch model.EventPatch, q MonthQuery) (*MonthResult, error) {
	if id <= 0 {
		return nil, fmt.Errorf("invalid event id %d", id)
	}
	if err := validate.Struct(patch); err != nil {
		return nil, fmt.Errorf("invalid event update: %w", err)
	}
	if patch.StartDate != nil && patch.EndDate != nil && *patch.EndDate != "" && *patch.EndDate < *patch.StartDate {
		return nil, fmt.Errorf("end date %s is before start date %s", *patch.EndDate, *patch.StartDate)
	}

	logger.Info("Updating event", zap.Int64("id", id))
	if err := client.UpdateEvent(ctx, id, patch); err != nil {
		return nil, fmt.Errorf("failed to update event %d: %w", id, err)
	}

	return LoadMonth(ctx, client, logger, q)
}

// DeleteEvent removes an event, then reloads the month
func DeleteEvent(ctx context.Context, client EventWriter, logger *zap.Logger, id int64, q MonthQuery) (*MonthResult, error) {
	if id <= 0 {
		return nil, fmt.Errorf("invalid event id %d", id)
	}

	logger.Info("Deleting event", zap.Int64("id", id))
	if err := client.DeleteEvent(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to delete event %d: %w", id, err)
	}

	return LoadMonth(ctx, client, logger, q)
}

// FromTemplate builds a recurring event request from a configured template.
// Fields already set on ev take precedence over the template's.
func FromTemplate(tmpl config.RecurringTemplate, ev model.CalEvent, limit int) (NewEventRequest, error) {
	if ev.Note == "" && (tmpl.Tag != "" || tmpl.Detail != "") {
		ev.Note = calendar.NewNote(tmpl.Tag, tmpl.Detail).String()
	}
	if ev.Owner == "" {
		ev.Owner = tmpl.Owner
	}
	if ev.EndDate == "" && tmpl.SpanDays > 1 {
		start, err := calendar.ParseDate(ev.StartDate)
		if err != nil {
			return NewEventRequest{}, fmt.Errorf("invalid start date: %w", err)
		}
		ev.EndDate = calendar.FormatDate(start.AddDate(0, 0, tmpl.SpanDays-1))
	}
	return NewEventRequest{Event: ev, RRule: tmpl.RRule, Limit: limit}, nil
}

// validateEvent checks the fields the backend requires before any write
func validateEvent(ev model.CalEvent) error {
	if err := validate.Struct(ev); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}
	if ev.EndDate != "" && ev.EndDate < ev.StartDate {
		return fmt.Errorf("end date %s is before start date %s", ev.EndDate, ev.StartDate)
	}
	return nil
}
