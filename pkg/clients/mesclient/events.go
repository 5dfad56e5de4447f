package mesclient

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/jakechorley/mesctl/pkg/core/model"
)

// ListEvents fetches the calendar events between two ISO dates inclusive
func (c *Client) ListEvents(ctx context.Context, from, to string) ([]model.CalEvent, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}

	var events []model.CalEvent
	resp, err := req.
		SetQueryParams(map[string]string{
			"from": from,
			"to":   to,
		}).
		SetResult(&events).
		Get("/calendar/events")
	if err := c.check(resp, err, "list events"); err != nil {
		return nil, err
	}
	return events, nil
}

// CreateEvent creates a single event and returns it as stored by the backend
func (c *Client) CreateEvent(ctx context.Context, ev model.CalEvent) (*model.CalEvent, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}

	var created model.CalEvent
	resp, err := req.
		SetBody(ev).
		SetResult(&created).
		Post("/calendar/events")
	if err := c.check(resp, err, "create event"); err != nil {
		return nil, err
	}
	return &created, nil
}

// CreateEvents creates several events through the batch endpoint. When the backend has
// no batch endpoint (404 or 405) it falls back to one POST per event.
func (c *Client) CreateEvents(ctx context.Context, events []model.CalEvent) ([]model.CalEvent, error) {
	if len(events) == 0 {
		return nil, nil
	}

	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}

	var created []model.CalEvent
	resp, err := req.
		SetBody(events).
		SetResult(&created).
		Post("/calendar/events/batch")
	err = c.check(resp, err, "create events batch")
	if err == nil {
		return created, nil
	}
	if !isUnsupported(err) {
		return nil, err
	}

	c.logger.Info("Batch endpoint unavailable, creating events one by one", zap.Int("count", len(events)))

	created = make([]model.CalEvent, 0, len(events))
	for i, ev := range events {
		one, err := c.CreateEvent(ctx, ev)
		if err != nil {
			return created, fmt.Errorf("failed to create event %d of %d: %w", i+1, len(events), err)
		}
		created = append(created, *one)
	}
	return created, nil
}

// UpdateEvent applies a partial update to an event
func (c *Client) UpdateEvent(ctx context.Context, id int64, patch model.EventPatch) error {
	req, err := c.request(ctx)
	if err != nil {
		return err
	}

	resp, err := req.
		SetPathParam("id", strconv.FormatInt(id, 10)).
		SetBody(patch).
		Patch("/calendar/events/{id}")
	return c.check(resp, err, "update event")
}

// DeleteEvent deletes an event
func (c *Client) DeleteEvent(ctx context.Context, id int64) error {
	req, err := c.request(ctx)
	if err != nil {
		return err
	}

	resp, err := req.
		SetPathParam("id", strconv.FormatInt(id, 10)).
		Delete("/calendar/events/{id}")
	return c.check(resp, err, "delete event")
}
