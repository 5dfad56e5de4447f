package mesclient

import (
	"context"

	"github.com/jakechorley/mesctl/pkg/core/model"
)

// ListSlots fetches the occupied slot rows of one building
func (c *Client) ListSlots(ctx context.Context, site, building string) ([]model.SlotRow, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.SlotRow
	resp, err := req.
		SetQueryParams(map[string]string{
			"site":     site,
			"building": building,
		}).
		SetResult(&rows).
		Get("/dashboard/slots")
	if err := c.check(resp, err, "list slots"); err != nil {
		return nil, err
	}
	return rows, nil
}

// ShipSlot marks the machine in a slot as shipped, clearing the slot
func (c *Client) ShipSlot(ctx context.Context, slotCode string) error {
	req, err := c.request(ctx)
	if err != nil {
		return err
	}

	resp, err := req.
		SetPathParam("slot_code", model.NormalizeSlotCode(slotCode)).
		Post("/dashboard/ship/{slot_code}")
	return c.check(resp, err, "ship slot")
}

// SaveSlot creates or replaces the information held for a slot
func (c *Client) SaveSlot(ctx context.Context, row model.SlotRow) error {
	req, err := c.request(ctx)
	if err != nil {
		return err
	}

	row.SlotCode = model.NormalizeSlotCode(row.SlotCode)
	resp, err := req.
		SetPathParam("slot_code", row.SlotCode).
		SetBody(row).
		Put("/dashboard/slots/{slot_code}")
	return c.check(resp, err, "save slot")
}

// MoveSlot moves a machine from one slot to another
func (c *Client) MoveSlot(ctx context.Context, from, to string) error {
	req, err := c.request(ctx)
	if err != nil {
		return err
	}

	resp, err := req.
		SetBody(map[string]string{
			"from": model.NormalizeSlotCode(from),
			"to":   model.NormalizeSlotCode(to),
		}).
		Post("/dashboard/move")
	return c.check(resp, err, "move slot")
}
