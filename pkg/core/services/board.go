package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jakechorley/mesctl/pkg/core/layout"
	"github.com/jakechorley/mesctl/pkg/core/model"
	"github.com/jakechorley/mesctl/pkg/core/reconciler"
)

var validate = validator.New()

// BoardClient defines the backend operations needed to render a board
type BoardClient interface {
	ListSlots(ctx context.Context, site, building string) ([]model.SlotRow, error)
}

// BoardWriter defines the backend operations that change slots
type BoardWriter interface {
	BoardClient
	ShipSlot(ctx context.Context, slotCode string) error
	SaveSlot(ctx context.Context, row model.SlotRow) error
	MoveSlot(ctx context.Context, from, to string) error
}

// BoardQuery selects which board to load and what to highlight
type BoardQuery struct {
	Site     string
	Building string
	Search   string
}

// BoardResult is a reconciled board plus the rows it was built from
type BoardResult struct {
	Board     *reconciler.Board
	Rows      []model.SlotRow
	FetchedAt time.Time
}

// Rehighlight re-runs reconciliation over the cached rows with a new search term
func (r *BoardResult) Rehighlight(search string) *BoardResult {
	return &BoardResult{
		Board:     reconciler.Reconcile(r.Board.Layout, r.Rows, search),
		Rows:      r.Rows,
		FetchedAt: r.FetchedAt,
	}
}

// LoadBoard fetches the slot rows for a building and reconciles them against its layout
func LoadBoard(ctx context.Context, client BoardClient, logger *zap.Logger, q BoardQuery) (*BoardResult, error) {
	l, err := layout.Get(q.Site, q.Building)
	if err != nil {
		return nil, err
	}

	logger.Debug("Fetching slots", zap.String("layout", l.Key()))
	rows, err := client.ListSlots(ctx, l.Site, l.Building)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch slots: %w", err)
	}

	board := reconciler.Reconcile(l, rows, q.Search)
	logger.Debug("Board reconciled",
		zap.String("layout", l.Key()),
		zap.Int("rows", len(rows)),
		zap.Int("occupied", board.Occupied()),
		zap.String("highlighted", board.Highlighted))

	if len(board.Duplicates) > 0 {
		logger.Warn("Backend returned duplicate slot codes, keeping the last row for each",
			zap.String("layout", l.Key()),
			zap.Strings("codes", board.Duplicates))
	}
	if len(board.Dropped) > 0 {
		logger.Warn("Ignoring rows for slots outside the layout",
			zap.String("layout", l.Key()),
			zap.Strings("codes", board.Dropped))
	}

	return &BoardResult{Board: board, Rows: rows, FetchedAt: time.Now()}, nil
}

// ShipSlot marks the machine in a slot as shipped, then reloads the board
func ShipSlot(ctx context.Context, client BoardWriter, logger *zap.Logger, q BoardQuery, slotCode string) (*BoardResult, error) {
	code, err := layoutCode(q, slotCode)
	if err != nil {
		return nil, err
	}

	logger.Info("Shipping slot", zap.String("slot", code))
	if err := client.ShipSlot(ctx, code); err != nil {
		return nil, fmt.Errorf("failed to ship %s: %w", code, err)
	}

	return LoadBoard(ctx, client, logger, q)
}

// SaveSlot writes a slot's machine information, then reloads the board
func SaveSlot(ctx context.Context, client BoardWriter, logger *zap.Logger, q BoardQuery, row model.SlotRow) (*BoardResult, error) {
	code, err := layoutCode(q, row.SlotCode)
	if err != nil {
		return nil, err
	}
	row.SlotCode = code

	if err := validate.Struct(row); err != nil {
		return nil, fmt.Errorf("invalid slot row: %w", err)
	}

	logger.Info("Saving slot", zap.String("slot", code), zap.String("machine_id", row.MachineID))
	if err := client.SaveSlot(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to save %s: %w", code, err)
	}

	return LoadBoard(ctx, client, logger, q)
}

// MoveSlot relocates the machine in one slot to another, then reloads the board
func MoveSlot(ctx context.Context, client BoardWriter, logger *zap.Logger, q BoardQuery, from, to string) (*BoardResult, error) {
	src, err := layoutCode(q, from)
	if err != nil {
		return nil, err
	}
	dst, err := layoutCode(q, to)
	if err != nil {
		return nil, err
	}
	if src == dst {
		return nil, fmt.Errorf("source and destination are both %s", src)
	}

	logger.Info("Moving machine", zap.String("from", src), zap.String("to", dst))
	if err := client.MoveSlot(ctx, src, dst); err != nil {
		return nil, fmt.Errorf("failed to move %s to %s: %w", src, dst, err)
	}

	return LoadBoard(ctx, client, logger, q)
}

// layoutCode normalizes a slot code and checks it belongs to the queried layout
func layoutCode(q BoardQuery, slotCode string) (string, error) {
	l, err := layout.Get(q.Site, q.Building)
	if err != nil {
		return "", err
	}
	code := model.NormalizeSlotCode(slotCode)
	if code == "" {
		return "", fmt.Errorf("slot code is required")
	}
	if !l.Contains(code) {
		return "", fmt.Errorf("slot %s is not part of %s", code, l.Name)
	}
	return code, nil
}
