package reconciler

import (
	"slices"
	"strings"

	"github.com/jakechorley/mesctl/pkg/core/model"
)

// Tone is the colour/state class of a slot derived from its progress
type Tone string

const (
	ToneEmpty        Tone = "empty"
	ToneInProgress   Tone = "in-progress"
	ToneNearComplete Tone = "near-complete"
	ToneReadyToShip  Tone = "ready-to-ship"
)

// Tile actions offered by the board
const (
	ActionCreate    = "create"
	ActionEdit      = "edit"
	ActionChecklist = "checklist"
	ActionMove      = "move"
	ActionShip      = "ship"
)

// Tile is one rendered slot of the board
type Tile struct {
	Code        string
	Row         model.SlotRow // Zero-progress placeholder when the slot is empty
	Occupied    bool
	Highlighted bool
}

// Tone classifies the tile by its progress
func (t Tile) Tone() Tone {
	return Classify(t.Row.Progress)
}

// Shippable reports whether the ship action applies to the tile
func (t Tile) Shippable() bool {
	return t.Occupied
}

// Actions returns the menu offered for the tile
func (t Tile) Actions() []string {
	if !t.Occupied {
		return []string{ActionCreate}
	}
	return []string{ActionEdit, ActionChecklist, ActionMove, ActionShip}
}

// Board is the complete, renderable mapping of a layout against fetched rows
type Board struct {
	Layout      model.SlotLayout
	Tiles       []Tile         // Layout order, exactly one per layout code
	ByCode      map[string]int // Code -> index into Tiles
	Highlighted string         // Slot code of the first search match, empty if none
	Duplicates  []string       // Codes that appeared more than once in the input rows
	Dropped     []string       // Codes present in rows but absent from the layout
}

// Tile returns the tile for a code
func (b *Board) Tile(code string) (Tile, bool) {
	idx, ok := b.ByCode[model.NormalizeSlotCode(code)]
	if !ok {
		return Tile{}, false
	}
	return b.Tiles[idx], true
}

// Occupied returns the number of occupied tiles
func (b *Board) Occupied() int {
	n := 0
	for _, t := range b.Tiles {
		if t.Occupied {
			n++
		}
	}
	return n
}

// Classify maps a progress percentage onto its tone.
// 50 and 100 belong to the higher tier.
func Classify(progress int) Tone {
	switch {
	case progress <= 0:
		return ToneEmpty
	case progress < 50:
		return ToneInProgress
	case progress < 100:
		return ToneNearComplete
	default:
		return ToneReadyToShip
	}
}

// Reconcile merges the layout universe with the sparse row list and applies the search highlight.
// Later rows overwrite earlier rows with the same code; rows outside the layout are dropped.
func Reconcile(layout model.SlotLayout, rows []model.SlotRow, searchTerm string) *Board {
	index := make(map[string]model.SlotRow, len(rows))
	var duplicates []string
	for _, row := range rows {
		code := model.NormalizeSlotCode(row.SlotCode)
		if code == "" {
			continue
		}
		if _, exists := index[code]; exists && !slices.Contains(duplicates, code) {
			duplicates = append(duplicates, code)
		}
		row.SlotCode = code
		index[code] = row
	}

	board := &Board{
		Layout:     layout,
		Tiles:      make([]Tile, 0, len(layout.Codes)),
		ByCode:     make(map[string]int, len(layout.Codes)),
		Duplicates: duplicates,
	}

	inLayout := make(map[string]bool, len(layout.Codes))
	for _, raw := range layout.Codes {
		code := model.NormalizeSlotCode(raw)
		if inLayout[code] {
			continue
		}
		inLayout[code] = true

		tile := Tile{Code: code}
		if row, ok := index[code]; ok {
			tile.Row = row
			tile.Occupied = row.Occupied()
		} else {
			tile.Row = model.SlotRow{SlotCode: code}
		}

		board.ByCode[code] = len(board.Tiles)
		board.Tiles = append(board.Tiles, tile)
	}

	for _, row := range rows {
		code := model.NormalizeSlotCode(row.SlotCode)
		if code != "" && !inLayout[code] && !slices.Contains(board.Dropped, code) {
			board.Dropped = append(board.Dropped, code)
		}
	}

	board.Highlighted = Highlight(rows, searchTerm)
	if idx, ok := board.ByCode[board.Highlighted]; ok {
		board.Tiles[idx].Highlighted = true
	}

	return board
}

// Highlight returns the slot code of the first row whose machine ID contains the term,
// case-insensitively. An empty term or no match yields "".
func Highlight(rows []model.SlotRow, searchTerm string) string {
	term := strings.ToLower(strings.TrimSpace(searchTerm))
	if term == "" {
		return ""
	}
	for _, row := range rows {
		if row.MachineID == "" {
			continue
		}
		if strings.Contains(strings.ToLower(row.MachineID), term) {
			return model.NormalizeSlotCode(row.SlotCode)
		}
	}
	return ""
}
